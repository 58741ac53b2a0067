package parser

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// ASTBuilder converts tree-sitter parse trees to internal AST representation
type ASTBuilder struct {
	source []byte
}

// NewASTBuilder creates a new AST builder
func NewASTBuilder(source []byte) *ASTBuilder {
	return &ASTBuilder{
		source: source,
	}
}

// Build converts a tree-sitter tree to internal AST
func (b *ASTBuilder) Build(tree *sitter.Tree) (*Node, error) {
	if tree == nil {
		return nil, fmt.Errorf("tree is nil")
	}

	rootNode := tree.RootNode()
	if rootNode == nil {
		return nil, fmt.Errorf("root node is nil")
	}

	return b.buildModule(rootNode), nil
}

func (b *ASTBuilder) buildModule(tsNode *sitter.Node) *Node {
	module := NewNode(NodeModule)
	module.Location = b.getLocation(tsNode)
	for _, child := range b.namedChildren(tsNode) {
		module.AddToBody(b.buildStatement(child))
	}
	return module
}

// buildBlock builds the statements of a block, setting parent references
func (b *ASTBuilder) buildBlock(tsNode *sitter.Node, parent *Node) []*Node {
	if tsNode == nil {
		return nil
	}
	var stmts []*Node
	for _, child := range b.namedChildren(tsNode) {
		stmt := b.buildStatement(child)
		if stmt == nil {
			continue
		}
		stmt.Parent = parent
		stmts = append(stmts, stmt)
	}
	return stmts
}

// buildStatement builds a node in statement position
func (b *ASTBuilder) buildStatement(tsNode *sitter.Node) *Node {
	switch tsNode.Type() {
	case "expression_statement":
		return b.buildExpressionStatement(tsNode)
	case "function_definition":
		return b.buildFunctionDef(tsNode)
	case "class_definition":
		return b.buildClassDef(tsNode)
	case "decorated_definition":
		return b.buildDecoratedDefinition(tsNode)
	case "if_statement":
		return b.buildIfStatement(tsNode)
	case "for_statement":
		return b.buildForStatement(tsNode)
	case "while_statement":
		return b.buildWhileStatement(tsNode)
	case "with_statement":
		return b.buildWithStatement(tsNode)
	case "try_statement":
		return b.buildTryStatement(tsNode)
	case "match_statement":
		return b.buildMatchStatement(tsNode)
	case "return_statement":
		return b.buildWrapped(NodeReturn, tsNode)
	case "raise_statement":
		return b.buildRaiseStatement(tsNode)
	case "delete_statement":
		return b.buildDeleteStatement(tsNode)
	case "assert_statement":
		return b.buildGeneric(NodeAssert, tsNode)
	case "import_statement":
		return b.buildImportStatement(tsNode)
	case "import_from_statement", "future_import_statement":
		return b.buildImportFromStatement(tsNode)
	case "global_statement":
		return b.buildNameDeclaration(NodeGlobal, tsNode)
	case "nonlocal_statement":
		return b.buildNameDeclaration(NodeNonlocal, tsNode)
	case "pass_statement":
		return b.buildLeaf(NodePass, tsNode)
	case "break_statement":
		return b.buildLeaf(NodeBreak, tsNode)
	case "continue_statement":
		return b.buildLeaf(NodeContinue, tsNode)
	}

	stmt := NewNode(NodeExpr)
	stmt.Location = b.getLocation(tsNode)
	stmt.Value = b.buildExpr(tsNode)
	return stmt
}

func (b *ASTBuilder) buildExpressionStatement(tsNode *sitter.Node) *Node {
	named := b.namedChildren(tsNode)
	if len(named) == 1 {
		switch named[0].Type() {
		case "assignment":
			return b.buildAssignment(named[0], tsNode)
		case "augmented_assignment":
			return b.buildAugmentedAssignment(named[0], tsNode)
		}
	}

	stmt := NewNode(NodeExpr)
	stmt.Location = b.getLocation(tsNode)
	if len(named) == 1 {
		stmt.Value = b.buildExpr(named[0])
	} else {
		tuple := NewNode(NodeTuple)
		tuple.Location = stmt.Location
		for _, child := range named {
			tuple.AddChild(b.buildExpr(child))
		}
		stmt.Value = tuple
	}
	return stmt
}

// buildAssignment flattens chained assignments (a = b = 1) into one node
func (b *ASTBuilder) buildAssignment(tsNode, stmtNode *sitter.Node) *Node {
	assign := NewNode(NodeAssign)
	assign.Location = b.getLocation(stmtNode)

	current := tsNode
	for current != nil {
		if left := current.ChildByFieldName("left"); left != nil {
			assign.Targets = append(assign.Targets, b.buildExpr(left))
		}
		if typ := current.ChildByFieldName("type"); typ != nil {
			assign.AddChild(b.buildExpr(typ))
		}
		right := current.ChildByFieldName("right")
		if right != nil && right.Type() == "assignment" {
			current = right
			continue
		}
		if right != nil {
			assign.Value = b.buildExpr(right)
		}
		current = nil
	}
	return assign
}

func (b *ASTBuilder) buildAugmentedAssignment(tsNode, stmtNode *sitter.Node) *Node {
	assign := NewNode(NodeAugAssign)
	assign.Location = b.getLocation(stmtNode)
	if left := tsNode.ChildByFieldName("left"); left != nil {
		assign.Targets = []*Node{b.buildExpr(left)}
	}
	if op := tsNode.ChildByFieldName("operator"); op != nil {
		assign.Op = b.getNodeText(op)
	}
	if right := tsNode.ChildByFieldName("right"); right != nil {
		assign.Value = b.buildExpr(right)
	}
	return assign
}

func (b *ASTBuilder) buildFunctionDef(tsNode *sitter.Node) *Node {
	fn := NewNode(NodeFunctionDef)
	fn.Location = b.getLocation(tsNode)
	fn.Header = b.getHeaderLocation(tsNode)
	if name := tsNode.ChildByFieldName("name"); name != nil {
		fn.Name = b.getNodeText(name)
	}
	fn.Params = b.buildParameters(tsNode.ChildByFieldName("parameters"))
	if ret := tsNode.ChildByFieldName("return_type"); ret != nil {
		fn.AddChild(b.buildExpr(ret))
	}
	fn.Body = b.buildBlock(tsNode.ChildByFieldName("body"), fn)
	return fn
}

func (b *ASTBuilder) buildClassDef(tsNode *sitter.Node) *Node {
	class := NewNode(NodeClassDef)
	class.Location = b.getLocation(tsNode)
	class.Header = b.getHeaderLocation(tsNode)
	if name := tsNode.ChildByFieldName("name"); name != nil {
		class.Name = b.getNodeText(name)
	}
	if supers := tsNode.ChildByFieldName("superclasses"); supers != nil {
		for _, base := range b.namedChildren(supers) {
			class.Bases = append(class.Bases, b.buildExpr(base))
		}
	}
	class.Body = b.buildBlock(tsNode.ChildByFieldName("body"), class)
	return class
}

// buildDecoratedDefinition attaches decorators and widens the location to cover them
func (b *ASTBuilder) buildDecoratedDefinition(tsNode *sitter.Node) *Node {
	defNode := tsNode.ChildByFieldName("definition")
	if defNode == nil {
		return b.buildGeneric(NodeExpr, tsNode)
	}
	def := b.buildStatement(defNode)
	for _, child := range b.namedChildren(tsNode) {
		if child.Type() != "decorator" {
			continue
		}
		dec := NewNode(NodeDecorator)
		dec.Location = b.getLocation(child)
		if named := b.namedChildren(child); len(named) > 0 {
			dec.Value = b.buildExpr(named[0])
		}
		dec.Parent = def
		def.Decorator = append(def.Decorator, dec)
	}
	def.Location = b.getLocation(tsNode)
	return def
}

// buildIfStatement nests elif/else clauses through Orelse: each If or
// ElifClause holds at most one ElifClause or ElseClause there
func (b *ASTBuilder) buildIfStatement(tsNode *sitter.Node) *Node {
	ifNode := NewNode(NodeIf)
	ifNode.Location = b.getLocation(tsNode)
	ifNode.Header = b.getHeaderLocation(tsNode)
	if cond := tsNode.ChildByFieldName("condition"); cond != nil {
		ifNode.Test = b.buildExpr(cond)
	}
	ifNode.Body = b.buildBlock(tsNode.ChildByFieldName("consequence"), ifNode)

	tail := ifNode
	for _, child := range b.namedChildren(tsNode) {
		switch child.Type() {
		case "elif_clause":
			elif := NewNode(NodeElifClause)
			elif.Location = b.getLocation(child)
			elif.Header = b.getHeaderLocation(child)
			if cond := child.ChildByFieldName("condition"); cond != nil {
				elif.Test = b.buildExpr(cond)
			}
			elif.Body = b.buildBlock(child.ChildByFieldName("consequence"), elif)
			elif.Parent = tail
			tail.Orelse = []*Node{elif}
			tail = elif
		case "else_clause":
			tail.Orelse = []*Node{b.buildElseClause(child, tail)}
		}
	}
	return ifNode
}

func (b *ASTBuilder) buildElseClause(tsNode *sitter.Node, parent *Node) *Node {
	elseNode := NewNode(NodeElseClause)
	elseNode.Location = b.getLocation(tsNode)
	elseNode.Header = b.getHeaderLocation(tsNode)
	elseNode.Parent = parent
	elseNode.Body = b.buildBlock(tsNode.ChildByFieldName("body"), elseNode)
	return elseNode
}

// buildLoopElse returns the statements of a for/while else clause
func (b *ASTBuilder) buildLoopElse(tsNode *sitter.Node, loop *Node) []*Node {
	alt := tsNode.ChildByFieldName("alternative")
	if alt == nil {
		return nil
	}
	return b.buildBlock(alt.ChildByFieldName("body"), loop)
}

func (b *ASTBuilder) buildForStatement(tsNode *sitter.Node) *Node {
	forNode := NewNode(NodeFor)
	forNode.Location = b.getLocation(tsNode)
	forNode.Header = b.getHeaderLocation(tsNode)
	if left := tsNode.ChildByFieldName("left"); left != nil {
		forNode.Targets = []*Node{b.buildExpr(left)}
	}
	if right := tsNode.ChildByFieldName("right"); right != nil {
		forNode.Iter = b.buildExpr(right)
	}
	forNode.Body = b.buildBlock(tsNode.ChildByFieldName("body"), forNode)
	forNode.Orelse = b.buildLoopElse(tsNode, forNode)
	return forNode
}

func (b *ASTBuilder) buildWhileStatement(tsNode *sitter.Node) *Node {
	whileNode := NewNode(NodeWhile)
	whileNode.Location = b.getLocation(tsNode)
	whileNode.Header = b.getHeaderLocation(tsNode)
	if cond := tsNode.ChildByFieldName("condition"); cond != nil {
		whileNode.Test = b.buildExpr(cond)
	}
	whileNode.Body = b.buildBlock(tsNode.ChildByFieldName("body"), whileNode)
	whileNode.Orelse = b.buildLoopElse(tsNode, whileNode)
	return whileNode
}

func (b *ASTBuilder) buildWithStatement(tsNode *sitter.Node) *Node {
	withNode := NewNode(NodeWith)
	withNode.Location = b.getLocation(tsNode)
	withNode.Header = b.getHeaderLocation(tsNode)
	for _, child := range b.namedChildren(tsNode) {
		switch child.Type() {
		case "with_clause":
			for _, item := range b.namedChildren(child) {
				if item.Type() == "with_item" {
					withNode.AddChild(b.buildWithItem(item))
				}
			}
		case "with_item":
			withNode.AddChild(b.buildWithItem(child))
		}
	}
	withNode.Body = b.buildBlock(tsNode.ChildByFieldName("body"), withNode)
	return withNode
}

// buildWithItem splits "expr as target" into Value and Targets
func (b *ASTBuilder) buildWithItem(tsNode *sitter.Node) *Node {
	item := NewNode(NodeWithItem)
	item.Location = b.getLocation(tsNode)

	value := tsNode.ChildByFieldName("value")
	if value == nil {
		named := b.namedChildren(tsNode)
		if len(named) == 0 {
			return item
		}
		value = named[0]
	}

	if value.Type() != "as_pattern" {
		item.Value = b.buildExpr(value)
		return item
	}

	named := b.namedChildren(value)
	if len(named) > 0 {
		item.Value = b.buildExpr(named[0])
	}
	if alias := value.ChildByFieldName("alias"); alias != nil {
		item.Targets = []*Node{b.buildAsTarget(alias)}
	}
	return item
}

func (b *ASTBuilder) buildAsTarget(alias *sitter.Node) *Node {
	if alias.Type() == "as_pattern_target" {
		if named := b.namedChildren(alias); len(named) == 1 {
			return b.buildExpr(named[0])
		}
	}
	return b.buildExpr(alias)
}

func (b *ASTBuilder) buildTryStatement(tsNode *sitter.Node) *Node {
	tryNode := NewNode(NodeTry)
	tryNode.Location = b.getLocation(tsNode)
	tryNode.Header = b.getHeaderLocation(tsNode)
	tryNode.Body = b.buildBlock(tsNode.ChildByFieldName("body"), tryNode)

	for _, child := range b.namedChildren(tsNode) {
		switch child.Type() {
		case "except_clause", "except_group_clause":
			handler := b.buildExceptHandler(child)
			handler.Parent = tryNode
			tryNode.Handlers = append(tryNode.Handlers, handler)
		case "else_clause":
			tryNode.Orelse = b.buildBlock(child.ChildByFieldName("body"), tryNode)
		case "finally_clause":
			for _, block := range b.namedChildren(child) {
				if block.Type() == "block" {
					tryNode.Finalbody = b.buildBlock(block, tryNode)
				}
			}
		}
	}
	return tryNode
}

// buildExceptHandler records the exception type in Test and the bound name in Targets
func (b *ASTBuilder) buildExceptHandler(tsNode *sitter.Node) *Node {
	handler := NewNode(NodeExceptHandler)
	handler.Location = b.getLocation(tsNode)
	handler.Header = b.getHeaderLocation(tsNode)

	sawAs := false
	count := int(tsNode.ChildCount())
	for i := 0; i < count; i++ {
		child := tsNode.Child(i)
		switch {
		case child.Type() == "as":
			sawAs = true
		case !child.IsNamed() || b.isTrivia(child):
		case child.Type() == "block":
			handler.Body = b.buildBlock(child, handler)
		case child.Type() == "as_pattern":
			if named := b.namedChildren(child); len(named) > 0 {
				handler.Test = b.buildExpr(named[0])
			}
			if alias := child.ChildByFieldName("alias"); alias != nil {
				target := b.buildAsTarget(alias)
				handler.Name = b.getNodeText(alias)
				handler.Targets = []*Node{target}
			}
		case sawAs:
			target := b.buildExpr(child)
			handler.Name = b.getNodeText(child)
			handler.Targets = []*Node{target}
		default:
			handler.Test = b.buildExpr(child)
		}
	}
	return handler
}

// buildMatchStatement keeps the subject in Test and one Handlers entry per case
func (b *ASTBuilder) buildMatchStatement(tsNode *sitter.Node) *Node {
	match := NewNode(NodeMatch)
	match.Location = b.getLocation(tsNode)
	match.Header = b.getHeaderLocation(tsNode)
	if subject := tsNode.ChildByFieldName("subject"); subject != nil {
		match.Test = b.buildExpr(subject)
	}

	var cases []*sitter.Node
	for _, child := range b.namedChildren(tsNode) {
		switch child.Type() {
		case "case_clause":
			cases = append(cases, child)
		case "block":
			for _, c := range b.namedChildren(child) {
				if c.Type() == "case_clause" {
					cases = append(cases, c)
				}
			}
		}
	}

	for _, c := range cases {
		caseNode := NewNode(NodeElifClause)
		caseNode.Location = b.getLocation(c)
		caseNode.Header = b.getHeaderLocation(c)
		caseNode.Parent = match
		for _, part := range b.namedChildren(c) {
			if part.Type() == "block" {
				caseNode.Body = b.buildBlock(part, caseNode)
				continue
			}
			caseNode.AddChild(b.buildExpr(part))
		}
		match.Handlers = append(match.Handlers, caseNode)
	}
	return match
}

func (b *ASTBuilder) buildRaiseStatement(tsNode *sitter.Node) *Node {
	raise := NewNode(NodeRaise)
	raise.Location = b.getLocation(tsNode)
	for i, child := range b.namedChildren(tsNode) {
		if i == 0 {
			raise.Value = b.buildExpr(child)
			continue
		}
		raise.AddChild(b.buildExpr(child))
	}
	return raise
}

func (b *ASTBuilder) buildDeleteStatement(tsNode *sitter.Node) *Node {
	del := NewNode(NodeDelete)
	del.Location = b.getLocation(tsNode)
	for _, child := range b.namedChildren(tsNode) {
		del.Targets = append(del.Targets, b.buildExpr(child))
	}
	return del
}

func (b *ASTBuilder) buildImportStatement(tsNode *sitter.Node) *Node {
	imp := NewNode(NodeImport)
	imp.Location = b.getLocation(tsNode)
	for _, child := range b.namedChildren(tsNode) {
		if alias := b.buildAlias(child); alias != nil {
			imp.AddChild(alias)
		}
	}
	return imp
}

func (b *ASTBuilder) buildImportFromStatement(tsNode *sitter.Node) *Node {
	imp := NewNode(NodeImportFrom)
	imp.Location = b.getLocation(tsNode)

	moduleNode := tsNode.ChildByFieldName("module_name")
	if tsNode.Type() == "future_import_statement" {
		imp.Module = "__future__"
	} else if moduleNode != nil {
		text := b.getNodeText(moduleNode)
		trimmed := strings.TrimLeft(text, ".")
		imp.Level = len(text) - len(trimmed)
		imp.Module = trimmed
	}

	for _, child := range b.namedChildren(tsNode) {
		if moduleNode != nil && child.StartByte() == moduleNode.StartByte() && child.EndByte() == moduleNode.EndByte() {
			continue
		}
		if child.Type() == "wildcard_import" {
			star := NewNode(NodeAlias)
			star.Name = "*"
			star.Location = b.getLocation(child)
			imp.AddChild(star)
			continue
		}
		if alias := b.buildAlias(child); alias != nil {
			imp.AddChild(alias)
		}
	}
	return imp
}

// buildAlias builds an imported name; Value holds the "as" name when present
func (b *ASTBuilder) buildAlias(tsNode *sitter.Node) *Node {
	switch tsNode.Type() {
	case "dotted_name", "identifier":
		alias := NewNode(NodeAlias)
		alias.Name = b.getNodeText(tsNode)
		alias.Location = b.getLocation(tsNode)
		return alias
	case "aliased_import":
		alias := NewNode(NodeAlias)
		alias.Location = b.getLocation(tsNode)
		if name := tsNode.ChildByFieldName("name"); name != nil {
			alias.Name = b.getNodeText(name)
		}
		if as := tsNode.ChildByFieldName("alias"); as != nil {
			alias.Value = b.getNodeText(as)
		}
		return alias
	}
	return nil
}

func (b *ASTBuilder) buildNameDeclaration(nodeType NodeType, tsNode *sitter.Node) *Node {
	decl := NewNode(nodeType)
	decl.Location = b.getLocation(tsNode)
	for _, child := range b.namedChildren(tsNode) {
		if child.Type() == "identifier" {
			decl.Names = append(decl.Names, b.getNodeText(child))
		}
	}
	return decl
}

// buildExpr builds a node in expression position
func (b *ASTBuilder) buildExpr(tsNode *sitter.Node) *Node {
	if tsNode == nil {
		return nil
	}

	switch tsNode.Type() {
	case "identifier", "keyword_identifier":
		name := NewNode(NodeName)
		name.Name = b.getNodeText(tsNode)
		name.Location = b.getLocation(tsNode)
		return name
	case "integer", "float", "true", "false", "none", "ellipsis":
		return b.buildLeafValue(tsNode)
	case "string":
		return b.buildString(tsNode)
	case "concatenated_string":
		return b.buildConcatenatedString(tsNode)
	case "attribute":
		return b.buildAttribute(tsNode)
	case "subscript":
		return b.buildSubscript(tsNode)
	case "call":
		return b.buildCall(tsNode)
	case "keyword_argument":
		kw := NewNode(NodeKeyword)
		kw.Location = b.getLocation(tsNode)
		if name := tsNode.ChildByFieldName("name"); name != nil {
			kw.Name = b.getNodeText(name)
		}
		kw.Value = b.buildExpr(tsNode.ChildByFieldName("value"))
		return kw
	case "lambda":
		lambda := NewNode(NodeLambda)
		lambda.Location = b.getLocation(tsNode)
		lambda.Params = b.buildParameters(tsNode.ChildByFieldName("parameters"))
		lambda.Value = b.buildExpr(tsNode.ChildByFieldName("body"))
		return lambda
	case "named_expression":
		named := NewNode(NodeNamedExpr)
		named.Location = b.getLocation(tsNode)
		if target := tsNode.ChildByFieldName("name"); target != nil {
			named.Targets = []*Node{b.buildExpr(target)}
		}
		named.Value = b.buildExpr(tsNode.ChildByFieldName("value"))
		return named
	case "list_comprehension":
		return b.buildComprehension(NodeListComp, tsNode)
	case "set_comprehension":
		return b.buildComprehension(NodeSetComp, tsNode)
	case "dictionary_comprehension":
		return b.buildComprehension(NodeDictComp, tsNode)
	case "generator_expression":
		return b.buildComprehension(NodeGeneratorExp, tsNode)
	case "parenthesized_expression":
		if named := b.namedChildren(tsNode); len(named) == 1 {
			return b.buildExpr(named[0])
		}
		return b.buildGeneric(NodeTuple, tsNode)
	case "binary_operator":
		return b.buildOperator(NodeBinOp, tsNode)
	case "boolean_operator":
		return b.buildOperator(NodeBoolOp, tsNode)
	case "comparison_operator":
		return b.buildGeneric(NodeCompare, tsNode)
	case "not_operator", "unary_operator":
		return b.buildOperator(NodeUnaryOp, tsNode)
	case "conditional_expression":
		return b.buildGeneric(NodeIfExp, tsNode)
	case "list", "list_pattern":
		return b.buildGeneric(NodeList, tsNode)
	case "tuple", "tuple_pattern", "pattern_list", "expression_list":
		return b.buildGeneric(NodeTuple, tsNode)
	case "set":
		return b.buildGeneric(NodeSet, tsNode)
	case "dictionary":
		return b.buildGeneric(NodeDict, tsNode)
	case "list_splat", "list_splat_pattern", "dictionary_splat", "dictionary_splat_pattern":
		return b.buildWrapped(NodeStarred, tsNode)
	case "await":
		return b.buildWrapped(NodeAwait, tsNode)
	case "yield":
		return b.buildGeneric(NodeYield, tsNode)
	case "slice":
		return b.buildGeneric(NodeSlice, tsNode)
	}

	return b.buildGeneric(NodeType(tsNode.Type()), tsNode)
}

func (b *ASTBuilder) buildAttribute(tsNode *sitter.Node) *Node {
	attr := NewNode(NodeAttribute)
	attr.Location = b.getLocation(tsNode)
	attr.Value = b.buildExpr(tsNode.ChildByFieldName("object"))
	if name := tsNode.ChildByFieldName("attribute"); name != nil {
		attr.Name = b.getNodeText(name)
	}
	return attr
}

// buildSubscript keeps the subscripted value in Value and indices in Children
func (b *ASTBuilder) buildSubscript(tsNode *sitter.Node) *Node {
	sub := NewNode(NodeSubscript)
	sub.Location = b.getLocation(tsNode)
	for i, child := range b.namedChildren(tsNode) {
		if i == 0 {
			sub.Value = b.buildExpr(child)
			continue
		}
		sub.AddChild(b.buildExpr(child))
	}
	return sub
}

func (b *ASTBuilder) buildCall(tsNode *sitter.Node) *Node {
	call := NewNode(NodeCall)
	call.Location = b.getLocation(tsNode)
	call.Value = b.buildExpr(tsNode.ChildByFieldName("function"))

	args := tsNode.ChildByFieldName("arguments")
	if args == nil {
		return call
	}
	if args.Type() == "generator_expression" {
		call.Args = []*Node{b.buildExpr(args)}
		return call
	}
	for _, arg := range b.namedChildren(args) {
		built := b.buildExpr(arg)
		if built == nil {
			continue
		}
		built.Parent = call
		if built.Type == NodeKeyword {
			call.Keywords = append(call.Keywords, built)
		} else {
			call.Args = append(call.Args, built)
		}
	}
	return call
}

// buildComprehension keeps the element in Value and one Comprehension child
// per for-clause; if-clauses attach to the preceding for-clause
func (b *ASTBuilder) buildComprehension(nodeType NodeType, tsNode *sitter.Node) *Node {
	comp := NewNode(nodeType)
	comp.Location = b.getLocation(tsNode)

	var last *Node
	for i, child := range b.namedChildren(tsNode) {
		switch child.Type() {
		case "for_in_clause":
			clause := NewNode(NodeComprehension)
			clause.Location = b.getLocation(child)
			if left := child.ChildByFieldName("left"); left != nil {
				clause.Targets = []*Node{b.buildExpr(left)}
			}
			clause.Iter = b.buildExpr(child.ChildByFieldName("right"))
			comp.AddChild(clause)
			last = clause
		case "if_clause":
			cond := b.buildGeneric(NodeType("if_clause"), child)
			if last != nil {
				last.AddChild(cond)
			} else {
				comp.AddChild(cond)
			}
		default:
			if i == 0 {
				comp.Value = b.buildExpr(child)
			} else {
				comp.AddChild(b.buildExpr(child))
			}
		}
	}
	return comp
}

// buildParameters builds Arg nodes; defaults go in Value, annotations in Children
func (b *ASTBuilder) buildParameters(tsNode *sitter.Node) []*Node {
	if tsNode == nil {
		return nil
	}
	var params []*Node
	for _, child := range b.namedChildren(tsNode) {
		param := NewNode(NodeArg)
		param.Location = b.getLocation(child)
		switch child.Type() {
		case "identifier":
			param.Name = b.getNodeText(child)
		case "typed_parameter":
			param.Name = b.firstIdentifier(child)
			if typ := child.ChildByFieldName("type"); typ != nil {
				param.AddChild(b.buildExpr(typ))
			}
		case "default_parameter", "typed_default_parameter":
			if name := child.ChildByFieldName("name"); name != nil {
				param.Name = b.firstIdentifier(name)
			}
			if typ := child.ChildByFieldName("type"); typ != nil {
				param.AddChild(b.buildExpr(typ))
			}
			param.Value = b.buildExpr(child.ChildByFieldName("value"))
		case "list_splat_pattern":
			param.Name = b.firstIdentifier(child)
			param.Op = "*"
		case "dictionary_splat_pattern":
			param.Name = b.firstIdentifier(child)
			param.Op = "**"
		default:
			continue
		}
		params = append(params, param)
	}
	return params
}

func (b *ASTBuilder) firstIdentifier(tsNode *sitter.Node) string {
	if tsNode.Type() == "identifier" {
		return b.getNodeText(tsNode)
	}
	for _, child := range b.namedChildren(tsNode) {
		if name := b.firstIdentifier(child); name != "" {
			return name
		}
	}
	return ""
}

// buildString strips prefixes and quotes; interpolations become children
func (b *ASTBuilder) buildString(tsNode *sitter.Node) *Node {
	str := NewNode(NodeConstant)
	str.Location = b.getLocation(tsNode)
	str.Value = stripQuotes(b.getNodeText(tsNode))
	b.addInterpolations(str, tsNode)
	return str
}

func (b *ASTBuilder) buildConcatenatedString(tsNode *sitter.Node) *Node {
	str := NewNode(NodeConstant)
	str.Location = b.getLocation(tsNode)
	var text strings.Builder
	for _, part := range b.namedChildren(tsNode) {
		if part.Type() != "string" {
			continue
		}
		text.WriteString(stripQuotes(b.getNodeText(part)))
		b.addInterpolations(str, part)
	}
	str.Value = text.String()
	return str
}

func (b *ASTBuilder) addInterpolations(str *Node, tsNode *sitter.Node) {
	for _, part := range b.namedChildren(tsNode) {
		if part.Type() != "interpolation" {
			continue
		}
		if expr := part.ChildByFieldName("expression"); expr != nil {
			str.AddChild(b.buildExpr(expr))
			continue
		}
		if named := b.namedChildren(part); len(named) > 0 {
			str.AddChild(b.buildExpr(named[0]))
		}
	}
}

func stripQuotes(text string) string {
	body := strings.TrimLeft(text, "rRbBuUfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(body) >= 2*len(q) && strings.HasPrefix(body, q) && strings.HasSuffix(body, q) {
			return body[len(q) : len(body)-len(q)]
		}
	}
	return body
}

func (b *ASTBuilder) buildOperator(nodeType NodeType, tsNode *sitter.Node) *Node {
	node := b.buildGeneric(nodeType, tsNode)
	if op := tsNode.ChildByFieldName("operator"); op != nil {
		node.Op = b.getNodeText(op)
	}
	return node
}

// buildWrapped builds a node whose single operand is stored in Value
func (b *ASTBuilder) buildWrapped(nodeType NodeType, tsNode *sitter.Node) *Node {
	node := NewNode(nodeType)
	node.Location = b.getLocation(tsNode)
	if named := b.namedChildren(tsNode); len(named) > 0 {
		node.Value = b.buildExpr(named[0])
		for _, extra := range named[1:] {
			node.AddChild(b.buildExpr(extra))
		}
	}
	return node
}

// buildGeneric builds a node whose named children are all expressions
func (b *ASTBuilder) buildGeneric(nodeType NodeType, tsNode *sitter.Node) *Node {
	node := NewNode(nodeType)
	node.Location = b.getLocation(tsNode)
	for _, child := range b.namedChildren(tsNode) {
		node.AddChild(b.buildExpr(child))
	}
	return node
}

func (b *ASTBuilder) buildLeaf(nodeType NodeType, tsNode *sitter.Node) *Node {
	node := NewNode(nodeType)
	node.Location = b.getLocation(tsNode)
	return node
}

func (b *ASTBuilder) buildLeafValue(tsNode *sitter.Node) *Node {
	node := NewNode(NodeConstant)
	node.Location = b.getLocation(tsNode)
	node.Value = b.getNodeText(tsNode)
	return node
}

// Helper methods

func (b *ASTBuilder) getLocation(tsNode *sitter.Node) Location {
	start := tsNode.StartPoint()
	end := tsNode.EndPoint()
	return Location{
		StartLine: int(start.Row) + 1,
		StartCol:  int(start.Column),
		EndLine:   int(end.Row) + 1,
		EndCol:    int(end.Column),
	}
}

// getHeaderLocation spans from the statement start to the colon opening its body
func (b *ASTBuilder) getHeaderLocation(tsNode *sitter.Node) Location {
	loc := b.getLocation(tsNode)
	count := int(tsNode.ChildCount())
	for i := 0; i < count; i++ {
		child := tsNode.Child(i)
		if child.Type() == ":" {
			end := child.EndPoint()
			loc.EndLine = int(end.Row) + 1
			loc.EndCol = int(end.Column)
			return loc
		}
	}
	return loc
}

func (b *ASTBuilder) getNodeText(tsNode *sitter.Node) string {
	return tsNode.Content(b.source)
}

func (b *ASTBuilder) namedChildren(tsNode *sitter.Node) []*sitter.Node {
	var children []*sitter.Node
	count := int(tsNode.NamedChildCount())
	for i := 0; i < count; i++ {
		child := tsNode.NamedChild(i)
		if child == nil || b.isTrivia(child) {
			continue
		}
		children = append(children, child)
	}
	return children
}

func (b *ASTBuilder) isTrivia(tsNode *sitter.Node) bool {
	t := tsNode.Type()
	return t == "comment" || t == "line_continuation"
}
