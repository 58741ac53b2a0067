package analyzer

import (
	"github.com/ludo-technologies/pygather/internal/parser"
)

// refCollector classifies the names of one statement. A name node is
// either bound (a definition or a mutation) or read; bound nodes never
// count as uses.
type refCollector struct {
	stmt    *parser.Node
	rules   []FunctionRule
	symbols *SymbolTable

	defs  *RefSet
	uses  *RefSet
	bound map[*parser.Node]bool

	// shadowed holds the local names of the nested scopes being walked
	shadowed []map[string]bool
}

func newRefCollector(stmt *parser.Node, rules []FunctionRule, symbols *SymbolTable) *refCollector {
	return &refCollector{
		stmt:    stmt,
		rules:   rules,
		symbols: symbols,
		defs:    NewRefSet(),
		uses:    NewRefSet(),
		bound:   make(map[*parser.Node]bool),
	}
}

func (c *refCollector) collect() {
	c.collectEffects(c.stmt)
	for _, ref := range annotatedDefs(c.stmt) {
		c.defs.Add(ref)
	}

	switch c.stmt.Type {
	case parser.NodeAssign:
		for _, target := range c.stmt.Targets {
			c.bindTarget(target)
		}
	case parser.NodeAugAssign:
		for _, target := range c.stmt.Targets {
			c.bindTarget(target)
		}
	case parser.NodeImport, parser.NodeImportFrom:
		for _, alias := range c.stmt.Children {
			if alias.Type != parser.NodeAlias || alias.Name == "*" {
				continue
			}
			name := alias.BoundName()
			c.symbols.AddModule(name)
			c.define(SymbolImport, LevelDefinition, name, alias.Location)
		}
	case parser.NodeFunctionDef:
		c.define(SymbolFunction, LevelDefinition, c.stmt.Name, c.stmt.Location)
	case parser.NodeClassDef:
		c.define(SymbolClass, LevelDefinition, c.stmt.Name, c.stmt.Location)
	}

	c.collectNamedExprs(c.stmt)
	c.collectUses(c.stmt)

	// augmented assignment reads its own target
	if c.stmt.Type == parser.NodeAugAssign {
		for _, target := range c.stmt.Targets {
			if target.Type == parser.NodeName {
				c.use(target)
			}
		}
	}
}

func (c *refCollector) define(symbol SymbolType, level ReferenceLevel, name string, loc parser.Location) {
	if name == "" {
		return
	}
	c.defs.Add(Ref{Type: symbol, Level: level, Name: name, Location: loc, Statement: c.stmt})
}

func (c *refCollector) use(name *parser.Node) {
	c.uses.Add(Ref{Type: SymbolVariable, Level: LevelUse, Name: name.Name, Location: name.Location, Statement: c.stmt})
}

// bindTarget classifies one assignment target. Plain names are defined;
// the root name of an attribute or subscript target is updated in place.
func (c *refCollector) bindTarget(target *parser.Node) {
	if target == nil {
		return
	}
	switch target.Type {
	case parser.NodeName:
		if !c.bound[target] {
			c.bound[target] = true
			c.define(SymbolVariable, LevelDefinition, target.Name, target.Location)
		}
	case parser.NodeTuple, parser.NodeList:
		for _, elt := range target.Children {
			c.bindTarget(elt)
		}
	case parser.NodeStarred:
		c.bindTarget(target.ValueNode())
	case parser.NodeAttribute, parser.NodeSubscript:
		c.mutate(target, LevelUpdate)
	}
}

// mutate records the root name of expr as mutated at level
func (c *refCollector) mutate(expr *parser.Node, level ReferenceLevel) {
	root := mutatedName(expr)
	if root == nil || c.bound[root] {
		return
	}
	c.bound[root] = true
	c.define(SymbolMutation, level, root.Name, root.Location)
}

// mutatedName follows attribute and subscript values down to a name
func mutatedName(expr *parser.Node) *parser.Node {
	for expr != nil {
		switch expr.Type {
		case parser.NodeName:
			return expr
		case parser.NodeAttribute, parser.NodeSubscript, parser.NodeStarred:
			expr = expr.ValueNode()
		default:
			return nil
		}
	}
	return nil
}

// collectEffects applies function rules to calls evaluated by the
// statement itself. Definitions and lambdas are skipped whole.
func (c *refCollector) collectEffects(root *parser.Node) {
	root.Walk(func(n *parser.Node) bool {
		if isScope(n) {
			return false
		}
		if n.Type == parser.NodeCall {
			for _, e := range callEffects(n, c.rules, c.symbols) {
				c.mutate(e.target, e.level)
			}
		}
		return true
	})
}

// collectNamedExprs defines the targets of assignment expressions
func (c *refCollector) collectNamedExprs(root *parser.Node) {
	root.Walk(func(n *parser.Node) bool {
		if isScope(n) {
			return false
		}
		if n.Type == parser.NodeNamedExpr {
			for _, target := range n.Targets {
				c.bindTarget(target)
			}
		}
		return true
	})
}

// collectUses records every name read by node that is not bound here and
// not local to a nested scope
func (c *refCollector) collectUses(node *parser.Node) {
	if node == nil {
		return
	}
	switch node.Type {
	case parser.NodeName:
		if !c.bound[node] && !c.isShadowed(node.Name) {
			c.use(node)
		}
		return
	case parser.NodeFunctionDef:
		c.collectAll(node.Decorator)
		c.collectParams(node.Params)
		c.collectAll(node.Children)
		c.withScope(scopeLocals(node.Params, node.Body), func() {
			c.collectAll(node.Body)
		})
		return
	case parser.NodeClassDef:
		c.collectAll(node.Decorator)
		c.collectAll(node.Bases)
		c.collectAll(node.Keywords)
		c.withScope(scopeLocals(nil, node.Body), func() {
			c.collectAll(node.Body)
		})
		return
	case parser.NodeLambda:
		c.collectParams(node.Params)
		c.withScope(scopeLocals(node.Params, nil), func() {
			c.collectUses(node.ValueNode())
		})
		return
	case parser.NodeListComp, parser.NodeSetComp, parser.NodeDictComp, parser.NodeGeneratorExp:
		locals := make(map[string]bool)
		for _, clause := range node.Children {
			if clause.Type == parser.NodeComprehension {
				addTargetNames(locals, clause.Targets)
			}
		}
		c.withScope(locals, func() {
			for _, child := range node.GetChildren() {
				if child.Type == parser.NodeComprehension {
					c.collectUses(child.Iter)
					c.collectAll(child.Children)
					continue
				}
				c.collectUses(child)
			}
		})
		return
	}
	for _, child := range node.GetChildren() {
		c.collectUses(child)
	}
}

func (c *refCollector) collectAll(nodes []*parser.Node) {
	for _, n := range nodes {
		c.collectUses(n)
	}
}

// collectParams reads defaults and annotations, which are evaluated when
// the function is defined
func (c *refCollector) collectParams(params []*parser.Node) {
	for _, p := range params {
		c.collectUses(p.ValueNode())
		c.collectAll(p.Children)
	}
}

func (c *refCollector) withScope(locals map[string]bool, fn func()) {
	c.shadowed = append(c.shadowed, locals)
	fn()
	c.shadowed = c.shadowed[:len(c.shadowed)-1]
}

func (c *refCollector) isShadowed(name string) bool {
	for _, scope := range c.shadowed {
		if scope[name] {
			return true
		}
	}
	return false
}

func isScope(n *parser.Node) bool {
	switch n.Type {
	case parser.NodeFunctionDef, parser.NodeClassDef, parser.NodeLambda:
		return true
	}
	return false
}

// scopeLocals returns the parameter names plus every name bound in body,
// minus names declared global or nonlocal
func scopeLocals(params []*parser.Node, body []*parser.Node) map[string]bool {
	locals := make(map[string]bool)
	for _, p := range params {
		if p.Name != "" {
			locals[p.Name] = true
		}
	}
	outer := make(map[string]bool)
	for _, stmt := range body {
		stmt.Walk(func(n *parser.Node) bool {
			switch n.Type {
			case parser.NodeFunctionDef, parser.NodeClassDef:
				locals[n.Name] = true
				return false
			case parser.NodeLambda:
				return false
			case parser.NodeAssign, parser.NodeAugAssign, parser.NodeFor, parser.NodeNamedExpr, parser.NodeWithItem:
				addTargetNames(locals, n.Targets)
			case parser.NodeExceptHandler:
				if n.Name != "" {
					locals[n.Name] = true
				}
			case parser.NodeImport, parser.NodeImportFrom:
				for _, alias := range n.Children {
					if alias.Type == parser.NodeAlias && alias.Name != "*" {
						locals[alias.BoundName()] = true
					}
				}
			case parser.NodeGlobal, parser.NodeNonlocal:
				for _, name := range n.Names {
					outer[name] = true
				}
			}
			return true
		})
	}
	for name := range outer {
		delete(locals, name)
	}
	return locals
}

// addTargetNames adds the plain names bound by assignment targets
func addTargetNames(names map[string]bool, targets []*parser.Node) {
	for _, t := range targets {
		if t == nil {
			continue
		}
		switch t.Type {
		case parser.NodeName:
			names[t.Name] = true
		case parser.NodeTuple, parser.NodeList:
			addTargetNames(names, t.Children)
		case parser.NodeStarred:
			addTargetNames(names, []*parser.Node{t.ValueNode()})
		}
	}
}
