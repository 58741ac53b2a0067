package parser

import (
	"fmt"
	"strings"
)

// NodeType represents the type of AST node
type NodeType string

// Python AST node types
const (
	// Module and structure
	NodeModule NodeType = "Module"

	// Statements
	NodeFunctionDef   NodeType = "FunctionDef"
	NodeClassDef      NodeType = "ClassDef"
	NodeReturn        NodeType = "Return"
	NodeDelete        NodeType = "Delete"
	NodeAssign        NodeType = "Assign"
	NodeAugAssign     NodeType = "AugAssign"
	NodeFor           NodeType = "For"
	NodeWhile         NodeType = "While"
	NodeIf            NodeType = "If"
	NodeWith          NodeType = "With"
	NodeMatch         NodeType = "Match"
	NodeRaise         NodeType = "Raise"
	NodeTry           NodeType = "Try"
	NodeAssert        NodeType = "Assert"
	NodeImport        NodeType = "Import"
	NodeImportFrom    NodeType = "ImportFrom"
	NodeGlobal        NodeType = "Global"
	NodeNonlocal      NodeType = "Nonlocal"
	NodeExpr          NodeType = "Expr"
	NodePass          NodeType = "Pass"
	NodeBreak         NodeType = "Break"
	NodeContinue      NodeType = "Continue"
	NodeElifClause    NodeType = "ElifClause"
	NodeElseClause    NodeType = "ElseClause"
	NodeExceptHandler NodeType = "ExceptHandler"
	NodeWithItem      NodeType = "WithItem"

	// Expressions
	NodeBoolOp        NodeType = "BoolOp"
	NodeNamedExpr     NodeType = "NamedExpr"
	NodeBinOp         NodeType = "BinOp"
	NodeUnaryOp       NodeType = "UnaryOp"
	NodeLambda        NodeType = "Lambda"
	NodeIfExp         NodeType = "IfExp"
	NodeDict          NodeType = "Dict"
	NodeSet           NodeType = "Set"
	NodeListComp      NodeType = "ListComp"
	NodeSetComp       NodeType = "SetComp"
	NodeDictComp      NodeType = "DictComp"
	NodeGeneratorExp  NodeType = "GeneratorExp"
	NodeComprehension NodeType = "Comprehension"
	NodeAwait         NodeType = "Await"
	NodeYield         NodeType = "Yield"
	NodeCompare       NodeType = "Compare"
	NodeCall          NodeType = "Call"
	NodeKeyword       NodeType = "Keyword"
	NodeConstant      NodeType = "Constant"
	NodeAttribute     NodeType = "Attribute"
	NodeSubscript     NodeType = "Subscript"
	NodeStarred       NodeType = "Starred"
	NodeName          NodeType = "Name"
	NodeList          NodeType = "List"
	NodeTuple         NodeType = "Tuple"
	NodeSlice         NodeType = "Slice"

	// Other
	NodeAlias     NodeType = "Alias"
	NodeArg       NodeType = "Arg"
	NodeDecorator NodeType = "Decorator"
)

// Location is a source range. Lines are 1-based, columns 0-based and the
// end column is exclusive. It is comparable and used directly as a map key.
type Location struct {
	StartLine int `json:"start_line" yaml:"start_line" msgpack:"start_line"`
	StartCol  int `json:"start_col" yaml:"start_col" msgpack:"start_col"`
	EndLine   int `json:"end_line" yaml:"end_line" msgpack:"end_line"`
	EndCol    int `json:"end_col" yaml:"end_col" msgpack:"end_col"`
}

// IsZero reports whether the location was never set
func (l Location) IsZero() bool {
	return l == Location{}
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", l.StartLine, l.StartCol, l.EndLine, l.EndCol)
}

// Node represents an AST node
type Node struct {
	Type     NodeType
	Value    interface{} // *Node for wrapped expressions, string for literals and aliases
	Children []*Node
	Location Location
	// Header spans a compound statement up to the colon that opens its body
	Header Location
	Parent *Node

	Name      string   // For function/class definitions, names, attributes, keywords
	Targets   []*Node  // For assignments, for loops, with items, comprehensions
	Body      []*Node  // For compound statements
	Orelse    []*Node  // For if/for/while/try statements
	Finalbody []*Node  // For try statements
	Handlers  []*Node  // For try statements
	Test      *Node    // For if/while conditions and except types
	Iter      *Node    // For for loops and comprehensions
	Args      []*Node  // For call arguments
	Keywords  []*Node  // For call keyword arguments
	Decorator []*Node  // For decorated functions/classes
	Bases     []*Node  // For class definitions
	Params    []*Node  // For function and lambda parameters
	Op        string   // For operations
	Module    string   // For from-imports
	Names     []string // For global/nonlocal
	Level     int      // For relative imports
}

// NewNode creates a new AST node
func NewNode(nodeType NodeType) *Node {
	return &Node{
		Type: nodeType,
	}
}

// AddChild adds a child node
func (n *Node) AddChild(child *Node) {
	if child != nil {
		child.Parent = n
		n.Children = append(n.Children, child)
	}
}

// AddToBody adds a statement to the body
func (n *Node) AddToBody(stmt *Node) {
	if stmt != nil {
		stmt.Parent = n
		n.Body = append(n.Body, stmt)
	}
}

// ValueNode returns Value as a node, or nil when it holds something else
func (n *Node) ValueNode() *Node {
	if v, ok := n.Value.(*Node); ok {
		return v
	}
	return nil
}

// StringValue returns Value as a string, or "" when it holds something else
func (n *Node) StringValue() string {
	if s, ok := n.Value.(string); ok {
		return s
	}
	return ""
}

// BoundName returns the name an import alias binds in the importing scope.
// "import a.b" binds "a", "import a.b as c" binds "c".
func (n *Node) BoundName() string {
	if asname := n.StringValue(); asname != "" {
		return asname
	}
	if i := strings.Index(n.Name, "."); i >= 0 {
		return n.Name[:i]
	}
	return n.Name
}

// IsStatement reports whether the node kind appears in statement position
func (n *Node) IsStatement() bool {
	switch n.Type {
	case NodeFunctionDef, NodeClassDef, NodeReturn, NodeDelete, NodeAssign,
		NodeAugAssign, NodeFor, NodeWhile, NodeIf, NodeWith, NodeMatch, NodeRaise,
		NodeTry, NodeAssert, NodeImport, NodeImportFrom, NodeGlobal, NodeNonlocal,
		NodeExpr, NodePass, NodeBreak, NodeContinue:
		return true
	}
	return false
}

// String returns a compact description of the node
func (n *Node) String() string {
	if n.Name != "" {
		return fmt.Sprintf("%s(%s)@%s", n.Type, n.Name, n.Location)
	}
	return fmt.Sprintf("%s@%s", n.Type, n.Location)
}
