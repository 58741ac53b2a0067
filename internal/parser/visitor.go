package parser

// Visitor defines the interface for visiting AST nodes
type Visitor interface {
	// Visit is called for each node in the AST
	// Return false to skip the node's children
	Visit(node *Node) bool
}

// Accept implements the visitor pattern for AST nodes
func (n *Node) Accept(visitor Visitor) {
	if n == nil {
		return
	}
	if !visitor.Visit(n) {
		return
	}
	for _, child := range n.GetChildren() {
		child.Accept(visitor)
	}
}

// Walk visits the node and its descendants depth-first in source order.
// Returning false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	n.Accept(NewFuncVisitor(fn))
}

// GetChildren returns every direct child node, including the ones held in
// typed fields, in roughly source order
func (n *Node) GetChildren() []*Node {
	var children []*Node
	add := func(nodes ...*Node) {
		for _, c := range nodes {
			if c != nil {
				children = append(children, c)
			}
		}
	}
	add(n.Decorator...)
	add(n.Targets...)
	add(n.Test, n.Iter)
	add(n.Params...)
	add(n.Bases...)
	add(n.ValueNode())
	add(n.Args...)
	add(n.Keywords...)
	add(n.Children...)
	add(n.Body...)
	add(n.Handlers...)
	add(n.Orelse...)
	add(n.Finalbody...)
	return children
}

// FuncVisitor is a visitor that uses a function
type FuncVisitor struct {
	fn func(*Node) bool
}

// NewFuncVisitor creates a visitor from a function
func NewFuncVisitor(fn func(*Node) bool) *FuncVisitor {
	return &FuncVisitor{fn: fn}
}

// Visit implements the Visitor interface
func (v *FuncVisitor) Visit(node *Node) bool {
	return v.fn(node)
}

// CollectorVisitor collects nodes matching a predicate
type CollectorVisitor struct {
	predicate func(*Node) bool
	nodes     []*Node
}

// NewCollectorVisitor creates a visitor that collects matching nodes
func NewCollectorVisitor(predicate func(*Node) bool) *CollectorVisitor {
	return &CollectorVisitor{
		predicate: predicate,
		nodes:     []*Node{},
	}
}

// Visit implements the Visitor interface
func (v *CollectorVisitor) Visit(node *Node) bool {
	if v.predicate(node) {
		v.nodes = append(v.nodes, node)
	}
	return true
}

// GetNodes returns the collected nodes
func (v *CollectorVisitor) GetNodes() []*Node {
	return v.nodes
}

// FindByType returns all descendants (and the node itself) of the given type
func (n *Node) FindByType(nodeType NodeType) []*Node {
	c := NewCollectorVisitor(func(node *Node) bool { return node.Type == nodeType })
	n.Accept(c)
	return c.GetNodes()
}
