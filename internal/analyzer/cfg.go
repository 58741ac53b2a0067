package analyzer

import (
	"fmt"

	"github.com/ludo-technologies/pygather/internal/parser"
)

// EdgeType represents the type of edge between basic blocks
type EdgeType int

const (
	// EdgeNormal represents normal sequential flow
	EdgeNormal EdgeType = iota
	// EdgeCondTrue represents conditional true branch
	EdgeCondTrue
	// EdgeCondFalse represents conditional false branch
	EdgeCondFalse
	// EdgeException represents exception flow
	EdgeException
	// EdgeLoop represents loop back edge
	EdgeLoop
	// EdgeBreak represents break statement flow
	EdgeBreak
	// EdgeContinue represents continue statement flow
	EdgeContinue
)

// String returns string representation of EdgeType
func (e EdgeType) String() string {
	switch e {
	case EdgeNormal:
		return "normal"
	case EdgeCondTrue:
		return "true"
	case EdgeCondFalse:
		return "false"
	case EdgeException:
		return "exception"
	case EdgeLoop:
		return "loop"
	case EdgeBreak:
		return "break"
	case EdgeContinue:
		return "continue"
	default:
		return "unknown"
	}
}

// Edge represents a directed edge between two basic blocks
type Edge struct {
	From *BasicBlock
	To   *BasicBlock
	Type EdgeType
}

// BasicBlock represents a basic block in the control flow graph
type BasicBlock struct {
	// ID is unique and monotonically assigned within one CFG
	ID int

	// Label describes the block's role ("if cond", "for loop head", ...)
	Label string

	// Statements contains the AST nodes in this block
	Statements []*parser.Node

	// LoopVariables holds the loop target or condition in scope for loop bodies
	LoopVariables []*parser.Node

	// Predecessors are edges flowing into this block
	Predecessors []*Edge

	// Successors are edges leaving this block. Duplicates and self-loops are allowed.
	Successors []*Edge
}

// AddStatement adds an AST node to this block
func (bb *BasicBlock) AddStatement(stmt *parser.Node) {
	if stmt != nil {
		bb.Statements = append(bb.Statements, stmt)
	}
}

// AddSuccessor adds an outgoing edge to another block
func (bb *BasicBlock) AddSuccessor(to *BasicBlock, edgeType EdgeType) *Edge {
	edge := &Edge{
		From: bb,
		To:   to,
		Type: edgeType,
	}
	bb.Successors = append(bb.Successors, edge)
	to.Predecessors = append(to.Predecessors, edge)
	return edge
}

// SuccessorBlocks returns the distinct successor blocks in edge order
func (bb *BasicBlock) SuccessorBlocks() []*BasicBlock {
	return distinctBlocks(bb.Successors, func(e *Edge) *BasicBlock { return e.To })
}

// PredecessorBlocks returns the distinct predecessor blocks in edge order
func (bb *BasicBlock) PredecessorBlocks() []*BasicBlock {
	return distinctBlocks(bb.Predecessors, func(e *Edge) *BasicBlock { return e.From })
}

func distinctBlocks(edges []*Edge, end func(*Edge) *BasicBlock) []*BasicBlock {
	seen := make(map[int]bool, len(edges))
	blocks := make([]*BasicBlock, 0, len(edges))
	for _, e := range edges {
		b := end(e)
		if seen[b.ID] {
			continue
		}
		seen[b.ID] = true
		blocks = append(blocks, b)
	}
	return blocks
}

// IsEmpty returns true if the block has no statements
func (bb *BasicBlock) IsEmpty() bool {
	return len(bb.Statements) == 0
}

// String returns a string representation of the basic block
func (bb *BasicBlock) String() string {
	return fmt.Sprintf("[%d %s: %d stmts]", bb.ID, bb.Label, len(bb.Statements))
}

// CFG represents a control flow graph over one statement list
type CFG struct {
	// Entry is reached before any statement executes
	Entry *BasicBlock

	// Exit is the unique block without successors
	Exit *BasicBlock

	// ExceptionalExit receives raises that escape every handler. It flows into Exit.
	ExceptionalExit *BasicBlock

	// all holds every block in creation order, reachable or not
	all []*BasicBlock
}

// NewCFG creates an empty control flow graph
func NewCFG() *CFG {
	return &CFG{}
}

// CreateBlock creates a new basic block and adds it to the graph
func (cfg *CFG) CreateBlock(label string) *BasicBlock {
	block := &BasicBlock{
		ID:    len(cfg.all),
		Label: label,
	}
	cfg.all = append(cfg.all, block)
	return block
}

// ConnectBlocks creates an edge between two blocks
func (cfg *CFG) ConnectBlocks(from, to *BasicBlock, edgeType EdgeType) *Edge {
	if from == nil || to == nil {
		return nil
	}
	return from.AddSuccessor(to, edgeType)
}

// Blocks returns the blocks reachable from Entry in breadth-first order.
// Blocks that were built but never linked are not part of this view.
func (cfg *CFG) Blocks() []*BasicBlock {
	if cfg.Entry == nil {
		return nil
	}
	visited := map[int]bool{cfg.Entry.ID: true}
	queue := []*BasicBlock{cfg.Entry}
	var blocks []*BasicBlock
	for len(queue) > 0 {
		block := queue[0]
		queue = queue[1:]
		blocks = append(blocks, block)
		for _, edge := range block.Successors {
			if !visited[edge.To.ID] {
				visited[edge.To.ID] = true
				queue = append(queue, edge.To)
			}
		}
	}
	return blocks
}

// Statements returns every statement in reachable blocks, block by block
func (cfg *CFG) Statements() []*parser.Node {
	var stmts []*parser.Node
	for _, block := range cfg.Blocks() {
		stmts = append(stmts, block.Statements...)
	}
	return stmts
}

// Size returns the number of reachable blocks
func (cfg *CFG) Size() int {
	return len(cfg.Blocks())
}

// CFGVisitor defines the interface for visiting CFG nodes
type CFGVisitor interface {
	// VisitBlock is called for each basic block
	// Returns false to stop traversal
	VisitBlock(block *BasicBlock) bool

	// VisitEdge is called for each edge
	// Returns false to stop traversal
	VisitEdge(edge *Edge) bool
}

// Walk visits reachable blocks breadth-first, each followed by its outgoing edges
func (cfg *CFG) Walk(visitor CFGVisitor) {
	for _, block := range cfg.Blocks() {
		if !visitor.VisitBlock(block) {
			return
		}
		for _, edge := range block.Successors {
			if !visitor.VisitEdge(edge) {
				return
			}
		}
	}
}

// String returns a string representation of the CFG
func (cfg *CFG) String() string {
	return fmt.Sprintf("CFG: %d blocks", cfg.Size())
}
