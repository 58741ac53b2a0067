package analyzer

import (
	"fmt"
	"strings"
)

// DOT renders the reachable blocks as a Graphviz digraph. Each node shows
// the block label, its ID and the first line of every statement.
func (cfg *CFG) DOT() string {
	w := &dotWriter{cfg: cfg}
	cfg.Walk(w)

	var b strings.Builder
	b.WriteString("digraph cfg {\n")
	b.WriteString("  node [shape=box, fontname=\"monospace\"];\n")
	b.WriteString(w.nodes.String())
	b.WriteString(w.edges.String())
	b.WriteString("}\n")
	return b.String()
}

// dotWriter collects node and edge statements; Walk interleaves them
type dotWriter struct {
	cfg   *CFG
	nodes strings.Builder
	edges strings.Builder
}

func (w *dotWriter) VisitBlock(block *BasicBlock) bool {
	lines := make([]string, 0, len(block.Statements))
	for _, stmt := range block.Statements {
		lines = append(lines, fmt.Sprintf("%d", stmt.Location.StartLine))
	}
	label := fmt.Sprintf("%d: %s", block.ID, block.Label)
	if len(lines) > 0 {
		label += "\\nlines " + strings.Join(lines, ", ")
	}
	style := ""
	switch block {
	case w.cfg.Entry, w.cfg.Exit:
		style = ", style=filled, fillcolor=\"#e6f0ff\""
	case w.cfg.ExceptionalExit:
		style = ", style=filled, fillcolor=\"#ffe6e6\""
	}
	fmt.Fprintf(&w.nodes, "  b%d [label=\"%s\"%s];\n", block.ID, label, style)
	return true
}

func (w *dotWriter) VisitEdge(edge *Edge) bool {
	attrs := ""
	switch {
	case edge.Type == EdgeException:
		attrs = fmt.Sprintf(" [label=\"%s\", style=dashed]", edge.Type)
	case edge.Type != EdgeNormal:
		attrs = fmt.Sprintf(" [label=\"%s\"]", edge.Type)
	}
	fmt.Fprintf(&w.edges, "  b%d -> b%d%s;\n", edge.From.ID, edge.To.ID, attrs)
	return true
}

// Text renders one line per reachable block with its successors
func (cfg *CFG) Text() string {
	var b strings.Builder
	for _, block := range cfg.Blocks() {
		fmt.Fprintf(&b, "%s", block)
		if len(block.Successors) > 0 {
			succs := make([]string, 0, len(block.Successors))
			for _, edge := range block.Successors {
				succs = append(succs, fmt.Sprintf("%d(%s)", edge.To.ID, edge.Type))
			}
			fmt.Fprintf(&b, " -> %s", strings.Join(succs, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}
