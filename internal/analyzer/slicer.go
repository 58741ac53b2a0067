package analyzer

import (
	"context"
	"log"
	"math"
	"sort"

	"github.com/ludo-technologies/pygather/internal/parser"
)

// LocationSet is a set of source ranges keyed by their four coordinates
type LocationSet struct {
	items map[parser.Location]struct{}
}

// NewLocationSet creates a set holding locs
func NewLocationSet(locs ...parser.Location) *LocationSet {
	s := &LocationSet{items: make(map[parser.Location]struct{}, len(locs))}
	for _, l := range locs {
		s.Add(l)
	}
	return s
}

// Add inserts loc and reports whether it was new
func (s *LocationSet) Add(loc parser.Location) bool {
	if _, ok := s.items[loc]; ok {
		return false
	}
	s.items[loc] = struct{}{}
	return true
}

// AddAll inserts every location of other
func (s *LocationSet) AddAll(other *LocationSet) {
	if other == nil {
		return
	}
	for l := range other.items {
		s.items[l] = struct{}{}
	}
}

// Contains reports whether loc is in the set
func (s *LocationSet) Contains(loc parser.Location) bool {
	_, ok := s.items[loc]
	return ok
}

// Len returns the number of locations
func (s *LocationSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Items returns the locations in source order
func (s *LocationSet) Items() []parser.Location {
	if s == nil {
		return nil
	}
	out := make([]parser.Location, 0, len(s.items))
	for l := range s.items {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return compareLocations(out[i], out[j]) < 0 })
	return out
}

// Union returns a new set holding the locations of both sets
func (s *LocationSet) Union(other *LocationSet) *LocationSet {
	out := NewLocationSet()
	out.AddAll(s)
	out.AddAll(other)
	return out
}

// Equal reports whether both sets hold the same locations
func (s *LocationSet) Equal(other *LocationSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for l := range s.items {
		if !other.Contains(l) {
			return false
		}
	}
	return true
}

// Lines returns the distinct lines covered by the set, ascending
func (s *LocationSet) Lines() []int {
	seen := make(map[int]bool)
	var lines []int
	for _, l := range s.Items() {
		for line := l.StartLine; line <= l.EndLine; line++ {
			// a range ending at column 0 does not occupy its last line
			if line == l.EndLine && line != l.StartLine && l.EndCol == 0 {
				continue
			}
			if !seen[line] {
				seen[line] = true
				lines = append(lines, line)
			}
		}
	}
	sort.Ints(lines)
	return lines
}

// LineLocation returns a range covering the whole of line
func LineLocation(line int) parser.Location {
	return parser.Location{StartLine: line, StartCol: 0, EndLine: line, EndCol: math.MaxInt32}
}

func compareLocations(a, b parser.Location) int {
	if c := comparePositions(a.StartLine, a.StartCol, b.StartLine, b.StartCol); c != 0 {
		return c
	}
	return comparePositions(a.EndLine, a.EndCol, b.EndLine, b.EndCol)
}

func comparePositions(line1, col1, line2, col2 int) int {
	switch {
	case line1 < line2:
		return -1
	case line1 > line2:
		return 1
	case col1 < col2:
		return -1
	case col1 > col2:
		return 1
	}
	return 0
}

// Within reports whether inner lies inside outer, bounds included
func Within(inner, outer parser.Location) bool {
	return comparePositions(outer.StartLine, outer.StartCol, inner.StartLine, inner.StartCol) <= 0 &&
		comparePositions(outer.EndLine, outer.EndCol, inner.EndLine, inner.EndCol) >= 0
}

// Intersects reports whether two ranges share at least one position
func Intersects(a, b parser.Location) bool {
	return comparePositions(a.StartLine, a.StartCol, b.EndLine, b.EndCol) <= 0 &&
		comparePositions(b.StartLine, b.StartCol, a.EndLine, a.EndCol) <= 0
}

// SliceOptions configures a slice
type SliceOptions struct {
	// FunctionRules replaces DefaultFunctionRules when non-nil
	FunctionRules []FunctionRule

	// LinkLoopVariables makes loop bodies depend on their loop header
	LinkLoopVariables bool

	// Logger receives diagnostics from the CFG builder and the dataflow analyzer
	Logger *log.Logger
}

// ProgramDependencies bundles the analyses of one module
type ProgramDependencies struct {
	CFG     *CFG
	Data    *DependencySet
	Control *DependencySet
}

// All returns data and control dependencies in one set, data first
func (p *ProgramDependencies) All() *DependencySet {
	all := NewDependencySet()
	all.AddAll(p.Data)
	all.AddAll(p.Control)
	return all
}

// Statements returns every statement of the CFG
func (p *ProgramDependencies) Statements() []*parser.Node {
	return p.CFG.Statements()
}

// AnalyzeDependencies builds the CFG of module and runs the dataflow and
// control-dependence analyses once
func AnalyzeDependencies(module *parser.Node, opts *SliceOptions) (*ProgramDependencies, error) {
	if opts == nil {
		opts = &SliceOptions{}
	}
	builder := NewCFGBuilder()
	builder.SetLogger(opts.Logger)
	cfg, err := builder.BuildModule(module)
	if err != nil {
		return nil, err
	}

	dfOpts := []DataflowOption{WithLinkLoopVariables(opts.LinkLoopVariables)}
	if opts.FunctionRules != nil {
		dfOpts = append(dfOpts, WithFunctionRules(opts.FunctionRules))
	}
	analyzer := NewDataflowAnalyzer(dfOpts...)
	analyzer.SetLogger(opts.Logger)

	return &ProgramDependencies{
		CFG:     cfg,
		Data:    analyzer.Analyze(cfg).Dependencies,
		Control: ControlDependencies(cfg),
	}, nil
}

// Slice returns the statement locations the seeds depend on, seeds included
func Slice(module *parser.Node, seeds *LocationSet, opts *SliceOptions) (*LocationSet, error) {
	return SliceContext(context.Background(), module, seeds, opts)
}

// SliceContext is Slice with cancellation checked between fixpoint rounds
func SliceContext(ctx context.Context, module *parser.Node, seeds *LocationSet, opts *SliceOptions) (*LocationSet, error) {
	if seeds.Len() == 0 {
		return NewLocationSet(), nil
	}
	deps, err := AnalyzeDependencies(module, opts)
	if err != nil {
		return nil, err
	}
	return deps.Slice(ctx, seeds)
}

// SeedStatements expands seeds to the full locations of the statements
// they intersect
func (p *ProgramDependencies) SeedStatements(seeds *LocationSet) *LocationSet {
	out := NewLocationSet()
	stmts := p.Statements()
	for _, seed := range seeds.Items() {
		for _, stmt := range stmts {
			if Intersects(seed, stmt.Location) {
				out.Add(stmt.Location)
			}
		}
	}
	return out
}

// Slice runs the backward closure over the precomputed dependencies
func (p *ProgramDependencies) Slice(ctx context.Context, seeds *LocationSet) (*LocationSet, error) {
	seedStmts := p.SeedStatements(seeds)
	result := NewLocationSet(seedStmts.Items()...)
	if result.Len() == 0 {
		return result, nil
	}
	edges := p.All().Items()
	seedList := seedStmts.Items()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		before := result.Len()
		for _, dep := range edges {
			from, to := dep.From.Location, dep.To.Location
			for _, s := range seedList {
				if Intersects(s, to) {
					result.Add(to)
					break
				}
			}
			for loc := range result.items {
				if Within(to, loc) {
					result.Add(from)
					break
				}
			}
		}
		if result.Len() == before {
			return result, nil
		}
	}
}
