package analyzer

import (
	"github.com/ludo-technologies/pygather/internal/parser"
)

// DependencyKind distinguishes data edges from control edges
type DependencyKind int

const (
	// DependencyData means To reads a value that From defined or mutated
	DependencyData DependencyKind = iota
	// DependencyControl means From decides whether To executes
	DependencyControl
)

// String returns string representation of DependencyKind
func (k DependencyKind) String() string {
	switch k {
	case DependencyData:
		return "data"
	case DependencyControl:
		return "control"
	default:
		return "unknown"
	}
}

// Dependency is a directed edge between two statements: evaluating To
// depends on the effect of From
type Dependency struct {
	From *parser.Node
	To   *parser.Node
	Kind DependencyKind
}

type dependencyKey struct {
	from parser.Location
	to   parser.Location
}

// DependencySet is an insertion-ordered set of dependencies. Two edges
// between statements at the same pair of locations are the same edge; the
// first one added wins.
type DependencySet struct {
	items []Dependency
	index map[dependencyKey]int
}

// NewDependencySet creates an empty dependency set
func NewDependencySet() *DependencySet {
	return &DependencySet{index: make(map[dependencyKey]int)}
}

// Add inserts dep and reports whether it was new
func (s *DependencySet) Add(dep Dependency) bool {
	requireLocation(dep.From)
	requireLocation(dep.To)
	key := dependencyKey{from: dep.From.Location, to: dep.To.Location}
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = len(s.items)
	s.items = append(s.items, dep)
	return true
}

// AddAll inserts every dependency of other
func (s *DependencySet) AddAll(other *DependencySet) {
	if other == nil {
		return
	}
	for _, dep := range other.items {
		s.Add(dep)
	}
}

// Contains reports whether an edge between the two locations is present
func (s *DependencySet) Contains(from, to parser.Location) bool {
	_, ok := s.index[dependencyKey{from: from, to: to}]
	return ok
}

// Items returns the dependencies in insertion order
func (s *DependencySet) Items() []Dependency {
	return s.items
}

// Len returns the number of dependencies
func (s *DependencySet) Len() int {
	return len(s.items)
}

// LinePairs returns [fromLine, toLine] start-line pairs, mostly useful in tests
func (s *DependencySet) LinePairs() [][2]int {
	pairs := make([][2]int, 0, len(s.items))
	for _, dep := range s.items {
		pairs = append(pairs, [2]int{dep.From.Location.StartLine, dep.To.Location.StartLine})
	}
	return pairs
}
