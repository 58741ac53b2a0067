package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ludo-technologies/pygather/internal/parser"
)

// SymbolType classifies what kind of symbol a reference names
type SymbolType int

const (
	SymbolVariable SymbolType = iota
	SymbolClass
	SymbolFunction
	SymbolImport
	SymbolMutation
	SymbolMagic
)

// String returns string representation of SymbolType
func (s SymbolType) String() string {
	switch s {
	case SymbolVariable:
		return "VARIABLE"
	case SymbolClass:
		return "CLASS"
	case SymbolFunction:
		return "FUNCTION"
	case SymbolImport:
		return "IMPORT"
	case SymbolMutation:
		return "MUTATION"
	case SymbolMagic:
		return "MAGIC"
	default:
		return "UNKNOWN"
	}
}

// ReferenceLevel says how strongly a reference affects later statements.
// The zero value means "no effect" and is only meaningful in function rules.
type ReferenceLevel int

const (
	LevelNone ReferenceLevel = iota
	LevelDefinition
	LevelGlobalConfig
	LevelInitialization
	LevelUpdate
	LevelUse
)

// String returns string representation of ReferenceLevel
func (l ReferenceLevel) String() string {
	switch l {
	case LevelNone:
		return "NONE"
	case LevelDefinition:
		return "DEFINITION"
	case LevelGlobalConfig:
		return "GLOBAL_CONFIG"
	case LevelInitialization:
		return "INITIALIZATION"
	case LevelUpdate:
		return "UPDATE"
	case LevelUse:
		return "USE"
	default:
		return "UNKNOWN"
	}
}

// ParseReferenceLevel parses a level name as written in configuration files
func ParseReferenceLevel(s string) (ReferenceLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NONE":
		return LevelNone, nil
	case "DEFINITION", "DEF":
		return LevelDefinition, nil
	case "GLOBAL_CONFIG":
		return LevelGlobalConfig, nil
	case "INITIALIZATION", "INIT":
		return LevelInitialization, nil
	case "UPDATE":
		return LevelUpdate, nil
	case "USE":
		return LevelUse, nil
	}
	return LevelNone, fmt.Errorf("unknown reference level %q", s)
}

// definitionLevels are the levels a reaching definition can carry, in
// the order they are tracked
var definitionLevels = []ReferenceLevel{
	LevelDefinition,
	LevelGlobalConfig,
	LevelInitialization,
	LevelUpdate,
}

// killedLevels lists, per level of a new reference, the levels of earlier
// definitions of the same name it overwrites
var killedLevels = map[ReferenceLevel][]ReferenceLevel{
	LevelUpdate:         {LevelUpdate, LevelInitialization, LevelGlobalConfig, LevelDefinition},
	LevelInitialization: {LevelUpdate, LevelInitialization, LevelGlobalConfig, LevelDefinition},
	LevelGlobalConfig:   {LevelGlobalConfig, LevelDefinition},
	LevelDefinition:     {LevelUpdate, LevelInitialization, LevelGlobalConfig, LevelDefinition},
}

// dependencyLevels lists, per level of a reference, the levels of reaching
// definitions it reads from. A DEFINITION replaces the value outright and
// reads nothing.
var dependencyLevels = map[ReferenceLevel][]ReferenceLevel{
	LevelUse:            {LevelUpdate, LevelInitialization, LevelGlobalConfig, LevelDefinition},
	LevelUpdate:         {LevelUpdate, LevelInitialization, LevelGlobalConfig, LevelDefinition},
	LevelInitialization: {LevelUpdate, LevelInitialization, LevelGlobalConfig, LevelDefinition},
	LevelGlobalConfig:   {LevelGlobalConfig, LevelDefinition},
}

// Kills reports whether a new reference at level l overwrites an earlier
// definition at level earlier
func (l ReferenceLevel) Kills(earlier ReferenceLevel) bool {
	return containsLevel(killedLevels[l], earlier)
}

// DependsOn reports whether a reference at level l reads a reaching
// definition at level earlier
func (l ReferenceLevel) DependsOn(earlier ReferenceLevel) bool {
	return containsLevel(dependencyLevels[l], earlier)
}

func containsLevel(levels []ReferenceLevel, level ReferenceLevel) bool {
	for _, l := range levels {
		if l == level {
			return true
		}
	}
	return false
}

// Ref is one definition or use of a name inside a statement
type Ref struct {
	Type      SymbolType
	Level     ReferenceLevel
	Name      string
	Location  parser.Location
	Statement *parser.Node
}

// String returns a compact description of the reference
func (r Ref) String() string {
	return fmt.Sprintf("%s %s %s@%s", r.Level, r.Type, r.Name, r.Location)
}

type refKey struct {
	name      string
	level     ReferenceLevel
	symbol    SymbolType
	location  parser.Location
	statement parser.Location
}

func keyOf(r Ref) refKey {
	k := refKey{name: r.Name, level: r.Level, symbol: r.Type, location: r.Location}
	if r.Statement != nil {
		k.statement = r.Statement.Location
	}
	return k
}

// RefSet is an insertion-ordered set of references
type RefSet struct {
	items []Ref
	index map[refKey]bool
}

// NewRefSet creates a set holding refs
func NewRefSet(refs ...Ref) *RefSet {
	s := &RefSet{index: make(map[refKey]bool)}
	for _, r := range refs {
		s.Add(r)
	}
	return s
}

// Add inserts r and reports whether it was new
func (s *RefSet) Add(r Ref) bool {
	k := keyOf(r)
	if s.index[k] {
		return false
	}
	s.index[k] = true
	s.items = append(s.items, r)
	return true
}

// AddAll inserts every reference of other
func (s *RefSet) AddAll(other *RefSet) {
	if other == nil {
		return
	}
	for _, r := range other.items {
		s.Add(r)
	}
}

// Contains reports whether an equal reference is present
func (s *RefSet) Contains(r Ref) bool {
	return s.index[keyOf(r)]
}

// Items returns the references in insertion order
func (s *RefSet) Items() []Ref {
	return s.items
}

// Len returns the number of references
func (s *RefSet) Len() int {
	return len(s.items)
}

// Filter returns the references for which keep returns true
func (s *RefSet) Filter(keep func(Ref) bool) *RefSet {
	out := NewRefSet()
	for _, r := range s.items {
		if keep(r) {
			out.Add(r)
		}
	}
	return out
}

// Names returns the distinct names referenced, sorted
func (s *RefSet) Names() []string {
	seen := make(map[string]bool, len(s.items))
	var names []string
	for _, r := range s.items {
		if !seen[r.Name] {
			seen[r.Name] = true
			names = append(names, r.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Equal reports whether both sets hold the same references
func (s *RefSet) Equal(other *RefSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for k := range s.index {
		if !other.index[k] {
			return false
		}
	}
	return true
}

// SymbolTable records names bound by imports while statements are visited
// in order. It is a stand-in for real symbol resolution.
type SymbolTable struct {
	moduleNames map[string]bool
}

// NewSymbolTable creates an empty symbol table
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{moduleNames: make(map[string]bool)}
}

// AddModule records that name is bound to a module
func (t *SymbolTable) AddModule(name string) {
	t.moduleNames[name] = true
}

// IsModule reports whether name was bound by an import
func (t *SymbolTable) IsModule(name string) bool {
	return t.moduleNames[name]
}
