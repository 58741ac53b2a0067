package analyzer

import (
	"container/list"
	"log"
	"sort"

	"github.com/ludo-technologies/pygather/internal/parser"
)

// DataflowOption configures a DataflowAnalyzer
type DataflowOption func(*DataflowAnalyzer)

// WithFunctionRules replaces the function-effect rules. A nil or empty
// slice means calls mutate nothing.
func WithFunctionRules(rules []FunctionRule) DataflowOption {
	return func(a *DataflowAnalyzer) {
		a.rules = rules
	}
}

// WithLinkLoopVariables makes every statement of a loop body read the
// loop's variables, so the body depends on the loop header
func WithLinkLoopVariables(enabled bool) DataflowOption {
	return func(a *DataflowAnalyzer) {
		a.linkLoopVariables = enabled
	}
}

// DataflowAnalyzer computes reaching definitions over a CFG and reports
// data-dependency edges between statements
type DataflowAnalyzer struct {
	rules             []FunctionRule
	linkLoopVariables bool
	logger            *log.Logger
}

// NewDataflowAnalyzer creates an analyzer using DefaultFunctionRules unless
// overridden
func NewDataflowAnalyzer(opts ...DataflowOption) *DataflowAnalyzer {
	a := &DataflowAnalyzer{rules: DefaultFunctionRules()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetLogger sets an optional logger for diagnostics
func (a *DataflowAnalyzer) SetLogger(logger *log.Logger) {
	a.logger = logger
}

func (a *DataflowAnalyzer) logf(format string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Printf("DataflowAnalyzer: "+format, args...)
	}
}

// DataflowResult holds the outcome of one analysis run
type DataflowResult struct {
	// Dependencies are the data-dependency edges
	Dependencies *DependencySet

	// ReachingOut holds the definitions leaving each block, by block ID
	ReachingOut map[int]*RefSet

	// Iterations counts how many times a block was processed
	Iterations int
}

// statementRefs are the classified references of one statement
type statementRefs struct {
	defs *RefSet
	uses *RefSet
}

// GetDefs returns the definitions stmt makes: assigned names, imports,
// function and class definitions, mutations matched by function rules, and
// def annotations. Imported names are recorded in symbols.
func (a *DataflowAnalyzer) GetDefs(stmt *parser.Node, symbols *SymbolTable) *RefSet {
	return a.refs(stmt, symbols).defs
}

// GetUses returns the names stmt reads that are not already classified as
// definitions or mutations
func (a *DataflowAnalyzer) GetUses(stmt *parser.Node, symbols *SymbolTable) *RefSet {
	return a.refs(stmt, symbols).uses
}

func (a *DataflowAnalyzer) refs(stmt *parser.Node, symbols *SymbolTable) statementRefs {
	if stmt == nil {
		return statementRefs{defs: NewRefSet(), uses: NewRefSet()}
	}
	requireLocation(stmt)
	if symbols == nil {
		symbols = NewSymbolTable()
	}
	c := newRefCollector(stmt, a.rules, symbols)
	c.collect()
	return statementRefs{defs: c.defs, uses: c.uses}
}

// Analyze runs the reaching-definitions worklist over cfg. Every block is
// queued once up front; a block whose outgoing definitions change queues
// its successors again.
func (a *DataflowAnalyzer) Analyze(cfg *CFG) *DataflowResult {
	result := &DataflowResult{
		Dependencies: NewDependencySet(),
		ReachingOut:  make(map[int]*RefSet),
	}
	if cfg == nil || cfg.Entry == nil {
		return result
	}

	blocks := cfg.Blocks()
	table := a.classifyAll(blocks)

	queue := list.New()
	queued := make(map[int]bool, len(blocks))
	for _, block := range blocks {
		result.ReachingOut[block.ID] = NewRefSet()
		queue.PushBack(block)
		queued[block.ID] = true
	}

	for queue.Len() > 0 {
		front := queue.Front()
		queue.Remove(front)
		block := front.Value.(*BasicBlock)
		queued[block.ID] = false
		result.Iterations++

		defs := NewRefSet()
		for _, pred := range block.PredecessorBlocks() {
			defs.AddAll(result.ReachingOut[pred.ID])
		}

		var loopUses []string
		if a.linkLoopVariables {
			loopUses = namesIn(block.LoopVariables)
		}

		for _, stmt := range block.Statements {
			refs := table[stmt]
			a.recordDependencies(result.Dependencies, defs, stmt, refs, loopUses)
			defs = applyKillGen(defs, refs.defs)
		}

		if !defs.Equal(result.ReachingOut[block.ID]) {
			result.ReachingOut[block.ID] = defs
			for _, succ := range block.SuccessorBlocks() {
				if !queued[succ.ID] {
					queued[succ.ID] = true
					queue.PushBack(succ)
				}
			}
		}
	}

	a.logf("%d blocks, %d iterations, %d edges", len(blocks), result.Iterations, result.Dependencies.Len())
	return result
}

// classifyAll computes the references of every statement once, in source
// order, so imports are known before the statements that follow them
func (a *DataflowAnalyzer) classifyAll(blocks []*BasicBlock) map[*parser.Node]statementRefs {
	var stmts []*parser.Node
	for _, block := range blocks {
		stmts = append(stmts, block.Statements...)
	}
	sort.SliceStable(stmts, func(i, j int) bool {
		li, lj := stmts[i].Location, stmts[j].Location
		if li.StartLine != lj.StartLine {
			return li.StartLine < lj.StartLine
		}
		return li.StartCol < lj.StartCol
	})

	symbols := NewSymbolTable()
	table := make(map[*parser.Node]statementRefs, len(stmts))
	for _, stmt := range stmts {
		table[stmt] = a.refs(stmt, symbols)
	}
	return table
}

// recordDependencies adds an edge from every reaching definition that one
// of stmt's references reads
func (a *DataflowAnalyzer) recordDependencies(deps *DependencySet, reaching *RefSet, stmt *parser.Node, refs statementRefs, loopUses []string) {
	readers := make([]Ref, 0, refs.uses.Len()+refs.defs.Len()+len(loopUses))
	readers = append(readers, refs.uses.Items()...)
	readers = append(readers, refs.defs.Items()...)
	for _, name := range loopUses {
		readers = append(readers, Ref{Type: SymbolVariable, Level: LevelUse, Name: name})
	}

	for _, def := range reaching.Items() {
		for _, r := range readers {
			if r.Name == def.Name && r.Level.DependsOn(def.Level) {
				deps.Add(Dependency{From: def.Statement, To: stmt, Kind: DependencyData})
				break
			}
		}
	}
}

// applyKillGen drops the definitions overwritten by gen, then adds gen
func applyKillGen(defs *RefSet, gen *RefSet) *RefSet {
	if gen.Len() == 0 {
		return defs
	}
	kept := defs.Filter(func(d Ref) bool {
		for _, g := range gen.Items() {
			if g.Name == d.Name && g.Level.Kills(d.Level) {
				return false
			}
		}
		return true
	})
	kept.AddAll(gen)
	return kept
}

func namesIn(nodes []*parser.Node) []string {
	seen := make(map[string]bool)
	var names []string
	for _, node := range nodes {
		node.Walk(func(n *parser.Node) bool {
			if n.Type == parser.NodeName && !seen[n.Name] {
				seen[n.Name] = true
				names = append(names, n.Name)
			}
			return true
		})
	}
	return names
}
