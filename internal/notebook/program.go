package notebook

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/ludo-technologies/pygather/internal/parser"
)

// ErrCellNotFound is returned when a program is requested for a cell run
// that was never added
var ErrCellNotFound = errors.New("cell not found")

// CellVersion identifies one execution of a cell
type CellVersion struct {
	ID             string
	ExecutionCount int
}

// Version returns the execution this cell records
func (c Cell) Version() CellVersion {
	return CellVersion{ID: c.ID, ExecutionCount: c.ExecutionCount}
}

// Program is the concatenated, rewritten text of a sequence of cell runs
type Program struct {
	Code string

	// LineToCell maps a one-based program line to the cell run it came from
	LineToCell map[int]Cell

	// CellToLines maps a cell run to its program lines, ascending
	CellToLines map[CellVersion][]int

	// Cells are the cell runs in program order
	Cells []Cell
}

// FirstLine returns the program line where the cell run starts, or zero
func (p *Program) FirstLine(v CellVersion) int {
	lines := p.CellToLines[v]
	if len(lines) == 0 {
		return 0
	}
	return lines[0]
}

// ProgramBuilder collects cell runs and builds programs from them
type ProgramBuilder struct {
	cells    []Cell
	rewriter *MagicsRewriter
	parser   *parser.Parser
	logger   *log.Logger
}

// NewProgramBuilder creates a builder using the default magics rewriter
func NewProgramBuilder() *ProgramBuilder {
	return &ProgramBuilder{
		rewriter: NewMagicsRewriter(),
		parser:   parser.New(),
	}
}

// SetRewriter replaces the magics rewriter
func (b *ProgramBuilder) SetRewriter(r *MagicsRewriter) {
	b.rewriter = r
}

// SetLogger sets an optional logger for dropped cells
func (b *ProgramBuilder) SetLogger(logger *log.Logger) {
	b.logger = logger
}

// Add records cell runs. A cell that does not parse after rewriting is
// dropped.
func (b *ProgramBuilder) Add(cells ...Cell) {
	for _, cell := range cells {
		code := b.rewriter.Rewrite(cell.Source) + "\n"
		if _, err := b.parser.Parse(context.Background(), []byte(code)); err != nil {
			if b.logger != nil {
				b.logger.Printf("ProgramBuilder: dropping cell %s [%d]: %v", cell.ID, cell.ExecutionCount, err)
			}
			continue
		}
		b.cells = append(b.cells, cell)
	}
}

// Has reports whether the cell run was added and parsed
func (b *ProgramBuilder) Has(v CellVersion) bool {
	for _, c := range b.cells {
		if c.Version() == v {
			return true
		}
	}
	return false
}

// Cells returns the recorded cell runs in the order they were added
func (b *ProgramBuilder) Cells() []Cell {
	return b.cells
}

// BuildTo builds the program leading up to and including one run of a
// cell. An executionCount of zero selects the latest run. Runs that raised
// are left out, except the target itself.
func (b *ProgramBuilder) BuildTo(cellID string, executionCount int) (*Program, error) {
	target, ok := b.findRun(cellID, executionCount)
	if !ok {
		if executionCount > 0 {
			return nil, fmt.Errorf("%w: %s [%d]", ErrCellNotFound, cellID, executionCount)
		}
		return nil, fmt.Errorf("%w: %s", ErrCellNotFound, cellID)
	}

	var runs []Cell
	for _, c := range b.cells {
		if !c.Executed() || c.ExecutionCount > target.ExecutionCount {
			continue
		}
		if c.HasError && c.ID != cellID {
			continue
		}
		runs = append(runs, c)
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].ExecutionCount < runs[j].ExecutionCount
	})

	program := &Program{
		LineToCell:  make(map[int]Cell),
		CellToLines: make(map[CellVersion][]int),
		Cells:       runs,
	}
	var code strings.Builder
	line := 1
	for _, c := range runs {
		n := c.LineCount()
		for l := line; l < line+n; l++ {
			program.LineToCell[l] = c
			program.CellToLines[c.Version()] = append(program.CellToLines[c.Version()], l)
		}
		code.WriteString(b.rewriter.Rewrite(c.Source))
		code.WriteString("\n")
		line += n
	}
	program.Code = code.String()
	return program, nil
}

// Build builds the program up to the most recently executed cell
func (b *ProgramBuilder) Build() (*Program, error) {
	var last *Cell
	for i := range b.cells {
		c := &b.cells[i]
		if c.Executed() && (last == nil || c.ExecutionCount >= last.ExecutionCount) {
			last = c
		}
	}
	if last == nil {
		return nil, fmt.Errorf("%w: no executed cells", ErrCellNotFound)
	}
	return b.BuildTo(last.ID, last.ExecutionCount)
}

func (b *ProgramBuilder) findRun(cellID string, executionCount int) (Cell, bool) {
	var found Cell
	ok := false
	for _, c := range b.cells {
		if c.ID != cellID || !c.Executed() {
			continue
		}
		if executionCount > 0 {
			if c.ExecutionCount == executionCount {
				return c, true
			}
			continue
		}
		if !ok || c.ExecutionCount > found.ExecutionCount {
			found, ok = c, true
		}
	}
	return found, ok
}
