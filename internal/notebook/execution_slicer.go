package notebook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ludo-technologies/pygather/internal/analyzer"
	"github.com/ludo-technologies/pygather/internal/parser"
)

var (
	// ErrCellDropped is returned for a logged run whose source does not parse
	ErrCellDropped = errors.New("cell does not parse")

	// ErrLineOutOfRange is returned for a relative line outside the cell
	ErrLineOutOfRange = errors.New("cell line out of range")
)

// CellExecution is a logged run of a cell
type CellExecution struct {
	CellID         string
	ExecutionCount int
	ExecutionTime  time.Time
	HasError       bool

	// Parsed is false when the program builder dropped the run
	Parsed bool
}

// CellSlice is the part of one cell run that a slice keeps. Lines are
// zero-based and relative to the first line of the cell.
type CellSlice struct {
	Cell  Cell
	Lines []int
}

// SlicedExecution is the slice of one run of a cell, in program order
type SlicedExecution struct {
	ExecutionTime time.Time
	CellSlices    []CellSlice

	// Program is the program the run was sliced in
	Program *Program

	// Seeds are the statements on the seed lines; Locations is the slice
	Seeds     *analyzer.LocationSet
	Locations *analyzer.LocationSet
}

// Lines returns the program lines of the slice
func (e *SlicedExecution) Lines() []int {
	return e.Locations.Lines()
}

// ExecutionSlicer keeps a log of cell runs and slices them
type ExecutionSlicer struct {
	log     []CellExecution
	builder *ProgramBuilder
	parser  *parser.Parser
	opts    *analyzer.SliceOptions
	now     func() time.Time
}

// NewExecutionSlicer creates a slicer. opts may be nil.
func NewExecutionSlicer(opts *analyzer.SliceOptions) *ExecutionSlicer {
	builder := NewProgramBuilder()
	if opts != nil && opts.Logger != nil {
		builder.SetLogger(opts.Logger)
	}
	return &ExecutionSlicer{
		builder: builder,
		parser:  parser.New(),
		opts:    opts,
		now:     time.Now,
	}
}

// SetParser replaces the parser used for slicing. Parsers are not safe for
// concurrent use, so callers slicing in parallel pass their own.
func (s *ExecutionSlicer) SetParser(p *parser.Parser) {
	if p != nil {
		s.parser = p
	}
}

// Builder exposes the program builder fed by LogExecution
func (s *ExecutionSlicer) Builder() *ProgramBuilder {
	return s.builder
}

// LogExecution records a run of cell
func (s *ExecutionSlicer) LogExecution(cell Cell) {
	s.builder.Add(cell)
	s.log = append(s.log, CellExecution{
		CellID:         cell.ID,
		ExecutionCount: cell.ExecutionCount,
		ExecutionTime:  s.now(),
		HasError:       cell.HasError,
		Parsed:         s.builder.Has(cell.Version()),
	})
}

// Executions returns the logged runs in the order they were logged
func (s *ExecutionSlicer) Executions() []CellExecution {
	return s.log
}

// SliceExecution slices one logged run of a cell. An executionCount of
// zero selects the latest run. The run itself may have raised.
func (s *ExecutionSlicer) SliceExecution(ctx context.Context, cellID string, executionCount int, relativeLines []int) (*SlicedExecution, error) {
	var found *CellExecution
	for i := range s.log {
		exec := &s.log[i]
		if exec.CellID != cellID {
			continue
		}
		if executionCount > 0 && exec.ExecutionCount != executionCount {
			continue
		}
		if found == nil || exec.ExecutionCount >= found.ExecutionCount {
			found = exec
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s [%d]", ErrCellNotFound, cellID, executionCount)
	}
	return s.sliceExecution(ctx, *found, relativeLines)
}

// SliceLatestExecution slices the most recently logged successful run of
// the cell. It returns nil when there is none.
func (s *ExecutionSlicer) SliceLatestExecution(ctx context.Context, cellID string, relativeLines []int) (*SlicedExecution, error) {
	all, err := s.SliceAllExecutions(ctx, cellID, relativeLines)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return &all[len(all)-1], nil
}

// SliceAllExecutions slices every successful run of the cell. relativeLines
// are zero-based lines within the cell; when empty the whole cell is the
// seed.
func (s *ExecutionSlicer) SliceAllExecutions(ctx context.Context, cellID string, relativeLines []int) ([]SlicedExecution, error) {
	var out []SlicedExecution
	for _, exec := range s.log {
		if exec.CellID != cellID || exec.HasError || !exec.Parsed {
			continue
		}
		sliced, err := s.sliceExecution(ctx, exec, relativeLines)
		if err != nil {
			return nil, err
		}
		out = append(out, *sliced)
	}
	return out, nil
}

func (s *ExecutionSlicer) sliceExecution(ctx context.Context, exec CellExecution, relativeLines []int) (*SlicedExecution, error) {
	if !exec.Parsed {
		return nil, fmt.Errorf("%w: %s [%d]", ErrCellDropped, exec.CellID, exec.ExecutionCount)
	}
	program, err := s.builder.BuildTo(exec.CellID, exec.ExecutionCount)
	if err != nil {
		return nil, err
	}
	version := CellVersion{ID: exec.CellID, ExecutionCount: exec.ExecutionCount}
	cellLines := program.CellToLines[version]

	seeds := analyzer.NewLocationSet()
	if len(relativeLines) > 0 {
		first := program.FirstLine(version)
		for _, l := range relativeLines {
			if l < 0 || l >= len(cellLines) {
				return nil, fmt.Errorf("%w: line %d of %s (cell has %d lines)", ErrLineOutOfRange, l, exec.CellID, len(cellLines))
			}
			seeds.Add(analyzer.LineLocation(first + l))
		}
	} else {
		for _, l := range cellLines {
			seeds.Add(analyzer.LineLocation(l))
		}
	}

	parsed, err := s.parser.Parse(ctx, []byte(program.Code))
	if err != nil {
		return nil, fmt.Errorf("failed to parse program for cell %s [%d]: %w", exec.CellID, exec.ExecutionCount, err)
	}
	deps, err := analyzer.AnalyzeDependencies(parsed.AST, s.opts)
	if err != nil {
		return nil, err
	}
	result := analyzer.NewLocationSet()
	if seeds.Len() > 0 {
		if result, err = deps.Slice(ctx, seeds); err != nil {
			return nil, err
		}
	}

	return &SlicedExecution{
		ExecutionTime: exec.ExecutionTime,
		CellSlices:    ProjectLines(program, result.Lines()),
		Program:       program,
		Seeds:         deps.SeedStatements(seeds),
		Locations:     result,
	}, nil
}

// ProjectLines maps program lines back to cell-relative lines, grouping
// them per cell run in order of first appearance
func ProjectLines(program *Program, lines []int) []CellSlice {
	var slices []CellSlice
	index := make(map[CellVersion]int)
	for _, line := range lines {
		cell, ok := program.LineToCell[line]
		if !ok {
			continue
		}
		v := cell.Version()
		i, seen := index[v]
		if !seen {
			i = len(slices)
			index[v] = i
			slices = append(slices, CellSlice{Cell: cell})
		}
		rel := line - program.FirstLine(v)
		slices[i].Lines = append(slices[i].Lines, rel)
	}
	return slices
}
