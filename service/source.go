package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ludo-technologies/pygather/domain"
	"github.com/ludo-technologies/pygather/internal/analyzer"
	"github.com/ludo-technologies/pygather/internal/notebook"
	"github.com/ludo-technologies/pygather/internal/parser"
)

// analysisUnit is one file prepared for parsing. Notebooks are flattened
// into the program of their executed cells.
type analysisUnit struct {
	path string
	code []byte

	// lines holds the text shown for each program line, 1-based via lineText.
	// For notebooks this is the cell source before magics rewriting.
	lines []string

	program *notebook.Program
	nb      *notebook.Notebook
	slicer  *notebook.ExecutionSlicer
}

// prepareUnit reads content as a Python file or notebook. Every executed
// notebook cell is logged with an execution slicer, in execution order, and
// the unit holds the program of all runs that parse.
func prepareUnit(path string, content []byte, opts *analyzer.SliceOptions) (*analysisUnit, error) {
	if !IsNotebook(path) {
		code := string(content)
		return &analysisUnit{
			path:  path,
			code:  content,
			lines: strings.Split(strings.TrimSuffix(code, "\n"), "\n"),
		}, nil
	}

	nb, err := notebook.Parse(content)
	if err != nil {
		return nil, domain.NewParseError(path, err)
	}

	var runs []notebook.Cell
	for _, c := range nb.Cells {
		if c.Executed() {
			runs = append(runs, c)
		}
	}
	if len(runs) == 0 {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("%s: notebook has no executed cells", path), nil)
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].ExecutionCount < runs[j].ExecutionCount
	})

	slicer := notebook.NewExecutionSlicer(opts)
	for _, c := range runs {
		slicer.LogExecution(c)
	}

	program, err := slicer.Builder().Build()
	if errors.Is(err, notebook.ErrCellNotFound) {
		return nil, domain.NewParseError(path, fmt.Errorf("no executed cell parses: %w", err))
	}
	if err != nil {
		return nil, domain.NewAnalysisError(fmt.Sprintf("failed to assemble notebook %s", path), err)
	}

	u := &analysisUnit{path: path, nb: nb, slicer: slicer}
	u.useProgram(program)
	return u, nil
}

// useProgram points the unit at a notebook program
func (u *analysisUnit) useProgram(program *notebook.Program) {
	var lines []string
	for _, c := range program.Cells {
		lines = append(lines, strings.Split(c.Source, "\n")...)
	}
	u.program = program
	u.code = []byte(program.Code)
	u.lines = lines
}

// isNotebook reports whether the unit came from an .ipynb file
func (u *analysisUnit) isNotebook() bool {
	return u.nb != nil
}

// lineCount returns the number of program lines
func (u *analysisUnit) lineCount() int {
	return len(u.lines)
}

// lineText returns the displayed text of a 1-based program line
func (u *analysisUnit) lineText(line int) string {
	if line < 1 || line > len(u.lines) {
		return ""
	}
	return u.lines[line-1]
}

// slicesCell reports whether a request is seeded from a notebook cell:
// either a cell was selected or a notebook was given no program lines.
func (u *analysisUnit) slicesCell(lines []int, cell int) bool {
	return u.isNotebook() && (cell > 0 || len(lines) == 0)
}

// programSeedLines validates 1-based program lines
func (u *analysisUnit) programSeedLines(lines []int, cell int, cellLines []int) ([]int, error) {
	if cell != 0 {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("%s: a cell can only be selected in a notebook", u.path), nil)
	}
	if len(cellLines) > 0 {
		return nil, domain.NewInvalidInputError("cell lines require a cell", nil)
	}
	if len(lines) == 0 {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("%s: no lines to slice from", u.path), nil)
	}

	n := u.lineCount()
	out := make([]int, 0, len(lines))
	for _, l := range lines {
		if l < 1 || l > n {
			return nil, domain.NewInvalidInputError(fmt.Sprintf("%s: line %d out of range (1-%d)", u.path, l, n), nil)
		}
		out = append(out, l)
	}
	return normalizeLines(out), nil
}

// sliceCell slices a notebook run. A zero cell selects the latest run,
// which may be one that failed to parse.
func (u *analysisUnit) sliceCell(ctx context.Context, p *parser.Parser, cell int, cellLines []int) (*domain.FileSlice, error) {
	var target notebook.Cell
	if cell > 0 {
		found, ok := u.nb.CellByExecution(cell)
		if !ok {
			return nil, domain.NewCellNotFoundError(u.path, cell, nil)
		}
		target = found
	} else {
		target, _ = u.nb.Latest()
	}

	u.slicer.SetParser(p)
	sliced, err := u.slicer.SliceExecution(ctx, target.ID, target.ExecutionCount, cellLines)
	if err != nil {
		return nil, u.cellError(target, err)
	}
	u.useProgram(sliced.Program)
	return u.report(sliced.Seeds, sliced.Locations, sliced.CellSlices), nil
}

func (u *analysisUnit) cellError(target notebook.Cell, err error) error {
	var syntaxErr *parser.SyntaxError
	switch {
	case errors.Is(err, notebook.ErrLineOutOfRange):
		return domain.NewInvalidInputError(fmt.Sprintf("%s: %v", u.path, err), nil)
	case errors.Is(err, notebook.ErrCellNotFound):
		return domain.NewCellNotFoundError(u.path, target.ExecutionCount, err)
	case errors.Is(err, notebook.ErrCellDropped), errors.As(err, &syntaxErr):
		return domain.NewParseError(u.path, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return domain.NewAnalysisError(fmt.Sprintf("failed to slice cell %s of %s", target.ID, u.path), err)
	}
}

// fileSlice turns slice output over the unit's program into a report
func (u *analysisUnit) fileSlice(seeds *analyzer.LocationSet, result *analyzer.LocationSet) *domain.FileSlice {
	var cells []notebook.CellSlice
	if u.isNotebook() {
		cells = notebook.ProjectLines(u.program, result.Lines())
	}
	return u.report(seeds, result, cells)
}

func (u *analysisUnit) report(seeds, result *analyzer.LocationSet, cells []notebook.CellSlice) *domain.FileSlice {
	lines := result.Lines()
	out := &domain.FileSlice{
		FilePath:  u.path,
		Seeds:     toLocationDTOs(seeds.Items()),
		Locations: toLocationDTOs(result.Items()),
		Lines:     lines,
		Code:      u.codeFor(lines),
	}
	for _, cs := range cells {
		out.Cells = append(out.Cells, domain.CellSlice{
			CellID:         cs.Cell.ID,
			ExecutionCount: cs.Cell.ExecutionCount,
			Lines:          cs.Lines,
			Code:           cellCode(cs),
		})
	}
	return out
}

// codeFor joins the text of the given lines
func (u *analysisUnit) codeFor(lines []int) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(u.lineText(l))
		b.WriteString("\n")
	}
	return b.String()
}

// statementText returns the first line of a statement
func (u *analysisUnit) statementText(node *parser.Node) string {
	return strings.TrimSpace(u.lineText(node.Location.StartLine))
}

func cellCode(cs notebook.CellSlice) string {
	src := strings.Split(cs.Cell.Source, "\n")
	var b strings.Builder
	for _, l := range cs.Lines {
		if l >= 0 && l < len(src) {
			b.WriteString(src[l])
		}
		b.WriteString("\n")
	}
	return b.String()
}

func lineSeeds(lines []int) *analyzer.LocationSet {
	seeds := analyzer.NewLocationSet()
	for _, l := range lines {
		seeds.Add(analyzer.LineLocation(l))
	}
	return seeds
}

func normalizeLines(lines []int) []int {
	sort.Ints(lines)
	out := make([]int, 0, len(lines))
	for _, l := range lines {
		if len(out) == 0 || out[len(out)-1] != l {
			out = append(out, l)
		}
	}
	return out
}

func toLocationDTO(loc parser.Location) domain.LocationDTO {
	return domain.LocationDTO{
		StartLine: loc.StartLine,
		StartCol:  loc.StartCol,
		EndLine:   loc.EndLine,
		EndCol:    loc.EndCol,
	}
}

func toLocationDTOs(locs []parser.Location) []domain.LocationDTO {
	out := make([]domain.LocationDTO, 0, len(locs))
	for _, loc := range locs {
		out = append(out, toLocationDTO(loc))
	}
	return out
}
