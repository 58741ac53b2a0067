// Package notebook reads Jupyter notebooks and assembles their executed
// cells into a single Python program that can be sliced.
package notebook

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Cell is one code cell of a notebook run
type Cell struct {
	// ID identifies the cell across executions
	ID string

	// ExecutionCount is the prompt number of the run; zero means the cell
	// has not been executed
	ExecutionCount int

	// Source is the cell text as written, magics included
	Source string

	// HasError reports whether the run raised
	HasError bool
}

// Executed reports whether the cell has run
func (c Cell) Executed() bool {
	return c.ExecutionCount > 0
}

// LineCount returns the number of lines the cell occupies in a program
func (c Cell) LineCount() int {
	return strings.Count(c.Source, "\n") + 1
}

// Notebook is the code content of an .ipynb file
type Notebook struct {
	NBFormat int
	Cells    []Cell
}

// CellByExecution returns the cell that ran with the given prompt number
func (n *Notebook) CellByExecution(count int) (Cell, bool) {
	for _, c := range n.Cells {
		if c.ExecutionCount == count {
			return c, true
		}
	}
	return Cell{}, false
}

// Latest returns the executed cell with the highest prompt number
func (n *Notebook) Latest() (Cell, bool) {
	var latest Cell
	found := false
	for _, c := range n.Cells {
		if c.Executed() && (!found || c.ExecutionCount > latest.ExecutionCount) {
			latest = c
			found = true
		}
	}
	return latest, found
}

// multiline decodes nbformat text fields, which are a string or a list of
// lines
type multiline string

func (m *multiline) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = multiline(s)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("source must be a string or a list of strings: %w", err)
	}
	*m = multiline(strings.Join(lines, ""))
	return nil
}

type rawNotebook struct {
	NBFormat int       `json:"nbformat"`
	Cells    []rawCell `json:"cells"`
}

type rawCell struct {
	ID             string      `json:"id"`
	CellType       string      `json:"cell_type"`
	ExecutionCount *int        `json:"execution_count"`
	Source         multiline   `json:"source"`
	Outputs        []rawOutput `json:"outputs"`
}

type rawOutput struct {
	OutputType string `json:"output_type"`
}

// Parse decodes nbformat 4 JSON. Only code cells are kept; a cell without an
// id is named after its position in the file.
func Parse(data []byte) (*Notebook, error) {
	var raw rawNotebook
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid notebook: %w", err)
	}
	if raw.NBFormat != 0 && raw.NBFormat < 4 {
		return nil, fmt.Errorf("unsupported nbformat %d, expected 4", raw.NBFormat)
	}

	nb := &Notebook{NBFormat: raw.NBFormat}
	for i, rc := range raw.Cells {
		if rc.CellType != "code" {
			continue
		}
		cell := Cell{
			ID:     rc.ID,
			Source: strings.TrimSuffix(string(rc.Source), "\n"),
		}
		if cell.ID == "" {
			cell.ID = fmt.Sprintf("cell-%d", i)
		}
		if rc.ExecutionCount != nil {
			cell.ExecutionCount = *rc.ExecutionCount
		}
		for _, out := range rc.Outputs {
			if out.OutputType == "error" {
				cell.HasError = true
				break
			}
		}
		nb.Cells = append(nb.Cells, cell)
	}
	return nb, nil
}

// Read decodes a notebook from r
func Read(r io.Reader) (*Notebook, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read notebook: %w", err)
	}
	return Parse(data)
}

// ReadFile decodes the notebook at path
func ReadFile(path string) (*Notebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	nb, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return nb, nil
}
