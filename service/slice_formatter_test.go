package service

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ludo-technologies/pygather/domain"
)

func sampleSliceResponse() *domain.SliceResponse {
	return &domain.SliceResponse{
		Files: []domain.FileSlice{
			{
				FilePath: "a.py",
				Lines:    []int{1, 3, 4},
				Code:     "a = 1\nc = a + 1\nprint(c)\n",
			},
			{
				FilePath: "nb.ipynb",
				Lines:    []int{1, 4},
				Code:     "x = 1\nz = x + 1\n",
				Cells: []domain.CellSlice{
					{CellID: "setup", ExecutionCount: 1, Lines: []int{0}, Code: "x = 1"},
					{CellID: "use", ExecutionCount: 3, Lines: []int{0}, Code: "z = x + 1"},
				},
			},
			{FilePath: "bad.py", Errors: []string{"[PARSE_ERROR] failed to parse file: bad.py"}},
		},
		Summary:     domain.SliceSummary{FilesAnalyzed: 2, FilesFailed: 1, Statements: 5, Lines: 5},
		Warnings:    []string{"a.py: something odd"},
		GeneratedAt: "2026-01-02T03:04:05Z",
		Version:     "dev",
	}
}

func TestSliceFormatter_Text(t *testing.T) {
	out, err := NewSliceFormatter().Format(sampleSliceResponse(), domain.OutputFormatText)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "Program Slice\n"))
	assert.Contains(t, out, "Failed: 1")
	assert.Contains(t, out, "  lines: 1, 3-4\n")
	assert.Contains(t, out, "  c = a + 1\n")
	assert.Contains(t, out, "# cell use [3]\n  z = x + 1\n")
	assert.Contains(t, out, "error: [PARSE_ERROR]")
	assert.Contains(t, out, "! a.py: something odd")
}

func TestSliceFormatter_Structured(t *testing.T) {
	f := NewSliceFormatter()
	resp := sampleSliceResponse()

	t.Run("JSON", func(t *testing.T) {
		out, err := f.Format(resp, domain.OutputFormatJSON)
		require.NoError(t, err)
		var decoded domain.SliceResponse
		require.NoError(t, json.Unmarshal([]byte(out), &decoded))
		assert.Equal(t, resp.Files[0].Lines, decoded.Files[0].Lines)
		assert.Equal(t, "use", decoded.Files[1].Cells[1].CellID)
	})

	t.Run("YAML", func(t *testing.T) {
		out, err := f.Format(resp, domain.OutputFormatYAML)
		require.NoError(t, err)
		var decoded map[string]interface{}
		require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
		assert.Equal(t, "dev", decoded["version"])
	})

	t.Run("CSV", func(t *testing.T) {
		out, err := f.Format(resp, domain.OutputFormatCSV)
		require.NoError(t, err)
		rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 6)
		assert.Equal(t, []string{"file", "cell_id", "execution_count", "line", "code"}, rows[0])
		assert.Equal(t, []string{"a.py", "", "", "3", "c = a + 1"}, rows[2])
		assert.Equal(t, []string{"nb.ipynb", "use", "3", "0", "z = x + 1"}, rows[5])
	})

	t.Run("DOT", func(t *testing.T) {
		out, err := f.Format(resp, domain.OutputFormatDOT)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "digraph slice {"))
		assert.Contains(t, out, "f0_l3 -> f0_l4;")
		assert.NotContains(t, out, "cluster_2")
	})

	t.Run("Unsupported", func(t *testing.T) {
		_, err := f.Format(resp, "xml")
		assert.Equal(t, domain.ErrCodeUnsupportedFormat, domain.ErrorCode(err))
	})
}
