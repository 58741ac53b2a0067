package service

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/pygather/domain"
)

func sampleDependencyResponse() *domain.DependencyResponse {
	loc := func(line int) domain.LocationDTO {
		return domain.LocationDTO{StartLine: line, EndLine: line}
	}
	return &domain.DependencyResponse{
		Files: []domain.FileDependencies{{
			FilePath:   "branch.py",
			Statements: 3,
			Edges: []domain.DependencyEdge{
				{Kind: domain.DependencyKindData, From: loc(1), To: loc(2), FromText: "a = 1", ToText: "if a:"},
				{Kind: domain.DependencyKindControl, From: loc(2), To: loc(3), FromText: "if a:", ToText: "b = a"},
			},
		}},
		Summary: domain.DependencySummary{FilesAnalyzed: 1, DataEdges: 1, ControlEdges: 1},
		Version: "dev",
	}
}

func TestDepsFormatter(t *testing.T) {
	f := NewDepsFormatter()
	resp := sampleDependencyResponse()

	t.Run("Text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, f.Write(resp, domain.OutputFormatText, &buf))
		assert.Contains(t, buf.String(), "Control edges: 1")
		assert.Contains(t, buf.String(), "control    2 -> 3    b = a  <-  if a:")
	})

	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, f.Write(resp, domain.OutputFormatJSON, &buf))
		var decoded domain.DependencyResponse
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, resp.Files[0].Edges, decoded.Files[0].Edges)
	})

	t.Run("CSV", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, f.Write(resp, domain.OutputFormatCSV, &buf))
		rows, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, []string{"branch.py", "data", "1", "2", "a = 1", "if a:"}, rows[1])
	})

	t.Run("DOT", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, f.Write(resp, domain.OutputFormatDOT, &buf))
		out := buf.String()
		assert.Contains(t, out, `f0_l2 [label="2: if a:"];`)
		assert.Contains(t, out, "f0_l1 -> f0_l2;")
		assert.Contains(t, out, "f0_l2 -> f0_l3 [style=dashed];")
	})

	t.Run("Unsupported", func(t *testing.T) {
		err := f.Write(resp, "xml", &bytes.Buffer{})
		assert.Equal(t, domain.ErrCodeUnsupportedFormat, domain.ErrorCode(err))
	})
}
