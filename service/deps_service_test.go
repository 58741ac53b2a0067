package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/pygather/domain"
)

const branchSource = "a = 1\nif a:\n    b = a\n"

func edgePairs(fd *domain.FileDependencies, kind domain.DependencyKind) [][2]int {
	var pairs [][2]int
	for _, e := range fd.Edges {
		if e.Kind == kind {
			pairs = append(pairs, [2]int{e.From.StartLine, e.To.StartLine})
		}
	}
	return pairs
}

func TestDependencyService_AnalyzeSource(t *testing.T) {
	svc := NewDependencyService()

	fd, err := svc.AnalyzeSource(context.Background(), "branch.py", []byte(branchSource), domain.DependencyRequest{AnalysisOptions: defaultOptions()})
	require.NoError(t, err)

	t.Run("DataEdges", func(t *testing.T) {
		data := edgePairs(fd, domain.DependencyKindData)
		assert.Contains(t, data, [2]int{1, 2})
		assert.Contains(t, data, [2]int{1, 3})
	})

	t.Run("ControlEdges", func(t *testing.T) {
		assert.Equal(t, [][2]int{{2, 3}}, edgePairs(fd, domain.DependencyKindControl))
	})

	t.Run("StatementText", func(t *testing.T) {
		for _, e := range fd.Edges {
			if e.Kind == domain.DependencyKindControl {
				assert.Equal(t, "if a:", e.FromText)
				assert.Equal(t, "b = a", e.ToText)
			}
		}
	})

	t.Run("DataBeforeControl", func(t *testing.T) {
		require.NotEmpty(t, fd.Edges)
		assert.Equal(t, domain.DependencyKindControl, fd.Edges[len(fd.Edges)-1].Kind)
	})

	t.Run("StatementCount", func(t *testing.T) {
		assert.GreaterOrEqual(t, fd.Statements, 3)
	})
}

func TestDependencyService_Analyze(t *testing.T) {
	dir := t.TempDir()
	py := createTestFile(t, dir, "branch.py", branchSource)
	nb := createTestFile(t, dir, "analysis.ipynb", testNotebook)
	empty := createTestFile(t, dir, "empty.py", "")
	bad := createTestFile(t, dir, "bad.py", "x = (\n")
	svc := NewDependencyService()

	t.Run("SummarizesEdges", func(t *testing.T) {
		resp, err := svc.Analyze(context.Background(), domain.DependencyRequest{
			Paths:           []string{py, nb, empty, bad},
			AnalysisOptions: defaultOptions(),
		})
		require.NoError(t, err)
		require.Len(t, resp.Files, 4)

		assert.Equal(t, 3, resp.Summary.FilesAnalyzed)
		assert.Equal(t, 1, resp.Summary.FilesFailed)
		assert.Equal(t, 1, resp.Summary.ControlEdges)
		assert.Positive(t, resp.Summary.DataEdges)
		assert.NotEmpty(t, resp.Files[3].Errors)

		require.Len(t, resp.Warnings, 1)
		assert.True(t, strings.HasPrefix(resp.Warnings[0], empty))
	})

	t.Run("NotebookEdgesUseProgramLines", func(t *testing.T) {
		resp, err := svc.Analyze(context.Background(), domain.DependencyRequest{Paths: []string{nb}, AnalysisOptions: defaultOptions()})
		require.NoError(t, err)
		data := edgePairs(&resp.Files[0], domain.DependencyKindData)
		assert.Contains(t, data, [2]int{1, 4})
		assert.Contains(t, data, [2]int{4, 5})
	})

	t.Run("NoPaths", func(t *testing.T) {
		_, err := svc.Analyze(context.Background(), domain.DependencyRequest{})
		assert.Equal(t, domain.ErrCodeInvalidInput, domain.ErrorCode(err))
	})
}
