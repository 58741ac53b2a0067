package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ludo-technologies/pygather/domain"
	"github.com/ludo-technologies/pygather/mcp"
	"github.com/ludo-technologies/pygather/service"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const program = "a = 1\nb = 2\nc = a + 1\nprint(c)\n"

const notebook = `{
  "nbformat": 4,
  "nbformat_minor": 5,
  "metadata": {},
  "cells": [
    {"id": "load", "cell_type": "code", "execution_count": 1, "metadata": {}, "outputs": [], "source": "x = 1"},
    {"id": "noise", "cell_type": "code", "execution_count": 2, "metadata": {}, "outputs": [], "source": "y = 2"},
    {"id": "use", "cell_type": "code", "execution_count": 3, "metadata": {}, "outputs": [], "source": "print(x)"}
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runTool(
	t *testing.T,
	arguments interface{},
	handlerFunc func(*mcp.HandlerSet, context.Context, mcplib.CallToolRequest) (*mcplib.CallToolResult, error),
) *mcplib.CallToolResult {
	t.Helper()
	deps := mcp.NewTestDependencies(service.NewFileReader(), nil, "")
	h := mcp.NewHandlerSet(deps)

	req := mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Arguments: arguments,
		},
	}
	res, err := handlerFunc(h, context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func resultText(t *testing.T, res *mcplib.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcplib.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestHandleSliceCode(t *testing.T) {
	t.Run("PythonFile", func(t *testing.T) {
		path := writeFile(t, "prog.py", program)
		res := runTool(t, map[string]interface{}{"path": path, "lines": []interface{}{float64(4)}}, (*mcp.HandlerSet).HandleSliceCode)
		require.False(t, res.IsError, resultText(t, res))

		var slice domain.FileSlice
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &slice))
		assert.Equal(t, []int{1, 3, 4}, slice.Lines)
		assert.Equal(t, "a = 1\nc = a + 1\nprint(c)\n", slice.Code)
	})

	t.Run("NotebookCell", func(t *testing.T) {
		path := writeFile(t, "analysis.ipynb", notebook)
		res := runTool(t, map[string]interface{}{"path": path, "cell": float64(3)}, (*mcp.HandlerSet).HandleSliceCode)
		require.False(t, res.IsError, resultText(t, res))

		var slice domain.FileSlice
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &slice))
		ids := make([]string, 0, len(slice.Cells))
		for _, c := range slice.Cells {
			ids = append(ids, c.CellID)
		}
		assert.Equal(t, []string{"load", "use"}, ids)
	})

	t.Run("ConfigRules", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "prog.py")
		require.NoError(t, os.WriteFile(path, []byte("canvas = make()\nfill(canvas)\nshow(canvas)\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".pygather.toml"), []byte(`
[[slice.function_rules]]
function = "fill"
positional = [{ index = 0, effect = "UPDATE" }]
`), 0o644))

		res := runTool(t, map[string]interface{}{"path": path, "lines": []interface{}{float64(3)}}, (*mcp.HandlerSet).HandleSliceCode)
		require.False(t, res.IsError, resultText(t, res))
		var slice domain.FileSlice
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &slice))
		assert.Equal(t, []int{1, 2, 3}, slice.Lines)
	})

	tests := []struct {
		name      string
		arguments interface{}
		wantText  string
	}{
		{"NotAMap", "oops", "invalid arguments format"},
		{"MissingPath", map[string]interface{}{}, "path parameter is required"},
		{"NoSuchFile", map[string]interface{}{"path": "/does/not/exist.py"}, "path does not exist"},
		{"BadLines", map[string]interface{}{"path": "PLACEHOLDER", "lines": "4"}, "lines must be an array of integers"},
		{"FractionalCell", map[string]interface{}{"path": "PLACEHOLDER", "cell": 1.5}, "cell must be a non-negative integer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if m, ok := tt.arguments.(map[string]interface{}); ok && m["path"] == "PLACEHOLDER" {
				m["path"] = writeFile(t, "prog.py", program)
			}
			res := runTool(t, tt.arguments, (*mcp.HandlerSet).HandleSliceCode)
			assert.True(t, res.IsError)
			assert.Contains(t, resultText(t, res), tt.wantText)
		})
	}

	t.Run("DirectoryRejected", func(t *testing.T) {
		res := runTool(t, map[string]interface{}{"path": t.TempDir()}, (*mcp.HandlerSet).HandleSliceCode)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "directory")
	})

	t.Run("ParseErrorIsToolError", func(t *testing.T) {
		path := writeFile(t, "bad.py", "x = (\n")
		res := runTool(t, map[string]interface{}{"path": path, "lines": []interface{}{float64(1)}}, (*mcp.HandlerSet).HandleSliceCode)
		assert.True(t, res.IsError)
		assert.True(t, strings.HasPrefix(resultText(t, res), "slice failed:"))
	})
}

func TestHandleDependencyEdges(t *testing.T) {
	path := writeFile(t, "branch.py", "a = 1\nif a:\n    b = a\n")
	res := runTool(t, map[string]interface{}{"path": path}, (*mcp.HandlerSet).HandleDependencyEdges)
	require.False(t, res.IsError, resultText(t, res))

	var deps domain.FileDependencies
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &deps))
	kinds := map[domain.DependencyKind]int{}
	for _, e := range deps.Edges {
		kinds[e.Kind]++
	}
	assert.Equal(t, 1, kinds[domain.DependencyKindControl])
	assert.Positive(t, kinds[domain.DependencyKindData])
}

func TestRegisterTools(t *testing.T) {
	s := server.NewMCPServer("pygather-test", "0.0.0", server.WithToolCapabilities(true))
	assert.NotPanics(t, func() {
		mcp.RegisterTools(s, mcp.NewHandlerSet(nil))
	})
}
