package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ludo-technologies/pygather/domain"
	"github.com/mark3labs/mcp-go/mcp"
)

// HandlerSet exposes MCP tool handlers with shared dependencies.
type HandlerSet struct {
	deps *Dependencies
}

// NewHandlerSet constructs a handler set.
func NewHandlerSet(deps *Dependencies) *HandlerSet {
	if deps == nil {
		deps = NewDependencies(nil, "", nil)
	}
	return &HandlerSet{deps: deps}
}

// HandleSliceCode handles the slice_code tool
func (h *HandlerSet) HandleSliceCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}
	path, content, errResult := h.readTarget(args)
	if errResult != nil {
		return errResult, nil
	}

	lines, err := intList(args, "lines")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cellLines, err := intList(args, "cell_lines")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cell := 0
	if v, ok := args["cell"]; ok {
		n, ok := asInt(v)
		if !ok || n < 0 {
			return mcp.NewToolResultError("cell must be a non-negative integer"), nil
		}
		cell = n
	}

	opts, err := h.deps.AnalysisOptions(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	logger := h.deps.Logger().With("tool", "slice_code", "path", path)
	result, err := h.deps.BuildSliceService().SliceSource(ctx, path, content, domain.SliceRequest{
		AnalysisOptions: opts,
		Lines:           lines,
		Cell:            cell,
		CellLines:       cellLines,
	})
	if err != nil {
		logger.Warn("Slice failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("slice failed: %v", err)), nil
	}
	logger.Info("Slice computed", "lines_kept", len(result.Lines))

	return jsonResult(result)
}

// HandleDependencyEdges handles the dependency_edges tool
func (h *HandlerSet) HandleDependencyEdges(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}
	path, content, errResult := h.readTarget(args)
	if errResult != nil {
		return errResult, nil
	}

	opts, err := h.deps.AnalysisOptions(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := h.deps.BuildDependencyService().AnalyzeSource(ctx, path, content, domain.DependencyRequest{AnalysisOptions: opts})
	if err != nil {
		h.deps.Logger().Warn("Dependency analysis failed", "tool", "dependency_edges", "path", path, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("dependency analysis failed: %v", err)), nil
	}
	return jsonResult(result)
}

// readTarget validates the path argument and reads the file
func (h *HandlerSet) readTarget(args map[string]interface{}) (string, []byte, *mcp.CallToolResult) {
	path, ok := args["path"].(string)
	if !ok || path == "" {
		return "", nil, mcp.NewToolResultError("path parameter is required and must be a string")
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", nil, mcp.NewToolResultError(fmt.Sprintf("path does not exist: %s", path))
	}
	if err == nil && info.IsDir() {
		return "", nil, mcp.NewToolResultError(fmt.Sprintf("path is a directory, expected a .py file or .ipynb notebook: %s", path))
	}
	if !h.deps.fileReader.IsValidPythonFile(path) {
		return "", nil, mcp.NewToolResultError(fmt.Sprintf("not a Python file or notebook: %s", path))
	}
	content, err := h.deps.fileReader.ReadFile(path)
	if err != nil {
		return "", nil, mcp.NewToolResultError(fmt.Sprintf("failed to read %s: %v", path, err))
	}
	return path, content, nil
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// intList reads an optional array of integers
func intList(args map[string]interface{}, key string) ([]int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s must be an array of integers", key)
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		n, ok := asInt(item)
		if !ok {
			return nil, fmt.Errorf("%s must be an array of integers", key)
		}
		out = append(out, n)
	}
	return out, nil
}

// asInt accepts JSON numbers that hold whole values
func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}
