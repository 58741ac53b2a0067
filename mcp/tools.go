package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers the pygather MCP tools with the server
func RegisterTools(s *server.MCPServer, h *HandlerSet) {
	integers := mcp.Items(map[string]interface{}{"type": "integer"})

	s.AddTool(mcp.NewTool("slice_code",
		mcp.WithDescription("Compute the backward program slice of a Python file or Jupyter notebook: the minimal set of lines needed to reproduce the selected lines or cell"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to a .py file or .ipynb notebook")),
		mcp.WithArray("lines",
			integers,
			mcp.Description("1-based program lines to slice from. For notebooks they index the concatenated program of executed cells")),
		mcp.WithNumber("cell",
			mcp.Description("Notebook cell to slice from, by execution count. Default: the last executed cell")),
		mcp.WithArray("cell_lines",
			integers,
			mcp.Description("0-based lines within the cell. Default: the whole cell")),
	), h.HandleSliceCode)

	s.AddTool(mcp.NewTool("dependency_edges",
		mcp.WithDescription("List the statement-level data and control dependencies of a Python file or notebook"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to a .py file or .ipynb notebook")),
	), h.HandleDependencyEdges)
}
