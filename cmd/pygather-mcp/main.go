package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/ludo-technologies/pygather/internal/version"
	"github.com/ludo-technologies/pygather/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

const serverName = "pygather"

func main() {
	configPath := flag.String("config", os.Getenv("PYGATHER_CONFIG"), "configuration file applied to every request")
	flag.Parse()

	// stdout carries JSON-RPC, so logs go to stderr
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	server := mcpserver.NewMCPServer(
		serverName,
		version.Short(),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithLogging(),
	)

	mcp.RegisterTools(server, mcp.NewHandlerSet(mcp.NewDependencies(nil, *configPath, logger)))

	logger.Info("starting MCP server", "name", serverName, "version", version.Short(),
		"tools", []string{"slice_code", "dependency_edges"})

	// Blocks until the client disconnects
	if err := mcpserver.ServeStdio(server); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
