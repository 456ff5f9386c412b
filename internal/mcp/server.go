package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/fpt/auto-context/internal/repository"
	"github.com/fpt/auto-context/pkg/aggregator"
)

// ServerName is advertised to MCP clients
const ServerName = "auto-context"

// NewServer creates an MCP server exposing the aggregation tools
func NewServer(version string, engine *aggregator.Engine, fsRepo repository.FilesystemRepository, workingDir string) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions("Tools that gather code marked with [COPILOT CONTEXT] comments from open files "+
			"and inject it as CHUNK blocks at the top of a target file."),
	)

	tools := NewTools(engine, fsRepo, workingDir)
	s.AddTool(tools.AggregateDefinition(), tools.HandleAggregate)
	s.AddTool(tools.InjectDefinition(), tools.HandleInject)
	s.AddTool(tools.ResolveDefinition(), tools.HandleResolve)
	return s
}

// ServeStdio serves the tools over stdin/stdout until the client disconnects
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
