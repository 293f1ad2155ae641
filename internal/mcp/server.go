package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/callcampaign-mcp/internal/importer"
	"github.com/dshills/callcampaign-mcp/internal/resolver"
	"github.com/dshills/callcampaign-mcp/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "callcampaign-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Dependencies are the components the tools call into
type Dependencies struct {
	Storage  storage.Storage
	Resolver *resolver.Resolver
	Importer *importer.Importer
	Metrics  *resolver.Metrics // optional, feeds get_status pass counters
	Logger   *slog.Logger      // optional
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	storage  storage.Storage
	resolver *resolver.Resolver
	importer *importer.Importer
	metrics  *resolver.Metrics
	logger   *slog.Logger
}

// NewServer creates a new MCP server instance. The caller keeps ownership
// of the store.
func NewServer(deps Dependencies) (*Server, error) {
	if deps.Storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if deps.Resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if deps.Importer == nil {
		return nil, fmt.Errorf("importer is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcp:      mcpServer,
		storage:  deps.Storage,
		resolver: deps.Resolver,
		importer: deps.Importer,
		metrics:  deps.Metrics,
		logger:   logger,
	}

	// Register tools
	s.registerTools()

	return s, nil
}

// Serve runs the MCP server on stdio and blocks until stdin closes or ctx
// is cancelled
func (s *Server) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcp)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(resolveClientTool(), s.handleResolveClient)
	s.mcp.AddTool(importClientsTool(), s.handleImportClients)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
