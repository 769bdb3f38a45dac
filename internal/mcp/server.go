package mcp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docdex/docdex/internal/config"
	"github.com/docdex/docdex/internal/search"
	"github.com/docdex/docdex/internal/store"
	"github.com/docdex/docdex/pkg/version"
)

// Server bridges AI clients with the documentation index. It exposes two
// tools: resolve-library-id to map a library name to an indexed id, and
// get-library-docs to fetch relevant snippets for a query.
type Server struct {
	mcp    *mcp.Server
	store  store.Store
	engine *search.Engine
	config *config.Config
	logger *slog.Logger
}

// NewServer creates the MCP server and registers its tools.
func NewServer(st store.Store, engine *search.Engine, cfg *config.Config) (*Server, error) {
	if st == nil {
		return nil, errors.New("store is required")
	}
	if engine == nil {
		return nil, errors.New("search engine is required")
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}

	s := &Server{
		store:  st,
		engine: engine,
		config: cfg,
		logger: slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "docdex",
			Version: version.Version,
		},
		nil,
	)
	s.registerTools()
	return s, nil
}

// registerTools registers the documentation tools with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "resolve-library-id",
		Description: "Resolve a library or package name to a docdex-compatible library ID. Always call this before get-library-docs unless the user supplies an ID in /org/project form.",
	}, s.resolveLibraryHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get-library-docs",
		Description: "Fetch up-to-date documentation snippets for a library. Requires an exact library ID from resolve-library-id. Narrow results with a topic query.",
	}, s.getLibraryDocsHandler)

	s.logger.Debug("MCP tools registered", slog.Int("count", 2))
}

// Serve runs the server over the stdio transport until ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting MCP server",
		slog.String("transport", "stdio"),
		slog.String("version", version.Version))

	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("MCP server stopped with error",
			slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("MCP server stopped")
	return nil
}

// Close releases server resources.
func (s *Server) Close() error {
	return nil
}

// textResult wraps plain text in a tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
