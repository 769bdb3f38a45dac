package mcp

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docdex/docdex/internal/ingest"
	"github.com/docdex/docdex/internal/search"
)

// ResolveLibraryInput is the input schema for resolve-library-id.
type ResolveLibraryInput struct {
	LibraryName string `json:"libraryName" jsonschema:"the library or package name to search for"`
}

// ResolveLibraryOutput is the output schema for resolve-library-id.
type ResolveLibraryOutput struct {
	Libraries []LibraryMatch `json:"libraries" jsonschema:"matching libraries ordered by trust score"`
}

// LibraryMatch is one resolved library.
type LibraryMatch struct {
	ID            string  `json:"id" jsonschema:"docdex-compatible library ID in /org/project form"`
	Version       string  `json:"version" jsonschema:"indexed documentation version"`
	Title         string  `json:"title,omitempty" jsonschema:"library display name"`
	Description   string  `json:"description,omitempty" jsonschema:"short library description"`
	TotalSnippets int     `json:"totalSnippets" jsonschema:"number of indexed snippets"`
	TrustScore    float64 `json:"trustScore,omitempty" jsonschema:"authority score, higher is more authoritative"`
}

// GetLibraryDocsInput is the input schema for get-library-docs.
type GetLibraryDocsInput struct {
	LibraryID string `json:"libraryID" jsonschema:"exact library ID from resolve-library-id, e.g. /vercel/next.js or /vercel/next.js/v14.3.0"`
	Topic     string `json:"topic,omitempty" jsonschema:"topic to focus the documentation on, e.g. routing or hooks"`
	Tokens    int    `json:"tokens,omitempty" jsonschema:"maximum number of documentation tokens to return, default 10000"`
}

// GetLibraryDocsOutput is the output schema for get-library-docs.
type GetLibraryDocsOutput struct {
	Documentation string `json:"documentation" jsonschema:"formatted documentation snippets"`
	SnippetCount  int    `json:"snippetCount" jsonschema:"number of snippets returned"`
}

// resolveLibraryHandler handles the resolve-library-id tool.
func (s *Server) resolveLibraryHandler(ctx context.Context, req *mcp.CallToolRequest, input ResolveLibraryInput) (
	*mcp.CallToolResult,
	ResolveLibraryOutput,
	error,
) {
	name := strings.TrimSpace(input.LibraryName)
	if name == "" {
		return nil, ResolveLibraryOutput{}, NewInvalidParamsError("libraryName is required")
	}

	start := time.Now()
	libs, err := s.store.FindLibraries(ctx, name)
	if err != nil {
		return nil, ResolveLibraryOutput{}, NewInternalError(err)
	}

	output := ResolveLibraryOutput{
		Libraries: make([]LibraryMatch, 0, len(libs)),
	}
	for _, lib := range libs {
		output.Libraries = append(output.Libraries, LibraryMatch{
			ID:            lib.ID,
			Version:       lib.Version,
			Title:         lib.Title,
			Description:   lib.Description,
			TotalSnippets: lib.TotalSnippets,
			TrustScore:    lib.TrustScore,
		})
	}

	s.logger.Info("resolve-library-id",
		slog.String("query", name),
		slog.Int("matches", len(libs)),
		slog.Duration("elapsed", time.Since(start)))

	return textResult(formatLibraries(name, libs)), output, nil
}

// getLibraryDocsHandler handles the get-library-docs tool.
func (s *Server) getLibraryDocsHandler(ctx context.Context, req *mcp.CallToolRequest, input GetLibraryDocsInput) (
	*mcp.CallToolResult,
	GetLibraryDocsOutput,
	error,
) {
	id, version, err := ingest.ParseLibraryID(input.LibraryID)
	if err != nil {
		msg := "Library ID " + strconv.Quote(input.LibraryID) + " is not valid. IDs have the form /org/project, optionally with a version suffix. Use resolve-library-id to find one."
		return textResult(msg), GetLibraryDocsOutput{Documentation: msg}, nil
	}

	lib, err := s.store.GetLibrary(ctx, id, version)
	if err != nil {
		return nil, GetLibraryDocsOutput{}, NewInternalError(err)
	}
	if lib == nil {
		msg := "Library " + input.LibraryID + " is not indexed. Use resolve-library-id to find an indexed library."
		return textResult(msg), GetLibraryDocsOutput{Documentation: msg}, nil
	}

	topic := strings.TrimSpace(input.Topic)
	if topic == "" {
		// Without a topic, serve the library's leading snippets.
		topic = lib.Title
		if topic == "" {
			topic = strings.TrimPrefix(lib.ID, "/")
		}
	}

	tokens := input.Tokens
	if tokens <= 0 {
		tokens = s.config.Server.DefaultTokens
	}

	start := time.Now()
	results, err := s.engine.Search(ctx, lib.ID, lib.Version, topic, search.Options{
		Mode:         search.Mode(s.config.Search.Mode),
		Limit:        s.config.Search.MaxResults,
		UseReranking: s.config.Search.UseReranking,
	})
	if err != nil {
		return nil, GetLibraryDocsOutput{}, NewInternalError(err)
	}

	text, count := formatSnippets(results, tokens)
	s.logger.Info("get-library-docs",
		slog.String("library", lib.ID),
		slog.String("version", lib.Version),
		slog.String("topic", topic),
		slog.Int("results", count),
		slog.Duration("elapsed", time.Since(start)))

	return textResult(text), GetLibraryDocsOutput{
		Documentation: text,
		SnippetCount:  count,
	}, nil
}
