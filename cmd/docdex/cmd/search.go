package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docdex/docdex/internal/ingest"
	"github.com/docdex/docdex/internal/output"
	"github.com/docdex/docdex/internal/search"
	"github.com/docdex/docdex/internal/store"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	mode   string
	limit  int
	rerank bool
	format string
}

func newSearchCmd(global *globalOptions) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <library-id> <query>",
		Short: "Search indexed documentation",
		Long: `Search the documentation snippets of one library.

Hybrid mode fuses keyword and semantic scores; semantic and hybrid
require vectorized snippets (see 'docdex vectorize').

Examples:
  docdex search /vercel/next.js "middleware configuration"
  docdex search /gin-gonic/gin/v1.10.0 "route groups" --mode keyword
  docdex search /fastapi/fastapi "dependency injection" --rerank -n 5`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args[1:], " ")
			return runSearch(cmd.Context(), cmd, global, args[0], query, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "Search mode: keyword, semantic, hybrid (default from config)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default from config)")
	cmd.Flags().BoolVar(&opts.rerank, "rerank", false, "Rerank results with the configured reranker")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, global *globalOptions, libraryID, query string, opts searchOptions) error {
	cfg, err := global.loadConfig()
	if err != nil {
		return err
	}
	cleanup, err := setupCLILogging(cfg.Server.LogLevel)
	if err == nil {
		defer cleanup()
	}

	id, version, err := ingest.ParseLibraryID(libraryID)
	if err != nil {
		return err
	}

	mode := cfg.Search.Mode
	if opts.mode != "" {
		mode = opts.mode
	}
	limit := cfg.Search.MaxResults
	if opts.limit > 0 {
		limit = opts.limit
	}
	useRerank := cfg.Search.UseReranking || opts.rerank

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = st.Close() }()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = embedder.Close() }()

	reranker, err := newReranker(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = reranker.Close() }()

	engine, err := search.NewEngine(st,
		search.WithEmbedder(embedder),
		search.WithReranker(reranker))
	if err != nil {
		return err
	}

	results, err := engine.Search(ctx, id, version, query, search.Options{
		Mode:         search.Mode(mode),
		Limit:        limit,
		UseReranking: useRerank,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if opts.format == "json" {
		return formatResultsJSON(cmd, results)
	}
	return formatResultsText(cmd, query, results)
}

// formatResultsText outputs results in human-readable form.
func formatResultsText(cmd *cobra.Command, query string, results []search.Result) error {
	out := output.New(cmd.OutOrStdout())
	if len(results) == 0 {
		out.Status("", fmt.Sprintf("No results found for %q", query))
		return nil
	}

	out.Statusf("🔍", "Found %d results for %q:", len(results), query)
	out.Newline()

	for i, r := range results {
		location := r.Snippet.SourcePath
		if r.Snippet.Breadcrumb != "" {
			location = r.Snippet.Breadcrumb
		}
		out.Statusf("", "%d. %s (score: %.3f)", i+1, r.Snippet.Title, r.Score)
		out.Status("", "   "+location)
		for _, line := range snippetPreview(r.Snippet.Content, 3) {
			out.Status("", "   "+line)
		}
		out.Newline()
	}
	return nil
}

// formatResultsJSON outputs results as JSON.
func formatResultsJSON(cmd *cobra.Command, results []search.Result) error {
	type jsonResult struct {
		Title      string  `json:"title"`
		Breadcrumb string  `json:"breadcrumb,omitempty"`
		SourcePath string  `json:"source_path,omitempty"`
		SourceURL  string  `json:"source_url,omitempty"`
		Language   string  `json:"language,omitempty"`
		Score      float64 `json:"score"`
		Content    string  `json:"content"`
	}

	rows := make([]jsonResult, 0, len(results))
	for _, r := range results {
		rows = append(rows, jsonResult{
			Title:      r.Snippet.Title,
			Breadcrumb: r.Snippet.Breadcrumb,
			SourcePath: r.Snippet.SourcePath,
			SourceURL:  r.Snippet.SourceURL,
			Language:   r.Snippet.Language,
			Score:      r.Score,
			Content:    r.Snippet.Content,
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// snippetPreview returns the first n non-trailing-blank lines of content.
func snippetPreview(content string, n int) []string {
	lines := strings.Split(content, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
