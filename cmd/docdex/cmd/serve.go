package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docdex/docdex/internal/logging"
	mcpserver "github.com/docdex/docdex/internal/mcp"
	"github.com/docdex/docdex/internal/search"
	"github.com/docdex/docdex/internal/store"
)

func newServeCmd(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio",
		Long: `Run the Model Context Protocol server over stdio.

Stdout carries JSON-RPC exclusively, so all logging goes to
~/.docdex/logs/server.log. Register the server with your assistant:

  claude mcp add docdex -- docdex serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), global)
		},
	}

	return cmd
}

func runServe(ctx context.Context, global *globalOptions) error {
	cfg, err := global.loadConfig()
	if err != nil {
		return err
	}

	// No stdout or stderr writes from here on.
	cleanup, err := logging.SetupServerMode(cfg.Server.LogLevel)
	if err == nil {
		defer cleanup()
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	server, err := mcpserver.NewServer(st, engine, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = server.Close() }()

	slog.Info("mcp_server_starting",
		slog.String("db", cfg.Database.Path),
		slog.String("embeddings", cfg.Embeddings.Provider),
		slog.String("reranking", cfg.Reranking.Provider))

	return server.Serve(ctx)
}
