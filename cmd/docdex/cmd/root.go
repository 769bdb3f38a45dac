// Package cmd provides the CLI commands for docdex.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/docdex/docdex/internal/config"
	"github.com/docdex/docdex/internal/embed"
	"github.com/docdex/docdex/internal/logging"
	"github.com/docdex/docdex/internal/rerank"
	"github.com/docdex/docdex/pkg/version"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	dbPath     string
	logLevel   string
}

// loadConfig loads configuration and applies flag overrides on top.
func (g *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.dbPath != "" {
		cfg.Database.Path = g.dbPath
	}
	if g.logLevel != "" {
		cfg.Server.LogLevel = g.logLevel
	}
	return cfg, nil
}

// NewRootCmd creates the root command for the docdex CLI.
func NewRootCmd() *cobra.Command {
	var opts globalOptions

	cmd := &cobra.Command{
		Use:   "docdex",
		Short: "Documentation index and retrieval for AI coding assistants",
		Long: `Docdex indexes library documentation into a local SQLite database and
serves it to AI coding assistants over the Model Context Protocol.

Ingest Markdown or reStructuredText docs, optionally vectorize them for
semantic search, then run 'docdex serve' and point your assistant at it.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("docdex version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file (default: ~/.config/docdex/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "Path to the snippet database")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	cmd.AddCommand(newIngestCmd(&opts))
	cmd.AddCommand(newListCmd(&opts))
	cmd.AddCommand(newRemoveCmd(&opts))
	cmd.AddCommand(newVectorizeCmd(&opts))
	cmd.AddCommand(newSearchCmd(&opts))
	cmd.AddCommand(newServeCmd(&opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// setupCLILogging routes CLI logs to the log file, keeping stdout clean
// for command output.
func setupCLILogging(level string) (func(), error) {
	cfg := logging.DefaultConfig()
	cfg.WriteToStderr = false
	if level != "" {
		cfg.Level = level
	}
	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return cleanup, nil
}

// newEmbedder builds the configured embedder.
func newEmbedder(cfg *config.Config) (embed.Embedder, error) {
	return embed.New(embed.Config{
		Provider:    cfg.Embeddings.Provider,
		Model:       cfg.Embeddings.Model,
		Host:        cfg.Embeddings.OllamaHost,
		BaseURL:     cfg.Embeddings.BaseURL,
		APIKey:      cfg.Embeddings.APIKey,
		TokenBudget: cfg.Embeddings.TokenBudget,
		CacheSize:   cfg.Embeddings.CacheSize,
	})
}

// newReranker builds the configured reranker.
func newReranker(cfg *config.Config) (rerank.Reranker, error) {
	return rerank.New(rerank.Config{
		Provider: cfg.Reranking.Provider,
		APIKey:   cfg.Reranking.APIKey,
		Model:    cfg.Reranking.Model,
		Endpoint: cfg.Reranking.Endpoint,
	})
}
