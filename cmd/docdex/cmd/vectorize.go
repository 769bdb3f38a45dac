package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docdex/docdex/internal/ingest"
	"github.com/docdex/docdex/internal/output"
	"github.com/docdex/docdex/internal/store"
)

// vectorizeOptions holds CLI flags for vectorize.
type vectorizeOptions struct {
	libVersion string
	force      bool
}

func newVectorizeCmd(global *globalOptions) *cobra.Command {
	var opts vectorizeOptions

	cmd := &cobra.Command{
		Use:   "vectorize [library-id]",
		Short: "Compute embeddings for indexed snippets",
		Long: `Compute embeddings for snippets that do not have one yet, enabling
semantic and hybrid search. Without a library ID, vectorizes every
indexed library.

Switching embedding models requires --force to recompute existing
vectors, since mixed dimensions cannot be compared.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			libraryID := ""
			if len(args) > 0 {
				libraryID = args[0]
			}
			return runVectorize(cmd.Context(), cmd, global, libraryID, opts)
		},
	}

	cmd.Flags().StringVar(&opts.libVersion, "lib-version", "", "Limit to one library version")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Recompute embeddings that already exist")

	return cmd
}

func runVectorize(ctx context.Context, cmd *cobra.Command, global *globalOptions, libraryID string, opts vectorizeOptions) error {
	cfg, err := global.loadConfig()
	if err != nil {
		return err
	}
	cleanup, err := setupCLILogging(cfg.Server.LogLevel)
	if err == nil {
		defer cleanup()
	}

	version := opts.libVersion
	if libraryID != "" {
		id, idVersion, err := ingest.ParseLibraryID(libraryID)
		if err != nil {
			return err
		}
		libraryID = id
		if idVersion != "" {
			version = idVersion
		}
	}

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

	svc := ingest.NewService(st, embedder, cfg.Database.Path)
	updated, err := svc.Vectorize(ctx, ingest.VectorizeFilter{
		LibraryID: libraryID,
		Version:   version,
		Force:     opts.force,
	})
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	if updated == 0 {
		out.Status("", "All snippets already vectorized.")
		return nil
	}
	out.Successf("Vectorized %d snippets with %s", updated, embedder.ModelName())
	return nil
}
