package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docdex/docdex/internal/ingest"
	"github.com/docdex/docdex/internal/output"
	"github.com/docdex/docdex/internal/store"
)

// docExtensions are the file extensions collected when ingesting a directory.
var docExtensions = map[string]bool{
	".md":       true,
	".mdx":      true,
	".markdown": true,
	".rst":      true,
	".rest":     true,
	".txt":      true,
}

// ingestOptions holds CLI flags for ingest.
type ingestOptions struct {
	libVersion  string
	title       string
	description string
	sourceRepo  string
	trustScore  float64
	vectorize   bool
}

func newIngestCmd(global *globalOptions) *cobra.Command {
	var opts ingestOptions

	cmd := &cobra.Command{
		Use:   "ingest <library-id> <path>...",
		Short: "Index documentation files for a library",
		Long: `Ingest Markdown or reStructuredText documentation into the index.

The library ID has the form /org/project, optionally with a version
suffix (/org/project/v2.1.0). Paths may be files or directories;
directories are walked for documentation files.

Re-running ingest for the same library version replaces its snippets.

Examples:
  docdex ingest /vercel/next.js ./docs
  docdex ingest /gin-gonic/gin/v1.10.0 README.md docs/ --title Gin
  docdex ingest /fastapi/fastapi ./docs --vectorize`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), cmd, global, args[0], args[1:], opts)
		},
	}

	cmd.Flags().StringVar(&opts.libVersion, "lib-version", "", "Library version (default: latest, or the ID suffix)")
	cmd.Flags().StringVar(&opts.title, "title", "", "Human-readable library title")
	cmd.Flags().StringVar(&opts.description, "description", "", "Short library description")
	cmd.Flags().StringVar(&opts.sourceRepo, "source-repo", "", "Source repository URL")
	cmd.Flags().Float64Var(&opts.trustScore, "trust-score", 0, "Authority score used to rank name matches")
	cmd.Flags().BoolVar(&opts.vectorize, "vectorize", false, "Compute embeddings right after ingesting")

	return cmd
}

func runIngest(ctx context.Context, cmd *cobra.Command, global *globalOptions, libraryID string, paths []string, opts ingestOptions) error {
	cfg, err := global.loadConfig()
	if err != nil {
		return err
	}
	cleanup, err := setupCLILogging(cfg.Server.LogLevel)
	if err == nil {
		defer cleanup()
	}

	out := output.New(cmd.OutOrStdout())

	docs, err := collectDocuments(paths)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documentation files found under %s", strings.Join(paths, ", "))
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

	lib := store.Library{
		ID:          libraryID,
		Version:     opts.libVersion,
		Title:       opts.title,
		Description: opts.description,
		SourceRepo:  opts.sourceRepo,
		TrustScore:  opts.trustScore,
	}

	count, err := svc.Ingest(ctx, lib, docs)
	if err != nil {
		return err
	}
	out.Successf("Ingested %d snippets from %d files", count, len(docs))

	if opts.vectorize {
		id, version, err := ingest.ParseLibraryID(libraryID)
		if err != nil {
			return err
		}
		updated, err := svc.Vectorize(ctx, ingest.VectorizeFilter{LibraryID: id, Version: version})
		if err != nil {
			return fmt.Errorf("vectorize failed: %w", err)
		}
		out.Successf("Vectorized %d snippets with %s", updated, embedder.ModelName())
	}

	return nil
}

// collectDocuments reads every documentation file named by paths, walking
// directories. Files are ordered by path for deterministic snippet IDs.
func collectDocuments(paths []string) ([]ingest.Document, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if strings.HasPrefix(d.Name(), ".") && path != p {
					return filepath.SkipDir
				}
				return nil
			}
			if docExtensions[strings.ToLower(filepath.Ext(path))] {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)

	docs := make([]ingest.Document, 0, len(files))
	for _, f := range files {
		raw, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
		docs = append(docs, ingest.Document{Path: filepath.ToSlash(f), Content: string(raw)})
	}
	return docs, nil
}
