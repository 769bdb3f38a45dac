package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/docdex/docdex/internal/chunk"
	"github.com/docdex/docdex/internal/embed"
	"github.com/docdex/docdex/internal/segment"
	"github.com/docdex/docdex/internal/store"
)

// Document is one source file to ingest.
type Document struct {
	// Path names the file, used for dialect detection and title fallback.
	Path string

	// Content is the raw Markdown or reStructuredText.
	Content string

	// SourceURL optionally links back to the published document.
	SourceURL string
}

// Service drives ingestion and vectorization against one index database.
type Service struct {
	store    store.Store
	embedder embed.Embedder
	dbPath   string
}

// NewService creates an ingestion service. dbPath locates the database for
// the cross-process writer lock; empty skips locking (in-memory stores).
func NewService(st store.Store, embedder embed.Embedder, dbPath string) *Service {
	return &Service{store: st, embedder: embedder, dbPath: dbPath}
}

// Ingest replaces the snippet set of one library version with the chunked
// contents of docs. Returns the number of snippets written. Re-running with
// the same inputs produces the same snippet set.
func (s *Service) Ingest(ctx context.Context, lib store.Library, docs []Document) (int, error) {
	id, idVersion, err := ParseLibraryID(lib.ID)
	if err != nil {
		return 0, err
	}
	lib.ID = id
	if idVersion != "" {
		lib.Version = idVersion
	}
	if lib.Version == "" {
		lib.Version = DefaultVersion
	}

	unlock, err := s.lockWriter(ctx)
	if err != nil {
		return 0, err
	}
	defer unlock()

	start := time.Now()
	var snippets []store.Snippet
	for _, doc := range docs {
		snippets = append(snippets, buildSnippets(doc)...)
	}

	if lib.IngestedAt.IsZero() {
		lib.IngestedAt = time.Now().UTC()
	}
	if err := s.store.ReplaceLibrary(ctx, lib, snippets); err != nil {
		return 0, fmt.Errorf("failed to store library %s@%s: %w", lib.ID, lib.Version, err)
	}

	slog.Info("library_ingested",
		slog.String("library", lib.ID),
		slog.String("version", lib.Version),
		slog.Int("documents", len(docs)),
		slog.Int("snippets", len(snippets)),
		slog.Duration("elapsed", time.Since(start)))

	return len(snippets), nil
}

// Remove deletes a library version, or every version when version is empty.
func (s *Service) Remove(ctx context.Context, libraryID, version string) error {
	id, idVersion, err := ParseLibraryID(libraryID)
	if err != nil {
		return err
	}
	if idVersion != "" {
		version = idVersion
	}

	unlock, err := s.lockWriter(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	return s.store.DeleteLibrary(ctx, id, version)
}

func (s *Service) lockWriter(ctx context.Context) (func(), error) {
	if s.dbPath == "" {
		return func() {}, nil
	}
	lock := newWriterLock(s.dbPath)
	if err := lock.acquire(ctx); err != nil {
		return nil, err
	}
	return func() {
		if err := lock.release(); err != nil {
			slog.Warn("failed to release writer lock", slog.String("error", err.Error()))
		}
	}, nil
}

// buildSnippets segments and chunks one document.
func buildSnippets(doc Document) []store.Snippet {
	docTitle := titleFromPath(doc.Path)
	sections := segment.Segment(doc.Path, doc.Content)
	chunks := chunk.Build(sections, chunk.Options{DocTitle: docTitle})

	snippets := make([]store.Snippet, 0, len(chunks))
	for _, c := range chunks {
		title := c.Title
		if title == "" {
			title = docTitle
		}
		snippets = append(snippets, store.Snippet{
			Title:      title,
			Content:    renderContent(c),
			SourcePath: doc.Path,
			SourceURL:  doc.SourceURL,
			Language:   c.Language,
			Breadcrumb: c.Breadcrumb,
			TokenCount: c.TokenCount,
		})
	}
	return snippets
}

// renderContent joins a chunk's prose with its code blocks as fenced
// Markdown, the form snippets are served in.
func renderContent(c chunk.Chunk) string {
	parts := make([]string, 0, 1+len(c.CodeBlocks))
	if c.Content != "" {
		parts = append(parts, c.Content)
	}
	for _, cb := range c.CodeBlocks {
		parts = append(parts, "```"+cb.Language+"\n"+cb.Value+"\n```")
	}
	return strings.Join(parts, "\n\n")
}

// titleFromPath derives a document title from its base filename.
func titleFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		return "Documentation"
	}
	return base
}
