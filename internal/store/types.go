// Package store persists indexed libraries and their documentation snippets
// in SQLite, with an FTS5 shadow table for keyword search.
package store

import (
	"context"
	"time"
)

// Library is one indexed (id, version) documentation set.
type Library struct {
	ID             string    // canonical form "/org/project"
	Version        string    // "latest" when unspecified
	Title          string
	Description    string
	SourceRepo     string
	TotalSnippets  int
	TrustScore     float64
	BenchmarkScore float64
	IngestedAt     time.Time
}

// Snippet is one indexed chunk of documentation.
type Snippet struct {
	ID             int64
	LibraryID      string
	LibraryVersion string
	Title          string
	Content        string
	SourcePath     string
	SourceURL      string
	Language       string
	Breadcrumb     string
	TokenCount     int

	// Embedding is nil until the snippet has been vectorized.
	Embedding []float32
}

// KeywordResult is one FTS5 hit, score already negated so higher is better.
type KeywordResult struct {
	SnippetID int64
	Score     float64
}

// Store is the persistence surface the retrieval and ingestion layers use.
type Store interface {
	// ReplaceLibrary atomically swaps a library's snippet set. The previous
	// generation, if any, is removed in the same transaction.
	ReplaceLibrary(ctx context.Context, lib Library, snippets []Snippet) error

	// DeleteLibrary removes a library and its snippets. An empty version
	// removes every version of the id.
	DeleteLibrary(ctx context.Context, id, version string) error

	// SearchKeyword runs an FTS5 match scoped to one library version.
	// Queries FTS5 cannot parse yield no results rather than an error.
	SearchKeyword(ctx context.Context, id, version, query string, limit int) ([]KeywordResult, error)

	// GetSnippets fetches snippets by id. Missing ids are skipped.
	GetSnippets(ctx context.Context, ids []int64) ([]Snippet, error)

	// SnippetsWithEmbeddings returns the vectorized snippets of a library,
	// embeddings decoded.
	SnippetsWithEmbeddings(ctx context.Context, id, version string) ([]Snippet, error)

	// SnippetsWithoutEmbeddings returns snippets not yet vectorized.
	SnippetsWithoutEmbeddings(ctx context.Context, id, version string) ([]Snippet, error)

	// UpdateEmbeddings writes embedding vectors for the given snippet ids.
	UpdateEmbeddings(ctx context.Context, embeddings map[int64][]float32) error

	// EmbeddingDims reports the distinct embedding dimensions present in a
	// library, empty when nothing is vectorized.
	EmbeddingDims(ctx context.Context, id, version string) ([]int, error)

	// FindLibraries matches libraries by id or title substring.
	FindLibraries(ctx context.Context, query string) ([]Library, error)

	// ListLibraries returns every indexed library version.
	ListLibraries(ctx context.Context) ([]Library, error)

	// GetLibrary fetches one library. An empty version selects the most
	// recently ingested one.
	GetLibrary(ctx context.Context, id, version string) (*Library, error)

	// CountSnippets counts snippets scoped to a library version.
	CountSnippets(ctx context.Context, id, version string) (int, error)

	Close() error
}
