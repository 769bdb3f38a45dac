// Package embed generates vector embeddings for documentation snippets and
// queries, with deterministic offline and remote provider backends.
package embed

import (
	"context"
	"math"
	"time"
)

// Common embedding constants
const (
	// DefaultBatchSize is the batch size vectorization feeds EmbedBatch with
	DefaultBatchSize = 32

	// DefaultSubBatchSize bounds one remote API request
	DefaultSubBatchSize = 100

	// DefaultTokenBudget is the per-input token budget; longer inputs are
	// truncated before embedding
	DefaultTokenBudget = 2048

	// DefaultTimeout is the timeout for a single embedding request
	DefaultTimeout = 60 * time.Second
)

// Embedder generates vector embeddings for text
type Embedder interface {
	// Embed generates an embedding for a single text. Blank input yields a
	// nil vector and no error.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts. The result has
	// the same length and order as the input. Blank inputs and members of
	// failed sub-batches come back nil.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension
	Dimensions() int

	// ModelName returns the model identifier
	ModelName() string

	// ProviderName returns the provider identifier
	ProviderName() string

	// Available checks if the embedder is ready
	Available(ctx context.Context) bool

	// Close releases resources
	Close() error
}

// truncateToBudget cuts text to roughly tokenBudget tokens, at four
// characters per token.
func truncateToBudget(text string, tokenBudget int) string {
	if tokenBudget <= 0 {
		tokenBudget = DefaultTokenBudget
	}
	limit := tokenBudget * 4
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}

// normalizeVector normalizes a vector to unit length.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
