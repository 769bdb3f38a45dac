// Package rerank reorders retrieval candidates by query relevance, locally
// or through a remote reranking API.
package rerank

import (
	"context"
	"errors"
)

// Result is one reranked document.
type Result struct {
	// Content is the document text as submitted.
	Content string

	// Score is the relevance score, higher is better.
	Score float64

	// OriginalIndex is the document's position in the input slice.
	OriginalIndex int
}

// Reranker reorders documents by relevance to a query.
type Reranker interface {
	// Rerank scores documents against the query and returns them in
	// descending score order, truncated to topN (0 means all). Empty input
	// yields an empty result without any remote call.
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]Result, error)

	// Available checks if the reranker is ready
	Available(ctx context.Context) bool

	// Close releases resources
	Close() error
}

// Terminal errors for remote rerankers. Retryable conditions surface these
// only after the attempt budget is exhausted.
var (
	ErrRateLimited = errors.New("reranker rate limited")
	ErrServerError = errors.New("reranker server error")
	ErrNetwork     = errors.New("reranker unreachable")
	ErrAuthFailed  = errors.New("reranker authentication failed")
)
