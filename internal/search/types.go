// Package search retrieves documentation snippets by keyword match, vector
// similarity, or a weighted fusion of both.
package search

import "github.com/docdex/docdex/internal/store"

// Mode selects the retrieval strategy.
type Mode string

const (
	ModeKeyword  Mode = "keyword"
	ModeSemantic Mode = "semantic"
	ModeHybrid   Mode = "hybrid"
)

// Retrieval limits and candidate pool sizes.
const (
	// DefaultLimit is the result count when the caller does not specify one.
	DefaultLimit = 10

	// MaxLimit caps the result count.
	MaxLimit = 100

	// rerankPoolSize is how many candidates feed the reranker. Wider than
	// the final limit so reranking can promote buried hits.
	rerankPoolSize = 100

	// hybridKeywordFactor and hybridKeywordFloor size the keyword leg of a
	// hybrid search relative to the requested limit.
	hybridKeywordFactor = 5
	hybridKeywordFloor  = 100
)

// Fusion weights for hybrid scoring. Keyword matches anchor relevance,
// semantic similarity carries most of the ranking signal.
const (
	keywordWeight  = 0.3
	semanticWeight = 0.7
)

// Options configures one search call.
type Options struct {
	// Mode selects the strategy. Empty means ModeHybrid.
	Mode Mode

	// Limit bounds the result count. Zero means DefaultLimit.
	Limit int

	// UseReranking reorders candidates with the engine's reranker.
	UseReranking bool
}

// Result is one scored snippet.
type Result struct {
	Snippet store.Snippet

	// Score is the final ranking score. Its scale depends on the mode:
	// raw bm25 for keyword, cosine similarity for semantic, fused 0..1 for
	// hybrid, reranker relevance when reranking ran.
	Score float64

	// KeywordScore and SemanticScore are the leg scores before fusion,
	// zero when the snippet missed that leg.
	KeywordScore  float64
	SemanticScore float64

	// InBoth marks snippets found by both hybrid legs.
	InBoth bool
}
