package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/docdex/docdex/internal/embed"
	"github.com/docdex/docdex/internal/rerank"
	"github.com/docdex/docdex/internal/store"
)

// Engine retrieves snippets from one indexed library, combining FTS5
// keyword search with vector similarity over stored embeddings.
type Engine struct {
	store    store.Store
	embedder embed.Embedder
	reranker rerank.Reranker
}

// ErrNilDependency is returned when a required dependency is nil.
var ErrNilDependency = errors.New("nil dependency")

// errNoQueryVector signals the semantic leg produced nothing to search
// with, so keyword retrieval should take over.
var errNoQueryVector = errors.New("no query vector")

// EngineOption configures the search engine.
type EngineOption func(*Engine)

// WithEmbedder enables semantic and hybrid retrieval. Without it those
// modes degrade to keyword search.
func WithEmbedder(e embed.Embedder) EngineOption {
	return func(eng *Engine) { eng.embedder = e }
}

// WithReranker enables result reranking when a search asks for it.
func WithReranker(r rerank.Reranker) EngineOption {
	return func(eng *Engine) { eng.reranker = r }
}

// NewEngine creates a search engine over the given store.
func NewEngine(st store.Store, opts ...EngineOption) (*Engine, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: store is required", ErrNilDependency)
	}
	e := &Engine{store: st}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Search retrieves snippets from one library version ranked by relevance
// to the query.
func (e *Engine) Search(ctx context.Context, libraryID, version, query string, opts Options) ([]Result, error) {
	start := time.Now()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	opts = applyDefaults(opts)

	// Reranking works over a wider candidate pool than the final limit.
	poolSize := opts.Limit
	if opts.UseReranking && e.reranker != nil {
		poolSize = rerankPoolSize
	}

	var candidates []*candidate
	var err error
	switch opts.Mode {
	case ModeKeyword:
		candidates, err = e.keywordCandidates(ctx, libraryID, version, query, poolSize)
	case ModeSemantic:
		candidates, err = e.semanticCandidates(ctx, libraryID, version, query, poolSize)
	case ModeHybrid:
		candidates, err = e.hybridCandidates(ctx, libraryID, version, query, opts.Limit, poolSize)
	default:
		return nil, fmt.Errorf("unknown search mode %q", opts.Mode)
	}
	if err != nil {
		return nil, err
	}

	results, err := e.enrichCandidates(ctx, candidates)
	if err != nil {
		return nil, err
	}

	if opts.UseReranking {
		results = e.rerankResults(ctx, query, results, opts.Limit)
	}
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}

	slog.Debug("search_completed",
		slog.String("library", libraryID),
		slog.String("mode", string(opts.Mode)),
		slog.Int("results", len(results)),
		slog.Duration("elapsed", time.Since(start)))

	return results, nil
}

func applyDefaults(opts Options) Options {
	if opts.Mode == "" {
		opts.Mode = ModeHybrid
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Limit > MaxLimit {
		opts.Limit = MaxLimit
	}
	return opts
}

// keywordCandidates runs the FTS5 leg on its own.
func (e *Engine) keywordCandidates(ctx context.Context, libraryID, version, query string, limit int) ([]*candidate, error) {
	hits, err := e.store.SearchKeyword(ctx, libraryID, version, query, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	candidates := make([]*candidate, len(hits))
	for i, h := range hits {
		candidates[i] = &candidate{
			snippetID:    h.SnippetID,
			score:        h.Score,
			keywordScore: h.Score,
		}
	}
	return candidates, nil
}

// semanticCandidates runs the vector leg on its own, falling back to
// keyword retrieval when no query vector can be produced.
func (e *Engine) semanticCandidates(ctx context.Context, libraryID, version, query string, limit int) ([]*candidate, error) {
	hits, err := e.semanticHits(ctx, libraryID, version, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Debug("semantic search unavailable, falling back to keyword",
			slog.String("error", err.Error()))
		return e.keywordCandidates(ctx, libraryID, version, query, limit)
	}

	if len(hits) > limit {
		hits = hits[:limit]
	}
	candidates := make([]*candidate, len(hits))
	for i, h := range hits {
		candidates[i] = &candidate{
			snippetID:     h.snippetID,
			score:         h.similarity,
			semanticScore: h.similarity,
		}
	}
	return candidates, nil
}

// hybridCandidates runs both legs in parallel and fuses them. A failed leg
// degrades the search to the surviving one; both failing is an error.
func (e *Engine) hybridCandidates(ctx context.Context, libraryID, version, query string, limit, poolSize int) ([]*candidate, error) {
	keywordLimit := limit * hybridKeywordFactor
	if keywordLimit < hybridKeywordFloor {
		keywordLimit = hybridKeywordFloor
	}

	var (
		keywordHits   []store.KeywordResult
		semanticRes   []semanticHit
		kwErr, semErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		keywordHits, kwErr = e.store.SearchKeyword(gctx, libraryID, version, query, keywordLimit)
		return nil
	})
	g.Go(func() error {
		semanticRes, semErr = e.semanticHits(gctx, libraryID, version, query)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if kwErr != nil && semErr != nil {
		return nil, errors.Join(kwErr, semErr)
	}
	if kwErr != nil {
		slog.Warn("keyword leg failed, continuing with semantic results",
			slog.String("error", kwErr.Error()))
		keywordHits = nil
	}
	if semErr != nil {
		slog.Debug("semantic leg unavailable, continuing with keyword results",
			slog.String("error", semErr.Error()))
		semanticRes = nil
	}

	fused := fuseResults(keywordHits, semanticRes)
	if len(fused) > poolSize {
		fused = fused[:poolSize]
	}
	return fused, nil
}

// semanticHits embeds the query and scores it against every embedded
// snippet of the library. Snippets with mismatched dimensions or
// non-positive similarity are dropped.
func (e *Engine) semanticHits(ctx context.Context, libraryID, version, query string) ([]semanticHit, error) {
	if e.embedder == nil {
		return nil, fmt.Errorf("%w: no embedder configured", errNoQueryVector)
	}

	qvec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(qvec) == 0 {
		return nil, errNoQueryVector
	}

	snippets, err := e.store.SnippetsWithEmbeddings(ctx, libraryID, version)
	if err != nil {
		return nil, fmt.Errorf("failed to load embeddings: %w", err)
	}

	hits := make([]semanticHit, 0, len(snippets))
	for _, sn := range snippets {
		sim := cosineSimilarity(qvec, sn.Embedding)
		if sim <= 0 {
			continue
		}
		hits = append(hits, semanticHit{snippetID: sn.ID, similarity: sim})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].similarity != hits[j].similarity {
			return hits[i].similarity > hits[j].similarity
		}
		return hits[i].snippetID < hits[j].snippetID
	})
	return hits, nil
}

// enrichCandidates fetches full snippet rows in one batch, preserving
// candidate order.
func (e *Engine) enrichCandidates(ctx context.Context, candidates []*candidate) ([]Result, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(candidates))
	for i, c := range candidates {
		ids[i] = c.snippetID
	}
	snippets, err := e.store.GetSnippets(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]store.Snippet, len(snippets))
	for _, sn := range snippets {
		byID[sn.ID] = sn
	}

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		sn, ok := byID[c.snippetID]
		if !ok {
			continue
		}
		results = append(results, Result{
			Snippet:       sn,
			Score:         c.score,
			KeywordScore:  c.keywordScore,
			SemanticScore: c.semanticScore,
			InBoth:        c.inBoth,
		})
	}
	return results, nil
}

// rerankResults reorders the candidate pool with the configured reranker.
// Any reranking failure keeps the pre-rerank order.
func (e *Engine) rerankResults(ctx context.Context, query string, results []Result, limit int) []Result {
	if e.reranker == nil || len(results) < 2 {
		return results
	}

	documents := make([]string, len(results))
	for i, r := range results {
		documents[i] = r.Snippet.Content
	}

	reranked, err := e.reranker.Rerank(ctx, query, documents, limit)
	if err != nil {
		slog.Warn("reranking failed, using original order",
			slog.String("error", err.Error()))
		return results
	}

	reordered := make([]Result, 0, len(reranked))
	for _, rr := range reranked {
		if rr.OriginalIndex < 0 || rr.OriginalIndex >= len(results) {
			slog.Warn("invalid reranker index, skipping",
				slog.Int("index", rr.OriginalIndex),
				slog.Int("pool", len(results)))
			continue
		}
		r := results[rr.OriginalIndex]
		r.Score = rr.Score
		reordered = append(reordered, r)
	}
	if len(reordered) == 0 {
		return results
	}
	return reordered
}
