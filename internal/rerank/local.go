package rerank

import (
	"context"
	"math"
	"runtime"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"
)

// LocalReranker scores documents by term overlap with the query. Cheap and
// offline, a useful middle ground between no reranking and a remote API.
type LocalReranker struct{}

// Verify interface implementation at compile time
var _ Reranker = (*LocalReranker)(nil)

// NewLocalReranker creates an offline term-overlap reranker.
func NewLocalReranker() *LocalReranker {
	return &LocalReranker{}
}

// Rerank scores each document concurrently. Each pair is scored
// independently, so document order cannot influence scores.
func (r *LocalReranker) Rerank(ctx context.Context, query string, documents []string, topN int) ([]Result, error) {
	if len(documents) == 0 {
		return []Result{}, nil
	}

	queryTerms := termSet(query)
	results := make([]Result, len(documents))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, doc := range documents {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = Result{
				Content:       doc,
				Score:         overlapScore(queryTerms, doc),
				OriginalIndex: i,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(a, b int) bool {
		if results[a].Score != results[b].Score {
			return results[a].Score > results[b].Score
		}
		return results[a].OriginalIndex < results[b].OriginalIndex
	})

	if topN > 0 && topN < len(results) {
		results = results[:topN]
	}
	return results, nil
}

// overlapScore is the fraction of query terms present in the document,
// dampened by document length so terse matches rank above padded ones.
func overlapScore(queryTerms map[string]struct{}, doc string) float64 {
	if len(queryTerms) == 0 {
		return 0
	}
	docTerms := termSet(doc)
	matched := 0
	for t := range queryTerms {
		if _, ok := docTerms[t]; ok {
			matched++
		}
	}
	if matched == 0 {
		return 0
	}
	overlap := float64(matched) / float64(len(queryTerms))
	return overlap / math.Log2(float64(len(docTerms))+2)
}

func termSet(text string) map[string]struct{} {
	terms := map[string]struct{}{}
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		terms[w] = struct{}{}
	}
	return terms
}

// Available always reports ready.
func (r *LocalReranker) Available(_ context.Context) bool { return true }

// Close releases nothing.
func (r *LocalReranker) Close() error { return nil }
