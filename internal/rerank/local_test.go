package rerank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalReranker_RanksOverlappingDocumentFirst(t *testing.T) {
	r := NewLocalReranker()
	defer r.Close()

	docs := []string{
		"Configuring database connection pools and timeouts.",
		"The useState hook returns a stateful value.",
		"Styling components with CSS modules.",
	}

	results, err := r.Rerank(context.Background(), "useState hook", docs, 0)
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, 1, results[0].OriginalIndex)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestLocalReranker_TieBreaksByOriginalIndex(t *testing.T) {
	r := NewLocalReranker()

	docs := []string{"nothing relevant here", "also nothing relevant"}
	results, err := r.Rerank(context.Background(), "unmatched query terms", docs, 0)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, 0, results[0].OriginalIndex)
	assert.Equal(t, 1, results[1].OriginalIndex)
}

func TestLocalReranker_ShorterDocWinsOnEqualOverlap(t *testing.T) {
	r := NewLocalReranker()

	docs := []string{
		"routing guide overview with many additional unrelated words padding the text out considerably",
		"routing guide",
	}
	results, err := r.Rerank(context.Background(), "routing guide", docs, 0)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].OriginalIndex)
}

func TestLocalReranker_TopNTruncates(t *testing.T) {
	r := NewLocalReranker()

	results, err := r.Rerank(context.Background(), "q", []string{"a", "b", "c"}, 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestLocalReranker_EmptyDocuments(t *testing.T) {
	r := NewLocalReranker()

	results, err := r.Rerank(context.Background(), "q", nil, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
