package rerank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoOpReranker_PreservesOrderWithDecayingScores(t *testing.T) {
	r := NewNoOpReranker()
	defer r.Close()

	results, err := r.Rerank(context.Background(), "anything", []string{"a", "b", "c"}, 0)
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].Content)
	assert.Equal(t, 1.0, results[0].Score)
	assert.Equal(t, 0.99, results[1].Score)
	assert.Equal(t, 0.98, results[2].Score)
	for i, res := range results {
		assert.Equal(t, i, res.OriginalIndex)
	}
}

func TestNoOpReranker_TopNTruncates(t *testing.T) {
	r := NewNoOpReranker()

	results, err := r.Rerank(context.Background(), "q", []string{"a", "b", "c"}, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestNoOpReranker_EmptyInput(t *testing.T) {
	r := NewNoOpReranker()

	results, err := r.Rerank(context.Background(), "q", nil, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.True(t, r.Available(context.Background()))
}
