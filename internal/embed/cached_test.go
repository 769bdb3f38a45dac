package embed

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder wraps HashEmbedder and counts inner calls.
type countingEmbedder struct {
	*HashEmbedder
	embedCalls int32
	batchCalls int32
	batchTexts int32
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	atomic.AddInt32(&c.embedCalls, 1)
	return c.HashEmbedder.Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	atomic.AddInt32(&c.batchCalls, 1)
	atomic.AddInt32(&c.batchTexts, int32(len(texts)))
	return c.HashEmbedder.EmbedBatch(ctx, texts)
}

func TestCachedEmbedder_SecondEmbedHitsCache(t *testing.T) {
	inner := &countingEmbedder{HashEmbedder: NewHashEmbedder()}
	c := NewCachedEmbedder(inner, 10)
	defer c.Close()

	a, err := c.Embed(context.Background(), "query text")
	require.NoError(t, err)
	b, err := c.Embed(context.Background(), "query text")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, int32(1), inner.embedCalls)
}

func TestCachedEmbedder_BlankInputNotCached(t *testing.T) {
	inner := &countingEmbedder{HashEmbedder: NewHashEmbedder()}
	c := NewCachedEmbedder(inner, 10)
	defer c.Close()

	for i := 0; i < 2; i++ {
		vec, err := c.Embed(context.Background(), "   ")
		require.NoError(t, err)
		assert.Nil(t, vec)
	}
	assert.Equal(t, int32(2), inner.embedCalls)
}

func TestCachedEmbedder_BatchOnlySendsMisses(t *testing.T) {
	inner := &countingEmbedder{HashEmbedder: NewHashEmbedder()}
	c := NewCachedEmbedder(inner, 10)
	defer c.Close()

	_, err := c.Embed(context.Background(), "cached already")
	require.NoError(t, err)

	vecs, err := c.EmbedBatch(context.Background(), []string{"cached already", "new text"})
	require.NoError(t, err)

	require.Len(t, vecs, 2)
	assert.NotNil(t, vecs[0])
	assert.NotNil(t, vecs[1])
	assert.Equal(t, int32(1), inner.batchCalls)
	assert.Equal(t, int32(1), inner.batchTexts)
}

func TestCachedEmbedder_AllHitsSkipInner(t *testing.T) {
	inner := &countingEmbedder{HashEmbedder: NewHashEmbedder()}
	c := NewCachedEmbedder(inner, 10)
	defer c.Close()

	_, err := c.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	_, err = c.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, int32(1), inner.batchCalls)
}

func TestCachedEmbedder_Passthrough(t *testing.T) {
	c := NewCachedEmbedder(NewHashEmbedder(), 0)
	defer c.Close()

	assert.Equal(t, HashDimensions, c.Dimensions())
	assert.Equal(t, "hash-v1", c.ModelName())
	assert.Equal(t, "hash", c.ProviderName())
	assert.True(t, c.Available(context.Background()))
	assert.IsType(t, &HashEmbedder{}, c.Inner())
}

func TestNew_FactoryWrapsWithCache(t *testing.T) {
	e, err := New(Config{Provider: ProviderHash})
	require.NoError(t, err)
	defer e.Close()

	_, ok := e.(*CachedEmbedder)
	assert.True(t, ok)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "quantum"})
	assert.Error(t, err)
}

func TestNew_OpenAIRequiresKey(t *testing.T) {
	_, err := New(Config{Provider: ProviderOpenAI})
	assert.Error(t, err)
}
