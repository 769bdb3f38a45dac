package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultEmbeddingCacheSize is the default number of embeddings to cache.
const DefaultEmbeddingCacheSize = 1000

// CachedEmbedder wraps an Embedder with LRU caching so repeated queries do
// not recompute their vectors.
type CachedEmbedder struct {
	inner Embedder
	cache *lru.Cache[string, []float32]
}

// Verify interface implementation at compile time
var _ Embedder = (*CachedEmbedder)(nil)

// NewCachedEmbedder creates a cached embedder wrapping the given embedder.
func NewCachedEmbedder(inner Embedder, cacheSize int) *CachedEmbedder {
	if cacheSize <= 0 {
		cacheSize = DefaultEmbeddingCacheSize
	}
	cache, _ := lru.New[string, []float32](cacheSize)
	return &CachedEmbedder{inner: inner, cache: cache}
}

// cacheKey hashes text and model into a fixed-length key.
func (c *CachedEmbedder) cacheKey(text string) string {
	combined := text + "\x00" + c.inner.ModelName()
	hash := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(hash[:])
}

// Embed returns a cached embedding if available, otherwise computes and
// caches. Nil vectors for blank input are not cached.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.cacheKey(text)
	if vec, ok := c.cache.Get(key); ok {
		return vec, nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if vec != nil {
		c.cache.Add(key, vec)
	}
	return vec, nil
}

// EmbedBatch checks the cache per text, batching only the misses.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	uncachedIndices := make([]int, 0, len(texts))
	uncachedTexts := make([]string, 0, len(texts))

	for i, text := range texts {
		if vec, ok := c.cache.Get(c.cacheKey(text)); ok {
			results[i] = vec
		} else {
			uncachedIndices = append(uncachedIndices, i)
			uncachedTexts = append(uncachedTexts, text)
		}
	}

	if len(uncachedTexts) == 0 {
		return results, nil
	}

	newEmbeddings, err := c.inner.EmbedBatch(ctx, uncachedTexts)
	if err != nil {
		return nil, err
	}

	for j, idx := range uncachedIndices {
		results[idx] = newEmbeddings[j]
		if newEmbeddings[j] != nil {
			c.cache.Add(c.cacheKey(texts[idx]), newEmbeddings[j])
		}
	}
	return results, nil
}

// Dimensions returns the embedding dimension (passthrough to inner).
func (c *CachedEmbedder) Dimensions() int { return c.inner.Dimensions() }

// ModelName returns the model identifier (passthrough to inner).
func (c *CachedEmbedder) ModelName() string { return c.inner.ModelName() }

// ProviderName returns the provider identifier (passthrough to inner).
func (c *CachedEmbedder) ProviderName() string { return c.inner.ProviderName() }

// Available checks if the embedder is ready (passthrough to inner).
func (c *CachedEmbedder) Available(ctx context.Context) bool {
	return c.inner.Available(ctx)
}

// Close releases resources and closes the inner embedder.
func (c *CachedEmbedder) Close() error { return c.inner.Close() }

// Inner returns the underlying embedder.
func (c *CachedEmbedder) Inner() Embedder { return c.inner }
