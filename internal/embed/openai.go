package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI defaults
const (
	DefaultOpenAIModel = "text-embedding-3-small"

	// text-embedding-3-small dimension
	defaultOpenAIDimensions = 1536
)

// OpenAIConfig configures the OpenAI embedder.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string // optional, for API-compatible services
	Model       string
	TokenBudget int
}

// OpenAIEmbedder generates embeddings via the OpenAI embeddings API.
type OpenAIEmbedder struct {
	mu     sync.RWMutex
	config OpenAIConfig
	client *openai.Client
	dims   int
	closed bool
}

// Verify interface implementation at compile time
var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder creates an OpenAI-backed embedder. A missing API key is
// a configuration error, reported here rather than on first use.
func NewOpenAIEmbedder(config OpenAIConfig) (*OpenAIEmbedder, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, fmt.Errorf("openai embedder requires an API key")
	}
	if config.Model == "" {
		config.Model = DefaultOpenAIModel
	}

	cfg := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	}
	return &OpenAIEmbedder{
		config: config,
		client: openai.NewClientWithConfig(cfg),
	}, nil
}

// Embed generates an embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	vecs, err := e.doEmbed(ctx, []string{truncateToBudget(text, e.config.TokenBudget)})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("openai returned %d embeddings for 1 input", len(vecs))
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for multiple texts in sub-batches. A
// failed sub-batch yields nil vectors for its members; authentication
// failures abort the whole call since no later sub-batch can succeed.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))

	indices := make([]int, 0, len(texts))
	inputs := make([]string, 0, len(texts))
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		indices = append(indices, i)
		inputs = append(inputs, truncateToBudget(t, e.config.TokenBudget))
	}

	for start := 0; start < len(inputs); start += DefaultSubBatchSize {
		end := start + DefaultSubBatchSize
		if end > len(inputs) {
			end = len(inputs)
		}

		vecs, err := e.doEmbed(ctx, inputs[start:end])
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if isAuthError(err) {
				return nil, err
			}
			slog.Warn("openai_sub_batch_failed",
				slog.Int("start", start),
				slog.Int("size", end-start),
				slog.String("error", err.Error()))
			continue
		}
		for j, vec := range vecs {
			results[indices[start+j]] = vec
		}
	}
	return results, nil
}

func (e *OpenAIEmbedder) doEmbed(ctx context.Context, inputs []string) ([][]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.mu.RUnlock()

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: inputs,
		Model: openai.EmbeddingModel(e.config.Model),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings request failed: %w", err)
	}
	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(inputs))
	}

	// Data order follows the Index field, not response order.
	vecs := make([][]float32, len(inputs))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			return nil, fmt.Errorf("openai returned out of range index %d", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}

	if len(vecs) > 0 && len(vecs[0]) > 0 {
		e.mu.Lock()
		e.dims = len(vecs[0])
		e.mu.Unlock()
	}
	return vecs, nil
}

// isAuthError reports whether err is an API authentication failure.
func isAuthError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusUnauthorized ||
			apiErr.HTTPStatusCode == http.StatusForbidden
	}
	return false
}

// Dimensions returns the embedding dimension, the model default until the
// first response reports the real one.
func (e *OpenAIEmbedder) Dimensions() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.dims > 0 {
		return e.dims
	}
	return defaultOpenAIDimensions
}

// ModelName returns the model identifier.
func (e *OpenAIEmbedder) ModelName() string { return e.config.Model }

// ProviderName returns the provider identifier.
func (e *OpenAIEmbedder) ProviderName() string { return "openai" }

// Available reports whether the embedder is usable. The key was validated
// at construction, so only closure matters here.
func (e *OpenAIEmbedder) Available(_ context.Context) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.closed
}

// Close releases resources.
func (e *OpenAIEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
