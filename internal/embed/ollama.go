package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Ollama defaults
const (
	DefaultOllamaHost  = "http://localhost:11434"
	DefaultOllamaModel = "nomic-embed-text"

	// nomic-embed-text dimension, used until the first response reports
	// the real one
	defaultOllamaDimensions = 768
)

// OllamaConfig configures the Ollama embedder.
type OllamaConfig struct {
	Host        string
	Model       string
	TokenBudget int
	Timeout     time.Duration
}

// OllamaEmbedder generates embeddings via a local Ollama server.
type OllamaEmbedder struct {
	mu     sync.RWMutex
	config OllamaConfig
	client *http.Client
	dims   int
	closed bool
}

// Verify interface implementation at compile time
var _ Embedder = (*OllamaEmbedder)(nil)

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewOllamaEmbedder creates an Ollama-backed embedder. No network calls are
// made until the first embed.
func NewOllamaEmbedder(config OllamaConfig) *OllamaEmbedder {
	if config.Host == "" {
		config.Host = DefaultOllamaHost
	}
	config.Host = strings.TrimSuffix(config.Host, "/")
	if config.Model == "" {
		config.Model = DefaultOllamaModel
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &OllamaEmbedder{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

// Embed generates an embedding for a single text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	vecs, err := e.doEmbed(ctx, []string{truncateToBudget(text, e.config.TokenBudget)})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("ollama returned %d embeddings for 1 input", len(vecs))
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for multiple texts, splitting the request
// into sub-batches. A failed sub-batch yields nil vectors for its members
// rather than failing the whole call; context cancellation still aborts.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))

	// Collect non-blank inputs, remembering their positions.
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
			slog.Warn("ollama_sub_batch_failed",
				slog.Int("start", start),
				slog.Int("size", end-start),
				slog.String("error", err.Error()))
			continue
		}
		if len(vecs) != end-start {
			slog.Warn("ollama_sub_batch_short",
				slog.Int("want", end-start),
				slog.Int("got", len(vecs)))
			continue
		}
		for j, vec := range vecs {
			results[indices[start+j]] = vec
		}
	}
	return results, nil
}

// doEmbed posts one batch to the Ollama embed endpoint.
func (e *OllamaEmbedder) doEmbed(ctx context.Context, inputs []string) ([][]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.mu.RUnlock()

	body, err := json.Marshal(ollamaEmbedRequest{Model: e.config.Model, Input: inputs})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.config.Host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ollama returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(parsed.Embeddings) > 0 && len(parsed.Embeddings[0]) > 0 {
		e.mu.Lock()
		e.dims = len(parsed.Embeddings[0])
		e.mu.Unlock()
	}
	return parsed.Embeddings, nil
}

// Dimensions returns the embedding dimension, the model default until the
// first response reports the real one.
func (e *OllamaEmbedder) Dimensions() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.dims > 0 {
		return e.dims
	}
	return defaultOllamaDimensions
}

// ModelName returns the model identifier.
func (e *OllamaEmbedder) ModelName() string { return e.config.Model }

// ProviderName returns the provider identifier.
func (e *OllamaEmbedder) ProviderName() string { return "ollama" }

// Available checks whether the Ollama server responds.
func (e *OllamaEmbedder) Available(ctx context.Context) bool {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return false
	}
	e.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.config.Host+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Close releases resources.
func (e *OllamaEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
