package embed

import (
	"fmt"
	"log/slog"
)

// Provider names accepted by New.
const (
	ProviderHash   = "hash"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Config selects and configures an embedding provider.
type Config struct {
	Provider    string
	Model       string
	Host        string // ollama server address
	BaseURL     string // openai-compatible endpoint override
	APIKey      string
	TokenBudget int
	CacheSize   int
}

// New builds the configured embedder, wrapped with an LRU cache.
// Configuration problems like a missing API key fail here, never on first use.
func New(cfg Config) (Embedder, error) {
	var inner Embedder

	switch cfg.Provider {
	case "", ProviderHash:
		inner = NewHashEmbedder()
	case ProviderOllama:
		inner = NewOllamaEmbedder(OllamaConfig{
			Host:        cfg.Host,
			Model:       cfg.Model,
			TokenBudget: cfg.TokenBudget,
		})
	case ProviderOpenAI:
		var err error
		inner, err = NewOpenAIEmbedder(OpenAIConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			TokenBudget: cfg.TokenBudget,
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	slog.Debug("embedder_created",
		slog.String("provider", inner.ProviderName()),
		slog.String("model", inner.ModelName()),
		slog.Int("dimensions", inner.Dimensions()))

	return NewCachedEmbedder(inner, cfg.CacheSize), nil
}
