package rerank

import "fmt"

// Provider names accepted by New.
const (
	ProviderNoop   = "noop"
	ProviderLocal  = "local"
	ProviderCohere = "cohere"
	ProviderJina   = "jina"
)

// Config selects and configures a reranking provider.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	Endpoint string
}

// New builds the configured reranker. Remote providers without an API key
// fail here, never on first use.
func New(cfg Config) (Reranker, error) {
	switch cfg.Provider {
	case "", ProviderNoop:
		return NewNoOpReranker(), nil
	case ProviderLocal:
		return NewLocalReranker(), nil
	case ProviderCohere:
		return NewCohereReranker(cfg.APIKey, cfg.Model, cfg.Endpoint)
	case ProviderJina:
		return NewJinaReranker(cfg.APIKey, cfg.Model, cfg.Endpoint)
	default:
		return nil, fmt.Errorf("unknown reranking provider %q", cfg.Provider)
	}
}
