package rerank

import (
	"context"
	"fmt"
	"strings"
)

// Jina defaults
const (
	DefaultJinaEndpoint = "https://api.jina.ai/v1/rerank"
	DefaultJinaModel    = "jina-reranker-v2-base-multilingual"
)

// JinaReranker reranks through the Jina rerank API. The wire contract
// matches Cohere's, so it shares the same client.
type JinaReranker struct {
	client *apiClient
}

// Verify interface implementation at compile time
var _ Reranker = (*JinaReranker)(nil)

// NewJinaReranker creates a Jina-backed reranker. A missing API key is a
// configuration error.
func NewJinaReranker(apiKey, model, endpoint string) (*JinaReranker, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("jina reranker requires an API key")
	}
	if model == "" {
		model = DefaultJinaModel
	}
	if endpoint == "" {
		endpoint = DefaultJinaEndpoint
	}
	return &JinaReranker{client: newAPIClient(endpoint, apiKey, model)}, nil
}

// Rerank scores documents against the query in one batched request.
func (r *JinaReranker) Rerank(ctx context.Context, query string, documents []string, topN int) ([]Result, error) {
	return r.client.rerank(ctx, query, documents, topN)
}

// Available reports ready; the key was validated at construction.
func (r *JinaReranker) Available(_ context.Context) bool { return true }

// Close releases nothing.
func (r *JinaReranker) Close() error { return nil }
