package rerank

import (
	"context"
	"fmt"
	"strings"
)

// Cohere defaults
const (
	DefaultCohereEndpoint = "https://api.cohere.com/v2/rerank"
	DefaultCohereModel    = "rerank-v3.5"
)

// CohereReranker reranks through the Cohere rerank API.
type CohereReranker struct {
	client *apiClient
}

// Verify interface implementation at compile time
var _ Reranker = (*CohereReranker)(nil)

// NewCohereReranker creates a Cohere-backed reranker. A missing API key is
// a configuration error.
func NewCohereReranker(apiKey, model, endpoint string) (*CohereReranker, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("cohere reranker requires an API key")
	}
	if model == "" {
		model = DefaultCohereModel
	}
	if endpoint == "" {
		endpoint = DefaultCohereEndpoint
	}
	return &CohereReranker{client: newAPIClient(endpoint, apiKey, model)}, nil
}

// Rerank scores documents against the query in one batched request.
func (r *CohereReranker) Rerank(ctx context.Context, query string, documents []string, topN int) ([]Result, error) {
	return r.client.rerank(ctx, query, documents, topN)
}

// Available reports ready; the key was validated at construction.
func (r *CohereReranker) Available(_ context.Context) bool { return true }

// Close releases nothing.
func (r *CohereReranker) Close() error { return nil }
