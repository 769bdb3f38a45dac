package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/docdex/docdex/internal/backoff"
)

// apiClient posts rerank requests to Cohere-shaped HTTP APIs. Cohere and
// Jina share the request and response schema, only endpoint, model, and
// credentials differ.
type apiClient struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
	retry      backoff.Config
}

type apiRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n,omitempty"`
}

type apiResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

type apiErrorBody struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func newAPIClient(endpoint, apiKey, model string) *apiClient {
	return &apiClient{
		endpoint:   endpoint,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      backoff.DefaultConfig,
	}
}

// rerank sends one batched request, retrying rate limits, server errors,
// and transport failures on the shared backoff schedule. Authentication
// failures and other client errors are returned immediately.
func (c *apiClient) rerank(ctx context.Context, query string, documents []string, topN int) ([]Result, error) {
	if len(documents) == 0 {
		return []Result{}, nil
	}

	body, err := json.Marshal(apiRequest{
		Model:     c.model,
		Query:     query,
		Documents: documents,
		TopN:      topN,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rerank request: %w", err)
	}

	var parsed apiResponse
	err = backoff.Retry(ctx, c.retry, func() error {
		return c.attempt(ctx, body, &parsed)
	})
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.Index < 0 || r.Index >= len(documents) {
			return nil, fmt.Errorf("reranker returned out of range index %d", r.Index)
		}
		results = append(results, Result{
			Content:       documents[r.Index],
			Score:         r.RelevanceScore,
			OriginalIndex: r.Index,
		})
	}
	if topN > 0 && topN < len(results) {
		results = results[:topN]
	}
	return results, nil
}

// attempt runs one HTTP exchange and classifies the outcome: a plain error
// is retryable, a permanent error stops the schedule.
func (c *apiClient) attempt(ctx context.Context, body []byte, out *apiResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode rerank response: %w", err))
		}
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, readAPIError(resp.Body))
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrServerError, resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return backoff.Permanent(fmt.Errorf("%w: %s", ErrAuthFailed, readAPIError(resp.Body)))
	default:
		return backoff.Permanent(fmt.Errorf("reranker rejected request with status %d: %s",
			resp.StatusCode, readAPIError(resp.Body)))
	}
}

// readAPIError extracts the provider's error message from a response body.
func readAPIError(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 2048))
	if err != nil || len(data) == 0 {
		return "no error detail"
	}
	var parsed apiErrorBody
	if json.Unmarshal(data, &parsed) == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Detail != "" {
			return parsed.Detail
		}
	}
	return strings.TrimSpace(string(data))
}
