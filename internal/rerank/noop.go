package rerank

import "context"

// NoOpReranker preserves input order with gently decaying scores. Used when
// reranking is disabled so the calling code keeps one shape.
type NoOpReranker struct{}

// Verify interface implementation at compile time
var _ Reranker = (*NoOpReranker)(nil)

// NewNoOpReranker creates a pass-through reranker.
func NewNoOpReranker() *NoOpReranker {
	return &NoOpReranker{}
}

// Rerank returns documents in their original order, scored 1.0, 0.99, 0.98
// and so on, truncated to topN.
func (r *NoOpReranker) Rerank(_ context.Context, _ string, documents []string, topN int) ([]Result, error) {
	n := len(documents)
	if topN > 0 && topN < n {
		n = topN
	}
	results := make([]Result, n)
	for i := 0; i < n; i++ {
		results[i] = Result{
			Content:       documents[i],
			Score:         1.0 - float64(i)*0.01,
			OriginalIndex: i,
		}
	}
	return results, nil
}

// Available always reports ready.
func (r *NoOpReranker) Available(_ context.Context) bool { return true }

// Close releases nothing.
func (r *NoOpReranker) Close() error { return nil }
