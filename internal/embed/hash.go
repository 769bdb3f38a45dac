package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
	"sync"
	"unicode"
)

// HashDimensions is the embedding dimension for the hash embedder.
const HashDimensions = 384

// HashEmbedder generates embeddings using a hash-based approach.
// Works without external dependencies (no network, no model download).
// Deterministic and fast, with reduced semantic quality.
type HashEmbedder struct {
	mu     sync.RWMutex
	closed bool
}

// Verify interface implementation at compile time
var _ Embedder = (*HashEmbedder)(nil)

// programmingStopWords contains common programming language keywords to filter out.
var programmingStopWords = map[string]bool{
	"func": true, "function": true, "def": true, "class": true,
	"return": true, "import": true, "const": true, "var": true,
	"let": true, "int": true, "string": true, "bool": true,
	"void": true, "true": true, "false": true, "nil": true,
	"null": true, "this": true, "self": true, "new": true,
}

// Weights for vector generation
const (
	tokenWeight = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

// tokenRegex matches alphanumeric sequences
var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

// NewHashEmbedder creates a new hash embedder.
func NewHashEmbedder() *HashEmbedder {
	return &HashEmbedder{}
}

// Embed generates an embedding for a single text.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.mu.RUnlock()

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}

	vector := e.generateVector(truncateToBudget(trimmed, DefaultTokenBudget))
	return normalizeVector(vector), nil
}

// generateVector creates a hash-based vector from text.
func (e *HashEmbedder) generateVector(text string) []float32 {
	vector := make([]float32, HashDimensions)

	tokens := filterStopWords(tokenize(text))
	for _, token := range tokens {
		index := hashToIndex(token, HashDimensions)
		vector[index] += tokenWeight
	}

	normalized := normalizeForNgrams(text)
	for _, ngram := range extractNgrams(normalized, ngramSize) {
		index := hashToIndex(ngram, HashDimensions)
		vector[index] += ngramWeight
	}

	return vector
}

// tokenize splits text into tokens (code-aware).
func tokenize(text string) []string {
	var tokens []string
	for _, word := range tokenRegex.FindAllString(text, -1) {
		for _, t := range splitCodeToken(word) {
			lower := strings.ToLower(t)
			if lower != "" {
				tokens = append(tokens, lower)
			}
		}
	}
	return tokens
}

// splitCodeToken splits camelCase and snake_case identifiers.
func splitCodeToken(token string) []string {
	if strings.Contains(token, "_") {
		var result []string
		for _, part := range strings.Split(token, "_") {
			if part != "" {
				result = append(result, splitCamelCase(part)...)
			}
		}
		return result
	}
	return splitCamelCase(token)
}

// splitCamelCase splits camelCase identifiers, keeping acronyms whole.
func splitCamelCase(s string) []string {
	if s == "" {
		return nil
	}

	var result []string
	var current strings.Builder

	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevIsLower := unicode.IsLower(runes[i-1])
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevIsLower || nextIsLower {
				if current.Len() > 0 {
					result = append(result, current.String())
					current.Reset()
				}
			}
		}
		current.WriteRune(r)
	}

	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}

func filterStopWords(tokens []string) []string {
	var filtered []string
	for _, t := range tokens {
		if !programmingStopWords[t] {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// normalizeForNgrams prepares text for n-gram extraction.
func normalizeForNgrams(text string) string {
	var result strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// extractNgrams extracts n-character sliding windows.
func extractNgrams(text string, n int) []string {
	if len(text) < n {
		return nil
	}
	ngrams := make([]string, 0, len(text)-n+1)
	for i := 0; i <= len(text)-n; i++ {
		ngrams = append(ngrams, text[i:i+n])
	}
	return ngrams
}

// hashToIndex uses FNV-64 to map a string to an index.
func hashToIndex(s string, size int) int {
	h := fnv.New64()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(size))
}

// EmbedBatch generates embeddings for multiple texts.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.mu.RUnlock()

	results := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed text %d: %w", i, err)
		}
		results[i] = emb
	}
	return results, nil
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int { return HashDimensions }

// ModelName returns the model identifier.
func (e *HashEmbedder) ModelName() string { return "hash-v1" }

// ProviderName returns the provider identifier.
func (e *HashEmbedder) ProviderName() string { return "hash" }

// Available checks if the embedder is ready (always true for hash).
func (e *HashEmbedder) Available(_ context.Context) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.closed
}

// Close releases resources.
func (e *HashEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
