package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ollamaServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestOllamaEmbedder_Embed(t *testing.T) {
	srv := ollamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embed", r.URL.Path)

		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		require.Len(t, req.Input, 1)

		vecs := make([][]float32, len(req.Input))
		for i := range vecs {
			vecs[i] = []float32{1, 2, 3}
		}
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: vecs})
	})

	e := NewOllamaEmbedder(OllamaConfig{Host: srv.URL})
	defer e.Close()

	vec, err := e.Embed(context.Background(), "some docs")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vec)

	// Dimensions follow the first response.
	assert.Equal(t, 3, e.Dimensions())
}

func TestOllamaEmbedder_BlankInputSkipsNetwork(t *testing.T) {
	called := false
	srv := ollamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	e := NewOllamaEmbedder(OllamaConfig{Host: srv.URL})
	defer e.Close()

	vec, err := e.Embed(context.Background(), "  ")
	require.NoError(t, err)
	assert.Nil(t, vec)
	assert.False(t, called)
}

func TestOllamaEmbedder_DefaultDimensionsBeforeFirstCall(t *testing.T) {
	e := NewOllamaEmbedder(OllamaConfig{})
	defer e.Close()

	assert.Equal(t, defaultOllamaDimensions, e.Dimensions())
	assert.Equal(t, DefaultOllamaModel, e.ModelName())
	assert.Equal(t, "ollama", e.ProviderName())
}

func TestOllamaEmbedder_FailedBatchYieldsNils(t *testing.T) {
	srv := ollamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	})

	e := NewOllamaEmbedder(OllamaConfig{Host: srv.URL})
	defer e.Close()

	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Nil(t, vecs[0])
	assert.Nil(t, vecs[1])
}

func TestOllamaEmbedder_BatchPreservesBlankPositions(t *testing.T) {
	srv := ollamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		vecs := make([][]float32, len(req.Input))
		for i := range vecs {
			vecs[i] = []float32{float32(i)}
		}
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: vecs})
	})

	e := NewOllamaEmbedder(OllamaConfig{Host: srv.URL})
	defer e.Close()

	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.NotNil(t, vecs[0])
	assert.Nil(t, vecs[1])
	assert.NotNil(t, vecs[2])
}

func TestOllamaEmbedder_Available(t *testing.T) {
	srv := ollamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	})

	e := NewOllamaEmbedder(OllamaConfig{Host: srv.URL})
	defer e.Close()
	assert.True(t, e.Available(context.Background()))

	unreachable := NewOllamaEmbedder(OllamaConfig{Host: "http://127.0.0.1:1"})
	defer unreachable.Close()
	assert.False(t, unreachable.Available(context.Background()))
}
