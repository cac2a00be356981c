package internal

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockBackendDeterministic(t *testing.T) {
	backend := NewMockBackend(16)

	vecs, err := backend.ComputeEmbeddings(context.Background(), []string{"hello world", "hello world", "something else"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)

	assert.Equal(t, vecs[0], vecs[1])
	assert.NotEqual(t, vecs[0], vecs[2])
}

func TestMockBackendNormalized(t *testing.T) {
	backend := NewMockBackend(32)

	vecs, err := backend.ComputeEmbeddings(context.Background(), []string{"some text to embed"})
	require.NoError(t, err)

	var sum float64
	for _, v := range vecs[0] {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestMockBackendTokenOverlapCorrelates(t *testing.T) {
	backend := NewMockBackend(64)

	vecs, err := backend.ComputeEmbeddings(context.Background(), []string{
		"machine learning models",
		"machine learning systems",
		"cooking pasta recipes",
	})
	require.NoError(t, err)

	dot := func(a, b []float32) float64 {
		var s float64
		for i := range a {
			s += float64(a[i]) * float64(b[i])
		}
		return s
	}

	assert.Greater(t, dot(vecs[0], vecs[1]), dot(vecs[0], vecs[2]),
		"texts sharing tokens should be closer")
}

func TestOllamaBackendRequestShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "all-minilm", req.Model)
		require.Len(t, req.Input, 2)

		resp := ollamaEmbedResponse{Embeddings: [][]float32{{3, 4}, {0, 5}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	backend := NewOllamaBackend(server.URL, "all-minilm", 2)
	vecs, err := backend.ComputeEmbeddings(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	// Vectors come back normalized.
	assert.InDelta(t, 0.6, vecs[0][0], 1e-6)
	assert.InDelta(t, 0.8, vecs[0][1], 1e-6)
	assert.InDelta(t, 1.0, vecs[1][1], 1e-6)
}

func TestOllamaBackendCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: [][]float32{{1}}})
	}))
	defer server.Close()

	backend := NewOllamaBackend(server.URL, "all-minilm", 2)
	_, err := backend.ComputeEmbeddings(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}

func TestOllamaBackendServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	backend := NewOllamaBackend(server.URL, "missing", 2)
	_, err := backend.ComputeEmbeddings(context.Background(), []string{"a"})
	assert.Error(t, err)
}

func TestL2NormalizeZeroVector(t *testing.T) {
	vec := []float32{0, 0, 0}
	assert.Equal(t, vec, l2Normalize(vec))
}
