package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultDimension matches the MiniLM-class sentence models the daemon
	// is normally configured with.
	DefaultDimension = 384

	MockBackendVersion = "test-mock"

	DefaultOllamaHost  = "http://127.0.0.1:11434"
	DefaultOllamaModel = "all-minilm"
)

// EmbeddingBackend turns texts into fixed-dimension vectors. The daemon
// loads exactly one backend instance and serializes calls to it.
type EmbeddingBackend interface {
	ComputeEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	Version() string
	Dimension() int
}

// MockBackend produces deterministic token-hash vectors. Texts sharing
// tokens get correlated vectors, which is enough for ranking tests without
// a model.
type MockBackend struct {
	dimension int
}

var _ EmbeddingBackend = (*MockBackend)(nil)

func NewMockBackend(dimension int) *MockBackend {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &MockBackend{dimension: dimension}
}

func (m *MockBackend) ComputeEmbeddings(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = m.embed(text)
	}
	return vectors, nil
}

func (m *MockBackend) embed(text string) []float32 {
	vec := make([]float32, m.dimension)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vec[int(h.Sum32())%m.dimension]++
	}
	return l2Normalize(vec)
}

func (m *MockBackend) Version() string { return MockBackendVersion }

func (m *MockBackend) Dimension() int { return m.dimension }

// OllamaBackend computes embeddings through a local Ollama server. The
// model architecture stays opaque behind the HTTP API.
type OllamaBackend struct {
	host      string
	model     string
	dimension int
	client    *http.Client
}

var _ EmbeddingBackend = (*OllamaBackend)(nil)

func NewOllamaBackend(host, model string, dimension int) *OllamaBackend {
	if host == "" {
		host = DefaultOllamaHost
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	if dimension <= 0 {
		dimension = DefaultDimension
	}

	return &OllamaBackend{
		host:      host,
		model:     model,
		dimension: dimension,
		client:    &http.Client{Timeout: 120 * time.Second},
	}
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (o *OllamaBackend) ComputeEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: o.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama embed: status %d", resp.StatusCode)
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}

	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d texts", len(result.Embeddings), len(texts))
	}

	for i, vec := range result.Embeddings {
		result.Embeddings[i] = l2Normalize(vec)
	}
	return result.Embeddings, nil
}

func (o *OllamaBackend) Version() string { return o.model }

func (o *OllamaBackend) Dimension() int { return o.dimension }

func l2Normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}

	norm := math.Sqrt(sum)
	if norm == 0 {
		return vec
	}

	result := make([]float32, len(vec))
	for i, v := range vec {
		result[i] = float32(float64(v) / norm)
	}
	return result
}
