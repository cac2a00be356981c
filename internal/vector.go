package internal

import (
	"math"
	"time"
)

// VectorRecord is one stored embedding, denormalized with the insight
// content it was computed from so vector hits can be displayed without a
// file read. ID is "topic:name".
type VectorRecord struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Name      string    `json:"name"`
	Overview  string    `json:"overview"`
	Details   string    `json:"details"`
	Embedding []float32 `json:"embedding"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewVectorRecord builds the stored record for an embedded insight. Stores
// keep the original CreatedAt when the record already exists.
func NewVectorRecord(ins *Insight) VectorRecord {
	now := time.Now().UTC()
	return VectorRecord{
		ID:        ins.ID(),
		Topic:     ins.Topic,
		Name:      ins.Name,
		Overview:  ins.Overview,
		Details:   ins.Details,
		Embedding: ins.Embedding,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// VectorSearchResult is a match from similarity search. Similarity is in
// [0, 1], higher is closer.
type VectorSearchResult struct {
	Topic      string
	Name       string
	Similarity float32
}

// VectorStore persists embeddings and answers nearest-neighbor queries.
// A threshold <= 0 disables filtering.
type VectorStore interface {
	StoreEmbedding(rec VectorRecord) error
	SearchSimilar(query []float32, limit int, threshold float32) ([]VectorSearchResult, error)
	HasEmbeddings() (bool, error)
	DeleteEmbedding(topic, name string) error
	UpdateEmbedding(rec VectorRecord) error
	ClearAllEmbeddings() error
	// Reshape drops everything and re-creates the store for a new
	// dimension. Required when the embedding model changes.
	Reshape(dimension int) error
	Close() error
}

// distanceToSimilarity maps a euclidean distance between two unit vectors
// onto [0, 1]. Unit vectors sit at most 2 apart, so (2-d)/2 lands exactly
// in range.
func distanceToSimilarity(d float32) float32 {
	s := (2 - d) / 2
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

func l2Distance(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum))
}
