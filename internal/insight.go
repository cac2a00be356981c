package internal

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound          = errors.New("insight not found")
	ErrAlreadyExists     = errors.New("insight already exists")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrDaemonUnavailable = errors.New("embedding daemon unavailable")
	ErrNoVectorStore     = errors.New("no vector store available")
	ErrNoHistory         = errors.New("history not initialized")
	ErrStorage           = errors.New("vector storage failure")
)

// RemoteError is an error reported by the embedding daemon in a response.
type RemoteError struct {
	Msg string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("daemon error: %s", e.Msg)
}

// Insight is a knowledge document keyed by (topic, name).
//
// The embedding fields are all set or all empty together: ClearEmbedding and
// SetEmbedding are the only mutators.
type Insight struct {
	Topic    string
	Name     string
	Overview string
	Details  string

	EmbeddingVersion  string
	Embedding         []float32
	EmbeddingText     string
	EmbeddingComputed *time.Time
}

func NewInsight(topic, name, overview, details string) *Insight {
	return &Insight{
		Topic:    topic,
		Name:     name,
		Overview: overview,
		Details:  details,
	}
}

// ID is the vector-store identifier for this insight.
func (i *Insight) ID() string {
	return i.Topic + ":" + i.Name
}

func (i *Insight) HasEmbedding() bool {
	return i.Embedding != nil
}

// EmbeddingInput is the canonical text an embedding is computed from.
func (i *Insight) EmbeddingInput() string {
	return strings.Join([]string{i.Topic, i.Name, i.Overview, i.Details}, " ")
}

func (i *Insight) SetEmbedding(version string, vector []float32, text string, computed time.Time) {
	i.EmbeddingVersion = version
	i.Embedding = vector
	i.EmbeddingText = text
	i.EmbeddingComputed = &computed
}

func (i *Insight) ClearEmbedding() {
	i.EmbeddingVersion = ""
	i.Embedding = nil
	i.EmbeddingText = ""
	i.EmbeddingComputed = nil
}
