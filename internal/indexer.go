package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// Indexer implements the lazy embedding policy: an insight gets its
// embedding computed the first time something needs it, persisted both
// into the insight file and the vector store, and never recomputed unless
// forced.
type Indexer struct {
	store    *FileStore
	embedder Embedder
	vectors  VectorStore
	logger   *log.Logger
}

// IndexStats summarizes one indexing pass.
type IndexStats struct {
	Total    int
	Embedded int
	Skipped  int
	Failed   int
}

func NewIndexer(store *FileStore, embedder Embedder, vectors VectorStore, logger *log.Logger) *Indexer {
	return &Indexer{store: store, embedder: embedder, vectors: vectors, logger: logger}
}

// Ready reports whether vector operations are possible.
func (x *Indexer) Ready() bool {
	return x.embedder != nil && x.vectors != nil
}

func (x *Indexer) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if x.embedder == nil {
		return nil, ErrDaemonUnavailable
	}
	return x.embedder.Embed(ctx, query)
}

// EnsureEmbedding makes sure ins has an embedding both on disk and in the
// vector store. An existing embedding is never recomputed; it is only
// re-registered so a fresh vector store gets populated from the files.
func (x *Indexer) EnsureEmbedding(ctx context.Context, ins *Insight) error {
	if !x.Ready() {
		return ErrNoVectorStore
	}

	if ins.HasEmbedding() {
		return x.vectors.StoreEmbedding(NewVectorRecord(ins))
	}
	return x.embed(ctx, ins)
}

// embed computes, sets, and persists an embedding for ins.
func (x *Indexer) embed(ctx context.Context, ins *Insight) error {
	text := ins.EmbeddingInput()
	vec, err := x.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed %s: %w", ins.ID(), err)
	}

	ins.SetEmbedding(x.embedder.Version(), vec, text, time.Now().UTC())

	if err := x.store.SaveExisting(ins); err != nil {
		return fmt.Errorf("persist embedding for %s: %w", ins.ID(), err)
	}
	return x.vectors.StoreEmbedding(NewVectorRecord(ins))
}

// RemoveEmbedding drops an insight's entry from the vector store. Called
// on delete; a missing entry is not an error.
func (x *Indexer) RemoveEmbedding(topic, name string) error {
	if x.vectors == nil {
		return nil
	}
	return x.vectors.DeleteEmbedding(topic, name)
}

// Index walks every stored insight and ensures its embedding. With force,
// existing embeddings are recomputed too. Per-insight failures are logged
// and counted, never fatal; search stays usable through the word-overlap
// strategy.
func (x *Indexer) Index(ctx context.Context, force bool) (IndexStats, error) {
	var stats IndexStats
	if !x.Ready() {
		return stats, ErrNoVectorStore
	}

	insights, err := x.store.List("")
	if err != nil {
		return stats, err
	}
	stats.Total = len(insights)

	for _, ins := range insights {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if ins.HasEmbedding() && !force {
			stats.Skipped++
			if err := x.EnsureEmbedding(ctx, ins); err != nil {
				x.logger.Warn("register embedding failed", "insight", ins.ID(), "err", err)
			}
			continue
		}

		ins.ClearEmbedding()
		if err := x.embed(ctx, ins); err != nil {
			x.logger.Warn("index failed", "insight", ins.ID(), "err", err)
			stats.Failed++
			continue
		}
		stats.Embedded++
	}
	return stats, nil
}
