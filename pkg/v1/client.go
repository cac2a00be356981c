// Package v1 provides programmatic access to an insights store.
package v1

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/4thel00z/insights/internal"
	"github.com/charmbracelet/log"
)

// Client provides programmatic access to the insight store.
type Client struct {
	root    string
	store   *internal.FileStore
	vectors internal.VectorStore
	indexer *internal.Indexer
	engine  *internal.SearchEngine
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	root := cfg.root
	if root == "" {
		var err error
		root, err = internal.ResolveRoot()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create insights root: %w", err)
	}

	fileCfg, err := internal.LoadConfig(root)
	if err != nil {
		return nil, err
	}
	if cfg.dimension > 0 {
		fileCfg.Embeddings.Dimension = cfg.dimension
	}

	vectors, err := fileCfg.NewVectorStore(root)
	if err != nil {
		return nil, err
	}

	var embedder internal.Embedder
	if cfg.mock || fileCfg.Embeddings.Backend == "mock" {
		embedder = internal.NewMockEmbedder(fileCfg.Embeddings.Dimension)
	} else {
		embedder = internal.NewDaemonEmbedder(fileCfg.Endpoint(), fileCfg.Embeddings.Model)
	}

	logger := log.New(io.Discard)
	store := internal.NewFileStore(root)
	indexer := internal.NewIndexer(store, embedder, vectors, logger)

	return &Client{
		root:    root,
		store:   store,
		vectors: vectors,
		indexer: indexer,
		engine:  internal.NewSearchEngine(store, indexer, logger),
	}, nil
}

// Close releases the client's vector store.
func (c *Client) Close() error {
	return c.vectors.Close()
}

// Add creates a new insight. It fails if the (topic, name) pair exists.
func (c *Client) Add(ctx context.Context, topic, name, overview, details string) error {
	if err := c.store.Save(internal.NewInsight(topic, name, overview, details)); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	return nil
}

// Get retrieves an insight by key.
func (c *Client) Get(ctx context.Context, topic, name string) (*Insight, error) {
	ins, err := c.store.Load(topic, name)
	if err != nil {
		return nil, err
	}
	return &Insight{
		Topic:    ins.Topic,
		Name:     ins.Name,
		Overview: ins.Overview,
		Details:  ins.Details,
	}, nil
}

// Update changes an insight's overview and/or details. Nil leaves a field
// untouched; at least one must be set. Any change drops the stored
// embedding.
func (c *Client) Update(ctx context.Context, topic, name string, overview, details *string) error {
	ins, err := c.store.Load(topic, name)
	if err != nil {
		return err
	}
	if err := c.store.Update(ins, overview, details); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	return c.indexer.RemoveEmbedding(ins.Topic, ins.Name)
}

// Delete removes an insight.
func (c *Client) Delete(ctx context.Context, topic, name string) error {
	if err := c.store.Delete(topic, name); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return c.indexer.RemoveEmbedding(topic, name)
}

// Topics returns all topics, sorted.
func (c *Client) Topics(ctx context.Context) ([]string, error) {
	return c.store.Topics()
}

// List returns all insights, optionally restricted to one topic.
func (c *Client) List(ctx context.Context, topic string) ([]Insight, error) {
	loaded, err := c.store.List(topic)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	insights := make([]Insight, 0, len(loaded))
	for _, ins := range loaded {
		insights = append(insights, Insight{
			Topic:    ins.Topic,
			Name:     ins.Name,
			Overview: ins.Overview,
			Details:  ins.Details,
		})
	}
	return insights, nil
}

// SearchOptions mirror the CLI search flags.
type SearchOptions struct {
	Topic         string
	CaseSensitive bool
	OverviewOnly  bool
	Exact         bool
	Limit         int
}

// Search ranks insights against the given terms.
func (c *Client) Search(ctx context.Context, terms []string, opts SearchOptions) ([]SearchResult, error) {
	found, err := c.engine.Search(ctx, terms, internal.SearchOptions{
		Topic:         opts.Topic,
		CaseSensitive: opts.CaseSensitive,
		OverviewOnly:  opts.OverviewOnly,
		Exact:         opts.Exact,
		Limit:         opts.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	results := make([]SearchResult, 0, len(found))
	for _, r := range found {
		results = append(results, SearchResult{
			Topic:    r.Topic,
			Name:     r.Name,
			Overview: r.Overview,
			Details:  r.Details,
			Score:    r.Score,
		})
	}
	return results, nil
}

// Log lists recorded changes to the insight store, newest first, up to
// limit (0 = unlimited). It fails with internal.ErrNoHistory when the
// root is not version-tracked.
func (c *Client) Log(ctx context.Context, limit int) ([]Commit, error) {
	h, err := internal.OpenHistory(c.root)
	if err != nil {
		return nil, err
	}

	logged, err := h.Log(limit)
	if err != nil {
		return nil, fmt.Errorf("log: %w", err)
	}

	commits := make([]Commit, 0, len(logged))
	for _, entry := range logged {
		commits = append(commits, Commit{
			Hash:      entry.Hash,
			Message:   entry.Message,
			Timestamp: entry.When,
		})
	}
	return commits, nil
}

// Index computes embeddings for insights missing one. With force, all
// embeddings are recomputed.
func (c *Client) Index(ctx context.Context, force bool) (IndexStats, error) {
	stats, err := c.indexer.Index(ctx, force)
	if err != nil {
		return IndexStats{}, fmt.Errorf("index: %w", err)
	}
	return IndexStats{
		Total:    stats.Total,
		Embedded: stats.Embedded,
		Skipped:  stats.Skipped,
		Failed:   stats.Failed,
	}, nil
}
