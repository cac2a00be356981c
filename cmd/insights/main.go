package main

import (
	"context"
	"fmt"
	"os"

	"github.com/4thel00z/insights/internal"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	ctx := context.Background()

	app, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "insights: %v\n", err)
		os.Exit(1)
	}
	defer app.close()

	rootCmd := NewRootCmd(version, app)
	if err := fang.Execute(ctx, rootCmd); err != nil {
		os.Exit(1)
	}
}

type app struct {
	root    string
	cfg     *internal.Config
	logger  *log.Logger
	store   *internal.FileStore
	vectors internal.VectorStore
	indexer *internal.Indexer
	engine  *internal.SearchEngine
}

func newApp() (*app, error) {
	root, err := internal.ResolveRoot()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create insights root: %w", err)
	}

	cfg, err := internal.LoadConfig(root)
	if err != nil {
		return nil, err
	}

	logger := log.New(os.Stderr)
	store := internal.NewFileStore(root)

	vectors, err := cfg.NewVectorStore(root)
	if err != nil {
		return nil, err
	}

	indexer := internal.NewIndexer(store, newEmbedder(cfg), vectors, logger)

	return &app{
		root:    root,
		cfg:     cfg,
		logger:  logger,
		store:   store,
		vectors: vectors,
		indexer: indexer,
		engine:  internal.NewSearchEngine(store, indexer, logger),
	}, nil
}

func newEmbedder(cfg *internal.Config) internal.Embedder {
	if cfg.Embeddings.Backend == "mock" {
		return internal.NewMockEmbedder(cfg.Embeddings.Dimension)
	}
	model := cfg.Embeddings.Model
	if model == "" {
		model = internal.DefaultOllamaModel
	}
	return internal.NewDaemonEmbedder(cfg.Endpoint(), model)
}

func (a *app) close() {
	if a.vectors != nil {
		_ = a.vectors.Close()
	}
}

// history returns the version history when the root is tracked, nil when
// history has not been initialized.
func (a *app) history() *internal.History {
	if !internal.HasHistory(a.root) {
		return nil
	}
	h, err := internal.OpenHistory(a.root)
	if err != nil {
		a.logger.Warn("open history failed", "err", err)
		return nil
	}
	return h
}

// record commits the current state when history is enabled. Failures are
// notices, never command failures.
func (a *app) record(message string) {
	h := a.history()
	if h == nil {
		return
	}
	if _, err := h.CommitAll(message); err != nil {
		a.logger.Warn("history commit failed", "err", err)
	}
}
