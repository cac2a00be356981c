package main

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/4thel00z/insights/internal"
	"github.com/charmbracelet/log"
)

// newTestApp builds an app over a temp root with the in-process mock
// embedder, so no daemon or model is needed.
func newTestApp(t *testing.T) *app {
	t.Helper()
	root := t.TempDir()

	cfg := internal.DefaultConfig()
	cfg.Embeddings.Backend = "mock"
	cfg.Embeddings.Dimension = 8

	logger := log.New(io.Discard)
	store := internal.NewFileStore(root)

	vectors, err := internal.OpenSQLiteVectorStore(filepath.Join(root, "vectors.db"))
	if err != nil {
		t.Fatalf("open vector store: %v", err)
	}
	t.Cleanup(func() { _ = vectors.Close() })

	indexer := internal.NewIndexer(store, internal.NewMockEmbedder(8), vectors, logger)

	return &app{
		root:    root,
		cfg:     cfg,
		logger:  logger,
		store:   store,
		vectors: vectors,
		indexer: indexer,
		engine:  internal.NewSearchEngine(store, indexer, logger),
	}
}

// run executes a command line against a fresh root command and returns its
// combined output.
func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd("test", a)
	root.SetArgs(args)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.Execute()
	return out.String(), err
}
