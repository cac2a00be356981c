package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(t.TempDir())
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	ins := NewInsight("rust", "ownership", "Ownership model", "Borrow checker enforces aliasing rules.")
	if err := store.Save(ins); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load("rust", "ownership")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Topic != "rust" || loaded.Name != "ownership" {
		t.Errorf("expected rust/ownership, got %s/%s", loaded.Topic, loaded.Name)
	}
	if loaded.Overview != "Ownership model" {
		t.Errorf("unexpected overview: %q", loaded.Overview)
	}
	if loaded.Details != "Borrow checker enforces aliasing rules." {
		t.Errorf("unexpected details: %q", loaded.Details)
	}
	if loaded.HasEmbedding() {
		t.Error("fresh insight should have no embedding")
	}
}

func TestRoundTripEmptyOverview(t *testing.T) {
	store := newTestStore(t)

	ins := NewInsight("go", "stub", "", "Details only, overview comes later.")
	if err := store.Save(ins); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load("go", "stub")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Overview != "" {
		t.Errorf("expected empty overview, got %q", loaded.Overview)
	}
	if loaded.Details != "Details only, overview comes later." {
		t.Errorf("unexpected details: %q", loaded.Details)
	}
}

func TestSaveUnicodeContent(t *testing.T) {
	store := newTestStore(t)

	ins := NewInsight("unicode", "múlti-bytè", "Überblick: 日本語", "Détails — ελληνικά, кириллица, 中文.")
	if err := store.Save(ins); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load("unicode", "múlti-bytè")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Overview != ins.Overview || loaded.Details != ins.Details {
		t.Errorf("unicode content mangled: %q / %q", loaded.Overview, loaded.Details)
	}
}

func TestSaveDuplicateFails(t *testing.T) {
	store := newTestStore(t)

	ins := NewInsight("go", "channels", "CSP primitives", "Unbuffered channels synchronize.")
	if err := store.Save(ins); err != nil {
		t.Fatalf("save: %v", err)
	}

	err := store.Save(NewInsight("go", "channels", "other", "other"))
	if !isErr(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestLoadMissingFails(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load("nope", "nothing")
	if !isErr(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPathNormalization(t *testing.T) {
	store := newTestStore(t)

	ins := NewInsight("Rust", "Ownership", "o", "d")
	if err := store.Save(ins); err != nil {
		t.Fatalf("save: %v", err)
	}

	// File lives at the lowercased path, metadata keeps the original case.
	path := filepath.Join(store.Root(), "rust", "ownership.insight.md")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected normalized path %s: %v", path, err)
	}

	loaded, err := store.Load("Rust", "Ownership")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Topic != "Rust" || loaded.Name != "Ownership" {
		t.Errorf("original case lost: %s/%s", loaded.Topic, loaded.Name)
	}
}

func TestLegacyCasePathFallback(t *testing.T) {
	store := newTestStore(t)

	// A file written before path normalization, at its original case.
	dir := filepath.Join(store.Root(), "Rust")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	content := "---\noverview: Old path layout\n---\n\n# Details\nStill readable."
	if err := os.WriteFile(filepath.Join(dir, "Ownership.insight.md"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load("Rust", "Ownership")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Overview != "Old path layout" {
		t.Errorf("unexpected overview: %q", loaded.Overview)
	}
}

func TestLegacyFreeTextMetadata(t *testing.T) {
	store := newTestStore(t)

	dir := filepath.Join(store.Root(), "legacy")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	content := "---\nThis whole block is the overview text.\n---\n\nAnd this is the body."
	if err := os.WriteFile(filepath.Join(dir, "freeform.insight.md"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load("legacy", "freeform")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Overview != "This whole block is the overview text." {
		t.Errorf("unexpected overview: %q", loaded.Overview)
	}
	if loaded.Details != "And this is the body." {
		t.Errorf("unexpected details: %q", loaded.Details)
	}
}

func TestUpdateClearsEmbedding(t *testing.T) {
	store := newTestStore(t)

	ins := NewInsight("go", "maps", "Hash maps", "Not safe for concurrent writes.")
	ins.SetEmbedding("test-mock", []float32{0.1, 0.2}, ins.EmbeddingInput(), time.Now().UTC())
	if err := store.Save(ins); err != nil {
		t.Fatalf("save: %v", err)
	}

	overview := "Built-in hash maps"
	if err := store.Update(ins, &overview, nil); err != nil {
		t.Fatalf("update: %v", err)
	}

	loaded, err := store.Load("go", "maps")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Overview != overview {
		t.Errorf("unexpected overview: %q", loaded.Overview)
	}
	if loaded.Details != "Not safe for concurrent writes." {
		t.Errorf("details should be untouched: %q", loaded.Details)
	}
	if loaded.HasEmbedding() || loaded.EmbeddingVersion != "" || loaded.EmbeddingText != "" || loaded.EmbeddingComputed != nil {
		t.Error("update must clear every embedding field")
	}
}

func TestUpdateWithoutFieldsFails(t *testing.T) {
	store := newTestStore(t)

	ins := NewInsight("go", "slices", "Growable views", "Backed by arrays.")
	if err := store.Save(ins); err != nil {
		t.Fatalf("save: %v", err)
	}

	err := store.Update(ins, nil, nil)
	if !isErr(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestUpdateMissingFails(t *testing.T) {
	store := newTestStore(t)

	overview := "x"
	err := store.Update(NewInsight("no", "such", "o", "d"), &overview, nil)
	if !isErr(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveExistingPersistsEmbedding(t *testing.T) {
	store := newTestStore(t)

	ins := NewInsight("go", "defer", "Deferred calls", "LIFO at function exit.")
	if err := store.Save(ins); err != nil {
		t.Fatalf("save: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	ins.SetEmbedding("test-mock", []float32{1, 0, 0}, ins.EmbeddingInput(), now)
	if err := store.SaveExisting(ins); err != nil {
		t.Fatalf("save existing: %v", err)
	}

	loaded, err := store.Load("go", "defer")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded.HasEmbedding() {
		t.Fatal("embedding not persisted")
	}
	if loaded.EmbeddingVersion != "test-mock" {
		t.Errorf("unexpected version: %q", loaded.EmbeddingVersion)
	}
	if loaded.EmbeddingText != ins.EmbeddingInput() {
		t.Errorf("unexpected embedding text: %q", loaded.EmbeddingText)
	}
	if loaded.EmbeddingComputed == nil || !loaded.EmbeddingComputed.Equal(now) {
		t.Errorf("unexpected computed time: %v", loaded.EmbeddingComputed)
	}
}

func TestDeletePrunesEmptyTopic(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save(NewInsight("solo", "only", "o", "d")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete("solo", "only"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := os.Stat(filepath.Join(store.Root(), "solo")); !os.IsNotExist(err) {
		t.Error("empty topic directory should be pruned")
	}

	err := store.Delete("solo", "only")
	if !isErr(err, ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestDeleteKeepsNonEmptyTopic(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save(NewInsight("go", "one", "o", "d")); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(NewInsight("go", "two", "o", "d")); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete("go", "one"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := os.Stat(filepath.Join(store.Root(), "go")); err != nil {
		t.Error("topic directory with remaining insights must survive")
	}
}

func TestTopicsAndListSorted(t *testing.T) {
	store := newTestStore(t)

	for _, pair := range [][2]string{{"zig", "comptime"}, {"go", "defer"}, {"go", "channels"}, {"rust", "traits"}} {
		if err := store.Save(NewInsight(pair[0], pair[1], "o", "d")); err != nil {
			t.Fatal(err)
		}
	}

	topics, err := store.Topics()
	if err != nil {
		t.Fatalf("topics: %v", err)
	}
	if strings.Join(topics, ",") != "go,rust,zig" {
		t.Errorf("unexpected topics order: %v", topics)
	}

	all, err := store.List("")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var keys []string
	for _, ins := range all {
		keys = append(keys, ins.ID())
	}
	want := "go:channels,go:defer,rust:traits,zig:comptime"
	if strings.Join(keys, ",") != want {
		t.Errorf("unexpected list order: %v", keys)
	}

	goOnly, err := store.List("go")
	if err != nil {
		t.Fatalf("list topic: %v", err)
	}
	if len(goOnly) != 2 {
		t.Errorf("expected 2 go insights, got %d", len(goOnly))
	}
}

func TestListEmptyRoot(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing"))

	insights, err := store.List("")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(insights) != 0 {
		t.Errorf("expected no insights, got %d", len(insights))
	}
}
