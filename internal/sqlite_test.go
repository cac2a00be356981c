package internal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteVectorStore {
	t.Helper()
	store, err := OpenSQLiteVectorStore(filepath.Join(t.TempDir(), "vectors.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreAndSearch(t *testing.T) {
	store := newTestSQLiteStore(t)

	require.NoError(t, store.StoreEmbedding(VectorRecord{Topic: "rust", Name: "ownership", Embedding: []float32{1, 0, 0}}))
	require.NoError(t, store.StoreEmbedding(VectorRecord{Topic: "go", Name: "channels", Embedding: []float32{0, 1, 0}}))

	results, err := store.SearchSimilar([]float32{1, 0, 0}, 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "rust", results[0].Topic)
	assert.Equal(t, "ownership", results[0].Name)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
	assert.Greater(t, results[0].Similarity, results[1].Similarity)
}

func TestSQLiteThresholdAndLimit(t *testing.T) {
	store := newTestSQLiteStore(t)

	require.NoError(t, store.StoreEmbedding(VectorRecord{Topic: "a", Name: "same", Embedding: []float32{1, 0}}))
	require.NoError(t, store.StoreEmbedding(VectorRecord{Topic: "b", Name: "far", Embedding: []float32{-1, 0}}))

	// Opposite unit vectors sit at distance 2, similarity 0.
	results, err := store.SearchSimilar([]float32{1, 0}, 10, 0.5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "same", results[0].Name)

	// threshold <= 0 disables filtering
	results, err = store.SearchSimilar([]float32{1, 0}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = store.SearchSimilar([]float32{1, 0}, 1, 0)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSQLiteDimensionPinned(t *testing.T) {
	store := newTestSQLiteStore(t)

	require.NoError(t, store.StoreEmbedding(VectorRecord{Topic: "a", Name: "b", Embedding: []float32{1, 0, 0}}))

	err := store.StoreEmbedding(VectorRecord{Topic: "c", Name: "d", Embedding: []float32{1, 0}})
	assert.ErrorIs(t, err, ErrStorage)

	_, err = store.SearchSimilar([]float32{1, 0}, 10, 0)
	assert.ErrorIs(t, err, ErrStorage)
}

func TestSQLitePersistsFullRecord(t *testing.T) {
	store := newTestSQLiteStore(t)

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := VectorRecord{
		ID:        "rust:ownership",
		Topic:     "rust",
		Name:      "ownership",
		Overview:  "Ownership model",
		Details:   "Borrow checker enforces aliasing rules.",
		Embedding: []float32{1, 0},
		CreatedAt: created,
		UpdatedAt: created,
	}
	require.NoError(t, store.StoreEmbedding(rec))

	var id, overview, details string
	var createdAt, updatedAt time.Time
	row := store.db.QueryRow(
		`SELECT id, overview, details, created_at, updated_at FROM embeddings WHERE topic = ? AND name = ?`,
		"rust", "ownership")
	require.NoError(t, row.Scan(&id, &overview, &details, &createdAt, &updatedAt))
	assert.Equal(t, "rust:ownership", id)
	assert.Equal(t, "Ownership model", overview)
	assert.Equal(t, "Borrow checker enforces aliasing rules.", details)
	assert.True(t, createdAt.Equal(created))

	// Upserts refresh content and updated_at but keep created_at.
	later := created.Add(time.Hour)
	rec.Overview = "Ownership and borrowing"
	rec.CreatedAt = later
	rec.UpdatedAt = later
	require.NoError(t, store.UpdateEmbedding(rec))

	row = store.db.QueryRow(
		`SELECT id, overview, details, created_at, updated_at FROM embeddings WHERE topic = ? AND name = ?`,
		"rust", "ownership")
	require.NoError(t, row.Scan(&id, &overview, &details, &createdAt, &updatedAt))
	assert.Equal(t, "Ownership and borrowing", overview)
	assert.True(t, createdAt.Equal(created), "created_at must survive upserts")
	assert.True(t, updatedAt.Equal(later))
}

func TestSQLiteUpsertAndDelete(t *testing.T) {
	store := newTestSQLiteStore(t)

	require.NoError(t, store.StoreEmbedding(VectorRecord{Topic: "a", Name: "b", Embedding: []float32{1, 0}}))
	require.NoError(t, store.UpdateEmbedding(VectorRecord{Topic: "a", Name: "b", Embedding: []float32{0, 1}}))

	results, err := store.SearchSimilar([]float32{0, 1}, 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)

	require.NoError(t, store.DeleteEmbedding("a", "b"))
	has, err := store.HasEmbeddings()
	require.NoError(t, err)
	assert.False(t, has)

	// deleting a missing record is not an error
	assert.NoError(t, store.DeleteEmbedding("a", "b"))
}

func TestSQLiteReshape(t *testing.T) {
	store := newTestSQLiteStore(t)

	require.NoError(t, store.StoreEmbedding(VectorRecord{Topic: "a", Name: "b", Embedding: []float32{1, 0}}))
	require.NoError(t, store.Reshape(3))

	has, err := store.HasEmbeddings()
	require.NoError(t, err)
	assert.False(t, has, "reshape must drop all vectors")

	err = store.StoreEmbedding(VectorRecord{Topic: "a", Name: "b", Embedding: []float32{1, 0}})
	assert.ErrorIs(t, err, ErrStorage)
	assert.NoError(t, store.StoreEmbedding(VectorRecord{Topic: "a", Name: "b", Embedding: []float32{1, 0, 0}}))
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.db")

	store, err := OpenSQLiteVectorStore(path)
	require.NoError(t, err)
	require.NoError(t, store.StoreEmbedding(VectorRecord{Topic: "a", Name: "b", Embedding: []float32{0, 1}}))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLiteVectorStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	has, err := reopened.HasEmbeddings()
	require.NoError(t, err)
	assert.True(t, has)

	// Dimension survives too.
	err = reopened.StoreEmbedding(VectorRecord{Topic: "c", Name: "d", Embedding: []float32{1, 2, 3}})
	assert.ErrorIs(t, err, ErrStorage)
}
