package internal

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteVectorStore keeps embeddings in a single-file sqlite database.
// The dimension is pinned on first insert; every later vector must match.
type SQLiteVectorStore struct {
	db        *sql.DB
	dimension int
}

var _ VectorStore = (*SQLiteVectorStore)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS embeddings (
	id         TEXT NOT NULL,
	topic      TEXT NOT NULL,
	name       TEXT NOT NULL,
	overview   TEXT NOT NULL,
	details    TEXT NOT NULL,
	vector     BLOB NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (topic, name)
);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
`

func OpenSQLiteVectorStore(path string) (*SQLiteVectorStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init vector store: %w", err)
	}

	s := &SQLiteVectorStore{db: db}
	if err := s.loadDimension(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteVectorStore) loadDimension() error {
	var dim int
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'dimension'`).Scan(&dim)
	switch {
	case err == sql.ErrNoRows:
		return nil
	case err != nil:
		return fmt.Errorf("read dimension: %w", err)
	}
	s.dimension = dim
	return nil
}

func (s *SQLiteVectorStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteVectorStore) StoreEmbedding(rec VectorRecord) error {
	if err := s.pinDimension(len(rec.Embedding)); err != nil {
		return err
	}
	// Upserts keep the original created_at and only move updated_at.
	_, err := s.db.Exec(
		`INSERT INTO embeddings (id, topic, name, overview, details, vector, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(topic, name) DO UPDATE SET
			id = excluded.id,
			overview = excluded.overview,
			details = excluded.details,
			vector = excluded.vector,
			updated_at = excluded.updated_at`,
		rec.ID, rec.Topic, rec.Name, rec.Overview, rec.Details,
		encodeVector(rec.Embedding), rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("store embedding %s:%s: %w", rec.Topic, rec.Name, err)
	}
	return nil
}

func (s *SQLiteVectorStore) UpdateEmbedding(rec VectorRecord) error {
	return s.StoreEmbedding(rec)
}

func (s *SQLiteVectorStore) DeleteEmbedding(topic, name string) error {
	_, err := s.db.Exec(`DELETE FROM embeddings WHERE topic = ? AND name = ?`, topic, name)
	if err != nil {
		return fmt.Errorf("delete embedding %s:%s: %w", topic, name, err)
	}
	return nil
}

func (s *SQLiteVectorStore) HasEmbeddings() (bool, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM embeddings`).Scan(&n); err != nil {
		return false, fmt.Errorf("count embeddings: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteVectorStore) ClearAllEmbeddings() error {
	if _, err := s.db.Exec(`DELETE FROM embeddings`); err != nil {
		return fmt.Errorf("clear embeddings: %w", err)
	}
	return nil
}

// Reshape drops all stored vectors and pins a new dimension. There is no
// way to convert vectors between dimensions, so everything must be
// re-embedded afterwards.
func (s *SQLiteVectorStore) Reshape(dimension int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("reshape: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM embeddings`); err != nil {
		return fmt.Errorf("reshape: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO meta (key, value) VALUES ('dimension', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, dimension,
	); err != nil {
		return fmt.Errorf("reshape: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("reshape: %w", err)
	}

	s.dimension = dimension
	return nil
}

// SearchSimilar scans all stored vectors and ranks them by euclidean
// distance to the query. Fine for the store sizes a personal knowledge
// base reaches; an ANN index takes over past that.
func (s *SQLiteVectorStore) SearchSimilar(query []float32, limit int, threshold float32) ([]VectorSearchResult, error) {
	if s.dimension != 0 && len(query) != s.dimension {
		return nil, fmt.Errorf("%w: query dimension %d, store dimension %d", ErrStorage, len(query), s.dimension)
	}

	rows, err := s.db.Query(`SELECT topic, name, vector FROM embeddings`)
	if err != nil {
		return nil, fmt.Errorf("search embeddings: %w", err)
	}
	defer rows.Close()

	var results []VectorSearchResult
	for rows.Next() {
		var topic, name string
		var blob []byte
		if err := rows.Scan(&topic, &name, &blob); err != nil {
			return nil, fmt.Errorf("search embeddings: %w", err)
		}
		vec := decodeVector(blob)
		if len(vec) != len(query) {
			continue
		}
		sim := distanceToSimilarity(l2Distance(query, vec))
		if threshold > 0 && sim < threshold {
			continue
		}
		results = append(results, VectorSearchResult{Topic: topic, Name: name, Similarity: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search embeddings: %w", err)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *SQLiteVectorStore) pinDimension(dim int) error {
	if s.dimension == 0 {
		if _, err := s.db.Exec(
			`INSERT INTO meta (key, value) VALUES ('dimension', ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, dim,
		); err != nil {
			return fmt.Errorf("pin dimension: %w", err)
		}
		s.dimension = dim
		return nil
	}
	if dim != s.dimension {
		return fmt.Errorf("%w: vector dimension %d, store dimension %d", ErrStorage, dim, s.dimension)
	}
	return nil
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vec
}
