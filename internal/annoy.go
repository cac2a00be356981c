package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mariotoffia/goannoy/builder"
	"github.com/mariotoffia/goannoy/interfaces"
)

const recordsFilename = "records.json"

// AnnoyVectorStore keeps embeddings in memory and answers queries through
// an annoy index rebuilt lazily after mutations. Annoy cannot delete
// items, so the authoritative state is the records map and the index is a
// disposable view of it.
type AnnoyVectorStore struct {
	mu        sync.RWMutex
	records   map[string]VectorRecord
	idx       interfaces.AnnoyIndex[float32, uint32]
	idToID    map[uint32]string
	dimension int
	basePath  string
	dirty     bool
}

var _ VectorStore = (*AnnoyVectorStore)(nil)

func OpenAnnoyVectorStore(basePath string, dimension int) (*AnnoyVectorStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create vectors directory: %w", err)
	}

	s := &AnnoyVectorStore{
		records:   make(map[string]VectorRecord),
		dimension: dimension,
		basePath:  basePath,
		dirty:     true,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *AnnoyVectorStore) StoreEmbedding(rec VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(rec.Embedding) != s.dimension {
		return fmt.Errorf("%w: vector dimension %d, store dimension %d", ErrStorage, len(rec.Embedding), s.dimension)
	}

	key := rec.Topic + ":" + rec.Name
	if prev, ok := s.records[key]; ok && !prev.CreatedAt.IsZero() {
		rec.CreatedAt = prev.CreatedAt
	}
	s.records[key] = rec
	s.dirty = true
	return s.save()
}

func (s *AnnoyVectorStore) UpdateEmbedding(rec VectorRecord) error {
	return s.StoreEmbedding(rec)
}

func (s *AnnoyVectorStore) DeleteEmbedding(topic, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, topic+":"+name)
	s.dirty = true
	return s.save()
}

func (s *AnnoyVectorStore) HasEmbeddings() (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records) > 0, nil
}

func (s *AnnoyVectorStore) ClearAllEmbeddings() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]VectorRecord)
	s.dirty = true
	return s.save()
}

func (s *AnnoyVectorStore) Reshape(dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]VectorRecord)
	s.dimension = dimension
	s.dirty = true
	return s.save()
}

func (s *AnnoyVectorStore) SearchSimilar(query []float32, limit int, threshold float32) ([]VectorSearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(query) != s.dimension {
		return nil, fmt.Errorf("%w: query dimension %d, store dimension %d", ErrStorage, len(query), s.dimension)
	}
	if len(s.records) == 0 {
		return nil, nil
	}
	if s.dirty {
		s.rebuild()
	}

	k := limit
	if k <= 0 || k > len(s.records) {
		k = len(s.records)
	}

	searchCtx := s.idx.CreateContext()
	ids, distances := s.idx.GetNnsByVector(query, k, -1, searchCtx)

	results := make([]VectorSearchResult, 0, len(ids))
	for i, id := range ids {
		key, ok := s.idToID[id]
		if !ok {
			continue
		}
		rec := s.records[key]

		// Angular distance is in [0, 2]; map it onto [0, 1] similarity.
		var sim float32
		if i < len(distances) {
			sim = 1.0 - distances[i]/2.0
		}
		if threshold > 0 && sim < threshold {
			continue
		}

		results = append(results, VectorSearchResult{
			Topic:      rec.Topic,
			Name:       rec.Name,
			Similarity: sim,
		})
	}
	return results, nil
}

func (s *AnnoyVectorStore) Close() error {
	return nil
}

// rebuild constructs a fresh annoy index over the current records. Caller
// holds the write lock.
func (s *AnnoyVectorStore) rebuild() {
	idx := builder.Index[float32, uint32]().
		AngularDistance(s.dimension).
		UseMultiWorkerPolicy().
		MmapIndexAllocator().
		Build()

	idToID := make(map[uint32]string, len(s.records))
	var next uint32
	for key, rec := range s.records {
		idx.AddItem(next, rec.Embedding)
		idToID[next] = key
		next++
	}
	idx.Build(10, -1)

	s.idx = idx
	s.idToID = idToID
	s.dirty = false
}

func (s *AnnoyVectorStore) save() error {
	data, err := json.Marshal(s.records)
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	path := filepath.Join(s.basePath, recordsFilename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	return nil
}

func (s *AnnoyVectorStore) load() error {
	data, err := os.ReadFile(filepath.Join(s.basePath, recordsFilename))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read records: %w", err)
	}
	if err := json.Unmarshal(data, &s.records); err != nil {
		return fmt.Errorf("unmarshal records: %w", err)
	}
	return nil
}
