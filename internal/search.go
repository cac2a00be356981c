package internal

import (
	"context"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	// SemanticThreshold is the minimum word-overlap score for a result.
	SemanticThreshold float32 = 0.2
	// EmbeddingThreshold is the minimum vector similarity for a result.
	EmbeddingThreshold float32 = 0.2
)

// SearchOptions control which strategies run and what content they see.
type SearchOptions struct {
	Topic         string
	CaseSensitive bool
	OverviewOnly  bool
	// Exact restricts search to substring matching.
	Exact bool
	Limit int
}

// SearchResult is one ranked insight. Score semantics depend on the
// strategy that produced it: occurrence counts for exact, [0,1]
// similarities otherwise.
type SearchResult struct {
	Topic    string
	Name     string
	Overview string
	Details  string
	Score    float32
}

// SearchEngine ranks insights with up to three strategies: substring
// occurrence counting, stop-word-filtered word overlap, and embedding
// similarity when a vector store and embedder are wired in. Results are
// merged, sorted by score, and deduplicated by key.
type SearchEngine struct {
	store   *FileStore
	indexer *Indexer
	logger  *log.Logger
}

func NewSearchEngine(store *FileStore, indexer *Indexer, logger *log.Logger) *SearchEngine {
	return &SearchEngine{store: store, indexer: indexer, logger: logger}
}

func (e *SearchEngine) Search(ctx context.Context, terms []string, opts SearchOptions) ([]SearchResult, error) {
	insights, err := e.store.List(opts.Topic)
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	if opts.Exact {
		results = e.exactSearch(insights, terms, opts)
	} else {
		results = e.semanticSearch(insights, terms, opts)
		if e.indexer != nil && e.indexer.Ready() {
			vector, err := e.vectorSearch(ctx, insights, terms, opts)
			if err != nil {
				// Word-overlap results already cover every insight, so a
				// missing daemon degrades rather than fails.
				e.logger.Warn("vector search unavailable", "err", err)
			} else {
				results = append(results, vector...)
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Topic != results[j].Topic {
			return results[i].Topic < results[j].Topic
		}
		return results[i].Name < results[j].Name
	})
	results = dedupeResults(results)

	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

// exactSearch scores each insight by summing substring occurrence counts
// of every term. Any positive count qualifies.
func (e *SearchEngine) exactSearch(insights []*Insight, terms []string, opts SearchOptions) []SearchResult {
	normTerms := normalizeTerms(terms, opts)

	var results []SearchResult
	for _, ins := range insights {
		content := searchContent(ins, opts)

		var score float32
		for _, term := range normTerms {
			score += float32(strings.Count(content, term))
		}
		if score > 0 {
			results = append(results, newSearchResult(ins, score))
		}
	}
	return results
}

func (e *SearchEngine) semanticSearch(insights []*Insight, terms []string, opts SearchOptions) []SearchResult {
	queryWords := extractWords(strings.Join(normalizeTerms(terms, opts), " "))

	var results []SearchResult
	for _, ins := range insights {
		score := semanticSimilarity(queryWords, searchContent(ins, opts))
		if score > SemanticThreshold {
			results = append(results, newSearchResult(ins, score))
		}
	}
	return results
}

// vectorSearch embeds the query, makes sure every candidate insight has a
// stored embedding, and ranks by vector similarity. Insights whose
// embedding cannot be computed stay covered by the word-overlap strategy.
func (e *SearchEngine) vectorSearch(ctx context.Context, insights []*Insight, terms []string, opts SearchOptions) ([]SearchResult, error) {
	query := strings.Join(normalizeTerms(terms, opts), " ")
	queryVec, err := e.indexer.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*Insight, len(insights))
	for _, ins := range insights {
		byID[ins.ID()] = ins
		if err := e.indexer.EnsureEmbedding(ctx, ins); err != nil {
			e.logger.Warn("embedding unavailable", "insight", ins.ID(), "err", err)
		}
	}

	matches, err := e.indexer.vectors.SearchSimilar(queryVec, len(insights), EmbeddingThreshold)
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	for _, m := range matches {
		ins, ok := byID[m.Topic+":"+m.Name]
		if !ok {
			// Stored embedding for an insight outside the topic filter
			// or one whose file is gone.
			continue
		}
		results = append(results, newSearchResult(ins, m.Similarity))
	}
	return results, nil
}

func newSearchResult(ins *Insight, score float32) SearchResult {
	return SearchResult{
		Topic:    ins.Topic,
		Name:     ins.Name,
		Overview: ins.Overview,
		Details:  ins.Details,
		Score:    score,
	}
}

// searchContent flattens the searchable fields of an insight, honoring
// overview-only and case-folding options.
func searchContent(ins *Insight, opts SearchOptions) string {
	var content string
	if opts.OverviewOnly {
		content = ins.Topic + " " + ins.Name + " " + ins.Overview
	} else {
		content = ins.Topic + " " + ins.Name + " " + ins.Overview + " " + ins.Details
	}
	if !opts.CaseSensitive {
		content = strings.ToLower(content)
	}
	return content
}

func normalizeTerms(terms []string, opts SearchOptions) []string {
	if opts.CaseSensitive {
		return terms
	}
	normalized := make([]string, len(terms))
	for i, t := range terms {
		normalized[i] = strings.ToLower(t)
	}
	return normalized
}

// dedupeResults drops later results sharing a key with an earlier one.
// Input must already be sorted, so the kept result is the best-scoring.
func dedupeResults(results []SearchResult) []SearchResult {
	seen := make(map[string]struct{}, len(results))
	out := results[:0]
	for _, r := range results {
		key := r.Topic + ":" + r.Name
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
