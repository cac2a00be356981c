package v1

import "time"

// Insight is a stored knowledge document.
type Insight struct {
	Topic    string `json:"topic"`
	Name     string `json:"name"`
	Overview string `json:"overview"`
	Details  string `json:"details"`
}

// SearchResult is one ranked search hit.
type SearchResult struct {
	Topic    string  `json:"topic"`
	Name     string  `json:"name"`
	Overview string  `json:"overview"`
	Details  string  `json:"details"`
	Score    float32 `json:"score"`
}

// IndexStats summarizes one indexing pass.
type IndexStats struct {
	Total    int `json:"total"`
	Embedded int `json:"embedded"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Commit is one recorded change in the insight store's history.
type Commit struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
