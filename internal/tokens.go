package internal

import (
	"math"
	"strings"
	"unicode"
)

// stopWords are common English words excluded from word-overlap scoring.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {},
	"and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "over": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "have": {}, "has": {}, "had": {},
	"do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {}, "should": {},
	"you": {}, "your": {}, "we": {}, "our": {}, "us": {}, "they": {}, "them": {}, "their": {}, "it": {}, "its": {},
}

// extractWords lowercases text, strips surrounding punctuation from each
// whitespace-separated token and drops stop words.
func extractWords(text string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, tok := range strings.Fields(text) {
		word := strings.ToLower(strings.TrimFunc(tok, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}))
		if word == "" {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		words[word] = struct{}{}
	}
	return words
}

// semanticSimilarity scores content against a pre-extracted query word set
// with a blend of Jaccard overlap and a frequency boost: 60% intersection
// over union, 40% mean ln(1+occurrences) capped at 1.
func semanticSimilarity(queryWords map[string]struct{}, content string) float32 {
	contentWords := extractWords(strings.ToLower(content))
	if len(queryWords) == 0 || len(contentWords) == 0 {
		return 0
	}

	intersection := 0
	for w := range queryWords {
		if _, ok := contentWords[w]; ok {
			intersection++
		}
	}
	union := len(queryWords) + len(contentWords) - intersection
	jaccard := float32(intersection) / float32(union)

	contentLower := strings.ToLower(content)
	var frequency float64
	for w := range queryWords {
		count := strings.Count(contentLower, w)
		frequency += math.Log1p(float64(count))
	}
	frequency /= float64(len(queryWords))
	if frequency > 1 {
		frequency = 1
	}

	return jaccard*0.6 + float32(frequency)*0.4
}
