package bm25

import (
	"regexp"
	"strings"
)

// nonAlphanumericRun matches any run of characters that are not ASCII
// letters or digits.
var nonAlphanumericRun = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// minTokenLength is the shortest token kept after tokenization; tokens of
// length <= 2 are dropped.
const minTokenLength = 3

// DefaultStopWords is the fixed stop-word set filtered out during
// tokenization.
var DefaultStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "of": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "with": {}, "by": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "it": {}, "its": {},
	"as": {}, "from": {}, "into": {}, "about": {}, "not": {}, "has": {}, "have": {}, "had": {},
}

// Tokenize lowercases text, replaces every run of non-alphanumeric
// characters with a single space, splits on whitespace, drops tokens of
// length <= 2, and drops stop words.
func Tokenize(text string, stopWords map[string]struct{}) []string {
	normalized := nonAlphanumericRun.ReplaceAllString(strings.ToLower(text), " ")
	fields := strings.Fields(normalized)

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < minTokenLength {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
