// Package expand implements knowledgeengine's C7 query expander: a
// stateless language processor that classifies intent, extracts key terms,
// looks up synonyms and related terms, and produces expanded query
// variants and reformulations for the orchestrator's multi-strategy
// queries.
package expand

import (
	"sort"
	"strings"

	"github.com/goldentooth/knowledgeengine/internal/bm25"
	"github.com/goldentooth/knowledgeengine/internal/rank"
)

// KeyTerms tokenizes query, drops stop words and tokens of length <= 2,
// and sorts by descending length then lexicographically.
func KeyTerms(query string) []string {
	terms := bm25.Tokenize(query, bm25.DefaultStopWords)
	deduped := dedupe(terms)
	sort.Slice(deduped, func(i, j int) bool {
		if len(deduped[i]) != len(deduped[j]) {
			return len(deduped[i]) > len(deduped[j])
		}
		return deduped[i] < deduped[j]
	})
	return deduped
}

func dedupe(terms []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Strategy is one search variant with its own query string and weights,
// keyed to the detected intent.
type Strategy struct {
	Name      string
	Query     string
	Weights   rank.Weights
	Limit     int
	Threshold float64
}

// Expansion is the full result of expanding a query.
type Expansion struct {
	Query           string
	Intent          Intent
	KeyTerms        []string
	Synonyms        map[string][]string
	RelatedTerms    []string
	ExpandedQueries []string
	Strategies      []Strategy
}

// Expand runs the full C7 pipeline for query, optionally scoped to
// domainContext (e.g. "kubernetes", "networking") for contextual synonyms.
func Expand(query, domainContext string) *Expansion {
	intent := ClassifyIntent(query)
	keyTerms := KeyTerms(query)

	synonyms := map[string][]string{}
	for _, term := range keyTerms {
		syns := GetSynonyms(term, domainContext)
		syns = append(syns, MorphologicalVariants(term)...)
		if len(syns) > 0 {
			synonyms[term] = dedupe(syns)
		}
	}

	related := RelatedFor(keyTerms)

	return &Expansion{
		Query:           query,
		Intent:          intent,
		KeyTerms:        keyTerms,
		Synonyms:        synonyms,
		RelatedTerms:    related,
		ExpandedQueries: expandedQueries(query, keyTerms, synonyms, related, intent),
		Strategies:      strategies(query, keyTerms, related, intent),
	}
}

// expandedQueries builds: the original query, then one-for-one synonym
// substitutions, then related-term concatenations, then an
// intent-template augmentation.
func expandedQueries(query string, keyTerms []string, synonyms map[string][]string, related []string, intent Intent) []string {
	seen := map[string]struct{}{strings.ToLower(query): {}}
	out := []string{query}
	add := func(q string) {
		lower := strings.ToLower(q)
		if _, ok := seen[lower]; ok {
			return
		}
		seen[lower] = struct{}{}
		out = append(out, q)
	}

	for _, term := range keyTerms {
		for _, syn := range synonyms[term] {
			add(strings.Replace(query, term, syn, 1))
		}
	}

	for _, rel := range related {
		add(query + " " + rel)
	}

	if template, ok := intentTemplates[intent]; ok {
		add(template + " " + query)
	}

	return out
}

// strategies emits up to four named search strategies, each carrying
// parameters tuned to the detected intent.
func strategies(query string, keyTerms []string, related []string, intent Intent) []Strategy {
	base := rank.Weights{Semantic: 0.65, Lexical: 0.35}
	switch intent {
	case IntentFactual, IntentDefinitional, IntentTroubleshooting:
		base = rank.Weights{Semantic: 0.20, Lexical: 0.80}
	case IntentConceptual, IntentComparative:
		base = rank.Weights{Semantic: 0.80, Lexical: 0.20}
	}

	out := []Strategy{
		{Name: "primary", Query: query, Weights: base, Limit: 10, Threshold: 0.0},
	}

	if synonymEnhanced := synonymEnhancedQuery(query, keyTerms); synonymEnhanced != query {
		out = append(out, Strategy{Name: "synonym_enhanced", Query: synonymEnhanced, Weights: base, Limit: 10, Threshold: 0.0})
	}

	if len(related) > 0 {
		out = append(out, Strategy{
			Name:      "related_terms",
			Query:     query + " " + strings.Join(related, " "),
			Weights:   base,
			Limit:     10,
			Threshold: 0.0,
		})
	}

	out = append(out, Strategy{
		Name:      "broad_recall",
		Query:     query,
		Weights:   rank.Weights{Semantic: 0.7, Lexical: 0.3},
		Limit:     25,
		Threshold: -1.0,
	})

	return out
}

func synonymEnhancedQuery(query string, keyTerms []string) string {
	var extra []string
	for _, term := range keyTerms {
		syns := GetSynonyms(term, "")
		if len(syns) > 0 {
			extra = append(extra, syns[0])
		}
	}
	if len(extra) == 0 {
		return query
	}
	return query + " " + strings.Join(extra, " ")
}

// DocFrequencySource supplies corpus document frequency per term, used to
// pick reformulation candidates. *bm25.Scorer implements this.
type DocFrequencySource interface {
	DocFrequency(term string) int
}

// Reformulations holds the three reformulation variants produced on poor
// recall or low result quality.
type Reformulations struct {
	Broader      string
	MoreSpecific string
	MoreFocused  string
}

// Reformulate generates broader (drop the corpus-rarest key term),
// more-specific (add a related term), and more-focused (AND the two
// corpus-commonest key terms) variants of query.
func Reformulate(query string, freq DocFrequencySource) Reformulations {
	keyTerms := KeyTerms(query)
	related := RelatedFor(keyTerms)

	var result Reformulations

	if len(keyTerms) > 1 {
		rarest := rarestTerm(keyTerms, freq)
		var kept []string
		for _, t := range keyTerms {
			if t != rarest {
				kept = append(kept, t)
			}
		}
		result.Broader = strings.Join(kept, " ")
	} else {
		result.Broader = query
	}

	if len(related) > 0 {
		result.MoreSpecific = query + " " + related[0]
	} else {
		result.MoreSpecific = query
	}

	if len(keyTerms) >= 2 {
		commonest := commonestTerms(keyTerms, freq, 2)
		result.MoreFocused = strings.Join(commonest, " AND ")
	} else {
		result.MoreFocused = query
	}

	return result
}

func rarestTerm(terms []string, freq DocFrequencySource) string {
	if len(terms) == 0 {
		return ""
	}
	rarest := terms[0]
	rarestFreq := termFreq(rarest, freq)
	for _, t := range terms[1:] {
		f := termFreq(t, freq)
		if f < rarestFreq || (f == rarestFreq && t < rarest) {
			rarest = t
			rarestFreq = f
		}
	}
	return rarest
}

func commonestTerms(terms []string, freq DocFrequencySource, n int) []string {
	sorted := append([]string(nil), terms...)
	sort.Slice(sorted, func(i, j int) bool {
		fi, fj := termFreq(sorted[i], freq), termFreq(sorted[j], freq)
		if fi != fj {
			return fi > fj
		}
		return sorted[i] < sorted[j]
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

func termFreq(term string, freq DocFrequencySource) int {
	if freq == nil {
		return 0
	}
	return freq.DocFrequency(term)
}
