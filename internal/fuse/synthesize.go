package fuse

import (
	"fmt"
	"sort"
	"strings"
)

// negationWords flags a sentence as carrying a negation for the
// contradiction heuristic.
var negationWords = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "none": {}, "neither": {}, "nor": {},
	"don't": {}, "doesn't": {}, "didn't": {}, "won't": {}, "wouldn't": {},
	"can't": {}, "couldn't": {},
}

// Fuse clusters ranked (assumed sorted by descending relevance) by
// pairwise coherence and synthesizes one FusedAnswer per surviving
// cluster, up to maxClusters, sorted by confidence score descending.
// Returns nil if there are fewer than cfg.MinChunksForFusion candidates.
func Fuse(query string, ranked []ChunkInput, cfg Config, maxClusters int) []*FusedAnswer {
	if len(ranked) < cfg.MinChunksForFusion {
		return nil
	}

	candidates := ranked
	if len(candidates) > cfg.MaxChunksForFusion {
		candidates = candidates[:cfg.MaxChunksForFusion]
	}

	clusters := clusterChunks(candidates, query, cfg)
	if maxClusters > 0 && maxClusters < len(clusters) {
		clusters = clusters[:maxClusters]
	}

	answers := make([]*FusedAnswer, 0, len(clusters))
	for _, c := range clusters {
		if answer := synthesizeAnswer(c, query, cfg); answer != nil {
			answers = append(answers, answer)
		}
	}

	sort.Slice(answers, func(i, j int) bool {
		return answers[i].ConfidenceScore > answers[j].ConfidenceScore
	})
	return answers
}

func synthesizeAnswer(c *chunkCluster, query string, cfg Config) *FusedAnswer {
	if len(c.chunks) == 0 {
		return nil
	}

	keyPoints := extractKeyPoints(c.chunks, query, cfg.DeduplicationThreshold)
	contradictions := detectContradictions(c.chunks)
	content := buildContent(c.chunks, keyPoints, query)

	completeness := completenessScore(keyPoints, query)
	coherenceScore := c.topicCoherence * c.temporalCoherence
	relevance := c.averageRelevance()

	confidence := completeness*cfg.CompletenessWeight +
		coherenceScore*cfg.CoherenceWeight +
		relevance*cfg.RelevanceWeight

	return &FusedAnswer{
		Content:           content,
		SourceChunks:      c.chunks,
		ConfidenceScore:   confidence,
		CoherenceScore:    coherenceScore,
		CompletenessScore: completeness,
		TopicCoherence:    c.topicCoherence,
		TemporalCoherence: c.temporalCoherence,
		SemanticDensity:   c.semanticDensity,
		KeyPoints:         keyPoints,
		Contradictions:    contradictions,
	}
}

// extractKeyPoints collects sentences mentioning a query term, deduped by
// Jaccard word-overlap against previously kept points, up to 10.
func extractKeyPoints(chunks []ChunkInput, query string, dedupThreshold float64) []string {
	queryWords := wordSet(query)
	var points []string

	for _, c := range chunks {
		for _, raw := range strings.Split(c.Content, ".") {
			sentence := strings.TrimSpace(raw)
			if sentence == "" || len(sentence) <= 20 {
				continue
			}
			if len(intersect(wordSet(sentence), queryWords)) == 0 {
				continue
			}
			if isDuplicatePoint(sentence, points, dedupThreshold) {
				continue
			}
			points = append(points, sentence)
			if len(points) >= 10 {
				return points
			}
		}
	}
	return points
}

func isDuplicatePoint(sentence string, existing []string, threshold float64) bool {
	for _, point := range existing {
		if jaccardSimilarity(sentence, point) > threshold {
			return true
		}
	}
	return false
}

func jaccardSimilarity(a, b string) float64 {
	wordsA, wordsB := wordSet(a), wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}
	inter := len(intersect(wordsA, wordsB))
	union := len(wordsA) + len(wordsB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// detectContradictions flags sentence pairs from different chunks that
// share substantial vocabulary but disagree on negation, up to 5.
func detectContradictions(chunks []ChunkInput) []Contradiction {
	var out []Contradiction
	for i := 0; i < len(chunks); i++ {
		sentencesA := splitSentences(chunks[i].Content)
		for j := i + 1; j < len(chunks); j++ {
			sentencesB := splitSentences(chunks[j].Content)
			for _, sa := range sentencesA {
				for _, sb := range sentencesB {
					if areContradictory(sa, sb) {
						out = append(out, Contradiction{
							ChunkIDA:  chunks[i].ChunkID,
							SentenceA: sa,
							ChunkIDB:  chunks[j].ChunkID,
							SentenceB: sb,
						})
						if len(out) >= 5 {
							return out
						}
					}
				}
			}
		}
	}
	return out
}

func splitSentences(content string) []string {
	var out []string
	for _, raw := range strings.Split(content, ".") {
		if s := strings.TrimSpace(raw); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func areContradictory(a, b string) bool {
	wordsA, wordsB := wordSet(a), wordSet(b)
	overlap := intersect(wordsA, wordsB)
	if len(overlap) < 3 {
		return false
	}
	return hasNegation(wordsA) != hasNegation(wordsB)
}

func hasNegation(words map[string]struct{}) bool {
	for w := range words {
		if _, ok := negationWords[w]; ok {
			return true
		}
	}
	return false
}

// buildContent assembles the synthesized answer text: an introduction
// when multiple documents contribute, the extracted key points, then the
// source chunks grouped by document and ordered by sequence.
func buildContent(chunks []ChunkInput, keyPoints []string, query string) string {
	sorted := append([]ChunkInput(nil), chunks...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].DocumentID != sorted[j].DocumentID {
			return sorted[i].DocumentID < sorted[j].DocumentID
		}
		return sorted[i].Sequence < sorted[j].Sequence
	})

	uniqueDocs := map[string]struct{}{}
	for _, c := range chunks {
		uniqueDocs[c.DocumentID] = struct{}{}
	}

	var sections []string
	if len(uniqueDocs) > 1 {
		sections = append(sections, fmt.Sprintf("Based on information from %d sources regarding '%s':\n", len(uniqueDocs), query))
	}

	if len(keyPoints) > 0 {
		sections = append(sections, "Key Information:")
		for i, point := range keyPoints {
			sections = append(sections, fmt.Sprintf("%d. %s", i+1, point))
		}
		sections = append(sections, "")
	}

	sections = append(sections, "Detailed Context:")
	currentDoc := ""
	for _, c := range sorted {
		if c.DocumentID != currentDoc {
			currentDoc = c.DocumentID
			if c.Title != "" {
				sections = append(sections, fmt.Sprintf("\nFrom '%s':", c.Title))
			} else {
				sections = append(sections, fmt.Sprintf("\nFrom document %s:", c.DocumentID))
			}
		}
		sections = append(sections, fmt.Sprintf("[Section %d] %s", c.Sequence, c.Content))
	}

	return strings.Join(sections, "\n")
}

func completenessScore(keyPoints []string, query string) float64 {
	if len(keyPoints) == 0 {
		return 0
	}
	queryWords := wordSet(query)
	covered := map[string]struct{}{}
	for _, point := range keyPoints {
		for w := range intersect(wordSet(point), queryWords) {
			covered[w] = struct{}{}
		}
	}

	coverage := 0.0
	if len(queryWords) > 0 {
		coverage = float64(len(covered)) / float64(len(queryWords))
	}

	pointFactor := float64(len(keyPoints)) / 5.0
	if pointFactor > 1.0 {
		pointFactor = 1.0
	}

	return coverage*0.7 + pointFactor*0.3
}
