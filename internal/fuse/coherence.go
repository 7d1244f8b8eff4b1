package fuse

import (
	"math"
	"strings"
)

// coherenceStopWords is the small stop-word set the reference
// implementation filters out of its "meaningful overlap" bonus; kept
// distinct from internal/bm25's tokenizer stop-word set since it is used
// for a different purpose (bonus weighting, not corpus filtering).
var coherenceStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "is": {}, "are": {},
	"was": {}, "were": {}, "be": {}, "been": {}, "being": {}, "have": {}, "has": {}, "had": {},
	"do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {}, "should": {},
}

func wordSet(text string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = struct{}{}
	}
	return set
}

func intersect(a, b map[string]struct{}) map[string]struct{} {
	out := map[string]struct{}{}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	for w := range small {
		if _, ok := large[w]; ok {
			out[w] = struct{}{}
		}
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// coherence scores how well two chunks belong in the same fusion cluster:
// same-document and positional proximity, shared metadata, query-term
// overlap present in both chunks, overall token overlap, and a bonus for
// shared non-stop-word tokens. Clamped to 1.0.
func coherence(a, b ChunkInput, queryWords map[string]struct{}) float64 {
	score := 0.0

	if a.DocumentID == b.DocumentID {
		score += 0.3
		gap := abs(a.Sequence - b.Sequence)
		switch {
		case gap == 1:
			score += 0.2
		case gap <= 3:
			score += 0.1
		}
	}

	for key, va := range a.Metadata {
		if vb, ok := b.Metadata[key]; ok && va == vb {
			score += 0.1
		}
	}

	wordsA := wordSet(a.Content)
	wordsB := wordSet(b.Content)
	shared := intersect(wordsA, wordsB)

	commonQueryWords := intersect(shared, queryWords)
	if len(commonQueryWords) > 0 {
		score += math.Min(0.3, float64(len(commonQueryWords))*0.15)
	}

	if len(wordsA) > 0 && len(wordsB) > 0 {
		minLen := len(wordsA)
		if len(wordsB) < minLen {
			minLen = len(wordsB)
		}
		score += (float64(len(shared)) / float64(minLen)) * 0.3
	}

	meaningful := 0
	for w := range shared {
		if _, stop := coherenceStopWords[w]; !stop {
			meaningful++
		}
	}
	if meaningful > 0 {
		score += math.Min(0.2, float64(meaningful)*0.05)
	}

	return math.Min(1.0, score)
}

// topicCoherence measures how many content terms (length > 3) recur
// across at least 40% of the cluster's chunks, with a bonus for terms
// recurring across at least 60%.
func topicCoherence(chunks []ChunkInput) float64 {
	if len(chunks) < 2 {
		return 1.0
	}

	freq := map[string]int{}
	for _, c := range chunks {
		for _, w := range strings.Fields(strings.ToLower(c.Content)) {
			if len(w) > 3 {
				freq[w]++
			}
		}
	}
	if len(freq) == 0 {
		return 0.5
	}

	n := float64(len(chunks))
	commonTerms := 0
	highFreqTerms := 0
	for _, count := range freq {
		if float64(count) >= n*0.4 {
			commonTerms++
		}
		if float64(count) >= n*0.6 {
			highFreqTerms++
		}
	}

	total := float64(len(freq))
	base := float64(commonTerms) / total
	boost := math.Min(0.3, float64(highFreqTerms)/total)
	return math.Min(1.0, base*2.0+boost)
}

// temporalCoherence rewards clusters whose chunks, grouped by document,
// sit close together by sequence number: the average position gap within
// a document decays exponentially into a [0,1] coherence contribution,
// averaged across documents.
func temporalCoherence(chunks []ChunkInput) float64 {
	byDoc := map[string][]ChunkInput{}
	for _, c := range chunks {
		byDoc[c.DocumentID] = append(byDoc[c.DocumentID], c)
	}

	var scores []float64
	for _, docChunks := range byDoc {
		if len(docChunks) < 2 {
			scores = append(scores, 1.0)
			continue
		}
		sorted := append([]ChunkInput(nil), docChunks...)
		sortBySequence(sorted)

		var totalGap int
		for i := 1; i < len(sorted); i++ {
			totalGap += sorted[i].Sequence - sorted[i-1].Sequence
		}
		avgGap := float64(totalGap) / float64(len(sorted)-1)
		scores = append(scores, math.Exp(-avgGap/5.0))
	}

	if len(scores) == 0 {
		return 0.5
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

func sortBySequence(chunks []ChunkInput) {
	for i := 1; i < len(chunks); i++ {
		for j := i; j > 0 && chunks[j].Sequence < chunks[j-1].Sequence; j-- {
			chunks[j], chunks[j-1] = chunks[j-1], chunks[j]
		}
	}
}

// semanticDensity blends query-term coverage across the cluster with a
// preference for chunks near an optimal length of ~200 characters.
func semanticDensity(chunks []ChunkInput, queryWords map[string]struct{}) float64 {
	covered := map[string]struct{}{}
	var totalLen int
	for _, c := range chunks {
		words := wordSet(c.Content)
		for w := range intersect(words, queryWords) {
			covered[w] = struct{}{}
		}
		totalLen += len(c.Content)
	}

	coverage := 0.0
	if len(queryWords) > 0 {
		coverage = float64(len(covered)) / float64(len(queryWords))
	}

	const optimalLength = 200.0
	avgLength := float64(totalLen) / float64(len(chunks))
	lengthFactor := 1.0 - math.Abs(avgLength-optimalLength)/(optimalLength*2)
	if lengthFactor < 0 {
		lengthFactor = 0
	}

	return coverage*0.7 + lengthFactor*0.3
}
