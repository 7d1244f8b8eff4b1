// Package bm25 implements knowledgeengine's C5 lexical scorer: corpus
// statistics and hand-rolled BM25 ranking over the chunk set internal/store
// persists, reading term postings from its FTS5-backed postings store
// instead of re-tokenizing on every build.
package bm25

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/goldentooth/knowledgeengine/internal/store"
)

// Config tunes the BM25 formula. B is clamped to [0, 1] by New.
type Config struct {
	K1 float64
	B  float64
}

// DefaultConfig returns the spec's default BM25 parameters.
func DefaultConfig() Config {
	return Config{K1: 1.5, B: 0.75}
}

// idfFloor prevents terms appearing in every document from contributing an
// exact-zero IDF.
const idfFloor = 0.01

// Result is a single scored document.
type Result struct {
	ChunkID      string
	Score        float64
	MatchedTerms []string
}

// docInfo is a corpus entry's filtering metadata.
type docInfo struct {
	storeType string
	isChunk   bool
	length    int
}

// Scorer holds rebuildable BM25 corpus statistics. Besides the embedder's
// LRU, the corpus is the only cache the engine keeps; it is rebuilt
// wholesale on any structural change to the indexed chunk set, never
// incrementally patched.
type Scorer struct {
	mu sync.RWMutex

	cfg       Config
	stopWords map[string]struct{}

	docs         map[string]docInfo
	postings     map[string]map[string]int // term -> chunk_id -> term frequency
	docFreq      map[string]int            // term -> number of docs containing it
	totalDocs    int
	avgDocLength float64
	built        bool
}

// New constructs a Scorer, clamping B to [0, 1].
func New(cfg Config) *Scorer {
	if cfg.B < 0 {
		cfg.B = 0
	}
	if cfg.B > 1 {
		cfg.B = 1
	}
	return &Scorer{cfg: cfg, stopWords: DefaultStopWords}
}

// Build rebuilds the corpus statistics from src, wholesale, discarding
// whatever was there before.
func (s *Scorer) Build(ctx context.Context, src *store.Store) error {
	corpusDocs, err := src.CorpusDocuments(ctx)
	if err != nil {
		return fmt.Errorf("load corpus documents: %w", err)
	}
	postings, err := src.TermPostings(ctx)
	if err != nil {
		return fmt.Errorf("load term postings: %w", err)
	}

	docs := make(map[string]docInfo, len(corpusDocs))
	for _, d := range corpusDocs {
		docs[d.ChunkID] = docInfo{storeType: d.StoreType, isChunk: d.IsChunk}
	}

	lengths := map[string]int{}
	docFreq := map[string]int{}
	for term, byDoc := range postings {
		docFreq[term] = len(byDoc)
		for chunkID, count := range byDoc {
			lengths[chunkID] += count
		}
	}

	var totalLength int
	for chunkID, length := range lengths {
		if info, ok := docs[chunkID]; ok {
			info.length = length
			docs[chunkID] = info
			totalLength += length
		}
	}

	avg := 0.0
	if len(docs) > 0 {
		avg = float64(totalLength) / float64(len(docs))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = docs
	s.postings = postings
	s.docFreq = docFreq
	s.totalDocs = len(docs)
	s.avgDocLength = avg
	s.built = true
	return nil
}

// Built reports whether the corpus has been built at least once.
func (s *Scorer) Built() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.built
}

// Search scores query against the corpus, mirroring C3's store_filter and
// include_chunks filtering rules, and returns the top limit results sorted
// by score descending.
func (s *Scorer) Search(query string, limit int, storeFilter string, includeChunks bool) []*Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	terms := Tokenize(query, s.stopWords)
	if len(terms) == 0 || s.totalDocs == 0 {
		return []*Result{}
	}

	scores := map[string]float64{}
	matched := map[string]map[string]struct{}{}

	for _, term := range terms {
		byDoc, ok := s.postings[term]
		if !ok {
			continue
		}
		idf := s.idf(term)
		for chunkID, tf := range byDoc {
			info, ok := s.docs[chunkID]
			if !ok {
				continue
			}
			if storeFilter != "" && info.storeType != storeFilter {
				continue
			}
			if !includeChunks && info.isChunk {
				continue
			}

			scores[chunkID] += s.termScore(idf, tf, info.length)
			if matched[chunkID] == nil {
				matched[chunkID] = map[string]struct{}{}
			}
			matched[chunkID][term] = struct{}{}
		}
	}

	results := make([]*Result, 0, len(scores))
	for chunkID, raw := range scores {
		normalized := raw / float64(len(terms))
		termSet := matched[chunkID]
		termList := make([]string, 0, len(termSet))
		for t := range termSet {
			termList = append(termList, t)
		}
		sort.Strings(termList)
		results = append(results, &Result{ChunkID: chunkID, Score: normalized, MatchedTerms: termList})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}
	return results
}

// idf is the floored inverse document frequency for term.
func (s *Scorer) idf(term string) float64 {
	df := s.docFreq[term]
	if df == 0 {
		return 0
	}
	n := float64(s.totalDocs)
	raw := math.Log((n-float64(df)+0.5)/(float64(df)+0.5) + 1)
	if raw < idfFloor {
		return idfFloor
	}
	return raw
}

// termScore is the standard BM25 contribution of one query term for a
// document of the given term frequency and length.
func (s *Scorer) termScore(idf float64, tf, docLength int) float64 {
	if s.avgDocLength == 0 {
		return 0
	}
	k1 := s.cfg.K1
	b := s.cfg.B
	numerator := float64(tf) * (k1 + 1)
	denominator := float64(tf) + k1*(1-b+b*float64(docLength)/s.avgDocLength)
	if denominator == 0 {
		return 0
	}
	return idf * numerator / denominator
}

// Stats mirrors internal/store's IndexStats for the BM25 side.
type Stats struct {
	DocumentCount int
	TermCount     int
	AvgDocLength  float64
}

// Stats returns the current corpus statistics.
func (s *Scorer) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		DocumentCount: s.totalDocs,
		TermCount:     len(s.postings),
		AvgDocLength:  s.avgDocLength,
	}
}

// DocFrequency returns the number of documents containing term, 0 if the
// corpus has never seen it. internal/expand uses this to pick reformulation
// candidates by corpus rarity.
func (s *Scorer) DocFrequency(term string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docFreq[term]
}
