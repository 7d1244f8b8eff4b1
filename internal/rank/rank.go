// Package rank implements knowledgeengine's C6 hybrid ranker: a weighted
// fusion of C3's dense ranking and C5's lexical ranking, with additive
// boosts for exact and field matches. Results are merged by chunk id into
// a map, scored, then sorted deterministically by score and id.
package rank

import (
	"context"
	"sort"
	"strings"

	"github.com/goldentooth/knowledgeengine/internal/bm25"
	"github.com/goldentooth/knowledgeengine/internal/store"
)

// Boost weights applied against content, title, chunk title, and document
// id, all compared lowercase.
const (
	BoostExactPhrase = 0.20
	BoostConsecutive = 0.15
	BoostTitle       = 0.15
	BoostChunkTitle  = 0.10
	BoostDocumentID  = 0.05
)

// Weights are the relative importance of semantic vs lexical scores.
// Fuse normalizes them to sum to 1.
type Weights struct {
	Semantic float64
	Lexical  float64
}

func (w Weights) normalize() Weights {
	total := w.Semantic + w.Lexical
	if total <= 0 {
		return Weights{Semantic: 1, Lexical: 0}
	}
	return Weights{Semantic: w.Semantic / total, Lexical: w.Lexical / total}
}

// Explain is a per-item scoring breakdown sufficient to reconstruct the
// computation, used by the explain endpoint.
type Explain struct {
	SemanticScore   float64
	LexicalScore    float64
	Base            float64
	ExactPhrase     bool
	ConsecutiveTerm bool
	TitleMatch      bool
	ChunkTitleMatch bool
	DocumentIDMatch bool
	Total           float64
}

// Item is one fused ranking result.
type Item struct {
	ChunkID      string
	StoreType    string
	DocumentID   string
	ChunkType    string
	Title        string
	Preview      string
	MatchedTerms []string
	Score        float64
	Explain      Explain
}

// Fuse merges a dense ranking and a lexical ranking keyed by chunk_id,
// computes base = w_sem*semantic + w_lex*lexical, applies the additive
// boosts, and returns the top-k items sorted by total score descending.
//
// The boosts compare against full chunk content and the parent document's
// title, not the previews semantic/lexical hits carry, so Fuse reads the
// full chunk (and its document's lead chunk, for the document-level title)
// from src. Every chunk in this schema carries a chunk_id, so the
// "{store_type}.{document_id}" fallback key the fusion procedure allows
// for identifier-less results never triggers here.
func Fuse(ctx context.Context, src *store.Store, query string, semantic []*store.SearchResult, lexical []*bm25.Result, weights Weights, topK int) ([]*Item, error) {
	w := weights.normalize()

	merged := map[string]*Item{}
	var order []string
	getOrCreate := func(chunkID string) *Item {
		item, ok := merged[chunkID]
		if !ok {
			item = &Item{ChunkID: chunkID}
			merged[chunkID] = item
			order = append(order, chunkID)
		}
		return item
	}

	for _, r := range semantic {
		item := getOrCreate(r.ChunkID)
		item.StoreType = r.StoreType
		item.DocumentID = r.DocumentID
		item.ChunkType = r.ChunkType
		item.Title = r.Title
		item.Preview = r.Preview
		item.Explain.SemanticScore = r.Similarity
	}

	for _, r := range lexical {
		item := getOrCreate(r.ChunkID)
		item.Explain.LexicalScore = r.Score
		item.MatchedTerms = r.MatchedTerms
	}

	queryLower := strings.ToLower(strings.TrimSpace(query))
	queryTerms := strings.Fields(queryLower)
	docTitles := map[string]string{}

	results := make([]*Item, 0, len(order))
	for _, chunkID := range order {
		item := merged[chunkID]
		item.Explain.Base = w.Semantic*item.Explain.SemanticScore + w.Lexical*item.Explain.LexicalScore

		content := item.Preview
		chunkTitle := item.Title
		if full, err := src.GetChunk(ctx, chunkID); err == nil && full != nil {
			content = full.Content
			item.Preview = preview(full.Content, 200)
			chunkTitle = full.Title
			if item.StoreType == "" {
				item.StoreType = full.StoreType
			}
			if item.DocumentID == "" {
				item.DocumentID = full.DocumentID
			}
			if item.ChunkType == "" {
				item.ChunkType = full.ChunkType
			}
			if item.Title == "" {
				item.Title = full.Title
			}
		}

		docTitle := lookupDocTitle(ctx, src, docTitles, item.StoreType, item.DocumentID)

		total := item.Explain.Base
		contentLower := strings.ToLower(content)

		if queryLower != "" && strings.Contains(contentLower, queryLower) {
			item.Explain.ExactPhrase = true
			total += BoostExactPhrase
		}
		if len(queryTerms) > 1 && strings.Contains(contentLower, strings.Join(queryTerms, " ")) {
			item.Explain.ConsecutiveTerm = true
			total += BoostConsecutive
		}
		if queryLower != "" && docTitle != "" && strings.Contains(strings.ToLower(docTitle), queryLower) {
			item.Explain.TitleMatch = true
			total += BoostTitle
		}
		if queryLower != "" && chunkTitle != "" && strings.Contains(strings.ToLower(chunkTitle), queryLower) {
			item.Explain.ChunkTitleMatch = true
			total += BoostChunkTitle
		}
		if queryLower != "" && strings.Contains(strings.ToLower(item.DocumentID), queryLower) {
			item.Explain.DocumentIDMatch = true
			total += BoostDocumentID
		}

		item.Score = total
		item.Explain.Total = total
		results = append(results, item)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	if topK > 0 && topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// lookupDocTitle returns the title of the document's lead chunk (sequence
// 1), caching per (store_type, document_id) within a single Fuse call.
func lookupDocTitle(ctx context.Context, src *store.Store, cache map[string]string, storeType, documentID string) string {
	if storeType == "" || documentID == "" {
		return ""
	}
	key := storeType + "." + documentID
	if title, ok := cache[key]; ok {
		return title
	}
	title := ""
	if chunks, err := src.GetDocumentChunks(ctx, storeType, documentID); err == nil {
		for _, c := range chunks {
			if c.Sequence == 1 {
				title = c.Title
				break
			}
		}
	}
	cache[key] = title
	return title
}

func preview(content string, maxChars int) string {
	if len(content) <= maxChars {
		return content
	}
	return content[:maxChars]
}
