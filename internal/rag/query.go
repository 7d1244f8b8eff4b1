package rag

import (
	"context"
	"fmt"

	"github.com/goldentooth/knowledgeengine/internal/kerrors"
)

// QueryOptions tunes the baseline query entry point.
type QueryOptions struct {
	Limit int
	// StoreFilter restricts results to one store_type ("repo", "org", "note").
	StoreFilter string
	// ChunkTypeFilter restricts results to one chunk_type, applied after
	// retrieval since C3's search has no native chunk_type predicate.
	ChunkTypeFilter string
	// PrioritizeChunks includes chunk-level rows (is_chunk = 1) in
	// addition to document-level rows. False restricts to document-level
	// rows only.
	PrioritizeChunks bool
	// Threshold drops any hit with similarity below it.
	Threshold float64
}

// Query is C9's baseline entry point: one embedding, one C3 search,
// optional chunk prioritization and chunk-type filter, threshold
// filter, context assembly, delegate generation.
func (e *Engine) Query(ctx context.Context, question string, opts QueryOptions) (*Result, error) {
	result := &Result{Query: question, Metadata: newMetadata()}

	vec, err := e.embedQuery(ctx, question)
	if err != nil {
		return nil, err
	}

	limit := clampLimit(opts.Limit, e.cfg.DefaultLimit, e.cfg.MaxLimit)
	hits, err := e.store.SearchSimilar(ctx, vec, limit*2, opts.StoreFilter, opts.PrioritizeChunks)
	if err != nil {
		return nil, kerrors.Wrap(kerrors.StorageFailure, "search similar", err)
	}

	sources := make([]Source, 0, len(hits))
	for _, h := range hits {
		if opts.ChunkTypeFilter != "" && h.ChunkType != opts.ChunkTypeFilter {
			continue
		}
		if h.Similarity < opts.Threshold {
			continue
		}
		sources = append(sources, Source{
			ChunkID:    h.ChunkID,
			DocumentID: h.DocumentID,
			Title:      h.Title,
			ChunkType:  h.ChunkType,
			Content:    h.Preview,
			Score:      h.Similarity,
		})
		if len(sources) >= limit {
			break
		}
	}
	numberSources(sources)

	result.Sources = sources
	result.Context = assembleContext(sources)
	e.generateAnswer(ctx, result, baselineSystemPrompt, userMessage(question, result.Context))
	return result, nil
}

const baselineSystemPrompt = `You are answering questions using only the numbered sources provided. Cite sources by number. If the sources do not contain the answer, say so plainly.`

func userMessage(question, context string) string {
	return fmt.Sprintf("Question: %s\n\nSources:\n%s", question, context)
}

// numberSources assigns 1-based presentation order in place.
func numberSources(sources []Source) {
	for i := range sources {
		sources[i].Index = i + 1
	}
}

// sourceLabel renders the "parent document + chunk title" name §4.9
// requires for a chunk source.
func sourceLabel(s Source) string {
	if s.Title != "" {
		return fmt.Sprintf("%s / %s", s.DocumentID, s.Title)
	}
	return s.DocumentID
}
