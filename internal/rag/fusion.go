package rag

import (
	"context"

	"github.com/goldentooth/knowledgeengine/internal/fuse"
	"github.com/goldentooth/knowledgeengine/internal/rank"
	"github.com/goldentooth/knowledgeengine/internal/store"
)

// FusionOptions tunes the fusion query entry point.
type FusionOptions struct {
	StoreFilter string
	Weights     rank.Weights
	MaxClusters int
}

const fusionSystemPrompt = `You are answering questions using the fused answers and any additional sources provided. Prefer the fused answers; use the additional sources only to fill gaps. Cite sources by number.`

// QueryWithFusion is C9's third entry point: calls HybridQuery with a
// larger k, converts chunk hits to C8's input shape, runs C8, and
// builds a context presenting fused answers first, then unfused hits.
func (e *Engine) QueryWithFusion(ctx context.Context, question string, opts FusionOptions) (*Result, error) {
	result := &Result{Query: question, Metadata: newMetadata()}

	items, err := e.hybridSearch(ctx, question, HybridOptions{
		Limit:       e.cfg.FusionLimit,
		StoreFilter: opts.StoreFilter,
		Weights:     opts.Weights,
	})
	if err != nil {
		return nil, err
	}

	maxClusters := opts.MaxClusters
	if maxClusters <= 0 {
		maxClusters = 3
	}

	inputs := itemsToChunkInputs(ctx, e.store, items)
	answers := fuse.Fuse(question, inputs, e.cfg.FusionConfig, maxClusters)
	result.FusedAnswers = answers

	fusedChunkIDs := map[string]struct{}{}
	for _, a := range answers {
		for _, c := range a.SourceChunks {
			fusedChunkIDs[c.ChunkID] = struct{}{}
		}
	}

	var unfused []Source
	for _, it := range items {
		if _, ok := fusedChunkIDs[it.ChunkID]; ok {
			continue
		}
		unfused = append(unfused, Source{
			ChunkID:    it.ChunkID,
			DocumentID: it.DocumentID,
			Title:      it.Title,
			ChunkType:  it.ChunkType,
			Content:    it.Preview,
			Score:      it.Score,
		})
	}
	numberSources(unfused)

	result.Sources = unfused
	result.Context = assembleFusionContext(answers, unfused)

	e.generateAnswer(ctx, result, fusionSystemPrompt, userMessage(question, result.Context))
	return result, nil
}

// itemsToChunkInputs converts hybrid-ranked items to C8's ChunkInput
// shape, re-fetching each full chunk record for sequence/metadata that
// rank.Item's preview-sized fields don't carry.
func itemsToChunkInputs(ctx context.Context, src *store.Store, items []*rank.Item) []fuse.ChunkInput {
	inputs := make([]fuse.ChunkInput, 0, len(items))
	for _, it := range items {
		record, err := src.GetChunk(ctx, it.ChunkID)
		if err != nil {
			inputs = append(inputs, fuse.ChunkInput{
				ChunkID: it.ChunkID, DocumentID: it.DocumentID, Title: it.Title,
				Content: it.Preview, Relevance: it.Score,
			})
			continue
		}
		inputs = append(inputs, fuse.ChunkInput{
			ChunkID:    record.ChunkID,
			DocumentID: record.DocumentID,
			Sequence:   record.Sequence,
			Title:      record.Title,
			Content:    record.Content,
			Metadata:   record.Metadata,
			Relevance:  it.Score,
		})
	}
	return inputs
}
