package rag

import (
	"context"

	"github.com/goldentooth/knowledgeengine/internal/kerrors"
	"github.com/goldentooth/knowledgeengine/internal/relate"
)

// RelationshipOptions tunes the relationship-aware query entry point.
type RelationshipOptions struct {
	Hybrid HybridOptions
	// Radius is how many relationship hops to expand from the base
	// hybrid hits. Defaults to defaultRelationshipRadius.
	Radius int
	// MinStrength drops any relationship edge weaker than it when
	// expanding. Defaults to defaultRelationshipMinStrength.
	MinStrength float64
}

const (
	defaultRelationshipRadius      = 1
	defaultRelationshipMinStrength = relate.ThresholdWeak
)

const relationshipSystemPrompt = `You are answering questions using numbered sources. Some are marked "related": they were not retrieved directly but are linked to a directly retrieved source by a stored relationship. Prefer the directly retrieved sources, and use related sources only to fill gaps. Cite sources by number.`

// QueryWithRelationships is C9's fifth entry point: run hybrid_query,
// then breadth-first expand the retrieved chunk ids across the stored
// relationship graph (sequential, hierarchical, topical, cross_document
// edges) and append any newly discovered chunks as additional sources,
// marked Related, before regenerating the answer.
func (e *Engine) QueryWithRelationships(ctx context.Context, question string, opts RelationshipOptions) (*Result, error) {
	radius := opts.Radius
	if radius <= 0 {
		radius = defaultRelationshipRadius
	}
	minStrength := opts.MinStrength
	if minStrength <= 0 {
		minStrength = defaultRelationshipMinStrength
	}

	result, err := e.HybridQuery(ctx, question, opts.Hybrid)
	if err != nil {
		return nil, err
	}

	baseIDs := make([]string, 0, len(result.Sources))
	for _, s := range result.Sources {
		baseIDs = append(baseIDs, s.ChunkID)
	}
	if len(baseIDs) == 0 {
		return result, nil
	}

	expandedIDs, err := relate.ExpandChunkIDs(ctx, e.store, baseIDs, radius, minStrength)
	if err != nil {
		return nil, kerrors.Wrap(kerrors.StorageFailure, "expand chunk relationships", err)
	}
	if len(expandedIDs) == 0 {
		return result, nil
	}

	sources := append([]Source(nil), result.Sources...)
	for _, id := range expandedIDs {
		chunk, getErr := e.store.GetChunk(ctx, id)
		if getErr != nil {
			continue
		}
		sources = append(sources, Source{
			ChunkID:    chunk.ChunkID,
			DocumentID: chunk.DocumentID,
			Title:      chunk.Title,
			ChunkType:  chunk.ChunkType,
			Content:    chunk.Content,
			Related:    true,
		})
	}
	numberSources(sources)

	result.Sources = sources
	result.Context = assembleRelationshipContext(sources)
	result.Metadata["related_chunks_added"] = len(expandedIDs)

	e.generateAnswer(ctx, result, relationshipSystemPrompt, userMessage(question, result.Context))
	return result, nil
}
