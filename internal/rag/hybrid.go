package rag

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/goldentooth/knowledgeengine/internal/bm25"
	"github.com/goldentooth/knowledgeengine/internal/kerrors"
	"github.com/goldentooth/knowledgeengine/internal/rank"
	"github.com/goldentooth/knowledgeengine/internal/store"
)

// HybridOptions tunes the hybrid query entry point.
type HybridOptions struct {
	Limit       int
	StoreFilter string
	Weights     rank.Weights
	Explain     bool
}

// HybridQuery is C9's second entry point: runs C3 (vector) and C5
// (BM25) searches in parallel, merges via C6, and optionally attaches
// per-item score explanations.
func (e *Engine) HybridQuery(ctx context.Context, question string, opts HybridOptions) (*Result, error) {
	result := &Result{Query: question, Metadata: newMetadata()}
	items, err := e.hybridSearch(ctx, question, opts)
	if err != nil {
		return nil, err
	}

	sources := itemsToSources(items, opts.Explain)
	numberSources(sources)
	result.Sources = sources
	result.Context = assembleContext(sources)

	e.generateAnswer(ctx, result, baselineSystemPrompt, userMessage(question, result.Context))
	return result, nil
}

// hybridSearch is the shared core of HybridQuery, QueryWithFusion, and
// EnhancedQuery's per-strategy runs: fan out to C3 and C5 concurrently,
// then fuse via C6. Ordering between the two searches is not observable;
// the merged output is deterministic because C6 sorts by score then
// chunk id.
func (e *Engine) hybridSearch(ctx context.Context, query string, opts HybridOptions) ([]*rank.Item, error) {
	if err := e.ensureBM25Fresh(ctx); err != nil {
		return nil, err
	}

	limit := clampLimit(opts.Limit, e.cfg.DefaultLimit, e.cfg.MaxLimit)
	weights := opts.Weights
	if weights.Semantic == 0 && weights.Lexical == 0 {
		weights = e.cfg.Hybrid
	}

	var semantic []*store.SearchResult
	var lexical []*bm25.Result

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vec, embedErr := e.embedQuery(gctx, query)
		if embedErr != nil {
			return embedErr
		}
		hits, searchErr := e.store.SearchSimilar(gctx, vec, limit*2, opts.StoreFilter, true)
		if searchErr != nil {
			return kerrors.Wrap(kerrors.StorageFailure, "vector search", searchErr)
		}
		semantic = hits
		return nil
	})
	g.Go(func() error {
		lexical = e.scorer.Search(query, limit*2, opts.StoreFilter, true)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items, err := rank.Fuse(ctx, e.store, query, semantic, lexical, weights, limit)
	if err != nil {
		return nil, kerrors.Wrap(kerrors.StorageFailure, "fuse hybrid results", err)
	}
	return items, nil
}

func itemsToSources(items []*rank.Item, explain bool) []Source {
	sources := make([]Source, 0, len(items))
	for _, it := range items {
		s := Source{
			ChunkID:    it.ChunkID,
			DocumentID: it.DocumentID,
			Title:      it.Title,
			ChunkType:  it.ChunkType,
			Content:    it.Preview,
			Score:      it.Score,
		}
		if explain {
			e := it.Explain
			s.Explain = &e
		}
		sources = append(sources, s)
	}
	return sources
}
