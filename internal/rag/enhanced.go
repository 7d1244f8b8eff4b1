package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/goldentooth/knowledgeengine/internal/expand"
	"github.com/goldentooth/knowledgeengine/internal/fuse"
	"github.com/goldentooth/knowledgeengine/internal/rank"
)

// EnhancedOptions tunes the enhanced query entry point.
type EnhancedOptions struct {
	StoreFilter   string
	DomainContext string
	MaxClusters   int
}

// strategyBoostPerExtra is added, per additional strategy an item
// appears under, to its merged score, capped at strategyBoostCap.
const (
	strategyBoostPerExtra = 0.05
	strategyBoostCap      = 0.20
	minMergedResults      = 3
)

const enhancedSystemPrompt = `You are answering questions using fused answers assembled from several search strategies, plus any additional sources. Prefer the fused answers. Cite sources by number.`

// EnhancedQuery is C9's fourth entry point: invokes C7 for strategies,
// executes each via hybrid search, merges across strategies with a
// multi-strategy boost, auto-reformulates on thin recall, feeds C8,
// and assembles a strategy-annotated context.
func (e *Engine) EnhancedQuery(ctx context.Context, question string, opts EnhancedOptions) (*Result, error) {
	result := &Result{Query: question, Metadata: newMetadata()}

	expansion := expand.Expand(question, opts.DomainContext)
	strategyNames := make([]string, 0, len(expansion.Strategies))
	for _, s := range expansion.Strategies {
		strategyNames = append(strategyNames, s.Name)
	}
	result.Strategies = strategyNames

	merged, err := e.runStrategies(ctx, expansion.Strategies, opts.StoreFilter)
	if err != nil {
		return nil, err
	}

	if len(merged) < minMergedResults {
		reformulations := expand.Reformulate(question, e.scorer)
		broader := expand.Strategy{Name: "reformulated_broader", Query: reformulations.Broader, Weights: e.cfg.Hybrid, Limit: e.cfg.FusionLimit}
		extra, err := e.runStrategies(ctx, []expand.Strategy{broader}, opts.StoreFilter)
		if err == nil {
			merged = mergeStrategyItems(merged, extra)
			result.Strategies = append(result.Strategies, broader.Name)
		}
	}

	items := make([]*rank.Item, 0, len(merged))
	strategyByChunk := map[string][]string{}
	for _, mi := range merged {
		items = append(items, mi.item)
		strategyByChunk[mi.item.ChunkID] = mi.strategies
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ChunkID < items[j].ChunkID
	})

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
			ChunkID: it.ChunkID, DocumentID: it.DocumentID, Title: it.Title,
			ChunkType: it.ChunkType, Content: it.Preview, Score: it.Score,
			StrategyName: strings.Join(strategyByChunk[it.ChunkID], ","),
		})
	}
	numberSources(unfused)

	result.Sources = unfused
	result.Context = assembleFusionContext(answers, unfused) + strategyFooter(strategyNames)

	e.generateAnswer(ctx, result, enhancedSystemPrompt, userMessage(question, result.Context))
	return result, nil
}

type mergedItem struct {
	item       *rank.Item
	strategies []string
	baseScore  float64
}

func (mi *mergedItem) addStrategy(name string) {
	mi.strategies = append(mi.strategies, name)
	boost := strategyBoostPerExtra * float64(len(mi.strategies)-1)
	if boost > strategyBoostCap {
		boost = strategyBoostCap
	}
	mi.item.Score = mi.baseScore + boost
}

// runStrategies executes each strategy via hybridSearch and merges the
// results, deduplicating by chunk id and additively boosting items
// that appear under more than one strategy.
func (e *Engine) runStrategies(ctx context.Context, strategies []expand.Strategy, storeFilter string) ([]mergedItem, error) {
	var merged []mergedItem
	byChunk := map[string]int{} // chunk_id -> index into merged

	for _, s := range strategies {
		limit := s.Limit
		if limit <= 0 {
			limit = e.cfg.DefaultLimit
		}
		items, err := e.hybridSearch(ctx, s.Query, HybridOptions{Limit: limit, StoreFilter: storeFilter, Weights: s.Weights})
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			if s.Threshold >= 0 && it.Score < s.Threshold {
				continue
			}
			if idx, ok := byChunk[it.ChunkID]; ok {
				merged[idx].addStrategy(s.Name)
				continue
			}
			clone := *it
			byChunk[it.ChunkID] = len(merged)
			merged = append(merged, mergedItem{item: &clone, strategies: []string{s.Name}, baseScore: clone.Score})
		}
	}
	return merged, nil
}

// mergeStrategyItems appends a reformulation pass's results onto an
// existing merged set, boosting chunks already present instead of
// duplicating them.
func mergeStrategyItems(base []mergedItem, extra []mergedItem) []mergedItem {
	byChunk := map[string]int{}
	for i, mi := range base {
		byChunk[mi.item.ChunkID] = i
	}
	for _, mi := range extra {
		if idx, ok := byChunk[mi.item.ChunkID]; ok {
			for _, name := range mi.strategies {
				base[idx].addStrategy(name)
			}
			continue
		}
		byChunk[mi.item.ChunkID] = len(base)
		base = append(base, mi)
	}
	return base
}

func strategyFooter(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return fmt.Sprintf("\nStrategies used: %s\n", strings.Join(names, ", "))
}
