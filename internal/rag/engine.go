package rag

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/goldentooth/knowledgeengine/internal/bm25"
	"github.com/goldentooth/knowledgeengine/internal/embed"
	"github.com/goldentooth/knowledgeengine/internal/fuse"
	"github.com/goldentooth/knowledgeengine/internal/generate"
	"github.com/goldentooth/knowledgeengine/internal/kerrors"
	"github.com/goldentooth/knowledgeengine/internal/rank"
	"github.com/goldentooth/knowledgeengine/internal/store"
)

// Config tunes the orchestrator. NewEngine uses it as given and does not
// replace zero-value fields; callers start from DefaultConfig.
type Config struct {
	Hybrid        rank.Weights
	Temperature   float32
	MaxTokens     int
	DefaultLimit  int
	MaxLimit      int
	FusionLimit   int
	FusionConfig  fuse.Config
	StrategyCount int
}

// DefaultConfig returns the orchestrator's default tuning, matching
// internal/config's own defaults for the same knobs.
func DefaultConfig() Config {
	return Config{
		Hybrid:        rank.Weights{Semantic: 0.6, Lexical: 0.4},
		Temperature:   0.3,
		MaxTokens:     1024,
		DefaultLimit:  10,
		MaxLimit:      50,
		FusionLimit:   25,
		FusionConfig:  fuse.DefaultConfig(),
		StrategyCount: 4,
	}
}

// Engine wires together the embedder (C2), vector index (C3), BM25
// scorer (C5), hybrid ranker (C6), query expander (C7), chunk-fusion
// synthesizer (C8), and answer generator into the five C9 entry points.
type Engine struct {
	store     *store.Store
	scorer    *bm25.Scorer
	embedder  embed.Embedder
	generator generate.Generator
	cfg       Config

	mu               sync.Mutex
	bm25Stale        atomic.Bool
	builtDataVer     int64
	haveBuiltDataVer bool
}

// NewEngine constructs an Engine. store, scorer, and embedder are
// required; generator may be generate.NullGenerator{} for
// retrieval-only deployments.
func NewEngine(src *store.Store, scorer *bm25.Scorer, embedder embed.Embedder, generator generate.Generator, cfg Config) (*Engine, error) {
	if src == nil {
		return nil, kerrors.New(kerrors.InvalidInput, "store is required")
	}
	if scorer == nil {
		return nil, kerrors.New(kerrors.InvalidInput, "bm25 scorer is required")
	}
	if embedder == nil {
		return nil, kerrors.New(kerrors.InvalidInput, "embedder is required")
	}
	if generator == nil {
		generator = generate.NullGenerator{}
	}
	e := &Engine{store: src, scorer: scorer, embedder: embedder, generator: generator, cfg: cfg}
	e.bm25Stale.Store(true)
	return e, nil
}

// InvalidateBM25 marks the BM25 corpus stale for an in-process caller
// that just wrote chunks through this Engine's own store handle. It is
// a fast path only: ensureBM25Fresh does not depend on it, since the
// ingest and watch commands run as separate processes and have no
// in-process Engine to call it on (§5: "invalidation is coarse: rebuild
// on next query").
func (e *Engine) InvalidateBM25() {
	e.bm25Stale.Store(true)
}

// ensureBM25Fresh rebuilds the BM25 corpus if it has never been built,
// was marked stale in-process, or the index database's data_version has
// advanced since the last rebuild -- the signal that detects writes
// committed by a separate ingest/watch process sharing the same index
// file.
func (e *Engine) ensureBM25Fresh(ctx context.Context) error {
	dataVer, err := e.store.DataVersion(ctx)
	if err != nil {
		return kerrors.Wrap(kerrors.StorageFailure, "read index data version", err)
	}

	if !e.bm25Stale.Load() && e.scorer.Built() && e.haveBuiltDataVer && dataVer == e.builtDataVer {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.bm25Stale.Load() && e.scorer.Built() && e.haveBuiltDataVer && dataVer == e.builtDataVer {
		return nil
	}
	if err := e.scorer.Build(ctx, e.store); err != nil {
		return kerrors.Wrap(kerrors.StorageFailure, "rebuild bm25 corpus", err)
	}
	e.bm25Stale.Store(false)
	e.builtDataVer = dataVer
	e.haveBuiltDataVer = true
	return nil
}

// embedQuery embeds a single query string, wrapping failures in the
// closed error-kind scheme.
func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, kerrors.Wrap(kerrors.EmbedderFailure, "embed query", err)
	}
	return vec, nil
}

// generateAnswer delegates to the answer generator, degrading
// gracefully (§7: GenerationFailure -> empty answer, error:true
// metadata) rather than failing the whole query.
func (e *Engine) generateAnswer(ctx context.Context, result *Result, systemPrompt, userMessage string) {
	if !e.generator.Available(ctx) {
		result.Metadata["error"] = true
		result.Metadata["generation_skipped"] = "generator unavailable"
		return
	}

	answer, err := e.generator.Generate(ctx, systemPrompt, userMessage, e.cfg.Temperature, e.cfg.MaxTokens)
	if err != nil {
		genErr := kerrors.Wrap(kerrors.GenerationFailure, "generate answer", err)
		result.Metadata["error"] = true
		result.Metadata["generation_error"] = genErr.Error()
		return
	}
	result.Answer = answer
	result.GenerationUsed = true
}

func clampLimit(requested, fallback, max int) int {
	if requested <= 0 {
		requested = fallback
	}
	if max > 0 && requested > max {
		requested = max
	}
	return requested
}
