// Package bootstrap wires the store, BM25 scorer, embedder, and answer
// generator into a ready-to-query rag.Engine from an internal/config
// configuration. Both cmd/knowledgeengine and cmd/knowledgeengine-mcp
// build their engine through this one path so the two entry points
// never drift apart.
package bootstrap

import (
	"context"

	"github.com/goldentooth/knowledgeengine/internal/bm25"
	"github.com/goldentooth/knowledgeengine/internal/config"
	"github.com/goldentooth/knowledgeengine/internal/embed"
	"github.com/goldentooth/knowledgeengine/internal/generate"
	"github.com/goldentooth/knowledgeengine/internal/kerrors"
	"github.com/goldentooth/knowledgeengine/internal/rag"
	"github.com/goldentooth/knowledgeengine/internal/rank"
	"github.com/goldentooth/knowledgeengine/internal/store"
)

// Handle bundles the open store and the engine built on top of it, so
// a caller can defer a single Close.
type Handle struct {
	Store  *store.Store
	Engine *rag.Engine
}

// Close releases the underlying store.
func (h *Handle) Close() {
	if h.Store != nil {
		_ = h.Store.Close()
	}
}

// Open loads configuration from dir, opens the index database, builds
// the BM25 corpus, and wires a rag.Engine with a real or null answer
// generator depending on cfg.Generator.MaxTokens.
func Open(ctx context.Context, dir string) (*Handle, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		cfg = config.NewConfig()
	}
	return OpenWithConfig(ctx, cfg)
}

// OpenWithConfig is Open with an already-loaded configuration, for
// callers that need to apply overrides before wiring the engine.
func OpenWithConfig(ctx context.Context, cfg *config.Config) (*Handle, error) {
	src, err := store.Open(cfg.Paths.DataDir + "/index.db")
	if err != nil {
		return nil, kerrors.Wrap(kerrors.StorageFailure, "open index", err)
	}

	scorer := bm25.New(bm25.Config{K1: cfg.BM25.K1, B: cfg.BM25.B})
	if err := scorer.Build(ctx, src); err != nil {
		_ = src.Close()
		return nil, kerrors.Wrap(kerrors.StorageFailure, "build bm25 corpus", err)
	}

	embedder, err := embed.New(ctx, embed.ParseProvider(cfg.Embedder.Provider), embed.RemoteConfig{
		Endpoint: cfg.Embedder.Endpoint,
		Model:    cfg.Embedder.Model,
		APIKey:   cfg.Embedder.APIKey,
	})
	if err != nil {
		_ = src.Close()
		return nil, kerrors.Wrap(kerrors.EmbedderFailure, "create embedder", err)
	}

	var generator generate.Generator = generate.NullGenerator{}
	if cfg.Generator.MaxTokens > 0 {
		generator = generate.New(generate.Config{})
	}

	ragCfg := rag.DefaultConfig()
	ragCfg.Hybrid = rank.Weights{Semantic: cfg.Hybrid.SemanticWeight, Lexical: cfg.Hybrid.LexicalWeight}
	ragCfg.Temperature = float32(cfg.Generator.Temperature)
	ragCfg.MaxTokens = cfg.Generator.MaxTokens
	ragCfg.FusionConfig.CoherenceThreshold = cfg.Fusion.CoherenceThreshold
	ragCfg.FusionConfig.MinChunksForFusion = cfg.Fusion.MinChunksForFusion
	ragCfg.FusionConfig.DeduplicationThreshold = cfg.Fusion.DeduplicationThreshold
	ragCfg.FusionConfig.CompletenessWeight = cfg.Fusion.CompletenessWeight
	ragCfg.FusionConfig.CoherenceWeight = cfg.Fusion.CoherenceWeight
	ragCfg.FusionConfig.RelevanceWeight = cfg.Fusion.RelevanceWeight

	engine, err := rag.NewEngine(src, scorer, embedder, generator, ragCfg)
	if err != nil {
		_ = src.Close()
		return nil, err
	}

	return &Handle{Store: src, Engine: engine}, nil
}
