package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, 1.5, cfg.BM25.K1)
	assert.Equal(t, 0.75, cfg.BM25.B)

	assert.Equal(t, 0.6, cfg.Hybrid.SemanticWeight)
	assert.Equal(t, 0.4, cfg.Hybrid.LexicalWeight)

	assert.Equal(t, 0.6, cfg.Fusion.CoherenceThreshold)
	assert.Equal(t, 2, cfg.Fusion.MinChunksForFusion)
	assert.Equal(t, 0.8, cfg.Fusion.DeduplicationThreshold)
	assert.Equal(t, 0.3, cfg.Fusion.CompletenessWeight)
	assert.Equal(t, 0.4, cfg.Fusion.CoherenceWeight)
	assert.Equal(t, 0.3, cfg.Fusion.RelevanceWeight)

	assert.Equal(t, "", cfg.Embedder.Provider) // empty triggers auto-detection
	assert.Equal(t, 32, cfg.Embedder.BatchSize)
	assert.Equal(t, 3, cfg.Embedder.MaxRetries)

	assert.Equal(t, 6, cfg.Sidecar.CompressionLevel)
	assert.Equal(t, runtime.NumCPU(), cfg.Performance.IndexWorkers)
	assert.Equal(t, "stdio", cfg.Server.Transport)
}

func TestConfig_ValidateClampsB(t *testing.T) {
	cfg := NewConfig()
	cfg.BM25.B = 1.5
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1.0, cfg.BM25.B)

	cfg.BM25.B = -0.5
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.0, cfg.BM25.B)
}

func TestConfig_ValidateRejectsZeroHybridWeights(t *testing.T) {
	cfg := NewConfig()
	cfg.Hybrid.SemanticWeight = 0
	cfg.Hybrid.LexicalWeight = 0
	assert.Error(t, cfg.Validate())
}

func TestConfig_ValidateRejectsBadFusionWeights(t *testing.T) {
	cfg := NewConfig()
	cfg.Fusion.CompletenessWeight = 0.1
	cfg.Fusion.CoherenceWeight = 0.1
	cfg.Fusion.RelevanceWeight = 0.1
	assert.Error(t, cfg.Validate())
}

func TestConfig_ValidateRejectsUnknownProvider(t *testing.T) {
	cfg := NewConfig()
	cfg.Embedder.Provider = "bogus"
	assert.Error(t, cfg.Validate())
}

func TestLoad_AppliesProjectConfigOverDefaults(t *testing.T) {
	dir := t.TempDir()
	yamlContent := "bm25:\n  b: 0.5\nhybrid:\n  semantic_weight: 0.9\n  lexical_weight: 0.1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".knowledgeengine.yaml"), []byte(yamlContent), 0o644))

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.BM25.B)
	assert.Equal(t, 0.9, cfg.Hybrid.SemanticWeight)
	assert.Equal(t, 0.1, cfg.Hybrid.LexicalWeight)
}

func TestLoad_EnvOverridesProjectConfig(t *testing.T) {
	dir := t.TempDir()
	yamlContent := "embedder:\n  provider: hash\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".knowledgeengine.yaml"), []byte(yamlContent), 0o644))

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("KNOWLEDGEENGINE_EMBEDDER", "remote")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "remote", cfg.Embedder.Provider)
}

func TestGetUserConfigPath_UsesXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	assert.Equal(t, filepath.Join(dir, "knowledgeengine", "config.yaml"), GetUserConfigPath())
}

func TestFindProjectRoot_FindsConfigFile(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".knowledgeengine.yaml"), []byte("version: 1\n"), 0o644))

	found, err := FindProjectRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, found)
}
