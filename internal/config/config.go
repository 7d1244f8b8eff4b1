// Package config loads and validates engine configuration, layering
// hardcoded defaults, a user config, a project config, and environment
// variables.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete engine configuration, covering the data
// directory, embedder selection, BM25 parameters, hybrid ranker
// weights, the query expander, the chunk-fusion synthesizer, and
// sidecar compression.
type Config struct {
	Version     int               `yaml:"version" json:"version"`
	Paths       PathsConfig       `yaml:"paths" json:"paths"`
	Embedder    EmbedderConfig    `yaml:"embedder" json:"embedder"`
	BM25        BM25Config        `yaml:"bm25" json:"bm25"`
	Hybrid      HybridConfig      `yaml:"hybrid" json:"hybrid"`
	Fusion      FusionConfig      `yaml:"fusion" json:"fusion"`
	Sidecar     SidecarConfig     `yaml:"sidecar" json:"sidecar"`
	Chunk       ChunkConfig       `yaml:"chunk" json:"chunk"`
	Generator   GeneratorConfig   `yaml:"generator" json:"generator"`
	Server      ServerConfig      `yaml:"server" json:"server"`
	Logging     LoggingConfig     `yaml:"logging" json:"logging"`
	Performance PerformanceConfig `yaml:"performance" json:"performance"`
}

// PathsConfig configures where persistent state lives.
type PathsConfig struct {
	// DataDir is the root for the index database, sidecars, and
	// manifest (§6.4).
	DataDir string   `yaml:"data_dir" json:"data_dir"`
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// EmbedderConfig selects and tunes the embedder port (C2).
type EmbedderConfig struct {
	Provider   string `yaml:"provider" json:"provider"` // "remote" or "hash"
	Model      string `yaml:"model" json:"model"`
	Endpoint   string `yaml:"endpoint" json:"endpoint"`
	APIKey     string `yaml:"api_key" json:"api_key"`
	BatchSize  int    `yaml:"batch_size" json:"batch_size"`
	TimeoutSec int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	MaxRetries int    `yaml:"max_retries" json:"max_retries"`
	CacheSize  int    `yaml:"cache_size" json:"cache_size"`
}

// BM25Config tunes the BM25 scorer (C5). See §4.5.
type BM25Config struct {
	K1 float64 `yaml:"k1" json:"k1"`
	B  float64 `yaml:"b" json:"b"`
}

// HybridConfig tunes the hybrid ranker (C6). See §4.6.
type HybridConfig struct {
	SemanticWeight float64 `yaml:"semantic_weight" json:"semantic_weight"`
	LexicalWeight  float64 `yaml:"lexical_weight" json:"lexical_weight"`
}

// FusionConfig tunes the chunk-fusion synthesizer (C8). See §4.8.
type FusionConfig struct {
	CoherenceThreshold     float64 `yaml:"coherence_threshold" json:"coherence_threshold"`
	MinChunksForFusion     int     `yaml:"min_chunks_for_fusion" json:"min_chunks_for_fusion"`
	DeduplicationThreshold float64 `yaml:"deduplication_threshold" json:"deduplication_threshold"`
	CompletenessWeight     float64 `yaml:"completeness_weight" json:"completeness_weight"`
	CoherenceWeight        float64 `yaml:"coherence_weight" json:"coherence_weight"`
	RelevanceWeight        float64 `yaml:"relevance_weight" json:"relevance_weight"`
}

// SidecarConfig tunes the embedding sidecar codec (C4). See §4.4/§6.5.
type SidecarConfig struct {
	// CompressionLevel is the deflate level used when writing sidecars.
	// The gzip header bytes themselves are fixed by §6.5 regardless of
	// this setting.
	CompressionLevel int `yaml:"compression_level" json:"compression_level"`
}

// ChunkConfig tunes the chunker (C1).
type ChunkConfig struct {
	MaxChunkChars int `yaml:"max_chunk_chars" json:"max_chunk_chars"`
	OverlapChars  int `yaml:"overlap_chars" json:"overlap_chars"`
}

// GeneratorConfig tunes the answer generator port (§6.2).
type GeneratorConfig struct {
	Temperature float64 `yaml:"temperature" json:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`
}

// ServerConfig configures the MCP server entry point.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	Port      int    `yaml:"port" json:"port"`
}

// LoggingConfig configures internal/klog.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	FilePath  string `yaml:"file_path" json:"file_path"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// PerformanceConfig configures worker concurrency.
type PerformanceConfig struct {
	IndexWorkers int `yaml:"index_workers" json:"index_workers"`
}

// NewConfig returns a Config populated with the engine's defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			DataDir: defaultDataDir(),
			Include: []string{},
			Exclude: []string{"**/.git/**"},
		},
		Embedder: EmbedderConfig{
			Provider:   "", // empty triggers env-var/auto-detection in embed.New
			BatchSize:  32,
			TimeoutSec: 60,
			MaxRetries: 3,
			CacheSize:  10000,
		},
		BM25: BM25Config{
			K1: 1.5,
			B:  0.75,
		},
		Hybrid: HybridConfig{
			SemanticWeight: 0.6,
			LexicalWeight:  0.4,
		},
		Fusion: FusionConfig{
			CoherenceThreshold:     0.6,
			MinChunksForFusion:     2,
			DeduplicationThreshold: 0.8,
			CompletenessWeight:     0.3,
			CoherenceWeight:        0.4,
			RelevanceWeight:        0.3,
		},
		Sidecar: SidecarConfig{
			CompressionLevel: 6,
		},
		Chunk: ChunkConfig{
			MaxChunkChars: 1500,
			OverlapChars:  200,
		},
		Generator: GeneratorConfig{
			Temperature: 0.3,
			MaxTokens:   1024,
		},
		Server: ServerConfig{
			Transport: "stdio",
			Port:      8765,
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
		Performance: PerformanceConfig{
			IndexWorkers: runtime.NumCPU(),
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".knowledgeengine")
	}
	return filepath.Join(home, ".knowledgeengine")
}

// GetUserConfigPath returns the user/global configuration path,
// following the XDG base directory specification.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "knowledgeengine", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "knowledgeengine", "config.yaml")
	}
	return filepath.Join(home, ".config", "knowledgeengine", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user
// configuration file.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists reports whether the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// FindProjectRoot walks up from startDir looking for a .knowledgeengine.yaml
// or .knowledgeengine.yml file, falling back to startDir if none is found.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if fileExists(filepath.Join(currentDir, ".knowledgeengine.yaml")) ||
			fileExists(filepath.Join(currentDir, ".knowledgeengine.yml")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

func loadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}
	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, fmt.Errorf("load user config from %s: %w", path, err)
	}
	return cfg, nil
}

// Load builds the final configuration for dir, applying, in order of
// increasing precedence: hardcoded defaults, the user config
// (~/.config/knowledgeengine/config.yaml), the project config
// (.knowledgeengine.yaml in dir), then KNOWLEDGEENGINE_* environment
// variables.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".knowledgeengine.yaml")
	if fileExists(yamlPath) {
		return c.loadYAML(yamlPath)
	}
	ymlPath := filepath.Join(dir, ".knowledgeengine.yml")
	if fileExists(ymlPath) {
		return c.loadYAML(ymlPath)
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith overlays non-zero fields of other onto c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Paths.DataDir != "" {
		c.Paths.DataDir = other.Paths.DataDir
	}
	if len(other.Paths.Include) > 0 {
		c.Paths.Include = other.Paths.Include
	}
	if len(other.Paths.Exclude) > 0 {
		c.Paths.Exclude = append(c.Paths.Exclude, other.Paths.Exclude...)
	}

	if other.Embedder.Provider != "" {
		c.Embedder.Provider = other.Embedder.Provider
	}
	if other.Embedder.Model != "" {
		c.Embedder.Model = other.Embedder.Model
	}
	if other.Embedder.Endpoint != "" {
		c.Embedder.Endpoint = other.Embedder.Endpoint
	}
	if other.Embedder.APIKey != "" {
		c.Embedder.APIKey = other.Embedder.APIKey
	}
	if other.Embedder.BatchSize != 0 {
		c.Embedder.BatchSize = other.Embedder.BatchSize
	}
	if other.Embedder.TimeoutSec != 0 {
		c.Embedder.TimeoutSec = other.Embedder.TimeoutSec
	}
	if other.Embedder.MaxRetries != 0 {
		c.Embedder.MaxRetries = other.Embedder.MaxRetries
	}
	if other.Embedder.CacheSize != 0 {
		c.Embedder.CacheSize = other.Embedder.CacheSize
	}

	if other.BM25.K1 != 0 {
		c.BM25.K1 = other.BM25.K1
	}
	if other.BM25.B != 0 {
		c.BM25.B = other.BM25.B
	}

	if other.Hybrid.SemanticWeight != 0 {
		c.Hybrid.SemanticWeight = other.Hybrid.SemanticWeight
	}
	if other.Hybrid.LexicalWeight != 0 {
		c.Hybrid.LexicalWeight = other.Hybrid.LexicalWeight
	}

	if other.Fusion.CoherenceThreshold != 0 {
		c.Fusion.CoherenceThreshold = other.Fusion.CoherenceThreshold
	}
	if other.Fusion.MinChunksForFusion != 0 {
		c.Fusion.MinChunksForFusion = other.Fusion.MinChunksForFusion
	}
	if other.Fusion.DeduplicationThreshold != 0 {
		c.Fusion.DeduplicationThreshold = other.Fusion.DeduplicationThreshold
	}
	if other.Fusion.CompletenessWeight != 0 {
		c.Fusion.CompletenessWeight = other.Fusion.CompletenessWeight
	}
	if other.Fusion.CoherenceWeight != 0 {
		c.Fusion.CoherenceWeight = other.Fusion.CoherenceWeight
	}
	if other.Fusion.RelevanceWeight != 0 {
		c.Fusion.RelevanceWeight = other.Fusion.RelevanceWeight
	}

	if other.Sidecar.CompressionLevel != 0 {
		c.Sidecar.CompressionLevel = other.Sidecar.CompressionLevel
	}

	if other.Chunk.MaxChunkChars != 0 {
		c.Chunk.MaxChunkChars = other.Chunk.MaxChunkChars
	}
	if other.Chunk.OverlapChars != 0 {
		c.Chunk.OverlapChars = other.Chunk.OverlapChars
	}

	if other.Generator.Temperature != 0 {
		c.Generator.Temperature = other.Generator.Temperature
	}
	if other.Generator.MaxTokens != 0 {
		c.Generator.MaxTokens = other.Generator.MaxTokens
	}

	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
	if other.Server.Port != 0 {
		c.Server.Port = other.Server.Port
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.FilePath != "" {
		c.Logging.FilePath = other.Logging.FilePath
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}

	if other.Performance.IndexWorkers != 0 {
		c.Performance.IndexWorkers = other.Performance.IndexWorkers
	}
}

// applyEnvOverrides applies KNOWLEDGEENGINE_* environment variable
// overrides, which take precedence over every config file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("KNOWLEDGEENGINE_DATA_DIR"); v != "" {
		c.Paths.DataDir = v
	}
	if v := os.Getenv("KNOWLEDGEENGINE_EMBEDDER"); v != "" {
		c.Embedder.Provider = v
	}
	if v := os.Getenv("KNOWLEDGEENGINE_EMBEDDER_MODEL"); v != "" {
		c.Embedder.Model = v
	}
	if v := os.Getenv("KNOWLEDGEENGINE_EMBEDDER_ENDPOINT"); v != "" {
		c.Embedder.Endpoint = v
	}
	if v := os.Getenv("KNOWLEDGEENGINE_EMBEDDER_API_KEY"); v != "" {
		c.Embedder.APIKey = v
	}
	if v := os.Getenv("KNOWLEDGEENGINE_SEMANTIC_WEIGHT"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 {
			c.Hybrid.SemanticWeight = w
		}
	}
	if v := os.Getenv("KNOWLEDGEENGINE_LEXICAL_WEIGHT"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 {
			c.Hybrid.LexicalWeight = w
		}
	}
	if v := os.Getenv("KNOWLEDGEENGINE_BM25_B"); v != "" {
		if b, err := parseFloat64(v); err == nil {
			c.BM25.B = b
		}
	}
	if v := os.Getenv("KNOWLEDGEENGINE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("KNOWLEDGEENGINE_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
	if v := os.Getenv("KNOWLEDGEENGINE_INDEX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Performance.IndexWorkers = n
		}
	}
}

func parseFloat64(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &f)
	return f, err
}

// Validate checks the configuration's invariants, normalizing the
// BM25 b parameter's clamp (§4.5) and checking the hybrid weight sum
// (§4.6) and fusion confidence weights (§4.8).
func (c *Config) Validate() error {
	if c.BM25.B < 0 {
		c.BM25.B = 0
	}
	if c.BM25.B > 1 {
		c.BM25.B = 1
	}
	if c.BM25.K1 <= 0 {
		return fmt.Errorf("bm25.k1 must be positive, got %f", c.BM25.K1)
	}

	if c.Hybrid.SemanticWeight < 0 || c.Hybrid.LexicalWeight < 0 {
		return fmt.Errorf("hybrid weights must be non-negative")
	}
	if c.Hybrid.SemanticWeight+c.Hybrid.LexicalWeight <= 0 {
		return fmt.Errorf("hybrid.semantic_weight + hybrid.lexical_weight must be > 0")
	}

	if c.Fusion.CoherenceThreshold < 0 || c.Fusion.CoherenceThreshold > 1 {
		return fmt.Errorf("fusion.coherence_threshold must be between 0 and 1, got %f", c.Fusion.CoherenceThreshold)
	}
	if c.Fusion.DeduplicationThreshold < 0 || c.Fusion.DeduplicationThreshold > 1 {
		return fmt.Errorf("fusion.deduplication_threshold must be between 0 and 1, got %f", c.Fusion.DeduplicationThreshold)
	}
	weightSum := c.Fusion.CompletenessWeight + c.Fusion.CoherenceWeight + c.Fusion.RelevanceWeight
	if math.Abs(weightSum-1.0) > 0.01 {
		return fmt.Errorf("fusion confidence weights must sum to 1.0, got %.2f", weightSum)
	}

	validProviders := map[string]bool{"": true, "remote": true, "hash": true}
	if !validProviders[strings.ToLower(c.Embedder.Provider)] {
		return fmt.Errorf("embedder.provider must be 'remote', 'hash', or empty, got %s", c.Embedder.Provider)
	}

	validTransports := map[string]bool{"stdio": true, "sse": true}
	if !validTransports[strings.ToLower(c.Server.Transport)] {
		return fmt.Errorf("server.transport must be 'stdio' or 'sse', got %s", c.Server.Transport)
	}

	return nil
}

// WriteYAML writes the configuration to path as YAML.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
