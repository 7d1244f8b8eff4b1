// Package embed implements the embedder port: the abstraction that turns
// chunk text into fixed-dimension vectors. The core never assumes a
// particular provider; remote-API, deterministic-hash, and cached
// implementations are interchangeable behind the Embedder interface.
package embed

import (
	"context"
	"math"
	"strings"
	"time"
)

const (
	// Dimensions is the fixed embedding width every provider must produce.
	Dimensions = 1536

	// MaxInputChars is the provider-safe character budget; longer inputs
	// are truncated before being sent to a provider.
	MaxInputChars = 6000

	// MinBatchSize is the minimum allowed batch size.
	MinBatchSize = 1

	// MaxBatchSize caps a single embed_batch call to bound memory use.
	MaxBatchSize = 256

	// DefaultBatchSize is used when a caller does not specify one.
	DefaultBatchSize = 32

	// DefaultTimeout bounds a single embed_one / embed_batch call.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for a
	// transient embedder failure.
	DefaultMaxRetries = 3
)

// Embedder generates vector embeddings for text. Implementations must be
// safe for concurrent use; Embed/EmbedBatch are suspension points (§5).
type Embedder interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts. On a batch-level
	// failure implementations should fall back to per-item embedding; on a
	// per-item failure they substitute a zero vector rather than fail the
	// whole call, so the output length always matches the input length.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding width (always Dimensions).
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Available reports whether the embedder is ready to serve requests.
	Available(ctx context.Context) bool

	// Close releases resources held by the embedder.
	Close() error
}

// PrepareText trims excess whitespace and truncates to MaxInputChars,
// matching the input contract of §4.2.
func PrepareText(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) > MaxInputChars {
		trimmed = trimmed[:MaxInputChars]
	}
	return trimmed
}

// normalizeVector normalizes a vector to unit length. A zero vector is
// returned unchanged.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}

// ZeroVector returns a Dimensions-wide zero vector, the fallback value for
// a per-item embedding failure inside EmbedBatchWithFallback.
func ZeroVector() []float32 {
	return make([]float32, Dimensions)
}
