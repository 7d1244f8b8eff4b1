// Package rag implements knowledgeengine's C9 RAG orchestrator: the five
// query entry points (query, hybrid_query, query_with_fusion,
// enhanced_query, query_with_relationships), context assembly, and
// delegation to the external answer generator. Hybrid retrieval runs the
// BM25 scorer and vector index in parallel and merges their hits before
// context assembly; the package logs no stage timings.
package rag

import (
	"fmt"
	"strings"

	"github.com/goldentooth/knowledgeengine/internal/expand"
	"github.com/goldentooth/knowledgeengine/internal/fuse"
	"github.com/goldentooth/knowledgeengine/internal/rank"
)

// Source is one retrieved or fused item surfaced to the caller, numbered
// in presentation order.
type Source struct {
	Index        int
	ChunkID      string
	DocumentID   string
	Title        string
	ChunkType    string
	Content      string
	Score        float64
	Explain      *rank.Explain
	FromFusion   bool
	StrategyName string
	// Related marks a source pulled in by query_with_relationships'
	// relationship-graph expansion rather than returned by the base
	// hybrid search directly.
	Related bool
}

// Result is the structured envelope every entry point returns: the
// generated answer (empty with Metadata.Error set on generator
// failure), the sources the context was assembled from, the fused
// answers (query_with_fusion / enhanced_query only), and a metadata
// bag for the caller.
type Result struct {
	Query          string
	Answer         string
	Sources        []Source
	FusedAnswers   []*fuse.FusedAnswer
	Strategies     []string
	Context        string
	Metadata       map[string]any
	GenerationUsed bool
}

func newMetadata() map[string]any {
	return map[string]any{"error": false}
}

// scoreString renders a score with exactly three decimal digits, per
// §4.9's context assembly rule.
func scoreString(score float64) string {
	return fmt.Sprintf("%.3f", score)
}

// truncate clamps content to maxChars, appending a marker when it cuts.
func truncate(content string, maxChars int) string {
	if len(content) <= maxChars {
		return content
	}
	return strings.TrimSpace(content[:maxChars]) + " [...]"
}

const (
	// blockTruncateChars bounds a numbered chunk-source block.
	blockTruncateChars = 2000
	// unfusedPreviewChars bounds an unfused-hit preview line.
	unfusedPreviewChars = 500
)
