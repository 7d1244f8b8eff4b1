package mcp

import "github.com/goldentooth/knowledgeengine/internal/rag"

// QueryInput defines the input schema for the query tool.
type QueryInput struct {
	Query     string  `json:"query" jsonschema:"the question to answer against the indexed corpus"`
	Limit     int     `json:"limit,omitempty" jsonschema:"maximum number of sources, default 10"`
	StoreType string  `json:"store_type,omitempty" jsonschema:"restrict results to one store_type"`
	ChunkType string  `json:"chunk_type,omitempty" jsonschema:"restrict results to one chunk_type"`
	Threshold float64 `json:"threshold,omitempty" jsonschema:"minimum similarity score; hits below it are dropped, so the default 0 removes negative-similarity hits"`
}

// HybridQueryInput defines the input schema for the hybrid_query tool.
type HybridQueryInput struct {
	Query          string  `json:"query" jsonschema:"the question to answer against the indexed corpus"`
	Limit          int     `json:"limit,omitempty" jsonschema:"maximum number of sources, default 10"`
	StoreType      string  `json:"store_type,omitempty" jsonschema:"restrict results to one store_type"`
	SemanticWeight float64 `json:"semantic_weight,omitempty" jsonschema:"override the semantic weight, 0 uses the configured default"`
	LexicalWeight  float64 `json:"lexical_weight,omitempty" jsonschema:"override the lexical weight, 0 uses the configured default"`
	Explain        bool    `json:"explain,omitempty" jsonschema:"attach per-source score explanations"`
}

// FusionQueryInput defines the input schema for the query_with_fusion tool.
type FusionQueryInput struct {
	Query          string  `json:"query" jsonschema:"the question to answer against the indexed corpus"`
	StoreType      string  `json:"store_type,omitempty" jsonschema:"restrict results to one store_type"`
	SemanticWeight float64 `json:"semantic_weight,omitempty" jsonschema:"override the semantic weight, 0 uses the configured default"`
	LexicalWeight  float64 `json:"lexical_weight,omitempty" jsonschema:"override the lexical weight, 0 uses the configured default"`
	MaxClusters    int     `json:"max_clusters,omitempty" jsonschema:"maximum number of fused clusters, 0 uses the configured default"`
}

// EnhancedQueryInput defines the input schema for the enhanced_query tool.
type EnhancedQueryInput struct {
	Query         string `json:"query" jsonschema:"the question to answer against the indexed corpus"`
	StoreType     string `json:"store_type,omitempty" jsonschema:"restrict results to one store_type"`
	DomainContext string `json:"domain_context,omitempty" jsonschema:"a short hint about the domain of the question, used to steer fusion"`
	MaxClusters   int    `json:"max_clusters,omitempty" jsonschema:"maximum number of fused clusters, 0 uses the configured default"`
}

// RelationshipQueryInput defines the input schema for the
// query_with_relationships tool.
type RelationshipQueryInput struct {
	Query          string  `json:"query" jsonschema:"the question to answer against the indexed corpus"`
	Limit          int     `json:"limit,omitempty" jsonschema:"maximum number of directly retrieved sources, default 10"`
	StoreType      string  `json:"store_type,omitempty" jsonschema:"restrict results to one store_type"`
	SemanticWeight float64 `json:"semantic_weight,omitempty" jsonschema:"override the semantic weight, 0 uses the configured default"`
	LexicalWeight  float64 `json:"lexical_weight,omitempty" jsonschema:"override the lexical weight, 0 uses the configured default"`
	Radius         int     `json:"radius,omitempty" jsonschema:"relationship hops to expand from the directly retrieved sources, default 1"`
	MinStrength    float64 `json:"min_strength,omitempty" jsonschema:"minimum relationship strength to follow, default 0.55"`
}

// QueryOutput is the shared output schema for all five query tools.
type QueryOutput struct {
	Answer         string         `json:"answer,omitempty" jsonschema:"the generated answer, empty if generation was unavailable"`
	Sources        []SourceOutput `json:"sources" jsonschema:"the chunks the answer was drawn from, ordered by rank"`
	Strategies     []string       `json:"strategies,omitempty" jsonschema:"retrieval strategies that contributed sources"`
	GenerationUsed bool           `json:"generation_used" jsonschema:"true if an answer generator produced the answer"`
}

// SourceOutput is a single retrieved chunk backing a query answer.
type SourceOutput struct {
	Index      int     `json:"index" jsonschema:"1-based position in the source list"`
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title,omitempty"`
	ChunkType  string  `json:"chunk_type,omitempty"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
	FromFusion bool    `json:"from_fusion,omitempty" jsonschema:"true if this source was synthesized from a fused cluster"`
	Related    bool    `json:"related,omitempty" jsonschema:"true if this source was pulled in via relationship-graph expansion rather than retrieved directly"`
}

// ToQueryOutput converts a rag.Result into the MCP tool output shape.
func ToQueryOutput(r *rag.Result) QueryOutput {
	out := QueryOutput{
		Answer:         r.Answer,
		Strategies:     r.Strategies,
		GenerationUsed: r.GenerationUsed,
		Sources:        make([]SourceOutput, 0, len(r.Sources)),
	}
	for _, s := range r.Sources {
		out.Sources = append(out.Sources, SourceOutput{
			Index:      s.Index,
			ChunkID:    s.ChunkID,
			DocumentID: s.DocumentID,
			Title:      s.Title,
			ChunkType:  s.ChunkType,
			Content:    s.Content,
			Score:      s.Score,
			FromFusion: s.FromFusion,
			Related:    s.Related,
		})
	}
	return out
}

// clampLimit bounds limit to [min, max], substituting defaultVal for a
// non-positive limit.
func clampLimit(limit, defaultVal, min, max int) int {
	if limit <= 0 {
		return defaultVal
	}
	if limit < min {
		return min
	}
	if limit > max {
		return max
	}
	return limit
}
