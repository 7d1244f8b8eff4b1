// Package relate implements §3's relationship graph: sequential and
// hierarchical edges derived from structural cues within a document,
// and topical/cross-document edges derived from cosine similarity
// thresholds across the whole corpus.
package relate

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/goldentooth/knowledgeengine/internal/store"
)

// Cosine-similarity cutoffs for the similarity-based edges: a score at or
// above ThresholdWeak yields a topical edge, and one at or above
// ThresholdModerate also a cross_document edge. ThresholdStrong is not
// used by Analyze; display strength categories come from
// store.CategorizeStrength.
const (
	ThresholdStrong   = 0.85
	ThresholdModerate = 0.70
	ThresholdWeak     = 0.55
)

// ChunkInfo is the subset of a chunk record relationship analysis needs.
type ChunkInfo struct {
	ChunkID    string
	StoreType  string
	DocumentID string
	ChunkType  string
	Sequence   int
	Title      string
	Vector     []float32
}

// parentID is the "{store_type}.{document_id}" grouping key chunks from
// the same parent document share.
func (c ChunkInfo) parentID() string {
	return c.StoreType + "." + c.DocumentID
}

func fromRecord(c *store.ChunkRecord) ChunkInfo {
	return ChunkInfo{
		ChunkID:    c.ChunkID,
		StoreType:  c.StoreType,
		DocumentID: c.DocumentID,
		ChunkType:  c.ChunkType,
		Sequence:   c.Sequence,
		Title:      c.Title,
		Vector:     c.Vector,
	}
}

// FromRecords converts chunk records into the shape Analyze consumes.
func FromRecords(records []*store.ChunkRecord) []ChunkInfo {
	out := make([]ChunkInfo, 0, len(records))
	for _, c := range records {
		out = append(out, fromRecord(c))
	}
	return out
}

// Analyze computes every edge type over chunks: sequential and
// hierarchical edges within each document, and (when includeCrossDocument)
// topical and cross_document edges across documents, via cosine
// similarity between embeddings. Chunks without a vector are skipped for
// the similarity-based types; vectors of different lengths are compared
// over their shared leading dimensions.
func Analyze(chunks []ChunkInfo, includeCrossDocument bool) []*store.Relationship {
	var edges []*store.Relationship
	edges = append(edges, sequential(chunks)...)
	edges = append(edges, hierarchical(chunks)...)
	if includeCrossDocument {
		edges = append(edges, topicalAndCrossDocument(chunks)...)
	}
	return edges
}

// sequential connects sequence-adjacent chunks within the same document.
// Sequential edges are always strength 1.0: adjacency is a structural
// fact, not a graded similarity.
func sequential(chunks []ChunkInfo) []*store.Relationship {
	byDoc := map[string][]ChunkInfo{}
	for _, c := range chunks {
		byDoc[c.parentID()] = append(byDoc[c.parentID()], c)
	}

	var edges []*store.Relationship
	for docID, list := range byDoc {
		sort.Slice(list, func(i, j int) bool { return list[i].Sequence < list[j].Sequence })
		for i := 0; i < len(list)-1; i++ {
			edges = append(edges, &store.Relationship{
				SourceID: list[i].ChunkID,
				TargetID: list[i+1].ChunkID,
				Type:     store.RelationshipSequential,
				Strength: 1.0,
				Metadata: map[string]string{"document_id": docID},
			})
		}
	}
	return edges
}

// hierarchical connects chunks within the same document whose types or
// titles follow a known parent/child pattern.
func hierarchical(chunks []ChunkInfo) []*store.Relationship {
	byDoc := map[string][]ChunkInfo{}
	for _, c := range chunks {
		byDoc[c.parentID()] = append(byDoc[c.parentID()], c)
	}

	var edges []*store.Relationship
	for docID, list := range byDoc {
		for i, a := range list {
			for j, b := range list {
				if i == j {
					continue
				}
				hierarchyType := hierarchyKind(a, b)
				if hierarchyType == "" {
					continue
				}
				edges = append(edges, &store.Relationship{
					SourceID: a.ChunkID,
					TargetID: b.ChunkID,
					Type:     store.RelationshipHierarchical,
					Strength: 0.8,
					Metadata: map[string]string{"hierarchy_type": hierarchyType, "document_id": docID},
				})
			}
		}
	}
	return edges
}

func hierarchyKind(a, b ChunkInfo) string {
	switch {
	case a.ChunkType == "repo_core" && b.ChunkType == "repo_technical":
		return "core_to_technical"
	case a.ChunkType == "repo_core" && b.ChunkType == "repo_activity":
		return "core_to_activity"
	}

	if a.ChunkType == "note_section" && b.ChunkType == "note_section" {
		titleA := strings.ToLower(a.Title)
		titleB := strings.ToLower(b.Title)
		if strings.Contains(titleA, "introduction") && containsAny(titleB, "setup", "usage", "example") {
			return "intro_to_content"
		}
		if strings.Contains(titleA, "overview") && strings.Contains(titleB, "detail") {
			return "overview_to_detail"
		}
	}
	return ""
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// topicalAndCrossDocument compares every pair of chunks from different
// documents. A similarity at or above ThresholdWeak produces a topical
// edge; a similarity at or above ThresholdModerate also produces a
// cross_document edge, mirroring that the two edge types are not
// mutually exclusive.
func topicalAndCrossDocument(chunks []ChunkInfo) []*store.Relationship {
	var edges []*store.Relationship
	for i := 0; i < len(chunks); i++ {
		a := chunks[i]
		if len(a.Vector) == 0 {
			continue
		}
		for j := i + 1; j < len(chunks); j++ {
			b := chunks[j]
			if a.parentID() == b.parentID() || len(b.Vector) == 0 {
				continue
			}

			sim := cosineSimilarity(a.Vector, b.Vector)
			if sim >= ThresholdWeak {
				edges = append(edges, &store.Relationship{
					SourceID: a.ChunkID,
					TargetID: b.ChunkID,
					Type:     store.RelationshipTopical,
					Strength: sim,
					Metadata: map[string]string{
						"chunk_types":      a.ChunkType + "," + b.ChunkType,
						"different_stores": boolString(a.StoreType != b.StoreType),
					},
				})
			}
			if sim >= ThresholdModerate {
				edges = append(edges, &store.Relationship{
					SourceID: a.ChunkID,
					TargetID: b.ChunkID,
					Type:     store.RelationshipCrossDocument,
					Strength: sim,
					Metadata: map[string]string{
						"source_document": a.parentID(),
						"target_document": b.parentID(),
					},
				})
			}
		}
	}
	return edges
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, magA, magB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// ExpandChunkIDs breadth-first expands a starting set of chunk ids by
// radius relationship hops, reading edges from src, and returns the
// newly discovered ids (the starting set is not included).
func ExpandChunkIDs(ctx context.Context, src *store.Store, chunkIDs []string, radius int, minStrength float64) ([]string, error) {
	seen := map[string]bool{}
	for _, id := range chunkIDs {
		seen[id] = true
	}
	frontier := append([]string(nil), chunkIDs...)

	var discovered []string
	for hop := 0; hop < radius; hop++ {
		var next []string
		for _, id := range frontier {
			edges, err := src.GetChunkRelationships(ctx, id, nil, minStrength, 0)
			if err != nil {
				return nil, err
			}
			for _, e := range edges {
				other := e.TargetID
				if other == id {
					other = e.SourceID
				}
				if seen[other] {
					continue
				}
				seen[other] = true
				discovered = append(discovered, other)
				next = append(next, other)
			}
		}
		if len(next) == 0 {
			break
		}
		frontier = next
	}
	return discovered, nil
}
