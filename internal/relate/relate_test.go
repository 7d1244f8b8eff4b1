package relate

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goldentooth/knowledgeengine/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSequential_ConnectsAdjacentChunksWithinADocument(t *testing.T) {
	chunks := []ChunkInfo{
		{ChunkID: "notes.deploy.s2", StoreType: "notes", DocumentID: "deploy", Sequence: 2},
		{ChunkID: "notes.deploy.main", StoreType: "notes", DocumentID: "deploy", Sequence: 1},
		{ChunkID: "notes.other.main", StoreType: "notes", DocumentID: "other", Sequence: 1},
	}
	edges := sequential(chunks)
	require.Len(t, edges, 1)
	assert.Equal(t, "notes.deploy.main", edges[0].SourceID)
	assert.Equal(t, "notes.deploy.s2", edges[0].TargetID)
	assert.Equal(t, store.RelationshipSequential, edges[0].Type)
	assert.Equal(t, 1.0, edges[0].Strength)
}

func TestHierarchical_ConnectsRepoCoreToTechnicalAndActivity(t *testing.T) {
	chunks := []ChunkInfo{
		{ChunkID: "github.repos.x.core", StoreType: "github.repos", DocumentID: "x", ChunkType: "repo_core"},
		{ChunkID: "github.repos.x.tech", StoreType: "github.repos", DocumentID: "x", ChunkType: "repo_technical"},
		{ChunkID: "github.repos.x.activity", StoreType: "github.repos", DocumentID: "x", ChunkType: "repo_activity"},
	}
	edges := hierarchical(chunks)
	require.Len(t, edges, 2)

	kinds := map[string]string{}
	for _, e := range edges {
		kinds[e.TargetID] = e.Metadata["hierarchy_type"]
		assert.Equal(t, "github.repos.x.core", e.SourceID)
		assert.Equal(t, store.RelationshipHierarchical, e.Type)
	}
	assert.Equal(t, "core_to_technical", kinds["github.repos.x.tech"])
	assert.Equal(t, "core_to_activity", kinds["github.repos.x.activity"])
}

func TestHierarchical_ConnectsNoteSectionsByTitlePattern(t *testing.T) {
	chunks := []ChunkInfo{
		{ChunkID: "notes.x.intro", StoreType: "notes", DocumentID: "x", ChunkType: "note_section", Title: "Introduction"},
		{ChunkID: "notes.x.usage", StoreType: "notes", DocumentID: "x", ChunkType: "note_section", Title: "Usage Guide"},
	}
	edges := hierarchical(chunks)
	require.Len(t, edges, 1)
	assert.Equal(t, "notes.x.intro", edges[0].SourceID)
	assert.Equal(t, "notes.x.usage", edges[0].TargetID)
	assert.Equal(t, "intro_to_content", edges[0].Metadata["hierarchy_type"])
}

func TestTopicalAndCrossDocument_SkipsSameDocumentPairs(t *testing.T) {
	chunks := []ChunkInfo{
		{ChunkID: "notes.x.a", StoreType: "notes", DocumentID: "x", Vector: []float32{1, 0, 0}},
		{ChunkID: "notes.x.b", StoreType: "notes", DocumentID: "x", Vector: []float32{1, 0, 0}},
	}
	edges := topicalAndCrossDocument(chunks)
	assert.Empty(t, edges)
}

func TestTopicalAndCrossDocument_ProducesBothEdgeTypesAboveModerateThreshold(t *testing.T) {
	chunks := []ChunkInfo{
		{ChunkID: "notes.a.main", StoreType: "notes", DocumentID: "a", Vector: []float32{1, 0, 0}},
		{ChunkID: "notes.b.main", StoreType: "notes", DocumentID: "b", Vector: []float32{1, 0, 0}},
	}
	edges := topicalAndCrossDocument(chunks)
	require.Len(t, edges, 2)

	var sawTopical, sawCrossDoc bool
	for _, e := range edges {
		switch e.Type {
		case store.RelationshipTopical:
			sawTopical = true
		case store.RelationshipCrossDocument:
			sawCrossDoc = true
			assert.Equal(t, "notes.a", e.Metadata["source_document"])
			assert.Equal(t, "notes.b", e.Metadata["target_document"])
		}
	}
	assert.True(t, sawTopical)
	assert.True(t, sawCrossDoc)
}

func TestTopicalAndCrossDocument_WeakOnlyProducesTopicalNotCrossDocument(t *testing.T) {
	chunks := []ChunkInfo{
		{ChunkID: "notes.a.main", StoreType: "notes", DocumentID: "a", Vector: []float32{1, 0}},
		{ChunkID: "notes.b.main", StoreType: "notes", DocumentID: "b", Vector: []float32{0.6, 0.8}},
	}
	edges := topicalAndCrossDocument(chunks)
	require.Len(t, edges, 1)
	assert.Equal(t, store.RelationshipTopical, edges[0].Type)
}

func TestTopicalAndCrossDocument_SkipsChunksWithoutVectors(t *testing.T) {
	chunks := []ChunkInfo{
		{ChunkID: "notes.a.main", StoreType: "notes", DocumentID: "a"},
		{ChunkID: "notes.b.main", StoreType: "notes", DocumentID: "b", Vector: []float32{1, 0}},
	}
	assert.Empty(t, topicalAndCrossDocument(chunks))
}

func TestAnalyze_SkipsCrossDocumentWhenNotRequested(t *testing.T) {
	chunks := []ChunkInfo{
		{ChunkID: "notes.a.main", StoreType: "notes", DocumentID: "a", Sequence: 1, Vector: []float32{1, 0}},
		{ChunkID: "notes.b.main", StoreType: "notes", DocumentID: "b", Sequence: 1, Vector: []float32{1, 0}},
	}
	edges := Analyze(chunks, false)
	assert.Empty(t, edges)
}

func TestFromRecords_PreservesFields(t *testing.T) {
	records := []*store.ChunkRecord{
		{ChunkID: "notes.a.main", StoreType: "notes", DocumentID: "a", ChunkType: "generic", Sequence: 1, Title: "A", Vector: []float32{1}},
	}
	infos := FromRecords(records)
	require.Len(t, infos, 1)
	assert.Equal(t, "notes.a.main", infos[0].ChunkID)
	assert.Equal(t, "a", infos[0].DocumentID)
	assert.Equal(t, "notes.a", infos[0].parentID())
}

func TestExpandChunkIDs_BreadthFirstExpandsByRadius(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	edges := []*store.Relationship{
		{SourceID: "a", TargetID: "b", Type: store.RelationshipSequential, Strength: 1.0},
		{SourceID: "b", TargetID: "c", Type: store.RelationshipSequential, Strength: 1.0},
	}
	require.NoError(t, s.StoreChunkRelationships(ctx, edges))

	oneHop, err := ExpandChunkIDs(ctx, s, []string{"a"}, 1, 0.5)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b"}, oneHop)

	twoHop, err := ExpandChunkIDs(ctx, s, []string{"a"}, 2, 0.5)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c"}, twoHop)
}

func TestExpandChunkIDs_DoesNotRediscoverStartingIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	edge := &store.Relationship{SourceID: "a", TargetID: "b", Type: store.RelationshipSequential, Strength: 1.0}
	require.NoError(t, s.StoreChunkRelationships(ctx, []*store.Relationship{edge}))

	discovered, err := ExpandChunkIDs(ctx, s, []string{"a", "b"}, 2, 0.5)
	require.NoError(t, err)
	assert.Empty(t, discovered)
}

func TestExpandChunkIDs_MinStrengthFiltersWeakEdges(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	edge := &store.Relationship{SourceID: "a", TargetID: "b", Type: store.RelationshipTopical, Strength: 0.3}
	require.NoError(t, s.StoreChunkRelationships(ctx, []*store.Relationship{edge}))

	discovered, err := ExpandChunkIDs(ctx, s, []string{"a"}, 1, 0.5)
	require.NoError(t, err)
	assert.Empty(t, discovered)
}
