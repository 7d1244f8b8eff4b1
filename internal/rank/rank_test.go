package rank

import (
	"context"
	"testing"

	"github.com/goldentooth/knowledgeengine/internal/bm25"
	"github.com/goldentooth/knowledgeengine/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir() + "/index.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestFuse_NormalizesWeightsAndCombinesScores(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	chunk := &store.ChunkRecord{ChunkID: "notes.a.main", ChunkType: "generic", Sequence: 1, Content: "goldentooth cluster overview", Title: "Overview"}
	require.NoError(t, s.StoreDocumentChunks(ctx, "notes", "a", []*store.ChunkRecord{chunk}, nil))

	semantic := []*store.SearchResult{{ChunkID: "notes.a.main", StoreType: "notes", DocumentID: "a", Title: "Overview", Similarity: 0.8}}
	lexical := []*bm25.Result{{ChunkID: "notes.a.main", Score: 0.4, MatchedTerms: []string{"cluster"}}}

	items, err := Fuse(ctx, s, "cluster", semantic, lexical, Weights{Semantic: 2, Lexical: 2}, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.InDelta(t, 0.6, item.Explain.Base, 1e-9)
	assert.True(t, item.Explain.ExactPhrase)
	assert.Greater(t, item.Score, item.Explain.Base)
}

func TestFuse_MergesSemanticAndLexicalOnSameChunkID(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	chunk := &store.ChunkRecord{ChunkID: "notes.a.main", ChunkType: "generic", Sequence: 1, Content: "unrelated content about recipes"}
	require.NoError(t, s.StoreDocumentChunks(ctx, "notes", "a", []*store.ChunkRecord{chunk}, nil))

	semantic := []*store.SearchResult{{ChunkID: "notes.a.main", StoreType: "notes", DocumentID: "a", Similarity: 0.5}}
	lexical := []*bm25.Result{{ChunkID: "notes.a.main", Score: 0.5}}

	items, err := Fuse(ctx, s, "recipes", semantic, lexical, Weights{Semantic: 0.5, Lexical: 0.5}, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 0.5, items[0].Explain.SemanticScore)
	assert.Equal(t, 0.5, items[0].Explain.LexicalScore)
}

func TestFuse_ConsecutiveTokenBoostRequiresMultipleTerms(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	chunk := &store.ChunkRecord{ChunkID: "notes.a.main", ChunkType: "generic", Sequence: 1, Content: "nomad scheduling jobs across the cluster"}
	require.NoError(t, s.StoreDocumentChunks(ctx, "notes", "a", []*store.ChunkRecord{chunk}, nil))

	semantic := []*store.SearchResult{{ChunkID: "notes.a.main", StoreType: "notes", DocumentID: "a", Similarity: 0.1}}

	items, err := Fuse(ctx, s, "scheduling jobs", semantic, nil, Weights{Semantic: 1}, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Explain.ConsecutiveTerm)
}

func TestFuse_DocumentTitleBoostUsesLeadChunkTitle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	chunks := []*store.ChunkRecord{
		{ChunkID: "repos.proj.core", ChunkType: "repo_core", Sequence: 1, Content: "core details", Title: "Goldentooth Project"},
		{ChunkID: "repos.proj.technical", ChunkType: "repo_technical", Sequence: 2, Content: "go, shell"},
	}
	require.NoError(t, s.StoreDocumentChunks(ctx, "repos", "proj", chunks, nil))

	semantic := []*store.SearchResult{{ChunkID: "repos.proj.technical", StoreType: "repos", DocumentID: "proj", Similarity: 0.2}}

	items, err := Fuse(ctx, s, "goldentooth", semantic, nil, Weights{Semantic: 1}, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Explain.TitleMatch)
}

func TestFuse_DocumentIDBoost(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	chunk := &store.ChunkRecord{ChunkID: "notes.deploy-guide.main", ChunkType: "generic", Sequence: 1, Content: "unrelated text"}
	require.NoError(t, s.StoreDocumentChunks(ctx, "notes", "deploy-guide", []*store.ChunkRecord{chunk}, nil))

	semantic := []*store.SearchResult{{ChunkID: "notes.deploy-guide.main", StoreType: "notes", DocumentID: "deploy-guide", Similarity: 0.1}}

	items, err := Fuse(ctx, s, "deploy-guide", semantic, nil, Weights{Semantic: 1}, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Explain.DocumentIDMatch)
}

func TestFuse_SortsByScoreDescendingThenChunkIDAscending(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	chunks := []*store.ChunkRecord{
		{ChunkID: "notes.a.main", ChunkType: "generic", Sequence: 1, Content: "alpha"},
		{ChunkID: "notes.b.main", ChunkType: "generic", Sequence: 1, Content: "beta"},
	}
	require.NoError(t, s.StoreDocumentChunks(ctx, "notes", "a", chunks[:1], nil))
	require.NoError(t, s.StoreDocumentChunks(ctx, "notes", "b", chunks[1:], nil))

	semantic := []*store.SearchResult{
		{ChunkID: "notes.a.main", StoreType: "notes", DocumentID: "a", Similarity: 0.5},
		{ChunkID: "notes.b.main", StoreType: "notes", DocumentID: "b", Similarity: 0.5},
	}

	items, err := Fuse(ctx, s, "", semantic, nil, Weights{Semantic: 1}, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "notes.a.main", items[0].ChunkID)
	assert.Equal(t, "notes.b.main", items[1].ChunkID)
}

func TestFuse_RespectsTopK(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	chunks := []*store.ChunkRecord{
		{ChunkID: "notes.a.main", ChunkType: "generic", Sequence: 1, Content: "alpha"},
		{ChunkID: "notes.b.main", ChunkType: "generic", Sequence: 1, Content: "beta"},
	}
	require.NoError(t, s.StoreDocumentChunks(ctx, "notes", "a", chunks[:1], nil))
	require.NoError(t, s.StoreDocumentChunks(ctx, "notes", "b", chunks[1:], nil))

	semantic := []*store.SearchResult{
		{ChunkID: "notes.a.main", StoreType: "notes", DocumentID: "a", Similarity: 0.9},
		{ChunkID: "notes.b.main", StoreType: "notes", DocumentID: "b", Similarity: 0.1},
	}

	items, err := Fuse(ctx, s, "", semantic, nil, Weights{Semantic: 1}, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "notes.a.main", items[0].ChunkID)
}

func TestWeights_NormalizeFallsBackToPureSemanticWhenZero(t *testing.T) {
	w := Weights{}.normalize()
	assert.Equal(t, 1.0, w.Semantic)
	assert.Equal(t, 0.0, w.Lexical)
}
