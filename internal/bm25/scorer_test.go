package bm25

import (
	"context"
	"testing"

	"github.com/goldentooth/knowledgeengine/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestScorer(t *testing.T) (*Scorer, *store.Store) {
	t.Helper()
	ctx := context.Background()

	s, err := store.Open(t.TempDir() + "/index.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	docs := []struct {
		storeType, documentID, chunkID, content string
	}{
		{"notes", "a", "notes.a.main", "goldentooth cluster runs nomad and consul goldentooth"},
		{"notes", "b", "notes.b.main", "nomad scheduling jobs across the cluster"},
		{"github.repos", "c", "github.repos.c.core", "unrelated repository about cooking recipes"},
	}

	for _, d := range docs {
		chunk := &store.ChunkRecord{ChunkID: d.chunkID, ChunkType: "generic", Sequence: 1, Content: d.content}
		require.NoError(t, s.StoreDocumentChunks(ctx, d.storeType, d.documentID, []*store.ChunkRecord{chunk}, nil))
	}

	scorer := New(DefaultConfig())
	require.NoError(t, scorer.Build(ctx, s))
	return scorer, s
}

func TestTokenize_DropsShortTokensAndStopWords(t *testing.T) {
	tokens := Tokenize("The Goldentooth Cluster is a cluster!", DefaultStopWords)
	assert.Equal(t, []string{"goldentooth", "cluster", "cluster"}, tokens)
}

func TestScorer_SearchRanksMoreRelevantDocHigher(t *testing.T) {
	scorer, _ := buildTestScorer(t)

	results := scorer.Search("goldentooth cluster", 10, "", true)
	require.NotEmpty(t, results)
	assert.Equal(t, "notes.a.main", results[0].ChunkID)
}

func TestScorer_SearchAppliesStoreFilter(t *testing.T) {
	scorer, _ := buildTestScorer(t)

	results := scorer.Search("cluster", 10, "github.repos", true)
	assert.Empty(t, results)
}

func TestScorer_SearchNormalizesByQueryTermCount(t *testing.T) {
	scorer, _ := buildTestScorer(t)

	oneTerm := scorer.Search("cluster", 10, "", true)
	twoTerms := scorer.Search("cluster missingtermxyz", 10, "", true)

	require.NotEmpty(t, oneTerm)
	require.NotEmpty(t, twoTerms)
	var oneScore, twoScore float64
	for _, r := range oneTerm {
		if r.ChunkID == "notes.a.main" {
			oneScore = r.Score
		}
	}
	for _, r := range twoTerms {
		if r.ChunkID == "notes.a.main" {
			twoScore = r.Score
		}
	}
	assert.Less(t, twoScore, oneScore)
}

func TestScorer_StatsReflectsBuiltCorpus(t *testing.T) {
	scorer, _ := buildTestScorer(t)

	stats := scorer.Stats()
	assert.Equal(t, 3, stats.DocumentCount)
	assert.Greater(t, stats.TermCount, 0)
	assert.Greater(t, stats.AvgDocLength, 0.0)
}

func TestNew_ClampsB(t *testing.T) {
	assert.Equal(t, 1.0, New(Config{K1: 1.5, B: 2}).cfg.B)
	assert.Equal(t, 0.0, New(Config{K1: 1.5, B: -1}).cfg.B)
}
