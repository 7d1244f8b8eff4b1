package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepoChunker_ProducesThreeChunksInFixedOrder(t *testing.T) {
	payload := Payload{
		"name":            "goldentooth/knowledgeengine",
		"description":     "RAG engine over YAML documents",
		"primary_language": "Go",
		"languages":       []any{"Go", "Python"},
		"topics":          []any{"rag", "search"},
		"default_branch":  "main",
		"stars":           "42",
		"archived":        false,
	}

	chunks, err := NewRepoChunker().Chunk("github.repos", "goldentooth/knowledgeengine", payload)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, "repo_core", chunks[0].ChunkType)
	assert.Equal(t, 1, chunks[0].Sequence)
	assert.Contains(t, chunks[0].Content, "Name: goldentooth/knowledgeengine")

	assert.Equal(t, "repo_technical", chunks[1].ChunkType)
	assert.Equal(t, 2, chunks[1].Sequence)
	assert.Contains(t, chunks[1].Content, "Languages: Go, Python")

	assert.Equal(t, "repo_activity", chunks[2].ChunkType)
	assert.Equal(t, 3, chunks[2].Sequence)
	assert.Contains(t, chunks[2].Content, "Stars: 42")

	assert.Equal(t, "github.repos.goldentooth/knowledgeengine.core", chunks[0].ChunkID)
}

func TestRepoChunker_OmitsEmptySections(t *testing.T) {
	payload := Payload{"name": "bare-repo"}

	chunks, err := NewRepoChunker().Chunk("github.repos", "bare-repo", payload)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "repo_core", chunks[0].ChunkType)
	assert.Equal(t, 1, chunks[0].Sequence)
}

func TestRepoChunker_KeepsStableSequenceWhenTechnicalMissing(t *testing.T) {
	payload := Payload{
		"name":  "repo-with-gaps",
		"stars": "7",
	}

	chunks, err := NewRepoChunker().Chunk("github.repos", "repo-with-gaps", payload)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "repo_core", chunks[0].ChunkType)
	assert.Equal(t, 1, chunks[0].Sequence)
	assert.Equal(t, "repo_activity", chunks[1].ChunkType)
	assert.Equal(t, 3, chunks[1].Sequence)
}

func TestRepoChunker_Deterministic(t *testing.T) {
	payload := Payload{"name": "repo", "description": "desc"}

	a, err := NewRepoChunker().Chunk("github.repos", "repo", payload)
	require.NoError(t, err)
	b, err := NewRepoChunker().Chunk("github.repos", "repo", payload)
	require.NoError(t, err)

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].ChunkID, b[i].ChunkID)
		assert.Equal(t, a[i].Content, b[i].Content)
	}
}
