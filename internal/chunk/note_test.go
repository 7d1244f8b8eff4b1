package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteChunker_SplitsByATXHeaders(t *testing.T) {
	payload := Payload{
		"title":    "Deploy notes",
		"category": "ops",
		"tags":     []any{"deploy", "runbook"},
		"content":  "# Overview\nShort summary.\n\n# Steps\n1. Build\n2. Ship\n",
	}

	chunks, err := NewNoteChunker().Chunk("notes", "deploy", payload)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, "note_section", chunks[0].ChunkType)
	assert.Equal(t, "Overview", chunks[0].Title)
	assert.Contains(t, chunks[0].Content, "Title: Deploy notes")
	assert.Contains(t, chunks[0].Content, "Tags: deploy, runbook")
	assert.Contains(t, chunks[0].Content, "Short summary.")

	assert.Equal(t, "note_section", chunks[1].ChunkType)
	assert.Equal(t, "Steps", chunks[1].Title)
	assert.Equal(t, 2, chunks[1].Sequence)
}

func TestNoteChunker_FallsBackToGenericWithFewerThanTwoSections(t *testing.T) {
	payload := Payload{
		"title":   "Quick note",
		"content": "Just one paragraph, no headers at all.",
	}

	chunks, err := NewNoteChunker().Chunk("notes", "quick", payload)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "generic", chunks[0].ChunkType)
	assert.Contains(t, chunks[0].Content, "Title: Quick note")
	assert.Contains(t, chunks[0].Content, "Just one paragraph")
}

func TestNoteChunker_Deterministic(t *testing.T) {
	payload := Payload{"title": "T", "content": "# A\nfoo\n\n# B\nbar\n"}

	a, err := NewNoteChunker().Chunk("notes", "doc", payload)
	require.NoError(t, err)
	b, err := NewNoteChunker().Chunk("notes", "doc", payload)
	require.NoError(t, err)

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].ChunkID, b[i].ChunkID)
		assert.Equal(t, a[i].Content, b[i].Content)
	}
}
