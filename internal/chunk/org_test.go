package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrgChunker_ProducesSingleOrgMainChunk(t *testing.T) {
	payload := Payload{
		"name":         "Goldentooth",
		"description":  "Infrastructure cluster",
		"login":        "goldentooth",
		"public_repos": "12",
	}

	chunks, err := NewOrgChunker().Chunk("github.orgs", "goldentooth", payload)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	chunk := chunks[0]
	assert.Equal(t, "org_main", chunk.ChunkType)
	assert.Equal(t, 1, chunk.Sequence)
	assert.Equal(t, "github.orgs.goldentooth.main", chunk.ChunkID)
	assert.Contains(t, chunk.Content, "Name: Goldentooth")
	assert.Contains(t, chunk.Content, "Login: goldentooth")
}

func TestOrgChunker_EmptyPayloadYieldsEmptyChunk(t *testing.T) {
	chunks, err := NewOrgChunker().Chunk("github.orgs", "empty", Payload{})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "", chunks[0].Content)
}
