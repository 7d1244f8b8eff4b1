package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder()
	ctx := context.Background()

	v1, err := e.Embed(ctx, "deploy the kubernetes ingress")
	require.NoError(t, err)
	v2, err := e.Embed(ctx, "deploy the kubernetes ingress")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Len(t, v1, Dimensions)
}

func TestHashEmbedder_EmptyText(t *testing.T) {
	e := NewHashEmbedder()
	v, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, ZeroVector(), v)
}

func TestHashEmbedder_DifferentTextDifferentVector(t *testing.T) {
	e := NewHashEmbedder()
	ctx := context.Background()

	v1, err := e.Embed(ctx, "repository metadata")
	require.NoError(t, err)
	v2, err := e.Embed(ctx, "infrastructure notes")
	require.NoError(t, err)

	assert.NotEqual(t, v1, v2)
}

func TestHashEmbedder_EmbedBatch(t *testing.T) {
	e := NewHashEmbedder()
	texts := []string{"one", "two", "three"}
	vecs, err := e.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vecs, len(texts))
	for _, v := range vecs {
		assert.Len(t, v, Dimensions)
	}
}

func TestHashEmbedder_CloseMarksUnavailable(t *testing.T) {
	e := NewHashEmbedder()
	ctx := context.Background()
	assert.True(t, e.Available(ctx))
	require.NoError(t, e.Close())
	assert.False(t, e.Available(ctx))

	_, err := e.Embed(ctx, "anything")
	assert.Error(t, err)
}
