package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goldentooth/knowledgeengine/internal/rag"
	"github.com/goldentooth/knowledgeengine/internal/rank"
)

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 10, clampLimit(0, 10, 1, 50))
	assert.Equal(t, 10, clampLimit(-5, 10, 1, 50))
	assert.Equal(t, 50, clampLimit(100, 10, 1, 50))
	assert.Equal(t, 7, clampLimit(7, 10, 1, 50))
}

func TestToQueryOutput(t *testing.T) {
	result := &rag.Result{
		Answer:         "nomad schedules jobs across nodes",
		Strategies:     []string{"hybrid"},
		GenerationUsed: true,
		Sources: []rag.Source{
			{
				Index:      1,
				ChunkID:    "notes.deploy.main",
				DocumentID: "deploy",
				Title:      "Deploy Guide",
				ChunkType:  "note_section",
				Content:    "The cluster uses nomad for scheduling jobs.",
				Score:      0.91,
				Explain:    &rank.Explain{},
				FromFusion: true,
			},
		},
	}

	out := ToQueryOutput(result)
	assert.Equal(t, "nomad schedules jobs across nodes", out.Answer)
	assert.True(t, out.GenerationUsed)
	assert.Equal(t, []string{"hybrid"}, out.Strategies)
	require.Len(t, out.Sources, 1)
	assert.Equal(t, "notes.deploy.main", out.Sources[0].ChunkID)
	assert.True(t, out.Sources[0].FromFusion)
}

func TestToQueryOutput_EmptySources(t *testing.T) {
	out := ToQueryOutput(&rag.Result{})
	assert.Empty(t, out.Sources)
	assert.NotNil(t, out.Sources)
}
