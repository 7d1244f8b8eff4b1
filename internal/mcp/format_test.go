package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/goldentooth/knowledgeengine/internal/rag"
)

func TestFormatQueryResult_WithAnswerAndSources(t *testing.T) {
	result := &rag.Result{
		Answer: "nomad schedules jobs across nodes",
		Sources: []rag.Source{
			{Index: 1, ChunkID: "notes.deploy.main", DocumentID: "deploy", Title: "Deploy Guide", Content: "nomad schedules jobs", Score: 0.9},
		},
	}

	out := FormatQueryResult("how does scheduling work", result)
	assert.Contains(t, out, "nomad schedules jobs across nodes")
	assert.Contains(t, out, "1 source(s)")
	assert.Contains(t, out, "Deploy Guide")
}

func TestFormatQueryResult_NoAnswer(t *testing.T) {
	result := &rag.Result{
		Sources: []rag.Source{{Index: 1, ChunkID: "c1", DocumentID: "d1", Content: "text"}},
	}

	out := FormatQueryResult("some question", result)
	assert.Contains(t, out, "No answer generated")
}

func TestFormatQueryResult_NoSources(t *testing.T) {
	out := FormatQueryResult("some question", &rag.Result{})
	assert.Contains(t, out, "No sources found")
}

func TestFormatQueryResult_FusedSource(t *testing.T) {
	result := &rag.Result{
		Sources: []rag.Source{{Index: 1, ChunkID: "c1", DocumentID: "d1", Content: "text", FromFusion: true}},
	}

	out := FormatQueryResult("q", result)
	assert.Contains(t, out, "fused from multiple chunks")
}

func TestSourceLabel_FallsBackToDocumentAndChunkID(t *testing.T) {
	s := rag.Source{DocumentID: "deploy", ChunkID: "notes.deploy.main"}
	assert.Equal(t, "deploy/notes.deploy.main", sourceLabel(s))
}
