package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedIngestedCorpus(t *testing.T) {
	t.Helper()
	t.Setenv("KNOWLEDGEENGINE_EMBEDDER", "hash")
	t.Setenv("KNOWLEDGEENGINE_DATA_DIR", t.TempDir())

	docRoot := t.TempDir()
	writeTestDoc(t, docRoot, "notes", "deploy",
		"title: Deploy Guide\ncontent: |\n  The cluster uses nomad for scheduling jobs across every node.\n  Nomad scheduling assigns jobs to nodes based on available resources.\n")
	writeTestDoc(t, docRoot, "notes", "recipes",
		"title: Recipes\ncontent: |\n  This document is about baking bread and unrelated recipes.\n")

	ingestCmd := NewRootCmd()
	ingestCmd.SetArgs([]string{"ingest", "--root", docRoot})
	require.NoError(t, ingestCmd.ExecuteContext(context.Background()))
}

func TestHybridQuery_ReturnsSources(t *testing.T) {
	seedIngestedCorpus(t)

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"hybrid-query", "--explain", "nomad", "scheduling"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "source(s):")
}

func TestFuseQuery_ReturnsSources(t *testing.T) {
	seedIngestedCorpus(t)

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"fuse-query", "nomad", "scheduling"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "source(s):")
}

func TestEnhancedQuery_ReturnsSources(t *testing.T) {
	seedIngestedCorpus(t)

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"enhanced-query", "how", "to", "configure", "nomad", "scheduling"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "source(s):")
}

func TestWatchCmd_RequiresRootFlag(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"watch"})
	err := cmd.ExecuteContext(context.Background())
	assert.Error(t, err)
}
