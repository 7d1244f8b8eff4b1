package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestDoc(t *testing.T, root, storeType, documentID, body string) {
	t.Helper()
	path := filepath.Join(root, storeType, documentID+".yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

// TestIngestThenQuery exercises the full ingest -> stats -> query path
// end to end, using the deterministic hash embedder so it never touches
// the network.
func TestIngestThenQuery(t *testing.T) {
	t.Setenv("KNOWLEDGEENGINE_EMBEDDER", "hash")
	dataDir := t.TempDir()
	t.Setenv("KNOWLEDGEENGINE_DATA_DIR", dataDir)

	docRoot := t.TempDir()
	writeTestDoc(t, docRoot, "notes", "deploy",
		"title: Deploy Guide\ncontent: |\n  The cluster uses nomad for scheduling jobs across every node.\n")
	writeTestDoc(t, docRoot, "notes", "recipes",
		"title: Recipes\ncontent: |\n  This document is about baking bread and unrelated recipes.\n")

	root := NewRootCmd()
	root.SetArgs([]string{"ingest", "--root", docRoot})
	var ingestOut bytes.Buffer
	root.SetOut(&ingestOut)
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, ingestOut.String(), "ingested 2 document")

	statsCmd := NewRootCmd()
	statsCmd.SetArgs([]string{"stats"})
	var statsOut bytes.Buffer
	statsCmd.SetOut(&statsOut)
	require.NoError(t, statsCmd.ExecuteContext(context.Background()))
	assert.Contains(t, statsOut.String(), "documents: 2")

	queryCmd := NewRootCmd()
	queryCmd.SetArgs([]string{"query", "nomad", "scheduling"})
	var queryOut bytes.Buffer
	queryCmd.SetOut(&queryOut)
	require.NoError(t, queryCmd.ExecuteContext(context.Background()))
	assert.Contains(t, queryOut.String(), "source(s):")
}

func TestRelate_AnalyzesAndStoresRelationshipsAfterIngest(t *testing.T) {
	t.Setenv("KNOWLEDGEENGINE_EMBEDDER", "hash")
	dataDir := t.TempDir()
	t.Setenv("KNOWLEDGEENGINE_DATA_DIR", dataDir)

	docRoot := t.TempDir()
	writeTestDoc(t, docRoot, "notes", "deploy",
		"title: Deploy Guide\ncontent: |\n  # Introduction\n  The cluster uses nomad for scheduling.\n\n  # Usage\n  Nomad schedules jobs across nodes.\n")

	ingestCmd := NewRootCmd()
	ingestCmd.SetArgs([]string{"ingest", "--root", docRoot})
	require.NoError(t, ingestCmd.ExecuteContext(context.Background()))

	relateCmd := NewRootCmd()
	relateCmd.SetArgs([]string{"relate"})
	var out bytes.Buffer
	relateCmd.SetOut(&out)
	require.NoError(t, relateCmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "relationship")
}

func TestSyncSidecars_WritesFilesForIngestedChunks(t *testing.T) {
	t.Setenv("KNOWLEDGEENGINE_EMBEDDER", "hash")
	dataDir := t.TempDir()
	t.Setenv("KNOWLEDGEENGINE_DATA_DIR", dataDir)

	docRoot := t.TempDir()
	writeTestDoc(t, docRoot, "notes", "deploy", "title: Deploy\ncontent: nomad schedules jobs.\n")

	ingestCmd := NewRootCmd()
	ingestCmd.SetArgs([]string{"ingest", "--root", docRoot})
	require.NoError(t, ingestCmd.ExecuteContext(context.Background()))

	syncCmd := NewRootCmd()
	syncCmd.SetArgs([]string{"sync-sidecars"})
	var out bytes.Buffer
	syncCmd.SetOut(&out)
	require.NoError(t, syncCmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "synced")
}
