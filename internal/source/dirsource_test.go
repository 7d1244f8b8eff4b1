package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, root, storeType, documentID, body string) {
	t.Helper()
	path := filepath.Join(root, storeType, documentID+yamlExt)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestDirSource_DocumentsStreamsAllYAMLFiles(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "github.repos", "goldentooth/cluster", "name: cluster\ndescription: a cluster\n")
	writeDoc(t, root, "notes", "deploy", "title: Deploy\ncontent: |\n  # Setup\n  Run it.\n")

	src := NewDirSource(root)
	docs, errs := src.Documents(context.Background())

	var got []Document
	for d := range docs {
		got = append(got, d)
	}
	require.NoError(t, <-errs)
	require.Len(t, got, 2)

	byStore := map[string]Document{}
	for _, d := range got {
		byStore[d.StoreType+"/"+d.DocumentID] = d
	}

	repo, ok := byStore["github.repos/goldentooth/cluster"]
	require.True(t, ok)
	assert.Equal(t, "cluster", repo.Payload["name"])

	note, ok := byStore["notes/deploy"]
	require.True(t, ok)
	assert.Equal(t, "Deploy", note.Payload["title"])
}

func TestDirSource_ExistsAndLoad(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "notes", "deploy", "title: Deploy\n")

	src := NewDirSource(root)
	assert.True(t, src.Exists("notes", "deploy"))
	assert.False(t, src.Exists("notes", "missing"))

	payload, err := src.Load("notes", "deploy")
	require.NoError(t, err)
	assert.Equal(t, "Deploy", payload["title"])

	_, err = src.Load("notes", "missing")
	assert.Error(t, err)
}

func TestDirSource_DocumentsRespectsContextCancellation(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "notes", "one", "title: One\n")
	writeDoc(t, root, "notes", "two", "title: Two\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := NewDirSource(root)
	docs, errs := src.Documents(ctx)
	for range docs {
	}
	err := <-errs
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}
