package sidecar

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifest_RecordPreservesTimestampWhenChecksumUnchanged(t *testing.T) {
	m := NewManifest("hash-stub", 1536)
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.Record("a.main", "a/a.main.emb.gz", "checksum-1", 100, first)

	second := first.Add(24 * time.Hour)
	m.Record("a.main", "a/a.main.emb.gz", "checksum-1", 100, second)

	assert.Equal(t, first, m.Entries["a.main"].CreatedAt)
}

func TestManifest_RecordAdvancesTimestampWhenChecksumChanges(t *testing.T) {
	m := NewManifest("hash-stub", 1536)
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.Record("a.main", "a/a.main.emb.gz", "checksum-1", 100, first)

	second := first.Add(24 * time.Hour)
	m.Record("a.main", "a/a.main.emb.gz", "checksum-2", 120, second)

	assert.Equal(t, second, m.Entries["a.main"].CreatedAt)
	assert.Equal(t, "checksum-2", m.Entries["a.main"].Checksum)
}

func TestManifest_SaveLoadRoundTripsAndIsByteIdentical(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")

	m := NewManifest("hash-stub", 1536)
	m.Record("z.main", "z/z.main.emb.gz", "cs-z", 10, time.Unix(0, 0).UTC())
	m.Record("a.main", "a/a.main.emb.gz", "cs-a", 20, time.Unix(0, 0).UTC())
	require.NoError(t, m.Save(path))
	firstBytes, err := os.ReadFile(path)
	require.NoError(t, err)

	loaded, err := LoadManifest(path, "hash-stub", 1536)
	require.NoError(t, err)
	assert.Equal(t, m.Entries, loaded.Entries)

	require.NoError(t, loaded.Save(path))
	secondBytes, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, firstBytes, secondBytes)
	again, err := LoadManifest(path, "hash-stub", 1536)
	require.NoError(t, err)
	assert.Equal(t, loaded.Entries, again.Entries)
}

func TestManifest_UnchangedDetectsMatchingChecksum(t *testing.T) {
	m := NewManifest("hash-stub", 1536)
	m.Record("a.main", "a/a.main.emb.gz", "cs-a", 10, time.Now())

	assert.True(t, m.Unchanged("a.main", "cs-a"))
	assert.False(t, m.Unchanged("a.main", "cs-b"))
	assert.False(t, m.Unchanged("missing", "cs-a"))
}
