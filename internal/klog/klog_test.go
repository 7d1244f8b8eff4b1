package klog

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetup_WritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.log")

	logger, cleanup, err := Setup(Config{Level: "debug", FilePath: path, MaxSizeMB: 1, MaxFiles: 2})
	require.NoError(t, err)
	defer cleanup()

	logger.Info("ingest_started", slog.String("document_id", "notes.deploy"))
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	require.NotEmpty(t, lines)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	require.Equal(t, "ingest_started", entry["msg"])
	require.Equal(t, "notes.deploy", entry["document_id"])
}

func TestRotatingWriter_RotatesPastMaxSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "small.log")

	w, err := NewRotatingWriter(path, 0, 2) // 0MB -> rotates on first write beyond 0 bytes
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("first line that is long enough to force rotation\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("second line\n"))
	require.NoError(t, err)

	_, statErr := os.Stat(path + ".1")
	require.NoError(t, statErr)
}
