package sidecar

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goldentooth/knowledgeengine/internal/store"
)

// ManifestRelPath is the manifest's fixed location under the data
// directory, per the persistent state layout.
const ManifestRelPath = ".embeddings/metadata.json"

// Writer writes sidecar files and keeps the manifest in sync, guarded by a
// file lock held for the duration of a batch.
type Writer struct {
	dataDir string
	model   string
	dims    int
	lock    *FileLock

	mu       sync.Mutex
	manifest *Manifest
}

// NewWriter opens a writer rooted at dataDir for the given embedder
// identity.
func NewWriter(dataDir, model string, dims int) (*Writer, error) {
	manifest, err := LoadManifest(filepath.Join(dataDir, ManifestRelPath), model, dims)
	if err != nil {
		return nil, err
	}
	return &Writer{
		dataDir:  dataDir,
		model:    model,
		dims:     dims,
		lock:     NewFileLock(dataDir),
		manifest: manifest,
	}, nil
}

// BeginBatch acquires the writer's single-writer lock for the duration of
// an ingestion batch.
func (w *Writer) BeginBatch() error {
	return w.lock.Lock()
}

// EndBatch flushes the manifest and releases the lock.
func (w *Writer) EndBatch() error {
	w.mu.Lock()
	err := w.manifest.Save(filepath.Join(w.dataDir, ManifestRelPath))
	w.mu.Unlock()

	if unlockErr := w.lock.Unlock(); err == nil {
		err = unlockErr
	}
	return err
}

// WriteVector writes chunkID's sidecar if, and only if, its checksum
// differs from what the manifest already records; otherwise it is a
// documented no-op. Returns whether a disk write happened.
func (w *Writer) WriteVector(storeType, chunkID string, vec []float32, now time.Time) (bool, error) {
	checksum := Checksum(vec)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.manifest.Unchanged(chunkID, checksum) {
		return false, nil
	}

	path := PathFor(w.dataDir, storeType, chunkID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("create sidecar directory: %w", err)
	}

	payload, err := EncodeSidecar(vec)
	if err != nil {
		return false, err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0644); err != nil {
		return false, fmt.Errorf("write sidecar: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return false, fmt.Errorf("rename sidecar: %w", err)
	}

	relPath, err := filepath.Rel(w.dataDir, path)
	if err != nil {
		relPath = path
	}
	w.manifest.Record(chunkID, relPath, checksum, int64(len(payload)), now)
	return true, nil
}

// ReadVector reads and decodes chunkID's sidecar file.
func (w *Writer) ReadVector(storeType, chunkID string) ([]float32, error) {
	path := PathFor(w.dataDir, storeType, chunkID)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sidecar %s: %w", chunkID, err)
	}
	return DecodeSidecar(data)
}

// Sync iterates every chunk known to src and writes any missing or stale
// sidecar, returning the count of sidecars actually written. A sidecar
// file absent from disk is rewritten even when the manifest still records
// its checksum. src's
// embeddings table is treated as authoritative; sidecars are always
// reconstructed from it, never the other way around.
func Sync(ctx context.Context, w *Writer, src *store.Store, chunkIDs []string, now time.Time) (int, error) {
	if err := w.BeginBatch(); err != nil {
		return 0, err
	}
	defer w.EndBatch()

	written := 0
	for _, id := range chunkIDs {
		chunk, err := src.GetChunk(ctx, id)
		if err != nil {
			return written, fmt.Errorf("load chunk %s: %w", id, err)
		}
		if len(chunk.Vector) == 0 {
			continue
		}
		if _, statErr := os.Stat(PathFor(w.dataDir, chunk.StoreType, chunk.ChunkID)); os.IsNotExist(statErr) {
			w.mu.Lock()
			delete(w.manifest.Entries, chunk.ChunkID)
			w.mu.Unlock()
		}
		wrote, err := w.WriteVector(chunk.StoreType, chunk.ChunkID, chunk.Vector, now)
		if err != nil {
			return written, err
		}
		if wrote {
			written++
		}
	}
	return written, nil
}
