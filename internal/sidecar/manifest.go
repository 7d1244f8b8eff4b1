package sidecar

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestVersion is the current manifest schema version.
const ManifestVersion = 1

// ManifestEntry records one chunk's sidecar state.
type ManifestEntry struct {
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
	File      string    `json:"file"`
	FileSize  int64     `json:"file_size"`
}

// Manifest is the single JSON document recording every sidecar's state.
// encoding/json sorts map keys on marshal and emits struct fields in
// declaration order, so the fields here and in ManifestEntry are declared
// in alphabetical order of their JSON names to keep every key sorted.
type Manifest struct {
	Compression string                   `json:"compression"`
	Dimension   int                      `json:"dimension"`
	Entries     map[string]ManifestEntry `json:"entries"`
	Model       string                   `json:"model"`
	Version     int                      `json:"version"`
}

// NewManifest returns an empty manifest for the given embedder identity.
func NewManifest(model string, dimension int) *Manifest {
	return &Manifest{
		Model:       model,
		Dimension:   dimension,
		Compression: "gzip",
		Version:     ManifestVersion,
		Entries:     map[string]ManifestEntry{},
	}
}

// LoadManifest reads the manifest at path, returning a fresh one if the
// file does not exist yet.
func LoadManifest(path string, model string, dimension int) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewManifest(model, dimension), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Entries == nil {
		m.Entries = map[string]ManifestEntry{}
	}
	return &m, nil
}

// Save writes the manifest as sorted-key, indented JSON.
func (m *Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename manifest: %w", err)
	}
	return nil
}

// Unchanged reports whether chunkID's recorded checksum already matches,
// meaning a sidecar write for it would be a no-op.
func (m *Manifest) Unchanged(chunkID, checksum string) bool {
	entry, ok := m.Entries[chunkID]
	return ok && entry.Checksum == checksum
}

// Record updates chunkID's entry. The timestamp only advances when the
// checksum actually changes; a re-recorded unchanged entry keeps its prior
// CreatedAt so repeated ingestions of identical content produce
// byte-identical manifests.
func (m *Manifest) Record(chunkID, relPath, checksum string, fileSize int64, now time.Time) {
	if existing, ok := m.Entries[chunkID]; ok && existing.Checksum == checksum {
		existing.File = relPath
		existing.FileSize = fileSize
		m.Entries[chunkID] = existing
		return
	}
	m.Entries[chunkID] = ManifestEntry{
		File:      relPath,
		Checksum:  checksum,
		FileSize:  fileSize,
		CreatedAt: now,
	}
}
