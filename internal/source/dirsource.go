package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goldentooth/knowledgeengine/internal/chunk"
)

const yamlExt = ".yaml"

// DirSource reads documents from a directory tree: the top-level
// directory under root names the store_type, and the path beneath it
// (minus the .yaml extension) names the document_id, so
// "{root}/github.repos/goldentooth/cluster.yaml" yields store_type
// "github.repos" and document_id "goldentooth/cluster".
type DirSource struct {
	root string
}

// NewDirSource returns a DirSource rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{root: dir}
}

// Documents streams every YAML document under root. The error channel
// carries at most one value (a walk failure) and is closed alongside
// the document channel.
func (s *DirSource) Documents(ctx context.Context) (<-chan Document, <-chan error) {
	docs := make(chan Document)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, walkErr error) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() || !strings.HasSuffix(path, yamlExt) {
				return nil
			}

			storeType, documentID, relErr := s.splitPath(path)
			if relErr != nil {
				return relErr
			}
			payload, loadErr := loadYAMLFile(path)
			if loadErr != nil {
				return fmt.Errorf("load %s: %w", path, loadErr)
			}

			select {
			case docs <- Document{StoreType: storeType, DocumentID: documentID, Payload: payload}:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
		if err != nil {
			errs <- err
		}
	}()

	return docs, errs
}

// Exists reports whether a document file is present on disk.
func (s *DirSource) Exists(storeType, documentID string) bool {
	_, err := os.Stat(s.documentPath(storeType, documentID))
	return err == nil
}

// Load reads and decodes a single document by its external identity.
func (s *DirSource) Load(storeType, documentID string) (chunk.Payload, error) {
	return loadYAMLFile(s.documentPath(storeType, documentID))
}

func (s *DirSource) documentPath(storeType, documentID string) string {
	return filepath.Join(s.root, storeType, documentID+yamlExt)
}

// splitPath recovers (store_type, document_id) from a file path under
// root: the first path component is the store_type, the remainder
// (minus the extension) is the document_id.
func (s *DirSource) splitPath(path string) (storeType, documentID string, err error) {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return "", "", err
	}
	rel = filepath.ToSlash(strings.TrimSuffix(rel, yamlExt))
	parts := strings.SplitN(rel, "/", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("document path %q has no store_type directory", rel)
	}
	return parts[0], parts[1], nil
}

func loadYAMLFile(path string) (chunk.Payload, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var payload chunk.Payload
	if err := yaml.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return payload, nil
}
