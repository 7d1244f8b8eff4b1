package sidecar

import (
	"path/filepath"
	"strings"
)

// PathFor derives a sidecar's on-disk path, mirroring the YAML source's
// on-disk layout: ".../{category}/{subcategory}/{chunk_id}.emb.gz" for a
// dotted store type ("github.repos" -> "github/repos"), or
// ".../{store}/{chunk_id}.emb.gz" for a flat one ("notes").
func PathFor(dataDir, storeType, chunkID string) string {
	segments := strings.Split(storeType, ".")
	parts := append([]string{dataDir}, segments...)
	parts = append(parts, chunkID+".emb.gz")
	return filepath.Join(parts...)
}
