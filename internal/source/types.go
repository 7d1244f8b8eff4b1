// Package source implements the document-source port (§6.3): an
// iterator yielding (store_type, document_id, payload) tuples plus
// existence/load probes, backed by a directory tree of YAML files.
// This is the concrete, testable stand-in for the external document
// loader the core only ever reads through; any other backing store
// (a database, a remote API) can implement the same Source interface.
package source

import (
	"context"

	"github.com/goldentooth/knowledgeengine/internal/chunk"
)

// Document is one (store_type, document_id, payload) tuple read from
// the source.
type Document struct {
	StoreType  string
	DocumentID string
	Payload    chunk.Payload
}

// Source is the document-source port. Documents streams every
// document currently in the source; Exists and Load probe a single
// document by its external identity.
type Source interface {
	Documents(ctx context.Context) (<-chan Document, <-chan error)
	Exists(storeType, documentID string) bool
	Load(storeType, documentID string) (chunk.Payload, error)
}
