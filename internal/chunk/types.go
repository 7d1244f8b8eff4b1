// Package chunk implements C1, which dispatches a document payload to
// a store-type-specific strategy and emits an ordered, non-overlapping
// sequence of chunks (§4.1). Chunking is deterministic: the same
// payload always produces the same chunks and the same chunk ids.
package chunk

import (
	"fmt"
	"strings"
)

// Payload is the opaque per-document payload read from the document
// source: a mapping from field names to strings, string lists, or
// nested mappings (§3).
type Payload map[string]any

// Chunk is the atomic retrieval unit produced by C1.
type Chunk struct {
	ChunkID       string
	StoreType     string
	DocumentID    string
	ChunkType     string
	Sequence      int
	Content       string
	SizeChars     int
	StartPosition int
	EndPosition   int
	Title         string
	Metadata      map[string]string
}

// Chunker splits a document payload into chunks.
type Chunker interface {
	Chunk(storeType, documentID string, payload Payload) ([]*Chunk, error)
}

// chunkID derives the stable chunk_id "{store_type}.{document_id}.{slot}" (§3).
func chunkID(storeType, documentID, slot string) string {
	return fmt.Sprintf("%s.%s.%s", storeType, documentID, slot)
}

// newChunk fills in SizeChars/StartPosition/EndPosition from content
// and a running cursor, advancing cursor past the emitted content.
func newChunk(storeType, documentID, slot, chunkType string, sequence int, title, content string, cursor *int) *Chunk {
	start := *cursor
	size := len(content)
	*cursor = start + size
	return &Chunk{
		ChunkID:       chunkID(storeType, documentID, slot),
		StoreType:     storeType,
		DocumentID:    documentID,
		ChunkType:     chunkType,
		Sequence:      sequence,
		Content:       content,
		SizeChars:     size,
		StartPosition: start,
		EndPosition:   start + size,
		Title:         title,
		Metadata:      map[string]string{},
	}
}

// stringField reads payload[key] as a string, returning "" if absent
// or not a string/stringer scalar.
func stringField(payload Payload, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// stringListField reads payload[key] as a list of strings. Accepts
// []string and []any (the shape yaml.v3 produces for a YAML sequence).
func stringListField(payload Payload, key string) []string {
	v, ok := payload[key]
	if !ok || v == nil {
		return nil
	}
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	default:
		return nil
	}
}

// boolField reads payload[key] as a bool.
func boolField(payload Payload, key string) bool {
	v, ok := payload[key]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// joinLines joins non-empty lines with newlines, returning "" if none.
func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n")
}

// joinComma joins string list values for a single summary line.
func joinComma(items []string) string {
	return strings.Join(items, ", ")
}
