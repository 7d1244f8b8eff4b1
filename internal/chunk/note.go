package chunk

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// noteHeaderPattern matches ATX Markdown headers.
var noteHeaderPattern = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

// NoteChunker splits a note document's body by Markdown ATX headers
// (§4.1). If fewer than two sections are found it falls back to a
// single generic chunk; the first section is prefixed with a metadata
// block enumerating title, category, tags, and keywords.
type NoteChunker struct{}

// NewNoteChunker returns a NoteChunker.
func NewNoteChunker() *NoteChunker { return &NoteChunker{} }

type noteSection struct {
	level int
	title string
	body  string
}

// Chunk implements Chunker.
func (c *NoteChunker) Chunk(storeType, documentID string, payload Payload) ([]*Chunk, error) {
	body := stringField(payload, "content")
	if body == "" {
		body = stringField(payload, "body")
	}

	sections := parseNoteSections(body)
	cursor := 0

	if len(sections) < 2 {
		content := c.withMetadataBlock(payload, strings.TrimSpace(body))
		title := stringField(payload, "title")
		chunk := newChunk(storeType, documentID, "main", "generic", 1, title, content, &cursor)
		return []*Chunk{chunk}, nil
	}

	var chunks []*Chunk
	for i, sec := range sections {
		content := strings.TrimSpace(sec.body)
		if i == 0 {
			content = c.withMetadataBlock(payload, content)
		}
		slot := fmt.Sprintf("section%d", i+1)
		chunk := newChunk(storeType, documentID, slot, "note_section", i+1, sec.title, content, &cursor)
		chunk.Metadata["header_level"] = strconv.Itoa(sec.level)
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// withMetadataBlock prepends a metadata block enumerating title,
// category, tags, and keywords ahead of the first section's content.
func (c *NoteChunker) withMetadataBlock(payload Payload, content string) string {
	var lines []string
	if v := stringField(payload, "title"); v != "" {
		lines = append(lines, "Title: "+v)
	}
	if v := stringField(payload, "category"); v != "" {
		lines = append(lines, "Category: "+v)
	}
	if tags := stringListField(payload, "tags"); len(tags) > 0 {
		lines = append(lines, "Tags: "+joinComma(tags))
	}
	if keywords := stringListField(payload, "keywords"); len(keywords) > 0 {
		lines = append(lines, "Keywords: "+joinComma(keywords))
	}
	block := joinLines(lines)
	if block == "" {
		return content
	}
	if content == "" {
		return block
	}
	return block + "\n\n" + content
}

// parseNoteSections splits body into sections at each ATX header.
func parseNoteSections(body string) []noteSection {
	lines := strings.Split(body, "\n")
	var sections []noteSection
	var current *noteSection
	var builder strings.Builder

	flush := func() {
		if current != nil {
			current.body = builder.String()
			sections = append(sections, *current)
			builder.Reset()
		}
	}

	for _, line := range lines {
		if match := noteHeaderPattern.FindStringSubmatch(line); match != nil {
			flush()
			current = &noteSection{level: len(match[1]), title: strings.TrimSpace(match[2])}
			builder.WriteString(line)
			builder.WriteString("\n")
			continue
		}
		if current != nil {
			builder.WriteString(line)
			builder.WriteString("\n")
		}
	}
	flush()

	return sections
}
