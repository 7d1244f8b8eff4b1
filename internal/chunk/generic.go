package chunk

// genericFields lists the known text fields a GenericChunker
// aggregates, in the order they appear in the rendered chunk.
var genericFields = []string{
	"name", "title", "description", "content", "summary", "keywords", "tags", "topics",
}

// GenericChunker aggregates a document's known text fields, in fixed
// field order, into a single generic chunk (§4.1). It is the fallback
// for any store type the other chunkers don't claim.
type GenericChunker struct{}

// NewGenericChunker returns a GenericChunker.
func NewGenericChunker() *GenericChunker { return &GenericChunker{} }

// Chunk implements Chunker.
func (c *GenericChunker) Chunk(storeType, documentID string, payload Payload) ([]*Chunk, error) {
	var lines []string
	for _, key := range genericFields {
		if v := stringField(payload, key); v != "" {
			lines = append(lines, key+": "+v)
			continue
		}
		if items := stringListField(payload, key); len(items) > 0 {
			lines = append(lines, key+": "+joinComma(items))
		}
	}

	content := joinLines(lines)
	cursor := 0
	title := stringField(payload, "title")
	if title == "" {
		title = stringField(payload, "name")
	}
	chunk := newChunk(storeType, documentID, "main", "generic", 1, title, content, &cursor)
	return []*Chunk{chunk}, nil
}
