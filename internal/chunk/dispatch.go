package chunk

// DispatchingChunker routes a document payload to the chunker
// appropriate for its store type (§4.1): repositories, organizations,
// and notes each get a dedicated strategy; anything else falls back
// to GenericChunker.
type DispatchingChunker struct {
	repo    Chunker
	org     Chunker
	note    Chunker
	generic Chunker
}

// New returns a DispatchingChunker with the standard strategy set.
func New() *DispatchingChunker {
	return &DispatchingChunker{
		repo:    NewRepoChunker(),
		org:     NewOrgChunker(),
		note:    NewNoteChunker(),
		generic: NewGenericChunker(),
	}
}

// storeKind classifies a store_type string into the strategy it
// selects, per §4.1's worked examples ("github.repos", "notes").
func storeKind(storeType string) string {
	switch storeType {
	case "github.repos":
		return "repo"
	case "github.orgs":
		return "org"
	case "notes":
		return "note"
	default:
		return "generic"
	}
}

// Chunk implements Chunker, dispatching on storeType.
func (d *DispatchingChunker) Chunk(storeType, documentID string, payload Payload) ([]*Chunk, error) {
	switch storeKind(storeType) {
	case "repo":
		return d.repo.Chunk(storeType, documentID, payload)
	case "org":
		return d.org.Chunk(storeType, documentID, payload)
	case "note":
		return d.note.Chunk(storeType, documentID, payload)
	default:
		return d.generic.Chunk(storeType, documentID, payload)
	}
}

// chunkSizeThreshold is the embeddable-text length past which an
// otherwise unchunked document gets split rather than stored whole.
const chunkSizeThreshold = 1000

// ShouldChunk reports whether a document belongs in C3 as multiple
// chunk rows (store_document_chunks) or a single whole-document row
// (store_document). Notes and repositories are always chunked, since
// their content is structured into multiple distinct sections; every
// other store type is chunked only once its known text fields exceed
// chunkSizeThreshold characters.
func ShouldChunk(storeType string, payload Payload) bool {
	switch storeKind(storeType) {
	case "note", "repo":
		return true
	}
	return embeddableTextLength(payload) > chunkSizeThreshold
}

// embeddableTextLength sums the length of a payload's known text
// fields, the same fields GenericChunker renders.
func embeddableTextLength(payload Payload) int {
	total := 0
	for _, key := range genericFields {
		if v := stringField(payload, key); v != "" {
			total += len(v)
			continue
		}
		total += len(joinComma(stringListField(payload, key)))
	}
	return total
}
