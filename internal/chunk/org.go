package chunk

// OrgChunker aggregates an organization document payload into a
// single org_main chunk (§4.1).
type OrgChunker struct{}

// NewOrgChunker returns an OrgChunker.
func NewOrgChunker() *OrgChunker { return &OrgChunker{} }

// orgFields is the fixed order in which known organization fields are
// rendered into the org_main chunk.
var orgFields = []struct {
	key   string
	label string
}{
	{"name", "Name"},
	{"description", "Description"},
	{"login", "Login"},
	{"location", "Location"},
	{"public_repos", "Public repos"},
	{"followers", "Followers"},
	{"created_at", "Created at"},
}

// Chunk implements Chunker.
func (c *OrgChunker) Chunk(storeType, documentID string, payload Payload) ([]*Chunk, error) {
	var lines []string
	for _, f := range orgFields {
		if v := stringField(payload, f.key); v != "" {
			lines = append(lines, f.label+": "+v)
		}
	}

	content := joinLines(lines)
	cursor := 0
	chunk := newChunk(storeType, documentID, "main", "org_main", 1, stringField(payload, "name"), content, &cursor)
	return []*Chunk{chunk}, nil
}
