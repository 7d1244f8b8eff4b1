package chunk

import "fmt"

// RepoChunker splits a repository document payload into up to three
// chunks in fixed order: core, technical, activity (§4.1). Sequence
// numbers are stable per slot — core is always 1, technical always 2,
// activity always 3 — regardless of which sections are present.
type RepoChunker struct{}

// NewRepoChunker returns a RepoChunker.
func NewRepoChunker() *RepoChunker { return &RepoChunker{} }

// Chunk implements Chunker.
func (c *RepoChunker) Chunk(storeType, documentID string, payload Payload) ([]*Chunk, error) {
	cursor := 0
	var chunks []*Chunk

	if core := c.buildCore(payload); core != "" {
		chunks = append(chunks, newChunk(storeType, documentID, "core", "repo_core", 1, stringField(payload, "name"), core, &cursor))
	}
	if technical := c.buildTechnical(payload); technical != "" {
		chunks = append(chunks, newChunk(storeType, documentID, "technical", "repo_technical", 2, stringField(payload, "name"), technical, &cursor))
	}
	if activity := c.buildActivity(payload); activity != "" {
		chunks = append(chunks, newChunk(storeType, documentID, "activity", "repo_activity", 3, stringField(payload, "name"), activity, &cursor))
	}

	return chunks, nil
}

func (c *RepoChunker) buildCore(payload Payload) string {
	var lines []string
	if v := stringField(payload, "name"); v != "" {
		lines = append(lines, "Name: "+v)
	}
	if v := stringField(payload, "description"); v != "" {
		lines = append(lines, "Description: "+v)
	}
	if v := stringField(payload, "primary_language"); v != "" {
		lines = append(lines, "Primary language: "+v)
	}
	if v := stringField(payload, "size"); v != "" {
		lines = append(lines, "Size: "+v)
	}
	if v := stringField(payload, "priority"); v != "" {
		lines = append(lines, "Priority: "+v)
	}
	return joinLines(lines)
}

func (c *RepoChunker) buildTechnical(payload Payload) string {
	var lines []string
	if langs := stringListField(payload, "languages"); len(langs) > 0 {
		lines = append(lines, "Languages: "+joinComma(langs))
	}
	if topics := stringListField(payload, "topics"); len(topics) > 0 {
		lines = append(lines, "Topics: "+joinComma(topics))
	}
	if v := stringField(payload, "default_branch"); v != "" {
		lines = append(lines, "Default branch: "+v)
	}
	return joinLines(lines)
}

func (c *RepoChunker) buildActivity(payload Payload) string {
	var lines []string
	if v := stringField(payload, "stars"); v != "" {
		lines = append(lines, "Stars: "+v)
	}
	if v := stringField(payload, "forks"); v != "" {
		lines = append(lines, "Forks: "+v)
	}
	if v := stringField(payload, "open_issues"); v != "" {
		lines = append(lines, "Open issues: "+v)
	}
	if v := stringField(payload, "created_at"); v != "" {
		lines = append(lines, "Created at: "+v)
	}
	if v := stringField(payload, "updated_at"); v != "" {
		lines = append(lines, "Updated at: "+v)
	}
	if _, ok := payload["archived"]; ok {
		lines = append(lines, fmt.Sprintf("Archived: %v", boolField(payload, "archived")))
	}
	return joinLines(lines)
}
