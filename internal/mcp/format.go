package mcp

import (
	"fmt"
	"strings"

	"github.com/goldentooth/knowledgeengine/internal/rag"
)

// FormatQueryResult renders a rag.Result as markdown for a tool's text
// content block, alongside the structured output.
func FormatQueryResult(query string, result *rag.Result) string {
	var sb strings.Builder

	if result.Answer != "" {
		sb.WriteString(result.Answer)
		sb.WriteString("\n\n")
	} else {
		sb.WriteString(fmt.Sprintf("No answer generated for \"%s\".\n\n", query))
	}

	if len(result.Sources) == 0 {
		sb.WriteString("No sources found.\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("**%d source(s):**\n\n", len(result.Sources)))
	for _, s := range result.Sources {
		formatSource(&sb, s)
	}

	return sb.String()
}

func formatSource(sb *strings.Builder, s rag.Source) {
	fmt.Fprintf(sb, "### %d. %s (score: %.3f)\n\n", s.Index, sourceLabel(s), s.Score)
	if s.FromFusion {
		sb.WriteString("_fused from multiple chunks_\n\n")
	}
	if s.Related {
		sb.WriteString("_related via relationship graph_\n\n")
	}
	fmt.Fprintf(sb, "```\n%s\n```\n\n", s.Content)
}

func sourceLabel(s rag.Source) string {
	if s.Title != "" {
		return s.Title
	}
	return fmt.Sprintf("%s/%s", s.DocumentID, s.ChunkID)
}
