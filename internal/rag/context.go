package rag

import (
	"fmt"
	"strings"

	"github.com/goldentooth/knowledgeengine/internal/fuse"
)

// assembleContext builds the user-message context block for Query and
// HybridQuery: sources numbered, scores rendered with three decimal
// digits, each block truncated at blockTruncateChars. A run of adjacent
// sources with the same parent document and chunk title shares one
// "From" header; sources of the same document that are not adjacent, or
// that carry different chunk titles, each start a new header.
func assembleContext(sources []Source) string {
	if len(sources) == 0 {
		return "(no sources retrieved)"
	}

	var b strings.Builder
	group := ""
	for _, s := range sources {
		label := sourceLabel(s)
		if label != group {
			group = label
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "From %s:\n", label)
		}
		fmt.Fprintf(&b, "[%d] (score %s) %s\n", s.Index, scoreString(s.Score), truncate(s.Content, blockTruncateChars))
	}
	return b.String()
}

// assembleRelationshipContext builds the context for
// QueryWithRelationships: same grouping and truncation as
// assembleContext, with relationship-expanded sources labeled "related".
func assembleRelationshipContext(sources []Source) string {
	if len(sources) == 0 {
		return "(no sources retrieved)"
	}

	var b strings.Builder
	group := ""
	for _, s := range sources {
		label := sourceLabel(s)
		if s.Related {
			label += " (related)"
		}
		if label != group {
			group = label
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "From %s:\n", label)
		}
		fmt.Fprintf(&b, "[%d] (score %s) %s\n", s.Index, scoreString(s.Score), truncate(s.Content, blockTruncateChars))
	}
	return b.String()
}

// assembleFusionContext builds the context for QueryWithFusion and
// EnhancedQuery: fused answers presented first, then unfused hits as
// short previews, per §4.9's "fused answers first, unfused hits
// second" rule.
func assembleFusionContext(fused []*fuse.FusedAnswer, unfused []Source) string {
	var b strings.Builder

	for i, answer := range fused {
		fmt.Fprintf(&b, "Fused Answer %d (confidence %s):\n%s\n\n", i+1, scoreString(answer.ConfidenceScore), answer.Content)
	}

	if len(unfused) > 0 {
		b.WriteString("Additional sources:\n")
		for _, s := range unfused {
			fmt.Fprintf(&b, "[%d] %s (score %s): %s\n", s.Index, sourceLabel(s), scoreString(s.Score), truncate(s.Content, unfusedPreviewChars))
		}
	}

	if b.Len() == 0 {
		return "(no sources retrieved)"
	}
	return b.String()
}
