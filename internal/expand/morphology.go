package expand

import (
	"strings"
)

// MorphologicalVariants produces simple plural/singular and verb-stem
// variants of term, plus a split of any dotted version-style segment
// (e.g. "v1.2.3" or "nomad.1.7" splitting into its dot-separated parts).
func MorphologicalVariants(term string) []string {
	var out []string
	seen := map[string]struct{}{strings.ToLower(term): {}}
	add := func(v string) {
		v = strings.ToLower(v)
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	add(pluralize(term))
	add(singularize(term))
	add(stemIng(term))
	add(stemEd(term))
	out = append(out, splitDottedVersion(term)...)

	return out
}

func pluralize(term string) string {
	lower := strings.ToLower(term)
	if strings.HasSuffix(lower, "s") {
		return ""
	}
	switch {
	case strings.HasSuffix(lower, "y") && len(lower) > 1 && !isVowel(rune(lower[len(lower)-2])):
		return lower[:len(lower)-1] + "ies"
	case strings.HasSuffix(lower, "s"), strings.HasSuffix(lower, "x"), strings.HasSuffix(lower, "ch"), strings.HasSuffix(lower, "sh"):
		return lower + "es"
	default:
		return lower + "s"
	}
}

func singularize(term string) string {
	lower := strings.ToLower(term)
	switch {
	case strings.HasSuffix(lower, "ies") && len(lower) > 3:
		return lower[:len(lower)-3] + "y"
	case strings.HasSuffix(lower, "es") && len(lower) > 2:
		return lower[:len(lower)-2]
	case strings.HasSuffix(lower, "s") && len(lower) > 1:
		return lower[:len(lower)-1]
	default:
		return ""
	}
}

func stemIng(term string) string {
	lower := strings.ToLower(term)
	if !strings.HasSuffix(lower, "ing") || len(lower) <= 4 {
		return ""
	}
	stem := lower[:len(lower)-3]
	if len(stem) > 1 && stem[len(stem)-1] == stem[len(stem)-2] {
		return stem[:len(stem)-1]
	}
	return stem
}

func stemEd(term string) string {
	lower := strings.ToLower(term)
	if !strings.HasSuffix(lower, "ed") || len(lower) <= 3 {
		return ""
	}
	return lower[:len(lower)-2]
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	default:
		return false
	}
}

// splitDottedVersion splits a dotted token like "v1.2.3" or "nomad.1.7"
// into its component segments, skipping single-segment inputs.
func splitDottedVersion(term string) []string {
	if !strings.Contains(term, ".") {
		return nil
	}
	parts := strings.Split(term, ".")
	if len(parts) < 2 {
		return nil
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
