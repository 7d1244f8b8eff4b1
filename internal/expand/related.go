package expand

import "strings"

// RelatedTerms is a domain-specific adjacency table: terms that tend to
// co-occur with the key but are not synonyms of it.
var RelatedTerms = map[string][]string{
	"cluster":       {"topology", "networking", "nodes"},
	"node":          {"cluster", "capacity", "role"},
	"deploy":        {"pipeline", "rollout", "environment"},
	"service":       {"dependency", "endpoint", "health check"},
	"storage":       {"capacity", "backup", "volume"},
	"network":       {"firewall", "dns", "routing"},
	"incident":      {"postmortem", "runbook", "alert"},
	"monitoring":    {"dashboard", "alerting", "metrics"},
	"repository":    {"branch", "topic", "language"},
	"organization":  {"membership", "repository", "team"},
	"backup":        {"retention", "restore", "schedule"},
	"access":        {"identity", "role", "policy"},
	"upgrade":       {"changelog", "compatibility", "rollback"},
	"configuration": {"defaults", "override", "environment"},
}

// technicalTerms marks keys whose presence in a query triggers the
// generic augmentation below.
var technicalTerms = func() map[string]struct{} {
	m := make(map[string]struct{}, len(RelatedTerms))
	for k := range RelatedTerms {
		m[k] = struct{}{}
	}
	return m
}()

// genericRelatedTerms are appended whenever the key-term set contains at
// least one recognized technical term, regardless of which one.
var genericRelatedTerms = []string{"configuration", "documentation", "overview", "reference"}

// RelatedFor returns the deduplicated related terms for keyTerms, with the
// original key terms themselves removed from the result.
func RelatedFor(keyTerms []string) []string {
	exclude := make(map[string]struct{}, len(keyTerms))
	for _, t := range keyTerms {
		exclude[strings.ToLower(t)] = struct{}{}
	}

	seen := map[string]struct{}{}
	var out []string
	addAll := func(terms []string) {
		for _, t := range terms {
			lower := strings.ToLower(t)
			if _, excluded := exclude[lower]; excluded {
				continue
			}
			if _, already := seen[lower]; already {
				continue
			}
			seen[lower] = struct{}{}
			out = append(out, lower)
		}
	}

	hasTechnical := false
	for _, t := range keyTerms {
		lower := strings.ToLower(t)
		if related, ok := RelatedTerms[lower]; ok {
			addAll(related)
		}
		if _, ok := technicalTerms[lower]; ok {
			hasTechnical = true
		}
	}

	if hasTechnical {
		addAll(genericRelatedTerms)
	}

	return out
}
