package expand

import "strings"

// Thesaurus maps natural-language terms encountered in operational notes,
// repository metadata, and organization records to their common synonyms.
// Re-themed from the upstream code-search synonym dictionary: this corpus
// is infrastructure and knowledge-base prose, not source code, so the
// entries below favor cluster/ops vocabulary over language keywords.
var Thesaurus = map[string][]string{
	"cluster":       {"fleet", "nodes", "infrastructure"},
	"node":          {"host", "machine", "server", "instance"},
	"service":       {"daemon", "process", "workload"},
	"deploy":        {"deployment", "rollout", "release", "ship"},
	"deployment":    {"deploy", "rollout", "release"},
	"config":        {"configuration", "settings", "options"},
	"configuration": {"config", "settings", "setup"},
	"setup":         {"configuration", "install", "provisioning"},
	"network":       {"networking", "connectivity", "routing"},
	"networking":    {"network", "connectivity", "routing"},
	"storage":       {"disk", "volume", "persistence"},
	"repo":          {"repository", "project", "codebase"},
	"repository":    {"repo", "project", "codebase"},
	"org":           {"organization", "team", "group"},
	"organization":  {"org", "team", "group"},
	"note":          {"notes", "memo", "doc", "document"},
	"document":      {"doc", "note", "record"},
	"issue":         {"bug", "problem", "incident", "ticket"},
	"incident":      {"outage", "issue", "problem"},
	"outage":        {"incident", "downtime", "failure"},
	"failure":       {"error", "fault", "outage"},
	"error":         {"failure", "fault", "exception"},
	"monitor":       {"monitoring", "observability", "metrics"},
	"monitoring":    {"monitor", "observability", "alerting"},
	"secret":        {"credential", "token", "key"},
	"credential":    {"secret", "token", "key"},
	"backup":        {"snapshot", "archive", "restore point"},
	"schedule":      {"scheduler", "scheduling", "job"},
	"job":           {"task", "workload", "schedule"},
	"upgrade":       {"update", "migration", "version bump"},
	"migration":     {"upgrade", "migrate", "move"},
	"access":        {"permission", "authorization", "authz"},
	"permission":    {"access", "authorization", "role"},
	"identity":      {"auth", "authentication", "login"},
	"auth":          {"authentication", "identity", "login"},
	"priority":      {"importance", "rank", "severity"},
	"activity":      {"history", "events", "timeline"},
	"topic":         {"tag", "keyword", "category"},
	"tag":           {"topic", "label", "keyword"},
	"language":      {"lang", "primary language"},
	"branch":        {"default branch", "ref"},
	"archived":      {"inactive", "retired", "deprecated"},
}

// ContextualThesaurus layers additional synonyms keyed by a technology or
// domain context (e.g. the subject matter of a note), consulted on top of
// the base Thesaurus when the caller supplies a domain_context.
var ContextualThesaurus = map[string]map[string][]string{
	"kubernetes": {
		"cluster": {"k8s cluster", "control plane"},
		"node":    {"kubelet node", "worker node"},
		"service": {"k8s service", "pod"},
		"config":  {"configmap", "manifest"},
	},
	"networking": {
		"config":  {"firewall rule", "route table"},
		"service": {"endpoint", "load balancer"},
	},
	"storage": {
		"storage": {"volume mount", "persistent volume"},
		"backup":  {"snapshot policy"},
	},
	"python": {
		"error":  {"traceback", "exception"},
		"config": {"settings.py", "pyproject"},
	},
}

// GetSynonyms returns the synonyms for term, checking domainContext's
// overlay first and falling back to the base Thesaurus. domainContext may
// be empty.
func GetSynonyms(term, domainContext string) []string {
	term = strings.ToLower(term)
	var out []string
	if domainContext != "" {
		if overlay, ok := ContextualThesaurus[strings.ToLower(domainContext)]; ok {
			out = append(out, overlay[term]...)
		}
	}
	out = append(out, Thesaurus[term]...)
	return out
}
