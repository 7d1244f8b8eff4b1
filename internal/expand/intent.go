package expand

import "regexp"

// Intent is the query-intent classification enum.
type Intent string

const (
	IntentFactual         Intent = "factual"
	IntentProcedural      Intent = "procedural"
	IntentComparative     Intent = "comparative"
	IntentTroubleshooting Intent = "troubleshooting"
	IntentConceptual      Intent = "conceptual"
	IntentDefinitional    Intent = "definitional"
	IntentListing         Intent = "listing"
	IntentConfiguration   Intent = "configuration"
	IntentExample         Intent = "example"
	IntentGeneral         Intent = "general"
)

type intentPattern struct {
	intent Intent
	re     *regexp.Regexp
}

// intentTable is checked in order; the first match wins. Patterns are
// ordered from most to least specific so e.g. "why does the job fail"
// classifies as troubleshooting rather than conceptual.
var intentTable = []intentPattern{
	{IntentTroubleshooting, regexp.MustCompile(`(?i)^(why (is|does|won't|doesn't|isn't)|what('s| is) wrong|fix|broken|fail(ed|ing|s)?|error|not working|debug|troubleshoot)\b`)},
	{IntentComparative, regexp.MustCompile(`(?i)\b(vs\.?|versus|compared to|difference between|better than)\b`)},
	{IntentConfiguration, regexp.MustCompile(`(?i)^(configure|set ?up|install|settings for)\b`)},
	{IntentProcedural, regexp.MustCompile(`(?i)^(how (do|can|to)|steps to|guide to|walkthrough)\b`)},
	{IntentExample, regexp.MustCompile(`(?i)\b(example|sample|for instance|e\.g\.)\b`)},
	{IntentListing, regexp.MustCompile(`(?i)^(list|enumerate|what are (the|all)|show (me )?all)\b`)},
	{IntentDefinitional, regexp.MustCompile(`(?i)^(define|definition of|meaning of|what (is|are)|what does .* mean)\b`)},
	{IntentConceptual, regexp.MustCompile(`(?i)^(why (do|does|should)|explain|describe|how does .* work)\b`)},
	{IntentFactual, regexp.MustCompile(`(?i)^(who|when|where|which|how many|how much)\b`)},
}

// ClassifyIntent returns the first matching intent in intentTable, or
// IntentGeneral if nothing matches.
func ClassifyIntent(query string) Intent {
	for _, p := range intentTable {
		if p.re.MatchString(query) {
			return p.intent
		}
	}
	return IntentGeneral
}

// intentTemplates prepends a fixed phrase for intent-template query
// augmentation. Intents with no entry are left unaugmented.
var intentTemplates = map[Intent]string{
	IntentFactual:      "what is",
	IntentProcedural:   "how to",
	IntentDefinitional: "define",
	IntentListing:      "list all",
}
