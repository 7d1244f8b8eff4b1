package expand

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyIntent(t *testing.T) {
	cases := []struct {
		query string
		want  Intent
	}{
		{"why is the cluster failing", IntentTroubleshooting},
		{"configure backups for the cluster", IntentConfiguration},
		{"how do I deploy a service", IntentProcedural},
		{"nomad vs kubernetes", IntentComparative},
		{"list all repositories", IntentListing},
		{"what is a cluster", IntentDefinitional},
		{"explain how replication works", IntentConceptual},
		{"who owns the goldentooth org", IntentFactual},
		{"goldentooth nomad consul", IntentGeneral},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ClassifyIntent(c.query), "query: %s", c.query)
	}
}

func TestKeyTerms_DropsStopWordsAndShortTokensSortsByLengthThenLex(t *testing.T) {
	terms := KeyTerms("the cluster and a node are running")
	assert.Equal(t, []string{"cluster", "running", "node"}, terms)
}

func TestGetSynonyms_PrefersContextualOverlay(t *testing.T) {
	syns := GetSynonyms("cluster", "kubernetes")
	assert.Contains(t, syns, "k8s cluster")
	assert.Contains(t, syns, "fleet")
}

func TestGetSynonyms_FallsBackWithoutContext(t *testing.T) {
	syns := GetSynonyms("cluster", "")
	assert.Equal(t, []string{"fleet", "nodes", "infrastructure"}, syns)
}

func TestMorphologicalVariants_PluralAndStems(t *testing.T) {
	variants := MorphologicalVariants("running")
	assert.Contains(t, variants, "run")

	variants = MorphologicalVariants("node")
	assert.Contains(t, variants, "nodes")
}

func TestMorphologicalVariants_DottedVersionSplit(t *testing.T) {
	variants := MorphologicalVariants("nomad.1.7")
	assert.Contains(t, variants, "nomad")
	assert.Contains(t, variants, "1")
	assert.Contains(t, variants, "7")
}

func TestRelatedFor_ExcludesKeyTermsAndAddsGenericWhenTechnical(t *testing.T) {
	related := RelatedFor([]string{"cluster"})
	assert.Contains(t, related, "topology")
	assert.Contains(t, related, "documentation")
	assert.NotContains(t, related, "cluster")
}

func TestExpand_ProducesOriginalFirstThenVariants(t *testing.T) {
	exp := Expand("how to configure the cluster", "kubernetes")
	assert.Equal(t, "how to configure the cluster", exp.ExpandedQueries[0])
	assert.Greater(t, len(exp.ExpandedQueries), 1)
	assert.Equal(t, IntentProcedural, exp.Intent)
}

func TestExpand_StrategiesIncludePrimaryAndBroadRecall(t *testing.T) {
	exp := Expand("goldentooth cluster networking", "")
	names := map[string]bool{}
	for _, s := range exp.Strategies {
		names[s.Name] = true
	}
	assert.True(t, names["primary"])
	assert.True(t, names["broad_recall"])
}

type fakeFreq map[string]int

func (f fakeFreq) DocFrequency(term string) int { return f[term] }

func TestReformulate_BroaderDropsRarestTerm(t *testing.T) {
	freq := fakeFreq{"cluster": 50, "consul": 2}
	result := Reformulate("cluster consul", freq)
	assert.Equal(t, "cluster", result.Broader)
}

func TestReformulate_MoreFocusedKeepsCommonestTwo(t *testing.T) {
	freq := fakeFreq{"cluster": 50, "consul": 30, "networking": 2}
	result := Reformulate("cluster consul networking", freq)
	assert.Equal(t, "cluster AND consul", result.MoreFocused)
}

func TestReformulate_MoreSpecificAddsRelatedTerm(t *testing.T) {
	result := Reformulate("cluster", fakeFreq{})
	assert.Contains(t, result.MoreSpecific, "cluster")
	assert.Greater(t, len(result.MoreSpecific), len("cluster"))
}
