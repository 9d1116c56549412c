package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortName(t *testing.T) {
	assert.Equal(t, "Technical University of Munich", ShortName("http://dbpedia.org/resource/Technical_University_of_Munich"))
	assert.Equal(t, "Universities in Germany", ShortName("http://dbpedia.org/resource/Category:Universities_in_Germany"))
	assert.Equal(t, "subject", ShortName("http://purl.org/dc/terms/subject"))
	assert.Equal(t, "label", ShortName("http://www.w3.org/2000/01/rdf-schema#label"))
	assert.Equal(t, "Munich", ShortName(" Munich "))
}

func TestNewVerdictDowngradesWithoutEvidence(t *testing.T) {
	v := NewVerdict(Supported, "looks right", nil, nil)
	assert.Equal(t, NotEnoughInfo, v.Label)
	assert.NotNil(t, v.Evidence)
	assert.Empty(t, v.Evidence)

	ev := []EvidenceItem{NewKGEvidence("s", "p", "o", "dbpedia")}
	v = NewVerdict(Refuted, "contradicted", ev, Confidence(0.91234))
	assert.Equal(t, Refuted, v.Label)
	assert.Equal(t, 0.912, *v.Confidence)

	// the verdict owns its evidence slice
	ev[0].Subject = "changed"
	assert.Equal(t, "s", v.Evidence[0].Subject)
}

func TestParseLabel(t *testing.T) {
	for in, want := range map[string]Label{
		"Supported":       Supported,
		" refuted ":       Refuted,
		"NOT_ENOUGH_INFO": NotEnoughInfo,
		"NEI":             NotEnoughInfo,
	} {
		got, ok := ParseLabel(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseLabel("maybe")
	assert.False(t, ok)
}

func TestPremise(t *testing.T) {
	kg := NewKGEvidence("http://dbpedia.org/resource/TUM", "http://purl.org/dc/terms/subject", "http://dbpedia.org/resource/Category:Universities_in_Germany", "dbpedia")
	assert.Equal(t, "TUM subject Universities in Germany", kg.Premise())
	assert.Equal(t, "TUM → subject → Universities in Germany", kg.Path())

	web := NewWebEvidence("Kilimanjaro", "Kilimanjaro is the highest mountain in Africa.", "https://example.org", 0.5)
	assert.Equal(t, "Kilimanjaro is the highest mountain in Africa.", web.Premise())
}

func TestParseEntityType(t *testing.T) {
	assert.Equal(t, EntityOrg, ParseEntityType("org"))
	assert.Equal(t, EntityOrg, ParseEntityType("Organization"))
	assert.Equal(t, EntityMisc, ParseEntityType("widget"))
}

func TestWarningHidesUpstreamDetail(t *testing.T) {
	upstream := errors.New("http://10.0.0.7:8890/sparql?query=SELECT returned status 503")

	assert.Equal(t, "evidence retrieval from dbpedia failed",
		Warning(&RetrievalError{Source: "dbpedia", Err: upstream}))
	assert.Equal(t, "classifier DEBERTA failed",
		Warning(fmt.Errorf("wrapped: %w", &ClassificationError{Strategy: "DEBERTA", Err: upstream})))
	assert.Equal(t, `entity resolution for "TUM" degraded to fuzzy matching`,
		Warning(&ResolutionDegraded{Mention: "TUM", Err: upstream}))
	assert.Equal(t, "internal error", Warning(upstream))
}
