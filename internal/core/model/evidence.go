package model

import (
	"fmt"
	"strings"
)

type EvidenceKind string

const (
	EvidenceKG  EvidenceKind = "kg"
	EvidenceWeb EvidenceKind = "web"
)

// EvidenceItem is either a KG triple or a web snippet, discriminated by Kind.
type EvidenceItem struct {
	Kind EvidenceKind `json:"kind"`

	Subject   string `json:"subject,omitempty"`
	Predicate string `json:"predicate,omitempty"`
	Object    string `json:"object,omitempty"`
	SourceKG  string `json:"source_kg,omitempty"`

	Text           string  `json:"text,omitempty"`
	URL            string  `json:"url,omitempty"`
	Title          string  `json:"title,omitempty"`
	RelevanceScore float64 `json:"relevance_score,omitempty"`

	Trust float64 `json:"trust"`
}

func NewKGEvidence(subject, predicate, object, sourceKG string) EvidenceItem {
	return EvidenceItem{
		Kind:      EvidenceKG,
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
		SourceKG:  sourceKG,
		Trust:     1.0,
	}
}

func NewWebEvidence(title, text, url string, trust float64) EvidenceItem {
	return EvidenceItem{
		Kind:  EvidenceWeb,
		Title: title,
		Text:  text,
		URL:   url,
		Trust: trust,
	}
}

// Premise renders the item as plain text for rankers and classifiers.
func (e EvidenceItem) Premise() string {
	if e.Kind == EvidenceKG {
		return fmt.Sprintf("%s %s %s", ShortName(e.Subject), ShortName(e.Predicate), ShortName(e.Object))
	}
	if e.Title != "" && !strings.Contains(e.Text, e.Title) {
		return e.Title + ". " + e.Text
	}
	return e.Text
}

// Path renders a KG item as "S → P → O" for judge prompts.
func (e EvidenceItem) Path() string {
	if e.Kind == EvidenceKG {
		return fmt.Sprintf("%s → %s → %s", ShortName(e.Subject), ShortName(e.Predicate), ShortName(e.Object))
	}
	return fmt.Sprintf("%s (%s)", e.Premise(), e.URL)
}

// ShortName turns a URI such as http://dbpedia.org/resource/Technical_University_of_Munich
// into "Technical University of Munich". Literals are returned trimmed.
func ShortName(uri string) string {
	s := strings.TrimSpace(uri)
	if !strings.Contains(s, "://") {
		return s
	}
	if i := strings.LastIndexAny(s, "/#"); i >= 0 && i < len(s)-1 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, ":"); i >= 0 && i < len(s)-1 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.ReplaceAll(s, "_", " "))
}
