package model

import (
	"math"
	"strings"
)

type Label string

const (
	Supported     Label = "Supported"
	Refuted       Label = "Refuted"
	NotEnoughInfo Label = "Not Enough Info"
)

// ParseLabel accepts the canonical labels plus common spellings ("NEI", "not_enough_info").
func ParseLabel(s string) (Label, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", " ", "-", " ").Replace(norm)
	switch norm {
	case "supported", "support", "supports", "true":
		return Supported, true
	case "refuted", "refute", "refutes", "false":
		return Refuted, true
	case "not enough info", "not enough information", "nei", "notenoughinfo":
		return NotEnoughInfo, true
	}
	return "", false
}

type Verdict struct {
	Label      Label          `json:"label"`
	Confidence *float64       `json:"confidence,omitempty"`
	Reason     string         `json:"reason"`
	Evidence   []EvidenceItem `json:"evidence"`
}

// NewVerdict builds a verdict and enforces that decisive labels carry evidence.
// A Supported or Refuted label with no evidence is downgraded to NotEnoughInfo.
func NewVerdict(label Label, reason string, evidence []EvidenceItem, confidence *float64) Verdict {
	if label != Supported && label != Refuted && label != NotEnoughInfo {
		label = NotEnoughInfo
	}
	if len(evidence) == 0 && label != NotEnoughInfo {
		label = NotEnoughInfo
		reason = "No evidence was available to support a decision."
	}
	ev := make([]EvidenceItem, len(evidence))
	copy(ev, evidence)
	return Verdict{
		Label:      label,
		Confidence: confidence,
		Reason:     reason,
		Evidence:   ev,
	}
}

// Confidence rounds c to three decimals and returns a pointer for Verdict.Confidence.
func Confidence(c float64) *float64 {
	r := math.Round(c*1000) / 1000
	return &r
}
