package core

import (
	"fmt"
	"strings"

	"github.com/agenthands/claimcheck/internal/core/model"
	"github.com/agenthands/claimcheck/internal/core/verdict"
)

type Mode string

const (
	ModeHybrid  Mode = "hybrid"
	ModeKGOnly  Mode = "kg_only"
	ModeWebOnly Mode = "web_only"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeHybrid, nil
	case ModeHybrid, ModeKGOnly, ModeWebOnly:
		return m, nil
	default:
		return "", fmt.Errorf("mode must be one of hybrid, web_only, kg_only; got %q", s)
	}
}

// Request is one claim to verify. ClassifierKG labels KG evidence and
// ClassifierBackup labels web evidence.
type Request struct {
	Claim            string
	Mode             Mode
	UseCrossEncoder  bool
	ClassifierKG     string
	ClassifierBackup string
}

func (r Request) normalized() Request {
	if r.Mode == "" {
		r.Mode = ModeHybrid
	}
	r.ClassifierKG = verdict.NormalizeStrategy(r.ClassifierKG)
	r.ClassifierBackup = verdict.NormalizeStrategy(r.ClassifierBackup)
	return r
}

type EntityLinking struct {
	SubjectCandidates []model.EntityCandidate `json:"subject_candidates"`
	ObjectCandidates  []model.EntityCandidate `json:"object_candidates"`
}

type Response struct {
	Claim               string                 `json:"claim"`
	Triple              model.Triple           `json:"triple"`
	Evidence            []model.EvidenceItem   `json:"evidence"`
	AllTopEvidencePaths [][]model.EvidenceItem `json:"all_top_evidence_paths"`
	Label               model.Label            `json:"label"`
	Reason              string                 `json:"reason"`
	Confidence          *float64               `json:"confidence,omitempty"`
	EntityLinking       EntityLinking          `json:"entity_linking"`
	Mode                Mode                   `json:"mode"`
	EvidenceCount       int                    `json:"evidence_count"`
	RankingMethod       string                 `json:"ranking_method"`
	KGSuccess           bool                   `json:"kg_success"`
	TimingInfo          map[string]float64     `json:"timing_info,omitempty"`
	Warnings            []string               `json:"warnings,omitempty"`
}

type TriplesResponse struct {
	Entities []model.EntityMention `json:"entities"`
	Triples  []model.Triple        `json:"triples"`
}
