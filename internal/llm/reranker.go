package llm

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/agenthands/claimcheck/internal/core/common"
)

// LLMRelevanceScorer asks a generative model to grade every document against the
// query in one listwise prompt. It stands in for a cross-encoder service.
type LLMRelevanceScorer struct {
	LLM    LLMClient
	Prompt string
}

func NewLLMRelevanceScorer(client LLMClient, prompt string) *LLMRelevanceScorer {
	return &LLMRelevanceScorer{LLM: client, Prompt: prompt}
}

type relevanceReply struct {
	Scores []float64 `json:"scores"`
}

func (r *LLMRelevanceScorer) Score(ctx context.Context, query string, docs []string) ([]float64, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	var docList strings.Builder
	for i, d := range docs {
		fmt.Fprintf(&docList, "[%d] %s\n", i, common.Truncate(d, 300))
	}

	prompt := fmt.Sprintf(r.Prompt, query, docList.String())
	resp, err := r.LLM.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to score relevance: %w", err)
	}

	scores := parseScores(resp)
	if len(scores) != len(docs) {
		return nil, fmt.Errorf("relevance scorer returned %d scores for %d documents", len(scores), len(docs))
	}
	for i, s := range scores {
		scores[i] = clamp01(s)
	}
	return scores, nil
}

var numberRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// parseScores reads {"scores": [...]} and falls back to the bare numbers in the reply.
func parseScores(s string) []float64 {
	if reply, err := common.ParseJSON[relevanceReply](s); err == nil && len(reply.Scores) > 0 {
		return reply.Scores
	}
	var scores []float64
	for _, m := range numberRe.FindAllString(s, -1) {
		if f, err := strconv.ParseFloat(m, 64); err == nil {
			scores = append(scores, f)
		}
	}
	return scores
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
