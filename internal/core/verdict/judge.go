package verdict

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/agenthands/claimcheck/internal/core/common"
	"github.com/agenthands/claimcheck/internal/core/model"
	"github.com/agenthands/claimcheck/internal/llm"
)

const undecidedReason = "The LLM could not determine a definitive answer."

// LLMJudge asks a generative model to pick a label for the claim given numbered
// evidence paths. It never reports a confidence.
type LLMJudge struct {
	LLM      llm.LLMClient
	Prompt   string
	MaxPaths int
}

func NewLLMJudge(client llm.LLMClient, prompt string, maxPaths int) *LLMJudge {
	return &LLMJudge{LLM: client, Prompt: prompt, MaxPaths: maxPaths}
}

func (j *LLMJudge) Name() string { return StrategyLLM }

type judgeReply struct {
	Label  string `json:"label"`
	Reason string `json:"reason"`
}

func (j *LLMJudge) Classify(ctx context.Context, claim string, evidence []model.EvidenceItem) (model.Verdict, error) {
	prompt := fmt.Sprintf(j.Prompt, claim, FormatPaths(evidence, j.MaxPaths))
	resp, err := j.LLM.Generate(ctx, prompt)
	if err != nil {
		return model.Verdict{}, &model.ClassificationError{Strategy: StrategyLLM, Err: err}
	}

	label, reason := parseJudgement(resp)
	return model.NewVerdict(label, reason, evidence, nil), nil
}

// FormatPaths numbers evidence from 1, one per line.
func FormatPaths(evidence []model.EvidenceItem, limit int) string {
	var b strings.Builder
	for i, e := range evidence {
		if limit > 0 && i >= limit {
			break
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, e.Path())
	}
	return b.String()
}

var labelKeyword = regexp.MustCompile(`(?i)\b(supported|refuted|not[ _-]enough[ _-]info(?:rmation)?)\b`)

func parseJudgement(resp string) (model.Label, string) {
	if reply, err := common.ParseJSON[judgeReply](resp); err == nil {
		if label, ok := model.ParseLabel(reply.Label); ok {
			reason := strings.TrimSpace(reply.Reason)
			if reason == "" {
				reason = "The LLM gave no reason."
			}
			return label, reason
		}
	}

	if m := labelKeyword.FindString(resp); m != "" {
		if label, ok := model.ParseLabel(m); ok {
			return label, common.Truncate(strings.TrimSpace(resp), 500)
		}
	}
	return model.NotEnoughInfo, undecidedReason
}
