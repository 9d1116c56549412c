package verdict

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/agenthands/claimcheck/internal/config"
	"github.com/agenthands/claimcheck/internal/core/model"
	"github.com/agenthands/claimcheck/internal/httpx"
)

type Entailment string

const (
	Entails     Entailment = "entailment"
	Contradicts Entailment = "contradiction"
	Neutral     Entailment = "neutral"
)

type Prediction struct {
	Label      Entailment
	Confidence float64
}

// NLIModel predicts, for each premise, whether it entails or contradicts the hypothesis.
type NLIModel interface {
	Predict(ctx context.Context, hypothesis string, premises []string) ([]Prediction, error)
}

// NLIService is an NLIModel served over HTTP:
// POST {hypothesis, premises} -> {results: [{label, confidence}]}.
type NLIService struct {
	Endpoint string
	HTTP     *httpx.Client
}

func NewNLIService(endpoint string, hc *httpx.Client) *NLIService {
	return &NLIService{Endpoint: endpoint, HTTP: hc}
}

type nliRequest struct {
	Hypothesis string   `json:"hypothesis"`
	Premises   []string `json:"premises"`
}

func (s *NLIService) Predict(ctx context.Context, hypothesis string, premises []string) ([]Prediction, error) {
	body, err := s.HTTP.PostJSON(ctx, s.Endpoint, nliRequest{Hypothesis: hypothesis, Premises: premises}, nil)
	if err != nil {
		return nil, fmt.Errorf("nli request failed: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("nli: malformed response")
	}

	var out []Prediction
	gjson.GetBytes(body, "results").ForEach(func(_, v gjson.Result) bool {
		out = append(out, Prediction{
			Label:      parseEntailment(v.Get("label").String()),
			Confidence: v.Get("confidence").Float(),
		})
		return true
	})
	if len(out) != len(premises) {
		return nil, fmt.Errorf("nli returned %d results for %d premises", len(out), len(premises))
	}
	return out, nil
}

func parseEntailment(s string) Entailment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "entailment", "entails", "supports":
		return Entails
	case "contradiction", "contradicts", "refutes":
		return Contradicts
	default:
		return Neutral
	}
}

// NLIClassifier aggregates per-item entailment into one verdict. Each item votes
// with weight trust*confidence; the sum of entailment votes is support and the sum
// of contradiction votes is refute. A side wins only if the total clears MinTotal
// and the side holds more than Dominance of it.
type NLIClassifier struct {
	Model     NLIModel
	BatchSize int
	MinTotal  float64
	Dominance float64
}

func NewNLIClassifier(m NLIModel, cfg config.NLIConfig) *NLIClassifier {
	return &NLIClassifier{Model: m, BatchSize: cfg.BatchSize, MinTotal: cfg.MinTotal, Dominance: cfg.Dominance}
}

func (c *NLIClassifier) Name() string { return StrategyNLI }

func (c *NLIClassifier) Classify(ctx context.Context, claim string, evidence []model.EvidenceItem) (model.Verdict, error) {
	batch := c.BatchSize
	if batch <= 0 {
		batch = 8
	}

	var support, refute float64
	for start := 0; start < len(evidence); start += batch {
		end := min(start+batch, len(evidence))
		premises := make([]string, 0, end-start)
		for _, e := range evidence[start:end] {
			premises = append(premises, e.Premise())
		}

		preds, err := c.Model.Predict(ctx, claim, premises)
		if err != nil {
			return model.Verdict{}, &model.ClassificationError{Strategy: StrategyNLI, Err: err}
		}
		for i, p := range preds {
			w := evidence[start+i].Trust * p.Confidence
			switch p.Label {
			case Entails:
				support += w
			case Contradicts:
				refute += w
			}
		}
	}

	label, reason := c.decide(support, refute, len(evidence))
	return model.NewVerdict(label, reason, evidence, model.Confidence(max(support, refute))), nil
}

func (c *NLIClassifier) decide(support, refute float64, n int) (model.Label, string) {
	total := support + refute
	if total > c.MinTotal && max(support, refute)/total > c.Dominance {
		if support >= refute {
			return model.Supported, fmt.Sprintf("Entailment dominates across %d evidence items (support %.3f, refute %.3f).", n, support, refute)
		}
		return model.Refuted, fmt.Sprintf("Contradiction dominates across %d evidence items (support %.3f, refute %.3f).", n, support, refute)
	}
	return model.NotEnoughInfo, fmt.Sprintf("The evidence is not decisive (support %.3f, refute %.3f).", support, refute)
}
