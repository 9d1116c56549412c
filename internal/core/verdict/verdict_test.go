package verdict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/claimcheck/internal/config"
	"github.com/agenthands/claimcheck/internal/core/model"
	"github.com/agenthands/claimcheck/internal/httpx"
)

type MockLLM struct {
	Response   string
	Err        error
	LastPrompt string
	Calls      int
}

func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.Calls++
	m.LastPrompt = prompt
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

type MockNLI struct {
	Predictions []Prediction
	Err         error
	Batches     [][]string
}

func (m *MockNLI) Predict(ctx context.Context, hypothesis string, premises []string) ([]Prediction, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	offset := 0
	for _, b := range m.Batches {
		offset += len(b)
	}
	m.Batches = append(m.Batches, premises)
	return m.Predictions[offset : offset+len(premises)], nil
}

var tumEvidence = []model.EvidenceItem{
	model.NewKGEvidence(
		"http://dbpedia.org/resource/Technical_University_of_Munich",
		"http://dbpedia.org/ontology/country",
		"http://dbpedia.org/resource/Germany", "dbpedia"),
	model.NewKGEvidence(
		"http://dbpedia.org/resource/Technical_University_of_Munich",
		"http://purl.org/dc/terms/subject",
		"http://dbpedia.org/resource/Category:Universities_in_Germany", "dbpedia"),
}

func webItems(n int, trust float64) []model.EvidenceItem {
	out := make([]model.EvidenceItem, n)
	for i := range out {
		out[i] = model.NewWebEvidence("t", fmt.Sprintf("snippet %d", i), "https://example.org", trust)
	}
	return out
}

func TestJudgeParsesJSON(t *testing.T) {
	mock := &MockLLM{Response: "```json\n{\"label\": \"Supported\", \"reason\": \"Path 1 places TUM in Germany.\"}\n```"}
	judge := NewLLMJudge(mock, config.DefaultJudgePrompt, 20)

	v, err := judge.Classify(context.Background(), "TUM is a university in Germany", tumEvidence)
	require.NoError(t, err)
	assert.Equal(t, model.Supported, v.Label)
	assert.Equal(t, "Path 1 places TUM in Germany.", v.Reason)
	assert.Nil(t, v.Confidence)
	assert.Len(t, v.Evidence, 2)
	assert.Contains(t, mock.LastPrompt, "1. Technical University of Munich → country → Germany")
	assert.Contains(t, mock.LastPrompt, "2. Technical University of Munich → subject → Universities in Germany")
}

func TestJudgeKeywordFallback(t *testing.T) {
	mock := &MockLLM{Response: "After reviewing the paths, the claim is REFUTED because path 2 disagrees."}
	v, err := NewLLMJudge(mock, config.DefaultJudgePrompt, 20).Classify(context.Background(), "c", tumEvidence)
	require.NoError(t, err)
	assert.Equal(t, model.Refuted, v.Label)
	assert.Contains(t, v.Reason, "path 2")
}

func TestJudgeUndecided(t *testing.T) {
	mock := &MockLLM{Response: "I'm not sure."}
	v, err := NewLLMJudge(mock, config.DefaultJudgePrompt, 20).Classify(context.Background(), "c", tumEvidence)
	require.NoError(t, err)
	assert.Equal(t, model.NotEnoughInfo, v.Label)
	assert.Equal(t, undecidedReason, v.Reason)
}

func TestJudgeModelError(t *testing.T) {
	mock := &MockLLM{Err: errors.New("timeout")}
	_, err := NewLLMJudge(mock, config.DefaultJudgePrompt, 20).Classify(context.Background(), "c", tumEvidence)
	var ce *model.ClassificationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, StrategyLLM, ce.Strategy)
}

func TestFormatPathsLimit(t *testing.T) {
	out := FormatPaths(webItems(5, 0.5), 2)
	assert.Contains(t, out, "2. ")
	assert.NotContains(t, out, "3. ")
}

func TestNLISupported(t *testing.T) {
	evidence := webItems(10, 0.9)
	preds := make([]Prediction, 10)
	for i := range preds {
		preds[i] = Prediction{Label: Entails, Confidence: 0.9}
	}
	preds[9] = Prediction{Label: Contradicts, Confidence: 0.5}
	mock := &MockNLI{Predictions: preds}

	v, err := NewNLIClassifier(mock, config.Default().NLI).Classify(context.Background(), "claim", evidence)
	require.NoError(t, err)

	assert.Equal(t, model.Supported, v.Label)
	require.NotNil(t, v.Confidence)
	// support = 9 * 0.9 * 0.9
	assert.InDelta(t, 7.29, *v.Confidence, 1e-9)
	require.Len(t, mock.Batches, 2)
	assert.Len(t, mock.Batches[0], 8)
	assert.Len(t, mock.Batches[1], 2)
}

func TestNLIRefuted(t *testing.T) {
	evidence := webItems(2, 1.0)
	mock := &MockNLI{Predictions: []Prediction{{Contradicts, 0.95}, {Neutral, 0.99}}}

	v, err := NewNLIClassifier(mock, config.Default().NLI).Classify(context.Background(), "claim", evidence)
	require.NoError(t, err)
	assert.Equal(t, model.Refuted, v.Label)
	assert.InDelta(t, 0.95, *v.Confidence, 1e-9)
}

func TestNLINotDecisive(t *testing.T) {
	cases := map[string][]Prediction{
		"total too small": {{Entails, 0.5}, {Neutral, 0.9}},
		"no dominance":    {{Entails, 0.9}, {Contradicts, 0.8}},
	}
	for name, preds := range cases {
		t.Run(name, func(t *testing.T) {
			v, err := NewNLIClassifier(&MockNLI{Predictions: preds}, config.Default().NLI).
				Classify(context.Background(), "claim", webItems(2, 1.0))
			require.NoError(t, err)
			assert.Equal(t, model.NotEnoughInfo, v.Label)
			require.NotNil(t, v.Confidence, "NLI always reports confidence")
		})
	}
}

func TestNLIServiceContract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req nliRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Kilimanjaro is in Africa", req.Hypothesis)
		fmt.Fprint(w, `{"results":[{"label":"ENTAILMENT","confidence":0.97},{"label":"neutral","confidence":0.6}]}`)
	}))
	defer srv.Close()

	svc := NewNLIService(srv.URL, httpx.New(config.HTTPConfig{TimeoutMs: 2000}))
	preds, err := svc.Predict(context.Background(), "Kilimanjaro is in Africa", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []Prediction{{Entails, 0.97}, {Neutral, 0.6}}, preds)

	_, err = svc.Predict(context.Background(), "Kilimanjaro is in Africa", []string{"a", "b", "c"})
	assert.Error(t, err, "count mismatch")
}

func TestRegistryEmptyEvidenceSkipsStrategies(t *testing.T) {
	mock := &MockLLM{Response: `{"label":"Supported","reason":"x"}`}
	reg := NewRegistry(nil, NewLLMJudge(mock, config.DefaultJudgePrompt, 20))

	v, warnings := reg.Classify(context.Background(), "LLM", "claim", nil)
	assert.Equal(t, model.NotEnoughInfo, v.Label)
	assert.Empty(t, v.Evidence)
	assert.Empty(t, warnings)
	assert.Equal(t, 0, mock.Calls)
}

func TestRegistryRetriesWithAlternate(t *testing.T) {
	judge := NewLLMJudge(&MockLLM{Response: `{"label":"Refuted","reason":"path 1"}`}, config.DefaultJudgePrompt, 20)
	nli := NewNLIClassifier(&MockNLI{Err: errors.New("nli down")}, config.Default().NLI)
	reg := NewRegistry(nil, judge, nli)

	v, warnings := reg.Classify(context.Background(), "deberta", "claim", tumEvidence)
	assert.Equal(t, model.Refuted, v.Label)
	assert.Equal(t, []string{"classifier DEBERTA failed"}, warnings)
}

func TestRegistryBothFail(t *testing.T) {
	judge := NewLLMJudge(&MockLLM{Err: errors.New("llm down")}, config.DefaultJudgePrompt, 20)
	reg := NewRegistry(nil, judge)

	v, warnings := reg.Classify(context.Background(), "LLM", "claim", tumEvidence)
	assert.Equal(t, model.NotEnoughInfo, v.Label)
	assert.Contains(t, v.Reason, "Classification failed")
	assert.Equal(t, []string{"classifier LLM failed", "classifier DEBERTA failed"}, warnings)
	assert.NotContains(t, v.Reason, "llm down")
}

func TestStrategyNames(t *testing.T) {
	assert.Equal(t, StrategyLLM, NormalizeStrategy(""))
	assert.Equal(t, StrategyNLI, NormalizeStrategy(" deberta "))
	assert.True(t, ValidStrategy("llm"))
	assert.False(t, ValidStrategy("bert"))
}
