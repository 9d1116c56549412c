package core

import (
	"context"
	"sync"

	"github.com/agenthands/claimcheck/internal/core/model"
	"github.com/agenthands/claimcheck/internal/core/verdict"
)

type MockLLM struct {
	mu            sync.Mutex
	Response      string
	ResponseQueue []string
	Prompts       []string
}

func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	if len(m.ResponseQueue) > 0 {
		resp := m.ResponseQueue[0]
		m.ResponseQueue = m.ResponseQueue[1:]
		return resp, nil
	}
	return m.Response, nil
}

func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}

type MockKG struct {
	Evidence []model.EvidenceItem
	Err      error
	URIs     [][]string
}

func (m *MockKG) Retrieve(ctx context.Context, uris []string) ([]model.EvidenceItem, error) {
	m.URIs = append(m.URIs, uris)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Evidence, nil
}

type MockWeb struct {
	Evidence []model.EvidenceItem
	Err      error
	Queries  []string
}

func (m *MockWeb) Retrieve(ctx context.Context, query string) ([]model.EvidenceItem, error) {
	m.Queries = append(m.Queries, query)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Evidence, nil
}

type MockScorer struct {
	Scores []float64
	Err    error
}

func (m *MockScorer) Method() string { return "cross_encoder" }

func (m *MockScorer) Score(ctx context.Context, query string, docs []string) ([]float64, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Scores[:len(docs)], nil
}

// MockNLI answers every premise with the same prediction.
type MockNLI struct {
	Prediction verdict.Prediction
	Err        error
	Calls      int
}

func (m *MockNLI) Predict(ctx context.Context, hypothesis string, premises []string) ([]verdict.Prediction, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]verdict.Prediction, len(premises))
	for i := range out {
		out[i] = m.Prediction
	}
	return out, nil
}
