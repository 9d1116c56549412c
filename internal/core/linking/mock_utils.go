package linking

import (
	"context"
	"strings"

	"github.com/agenthands/claimcheck/internal/core/model"
)

type MockLinker struct {
	LinkerName string
	Results    map[string][]model.EntityCandidate
	Err        error
	Calls      int
}

func (m *MockLinker) Name() string { return m.LinkerName }

func (m *MockLinker) Link(ctx context.Context, mention string) ([]model.EntityCandidate, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Results[mention], nil
}

type MockIndex struct {
	Labels   []LabeledResource
	Known    map[string]bool
	Err      error
	Searches int
}

func (m *MockIndex) SearchLabels(ctx context.Context, text string, limit int) ([]LabeledResource, error) {
	m.Searches++
	if m.Err != nil {
		return nil, m.Err
	}
	var out []LabeledResource
	for _, l := range m.Labels {
		if strings.Contains(strings.ToLower(l.Label), strings.ToLower(text)) {
			out = append(out, l)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockIndex) Exists(ctx context.Context, uri string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	return m.Known[uri], nil
}
