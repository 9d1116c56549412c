package retrieval

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// MockDriver answers every query with the same rows.
type MockDriver struct {
	Rows    []map[string]any
	Err     error
	Queries []string
	Params  []map[string]interface{}
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	m.Queries = append(m.Queries, query)
	m.Params = append(m.Params, params)
	if m.Err != nil {
		return neo4j.EagerResult{}, m.Err
	}
	var records []*neo4j.Record
	for _, row := range m.Rows {
		rec := &neo4j.Record{}
		for k, v := range row {
			rec.Keys = append(rec.Keys, k)
			rec.Values = append(rec.Values, v)
		}
		records = append(records, rec)
	}
	return neo4j.EagerResult{Records: records}, nil
}

func (m *MockDriver) BuildIndices(ctx context.Context) error { return nil }

func (m *MockDriver) Close(ctx context.Context) error { return nil }

type MockLLMClient struct {
	Response   string
	Err        error
	LastPrompt string
}

func (m *MockLLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.LastPrompt = prompt
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}
