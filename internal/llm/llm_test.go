package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/claimcheck/internal/config"
)

type MockLLM struct {
	Response   string
	Err        error
	LastPrompt string
}

func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.LastPrompt = prompt
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

func TestRelevanceScorerParsesJSON(t *testing.T) {
	mock := &MockLLM{Response: `{"scores": [0.9, 0.1, 1.4]}`}
	scorer := NewLLMRelevanceScorer(mock, config.DefaultRelevancePrompt)

	scores, err := scorer.Score(context.Background(), "Kilimanjaro height", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.9, 0.1, 1.0}, scores)
	assert.Contains(t, mock.LastPrompt, "[2] c")
	assert.Contains(t, mock.LastPrompt, "Kilimanjaro height")
}

func TestRelevanceScorerFallsBackToNumbers(t *testing.T) {
	mock := &MockLLM{Response: "0.3, 0.7"}
	scores, err := NewLLMRelevanceScorer(mock, config.DefaultRelevancePrompt).Score(context.Background(), "q", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.3, 0.7}, scores)
}

func TestRelevanceScorerErrors(t *testing.T) {
	scorer := NewLLMRelevanceScorer(&MockLLM{Err: errors.New("down")}, config.DefaultRelevancePrompt)
	_, err := scorer.Score(context.Background(), "q", []string{"a"})
	assert.Error(t, err)

	scorer = NewLLMRelevanceScorer(&MockLLM{Response: `{"scores": [0.5]}`}, config.DefaultRelevancePrompt)
	_, err = scorer.Score(context.Background(), "q", []string{"a", "b"})
	assert.Error(t, err)

	scores, err := scorer.Score(context.Background(), "q", nil)
	assert.NoError(t, err)
	assert.Nil(t, scores)
}

func TestRelevanceScorerTruncatesLongDocs(t *testing.T) {
	mock := &MockLLM{Response: `{"scores": [0.5]}`}
	_, err := NewLLMRelevanceScorer(mock, config.DefaultRelevancePrompt).Score(context.Background(), "q", []string{strings.Repeat("x", 1000)})
	require.NoError(t, err)
	assert.NotContains(t, mock.LastPrompt, strings.Repeat("x", 301))
}

func TestInstrumentedPassesThrough(t *testing.T) {
	mock := &MockLLM{Response: "hello"}
	out, err := Instrument(mock, "mock").Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, "hi", mock.LastPrompt)
}

func TestNewClientProviders(t *testing.T) {
	l, e, err := NewClient(context.Background(), config.LLMConfig{Provider: "ollama", Model: "m", BaseURL: "http://localhost:11434"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, l)
	assert.NotNil(t, e)

	l, e, err = NewClient(context.Background(), config.LLMConfig{Provider: "Claude", Model: "m", APIKey: "k"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, l)
	assert.Nil(t, e)

	_, _, err = NewClient(context.Background(), config.LLMConfig{Provider: "mystery"}, nil)
	assert.Error(t, err)
}
