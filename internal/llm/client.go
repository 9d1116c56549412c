package llm

import (
	"context"
)

type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type EmbedderClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// RelevanceScorer scores each document against the query, in document order.
// Scores are in [0,1], higher is more relevant.
type RelevanceScorer interface {
	Score(ctx context.Context, query string, documents []string) ([]float64, error)
}
