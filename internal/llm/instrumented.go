package llm

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/agenthands/claimcheck/internal/metrics"
	"github.com/agenthands/claimcheck/internal/telemetry"
)

// InstrumentedClient counts calls per provider and wraps each one in a span.
type InstrumentedClient struct {
	Client   LLMClient
	Provider string
}

func Instrument(c LLMClient, provider string) *InstrumentedClient {
	return &InstrumentedClient{Client: c, Provider: provider}
}

func (c *InstrumentedClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "llm", "llm.generate",
		attribute.String("llm.provider", c.Provider),
		attribute.Int("llm.prompt_chars", len(prompt)),
	)
	out, err := c.Client.Generate(ctx, prompt)
	metrics.CountLLM(c.Provider, err)
	telemetry.EndSpan(span, err)
	return out, err
}
