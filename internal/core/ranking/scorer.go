package ranking

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/agenthands/claimcheck/internal/httpx"
	"github.com/agenthands/claimcheck/internal/llm"
)

const (
	MethodCrossEncoder = "cross_encoder"
	MethodBiEncoder    = "bi_encoder"
	MethodNone         = "none"
)

// Scorer gives each document a relevance score in [0,1] against the query, in
// document order.
type Scorer interface {
	Method() string
	Score(ctx context.Context, query string, docs []string) ([]float64, error)
}

// CrossEncoderClient calls a rerank service that scores (query, candidate) pairs jointly.
type CrossEncoderClient struct {
	Endpoint string
	HTTP     *httpx.Client
}

func NewCrossEncoderClient(endpoint string, hc *httpx.Client) *CrossEncoderClient {
	return &CrossEncoderClient{Endpoint: endpoint, HTTP: hc}
}

func (c *CrossEncoderClient) Method() string { return MethodCrossEncoder }

type rerankCandidate struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type rerankRequest struct {
	Query      string            `json:"query"`
	Candidates []rerankCandidate `json:"candidates"`
	TopN       int               `json:"top_n"`
}

func (c *CrossEncoderClient) Score(ctx context.Context, query string, docs []string) ([]float64, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	req := rerankRequest{Query: query, TopN: len(docs)}
	for i, d := range docs {
		req.Candidates = append(req.Candidates, rerankCandidate{ID: strconv.Itoa(i), Text: d})
	}

	body, err := c.HTTP.PostJSON(ctx, c.Endpoint, req, nil)
	if err != nil {
		return nil, fmt.Errorf("cross-encoder request failed: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("cross-encoder: malformed response")
	}

	scores := make([]float64, len(docs))
	seen := 0
	gjson.GetBytes(body, "ranking").ForEach(func(_, v gjson.Result) bool {
		i, err := strconv.Atoi(v.Get("id").String())
		if err != nil || i < 0 || i >= len(docs) {
			return true
		}
		scores[i] = clamp01(v.Get("score").Float())
		seen++
		return true
	})
	if seen != len(docs) {
		return nil, fmt.Errorf("cross-encoder scored %d of %d candidates", seen, len(docs))
	}
	return scores, nil
}

// LLMScorer puts an llm.RelevanceScorer behind the cross-encoder method when no
// rerank service is configured.
type LLMScorer struct {
	Scorer llm.RelevanceScorer
}

func (s *LLMScorer) Method() string { return MethodCrossEncoder }

func (s *LLMScorer) Score(ctx context.Context, query string, docs []string) ([]float64, error) {
	return s.Scorer.Score(ctx, query, docs)
}

// BiEncoder embeds the query and each document separately and scores by cosine similarity.
type BiEncoder struct {
	Embedder llm.EmbedderClient
}

func NewBiEncoder(e llm.EmbedderClient) *BiEncoder {
	return &BiEncoder{Embedder: e}
}

func (b *BiEncoder) Method() string { return MethodBiEncoder }

func (b *BiEncoder) Score(ctx context.Context, query string, docs []string) ([]float64, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	q, err := b.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	scores := make([]float64, len(docs))
	for i, d := range docs {
		v, err := b.Embedder.Embed(ctx, d)
		if err != nil {
			return nil, fmt.Errorf("failed to embed document %d: %w", i, err)
		}
		scores[i] = clamp01(Cosine(q, v))
	}
	return scores, nil
}

// Cosine returns the cosine similarity of a and b, or 0 when either is empty,
// zero or the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}
