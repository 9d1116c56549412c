package ranking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/claimcheck/internal/config"
	"github.com/agenthands/claimcheck/internal/core/model"
	"github.com/agenthands/claimcheck/internal/httpx"
)

type MockScorer struct {
	Name   string
	Scores []float64
	Err    error
	Calls  int
}

func (m *MockScorer) Method() string { return m.Name }

func (m *MockScorer) Score(ctx context.Context, query string, docs []string) ([]float64, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Scores[:len(docs)], nil
}

type MockEmbedder struct {
	Vectors map[string][]float32
	Err     error
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Vectors[text], nil
}

func web(text string, trust float64) model.EvidenceItem {
	return model.NewWebEvidence("", text, "https://example.org/"+text, trust)
}

func newRanker(cross, bi Scorer) *Ranker {
	return NewRanker(config.Default().Ranking, cross, bi, nil)
}

func TestRankCombinesModelAndTrust(t *testing.T) {
	items := []model.EvidenceItem{web("a", 0.5), web("b", 1.0), web("c", 0.1)}
	cross := &MockScorer{Name: MethodCrossEncoder, Scores: []float64{0.5, 0.5, 0.9}}

	res := newRanker(cross, nil).Rank(context.Background(), "q", items, true)

	require.Equal(t, MethodCrossEncoder, res.Method)
	require.Len(t, res.Items, 3)
	// c: 0.72+0.02, b: 0.4+0.2, a: 0.4+0.1
	assert.Equal(t, []string{"c", "b", "a"}, texts(res.Items))
	assert.InDelta(t, 0.74, res.Items[0].RelevanceScore, 1e-9)
	assert.InDelta(t, 0.6, res.Items[1].RelevanceScore, 1e-9)
}

func TestRankTiesKeepRetrievalOrder(t *testing.T) {
	items := []model.EvidenceItem{web("first", 0.5), web("second", 0.5), web("third", 0.5)}
	cross := &MockScorer{Name: MethodCrossEncoder, Scores: []float64{0.3, 0.3, 0.3}}

	res := newRanker(cross, nil).Rank(context.Background(), "q", items, true)
	assert.Equal(t, []string{"first", "second", "third"}, texts(res.Items))
}

func TestRankKGPassesThroughFirst(t *testing.T) {
	kg := model.NewKGEvidence("http://dbpedia.org/resource/A", "http://dbpedia.org/ontology/p", "http://dbpedia.org/resource/B", "dbpedia")
	items := []model.EvidenceItem{web("w1", 0.5), kg, web("w2", 0.5)}
	cross := &MockScorer{Name: MethodCrossEncoder, Scores: []float64{0.1, 0.9}}

	res := newRanker(cross, nil).Rank(context.Background(), "q", items, true)

	require.Len(t, res.Items, 3)
	assert.Equal(t, model.EvidenceKG, res.Items[0].Kind)
	assert.Equal(t, 0.0, res.Items[0].RelevanceScore)
	assert.Equal(t, []string{"w2", "w1"}, texts(res.Items[1:]))
}

func TestRankFallsBackToBiEncoder(t *testing.T) {
	items := []model.EvidenceItem{web("x", 0.5), web("y", 0.5)}
	cross := &MockScorer{Name: MethodCrossEncoder, Err: errors.New("503")}
	bi := &MockScorer{Name: MethodBiEncoder, Scores: []float64{0.1, 0.8}}

	res := newRanker(cross, bi).Rank(context.Background(), "q", items, true)

	assert.Equal(t, MethodBiEncoder, res.Method)
	assert.Equal(t, []string{"y", "x"}, texts(res.Items))
	assert.Len(t, res.Warnings, 1)
}

func TestRankWithoutCrossEncoderSkipsIt(t *testing.T) {
	cross := &MockScorer{Name: MethodCrossEncoder, Scores: []float64{1}}
	bi := &MockScorer{Name: MethodBiEncoder, Scores: []float64{0.5}}

	res := newRanker(cross, bi).Rank(context.Background(), "q", []model.EvidenceItem{web("x", 0.5)}, false)

	assert.Equal(t, MethodBiEncoder, res.Method)
	assert.Equal(t, 0, cross.Calls)
}

func TestRankAllScorersFail(t *testing.T) {
	items := []model.EvidenceItem{web("x", 0.1), web("y", 0.9)}
	bi := &MockScorer{Name: MethodBiEncoder, Err: errors.New("no embeddings")}

	res := newRanker(nil, bi).Rank(context.Background(), "q", items, true)

	assert.Equal(t, MethodNone, res.Method)
	assert.Equal(t, []string{"x", "y"}, texts(res.Items))
}

func TestRankCapsAtTopK(t *testing.T) {
	cfg := config.Default().Ranking
	cfg.TopK = 2
	var items []model.EvidenceItem
	var scores []float64
	for i := 0; i < 5; i++ {
		items = append(items, web(fmt.Sprint(i), 0.5))
		scores = append(scores, float64(i)/10)
	}
	r := NewRanker(cfg, &MockScorer{Name: MethodCrossEncoder, Scores: scores}, nil, nil)

	res := r.Rank(context.Background(), "q", items, true)
	assert.Equal(t, []string{"4", "3"}, texts(res.Items))
}

// Raising one item's model score never moves it down, for either scorer.
func TestRankMonotonicity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, method := range []string{MethodCrossEncoder, MethodBiEncoder} {
		for round := 0; round < 100; round++ {
			n := 2 + rng.Intn(8)
			items := make([]model.EvidenceItem, n)
			scores := make([]float64, n)
			for i := range items {
				items[i] = web(fmt.Sprint(i), rng.Float64())
				scores[i] = rng.Float64()
			}
			target := rng.Intn(n)

			s := &MockScorer{Name: method, Scores: scores}
			var before Result
			if method == MethodCrossEncoder {
				before = newRanker(s, nil).Rank(context.Background(), "q", items, true)
			} else {
				before = newRanker(nil, s).Rank(context.Background(), "q", items, true)
			}

			boosted := append([]float64(nil), scores...)
			boosted[target] = boosted[target] + (1-boosted[target])*rng.Float64()
			s.Scores = boosted
			var after Result
			if method == MethodCrossEncoder {
				after = newRanker(s, nil).Rank(context.Background(), "q", items, true)
			} else {
				after = newRanker(nil, s).Rank(context.Background(), "q", items, true)
			}

			id := fmt.Sprint(target)
			assert.LessOrEqual(t, position(after.Items, id), position(before.Items, id), "%s round %d", method, round)
		}
	}
}

func TestCrossEncoderClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rerankRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claim", req.Query)
		assert.Len(t, req.Candidates, 2)
		fmt.Fprint(w, `{"ranking":[{"id":"1","score":0.9},{"id":"0","score":1.7}]}`)
	}))
	defer srv.Close()

	c := NewCrossEncoderClient(srv.URL, httpx.New(config.HTTPConfig{TimeoutMs: 2000}))
	scores, err := c.Score(context.Background(), "claim", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0.9}, scores)
}

func TestCrossEncoderClientIncomplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ranking":[{"id":"0","score":0.5}]}`)
	}))
	defer srv.Close()

	c := NewCrossEncoderClient(srv.URL, httpx.New(config.HTTPConfig{TimeoutMs: 2000}))
	_, err := c.Score(context.Background(), "claim", []string{"a", "b"})
	assert.Error(t, err)
}

func TestBiEncoder(t *testing.T) {
	emb := &MockEmbedder{Vectors: map[string][]float32{
		"q":    {1, 0},
		"same": {2, 0},
		"orth": {0, 1},
		"anti": {-1, 0},
	}}
	scores, err := NewBiEncoder(emb).Score(context.Background(), "q", []string{"same", "orth", "anti"})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 0, 0}, scores, 1e-9)

	emb.Err = errors.New("quota")
	_, err = NewBiEncoder(emb).Score(context.Background(), "q", []string{"same"})
	assert.Error(t, err)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 0.7071, Cosine([]float32{1, 1}, []float32{1, 0}), 1e-4)
	assert.Equal(t, 0.0, Cosine([]float32{1}, []float32{1, 0}))
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 0}))
}

func texts(items []model.EvidenceItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Text
	}
	return out
}

func position(items []model.EvidenceItem, text string) int {
	for i, it := range items {
		if it.Text == text {
			return i
		}
	}
	return len(items)
}
