package ranking

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/agenthands/claimcheck/internal/config"
	"github.com/agenthands/claimcheck/internal/core/model"
	"github.com/agenthands/claimcheck/internal/metrics"
	"github.com/agenthands/claimcheck/internal/telemetry"
)

// Result is a ranked evidence list and the method that produced the web order.
type Result struct {
	Items    []model.EvidenceItem
	Method   string
	Warnings []string
}

// Ranker orders web evidence by a weighted mix of model relevance and source trust.
// KG items are not scored; they come first, in input order.
type Ranker struct {
	CrossEncoder Scorer
	BiEncoder    Scorer
	ModelWeight  float64
	TrustWeight  float64
	TopK         int
	logger       *zap.Logger
}

func NewRanker(cfg config.RankingConfig, cross, bi Scorer, logger *zap.Logger) *Ranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ranker{
		CrossEncoder: cross,
		BiEncoder:    bi,
		ModelWeight:  cfg.ModelWeight,
		TrustWeight:  cfg.TrustWeight,
		TopK:         cfg.TopK,
		logger:       logger,
	}
}

// chain lists the scorers to try in order.
func (r *Ranker) chain(useCrossEncoder bool) []Scorer {
	var out []Scorer
	if useCrossEncoder && r.CrossEncoder != nil {
		out = append(out, r.CrossEncoder)
	}
	if r.BiEncoder != nil {
		out = append(out, r.BiEncoder)
	}
	return out
}

// Rank scores the web items against query. The cross-encoder is tried first when
// asked for; on error the bi-encoder is used. If no scorer succeeds the web items
// keep their retrieval order and Method is "none".
func (r *Ranker) Rank(ctx context.Context, query string, items []model.EvidenceItem, useCrossEncoder bool) Result {
	ctx, span := telemetry.StartSpan(ctx, "ranking", "rank")
	defer span.End()

	var kg, web []model.EvidenceItem
	for _, it := range items {
		if it.Kind == model.EvidenceWeb {
			web = append(web, it)
		} else {
			kg = append(kg, it)
		}
	}

	res := Result{Method: MethodNone}
	if len(web) == 0 {
		res.Items = r.cap(kg)
		return res
	}

	docs := make([]string, len(web))
	for i, it := range web {
		docs[i] = it.Premise()
	}

	for i, s := range r.chain(useCrossEncoder) {
		scores, err := s.Score(ctx, query, docs)
		if err != nil {
			r.logger.Warn("ranker failed", zap.String("method", s.Method()), zap.Error(err))
			res.Warnings = append(res.Warnings, "ranking with "+s.Method()+" failed")
			continue
		}
		if i > 0 {
			metrics.CountFallback("ranker")
		}
		res.Method = s.Method()
		web = r.order(web, scores)
		break
	}

	res.Items = r.cap(append(kg, web...))
	return res
}

// order sets each item's relevance to the weighted score and stable-sorts by it,
// so equal scores keep retrieval order.
func (r *Ranker) order(web []model.EvidenceItem, scores []float64) []model.EvidenceItem {
	out := make([]model.EvidenceItem, len(web))
	copy(out, web)
	for i := range out {
		out[i].RelevanceScore = r.ModelWeight*scores[i] + r.TrustWeight*out[i].Trust
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RelevanceScore > out[j].RelevanceScore })
	return out
}

func (r *Ranker) cap(items []model.EvidenceItem) []model.EvidenceItem {
	if r.TopK > 0 && len(items) > r.TopK {
		return items[:r.TopK]
	}
	return items
}
