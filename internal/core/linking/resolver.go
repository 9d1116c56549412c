package linking

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/agenthands/claimcheck/internal/config"
	"github.com/agenthands/claimcheck/internal/core/model"
	"github.com/agenthands/claimcheck/internal/httpx"
	"github.com/agenthands/claimcheck/internal/logging"
	"github.com/agenthands/claimcheck/internal/metrics"
	"github.com/agenthands/claimcheck/internal/sparql"
	"github.com/agenthands/claimcheck/internal/telemetry"
)

// Resolution is the outcome of resolving one mention. Resolution never fails;
// when every primary linker errored it is marked Degraded and carries a warning.
type Resolution struct {
	Candidates []model.EntityCandidate
	Degraded   bool
	Warnings   []string
}

type Resolver struct {
	Linkers []Linker
	Index   Index

	PrimaryThreshold float64
	FuzzyThreshold   float64
	MinConfidence    float64
	FuzzyLimit       int
	MaxCandidates    int

	logger *zap.Logger
}

func NewResolver(cfg config.LinkingConfig, linkers []Linker, index Index, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	minConf := cfg.MinConfidence
	if minConf == 0 {
		minConf = min(cfg.PrimaryThreshold, cfg.FuzzyThreshold)
	}
	return &Resolver{
		Linkers:          linkers,
		Index:            index,
		PrimaryThreshold: cfg.PrimaryThreshold,
		FuzzyThreshold:   cfg.FuzzyThreshold,
		MinConfidence:    minConf,
		FuzzyLimit:       cfg.FuzzyLimit,
		MaxCandidates:    cfg.MaxCandidates,
		logger:           logger,
	}
}

// NewLinkers builds the primary chain in the configured order.
func NewLinkers(cfg config.LinkingConfig, hc *httpx.Client, sc *sparql.Client, index Index) ([]Linker, error) {
	var out []Linker
	for _, name := range cfg.Linkers {
		switch name {
		case "wikidata":
			if sc == nil {
				return nil, fmt.Errorf("wikidata linker needs a SPARQL endpoint for sameAs lookups")
			}
			out = append(out, NewWikidataLinker(cfg.WikidataEndpoint, cfg.SearchHits, hc, sc))
		case "lookup":
			out = append(out, NewLookupLinker(cfg.LookupEndpoint, cfg.SearchHits, hc))
		case "spotlight":
			out = append(out, NewSpotlightLinker(cfg.SpotlightEndpoint, cfg.SpotlightConfidence, hc))
		case "heuristic":
			out = append(out, NewHeuristicLinker(index, cfg.HeuristicScore))
		default:
			return nil, fmt.Errorf("unknown linker %q", name)
		}
	}
	return out, nil
}

// Resolve runs the primary chain, falls back to fuzzy label matching when no
// linker clears the primary threshold, and merges the two.
func (r *Resolver) Resolve(ctx context.Context, m model.EntityMention) Resolution {
	mention := m.SurfaceText
	ctx, span := telemetry.StartSpan(ctx, "linking", "resolve",
		attribute.String("mention", mention),
		attribute.String("type", string(m.Type)),
		attribute.Int("span.start", m.Span.Start),
		attribute.Int("span.end", m.Span.End))
	defer span.End()

	var res Resolution
	primaryCands, errs, won := r.runChain(ctx, mention)
	if errs != nil && len(errs.Errors) == len(r.Linkers) {
		degraded := &model.ResolutionDegraded{Mention: mention, Err: errs.ErrorOrNil()}
		res.Degraded = true
		res.Warnings = append(res.Warnings, degraded.Warning())
		r.logger.Warn("all primary linkers failed",
			zap.String("correlation_id", logging.CorrelationID(ctx)),
			zap.String("mention", mention),
			zap.String("type", string(m.Type)),
			zap.Error(errs))
		metrics.CountFallback("resolution_degraded")
	}

	var fuzzyCands []model.EntityCandidate
	if !won {
		var err error
		fuzzyCands, err = r.fuzzy(ctx, mention)
		if err != nil {
			r.logger.Warn("fuzzy label search failed",
				zap.String("correlation_id", logging.CorrelationID(ctx)),
				zap.String("mention", mention),
				zap.Error(err))
			res.Warnings = append(res.Warnings, fmt.Sprintf("fuzzy matching for %q failed", mention))
		}
		metrics.CountFallback("fuzzy_resolution")
	}

	res.Candidates = r.merge(primaryCands, fuzzyCands)
	span.SetAttributes(attribute.Int("candidates", len(res.Candidates)), attribute.Bool("degraded", res.Degraded))
	return res
}

// runChain tries each linker in order until one returns a top score of at least
// PrimaryThreshold. Candidates from linkers that did not win are kept for the merge.
func (r *Resolver) runChain(ctx context.Context, mention string) ([]model.EntityCandidate, *multierror.Error, bool) {
	var all []model.EntityCandidate
	var errs *multierror.Error
	for _, l := range r.Linkers {
		cands, err := l.Link(ctx, mention)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", l.Name(), err))
			r.logger.Debug("linker failed", zap.String("linker", l.Name()), zap.String("mention", mention), zap.Error(err))
			continue
		}
		all = append(all, cands...)
		if top(cands) >= r.PrimaryThreshold && len(cands) > 0 {
			r.logger.Debug("linker resolved mention",
				zap.String("linker", l.Name()),
				zap.String("mention", mention),
				zap.Int("candidates", len(cands)))
			return all, errs, true
		}
	}
	return all, errs, false
}

func (r *Resolver) fuzzy(ctx context.Context, mention string) ([]model.EntityCandidate, error) {
	if r.Index == nil {
		return nil, nil
	}
	labels, err := r.Index.SearchLabels(ctx, mention, r.FuzzyLimit)
	if err != nil {
		return nil, err
	}
	var out []model.EntityCandidate
	for _, lr := range labels {
		score := WRatio(mention, lr.Label)
		if score < r.FuzzyThreshold {
			continue
		}
		out = append(out, model.EntityCandidate{
			URI:        lr.URI,
			Label:      lr.Label,
			Confidence: score,
			Source:     model.SourceFuzzyFallback,
		})
	}
	return out, nil
}

// merge dedupes by URI keeping the highest confidence. A URI found by a primary
// linker keeps that source even when a fuzzy match scored higher.
func (r *Resolver) merge(primaryCands, fuzzyCands []model.EntityCandidate) []model.EntityCandidate {
	byURI := map[string]model.EntityCandidate{}
	add := func(c model.EntityCandidate) {
		prev, ok := byURI[c.URI]
		if !ok {
			byURI[c.URI] = c
			return
		}
		if c.Confidence > prev.Confidence {
			prev.Confidence = c.Confidence
		}
		if prev.Label == "" {
			prev.Label = c.Label
		}
		byURI[c.URI] = prev
	}
	for _, c := range primaryCands {
		add(c)
	}
	for _, c := range fuzzyCands {
		add(c)
	}

	out := make([]model.EntityCandidate, 0, len(byURI))
	for _, c := range byURI {
		if c.URI == "" || c.Confidence < r.MinConfidence {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].URI < out[j].URI
	})
	if r.MaxCandidates > 0 && len(out) > r.MaxCandidates {
		out = out[:r.MaxCandidates]
	}
	return out
}

func top(cands []model.EntityCandidate) float64 {
	best := 0.0
	for _, c := range cands {
		best = max(best, c.Confidence)
	}
	return best
}
