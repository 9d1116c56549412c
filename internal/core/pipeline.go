package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/agenthands/claimcheck/internal/cache"
	"github.com/agenthands/claimcheck/internal/core/linking"
	"github.com/agenthands/claimcheck/internal/core/model"
	"github.com/agenthands/claimcheck/internal/core/ranking"
	"github.com/agenthands/claimcheck/internal/core/retrieval"
	"github.com/agenthands/claimcheck/internal/logging"
	"github.com/agenthands/claimcheck/internal/metrics"
	"github.com/agenthands/claimcheck/internal/telemetry"
)

type TripleExtractor interface {
	Extract(ctx context.Context, claim string) (model.Triple, []model.EntityMention, error)
	ExtractAll(ctx context.Context, sentence string) ([]model.Triple, []model.EntityMention, error)
}

type EntityResolver interface {
	Resolve(ctx context.Context, mention model.EntityMention) linking.Resolution
}

type EvidenceRanker interface {
	Rank(ctx context.Context, query string, items []model.EvidenceItem, useCrossEncoder bool) ranking.Result
}

// VerdictClassifier picks a strategy by name and never fails; problems come
// back as warnings on an NotEnoughInfo verdict.
type VerdictClassifier interface {
	Classify(ctx context.Context, strategy, claim string, evidence []model.EvidenceItem) (model.Verdict, []string)
}

// Pipeline verifies claims: extract a triple, resolve its entities, gather KG
// and web evidence according to the mode, rank web evidence and classify.
type Pipeline struct {
	Extractor  TripleExtractor
	Resolver   EntityResolver
	KG         retrieval.KGRetriever
	Web        retrieval.WebRetriever
	Queries    *retrieval.QueryBuilder
	Ranker     EvidenceRanker
	Classifier VerdictClassifier
	Gate       *cache.Gate

	// Paraphrase sends the hybrid web fallback through Queries instead of the raw claim.
	Paraphrase bool
	TimeSteps  bool

	logger *zap.Logger
}

func NewPipeline(extractor TripleExtractor, resolver EntityResolver, kg retrieval.KGRetriever, web retrieval.WebRetriever, ranker EvidenceRanker, classifier VerdictClassifier, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		Extractor:  extractor,
		Resolver:   resolver,
		KG:         kg,
		Web:        web,
		Ranker:     ranker,
		Classifier: classifier,
		logger:     logger,
	}
}

// Verify runs one request through the cache gate. Identical concurrent requests
// share one computation. Responses that carry warnings are returned but not cached.
func (p *Pipeline) Verify(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	req = req.normalized()

	key := cache.Key(req.Claim, string(req.Mode), req.UseCrossEncoder, req.ClassifierKG, req.ClassifierBackup)
	raw, hit, err := p.Gate.Do(ctx, key, func(ctx context.Context) ([]byte, bool, error) {
		resp, err := p.run(ctx, req)
		if err != nil {
			return nil, false, err
		}
		b, err := json.Marshal(resp)
		if err != nil {
			return nil, false, fmt.Errorf("failed to encode response: %w", err)
		}
		return b, len(resp.Warnings) == 0, nil
	})
	if err != nil {
		return nil, err
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode cached response: %w", err)
	}
	resp.Claim = req.Claim
	if hit {
		p.logger.Debug("verdict served from cache", zap.String("key", key))
		if p.TimeSteps {
			resp.TimingInfo = map[string]float64{"cache_lookup": time.Since(start).Seconds()}
		}
	}
	return &resp, nil
}

// Triples extracts every triple and entity mention of a sentence.
func (p *Pipeline) Triples(ctx context.Context, sentence string) (*TriplesResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "pipeline", "triples")
	triples, mentions, err := p.Extractor.ExtractAll(ctx, sentence)
	telemetry.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	if mentions == nil {
		mentions = []model.EntityMention{}
	}
	return &TriplesResponse{Entities: mentions, Triples: triples}, nil
}

// stageTimer feeds the stage histogram and, when enabled, the response timing map.
type stageTimer struct {
	enabled bool
	info    map[string]float64
}

func (t *stageTimer) observe(stage string, start time.Time) {
	metrics.ObserveStage(stage, start)
	if t.enabled {
		t.info[stage] += time.Since(start).Seconds()
	}
}

func (p *Pipeline) run(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "pipeline", "verify", attribute.String("mode", string(req.Mode)))
	var runErr error
	defer func() { telemetry.EndSpan(span, runErr) }()

	timer := &stageTimer{enabled: p.TimeSteps, info: map[string]float64{}}
	resp := &Response{
		Claim:               req.Claim,
		Mode:                req.Mode,
		Evidence:            []model.EvidenceItem{},
		AllTopEvidencePaths: [][]model.EvidenceItem{},
		RankingMethod:       ranking.MethodNone,
	}

	triple, mentions, err := p.extract(ctx, req.Claim, timer)
	if err != nil {
		runErr = err
		return nil, err
	}
	resp.Triple = triple

	subject, object := p.resolve(ctx, req.Claim, triple, mentions, timer)
	resp.EntityLinking = EntityLinking{
		SubjectCandidates: subject.Candidates,
		ObjectCandidates:  object.Candidates,
	}
	resp.Warnings = append(resp.Warnings, subject.Warnings...)
	resp.Warnings = append(resp.Warnings, object.Warnings...)

	switch req.Mode {
	case ModeKGOnly:
		runErr = p.runKGOnly(ctx, req, resp, topURIs(subject, object), timer)
	case ModeWebOnly:
		runErr = p.runWebOnly(ctx, req, resp, timer)
	default:
		p.runHybrid(ctx, req, resp, topURIs(subject, object), timer)
	}
	if runErr != nil {
		return nil, runErr
	}

	resp.EvidenceCount = len(resp.Evidence)
	metrics.CountVerdict(string(resp.Label), string(resp.Mode))
	metrics.ObserveStage("total", start)
	if p.TimeSteps {
		timer.info["total_time"] = time.Since(start).Seconds()
		resp.TimingInfo = timer.info
	}
	span.SetAttributes(
		attribute.String("label", string(resp.Label)),
		attribute.Bool("kg_success", resp.KGSuccess),
		attribute.Int("evidence", resp.EvidenceCount))
	p.logger.Info("claim verified",
		zap.String("mode", string(resp.Mode)),
		zap.String("label", string(resp.Label)),
		zap.Bool("kg_success", resp.KGSuccess),
		zap.Int("evidence", resp.EvidenceCount),
		zap.Int("warnings", len(resp.Warnings)))
	return resp, nil
}

func (p *Pipeline) extract(ctx context.Context, claim string, timer *stageTimer) (model.Triple, []model.EntityMention, error) {
	defer timer.observe("triple_extraction", time.Now())
	ctx, span := telemetry.StartSpan(ctx, "pipeline", "extract_triple")
	triple, mentions, err := p.Extractor.Extract(ctx, claim)
	telemetry.EndSpan(span, err)
	if err != nil {
		p.logger.Warn("triple extraction failed",
			zap.String("correlation_id", logging.CorrelationID(ctx)),
			zap.Error(err))
		return model.Triple{}, nil, err
	}
	p.logger.Debug("triple extracted",
		zap.String("subject", triple.Subject),
		zap.String("predicate", triple.Predicate),
		zap.String("object", triple.Object),
		zap.Int("mentions", len(mentions)))
	return triple, mentions, nil
}

func (p *Pipeline) resolve(ctx context.Context, claim string, triple model.Triple, mentions []model.EntityMention, timer *stageTimer) (linking.Resolution, linking.Resolution) {
	defer timer.observe("entity_linking", time.Now())
	ctx, span := telemetry.StartSpan(ctx, "pipeline", "resolve_entities")
	defer span.End()
	return p.Resolver.Resolve(ctx, mentionFor(claim, triple.Subject, mentions)),
		p.Resolver.Resolve(ctx, mentionFor(claim, triple.Object, mentions))
}

// mentionFor returns the extracted mention for one side of the triple. A side the
// extractor did not report is located in the claim and typed MISC.
func mentionFor(claim, text string, mentions []model.EntityMention) model.EntityMention {
	for _, m := range mentions {
		if strings.EqualFold(m.SurfaceText, text) {
			return m
		}
	}
	m := model.EntityMention{SurfaceText: text, Type: model.EntityMisc}
	if i := strings.Index(strings.ToLower(claim), strings.ToLower(text)); i >= 0 && text != "" {
		m.Span = model.Span{Start: i, End: i + len(text)}
	}
	return m
}

// topURIs picks the best candidate of each side as the KG lookup keys.
func topURIs(subject, object linking.Resolution) []string {
	var uris []string
	for _, r := range []linking.Resolution{subject, object} {
		if len(r.Candidates) > 0 {
			uris = append(uris, r.Candidates[0].URI)
		}
	}
	return uris
}

func (p *Pipeline) runKGOnly(ctx context.Context, req Request, resp *Response, uris []string, timer *stageTimer) error {
	evidence, err := p.retrieveKG(ctx, uris, timer)
	if err != nil {
		return err
	}
	v, warnings := p.classify(ctx, req.ClassifierKG, req.Claim, evidence, timer)
	resp.Warnings = append(resp.Warnings, warnings...)
	p.apply(resp, v)
	resp.KGSuccess = len(evidence) > 0
	return nil
}

func (p *Pipeline) runWebOnly(ctx context.Context, req Request, resp *Response, timer *stageTimer) error {
	evidence, err := p.retrieveWeb(ctx, req.Claim, timer)
	if err != nil {
		return err
	}
	ranked := p.rank(ctx, req, evidence, timer)
	resp.RankingMethod = ranked.Method
	resp.Warnings = append(resp.Warnings, ranked.Warnings...)

	v, warnings := p.classify(ctx, req.ClassifierBackup, req.Claim, ranked.Items, timer)
	resp.Warnings = append(resp.Warnings, warnings...)
	p.apply(resp, v)
	return nil
}

// runHybrid classifies KG evidence first and only goes to the web when that
// produced no decisive verdict. A failing web step leaves the KG verdict in place.
func (p *Pipeline) runHybrid(ctx context.Context, req Request, resp *Response, uris []string, timer *stageTimer) {
	kgEvidence, err := p.retrieveKG(ctx, uris, timer)
	if err != nil {
		resp.Warnings = append(resp.Warnings, model.Warning(err))
	}

	kgVerdict, warnings := p.classify(ctx, req.ClassifierKG, req.Claim, kgEvidence, timer)
	resp.Warnings = append(resp.Warnings, warnings...)
	if len(kgEvidence) > 0 && kgVerdict.Label != model.NotEnoughInfo {
		p.apply(resp, kgVerdict)
		resp.KGSuccess = true
		return
	}

	metrics.CountFallback("web_retrieval")
	p.logger.Info("falling back to web evidence",
		zap.Int("kg_evidence", len(kgEvidence)),
		zap.String("kg_label", string(kgVerdict.Label)))

	webEvidence, err := p.retrieveWeb(ctx, p.webQuery(ctx, req, resp.Triple), timer)
	if err != nil {
		resp.Warnings = append(resp.Warnings, model.Warning(err))
		p.apply(resp, kgVerdict)
		resp.KGSuccess = len(kgEvidence) > 0
		return
	}

	ranked := p.rank(ctx, req, webEvidence, timer)
	resp.RankingMethod = ranked.Method
	resp.Warnings = append(resp.Warnings, ranked.Warnings...)

	v, warnings := p.classify(ctx, req.ClassifierBackup, req.Claim, ranked.Items, timer)
	resp.Warnings = append(resp.Warnings, warnings...)
	p.apply(resp, v)
}

func (p *Pipeline) webQuery(ctx context.Context, req Request, triple model.Triple) string {
	if p.Paraphrase && p.Queries != nil {
		if q := strings.TrimSpace(p.Queries.Build(ctx, triple)); q != "" {
			return q
		}
	}
	return req.Claim
}

func (p *Pipeline) retrieveKG(ctx context.Context, uris []string, timer *stageTimer) ([]model.EvidenceItem, error) {
	if len(uris) == 0 || p.KG == nil {
		return nil, nil
	}
	defer timer.observe("kg_retrieval", time.Now())
	ctx, span := telemetry.StartSpan(ctx, "pipeline", "retrieve_kg", attribute.StringSlice("uris", uris))
	evidence, err := p.KG.Retrieve(ctx, uris)
	telemetry.EndSpan(span, err)
	if err != nil {
		p.logger.Warn("kg retrieval failed",
			zap.String("correlation_id", logging.CorrelationID(ctx)),
			zap.Strings("uris", uris),
			zap.Error(err))
		return nil, err
	}
	metrics.ObserveEvidence("kg", len(evidence))
	return evidence, nil
}

func (p *Pipeline) retrieveWeb(ctx context.Context, query string, timer *stageTimer) ([]model.EvidenceItem, error) {
	if p.Web == nil {
		return nil, &model.RetrievalError{Source: "web", Err: fmt.Errorf("no web retriever configured")}
	}
	defer timer.observe("web_retrieval", time.Now())
	ctx, span := telemetry.StartSpan(ctx, "pipeline", "retrieve_web")
	evidence, err := p.Web.Retrieve(ctx, query)
	telemetry.EndSpan(span, err)
	if err != nil {
		p.logger.Warn("web retrieval failed",
			zap.String("correlation_id", logging.CorrelationID(ctx)),
			zap.Error(err))
		return nil, err
	}
	metrics.ObserveEvidence("web", len(evidence))
	return evidence, nil
}

func (p *Pipeline) rank(ctx context.Context, req Request, evidence []model.EvidenceItem, timer *stageTimer) ranking.Result {
	if len(evidence) == 0 || p.Ranker == nil {
		return ranking.Result{Items: evidence, Method: ranking.MethodNone}
	}
	defer timer.observe("ranking", time.Now())
	return p.Ranker.Rank(ctx, req.Claim, evidence, req.UseCrossEncoder)
}

func (p *Pipeline) classify(ctx context.Context, strategy, claim string, evidence []model.EvidenceItem, timer *stageTimer) (model.Verdict, []string) {
	defer timer.observe("classification", time.Now())
	return p.Classifier.Classify(ctx, strategy, claim, evidence)
}

func (p *Pipeline) apply(resp *Response, v model.Verdict) {
	resp.Label = v.Label
	resp.Reason = v.Reason
	resp.Confidence = v.Confidence
	resp.Evidence = v.Evidence
	if resp.Evidence == nil {
		resp.Evidence = []model.EvidenceItem{}
	}
}
