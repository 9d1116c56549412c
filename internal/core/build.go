package core

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/agenthands/claimcheck/internal/cache"
	"github.com/agenthands/claimcheck/internal/config"
	"github.com/agenthands/claimcheck/internal/core/extraction"
	"github.com/agenthands/claimcheck/internal/core/linking"
	"github.com/agenthands/claimcheck/internal/core/ranking"
	"github.com/agenthands/claimcheck/internal/core/retrieval"
	"github.com/agenthands/claimcheck/internal/core/verdict"
	"github.com/agenthands/claimcheck/internal/driver"
	"github.com/agenthands/claimcheck/internal/httpx"
	"github.com/agenthands/claimcheck/internal/llm"
	"github.com/agenthands/claimcheck/internal/logging"
	"github.com/agenthands/claimcheck/internal/sparql"
)

// Closer releases connections opened by Build.
type Closer func(ctx context.Context) error

// Build assembles a Pipeline from configuration. The returned Closer must be
// called on shutdown; it is safe to call when Build fails.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Pipeline, Closer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var closers []Closer
	closeAll := func(ctx context.Context) error {
		var errs *multierror.Error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = multierror.Append(errs, closers[i](ctx))
		}
		return errs.ErrorOrNil()
	}
	fail := func(err error) (*Pipeline, Closer, error) {
		closeAll(ctx)
		return nil, func(context.Context) error { return nil }, err
	}

	hc := httpx.New(cfg.HTTP)

	llmClient, embedder, err := llm.NewClient(ctx, cfg.LLM, logger)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize LLM client: %w", err))
	}

	var sc *sparql.Client
	if cfg.KG.SPARQLEndpoint != "" {
		sc = sparql.NewClient(cfg.KG.SPARQLEndpoint, hc)
	}

	var index linking.Index
	var kg retrieval.KGRetriever
	kgLogger := logging.Component(logger, "retrieval")
	switch cfg.KG.Backend {
	case "graph":
		d, err := driver.NewBoltDriver(ctx, cfg.Graph.URI, cfg.Graph.User, cfg.Graph.Password, logger)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, d.Close)
		if err := d.BuildIndices(ctx); err != nil {
			logger.Warn("graph indices not created", zap.Error(err))
		}
		index = linking.NewGraphIndex(d)
		kg = retrieval.NewGraphRetriever(d, cfg.KG.SourceName, cfg.KG.MaxTriples, kgLogger)
	default:
		if sc == nil {
			return fail(fmt.Errorf("kg backend %q needs a SPARQL endpoint", cfg.KG.Backend))
		}
		index = linking.NewSPARQLIndex(sc)
		kg = retrieval.NewSPARQLRetriever(sc, cfg.KG.SourceName, cfg.KG.MaxTriples, kgLogger)
	}

	linkers, err := linking.NewLinkers(cfg.Linking, hc, sc, index)
	if err != nil {
		return fail(err)
	}
	resolver := linking.NewResolver(cfg.Linking, linkers, index, logging.Component(logger, "linking"))

	trust := retrieval.DefaultTrustPriors()
	if cfg.Trust.PriorsFile != "" {
		if trust, err = retrieval.LoadTrustPriors(cfg.Trust.PriorsFile); err != nil {
			return fail(err)
		}
	}
	web := retrieval.NewWebSearcher(cfg.Web, hc, trust, kgLogger)

	var cross, bi ranking.Scorer
	if cfg.Ranking.CrossEncoderEndpoint != "" {
		cross = ranking.NewCrossEncoderClient(cfg.Ranking.CrossEncoderEndpoint, hc)
	} else {
		cross = &ranking.LLMScorer{Scorer: llm.NewLLMRelevanceScorer(llmClient, cfg.Prompts.Relevance)}
	}
	if embedder != nil {
		bi = ranking.NewBiEncoder(embedder)
	}
	ranker := ranking.NewRanker(cfg.Ranking, cross, bi, logging.Component(logger, "ranking"))

	var nli verdict.Classifier
	if cfg.NLI.Endpoint != "" {
		nli = verdict.NewNLIClassifier(verdict.NewNLIService(cfg.NLI.Endpoint, hc), cfg.NLI)
	} else {
		logger.Info("no NLI endpoint configured; DEBERTA requests fall back to the LLM judge")
	}
	registry := verdict.NewRegistry(logging.Component(logger, "verdict"),
		verdict.NewLLMJudge(llmClient, cfg.Prompts.Judge, cfg.Judge.MaxPaths), nli)

	p := NewPipeline(
		extraction.NewExtractor(llmClient, cfg.Prompts.Extraction),
		resolver, kg, web, ranker, registry,
		logging.Component(logger, "pipeline"))
	p.Queries = retrieval.NewQueryBuilder(llmClient, cfg.Prompts.Paraphrase, logger)
	p.Paraphrase = cfg.Web.Paraphrase
	p.TimeSteps = cfg.Server.TimeSteps

	if cfg.Cache.Enabled {
		var c cache.Cache = cache.NewMemoryCache(cfg.Cache.TTL(), 10*time.Minute)
		if cfg.Cache.RedisAddr != "" {
			rc, err := cache.NewRedisCache(ctx, cfg.Cache, logging.Component(logger, "cache"))
			if err != nil {
				logger.Warn("shared cache unavailable, using memory only", zap.Error(err))
			} else {
				closers = append(closers, func(context.Context) error { return rc.Close() })
				c = cache.NewLayeredCache(c, rc)
			}
		}
		p.Gate = cache.NewGate(c, cfg.Cache.TTL(), logging.Component(logger, "cache"))
	}

	return p, closeAll, nil
}
