package verdict

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/agenthands/claimcheck/internal/core/model"
	"github.com/agenthands/claimcheck/internal/logging"
	"github.com/agenthands/claimcheck/internal/metrics"
	"github.com/agenthands/claimcheck/internal/telemetry"
)

const (
	StrategyLLM = "LLM"
	StrategyNLI = "DEBERTA"
)

const noEvidenceReason = "No evidence was found for this claim."

// Classifier labels a claim from its evidence. Failures are *model.ClassificationError.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, claim string, evidence []model.EvidenceItem) (model.Verdict, error)
}

// Registry holds the strategies available to requests, keyed by name.
type Registry struct {
	strategies map[string]Classifier
	logger     *zap.Logger
}

func NewRegistry(logger *zap.Logger, classifiers ...Classifier) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{strategies: map[string]Classifier{}, logger: logger}
	for _, c := range classifiers {
		if c != nil {
			r.strategies[c.Name()] = c
		}
	}
	return r
}

// NormalizeStrategy upper-cases a strategy name and defaults it to LLM.
func NormalizeStrategy(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return StrategyLLM
	}
	return s
}

func ValidStrategy(s string) bool {
	s = NormalizeStrategy(s)
	return s == StrategyLLM || s == StrategyNLI
}

func alternate(s string) string {
	if s == StrategyNLI {
		return StrategyLLM
	}
	return StrategyNLI
}

// Classify runs the named strategy. Empty evidence gives NotEnoughInfo without
// calling any strategy. If the strategy fails it is retried once with the other
// one; if that fails too the verdict is NotEnoughInfo with the failure as reason.
func (r *Registry) Classify(ctx context.Context, strategy, claim string, evidence []model.EvidenceItem) (model.Verdict, []string) {
	if len(evidence) == 0 {
		return model.NewVerdict(model.NotEnoughInfo, noEvidenceReason, nil, nil), nil
	}

	strategy = NormalizeStrategy(strategy)
	v, err := r.run(ctx, strategy, claim, evidence)
	if err == nil {
		return v, nil
	}

	warnings := []string{model.Warning(err)}
	alt := alternate(strategy)
	r.logger.Warn("classifier failed, retrying with alternate strategy",
		zap.String("correlation_id", logging.CorrelationID(ctx)),
		zap.String("strategy", strategy),
		zap.String("alternate", alt),
		zap.Error(err))
	metrics.CountFallback("classifier_retry")

	v, altErr := r.run(ctx, alt, claim, evidence)
	if altErr == nil {
		return v, warnings
	}
	warnings = append(warnings, model.Warning(altErr))
	r.logger.Warn("alternate classifier failed",
		zap.String("correlation_id", logging.CorrelationID(ctx)),
		zap.String("strategy", alt),
		zap.Error(altErr))

	reason := fmt.Sprintf("Classification failed with %s and %s; no verdict could be reached.", strategy, alt)
	return model.NewVerdict(model.NotEnoughInfo, reason, evidence, nil), warnings
}

var errUnavailable = errors.New("strategy not configured")

func (r *Registry) run(ctx context.Context, strategy, claim string, evidence []model.EvidenceItem) (model.Verdict, error) {
	c, ok := r.strategies[strategy]
	if !ok {
		return model.Verdict{}, &model.ClassificationError{Strategy: strategy, Err: errUnavailable}
	}

	ctx, span := telemetry.StartSpan(ctx, "verdict", "classify",
		attribute.String("strategy", strategy),
		attribute.Int("evidence", len(evidence)))
	v, err := c.Classify(ctx, claim, evidence)
	telemetry.EndSpan(span, err)
	if err != nil {
		var ce *model.ClassificationError
		if !errors.As(err, &ce) {
			err = &model.ClassificationError{Strategy: strategy, Err: err}
		}
		return model.Verdict{}, err
	}
	return v, nil
}
