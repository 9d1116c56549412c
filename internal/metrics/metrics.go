package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	stageLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "claimcheck_stage_latency_seconds",
		Help:    "Latency of pipeline stages",
		Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 5, 10, 30},
	}, []string{"stage"})

	verdicts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "claimcheck_verdicts_total",
		Help: "Verdicts produced, by label and mode",
	}, []string{"label", "mode"})

	fallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "claimcheck_fallbacks_total",
		Help: "Fallback paths taken (fuzzy resolution, web retrieval, ranker, classifier retry)",
	}, []string{"kind"})

	cacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "claimcheck_cache_requests_total",
		Help: "Verdict cache lookups by result (hit, miss, shared, abandoned)",
	}, []string{"result"})

	evidenceItems = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "claimcheck_evidence_items",
		Help:    "Number of evidence items returned by a retriever",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	}, []string{"source"})

	llmRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "claimcheck_llm_requests_total",
		Help: "Generative model calls by provider and outcome",
	}, []string{"provider", "outcome"})
)

func ensureRegistered() {
	once.Do(func() {
		prometheus.MustRegister(stageLatency, verdicts, fallbacks, cacheRequests, evidenceItems, llmRequests)
	})
}

// ObserveStage records how long a pipeline stage took.
func ObserveStage(stage string, start time.Time) {
	ensureRegistered()
	stageLatency.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func CountVerdict(label, mode string) {
	ensureRegistered()
	verdicts.WithLabelValues(label, mode).Inc()
}

func CountFallback(kind string) {
	ensureRegistered()
	fallbacks.WithLabelValues(kind).Inc()
}

func CountCache(result string) {
	ensureRegistered()
	cacheRequests.WithLabelValues(result).Inc()
}

func ObserveEvidence(source string, n int) {
	ensureRegistered()
	evidenceItems.WithLabelValues(source).Observe(float64(n))
}

func CountLLM(provider string, err error) {
	ensureRegistered()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	llmRequests.WithLabelValues(provider, outcome).Inc()
}
