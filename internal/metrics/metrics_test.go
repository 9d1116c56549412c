package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(verdicts.WithLabelValues("Supported", "kg_only"))
	CountVerdict("Supported", "kg_only")
	assert.Equal(t, before+1, testutil.ToFloat64(verdicts.WithLabelValues("Supported", "kg_only")))

	before = testutil.ToFloat64(llmRequests.WithLabelValues("openai", "error"))
	CountLLM("openai", errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(llmRequests.WithLabelValues("openai", "error")))

	before = testutil.ToFloat64(cacheRequests.WithLabelValues("hit"))
	CountCache("hit")
	CountCache("hit")
	assert.Equal(t, before+2, testutil.ToFloat64(cacheRequests.WithLabelValues("hit")))
}

func TestHistogramsDoNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		ObserveStage("classify", time.Now().Add(-time.Second))
		ObserveEvidence("kg", 12)
		CountFallback("web")
	})
}
