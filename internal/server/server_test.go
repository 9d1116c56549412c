package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/claimcheck/internal/core"
	"github.com/agenthands/claimcheck/internal/core/model"
	"github.com/agenthands/claimcheck/internal/logging"
)

type MockVerifier struct {
	Response *core.Response
	Triple   *core.TriplesResponse
	Err      error
	Requests []core.Request
	Contexts []string
}

func (m *MockVerifier) Verify(ctx context.Context, req core.Request) (*core.Response, error) {
	m.Requests = append(m.Requests, req)
	m.Contexts = append(m.Contexts, logging.CorrelationID(ctx))
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

func (m *MockVerifier) Triples(ctx context.Context, sentence string) (*core.TriplesResponse, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Triple, nil
}

func setup(v *MockVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewServer(v, "claimcheck-test", nil).SetupRouter()
}

func post(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestVerifyDefaults(t *testing.T) {
	v := &MockVerifier{Response: &core.Response{
		Claim:               "TUM is a university in Germany",
		Label:               model.Supported,
		Evidence:            []model.EvidenceItem{},
		AllTopEvidencePaths: [][]model.EvidenceItem{},
		Mode:                core.ModeHybrid,
		RankingMethod:       "none",
	}}
	r := setup(v)

	w := post(r, "/api/verify", `{"claim": "TUM is a university in Germany"}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, v.Requests, 1)
	assert.Equal(t, core.ModeHybrid, v.Requests[0].Mode)
	assert.True(t, v.Requests[0].UseCrossEncoder)
	assert.NotEmpty(t, w.Header().Get(correlationHeader))

	body := decode(t, w)
	assert.Equal(t, "Supported", body["label"])
	assert.Equal(t, []any{}, body["all_top_evidence_paths"])
	assert.NotContains(t, body, "confidence")
	assert.NotContains(t, body, "timing_info")
}

func TestVerifyPassesOptions(t *testing.T) {
	v := &MockVerifier{Response: &core.Response{Label: model.NotEnoughInfo}}
	r := setup(v)

	w := post(r, "/api/verify", `{"claim": "x is y", "mode": "kg_only", "use_cross_encoder": false,
		"classifierDbpedia": "deberta", "classifierBackup": "LLM"}`)

	require.Equal(t, http.StatusOK, w.Code)
	req := v.Requests[0]
	assert.Equal(t, core.ModeKGOnly, req.Mode)
	assert.False(t, req.UseCrossEncoder)
	assert.Equal(t, "deberta", req.ClassifierKG)
	assert.Equal(t, "LLM", req.ClassifierBackup)
}

func TestVerifyRejectsInvalidInput(t *testing.T) {
	cases := map[string]struct {
		body string
		want string
	}{
		"missing claim":  {`{"mode": "hybrid"}`, "claim is required"},
		"blank claim":    {`{"claim": "   "}`, "claim must not be empty"},
		"bad mode":       {`{"claim": "a b", "mode": "offline"}`, "mode must be one of"},
		"bad classifier": {`{"claim": "a b", "classifierBackup": "bert"}`, "classifierBackup must be LLM or DEBERTA"},
		"not json":       {`claim=a`, "invalid request body"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			v := &MockVerifier{}
			w := post(setup(v), "/api/verify", tc.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decode(t, w)["error"], tc.want)
			assert.Empty(t, v.Requests, "no stage runs on invalid input")
		})
	}
}

func TestVerifyErrorStatus(t *testing.T) {
	upstream := errors.New("http://10.0.0.7:8890/sparql?query=SELECT returned status 503")
	cases := map[string]struct {
		err  error
		code int
		msg  string
	}{
		"extraction": {&model.ExtractionError{Reason: "unparseable model reply", Err: errors.New("Data: I cannot help")}, http.StatusUnprocessableEntity, msgNoTriple},
		"retrieval":  {&model.RetrievalError{Source: "dbpedia", Err: upstream}, http.StatusBadGateway, msgSourceDown},
		"other":      {fmt.Errorf("triple extraction model call failed: %w", upstream), http.StatusInternalServerError, msgInternalFailed},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			v := &MockVerifier{Err: tc.err}
			r := setup(v)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/verify", strings.NewReader(`{"claim": "a b c"}`))
			req.Header.Set(correlationHeader, "req-42")
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.code, w.Code)
			body := decode(t, w)
			assert.Equal(t, "req-42", body["correlation_id"])
			assert.Equal(t, tc.msg, body["error"])
			assert.NotContains(t, w.Body.String(), "10.0.0.7")
			assert.NotContains(t, w.Body.String(), "Data:")
			assert.Equal(t, []string{"req-42"}, v.Contexts)
		})
	}
}

func TestTriplesEndpoint(t *testing.T) {
	v := &MockVerifier{Triple: &core.TriplesResponse{
		Entities: []model.EntityMention{{SurfaceText: "Einstein", Type: model.EntityPerson, Span: model.Span{Start: 0, End: 8}}},
		Triples:  []model.Triple{{Subject: "Einstein", Predicate: "born_in", Object: "Ulm"}},
	}}
	r := setup(v)

	w := post(r, "/triples", `{"sentence": "Einstein was born in Ulm."}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["triples"], 1)
	assert.Len(t, body["entities"], 1)

	w = post(r, "/triples", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "sentence is required", decode(t, w)["error"])
}

func TestHealthAndMetrics(t *testing.T) {
	r := setup(&MockVerifier{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
