package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/claimcheck/internal/config"
)

func testConfig() config.HTTPConfig {
	return config.HTTPConfig{TimeoutMs: 2000, Retries: 2, UserAgent: "claimcheck-test"}
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "claimcheck-test", r.Header.Get("User-Agent"))
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	c := New(testConfig())
	c.delay = time.Millisecond

	body, err := c.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(testConfig())
	_, err := c.Get(context.Background(), srv.URL, nil)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestStatusErrorOmitsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := New(testConfig()).Get(context.Background(), srv.URL+"/api/v1/search?api_key=SECRET-KEY-123&q=tum", nil)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, srv.URL+"/api/v1/search", se.URL)
	assert.False(t, strings.Contains(err.Error(), "SECRET-KEY-123"))
	assert.False(t, strings.Contains(err.Error(), "q=tum"))
}

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		w.Write([]byte(`{"echo":"` + in["q"] + `"}`))
	}))
	defer srv.Close()

	c := New(testConfig())
	body, err := c.PostJSON(context.Background(), srv.URL, map[string]string{"q": "hi"}, map[string]string{"Authorization": "Bearer k"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"echo":"hi"}`, string(body))
}

func TestCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(testConfig()).Get(ctx, srv.URL, nil)
	assert.Error(t, err)
}

func TestHostLimiterReusesBuckets(t *testing.T) {
	l := NewHostLimiter(0, 0)
	require.NoError(t, l.Wait(context.Background(), "https://dbpedia.org/sparql"))
	require.NoError(t, l.Wait(context.Background(), "https://dbpedia.org/other"))
	assert.Len(t, l.limiters, 1)
	assert.Same(t, l.get("dbpedia.org"), l.get("dbpedia.org"))
}
