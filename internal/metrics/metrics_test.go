package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCounters(t *testing.T) {
	r := New()

	r.ObserveRun(true)
	r.ObserveRun(true)
	r.ObserveRun(false)
	r.ObserveModel("dcf", "success")
	r.ObserveCache("technical", true)
	r.ObserveCache("technical", false)
	r.ObserveHTTP(http.MethodGet, "/health", 200, 5*time.Millisecond)
	r.ObserveStage("S2:Technical", "success", 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Runs.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Runs.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ModelOutcomes.WithLabelValues("dcf", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.CacheLookups.WithLabelValues("technical", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.HTTPRequests.WithLabelValues("GET", "/health", "200")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := New()
	r.ObserveRun(true)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `equityscore_runs_total{status="success"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}

func TestNilRegistryIsNoop(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.ObserveRun(true)
		r.ObserveModel("pe", "failed")
		r.ObserveCache("valuation", true)
		r.ObserveHTTP("GET", "/", 200, time.Millisecond)
		r.ObserveStage("S0:Validation", "success", time.Millisecond)
	})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
