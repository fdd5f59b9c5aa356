package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every Prometheus metric of the service.
// A nil *Registry is valid and records nothing.
// ⭐ SSOT: 메트릭 정의는 여기서만
type Registry struct {
	reg *prometheus.Registry

	// Pipeline
	StageDuration *prometheus.HistogramVec
	Runs          *prometheus.CounterVec
	ModelOutcomes *prometheus.CounterVec

	// HTTP
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Cache
	CacheLookups *prometheus.CounterVec
}

// New creates a registry with process and Go runtime collectors
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "equityscore_stage_duration_seconds",
				Help:    "Duration of each pipeline stage in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"stage", "result"},
		),

		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equityscore_runs_total",
				Help: "Total number of symbol analysis runs by status",
			},
			[]string{"status"},
		),

		ModelOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equityscore_valuation_models_total",
				Help: "Valuation model outcomes by model and status",
			},
			[]string{"model", "status"},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equityscore_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),

		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "equityscore_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equityscore_cache_lookups_total",
				Help: "Report cache lookups by kind and result",
			},
			[]string{"kind", "result"},
		),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.StageDuration,
		r.Runs,
		r.ModelOutcomes,
		r.HTTPRequests,
		r.HTTPDuration,
		r.CacheLookups,
	)

	return r
}

// Handler serves the registry in the Prometheus text format
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry (tests)
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.reg
}

// ObserveStage records one stage execution
func (r *Registry) ObserveStage(stage, result string, d time.Duration) {
	if r == nil {
		return
	}
	r.StageDuration.WithLabelValues(stage, result).Observe(d.Seconds())
}

// ObserveRun counts a finished run
func (r *Registry) ObserveRun(success bool) {
	if r == nil {
		return
	}
	status := "success"
	if !success {
		status = "failed"
	}
	r.Runs.WithLabelValues(status).Inc()
}

// ObserveModel counts one valuation model outcome
func (r *Registry) ObserveModel(model, status string) {
	if r == nil {
		return
	}
	r.ModelOutcomes.WithLabelValues(model, status).Inc()
}

// ObserveHTTP records one served request
func (r *Registry) ObserveHTTP(method, route string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveCache counts a cache hit or miss
func (r *Registry) ObserveCache(kind string, hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.CacheLookups.WithLabelValues(kind, result).Inc()
}
