package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/equityscore/internal/api/handlers"
	"github.com/wonny/equityscore/internal/brain"
	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/internal/metrics"
	"github.com/wonny/equityscore/internal/s0_data"
	"github.com/wonny/equityscore/internal/s0_data/quality"
	"github.com/wonny/equityscore/internal/s1_fundamentals"
	"github.com/wonny/equityscore/internal/s2_signals"
	"github.com/wonny/equityscore/internal/s3_valuation"
	"github.com/wonny/equityscore/pkg/config"
	"github.com/wonny/equityscore/pkg/logger"
	"github.com/wonny/equityscore/pkg/redis"
)

func f(v float64) contracts.Field { return contracts.NewField(v) }

func stock(symbol string, n int) *contracts.StockData {
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	prices := make([]contracts.PriceRecord, n)
	for i := range prices {
		ts := contracts.Timestamp{Time: start.AddDate(0, 0, i)}
		c := 100 + float64(i)*0.5
		prices[i] = contracts.PriceRecord{
			Date: &ts, Open: f(c), High: f(c + 1), Low: f(c - 1), Close: f(c), Volume: f(1e6),
		}
	}
	return &contracts.StockData{
		Symbol:       symbol,
		Profile:      &contracts.CompanyProfile{Sector: contracts.NewTextField("Technology")},
		PriceHistory: prices,
		IncomeStatements: []contracts.IncomeStatement{
			{Period: "2025-09-30", PeriodType: contracts.PeriodFY, EPSDiluted: f(5), Revenue: f(1e9)},
		},
		AnalystTargets: &contracts.AnalystTargets{PriceTargetConsensus: f(300)},
	}
}

type testServer struct {
	handler http.Handler
	metrics *metrics.Registry
}

func newTestServer(t *testing.T, limiter Limiter) *testServer {
	t.Helper()
	log := logger.Nop()

	store := s0_data.NewSnapshotStore(t.TempDir(), log)
	_, err := store.Save(stock("AAPL", 300), time.Date(2026, 1, 17, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	bench := &s3_valuation.Benchmark{Sectors: map[string]s3_valuation.SectorBenchmark{
		"Technology": {Metrics: s3_valuation.SectorMetrics{
			ValuationMultiples: s3_valuation.Multiples{PECurrent: f(25), PEForward: f(20)},
		}},
	}}
	valCfg := s3_valuation.DefaultConfig()
	validator := quality.NewValidator(log)
	scorer := s2_signals.NewTechnicalScorer(s2_signals.DefaultConfig(), log)
	calculator := s3_valuation.NewCalculator(valCfg, bench, log)

	reg := metrics.New()
	orch := brain.NewOrchestrator(validator, scorer, calculator, 6, log).
		WithFundamentals(s1_fundamentals.NewScorer(s1_fundamentals.DefaultConfig(), calculator, log)).
		WithMetrics(reg)

	rc, err := redis.New(&config.Config{})
	require.NoError(t, err)
	cache := redis.NewCache(rc, "test")

	return &testServer{
		handler: NewRouter(RouterDeps{
			Scoring: handlers.NewScoringHandler(scorer, validator, calculator, 6, log),
			Stocks:  handlers.NewStockHandler(store, orch, cache, "abc123", reg, log),
			Sectors: handlers.NewSectorHandler(valCfg, "default", "abc123"),
			Metrics: reg,
			Limiter: limiter,
			Logger:  log,
		}),
		metrics: reg,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, "GET", "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
}

func TestStocks(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("list", func(t *testing.T) {
		rec := s.do(t, "GET", "/api/stocks", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, []interface{}{"AAPL"}, body["symbols"])
		assert.EqualValues(t, 1, body["count"])
	})

	t.Run("technical", func(t *testing.T) {
		rec := s.do(t, "GET", "/api/stocks/aapl/technical", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
		body := decodeBody(t, rec)
		assert.Equal(t, false, body["error"])
		assert.EqualValues(t, 100, body["max_score"])
	})

	t.Run("valuation", func(t *testing.T) {
		rec := s.do(t, "GET", "/api/stocks/AAPL/valuation", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "AAPL", body["ticker"])
		assert.Contains(t, body, "method_results")
	})

	t.Run("fundamentals", func(t *testing.T) {
		rec := s.do(t, "GET", "/api/stocks/AAPL/fundamentals", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decodeBody(t, rec)
		assert.Equal(t, "AAPL", body["company"])
		assert.Equal(t, "Technology", body["normalized_sector"])
		assert.EqualValues(t, 100, body["max_score"])
		assert.Contains(t, body["category_scores"], "capital_allocation")
	})

	t.Run("analysis", func(t *testing.T) {
		rec := s.do(t, "GET", "/api/stocks/AAPL/analysis", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Len(t, body["completed_stages"], 4)
	})

	t.Run("unknown symbol", func(t *testing.T) {
		rec := s.do(t, "GET", "/api/stocks/ZZZZ/technical", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "No snapshot for symbol ZZZZ", decodeBody(t, rec)["error"])
	})

	route := "/api/stocks/{symbol}/technical"
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.HTTPRequests.WithLabelValues("GET", route, "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.HTTPRequests.WithLabelValues("GET", route, "404")))
}

func TestScoreTechnical(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("scores posted history", func(t *testing.T) {
		rec := s.do(t, "POST", "/api/technical/score", handlers.TechnicalRequest{
			Symbol:       "MSFT",
			PriceHistory: stock("MSFT", 260).PriceHistory,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, false, body["error"])
		info := body["data_info"].(map[string]interface{})
		assert.EqualValues(t, 260, info["total_days"])
	})

	t.Run("short history is a structured error", func(t *testing.T) {
		rec := s.do(t, "POST", "/api/technical/score", handlers.TechnicalRequest{
			PriceHistory: stock("MSFT", 30).PriceHistory,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["error"])
		assert.Contains(t, body["message"], "got 30")
	})

	t.Run("empty body", func(t *testing.T) {
		rec := s.do(t, "POST", "/api/technical/score", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "request body is empty", decodeBody(t, rec)["error"])
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := s.do(t, "GET", "/api/technical/score", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestValidate(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, "POST", "/api/validation?expected_years=2", stock("KO", 5))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "KO", body["symbol"])
	assert.Contains(t, body, "missing_fields")

	rec = s.do(t, "POST", "/api/validation?expected_years=0", stock("KO", 5))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValue(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("report", func(t *testing.T) {
		rec := s.do(t, "POST", "/api/valuation", stock("AAPL", 5))
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "AAPL", body["ticker"])
		assert.NotContains(t, body, "error")
	})

	t.Run("missing price stays a 200 report", func(t *testing.T) {
		data := stock("AAPL", 0)
		rec := s.do(t, "POST", "/api/valuation", data)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, decodeBody(t, rec)["error"])
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/valuation", bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSectors(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, "GET", "/api/sectors", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Sectors []handlers.SectorInfo `json:"sectors"`
		Aliases map[string]string     `json:"aliases"`
		Hash    string                `json:"config_hash"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Sectors)
	assert.Equal(t, "abc123", body.Hash)
	for i := 1; i < len(body.Sectors); i++ {
		assert.Less(t, body.Sectors[i-1].Name, body.Sectors[i].Name)
	}
	for _, sec := range body.Sectors {
		assert.Positive(t, sec.ModelsAvailable, sec.Name)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(t, "GET", "/api/stocks/AAPL/technical", nil)

	rec := s.do(t, "GET", "/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "equityscore_runs_total")
	assert.Contains(t, rec.Body.String(), "equityscore_http_requests_total")
}

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (l *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allow, l.err
}

func TestRateLimit(t *testing.T) {
	t.Run("rejects over budget", func(t *testing.T) {
		lim := &stubLimiter{allow: false}
		s := newTestServer(t, lim)

		rec := s.do(t, "GET", "/api/stocks", nil)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("Retry-After"))

		// health and metrics are never limited
		assert.Equal(t, http.StatusOK, s.do(t, "GET", "/health", nil).Code)
		assert.Equal(t, http.StatusOK, s.do(t, "GET", "/metrics", nil).Code)
		assert.Len(t, lim.keys, 1)
	})

	t.Run("limiter errors fail open", func(t *testing.T) {
		s := newTestServer(t, &stubLimiter{err: errors.New("redis down")})
		assert.Equal(t, http.StatusOK, s.do(t, "GET", "/api/stocks", nil).Code)
	})
}

func TestLocalLimiter(t *testing.T) {
	lim := NewLocalLimiter(1, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := lim.Allow(ctx, "a")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := lim.Allow(ctx, "a")
	assert.False(t, ok, "burst exhausted")

	ok, _ = lim.Allow(ctx, "b")
	assert.True(t, ok, "buckets are per client")
}

func TestRedisLimiter_DisabledAllows(t *testing.T) {
	rc, err := redis.New(&config.Config{})
	require.NoError(t, err)
	lim := NewRedisLimiter(redis.NewRateLimiter(rc, "test"), 5)

	ok, err := lim.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	assert.Equal(t, "192.0.2.7", clientKey(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientKey(req))
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}

func TestServerAddr(t *testing.T) {
	cfg := &config.Config{Port: "8089", API: config.APIConfig{Host: "127.0.0.1"}}
	srv := New(cfg, logger.Nop(), http.NewServeMux())
	assert.Equal(t, "127.0.0.1:8089", srv.Addr())
}
