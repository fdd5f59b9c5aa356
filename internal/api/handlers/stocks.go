package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/equityscore/internal/brain"
	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/internal/metrics"
	"github.com/wonny/equityscore/internal/s0_data"
	"github.com/wonny/equityscore/pkg/logger"
	"github.com/wonny/equityscore/pkg/redis"
)

// StockHandler serves reports computed from the latest snapshot of a symbol
// ⭐ SSOT: 종목별 리포트 API 핸들러는 이 구조체에서만
type StockHandler struct {
	source     contracts.SnapshotSource
	orch       *brain.Orchestrator
	cache      *redis.Cache
	configHash string
	ttl        time.Duration
	metrics    *metrics.Registry
	logger     *logger.Logger
}

// NewStockHandler creates a new stock handler.
// cache may be disabled; configHash separates cached reports per scoring config.
func NewStockHandler(
	source contracts.SnapshotSource,
	orch *brain.Orchestrator,
	cache *redis.Cache,
	configHash string,
	m *metrics.Registry,
	log *logger.Logger,
) *StockHandler {
	return &StockHandler{
		source:     source,
		orch:       orch,
		cache:      cache,
		configHash: configHash,
		ttl:        redis.TTLMedium,
		metrics:    m,
		logger:     log,
	}
}

// WithTTL sets how long computed reports stay cached
func (h *StockHandler) WithTTL(ttl time.Duration) *StockHandler {
	if ttl > 0 {
		h.ttl = ttl
	}
	return h
}

// ListStocks returns the symbols that have a snapshot
// GET /api/stocks
func (h *StockHandler) ListStocks(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.source.ListSymbols()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list snapshots")
		respondError(w, http.StatusInternalServerError, "Failed to list snapshots")
		return
	}
	if symbols == nil {
		symbols = []string{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbols": symbols,
		"count":   len(symbols),
	})
}

// GetFundamentals returns the financial score of a symbol
// GET /api/stocks/{symbol}/fundamentals
func (h *StockHandler) GetFundamentals(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "fundamentals", redis.FundamentalsKey, []brain.Stage{brain.StageFundamentals},
		func(res *brain.RunResult) interface{} {
			if res.Fundamentals == nil {
				return nil
			}
			return res.Fundamentals
		})
}

// GetTechnical returns the technical score of a symbol
// GET /api/stocks/{symbol}/technical
func (h *StockHandler) GetTechnical(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "technical", redis.TechnicalKey, []brain.Stage{brain.StageTechnical},
		func(res *brain.RunResult) interface{} { return res.Technical })
}

// GetValuation returns the valuation report of a symbol
// GET /api/stocks/{symbol}/valuation
func (h *StockHandler) GetValuation(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "valuation", redis.ValuationKey, []brain.Stage{brain.StageValuation},
		func(res *brain.RunResult) interface{} { return res.Valuation })
}

// GetAnalysis returns the full pipeline result of a symbol
// GET /api/stocks/{symbol}/analysis
func (h *StockHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "analysis", redis.AnalysisKey, nil,
		func(res *brain.RunResult) interface{} { return res })
}

func (h *StockHandler) serve(
	w http.ResponseWriter,
	r *http.Request,
	kind string,
	keyFn func(symbol, configHash string) string,
	stages []brain.Stage,
	pick func(*brain.RunResult) interface{},
) {
	ctx := r.Context()
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	key := keyFn(symbol, h.configHash)

	// Try cache first
	if h.cache.Enabled() {
		var cached json.RawMessage
		found, err := h.cache.Get(ctx, key, &cached)
		if err != nil {
			h.logger.WithError(err).WithField("key", key).Warn("Cache read failed")
		}
		h.metrics.ObserveCache(kind, found)
		if found {
			w.Header().Set("X-Cache", "HIT")
			respondRaw(w, http.StatusOK, cached)
			return
		}
	}

	data, path, err := h.source.LoadLatest(symbol)
	if err != nil {
		if errors.Is(err, s0_data.ErrSnapshotNotFound) {
			respondError(w, http.StatusNotFound, "No snapshot for symbol "+symbol)
			return
		}
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to load snapshot")
		respondError(w, http.StatusInternalServerError, "Failed to load snapshot")
		return
	}

	result := h.orch.Run(ctx, brain.RunConfig{SourceFile: path, Stages: stages}, data)
	if !result.Success {
		h.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"run_id": result.RunID,
			"error":  result.Error,
		}).Error("Analysis run failed")
		respondError(w, http.StatusInternalServerError, result.Error)
		return
	}

	payload := pick(result)
	if payload == nil {
		respondError(w, http.StatusNotImplemented, kind+" scoring is not configured")
		return
	}
	if h.cache.Enabled() {
		if err := h.cache.Set(ctx, key, payload, h.ttl); err != nil {
			h.logger.WithError(err).WithField("key", key).Warn("Cache write failed")
		}
	}

	w.Header().Set("X-Cache", "MISS")
	respondJSON(w, http.StatusOK, payload)
}
