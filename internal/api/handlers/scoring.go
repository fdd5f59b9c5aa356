package handlers

import (
	"net/http"

	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/internal/s0_data/quality"
	"github.com/wonny/equityscore/internal/s2_signals"
	"github.com/wonny/equityscore/internal/s3_valuation"
	"github.com/wonny/equityscore/pkg/logger"
)

// ScoringHandler runs the engines over request-supplied data
// ⭐ SSOT: 요청 본문 기반 점수 API는 이 구조체에서만
type ScoringHandler struct {
	scorer        *s2_signals.TechnicalScorer
	validator     *quality.Validator
	calculator    *s3_valuation.Calculator
	expectedYears int
	logger        *logger.Logger
}

// NewScoringHandler creates a new scoring handler
func NewScoringHandler(
	scorer *s2_signals.TechnicalScorer,
	validator *quality.Validator,
	calculator *s3_valuation.Calculator,
	expectedYears int,
	log *logger.Logger,
) *ScoringHandler {
	return &ScoringHandler{
		scorer:        scorer,
		validator:     validator,
		calculator:    calculator,
		expectedYears: expectedYears,
		logger:        log,
	}
}

// TechnicalRequest is the body of POST /api/technical/score
type TechnicalRequest struct {
	Symbol       string                  `json:"symbol,omitempty"`
	PriceHistory []contracts.PriceRecord `json:"price_history"`
}

// ValidationResponse adds the missing-field union to the validation result
type ValidationResponse struct {
	*contracts.OverallValidationResult
	MissingFields contracts.MissingFieldsSummary `json:"missing_fields"`
}

// ScoreTechnical scores a posted price history
// POST /api/technical/score
func (h *ScoringHandler) ScoreTechnical(w http.ResponseWriter, r *http.Request) {
	var req TechnicalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	score := h.scorer.Score(req.PriceHistory)

	h.logger.WithFields(map[string]interface{}{
		"symbol": req.Symbol,
		"bars":   len(req.PriceHistory),
		"total":  score.TotalScore,
	}).Debug("Technical score served")

	respondJSON(w, http.StatusOK, score)
}

// Validate checks field completeness of a posted snapshot
// POST /api/validation?expected_years=6
func (h *ScoringHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var data contracts.StockData
	if err := decodeJSON(w, r, &data); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	years := h.expectedYears
	if v := r.URL.Query().Get("expected_years"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "expected_years must be a positive integer")
			return
		}
		years = n
	}

	result := h.validator.ValidateStock(&data, years)
	respondJSON(w, http.StatusOK, ValidationResponse{
		OverallValidationResult: result,
		MissingFields:           quality.MissingFields(result),
	})
}

// Value runs the valuation engine over a posted snapshot.
// Data problems come back as a report with an error field, not as HTTP errors.
// POST /api/valuation
func (h *ScoringHandler) Value(w http.ResponseWriter, r *http.Request) {
	var data contracts.StockData
	if err := decodeJSON(w, r, &data); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, h.calculator.Calculate(&data))
}
