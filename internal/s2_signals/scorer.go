package s2_signals

import (
	"fmt"

	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/pkg/logger"
	"github.com/wonny/equityscore/pkg/numeric"
)

// CategoryCalculator scores one technical category
type CategoryCalculator interface {
	Calculate(s *Series) *contracts.CategoryResult
}

// TechnicalScorer runs every category calculator over one price history
// ⭐ SSOT: 기술적 종합 점수 조립은 여기서만
type TechnicalScorer struct {
	cfg         Config
	calculators []CategoryCalculator
	logger      *logger.Logger
}

// NewTechnicalScorer creates a scorer with the five category calculators
func NewTechnicalScorer(cfg Config, log *logger.Logger) *TechnicalScorer {
	return &TechnicalScorer{
		cfg: cfg,
		calculators: []CategoryCalculator{
			NewTrendCalculator(cfg.Trend, log),
			NewMomentumCalculator(cfg.Momentum, log),
			NewVolatilityCalculator(cfg.Volatility, log),
			NewStructureCalculator(cfg.Structure, log),
			NewVolumeCalculator(cfg.Volume, log),
		},
		logger: log,
	}
}

// Config returns the thresholds the scorer was built with
func (t *TechnicalScorer) Config() Config {
	return t.cfg
}

// Score normalizes raw records and scores them
func (t *TechnicalScorer) Score(records []contracts.PriceRecord) *contracts.CompositeScore {
	return t.ScoreSeries(NewSeries(contracts.NormalizePrices(records)))
}

// ScoreSeries scores an already normalized series. A panicking calculator
// yields an error score instead of propagating.
func (t *TechnicalScorer) ScoreSeries(s *Series) (score *contracts.CompositeScore) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.WithField("panic", fmt.Sprint(r)).Error("Technical scoring failed")
			score = &contracts.CompositeScore{
				Error:      true,
				Message:    fmt.Sprintf("Technical scoring failed: %v", r),
				Categories: map[string]*contracts.CategoryResult{},
			}
		}
	}()

	n := s.Len()
	if n < t.cfg.MinDataPoints {
		t.logger.WithFields(map[string]interface{}{
			"required": t.cfg.MinDataPoints,
			"got":      n,
		}).Warn("Insufficient data for technical analysis")
		return contracts.InsufficientScore(t.cfg.MinDataPoints, n)
	}

	score = &contracts.CompositeScore{
		Categories: make(map[string]*contracts.CategoryResult, len(t.calculators)),
	}

	var total, max float64
	for _, calc := range t.calculators {
		cat := calc.Calculate(s)
		score.Categories[cat.Category] = cat
		total += cat.EarnedPoints
		max += cat.MaxPoints

		t.logger.WithFields(map[string]interface{}{
			"category": cat.Category,
			"earned":   cat.EarnedPoints,
			"max":      cat.MaxPoints,
		}).Debug("Category scored")
	}

	score.TotalScore = numeric.Round(total, 2)
	score.MaxScore = max
	if max > 0 {
		score.ScorePercentage = numeric.Round(total/max*100, 1)
	}
	score.DataInfo = &contracts.DataInfo{
		TotalDays: n,
		DateRange: contracts.DateRange{
			Start: s.Dates[0],
			End:   s.Dates[n-1],
		},
		LatestPrice: numeric.Round(last(s.Close), 2),
	}

	t.logger.WithFields(map[string]interface{}{
		"total_score": score.TotalScore,
		"percentage":  score.ScorePercentage,
		"days":        n,
	}).Info("Technical score completed")

	return score
}
