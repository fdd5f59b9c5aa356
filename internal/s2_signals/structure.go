package s2_signals

import (
	"fmt"
	"math"

	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/pkg/logger"
)

// StructureCalculator scores support/resistance and swing structure
type StructureCalculator struct {
	cfg    StructureConfig
	logger *logger.Logger
}

// NewStructureCalculator creates a new price structure calculator
func NewStructureCalculator(cfg StructureConfig, log *logger.Logger) *StructureCalculator {
	return &StructureCalculator{
		cfg:    cfg,
		logger: log,
	}
}

// Calculate runs support/resistance and high/low structure
func (c *StructureCalculator) Calculate(s *Series) *contracts.CategoryResult {
	result := contracts.NewCategoryResult(contracts.CategoryStructure)
	result.Add("support_resistance", c.SupportResistance(s))
	result.Add("high_low_structure", c.HighLowStructure(s))
	return result
}

// SupportResistance scores the distance to the nearest pivot levels
func (c *StructureCalculator) SupportResistance(s *Series) contracts.IndicatorResult {
	if s.Len() < c.cfg.Lookback {
		return contracts.Insufficient(c.cfg.SupportResistanceWeight, "Insufficient data for S/R analysis").
			With("nearest_support", nil).With("nearest_resistance", nil)
	}

	recent := s.Tail(c.cfg.Lookback)
	price := last(recent.Close)
	highIdx, lowIdx := swingPoints(recent, c.cfg.PivotWindow)

	resistance := math.NaN()
	for _, i := range highIdx {
		if h := recent.High[i]; h > price && (math.IsNaN(resistance) || h < resistance) {
			resistance = h
		}
	}
	support := math.NaN()
	for _, i := range lowIdx {
		if l := recent.Low[i]; l < price && (math.IsNaN(support) || l > support) {
			support = l
		}
	}

	hasRes := !math.IsNaN(resistance)
	hasSup := !math.IsNaN(support)
	resDist := (resistance - price) / price * 100
	supDist := (price - support) / price * 100

	var score float64
	var expl string
	switch {
	case !hasSup && !hasRes:
		score, expl = c.cfg.Neutral, "Neutral Position (No Clear S/R)"
	case !hasSup:
		if resDist < c.cfg.NearResistancePct {
			score, expl = c.cfg.NearResistance, fmt.Sprintf("Near Resistance (%.1f%%), No Support", resDist)
		} else {
			score, expl = c.cfg.NoSupport, "At Lows, No Support"
		}
	case !hasRes:
		switch {
		case supDist > c.cfg.SafeDistancePct:
			score, expl = c.cfg.SafeZone, fmt.Sprintf("Breakout (Support %.1f%%), No Resistance", supDist)
		case supDist > c.cfg.StrongSupportPct:
			score, expl = c.cfg.StrongSupport, fmt.Sprintf("Strong Support (%.1f%%), No Resistance", supDist)
		default:
			score, expl = c.cfg.Neutral, "At Highs, No Resistance"
		}
	default:
		switch {
		case supDist > c.cfg.SafeDistancePct && resDist > c.cfg.SafeDistancePct:
			score, expl = c.cfg.SafeZone, fmt.Sprintf("Safe Zone (Supp>%.1f%%, Res>%.1f%%)", supDist, resDist)
		case supDist > c.cfg.StrongSupportPct:
			score, expl = c.cfg.StrongSupport, fmt.Sprintf("Strong Support (Supp %.1f%%, Res %.1f%%)", supDist, resDist)
		case resDist < c.cfg.NearResistancePct:
			score, expl = c.cfg.NearResistance, fmt.Sprintf("Near Resistance (Res %.1f%%, Supp %.1f%%)", resDist, supDist)
		case supDist < 0:
			score, expl = c.cfg.BrokenSupport, fmt.Sprintf("Support Broken (%.1f%%)", math.Abs(supDist))
		default:
			score, expl = c.cfg.Neutral, fmt.Sprintf("Neutral Position (Supp %.1f%%, Res %.1f%%)", supDist, resDist)
		}
	}

	return contracts.IndicatorResult{
		Score:       score,
		MaxScore:    c.cfg.SupportResistanceWeight,
		Explanation: expl,
	}.
		With("current_price", diag(price, 2)).
		With("nearest_support", diag(support, 2)).
		With("nearest_resistance", diag(resistance, 2)).
		With("support_distance_pct", diag(supDist, 2)).
		With("resistance_distance_pct", diag(resDist, 2))
}

// HighLowStructure scores the Dow-style sequence of swing highs and lows
func (c *StructureCalculator) HighLowStructure(s *Series) contracts.IndicatorResult {
	if s.Len() < c.cfg.Lookback {
		return contracts.Insufficient(c.cfg.HighLowWeight, "Insufficient data for structure analysis").
			With("pattern", nil)
	}

	recent := s.Tail(c.cfg.Lookback)
	highIdx, lowIdx := swingPoints(recent, c.cfg.PivotWindow)

	var score float64
	var pattern string
	if len(highIdx) >= 2 && len(lowIdx) >= 2 {
		// swingPoints는 인덱스 오름차순으로 반환
		h1, h2 := recent.High[highIdx[len(highIdx)-2]], recent.High[highIdx[len(highIdx)-1]]
		l1, l2 := recent.Low[lowIdx[len(lowIdx)-2]], recent.Low[lowIdx[len(lowIdx)-1]]
		higherHigh := h2 > h1
		higherLow := l2 > l1
		lowerLow := l2 < l1

		switch {
		case higherHigh && higherLow:
			if maxPullbackPct(s) < c.cfg.MaxPullbackPct {
				score, pattern = c.cfg.PerfectUptrend, "Higher Highs + Shallow Pullbacks (Perfect Uptrend)"
			} else {
				score, pattern = c.cfg.UnstableUptrend, "Higher Highs + Deep Pullbacks (Volatile Uptrend)"
			}
		case lowerLow:
			score, pattern = c.cfg.Downtrend, "Lower Lows (Downtrend)"
		default:
			score, pattern = c.cfg.Consolidation, "Consolidation (No Clear Trend)"
		}
	} else {
		recentHigh := maxOf(s.Tail(c.cfg.ShortPeriod).High)
		overallHigh := maxOf(recent.High)
		if recentHigh >= overallHigh*c.cfg.NearHighRatio {
			score, pattern = c.cfg.UnstableUptrend, "Near Highs"
		} else {
			score, pattern = c.cfg.Consolidation, "Consolidating"
		}
	}

	return contracts.IndicatorResult{
		Score:       score,
		MaxScore:    c.cfg.HighLowWeight,
		Explanation: pattern,
	}.
		With("pattern", pattern).
		With("swing_highs_count", len(highIdx)).
		With("swing_lows_count", len(lowIdx))
}

// maxPullbackPct is the deepest low below the running high over the whole
// series, in percent
func maxPullbackPct(s *Series) float64 {
	var pullback float64
	runningHigh := math.Inf(-1)
	for i := 0; i < s.Len(); i++ {
		if s.High[i] > runningHigh {
			runningHigh = s.High[i]
		}
		if i == 0 {
			continue
		}
		if p := (runningHigh - s.Low[i]) / runningHigh * 100; p > pullback {
			pullback = p
		}
	}
	return pullback
}
