package s2_signals

import (
	"fmt"
	"math"

	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/pkg/logger"
)

// VolatilityCalculator scores volatility regime
type VolatilityCalculator struct {
	cfg    VolatilityConfig
	logger *logger.Logger
}

// NewVolatilityCalculator creates a new volatility calculator
func NewVolatilityCalculator(cfg VolatilityConfig, log *logger.Logger) *VolatilityCalculator {
	return &VolatilityCalculator{
		cfg:    cfg,
		logger: log,
	}
}

// Calculate runs ATR and Bollinger Bands
func (c *VolatilityCalculator) Calculate(s *Series) *contracts.CategoryResult {
	result := contracts.NewCategoryResult(contracts.CategoryVolatility)
	result.Add("atr", c.ATR(s))
	result.Add("bollinger", c.Bollinger(s))
	return result
}

// ATR scores the ATR percentage level and its recent direction
func (c *VolatilityCalculator) ATR(s *Series) contracts.IndicatorResult {
	n := s.Len()
	lookback := c.cfg.ATRTrendLookback
	if n < c.cfg.ATRPeriod+lookback {
		return contracts.Insufficient(c.cfg.ATRWeight, "Insufficient data for ATR").
			With("atr", nil).With("atr_pct", nil)
	}

	atr := wilder(trueRange(s), c.cfg.ATRPeriod)
	cur := atr[n-1]
	price := s.Close[n-1]
	atrPct := cur / price * 100

	level := scoreRange(atrPct, c.cfg.ATRLevels)
	var levelLabel string
	switch {
	case atrPct >= 1.5 && atrPct <= 3.0:
		levelLabel = "Ideal Volatility"
	case atrPct > 3.0 && atrPct <= 4.0:
		levelLabel = "High Volatility"
	case atrPct >= 1.0 && atrPct < 1.5:
		levelLabel = "Low Volatility"
	case atrPct > 4.0 && atrPct <= 6.0:
		levelLabel = "Very High Volatility"
	default:
		levelLabel = "Extreme Volatility"
	}

	prevATR := atr[n-lookback]
	atrChange := cur - prevATR
	priceChange := price - s.Close[n-lookback]

	// 기준 ATR이 0이면 안정 여부를 판단할 수 없음
	stable := prevATR != 0 && math.Abs(atrChange/prevATR) < c.cfg.ATRStableThreshold

	var trend float64
	var trendLabel string
	switch {
	case atrChange < 0 && priceChange > 0:
		trend, trendLabel = c.cfg.ATRFallingPriceUp, "Vol Contracting + Price Rising (Healthy)"
	case stable:
		trend, trendLabel = c.cfg.ATRStable, "Volatility Stable"
	case atrChange > 0 && priceChange < 0:
		trend, trendLabel = c.cfg.ATRRisingPriceDown, "Panic Selling"
	default:
		trend, trendLabel = c.cfg.ATRStable, "Volatility Normal"
	}

	return contracts.IndicatorResult{
		Score:       level + trend,
		MaxScore:    c.cfg.ATRWeight,
		Explanation: fmt.Sprintf("ATR%%=%.2f%% (%s), %s", atrPct, levelLabel, trendLabel),
	}.
		With("atr", diag(cur, 4)).
		With("atr_pct", diag(atrPct, 2)).
		With("level_score", level).
		With("trend_score", trend)
}

// Bollinger scores the band position and bandwidth percentile
func (c *VolatilityCalculator) Bollinger(s *Series) contracts.IndicatorResult {
	n := s.Len()
	period := c.cfg.BollingerPeriod
	if n < period {
		return contracts.Insufficient(c.cfg.BollingerWeight, "Insufficient data for Bollinger Bands").
			With("upper", nil).With("middle", nil).With("lower", nil)
	}

	mid := sma(s.Close, period)
	std := rollingStd(s.Close, period)
	bandwidth := make([]float64, n)
	upperBand := make([]float64, n)
	lowerBand := make([]float64, n)
	for i := range bandwidth {
		upperBand[i] = mid[i] + c.cfg.BollingerStdDev*std[i]
		lowerBand[i] = mid[i] - c.cfg.BollingerStdDev*std[i]
		bandwidth[i] = (upperBand[i] - lowerBand[i]) / mid[i]
	}

	price := s.Close[n-1]
	upper, middle, lower := upperBand[n-1], mid[n-1], lowerBand[n-1]
	bw := bandwidth[n-1]
	expanding := n >= 2 && bw > bandwidth[n-2]

	var position float64
	var positionLabel string
	switch {
	case price > upper:
		if expanding {
			position, positionLabel = c.cfg.BreakUpperExpand, "Break Upper + Band Expanding (Strong)"
		} else {
			position, positionLabel = c.cfg.NearUpper, "Break Upper"
		}
	case price >= middle+(upper-middle)*0.5:
		position, positionLabel = c.cfg.NearUpper, "Near Upper (Strong)"
	case price >= middle-(middle-lower)*0.5:
		position, positionLabel = c.cfg.Mid, "Near Middle (Neutral)"
	case price >= lower:
		position, positionLabel = c.cfg.NearLower, "Near Lower (Weak)"
	default:
		position, positionLabel = c.cfg.BreakLower, "Break Lower (Oversold)"
	}

	window := c.cfg.PercentileWindow
	if n < window {
		window = n
	}

	var bwScore float64
	var bwLabel string
	if window >= c.cfg.PercentileMinBars {
		recent := bandwidth[n-window:]
		below := 0
		for _, v := range recent {
			if v < bw {
				below++
			}
		}
		pct := float64(below) / float64(len(recent))
		switch {
		case pct >= 0.2 && pct <= 0.8:
			bwScore, bwLabel = c.cfg.BandwidthNormal, "Bandwidth Normal"
		case pct > 0.8:
			bwScore, bwLabel = c.cfg.BandwidthExpand, "Bandwidth Expanding (Volatile)"
		default:
			bwScore, bwLabel = c.cfg.BandwidthSqueeze, "Bandwidth Squeeze (Breakout Pending)"
		}
	} else {
		bwScore, bwLabel = c.cfg.BandwidthNormal, "Insufficient Bandwidth History"
	}

	return contracts.IndicatorResult{
		Score:       position + bwScore,
		MaxScore:    c.cfg.BollingerWeight,
		Explanation: fmt.Sprintf("%s, %s", positionLabel, bwLabel),
	}.
		With("upper", diag(upper, 2)).
		With("middle", diag(middle, 2)).
		With("lower", diag(lower, 2)).
		With("current_price", diag(price, 2)).
		With("bandwidth", diag(bw, 4)).
		With("position_score", position).
		With("bandwidth_score", bwScore)
}
