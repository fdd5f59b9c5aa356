package s2_signals

import (
	"fmt"
	"math"

	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/pkg/logger"
	"github.com/wonny/equityscore/pkg/numeric"
)

// TrendCalculator scores trend strength
// ⭐ SSOT: 추세 강도 점수는 여기서만
type TrendCalculator struct {
	cfg    TrendConfig
	logger *logger.Logger
}

// NewTrendCalculator creates a new trend calculator
func NewTrendCalculator(cfg TrendConfig, log *logger.Logger) *TrendCalculator {
	return &TrendCalculator{
		cfg:    cfg,
		logger: log,
	}
}

// Calculate runs ADX, the MA system and the 52-week position
func (c *TrendCalculator) Calculate(s *Series) *contracts.CategoryResult {
	result := contracts.NewCategoryResult(contracts.CategoryTrend)
	result.Add("adx", c.ADX(s))
	result.Add("multi_ma", c.MultiMA(s))
	result.Add("price_position", c.PricePosition(s))
	return result
}

// ADX scores the Average Directional Index
func (c *TrendCalculator) ADX(s *Series) contracts.IndicatorResult {
	period := c.cfg.ADXPeriod
	n := s.Len()

	if n < period*2 {
		return contracts.Insufficient(c.cfg.ADXWeight, "Insufficient data for ADX calculation").
			With("adx", nil).With("plus_di", nil).With("minus_di", nil)
	}

	tr := trueRange(s)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		up := s.High[i] - s.High[i-1]
		down := s.Low[i-1] - s.Low[i]
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	atr := wilder(tr, period)
	plusSmooth := wilder(plusDM, period)
	minusSmooth := wilder(minusDM, period)

	plusDI := make([]float64, n)
	minusDI := make([]float64, n)
	dx := make([]float64, n)
	for i := 0; i < n; i++ {
		plusDI[i] = 100 * plusSmooth[i] / atr[i]
		minusDI[i] = 100 * minusSmooth[i] / atr[i]
		dx[i] = 100 * math.Abs(plusDI[i]-minusDI[i]) / (plusDI[i] + minusDI[i])
	}
	adxSeries := wilder(dx, period)

	adx := last(adxSeries)
	pdi := last(plusDI)
	mdi := last(minusDI)

	// 변동이 전혀 없는 시계열은 DX가 정의되지 않음
	scored := adx
	if math.IsNaN(scored) {
		scored = 0
	}

	var base float64
	strength := "No Trend/Sideways"
	matched := false
	labels := []string{"Very Strong Trend", "Strong Trend", "Trend Present", "Weak Trend"}
	for i, band := range c.cfg.ADXBands {
		if scored >= band.Min {
			base = band.Points
			if i < len(labels) {
				strength = labels[i]
			}
			matched = true
			break
		}
	}
	if !matched {
		base = numeric.Clamp(math.Trunc(scored/10), 0, c.cfg.ADXFloorCap)
	}

	var direction float64
	dirLabel := "Downtrend"
	if pdi > mdi {
		direction = c.cfg.DirectionBonus
		dirLabel = "Uptrend"
	}

	return contracts.IndicatorResult{
		Score:       base + direction,
		MaxScore:    c.cfg.ADXWeight,
		Explanation: fmt.Sprintf("ADX=%.1f (%s), +DI=%.1f, -DI=%.1f (%s)", adx, strength, pdi, mdi, dirLabel),
	}.
		With("adx", diag(adx, 2)).
		With("plus_di", diag(pdi, 2)).
		With("minus_di", diag(mdi, 2)).
		With("base_score", base).
		With("direction_score", direction)
}

// MultiMA scores the 20/50/200 moving average system
func (c *TrendCalculator) MultiMA(s *Series) contracts.IndicatorResult {
	n := s.Len()
	if n < c.cfg.MALong {
		return contracts.Insufficient(c.cfg.MultiMAWeight, "Insufficient data for MA calculation").
			With("ma20", nil).With("ma50", nil).With("ma200", nil)
	}

	maShort := sma(s.Close, c.cfg.MAShort)
	maMid := sma(s.Close, c.cfg.MAMid)
	maLong := sma(s.Close, c.cfg.MALong)

	price := last(s.Close)
	m20, m50, m200 := last(maShort), last(maMid), last(maLong)

	a := c.cfg.Arrangement
	var arrangement float64
	var arrangementLabel string
	switch {
	case price > m20 && m20 > m50 && m50 > m200:
		arrangement, arrangementLabel = a.PerfectBullish, "Perfect Bullish Alignment"
	case price > m20 && m20 > m50:
		arrangement, arrangementLabel = a.MidBullish, "Mid-term Bullish"
	case price > m20:
		arrangement, arrangementLabel = a.ShortBullish, "Short-term Bullish"
	case price < math.Min(m20, math.Min(m50, m200)):
		arrangement, arrangementLabel = a.CompleteBearish, "Complete Bearish"
	default:
		arrangement, arrangementLabel = a.Mixed, "Mixed Alignment"
	}

	lookback := c.cfg.SlopeLookback
	var slope float64
	slopeLabel := "Insufficient Data"
	if n >= lookback+c.cfg.MALong {
		shortSlope := (maShort[n-1] - maShort[n-lookback]) / float64(lookback)
		midSlope := (maMid[n-1] - maMid[n-lookback]) / float64(lookback)
		switch {
		case shortSlope > 0 && midSlope > 0:
			slope, slopeLabel = c.cfg.SlopeBothRising, "Both MAs Rising"
		case shortSlope > 0:
			slope, slopeLabel = c.cfg.SlopeShortRising, "MA20 Rising"
		default:
			slopeLabel = "MAs Flat/Falling"
		}
	}

	var cross float64
	crossLabel := "No Golden Cross"
	days := c.cfg.GoldenCrossLookback
	if n >= c.cfg.MALong+days {
		start := n - days
		for i := start + 1; i < n; i++ {
			if maShort[i] > maMid[i] && maShort[i-1] <= maMid[i-1] {
				cross = c.cfg.GoldenCrossBonus
				crossLabel = fmt.Sprintf("Recent Golden Cross (within %dd)", days)
				break
			}
		}
	}

	return contracts.IndicatorResult{
		Score:       arrangement + slope + cross,
		MaxScore:    c.cfg.MultiMAWeight,
		Explanation: fmt.Sprintf("%s, %s, %s", arrangementLabel, slopeLabel, crossLabel),
	}.
		With("ma20", diag(m20, 2)).
		With("ma50", diag(m50, 2)).
		With("ma200", diag(m200, 2)).
		With("current_price", diag(price, 2)).
		With("arrangement_score", arrangement).
		With("slope_score", slope).
		With("golden_cross_score", cross)
}

// PricePosition scores where the close sits in its 52-week range
func (c *TrendCalculator) PricePosition(s *Series) contracts.IndicatorResult {
	lookback := c.cfg.PositionLookback
	if s.Len() < lookback {
		lookback = s.Len()
	}
	if lookback < c.cfg.PositionMinBars {
		return contracts.Insufficient(c.cfg.PositionWeight, "Insufficient data for price position").
			With("position", nil)
	}

	recent := s.Tail(lookback)
	price := last(recent.Close)
	high := maxOf(recent.High)
	low := minOf(recent.Low)

	position := 0.5
	if high != low {
		position = (price - low) / (high - low)
	}

	score := scoreThreshold(position, c.cfg.PositionBands)

	var zone string
	switch {
	case position >= 0.90:
		zone = "Near Highs"
	case position >= 0.75:
		zone = "Upper Zone"
	case position >= 0.50:
		zone = "Middle Zone"
	case position >= 0.25:
		zone = "Lower Zone"
	default:
		zone = "Bottom Zone"
	}

	pct := position * 100
	return contracts.IndicatorResult{
		Score:       score,
		MaxScore:    c.cfg.PositionWeight,
		Explanation: fmt.Sprintf("52-Week Position: %.1f%% (%s)", pct, zone),
	}.
		With("position", diag(pct, 1)).
		With("current_price", diag(price, 2)).
		With("high_52w", diag(high, 2)).
		With("low_52w", diag(low, 2))
}
