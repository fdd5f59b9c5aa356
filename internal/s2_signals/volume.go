package s2_signals

import (
	"fmt"
	"math"

	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/pkg/logger"
)

// VolumeCalculator scores the volume/price relationship
type VolumeCalculator struct {
	cfg    VolumeConfig
	logger *logger.Logger
}

// NewVolumeCalculator creates a new volume calculator
func NewVolumeCalculator(cfg VolumeConfig, log *logger.Logger) *VolumeCalculator {
	return &VolumeCalculator{
		cfg:    cfg,
		logger: log,
	}
}

// Calculate runs OBV and volume strength
func (c *VolumeCalculator) Calculate(s *Series) *contracts.CategoryResult {
	result := contracts.NewCategoryResult(contracts.CategoryVolume)
	result.Add("obv", c.OBV(s))
	result.Add("volume_strength", c.VolumeStrength(s))
	return result
}

// obvSeries accumulates signed volume starting at zero
func obvSeries(s *Series) []float64 {
	obv := make([]float64, s.Len())
	for i := 1; i < s.Len(); i++ {
		switch {
		case s.Close[i] > s.Close[i-1]:
			obv[i] = obv[i-1] + s.Volume[i]
		case s.Close[i] < s.Close[i-1]:
			obv[i] = obv[i-1] - s.Volume[i]
		default:
			obv[i] = obv[i-1]
		}
	}
	return obv
}

// OBV scores price/OBV alignment plus an OBV slope bonus
func (c *VolumeCalculator) OBV(s *Series) contracts.IndicatorResult {
	period := c.cfg.OBVTrendPeriod
	n := s.Len()
	if n < period+5 {
		return contracts.Insufficient(c.cfg.OBVWeight, "Insufficient data for OBV").With("obv", nil)
	}

	obv := obvSeries(s)
	recentOBV := obv[n-period:]
	recentClose := s.Close[n-period:]
	first, latest := recentOBV[0], last(recentOBV)

	slope := (latest - first) / float64(period)
	normalized := 0.0
	if avg := mean(recentOBV); avg != 0 {
		normalized = slope / math.Abs(avg)
	}

	priceRising := last(recentClose) > recentClose[0]
	obvRising := latest > first

	var alignment float64
	var alignmentLabel string
	switch {
	case obvRising && priceRising:
		alignment, alignmentLabel = c.cfg.OBVBothRising, "Price & Vol Rising (Best)"
	case priceRising:
		change := 0.0
		if first != 0 {
			change = math.Abs(latest-first) / math.Abs(first)
		}
		if change < c.cfg.OBVFlatPct {
			alignment, alignmentLabel = c.cfg.OBVPriceUpFlat, "Price Up/Vol Flat (Caution)"
		} else {
			alignment, alignmentLabel = c.cfg.OBVDivergence, "Divergence (Risk)"
		}
	default:
		alignmentLabel = "Price Falling"
	}

	var trend float64
	trendLabel := "OBV Neutral/Weak"
	if normalized > c.cfg.OBVTrendThreshold {
		trend, trendLabel = c.cfg.OBVTrendBonus, "OBV Strong Uptrend"
	}

	return contracts.IndicatorResult{
		Score:       alignment + trend,
		MaxScore:    c.cfg.OBVWeight,
		Explanation: fmt.Sprintf("%s, %s", alignmentLabel, trendLabel),
	}.
		With("obv", int64(latest)).
		With("obv_slope", diag(normalized, 6)).
		With("alignment_score", alignment).
		With("trend_score", trend)
}

// VolumeStrength scores today's volume against its moving average
func (c *VolumeCalculator) VolumeStrength(s *Series) contracts.IndicatorResult {
	period := c.cfg.AvgPeriod
	n := s.Len()
	if n < period+1 {
		return contracts.Insufficient(c.cfg.StrengthWeight, "Insufficient data for volume analysis").
			With("volume_ratio", nil)
	}

	current := s.Volume[n-1]
	avg := last(sma(s.Volume, period))
	ratio := 1.0
	if avg != 0 {
		ratio = current / avg
	}

	ratioScore := scoreThreshold(ratio, c.cfg.RatioBands)
	var ratioLabel string
	switch {
	case ratio >= 2.0:
		ratioLabel = "High Volume"
	case ratio >= 1.5:
		ratioLabel = "Moderate High Volume"
	case ratio >= 1.0:
		ratioLabel = "Normal"
	case ratio >= 0.5:
		ratioLabel = "Low Volume"
	default:
		ratioLabel = "Extremely Low Volume"
	}

	priceUp := s.Close[n-1] > s.Close[n-2]
	highVol := ratio >= c.cfg.HighVolumeRatio

	var alignment float64
	var alignmentLabel string
	switch {
	case highVol && priceUp:
		alignment, alignmentLabel = c.cfg.HighVolPriceUp, "High Vol Uptrend (Best)"
	case priceUp:
		alignment, alignmentLabel = c.cfg.LowVolPriceUp, "Low Vol Uptrend (Normal)"
	case highVol:
		alignmentLabel = "High Vol Downtrend (Panic)"
	default:
		alignmentLabel = "Low Vol Downtrend"
	}

	return contracts.IndicatorResult{
		Score:       ratioScore + alignment,
		MaxScore:    c.cfg.StrengthWeight,
		Explanation: fmt.Sprintf("Vol Ratio=%.2f (%s), %s", ratio, ratioLabel, alignmentLabel),
	}.
		With("volume_ratio", diag(ratio, 2)).
		With("current_volume", int64(current)).
		With("avg_volume", int64(avg)).
		With("ratio_score", ratioScore).
		With("alignment_score", alignment)
}
