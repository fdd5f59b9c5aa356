package s2_signals

import (
	"fmt"
	"math"

	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/pkg/logger"
)

// MomentumCalculator scores momentum indicators
// ⭐ SSOT: 모멘텀 점수는 여기서만
type MomentumCalculator struct {
	cfg    MomentumConfig
	logger *logger.Logger
}

// NewMomentumCalculator creates a new momentum calculator
func NewMomentumCalculator(cfg MomentumConfig, log *logger.Logger) *MomentumCalculator {
	return &MomentumCalculator{
		cfg:    cfg,
		logger: log,
	}
}

// Calculate runs RSI, MACD and ROC
func (c *MomentumCalculator) Calculate(s *Series) *contracts.CategoryResult {
	result := contracts.NewCategoryResult(contracts.CategoryMomentum)
	result.Add("rsi", c.RSI(s))
	result.Add("macd", c.MACD(s))
	result.Add("roc", c.ROC(s))
	return result
}

// rsiSeries computes Wilder RSI; a zero average loss gives 100
func rsiSeries(closes []float64, period int) []float64 {
	n := len(closes)
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else if change < 0 {
			losses[i] = -change
		}
	}

	avgGain := wilder(gains, period)
	avgLoss := wilder(losses, period)

	rsi := make([]float64, n)
	for i := range rsi {
		if avgLoss[i] == 0 {
			rsi[i] = 100
			continue
		}
		rs := avgGain[i] / avgLoss[i]
		rsi[i] = 100 - 100/(1+rs)
	}
	return rsi
}

// RSI scores the Relative Strength Index with a top-divergence check
func (c *MomentumCalculator) RSI(s *Series) contracts.IndicatorResult {
	period := c.cfg.RSIPeriod
	if s.Len() < period+1 {
		return contracts.Insufficient(c.cfg.RSIWeight, "Insufficient data for RSI").With("rsi", nil)
	}

	rsi := rsiSeries(s.Close, period)
	latest := last(rsi)
	base := scoreRange(latest, c.cfg.RSIBands)

	var zone string
	switch {
	case latest >= 55 && latest <= 70:
		zone = "Strong (Not Overbought)"
	case latest > 70 && latest <= 80:
		zone = "Overbought (Strong)"
	case latest >= 50 && latest < 55:
		zone = "Neutral-Bullish"
	case latest >= 40 && latest < 50:
		zone = "Neutral-Bearish"
	case latest >= 30 && latest < 40:
		zone = "Weak"
	case latest < 30:
		zone = "Oversold"
	default:
		zone = "Extremely Overbought"
	}

	divergence := c.cfg.DivergenceBonus
	divergenceLabel := "No Divergence"
	lookback := c.cfg.DivergenceLookback
	if s.Len() >= lookback {
		closes := s.Close[s.Len()-lookback:]
		recentRSI := rsi[len(rsi)-lookback:]
		pricePeak := argmax(closes)
		rsiPeak := argmax(recentRSI)

		// 가격 고점이 RSI 고점보다 뒤에 나오고 RSI는 낮아진 경우
		if pricePeak > rsiPeak && rsiPeak >= 0 {
			if last(closes) > closes[rsiPeak] && latest < recentRSI[rsiPeak] {
				divergence = c.cfg.DivergencePenalty
				divergenceLabel = "Bearish Divergence (Risk)"
			}
		}
	}

	return contracts.IndicatorResult{
		Score:       base + divergence,
		MaxScore:    c.cfg.RSIWeight,
		Explanation: fmt.Sprintf("RSI=%.1f (%s), %s", latest, zone, divergenceLabel),
	}.
		With("rsi", diag(latest, 2)).
		With("base_score", base).
		With("divergence_score", divergence)
}

// MACD scores the cross state and line positions
func (c *MomentumCalculator) MACD(s *Series) contracts.IndicatorResult {
	n := s.Len()
	if n < c.cfg.MACDSlow+c.cfg.MACDSignal {
		return contracts.Insufficient(c.cfg.MACDWeight, "Insufficient data for MACD").
			With("macd", nil).With("signal_line", nil).With("histogram", nil)
	}

	fast := emaSpan(s.Close, c.cfg.MACDFast)
	slow := emaSpan(s.Close, c.cfg.MACDSlow)
	macd := make([]float64, n)
	for i := range macd {
		macd[i] = fast[i] - slow[i]
	}
	signal := emaSpan(macd, c.cfg.MACDSignal)
	hist := make([]float64, n)
	for i := range hist {
		hist[i] = macd[i] - signal[i]
	}

	m, sig, h := macd[n-1], signal[n-1], hist[n-1]
	pm, psig, ph := macd[n-2], signal[n-2], hist[n-2]

	golden := m > sig && pm <= psig
	death := m < sig && pm >= psig
	expanding := math.Abs(h) > math.Abs(ph)

	sc := c.cfg.MACDScores
	var signalScore float64
	var state string
	switch {
	case golden && expanding && m > 0:
		signalScore, state = sc.GoldenExpandingPositive, "Golden Cross + Expanding Hist + MACD>0"
	case golden && expanding:
		signalScore, state = sc.GoldenExpanding, "Golden Cross + Expanding Hist"
	case golden:
		// 수렴 중이어도 신규 골든크로스는 expanding 점수
		signalScore, state = sc.GoldenExpanding, "Golden Cross + Converging Hist"
	case death && !expanding:
		signalScore, state = sc.DeathConverging, "Death Cross + Converging Hist"
	case m > sig && m > 0:
		signalScore, state = sc.GoldenExpanding, "MACD > Signal & > 0"
	case m > sig:
		signalScore, state = sc.GoldenConverging, "MACD > Signal"
	default:
		signalScore, state = sc.Other, "MACD < Signal"
	}

	var position float64
	var positionState string
	switch {
	case m > 0 && sig > 0:
		position, positionState = sc.BothPositive, "Both > 0"
	case m > 0:
		position, positionState = sc.FastPositive, "MACD > 0"
	default:
		position, positionState = sc.Negative, "Both < 0"
	}

	return contracts.IndicatorResult{
		Score:       signalScore + position,
		MaxScore:    c.cfg.MACDWeight,
		Explanation: fmt.Sprintf("%s, %s", state, positionState),
	}.
		With("macd", diag(m, 4)).
		With("signal_line", diag(sig, 4)).
		With("histogram", diag(h, 4)).
		With("signal_score", signalScore).
		With("position_score", position)
}

// ROC scores the rate of change over the configured period
func (c *MomentumCalculator) ROC(s *Series) contracts.IndicatorResult {
	period := c.cfg.ROCPeriod
	n := s.Len()
	if n < period+1 {
		return contracts.Insufficient(c.cfg.ROCWeight, "Insufficient data for ROC").With("roc", nil)
	}

	base := s.Close[n-1-period]
	roc := (s.Close[n-1] - base) / base * 100
	score := scoreThreshold(roc, c.cfg.ROCBands)

	var status string
	switch {
	case roc >= 10:
		status = "Strong Surge"
	case roc >= 5:
		status = "Solid Gain"
	case roc >= 2:
		status = "Moderate Gain"
	case roc >= 0:
		status = "Slight Gain"
	case roc >= -5:
		status = "Slight Loss"
	default:
		status = "Significant Loss"
	}

	return contracts.IndicatorResult{
		Score:       score,
		MaxScore:    c.cfg.ROCWeight,
		Explanation: fmt.Sprintf("%d-day ROC=%.2f%% (%s)", period, roc, status),
	}.
		With("roc", diag(roc, 2)).
		With("period", period)
}
