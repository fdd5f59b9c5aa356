package s1_fundamentals

import (
	"fmt"
	"math"

	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/pkg/logger"
	"github.com/wonny/equityscore/pkg/numeric"
)

// Tier 1 maps one sigma to 37 points around the 50 midpoint
const zScale = 37.0

// MetricScorer rates a single metric value on a 0-100 scale
type MetricScorer struct {
	thresholds map[string]Thresholds
	logger     *logger.Logger
}

// NewMetricScorer creates a metric scorer with the given absolute thresholds
func NewMetricScorer(thresholds map[string]Thresholds, log *logger.Logger) *MetricScorer {
	return &MetricScorer{thresholds: thresholds, logger: log}
}

// Score rates value with the benchmark's scoring mode. tier2 holds the
// multipliers used when the benchmark has no override.
func (m *MetricScorer) Score(name string, value *float64, mb contracts.MetricBenchmark, tier2 contracts.Multipliers) (contracts.MetricScore, error) {
	if value == nil || !numeric.Finite(*value) {
		return contracts.MetricScore{Value: value, Tier: contracts.TierNull, Interpretation: "Data not available"}, nil
	}

	var res contracts.MetricScore
	switch mb.ScoringMode {
	case contracts.TierSynthetic:
		res = m.synthetic(*value, mb, tier2)
	case contracts.TierMultiplier:
		res = m.multiplier(*value, mb, tier2)
	case contracts.TierAbsolute:
		res = m.absolute(name, *value)
	case contracts.TierDisabled:
		res = contracts.MetricScore{RawScore: ptr(0), Tier: contracts.TierDisabled, Disabled: true}
	default:
		return contracts.MetricScore{Value: value}, fmt.Errorf("unknown scoring mode %q", mb.ScoringMode)
	}
	res.Value = value
	return res, nil
}

func (m *MetricScorer) synthetic(v float64, mb contracts.MetricBenchmark, tier2 contracts.Multipliers) contracts.MetricScore {
	mean, ok := mb.Mean.Get()
	if !ok {
		return contracts.MetricScore{Tier: contracts.TierNull, Interpretation: "Benchmark mean not available"}
	}
	sigma, ok := mb.DerivedSigma.Get()
	if !ok || sigma == 0 {
		m.logger.Warn("Sigma is zero/null, falling back to Tier 2")
		return m.multiplier(v, mb, tier2)
	}

	z := (v - mean) / sigma
	raw := numeric.Clamp(50+z*zScale, 0, 100)

	percentile, interp := 10, "Poor (Bottom 10%)"
	for _, b := range []struct {
		key        string
		percentile int
		interp     string
	}{
		{"p90", 90, "Excellent (Top 10%)"},
		{"p75", 75, "Good (Top 25%)"},
		{"p50", 50, "Average"},
		{"p25", 25, "Below Average"},
	} {
		// 없는 분위수는 +Inf로 취급해 통과 불가
		cut, ok := mb.Breakpoints[b.key]
		if !ok {
			cut = math.Inf(1)
		}
		if v >= cut {
			percentile, interp = b.percentile, b.interp
			break
		}
	}

	return contracts.MetricScore{
		RawScore:       numeric.RoundPtr(raw, 1),
		Tier:           contracts.TierSynthetic,
		ZScore:         numeric.RoundPtr(z, 2),
		Percentile:     &percentile,
		Interpretation: interp,
	}
}

func (m *MetricScorer) multiplier(v float64, mb contracts.MetricBenchmark, tier2 contracts.Multipliers) contracts.MetricScore {
	mean, ok := mb.Mean.Get()
	if !ok {
		return contracts.MetricScore{Tier: contracts.TierNull, Interpretation: "Benchmark mean not available"}
	}
	if mean == 0 {
		return contracts.MetricScore{Tier: contracts.TierNull, Interpretation: "Benchmark mean is zero"}
	}
	mult := tier2
	if mb.MultiplierOverride != nil {
		mult = *mb.MultiplierOverride
	}

	var score float64
	var interp string
	if !mb.InverseMetric {
		p75 := mean * mult.P75Proxy
		p25 := mean * mult.P25Proxy
		switch {
		case v >= p75:
			score = 75 + 25*math.Min(1, (v-p75)/(mean*0.25))
			interp = "Good to Excellent"
		case v >= p25:
			score = 25 + 50*(v-p25)/(p75-p25)
			interp = "Acceptable to Good"
		default:
			score = 25 * math.Max(0, v/p25)
			interp = "Poor"
		}
	} else {
		good := mean * 0.8
		bad := mean * 1.2
		switch {
		case v <= good:
			score = 75 + 25*math.Min(1, (good-v)/(mean*0.2))
			interp = "Good to Excellent (Low)"
		case v <= bad:
			score = 25 + 50*(bad-v)/(bad-good)
			interp = "Acceptable"
		default:
			score = 25 * math.Max(0, 1-(v-bad)/mean)
			interp = "Poor (High)"
		}
	}

	percentile := 0
	if score > 0 {
		percentile = int(score/25) * 25
	}
	return contracts.MetricScore{
		RawScore:       numeric.RoundPtr(score, 1),
		Tier:           contracts.TierMultiplier,
		Percentile:     &percentile,
		Interpretation: interp,
	}
}

func (m *MetricScorer) absolute(name string, v float64) contracts.MetricScore {
	switch name {
	case MetricShareDilution:
		score := shareDilutionScore(v)
		return contracts.MetricScore{
			RawScore:       ptr(score),
			Tier:           contracts.TierAbsolute,
			Bucket:         dilutionBucket(v),
			Interpretation: interpretDilution(score),
		}
	case MetricCapexIntensity:
		score := capexIntensityScore(v)
		return contracts.MetricScore{
			RawScore:       ptr(score),
			Tier:           contracts.TierAbsolute,
			Bucket:         capexBucket(v),
			Interpretation: interpretCapex(score),
		}
	}

	th, ok := m.thresholds[name]
	if !ok {
		m.logger.WithField("metric", name).Warn("No thresholds found, returning 50")
		return contracts.MetricScore{RawScore: ptr(50), Tier: contracts.TierAbsolute, Bucket: "default"}
	}

	type bucket struct {
		cut    float64
		score  float64
		name   string
		interp string
	}
	var buckets []bucket
	pass := func(v, cut float64) bool { return v >= cut }
	failing := "Failing"
	if th.Inverse {
		buckets = []bucket{
			{th.Score100, 100, "excellent", "Excellent (Low)"},
			{th.Score75, 75, "good", "Good (Low)"},
			{th.Score50, 50, "acceptable", "Acceptable"},
			{th.Score25, 25, "poor", "Poor (High)"},
		}
		pass = func(v, cut float64) bool { return v <= cut }
		failing = "Excessive"
	} else {
		buckets = []bucket{
			{th.Score100, 100, "excellent", "Excellent"},
			{th.Score75, 75, "good", "Good"},
			{th.Score50, 50, "acceptable", "Acceptable"},
			{th.Score25, 25, "poor", "Poor"},
		}
	}
	for _, b := range buckets {
		if pass(v, b.cut) {
			return contracts.MetricScore{RawScore: ptr(b.score), Tier: contracts.TierAbsolute, Bucket: b.name, Interpretation: b.interp}
		}
	}
	return contracts.MetricScore{RawScore: ptr(0), Tier: contracts.TierAbsolute, Bucket: "failing", Interpretation: failing}
}

// shareDilutionScore rewards buybacks; values are share count CAGR
func shareDilutionScore(v float64) float64 {
	switch {
	case v <= -0.05:
		return 100
	case v <= -0.03:
		return 90
	case v <= 0:
		return 70
	case v <= 0.02:
		return 40
	case v <= 0.05:
		return 20
	}
	return 0
}

func dilutionBucket(v float64) string {
	switch {
	case v <= -0.05:
		return "strong_buyback"
	case v <= -0.03:
		return "moderate_buyback"
	case v <= 0:
		return "light_buyback"
	case v <= 0.02:
		return "minor_dilution"
	case v <= 0.05:
		return "moderate_dilution"
	}
	return "high_dilution"
}

func interpretDilution(score float64) string {
	switch {
	case score >= 90:
		return "Strong buyback program"
	case score >= 70:
		return "Active buybacks"
	case score >= 40:
		return "Minor dilution"
	case score >= 20:
		return "Moderate dilution"
	}
	return "High dilution"
}

// capexIntensityScore is a U-curve: 20-40% of OCF reinvested is optimal,
// both under- and over-investment lose points
func capexIntensityScore(v float64) float64 {
	switch {
	case v >= 0.20 && v <= 0.40:
		return 100
	case (v >= 0.15 && v < 0.20) || (v > 0.40 && v <= 0.60):
		return 75
	case (v >= 0.10 && v < 0.15) || (v > 0.60 && v <= 0.80):
		return 50
	case (v >= 0.05 && v < 0.10) || (v > 0.80 && v <= 1.00):
		return 25
	}
	return 0
}

func capexBucket(v float64) string {
	switch {
	case v >= 0.20 && v <= 0.40:
		return "optimal"
	case (v >= 0.15 && v < 0.20) || (v > 0.40 && v <= 0.60):
		return "acceptable"
	case (v >= 0.10 && v < 0.15) || (v > 0.60 && v <= 0.80):
		return "suboptimal"
	}
	return "extreme"
}

func interpretCapex(score float64) string {
	switch {
	case score >= 90:
		return "Optimal reinvestment level"
	case score >= 70:
		return "Good reinvestment"
	case score >= 50:
		return "Moderate reinvestment"
	}
	return "Suboptimal reinvestment"
}
