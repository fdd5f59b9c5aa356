package scoringconfig

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/internal/s1_fundamentals"
	"github.com/wonny/equityscore/internal/s2_signals"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.ConfigID == "" {
		return ValidationError{"meta.config_id", "required"}
	}

	if err := validateFundamentals(&cfg.Fundamentals); err != nil {
		return err
	}
	if err := validateTechnical(&cfg.Technical); err != nil {
		return err
	}
	if err := validateValuation(cfg); err != nil {
		return err
	}

	// === Validation ===
	if cfg.Validation.ExpectedYears < 1 {
		return ValidationError{"validation.expected_years", "must be >= 1"}
	}
	return nil
}

func validateFundamentals(f *s1_fundamentals.Config) error {
	if err := validateCategoryWeights("fundamentals.weights", f.Weights); err != nil {
		return err
	}
	for _, sector := range f.SectorNames() {
		// 섹터 오버라이드는 기본값에 병합된 결과로 검증
		field := fmt.Sprintf("fundamentals.sector_weights[%s]", sector)
		if err := validateCategoryWeights(field, f.WeightsFor(sector)); err != nil {
			return err
		}
	}

	known := map[string]bool{}
	for _, cat := range contracts.FundamentalCategoryOrder {
		for _, name := range s1_fundamentals.CategoryMetrics(cat) {
			known[name] = true
		}
	}
	names := make([]string, 0, len(f.Thresholds))
	for name := range f.Thresholds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		field := fmt.Sprintf("fundamentals.thresholds[%s]", name)
		if !known[name] {
			return ValidationError{field, "unknown metric"}
		}
		th := f.Thresholds[name]
		cuts := []float64{th.Score100, th.Score75, th.Score50, th.Score25}
		for i := 1; i < len(cuts); i++ {
			if (!th.Inverse && cuts[i] > cuts[i-1]) || (th.Inverse && cuts[i] < cuts[i-1]) {
				return ValidationError{field, "cut-offs must run from score_100 down to score_25 (reversed when inverse)"}
			}
		}
	}

	if f.Tier2.P25Proxy <= 0 || f.Tier2.P25Proxy >= f.Tier2.P75Proxy {
		return ValidationError{"fundamentals.tier2_multipliers", "must satisfy 0 < p25_proxy < p75_proxy"}
	}
	if len(f.CAGRWeights) == 0 {
		return ValidationError{"fundamentals.cagr_weights", "must not be empty"}
	}
	for i, w := range f.CAGRWeights {
		if w <= 0 {
			return ValidationError{fmt.Sprintf("fundamentals.cagr_weights[%d]", i), "must be > 0"}
		}
	}
	for name, b := range f.Bounds {
		if b.Min >= b.Max {
			return ValidationError{fmt.Sprintf("fundamentals.bounds[%s]", name), "min must be < max"}
		}
	}
	return nil
}

// validateCategoryWeights checks that metric weights are known, non-negative
// and fit inside their category cap
func validateCategoryWeights(prefix string, w s1_fundamentals.Weights) error {
	for _, cat := range contracts.FundamentalCategoryOrder {
		cw := w.Category(cat)
		field := fmt.Sprintf("%s.%s", prefix, cat)
		if cw.MaxScore <= 0 {
			return ValidationError{field + ".max_score", "must be > 0"}
		}
		allowed := map[string]bool{}
		for _, name := range s1_fundamentals.CategoryMetrics(cat) {
			allowed[name] = true
		}
		var sum float64
		for name, weight := range cw.Metrics {
			if !allowed[name] {
				return ValidationError{field, fmt.Sprintf("unknown metric %q", name)}
			}
			if weight < 0 {
				return ValidationError{fmt.Sprintf("%s.metrics.%s", field, name), "must be >= 0"}
			}
			sum += weight
		}
		if sum > cw.MaxScore+1e-6 {
			return ValidationError{field, fmt.Sprintf("metric weights sum %g exceed max_score %g", sum, cw.MaxScore)}
		}
	}
	return nil
}

func validateTechnical(t *s2_signals.Config) error {
	if t.MinDataPoints < 1 {
		return ValidationError{"technical.min_data_points", "must be >= 1"}
	}

	periods := []struct {
		field string
		value int
	}{
		{"technical.trend.adx_period", t.Trend.ADXPeriod},
		{"technical.trend.ma_short", t.Trend.MAShort},
		{"technical.trend.slope_lookback", t.Trend.SlopeLookback},
		{"technical.trend.position_lookback", t.Trend.PositionLookback},
		{"technical.momentum.rsi_period", t.Momentum.RSIPeriod},
		{"technical.momentum.macd_fast", t.Momentum.MACDFast},
		{"technical.momentum.macd_signal", t.Momentum.MACDSignal},
		{"technical.momentum.roc_period", t.Momentum.ROCPeriod},
		{"technical.volatility.atr_period", t.Volatility.ATRPeriod},
		{"technical.volatility.bollinger_period", t.Volatility.BollingerPeriod},
		{"technical.volatility.percentile_window", t.Volatility.PercentileWindow},
		{"technical.structure.lookback", t.Structure.Lookback},
		{"technical.structure.pivot_window", t.Structure.PivotWindow},
		{"technical.structure.short_period", t.Structure.ShortPeriod},
		{"technical.volume.obv_trend_period", t.Volume.OBVTrendPeriod},
		{"technical.volume.avg_period", t.Volume.AvgPeriod},
	}
	for _, p := range periods {
		if p.value < 1 {
			return ValidationError{p.field, "must be >= 1"}
		}
	}

	if !(t.Trend.MAShort < t.Trend.MAMid && t.Trend.MAMid < t.Trend.MALong) {
		return ValidationError{"technical.trend", "must satisfy ma_short < ma_mid < ma_long"}
	}
	if t.Momentum.MACDFast >= t.Momentum.MACDSlow {
		return ValidationError{"technical.momentum", "macd_fast must be < macd_slow"}
	}
	if t.Volatility.BollingerStdDev <= 0 {
		return ValidationError{"technical.volatility.bollinger_std_dev", "must be > 0"}
	}

	weights := []struct {
		field string
		value float64
	}{
		{"technical.trend.adx_weight", t.Trend.ADXWeight},
		{"technical.trend.multi_ma_weight", t.Trend.MultiMAWeight},
		{"technical.trend.price_position_weight", t.Trend.PositionWeight},
		{"technical.momentum.rsi_weight", t.Momentum.RSIWeight},
		{"technical.momentum.macd_weight", t.Momentum.MACDWeight},
		{"technical.momentum.roc_weight", t.Momentum.ROCWeight},
		{"technical.volatility.atr_weight", t.Volatility.ATRWeight},
		{"technical.volatility.bollinger_weight", t.Volatility.BollingerWeight},
		{"technical.structure.support_resistance_weight", t.Structure.SupportResistanceWeight},
		{"technical.structure.high_low_structure_weight", t.Structure.HighLowWeight},
		{"technical.volume.obv_weight", t.Volume.OBVWeight},
		{"technical.volume.volume_strength_weight", t.Volume.StrengthWeight},
	}
	for _, w := range weights {
		if w.value < 0 {
			return ValidationError{w.field, "must be >= 0"}
		}
	}

	// threshold 리스트는 min 내림차순이어야 첫 매칭이 의미를 가짐
	bands := []struct {
		field string
		value []s2_signals.Threshold
	}{
		{"technical.trend.adx_bands", t.Trend.ADXBands},
		{"technical.trend.position_bands", t.Trend.PositionBands},
		{"technical.momentum.roc_bands", t.Momentum.ROCBands},
		{"technical.volume.ratio_bands", t.Volume.RatioBands},
	}
	for _, b := range bands {
		if err := validateDescending(b.value); err != nil {
			return ValidationError{b.field, err.Error()}
		}
	}

	ranges := []struct {
		field string
		value []s2_signals.RangeScore
	}{
		{"technical.momentum.rsi_bands", t.Momentum.RSIBands},
		{"technical.volatility.atr_levels", t.Volatility.ATRLevels},
	}
	for _, r := range ranges {
		if err := validateRanges(r.value); err != nil {
			return ValidationError{r.field, err.Error()}
		}
	}
	return validatePointBudgets(t)
}

// validatePointBudgets checks that the best attainable points of every
// indicator fit inside its weight
func validatePointBudgets(t *s2_signals.Config) error {
	tr, m, v, st, vo := t.Trend, t.Momentum, t.Volatility, t.Structure, t.Volume
	a, sc := tr.Arrangement, m.MACDScores

	budgets := []struct {
		field  string
		weight float64
		best   float64
	}{
		{"technical.trend.adx_weight", tr.ADXWeight,
			maxOf(maxThreshold(tr.ADXBands), tr.ADXFloorCap) + tr.DirectionBonus},
		{"technical.trend.multi_ma_weight", tr.MultiMAWeight,
			maxOf(a.PerfectBullish, a.MidBullish, a.ShortBullish, a.CompleteBearish, a.Mixed) +
				maxOf(tr.SlopeBothRising, tr.SlopeShortRising) + tr.GoldenCrossBonus},
		{"technical.trend.price_position_weight", tr.PositionWeight, maxThreshold(tr.PositionBands)},
		{"technical.momentum.rsi_weight", m.RSIWeight,
			maxRange(m.RSIBands) + maxOf(m.DivergenceBonus, m.DivergencePenalty)},
		{"technical.momentum.macd_weight", m.MACDWeight,
			maxOf(sc.GoldenExpandingPositive, sc.GoldenExpanding, sc.GoldenConverging, sc.DeathConverging, sc.Other) +
				maxOf(sc.BothPositive, sc.FastPositive, sc.Negative)},
		{"technical.momentum.roc_weight", m.ROCWeight, maxThreshold(m.ROCBands)},
		{"technical.volatility.atr_weight", v.ATRWeight,
			maxRange(v.ATRLevels) + maxOf(v.ATRFallingPriceUp, v.ATRStable, v.ATRRisingPriceDown)},
		{"technical.volatility.bollinger_weight", v.BollingerWeight,
			maxOf(v.BreakUpperExpand, v.NearUpper, v.Mid, v.NearLower, v.BreakLower) +
				maxOf(v.BandwidthNormal, v.BandwidthExpand, v.BandwidthSqueeze)},
		{"technical.structure.support_resistance_weight", st.SupportResistanceWeight,
			maxOf(st.SafeZone, st.StrongSupport, st.NearResistance, st.BrokenSupport, st.Neutral, st.NoSupport)},
		{"technical.structure.high_low_structure_weight", st.HighLowWeight,
			maxOf(st.PerfectUptrend, st.UnstableUptrend, st.Consolidation, st.Downtrend)},
		{"technical.volume.obv_weight", vo.OBVWeight,
			maxOf(vo.OBVBothRising, vo.OBVPriceUpFlat, vo.OBVDivergence) + vo.OBVTrendBonus},
		{"technical.volume.volume_strength_weight", vo.StrengthWeight,
			maxThreshold(vo.RatioBands) + maxOf(vo.HighVolPriceUp, vo.LowVolPriceUp)},
	}
	for _, b := range budgets {
		if b.best > b.weight {
			return ValidationError{b.field, fmt.Sprintf("best attainable points %g exceed weight %g", b.best, b.weight)}
		}
	}
	return nil
}

func validateValuation(cfg *Config) error {
	v := &cfg.Valuation
	if len(v.SectorWeights) == 0 {
		return ValidationError{"valuation.sector_weights", "required"}
	}

	for _, sector := range sortedSectors(cfg) {
		w := v.SectorWeights[sector]
		field := fmt.Sprintf("valuation.sector_weights[%s]", sector)
		for kind, weight := range w {
			if !kind.Valid() {
				return ValidationError{field, fmt.Sprintf("unknown model %q", kind)}
			}
			if err := validatePctRange(weight, fmt.Sprintf("%s.%s", field, kind)); err != nil {
				return err
			}
		}
		if w.Sum() <= 0 {
			return ValidationError{field, "weights must sum to > 0"}
		}
	}

	for alias, target := range v.SectorAliases {
		if _, ok := v.SectorWeights[target]; !ok {
			return ValidationError{
				Field:   fmt.Sprintf("valuation.sector_aliases[%s]", alias),
				Message: fmt.Sprintf("target sector %q has no weights", target),
			}
		}
	}

	if v.RiskFreeRate < 0 || v.RiskFreeRate >= v.MarketReturn {
		return ValidationError{"valuation", "must satisfy 0 <= risk_free_rate < market_return"}
	}
	// beta가 0에 가까워도 WACC > g 가 유지되어야 함
	if v.TerminalGrowth >= v.RiskFreeRate {
		return ValidationError{"valuation.terminal_growth", "must be < risk_free_rate"}
	}
	if v.DefaultBeta <= 0 {
		return ValidationError{"valuation.default_beta", "must be > 0"}
	}
	if v.ProjectionYears < 1 {
		return ValidationError{"valuation.projection_years", "must be >= 1"}
	}
	if v.MaxDividendGrowth <= 0 {
		return ValidationError{"valuation.max_dividend_growth", "must be > 0"}
	}
	if v.GrahamMultiplier <= 0 {
		return ValidationError{"valuation.graham_multiplier", "must be > 0"}
	}
	if v.LynchGrowthCap <= 0 {
		return ValidationError{"valuation.lynch_growth_cap", "must be > 0"}
	}
	if v.PEGMin <= 0 || v.PEGMin >= v.PEGMax {
		return ValidationError{"valuation", "must satisfy 0 < peg_min < peg_max"}
	}
	if v.MinSuccessfulModels < 1 {
		return ValidationError{"valuation.min_successful_models", "must be >= 1"}
	}
	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	for _, sector := range sortedSectors(cfg) {
		sum := cfg.Valuation.SectorWeights[sector].Sum()
		if math.Abs(sum-1.0) > 1e-6 {
			warnings = append(warnings, Warning{
				Code:    "WEIGHTS_NOT_NORMALIZED",
				Message: fmt.Sprintf("%s weights sum to %.2f, not 1.00", sector, sum),
			})
		}
	}

	var total float64
	for _, max := range cfg.Technical.CategoryMax() {
		total += max
	}
	if math.Abs(total-100) > 1e-6 {
		warnings = append(warnings, Warning{
			Code:    "NON_STANDARD_TOTAL",
			Message: fmt.Sprintf("technical categories total %.1f points, not 100", total),
		})
	}

	var fundTotal float64
	for _, max := range cfg.Fundamentals.Weights.CategoryMax() {
		fundTotal += max
	}
	if math.Abs(fundTotal-100) > 1e-6 {
		warnings = append(warnings, Warning{
			Code:    "NON_STANDARD_TOTAL",
			Message: fmt.Sprintf("fundamental categories total %.1f points, not 100", fundTotal),
		})
	}

	if cfg.Technical.MinDataPoints < cfg.Technical.Trend.MALong {
		warnings = append(warnings, Warning{
			Code:    "SHORT_HISTORY",
			Message: "min_data_points < ma_long: long moving average may be undefined",
		})
	}

	return warnings
}

// === Helper Functions ===

func sortedSectors(cfg *Config) []string {
	sectors := make([]string, 0, len(cfg.Valuation.SectorWeights))
	for s := range cfg.Valuation.SectorWeights {
		sectors = append(sectors, s)
	}
	sort.Strings(sectors)
	return sectors
}

func validateDescending(bands []s2_signals.Threshold) error {
	if len(bands) == 0 {
		return errors.New("must not be empty")
	}
	for i := 1; i < len(bands); i++ {
		if bands[i].Min >= bands[i-1].Min {
			return fmt.Errorf("min must be strictly descending at index %d", i)
		}
	}
	return nil
}

func validateRanges(ranges []s2_signals.RangeScore) error {
	if len(ranges) == 0 {
		return errors.New("must not be empty")
	}
	for i, r := range ranges {
		if r.Low >= r.High {
			return fmt.Errorf("low must be < high at index %d", i)
		}
	}
	return nil
}

func maxOf(values ...float64) float64 {
	best := math.Inf(-1)
	for _, v := range values {
		best = math.Max(best, v)
	}
	return best
}

func maxThreshold(bands []s2_signals.Threshold) float64 {
	best := 0.0
	for _, b := range bands {
		best = math.Max(best, b.Points)
	}
	return best
}

func maxRange(ranges []s2_signals.RangeScore) float64 {
	best := 0.0
	for _, r := range ranges {
		best = math.Max(best, r.Points)
	}
	return best
}

// validatePctRange는 가중치 값이 0~1 범위인지 검증
func validatePctRange(pct float64, field string) error {
	if pct < 0 || pct > 1 {
		return ValidationError{field, "must be in range [0, 1]"}
	}
	return nil
}
