package s2_signals

// Threshold awards Points when a value is >= Min.
// Lists of thresholds are evaluated in descending Min order.
type Threshold struct {
	Min    float64 `yaml:"min" json:"min"`
	Points float64 `yaml:"points" json:"points"`
}

// RangeScore awards Points when Low <= value < High
type RangeScore struct {
	Low    float64 `yaml:"low" json:"low"`
	High   float64 `yaml:"high" json:"high"`
	Points float64 `yaml:"points" json:"points"`
}

// Config holds every weight and threshold of the technical engine
// ⭐ SSOT: 기술적 점수 가중치/임계값은 여기서만
type Config struct {
	MinDataPoints int              `yaml:"min_data_points" json:"min_data_points"`
	Trend         TrendConfig      `yaml:"trend" json:"trend"`
	Momentum      MomentumConfig   `yaml:"momentum" json:"momentum"`
	Volatility    VolatilityConfig `yaml:"volatility" json:"volatility"`
	Structure     StructureConfig  `yaml:"structure" json:"structure"`
	Volume        VolumeConfig     `yaml:"volume" json:"volume"`
}

// TrendConfig covers ADX, the MA system and the 52-week position
type TrendConfig struct {
	ADXWeight      float64 `yaml:"adx_weight" json:"adx_weight"`
	MultiMAWeight  float64 `yaml:"multi_ma_weight" json:"multi_ma_weight"`
	PositionWeight float64 `yaml:"price_position_weight" json:"price_position_weight"`

	ADXPeriod      int         `yaml:"adx_period" json:"adx_period"`
	ADXBands       []Threshold `yaml:"adx_bands" json:"adx_bands"`
	ADXFloorCap    float64     `yaml:"adx_floor_cap" json:"adx_floor_cap"`
	DirectionBonus float64     `yaml:"direction_bonus" json:"direction_bonus"`

	MAShort             int               `yaml:"ma_short" json:"ma_short"`
	MAMid               int               `yaml:"ma_mid" json:"ma_mid"`
	MALong              int               `yaml:"ma_long" json:"ma_long"`
	SlopeLookback       int               `yaml:"slope_lookback" json:"slope_lookback"`
	GoldenCrossLookback int               `yaml:"golden_cross_lookback" json:"golden_cross_lookback"`
	Arrangement         ArrangementScores `yaml:"arrangement" json:"arrangement"`
	SlopeBothRising     float64           `yaml:"slope_both_rising" json:"slope_both_rising"`
	SlopeShortRising    float64           `yaml:"slope_short_rising" json:"slope_short_rising"`
	GoldenCrossBonus    float64           `yaml:"golden_cross_bonus" json:"golden_cross_bonus"`

	PositionLookback int         `yaml:"position_lookback" json:"position_lookback"`
	PositionMinBars  int         `yaml:"position_min_bars" json:"position_min_bars"`
	PositionBands    []Threshold `yaml:"position_bands" json:"position_bands"`
}

// ArrangementScores scores price vs MA ordering
type ArrangementScores struct {
	PerfectBullish  float64 `yaml:"perfect_bullish" json:"perfect_bullish"`
	MidBullish      float64 `yaml:"mid_bullish" json:"mid_bullish"`
	ShortBullish    float64 `yaml:"short_bullish" json:"short_bullish"`
	CompleteBearish float64 `yaml:"complete_bearish" json:"complete_bearish"`
	Mixed           float64 `yaml:"mixed" json:"mixed"`
}

// MomentumConfig covers RSI, MACD and ROC
type MomentumConfig struct {
	RSIWeight  float64 `yaml:"rsi_weight" json:"rsi_weight"`
	MACDWeight float64 `yaml:"macd_weight" json:"macd_weight"`
	ROCWeight  float64 `yaml:"roc_weight" json:"roc_weight"`

	RSIPeriod          int          `yaml:"rsi_period" json:"rsi_period"`
	RSIBands           []RangeScore `yaml:"rsi_bands" json:"rsi_bands"`
	DivergenceLookback int          `yaml:"divergence_lookback" json:"divergence_lookback"`
	DivergenceBonus    float64      `yaml:"divergence_bonus" json:"divergence_bonus"`
	DivergencePenalty  float64      `yaml:"divergence_penalty" json:"divergence_penalty"`

	MACDFast   int              `yaml:"macd_fast" json:"macd_fast"`
	MACDSlow   int              `yaml:"macd_slow" json:"macd_slow"`
	MACDSignal int              `yaml:"macd_signal" json:"macd_signal"`
	MACDScores MACDSignalScores `yaml:"macd_scores" json:"macd_scores"`

	ROCPeriod int         `yaml:"roc_period" json:"roc_period"`
	ROCBands  []Threshold `yaml:"roc_bands" json:"roc_bands"`
}

// MACDSignalScores scores the cross state and the line positions
type MACDSignalScores struct {
	GoldenExpandingPositive float64 `yaml:"golden_expanding_positive" json:"golden_expanding_positive"`
	GoldenExpanding         float64 `yaml:"golden_expanding" json:"golden_expanding"`
	GoldenConverging        float64 `yaml:"golden_converging" json:"golden_converging"`
	DeathConverging         float64 `yaml:"death_converging" json:"death_converging"`
	Other                   float64 `yaml:"other" json:"other"`
	BothPositive            float64 `yaml:"both_positive" json:"both_positive"`
	FastPositive            float64 `yaml:"fast_positive" json:"fast_positive"`
	Negative                float64 `yaml:"negative" json:"negative"`
}

// VolatilityConfig covers ATR and Bollinger Bands
type VolatilityConfig struct {
	ATRWeight       float64 `yaml:"atr_weight" json:"atr_weight"`
	BollingerWeight float64 `yaml:"bollinger_weight" json:"bollinger_weight"`

	ATRPeriod          int          `yaml:"atr_period" json:"atr_period"`
	ATRTrendLookback   int          `yaml:"atr_trend_lookback" json:"atr_trend_lookback"`
	ATRLevels          []RangeScore `yaml:"atr_levels" json:"atr_levels"`
	ATRStableThreshold float64      `yaml:"atr_stable_threshold" json:"atr_stable_threshold"`
	ATRFallingPriceUp  float64      `yaml:"atr_falling_price_rising" json:"atr_falling_price_rising"`
	ATRStable          float64      `yaml:"atr_stable" json:"atr_stable"`
	ATRRisingPriceDown float64      `yaml:"atr_rising_price_falling" json:"atr_rising_price_falling"`

	BollingerPeriod  int     `yaml:"bollinger_period" json:"bollinger_period"`
	BollingerStdDev  float64 `yaml:"bollinger_std_dev" json:"bollinger_std_dev"`
	BreakUpperExpand float64 `yaml:"break_upper_expanding" json:"break_upper_expanding"`
	NearUpper        float64 `yaml:"near_upper" json:"near_upper"`
	Mid              float64 `yaml:"mid" json:"mid"`
	NearLower        float64 `yaml:"near_lower" json:"near_lower"`
	BreakLower       float64 `yaml:"break_lower" json:"break_lower"`

	PercentileWindow  int     `yaml:"percentile_window" json:"percentile_window"`
	PercentileMinBars int     `yaml:"percentile_min_bars" json:"percentile_min_bars"`
	BandwidthNormal   float64 `yaml:"bandwidth_normal" json:"bandwidth_normal"`
	BandwidthExpand   float64 `yaml:"bandwidth_expanding" json:"bandwidth_expanding"`
	BandwidthSqueeze  float64 `yaml:"bandwidth_squeeze" json:"bandwidth_squeeze"`
}

// StructureConfig covers support/resistance and swing structure
type StructureConfig struct {
	SupportResistanceWeight float64 `yaml:"support_resistance_weight" json:"support_resistance_weight"`
	HighLowWeight           float64 `yaml:"high_low_structure_weight" json:"high_low_structure_weight"`

	Lookback    int `yaml:"lookback" json:"lookback"`
	PivotWindow int `yaml:"pivot_window" json:"pivot_window"`

	SafeZone       float64 `yaml:"safe_zone" json:"safe_zone"`
	StrongSupport  float64 `yaml:"strong_support" json:"strong_support"`
	NearResistance float64 `yaml:"near_resistance" json:"near_resistance"`
	BrokenSupport  float64 `yaml:"broken_support" json:"broken_support"`
	Neutral        float64 `yaml:"neutral" json:"neutral"`
	NoSupport      float64 `yaml:"no_support" json:"no_support"`

	SafeDistancePct   float64 `yaml:"safe_distance_pct" json:"safe_distance_pct"`
	StrongSupportPct  float64 `yaml:"strong_support_pct" json:"strong_support_pct"`
	NearResistancePct float64 `yaml:"near_resistance_pct" json:"near_resistance_pct"`

	ShortPeriod     int     `yaml:"short_period" json:"short_period"`
	MaxPullbackPct  float64 `yaml:"max_pullback_pct" json:"max_pullback_pct"`
	NearHighRatio   float64 `yaml:"near_high_ratio" json:"near_high_ratio"`
	PerfectUptrend  float64 `yaml:"perfect_uptrend" json:"perfect_uptrend"`
	UnstableUptrend float64 `yaml:"uptrend_unstable" json:"uptrend_unstable"`
	Consolidation   float64 `yaml:"consolidation" json:"consolidation"`
	Downtrend       float64 `yaml:"downtrend" json:"downtrend"`
}

// VolumeConfig covers OBV and relative volume
type VolumeConfig struct {
	OBVWeight      float64 `yaml:"obv_weight" json:"obv_weight"`
	StrengthWeight float64 `yaml:"volume_strength_weight" json:"volume_strength_weight"`

	OBVTrendPeriod    int     `yaml:"obv_trend_period" json:"obv_trend_period"`
	OBVTrendThreshold float64 `yaml:"obv_trend_threshold" json:"obv_trend_threshold"`
	OBVTrendBonus     float64 `yaml:"obv_trend_bonus" json:"obv_trend_bonus"`
	OBVFlatPct        float64 `yaml:"obv_flat_pct" json:"obv_flat_pct"`
	OBVBothRising     float64 `yaml:"obv_both_rising" json:"obv_both_rising"`
	OBVPriceUpFlat    float64 `yaml:"obv_price_up_flat" json:"obv_price_up_flat"`
	OBVDivergence     float64 `yaml:"obv_divergence" json:"obv_divergence"`

	AvgPeriod       int         `yaml:"avg_period" json:"avg_period"`
	RatioBands      []Threshold `yaml:"ratio_bands" json:"ratio_bands"`
	HighVolumeRatio float64     `yaml:"high_volume_ratio" json:"high_volume_ratio"`
	HighVolPriceUp  float64     `yaml:"high_vol_price_up" json:"high_vol_price_up"`
	LowVolPriceUp   float64     `yaml:"low_vol_price_up" json:"low_vol_price_up"`
}

// DefaultConfig returns the production thresholds
func DefaultConfig() Config {
	return Config{
		MinDataPoints: 250,
		Trend: TrendConfig{
			ADXWeight:      12,
			MultiMAWeight:  13,
			PositionWeight: 10,

			ADXPeriod: 14,
			ADXBands: []Threshold{
				{Min: 40, Points: 10},
				{Min: 30, Points: 8},
				{Min: 25, Points: 6},
				{Min: 20, Points: 4},
			},
			ADXFloorCap:    2,
			DirectionBonus: 2,

			MAShort:             20,
			MAMid:               50,
			MALong:              200,
			SlopeLookback:       5,
			GoldenCrossLookback: 10,
			Arrangement: ArrangementScores{
				PerfectBullish:  10,
				MidBullish:      7,
				ShortBullish:    4,
				CompleteBearish: 0,
				Mixed:           2,
			},
			SlopeBothRising:  2,
			SlopeShortRising: 1,
			GoldenCrossBonus: 1,

			PositionLookback: 252,
			PositionMinBars:  50,
			PositionBands: []Threshold{
				{Min: 0.90, Points: 10},
				{Min: 0.75, Points: 8},
				{Min: 0.50, Points: 6},
				{Min: 0.25, Points: 3},
				{Min: 0.00, Points: 0},
			},
		},
		Momentum: MomentumConfig{
			RSIWeight:  10,
			MACDWeight: 10,
			ROCWeight:  5,

			RSIPeriod: 14,
			RSIBands: []RangeScore{
				{Low: 55, High: 70, Points: 8},
				{Low: 70, High: 80, Points: 6},
				{Low: 50, High: 55, Points: 5},
				{Low: 40, High: 50, Points: 3},
				{Low: 30, High: 40, Points: 2},
				{Low: 0, High: 30, Points: 0},
				{Low: 80, High: 100, Points: 0},
			},
			DivergenceLookback: 20,
			DivergenceBonus:    2,
			DivergencePenalty:  0,

			MACDFast:   12,
			MACDSlow:   26,
			MACDSignal: 9,
			MACDScores: MACDSignalScores{
				GoldenExpandingPositive: 7,
				GoldenExpanding:         5,
				GoldenConverging:        3,
				DeathConverging:         2,
				Other:                   0,
				BothPositive:            3,
				FastPositive:            2,
				Negative:                0,
			},

			ROCPeriod: 20,
			ROCBands: []Threshold{
				{Min: 10, Points: 5},
				{Min: 5, Points: 4},
				{Min: 2, Points: 3},
				{Min: 0, Points: 2},
				{Min: -5, Points: 1},
				{Min: -100, Points: 0},
			},
		},
		Volatility: VolatilityConfig{
			ATRWeight:       8,
			BollingerWeight: 7,

			ATRPeriod:        14,
			ATRTrendLookback: 10,
			ATRLevels: []RangeScore{
				{Low: 1.5, High: 3.0, Points: 6},
				{Low: 3.0, High: 4.0, Points: 4},
				{Low: 1.0, High: 1.5, Points: 3},
				{Low: 4.0, High: 6.0, Points: 2},
				{Low: 0.0, High: 1.0, Points: 0},
				{Low: 6.0, High: 100.0, Points: 0},
			},
			ATRStableThreshold: 0.1,
			ATRFallingPriceUp:  2,
			ATRStable:          1,
			ATRRisingPriceDown: 0,

			BollingerPeriod:  20,
			BollingerStdDev:  2,
			BreakUpperExpand: 5,
			NearUpper:        4,
			Mid:              2,
			NearLower:        1,
			BreakLower:       0,

			PercentileWindow:  100,
			PercentileMinBars: 50,
			BandwidthNormal:   2,
			BandwidthExpand:   1,
			BandwidthSqueeze:  0,
		},
		Structure: StructureConfig{
			SupportResistanceWeight: 8,
			HighLowWeight:           7,

			Lookback:    50,
			PivotWindow: 3,

			SafeZone:       8,
			StrongSupport:  6,
			NearResistance: 2,
			BrokenSupport:  0,
			Neutral:        4,
			NoSupport:      3,

			SafeDistancePct:   5.0,
			StrongSupportPct:  3.0,
			NearResistancePct: 2.0,

			ShortPeriod:     20,
			MaxPullbackPct:  15,
			NearHighRatio:   0.99,
			PerfectUptrend:  7,
			UnstableUptrend: 5,
			Consolidation:   3,
			Downtrend:       0,
		},
		Volume: VolumeConfig{
			OBVWeight:      5,
			StrengthWeight: 5,

			OBVTrendPeriod:    20,
			OBVTrendThreshold: 0.01,
			OBVTrendBonus:     1,
			OBVFlatPct:        0.05,
			OBVBothRising:     4,
			OBVPriceUpFlat:    2,
			OBVDivergence:     0,

			AvgPeriod: 20,
			RatioBands: []Threshold{
				{Min: 2.0, Points: 3},
				{Min: 1.5, Points: 2},
				{Min: 1.0, Points: 2},
				{Min: 0.5, Points: 1},
				{Min: 0.0, Points: 0},
			},
			HighVolumeRatio: 1.5,
			HighVolPriceUp:  2,
			LowVolPriceUp:   1,
		},
	}
}

// CategoryMax returns the configured maximum of each category
func (c Config) CategoryMax() map[string]float64 {
	return map[string]float64{
		"trend_strength":  c.Trend.ADXWeight + c.Trend.MultiMAWeight + c.Trend.PositionWeight,
		"momentum":        c.Momentum.RSIWeight + c.Momentum.MACDWeight + c.Momentum.ROCWeight,
		"volatility":      c.Volatility.ATRWeight + c.Volatility.BollingerWeight,
		"price_structure": c.Structure.SupportResistanceWeight + c.Structure.HighLowWeight,
		"volume_price":    c.Volume.OBVWeight + c.Volume.StrengthWeight,
	}
}

// scoreThreshold returns the points of the first threshold v reaches.
// thresholds must be sorted by Min descending.
func scoreThreshold(v float64, thresholds []Threshold) float64 {
	for _, t := range thresholds {
		if v >= t.Min {
			return t.Points
		}
	}
	return 0
}

// scoreRange returns the points of the first half-open range containing v
func scoreRange(v float64, ranges []RangeScore) float64 {
	for _, r := range ranges {
		if r.Low <= v && v < r.High {
			return r.Points
		}
	}
	return 0
}
