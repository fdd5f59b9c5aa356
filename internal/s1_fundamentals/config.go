package s1_fundamentals

import (
	"sort"

	"github.com/wonny/equityscore/internal/contracts"
)

// Metric names shared by weights, thresholds and reports
const (
	MetricROIC            = "roic"
	MetricROE             = "roe"
	MetricOperatingMargin = "operating_margin"
	MetricGrossMargin     = "gross_margin"
	MetricNetMargin       = "net_margin"

	MetricFCFCAGR         = "fcf_cagr_5y"
	MetricNetIncomeCAGR   = "net_income_cagr_5y"
	MetricRevenueCAGR     = "revenue_cagr_5y"
	MetricEarningsQuality = "earnings_quality_3y"
	MetricFCFToDebt       = "fcf_to_debt_ratio"

	MetricShareDilution  = "share_dilution_cagr_5y"
	MetricCapexIntensity = "capex_intensity_3y"
	MetricSBCImpact      = "sbc_impact_3y"
	MetricDebtToEquity   = "debt_to_equity"
)

// Thresholds are absolute cut-offs for the 100/75/50/25 buckets.
// With Inverse set a value at or below the cut-off earns the bucket.
type Thresholds struct {
	Score100 float64 `yaml:"score_100" json:"score_100"`
	Score75  float64 `yaml:"score_75" json:"score_75"`
	Score50  float64 `yaml:"score_50" json:"score_50"`
	Score25  float64 `yaml:"score_25" json:"score_25"`
	Score0   float64 `yaml:"score_0" json:"score_0"`
	Inverse  bool    `yaml:"inverse" json:"inverse"`
}

// CategoryWeights caps a category and spreads its points over metrics
type CategoryWeights struct {
	MaxScore float64            `yaml:"max_score" json:"max_score"`
	Metrics  map[string]float64 `yaml:"metrics" json:"metrics"`
}

// Weights covers the three fundamental categories
type Weights struct {
	Profitability     CategoryWeights `yaml:"profitability" json:"profitability"`
	Growth            CategoryWeights `yaml:"growth" json:"growth"`
	CapitalAllocation CategoryWeights `yaml:"capital_allocation" json:"capital_allocation"`
}

// Category returns the weights of a category by report name
func (w Weights) Category(name string) CategoryWeights {
	switch name {
	case contracts.CategoryProfitability:
		return w.Profitability
	case contracts.CategoryGrowth:
		return w.Growth
	case contracts.CategoryCapitalAllocation:
		return w.CapitalAllocation
	}
	return CategoryWeights{}
}

// Config holds every weight and threshold of the fundamental scorer
// ⭐ SSOT: 재무 점수 가중치/임계값은 여기서만
type Config struct {
	Weights Weights `yaml:"weights" json:"weights"`
	// SectorWeights override Weights per normalized sector, metric by metric
	SectorWeights map[string]Weights      `yaml:"sector_weights" json:"sector_weights"`
	Thresholds    map[string]Thresholds   `yaml:"thresholds" json:"thresholds"`
	Tier2         contracts.Multipliers   `yaml:"tier2_multipliers" json:"tier2_multipliers"`
	CAGRWeights   []float64               `yaml:"cagr_weights" json:"cagr_weights"`
	Bounds        map[string]MetricBounds `yaml:"bounds" json:"bounds"`
}

// MetricBounds flags derived values outside a plausible range
type MetricBounds struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

func (c CategoryWeights) clone() CategoryWeights {
	m := make(map[string]float64, len(c.Metrics))
	for k, v := range c.Metrics {
		m[k] = v
	}
	return CategoryWeights{MaxScore: c.MaxScore, Metrics: m}
}

// merge overlays o; a zero MaxScore keeps the base cap
func (c CategoryWeights) merge(o CategoryWeights) CategoryWeights {
	out := c.clone()
	if o.MaxScore > 0 {
		out.MaxScore = o.MaxScore
	}
	for k, v := range o.Metrics {
		out.Metrics[k] = v
	}
	return out
}

// WeightsFor returns the default weights with the sector's overrides applied
func (c Config) WeightsFor(sector string) Weights {
	w := Weights{
		Profitability:     c.Weights.Profitability.clone(),
		Growth:            c.Weights.Growth.clone(),
		CapitalAllocation: c.Weights.CapitalAllocation.clone(),
	}
	o, ok := c.SectorWeights[sector]
	if !ok {
		return w
	}
	return Weights{
		Profitability:     w.Profitability.merge(o.Profitability),
		Growth:            w.Growth.merge(o.Growth),
		CapitalAllocation: w.CapitalAllocation.merge(o.CapitalAllocation),
	}
}

// SectorNames returns the sectors with weight overrides, sorted
func (c Config) SectorNames() []string {
	names := make([]string, 0, len(c.SectorWeights))
	for name := range c.SectorWeights {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func profitability(max, roic, roe, om, gm, nm float64) CategoryWeights {
	return CategoryWeights{MaxScore: max, Metrics: map[string]float64{
		MetricROIC: roic, MetricROE: roe, MetricOperatingMargin: om, MetricGrossMargin: gm, MetricNetMargin: nm,
	}}
}

func growth(max, fcf, ni, rev, eq, debt float64) CategoryWeights {
	return CategoryWeights{MaxScore: max, Metrics: map[string]float64{
		MetricFCFCAGR: fcf, MetricNetIncomeCAGR: ni, MetricRevenueCAGR: rev, MetricEarningsQuality: eq, MetricFCFToDebt: debt,
	}}
}

func capital(max, dilution, capex, sbc float64) CategoryWeights {
	return CategoryWeights{MaxScore: max, Metrics: map[string]float64{
		MetricShareDilution: dilution, MetricCapexIntensity: capex, MetricSBCImpact: sbc,
	}}
}

// 각 섹터는 별도 맵을 가져야 YAML 디코딩 시 서로 덮어쓰지 않음
func defaultWeights() Weights {
	return Weights{
		Profitability:     profitability(40, 15, 10, 8, 4, 3),
		Growth:            growth(35, 12, 8, 6, 5, 4),
		CapitalAllocation: capital(25, 10, 10, 5),
	}
}

func consumerWeights() Weights {
	return Weights{
		Profitability:     profitability(38, 14, 10, 8, 3, 3),
		Growth:            growth(38, 12, 10, 8, 5, 3),
		CapitalAllocation: capital(24, 10, 9, 5),
	}
}

// DefaultConfig returns the built-in weights and absolute thresholds
func DefaultConfig() Config {
	base := defaultWeights()
	// D/E는 벤치마크가 있을 때만 표시, 기본 가중치 0
	base.CapitalAllocation.Metrics[MetricDebtToEquity] = 0

	return Config{
		Weights: base,
		SectorWeights: map[string]Weights{
			"Technology": {
				Profitability:     profitability(35, 12, 8, 8, 4, 3),
				Growth:            growth(45, 15, 12, 8, 6, 4),
				CapitalAllocation: capital(20, 7, 8, 5),
			},
			"Healthcare": {
				Profitability:     profitability(38, 14, 10, 8, 3, 3),
				Growth:            growth(40, 13, 10, 7, 6, 4),
				CapitalAllocation: capital(22, 8, 9, 5),
			},
			"Financials": {
				Profitability:     profitability(45, 8, 20, 0, 0, 17),
				Growth:            growth(25, 0, 12, 6, 5, 2),
				CapitalAllocation: capital(30, 12, 3, 15),
			},
			"Consumer Discretionary": consumerWeights(),
			"Consumer Cyclical":      consumerWeights(),
			"Consumer Staples": {
				Profitability:     profitability(40, 15, 10, 8, 4, 3),
				Growth:            growth(28, 10, 7, 5, 4, 2),
				CapitalAllocation: capital(32, 10, 6, 16),
			},
			"Energy": {
				Profitability:     profitability(35, 12, 8, 8, 4, 3),
				Growth:            growth(30, 10, 6, 5, 5, 4),
				CapitalAllocation: capital(35, 10, 20, 5),
			},
			"Industrials": defaultWeights(),
			"Materials": {
				Profitability:     profitability(38, 14, 10, 8, 3, 3),
				Growth:            growth(30, 10, 7, 5, 5, 3),
				CapitalAllocation: capital(32, 10, 17, 5),
			},
			"Real Estate": {
				Profitability:     profitability(35, 10, 8, 10, 4, 3),
				Growth:            growth(25, 8, 6, 5, 4, 2),
				CapitalAllocation: capital(40, 6, 8, 26),
			},
			"Utilities": {
				Profitability:     profitability(38, 12, 10, 10, 3, 3),
				Growth:            growth(22, 7, 6, 4, 3, 2),
				CapitalAllocation: capital(40, 5, 8, 27),
			},
			"Communication Services": {
				Profitability:     profitability(38, 14, 10, 8, 3, 3),
				Growth:            growth(38, 12, 10, 7, 5, 4),
				CapitalAllocation: capital(24, 10, 9, 5),
			},
		},
		Thresholds: map[string]Thresholds{
			MetricFCFCAGR:         {Score100: 0.25, Score75: 0.15, Score50: 0.10, Score25: 0.05},
			MetricRevenueCAGR:     {Score100: 0.20, Score75: 0.15, Score50: 0.10, Score25: 0.05},
			MetricNetIncomeCAGR:   {Score100: 0.25, Score75: 0.15, Score50: 0.10, Score25: 0.05},
			MetricEarningsQuality: {Score100: 1.30, Score75: 1.10, Score50: 0.90, Score25: 0.70, Score0: 0.50},
			MetricFCFToDebt:       {Score100: 0.50, Score75: 0.30, Score50: 0.15, Score25: 0.05},
			MetricSBCImpact:       {Score100: 0.05, Score75: 0.10, Score50: 0.15, Score25: 0.20, Score0: 0.25, Inverse: true},
		},
		Tier2:       contracts.Multipliers{P75Proxy: 1.25, P25Proxy: 0.75},
		CAGRWeights: []float64{0.10, 0.15, 0.20, 0.25, 0.30},
		Bounds: map[string]MetricBounds{
			"effective_tax_rate": {Min: 0, Max: 1},
			MetricROIC:           {Min: -0.5, Max: 1},
			MetricROE:            {Min: -0.5, Max: 2},
			MetricGrossMargin:    {Min: -1, Max: 1},
			MetricNetMargin:      {Min: -1, Max: 0.5},
		},
	}
}

// CategoryMetrics returns the metric names a category accepts weights for
func CategoryMetrics(category string) []string {
	switch category {
	case contracts.CategoryProfitability:
		return profitabilityMetrics
	case contracts.CategoryGrowth:
		return growthMetrics
	case contracts.CategoryCapitalAllocation:
		return append(append([]string{}, capitalMetrics...), MetricDebtToEquity)
	}
	return nil
}

// CategoryMax returns the point cap of every category
func (w Weights) CategoryMax() map[string]float64 {
	return map[string]float64{
		contracts.CategoryProfitability:     w.Profitability.MaxScore,
		contracts.CategoryGrowth:            w.Growth.MaxScore,
		contracts.CategoryCapitalAllocation: w.CapitalAllocation.MaxScore,
	}
}
