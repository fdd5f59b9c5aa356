package contracts

import (
	"fmt"
	"strings"
)

// Fundamental categories, in report order
const (
	CategoryProfitability     = "profitability"
	CategoryGrowth            = "growth"
	CategoryCapitalAllocation = "capital_allocation"
)

// FundamentalCategoryOrder lists fundamental categories in report order
var FundamentalCategoryOrder = []string{
	CategoryProfitability,
	CategoryGrowth,
	CategoryCapitalAllocation,
}

// Metric scoring tiers
const (
	TierSynthetic  = "tier_1_synthetic"
	TierMultiplier = "tier_2_multiplier"
	TierAbsolute   = "tier_3_absolute"
	TierDisabled   = "disabled"
	TierNull       = "null"
)

// Warning severities
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// MetricWarning is an anomaly found while deriving a metric
type MetricWarning struct {
	Metric   string   `json:"metric_name"`
	Type     string   `json:"warning_type"`
	Message  string   `json:"message"`
	Severity string   `json:"severity"`
	Value    *float64 `json:"value,omitempty"`
}

func (w MetricWarning) String() string {
	return fmt.Sprintf("[%s] %s", w.Metric, w.Message)
}

// ProfitabilityMetrics are return and margin ratios of the latest annual period
type ProfitabilityMetrics struct {
	ROIC                 *float64 `json:"roic"`
	ROICNOPAT            *float64 `json:"roic_nopat"`
	ROICInvestedCapital  *float64 `json:"roic_invested_capital"`
	ROICEffectiveTaxRate *float64 `json:"roic_effective_tax_rate"`
	ROE                  *float64 `json:"roe"`
	GrossMargin          *float64 `json:"gross_margin"`
	NetMargin            *float64 `json:"net_margin"`
	OperatingMargin      *float64 `json:"operating_margin"`
	InterestCoverage     *float64 `json:"interest_coverage"`
}

// GrowthMetrics are multi-year growth and cash conversion ratios
type GrowthMetrics struct {
	FCFCAGR5Y         *float64 `json:"fcf_cagr_5y"`
	NetIncomeCAGR5Y   *float64 `json:"net_income_cagr_5y"`
	RevenueCAGR5Y     *float64 `json:"revenue_cagr_5y"`
	EarningsQuality3Y *float64 `json:"earnings_quality_3y"`
	FCFToDebtRatio    *float64 `json:"fcf_to_debt_ratio"`
	DebtFree          bool     `json:"fcf_to_debt_is_debt_free"`
	FCFLatest         *float64 `json:"fcf_latest"`
}

// CapitalAllocationMetrics describe dilution, reinvestment and leverage
type CapitalAllocationMetrics struct {
	ShareDilutionCAGR5Y *float64 `json:"share_dilution_cagr_5y"`
	CapexIntensity3Y    *float64 `json:"capex_intensity_3y"`
	SBCImpact3Y         *float64 `json:"sbc_impact_3y"`
	DebtToEquity        *float64 `json:"debt_to_equity"`
}

// FinancialMetrics bundles every derived fundamental metric
type FinancialMetrics struct {
	Profitability     ProfitabilityMetrics     `json:"profitability"`
	Growth            GrowthMetrics            `json:"growth"`
	CapitalAllocation CapitalAllocationMetrics `json:"capital_allocation"`
	Warnings          []MetricWarning          `json:"warnings"`
}

// Multipliers map a benchmark mean onto percentile proxies
type Multipliers struct {
	P75Proxy float64 `yaml:"p75_proxy" json:"p75_proxy"`
	P25Proxy float64 `yaml:"p25_proxy" json:"p25_proxy"`
}

// MetricBenchmark tells the metric scorer how one sector metric is rated
type MetricBenchmark struct {
	ScoringMode        string             `json:"scoring_mode"`
	Mean               Field              `json:"mean"`
	DerivedSigma       Field              `json:"derived_sigma"`
	InverseMetric      bool               `json:"inverse_metric"`
	Breakpoints        map[string]float64 `json:"synthetic_breakpoints,omitempty"`
	MultiplierOverride *Multipliers       `json:"multiplier_override,omitempty"`
}

// MetricScore is one metric's rating and weighted contribution
type MetricScore struct {
	Value          *float64 `json:"value"`
	RawScore       *float64 `json:"raw_score,omitempty"`
	Weight         float64  `json:"weight"`
	WeightedScore  float64  `json:"weighted_score"`
	Tier           string   `json:"tier,omitempty"`
	ZScore         *float64 `json:"z_score,omitempty"`
	Percentile     *int     `json:"percentile,omitempty"`
	Bucket         string   `json:"bucket,omitempty"`
	Interpretation string   `json:"interpretation,omitempty"`
	Disabled       bool     `json:"disabled,omitempty"`
}

// FundamentalCategory is the weighted score of one fundamental category
type FundamentalCategory struct {
	Score      float64                `json:"score"`
	Max        float64                `json:"max"`
	Percentage float64                `json:"percentage"`
	Metrics    map[string]MetricScore `json:"metrics"`
	Warnings   []string               `json:"warnings"`
}

// FinancialScore is the 0-100 fundamental quality score of one company
type FinancialScore struct {
	Symbol           string                          `json:"company"`
	Sector           string                          `json:"sector"`
	NormalizedSector string                          `json:"normalized_sector,omitempty"`
	Error            bool                            `json:"error"`
	Message          string                          `json:"message,omitempty"`
	TotalScore       float64                         `json:"total_score"`
	MaxScore         float64                         `json:"max_score"`
	Categories       map[string]*FundamentalCategory `json:"category_scores"`
	Metrics          *FinancialMetrics               `json:"metrics,omitempty"`
	Warnings         []string                        `json:"warnings"`
}

// FailedFinancialScore builds an error result that still carries identity
func FailedFinancialScore(symbol, sector, format string, args ...interface{}) *FinancialScore {
	return &FinancialScore{
		Symbol:     symbol,
		Sector:     sector,
		Error:      true,
		Message:    fmt.Sprintf(format, args...),
		Categories: map[string]*FundamentalCategory{},
		Warnings:   []string{},
	}
}

// SectorMetricBenchmarks is the benchmark slice one company is scored against
type SectorMetricBenchmarks struct {
	Sector  string                     `json:"sector"`
	Metrics map[string]MetricBenchmark `json:"metrics"`
	// Tier2 replaces the configured multipliers when the dataset carries them
	Tier2 *Multipliers `json:"tier2_multipliers,omitempty"`
}

// FundamentalsReport is the on-disk fundamental score report
type FundamentalsReport struct {
	Metadata ReportMetadata  `json:"metadata"`
	Score    *FinancialScore `json:"score"`
}

// Summary renders the score as a plain-text block
func (s *FinancialScore) Summary() string {
	if s.Error {
		return "ERROR: " + s.Message
	}

	rule := strings.Repeat("-", 60)
	var b strings.Builder
	b.WriteString(rule + "\n")
	b.WriteString("FINANCIAL SCORE SUMMARY\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Sector: %s", s.Sector)
	if s.NormalizedSector != "" && s.NormalizedSector != s.Sector {
		fmt.Fprintf(&b, " (%s)", s.NormalizedSector)
	}
	fmt.Fprintf(&b, "\nTotal Score: %.1f / %g\n", s.TotalScore, s.MaxScore)
	b.WriteString("\nCategory Breakdown:\n")
	for _, name := range FundamentalCategoryOrder {
		cat, ok := s.Categories[name]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "  %-20s : %5.1f / %g (%.0f%%)\n", titleCase(name), cat.Score, cat.Max, cat.Percentage)
	}
	if len(s.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, w := range s.Warnings {
			b.WriteString("  - " + w + "\n")
		}
	}
	b.WriteString(rule)
	return b.String()
}
