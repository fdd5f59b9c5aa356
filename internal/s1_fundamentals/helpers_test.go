package s1_fundamentals

import (
	"strings"

	"github.com/wonny/equityscore/internal/contracts"
)

func f(v float64) contracts.Field { return contracts.NewField(v) }

// steadyCompany grows revenue 600 → 1000 over five fiscal years while
// buying back a little stock each year
func steadyCompany(sector string) *contracts.StockData {
	inc := []contracts.IncomeStatement{
		{
			Period: "2024", PeriodType: contracts.PeriodFY,
			Revenue: f(1000), CostOfRevenue: f(600), GrossProfit: f(400), OperatingIncome: f(200),
			PretaxIncome: f(180), IncomeTaxExpense: f(36), NetIncome: f(144), InterestExpense: f(20),
			SharesOutstanding: f(95),
		},
		{Period: "2023", PeriodType: contracts.PeriodFY, Revenue: f(900), NetIncome: f(130), SharesOutstanding: f(97)},
		{Period: "2022", PeriodType: contracts.PeriodFY, Revenue: f(800), NetIncome: f(120), SharesOutstanding: f(98)},
		{Period: "2021", PeriodType: contracts.PeriodFY, Revenue: f(700), NetIncome: f(110), SharesOutstanding: f(99)},
		{Period: "2020", PeriodType: contracts.PeriodFY, Revenue: f(600), NetIncome: f(100), SharesOutstanding: f(100)},
	}
	cf := []contracts.CashFlowStatement{
		{Period: "2024", PeriodType: contracts.PeriodFY, OperatingCashFlow: f(240), Capex: f(-60), StockBasedCompensation: f(12)},
		{Period: "2023", PeriodType: contracts.PeriodFY, OperatingCashFlow: f(210), Capex: f(-50), StockBasedCompensation: f(10)},
		{Period: "2022", PeriodType: contracts.PeriodFY, OperatingCashFlow: f(180), Capex: f(-45), StockBasedCompensation: f(9)},
		{Period: "2021", PeriodType: contracts.PeriodFY, OperatingCashFlow: f(160), Capex: f(-40), StockBasedCompensation: f(8)},
		{Period: "2020", PeriodType: contracts.PeriodFY, OperatingCashFlow: f(140), Capex: f(-35), StockBasedCompensation: f(7)},
	}
	return &contracts.StockData{
		Symbol:           "STDY",
		Profile:          &contracts.CompanyProfile{Sector: contracts.NewTextField(sector)},
		IncomeStatements: inc,
		BalanceSheets: []contracts.BalanceSheet{
			{Period: "2024", PeriodType: contracts.PeriodFY, ShareholderEquity: f(800), TotalDebt: f(300), Cash: f(100)},
		},
		CashFlows: cf,
	}
}

// staticBenchmarks serves one fixed metric set for the sectors it knows
type staticBenchmarks map[string]contracts.SectorMetricBenchmarks

func (b staticBenchmarks) MetricBenchmarks(sector string) (contracts.SectorMetricBenchmarks, bool) {
	set, ok := b[sector]
	return set, ok
}

func industrialsBenchmarks() staticBenchmarks {
	return staticBenchmarks{"Industrials": {
		Sector: "Industrials",
		Metrics: map[string]contracts.MetricBenchmark{
			MetricROIC: {
				ScoringMode: contracts.TierSynthetic, Mean: f(0.12), DerivedSigma: f(0.08),
				Breakpoints: map[string]float64{"p90": 0.25, "p75": 0.18, "p50": 0.12, "p25": 0.06},
			},
			MetricROE:             {ScoringMode: contracts.TierMultiplier, Mean: f(0.15)},
			MetricOperatingMargin: {ScoringMode: contracts.TierMultiplier, Mean: f(0.15)},
			MetricNetMargin:       {ScoringMode: contracts.TierDisabled},
			MetricDebtToEquity:    {ScoringMode: contracts.TierMultiplier, Mean: f(0.5), InverseMetric: true},
		},
	}}
}

func hasWarning(list []contracts.MetricWarning, metric, contains string) bool {
	for _, w := range list {
		if w.Metric == metric && strings.Contains(w.Message, contains) {
			return true
		}
	}
	return false
}
