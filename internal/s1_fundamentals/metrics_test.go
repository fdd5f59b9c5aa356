package s1_fundamentals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/pkg/logger"
)

func newTestMetrics() *MetricsCalculator {
	return NewMetricsCalculator(DefaultConfig(), logger.Nop())
}

func TestMetrics_SteadyCompany(t *testing.T) {
	m := newTestMetrics().Calculate(steadyCompany("Industrials"))

	p := m.Profitability
	require.NotNil(t, p.ROIC)
	assert.InDelta(t, 0.2, *p.ROICEffectiveTaxRate, 1e-9)
	assert.InDelta(t, 160, *p.ROICNOPAT, 1e-9)
	assert.InDelta(t, 1000, *p.ROICInvestedCapital, 1e-9)
	assert.InDelta(t, 0.16, *p.ROIC, 1e-9)
	assert.InDelta(t, 0.18, *p.ROE, 1e-9)
	assert.InDelta(t, 0.4, *p.GrossMargin, 1e-9)
	assert.InDelta(t, 0.144, *p.NetMargin, 1e-9)
	assert.InDelta(t, 0.2, *p.OperatingMargin, 1e-9)
	assert.InDelta(t, 10, *p.InterestCoverage, 1e-9)

	g := m.Growth
	assert.InDelta(t, 0.13128, *g.RevenueCAGR5Y, 1e-4)
	assert.InDelta(t, 0.09591, *g.NetIncomeCAGR5Y, 1e-4)
	assert.InDelta(t, 0.14469, *g.FCFCAGR5Y, 1e-4)
	assert.InDelta(t, 180, *g.FCFLatest, 1e-9)
	assert.InDelta(t, 1.59402, *g.EarningsQuality3Y, 1e-4)
	assert.InDelta(t, 0.6, *g.FCFToDebtRatio, 1e-9)
	assert.False(t, g.DebtFree)

	c := m.CapitalAllocation
	assert.InDelta(t, -0.01362, *c.ShareDilutionCAGR5Y, 1e-4)
	assert.InDelta(t, 0.24603, *c.CapexIntensity3Y, 1e-4)
	assert.InDelta(t, 0.04921, *c.SBCImpact3Y, 1e-4)
	assert.InDelta(t, 0.375, *c.DebtToEquity, 1e-9)

	assert.True(t, hasWarning(m.Warnings, "share_dilution", "buybacks"))
	for _, w := range m.Warnings {
		assert.NotEqual(t, contracts.SeverityError, w.Severity, w.String())
	}
}

func TestMetrics_EdgeCases(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *contracts.StockData)
		check  func(t *testing.T, m *contracts.FinancialMetrics)
	}{
		{
			name: "negative equity",
			mutate: func(d *contracts.StockData) {
				d.BalanceSheets[0].ShareholderEquity = f(-50)
			},
			check: func(t *testing.T, m *contracts.FinancialMetrics) {
				assert.Nil(t, m.Profitability.ROE)
				assert.Nil(t, m.CapitalAllocation.DebtToEquity)
				assert.True(t, hasWarning(m.Warnings, "ROE", "insolvent"))
				assert.True(t, hasWarning(m.Warnings, MetricDebtToEquity, "insolvent"))
				// IC = -50 + 300 - 100 = 150 so ROIC is above its bound but kept
				require.NotNil(t, m.Profitability.ROIC)
				assert.InDelta(t, 160.0/150, *m.Profitability.ROIC, 1e-9)
				assert.True(t, hasWarning(m.Warnings, "ROIC", "above maximum"))
			},
		},
		{
			name: "non-positive invested capital",
			mutate: func(d *contracts.StockData) {
				d.BalanceSheets[0].Cash = f(1200)
			},
			check: func(t *testing.T, m *contracts.FinancialMetrics) {
				assert.Nil(t, m.Profitability.ROICInvestedCapital)
				assert.Nil(t, m.Profitability.ROIC)
				assert.True(t, hasWarning(m.Warnings, "ROIC", "Invested capital is -100"))
			},
		},
		{
			name: "missing tax leaves NOPAT unset",
			mutate: func(d *contracts.StockData) {
				d.IncomeStatements[0].IncomeTaxExpense = contracts.Field{}
			},
			check: func(t *testing.T, m *contracts.FinancialMetrics) {
				assert.Nil(t, m.Profitability.ROICNOPAT)
				assert.Nil(t, m.Profitability.ROIC)
				assert.True(t, hasWarning(m.Warnings, "ROIC", "Missing effective tax rate"))
			},
		},
		{
			name: "gross profit derived from cost of revenue",
			mutate: func(d *contracts.StockData) {
				d.IncomeStatements[0].GrossProfit = contracts.Field{}
			},
			check: func(t *testing.T, m *contracts.FinancialMetrics) {
				require.NotNil(t, m.Profitability.GrossMargin)
				assert.InDelta(t, 0.4, *m.Profitability.GrossMargin, 1e-9)
				assert.True(t, hasWarning(m.Warnings, MetricGrossMargin, "Using calculated gross profit"))
			},
		},
		{
			name: "zero interest expense",
			mutate: func(d *contracts.StockData) {
				d.IncomeStatements[0].InterestExpense = f(0)
			},
			check: func(t *testing.T, m *contracts.FinancialMetrics) {
				assert.Nil(t, m.Profitability.InterestCoverage)
				assert.True(t, hasWarning(m.Warnings, "interest_coverage", "Interest expense is 0"))
			},
		},
		{
			name: "debt free",
			mutate: func(d *contracts.StockData) {
				d.BalanceSheets[0].TotalDebt = f(0)
			},
			check: func(t *testing.T, m *contracts.FinancialMetrics) {
				assert.True(t, m.Growth.DebtFree)
				assert.Nil(t, m.Growth.FCFToDebtRatio)
				assert.InDelta(t, 0, *m.CapitalAllocation.DebtToEquity, 1e-9)
			},
		},
		{
			name: "reported free cash flow wins over derived",
			mutate: func(d *contracts.StockData) {
				d.CashFlows[0].FreeCashFlow = f(-30)
			},
			check: func(t *testing.T, m *contracts.FinancialMetrics) {
				assert.InDelta(t, -0.1, *m.Growth.FCFToDebtRatio, 1e-9)
				assert.True(t, hasWarning(m.Warnings, "fcf_to_debt", "Negative FCF"))
			},
		},
		{
			name: "short history",
			mutate: func(d *contracts.StockData) {
				d.IncomeStatements = d.IncomeStatements[:2]
				d.CashFlows = d.CashFlows[:2]
			},
			check: func(t *testing.T, m *contracts.FinancialMetrics) {
				assert.True(t, hasWarning(m.Warnings, "growth_general", "Insufficient annual income statements: 2 (Preferred 5)"))
				assert.True(t, hasWarning(m.Warnings, "growth_general", "Insufficient annual cash flows: 2 (Preferred 5)"))
				require.NotNil(t, m.Growth.RevenueCAGR5Y)
				assert.InDelta(t, 1000.0/900-1, *m.Growth.RevenueCAGR5Y, 1e-9)
				assert.Nil(t, m.Growth.EarningsQuality3Y)
				assert.Nil(t, m.CapitalAllocation.CapexIntensity3Y)
				assert.Nil(t, m.CapitalAllocation.SBCImpact3Y)
			},
		},
		{
			name: "quarterly statements are skipped",
			mutate: func(d *contracts.StockData) {
				q := contracts.IncomeStatement{Period: "2025-Q1", PeriodType: contracts.PeriodQuarter, Revenue: f(1), NetIncome: f(1)}
				d.IncomeStatements = append([]contracts.IncomeStatement{q}, d.IncomeStatements...)
			},
			check: func(t *testing.T, m *contracts.FinancialMetrics) {
				assert.InDelta(t, 0.144, *m.Profitability.NetMargin, 1e-9)
				assert.InDelta(t, 0.13128, *m.Growth.RevenueCAGR5Y, 1e-4)
			},
		},
		{
			name: "non-positive base year counts as flat",
			mutate: func(d *contracts.StockData) {
				d.IncomeStatements[4].NetIncome = f(-20)
			},
			check: func(t *testing.T, m *contracts.FinancialMetrics) {
				assert.True(t, hasWarning(m.Warnings, MetricNetIncomeCAGR, "(≤0), using 0% growth"))
				// 첫 해 성장률 0 → 가중 .15 분만 빠짐
				want := (0.15*0 + 0.20*(120.0/110-1) + 0.25*(130.0/120-1) + 0.30*(144.0/130-1)) / 0.9
				assert.InDelta(t, want, *m.Growth.NetIncomeCAGR5Y, 1e-9)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := steadyCompany("Industrials")
			tt.mutate(data)
			tt.check(t, newTestMetrics().Calculate(data))
		})
	}
}

func TestMetrics_NoStatements(t *testing.T) {
	m := newTestMetrics().Calculate(&contracts.StockData{Symbol: "EMPTY"})

	assert.Nil(t, m.Profitability.ROIC)
	assert.Nil(t, m.Growth.RevenueCAGR5Y)
	assert.Nil(t, m.CapitalAllocation.DebtToEquity)
	assert.True(t, hasWarning(m.Warnings, "profitability", "Missing income statements"))
}

func TestTimeWeightedCAGR(t *testing.T) {
	w := &warnings{}
	weights := DefaultConfig().CAGRWeights

	got := w.timeWeightedCAGR("x", []*float64{ptr(100), ptr(110)}, weights)
	require.NotNil(t, got)
	assert.InDelta(t, 0.1, *got, 1e-9)

	// 최근 연도 가중치가 큼
	got = w.timeWeightedCAGR("x", []*float64{ptr(100), ptr(200), ptr(200)}, weights)
	assert.InDelta(t, (0.25*1+0.30*0)/0.55, *got, 1e-9)

	got = w.timeWeightedCAGR("x", []*float64{ptr(100), nil, ptr(100)}, weights)
	assert.InDelta(t, 0, *got, 1e-9)

	assert.Nil(t, w.timeWeightedCAGR("x", []*float64{ptr(100)}, weights))
	assert.True(t, hasWarning(w.list, "x", "Need at least 2 years"))
}
