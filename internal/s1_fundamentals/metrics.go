package s1_fundamentals

import (
	"math"

	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/pkg/logger"
)

// MetricsCalculator derives profitability, growth and capital allocation
// ratios from a snapshot's statements (newest first)
type MetricsCalculator struct {
	cfg    Config
	logger *logger.Logger
}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator(cfg Config, log *logger.Logger) *MetricsCalculator {
	return &MetricsCalculator{cfg: cfg, logger: log}
}

// Calculate runs all three metric groups
func (c *MetricsCalculator) Calculate(data *contracts.StockData) *contracts.FinancialMetrics {
	w := &warnings{logger: c.logger}
	m := &contracts.FinancialMetrics{
		Profitability:     c.profitability(data, w),
		Growth:            c.growth(data, w),
		CapitalAllocation: c.capitalAllocation(data, w),
	}
	m.Warnings = w.list
	if m.Warnings == nil {
		m.Warnings = []contracts.MetricWarning{}
	}
	return m
}

func (c *MetricsCalculator) bounds(metric string) (MetricBounds, bool) {
	b, ok := c.cfg.Bounds[metric]
	return b, ok
}

// latestAnnual prefers the first FY/TTM pair and falls back to the newest
// statements when none exist
func (c *MetricsCalculator) latestAnnual(data *contracts.StockData) (*contracts.IncomeStatement, *contracts.BalanceSheet) {
	var inc *contracts.IncomeStatement
	for i := range data.IncomeStatements {
		if annual(data.IncomeStatements[i].PeriodType) {
			inc = &data.IncomeStatements[i]
			break
		}
	}
	var bs *contracts.BalanceSheet
	for i := range data.BalanceSheets {
		if annual(data.BalanceSheets[i].PeriodType) {
			bs = &data.BalanceSheets[i]
			break
		}
	}
	if inc == nil || bs == nil {
		c.logger.Warn("No annual or TTM statements, using latest available")
		return &data.IncomeStatements[0], &data.BalanceSheets[0]
	}
	return inc, bs
}

func (c *MetricsCalculator) profitability(data *contracts.StockData, w *warnings) contracts.ProfitabilityMetrics {
	var m contracts.ProfitabilityMetrics
	if len(data.IncomeStatements) == 0 || len(data.BalanceSheets) == 0 {
		w.add("profitability", warnMissing, contracts.SeverityError, "Missing income statements or balance sheets")
		return m
	}
	inc, bs := c.latestAnnual(data)

	opIncome := field(inc.OperatingIncome)
	netIncome := field(inc.NetIncome)
	revenue := field(inc.Revenue)
	equity := field(bs.ShareholderEquity)

	// ROIC = NOPAT / (equity + debt - cash)
	taxRate := w.divide("effective_tax_rate", field(inc.IncomeTaxExpense), field(inc.PretaxIncome))
	if taxRate == nil {
		w.add("ROIC", warnMissing, contracts.SeverityWarning, "Missing effective tax rate")
	} else {
		b, ok := c.bounds("effective_tax_rate")
		w.checkBounds("effective_tax_rate", taxRate, b, ok)
	}
	m.ROICEffectiveTaxRate = taxRate

	// 세율을 모르면 NOPAT도 계산하지 않음
	if opIncome != nil && *opIncome != 0 && taxRate != nil {
		m.ROICNOPAT = ptr(*opIncome * (1 - *taxRate))
	}

	if equity != nil {
		ic := *equity + bs.TotalDebt.Or(0) - bs.Cash.Or(0)
		if ic <= 0 {
			w.addValue("ROIC", warnBounds, contracts.SeverityError, ptr(ic), "Invested capital is %.0f (≤0)", ic)
		} else {
			m.ROICInvestedCapital = ptr(ic)
		}
	} else {
		w.add("ROIC", warnMissing, contracts.SeverityError, "Missing total equity for invested capital metrics")
	}
	m.ROIC = w.divide("ROIC", m.ROICNOPAT, m.ROICInvestedCapital)
	b, ok := c.bounds(MetricROIC)
	w.checkBounds("ROIC", m.ROIC, b, ok)

	// ROE
	if equity != nil && *equity <= 0 {
		w.addValue("ROE", warnCalculation, contracts.SeverityError, ptr(*equity),
			"Shareholders' equity is %.0f (≤0) - company may be insolvent", *equity)
	} else {
		m.ROE = w.divide("ROE", netIncome, equity)
		b, ok := c.bounds(MetricROE)
		w.checkBounds("ROE", m.ROE, b, ok)
	}

	// Gross margin, falling back to revenue - cost of revenue
	gross := field(inc.GrossProfit)
	cost := field(inc.CostOfRevenue)
	switch {
	case gross != nil:
		m.GrossMargin = w.divide(MetricGrossMargin, gross, revenue)
	case cost != nil && revenue != nil:
		m.GrossMargin = w.divide(MetricGrossMargin, ptr(*revenue-*cost), revenue)
		w.add(MetricGrossMargin, warnMissing, contracts.SeverityInfo, "Using calculated gross profit (revenue - cost_of_revenue)")
	default:
		w.add(MetricGrossMargin, warnMissing, contracts.SeverityError, "Insufficient data for gross margin calculation")
	}
	b, ok = c.bounds(MetricGrossMargin)
	w.checkBounds(MetricGrossMargin, m.GrossMargin, b, ok)

	m.NetMargin = w.divide(MetricNetMargin, netIncome, revenue)
	b, ok = c.bounds(MetricNetMargin)
	w.checkBounds(MetricNetMargin, m.NetMargin, b, ok)

	m.OperatingMargin = w.divide(MetricOperatingMargin, opIncome, revenue)

	// 이자비용 0이면 커버리지 무한대, 값 없음으로 처리
	interest := field(inc.InterestExpense)
	if interest != nil && *interest == 0 {
		w.add("interest_coverage", warnCalculation, contracts.SeverityInfo, "Interest expense is 0")
	} else {
		m.InterestCoverage = w.divide("interest_coverage", opIncome, interest)
	}

	return m
}

func (c *MetricsCalculator) growth(data *contracts.StockData, w *warnings) contracts.GrowthMetrics {
	var m contracts.GrowthMetrics

	var income []contracts.IncomeStatement
	for _, s := range data.IncomeStatements {
		if annual(s.PeriodType) {
			income = append(income, s)
		}
	}
	var flows []contracts.CashFlowStatement
	for _, s := range data.CashFlows {
		if annual(s.PeriodType) {
			flows = append(flows, s)
		}
	}
	if len(income) < 5 {
		w.add("growth_general", warnInsufficient, contracts.SeverityWarning,
			"Insufficient annual income statements: %d (Preferred 5)", len(income))
	}
	if len(flows) < 5 {
		w.add("growth_general", warnInsufficient, contracts.SeverityWarning,
			"Insufficient annual cash flows: %d (Preferred 5)", len(flows))
	}

	// 최근 5개 연도, 오래된 순
	if len(income) > 5 {
		income = income[:5]
	}
	if len(flows) > 5 {
		flows = flows[:5]
	}
	revenues := make([]*float64, len(income))
	netIncomes := make([]*float64, len(income))
	for i, s := range income {
		j := len(income) - 1 - i
		revenues[j], netIncomes[j] = field(s.Revenue), field(s.NetIncome)
	}
	ocfs := make([]*float64, len(flows))
	fcfs := make([]*float64, len(flows))
	for i, s := range flows {
		j := len(flows) - 1 - i
		ocfs[j] = field(s.OperatingCashFlow)
		capex := field(s.Capex)
		if ocfs[j] == nil || capex == nil {
			w.add("fcf_cagr", warnMissing, contracts.SeverityWarning, "Missing OCF or CapEx at period %d", j)
			continue
		}
		// capex는 음수로 보고됨
		fcfs[j] = ptr(*ocfs[j] + *capex)
	}

	if len(revenues) >= 2 {
		m.RevenueCAGR5Y = w.timeWeightedCAGR(MetricRevenueCAGR, revenues, c.cfg.CAGRWeights)
	}
	if len(netIncomes) >= 2 {
		m.NetIncomeCAGR5Y = w.timeWeightedCAGR(MetricNetIncomeCAGR, netIncomes, c.cfg.CAGRWeights)
	}
	if len(fcfs) >= 2 {
		m.FCFCAGR5Y = w.timeWeightedCAGR(MetricFCFCAGR, fcfs, c.cfg.CAGRWeights)
		m.FCFLatest = fcfs[len(fcfs)-1]
	}

	if len(ocfs) >= 3 && len(netIncomes) >= 3 {
		m.EarningsQuality3Y = w.averageRatio("earnings_quality", "OCF", "NI",
			newestFirst(ocfs), newestFirst(netIncomes),
			func(i int, r float64) {
				if r < 1 {
					w.addValue("earnings_quality", warnBounds, contracts.SeverityInfo, ptr(r),
						"Year %d: OCF/NI = %.4f (<1.0, cash < profit)", i, r)
				}
			})
	}

	if len(data.CashFlows) > 0 && len(data.BalanceSheets) > 0 {
		fcf := field(data.CashFlows[0].FreeCashFlow)
		if fcf == nil {
			fcf = m.FCFLatest
		}
		debt := field(data.BalanceSheets[0].TotalDebt)
		switch {
		case debt != nil && *debt == 0:
			w.addValue("fcf_to_debt", warnMissing, contracts.SeverityInfo, ptr(0), "Company is debt-free")
			m.DebtFree = true
		default:
			if fcf != nil && *fcf < 0 {
				w.addValue("fcf_to_debt", warnBounds, contracts.SeverityWarning, ptr(*fcf),
					"Negative FCF: %.0f - debt repayment concern", *fcf)
			}
			m.FCFToDebtRatio = w.divide("fcf_to_debt", fcf, debt)
		}
	}

	return m
}

func (c *MetricsCalculator) capitalAllocation(data *contracts.StockData, w *warnings) contracts.CapitalAllocationMetrics {
	var m contracts.CapitalAllocationMetrics

	// 주식수는 기간 유형과 무관하게 최근 5개
	n := len(data.IncomeStatements)
	if n > 5 {
		n = 5
	}
	shares := make([]*float64, n)
	for i := 0; i < n; i++ {
		shares[n-1-i] = field(data.IncomeStatements[i].SharesOutstanding)
	}
	if len(shares) >= 2 {
		m.ShareDilutionCAGR5Y = w.timeWeightedCAGR(MetricShareDilution, shares, c.cfg.CAGRWeights)
		if v := m.ShareDilutionCAGR5Y; v != nil {
			switch {
			case *v < 0:
				w.addValue("share_dilution", warnBounds, contracts.SeverityInfo, ptr(*v),
					"Share count decreased by %.2f%% (buybacks)", math.Abs(*v)*100)
			case *v > 0.05:
				w.addValue("share_dilution", warnBounds, contracts.SeverityWarning, ptr(*v),
					"High dilution: %.2f%% CAGR", *v*100)
			}
		}
	}

	if len(data.CashFlows) >= 3 {
		ocfs := make([]*float64, 3)
		capex := make([]*float64, 3)
		sbc := make([]*float64, 3)
		for i, cf := range data.CashFlows[:3] {
			ocfs[i] = field(cf.OperatingCashFlow)
			if v := field(cf.Capex); v != nil {
				capex[i] = ptr(math.Abs(*v))
			}
			sbc[i] = field(cf.StockBasedCompensation)
		}

		m.CapexIntensity3Y = w.averageRatio("capex_intensity", "CapEx", "OCF", capex, ocfs,
			func(i int, r float64) {
				if r > 1 {
					w.addValue("capex_intensity", warnBounds, contracts.SeverityWarning, ptr(r),
						"Year %d: CapEx (%.0f) exceeds OCF (%.0f)", i, *capex[i], *ocfs[i])
				}
			})
		m.SBCImpact3Y = w.averageRatio("sbc_impact", "SBC", "OCF", sbc, ocfs,
			func(i int, r float64) {
				if r > 0.3 {
					w.addValue("sbc_impact", warnBounds, contracts.SeverityWarning, ptr(r),
						"Year %d: High SBC (%.1f%% of OCF)", i, r*100)
				}
			})
	}

	if len(data.BalanceSheets) > 0 {
		bs := data.BalanceSheets[0]
		equity := field(bs.ShareholderEquity)
		if equity != nil && *equity <= 0 {
			w.addValue(MetricDebtToEquity, warnCalculation, contracts.SeverityError, ptr(*equity),
				"Shareholders' equity is %.0f (≤0) - company may be insolvent", *equity)
		} else {
			m.DebtToEquity = w.divide(MetricDebtToEquity, field(bs.TotalDebt), equity)
		}
	}

	return m
}

func newestFirst(values []*float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		out[len(values)-1-i] = v
	}
	return out
}
