package s3_valuation

import (
	"fmt"
	"math"
	"sort"

	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/pkg/numeric"
)

// ModelKind identifies one of the fixed valuation models
type ModelKind string

const (
	ModelPE         ModelKind = "pe"
	ModelPB         ModelKind = "pb"
	ModelPS         ModelKind = "ps"
	ModelEVEBITDA   ModelKind = "ev_ebitda"
	ModelAnalyst    ModelKind = "analyst"
	ModelDCF        ModelKind = "dcf"
	ModelDDM        ModelKind = "ddm"
	ModelGraham     ModelKind = "graham"
	ModelPeterLynch ModelKind = "peter_lynch"
	ModelPEG        ModelKind = "peg"
)

// AllModels lists every model in evaluation order
var AllModels = []ModelKind{
	ModelPE, ModelPB, ModelPS, ModelEVEBITDA, ModelAnalyst,
	ModelDCF, ModelDDM, ModelGraham, ModelPeterLynch, ModelPEG,
}

// DisplayName is the human readable model name
func (k ModelKind) DisplayName() string {
	switch k {
	case ModelPE:
		return "PE Valuation"
	case ModelPB:
		return "PB Valuation"
	case ModelPS:
		return "PS Valuation"
	case ModelEVEBITDA:
		return "EV/EBITDA Valuation"
	case ModelAnalyst:
		return "Analyst Median"
	case ModelDCF:
		return "DCF Model"
	case ModelDDM:
		return "DDM (Dividend)"
	case ModelGraham:
		return "Graham Number"
	case ModelPeterLynch:
		return "Peter Lynch Fair Value"
	case ModelPEG:
		return "PEG Valuation"
	}
	return string(k)
}

// Valid reports whether k is one of AllModels
func (k ModelKind) Valid() bool {
	for _, m := range AllModels {
		if m == k {
			return true
		}
	}
	return false
}

// Estimate is a model outcome: a positive fair value or the reason there is none
type Estimate struct {
	FairValue float64
	Reason    string
}

// Available reports whether the estimate carries a usable fair value
func (e Estimate) Available() bool {
	return e.Reason == "" && numeric.Finite(e.FairValue) && e.FairValue > 0
}

func value(v float64) Estimate {
	if !numeric.Finite(v) {
		return unavailable("Fair value is not finite")
	}
	if v <= 0 {
		return unavailable("Non-positive fair value (%.2f)", v)
	}
	return Estimate{FairValue: v}
}

func unavailable(format string, args ...interface{}) Estimate {
	return Estimate{Reason: fmt.Sprintf(format, args...)}
}

// Input is everything a model may read for one stock
type Input struct {
	Data   *contracts.StockData
	Bench  SectorBenchmark
	Sector string
	Price  float64
}

func (in *Input) latestIncome() (*contracts.IncomeStatement, bool) {
	if len(in.Data.IncomeStatements) == 0 {
		return nil, false
	}
	return &in.Data.IncomeStatements[0], true
}

func (in *Input) latestBalance() (*contracts.BalanceSheet, bool) {
	if len(in.Data.BalanceSheets) == 0 {
		return nil, false
	}
	return &in.Data.BalanceSheets[0], true
}

func (in *Input) shares() (float64, bool) {
	inc, ok := in.latestIncome()
	if !ok {
		return 0, false
	}
	return inc.SharesOutstanding.Positive()
}

// impliedShares derives the count as market cap / price, then falls back to
// the profile's own share count
func (in *Input) impliedShares() (float64, bool) {
	p := in.Data.Profile
	if p == nil {
		return 0, false
	}
	if mc, ok := p.MarketCap.Positive(); ok && in.Price > 0 {
		return mc / in.Price, true
	}
	return p.SharesOutstanding.Positive()
}

// netDebt treats missing debt or cash as zero
func netDebt(bs *contracts.BalanceSheet) float64 {
	return bs.TotalDebt.Or(0) - bs.Cash.Or(0)
}

// beta: stock → industry mean → default
func (in *Input) beta(cfg Config) float64 {
	if in.Data.Profile != nil {
		if b, ok := in.Data.Profile.Beta.Positive(); ok {
			return b
		}
	}
	if b, ok := in.Bench.Metrics.Beta.Mean.Positive(); ok {
		return b
	}
	return cfg.DefaultBeta
}

// requiredReturn is the CAPM cost of equity
func requiredReturn(cfg Config, beta float64) float64 {
	return cfg.RiskFreeRate + beta*(cfg.MarketReturn-cfg.RiskFreeRate)
}

type modelFunc func(cfg Config, in *Input) Estimate

var modelFuncs = map[ModelKind]modelFunc{
	ModelPE:         peModel,
	ModelPB:         pbModel,
	ModelPS:         psModel,
	ModelEVEBITDA:   evEBITDAModel,
	ModelAnalyst:    analystModel,
	ModelDCF:        dcfModel,
	ModelDDM:        ddmModel,
	ModelGraham:     grahamModel,
	ModelPeterLynch: peterLynchModel,
	ModelPEG:        pegModel,
}

// Evaluate runs one model
func Evaluate(kind ModelKind, cfg Config, in *Input) Estimate {
	fn, ok := modelFuncs[kind]
	if !ok {
		return unavailable("Unknown model: %s", kind)
	}
	return fn(cfg, in)
}

// fair value = EPS × industry PE (forward, else current)
func peModel(cfg Config, in *Input) Estimate {
	inc, ok := in.latestIncome()
	if !ok {
		return unavailable("No income statements available")
	}
	eps, ok := inc.EPSDiluted.Get()
	if !ok {
		eps, ok = inc.EPS.Get()
	}
	if !ok {
		return unavailable("No EPS data (Basic or Diluted)")
	}
	if eps <= 0 {
		return unavailable("Negative or zero EPS (%.2f)", eps)
	}

	multiples := in.Bench.Metrics.ValuationMultiples
	pe, ok := multiples.PEForward.Positive()
	if !ok {
		pe, ok = multiples.PECurrent.Positive()
	}
	if !ok {
		return unavailable("No valid industry P/E ratio for %s", in.Sector)
	}
	return value(eps * pe)
}

// fair value = book value per share × industry PB
func pbModel(cfg Config, in *Input) Estimate {
	bs, ok := in.latestBalance()
	if !ok {
		return unavailable("No balance sheets available")
	}
	equity, ok := bs.ShareholderEquity.Get()
	if !ok {
		return unavailable("No shareholders' equity data")
	}
	inc, ok := in.latestIncome()
	if !ok {
		return unavailable("No income statements for shares count")
	}
	shares, ok := inc.SharesOutstanding.Get()
	if !ok {
		return unavailable("No shares outstanding data")
	}
	if shares <= 0 || equity <= 0 {
		return unavailable("Invalid equity (%.0f) or shares (%.0f)", equity, shares)
	}

	pb, ok := in.Bench.Metrics.ValuationMultiples.PBRatio.Positive()
	if !ok {
		return unavailable("No valid industry P/B ratio for %s", in.Sector)
	}
	return value(equity / shares * pb)
}

// fair value = sales per share × industry PS
func psModel(cfg Config, in *Input) Estimate {
	inc, ok := in.latestIncome()
	if !ok {
		return unavailable("No income statements available")
	}
	revenue, ok := inc.Revenue.Get()
	if !ok {
		return unavailable("No revenue data")
	}
	shares, ok := inc.SharesOutstanding.Get()
	if !ok {
		return unavailable("No shares outstanding data")
	}
	if shares <= 0 || revenue <= 0 {
		return unavailable("Invalid revenue (%.0f) or shares (%.0f)", revenue, shares)
	}

	ps, ok := in.Bench.Metrics.ValuationMultiples.PSRatio.Positive()
	if !ok {
		return unavailable("No valid industry P/S ratio for %s", in.Sector)
	}
	return value(revenue / shares * ps)
}

// fair value = (EBITDA × industry EV/EBITDA − net debt) / shares
func evEBITDAModel(cfg Config, in *Input) Estimate {
	inc, ok := in.latestIncome()
	if !ok {
		return unavailable("No income statements available")
	}
	ebitda, ok := inc.EBITDA.Get()
	if !ok {
		return unavailable("No EBITDA data")
	}
	if ebitda <= 0 {
		return unavailable("Negative or zero EBITDA (%.0f)", ebitda)
	}

	multiple, ok := in.Bench.Metrics.ValuationMultiples.EVEBITDA.Positive()
	if !ok {
		return unavailable("No valid industry EV/EBITDA ratio for %s", in.Sector)
	}

	bs, ok := in.latestBalance()
	if !ok {
		return unavailable("No balance sheets available")
	}
	shares, ok := in.shares()
	if !ok {
		return unavailable("No valid shares outstanding")
	}

	equity := ebitda*multiple - netDebt(bs)
	return value(equity / shares)
}

// fair value = analyst consensus target
func analystModel(cfg Config, in *Input) Estimate {
	if in.Data.AnalystTargets == nil {
		return unavailable("No analyst targets available")
	}
	target, ok := in.Data.AnalystTargets.PriceTargetConsensus.Positive()
	if !ok {
		return unavailable("Invalid analyst consensus target")
	}
	return value(target)
}

// five-year FCF projection plus Gordon terminal value, discounted at CAPM
func dcfModel(cfg Config, in *Input) Estimate {
	if len(in.Data.CashFlows) == 0 {
		return unavailable("No cash flow statements")
	}
	fcf, ok := in.Data.CashFlows[0].FreeCashFlow.Get()
	if !ok {
		return unavailable("No FCF data")
	}
	if fcf <= 0 {
		return unavailable("Negative or zero FCF (%.0f)", fcf)
	}

	wacc := requiredReturn(cfg, in.beta(cfg))
	g := cfg.TerminalGrowth
	if wacc <= g {
		return unavailable("WACC (%.1f%%) not above terminal growth (%.1f%%)", wacc*100, g*100)
	}

	years := cfg.ProjectionYears
	var pv float64
	for year := 1; year <= years; year++ {
		pv += fcf * math.Pow(1+g, float64(year)) / math.Pow(1+wacc, float64(year))
	}
	terminal := fcf * math.Pow(1+g, float64(years+1)) / (wacc - g)
	pv += terminal / math.Pow(1+wacc, float64(years))

	bs, ok := in.latestBalance()
	if !ok {
		return unavailable("No balance sheet for debt adjustment")
	}
	shares, ok := in.shares()
	if !ok {
		return unavailable("No valid shares outstanding")
	}
	return value((pv - netDebt(bs)) / shares)
}

// Gordon growth: D1 / (r − g)
func ddmModel(cfg Config, in *Input) Estimate {
	var flows []contracts.CashFlowStatement
	for _, cf := range in.Data.CashFlows {
		if cf.Period != "" {
			flows = append(flows, cf)
		}
	}
	if len(flows) == 0 {
		return unavailable("No cash flow statements for dividend data")
	}
	sort.SliceStable(flows, func(i, j int) bool { return flows[i].Period > flows[j].Period })
	if len(flows) > 2 {
		flows = flows[:2]
	}

	var paid float64
	for _, cf := range flows {
		if d, ok := cf.DividendsPaid.Get(); ok && d != 0 {
			paid = math.Abs(d)
			break
		}
	}
	if paid == 0 {
		return unavailable("No dividend payments in the latest two periods")
	}

	shares, ok := in.shares()
	if !ok {
		return unavailable("No valid shares outstanding")
	}
	dps := paid / shares

	g, ok := dividendGrowth(cfg, flows)
	if !ok {
		g = cfg.DefaultDividendGrowth
	}
	r := requiredReturn(cfg, in.beta(cfg))
	if g >= r {
		g = cfg.DefaultDividendGrowth
		if g >= r {
			return unavailable("Dividend growth (%.1f%%) not below required return (%.1f%%)", g*100, r*100)
		}
	}

	return value(dps * (1 + g) / (r - g))
}

// dividendGrowth is the latest over prior dividend change, if plausible
func dividendGrowth(cfg Config, flows []contracts.CashFlowStatement) (float64, bool) {
	if len(flows) < 2 {
		return 0, false
	}
	d0, ok0 := flows[0].DividendsPaid.Get()
	d1, ok1 := flows[1].DividendsPaid.Get()
	if !ok0 || !ok1 || d0 == 0 || d1 == 0 {
		return 0, false
	}
	g := math.Abs(d0)/math.Abs(d1) - 1
	if g < -cfg.MaxDividendGrowth || g > cfg.MaxDividendGrowth {
		return 0, false
	}
	return g, true
}

// sqrt(22.5 × EPS × BVPS)
func grahamModel(cfg Config, in *Input) Estimate {
	inc, ok := in.latestIncome()
	if !ok {
		return unavailable("No income statements available")
	}
	bs, ok := in.latestBalance()
	if !ok {
		return unavailable("No balance sheets available")
	}
	eps, ok := inc.EPSDiluted.Get()
	if !ok {
		return unavailable("No diluted EPS data")
	}
	equity, ok := bs.ShareholderEquity.Get()
	if !ok {
		return unavailable("No shareholders' equity data")
	}

	shares, ok := inc.SharesOutstanding.Positive()
	if !ok {
		shares, ok = in.impliedShares()
	}
	if !ok {
		return unavailable("No valid shares outstanding")
	}

	bvps := equity / shares
	if eps <= 0 || bvps <= 0 {
		return unavailable("Non-positive EPS (%.2f) or BVPS (%.2f)", eps, bvps)
	}
	return value(math.Sqrt(cfg.GrahamMultiplier * eps * bvps))
}

// EPS × min(growth%, cap)
func peterLynchModel(cfg Config, in *Input) Estimate {
	inc, ok := in.latestIncome()
	if !ok {
		return unavailable("No income statements available")
	}
	eps, ok := inc.EPSDiluted.Get()
	if !ok {
		return unavailable("No diluted EPS data")
	}
	if eps <= 0 {
		return unavailable("EPS is non-positive (%.2f), model inapplicable", eps)
	}

	growth, ok := netIncomeCAGR(in.Data.IncomeStatements)
	if !ok && in.Data.Profile != nil {
		growth, ok = in.Data.Profile.EarningsGrowth.Get()
	}
	if !ok {
		return unavailable("Insufficient historical data to calculate growth rate")
	}

	multiplier := math.Min(growth*100, cfg.LynchGrowthCap)
	if multiplier <= 0 {
		return unavailable("Growth rate is non-positive (%.1f%%), model inapplicable", multiplier)
	}
	return value(eps * multiplier)
}

const (
	lynchTargetYears = 5.0
	lynchMinYears    = 2.5
	lynchMaxYears    = 6.5
)

// netIncomeCAGR measures net income growth from the annual statement
// closest to five years before the latest one, within 2.5 to 6.5 years
func netIncomeCAGR(stmts []contracts.IncomeStatement) (float64, bool) {
	if len(stmts) < 2 {
		return 0, false
	}
	latestDate, ok := contracts.ParsePeriodDate(stmts[0].Period)
	if !ok {
		return 0, false
	}
	current, ok := stmts[0].NetIncome.Positive()
	if !ok {
		return 0, false
	}

	var base, baseYears float64
	found := false
	bestDist := math.Inf(1)
	for _, s := range stmts[1:] {
		if !isAnnual(s) {
			continue
		}
		d, ok := contracts.ParsePeriodDate(s.Period)
		if !ok {
			continue
		}
		years := latestDate.Sub(d).Hours() / 24 / 365
		if years < lynchMinYears || years > lynchMaxYears {
			continue
		}
		ni, ok := s.NetIncome.Positive()
		if !ok {
			continue
		}
		if dist := math.Abs(years - lynchTargetYears); dist < bestDist {
			base, baseYears, bestDist, found = ni, years, dist, true
		}
	}
	if !found {
		return 0, false
	}

	cagr := math.Pow(current/base, 1/baseYears) - 1
	if !numeric.Finite(cagr) {
		return 0, false
	}
	return cagr, true
}

func isAnnual(s contracts.IncomeStatement) bool {
	switch s.PeriodType {
	case contracts.PeriodQuarter, contracts.PeriodTTM:
		return false
	}
	return len(s.Period) < 4 || s.Period[:4] != "TTM-"
}

// current price / PEG, PEG clamped
func pegModel(cfg Config, in *Input) Estimate {
	if in.Price <= 0 {
		return unavailable("No valid current price")
	}
	profile := in.Data.Profile
	if profile == nil {
		return unavailable("No company profile")
	}

	peg, ok := profile.PEGRatio.Positive()
	if !ok {
		fpe, okPE := profile.ForwardPE.Positive()
		growth, okG := profile.EarningsGrowth.Get()
		if okPE && okG && growth > 0 {
			peg, ok = fpe/(growth*100), true
		}
	}
	if !ok || peg <= 0 {
		return unavailable("No PEG ratio or earnings growth data")
	}

	peg = numeric.Clamp(peg, cfg.PEGMin, cfg.PEGMax)
	return value(in.Price / peg)
}
