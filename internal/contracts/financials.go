package contracts

import "time"

// StatementType identifies a financial statement family
type StatementType string

const (
	StatementIncome   StatementType = "income"
	StatementBalance  StatementType = "balance"
	StatementCashFlow StatementType = "cashflow"
)

// Period types
const (
	PeriodFY      = "FY"
	PeriodQuarter = "Q"
	PeriodTTM     = "TTM"
)

// Statement is any financial statement period whose fields can be looked
// up by their unprefixed name (e.g. "revenue").
type Statement interface {
	PeriodID() string
	Lookup(name string) Field
}

// IncomeStatement is one income statement period
type IncomeStatement struct {
	Period            string `json:"std_period"`
	PeriodType        string `json:"std_period_type"`
	Revenue           Field  `json:"std_revenue"`
	CostOfRevenue     Field  `json:"std_cost_of_revenue"`
	GrossProfit       Field  `json:"std_gross_profit"`
	OperatingExpenses Field  `json:"std_operating_expenses"`
	OperatingIncome   Field  `json:"std_operating_income"`
	PretaxIncome      Field  `json:"std_pretax_income"`
	InterestExpense   Field  `json:"std_interest_expense"`
	IncomeTaxExpense  Field  `json:"std_income_tax_expense"`
	NetIncome         Field  `json:"std_net_income"`
	EPS               Field  `json:"std_eps"`
	EPSDiluted        Field  `json:"std_eps_diluted"`
	SharesOutstanding Field  `json:"std_shares_outstanding"`
	EBITDA            Field  `json:"std_ebitda"`
}

// PeriodID returns the period label
func (s IncomeStatement) PeriodID() string { return s.Period }

// Lookup returns the named field
func (s IncomeStatement) Lookup(name string) Field {
	switch name {
	case "revenue":
		return s.Revenue
	case "cost_of_revenue":
		return s.CostOfRevenue
	case "gross_profit":
		return s.GrossProfit
	case "operating_expenses":
		return s.OperatingExpenses
	case "operating_income":
		return s.OperatingIncome
	case "pretax_income":
		return s.PretaxIncome
	case "interest_expense":
		return s.InterestExpense
	case "income_tax_expense":
		return s.IncomeTaxExpense
	case "net_income":
		return s.NetIncome
	case "eps":
		return s.EPS
	case "eps_diluted":
		return s.EPSDiluted
	case "shares_outstanding":
		return s.SharesOutstanding
	case "ebitda":
		return s.EBITDA
	}
	return Field{}
}

// BalanceSheet is one balance sheet period
type BalanceSheet struct {
	Period             string `json:"std_period"`
	PeriodType         string `json:"std_period_type"`
	TotalAssets        Field  `json:"std_total_assets"`
	CurrentAssets      Field  `json:"std_current_assets"`
	Cash               Field  `json:"std_cash"`
	AccountsReceivable Field  `json:"std_accounts_receivable"`
	Inventory          Field  `json:"std_inventory"`
	TotalLiabilities   Field  `json:"std_total_liabilities"`
	CurrentLiabilities Field  `json:"std_current_liabilities"`
	TotalDebt          Field  `json:"std_total_debt"`
	ShareholderEquity  Field  `json:"std_shareholder_equity"`
}

// PeriodID returns the period label
func (s BalanceSheet) PeriodID() string { return s.Period }

// Lookup returns the named field
func (s BalanceSheet) Lookup(name string) Field {
	switch name {
	case "total_assets":
		return s.TotalAssets
	case "current_assets":
		return s.CurrentAssets
	case "cash":
		return s.Cash
	case "accounts_receivable":
		return s.AccountsReceivable
	case "inventory":
		return s.Inventory
	case "total_liabilities":
		return s.TotalLiabilities
	case "current_liabilities":
		return s.CurrentLiabilities
	case "total_debt":
		return s.TotalDebt
	case "shareholder_equity":
		return s.ShareholderEquity
	}
	return Field{}
}

// CashFlowStatement is one cash flow statement period
type CashFlowStatement struct {
	Period                 string `json:"std_period"`
	PeriodType             string `json:"std_period_type"`
	OperatingCashFlow      Field  `json:"std_operating_cash_flow"`
	InvestingCashFlow      Field  `json:"std_investing_cash_flow"`
	FinancingCashFlow      Field  `json:"std_financing_cash_flow"`
	Capex                  Field  `json:"std_capex"`
	FreeCashFlow           Field  `json:"std_free_cash_flow"`
	StockBasedCompensation Field  `json:"std_stock_based_compensation"`
	DividendsPaid          Field  `json:"std_dividends_paid"`
	RepurchaseOfStock      Field  `json:"std_repurchase_of_stock"`
}

// PeriodID returns the period label
func (s CashFlowStatement) PeriodID() string { return s.Period }

// Lookup returns the named field
func (s CashFlowStatement) Lookup(name string) Field {
	switch name {
	case "operating_cash_flow":
		return s.OperatingCashFlow
	case "investing_cash_flow":
		return s.InvestingCashFlow
	case "financing_cash_flow":
		return s.FinancingCashFlow
	case "capex":
		return s.Capex
	case "free_cash_flow":
		return s.FreeCashFlow
	case "stock_based_compensation":
		return s.StockBasedCompensation
	case "dividends_paid":
		return s.DividendsPaid
	case "repurchase_of_stock":
		return s.RepurchaseOfStock
	}
	return Field{}
}

// FieldMap is a statement given as a plain name → field mapping.
// Keys may carry the "std_" prefix.
type FieldMap map[string]Field

// PeriodID is always empty; a plain mapping carries no period label
func (m FieldMap) PeriodID() string { return "" }

// Lookup returns the named field, trying the prefixed key as well
func (m FieldMap) Lookup(name string) Field {
	if f, ok := m[name]; ok {
		return f
	}
	return m["std_"+name]
}

// CompanyProfile holds descriptive and market fields for a company
type CompanyProfile struct {
	Symbol            string    `json:"std_symbol,omitempty"`
	CompanyName       TextField `json:"std_company_name"`
	Industry          TextField `json:"std_industry"`
	Sector            TextField `json:"std_sector"`
	MarketCap         Field     `json:"std_market_cap"`
	Beta              Field     `json:"std_beta"`
	SharesOutstanding Field     `json:"std_shares_outstanding"`
	ForwardEPS        Field     `json:"std_forward_eps"`
	TrailingEPS       Field     `json:"std_trailing_eps"`
	ForwardPE         Field     `json:"std_forward_pe"`
	PEGRatio          Field     `json:"std_peg_ratio"`
	EarningsGrowth    Field     `json:"std_earnings_growth"`
	PERatio           Field     `json:"std_pe_ratio"`
	PBRatio           Field     `json:"std_pb_ratio"`
	PSRatio           Field     `json:"std_ps_ratio"`
	BookValuePerShare Field     `json:"std_book_value_per_share"`
	DividendYield     Field     `json:"std_dividend_yield"`
}

// AnalystTargets holds analyst price targets
type AnalystTargets struct {
	PriceTargetLow       Field `json:"std_price_target_low"`
	PriceTargetHigh      Field `json:"std_price_target_high"`
	PriceTargetAvg       Field `json:"std_price_target_avg"`
	PriceTargetConsensus Field `json:"std_price_target_consensus"`
	NumberOfAnalysts     Field `json:"std_number_of_analysts"`
}

// StockData is the full input snapshot for one symbol.
// Statement lists are ordered most recent first.
type StockData struct {
	Symbol           string              `json:"symbol"`
	LastUpdated      *Timestamp          `json:"last_updated,omitempty"`
	Profile          *CompanyProfile     `json:"profile"`
	PriceHistory     []PriceRecord       `json:"price_history"`
	IncomeStatements []IncomeStatement   `json:"income_statements"`
	BalanceSheets    []BalanceSheet      `json:"balance_sheets"`
	CashFlows        []CashFlowStatement `json:"cash_flows"`
	AnalystTargets   *AnalystTargets     `json:"analyst_targets"`
}

// Sector returns the raw profile sector
func (d *StockData) Sector() (string, bool) {
	if d.Profile == nil {
		return "", false
	}
	return d.Profile.Sector.Get()
}

// IncomeStatementList adapts statements to the Statement interface
func (d *StockData) IncomeStatementList() []Statement {
	out := make([]Statement, len(d.IncomeStatements))
	for i, s := range d.IncomeStatements {
		out[i] = s
	}
	return out
}

// BalanceSheetList adapts statements to the Statement interface
func (d *StockData) BalanceSheetList() []Statement {
	out := make([]Statement, len(d.BalanceSheets))
	for i, s := range d.BalanceSheets {
		out[i] = s
	}
	return out
}

// CashFlowList adapts statements to the Statement interface
func (d *StockData) CashFlowList() []Statement {
	out := make([]Statement, len(d.CashFlows))
	for i, s := range d.CashFlows {
		out[i] = s
	}
	return out
}

// ParsePeriodDate extracts the calendar date from a period label such as
// "2024-09-28" or "TTM-2024-09-28".
func ParsePeriodDate(period string) (time.Time, bool) {
	if len(period) > 4 && period[:4] == "TTM-" {
		period = period[4:]
	}
	t, err := time.Parse("2006-01-02", period)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
