package quality

import (
	"fmt"
	"sort"

	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/pkg/logger"
)

// FieldSet lists the required and important fields of one statement type
type FieldSet struct {
	Required  []string
	Important []string
}

// Total returns the number of classified fields
func (f FieldSet) Total() int {
	return len(f.Required) + len(f.Important)
}

// ⭐ SSOT: 재무제표 필수/중요 필드 분류는 여기서만
var fieldSets = map[contracts.StatementType]FieldSet{
	contracts.StatementIncome: {
		Required: []string{"revenue", "net_income", "operating_income"},
		Important: []string{
			"pretax_income", "income_tax_expense", "gross_profit", "cost_of_revenue",
			"shares_outstanding", "eps", "ebitda",
		},
	},
	contracts.StatementBalance: {
		Required: []string{"shareholder_equity", "total_debt"},
		Important: []string{
			"cash", "total_assets", "total_liabilities", "current_assets", "current_liabilities",
		},
	},
	contracts.StatementCashFlow: {
		Required: []string{"operating_cash_flow", "capex"},
		Important: []string{
			"free_cash_flow", "stock_based_compensation", "investing_cash_flow",
			"financing_cash_flow", "dividends_paid",
		},
	},
}

// FieldsFor returns the classification of a statement type.
// Unknown types classify nothing.
func FieldsFor(t contracts.StatementType) FieldSet {
	return fieldSets[t]
}

// Validator checks financial statement field completeness
// ⭐ SSOT: S0 재무 데이터 완전성 검증
type Validator struct {
	logger *logger.Logger
}

// NewValidator creates a new field validator
func NewValidator(log *logger.Logger) *Validator {
	return &Validator{logger: log}
}

// ValidateStatement checks one statement period against its field set
func (v *Validator) ValidateStatement(stmt contracts.Statement, t contracts.StatementType) contracts.FieldValidationResult {
	fields := FieldsFor(t)

	period := "unknown"
	if stmt != nil && stmt.PeriodID() != "" {
		period = stmt.PeriodID()
	}

	result := contracts.FieldValidationResult{
		Period:           period,
		StatementType:    t,
		MissingRequired:  missing(stmt, fields.Required),
		MissingImportant: missing(stmt, fields.Important),
	}

	total := fields.Total()
	if total > 0 {
		filled := total - len(result.MissingRequired) - len(result.MissingImportant)
		result.CompletenessScore = float64(filled) / float64(total)
	} else {
		result.CompletenessScore = 1.0
	}
	result.IsComplete = len(result.MissingRequired) == 0

	return result
}

func missing(stmt contracts.Statement, names []string) []string {
	out := []string{}
	for _, name := range names {
		if stmt == nil || !stmt.Lookup(name).Has() {
			out = append(out, name)
		}
	}
	return out
}

// ValidateAll validates every period of every statement list.
// expectedYears sets the denominator floor of the average (×3 statement types).
func (v *Validator) ValidateAll(
	symbol string,
	incomes, balances, cashflows []contracts.Statement,
	expectedYears int,
) *contracts.OverallValidationResult {
	result := contracts.NewOverallValidationResult(symbol, expectedYears*3)

	groups := []struct {
		label string
		t     contracts.StatementType
		stmts []contracts.Statement
	}{
		{"Income", contracts.StatementIncome, incomes},
		{"Balance", contracts.StatementBalance, balances},
		{"CashFlow", contracts.StatementCashFlow, cashflows},
	}

	for _, g := range groups {
		for _, stmt := range g.stmts {
			r := v.ValidateStatement(stmt, g.t)
			result.Add(r)

			if len(r.MissingRequired) > 0 {
				v.logger.WithFields(map[string]interface{}{
					"symbol":         symbol,
					"period":         r.Period,
					"statement_type": string(g.t),
					"missing":        r.MissingRequired,
				}).Warn(fmt.Sprintf("%s [%s] %s: Missing required fields: %v", symbol, r.Period, g.label, r.MissingRequired))
			}
		}
	}

	fields := map[string]interface{}{
		"symbol":               symbol,
		"periods_validated":    result.TotalPeriodsValidated,
		"incomplete_periods":   result.IncompletePeriods,
		"average_completeness": result.AverageCompleteness,
	}
	if result.IsComplete {
		v.logger.WithFields(fields).Info(fmt.Sprintf("%s: All required fields present (completeness: %.1f%%)",
			symbol, result.AverageCompleteness*100))
	} else {
		v.logger.WithFields(fields).Warn(fmt.Sprintf("%s: Incomplete data - %d/%d periods missing required fields",
			symbol, result.IncompletePeriods, result.TotalPeriodsValidated))
	}

	return result
}

// ValidateStock validates the statements carried by a snapshot
func (v *Validator) ValidateStock(data *contracts.StockData, expectedYears int) *contracts.OverallValidationResult {
	return v.ValidateAll(
		data.Symbol,
		data.IncomeStatementList(),
		data.BalanceSheetList(),
		data.CashFlowList(),
		expectedYears,
	)
}

// MissingFields returns the sorted union of missing field names
func MissingFields(result *contracts.OverallValidationResult) contracts.MissingFieldsSummary {
	required := map[string]struct{}{}
	important := map[string]struct{}{}
	for _, r := range result.PeriodResults {
		for _, f := range r.MissingRequired {
			required[f] = struct{}{}
		}
		for _, f := range r.MissingImportant {
			important[f] = struct{}{}
		}
	}
	return contracts.MissingFieldsSummary{
		Required:  sortedKeys(required),
		Important: sortedKeys(important),
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
