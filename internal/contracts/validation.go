package contracts

// FieldValidationResult is the completeness of one statement period
type FieldValidationResult struct {
	Period            string        `json:"period"`
	StatementType     StatementType `json:"statement_type"`
	IsComplete        bool          `json:"is_complete"`
	MissingRequired   []string      `json:"missing_required"`
	MissingImportant  []string      `json:"missing_important"`
	CompletenessScore float64       `json:"completeness_score"`
}

// OverallValidationResult aggregates period results for one symbol
type OverallValidationResult struct {
	Symbol                string                  `json:"symbol"`
	IsComplete            bool                    `json:"is_complete"`
	TotalPeriodsValidated int                     `json:"total_periods_validated"`
	IncompletePeriods     int                     `json:"incomplete_periods"`
	PeriodResults         []FieldValidationResult `json:"period_results"`
	AverageCompleteness   float64                 `json:"average_completeness"`
	ExpectedPeriods       int                     `json:"expected_periods"`
}

// NewOverallValidationResult creates an empty aggregate
func NewOverallValidationResult(symbol string, expectedPeriods int) *OverallValidationResult {
	return &OverallValidationResult{
		Symbol:          symbol,
		PeriodResults:   []FieldValidationResult{},
		ExpectedPeriods: expectedPeriods,
	}
}

// Add appends a period result and recomputes the average.
// The denominator never drops below ExpectedPeriods.
func (o *OverallValidationResult) Add(r FieldValidationResult) {
	o.PeriodResults = append(o.PeriodResults, r)
	o.TotalPeriodsValidated++
	if !r.IsComplete {
		o.IncompletePeriods++
	}

	total := 0.0
	for _, p := range o.PeriodResults {
		total += p.CompletenessScore
	}
	denominator := len(o.PeriodResults)
	if o.ExpectedPeriods > denominator {
		denominator = o.ExpectedPeriods
	}
	o.AverageCompleteness = total / float64(denominator)
	o.IsComplete = o.IncompletePeriods == 0 && o.TotalPeriodsValidated > 0
}

// MissingFieldsSummary is the de-duplicated union of gaps across periods
type MissingFieldsSummary struct {
	Required  []string `json:"required"`
	Important []string `json:"important"`
}
