package contracts

import (
	"fmt"
	"sort"
	"strings"
)

// Method statuses
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// ValuationMethodResult is the outcome of one valuation model
type ValuationMethodResult struct {
	ModelName        string   `json:"model_name"`
	FairValue        *float64 `json:"fair_value"`
	Weight           float64  `json:"weight"`
	UpsidePct        *float64 `json:"upside_pct"`
	Status           string   `json:"status"`
	Reason           string   `json:"reason,omitempty"`
	IndustryMultiple *float64 `json:"industry_multiple,omitempty"`
}

// Succeeded reports whether the model produced a fair value
func (m ValuationMethodResult) Succeeded() bool {
	return m.Status == StatusSuccess && m.FairValue != nil
}

// Confidence describes how much of the sector weighting was usable
type Confidence struct {
	MethodsUsed      int     `json:"methods_used"`
	MethodsAvailable int     `json:"methods_available"`
	TotalWeightUsed  float64 `json:"total_weight_used"`
}

// ValuationReport is the blended fair value of one stock.
// A non-empty Error means WeightedFairValue is nil.
type ValuationReport struct {
	Ticker             string                           `json:"ticker"`
	Sector             string                           `json:"sector,omitempty"`
	NormalizedSector   string                           `json:"normalized_sector,omitempty"`
	CurrentPrice       *float64                         `json:"current_price"`
	MethodResults      map[string]ValuationMethodResult `json:"method_results"`
	WeightedFairValue  *float64                         `json:"weighted_fair_value"`
	PriceDifferencePct *float64                         `json:"price_difference_pct"`
	Confidence         *Confidence                      `json:"confidence,omitempty"`
	Error              string                           `json:"error,omitempty"`
	ValuationDate      string                           `json:"valuation_date"`
}

// Failed reports whether the report carries an error
func (r *ValuationReport) Failed() bool {
	return r.Error != ""
}

// Summary renders a plain-text breakdown
func (r *ValuationReport) Summary() string {
	rule := strings.Repeat("-", 60)
	var b strings.Builder
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "VALUATION SUMMARY: %s\n", r.Ticker)
	b.WriteString(rule + "\n")
	if r.Sector != "" {
		fmt.Fprintf(&b, "Sector: %s", r.Sector)
		if r.NormalizedSector != "" && r.NormalizedSector != r.Sector {
			fmt.Fprintf(&b, " (%s)", r.NormalizedSector)
		}
		b.WriteString("\n")
	}
	if r.CurrentPrice != nil {
		fmt.Fprintf(&b, "Current Price: $%.2f\n", *r.CurrentPrice)
	}

	if len(r.MethodResults) > 0 {
		b.WriteString("\nMethods:\n")
		keys := make([]string, 0, len(r.MethodResults))
		for k := range r.MethodResults {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			m := r.MethodResults[k]
			if m.Succeeded() {
				fmt.Fprintf(&b, "  %-24s : $%10.2f  weight %3.0f%%  upside %+6.1f%%\n",
					m.ModelName, *m.FairValue, m.Weight*100, derefOr(m.UpsidePct, 0))
			} else {
				fmt.Fprintf(&b, "  %-24s : %s\n", m.ModelName, m.Reason)
			}
		}
	}

	b.WriteString("\n")
	if r.Failed() {
		fmt.Fprintf(&b, "ERROR: %s\n", r.Error)
	} else if r.WeightedFairValue != nil {
		fmt.Fprintf(&b, "Weighted Fair Value: $%.2f\n", *r.WeightedFairValue)
		fmt.Fprintf(&b, "Price Difference: %+.1f%%\n", derefOr(r.PriceDifferencePct, 0))
		if r.Confidence != nil {
			fmt.Fprintf(&b, "Confidence: %d/%d methods, weight %.2f\n",
				r.Confidence.MethodsUsed, r.Confidence.MethodsAvailable, r.Confidence.TotalWeightUsed)
		}
	}
	b.WriteString(rule)
	return b.String()
}

func derefOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// ValuationFile is the persisted form of a ValuationReport
type ValuationFile struct {
	Metadata  ReportMetadata   `json:"metadata"`
	Valuation *ValuationReport `json:"valuation"`
}
