package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/wonny/equityscore/internal/brain"
	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/internal/s0_data/quality"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 1)

	errorBoxStyle = boxStyle.
			BorderForeground(lipgloss.Color("#EF4444"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printBox renders a titled summary box
func printBox(w io.Writer, title, body string, failed bool) {
	style := boxStyle
	if failed {
		style = errorBoxStyle
	}
	fmt.Fprintln(w, titleStyle.Render(title))
	fmt.Fprintln(w, style.Render(strings.TrimRight(body, "\n")))
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) {
	fmt.Fprintln(w, successStyle.Render("✅ "+message))
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) {
	fmt.Fprintln(w, warningStyle.Render("⚠️  "+message))
}

// PrintError prints an error message
func PrintError(w io.Writer, message string) {
	fmt.Fprintln(w, errorStyle.Render("❌ "+message))
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(w io.Writer, key string, value string, keyWidth int) {
	fmt.Fprintf(w, "   %-*s : %s\n", keyWidth, key, value)
}

// PrintTable prints aligned columns with a rule under the header
func PrintTable(w io.Writer, columns []string, widths []int, rows [][]string) {
	line := func(values []string) {
		for i, val := range values {
			fmt.Fprintf(w, "%-*s", widths[i], val)
			if i < len(values)-1 {
				fmt.Fprint(w, "  ")
			}
		}
		fmt.Fprintln(w)
	}

	line(columns)
	total := 0
	for i, width := range widths {
		total += width
		if i < len(widths)-1 {
			total += 2
		}
	}
	fmt.Fprintln(w, mutedStyle.Render(strings.Repeat("─", total)))
	for _, row := range rows {
		line(row)
	}
}

func printTechnical(w io.Writer, symbol string, score *contracts.CompositeScore) {
	printBox(w, "Technical · "+symbol, score.Summary(), score.Error)
}

func printFundamentals(w io.Writer, symbol string, score *contracts.FinancialScore) {
	printBox(w, "Fundamentals · "+symbol, score.Summary(), score.Error)
}

func printValuation(w io.Writer, report *contracts.ValuationReport) {
	printBox(w, "Valuation · "+report.Ticker, report.Summary(), report.Failed())
}

func printValidation(w io.Writer, result *contracts.OverallValidationResult, missing contracts.MissingFieldsSummary) {
	var b strings.Builder
	fmt.Fprintf(&b, "Complete           : %t\n", result.IsComplete)
	fmt.Fprintf(&b, "Periods validated  : %d (incomplete %d)\n", result.TotalPeriodsValidated, result.IncompletePeriods)
	fmt.Fprintf(&b, "Avg completeness   : %.1f%%\n", result.AverageCompleteness*100)
	if len(missing.Required) > 0 {
		fmt.Fprintf(&b, "Missing required   : %s\n", strings.Join(missing.Required, ", "))
	}
	if len(missing.Important) > 0 {
		fmt.Fprintf(&b, "Missing important  : %s\n", strings.Join(missing.Important, ", "))
	}
	printBox(w, "Validation · "+result.Symbol, b.String(), !result.IsComplete)
}

// printRun prints every stage a single run completed
func printRun(w io.Writer, r *brain.RunResult) {
	if !r.Success {
		PrintError(w, fmt.Sprintf("%s: %s", r.Symbol, r.Error))
		return
	}
	if r.Validation != nil {
		printValidation(w, r.Validation, quality.MissingFields(r.Validation))
	}
	if r.Fundamentals != nil {
		printFundamentals(w, r.Symbol, r.Fundamentals)
	}
	if r.Technical != nil {
		printTechnical(w, r.Symbol, r.Technical)
	}
	if r.Valuation != nil {
		printValuation(w, r.Valuation)
	}
	for _, f := range r.ReportFiles {
		fmt.Fprintln(w, mutedStyle.Render("saved "+f))
	}
	PrintSuccess(w, fmt.Sprintf("%s done in %s (run %s)", r.Symbol, r.Duration.Round(time.Millisecond), r.RunID))
}

func printBatch(w io.Writer, res *brain.BatchResult) {
	rows := make([][]string, 0, len(res.Results))
	for _, r := range res.Results {
		fund, tech, fair, status := "-", "-", "-", "ok"
		if r.Fundamentals != nil && !r.Fundamentals.Error {
			fund = fmt.Sprintf("%.1f", r.Fundamentals.TotalScore)
		}
		if r.Technical != nil && !r.Technical.Error {
			tech = fmt.Sprintf("%.1f", r.Technical.TotalScore)
		}
		if r.Valuation != nil && r.Valuation.WeightedFairValue != nil {
			fair = fmt.Sprintf("%.2f", *r.Valuation.WeightedFairValue)
			if r.Valuation.PriceDifferencePct != nil {
				fair += fmt.Sprintf(" (%+.1f%%)", *r.Valuation.PriceDifferencePct)
			}
		}
		if !r.Success {
			status = r.Error
		}
		rows = append(rows, []string{r.Symbol, fund, tech, fair, status})
	}
	PrintTable(w, []string{"SYMBOL", "FUND", "TECH", "FAIR VALUE", "STATUS"}, []int{8, 6, 6, 20, 30}, rows)
	fmt.Fprintln(w)
	summary := fmt.Sprintf("%d succeeded, %d failed in %s (run %s)", res.Succeeded, res.Failed, res.Duration.Round(time.Millisecond), res.RunID)
	if res.Failed > 0 {
		PrintWarning(w, summary)
	} else {
		PrintSuccess(w, summary)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
