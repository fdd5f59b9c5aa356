package s1_fundamentals

import (
	"fmt"

	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/pkg/logger"
)

// Warning types
const (
	warnMissing      = "data_missing"
	warnInsufficient = "data_insufficient"
	warnBounds       = "out_of_bounds"
	warnCalculation  = "calculation_error"
	warnNegativeBase = "negative_base"
)

// warnings collects anomalies for one metrics run and mirrors them to the log
type warnings struct {
	list   []contracts.MetricWarning
	logger *logger.Logger
}

func (w *warnings) add(metric, kind, severity, format string, args ...interface{}) {
	w.addValue(metric, kind, severity, nil, format, args...)
}

func (w *warnings) addValue(metric, kind, severity string, value *float64, format string, args ...interface{}) {
	mw := contracts.MetricWarning{
		Metric:   metric,
		Type:     kind,
		Message:  fmt.Sprintf(format, args...),
		Severity: severity,
		Value:    value,
	}
	w.list = append(w.list, mw)
	if w.logger != nil {
		w.logger.WithFields(map[string]interface{}{
			"metric":   metric,
			"type":     kind,
			"severity": severity,
		}).Debug(mw.Message)
	}
}

func ptr(v float64) *float64 { return &v }

// field returns the value as a pointer, nil when absent
func field(f contracts.Field) *float64 {
	if v, ok := f.Get(); ok {
		return &v
	}
	return nil
}

// divide returns nil and records why when either side is missing or the
// denominator is zero
func (w *warnings) divide(metric string, num, den *float64) *float64 {
	switch {
	case num == nil:
		w.add(metric, warnMissing, contracts.SeverityError, "Numerator is None")
		return nil
	case den == nil:
		w.add(metric, warnMissing, contracts.SeverityError, "Denominator is None")
		return nil
	case *den == 0:
		w.add(metric, warnCalculation, contracts.SeverityError, "Division by zero (denominator=%g)", *den)
		return nil
	}
	return ptr(*num / *den)
}

// checkBounds only warns; the value is kept
func (w *warnings) checkBounds(metric string, v *float64, b MetricBounds, ok bool) {
	if v == nil || !ok {
		return
	}
	if *v < b.Min {
		w.addValue(metric, warnBounds, contracts.SeverityWarning, ptr(*v), "Value %.4f below minimum %g", *v, b.Min)
	}
	if *v > b.Max {
		w.addValue(metric, warnBounds, contracts.SeverityWarning, ptr(*v), "Value %.4f above maximum %g", *v, b.Max)
	}
}

// timeWeightedCAGR averages year-over-year growth with the most recent
// years weighted highest. values run oldest to newest; a missing value or a
// non-positive base counts as 0% growth for that year.
func (w *warnings) timeWeightedCAGR(metric string, values []*float64, weights []float64) *float64 {
	if len(values) < 2 {
		w.add(metric, warnMissing, contracts.SeverityError, "Need at least 2 years of data, got %d", len(values))
		return nil
	}

	rates := make([]float64, 0, len(values)-1)
	for i := 0; i+1 < len(values); i++ {
		prev, next := values[i], values[i+1]
		switch {
		case prev == nil || next == nil:
			w.add(metric, warnMissing, contracts.SeverityWarning, "Missing value at year %d or %d", i, i+1)
			rates = append(rates, 0)
		case *prev <= 0:
			w.addValue(metric, warnNegativeBase, contracts.SeverityWarning, ptr(*prev),
				"Year %d base value is %.2f (≤0), using 0%% growth", i, *prev)
			rates = append(rates, 0)
		default:
			rates = append(rates, *next / *prev - 1)
		}
	}

	// 최근 연도일수록 큰 가중치가 오도록 뒤쪽 가중치 사용
	subset := weights
	if len(rates) <= len(weights) {
		subset = weights[len(weights)-len(rates):]
	}
	var total, sum float64
	for i, r := range rates {
		if i >= len(subset) {
			break
		}
		total += subset[i]
		sum += r * subset[i]
	}
	if total == 0 {
		w.add(metric, warnCalculation, contracts.SeverityError, "Total weight is zero")
		return nil
	}
	return ptr(sum / total)
}

// averageRatio averages num/den over aligned periods, skipping gaps and
// zero denominators. The warn callback sees each accepted ratio.
func (w *warnings) averageRatio(metric, numName, denName string, num, den []*float64, warn func(i int, ratio float64)) *float64 {
	if len(num) < 3 || len(den) < 3 {
		w.add(metric, warnMissing, contracts.SeverityError,
			"Need 3 years of data, got %s:%d, %s:%d", numName, len(num), denName, len(den))
		return nil
	}

	var ratios []float64
	for i := 0; i < 3; i++ {
		n, d := num[i], den[i]
		if n == nil || d == nil {
			w.add(metric, warnMissing, contracts.SeverityWarning, "Missing %s or %s at year %d", numName, denName, i)
			continue
		}
		if *d == 0 {
			w.add(metric, warnCalculation, contracts.SeverityWarning, "%s is zero at year %d", denName, i)
			continue
		}
		r := *n / *d
		ratios = append(ratios, r)
		if warn != nil {
			warn(i, r)
		}
	}

	if len(ratios) == 0 {
		w.add(metric, warnCalculation, contracts.SeverityError, "No valid ratios calculated")
		return nil
	}
	var sum float64
	for _, r := range ratios {
		sum += r
	}
	return ptr(sum / float64(len(ratios)))
}

// annual keeps FY and TTM periods; statements without a type count as FY
func annual(periodType string) bool {
	return periodType == "" || periodType == contracts.PeriodFY || periodType == contracts.PeriodTTM
}
