package s3_valuation

import (
	"errors"
	"fmt"
	"time"

	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/pkg/logger"
	"github.com/wonny/equityscore/pkg/numeric"
)

// ErrUnsupportedSector marks a sector with no weight table
var ErrUnsupportedSector = errors.New("unsupported sector")

// Calculator blends every valuation model with sector weights
// ⭐ SSOT: 적정가 가중 평균은 여기서만
type Calculator struct {
	cfg    Config
	bench  *Benchmark
	now    func() time.Time
	logger *logger.Logger
}

// NewCalculator creates a calculator over a loaded benchmark
func NewCalculator(cfg Config, bench *Benchmark, log *logger.Logger) *Calculator {
	return &Calculator{
		cfg:    cfg,
		bench:  bench,
		now:    time.Now,
		logger: log,
	}
}

// WithClock replaces the clock used for the valuation date
func (c *Calculator) WithClock(now func() time.Time) *Calculator {
	c.now = now
	return c
}

// Config returns the weights and assumptions in use
func (c *Calculator) Config() Config {
	return c.cfg
}

// Benchmark returns the loaded benchmark
func (c *Calculator) Benchmark() *Benchmark {
	return c.bench
}

// MetricBenchmarks returns the fundamental metric stats of a sector, resolving
// provider aliases first
func (c *Calculator) MetricBenchmarks(sector string) (contracts.SectorMetricBenchmarks, bool) {
	normalized := c.cfg.NormalizeSector(sector)
	sb, ok := c.bench.Sector(normalized)
	if !ok {
		return contracts.SectorMetricBenchmarks{Sector: normalized}, false
	}
	return contracts.SectorMetricBenchmarks{
		Sector:  normalized,
		Metrics: sb.Metrics.Fundamentals(),
		Tier2:   c.bench.defaults().Tier2Multipliers,
	}, true
}

// ResolveSector normalizes a sector and returns its weights
func (c *Calculator) ResolveSector(sector string) (string, Weights, error) {
	normalized := c.cfg.NormalizeSector(sector)
	w, ok := c.cfg.WeightsFor(normalized)
	if !ok {
		return normalized, nil, fmt.Errorf("%w: %s", ErrUnsupportedSector, sector)
	}
	return normalized, w, nil
}

// Calculate values one stock. It always returns a report; failures are
// carried in the report's Error field.
func (c *Calculator) Calculate(data *contracts.StockData) (report *contracts.ValuationReport) {
	ticker := ""
	if data != nil {
		ticker = data.Symbol
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.WithFields(map[string]interface{}{
				"symbol": ticker,
				"panic":  fmt.Sprint(r),
			}).Error("Valuation calculation failed")
			report = c.errorReport(ticker, fmt.Sprintf("Valuation calculation failed: %v", r), "", "", nil)
		}
	}()

	if data == nil {
		return c.errorReport(ticker, "No stock data", "", "", nil)
	}

	sector, ok := data.Sector()
	if !ok {
		c.logger.WithField("symbol", ticker).Warn("No sector information")
		return c.errorReport(ticker, "No sector information", "", "", nil)
	}

	price, ok := contracts.LatestClose(data.PriceHistory)
	if !ok {
		c.logger.WithField("symbol", ticker).Warn("No price history")
		return c.errorReport(ticker, "No price history", sector, c.cfg.NormalizeSector(sector), nil)
	}

	normalized, weights, err := c.ResolveSector(sector)
	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"symbol":     ticker,
			"sector":     sector,
			"normalized": normalized,
		}).Warn("No valuation weights for sector")
		return c.errorReport(ticker, fmt.Sprintf("Unsupported sector: %s", sector), sector, normalized, &price)
	}

	bench, _ := c.bench.Sector(normalized)
	in := &Input{Data: data, Bench: bench, Sector: normalized, Price: price}

	results := make(map[string]contracts.ValuationMethodResult, len(AllModels))
	var weightedSum, totalWeight float64
	used, succeeded := 0, 0

	for _, kind := range AllModels {
		weight := weights[kind]
		est := c.evaluate(kind, in)

		res := contracts.ValuationMethodResult{
			ModelName: kind.DisplayName(),
			Weight:    weight,
		}
		if est.Available() {
			succeeded++
			res.Status = contracts.StatusSuccess
			res.FairValue = numeric.RoundPtr(est.FairValue, 2)
			res.UpsidePct = numeric.RoundPtr((est.FairValue-price)/price*100, 2)
			if kind == ModelEVEBITDA {
				if m, ok := bench.Metrics.ValuationMultiples.EVEBITDA.Positive(); ok {
					res.IndustryMultiple = &m
				}
			}
			if weight > 0 {
				weightedSum += est.FairValue * weight
				totalWeight += weight
				used++
			}
		} else {
			res.Status = contracts.StatusFailed
			res.Reason = est.Reason
			if res.Reason == "" {
				res.Reason = "Unable to calculate"
			}
		}
		results[string(kind)] = res

		c.logger.WithFields(map[string]interface{}{
			"symbol": ticker,
			"model":  string(kind),
			"status": res.Status,
			"weight": weight,
			"reason": res.Reason,
		}).Debug("Valuation model evaluated")
	}

	report = &contracts.ValuationReport{
		Ticker:           ticker,
		Sector:           sector,
		NormalizedSector: normalized,
		CurrentPrice:     numeric.RoundPtr(price, 2),
		MethodResults:    results,
		Confidence: &contracts.Confidence{
			MethodsUsed:      used,
			MethodsAvailable: weights.Available(),
			TotalWeightUsed:  numeric.Round(totalWeight, 2),
		},
		ValuationDate: c.now().Format("2006-01-02"),
	}

	if totalWeight == 0 || succeeded < c.cfg.MinSuccessfulModels {
		c.logger.WithFields(map[string]interface{}{
			"symbol":    ticker,
			"succeeded": succeeded,
			"used":      used,
		}).Warn("Insufficient valuation methods available")
		report.Error = "Insufficient data for valuation"
		return report
	}

	fair := weightedSum / totalWeight
	report.WeightedFairValue = numeric.RoundPtr(fair, 2)
	report.PriceDifferencePct = numeric.RoundPtr((fair-price)/price*100, 2)

	c.logger.WithFields(map[string]interface{}{
		"symbol":     ticker,
		"sector":     normalized,
		"fair_value": *report.WeightedFairValue,
		"price":      *report.CurrentPrice,
		"methods":    used,
	}).Info("Valuation completed")

	return report
}

// evaluate runs one model behind its own recover boundary
func (c *Calculator) evaluate(kind ModelKind, in *Input) (est Estimate) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.WithFields(map[string]interface{}{
				"model": string(kind),
				"panic": fmt.Sprint(r),
			}).Error("Valuation model failed")
			est = unavailable("Error: %v", r)
		}
	}()
	return Evaluate(kind, c.cfg, in)
}

func (c *Calculator) errorReport(ticker, msg, sector, normalized string, price *float64) *contracts.ValuationReport {
	var current *float64
	if price != nil {
		current = numeric.RoundPtr(*price, 2)
	}
	return &contracts.ValuationReport{
		Ticker:           ticker,
		Sector:           sector,
		NormalizedSector: normalized,
		CurrentPrice:     current,
		MethodResults:    map[string]contracts.ValuationMethodResult{},
		Error:            msg,
		ValuationDate:    c.now().Format("2006-01-02"),
	}
}
