package s3_valuation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/pkg/logger"
)

func TestCalculate_WeightedSpotCheck(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SectorWeights = map[string]Weights{
		"Technology": {ModelPE: 0.5, ModelAnalyst: 0.5},
	}
	data := &contracts.StockData{
		Symbol:           "SPOT",
		Profile:          &contracts.CompanyProfile{Sector: text("Technology")},
		PriceHistory:     pricesAt(100),
		IncomeStatements: []contracts.IncomeStatement{{EPS: f(5)}},
		AnalystTargets:   &contracts.AnalystTargets{PriceTargetConsensus: f(120)},
	}

	report := newTestCalculator(cfg).Calculate(data)

	require.False(t, report.Failed(), report.Error)
	require.NotNil(t, report.WeightedFairValue)
	assert.Equal(t, 110.0, *report.WeightedFairValue)
	assert.Equal(t, 10.0, *report.PriceDifferencePct)
	assert.Equal(t, 100.0, *report.CurrentPrice)
	assert.Equal(t, &contracts.Confidence{MethodsUsed: 2, MethodsAvailable: 2, TotalWeightUsed: 1}, report.Confidence)

	assert.Len(t, report.MethodResults, len(AllModels))
	pe := report.MethodResults["pe"]
	assert.Equal(t, contracts.StatusSuccess, pe.Status)
	assert.Equal(t, 100.0, *pe.FairValue)
	assert.Equal(t, 0.0, *pe.UpsidePct)
	analyst := report.MethodResults["analyst"]
	assert.Equal(t, 20.0, *analyst.UpsidePct)

	// unweighted models still report with a reason
	dcf := report.MethodResults["dcf"]
	assert.Equal(t, contracts.StatusFailed, dcf.Status)
	assert.Equal(t, "No cash flow statements", dcf.Reason)
	assert.Nil(t, dcf.FairValue)
	assert.Zero(t, dcf.Weight)
}

func TestCalculate_FullStock(t *testing.T) {
	report := newTestCalculator(DefaultConfig()).Calculate(fullStock("AAPL", "Technology"))

	require.False(t, report.Failed(), report.Error)
	assert.Equal(t, "Technology", report.NormalizedSector)
	assert.Equal(t, "2026-01-20", report.ValuationDate)
	assert.Equal(t, 185.0, *report.CurrentPrice)

	for _, kind := range AllModels {
		res, ok := report.MethodResults[string(kind)]
		require.True(t, ok, "missing %s", kind)
		assert.Equal(t, kind.DisplayName(), res.ModelName)
		assert.Equal(t, contracts.StatusSuccess, res.Status, "%s: %s", kind, res.Reason)
	}

	weights := DefaultSectorWeights()["Technology"]
	var sum, total float64
	for kind, w := range weights {
		if w == 0 {
			continue
		}
		sum += *report.MethodResults[string(kind)].FairValue * w
		total += w
	}
	assert.InDelta(t, sum/total, *report.WeightedFairValue, 0.01)

	assert.Equal(t, 7, report.Confidence.MethodsUsed)
	assert.Equal(t, 7, report.Confidence.MethodsAvailable)
	assert.Equal(t, 1.0, report.Confidence.TotalWeightUsed)

	ev := report.MethodResults["ev_ebitda"]
	require.NotNil(t, ev.IndustryMultiple)
	assert.Equal(t, 18.0, *ev.IndustryMultiple)
	assert.Nil(t, report.MethodResults["pe"].IndustryMultiple)
}

func TestCalculate_SectorAlias(t *testing.T) {
	calc := newTestCalculator(DefaultConfig())

	aliased := calc.Calculate(fullStock("TSLA", "Consumer Cyclical"))
	direct := calc.Calculate(fullStock("TSLA", "Consumer Discretionary"))

	require.False(t, aliased.Failed(), aliased.Error)
	assert.Equal(t, "Consumer Cyclical", aliased.Sector)
	assert.Equal(t, "Consumer Discretionary", aliased.NormalizedSector)
	assert.Equal(t, direct.NormalizedSector, aliased.NormalizedSector)
	assert.Equal(t, direct.MethodResults, aliased.MethodResults)
	assert.Equal(t, *direct.WeightedFairValue, *aliased.WeightedFairValue)
	assert.Equal(t, direct.Confidence, aliased.Confidence)

	// industry multiple comes from the normalized sector
	assert.Equal(t, 12.0, *aliased.MethodResults["ev_ebitda"].IndustryMultiple)
}

func TestCalculate_ErrorReports(t *testing.T) {
	calc := newTestCalculator(DefaultConfig())

	t.Run("nil data", func(t *testing.T) {
		report := calc.Calculate(nil)
		assert.Equal(t, "No stock data", report.Error)
	})

	t.Run("no sector", func(t *testing.T) {
		data := fullStock("X", "")
		data.Profile = nil
		report := calc.Calculate(data)
		assert.Equal(t, "No sector information", report.Error)
		assert.Equal(t, "X", report.Ticker)
		assert.NotNil(t, report.MethodResults)
		assert.Empty(t, report.MethodResults)
		assert.Nil(t, report.WeightedFairValue)
		assert.Nil(t, report.CurrentPrice)
		assert.Equal(t, "2026-01-20", report.ValuationDate)
	})

	t.Run("no price history", func(t *testing.T) {
		data := fullStock("X", "Technology")
		data.PriceHistory = nil
		report := calc.Calculate(data)
		assert.Equal(t, "No price history", report.Error)
		assert.Equal(t, "Technology", report.Sector)
		assert.Nil(t, report.CurrentPrice)
	})

	t.Run("unsupported sector", func(t *testing.T) {
		report := calc.Calculate(fullStock("X", "Crypto"))
		assert.Equal(t, "Unsupported sector: Crypto", report.Error)
		assert.Equal(t, 185.0, *report.CurrentPrice)
		assert.Empty(t, report.MethodResults)
	})

	t.Run("fewer than two models", func(t *testing.T) {
		data := &contracts.StockData{
			Symbol:         "ONE",
			Profile:        &contracts.CompanyProfile{Sector: text("Technology")},
			PriceHistory:   pricesAt(50),
			AnalystTargets: &contracts.AnalystTargets{PriceTargetConsensus: f(60)},
		}
		report := calc.Calculate(data)
		assert.Equal(t, "Insufficient data for valuation", report.Error)
		assert.Nil(t, report.WeightedFairValue)
		assert.Nil(t, report.PriceDifferencePct)
		assert.Len(t, report.MethodResults, len(AllModels))
		assert.Equal(t, contracts.StatusSuccess, report.MethodResults["analyst"].Status)
	})

	t.Run("no weight used", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.SectorWeights = map[string]Weights{"Technology": {ModelPB: 0}}
		report := newTestCalculator(cfg).Calculate(fullStock("Z", "Technology"))
		assert.Equal(t, "Insufficient data for valuation", report.Error)
		assert.Equal(t, 0, report.Confidence.MethodsAvailable)
	})
}

func TestCalculate_ZeroWeightExcluded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SectorWeights = map[string]Weights{"Technology": {ModelPE: 1, ModelAnalyst: 0}}
	data := &contracts.StockData{
		Profile:          &contracts.CompanyProfile{Sector: text("Technology")},
		PriceHistory:     pricesAt(90),
		IncomeStatements: []contracts.IncomeStatement{{EPSDiluted: f(5)}},
		AnalystTargets:   &contracts.AnalystTargets{PriceTargetConsensus: f(500)},
	}

	report := newTestCalculator(cfg).Calculate(data)

	require.False(t, report.Failed(), report.Error)
	assert.Equal(t, 100.0, *report.WeightedFairValue)
	assert.Equal(t, 500.0, *report.MethodResults["analyst"].FairValue)
	assert.Equal(t, 1, report.Confidence.MethodsUsed)
}

func TestCalculate_Deterministic(t *testing.T) {
	calc := newTestCalculator(DefaultConfig())

	a, err := json.Marshal(calc.Calculate(fullStock("AAPL", "Technology")))
	require.NoError(t, err)
	b, err := json.Marshal(calc.Calculate(fullStock("AAPL", "Technology")))
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestCalculate_MissingBenchmarkSector(t *testing.T) {
	// weights exist but the benchmark has no Energy row
	report := newTestCalculator(DefaultConfig()).Calculate(fullStock("XOM", "Energy"))

	for _, kind := range []string{"pe", "pb", "ps", "ev_ebitda"} {
		res := report.MethodResults[kind]
		assert.Equal(t, contracts.StatusFailed, res.Status, kind)
		assert.Contains(t, res.Reason, "No valid industry", kind)
	}
	assert.Equal(t, contracts.StatusSuccess, report.MethodResults["dcf"].Status)
	assert.False(t, report.Failed())
}

func TestEvaluateRecoversPanics(t *testing.T) {
	calc := newTestCalculator(DefaultConfig())
	est := calc.evaluate(ModelPE, &Input{})
	assert.False(t, est.Available())
	assert.Contains(t, est.Reason, "Error:")
}

func TestResolveSector(t *testing.T) {
	calc := newTestCalculator(DefaultConfig())

	name, w, err := calc.ResolveSector("Consumer Defensive")
	require.NoError(t, err)
	assert.Equal(t, "Consumer Staples", name)
	assert.InDelta(t, 1.0, w.Sum(), 1e-9)

	_, _, err = calc.ResolveSector("Crypto")
	assert.ErrorIs(t, err, ErrUnsupportedSector)
}

func TestDefaultSectorWeights(t *testing.T) {
	weights := DefaultSectorWeights()
	assert.Len(t, weights, 11)
	for sector, w := range weights {
		assert.Len(t, w, len(AllModels), sector)
		assert.InDelta(t, 1.0, w.Sum(), 1e-9, sector)
		for kind := range w {
			assert.True(t, kind.Valid(), "%s: %s", sector, kind)
		}
	}
}

func TestMetricBenchmarks(t *testing.T) {
	bench := techBenchmark()
	cd := bench.Sectors["Consumer Discretionary"]
	cd.Metrics.ROE = &contracts.MetricBenchmark{ScoringMode: contracts.TierMultiplier, Mean: f(0.2)}
	bench.Sectors["Consumer Discretionary"] = cd
	bench.Defaults.Tier2Multipliers = &contracts.Multipliers{P75Proxy: 1.3, P25Proxy: 0.7}
	calc := NewCalculator(DefaultConfig(), bench, logger.Nop())

	set, ok := calc.MetricBenchmarks("Consumer Cyclical")
	require.True(t, ok)
	assert.Equal(t, "Consumer Discretionary", set.Sector)
	require.Contains(t, set.Metrics, "roe")
	assert.Equal(t, 0.2, set.Metrics["roe"].Mean.Or(0))
	require.NotNil(t, set.Tier2)
	assert.Equal(t, 1.3, set.Tier2.P75Proxy)

	set, ok = calc.MetricBenchmarks("Technology")
	require.True(t, ok)
	assert.Empty(t, set.Metrics)

	set, ok = calc.MetricBenchmarks("Crypto")
	assert.False(t, ok)
	assert.Equal(t, "Crypto", set.Sector)
}
