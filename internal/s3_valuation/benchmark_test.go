package s3_valuation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const benchmarkJSON = `{
  "sectors": {
    "Technology": {
      "metrics": {
        "valuation_multiples": {
          "pe_current": 31.2, "pe_forward": null, "pb_ratio": 8.1,
          "ps_ratio": 6.4, "ev_ebitda": 21.5
        },
        "beta": {"mean": 1.18},
        "roic": {
          "scoring_mode": "tier_1_synthetic", "mean": 0.18, "derived_sigma": 0.09,
          "synthetic_breakpoints": {"p90": 0.32, "p75": 0.25, "p50": 0.17, "p25": 0.09}
        },
        "debt_to_equity": {
          "scoring_mode": "tier_2_multiplier", "mean": 0.6, "inverse_metric": true,
          "multiplier_override": {"p75_proxy": 1.4, "p25_proxy": 0.6}
        }
      }
    },
    "Utilities": {"metrics": {"valuation_multiples": {"pe_current": 18.0}}}
  },
  "defaults": {"tier2_multipliers": {"p75_proxy": 1.3, "p25_proxy": 0.7}}
}`

func TestLoadLatestBenchmark(t *testing.T) {
	dir := t.TempDir()
	older := filepath.Join(dir, "benchmark_data_2025-12-01.json")
	newer := filepath.Join(dir, "benchmark_data_2025-06-01.json")
	require.NoError(t, os.WriteFile(older, []byte(`{"sectors":{}}`), 0o644))
	require.NoError(t, os.WriteFile(newer, []byte(benchmarkJSON), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0o644))

	// modification time decides, not the name
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	bench, path, err := LoadLatestBenchmark(dir)
	require.NoError(t, err)
	assert.Equal(t, newer, path)
	assert.Equal(t, []string{"Technology", "Utilities"}, bench.SectorNames())

	tech, ok := bench.Sector("Technology")
	require.True(t, ok)
	m := tech.Metrics.ValuationMultiples
	assert.False(t, m.PEForward.Has())
	assert.Equal(t, 31.2, m.PECurrent.Or(0))
	assert.Equal(t, 21.5, m.EVEBITDA.Or(0))
	assert.Equal(t, 1.18, tech.Metrics.Beta.Mean.Or(0))

	fund := tech.Metrics.Fundamentals()
	require.Len(t, fund, 2)
	roic := fund["roic"]
	assert.Equal(t, "tier_1_synthetic", roic.ScoringMode)
	assert.Equal(t, 0.09, roic.DerivedSigma.Or(0))
	assert.Equal(t, 0.25, roic.Breakpoints["p75"])
	de := fund["debt_to_equity"]
	assert.True(t, de.InverseMetric)
	require.NotNil(t, de.MultiplierOverride)
	assert.Equal(t, 1.4, de.MultiplierOverride.P75Proxy)
	require.NotNil(t, bench.Defaults.Tier2Multipliers)
	assert.Equal(t, 0.7, bench.Defaults.Tier2Multipliers.P25Proxy)

	util, ok := bench.Sector("Utilities")
	require.True(t, ok)
	assert.False(t, util.Metrics.Beta.Mean.Has())
	assert.Empty(t, util.Metrics.Fundamentals())

	_, ok = bench.Sector("Energy")
	assert.False(t, ok)
}

func TestLoadLatestBenchmark_None(t *testing.T) {
	_, _, err := LoadLatestBenchmark(t.TempDir())
	assert.ErrorIs(t, err, ErrNoBenchmarkData)

	_, _, err = LoadLatestBenchmark(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrNoBenchmarkData)
}

func TestLoadLatestBenchmark_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "benchmark_data_x.json"), []byte(`{"sectors":`), 0o644))

	_, _, err := LoadLatestBenchmark(dir)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoBenchmarkData))
}

func TestNilBenchmark(t *testing.T) {
	var b *Benchmark
	_, ok := b.Sector("Technology")
	assert.False(t, ok)
	assert.Nil(t, b.SectorNames())
}
