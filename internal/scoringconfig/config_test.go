package scoringconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/equityscore/internal/s1_fundamentals"
	"github.com/wonny/equityscore/internal/s2_signals"
	"github.com/wonny/equityscore/internal/s3_valuation"
)

const defaultPath = "../../config/scoring/default.yaml"

func TestLoad(t *testing.T) {
	if _, err := os.Stat(defaultPath); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, yamlData, err := Load(defaultPath)
	require.NoError(t, err)
	assert.NotEmpty(t, yamlData)

	// 파일과 내장 기본값은 동일해야 함
	assert.Equal(t, Default(), cfg)

	hash, err := Hash(cfg)
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	defHash, err := Hash(Default())
	require.NoError(t, err)
	assert.Equal(t, defHash, hash)
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestHash(t *testing.T) {
	a, err := Hash(Default())
	require.NoError(t, err)
	b, err := Hash(Default())
	require.NoError(t, err)
	assert.Equal(t, a, b, "hash not deterministic")

	changed := Default()
	changed.Valuation.RiskFreeRate = 0.045
	c, err := Hash(changed)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestParse(t *testing.T) {
	t.Run("empty input keeps defaults", func(t *testing.T) {
		cfg, err := Parse(nil)
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("partial override", func(t *testing.T) {
		cfg, err := Parse([]byte("technical:\n  trend:\n    adx_period: 21\n"))
		require.NoError(t, err)
		assert.Equal(t, 21, cfg.Technical.Trend.ADXPeriod)
		assert.Equal(t, 20, cfg.Technical.Trend.MAShort)
		assert.Equal(t, s3_valuation.DefaultConfig(), cfg.Valuation)
	})

	t.Run("sector replaced whole", func(t *testing.T) {
		cfg, err := Parse([]byte("valuation:\n  sector_weights:\n    Energy: {ev_ebitda: 1}\n"))
		require.NoError(t, err)
		assert.Equal(t, s3_valuation.Weights{s3_valuation.ModelEVEBITDA: 1}, cfg.Valuation.SectorWeights["Energy"])
		assert.Len(t, cfg.Valuation.SectorWeights, 11)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Parse([]byte("technical:\n  min_data_point: 10\n"))
		assert.Error(t, err)
	})

	t.Run("invalid value", func(t *testing.T) {
		_, err := Parse([]byte("valuation:\n  peg_min: 9\n"))
		var vErr ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "valuation", vErr.Field)
	})
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("meta:\n  config_id: custom\n"), 0o644))
	cfg, err = LoadOrDefault(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", cfg.Meta.ConfigID)
}

func TestMarshalReloads(t *testing.T) {
	out, err := Marshal(Default())
	require.NoError(t, err)

	cfg, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"missing config id", func(c *Config) { c.Meta.ConfigID = "" }, "meta.config_id"},
		{"fundamental weights above cap", func(c *Config) {
			c.Fundamentals.Weights.Growth.Metrics[s1_fundamentals.MetricFCFCAGR] = 30
		}, "fundamentals.weights.growth"},
		{"sector override above cap", func(c *Config) {
			c.Fundamentals.SectorWeights["Energy"].CapitalAllocation.Metrics[s1_fundamentals.MetricCapexIntensity] = 30
		}, "fundamentals.sector_weights[Energy].capital_allocation"},
		{"negative fundamental weight", func(c *Config) {
			c.Fundamentals.Weights.Profitability.Metrics[s1_fundamentals.MetricROE] = -1
		}, "fundamentals.weights.profitability.metrics.roe"},
		{"unknown fundamental metric", func(c *Config) {
			c.Fundamentals.Weights.Growth.Metrics["ebitda_cagr_5y"] = 1
		}, "fundamentals.weights.growth"},
		{"threshold order", func(c *Config) {
			c.Fundamentals.Thresholds[s1_fundamentals.MetricFCFCAGR] = s1_fundamentals.Thresholds{Score100: 0.05, Score75: 0.15}
		}, "fundamentals.thresholds[fcf_cagr_5y]"},
		{"tier2 multipliers", func(c *Config) { c.Fundamentals.Tier2.P25Proxy = 1.5 }, "fundamentals.tier2_multipliers"},
		{"cagr weights", func(c *Config) { c.Fundamentals.CAGRWeights = nil }, "fundamentals.cagr_weights"},
		{"min data points", func(c *Config) { c.Technical.MinDataPoints = 0 }, "technical.min_data_points"},
		{"zero period", func(c *Config) { c.Technical.Momentum.RSIPeriod = 0 }, "technical.momentum.rsi_period"},
		{"ma order", func(c *Config) { c.Technical.Trend.MAMid = 300 }, "technical.trend"},
		{"macd order", func(c *Config) { c.Technical.Momentum.MACDFast = 30 }, "technical.momentum"},
		{"negative weight", func(c *Config) { c.Technical.Volume.OBVWeight = -1 }, "technical.volume.obv_weight"},
		{"bands not descending", func(c *Config) {
			c.Technical.Trend.ADXBands = []s2_signals.Threshold{{Min: 20, Points: 4}, {Min: 40, Points: 10}}
		}, "technical.trend.adx_bands"},
		{"empty range list", func(c *Config) { c.Technical.Volatility.ATRLevels = nil }, "technical.volatility.atr_levels"},
		{"inverted range", func(c *Config) {
			c.Technical.Momentum.RSIBands = []s2_signals.RangeScore{{Low: 70, High: 55, Points: 8}}
		}, "technical.momentum.rsi_bands"},
		{"adx points above weight", func(c *Config) { c.Technical.Trend.ADXWeight = 5 }, "technical.trend.adx_weight"},
		{"macd table above weight", func(c *Config) {
			c.Technical.Momentum.MACDScores.GoldenExpandingPositive = 9
		}, "technical.momentum.macd_weight"},
		{"bonus pushes obv over weight", func(c *Config) { c.Technical.Volume.OBVTrendBonus = 2 }, "technical.volume.obv_weight"},
		{"no sectors", func(c *Config) { c.Valuation.SectorWeights = nil }, "valuation.sector_weights"},
		{"unknown model", func(c *Config) {
			c.Valuation.SectorWeights["Energy"] = s3_valuation.Weights{"magic": 1}
		}, "valuation.sector_weights[Energy]"},
		{"weight above one", func(c *Config) {
			c.Valuation.SectorWeights["Energy"] = s3_valuation.Weights{s3_valuation.ModelDCF: 1.5}
		}, "valuation.sector_weights[Energy].dcf"},
		{"all zero weights", func(c *Config) {
			c.Valuation.SectorWeights["Energy"] = s3_valuation.Weights{s3_valuation.ModelDCF: 0}
		}, "valuation.sector_weights[Energy]"},
		{"dangling alias", func(c *Config) {
			c.Valuation.SectorAliases["Tech"] = "Information Technology"
		}, "valuation.sector_aliases[Tech]"},
		{"risk free above market", func(c *Config) { c.Valuation.RiskFreeRate = 0.12 }, "valuation"},
		{"terminal growth", func(c *Config) { c.Valuation.TerminalGrowth = 0.05 }, "valuation.terminal_growth"},
		{"projection years", func(c *Config) { c.Valuation.ProjectionYears = 0 }, "valuation.projection_years"},
		{"min successful models", func(c *Config) { c.Valuation.MinSuccessfulModels = 0 }, "valuation.min_successful_models"},
		{"expected years", func(c *Config) { c.Validation.ExpectedYears = 0 }, "validation.expected_years"},
	}

	require.NoError(t, Validate(Default()))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			var vErr ValidationError
			require.ErrorAs(t, Validate(cfg), &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestWarn(t *testing.T) {
	assert.Empty(t, Warn(Default()))

	cfg := Default()
	cfg.Valuation.SectorWeights["Energy"] = s3_valuation.Weights{s3_valuation.ModelDCF: 0.5}
	cfg.Technical.Volume.OBVWeight = 10
	cfg.Technical.MinDataPoints = 100

	codes := make([]string, 0)
	for _, w := range Warn(cfg) {
		codes = append(codes, w.Code)
	}
	assert.ElementsMatch(t, []string{"WEIGHTS_NOT_NORMALIZED", "NON_STANDARD_TOTAL", "SHORT_HISTORY"}, codes)

	cfg = Default()
	cfg.Fundamentals.Weights.Growth.MaxScore = 40
	require.NoError(t, Validate(cfg))
	warnings := Warn(cfg)
	require.Len(t, warnings, 1)
	assert.Equal(t, "fundamental categories total 105.0 points, not 100", warnings[0].Message)
}
