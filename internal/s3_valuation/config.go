package s3_valuation

// Weights maps each model to its share of the blended fair value
type Weights map[ModelKind]float64

// Config holds the sector weight table and the market assumptions
// ⭐ SSOT: 섹터별 밸류에이션 가중치는 여기서만
type Config struct {
	SectorWeights map[string]Weights `yaml:"sector_weights" json:"sector_weights"`
	SectorAliases map[string]string  `yaml:"sector_aliases" json:"sector_aliases"`

	RiskFreeRate          float64 `yaml:"risk_free_rate" json:"risk_free_rate"`
	MarketReturn          float64 `yaml:"market_return" json:"market_return"`
	DefaultBeta           float64 `yaml:"default_beta" json:"default_beta"`
	TerminalGrowth        float64 `yaml:"terminal_growth" json:"terminal_growth"`
	ProjectionYears       int     `yaml:"projection_years" json:"projection_years"`
	DefaultDividendGrowth float64 `yaml:"default_dividend_growth" json:"default_dividend_growth"`
	MaxDividendGrowth     float64 `yaml:"max_dividend_growth" json:"max_dividend_growth"`
	GrahamMultiplier      float64 `yaml:"graham_multiplier" json:"graham_multiplier"`
	LynchGrowthCap        float64 `yaml:"lynch_growth_cap" json:"lynch_growth_cap"`
	PEGMin                float64 `yaml:"peg_min" json:"peg_min"`
	PEGMax                float64 `yaml:"peg_max" json:"peg_max"`
	MinSuccessfulModels   int     `yaml:"min_successful_models" json:"min_successful_models"`
}

// DefaultConfig returns the built-in sector table and CAPM assumptions
func DefaultConfig() Config {
	return Config{
		SectorWeights: DefaultSectorWeights(),
		SectorAliases: DefaultSectorAliases(),

		RiskFreeRate:          0.04,
		MarketReturn:          0.10,
		DefaultBeta:           1.0,
		TerminalGrowth:        0.03,
		ProjectionYears:       5,
		DefaultDividendGrowth: 0.03,
		MaxDividendGrowth:     0.20,
		GrahamMultiplier:      22.5,
		LynchGrowthCap:        25,
		PEGMin:                0.2,
		PEGMax:                5.0,
		MinSuccessfulModels:   2,
	}
}

// DefaultSectorAliases maps provider sector names to GICS names
func DefaultSectorAliases() map[string]string {
	return map[string]string{
		"Consumer Cyclical":  "Consumer Discretionary",
		"Consumer Defensive": "Consumer Staples",
	}
}

// DefaultSectorWeights returns the GICS sector weight table
func DefaultSectorWeights() map[string]Weights {
	return map[string]Weights{
		"Technology": {
			ModelPEG: 0.15, ModelPS: 0.20, ModelDCF: 0.15, ModelPeterLynch: 0.15, ModelPE: 0.15,
			ModelEVEBITDA: 0.10, ModelAnalyst: 0.10, ModelDDM: 0, ModelPB: 0, ModelGraham: 0,
		},
		"Healthcare": {
			ModelPEG: 0.15, ModelDCF: 0.15, ModelPE: 0.15, ModelEVEBITDA: 0.15, ModelAnalyst: 0.10,
			ModelPeterLynch: 0.10, ModelPS: 0.10, ModelGraham: 0.05, ModelDDM: 0.05, ModelPB: 0,
		},
		"Financials": {
			ModelPB: 0.30, ModelDDM: 0.20, ModelGraham: 0.15, ModelPE: 0.15, ModelAnalyst: 0.15,
			ModelDCF: 0, ModelPeterLynch: 0.05, ModelPEG: 0, ModelPS: 0, ModelEVEBITDA: 0,
		},
		"Consumer Discretionary": {
			ModelPE: 0.20, ModelPeterLynch: 0.15, ModelPS: 0.15, ModelEVEBITDA: 0.15, ModelPEG: 0.10,
			ModelDCF: 0.10, ModelGraham: 0.05, ModelAnalyst: 0.05, ModelDDM: 0.05, ModelPB: 0,
		},
		"Consumer Staples": {
			ModelPE: 0.20, ModelDDM: 0.20, ModelGraham: 0.15, ModelDCF: 0.15, ModelEVEBITDA: 0.10,
			ModelAnalyst: 0.10, ModelPS: 0.05, ModelPeterLynch: 0.05, ModelPB: 0, ModelPEG: 0,
		},
		"Energy": {
			ModelEVEBITDA: 0.35, ModelAnalyst: 0.20, ModelGraham: 0.10, ModelDCF: 0.10, ModelDDM: 0.10,
			ModelPE: 0.05, ModelPB: 0.05, ModelPS: 0.05, ModelPeterLynch: 0, ModelPEG: 0,
		},
		"Industrials": {
			ModelEVEBITDA: 0.25, ModelPE: 0.20, ModelGraham: 0.15, ModelAnalyst: 0.10, ModelDCF: 0.10,
			ModelPS: 0.05, ModelPB: 0.05, ModelPeterLynch: 0.05, ModelDDM: 0.05, ModelPEG: 0,
		},
		"Materials": {
			ModelEVEBITDA: 0.30, ModelGraham: 0.20, ModelPE: 0.15, ModelPB: 0.15, ModelAnalyst: 0.10,
			ModelDCF: 0.10, ModelDDM: 0, ModelPS: 0, ModelPeterLynch: 0, ModelPEG: 0,
		},
		"Real Estate": {
			ModelDDM: 0.30, ModelPB: 0.20, ModelAnalyst: 0.15, ModelGraham: 0.15, ModelDCF: 0.10,
			ModelPE: 0.10, ModelEVEBITDA: 0, ModelPeterLynch: 0, ModelPEG: 0, ModelPS: 0,
		},
		"Utilities": {
			ModelDDM: 0.35, ModelGraham: 0.20, ModelPE: 0.15, ModelDCF: 0.15, ModelAnalyst: 0.10,
			ModelPB: 0.05, ModelEVEBITDA: 0, ModelPeterLynch: 0, ModelPEG: 0, ModelPS: 0,
		},
		"Communication Services": {
			ModelPE: 0.20, ModelEVEBITDA: 0.15, ModelPS: 0.15, ModelPEG: 0.15, ModelDCF: 0.15,
			ModelAnalyst: 0.10, ModelDDM: 0.05, ModelPeterLynch: 0.05, ModelGraham: 0, ModelPB: 0,
		},
	}
}

// NormalizeSector resolves provider aliases to the GICS name
func (c Config) NormalizeSector(sector string) string {
	if alias, ok := c.SectorAliases[sector]; ok {
		return alias
	}
	return sector
}

// WeightsFor returns the weights of a normalized sector
func (c Config) WeightsFor(normalized string) (Weights, bool) {
	w, ok := c.SectorWeights[normalized]
	if !ok || len(w) == 0 {
		return nil, false
	}
	return w, true
}

// Available counts models with a nonzero weight
func (w Weights) Available() int {
	n := 0
	for _, v := range w {
		if v > 0 {
			n++
		}
	}
	return n
}

// Sum is the total configured weight
func (w Weights) Sum() float64 {
	var s float64
	for _, v := range w {
		s += v
	}
	return s
}
