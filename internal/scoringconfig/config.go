package scoringconfig

import (
	"github.com/wonny/equityscore/internal/s1_fundamentals"
	"github.com/wonny/equityscore/internal/s2_signals"
	"github.com/wonny/equityscore/internal/s3_valuation"
)

// Config는 점수/밸류에이션 엔진의 전체 설정
type Config struct {
	Meta         Meta                   `yaml:"meta" json:"meta"`
	Fundamentals s1_fundamentals.Config `yaml:"fundamentals" json:"fundamentals"`
	Technical    s2_signals.Config      `yaml:"technical" json:"technical"`
	Valuation    s3_valuation.Config    `yaml:"valuation" json:"valuation"`
	Validation   Validation             `yaml:"validation" json:"validation"`
}

// Meta 메타 정보
type Meta struct {
	ConfigID string `yaml:"config_id" json:"config_id"`
	Version  string `yaml:"version" json:"version"`
}

// Validation 필드 검증 설정
type Validation struct {
	ExpectedYears int `yaml:"expected_years" json:"expected_years"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Meta: Meta{
			ConfigID: "default",
			Version:  "1.0",
		},
		Fundamentals: s1_fundamentals.DefaultConfig(),
		Technical:    s2_signals.DefaultConfig(),
		Valuation:    s3_valuation.DefaultConfig(),
		Validation: Validation{
			ExpectedYears: 6,
		},
	}
}
