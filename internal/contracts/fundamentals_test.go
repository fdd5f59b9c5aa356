package contracts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFinancialScoreSummary(t *testing.T) {
	s := &FinancialScore{
		Symbol: "STDY", Sector: "Consumer Cyclical", NormalizedSector: "Consumer Discretionary",
		TotalScore: 68.6, MaxScore: 100,
		Categories: map[string]*FundamentalCategory{
			CategoryGrowth:        {Score: 20, Max: 35, Percentage: 57.1},
			CategoryProfitability: {Score: 26.6, Max: 40, Percentage: 66.5},
		},
		Warnings: []string{"Score normalized by 1.11x (missing benchmarks)"},
	}

	out := s.Summary()
	assert.Contains(t, out, "Sector: Consumer Cyclical (Consumer Discretionary)")
	assert.Contains(t, out, "Total Score: 68.6 / 100")
	assert.Contains(t, out, "Profitability        :  26.6 / 40")
	assert.Contains(t, out, "  - Score normalized by 1.11x")
	assert.NotContains(t, out, "Capital Allocation")
	// 보고 순서: 수익성 → 성장성
	assert.Less(t, strings.Index(out, "Profitability"), strings.Index(out, "Growth"))

	failed := FailedFinancialScore("X", "", "No sector in profile")
	assert.Equal(t, "ERROR: No sector in profile", failed.Summary())
}
