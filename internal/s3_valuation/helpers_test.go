package s3_valuation

import (
	"time"

	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/pkg/logger"
)

var fixedNow = time.Date(2026, 1, 20, 15, 0, 0, 0, time.UTC)

func f(v float64) contracts.Field { return contracts.NewField(v) }

func text(v string) contracts.TextField { return contracts.NewTextField(v) }

func pricesAt(closes ...float64) []contracts.PriceRecord {
	start := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make([]contracts.PriceRecord, len(closes))
	for i, c := range closes {
		ts := contracts.Timestamp{Time: start.AddDate(0, 0, i)}
		out[i] = contracts.PriceRecord{Date: &ts, Close: f(c)}
	}
	return out
}

func techBenchmark() *Benchmark {
	return &Benchmark{Sectors: map[string]SectorBenchmark{
		"Technology": {Metrics: SectorMetrics{
			ValuationMultiples: Multiples{
				PECurrent: f(25), PEForward: f(20), PBRatio: f(6), PSRatio: f(5), EVEBITDA: f(18),
			},
			Beta: BetaStats{Mean: f(1.2)},
		}},
		"Consumer Discretionary": {Metrics: SectorMetrics{
			ValuationMultiples: Multiples{
				PECurrent: f(22), PEForward: f(18), PBRatio: f(4), PSRatio: f(1.5), EVEBITDA: f(12),
			},
			Beta: BetaStats{Mean: f(1.1)},
		}},
	}}
}

// fullStock has enough data for every model to produce a value
func fullStock(symbol, sector string) *contracts.StockData {
	return &contracts.StockData{
		Symbol: symbol,
		Profile: &contracts.CompanyProfile{
			Sector:         text(sector),
			Beta:           f(1.1),
			PEGRatio:       f(1.8),
			ForwardPE:      f(28),
			EarningsGrowth: f(0.12),
		},
		PriceHistory: pricesAt(180, 182, 185),
		IncomeStatements: []contracts.IncomeStatement{
			{
				Period: "2024-09-28", PeriodType: contracts.PeriodFY,
				Revenue: f(390e9), NetIncome: f(94e9), EPS: f(6.1), EPSDiluted: f(6.08),
				SharesOutstanding: f(15.4e9), EBITDA: f(134e9),
			},
			{Period: "2023-09-30", PeriodType: contracts.PeriodFY, NetIncome: f(97e9)},
			{Period: "2022-09-24", PeriodType: contracts.PeriodFY, NetIncome: f(99.8e9)},
			{Period: "2021-09-25", PeriodType: contracts.PeriodFY, NetIncome: f(94.7e9)},
			{Period: "2020-09-26", PeriodType: contracts.PeriodFY, NetIncome: f(57.4e9)},
			{Period: "2019-09-28", PeriodType: contracts.PeriodFY, NetIncome: f(55.3e9)},
		},
		BalanceSheets: []contracts.BalanceSheet{
			{Period: "2024-09-28", TotalDebt: f(106e9), Cash: f(30e9), ShareholderEquity: f(57e9)},
		},
		CashFlows: []contracts.CashFlowStatement{
			{Period: "2024-09-28", FreeCashFlow: f(108e9), DividendsPaid: f(-15.2e9)},
			{Period: "2023-09-30", FreeCashFlow: f(99.6e9), DividendsPaid: f(-15.0e9)},
		},
		AnalystTargets: &contracts.AnalystTargets{PriceTargetConsensus: f(245)},
	}
}

func newTestCalculator(cfg Config) *Calculator {
	return NewCalculator(cfg, techBenchmark(), logger.Nop()).WithClock(func() time.Time { return fixedNow })
}
