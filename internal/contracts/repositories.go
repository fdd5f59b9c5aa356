package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// PriceRepository supplies daily bars from a store
type PriceRepository interface {
	GetPriceHistory(ctx context.Context, symbol string, from, to time.Time) ([]PriceRecord, error)
	GetLatestDate(ctx context.Context, symbol string) (time.Time, error)
}

// SnapshotSource supplies full input snapshots
type SnapshotSource interface {
	LoadLatest(symbol string) (*StockData, string, error)
	ListSymbols() ([]string, error)
}

// ReportSink persists computed reports and returns where they went
type ReportSink interface {
	SaveTechnical(symbol, sourceFile string, score *CompositeScore) (string, error)
	SaveValuation(symbol, sourceFile string, report *ValuationReport) (string, error)
	SaveFundamentals(symbol, sourceFile string, score *FinancialScore) (string, error)
}
