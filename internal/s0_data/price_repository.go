package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sony/gobreaker"

	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/pkg/logger"
)

// PriceRepository implements contracts.PriceRepository over data.daily_prices
// ⭐ SSOT: 가격 데이터 저장소는 여기서만
type PriceRepository struct {
	pool    *pgxpool.Pool
	breaker *gobreaker.CircuitBreaker
	logger  *logger.Logger
}

// NewPriceRepository creates a new price repository.
// Queries run behind a circuit breaker that opens after 3 consecutive errors.
func NewPriceRepository(pool *pgxpool.Pool, log *logger.Logger) *PriceRepository {
	return &PriceRepository{
		pool:    pool,
		breaker: newBreaker("postgres.daily_prices", log),
		logger:  log,
	}
}

func newBreaker(name string, log *logger.Logger) *gobreaker.CircuitBreaker {
	st := gobreaker.Settings{
		Name:     name,
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
	}
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		if counts.ConsecutiveFailures >= 3 {
			return true
		}
		if counts.Requests < 20 {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) > 0.05
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		log.WithFields(map[string]interface{}{
			"breaker": name,
			"from":    from.String(),
			"to":      to.String(),
		}).Warn("Circuit breaker state changed")
	}
	return gobreaker.NewCircuitBreaker(st)
}

// GetPriceHistory returns bars for symbol within [from, to] ascending
func (r *PriceRepository) GetPriceHistory(ctx context.Context, symbol string, from, to time.Time) ([]contracts.PriceRecord, error) {
	query := `
		SELECT trade_date, open_price, high_price, low_price, close_price, adj_close_price, volume
		FROM data.daily_prices
		WHERE stock_code = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	out, err := r.breaker.Execute(func() (interface{}, error) {
		rows, err := r.pool.Query(ctx, query, symbol, from, to)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var records []contracts.PriceRecord
		for rows.Next() {
			var date time.Time
			var open, high, low, cl, adj *float64
			var volume *int64
			if err := rows.Scan(&date, &open, &high, &low, &cl, &adj, &volume); err != nil {
				return nil, err
			}
			ts := contracts.Timestamp{Time: date.UTC()}
			rec := contracts.PriceRecord{
				Date:          &ts,
				Open:          fieldFrom(open),
				High:          fieldFrom(high),
				Low:           fieldFrom(low),
				Close:         fieldFrom(cl),
				AdjustedClose: fieldFrom(adj),
			}
			if volume != nil {
				rec.Volume = contracts.NewFieldFrom(float64(*volume), "postgres")
			}
			records = append(records, rec)
		}
		return records, rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("get price history %s: %w", symbol, err)
	}

	records, _ := out.([]contracts.PriceRecord)
	r.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"rows":   len(records),
	}).Debug("Loaded price history")

	return records, nil
}

func fieldFrom(v *float64) contracts.Field {
	if v == nil {
		return contracts.Field{}
	}
	return contracts.NewFieldFrom(*v, "postgres")
}

// GetLatestDate returns the most recent trade date stored for symbol
func (r *PriceRepository) GetLatestDate(ctx context.Context, symbol string) (time.Time, error) {
	query := `SELECT MAX(trade_date) FROM data.daily_prices WHERE stock_code = $1`

	out, err := r.breaker.Execute(func() (interface{}, error) {
		var latest *time.Time
		if err := r.pool.QueryRow(ctx, query, symbol).Scan(&latest); err != nil {
			return nil, err
		}
		if latest == nil {
			return time.Time{}, nil
		}
		return *latest, nil
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("get latest date %s: %w", symbol, err)
	}
	return out.(time.Time), nil
}

// SaveHistory upserts normalized bars for symbol in one batch
func (r *PriceRepository) SaveHistory(ctx context.Context, symbol string, points []contracts.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	query := `
		INSERT INTO data.daily_prices (stock_code, trade_date, open_price, high_price, low_price, close_price, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (stock_code, trade_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume
	`

	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(query, symbol, p.Date, p.Open, p.High, p.Low, p.Close, int64(p.Volume))
	}

	_, err := r.breaker.Execute(func() (interface{}, error) {
		results := r.pool.SendBatch(ctx, batch)
		defer results.Close()
		for range points {
			if _, err := results.Exec(); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("save price history %s: %w", symbol, err)
	}

	r.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"rows":   len(points),
	}).Info("Saved price history")

	return nil
}
