package quality

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/equityscore/internal/contracts"
)

// Repository handles validation result persistence
// ⭐ SSOT: 검증 결과 저장/조회
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new quality repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// StoredValidation is a persisted validation run
type StoredValidation struct {
	ValidatedAt time.Time
	Result      *contracts.OverallValidationResult
}

// Save stores the validation result of a symbol for the given day
func (r *Repository) Save(ctx context.Context, date time.Time, result *contracts.OverallValidationResult) error {
	periods, err := json.Marshal(result.PeriodResults)
	if err != nil {
		return fmt.Errorf("encode period results: %w", err)
	}

	query := `
		INSERT INTO audit.validation_results (
			symbol, validated_date, is_complete, total_periods, incomplete_periods,
			average_completeness, expected_periods, period_results
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol, validated_date) DO UPDATE SET
			is_complete = EXCLUDED.is_complete,
			total_periods = EXCLUDED.total_periods,
			incomplete_periods = EXCLUDED.incomplete_periods,
			average_completeness = EXCLUDED.average_completeness,
			expected_periods = EXCLUDED.expected_periods,
			period_results = EXCLUDED.period_results,
			updated_at = NOW()
	`

	_, err = r.pool.Exec(ctx, query,
		result.Symbol,
		date,
		result.IsComplete,
		result.TotalPeriodsValidated,
		result.IncompletePeriods,
		result.AverageCompleteness,
		result.ExpectedPeriods,
		periods,
	)
	if err != nil {
		return fmt.Errorf("save validation result: %w", err)
	}

	return nil
}

// GetLatest retrieves the most recent validation of a symbol
func (r *Repository) GetLatest(ctx context.Context, symbol string) (*StoredValidation, error) {
	query := `
		SELECT
			validated_date, is_complete, total_periods, incomplete_periods,
			average_completeness, expected_periods, period_results
		FROM audit.validation_results
		WHERE symbol = $1
		ORDER BY validated_date DESC
		LIMIT 1
	`

	result := contracts.NewOverallValidationResult(symbol, 0)
	stored := &StoredValidation{Result: result}
	var periods []byte

	err := r.pool.QueryRow(ctx, query, symbol).Scan(
		&stored.ValidatedAt,
		&result.IsComplete,
		&result.TotalPeriodsValidated,
		&result.IncompletePeriods,
		&result.AverageCompleteness,
		&result.ExpectedPeriods,
		&periods,
	)
	if err != nil {
		return nil, fmt.Errorf("get latest validation: %w", err)
	}

	if err := json.Unmarshal(periods, &result.PeriodResults); err != nil {
		return nil, fmt.Errorf("decode period results: %w", err)
	}

	return stored, nil
}
