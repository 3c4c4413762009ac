package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerforge/gl_ledger_app/internal/apperrors"
	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	portsrepo "github.com/ledgerforge/gl_ledger_app/internal/core/ports/repositories"
)

type PgxExchangeRateRepository struct {
	pool *pgxpool.Pool
}

// newPgxExchangeRateRepository creates a new repository for exchange rates.
func newPgxExchangeRateRepository(pool *pgxpool.Pool) portsrepo.ExchangeRateRepository {
	return &PgxExchangeRateRepository{pool: pool}
}

var _ portsrepo.ExchangeRateRepository = (*PgxExchangeRateRepository)(nil)

const exchangeRateColumns = `exchange_rate_id, from_currency_code, to_currency_code, rate, date_effective, created_at, created_by, last_updated_at, last_updated_by`

func scanExchangeRate(row pgx.Row) (*domain.ExchangeRate, error) {
	var rate domain.ExchangeRate
	err := row.Scan(
		&rate.ExchangeRateID,
		&rate.FromCurrencyCode,
		&rate.ToCurrencyCode,
		&rate.Rate,
		&rate.DateEffective,
		&rate.CreatedAt,
		&rate.CreatedBy,
		&rate.LastUpdatedAt,
		&rate.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// SaveExchangeRate persists a new exchange rate.
func (r *PgxExchangeRateRepository) SaveExchangeRate(ctx context.Context, rate domain.ExchangeRate) error {
	query := `
		INSERT INTO exchange_rates (` + exchangeRateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.pool.Exec(ctx, query,
		rate.ExchangeRateID,
		rate.FromCurrencyCode,
		rate.ToCurrencyCode,
		rate.Rate,
		rate.DateEffective,
		rate.CreatedAt,
		rate.CreatedBy,
		rate.LastUpdatedAt,
		rate.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return fmt.Errorf("%w: exchange rate %s already exists", apperrors.ErrDuplicate, rate.ExchangeRateID)
		}
		return fmt.Errorf("failed to save exchange rate %s: %w", rate.ExchangeRateID, err)
	}
	return nil
}

// FindRateAsOf retrieves the most recent rate for the pair whose effective
// date does not exceed asOf.
func (r *PgxExchangeRateRepository) FindRateAsOf(ctx context.Context, fromCode, toCode string, asOf time.Time) (*domain.ExchangeRate, error) {
	query := `
		SELECT ` + exchangeRateColumns + `
		FROM exchange_rates
		WHERE from_currency_code = $1 AND to_currency_code = $2 AND date_effective <= $3
		ORDER BY date_effective DESC
		LIMIT 1;
	`
	rate, err := scanExchangeRate(r.pool.QueryRow(ctx, query, fromCode, toCode, asOf))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find rate %s->%s as of %s: %w", fromCode, toCode, asOf.Format(time.RFC3339), err)
	}
	return rate, nil
}
