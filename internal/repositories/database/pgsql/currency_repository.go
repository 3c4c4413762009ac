package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerforge/gl_ledger_app/internal/apperrors"
	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	portsrepo "github.com/ledgerforge/gl_ledger_app/internal/core/ports/repositories"
)

type PgxCurrencyRepository struct {
	pool *pgxpool.Pool
}

// newPgxCurrencyRepository creates a new repository for currencies.
func newPgxCurrencyRepository(pool *pgxpool.Pool) portsrepo.CurrencyRepository {
	return &PgxCurrencyRepository{pool: pool}
}

var _ portsrepo.CurrencyRepository = (*PgxCurrencyRepository)(nil)

const currencyColumns = `currency_code, symbol, name, minor_units, created_at, created_by, last_updated_at, last_updated_by`

func scanCurrency(row pgx.Row) (*domain.Currency, error) {
	var currency domain.Currency
	err := row.Scan(
		&currency.CurrencyCode,
		&currency.Symbol,
		&currency.Name,
		&currency.MinorUnits,
		&currency.CreatedAt,
		&currency.CreatedBy,
		&currency.LastUpdatedAt,
		&currency.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &currency, nil
}

// SaveCurrency persists a new currency.
func (r *PgxCurrencyRepository) SaveCurrency(ctx context.Context, currency domain.Currency) error {
	query := `
		INSERT INTO currencies (` + currencyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := r.pool.Exec(ctx, query,
		currency.CurrencyCode,
		currency.Symbol,
		currency.Name,
		currency.MinorUnits,
		currency.CreatedAt,
		currency.CreatedBy,
		currency.LastUpdatedAt,
		currency.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return fmt.Errorf("%w: currency %s already exists", apperrors.ErrDuplicate, currency.CurrencyCode)
		}
		return fmt.Errorf("failed to save currency %s: %w", currency.CurrencyCode, err)
	}
	return nil
}

// FindCurrencyByCode retrieves a currency by its ISO code.
func (r *PgxCurrencyRepository) FindCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error) {
	query := `SELECT ` + currencyColumns + ` FROM currencies WHERE currency_code = $1;`

	currency, err := scanCurrency(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find currency %s: %w", code, err)
	}
	return currency, nil
}

// ListCurrencies retrieves all supported currencies.
func (r *PgxCurrencyRepository) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	query := `SELECT ` + currencyColumns + ` FROM currencies ORDER BY currency_code;`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query currencies: %w", err)
	}
	defer rows.Close()

	currencies := []domain.Currency{}
	for rows.Next() {
		currency, err := scanCurrency(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan currency row: %w", err)
		}
		currencies = append(currencies, *currency)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating currency rows: %w", err)
	}
	return currencies, nil
}
