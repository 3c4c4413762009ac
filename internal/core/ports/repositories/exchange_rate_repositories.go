package repositories

import (
	"context"
	"time"

	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
)

// ExchangeRateRepository defines data access for exchange rates.
type ExchangeRateRepository interface {
	// SaveExchangeRate persists a new exchange rate.
	SaveExchangeRate(ctx context.Context, rate domain.ExchangeRate) error

	// FindRateAsOf retrieves the most recent rate for the pair whose
	// DateEffective does not exceed asOf.
	FindRateAsOf(ctx context.Context, fromCode, toCode string, asOf time.Time) (*domain.ExchangeRate, error)
}

// CurrencyRepository defines data access for currencies.
type CurrencyRepository interface {
	// SaveCurrency persists a new currency.
	SaveCurrency(ctx context.Context, currency domain.Currency) error

	// FindCurrencyByCode retrieves a currency by its ISO code.
	FindCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error)

	// ListCurrencies retrieves all supported currencies.
	ListCurrencies(ctx context.Context) ([]domain.Currency, error)
}
