package services

import (
	"context"
	"time"

	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	"github.com/ledgerforge/gl_ledger_app/internal/dto"
)

// ExchangeRateSvcFacade supplies conversion rates "as of" a date.
type ExchangeRateSvcFacade interface {
	// CreateExchangeRate records a new rate.
	CreateExchangeRate(ctx context.Context, req dto.CreateExchangeRateRequest, userID string) (*domain.ExchangeRate, error)

	// RateAsOf returns the rate in effect on the given date for a pair.
	// Identical codes yield an identity rate.
	RateAsOf(ctx context.Context, fromCode, toCode string, asOf time.Time) (*domain.ExchangeRate, error)
}

// CurrencySvcFacade manages supported currencies.
type CurrencySvcFacade interface {
	// CreateCurrency registers a currency.
	CreateCurrency(ctx context.Context, req dto.CreateCurrencyRequest, userID string) (*domain.Currency, error)

	// GetCurrencyByCode retrieves a currency.
	GetCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error)

	// ListCurrencies retrieves all supported currencies.
	ListCurrencies(ctx context.Context) ([]domain.Currency, error)
}
