package dto

import (
	"time"

	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateExchangeRateRequest defines the payload for recording a rate.
type CreateExchangeRateRequest struct {
	FromCurrencyCode string          `json:"fromCurrencyCode" binding:"required,len=3"`
	ToCurrencyCode   string          `json:"toCurrencyCode" binding:"required,len=3"`
	Rate             decimal.Decimal `json:"rate" binding:"required"`
	DateEffective    time.Time       `json:"dateEffective" binding:"required"`
}

// ExchangeRateResponse defines the data returned for an exchange rate.
type ExchangeRateResponse struct {
	ExchangeRateID   string          `json:"exchangeRateID"`
	FromCurrencyCode string          `json:"fromCurrencyCode"`
	ToCurrencyCode   string          `json:"toCurrencyCode"`
	Rate             decimal.Decimal `json:"rate"`
	DateEffective    time.Time       `json:"dateEffective"`
}

// ToExchangeRateResponse converts a domain.ExchangeRate.
func ToExchangeRateResponse(r *domain.ExchangeRate) ExchangeRateResponse {
	return ExchangeRateResponse{
		ExchangeRateID:   r.ExchangeRateID,
		FromCurrencyCode: r.FromCurrencyCode,
		ToCurrencyCode:   r.ToCurrencyCode,
		Rate:             r.Rate,
		DateEffective:    r.DateEffective,
	}
}
