package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate stores the conversion rate between two currencies effective
// from a specific date. The rate "as of" a transaction date is the most
// recent rate whose DateEffective does not exceed it.
type ExchangeRate struct {
	ExchangeRateID   string          `json:"exchangeRateID"` // Primary Key (e.g., UUID)
	FromCurrencyCode string          `json:"fromCurrencyCode"`
	ToCurrencyCode   string          `json:"toCurrencyCode"`
	Rate             decimal.Decimal `json:"rate"`
	DateEffective    time.Time       `json:"dateEffective"`
	AuditFields
}
