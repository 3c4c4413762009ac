package domain

import "github.com/shopspring/decimal"

// Currency represents a supported currency.
type Currency struct {
	CurrencyCode string `json:"currencyCode"` // Primary Key (e.g., "USD")
	Symbol       string `json:"symbol"`       // e.g., "$"
	Name         string `json:"name"`         // e.g., "US Dollar"
	// MinorUnits is the decimal exponent of the currency's smallest unit
	// (2 for USD cents, 0 for JPY). One minor unit is the rounding tolerance
	// for balance checks in this currency.
	MinorUnits int32 `json:"minorUnits"`
	AuditFields
}

// Tolerance returns one minor unit of the currency as a decimal,
// e.g. 0.01 for USD.
func (c Currency) Tolerance() decimal.Decimal {
	return decimal.New(1, -c.MinorUnits)
}
