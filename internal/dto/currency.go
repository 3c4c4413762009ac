package dto

import "github.com/ledgerforge/gl_ledger_app/internal/core/domain"

// CreateCurrencyRequest defines the payload for registering a currency.
type CreateCurrencyRequest struct {
	CurrencyCode string `json:"currencyCode" binding:"required,len=3"`
	Symbol       string `json:"symbol" binding:"required"`
	Name         string `json:"name" binding:"required"`
	MinorUnits   int32  `json:"minorUnits" binding:"min=0,max=8"`
}

// CurrencyResponse defines the data returned for a currency.
type CurrencyResponse struct {
	CurrencyCode string `json:"currencyCode"`
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	MinorUnits   int32  `json:"minorUnits"`
}

// ToCurrencyResponse converts a domain.Currency.
func ToCurrencyResponse(c *domain.Currency) CurrencyResponse {
	return CurrencyResponse{
		CurrencyCode: c.CurrencyCode,
		Symbol:       c.Symbol,
		Name:         c.Name,
		MinorUnits:   c.MinorUnits,
	}
}

// ToCurrencyResponses converts a slice of currencies.
func ToCurrencyResponses(currencies []domain.Currency) []CurrencyResponse {
	responses := make([]CurrencyResponse, len(currencies))
	for i := range currencies {
		responses[i] = ToCurrencyResponse(&currencies[i])
	}
	return responses
}
