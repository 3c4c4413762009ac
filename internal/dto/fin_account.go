package dto

import (
	"time"

	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ImportFinAccountTranRequest records one external statement movement.
type ImportFinAccountTranRequest struct {
	FinAccountID    string                    `json:"finAccountID" binding:"required"`
	TranType        domain.FinAccountTranType `json:"tranType" binding:"required,oneof=DEPOSIT WITHDRAWAL ADJUSTMENT"`
	Amount          decimal.Decimal           `json:"amount" binding:"required"`
	CurrencyCode    string                    `json:"currencyCode" binding:"required,len=3"`
	TransactionDate time.Time                 `json:"transactionDate" binding:"required"`
	Description     string                    `json:"description"`
}

// LinkAcctgTranRequest links a posted ledger transaction to a movement.
type LinkAcctgTranRequest struct {
	AcctgTranID string `json:"acctgTranID" binding:"required"`
}

// FinAccountTranResponse defines the data returned for a statement movement.
type FinAccountTranResponse struct {
	FinAccountTranID string                    `json:"finAccountTranID"`
	FinAccountID     string                    `json:"finAccountID"`
	OrganizationID   string                    `json:"organizationID"`
	TranType         domain.FinAccountTranType `json:"tranType"`
	Amount           decimal.Decimal           `json:"amount"`
	CurrencyCode     string                    `json:"currencyCode"`
	TransactionDate  time.Time                 `json:"transactionDate"`
	Description      string                    `json:"description,omitempty"`
	AcctgTranID      *string                   `json:"acctgTranID,omitempty"`
}

// ListFinAccountTransParams holds parameters for listing statement movements.
type ListFinAccountTransParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ListFinAccountTransResponse is a token-paginated page of movements.
type ListFinAccountTransResponse struct {
	Transactions []FinAccountTranResponse `json:"transactions"`
	NextToken    *string                  `json:"nextToken,omitempty"`
}

// ToFinAccountTranResponse converts a domain.FinAccountTran.
func ToFinAccountTranResponse(t *domain.FinAccountTran) FinAccountTranResponse {
	return FinAccountTranResponse{
		FinAccountTranID: t.FinAccountTranID,
		FinAccountID:     t.FinAccountID,
		OrganizationID:   t.OrganizationID,
		TranType:         t.TranType,
		Amount:           t.Amount,
		CurrencyCode:     t.CurrencyCode,
		TransactionDate:  t.TransactionDate,
		Description:      t.Description,
		AcctgTranID:      t.AcctgTranID,
	}
}

// ToFinAccountTranResponses converts a slice of movements.
func ToFinAccountTranResponses(trans []domain.FinAccountTran) []FinAccountTranResponse {
	responses := make([]FinAccountTranResponse, len(trans))
	for i := range trans {
		responses[i] = ToFinAccountTranResponse(&trans[i])
	}
	return responses
}
