package dto

import (
	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the payload for creating a chart-of-accounts node.
type CreateAccountRequest struct {
	TypeID          string  `json:"typeID" binding:"required"`
	Code            string  `json:"code"`
	Name            string  `json:"name" binding:"required"`
	CurrencyCode    string  `json:"currencyCode" binding:"required,len=3"`
	ParentAccountID *string `json:"parentAccountID"`
	Description     string  `json:"description"`
}

// UpdateAccountRequest defines the mutable fields of an account.
type UpdateAccountRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID       string                `json:"accountID"`
	OrganizationID  string                `json:"organizationID"`
	TypeID          string                `json:"typeID"`
	Class           domain.GlAccountClass `json:"class"`
	Code            string                `json:"code,omitempty"`
	Name            string                `json:"name"`
	CurrencyCode    string                `json:"currencyCode"`
	ParentAccountID string                `json:"parentAccountID,omitempty"`
	Description     string                `json:"description,omitempty"`
	IsActive        bool                  `json:"isActive"`
}

// ListAccountsParams holds parameters for listing accounts.
type ListAccountsParams struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// ListAccountsResponse wraps a page of accounts.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

// AccountBalanceResponse carries a derived balance: the sum of posted entry
// amounts, recomputed from the ledger rather than read from a stored total.
type AccountBalanceResponse struct {
	AccountID string          `json:"accountID"`
	Balance   decimal.Decimal `json:"balance"`
}

// ToAccountResponse converts a domain.GlAccount to AccountResponse.
func ToAccountResponse(a *domain.GlAccount) AccountResponse {
	return AccountResponse{
		AccountID:       a.AccountID,
		OrganizationID:  a.OrganizationID,
		TypeID:          a.TypeID,
		Class:           a.Class,
		Code:            a.Code,
		Name:            a.Name,
		CurrencyCode:    a.CurrencyCode,
		ParentAccountID: a.ParentAccountID,
		Description:     a.Description,
		IsActive:        a.IsActive,
	}
}

// ToAccountResponses converts a slice of accounts.
func ToAccountResponses(accounts []domain.GlAccount) []AccountResponse {
	responses := make([]AccountResponse, len(accounts))
	for i := range accounts {
		responses[i] = ToAccountResponse(&accounts[i])
	}
	return responses
}
