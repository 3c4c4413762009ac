package dto

import (
	"time"

	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// OpenReconciliationRequest starts a reconciliation for one account.
type OpenReconciliationRequest struct {
	AccountID      string          `json:"accountID" binding:"required"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	Description    string          `json:"description"`
}

// MatchEntryRequest attaches one posted ledger entry or one fin-account
// transaction to an open reconciliation. Exactly one target must be set.
type MatchEntryRequest struct {
	AcctgTranID      *string `json:"acctgTranID"`
	SequenceID       *int    `json:"sequenceID"`
	FinAccountTranID *string `json:"finAccountTranID"`
}

// CloseReconciliationRequest closes a reconciliation against the statement.
type CloseReconciliationRequest struct {
	StatementEndingBalance decimal.Decimal `json:"statementEndingBalance"`
}

// ReconciliationEntryResponse is one matched target.
type ReconciliationEntryResponse struct {
	AcctgTranID      *string         `json:"acctgTranID,omitempty"`
	SequenceID       *int            `json:"sequenceID,omitempty"`
	FinAccountTranID *string         `json:"finAccountTranID,omitempty"`
	SignedAmount     decimal.Decimal `json:"signedAmount"`
	MatchedAt        time.Time       `json:"matchedAt"`
}

// ReconciliationResponse defines the data returned for a reconciliation.
type ReconciliationResponse struct {
	ReconciliationID  string                        `json:"reconciliationID"`
	AccountID         string                        `json:"accountID"`
	OrganizationID    string                        `json:"organizationID"`
	Status            domain.GlReconciliationStatus `json:"status"`
	OpeningBalance    decimal.Decimal               `json:"openingBalance"`
	ReconciledBalance *decimal.Decimal              `json:"reconciledBalance,omitempty"`
	ReconciledDate    *time.Time                    `json:"reconciledDate,omitempty"`
	Description       string                        `json:"description,omitempty"`
	Entries           []ReconciliationEntryResponse `json:"entries,omitempty"`
	CreatedAt         time.Time                     `json:"createdAt"`
}

// ListReconciliationsParams holds parameters for listing reconciliations.
type ListReconciliationsParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ListReconciliationsResponse is a token-paginated page of reconciliations.
type ListReconciliationsResponse struct {
	Reconciliations []ReconciliationResponse `json:"reconciliations"`
	NextToken       *string                  `json:"nextToken,omitempty"`
}

// ToReconciliationResponse converts a domain.GlReconciliation.
func ToReconciliationResponse(r *domain.GlReconciliation) ReconciliationResponse {
	entries := make([]ReconciliationEntryResponse, len(r.Entries))
	for i, e := range r.Entries {
		resp := ReconciliationEntryResponse{
			FinAccountTranID: e.FinAccountTranID,
			SignedAmount:     e.SignedAmount,
			MatchedAt:        e.MatchedAt,
		}
		if e.EntryRef != nil {
			tranID := e.EntryRef.AcctgTranID
			seq := e.EntryRef.SequenceID
			resp.AcctgTranID = &tranID
			resp.SequenceID = &seq
		}
		entries[i] = resp
	}
	return ReconciliationResponse{
		ReconciliationID:  r.ReconciliationID,
		AccountID:         r.AccountID,
		OrganizationID:    r.OrganizationID,
		Status:            r.Status,
		OpeningBalance:    r.OpeningBalance,
		ReconciledBalance: r.ReconciledBalance,
		ReconciledDate:    r.ReconciledDate,
		Description:       r.Description,
		Entries:           entries,
		CreatedAt:         r.CreatedAt,
	}
}
