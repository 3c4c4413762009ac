package dto

import (
	"time"

	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// OriginRefRequest is the typed origin-document reference on a transaction.
type OriginRefRequest struct {
	Kind domain.OriginKind `json:"kind" binding:"required,oneof=INVOICE PAYMENT FIN_ACCOUNT_TRAN SHIPMENT_RECEIPT PHYSICAL_INVENTORY WORK_EFFORT FIXED_ASSET"`
	ID   string            `json:"id" binding:"required"`
}

// AddEntryRequest defines one debit or credit line appended to a draft.
type AddEntryRequest struct {
	AccountID    string           `json:"accountID" binding:"required"`
	Amount       decimal.Decimal  `json:"amount" binding:"required"`
	Side         domain.EntrySide `json:"side" binding:"required,oneof=DEBIT CREDIT"`
	CurrencyCode string           `json:"currencyCode" binding:"required,len=3"`
	// Optional original-currency pair; when the currency differs from the
	// account's base currency the amount is converted at the rate in effect
	// on the transaction date.
	OrigAmount       *decimal.Decimal `json:"origAmount"`
	OrigCurrencyCode string           `json:"origCurrencyCode"`
	Description      string           `json:"description"`
}

// BeginTransactionRequest defines the payload for starting a draft transaction.
type BeginTransactionRequest struct {
	TranType             domain.AcctgTranType `json:"tranType" binding:"required"`
	Description          string               `json:"description"`
	TransactionDate      time.Time            `json:"transactionDate" binding:"required"`
	ScheduledPostingDate *time.Time           `json:"scheduledPostingDate"`
	Origin               *OriginRefRequest    `json:"origin"`
	Entries              []AddEntryRequest    `json:"entries"` // Optional initial lines
}

// PostTransactionRequest carries posting options.
type PostTransactionRequest struct {
	// Force overrides the scheduled-posting-date policy for explicitly
	// backdated corrections.
	Force bool `json:"force"`
}

// EntryResponse defines the data returned for one ledger line.
type EntryResponse struct {
	AcctgTranID      string                      `json:"acctgTranID"`
	SequenceID       int                         `json:"sequenceID"`
	AccountID        string                      `json:"accountID"`
	Amount           decimal.Decimal             `json:"amount"`
	Side             domain.EntrySide            `json:"side"`
	CurrencyCode     string                      `json:"currencyCode"`
	OrigAmount       *decimal.Decimal            `json:"origAmount,omitempty"`
	OrigCurrencyCode string                      `json:"origCurrencyCode,omitempty"`
	ReconStatus      domain.ReconciliationStatus `json:"reconStatus"`
	Description      string                      `json:"description,omitempty"`
}

// AddEntryResponse returns the stored entry plus any convention warnings
// (e.g. a credit against an asset account); warnings never block the entry.
type AddEntryResponse struct {
	Entry    EntryResponse `json:"entry"`
	Warnings []string      `json:"warnings,omitempty"`
}

// TransactionResponse defines the data returned for a transaction.
type TransactionResponse struct {
	AcctgTranID          string                 `json:"acctgTranID"`
	OrganizationID       string                 `json:"organizationID"`
	TranType             domain.AcctgTranType   `json:"tranType"`
	Description          string                 `json:"description,omitempty"`
	Status               domain.AcctgTranStatus `json:"status"`
	TransactionDate      time.Time              `json:"transactionDate"`
	ScheduledPostingDate *time.Time             `json:"scheduledPostingDate,omitempty"`
	PostedDate           *time.Time             `json:"postedDate,omitempty"`
	Origin               *domain.OriginRef      `json:"origin,omitempty"`
	ReversedTranID       *string                `json:"reversedTranID,omitempty"`
	Entries              []EntryResponse        `json:"entries,omitempty"`
	CreatedAt            time.Time              `json:"createdAt"`
	CreatedBy            string                 `json:"createdBy"`
}

// ListTransactionsParams holds parameters for listing transactions.
type ListTransactionsParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ListTransactionsResponse is a token-paginated page of transactions.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// ListEntriesParams holds parameters for listing entries by account.
type ListEntriesParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ListEntriesResponse is a token-paginated page of entries.
type ListEntriesResponse struct {
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// ToEntryResponse converts a domain.AcctgTransEntry to EntryResponse.
func ToEntryResponse(e *domain.AcctgTransEntry) EntryResponse {
	return EntryResponse{
		AcctgTranID:      e.AcctgTranID,
		SequenceID:       e.SequenceID,
		AccountID:        e.AccountID,
		Amount:           e.Amount,
		Side:             e.Side,
		CurrencyCode:     e.CurrencyCode,
		OrigAmount:       e.OrigAmount,
		OrigCurrencyCode: e.OrigCurrencyCode,
		ReconStatus:      e.ReconStatus,
		Description:      e.Description,
	}
}

// ToEntryResponses converts a slice of entries.
func ToEntryResponses(entries []domain.AcctgTransEntry) []EntryResponse {
	responses := make([]EntryResponse, len(entries))
	for i := range entries {
		responses[i] = ToEntryResponse(&entries[i])
	}
	return responses
}

// ToTransactionResponse converts a domain.AcctgTran to TransactionResponse.
func ToTransactionResponse(t *domain.AcctgTran) TransactionResponse {
	return TransactionResponse{
		AcctgTranID:          t.AcctgTranID,
		OrganizationID:       t.OrganizationID,
		TranType:             t.TranType,
		Description:          t.Description,
		Status:               t.Status,
		TransactionDate:      t.TransactionDate,
		ScheduledPostingDate: t.ScheduledPostingDate,
		PostedDate:           t.PostedDate,
		Origin:               t.Origin,
		ReversedTranID:       t.ReversedTranID,
		Entries:              ToEntryResponses(t.Entries),
		CreatedAt:            t.CreatedAt,
		CreatedBy:            t.CreatedBy,
	}
}
