package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// GlReconciliationStatus is the lifecycle state of a reconciliation.
// OPEN accepts matches; CLOSED and ABANDONED are terminal and no longer hold
// their entries exclusively.
type GlReconciliationStatus string

const (
	ReconciliationOpen      GlReconciliationStatus = "OPEN"
	ReconciliationClosed    GlReconciliationStatus = "CLOSED"
	ReconciliationAbandoned GlReconciliationStatus = "ABANDONED"
)

// GlReconciliation groups posted entries matched against an external
// statement for one account. It owns its GlReconciliationEntry rows but only
// references the ledger entries it reconciles.
type GlReconciliation struct {
	ReconciliationID  string                 `json:"reconciliationID"` // Primary Key (e.g., UUID)
	AccountID         string                 `json:"accountID"`        // FK -> GlAccount.accountID
	OrganizationID    string                 `json:"organizationID"`
	Status            GlReconciliationStatus `json:"status"`
	OpeningBalance    decimal.Decimal        `json:"openingBalance"`
	ReconciledBalance *decimal.Decimal        `json:"reconciledBalance,omitempty"` // Set on close
	ReconciledDate    *time.Time              `json:"reconciledDate,omitempty"`    // Set on close
	Description       string                  `json:"description"`
	Entries           []GlReconciliationEntry `json:"entries,omitempty"`
	AuditFields
}

// IsOpen reports whether the reconciliation still accepts matches.
func (r *GlReconciliation) IsOpen() bool {
	return r.Status == ReconciliationOpen
}

// GlReconciliationEntry attaches exactly one posted ledger entry or one
// external fin-account transaction to a reconciliation.
type GlReconciliationEntry struct {
	ReconciliationID string          `json:"reconciliationID"` // FK -> GlReconciliation
	EntryRef         *EntryRef       `json:"entryRef,omitempty"`
	FinAccountTranID *string         `json:"finAccountTranID,omitempty"`
	SignedAmount     decimal.Decimal `json:"signedAmount"` // Convention-signed amount captured at match time
	MatchedAt        time.Time       `json:"matchedAt"`
	MatchedBy        string          `json:"matchedBy"`
}

// MatchTarget abstracts "the thing being matched": a ledger entry by
// composite key, or a fin-account transaction by id. Exactly one is set.
type MatchTarget struct {
	Entry          *EntryRef
	FinAccountTran *string
}
