package domain

import (
	"errors"
	"time"
)

// AcctgTranStatus is the posting state of a ledger transaction.
// The only transition is UNPOSTED -> POSTED; POSTED is terminal.
type AcctgTranStatus string

const (
	Unposted AcctgTranStatus = "UNPOSTED"
	Posted   AcctgTranStatus = "POSTED"
)

// AcctgTranType categorizes the business event behind a transaction.
type AcctgTranType string

const (
	TranTypeManual        AcctgTranType = "MANUAL"
	TranTypeSales         AcctgTranType = "SALES"
	TranTypePurchase      AcctgTranType = "PURCHASE"
	TranTypePayment       AcctgTranType = "PAYMENT"
	TranTypeReceipt       AcctgTranType = "RECEIPT"
	TranTypeInventory     AcctgTranType = "INVENTORY"
	TranTypeDepreciation  AcctgTranType = "DEPRECIATION"
	TranTypePeriodClosing AcctgTranType = "PERIOD_CLOSING"
	TranTypeReversal      AcctgTranType = "REVERSAL"
)

// OriginKind enumerates the business documents that may originate a ledger
// transaction. The ledger never dereferences these; they are opaque ids kept
// for traceability.
type OriginKind string

const (
	OriginInvoice           OriginKind = "INVOICE"
	OriginPayment           OriginKind = "PAYMENT"
	OriginFinAccountTran    OriginKind = "FIN_ACCOUNT_TRAN"
	OriginShipmentReceipt   OriginKind = "SHIPMENT_RECEIPT"
	OriginPhysicalInventory OriginKind = "PHYSICAL_INVENTORY"
	OriginWorkEffort        OriginKind = "WORK_EFFORT"
	OriginFixedAsset        OriginKind = "FIXED_ASSET"
)

// OriginRef is a typed reference to the single business document that
// originated a transaction. A transaction carries at most one origin.
type OriginRef struct {
	Kind OriginKind `json:"kind"`
	ID   string     `json:"id"`
}

// ErrAlreadyPosted is returned by any mutation attempted on a posted
// transaction. Amendments happen only through a new reversing transaction.
var ErrAlreadyPosted = errors.New("transaction is already posted and immutable")

// AcctgTran is a ledger transaction header owning its entry lines.
// Entries cannot outlive or be shared across transactions.
type AcctgTran struct {
	AcctgTranID          string          `json:"acctgTranID"` // Primary Key (e.g., UUID)
	OrganizationID       string          `json:"organizationID"`
	TranType             AcctgTranType   `json:"tranType"`
	Description          string          `json:"description"` // Nullable
	Status               AcctgTranStatus `json:"status"`
	TransactionDate      time.Time       `json:"transactionDate"`
	ScheduledPostingDate *time.Time      `json:"scheduledPostingDate,omitempty"`
	PostedDate           *time.Time      `json:"postedDate,omitempty"`
	Origin               *OriginRef      `json:"origin,omitempty"`
	// ReversedTranID links a REVERSAL transaction back to the one it undoes.
	ReversedTranID *string           `json:"reversedTranID,omitempty"`
	Entries        []AcctgTransEntry `json:"entries,omitempty"`
	AuditFields
}

// IsPosted reports whether the transaction has reached its terminal state.
func (t *AcctgTran) IsPosted() bool {
	return t.Status == Posted
}

// AppendEntry adds a line to an unposted draft. Entries are append-only; the
// sequence id is assigned from the current entry count.
func (t *AcctgTran) AppendEntry(e AcctgTransEntry) error {
	if t.IsPosted() {
		return ErrAlreadyPosted
	}
	e.AcctgTranID = t.AcctgTranID
	e.SequenceID = len(t.Entries) + 1
	t.Entries = append(t.Entries, e)
	return nil
}

// MarkPosted transitions the draft to POSTED. The transition is one-way;
// a second call fails with ErrAlreadyPosted.
func (t *AcctgTran) MarkPosted(at time.Time) error {
	if t.IsPosted() {
		return ErrAlreadyPosted
	}
	t.Status = Posted
	t.PostedDate = &at
	return nil
}
