package domain

import "github.com/shopspring/decimal"

// EntrySide indicates whether a ledger line is a Debit or a Credit.
type EntrySide string

const (
	Debit  EntrySide = "DEBIT"
	Credit EntrySide = "CREDIT"
)

// Opposite returns the flipped side, used when building reversing transactions.
func (s EntrySide) Opposite() EntrySide {
	if s == Debit {
		return Credit
	}
	return Debit
}

// ReconciliationStatus tracks whether a posted entry has been matched against
// an external statement.
type ReconciliationStatus string

const (
	NotReconciled ReconciliationStatus = "NOT_RECONCILED"
	Reconciling   ReconciliationStatus = "RECONCILING"
	Reconciled    ReconciliationStatus = "RECONCILED"
)

// AcctgTransEntry is a single debit or credit line within an AcctgTran.
// Entries are owned exclusively by their transaction (composite key
// AcctgTranID + SequenceID) and become immutable once the transaction posts.
type AcctgTransEntry struct {
	AcctgTranID  string          `json:"acctgTranID"` // FK -> AcctgTran.acctgTranID (Not Null)
	SequenceID   int             `json:"sequenceID"`  // Position within the transaction, 1-based
	AccountID    string          `json:"accountID"`   // FK -> GlAccount.accountID (Not Null)
	Amount       decimal.Decimal `json:"amount"`      // Always positive; side carries the direction
	Side         EntrySide       `json:"side"`        // DEBIT or CREDIT (Not Null)
	CurrencyCode string          `json:"currencyCode"`
	// Original-currency pair for FX entries. When OrigCurrencyCode differs from
	// CurrencyCode, Amount is the converted value and OrigAmount the source value.
	OrigAmount       *decimal.Decimal     `json:"origAmount,omitempty"`
	OrigCurrencyCode string               `json:"origCurrencyCode,omitempty"`
	ReconStatus      ReconciliationStatus `json:"reconStatus"`
	Description      string               `json:"description"` // Nullable
	AuditFields
}

// EntryRef identifies one entry by its composite key.
type EntryRef struct {
	AcctgTranID string `json:"acctgTranID"`
	SequenceID  int    `json:"sequenceID"`
}

// IsMultiCurrency reports whether the entry carries an original-currency pair
// differing from its booked currency.
func (e AcctgTransEntry) IsMultiCurrency() bool {
	return e.OrigAmount != nil && e.OrigCurrencyCode != "" && e.OrigCurrencyCode != e.CurrencyCode
}

// SignedAmount returns the entry amount signed by convention against the given
// account class: positive when the side increases the account's normal balance,
// negative when it decreases it.
func (e AcctgTransEntry) SignedAmount(class GlAccountClass) decimal.Decimal {
	if e.Side == class.NormalSide() {
		return e.Amount
	}
	return e.Amount.Neg()
}
