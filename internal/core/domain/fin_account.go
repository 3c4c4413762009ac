package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FinAccountTranType categorizes an external financial-account movement.
type FinAccountTranType string

const (
	FinTranDeposit    FinAccountTranType = "DEPOSIT"
	FinTranWithdrawal FinAccountTranType = "WITHDRAWAL"
	FinTranAdjustment FinAccountTranType = "ADJUSTMENT"
)

// FinAccountTran is one statement-side movement on an external financial
// account (bank feed, gift card, store credit). It is the counterpart matched
// during reconciliation and may link back to the ledger transaction that
// records it.
type FinAccountTran struct {
	FinAccountTranID string             `json:"finAccountTranID"` // Primary Key (e.g., UUID)
	FinAccountID     string             `json:"finAccountID"`     // Opaque external account reference
	OrganizationID   string             `json:"organizationID"`
	TranType         FinAccountTranType `json:"tranType"`
	Amount           decimal.Decimal    `json:"amount"` // Signed from the account holder's view
	CurrencyCode     string             `json:"currencyCode"`
	TransactionDate  time.Time          `json:"transactionDate"`
	Description      string             `json:"description"`
	// AcctgTranID is set once a corresponding ledger transaction is posted.
	AcctgTranID *string `json:"acctgTranID,omitempty"`
	AuditFields
}
