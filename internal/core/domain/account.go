package domain

// GlAccountClass is the fundamental accounting classification of an account.
type GlAccountClass string

const (
	Asset     GlAccountClass = "ASSET"
	Liability GlAccountClass = "LIABILITY"
	Equity    GlAccountClass = "EQUITY"
	Revenue   GlAccountClass = "REVENUE"
	Expense   GlAccountClass = "EXPENSE"
)

// NormalSide returns the entry side that increases the balance of accounts in
// this class. Assets and expenses are debit-increase; liabilities, equity and
// revenue are credit-increase.
func (c GlAccountClass) NormalSide() EntrySide {
	switch c {
	case Asset, Expense:
		return Debit
	default:
		return Credit
	}
}

// GlAccountType refines a GlAccountClass (e.g. "CASH" under ASSET).
type GlAccountType struct {
	TypeID      string         `json:"typeID"`      // Primary Key
	Class       GlAccountClass `json:"class"`       // ASSET, LIABILITY, etc.
	Name        string         `json:"name"`        // e.g. "Cash", "Accounts Payable"
	Description string         `json:"description"` // Nullable
}

// GlAccount is one node in the chart of accounts.
// The parent chain must be acyclic and every ancestor must belong to the
// same organization; accounts referenced by a posted entry are never deleted.
type GlAccount struct {
	AccountID       string         `json:"accountID"`       // Primary Key (e.g., UUID)
	OrganizationID  string         `json:"organizationID"`  // Owning organization (opaque party reference)
	TypeID          string         `json:"typeID"`          // FK -> GlAccountType.typeID
	Class           GlAccountClass `json:"class"`           // Denormalized from the type for convention checks
	Code            string         `json:"code"`            // User-facing account code (optional)
	Name            string         `json:"name"`            // User-defined name
	CurrencyCode    string         `json:"currencyCode"`    // Organization base currency for this account
	ParentAccountID string         `json:"parentAccountID"` // Nullable FK -> gl_accounts.account_id (self-referencing)
	Description     string         `json:"description"`     // Nullable
	IsActive        bool           `json:"isActive"`
	AuditFields
}
