package accounting

import (
	"fmt"

	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CalculateSignedAmount applies the accounting-convention sign to an entry
// amount based on the account class:
// DEBIT to ASSET/EXPENSE -> Positive (+)
// CREDIT to ASSET/EXPENSE -> Negative (-)
// DEBIT to LIABILITY/EQUITY/REVENUE -> Negative (-)
// CREDIT to LIABILITY/EQUITY/REVENUE -> Positive (+)
func CalculateSignedAmount(entry domain.AcctgTransEntry, class domain.GlAccountClass) (decimal.Decimal, error) {
	switch class {
	case domain.Asset, domain.Expense, domain.Liability, domain.Equity, domain.Revenue:
		return entry.SignedAmount(class), nil
	default:
		return decimal.Zero, fmt.Errorf("unknown account class '%s' for account ID %s", class, entry.AccountID)
	}
}

// BalanceDeltas computes sum(debits) - sum(credits) per currency present in
// the entry set. A transaction is balanced iff every delta is zero within the
// currency's tolerance.
func BalanceDeltas(entries []domain.AcctgTransEntry) map[string]decimal.Decimal {
	deltas := make(map[string]decimal.Decimal, 1)
	for _, e := range entries {
		amt := e.Amount
		if e.Side == domain.Credit {
			amt = amt.Neg()
		}
		deltas[e.CurrencyCode] = deltas[e.CurrencyCode].Add(amt)
	}
	return deltas
}

// WithinTolerance reports whether delta is zero within one minor unit.
func WithinTolerance(delta, tolerance decimal.Decimal) bool {
	return delta.Abs().LessThanOrEqual(tolerance)
}

// SumSignedAmounts totals the convention-signed amounts of entries against a
// single account class. Used for derived balances and reconciliation closure.
func SumSignedAmounts(entries []domain.AcctgTransEntry, class domain.GlAccountClass) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range entries {
		signed, err := CalculateSignedAmount(e, class)
		if err != nil {
			return decimal.Zero, err
		}
		sum = sum.Add(signed)
	}
	return sum, nil
}

// Convert applies an exchange rate to an amount and rounds to the target
// currency's minor units.
func Convert(amount, rate decimal.Decimal, minorUnits int32) decimal.Decimal {
	return amount.Mul(rate).Round(minorUnits)
}
