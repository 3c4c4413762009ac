package domain_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decimalPtr(d decimal.Decimal) *decimal.Decimal { return &d }

func TestAcctgTran_AppendEntry(t *testing.T) {
	tran := domain.AcctgTran{
		AcctgTranID:     "tran-1",
		OrganizationID:  "org-1",
		Status:          domain.Unposted,
		TransactionDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	err := tran.AppendEntry(domain.AcctgTransEntry{
		AccountID:    "acc-cash",
		Amount:       decimal.NewFromInt(100),
		Side:         domain.Debit,
		CurrencyCode: "USD",
	})
	require.NoError(t, err)
	err = tran.AppendEntry(domain.AcctgTransEntry{
		AccountID:    "acc-revenue",
		Amount:       decimal.NewFromInt(100),
		Side:         domain.Credit,
		CurrencyCode: "USD",
	})
	require.NoError(t, err)

	require.Len(t, tran.Entries, 2)
	assert.Equal(t, 1, tran.Entries[0].SequenceID)
	assert.Equal(t, 2, tran.Entries[1].SequenceID)
	assert.Equal(t, "tran-1", tran.Entries[0].AcctgTranID)
	assert.Equal(t, "tran-1", tran.Entries[1].AcctgTranID)
}

func TestAcctgTran_MarkPostedIsTerminal(t *testing.T) {
	tran := domain.AcctgTran{AcctgTranID: "tran-1", Status: domain.Unposted}
	postedAt := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)

	require.NoError(t, tran.MarkPosted(postedAt))
	assert.Equal(t, domain.Posted, tran.Status)
	require.NotNil(t, tran.PostedDate)
	assert.True(t, tran.PostedDate.Equal(postedAt))

	err := tran.MarkPosted(postedAt.Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrAlreadyPosted)
	assert.True(t, tran.PostedDate.Equal(postedAt))
}

// Posted transactions must shrug off every mutation attempt without changing
// their entry set or amounts.
func TestAcctgTran_ImmutableAfterPosting(t *testing.T) {
	tran := domain.AcctgTran{AcctgTranID: "tran-1", Status: domain.Unposted}
	require.NoError(t, tran.AppendEntry(domain.AcctgTransEntry{
		AccountID: "acc-cash", Amount: decimal.NewFromFloat(100.00), Side: domain.Debit, CurrencyCode: "USD",
	}))
	require.NoError(t, tran.AppendEntry(domain.AcctgTransEntry{
		AccountID: "acc-revenue", Amount: decimal.NewFromFloat(100.00), Side: domain.Credit, CurrencyCode: "USD",
	}))
	require.NoError(t, tran.MarkPosted(time.Now().UTC()))

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		var err error
		if rng.Intn(2) == 0 {
			err = tran.AppendEntry(domain.AcctgTransEntry{
				AccountID:    "acc-cash",
				Amount:       decimal.NewFromInt(rng.Int63n(1000) + 1),
				Side:         domain.Debit,
				CurrencyCode: "USD",
			})
		} else {
			err = tran.MarkPosted(time.Now().UTC())
		}
		require.ErrorIs(t, err, domain.ErrAlreadyPosted)
	}

	require.Len(t, tran.Entries, 2)
	assert.True(t, tran.Entries[0].Amount.Equal(decimal.NewFromFloat(100.00)))
	assert.True(t, tran.Entries[1].Amount.Equal(decimal.NewFromFloat(100.00)))
}

func TestEntrySide_Opposite(t *testing.T) {
	assert.Equal(t, domain.Credit, domain.Debit.Opposite())
	assert.Equal(t, domain.Debit, domain.Credit.Opposite())
}

func TestAcctgTransEntry_IsMultiCurrency(t *testing.T) {
	tests := []struct {
		name  string
		entry domain.AcctgTransEntry
		want  bool
	}{
		{
			name:  "single currency entry",
			entry: domain.AcctgTransEntry{CurrencyCode: "USD"},
			want:  false,
		},
		{
			name: "converted EUR entry booked in USD",
			entry: domain.AcctgTransEntry{
				CurrencyCode:     "USD",
				OrigAmount:       decimalPtr(decimal.NewFromFloat(92.50)),
				OrigCurrencyCode: "EUR",
			},
			want: true,
		},
		{
			name: "orig pair matching booked currency",
			entry: domain.AcctgTransEntry{
				CurrencyCode:     "USD",
				OrigAmount:       decimalPtr(decimal.NewFromFloat(100.00)),
				OrigCurrencyCode: "USD",
			},
			want: false,
		},
		{
			name: "missing original amount",
			entry: domain.AcctgTransEntry{
				CurrencyCode:     "USD",
				OrigCurrencyCode: "EUR",
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entry.IsMultiCurrency())
		})
	}
}

func TestAcctgTransEntry_SignedAmount(t *testing.T) {
	amt := decimal.NewFromFloat(50.00)

	debit := domain.AcctgTransEntry{Amount: amt, Side: domain.Debit}
	credit := domain.AcctgTransEntry{Amount: amt, Side: domain.Credit}

	assert.True(t, debit.SignedAmount(domain.Asset).Equal(amt))
	assert.True(t, credit.SignedAmount(domain.Asset).Equal(amt.Neg()))
	assert.True(t, debit.SignedAmount(domain.Revenue).Equal(amt.Neg()))
	assert.True(t, credit.SignedAmount(domain.Revenue).Equal(amt))
	assert.True(t, debit.SignedAmount(domain.Expense).Equal(amt))
	assert.True(t, credit.SignedAmount(domain.Liability).Equal(amt))
}

func TestCurrency_Tolerance(t *testing.T) {
	usd := domain.Currency{CurrencyCode: "USD", MinorUnits: 2}
	jpy := domain.Currency{CurrencyCode: "JPY", MinorUnits: 0}

	assert.True(t, usd.Tolerance().Equal(decimal.NewFromFloat(0.01)))
	assert.True(t, jpy.Tolerance().Equal(decimal.NewFromInt(1)))
}
