package repositories

import (
	"context"
	"time"

	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AcctgTranReader defines read operations for ledger transactions.
type AcctgTranReader interface {
	// FindTranByID retrieves a transaction header with its entries.
	FindTranByID(ctx context.Context, tranID string) (*domain.AcctgTran, error)

	// FindEntryByRef retrieves a single entry by its composite key.
	FindEntryByRef(ctx context.Context, ref domain.EntryRef) (*domain.AcctgTransEntry, error)

	// ListTransByOrganization retrieves a token-paginated list of transactions.
	ListTransByOrganization(ctx context.Context, organizationID string, limit int, nextToken *string) ([]domain.AcctgTran, *string, error)

	// ListEntriesByAccountID retrieves token-paginated posted entries for an account.
	ListEntriesByAccountID(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.AcctgTransEntry, *string, error)

	// SumPostedByAccount computes the derived balance of an account: the sum
	// of convention-signed posted entry amounts. Balances are never stored.
	SumPostedByAccount(ctx context.Context, accountID string) (decimal.Decimal, error)
}

// AcctgTranWriter defines write operations for ledger transactions.
type AcctgTranWriter interface {
	// SaveDraft persists a new unposted transaction header and any initial entries.
	SaveDraft(ctx context.Context, tran domain.AcctgTran) error

	// AppendEntry adds an entry to an unposted draft, assigning the next
	// sequence id. Fails with domain.ErrAlreadyPosted if the draft has posted.
	AppendEntry(ctx context.Context, tranID string, entry domain.AcctgTransEntry) (*domain.AcctgTransEntry, error)

	// PostTransaction atomically transitions a draft from UNPOSTED to POSTED.
	// The draft is locked, its entries loaded and passed to validate; any
	// validation error rolls the transaction back unchanged. The status flip
	// is a compare-and-swap on the UNPOSTED status, so concurrent posters
	// cannot both succeed.
	PostTransaction(ctx context.Context, tranID string, postedAt time.Time, userID string, validate func(tran *domain.AcctgTran) error) (*domain.AcctgTran, error)

	// SaveReversal persists an already-balanced reversing transaction as
	// POSTED in a single database transaction.
	SaveReversal(ctx context.Context, reversal domain.AcctgTran) error
}

// AcctgTranRepositoryFacade combines all transaction repository interfaces.
type AcctgTranRepositoryFacade interface {
	AcctgTranReader
	AcctgTranWriter
}

// AcctgTranRepositoryWithTx extends the facade with transaction management.
type AcctgTranRepositoryWithTx interface {
	AcctgTranRepositoryFacade
	TransactionManager
}
