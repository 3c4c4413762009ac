package services

import (
	"context"

	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	"github.com/ledgerforge/gl_ledger_app/internal/dto"
)

// TransactionBuilderSvc constructs candidate ledger transactions. Drafts are
// staged state: invisible to reconciliation until posted.
type TransactionBuilderSvc interface {
	// BeginTransaction creates an UNPOSTED draft, optionally with initial entries.
	BeginTransaction(ctx context.Context, organizationID string, req dto.BeginTransactionRequest, userID string) (*domain.AcctgTran, error)

	// AddEntry appends a line to a draft. It returns the stored entry and any
	// debit/credit convention warnings.
	AddEntry(ctx context.Context, organizationID string, tranID string, req dto.AddEntryRequest, userID string) (*domain.AcctgTransEntry, []string, error)
}

// PostingSvc commits built transactions and exposes the posted ledger.
type PostingSvc interface {
	// PostTransaction validates and atomically commits a draft.
	PostTransaction(ctx context.Context, organizationID string, tranID string, force bool, userID string) (*domain.AcctgTran, error)

	// ReverseTransaction posts a new transaction with every entry's side
	// flipped. Posted transactions are never edited.
	ReverseTransaction(ctx context.Context, organizationID string, tranID string, userID string) (*domain.AcctgTran, error)

	// GetTransaction retrieves a transaction with its entries.
	GetTransaction(ctx context.Context, organizationID string, tranID string) (*domain.AcctgTran, error)

	// ListTransactions retrieves a token-paginated list for an organization.
	ListTransactions(ctx context.Context, organizationID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)

	// ListEntriesByAccount retrieves token-paginated posted entries for an account.
	ListEntriesByAccount(ctx context.Context, organizationID string, accountID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)
}

// LedgerSvcFacade combines the builder and posting interfaces.
type LedgerSvcFacade interface {
	TransactionBuilderSvc
	PostingSvc
}
