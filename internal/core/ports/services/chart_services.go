package services

import (
	"context"

	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	"github.com/ledgerforge/gl_ledger_app/internal/dto"
	"github.com/shopspring/decimal"
)

// ChartReaderSvc defines read operations on the chart of accounts.
type ChartReaderSvc interface {
	// ResolveAccount retrieves an account scoped to an organization.
	// Accounts of other organizations surface as not found.
	ResolveAccount(ctx context.Context, organizationID string, accountID string) (*domain.GlAccount, error)

	// ResolveAccounts retrieves multiple accounts scoped to an organization.
	ResolveAccounts(ctx context.Context, organizationID string, accountIDs []string) (map[string]domain.GlAccount, error)

	// AncestorsOf returns the parent chain of an account, root last.
	AncestorsOf(ctx context.Context, accountID string) ([]domain.GlAccount, error)

	// ListAccounts retrieves a paginated list of accounts for an organization.
	ListAccounts(ctx context.Context, organizationID string, limit int, offset int) ([]domain.GlAccount, error)

	// DerivedBalance recomputes the account balance from posted entries.
	DerivedBalance(ctx context.Context, organizationID string, accountID string) (decimal.Decimal, error)
}

// ChartWriterSvc defines write operations on the chart of accounts.
type ChartWriterSvc interface {
	// CreateAccount persists a new account after validating its type, parent
	// chain and organization.
	CreateAccount(ctx context.Context, organizationID string, req dto.CreateAccountRequest, userID string) (*domain.GlAccount, error)

	// UpdateAccount updates an existing account's mutable details.
	UpdateAccount(ctx context.Context, organizationID string, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.GlAccount, error)

	// DeactivateAccount marks an account as inactive. Accounts referenced by
	// posted entries are never deleted.
	DeactivateAccount(ctx context.Context, organizationID string, accountID string, userID string) error
}

// ChartSvcFacade combines all chart-of-accounts service interfaces.
type ChartSvcFacade interface {
	ChartReaderSvc
	ChartWriterSvc

	// ConventionWarning reports a human-readable warning when side runs
	// against the account class's normal balance direction, or "" when the
	// entry follows convention. Violations are warnings, never hard errors,
	// since correcting entries legitimately invert convention.
	ConventionWarning(account *domain.GlAccount, side domain.EntrySide) string
}
