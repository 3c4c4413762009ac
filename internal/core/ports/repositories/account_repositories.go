package repositories

import (
	"context"
	"time"

	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
)

// GlAccountReader defines read operations for chart-of-accounts data.
type GlAccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.GlAccount, error)

	// FindAccountsByIDs retrieves multiple accounts by their IDs.
	FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.GlAccount, error)

	// ListAccounts retrieves a paginated list of accounts for an organization.
	ListAccounts(ctx context.Context, organizationID string, limit int, offset int) ([]domain.GlAccount, error)

	// FindAccountTypeByID retrieves an account type with its class.
	FindAccountTypeByID(ctx context.Context, typeID string) (*domain.GlAccountType, error)
}

// GlAccountWriter defines write operations for chart-of-accounts data.
type GlAccountWriter interface {
	// SaveAccount persists a new account.
	SaveAccount(ctx context.Context, account domain.GlAccount) error

	// UpdateAccount updates an existing account's details.
	UpdateAccount(ctx context.Context, account domain.GlAccount) error

	// DeactivateAccount marks an account as inactive.
	DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error
}

// GlAccountRepositoryFacade combines all account-related repository interfaces.
type GlAccountRepositoryFacade interface {
	GlAccountReader
	GlAccountWriter
}
