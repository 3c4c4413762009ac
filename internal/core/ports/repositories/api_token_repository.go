package repositories

import (
	"context"
	"time"

	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
)

// APITokenRepository defines the interface for API token data access operations.
type APITokenRepository interface {
	// Create persists a new API token
	Create(ctx context.Context, token *domain.APIToken) error

	// FindByID retrieves an API token by its ID
	FindByID(ctx context.Context, id string) (*domain.APIToken, error)

	// List retrieves all API tokens
	List(ctx context.Context) ([]domain.APIToken, error)

	// TouchLastUsed updates the last_used_at timestamp
	TouchLastUsed(ctx context.Context, id string, at time.Time) error

	// Delete removes an API token by ID
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes all API tokens expired before the given time
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
