package services

import (
	"context"
	"time"

	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
)

// APITokenSvc manages machine-caller API tokens.
type APITokenSvc interface {
	// CreateToken issues a new token, returning the plaintext exactly once.
	CreateToken(ctx context.Context, name string, expiresIn *time.Duration, userID string) (string, *domain.APIToken, error)

	// ListTokens returns all issued tokens (hashes omitted).
	ListTokens(ctx context.Context) ([]domain.APIToken, error)

	// RevokeToken deletes a token.
	RevokeToken(ctx context.Context, tokenID string) error

	// ValidateToken checks a presented token and returns the caller id.
	ValidateToken(ctx context.Context, tokenString string) (string, error)
}
