package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerforge/gl_ledger_app/internal/apperrors"
	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	portsrepo "github.com/ledgerforge/gl_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/ledgerforge/gl_ledger_app/internal/core/ports/services"
	"github.com/ledgerforge/gl_ledger_app/internal/utils"
)

var (
	ErrTokenInvalid = errors.New("invalid API token")
	ErrTokenExpired = errors.New("API token has expired")
)

const tokenSecretBytes = 32

// apiTokenService issues and validates machine-caller tokens. Tokens are
// "tokenID.secret"; only the bcrypt hash of the secret is stored, and the id
// prefix lets validation look up one row instead of scanning every hash.
type apiTokenService struct {
	tokenRepo portsrepo.APITokenRepository
}

// NewAPITokenService creates a new API token service.
func NewAPITokenService(tokenRepo portsrepo.APITokenRepository) portssvc.APITokenSvc {
	return &apiTokenService{tokenRepo: tokenRepo}
}

var _ portssvc.APITokenSvc = (*apiTokenService)(nil)

// CreateToken issues a new token. The plaintext is returned exactly once.
func (s *apiTokenService) CreateToken(ctx context.Context, name string, expiresIn *time.Duration, userID string) (string, *domain.APIToken, error) {
	secret, err := utils.GenerateSecureRandomString(tokenSecretBytes)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token secret: %w", err)
	}
	hash, err := utils.HashToken(secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to hash token secret: %w", err)
	}

	now := time.Now().UTC()
	token := domain.APIToken{
		TokenID:   uuid.NewString(),
		Name:      name,
		TokenHash: hash,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if expiresIn != nil {
		expiresAt := now.Add(*expiresIn)
		token.ExpiresAt = &expiresAt
	}

	if err := s.tokenRepo.Create(ctx, &token); err != nil {
		return "", nil, fmt.Errorf("failed to create API token: %w", err)
	}
	return token.TokenID + "." + secret, &token, nil
}

func (s *apiTokenService) ListTokens(ctx context.Context) ([]domain.APIToken, error) {
	tokens, err := s.tokenRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list API tokens: %w", err)
	}
	if tokens == nil {
		return []domain.APIToken{}, nil
	}
	return tokens, nil
}

func (s *apiTokenService) RevokeToken(ctx context.Context, tokenID string) error {
	if err := s.tokenRepo.Delete(ctx, tokenID); err != nil {
		return fmt.Errorf("failed to revoke API token %s: %w", tokenID, err)
	}
	return nil
}

// ValidateToken checks a presented "tokenID.secret" token and returns the
// token id as the caller identity. Validation failures are deliberately
// indistinguishable except for expiry.
func (s *apiTokenService) ValidateToken(ctx context.Context, tokenString string) (string, error) {
	tokenID, secret, ok := strings.Cut(tokenString, ".")
	if !ok || tokenID == "" || secret == "" {
		return "", ErrTokenInvalid
	}

	token, err := s.tokenRepo.FindByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", ErrTokenInvalid
		}
		return "", fmt.Errorf("failed to find API token: %w", err)
	}
	if token.IsExpired(time.Now().UTC()) {
		return "", ErrTokenExpired
	}
	if !utils.CheckTokenHash(secret, token.TokenHash) {
		return "", ErrTokenInvalid
	}

	// Best effort; a stale last-used timestamp never blocks the caller.
	_ = s.tokenRepo.TouchLastUsed(ctx, token.TokenID, time.Now().UTC())

	return token.TokenID, nil
}
