package dto

import (
	"time"

	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
)

// CreateAPITokenRequest defines the payload for issuing a machine-caller token.
type CreateAPITokenRequest struct {
	Name          string `json:"name" binding:"required"`
	ExpiresInDays *int   `json:"expiresInDays"` // Nullable: never expires
}

// CreateAPITokenResponse returns the plaintext token exactly once.
type CreateAPITokenResponse struct {
	TokenID   string     `json:"tokenID"`
	Name      string     `json:"name"`
	Token     string     `json:"token"` // Only returned at creation time
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// APITokenResponse defines the data returned when listing tokens.
type APITokenResponse struct {
	TokenID    string     `json:"tokenID"`
	Name       string     `json:"name"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ToAPITokenResponse converts a domain.APIToken.
func ToAPITokenResponse(t *domain.APIToken) APITokenResponse {
	return APITokenResponse{
		TokenID:    t.TokenID,
		Name:       t.Name,
		LastUsedAt: t.LastUsedAt,
		ExpiresAt:  t.ExpiresAt,
		CreatedAt:  t.CreatedAt,
	}
}
