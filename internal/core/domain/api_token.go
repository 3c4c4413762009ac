package domain

import "time"

// APIToken authenticates a machine caller (order processing, payment capture)
// posting into the ledger. Only the bcrypt hash of the token is stored.
type APIToken struct {
	TokenID    string     `json:"tokenID"` // Primary Key (e.g., UUID)
	Name       string     `json:"name"`    // Caller-supplied label
	TokenHash  string     `json:"-"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"` // Nullable: never expires
	AuditFields
}

// IsExpired reports whether the token has passed its expiry, if any.
func (t APIToken) IsExpired(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}
