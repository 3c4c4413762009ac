package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerforge/gl_ledger_app/internal/apperrors"
	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	portsrepo "github.com/ledgerforge/gl_ledger_app/internal/core/ports/repositories"
)

type PgxAPITokenRepository struct {
	pool *pgxpool.Pool
}

// newPgxAPITokenRepository creates a new repository for API tokens.
func newPgxAPITokenRepository(pool *pgxpool.Pool) portsrepo.APITokenRepository {
	return &PgxAPITokenRepository{pool: pool}
}

var _ portsrepo.APITokenRepository = (*PgxAPITokenRepository)(nil)

const apiTokenColumns = `token_id, name, token_hash, last_used_at, expires_at, created_at, created_by, last_updated_at, last_updated_by`

func scanAPIToken(row pgx.Row) (*domain.APIToken, error) {
	var token domain.APIToken
	var lastUsedAt, expiresAt sql.NullTime
	err := row.Scan(
		&token.TokenID,
		&token.Name,
		&token.TokenHash,
		&lastUsedAt,
		&expiresAt,
		&token.CreatedAt,
		&token.CreatedBy,
		&token.LastUpdatedAt,
		&token.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if lastUsedAt.Valid {
		t := lastUsedAt.Time
		token.LastUsedAt = &t
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		token.ExpiresAt = &t
	}
	return &token, nil
}

// Create persists a new API token.
func (r *PgxAPITokenRepository) Create(ctx context.Context, token *domain.APIToken) error {
	query := `
		INSERT INTO api_tokens (` + apiTokenColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.pool.Exec(ctx, query,
		token.TokenID,
		token.Name,
		token.TokenHash,
		token.LastUsedAt,
		token.ExpiresAt,
		token.CreatedAt,
		token.CreatedBy,
		token.LastUpdatedAt,
		token.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return fmt.Errorf("%w: API token %s already exists", apperrors.ErrDuplicate, token.TokenID)
		}
		return fmt.Errorf("failed to save API token %s: %w", token.TokenID, err)
	}
	return nil
}

// FindByID retrieves an API token by its ID.
func (r *PgxAPITokenRepository) FindByID(ctx context.Context, id string) (*domain.APIToken, error) {
	query := `SELECT ` + apiTokenColumns + ` FROM api_tokens WHERE token_id = $1;`

	token, err := scanAPIToken(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find API token %s: %w", id, err)
	}
	return token, nil
}

// List retrieves all API tokens.
func (r *PgxAPITokenRepository) List(ctx context.Context) ([]domain.APIToken, error) {
	query := `SELECT ` + apiTokenColumns + ` FROM api_tokens ORDER BY created_at DESC;`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query API tokens: %w", err)
	}
	defer rows.Close()

	tokens := []domain.APIToken{}
	for rows.Next() {
		token, err := scanAPIToken(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan API token row: %w", err)
		}
		tokens = append(tokens, *token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating API token rows: %w", err)
	}
	return tokens, nil
}

// TouchLastUsed updates the last_used_at timestamp.
func (r *PgxAPITokenRepository) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE api_tokens SET last_used_at = $2 WHERE token_id = $1;`

	cmdTag, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to touch API token %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete removes an API token by ID.
func (r *PgxAPITokenRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM api_tokens WHERE token_id = $1;`

	cmdTag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete API token %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteExpired removes all API tokens expired before the given time.
func (r *PgxAPITokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM api_tokens WHERE expires_at IS NOT NULL AND expires_at < $1;`

	cmdTag, err := r.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired API tokens: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}
