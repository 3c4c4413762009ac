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

type PgxGlAccountRepository struct {
	pool *pgxpool.Pool
}

// newPgxGlAccountRepository creates a new repository for chart-of-accounts data.
func newPgxGlAccountRepository(pool *pgxpool.Pool) portsrepo.GlAccountRepositoryFacade {
	return &PgxGlAccountRepository{pool: pool}
}

var _ portsrepo.GlAccountRepositoryFacade = (*PgxGlAccountRepository)(nil)

const glAccountColumns = `account_id, organization_id, type_id, class, code, name, currency_code, parent_account_id, description, is_active, created_at, created_by, last_updated_at, last_updated_by`

// scanGlAccount scans one gl_accounts row; parent_account_id and code are nullable.
func scanGlAccount(row pgx.Row) (*domain.GlAccount, error) {
	var account domain.GlAccount
	var parentID, code, description sql.NullString
	err := row.Scan(
		&account.AccountID,
		&account.OrganizationID,
		&account.TypeID,
		&account.Class,
		&code,
		&account.Name,
		&account.CurrencyCode,
		&parentID,
		&description,
		&account.IsActive,
		&account.CreatedAt,
		&account.CreatedBy,
		&account.LastUpdatedAt,
		&account.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	account.Code = code.String
	account.ParentAccountID = parentID.String
	account.Description = description.String
	return &account, nil
}

// SaveAccount inserts a new account.
func (r *PgxGlAccountRepository) SaveAccount(ctx context.Context, account domain.GlAccount) error {
	query := `
		INSERT INTO gl_accounts (` + glAccountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	var parentID sql.NullString
	if account.ParentAccountID != "" {
		parentID = sql.NullString{String: account.ParentAccountID, Valid: true}
	}

	_, err := r.pool.Exec(ctx, query,
		account.AccountID,
		account.OrganizationID,
		account.TypeID,
		account.Class,
		nullIfEmpty(account.Code),
		account.Name,
		account.CurrencyCode,
		parentID,
		nullIfEmpty(account.Description),
		account.IsActive,
		account.CreatedAt,
		account.CreatedBy,
		account.LastUpdatedAt,
		account.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return fmt.Errorf("%w: account with ID %s already exists", apperrors.ErrDuplicate, account.AccountID)
		}
		return fmt.Errorf("failed to save account %s: %w", account.AccountID, err)
	}
	return nil
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxGlAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.GlAccount, error) {
	query := `SELECT ` + glAccountColumns + ` FROM gl_accounts WHERE account_id = $1;`

	account, err := scanGlAccount(r.pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account by ID %s: %w", accountID, err)
	}
	return account, nil
}

// FindAccountsByIDs retrieves multiple accounts by their IDs. IDs with no
// matching row are simply absent from the map; the caller decides whether
// that is an error.
func (r *PgxGlAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.GlAccount, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.GlAccount{}, nil
	}

	query := `SELECT ` + glAccountColumns + ` FROM gl_accounts WHERE account_id = ANY($1);`

	rows, err := r.pool.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by IDs: %w", err)
	}
	defer rows.Close()

	accountsMap := make(map[string]domain.GlAccount)
	for rows.Next() {
		account, err := scanGlAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row during batch fetch: %w", err)
		}
		accountsMap[account.AccountID] = *account
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows during batch fetch: %w", err)
	}
	return accountsMap, nil
}

// ListAccounts retrieves a paginated list of active accounts for an organization.
func (r *PgxGlAccountRepository) ListAccounts(ctx context.Context, organizationID string, limit int, offset int) ([]domain.GlAccount, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT ` + glAccountColumns + `
		FROM gl_accounts
		WHERE is_active = TRUE AND organization_id = $1
		ORDER BY code NULLS LAST, name
		LIMIT $2 OFFSET $3;
	`

	rows, err := r.pool.Query(ctx, query, organizationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts for organization %s: %w", organizationID, err)
	}
	defer rows.Close()

	accounts := []domain.GlAccount{}
	for rows.Next() {
		account, err := scanGlAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row for organization %s: %w", organizationID, err)
		}
		accounts = append(accounts, *account)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating account rows for organization %s: %w", organizationID, rows.Err())
	}
	return accounts, nil
}

// FindAccountTypeByID retrieves an account type with its class.
func (r *PgxGlAccountRepository) FindAccountTypeByID(ctx context.Context, typeID string) (*domain.GlAccountType, error) {
	query := `SELECT type_id, class, name, description FROM gl_account_types WHERE type_id = $1;`

	var accountType domain.GlAccountType
	var description sql.NullString
	err := r.pool.QueryRow(ctx, query, typeID).Scan(
		&accountType.TypeID,
		&accountType.Class,
		&accountType.Name,
		&description,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account type %s: %w", typeID, err)
	}
	accountType.Description = description.String
	return &accountType, nil
}

// UpdateAccount updates an existing account's mutable fields.
func (r *PgxGlAccountRepository) UpdateAccount(ctx context.Context, account domain.GlAccount) error {
	// Class, currency and parent stay fixed after creation; posted entries
	// depend on them.
	query := `
		UPDATE gl_accounts
		SET name = $2, description = $3, is_active = $4, last_updated_at = $5, last_updated_by = $6
		WHERE account_id = $1;
	`
	cmdTag, err := r.pool.Exec(ctx, query,
		account.AccountID,
		account.Name,
		nullIfEmpty(account.Description),
		account.IsActive,
		account.LastUpdatedAt,
		account.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to execute update account %s: %w", account.AccountID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeactivateAccount marks an account as inactive.
func (r *PgxGlAccountRepository) DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	query := `
		UPDATE gl_accounts
		SET is_active = FALSE, last_updated_at = $2, last_updated_by = $3
		WHERE account_id = $1 AND is_active = TRUE;
	`
	cmdTag, err := r.pool.Exec(ctx, query, accountID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to execute deactivate account %s: %w", accountID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, findErr := r.FindAccountByID(ctx, accountID); errors.Is(findErr, apperrors.ErrNotFound) {
			return apperrors.ErrNotFound
		} else if findErr != nil {
			return fmt.Errorf("failed to check account status after deactivation attempt for %s: %w", accountID, findErr)
		}
		// Exists but already inactive
		return apperrors.ErrConflict
	}
	return nil
}

// nullIfEmpty maps "" to SQL NULL for nullable text columns.
func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
