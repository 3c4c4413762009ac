package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ledgerforge/gl_ledger_app/internal/apperrors"
	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	portsrepo "github.com/ledgerforge/gl_ledger_app/internal/core/ports/repositories"
	"github.com/ledgerforge/gl_ledger_app/internal/utils/pagination"
)

type PgxGlReconciliationRepository struct {
	BaseRepository
}

// newPgxGlReconciliationRepository creates a new repository for reconciliations.
func newPgxGlReconciliationRepository(pool *pgxpool.Pool) portsrepo.GlReconciliationRepositoryFacade {
	return &PgxGlReconciliationRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.GlReconciliationRepositoryFacade = (*PgxGlReconciliationRepository)(nil)

const reconciliationColumns = `reconciliation_id, account_id, organization_id, status, opening_balance, reconciled_balance, reconciled_date, description, created_at, created_by, last_updated_at, last_updated_by`

func scanReconciliation(row pgx.Row) (*domain.GlReconciliation, error) {
	var recon domain.GlReconciliation
	var reconciledBalance decimal.NullDecimal
	var reconciledDate sql.NullTime
	var description sql.NullString
	err := row.Scan(
		&recon.ReconciliationID,
		&recon.AccountID,
		&recon.OrganizationID,
		&recon.Status,
		&recon.OpeningBalance,
		&reconciledBalance,
		&reconciledDate,
		&description,
		&recon.CreatedAt,
		&recon.CreatedBy,
		&recon.LastUpdatedAt,
		&recon.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if reconciledBalance.Valid {
		bal := reconciledBalance.Decimal
		recon.ReconciledBalance = &bal
	}
	if reconciledDate.Valid {
		t := reconciledDate.Time
		recon.ReconciledDate = &t
	}
	recon.Description = description.String
	return &recon, nil
}

// SaveReconciliation persists a new open reconciliation.
func (r *PgxGlReconciliationRepository) SaveReconciliation(ctx context.Context, recon domain.GlReconciliation) error {
	query := `
		INSERT INTO gl_reconciliations (` + reconciliationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := r.Pool.Exec(ctx, query,
		recon.ReconciliationID,
		recon.AccountID,
		recon.OrganizationID,
		recon.Status,
		recon.OpeningBalance,
		nil,
		nil,
		nullIfEmpty(recon.Description),
		recon.CreatedAt,
		recon.CreatedBy,
		recon.LastUpdatedAt,
		recon.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return fmt.Errorf("%w: reconciliation %s already exists", apperrors.ErrDuplicate, recon.ReconciliationID)
		}
		return fmt.Errorf("failed to save reconciliation %s: %w", recon.ReconciliationID, err)
	}
	return nil
}

// AttachEntry records a match. Exclusivity across open reconciliations is
// enforced by partial unique indexes on the target columns WHERE is_open, so
// two concurrent matchers never need an account-level lock. A conflicting
// insert is resolved by looking at who holds the target: the same
// reconciliation makes the attach an idempotent no-op, any other open
// reconciliation is ErrConflict.
func (r *PgxGlReconciliationRepository) AttachEntry(ctx context.Context, entry domain.GlReconciliationEntry) error {
	var cmdTag pgconn.CommandTag
	var err error
	if entry.EntryRef != nil {
		query := `
			INSERT INTO gl_reconciliation_entries (reconciliation_id, acctg_tran_id, sequence_id, fin_account_tran_id, signed_amount, matched_at, matched_by, is_open)
			VALUES ($1, $2, $3, NULL, $4, $5, $6, TRUE)
			ON CONFLICT (acctg_tran_id, sequence_id) WHERE is_open DO NOTHING;
		`
		cmdTag, err = r.Pool.Exec(ctx, query,
			entry.ReconciliationID,
			entry.EntryRef.AcctgTranID,
			entry.EntryRef.SequenceID,
			entry.SignedAmount,
			entry.MatchedAt,
			entry.MatchedBy,
		)
	} else {
		query := `
			INSERT INTO gl_reconciliation_entries (reconciliation_id, acctg_tran_id, sequence_id, fin_account_tran_id, signed_amount, matched_at, matched_by, is_open)
			VALUES ($1, NULL, NULL, $2, $3, $4, $5, TRUE)
			ON CONFLICT (fin_account_tran_id) WHERE is_open DO NOTHING;
		`
		cmdTag, err = r.Pool.Exec(ctx, query,
			entry.ReconciliationID,
			*entry.FinAccountTranID,
			entry.SignedAmount,
			entry.MatchedAt,
			entry.MatchedBy,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to attach entry to reconciliation %s: %w", entry.ReconciliationID, err)
	}
	if cmdTag.RowsAffected() > 0 {
		return nil
	}

	holderID, err := r.findOpenHolder(ctx, entry)
	if err != nil {
		return err
	}
	if holderID == entry.ReconciliationID {
		// Already matched here; re-attach is a no-op
		return nil
	}
	return fmt.Errorf("%w: target already held by open reconciliation %s", apperrors.ErrConflict, holderID)
}

func (r *PgxGlReconciliationRepository) findOpenHolder(ctx context.Context, entry domain.GlReconciliationEntry) (string, error) {
	var holderID string
	var err error
	if entry.EntryRef != nil {
		err = r.Pool.QueryRow(ctx, `
			SELECT reconciliation_id FROM gl_reconciliation_entries
			WHERE is_open AND acctg_tran_id = $1 AND sequence_id = $2;
		`, entry.EntryRef.AcctgTranID, entry.EntryRef.SequenceID).Scan(&holderID)
	} else {
		err = r.Pool.QueryRow(ctx, `
			SELECT reconciliation_id FROM gl_reconciliation_entries
			WHERE is_open AND fin_account_tran_id = $1;
		`, *entry.FinAccountTranID).Scan(&holderID)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The holder released between our insert and this read; treat as
			// a conflict the caller can retry.
			return "", apperrors.ErrConflict
		}
		return "", fmt.Errorf("failed to look up reconciliation holding the target: %w", err)
	}
	return holderID, nil
}

// CloseReconciliation transitions OPEN -> CLOSED, records the reconciled
// balance and date, marks the matched ledger entries RECONCILED and releases
// the exclusivity rows, all in one database transaction.
func (r *PgxGlReconciliationRepository) CloseReconciliation(ctx context.Context, reconciliationID string, reconciledBalance decimal.Decimal, reconciledAt time.Time, userID string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	cmdTag, err := tx.Exec(ctx, `
		UPDATE gl_reconciliations
		SET status = 'CLOSED', reconciled_balance = $2, reconciled_date = $3, last_updated_at = $3, last_updated_by = $4
		WHERE reconciliation_id = $1 AND status = 'OPEN';
	`, reconciliationID, reconciledBalance, reconciledAt, userID)
	if err != nil {
		return fmt.Errorf("failed to close reconciliation %s: %w", reconciliationID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return r.notOpenError(ctx, reconciliationID)
	}

	_, err = tx.Exec(ctx, `
		UPDATE acctg_tran_entries e
		SET recon_status = 'RECONCILED', last_updated_at = $2, last_updated_by = $3
		FROM gl_reconciliation_entries re
		WHERE re.reconciliation_id = $1
		  AND re.acctg_tran_id = e.acctg_tran_id
		  AND re.sequence_id = e.sequence_id;
	`, reconciliationID, reconciledAt, userID)
	if err != nil {
		return fmt.Errorf("failed to mark entries reconciled for %s: %w", reconciliationID, err)
	}

	_, err = tx.Exec(ctx, `UPDATE gl_reconciliation_entries SET is_open = FALSE WHERE reconciliation_id = $1;`, reconciliationID)
	if err != nil {
		return fmt.Errorf("failed to release matched targets for %s: %w", reconciliationID, err)
	}

	return r.Commit(ctx, tx)
}

// AbandonReconciliation transitions OPEN -> ABANDONED and releases the matched
// targets for re-matching. Ledger entries keep NOT_RECONCILED; they were only
// marked on close.
func (r *PgxGlReconciliationRepository) AbandonReconciliation(ctx context.Context, reconciliationID string, userID string, now time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	cmdTag, err := tx.Exec(ctx, `
		UPDATE gl_reconciliations
		SET status = 'ABANDONED', last_updated_at = $2, last_updated_by = $3
		WHERE reconciliation_id = $1 AND status = 'OPEN';
	`, reconciliationID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to abandon reconciliation %s: %w", reconciliationID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return r.notOpenError(ctx, reconciliationID)
	}

	_, err = tx.Exec(ctx, `UPDATE gl_reconciliation_entries SET is_open = FALSE WHERE reconciliation_id = $1;`, reconciliationID)
	if err != nil {
		return fmt.Errorf("failed to release matched targets for %s: %w", reconciliationID, err)
	}

	return r.Commit(ctx, tx)
}

// notOpenError distinguishes a missing reconciliation from one in a terminal
// status after a zero-row CAS update.
func (r *PgxGlReconciliationRepository) notOpenError(ctx context.Context, reconciliationID string) error {
	if _, err := r.FindReconciliationByID(ctx, reconciliationID); errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.ErrNotFound
	} else if err != nil {
		return err
	}
	return apperrors.ErrConflict
}

// FindReconciliationByID retrieves a reconciliation with its matched entries.
func (r *PgxGlReconciliationRepository) FindReconciliationByID(ctx context.Context, reconciliationID string) (*domain.GlReconciliation, error) {
	query := `SELECT ` + reconciliationColumns + ` FROM gl_reconciliations WHERE reconciliation_id = $1;`

	recon, err := scanReconciliation(r.Pool.QueryRow(ctx, query, reconciliationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reconciliation %s: %w", reconciliationID, err)
	}

	rows, err := r.Pool.Query(ctx, `
		SELECT reconciliation_id, acctg_tran_id, sequence_id, fin_account_tran_id, signed_amount, matched_at, matched_by
		FROM gl_reconciliation_entries
		WHERE reconciliation_id = $1
		ORDER BY matched_at;
	`, reconciliationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries for reconciliation %s: %w", reconciliationID, err)
	}
	defer rows.Close()

	entries := []domain.GlReconciliationEntry{}
	for rows.Next() {
		var entry domain.GlReconciliationEntry
		var tranID, finTranID sql.NullString
		var sequenceID sql.NullInt32
		err := rows.Scan(
			&entry.ReconciliationID,
			&tranID,
			&sequenceID,
			&finTranID,
			&entry.SignedAmount,
			&entry.MatchedAt,
			&entry.MatchedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reconciliation entry row for %s: %w", reconciliationID, err)
		}
		if tranID.Valid {
			entry.EntryRef = &domain.EntryRef{AcctgTranID: tranID.String, SequenceID: int(sequenceID.Int32)}
		}
		if finTranID.Valid {
			id := finTranID.String
			entry.FinAccountTranID = &id
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reconciliation entry rows for %s: %w", reconciliationID, err)
	}
	recon.Entries = entries
	return recon, nil
}

// ListReconciliationsByAccount retrieves token-paginated reconciliation
// headers for an account, newest first.
func (r *PgxGlReconciliationRepository) ListReconciliationsByAccount(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.GlReconciliation, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `
		SELECT ` + reconciliationColumns + `
		FROM gl_reconciliations
		WHERE account_id = $1
	`
	orderByClause := `ORDER BY created_at DESC, reconciliation_id DESC`

	args := []interface{}{accountID}
	var query string
	if nextToken != nil && *nextToken != "" {
		fields, decodeErr := pagination.DecodeMultiFieldToken(*nextToken)
		if decodeErr != nil || len(fields) != 2 {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		lastCreatedAt, parseErr := time.Parse(time.RFC3339Nano, fields[0])
		if parseErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", parseErr)
		}
		args = append(args, lastCreatedAt, fields[1])
		query = baseQuery + ` AND (created_at, reconciliation_id) < ($2, $3) ` + orderByClause + ` LIMIT $` + strconv.Itoa(len(args)+1) + `;`
	} else {
		query = baseQuery + ` ` + orderByClause + ` LIMIT $` + strconv.Itoa(len(args)+1) + `;`
	}
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query reconciliations for account "+accountID, err)
	}
	defer rows.Close()

	recons := make([]domain.GlReconciliation, 0, fetchLimit)
	for rows.Next() {
		recon, err := scanReconciliation(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan reconciliation row", err)
		}
		recons = append(recons, *recon)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating reconciliation rows", err)
	}

	var nextTokenVal *string
	if len(recons) > limit {
		last := recons[limit-1]
		token := pagination.EncodeMultiFieldToken(last.CreatedAt.Format(time.RFC3339Nano), last.ReconciliationID)
		nextTokenVal = &token
		recons = recons[:limit]
	}
	return recons, nextTokenVal, nil
}
