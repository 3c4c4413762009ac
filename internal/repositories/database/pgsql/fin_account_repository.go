package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerforge/gl_ledger_app/internal/apperrors"
	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	portsrepo "github.com/ledgerforge/gl_ledger_app/internal/core/ports/repositories"
	"github.com/ledgerforge/gl_ledger_app/internal/utils/pagination"
)

type PgxFinAccountTranRepository struct {
	pool *pgxpool.Pool
}

// newPgxFinAccountTranRepository creates a new repository for statement-side
// financial-account movements.
func newPgxFinAccountTranRepository(pool *pgxpool.Pool) portsrepo.FinAccountTranRepository {
	return &PgxFinAccountTranRepository{pool: pool}
}

var _ portsrepo.FinAccountTranRepository = (*PgxFinAccountTranRepository)(nil)

const finAccountTranColumns = `fin_account_tran_id, fin_account_id, organization_id, tran_type, amount, currency_code, transaction_date, description, acctg_tran_id, created_at, created_by, last_updated_at, last_updated_by`

func scanFinAccountTran(row pgx.Row) (*domain.FinAccountTran, error) {
	var tran domain.FinAccountTran
	var description, acctgTranID sql.NullString
	err := row.Scan(
		&tran.FinAccountTranID,
		&tran.FinAccountID,
		&tran.OrganizationID,
		&tran.TranType,
		&tran.Amount,
		&tran.CurrencyCode,
		&tran.TransactionDate,
		&description,
		&acctgTranID,
		&tran.CreatedAt,
		&tran.CreatedBy,
		&tran.LastUpdatedAt,
		&tran.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	tran.Description = description.String
	if acctgTranID.Valid {
		id := acctgTranID.String
		tran.AcctgTranID = &id
	}
	return &tran, nil
}

// SaveFinAccountTran persists an imported statement movement.
func (r *PgxFinAccountTranRepository) SaveFinAccountTran(ctx context.Context, tran domain.FinAccountTran) error {
	query := `
		INSERT INTO fin_account_trans (` + finAccountTranColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	var acctgTranID sql.NullString
	if tran.AcctgTranID != nil {
		acctgTranID = sql.NullString{String: *tran.AcctgTranID, Valid: true}
	}

	_, err := r.pool.Exec(ctx, query,
		tran.FinAccountTranID,
		tran.FinAccountID,
		tran.OrganizationID,
		tran.TranType,
		tran.Amount,
		tran.CurrencyCode,
		tran.TransactionDate,
		nullIfEmpty(tran.Description),
		acctgTranID,
		tran.CreatedAt,
		tran.CreatedBy,
		tran.LastUpdatedAt,
		tran.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return fmt.Errorf("%w: fin account transaction %s already exists", apperrors.ErrDuplicate, tran.FinAccountTranID)
		}
		return fmt.Errorf("failed to save fin account transaction %s: %w", tran.FinAccountTranID, err)
	}
	return nil
}

// FindFinAccountTranByID retrieves one movement.
func (r *PgxFinAccountTranRepository) FindFinAccountTranByID(ctx context.Context, finAccountTranID string) (*domain.FinAccountTran, error) {
	query := `SELECT ` + finAccountTranColumns + ` FROM fin_account_trans WHERE fin_account_tran_id = $1;`

	tran, err := scanFinAccountTran(r.pool.QueryRow(ctx, query, finAccountTranID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find fin account transaction %s: %w", finAccountTranID, err)
	}
	return tran, nil
}

// ListFinAccountTrans retrieves token-paginated movements for one financial
// account, newest first.
func (r *PgxFinAccountTranRepository) ListFinAccountTrans(ctx context.Context, finAccountID string, limit int, nextToken *string) ([]domain.FinAccountTran, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `
		SELECT ` + finAccountTranColumns + `
		FROM fin_account_trans
		WHERE fin_account_id = $1
	`
	orderByClause := `ORDER BY transaction_date DESC, created_at DESC`

	args := []interface{}{finAccountID}
	var query string
	if nextToken != nil && *nextToken != "" {
		lastTranDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		args = append(args, lastTranDate, lastCreatedAt)
		query = baseQuery + ` AND (transaction_date, created_at) < ($2, $3) ` + orderByClause + ` LIMIT $` + strconv.Itoa(len(args)+1) + `;`
	} else {
		query = baseQuery + ` ` + orderByClause + ` LIMIT $` + strconv.Itoa(len(args)+1) + `;`
	}
	args = append(args, fetchLimit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query fin account transactions for "+finAccountID, err)
	}
	defer rows.Close()

	trans := make([]domain.FinAccountTran, 0, fetchLimit)
	for rows.Next() {
		tran, err := scanFinAccountTran(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan fin account transaction row", err)
		}
		trans = append(trans, *tran)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating fin account transaction rows", err)
	}

	var nextTokenVal *string
	if len(trans) > limit {
		last := trans[limit-1]
		token := pagination.EncodeToken(last.TransactionDate, last.CreatedAt)
		nextTokenVal = &token
		trans = trans[:limit]
	}
	return trans, nextTokenVal, nil
}

// LinkAcctgTran records the ledger transaction that books this movement.
func (r *PgxFinAccountTranRepository) LinkAcctgTran(ctx context.Context, finAccountTranID string, acctgTranID string, userID string, now time.Time) error {
	query := `
		UPDATE fin_account_trans
		SET acctg_tran_id = $2, last_updated_at = $3, last_updated_by = $4
		WHERE fin_account_tran_id = $1;
	`
	cmdTag, err := r.pool.Exec(ctx, query, finAccountTranID, acctgTranID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to link ledger transaction to movement %s: %w", finAccountTranID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
