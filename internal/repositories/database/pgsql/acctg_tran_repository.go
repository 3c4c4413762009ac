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
	"github.com/shopspring/decimal"

	"github.com/ledgerforge/gl_ledger_app/internal/apperrors"
	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	portsrepo "github.com/ledgerforge/gl_ledger_app/internal/core/ports/repositories"
	"github.com/ledgerforge/gl_ledger_app/internal/utils/pagination"
)

type PgxAcctgTranRepository struct {
	BaseRepository
}

// newPgxAcctgTranRepository creates a new repository for ledger transactions.
func newPgxAcctgTranRepository(pool *pgxpool.Pool) portsrepo.AcctgTranRepositoryWithTx {
	return &PgxAcctgTranRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AcctgTranRepositoryWithTx = (*PgxAcctgTranRepository)(nil)

const acctgTranColumns = `acctg_tran_id, organization_id, tran_type, description, status, transaction_date, scheduled_posting_date, posted_date, origin_kind, origin_id, reversed_tran_id, created_at, created_by, last_updated_at, last_updated_by`

const entryColumns = `acctg_tran_id, sequence_id, account_id, amount, side, currency_code, orig_amount, orig_currency_code, recon_status, description, created_at, created_by, last_updated_at, last_updated_by`

func scanAcctgTran(row pgx.Row) (*domain.AcctgTran, error) {
	var tran domain.AcctgTran
	var description, originKind, originID, reversedTranID sql.NullString
	var scheduled, posted sql.NullTime
	err := row.Scan(
		&tran.AcctgTranID,
		&tran.OrganizationID,
		&tran.TranType,
		&description,
		&tran.Status,
		&tran.TransactionDate,
		&scheduled,
		&posted,
		&originKind,
		&originID,
		&reversedTranID,
		&tran.CreatedAt,
		&tran.CreatedBy,
		&tran.LastUpdatedAt,
		&tran.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	tran.Description = description.String
	if scheduled.Valid {
		t := scheduled.Time
		tran.ScheduledPostingDate = &t
	}
	if posted.Valid {
		t := posted.Time
		tran.PostedDate = &t
	}
	if originKind.Valid && originID.Valid {
		tran.Origin = &domain.OriginRef{Kind: domain.OriginKind(originKind.String), ID: originID.String}
	}
	if reversedTranID.Valid {
		id := reversedTranID.String
		tran.ReversedTranID = &id
	}
	return &tran, nil
}

func scanEntry(row pgx.Row) (*domain.AcctgTransEntry, error) {
	var entry domain.AcctgTransEntry
	var origCurrency, description sql.NullString
	var origAmount decimal.NullDecimal
	err := row.Scan(
		&entry.AcctgTranID,
		&entry.SequenceID,
		&entry.AccountID,
		&entry.Amount,
		&entry.Side,
		&entry.CurrencyCode,
		&origAmount,
		&origCurrency,
		&entry.ReconStatus,
		&description,
		&entry.CreatedAt,
		&entry.CreatedBy,
		&entry.LastUpdatedAt,
		&entry.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if origAmount.Valid {
		amt := origAmount.Decimal
		entry.OrigAmount = &amt
	}
	entry.OrigCurrencyCode = origCurrency.String
	entry.Description = description.String
	return &entry, nil
}

// queueEntryInsert adds one entry insert to a batch.
func queueEntryInsert(batch *pgx.Batch, entry domain.AcctgTransEntry) {
	query := `
		INSERT INTO acctg_tran_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	var origAmount decimal.NullDecimal
	if entry.OrigAmount != nil {
		origAmount = decimal.NullDecimal{Decimal: *entry.OrigAmount, Valid: true}
	}
	batch.Queue(query,
		entry.AcctgTranID,
		entry.SequenceID,
		entry.AccountID,
		entry.Amount,
		entry.Side,
		entry.CurrencyCode,
		origAmount,
		nullIfEmpty(entry.OrigCurrencyCode),
		entry.ReconStatus,
		nullIfEmpty(entry.Description),
		entry.CreatedAt,
		entry.CreatedBy,
		entry.LastUpdatedAt,
		entry.LastUpdatedBy,
	)
}

func insertTranHeader(ctx context.Context, tx pgx.Tx, tran domain.AcctgTran) error {
	query := `
		INSERT INTO acctg_trans (` + acctgTranColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	var originKind, originID sql.NullString
	if tran.Origin != nil {
		originKind = sql.NullString{String: string(tran.Origin.Kind), Valid: true}
		originID = sql.NullString{String: tran.Origin.ID, Valid: true}
	}
	var reversedTranID sql.NullString
	if tran.ReversedTranID != nil {
		reversedTranID = sql.NullString{String: *tran.ReversedTranID, Valid: true}
	}
	_, err := tx.Exec(ctx, query,
		tran.AcctgTranID,
		tran.OrganizationID,
		tran.TranType,
		nullIfEmpty(tran.Description),
		tran.Status,
		tran.TransactionDate,
		tran.ScheduledPostingDate,
		tran.PostedDate,
		originKind,
		originID,
		reversedTranID,
		tran.CreatedAt,
		tran.CreatedBy,
		tran.LastUpdatedAt,
		tran.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return fmt.Errorf("%w: transaction %s already exists", apperrors.ErrDuplicate, tran.AcctgTranID)
		}
		return err
	}
	return nil
}

// SaveDraft persists a new unposted transaction header and its initial entries
// in one database transaction.
func (r *PgxAcctgTranRepository) SaveDraft(ctx context.Context, tran domain.AcctgTran) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := insertTranHeader(ctx, tx, tran); err != nil {
		return fmt.Errorf("failed to insert draft transaction %s: %w", tran.AcctgTranID, err)
	}

	if len(tran.Entries) > 0 {
		batch := &pgx.Batch{}
		for _, entry := range tran.Entries {
			queueEntryInsert(batch, entry)
		}
		br := tx.SendBatch(ctx, batch)
		if err := br.Close(); err != nil {
			return apperrors.NewAppError(500, "failed to insert entries for draft "+tran.AcctgTranID, err)
		}
	}

	return r.Commit(ctx, tx)
}

// AppendEntry adds an entry to an unposted draft. The header row is locked so
// the sequence assignment and the posted-status check are race free.
func (r *PgxAcctgTranRepository) AppendEntry(ctx context.Context, tranID string, entry domain.AcctgTransEntry) (*domain.AcctgTransEntry, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	var status domain.AcctgTranStatus
	err = tx.QueryRow(ctx, `SELECT status FROM acctg_trans WHERE acctg_tran_id = $1 FOR UPDATE;`, tranID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock transaction %s: %w", tranID, err)
	}
	if status == domain.Posted {
		return nil, domain.ErrAlreadyPosted
	}

	var nextSeq int
	err = tx.QueryRow(ctx, `SELECT COALESCE(MAX(sequence_id), 0) + 1 FROM acctg_tran_entries WHERE acctg_tran_id = $1;`, tranID).Scan(&nextSeq)
	if err != nil {
		return nil, fmt.Errorf("failed to compute next sequence for transaction %s: %w", tranID, err)
	}

	entry.AcctgTranID = tranID
	entry.SequenceID = nextSeq

	batch := &pgx.Batch{}
	queueEntryInsert(batch, entry)
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to insert entry for transaction "+tranID, err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindTranByID retrieves a transaction header with its entries.
func (r *PgxAcctgTranRepository) FindTranByID(ctx context.Context, tranID string) (*domain.AcctgTran, error) {
	query := `SELECT ` + acctgTranColumns + ` FROM acctg_trans WHERE acctg_tran_id = $1;`

	tran, err := scanAcctgTran(r.Pool.QueryRow(ctx, query, tranID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction %s: %w", tranID, err)
	}

	entries, err := r.findEntriesByTranID(ctx, r.Pool, tranID)
	if err != nil {
		return nil, err
	}
	tran.Entries = entries
	return tran, nil
}

type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *PgxAcctgTranRepository) findEntriesByTranID(ctx context.Context, q pgxQuerier, tranID string) ([]domain.AcctgTransEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM acctg_tran_entries WHERE acctg_tran_id = $1 ORDER BY sequence_id;`

	rows, err := q.Query(ctx, query, tranID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries for transaction %s: %w", tranID, err)
	}
	defer rows.Close()

	entries := []domain.AcctgTransEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry row for transaction %s: %w", tranID, err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry rows for transaction %s: %w", tranID, err)
	}
	return entries, nil
}

// FindEntryByRef retrieves a single entry by its composite key.
func (r *PgxAcctgTranRepository) FindEntryByRef(ctx context.Context, ref domain.EntryRef) (*domain.AcctgTransEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM acctg_tran_entries WHERE acctg_tran_id = $1 AND sequence_id = $2;`

	entry, err := scanEntry(r.Pool.QueryRow(ctx, query, ref.AcctgTranID, ref.SequenceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find entry %s/%d: %w", ref.AcctgTranID, ref.SequenceID, err)
	}
	return entry, nil
}

// ListTransByOrganization retrieves a token-paginated list of transaction
// headers, newest first.
func (r *PgxAcctgTranRepository) ListTransByOrganization(ctx context.Context, organizationID string, limit int, nextToken *string) ([]domain.AcctgTran, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `
		SELECT ` + acctgTranColumns + `
		FROM acctg_trans
		WHERE organization_id = $1
	`
	orderByClause := `ORDER BY transaction_date DESC, created_at DESC`

	args := []interface{}{organizationID}
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

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query transactions for organization "+organizationID, err)
	}
	defer rows.Close()

	trans := make([]domain.AcctgTran, 0, fetchLimit)
	for rows.Next() {
		tran, err := scanAcctgTran(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan transaction row", err)
		}
		trans = append(trans, *tran)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating transaction rows", err)
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

// ListEntriesByAccountID retrieves token-paginated posted entries for an
// account, newest first.
func (r *PgxAcctgTranRepository) ListEntriesByAccountID(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.AcctgTransEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `
		SELECT e.acctg_tran_id, e.sequence_id, e.account_id, e.amount, e.side, e.currency_code, e.orig_amount, e.orig_currency_code, e.recon_status, e.description, e.created_at, e.created_by, e.last_updated_at, e.last_updated_by
		FROM acctg_tran_entries e
		JOIN acctg_trans t ON e.acctg_tran_id = t.acctg_tran_id
		WHERE e.account_id = $1 AND t.status = 'POSTED'
	`
	orderByClause := `ORDER BY t.transaction_date DESC, e.created_at DESC`

	args := []interface{}{accountID}
	var query string
	if nextToken != nil && *nextToken != "" {
		lastTranDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		args = append(args, lastTranDate, lastCreatedAt)
		query = baseQuery + ` AND (t.transaction_date, e.created_at) < ($2, $3) ` + orderByClause + ` LIMIT $` + strconv.Itoa(len(args)+1) + `;`
	} else {
		query = baseQuery + ` ` + orderByClause + ` LIMIT $` + strconv.Itoa(len(args)+1) + `;`
	}
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query entries for account "+accountID, err)
	}
	defer rows.Close()

	entries := make([]domain.AcctgTransEntry, 0, fetchLimit)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan entry row for account "+accountID, err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating entry rows for account "+accountID, err)
	}

	var nextTokenVal *string
	if len(entries) > limit {
		last := entries[limit-1]
		// The entry's transaction date lives on the header; re-read it from
		// the last included row's header for the cursor.
		var tranDate time.Time
		if err := r.Pool.QueryRow(ctx, `SELECT transaction_date FROM acctg_trans WHERE acctg_tran_id = $1;`, last.AcctgTranID).Scan(&tranDate); err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to build pagination cursor", err)
		}
		token := pagination.EncodeToken(tranDate, last.CreatedAt)
		nextTokenVal = &token
		entries = entries[:limit]
	}
	return entries, nextTokenVal, nil
}

// SumPostedByAccount computes the derived balance of an account: the sum of
// its posted entry amounts signed by the account class convention. The
// balance is never stored anywhere.
func (r *PgxAcctgTranRepository) SumPostedByAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(
			CASE WHEN (e.side = 'DEBIT') = (a.class IN ('ASSET', 'EXPENSE'))
			     THEN e.amount
			     ELSE -e.amount
			END
		), 0)
		FROM acctg_tran_entries e
		JOIN acctg_trans t ON e.acctg_tran_id = t.acctg_tran_id
		JOIN gl_accounts a ON e.account_id = a.account_id
		WHERE e.account_id = $1 AND t.status = 'POSTED';
	`
	var sum decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, accountID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum posted entries for account %s: %w", accountID, err)
	}
	return sum, nil
}

// PostTransaction atomically transitions a draft from UNPOSTED to POSTED.
// The header is locked, the entries loaded and handed to validate, and the
// status flip is a compare-and-swap on the UNPOSTED status: of two concurrent
// posters one wins and the other sees ErrAlreadyPosted.
func (r *PgxAcctgTranRepository) PostTransaction(ctx context.Context, tranID string, postedAt time.Time, userID string, validate func(tran *domain.AcctgTran) error) (*domain.AcctgTran, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	query := `SELECT ` + acctgTranColumns + ` FROM acctg_trans WHERE acctg_tran_id = $1 FOR UPDATE;`
	tran, err := scanAcctgTran(tx.QueryRow(ctx, query, tranID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock transaction %s: %w", tranID, err)
	}

	entries, err := r.findEntriesByTranID(ctx, tx, tranID)
	if err != nil {
		return nil, err
	}
	tran.Entries = entries

	if validate != nil {
		if err := validate(tran); err != nil {
			return nil, err
		}
	}

	cmdTag, err := tx.Exec(ctx, `
		UPDATE acctg_trans
		SET status = 'POSTED', posted_date = $2, last_updated_at = $3, last_updated_by = $4
		WHERE acctg_tran_id = $1 AND status = 'UNPOSTED';
	`, tranID, postedAt, postedAt, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to post transaction %s: %w", tranID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return nil, domain.ErrAlreadyPosted
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}

	if err := tran.MarkPosted(postedAt); err != nil {
		return nil, err
	}
	tran.LastUpdatedAt = postedAt
	tran.LastUpdatedBy = userID
	return tran, nil
}

// SaveReversal persists an already-balanced reversing transaction as POSTED
// in a single database transaction.
func (r *PgxAcctgTranRepository) SaveReversal(ctx context.Context, reversal domain.AcctgTran) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := insertTranHeader(ctx, tx, reversal); err != nil {
		return fmt.Errorf("failed to insert reversal %s: %w", reversal.AcctgTranID, err)
	}

	batch := &pgx.Batch{}
	for _, entry := range reversal.Entries {
		queueEntryInsert(batch, entry)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert entries for reversal "+reversal.AcctgTranID, err)
	}

	return r.Commit(ctx, tx)
}
