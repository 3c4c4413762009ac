package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	"github.com/ledgerforge/gl_ledger_app/internal/dto"
	"github.com/ledgerforge/gl_ledger_app/internal/middleware"
	"github.com/ledgerforge/gl_ledger_app/internal/utils/accounting"
)

var (
	ErrTooFewEntries   = errors.New("transaction must have at least two entries")
	ErrTooFewAccounts  = errors.New("transaction must affect at least two different accounts")
	ErrNotYetScheduled = errors.New("transaction is scheduled for a later posting date")
	ErrReverseReversal = errors.New("a reversal transaction cannot itself be reversed")
	ErrReverseUnposted = errors.New("only posted transactions can be reversed")
)

// UnbalancedError reports the first currency whose debit/credit delta exceeds
// the currency's tolerance. The transaction stays UNPOSTED.
type UnbalancedError struct {
	CurrencyCode string
	Delta        decimal.Decimal
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("transaction does not balance: %s debits exceed credits by %s", e.CurrencyCode, e.Delta.String())
}

// PostTransaction validates the draft and atomically commits it. Validation
// and the status flip run inside one repository transaction, so a draft whose
// entries change underneath a concurrent poster can never half-post.
func (s *ledgerService) PostTransaction(ctx context.Context, organizationID string, tranID string, force bool, userID string) (*domain.AcctgTran, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.findOrgTran(ctx, organizationID, tranID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	posted, err := s.tranRepo.PostTransaction(ctx, tranID, now, userID, func(tran *domain.AcctgTran) error {
		return s.validateForPosting(ctx, tran, now, force)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("transaction posted",
		slog.String("acctg_tran_id", posted.AcctgTranID),
		slog.Int("entry_count", len(posted.Entries)),
	)
	return posted, nil
}

// validateForPosting enforces the posting preconditions: enough entries across
// enough accounts, positive amounts, the scheduling window, and a zero
// debit/credit delta per booked currency within each currency's tolerance.
func (s *ledgerService) validateForPosting(ctx context.Context, tran *domain.AcctgTran, now time.Time, force bool) error {
	if tran.IsPosted() {
		return domain.ErrAlreadyPosted
	}
	if len(tran.Entries) < 2 {
		return ErrTooFewEntries
	}

	accountSet := make(map[string]bool, len(tran.Entries))
	for _, e := range tran.Entries {
		if e.Amount.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("%w: entry %d", ErrAmountNotPositive, e.SequenceID)
		}
		accountSet[e.AccountID] = true
	}
	if len(accountSet) < 2 {
		return ErrTooFewAccounts
	}

	if !force && tran.ScheduledPostingDate != nil && now.Before(*tran.ScheduledPostingDate) {
		return fmt.Errorf("%w: scheduled for %s", ErrNotYetScheduled, tran.ScheduledPostingDate.Format(time.DateOnly))
	}

	for code, delta := range accounting.BalanceDeltas(tran.Entries) {
		currency, err := s.currencySvc.GetCurrencyByCode(ctx, code)
		if err != nil {
			return fmt.Errorf("failed to resolve currency %s: %w", code, err)
		}
		if !accounting.WithinTolerance(delta, currency.Tolerance()) {
			return &UnbalancedError{CurrencyCode: code, Delta: delta}
		}
	}
	return nil
}

// ReverseTransaction posts a new REVERSAL transaction with every entry's side
// flipped. The original is never touched; the two net to zero.
func (s *ledgerService) ReverseTransaction(ctx context.Context, organizationID string, tranID string, userID string) (*domain.AcctgTran, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	original, err := s.findOrgTran(ctx, organizationID, tranID)
	if err != nil {
		return nil, err
	}
	if !original.IsPosted() {
		return nil, ErrReverseUnposted
	}
	if original.TranType == domain.TranTypeReversal {
		return nil, ErrReverseReversal
	}

	now := time.Now().UTC()
	originalID := original.AcctgTranID
	reversal := domain.AcctgTran{
		AcctgTranID:     uuid.NewString(),
		OrganizationID:  original.OrganizationID,
		TranType:        domain.TranTypeReversal,
		Description:     fmt.Sprintf("Reversal of %s", originalID),
		Status:          domain.Unposted,
		TransactionDate: now,
		Origin:          original.Origin,
		ReversedTranID:  &originalID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	for _, e := range original.Entries {
		flipped := e
		flipped.Side = e.Side.Opposite()
		flipped.ReconStatus = domain.NotReconciled
		flipped.AuditFields = reversal.AuditFields
		if err := reversal.AppendEntry(flipped); err != nil {
			return nil, err
		}
	}
	if err := reversal.MarkPosted(now); err != nil {
		return nil, err
	}

	if err := s.tranRepo.SaveReversal(ctx, reversal); err != nil {
		logger.Error("failed to save reversal", slog.String("acctg_tran_id", reversal.AcctgTranID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save reversal of %s: %w", originalID, err)
	}

	logger.Info("transaction reversed",
		slog.String("original_tran_id", originalID),
		slog.String("reversal_tran_id", reversal.AcctgTranID),
	)
	return &reversal, nil
}

func (s *ledgerService) GetTransaction(ctx context.Context, organizationID string, tranID string) (*domain.AcctgTran, error) {
	return s.findOrgTran(ctx, organizationID, tranID)
}

func (s *ledgerService) ListTransactions(ctx context.Context, organizationID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	trans, nextToken, err := s.tranRepo.ListTransByOrganization(ctx, organizationID, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	responses := make([]dto.TransactionResponse, len(trans))
	for i := range trans {
		responses[i] = dto.ToTransactionResponse(&trans[i])
	}
	return &dto.ListTransactionsResponse{Transactions: responses, NextToken: nextToken}, nil
}

func (s *ledgerService) ListEntriesByAccount(ctx context.Context, organizationID string, accountID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	if _, err := s.chartSvc.ResolveAccount(ctx, organizationID, accountID); err != nil {
		return nil, err
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	entries, nextToken, err := s.tranRepo.ListEntriesByAccountID(ctx, accountID, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries for account %s: %w", accountID, err)
	}
	return &dto.ListEntriesResponse{Entries: dto.ToEntryResponses(entries), NextToken: nextToken}, nil
}
