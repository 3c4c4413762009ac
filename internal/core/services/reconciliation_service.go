package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerforge/gl_ledger_app/internal/apperrors"
	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	portsrepo "github.com/ledgerforge/gl_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/ledgerforge/gl_ledger_app/internal/core/ports/services"
	"github.com/ledgerforge/gl_ledger_app/internal/dto"
	"github.com/ledgerforge/gl_ledger_app/internal/middleware"
)

var (
	ErrReconciliationNotFound = errors.New("reconciliation not found")
	ErrReconciliationNotOpen  = errors.New("reconciliation is not open")
	ErrExactlyOneTarget       = errors.New("exactly one match target must be provided")
	ErrEntryNotFound          = errors.New("ledger entry not found")
	ErrEntryNotPosted         = errors.New("only posted entries can be reconciled")
	ErrEntryAccountMismatch   = errors.New("entry does not belong to the reconciliation's account")
	ErrAlreadyReconciling     = errors.New("target is already held by another open reconciliation")
	ErrFinTranNotFound        = errors.New("financial account transaction not found")
)

// BalanceMismatchError reports a failed closure check. The reconciliation
// stays OPEN so matches can be corrected and closure retried.
type BalanceMismatchError struct {
	Expected decimal.Decimal // Statement ending balance
	Actual   decimal.Decimal // Opening balance plus matched signed amounts
}

func (e *BalanceMismatchError) Error() string {
	return fmt.Sprintf("reconciled balance %s does not match statement ending balance %s", e.Actual.String(), e.Expected.String())
}

// reconciliationService matches posted ledger entries against external
// statements. Exclusivity of open matches is enforced by the storage layer,
// not by locks held here.
type reconciliationService struct {
	reconRepo   portsrepo.GlReconciliationRepositoryFacade
	tranRepo    portsrepo.AcctgTranReader
	finRepo     portsrepo.FinAccountTranRepository
	chartSvc    portssvc.ChartSvcFacade
	currencySvc portssvc.CurrencySvcFacade
}

// NewReconciliationService creates a new reconciliation service.
func NewReconciliationService(reconRepo portsrepo.GlReconciliationRepositoryFacade, tranRepo portsrepo.AcctgTranReader, finRepo portsrepo.FinAccountTranRepository, chartSvc portssvc.ChartSvcFacade, currencySvc portssvc.CurrencySvcFacade) portssvc.ReconciliationSvcFacade {
	return &reconciliationService{
		reconRepo:   reconRepo,
		tranRepo:    tranRepo,
		finRepo:     finRepo,
		chartSvc:    chartSvc,
		currencySvc: currencySvc,
	}
}

var _ portssvc.ReconciliationSvcFacade = (*reconciliationService)(nil)

func (s *reconciliationService) OpenReconciliation(ctx context.Context, organizationID string, req dto.OpenReconciliationRequest, userID string) (*domain.GlReconciliation, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.chartSvc.ResolveAccount(ctx, organizationID, req.AccountID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	reconciliation := domain.GlReconciliation{
		ReconciliationID: uuid.NewString(),
		AccountID:        account.AccountID,
		OrganizationID:   organizationID,
		Status:           domain.ReconciliationOpen,
		OpeningBalance:   req.OpeningBalance,
		Description:      req.Description,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.reconRepo.SaveReconciliation(ctx, reconciliation); err != nil {
		logger.Error("failed to save reconciliation", slog.String("reconciliation_id", reconciliation.ReconciliationID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save reconciliation: %w", err)
	}
	return &reconciliation, nil
}

// MatchEntry attaches one target to an open reconciliation. Re-matching the
// same target to the same reconciliation is a no-op; a target held by a
// different open reconciliation fails with ErrAlreadyReconciling.
func (s *reconciliationService) MatchEntry(ctx context.Context, organizationID string, reconciliationID string, target domain.MatchTarget, userID string) error {
	if (target.Entry == nil) == (target.FinAccountTran == nil) {
		return ErrExactlyOneTarget
	}

	reconciliation, err := s.findOrgReconciliation(ctx, organizationID, reconciliationID)
	if err != nil {
		return err
	}
	if !reconciliation.IsOpen() {
		return ErrReconciliationNotOpen
	}

	now := time.Now().UTC()
	match := domain.GlReconciliationEntry{
		ReconciliationID: reconciliationID,
		MatchedAt:        now,
		MatchedBy:        userID,
	}

	if target.Entry != nil {
		signed, err := s.signedEntryAmount(ctx, reconciliation, *target.Entry)
		if err != nil {
			return err
		}
		match.EntryRef = target.Entry
		match.SignedAmount = signed
	} else {
		finTran, err := s.finRepo.FindFinAccountTranByID(ctx, *target.FinAccountTran)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return ErrFinTranNotFound
			}
			return fmt.Errorf("failed to find fin account transaction %s: %w", *target.FinAccountTran, err)
		}
		if finTran.OrganizationID != organizationID {
			return ErrFinTranNotFound
		}
		match.FinAccountTranID = target.FinAccountTran
		match.SignedAmount = finTran.Amount
	}

	if err := s.reconRepo.AttachEntry(ctx, match); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return ErrAlreadyReconciling
		}
		return fmt.Errorf("failed to attach match to reconciliation %s: %w", reconciliationID, err)
	}
	return nil
}

// signedEntryAmount verifies that the referenced ledger entry is posted,
// belongs to the reconciliation's account, and returns its convention-signed
// amount captured at match time.
func (s *reconciliationService) signedEntryAmount(ctx context.Context, reconciliation *domain.GlReconciliation, ref domain.EntryRef) (decimal.Decimal, error) {
	entry, err := s.tranRepo.FindEntryByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return decimal.Zero, fmt.Errorf("%w: entry %s/%d", ErrEntryNotFound, ref.AcctgTranID, ref.SequenceID)
		}
		return decimal.Zero, fmt.Errorf("failed to find entry %s/%d: %w", ref.AcctgTranID, ref.SequenceID, err)
	}
	if entry.AccountID != reconciliation.AccountID {
		return decimal.Zero, ErrEntryAccountMismatch
	}

	tran, err := s.tranRepo.FindTranByID(ctx, ref.AcctgTranID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to find transaction %s: %w", ref.AcctgTranID, err)
	}
	if !tran.IsPosted() {
		return decimal.Zero, ErrEntryNotPosted
	}

	account, err := s.chartSvc.ResolveAccount(ctx, reconciliation.OrganizationID, reconciliation.AccountID)
	if err != nil {
		return decimal.Zero, err
	}
	return entry.SignedAmount(account.Class), nil
}

// CloseReconciliation checks that the opening balance plus all matched signed
// amounts equals the statement ending balance within the account currency's
// tolerance. A mismatch leaves the reconciliation OPEN.
func (s *reconciliationService) CloseReconciliation(ctx context.Context, organizationID string, reconciliationID string, statementEndingBalance decimal.Decimal, userID string) (*domain.GlReconciliation, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	reconciliation, err := s.findOrgReconciliation(ctx, organizationID, reconciliationID)
	if err != nil {
		return nil, err
	}
	if !reconciliation.IsOpen() {
		return nil, ErrReconciliationNotOpen
	}

	actual := reconciliation.OpeningBalance
	for _, match := range reconciliation.Entries {
		actual = actual.Add(match.SignedAmount)
	}

	account, err := s.chartSvc.ResolveAccount(ctx, organizationID, reconciliation.AccountID)
	if err != nil {
		return nil, err
	}
	currency, err := s.currencySvc.GetCurrencyByCode(ctx, account.CurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve currency %s: %w", account.CurrencyCode, err)
	}
	if statementEndingBalance.Sub(actual).Abs().GreaterThan(currency.Tolerance()) {
		return nil, &BalanceMismatchError{Expected: statementEndingBalance, Actual: actual}
	}

	now := time.Now().UTC()
	if err := s.reconRepo.CloseReconciliation(ctx, reconciliationID, actual, now, userID); err != nil {
		logger.Error("failed to close reconciliation", slog.String("reconciliation_id", reconciliationID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to close reconciliation %s: %w", reconciliationID, err)
	}

	reconciliation.Status = domain.ReconciliationClosed
	reconciliation.ReconciledBalance = &actual
	reconciliation.ReconciledDate = &now
	reconciliation.LastUpdatedAt = now
	reconciliation.LastUpdatedBy = userID
	return reconciliation, nil
}

// AbandonReconciliation terminates an open reconciliation; its matched
// entries become available to a new one.
func (s *reconciliationService) AbandonReconciliation(ctx context.Context, organizationID string, reconciliationID string, userID string) error {
	reconciliation, err := s.findOrgReconciliation(ctx, organizationID, reconciliationID)
	if err != nil {
		return err
	}
	if !reconciliation.IsOpen() {
		return ErrReconciliationNotOpen
	}
	if err := s.reconRepo.AbandonReconciliation(ctx, reconciliationID, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to abandon reconciliation %s: %w", reconciliationID, err)
	}
	return nil
}

func (s *reconciliationService) GetReconciliation(ctx context.Context, organizationID string, reconciliationID string) (*domain.GlReconciliation, error) {
	return s.findOrgReconciliation(ctx, organizationID, reconciliationID)
}

func (s *reconciliationService) ListReconciliationsByAccount(ctx context.Context, organizationID string, accountID string, params dto.ListReconciliationsParams) (*dto.ListReconciliationsResponse, error) {
	if _, err := s.chartSvc.ResolveAccount(ctx, organizationID, accountID); err != nil {
		return nil, err
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	reconciliations, nextToken, err := s.reconRepo.ListReconciliationsByAccount(ctx, accountID, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list reconciliations for account %s: %w", accountID, err)
	}
	responses := make([]dto.ReconciliationResponse, len(reconciliations))
	for i := range reconciliations {
		responses[i] = dto.ToReconciliationResponse(&reconciliations[i])
	}
	return &dto.ListReconciliationsResponse{Reconciliations: responses, NextToken: nextToken}, nil
}

func (s *reconciliationService) findOrgReconciliation(ctx context.Context, organizationID string, reconciliationID string) (*domain.GlReconciliation, error) {
	reconciliation, err := s.reconRepo.FindReconciliationByID(ctx, reconciliationID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrReconciliationNotFound
		}
		return nil, fmt.Errorf("failed to find reconciliation %s: %w", reconciliationID, err)
	}
	if reconciliation.OrganizationID != organizationID {
		return nil, ErrReconciliationNotFound
	}
	return reconciliation, nil
}
