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
	"github.com/ledgerforge/gl_ledger_app/internal/utils/accounting"
)

var (
	ErrTranNotFound       = errors.New("transaction not found")
	ErrAmountNotPositive  = errors.New("entry amount must be positive")
	ErrReversalTypeManual = errors.New("reversal transactions are created via reverse, not as drafts")
)

// ledgerService implements both the transaction builder and the posting
// engine. Drafts accumulate entries until posted; posting is the single
// one-way transition into the immutable ledger.
type ledgerService struct {
	tranRepo    portsrepo.AcctgTranRepositoryWithTx
	chartSvc    portssvc.ChartSvcFacade
	currencySvc portssvc.CurrencySvcFacade
	rateSvc     portssvc.ExchangeRateSvcFacade
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(tranRepo portsrepo.AcctgTranRepositoryWithTx, chartSvc portssvc.ChartSvcFacade, currencySvc portssvc.CurrencySvcFacade, rateSvc portssvc.ExchangeRateSvcFacade) portssvc.LedgerSvcFacade {
	return &ledgerService{
		tranRepo:    tranRepo,
		chartSvc:    chartSvc,
		currencySvc: currencySvc,
		rateSvc:     rateSvc,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// BeginTransaction creates an UNPOSTED draft, optionally seeded with entries.
func (s *ledgerService) BeginTransaction(ctx context.Context, organizationID string, req dto.BeginTransactionRequest, userID string) (*domain.AcctgTran, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.TranType == domain.TranTypeReversal {
		return nil, ErrReversalTypeManual
	}

	now := time.Now().UTC()
	tran := domain.AcctgTran{
		AcctgTranID:          uuid.NewString(),
		OrganizationID:       organizationID,
		TranType:             req.TranType,
		Description:          req.Description,
		Status:               domain.Unposted,
		TransactionDate:      req.TransactionDate,
		ScheduledPostingDate: req.ScheduledPostingDate,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if req.Origin != nil {
		tran.Origin = &domain.OriginRef{Kind: req.Origin.Kind, ID: req.Origin.ID}
	}

	if len(req.Entries) > 0 {
		accountIDs := make([]string, 0, len(req.Entries))
		for _, entryReq := range req.Entries {
			accountIDs = append(accountIDs, entryReq.AccountID)
		}
		accounts, err := s.chartSvc.ResolveAccounts(ctx, organizationID, accountIDs)
		if err != nil {
			return nil, err
		}
		for _, entryReq := range req.Entries {
			account := accounts[entryReq.AccountID]
			entry, _, err := s.buildEntry(ctx, &account, &tran, entryReq, userID, now)
			if err != nil {
				return nil, err
			}
			if err := tran.AppendEntry(*entry); err != nil {
				return nil, err
			}
		}
	}

	if err := s.tranRepo.SaveDraft(ctx, tran); err != nil {
		logger.Error("failed to save draft transaction", slog.String("acctg_tran_id", tran.AcctgTranID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save draft transaction: %w", err)
	}
	return &tran, nil
}

// AddEntry appends one line to a draft. The returned warnings flag entries
// whose side runs against the account's normal balance direction; they never
// block the entry.
func (s *ledgerService) AddEntry(ctx context.Context, organizationID string, tranID string, req dto.AddEntryRequest, userID string) (*domain.AcctgTransEntry, []string, error) {
	tran, err := s.findOrgTran(ctx, organizationID, tranID)
	if err != nil {
		return nil, nil, err
	}
	if tran.IsPosted() {
		return nil, nil, domain.ErrAlreadyPosted
	}

	account, err := s.chartSvc.ResolveAccount(ctx, organizationID, req.AccountID)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	entry, warnings, err := s.buildEntry(ctx, account, tran, req, userID, now)
	if err != nil {
		return nil, nil, err
	}

	stored, err := s.tranRepo.AppendEntry(ctx, tranID, *entry)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to append entry to transaction %s: %w", tranID, err)
	}
	return stored, warnings, nil
}

// buildEntry validates one requested line against its resolved account and
// normalizes a foreign-currency amount into the account's base currency at
// the rate in effect on the transaction date.
func (s *ledgerService) buildEntry(ctx context.Context, account *domain.GlAccount, tran *domain.AcctgTran, req dto.AddEntryRequest, userID string, now time.Time) (*domain.AcctgTransEntry, []string, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, fmt.Errorf("%w: account %s", ErrAmountNotPositive, req.AccountID)
	}

	if !account.IsActive {
		return nil, nil, fmt.Errorf("%w: %s", ErrAccountInactive, account.AccountID)
	}

	entry := domain.AcctgTransEntry{
		AccountID:    account.AccountID,
		Amount:       req.Amount,
		Side:         req.Side,
		CurrencyCode: account.CurrencyCode,
		ReconStatus:  domain.NotReconciled,
		Description:  req.Description,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if req.CurrencyCode != account.CurrencyCode {
		// Foreign-currency line: convert into the account's base currency and
		// keep the original pair for the audit trail.
		converted, err := s.convert(ctx, req.Amount, req.CurrencyCode, account.CurrencyCode, tran.TransactionDate)
		if err != nil {
			return nil, nil, err
		}
		origAmount := req.Amount
		entry.Amount = converted
		entry.OrigAmount = &origAmount
		entry.OrigCurrencyCode = req.CurrencyCode
	} else if req.OrigAmount != nil && req.OrigCurrencyCode != "" {
		// Caller supplied a pre-converted amount with its source pair.
		entry.OrigAmount = req.OrigAmount
		entry.OrigCurrencyCode = req.OrigCurrencyCode
	}

	var warnings []string
	if w := s.chartSvc.ConventionWarning(account, req.Side); w != "" {
		warnings = append(warnings, w)
	}
	return &entry, warnings, nil
}

// convert translates amount from one currency to another at the rate in
// effect on asOf, rounding to the target currency's minor units.
func (s *ledgerService) convert(ctx context.Context, amount decimal.Decimal, fromCode, toCode string, asOf time.Time) (decimal.Decimal, error) {
	rate, err := s.rateSvc.RateAsOf(ctx, fromCode, toCode, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	target, err := s.currencySvc.GetCurrencyByCode(ctx, toCode)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to resolve currency %s: %w", toCode, err)
	}
	return accounting.Convert(amount, rate.Rate, target.MinorUnits), nil
}

// findOrgTran retrieves a transaction and verifies its organization.
func (s *ledgerService) findOrgTran(ctx context.Context, organizationID string, tranID string) (*domain.AcctgTran, error) {
	tran, err := s.tranRepo.FindTranByID(ctx, tranID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrTranNotFound
		}
		return nil, fmt.Errorf("failed to find transaction %s: %w", tranID, err)
	}
	if tran.OrganizationID != organizationID {
		return nil, ErrTranNotFound
	}
	return tran, nil
}
