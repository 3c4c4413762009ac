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
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrAccountTypeUnknown = errors.New("account type not found")
	ErrParentOtherOrg     = errors.New("parent account belongs to a different organization")
	ErrParentCycle        = errors.New("parent chain would form a cycle")
)

// chartOfAccountsService manages the account hierarchy and derived balances.
type chartOfAccountsService struct {
	accountRepo  portsrepo.GlAccountRepositoryFacade
	tranRepo     portsrepo.AcctgTranReader
	currencyRepo portsrepo.CurrencyRepository
}

// NewChartOfAccountsService creates a new chart-of-accounts service.
func NewChartOfAccountsService(accountRepo portsrepo.GlAccountRepositoryFacade, tranRepo portsrepo.AcctgTranReader, currencyRepo portsrepo.CurrencyRepository) portssvc.ChartSvcFacade {
	return &chartOfAccountsService{
		accountRepo:  accountRepo,
		tranRepo:     tranRepo,
		currencyRepo: currencyRepo,
	}
}

var _ portssvc.ChartSvcFacade = (*chartOfAccountsService)(nil)

// ResolveAccount retrieves an account and verifies it belongs to the caller's
// organization. Accounts of other organizations are indistinguishable from
// missing ones.
func (s *chartOfAccountsService) ResolveAccount(ctx context.Context, organizationID string, accountID string) (*domain.GlAccount, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	if account.OrganizationID != organizationID {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

func (s *chartOfAccountsService) ResolveAccounts(ctx context.Context, organizationID string, accountIDs []string) (map[string]domain.GlAccount, error) {
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to find accounts: %w", err)
	}
	for id, account := range accounts {
		if account.OrganizationID != organizationID {
			delete(accounts, id)
		}
	}
	for _, id := range accountIDs {
		if _, ok := accounts[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
		}
	}
	return accounts, nil
}

// AncestorsOf walks the parent chain of an account, root last. The walk is
// bounded by a visited set so corrupt data cannot loop forever.
func (s *chartOfAccountsService) AncestorsOf(ctx context.Context, accountID string) ([]domain.GlAccount, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}

	visited := map[string]bool{account.AccountID: true}
	var ancestors []domain.GlAccount
	for account.ParentAccountID != "" {
		if visited[account.ParentAccountID] {
			return nil, fmt.Errorf("%w: account %s", ErrParentCycle, account.ParentAccountID)
		}
		parent, err := s.accountRepo.FindAccountByID(ctx, account.ParentAccountID)
		if err != nil {
			return nil, fmt.Errorf("failed to find parent account %s: %w", account.ParentAccountID, err)
		}
		visited[parent.AccountID] = true
		ancestors = append(ancestors, *parent)
		account = parent
	}
	return ancestors, nil
}

func (s *chartOfAccountsService) ListAccounts(ctx context.Context, organizationID string, limit int, offset int) ([]domain.GlAccount, error) {
	if limit <= 0 {
		limit = 50
	}
	accounts, err := s.accountRepo.ListAccounts(ctx, organizationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	if accounts == nil {
		return []domain.GlAccount{}, nil
	}
	return accounts, nil
}

// DerivedBalance recomputes the balance from posted entries. Balances are
// never stored, so a rebuilt ledger always agrees with itself.
func (s *chartOfAccountsService) DerivedBalance(ctx context.Context, organizationID string, accountID string) (decimal.Decimal, error) {
	if _, err := s.ResolveAccount(ctx, organizationID, accountID); err != nil {
		return decimal.Zero, err
	}
	balance, err := s.tranRepo.SumPostedByAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum posted entries for account %s: %w", accountID, err)
	}
	return balance, nil
}

func (s *chartOfAccountsService) CreateAccount(ctx context.Context, organizationID string, req dto.CreateAccountRequest, userID string) (*domain.GlAccount, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	accountType, err := s.accountRepo.FindAccountTypeByID(ctx, req.TypeID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAccountTypeUnknown, req.TypeID)
		}
		return nil, fmt.Errorf("failed to find account type %s: %w", req.TypeID, err)
	}

	currency, err := s.currencyRepo.FindCurrencyByCode(ctx, req.CurrencyCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown currency %s", apperrors.ErrValidation, req.CurrencyCode)
		}
		return nil, fmt.Errorf("failed to find currency %s: %w", req.CurrencyCode, err)
	}

	parentID := ""
	if req.ParentAccountID != nil && *req.ParentAccountID != "" {
		parent, err := s.ResolveAccount(ctx, organizationID, *req.ParentAccountID)
		if err != nil {
			if errors.Is(err, ErrAccountNotFound) {
				return nil, ErrParentOtherOrg
			}
			return nil, err
		}
		parentID = parent.AccountID
	}

	now := time.Now().UTC()
	account := domain.GlAccount{
		AccountID:       uuid.NewString(),
		OrganizationID:  organizationID,
		TypeID:          accountType.TypeID,
		Class:           accountType.Class,
		Code:            req.Code,
		Name:            req.Name,
		CurrencyCode:    currency.CurrencyCode,
		ParentAccountID: parentID,
		Description:     req.Description,
		IsActive:        true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		logger.Error("failed to save account", slog.String("account_id", account.AccountID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}
	return &account, nil
}

func (s *chartOfAccountsService) UpdateAccount(ctx context.Context, organizationID string, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.GlAccount, error) {
	account, err := s.ResolveAccount(ctx, organizationID, accountID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		account.Name = *req.Name
	}
	if req.Description != nil {
		account.Description = *req.Description
	}
	account.LastUpdatedAt = time.Now().UTC()
	account.LastUpdatedBy = userID

	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		return nil, fmt.Errorf("failed to update account %s: %w", accountID, err)
	}
	return account, nil
}

// DeactivateAccount marks an account inactive. Accounts referenced by posted
// entries keep their history; deactivation only blocks new entries.
func (s *chartOfAccountsService) DeactivateAccount(ctx context.Context, organizationID string, accountID string, userID string) error {
	account, err := s.ResolveAccount(ctx, organizationID, accountID)
	if err != nil {
		return err
	}
	if !account.IsActive {
		return nil // Already inactive, idempotent
	}
	if err := s.accountRepo.DeactivateAccount(ctx, accountID, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to deactivate account %s: %w", accountID, err)
	}
	return nil
}

// ConventionWarning reports when an entry side runs against the account
// class's normal balance direction. Correcting entries legitimately invert
// convention, so this is advisory only.
func (s *chartOfAccountsService) ConventionWarning(account *domain.GlAccount, side domain.EntrySide) string {
	if side == account.Class.NormalSide() {
		return ""
	}
	return fmt.Sprintf("%s entry against %s account %s runs contrary to its normal %s balance",
		side, account.Class, account.AccountID, account.Class.NormalSide())
}
