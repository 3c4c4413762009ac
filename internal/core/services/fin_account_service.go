package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerforge/gl_ledger_app/internal/apperrors"
	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	portsrepo "github.com/ledgerforge/gl_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/ledgerforge/gl_ledger_app/internal/core/ports/services"
	"github.com/ledgerforge/gl_ledger_app/internal/dto"
)

var (
	ErrFinTranAmountSign = errors.New("amount sign does not match the movement type")
	ErrLinkTranNotPosted = errors.New("only posted transactions can be linked to a movement")
)

// finAccountService manages external statement movements, the counterpart
// side of reconciliation.
type finAccountService struct {
	finRepo      portsrepo.FinAccountTranRepository
	tranRepo     portsrepo.AcctgTranReader
	currencyRepo portsrepo.CurrencyRepository
}

// NewFinAccountService creates a new fin account service.
func NewFinAccountService(finRepo portsrepo.FinAccountTranRepository, tranRepo portsrepo.AcctgTranReader, currencyRepo portsrepo.CurrencyRepository) portssvc.FinAccountSvcFacade {
	return &finAccountService{
		finRepo:      finRepo,
		tranRepo:     tranRepo,
		currencyRepo: currencyRepo,
	}
}

var _ portssvc.FinAccountSvcFacade = (*finAccountService)(nil)

// ImportTran records one statement movement. Amounts are signed from the
// account holder's view: deposits positive, withdrawals negative.
func (s *finAccountService) ImportTran(ctx context.Context, organizationID string, req dto.ImportFinAccountTranRequest, userID string) (*domain.FinAccountTran, error) {
	switch req.TranType {
	case domain.FinTranDeposit:
		if req.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: deposit must be positive", ErrFinTranAmountSign)
		}
	case domain.FinTranWithdrawal:
		if req.Amount.GreaterThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: withdrawal must be negative", ErrFinTranAmountSign)
		}
	case domain.FinTranAdjustment:
		if req.Amount.IsZero() {
			return nil, fmt.Errorf("%w: adjustment must be non-zero", ErrFinTranAmountSign)
		}
	}

	if _, err := s.currencyRepo.FindCurrencyByCode(ctx, req.CurrencyCode); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown currency %s", apperrors.ErrValidation, req.CurrencyCode)
		}
		return nil, fmt.Errorf("failed to find currency %s: %w", req.CurrencyCode, err)
	}

	now := time.Now().UTC()
	tran := domain.FinAccountTran{
		FinAccountTranID: uuid.NewString(),
		FinAccountID:     req.FinAccountID,
		OrganizationID:   organizationID,
		TranType:         req.TranType,
		Amount:           req.Amount,
		CurrencyCode:     req.CurrencyCode,
		TransactionDate:  req.TransactionDate,
		Description:      req.Description,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.finRepo.SaveFinAccountTran(ctx, tran); err != nil {
		return nil, fmt.Errorf("failed to save fin account transaction: %w", err)
	}
	return &tran, nil
}

func (s *finAccountService) GetTran(ctx context.Context, organizationID string, finAccountTranID string) (*domain.FinAccountTran, error) {
	tran, err := s.finRepo.FindFinAccountTranByID(ctx, finAccountTranID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrFinTranNotFound
		}
		return nil, fmt.Errorf("failed to find fin account transaction %s: %w", finAccountTranID, err)
	}
	if tran.OrganizationID != organizationID {
		return nil, ErrFinTranNotFound
	}
	return tran, nil
}

func (s *finAccountService) ListTrans(ctx context.Context, organizationID string, finAccountID string, params dto.ListFinAccountTransParams) (*dto.ListFinAccountTransResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	trans, nextToken, err := s.finRepo.ListFinAccountTrans(ctx, finAccountID, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list fin account transactions: %w", err)
	}
	// Listing is keyed by the external account id; filter out anything
	// belonging to another organization rather than leaking it.
	filtered := trans[:0]
	for _, t := range trans {
		if t.OrganizationID == organizationID {
			filtered = append(filtered, t)
		}
	}
	return &dto.ListFinAccountTransResponse{Transactions: dto.ToFinAccountTranResponses(filtered), NextToken: nextToken}, nil
}

// LinkAcctgTran records the posted ledger transaction that books a movement.
func (s *finAccountService) LinkAcctgTran(ctx context.Context, organizationID string, finAccountTranID string, acctgTranID string, userID string) error {
	if _, err := s.GetTran(ctx, organizationID, finAccountTranID); err != nil {
		return err
	}
	ledgerTran, err := s.tranRepo.FindTranByID(ctx, acctgTranID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return ErrTranNotFound
		}
		return fmt.Errorf("failed to find transaction %s: %w", acctgTranID, err)
	}
	if ledgerTran.OrganizationID != organizationID {
		return ErrTranNotFound
	}
	if !ledgerTran.IsPosted() {
		return ErrLinkTranNotPosted
	}
	if err := s.finRepo.LinkAcctgTran(ctx, finAccountTranID, acctgTranID, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to link transaction %s to movement %s: %w", acctgTranID, finAccountTranID, err)
	}
	return nil
}
