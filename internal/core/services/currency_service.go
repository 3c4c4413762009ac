package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ledgerforge/gl_ledger_app/internal/apperrors"
	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	portsrepo "github.com/ledgerforge/gl_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/ledgerforge/gl_ledger_app/internal/core/ports/services"
	"github.com/ledgerforge/gl_ledger_app/internal/dto"
)

var ErrCurrencyNotFound = errors.New("currency not found")

type currencyService struct {
	currencyRepo portsrepo.CurrencyRepository
}

// NewCurrencyService creates a new currency service.
func NewCurrencyService(currencyRepo portsrepo.CurrencyRepository) portssvc.CurrencySvcFacade {
	return &currencyService{currencyRepo: currencyRepo}
}

var _ portssvc.CurrencySvcFacade = (*currencyService)(nil)

func (s *currencyService) CreateCurrency(ctx context.Context, req dto.CreateCurrencyRequest, userID string) (*domain.Currency, error) {
	// Code format and minor-unit range already handled by DTO binding
	now := time.Now().UTC()
	currency := domain.Currency{
		CurrencyCode: req.CurrencyCode,
		Symbol:       req.Symbol,
		Name:         req.Name,
		MinorUnits:   req.MinorUnits,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.currencyRepo.SaveCurrency(ctx, currency); err != nil {
		return nil, fmt.Errorf("failed to create currency: %w", err)
	}
	return &currency, nil
}

func (s *currencyService) GetCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error) {
	currency, err := s.currencyRepo.FindCurrencyByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCurrencyNotFound, code)
		}
		return nil, fmt.Errorf("failed to get currency %s: %w", code, err)
	}
	return currency, nil
}

func (s *currencyService) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	currencies, err := s.currencyRepo.ListCurrencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}
	if currencies == nil {
		return []domain.Currency{}, nil
	}
	return currencies, nil
}
