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
	ErrRateNotFound    = errors.New("no exchange rate in effect for the currency pair")
	ErrRateNotPositive = errors.New("exchange rate must be positive")
	ErrSameCurrency    = errors.New("from and to currencies must differ")
)

// exchangeRateService supplies conversion rates "as of" a date.
type exchangeRateService struct {
	rateRepo     portsrepo.ExchangeRateRepository
	currencyRepo portsrepo.CurrencyRepository
}

// NewExchangeRateService creates a new exchange rate service.
func NewExchangeRateService(rateRepo portsrepo.ExchangeRateRepository, currencyRepo portsrepo.CurrencyRepository) portssvc.ExchangeRateSvcFacade {
	return &exchangeRateService{rateRepo: rateRepo, currencyRepo: currencyRepo}
}

var _ portssvc.ExchangeRateSvcFacade = (*exchangeRateService)(nil)

func (s *exchangeRateService) CreateExchangeRate(ctx context.Context, req dto.CreateExchangeRateRequest, userID string) (*domain.ExchangeRate, error) {
	if req.Rate.LessThanOrEqual(decimal.Zero) {
		return nil, ErrRateNotPositive
	}
	if req.FromCurrencyCode == req.ToCurrencyCode {
		return nil, ErrSameCurrency
	}
	for _, code := range []string{req.FromCurrencyCode, req.ToCurrencyCode} {
		if _, err := s.currencyRepo.FindCurrencyByCode(ctx, code); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown currency %s", apperrors.ErrValidation, code)
			}
			return nil, fmt.Errorf("failed to find currency %s: %w", code, err)
		}
	}

	now := time.Now().UTC()
	rate := domain.ExchangeRate{
		ExchangeRateID:   uuid.NewString(),
		FromCurrencyCode: req.FromCurrencyCode,
		ToCurrencyCode:   req.ToCurrencyCode,
		Rate:             req.Rate,
		DateEffective:    req.DateEffective,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.rateRepo.SaveExchangeRate(ctx, rate); err != nil {
		return nil, fmt.Errorf("failed to save exchange rate: %w", err)
	}
	return &rate, nil
}

// RateAsOf returns the most recent rate whose effective date does not exceed
// asOf. Identical codes yield a synthetic identity rate.
func (s *exchangeRateService) RateAsOf(ctx context.Context, fromCode, toCode string, asOf time.Time) (*domain.ExchangeRate, error) {
	if fromCode == toCode {
		return &domain.ExchangeRate{
			FromCurrencyCode: fromCode,
			ToCurrencyCode:   toCode,
			Rate:             decimal.NewFromInt(1),
			DateEffective:    asOf,
		}, nil
	}
	rate, err := s.rateRepo.FindRateAsOf(ctx, fromCode, toCode, asOf)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s->%s as of %s", ErrRateNotFound, fromCode, toCode, asOf.Format(time.DateOnly))
		}
		return nil, fmt.Errorf("failed to find rate %s->%s: %w", fromCode, toCode, err)
	}
	return rate, nil
}
