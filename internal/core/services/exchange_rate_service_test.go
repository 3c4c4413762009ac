package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/ledgerforge/gl_ledger_app/internal/apperrors"
	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	portssvc "github.com/ledgerforge/gl_ledger_app/internal/core/ports/services"
	"github.com/ledgerforge/gl_ledger_app/internal/core/services"
	"github.com/ledgerforge/gl_ledger_app/internal/dto"
)

type ExchangeRateServiceTestSuite struct {
	suite.Suite
	mockRateRepo     *MockExchangeRateRepository
	mockCurrencyRepo *MockCurrencyRepository
	service          portssvc.ExchangeRateSvcFacade
	userID           string
	usd              domain.Currency
	eur              domain.Currency
}

func (suite *ExchangeRateServiceTestSuite) SetupTest() {
	suite.mockRateRepo = new(MockExchangeRateRepository)
	suite.mockCurrencyRepo = new(MockCurrencyRepository)
	suite.service = services.NewExchangeRateService(suite.mockRateRepo, suite.mockCurrencyRepo)

	suite.userID = uuid.NewString()
	suite.usd = domain.Currency{CurrencyCode: "USD", Symbol: "$", Name: "US Dollar", MinorUnits: 2}
	suite.eur = domain.Currency{CurrencyCode: "EUR", Symbol: "€", Name: "Euro", MinorUnits: 2}
}

func (suite *ExchangeRateServiceTestSuite) TestCreateExchangeRate_Success() {
	ctx := context.Background()
	req := dto.CreateExchangeRateRequest{
		FromCurrencyCode: "EUR",
		ToCurrencyCode:   "USD",
		Rate:             decimal.RequireFromString("1.0843"),
		DateEffective:    time.Now().UTC(),
	}

	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "EUR").Return(&suite.eur, nil).Once()
	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "USD").Return(&suite.usd, nil).Once()
	suite.mockRateRepo.On("SaveExchangeRate", ctx, mock.AnythingOfType("domain.ExchangeRate")).Return(nil).Once()

	rate, err := suite.service.CreateExchangeRate(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(rate)
	suite.NotEmpty(rate.ExchangeRateID)
	suite.mockRateRepo.AssertExpectations(suite.T())
}

func (suite *ExchangeRateServiceTestSuite) TestCreateExchangeRate_Invalid() {
	ctx := context.Background()

	_, err := suite.service.CreateExchangeRate(ctx, dto.CreateExchangeRateRequest{
		FromCurrencyCode: "EUR", ToCurrencyCode: "USD", Rate: decimal.Zero, DateEffective: time.Now(),
	}, suite.userID)
	suite.Require().ErrorIs(err, services.ErrRateNotPositive)

	_, err = suite.service.CreateExchangeRate(ctx, dto.CreateExchangeRateRequest{
		FromCurrencyCode: "USD", ToCurrencyCode: "USD", Rate: decimal.NewFromInt(1), DateEffective: time.Now(),
	}, suite.userID)
	suite.Require().ErrorIs(err, services.ErrSameCurrency)
}

func (suite *ExchangeRateServiceTestSuite) TestRateAsOf_IdentityForSameCurrency() {
	ctx := context.Background()

	rate, err := suite.service.RateAsOf(ctx, "USD", "USD", time.Now().UTC())

	suite.Require().NoError(err)
	suite.True(rate.Rate.Equal(decimal.NewFromInt(1)))
	suite.mockRateRepo.AssertNotCalled(suite.T(), "FindRateAsOf", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ExchangeRateServiceTestSuite) TestRateAsOf_FindsEffectiveRate() {
	ctx := context.Background()
	asOf := time.Now().UTC()
	stored := &domain.ExchangeRate{
		ExchangeRateID:   uuid.NewString(),
		FromCurrencyCode: "EUR",
		ToCurrencyCode:   "USD",
		Rate:             decimal.RequireFromString("1.0843"),
		DateEffective:    asOf.Add(-24 * time.Hour),
	}

	suite.mockRateRepo.On("FindRateAsOf", ctx, "EUR", "USD", asOf).Return(stored, nil).Once()

	rate, err := suite.service.RateAsOf(ctx, "EUR", "USD", asOf)

	suite.Require().NoError(err)
	suite.True(rate.Rate.Equal(stored.Rate))
}

func (suite *ExchangeRateServiceTestSuite) TestRateAsOf_NotFound() {
	ctx := context.Background()
	asOf := time.Now().UTC()

	suite.mockRateRepo.On("FindRateAsOf", ctx, "EUR", "JPY", asOf).Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.RateAsOf(ctx, "EUR", "JPY", asOf)

	suite.Require().ErrorIs(err, services.ErrRateNotFound)
}

func TestExchangeRateServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ExchangeRateServiceTestSuite))
}
