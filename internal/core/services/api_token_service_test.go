package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/ledgerforge/gl_ledger_app/internal/apperrors"
	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	portssvc "github.com/ledgerforge/gl_ledger_app/internal/core/ports/services"
	"github.com/ledgerforge/gl_ledger_app/internal/core/services"
)

type APITokenServiceTestSuite struct {
	suite.Suite
	mockTokenRepo *MockAPITokenRepository
	service       portssvc.APITokenSvc
}

func (suite *APITokenServiceTestSuite) SetupTest() {
	suite.mockTokenRepo = new(MockAPITokenRepository)
	suite.service = services.NewAPITokenService(suite.mockTokenRepo)
}

// createToken issues a token through the service and captures the stored row
// so validation tests can replay it.
func (suite *APITokenServiceTestSuite) createToken(expiresIn *time.Duration) (string, *domain.APIToken) {
	ctx := context.Background()
	var stored *domain.APIToken
	suite.mockTokenRepo.On("Create", ctx, mock.AnythingOfType("*domain.APIToken")).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*domain.APIToken)
	}).Return(nil).Once()

	plaintext, token, err := suite.service.CreateToken(ctx, "order-processor", expiresIn, "admin")
	suite.Require().NoError(err)
	suite.Require().NotNil(stored)
	suite.Require().Equal(stored.TokenID, token.TokenID)
	return plaintext, stored
}

func (suite *APITokenServiceTestSuite) TestCreateToken_FormatAndHash() {
	plaintext, stored := suite.createToken(nil)

	tokenID, secret, ok := strings.Cut(plaintext, ".")
	suite.Require().True(ok)
	suite.Equal(stored.TokenID, tokenID)
	suite.NotEmpty(secret)
	suite.NotEqual(secret, stored.TokenHash) // Only the hash is stored
	suite.Nil(stored.ExpiresAt)
}

func (suite *APITokenServiceTestSuite) TestValidateToken_RoundTrip() {
	ctx := context.Background()
	plaintext, stored := suite.createToken(nil)

	suite.mockTokenRepo.On("FindByID", ctx, stored.TokenID).Return(stored, nil).Once()
	suite.mockTokenRepo.On("TouchLastUsed", ctx, stored.TokenID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	callerID, err := suite.service.ValidateToken(ctx, plaintext)

	suite.Require().NoError(err)
	suite.Equal(stored.TokenID, callerID)
}

func (suite *APITokenServiceTestSuite) TestValidateToken_WrongSecret() {
	ctx := context.Background()
	_, stored := suite.createToken(nil)

	suite.mockTokenRepo.On("FindByID", ctx, stored.TokenID).Return(stored, nil).Once()

	_, err := suite.service.ValidateToken(ctx, stored.TokenID+".not-the-secret")

	suite.Require().ErrorIs(err, services.ErrTokenInvalid)
}

func (suite *APITokenServiceTestSuite) TestValidateToken_Expired() {
	ctx := context.Background()
	expiresIn := -time.Hour // already expired
	plaintext, stored := suite.createToken(&expiresIn)

	suite.mockTokenRepo.On("FindByID", ctx, stored.TokenID).Return(stored, nil).Once()

	_, err := suite.service.ValidateToken(ctx, plaintext)

	suite.Require().ErrorIs(err, services.ErrTokenExpired)
}

func (suite *APITokenServiceTestSuite) TestValidateToken_Malformed() {
	ctx := context.Background()

	_, err := suite.service.ValidateToken(ctx, "no-separator")
	suite.Require().ErrorIs(err, services.ErrTokenInvalid)

	_, err = suite.service.ValidateToken(ctx, ".secret-without-id")
	suite.Require().ErrorIs(err, services.ErrTokenInvalid)
}

func (suite *APITokenServiceTestSuite) TestValidateToken_UnknownID() {
	ctx := context.Background()

	suite.mockTokenRepo.On("FindByID", ctx, "missing").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.ValidateToken(ctx, "missing.whatever")

	suite.Require().ErrorIs(err, services.ErrTokenInvalid)
}

func TestAPITokenServiceTestSuite(t *testing.T) {
	suite.Run(t, new(APITokenServiceTestSuite))
}
