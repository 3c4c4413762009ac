package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	portssvc "github.com/ledgerforge/gl_ledger_app/internal/core/ports/services"
	"github.com/ledgerforge/gl_ledger_app/internal/core/services"
	"github.com/ledgerforge/gl_ledger_app/internal/dto"
)

type ChartOfAccountsServiceTestSuite struct {
	suite.Suite
	mockAccountRepo  *MockGlAccountRepository
	mockTranRepo     *MockAcctgTranRepository
	mockCurrencyRepo *MockCurrencyRepository
	service          portssvc.ChartSvcFacade
	organizationID   string
	userID           string
	cashType         domain.GlAccountType
	usd              domain.Currency
}

func (suite *ChartOfAccountsServiceTestSuite) SetupTest() {
	suite.mockAccountRepo = new(MockGlAccountRepository)
	suite.mockTranRepo = new(MockAcctgTranRepository)
	suite.mockCurrencyRepo = new(MockCurrencyRepository)
	suite.service = services.NewChartOfAccountsService(suite.mockAccountRepo, suite.mockTranRepo, suite.mockCurrencyRepo)

	suite.organizationID = uuid.NewString()
	suite.userID = uuid.NewString()
	suite.cashType = domain.GlAccountType{TypeID: "CASH", Class: domain.Asset, Name: "Cash"}
	suite.usd = domain.Currency{CurrencyCode: "USD", Symbol: "$", Name: "US Dollar", MinorUnits: 2}
}

func (suite *ChartOfAccountsServiceTestSuite) account(class domain.GlAccountClass, parentID string) domain.GlAccount {
	return domain.GlAccount{
		AccountID:       uuid.NewString(),
		OrganizationID:  suite.organizationID,
		TypeID:          suite.cashType.TypeID,
		Class:           class,
		CurrencyCode:    "USD",
		ParentAccountID: parentID,
		IsActive:        true,
	}
}

func (suite *ChartOfAccountsServiceTestSuite) TestCreateAccount_Success() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{
		TypeID:       suite.cashType.TypeID,
		Code:         "1100",
		Name:         "Operating Cash",
		CurrencyCode: "USD",
	}

	suite.mockAccountRepo.On("FindAccountTypeByID", ctx, suite.cashType.TypeID).Return(&suite.cashType, nil).Once()
	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "USD").Return(&suite.usd, nil).Once()
	suite.mockAccountRepo.On("SaveAccount", ctx, mock.MatchedBy(func(a domain.GlAccount) bool {
		return a.Class == domain.Asset && a.OrganizationID == suite.organizationID && a.IsActive
	})).Return(nil).Once()

	account, err := suite.service.CreateAccount(ctx, suite.organizationID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(account)
	suite.Equal(domain.Asset, account.Class)
	suite.Equal(suite.userID, account.CreatedBy)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *ChartOfAccountsServiceTestSuite) TestCreateAccount_ParentFromOtherOrganization() {
	ctx := context.Background()
	parent := suite.account(domain.Asset, "")
	parent.OrganizationID = uuid.NewString()
	parentID := parent.AccountID
	req := dto.CreateAccountRequest{
		TypeID:          suite.cashType.TypeID,
		Name:            "Petty Cash",
		CurrencyCode:    "USD",
		ParentAccountID: &parentID,
	}

	suite.mockAccountRepo.On("FindAccountTypeByID", ctx, suite.cashType.TypeID).Return(&suite.cashType, nil).Once()
	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "USD").Return(&suite.usd, nil).Once()
	suite.mockAccountRepo.On("FindAccountByID", ctx, parentID).Return(&parent, nil).Once()

	_, err := suite.service.CreateAccount(ctx, suite.organizationID, req, suite.userID)

	suite.Require().ErrorIs(err, services.ErrParentOtherOrg)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "SaveAccount", mock.Anything, mock.Anything)
}

func (suite *ChartOfAccountsServiceTestSuite) TestResolveAccounts_FiltersOtherOrganization() {
	ctx := context.Background()
	mine := suite.account(domain.Asset, "")
	theirs := suite.account(domain.Revenue, "")
	theirs.OrganizationID = uuid.NewString()
	ids := []string{mine.AccountID, theirs.AccountID}

	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, ids).Return(map[string]domain.GlAccount{
		mine.AccountID:   mine,
		theirs.AccountID: theirs,
	}, nil).Once()

	_, err := suite.service.ResolveAccounts(ctx, suite.organizationID, ids)

	suite.Require().ErrorIs(err, services.ErrAccountNotFound)
}

func (suite *ChartOfAccountsServiceTestSuite) TestResolveAccounts_Success() {
	ctx := context.Background()
	cash := suite.account(domain.Asset, "")
	revenue := suite.account(domain.Revenue, "")
	ids := []string{cash.AccountID, revenue.AccountID}

	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, ids).Return(map[string]domain.GlAccount{
		cash.AccountID:    cash,
		revenue.AccountID: revenue,
	}, nil).Once()

	accounts, err := suite.service.ResolveAccounts(ctx, suite.organizationID, ids)

	suite.Require().NoError(err)
	suite.Len(accounts, 2)
	suite.Equal(cash.AccountID, accounts[cash.AccountID].AccountID)
}

func (suite *ChartOfAccountsServiceTestSuite) TestResolveAccount_OtherOrganizationInvisible() {
	ctx := context.Background()
	account := suite.account(domain.Asset, "")
	account.OrganizationID = uuid.NewString()

	suite.mockAccountRepo.On("FindAccountByID", ctx, account.AccountID).Return(&account, nil).Once()

	_, err := suite.service.ResolveAccount(ctx, suite.organizationID, account.AccountID)

	suite.Require().ErrorIs(err, services.ErrAccountNotFound)
}

func (suite *ChartOfAccountsServiceTestSuite) TestAncestorsOf_RootLast() {
	ctx := context.Background()
	root := suite.account(domain.Asset, "")
	mid := suite.account(domain.Asset, root.AccountID)
	leaf := suite.account(domain.Asset, mid.AccountID)

	suite.mockAccountRepo.On("FindAccountByID", ctx, leaf.AccountID).Return(&leaf, nil).Once()
	suite.mockAccountRepo.On("FindAccountByID", ctx, mid.AccountID).Return(&mid, nil).Once()
	suite.mockAccountRepo.On("FindAccountByID", ctx, root.AccountID).Return(&root, nil).Once()

	ancestors, err := suite.service.AncestorsOf(ctx, leaf.AccountID)

	suite.Require().NoError(err)
	suite.Require().Len(ancestors, 2)
	suite.Equal(mid.AccountID, ancestors[0].AccountID)
	suite.Equal(root.AccountID, ancestors[1].AccountID)
}

func (suite *ChartOfAccountsServiceTestSuite) TestAncestorsOf_CycleDetected() {
	ctx := context.Background()
	a := suite.account(domain.Asset, "")
	b := suite.account(domain.Asset, a.AccountID)
	a.ParentAccountID = b.AccountID // corrupt: a <-> b

	suite.mockAccountRepo.On("FindAccountByID", ctx, a.AccountID).Return(&a, nil)
	suite.mockAccountRepo.On("FindAccountByID", ctx, b.AccountID).Return(&b, nil)

	_, err := suite.service.AncestorsOf(ctx, a.AccountID)

	suite.Require().ErrorIs(err, services.ErrParentCycle)
}

func (suite *ChartOfAccountsServiceTestSuite) TestDerivedBalance_SumsPostedEntries() {
	ctx := context.Background()
	account := suite.account(domain.Asset, "")

	suite.mockAccountRepo.On("FindAccountByID", ctx, account.AccountID).Return(&account, nil).Once()
	suite.mockTranRepo.On("SumPostedByAccount", ctx, account.AccountID).Return(decimal.RequireFromString("412.55"), nil).Once()

	balance, err := suite.service.DerivedBalance(ctx, suite.organizationID, account.AccountID)

	suite.Require().NoError(err)
	suite.True(balance.Equal(decimal.RequireFromString("412.55")))
}

func (suite *ChartOfAccountsServiceTestSuite) TestDeactivateAccount_Idempotent() {
	ctx := context.Background()
	account := suite.account(domain.Asset, "")
	account.IsActive = false

	suite.mockAccountRepo.On("FindAccountByID", ctx, account.AccountID).Return(&account, nil).Once()

	err := suite.service.DeactivateAccount(ctx, suite.organizationID, account.AccountID, suite.userID)

	suite.Require().NoError(err)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "DeactivateAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ChartOfAccountsServiceTestSuite) TestConventionWarning() {
	asset := suite.account(domain.Asset, "")
	revenue := suite.account(domain.Revenue, "")

	suite.Empty(suite.service.ConventionWarning(&asset, domain.Debit))
	suite.NotEmpty(suite.service.ConventionWarning(&asset, domain.Credit))
	suite.Empty(suite.service.ConventionWarning(&revenue, domain.Credit))
	suite.NotEmpty(suite.service.ConventionWarning(&revenue, domain.Debit))
}

func TestChartOfAccountsServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ChartOfAccountsServiceTestSuite))
}
