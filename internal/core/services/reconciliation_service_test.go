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

type ReconciliationServiceTestSuite struct {
	suite.Suite
	mockReconRepo   *MockGlReconciliationRepository
	mockTranRepo    *MockAcctgTranRepository
	mockFinRepo     *MockFinAccountTranRepository
	mockChartSvc    *MockChartSvc
	mockCurrencySvc *MockCurrencySvc
	service         portssvc.ReconciliationSvcFacade
	organizationID  string
	userID          string
	bankAccount     domain.GlAccount
	usd             domain.Currency
}

func (suite *ReconciliationServiceTestSuite) SetupTest() {
	suite.mockReconRepo = new(MockGlReconciliationRepository)
	suite.mockTranRepo = new(MockAcctgTranRepository)
	suite.mockFinRepo = new(MockFinAccountTranRepository)
	suite.mockChartSvc = new(MockChartSvc)
	suite.mockCurrencySvc = new(MockCurrencySvc)
	suite.service = services.NewReconciliationService(suite.mockReconRepo, suite.mockTranRepo, suite.mockFinRepo, suite.mockChartSvc, suite.mockCurrencySvc)

	suite.organizationID = uuid.NewString()
	suite.userID = uuid.NewString()
	suite.usd = domain.Currency{CurrencyCode: "USD", Symbol: "$", Name: "US Dollar", MinorUnits: 2}
	suite.bankAccount = domain.GlAccount{
		AccountID:      uuid.NewString(),
		OrganizationID: suite.organizationID,
		Class:          domain.Asset,
		CurrencyCode:   "USD",
		IsActive:       true,
	}
}

func (suite *ReconciliationServiceTestSuite) openReconciliation(matches ...domain.GlReconciliationEntry) *domain.GlReconciliation {
	return &domain.GlReconciliation{
		ReconciliationID: uuid.NewString(),
		AccountID:        suite.bankAccount.AccountID,
		OrganizationID:   suite.organizationID,
		Status:           domain.ReconciliationOpen,
		OpeningBalance:   decimal.Zero,
		Entries:          matches,
	}
}

func (suite *ReconciliationServiceTestSuite) TestOpenReconciliation_Success() {
	ctx := context.Background()
	req := dto.OpenReconciliationRequest{
		AccountID:      suite.bankAccount.AccountID,
		OpeningBalance: decimal.RequireFromString("250.00"),
		Description:    "March statement",
	}

	suite.mockChartSvc.On("ResolveAccount", ctx, suite.organizationID, suite.bankAccount.AccountID).Return(&suite.bankAccount, nil).Once()
	suite.mockReconRepo.On("SaveReconciliation", ctx, mock.AnythingOfType("domain.GlReconciliation")).Return(nil).Once()

	reconciliation, err := suite.service.OpenReconciliation(ctx, suite.organizationID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(reconciliation)
	suite.Equal(domain.ReconciliationOpen, reconciliation.Status)
	suite.True(reconciliation.OpeningBalance.Equal(req.OpeningBalance))
	suite.mockReconRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestMatchEntry_PostedEntrySucceeds() {
	ctx := context.Background()
	reconciliation := suite.openReconciliation()
	postedAt := time.Now().UTC()
	tran := &domain.AcctgTran{
		AcctgTranID:    uuid.NewString(),
		OrganizationID: suite.organizationID,
		Status:         domain.Posted,
		PostedDate:     &postedAt,
	}
	ref := domain.EntryRef{AcctgTranID: tran.AcctgTranID, SequenceID: 1}
	entry := &domain.AcctgTransEntry{
		AcctgTranID:  tran.AcctgTranID,
		SequenceID:   1,
		AccountID:    suite.bankAccount.AccountID,
		Amount:       decimal.RequireFromString("100.00"),
		Side:         domain.Debit,
		CurrencyCode: "USD",
	}

	suite.mockReconRepo.On("FindReconciliationByID", ctx, reconciliation.ReconciliationID).Return(reconciliation, nil).Once()
	suite.mockTranRepo.On("FindEntryByRef", ctx, ref).Return(entry, nil).Once()
	suite.mockTranRepo.On("FindTranByID", ctx, tran.AcctgTranID).Return(tran, nil).Once()
	suite.mockChartSvc.On("ResolveAccount", ctx, suite.organizationID, suite.bankAccount.AccountID).Return(&suite.bankAccount, nil).Once()
	suite.mockReconRepo.On("AttachEntry", ctx, mock.MatchedBy(func(e domain.GlReconciliationEntry) bool {
		// A debit to an asset account carries its positive convention sign.
		return e.EntryRef != nil && *e.EntryRef == ref && e.SignedAmount.Equal(decimal.RequireFromString("100.00"))
	})).Return(nil).Once()

	err := suite.service.MatchEntry(ctx, suite.organizationID, reconciliation.ReconciliationID, domain.MatchTarget{Entry: &ref}, suite.userID)

	suite.Require().NoError(err)
	suite.mockReconRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestMatchEntry_UnpostedEntryRejected() {
	ctx := context.Background()
	reconciliation := suite.openReconciliation()
	tran := &domain.AcctgTran{
		AcctgTranID:    uuid.NewString(),
		OrganizationID: suite.organizationID,
		Status:         domain.Unposted,
	}
	ref := domain.EntryRef{AcctgTranID: tran.AcctgTranID, SequenceID: 1}
	entry := &domain.AcctgTransEntry{
		AcctgTranID: tran.AcctgTranID,
		SequenceID:  1,
		AccountID:   suite.bankAccount.AccountID,
		Amount:      decimal.NewFromInt(100),
		Side:        domain.Debit,
	}

	suite.mockReconRepo.On("FindReconciliationByID", ctx, reconciliation.ReconciliationID).Return(reconciliation, nil).Once()
	suite.mockTranRepo.On("FindEntryByRef", ctx, ref).Return(entry, nil).Once()
	suite.mockTranRepo.On("FindTranByID", ctx, tran.AcctgTranID).Return(tran, nil).Once()

	err := suite.service.MatchEntry(ctx, suite.organizationID, reconciliation.ReconciliationID, domain.MatchTarget{Entry: &ref}, suite.userID)

	suite.Require().ErrorIs(err, services.ErrEntryNotPosted)
	suite.mockReconRepo.AssertNotCalled(suite.T(), "AttachEntry", mock.Anything, mock.Anything)
}

func (suite *ReconciliationServiceTestSuite) TestMatchEntry_HeldByAnotherReconciliation() {
	ctx := context.Background()
	reconciliation := suite.openReconciliation()
	finTranID := uuid.NewString()
	finTran := &domain.FinAccountTran{
		FinAccountTranID: finTranID,
		OrganizationID:   suite.organizationID,
		TranType:         domain.FinTranDeposit,
		Amount:           decimal.RequireFromString("40.00"),
	}

	suite.mockReconRepo.On("FindReconciliationByID", ctx, reconciliation.ReconciliationID).Return(reconciliation, nil).Once()
	suite.mockFinRepo.On("FindFinAccountTranByID", ctx, finTranID).Return(finTran, nil).Once()
	suite.mockReconRepo.On("AttachEntry", ctx, mock.Anything).Return(apperrors.ErrConflict).Once()

	err := suite.service.MatchEntry(ctx, suite.organizationID, reconciliation.ReconciliationID, domain.MatchTarget{FinAccountTran: &finTranID}, suite.userID)

	suite.Require().ErrorIs(err, services.ErrAlreadyReconciling)
}

// depositOf builds a statement movement in the suite's organization.
func (suite *ReconciliationServiceTestSuite) depositOf(amount string) *domain.FinAccountTran {
	return &domain.FinAccountTran{
		FinAccountTranID: uuid.NewString(),
		OrganizationID:   suite.organizationID,
		TranType:         domain.FinTranDeposit,
		Amount:           decimal.RequireFromString(amount),
	}
}

func (suite *ReconciliationServiceTestSuite) TestMatchEntry_RematchSameReconciliationIsNoOp() {
	ctx := context.Background()
	reconciliation := suite.openReconciliation()
	finTran := suite.depositOf("40.00")
	target := domain.MatchTarget{FinAccountTran: &finTran.FinAccountTranID}

	suite.mockReconRepo.On("FindReconciliationByID", ctx, reconciliation.ReconciliationID).Return(reconciliation, nil).Twice()
	suite.mockFinRepo.On("FindFinAccountTranByID", ctx, finTran.FinAccountTranID).Return(finTran, nil).Twice()
	suite.mockReconRepo.On("AttachEntry", ctx, mock.Anything).Return(nil).Twice()

	suite.Require().NoError(suite.service.MatchEntry(ctx, suite.organizationID, reconciliation.ReconciliationID, target, suite.userID))
	suite.Require().NoError(suite.service.MatchEntry(ctx, suite.organizationID, reconciliation.ReconciliationID, target, suite.userID))
	suite.mockReconRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestMatchEntry_ExclusiveAcrossOpenReconciliations() {
	ctx := context.Background()
	first := suite.openReconciliation()
	second := suite.openReconciliation()
	finTran := suite.depositOf("40.00")
	target := domain.MatchTarget{FinAccountTran: &finTran.FinAccountTranID}

	suite.mockReconRepo.On("FindReconciliationByID", ctx, first.ReconciliationID).Return(first, nil).Once()
	suite.mockReconRepo.On("FindReconciliationByID", ctx, second.ReconciliationID).Return(second, nil).Once()
	suite.mockFinRepo.On("FindFinAccountTranByID", ctx, finTran.FinAccountTranID).Return(finTran, nil).Twice()
	suite.mockReconRepo.On("AttachEntry", ctx, mock.Anything).Return(nil).Twice()

	suite.Require().NoError(suite.service.MatchEntry(ctx, suite.organizationID, first.ReconciliationID, target, suite.userID))

	err := suite.service.MatchEntry(ctx, suite.organizationID, second.ReconciliationID, target, suite.userID)

	suite.Require().ErrorIs(err, services.ErrAlreadyReconciling)
}

func (suite *ReconciliationServiceTestSuite) TestMatchEntry_RematchableAfterClose() {
	ctx := context.Background()
	first := suite.openReconciliation(domain.GlReconciliationEntry{
		SignedAmount: decimal.RequireFromString("40.00"),
	})
	second := suite.openReconciliation()
	finTran := suite.depositOf("40.00")
	target := domain.MatchTarget{FinAccountTran: &finTran.FinAccountTranID}

	suite.mockReconRepo.On("FindReconciliationByID", ctx, first.ReconciliationID).Return(first, nil).Twice()
	suite.mockReconRepo.On("FindReconciliationByID", ctx, second.ReconciliationID).Return(second, nil).Once()
	suite.mockFinRepo.On("FindFinAccountTranByID", ctx, finTran.FinAccountTranID).Return(finTran, nil).Twice()
	suite.mockReconRepo.On("AttachEntry", ctx, mock.Anything).Return(nil).Twice()
	suite.mockChartSvc.On("ResolveAccount", ctx, suite.organizationID, suite.bankAccount.AccountID).Return(&suite.bankAccount, nil).Once()
	suite.mockCurrencySvc.On("GetCurrencyByCode", ctx, "USD").Return(&suite.usd, nil).Once()
	suite.mockReconRepo.On("CloseReconciliation", ctx, first.ReconciliationID, mock.Anything, mock.AnythingOfType("time.Time"), suite.userID).Return(nil).Once()

	suite.Require().NoError(suite.service.MatchEntry(ctx, suite.organizationID, first.ReconciliationID, target, suite.userID))

	_, err := suite.service.CloseReconciliation(ctx, suite.organizationID, first.ReconciliationID, decimal.RequireFromString("40.00"), suite.userID)
	suite.Require().NoError(err)

	suite.Require().NoError(suite.service.MatchEntry(ctx, suite.organizationID, second.ReconciliationID, target, suite.userID))
	suite.mockReconRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestMatchEntry_RematchableAfterAbandon() {
	ctx := context.Background()
	first := suite.openReconciliation()
	second := suite.openReconciliation()
	finTran := suite.depositOf("40.00")
	target := domain.MatchTarget{FinAccountTran: &finTran.FinAccountTranID}

	suite.mockReconRepo.On("FindReconciliationByID", ctx, first.ReconciliationID).Return(first, nil).Twice()
	suite.mockReconRepo.On("FindReconciliationByID", ctx, second.ReconciliationID).Return(second, nil).Once()
	suite.mockFinRepo.On("FindFinAccountTranByID", ctx, finTran.FinAccountTranID).Return(finTran, nil).Twice()
	suite.mockReconRepo.On("AttachEntry", ctx, mock.Anything).Return(nil).Twice()
	suite.mockReconRepo.On("AbandonReconciliation", ctx, first.ReconciliationID, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	suite.Require().NoError(suite.service.MatchEntry(ctx, suite.organizationID, first.ReconciliationID, target, suite.userID))
	suite.Require().NoError(suite.service.AbandonReconciliation(ctx, suite.organizationID, first.ReconciliationID, suite.userID))
	suite.Require().NoError(suite.service.MatchEntry(ctx, suite.organizationID, second.ReconciliationID, target, suite.userID))
	suite.mockReconRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestMatchEntry_MissingEntryNotFound() {
	ctx := context.Background()
	reconciliation := suite.openReconciliation()
	ref := domain.EntryRef{AcctgTranID: uuid.NewString(), SequenceID: 7}

	suite.mockReconRepo.On("FindReconciliationByID", ctx, reconciliation.ReconciliationID).Return(reconciliation, nil).Once()
	suite.mockTranRepo.On("FindEntryByRef", ctx, ref).Return(nil, apperrors.ErrNotFound).Once()

	err := suite.service.MatchEntry(ctx, suite.organizationID, reconciliation.ReconciliationID, domain.MatchTarget{Entry: &ref}, suite.userID)

	suite.Require().ErrorIs(err, services.ErrEntryNotFound)
	suite.mockReconRepo.AssertNotCalled(suite.T(), "AttachEntry", mock.Anything, mock.Anything)
}

func (suite *ReconciliationServiceTestSuite) TestMatchEntry_RequiresExactlyOneTarget() {
	ctx := context.Background()
	ref := domain.EntryRef{AcctgTranID: uuid.NewString(), SequenceID: 1}
	finTranID := uuid.NewString()

	err := suite.service.MatchEntry(ctx, suite.organizationID, uuid.NewString(), domain.MatchTarget{}, suite.userID)
	suite.Require().ErrorIs(err, services.ErrExactlyOneTarget)

	err = suite.service.MatchEntry(ctx, suite.organizationID, uuid.NewString(), domain.MatchTarget{Entry: &ref, FinAccountTran: &finTranID}, suite.userID)
	suite.Require().ErrorIs(err, services.ErrExactlyOneTarget)
}

func (suite *ReconciliationServiceTestSuite) TestMatchEntry_ClosedReconciliationRejected() {
	ctx := context.Background()
	reconciliation := suite.openReconciliation()
	reconciliation.Status = domain.ReconciliationClosed
	ref := domain.EntryRef{AcctgTranID: uuid.NewString(), SequenceID: 1}

	suite.mockReconRepo.On("FindReconciliationByID", ctx, reconciliation.ReconciliationID).Return(reconciliation, nil).Once()

	err := suite.service.MatchEntry(ctx, suite.organizationID, reconciliation.ReconciliationID, domain.MatchTarget{Entry: &ref}, suite.userID)

	suite.Require().ErrorIs(err, services.ErrReconciliationNotOpen)
}

func (suite *ReconciliationServiceTestSuite) TestCloseReconciliation_BalancedSucceeds() {
	ctx := context.Background()
	reconciliation := suite.openReconciliation(domain.GlReconciliationEntry{
		SignedAmount: decimal.RequireFromString("100.00"),
	})

	suite.mockReconRepo.On("FindReconciliationByID", ctx, reconciliation.ReconciliationID).Return(reconciliation, nil).Once()
	suite.mockChartSvc.On("ResolveAccount", ctx, suite.organizationID, suite.bankAccount.AccountID).Return(&suite.bankAccount, nil).Once()
	suite.mockCurrencySvc.On("GetCurrencyByCode", ctx, "USD").Return(&suite.usd, nil).Once()
	suite.mockReconRepo.On("CloseReconciliation", ctx, reconciliation.ReconciliationID, mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.RequireFromString("100.00"))
	}), mock.AnythingOfType("time.Time"), suite.userID).Return(nil).Once()

	closed, err := suite.service.CloseReconciliation(ctx, suite.organizationID, reconciliation.ReconciliationID, decimal.RequireFromString("100.00"), suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.ReconciliationClosed, closed.Status)
	suite.Require().NotNil(closed.ReconciledBalance)
	suite.True(closed.ReconciledBalance.Equal(decimal.RequireFromString("100.00")))
	suite.mockReconRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestCloseReconciliation_MismatchStaysOpen() {
	ctx := context.Background()
	reconciliation := suite.openReconciliation(domain.GlReconciliationEntry{
		SignedAmount: decimal.RequireFromString("100.00"),
	})

	suite.mockReconRepo.On("FindReconciliationByID", ctx, reconciliation.ReconciliationID).Return(reconciliation, nil).Once()
	suite.mockChartSvc.On("ResolveAccount", ctx, suite.organizationID, suite.bankAccount.AccountID).Return(&suite.bankAccount, nil).Once()
	suite.mockCurrencySvc.On("GetCurrencyByCode", ctx, "USD").Return(&suite.usd, nil).Once()

	_, err := suite.service.CloseReconciliation(ctx, suite.organizationID, reconciliation.ReconciliationID, decimal.RequireFromString("90.00"), suite.userID)

	suite.Require().Error(err)
	var mismatch *services.BalanceMismatchError
	suite.Require().ErrorAs(err, &mismatch)
	suite.True(mismatch.Expected.Equal(decimal.RequireFromString("90.00")))
	suite.True(mismatch.Actual.Equal(decimal.RequireFromString("100.00")))
	suite.Equal(domain.ReconciliationOpen, reconciliation.Status)
	suite.mockReconRepo.AssertNotCalled(suite.T(), "CloseReconciliation", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReconciliationServiceTestSuite) TestCloseReconciliation_AlreadyClosed() {
	ctx := context.Background()
	reconciliation := suite.openReconciliation()
	reconciliation.Status = domain.ReconciliationClosed

	suite.mockReconRepo.On("FindReconciliationByID", ctx, reconciliation.ReconciliationID).Return(reconciliation, nil).Once()

	_, err := suite.service.CloseReconciliation(ctx, suite.organizationID, reconciliation.ReconciliationID, decimal.Zero, suite.userID)

	suite.Require().ErrorIs(err, services.ErrReconciliationNotOpen)
}

func (suite *ReconciliationServiceTestSuite) TestAbandonReconciliation_Success() {
	ctx := context.Background()
	reconciliation := suite.openReconciliation()

	suite.mockReconRepo.On("FindReconciliationByID", ctx, reconciliation.ReconciliationID).Return(reconciliation, nil).Once()
	suite.mockReconRepo.On("AbandonReconciliation", ctx, reconciliation.ReconciliationID, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.service.AbandonReconciliation(ctx, suite.organizationID, reconciliation.ReconciliationID, suite.userID)

	suite.Require().NoError(err)
	suite.mockReconRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestGetReconciliation_OtherOrganizationInvisible() {
	ctx := context.Background()
	reconciliation := suite.openReconciliation()
	reconciliation.OrganizationID = uuid.NewString()

	suite.mockReconRepo.On("FindReconciliationByID", ctx, reconciliation.ReconciliationID).Return(reconciliation, nil).Once()

	_, err := suite.service.GetReconciliation(ctx, suite.organizationID, reconciliation.ReconciliationID)

	suite.Require().ErrorIs(err, services.ErrReconciliationNotFound)
}

func TestReconciliationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReconciliationServiceTestSuite))
}
