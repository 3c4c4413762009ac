package services_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/ledgerforge/gl_ledger_app/internal/apperrors"
	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	portsrepo "github.com/ledgerforge/gl_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/ledgerforge/gl_ledger_app/internal/core/ports/services"
	"github.com/ledgerforge/gl_ledger_app/internal/dto"
)

// --- Mock GlAccountRepository ---

type MockGlAccountRepository struct {
	mock.Mock
}

var _ portsrepo.GlAccountRepositoryFacade = (*MockGlAccountRepository)(nil)

func (m *MockGlAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.GlAccount, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GlAccount), args.Error(1)
}

func (m *MockGlAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.GlAccount, error) {
	args := m.Called(ctx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.GlAccount), args.Error(1)
}

func (m *MockGlAccountRepository) ListAccounts(ctx context.Context, organizationID string, limit int, offset int) ([]domain.GlAccount, error) {
	args := m.Called(ctx, organizationID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.GlAccount), args.Error(1)
}

func (m *MockGlAccountRepository) FindAccountTypeByID(ctx context.Context, typeID string) (*domain.GlAccountType, error) {
	args := m.Called(ctx, typeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GlAccountType), args.Error(1)
}

func (m *MockGlAccountRepository) SaveAccount(ctx context.Context, account domain.GlAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockGlAccountRepository) UpdateAccount(ctx context.Context, account domain.GlAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockGlAccountRepository) DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	args := m.Called(ctx, accountID, userID, now)
	return args.Error(0)
}

// --- Mock AcctgTranRepository ---

type MockAcctgTranRepository struct {
	mock.Mock
}

var _ portsrepo.AcctgTranRepositoryWithTx = (*MockAcctgTranRepository)(nil)

func (m *MockAcctgTranRepository) FindTranByID(ctx context.Context, tranID string) (*domain.AcctgTran, error) {
	args := m.Called(ctx, tranID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AcctgTran), args.Error(1)
}

func (m *MockAcctgTranRepository) FindEntryByRef(ctx context.Context, ref domain.EntryRef) (*domain.AcctgTransEntry, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AcctgTransEntry), args.Error(1)
}

func (m *MockAcctgTranRepository) ListTransByOrganization(ctx context.Context, organizationID string, limit int, nextToken *string) ([]domain.AcctgTran, *string, error) {
	args := m.Called(ctx, organizationID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedToken = &tokenVal
	}
	return args.Get(0).([]domain.AcctgTran), returnedToken, args.Error(2)
}

func (m *MockAcctgTranRepository) ListEntriesByAccountID(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.AcctgTransEntry, *string, error) {
	args := m.Called(ctx, accountID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedToken = &tokenVal
	}
	return args.Get(0).([]domain.AcctgTransEntry), returnedToken, args.Error(2)
}

func (m *MockAcctgTranRepository) SumPostedByAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return decimal.Zero, args.Error(1)
	}
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockAcctgTranRepository) SaveDraft(ctx context.Context, tran domain.AcctgTran) error {
	args := m.Called(ctx, tran)
	return args.Error(0)
}

func (m *MockAcctgTranRepository) AppendEntry(ctx context.Context, tranID string, entry domain.AcctgTransEntry) (*domain.AcctgTransEntry, error) {
	args := m.Called(ctx, tranID, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AcctgTransEntry), args.Error(1)
}

// PostTransaction replays the repository contract in memory: it runs the
// validation callback against the stored transaction and, on success, flips
// the status the way the database CAS would.
func (m *MockAcctgTranRepository) PostTransaction(ctx context.Context, tranID string, postedAt time.Time, userID string, validate func(tran *domain.AcctgTran) error) (*domain.AcctgTran, error) {
	args := m.Called(ctx, tranID, postedAt, userID, validate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	tran := args.Get(0).(*domain.AcctgTran)
	if validate != nil {
		if err := validate(tran); err != nil {
			return nil, err
		}
	}
	if err := tran.MarkPosted(postedAt); err != nil {
		return nil, err
	}
	return tran, args.Error(1)
}

func (m *MockAcctgTranRepository) SaveReversal(ctx context.Context, reversal domain.AcctgTran) error {
	args := m.Called(ctx, reversal)
	return args.Error(0)
}

func (m *MockAcctgTranRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockAcctgTranRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockAcctgTranRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// --- Mock GlReconciliationRepository ---

// MockGlReconciliationRepository replays the open-holder bookkeeping the
// database enforces with its partial unique indexes: attaching a target held
// by the same reconciliation is a no-op, one held by a different open
// reconciliation conflicts, and close/abandon release every hold.
type MockGlReconciliationRepository struct {
	mock.Mock
	openHolders map[string]string
}

func matchTargetKey(entry domain.GlReconciliationEntry) string {
	if entry.EntryRef != nil {
		return fmt.Sprintf("entry:%s/%d", entry.EntryRef.AcctgTranID, entry.EntryRef.SequenceID)
	}
	return "fin:" + *entry.FinAccountTranID
}

func (m *MockGlReconciliationRepository) releaseHolds(reconciliationID string) {
	for key, holder := range m.openHolders {
		if holder == reconciliationID {
			delete(m.openHolders, key)
		}
	}
}

var _ portsrepo.GlReconciliationRepositoryFacade = (*MockGlReconciliationRepository)(nil)

func (m *MockGlReconciliationRepository) FindReconciliationByID(ctx context.Context, reconciliationID string) (*domain.GlReconciliation, error) {
	args := m.Called(ctx, reconciliationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GlReconciliation), args.Error(1)
}

func (m *MockGlReconciliationRepository) ListReconciliationsByAccount(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.GlReconciliation, *string, error) {
	args := m.Called(ctx, accountID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedToken = &tokenVal
	}
	return args.Get(0).([]domain.GlReconciliation), returnedToken, args.Error(2)
}

func (m *MockGlReconciliationRepository) SaveReconciliation(ctx context.Context, reconciliation domain.GlReconciliation) error {
	args := m.Called(ctx, reconciliation)
	return args.Error(0)
}

func (m *MockGlReconciliationRepository) AttachEntry(ctx context.Context, entry domain.GlReconciliationEntry) error {
	args := m.Called(ctx, entry)
	if err := args.Error(0); err != nil {
		return err
	}
	if m.openHolders == nil {
		m.openHolders = make(map[string]string)
	}
	key := matchTargetKey(entry)
	if holder, held := m.openHolders[key]; held {
		if holder == entry.ReconciliationID {
			return nil
		}
		return fmt.Errorf("%w: target already held by open reconciliation %s", apperrors.ErrConflict, holder)
	}
	m.openHolders[key] = entry.ReconciliationID
	return nil
}

func (m *MockGlReconciliationRepository) CloseReconciliation(ctx context.Context, reconciliationID string, reconciledBalance decimal.Decimal, reconciledAt time.Time, userID string) error {
	args := m.Called(ctx, reconciliationID, reconciledBalance, reconciledAt, userID)
	if err := args.Error(0); err != nil {
		return err
	}
	m.releaseHolds(reconciliationID)
	return nil
}

func (m *MockGlReconciliationRepository) AbandonReconciliation(ctx context.Context, reconciliationID string, userID string, now time.Time) error {
	args := m.Called(ctx, reconciliationID, userID, now)
	if err := args.Error(0); err != nil {
		return err
	}
	m.releaseHolds(reconciliationID)
	return nil
}

// --- Mock FinAccountTranRepository ---

type MockFinAccountTranRepository struct {
	mock.Mock
}

var _ portsrepo.FinAccountTranRepository = (*MockFinAccountTranRepository)(nil)

func (m *MockFinAccountTranRepository) SaveFinAccountTran(ctx context.Context, tran domain.FinAccountTran) error {
	args := m.Called(ctx, tran)
	return args.Error(0)
}

func (m *MockFinAccountTranRepository) FindFinAccountTranByID(ctx context.Context, finAccountTranID string) (*domain.FinAccountTran, error) {
	args := m.Called(ctx, finAccountTranID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FinAccountTran), args.Error(1)
}

func (m *MockFinAccountTranRepository) ListFinAccountTrans(ctx context.Context, finAccountID string, limit int, nextToken *string) ([]domain.FinAccountTran, *string, error) {
	args := m.Called(ctx, finAccountID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedToken = &tokenVal
	}
	return args.Get(0).([]domain.FinAccountTran), returnedToken, args.Error(2)
}

func (m *MockFinAccountTranRepository) LinkAcctgTran(ctx context.Context, finAccountTranID string, acctgTranID string, userID string, now time.Time) error {
	args := m.Called(ctx, finAccountTranID, acctgTranID, userID, now)
	return args.Error(0)
}

// --- Mock CurrencyRepository ---

type MockCurrencyRepository struct {
	mock.Mock
}

var _ portsrepo.CurrencyRepository = (*MockCurrencyRepository)(nil)

func (m *MockCurrencyRepository) SaveCurrency(ctx context.Context, currency domain.Currency) error {
	args := m.Called(ctx, currency)
	return args.Error(0)
}

func (m *MockCurrencyRepository) FindCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Currency), args.Error(1)
}

func (m *MockCurrencyRepository) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Currency), args.Error(1)
}

// --- Mock ExchangeRateRepository ---

type MockExchangeRateRepository struct {
	mock.Mock
}

var _ portsrepo.ExchangeRateRepository = (*MockExchangeRateRepository)(nil)

func (m *MockExchangeRateRepository) SaveExchangeRate(ctx context.Context, rate domain.ExchangeRate) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

func (m *MockExchangeRateRepository) FindRateAsOf(ctx context.Context, fromCode, toCode string, asOf time.Time) (*domain.ExchangeRate, error) {
	args := m.Called(ctx, fromCode, toCode, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeRate), args.Error(1)
}

// --- Mock APITokenRepository ---

type MockAPITokenRepository struct {
	mock.Mock
}

var _ portsrepo.APITokenRepository = (*MockAPITokenRepository)(nil)

func (m *MockAPITokenRepository) Create(ctx context.Context, token *domain.APIToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockAPITokenRepository) FindByID(ctx context.Context, id string) (*domain.APIToken, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIToken), args.Error(1)
}

func (m *MockAPITokenRepository) List(ctx context.Context) ([]domain.APIToken, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.APIToken), args.Error(1)
}

func (m *MockAPITokenRepository) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockAPITokenRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAPITokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock ChartSvc ---

type MockChartSvc struct {
	mock.Mock
}

var _ portssvc.ChartSvcFacade = (*MockChartSvc)(nil)

func (m *MockChartSvc) ResolveAccount(ctx context.Context, organizationID string, accountID string) (*domain.GlAccount, error) {
	args := m.Called(ctx, organizationID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GlAccount), args.Error(1)
}

func (m *MockChartSvc) ResolveAccounts(ctx context.Context, organizationID string, accountIDs []string) (map[string]domain.GlAccount, error) {
	args := m.Called(ctx, organizationID, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.GlAccount), args.Error(1)
}

func (m *MockChartSvc) AncestorsOf(ctx context.Context, accountID string) ([]domain.GlAccount, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.GlAccount), args.Error(1)
}

func (m *MockChartSvc) ListAccounts(ctx context.Context, organizationID string, limit int, offset int) ([]domain.GlAccount, error) {
	args := m.Called(ctx, organizationID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.GlAccount), args.Error(1)
}

func (m *MockChartSvc) DerivedBalance(ctx context.Context, organizationID string, accountID string) (decimal.Decimal, error) {
	args := m.Called(ctx, organizationID, accountID)
	if args.Get(0) == nil {
		return decimal.Zero, args.Error(1)
	}
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockChartSvc) CreateAccount(ctx context.Context, organizationID string, req dto.CreateAccountRequest, userID string) (*domain.GlAccount, error) {
	args := m.Called(ctx, organizationID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GlAccount), args.Error(1)
}

func (m *MockChartSvc) UpdateAccount(ctx context.Context, organizationID string, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.GlAccount, error) {
	args := m.Called(ctx, organizationID, accountID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GlAccount), args.Error(1)
}

func (m *MockChartSvc) DeactivateAccount(ctx context.Context, organizationID string, accountID string, userID string) error {
	args := m.Called(ctx, organizationID, accountID, userID)
	return args.Error(0)
}

func (m *MockChartSvc) ConventionWarning(account *domain.GlAccount, side domain.EntrySide) string {
	args := m.Called(account, side)
	return args.String(0)
}

// --- Mock CurrencySvc ---

type MockCurrencySvc struct {
	mock.Mock
}

var _ portssvc.CurrencySvcFacade = (*MockCurrencySvc)(nil)

func (m *MockCurrencySvc) CreateCurrency(ctx context.Context, req dto.CreateCurrencyRequest, userID string) (*domain.Currency, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Currency), args.Error(1)
}

func (m *MockCurrencySvc) GetCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Currency), args.Error(1)
}

func (m *MockCurrencySvc) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Currency), args.Error(1)
}

// --- Mock ExchangeRateSvc ---

type MockExchangeRateSvc struct {
	mock.Mock
}

var _ portssvc.ExchangeRateSvcFacade = (*MockExchangeRateSvc)(nil)

func (m *MockExchangeRateSvc) CreateExchangeRate(ctx context.Context, req dto.CreateExchangeRateRequest, userID string) (*domain.ExchangeRate, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeRate), args.Error(1)
}

func (m *MockExchangeRateSvc) RateAsOf(ctx context.Context, fromCode, toCode string, asOf time.Time) (*domain.ExchangeRate, error) {
	args := m.Called(ctx, fromCode, toCode, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeRate), args.Error(1)
}
