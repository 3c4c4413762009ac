package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/ledgerforge/gl_ledger_app/internal/core/ports/repositories"
	"github.com/ledgerforge/gl_ledger_app/internal/core/services"
)

// RepositoryContainer bundles the Postgres repositories behind the provider
// interface the service layer is wired from.
type RepositoryContainer struct {
	accountRepo      portsrepo.GlAccountRepositoryFacade
	acctgTranRepo    portsrepo.AcctgTranRepositoryWithTx
	reconRepo        portsrepo.GlReconciliationRepositoryFacade
	finAccountRepo   portsrepo.FinAccountTranRepository
	currencyRepo     portsrepo.CurrencyRepository
	exchangeRateRepo portsrepo.ExchangeRateRepository
	apiTokenRepo     portsrepo.APITokenRepository
}

var _ services.RepositoryProvider = (*RepositoryContainer)(nil)

// NewRepositoryContainer creates all Postgres repositories over one pool.
func NewRepositoryContainer(dbPool *pgxpool.Pool) *RepositoryContainer {
	return &RepositoryContainer{
		accountRepo:      newPgxGlAccountRepository(dbPool),
		acctgTranRepo:    newPgxAcctgTranRepository(dbPool),
		reconRepo:        newPgxGlReconciliationRepository(dbPool),
		finAccountRepo:   newPgxFinAccountTranRepository(dbPool),
		currencyRepo:     newPgxCurrencyRepository(dbPool),
		exchangeRateRepo: newPgxExchangeRateRepository(dbPool),
		apiTokenRepo:     newPgxAPITokenRepository(dbPool),
	}
}

func (c *RepositoryContainer) GlAccountRepository() portsrepo.GlAccountRepositoryFacade {
	return c.accountRepo
}

func (c *RepositoryContainer) AcctgTranRepository() portsrepo.AcctgTranRepositoryWithTx {
	return c.acctgTranRepo
}

func (c *RepositoryContainer) GlReconciliationRepository() portsrepo.GlReconciliationRepositoryFacade {
	return c.reconRepo
}

func (c *RepositoryContainer) FinAccountTranRepository() portsrepo.FinAccountTranRepository {
	return c.finAccountRepo
}

func (c *RepositoryContainer) CurrencyRepository() portsrepo.CurrencyRepository {
	return c.currencyRepo
}

func (c *RepositoryContainer) ExchangeRateRepository() portsrepo.ExchangeRateRepository {
	return c.exchangeRateRepo
}

func (c *RepositoryContainer) APITokenRepository() portsrepo.APITokenRepository {
	return c.apiTokenRepo
}
