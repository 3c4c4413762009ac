package services

import (
	portsrepo "github.com/ledgerforge/gl_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/ledgerforge/gl_ledger_app/internal/core/ports/services"
)

// ServiceContainer holds all service instances for dependency injection.
type ServiceContainer struct {
	Chart          portssvc.ChartSvcFacade
	Ledger         portssvc.LedgerSvcFacade
	Reconciliation portssvc.ReconciliationSvcFacade
	FinAccount     portssvc.FinAccountSvcFacade
	Currency       portssvc.CurrencySvcFacade
	ExchangeRate   portssvc.ExchangeRateSvcFacade
	APIToken       portssvc.APITokenSvc
}

// RepositoryProvider exposes the repositories the services are wired from.
type RepositoryProvider interface {
	GlAccountRepository() portsrepo.GlAccountRepositoryFacade
	AcctgTranRepository() portsrepo.AcctgTranRepositoryWithTx
	GlReconciliationRepository() portsrepo.GlReconciliationRepositoryFacade
	FinAccountTranRepository() portsrepo.FinAccountTranRepository
	CurrencyRepository() portsrepo.CurrencyRepository
	ExchangeRateRepository() portsrepo.ExchangeRateRepository
	APITokenRepository() portsrepo.APITokenRepository
}

// NewServiceContainer wires the full service graph.
func NewServiceContainer(repos RepositoryProvider) *ServiceContainer {
	currencySvc := NewCurrencyService(repos.CurrencyRepository())
	rateSvc := NewExchangeRateService(repos.ExchangeRateRepository(), repos.CurrencyRepository())
	chartSvc := NewChartOfAccountsService(repos.GlAccountRepository(), repos.AcctgTranRepository(), repos.CurrencyRepository())
	ledgerSvc := NewLedgerService(repos.AcctgTranRepository(), chartSvc, currencySvc, rateSvc)
	reconciliationSvc := NewReconciliationService(repos.GlReconciliationRepository(), repos.AcctgTranRepository(), repos.FinAccountTranRepository(), chartSvc, currencySvc)
	finAccountSvc := NewFinAccountService(repos.FinAccountTranRepository(), repos.AcctgTranRepository(), repos.CurrencyRepository())
	apiTokenSvc := NewAPITokenService(repos.APITokenRepository())

	return &ServiceContainer{
		Chart:          chartSvc,
		Ledger:         ledgerSvc,
		Reconciliation: reconciliationSvc,
		FinAccount:     finAccountSvc,
		Currency:       currencySvc,
		ExchangeRate:   rateSvc,
		APIToken:       apiTokenSvc,
	}
}
