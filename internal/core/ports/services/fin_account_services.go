package services

import (
	"context"

	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	"github.com/ledgerforge/gl_ledger_app/internal/dto"
)

// FinAccountSvcFacade manages external financial-account movements, the
// statement side of reconciliation.
type FinAccountSvcFacade interface {
	// ImportTran records one statement movement.
	ImportTran(ctx context.Context, organizationID string, req dto.ImportFinAccountTranRequest, userID string) (*domain.FinAccountTran, error)

	// GetTran retrieves one movement.
	GetTran(ctx context.Context, organizationID string, finAccountTranID string) (*domain.FinAccountTran, error)

	// ListTrans retrieves token-paginated movements for one financial account.
	ListTrans(ctx context.Context, organizationID string, finAccountID string, params dto.ListFinAccountTransParams) (*dto.ListFinAccountTransResponse, error)

	// LinkAcctgTran records the posted ledger transaction booking a movement.
	LinkAcctgTran(ctx context.Context, organizationID string, finAccountTranID string, acctgTranID string, userID string) error
}
