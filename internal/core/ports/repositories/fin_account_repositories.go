package repositories

import (
	"context"
	"time"

	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
)

// FinAccountTranRepository defines data access for external financial-account
// movements (the statement side of reconciliation).
type FinAccountTranRepository interface {
	// SaveFinAccountTran persists an imported statement movement.
	SaveFinAccountTran(ctx context.Context, tran domain.FinAccountTran) error

	// FindFinAccountTranByID retrieves one movement.
	FindFinAccountTranByID(ctx context.Context, finAccountTranID string) (*domain.FinAccountTran, error)

	// ListFinAccountTrans retrieves token-paginated movements for one
	// financial account.
	ListFinAccountTrans(ctx context.Context, finAccountID string, limit int, nextToken *string) ([]domain.FinAccountTran, *string, error)

	// LinkAcctgTran records the ledger transaction that books this movement.
	LinkAcctgTran(ctx context.Context, finAccountTranID string, acctgTranID string, userID string, now time.Time) error
}
