package services

import (
	"context"

	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	"github.com/ledgerforge/gl_ledger_app/internal/dto"
	"github.com/shopspring/decimal"
)

// ReconciliationSvcFacade matches posted entries against external statements.
type ReconciliationSvcFacade interface {
	// OpenReconciliation starts an OPEN reconciliation for one account.
	OpenReconciliation(ctx context.Context, organizationID string, req dto.OpenReconciliationRequest, userID string) (*domain.GlReconciliation, error)

	// MatchEntry attaches a posted ledger entry or a fin-account transaction
	// to an open reconciliation. Matching the same target twice to the same
	// reconciliation is a no-op.
	MatchEntry(ctx context.Context, organizationID string, reconciliationID string, target domain.MatchTarget, userID string) error

	// CloseReconciliation succeeds iff openingBalance plus the sum of matched
	// signed amounts equals the statement ending balance within tolerance;
	// otherwise the reconciliation stays OPEN.
	CloseReconciliation(ctx context.Context, organizationID string, reconciliationID string, statementEndingBalance decimal.Decimal, userID string) (*domain.GlReconciliation, error)

	// AbandonReconciliation terminates an open reconciliation and releases
	// its entries for re-matching.
	AbandonReconciliation(ctx context.Context, organizationID string, reconciliationID string, userID string) error

	// GetReconciliation retrieves a reconciliation with its matches.
	GetReconciliation(ctx context.Context, organizationID string, reconciliationID string) (*domain.GlReconciliation, error)

	// ListReconciliationsByAccount retrieves reconciliations for one account.
	ListReconciliationsByAccount(ctx context.Context, organizationID string, accountID string, params dto.ListReconciliationsParams) (*dto.ListReconciliationsResponse, error)
}
