package repositories

import (
	"context"
	"time"

	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// GlReconciliationReader defines read operations for reconciliations.
type GlReconciliationReader interface {
	// FindReconciliationByID retrieves a reconciliation with its matched entries.
	FindReconciliationByID(ctx context.Context, reconciliationID string) (*domain.GlReconciliation, error)

	// ListReconciliationsByAccount retrieves reconciliations for an account,
	// newest first.
	ListReconciliationsByAccount(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.GlReconciliation, *string, error)
}

// GlReconciliationWriter defines write operations for reconciliations.
type GlReconciliationWriter interface {
	// SaveReconciliation persists a new open reconciliation.
	SaveReconciliation(ctx context.Context, reconciliation domain.GlReconciliation) error

	// AttachEntry records a match. Attaching the same target to the same
	// reconciliation again is a no-op. Attaching a target already held by a
	// different open reconciliation fails with apperrors.ErrConflict, enforced
	// by a partial unique index rather than account-level locking.
	AttachEntry(ctx context.Context, entry domain.GlReconciliationEntry) error

	// CloseReconciliation atomically transitions OPEN -> CLOSED, records the
	// reconciled balance and date, and marks matched ledger entries RECONCILED.
	CloseReconciliation(ctx context.Context, reconciliationID string, reconciledBalance decimal.Decimal, reconciledAt time.Time, userID string) error

	// AbandonReconciliation atomically transitions OPEN -> ABANDONED and
	// releases matched entries for re-matching.
	AbandonReconciliation(ctx context.Context, reconciliationID string, userID string, now time.Time) error
}

// GlReconciliationRepositoryFacade combines reconciliation repository interfaces.
type GlReconciliationRepositoryFacade interface {
	GlReconciliationReader
	GlReconciliationWriter
}
