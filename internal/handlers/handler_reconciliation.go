package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledgerforge/gl_ledger_app/internal/core/domain"
	portssvc "github.com/ledgerforge/gl_ledger_app/internal/core/ports/services"
	"github.com/ledgerforge/gl_ledger_app/internal/core/services"
	"github.com/ledgerforge/gl_ledger_app/internal/dto"
	"github.com/ledgerforge/gl_ledger_app/internal/middleware"
)

// reconciliationHandler handles HTTP requests for statement reconciliation.
type reconciliationHandler struct {
	reconciliationService portssvc.ReconciliationSvcFacade
}

// registerReconciliationRoutes registers reconciliation routes within an organization.
func registerReconciliationRoutes(rg *gin.RouterGroup, reconSvc portssvc.ReconciliationSvcFacade) {
	h := &reconciliationHandler{reconciliationService: reconSvc}

	recons := rg.Group("/reconciliations")
	{
		recons.POST("", h.openReconciliation)
		recons.GET("/:reconciliation_id", h.getReconciliation)
		recons.POST("/:reconciliation_id/matches", h.matchEntry)
		recons.POST("/:reconciliation_id/close", h.closeReconciliation)
		recons.POST("/:reconciliation_id/abandon", h.abandonReconciliation)
	}
}

// openReconciliation godoc
// @Summary Open a reconciliation
// @Description Starts an OPEN reconciliation for one account against an external statement
// @Tags reconciliations
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   reconciliation body dto.OpenReconciliationRequest true "Reconciliation details"
// @Success 201 {object} dto.ReconciliationResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to open reconciliation"
// @Security BearerAuth
// @Router /organizations/{organization_id}/reconciliations [post]
func (h *reconciliationHandler) openReconciliation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organization_id")

	var req dto.OpenReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for OpenReconciliation", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	callerID, ok := middleware.GetCallerIDFromContext(c)
	if !ok {
		logger.Error("Caller ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("organization_id", organizationID), slog.String("account_id", req.AccountID))
	logger.Info("Received request to open reconciliation")

	recon, err := h.reconciliationService.OpenReconciliation(c.Request.Context(), organizationID, req, callerID)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			logger.Warn("Account not found for reconciliation")
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		} else {
			respondServerError(c, logger, "Failed to open reconciliation", err)
		}
		return
	}

	logger.Info("Reconciliation opened", slog.String("reconciliation_id", recon.ReconciliationID))
	c.JSON(http.StatusCreated, dto.ToReconciliationResponse(recon))
}

// matchEntry godoc
// @Summary Match a target into a reconciliation
// @Description Attaches a posted ledger entry or a fin-account transaction to an open reconciliation; re-matching the same target is a no-op
// @Tags reconciliations
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   reconciliation_id path string true "Reconciliation ID"
// @Param   match body dto.MatchEntryRequest true "Match target (exactly one of entry ref or fin account tran)"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid target"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Reconciliation or target not found"
// @Failure 409 {object} map[string]string "Target held by another open reconciliation or reconciliation not open"
// @Failure 422 {object} map[string]string "Target not eligible for matching"
// @Failure 500 {object} map[string]string "Failed to match entry"
// @Security BearerAuth
// @Router /organizations/{organization_id}/reconciliations/{reconciliation_id}/matches [post]
func (h *reconciliationHandler) matchEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organization_id")
	reconciliationID := c.Param("reconciliation_id")

	var req dto.MatchEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for MatchEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	callerID, ok := middleware.GetCallerIDFromContext(c)
	if !ok {
		logger.Error("Caller ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	target := domain.MatchTarget{FinAccountTran: req.FinAccountTranID}
	if req.AcctgTranID != nil && req.SequenceID != nil {
		target.Entry = &domain.EntryRef{AcctgTranID: *req.AcctgTranID, SequenceID: *req.SequenceID}
	}

	logger = logger.With(slog.String("reconciliation_id", reconciliationID))

	err := h.reconciliationService.MatchEntry(c.Request.Context(), organizationID, reconciliationID, target, callerID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReconciliationNotFound):
			logger.Warn("Reconciliation not found for match")
			c.JSON(http.StatusNotFound, gin.H{"error": "Reconciliation not found"})
		case errors.Is(err, services.ErrEntryNotFound), errors.Is(err, services.ErrTranNotFound), errors.Is(err, services.ErrFinTranNotFound):
			logger.Warn("Match target not found", slog.String("error", err.Error()))
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrExactlyOneTarget):
			logger.Warn("Invalid match target", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrReconciliationNotOpen), errors.Is(err, services.ErrAlreadyReconciling):
			logger.Warn("Match conflicts with reconciliation state", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrEntryNotPosted), errors.Is(err, services.ErrEntryAccountMismatch):
			logger.Warn("Target not eligible for matching", slog.String("error", err.Error()))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			respondServerError(c, logger, "Failed to match entry", err)
		}
		return
	}

	logger.Info("Target matched successfully")
	c.Status(http.StatusNoContent)
}

// closeReconciliation godoc
// @Summary Close a reconciliation
// @Description Closes the reconciliation iff opening balance plus matched signed amounts equals the statement ending balance within currency tolerance
// @Tags reconciliations
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   reconciliation_id path string true "Reconciliation ID"
// @Param   statement body dto.CloseReconciliationRequest true "Statement ending balance"
// @Success 200 {object} dto.ReconciliationResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Reconciliation not found"
// @Failure 409 {object} map[string]string "Reconciliation not open"
// @Failure 422 {object} map[string]string "Balances do not reconcile"
// @Failure 500 {object} map[string]string "Failed to close reconciliation"
// @Security BearerAuth
// @Router /organizations/{organization_id}/reconciliations/{reconciliation_id}/close [post]
func (h *reconciliationHandler) closeReconciliation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organization_id")
	reconciliationID := c.Param("reconciliation_id")

	var req dto.CloseReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CloseReconciliation", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	callerID, ok := middleware.GetCallerIDFromContext(c)
	if !ok {
		logger.Error("Caller ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("reconciliation_id", reconciliationID))
	logger.Info("Received request to close reconciliation", slog.String("statement_ending_balance", req.StatementEndingBalance.String()))

	recon, err := h.reconciliationService.CloseReconciliation(c.Request.Context(), organizationID, reconciliationID, req.StatementEndingBalance, callerID)
	if err != nil {
		var mismatch *services.BalanceMismatchError
		switch {
		case errors.Is(err, services.ErrReconciliationNotFound):
			logger.Warn("Reconciliation not found for close")
			c.JSON(http.StatusNotFound, gin.H{"error": "Reconciliation not found"})
		case errors.Is(err, services.ErrReconciliationNotOpen):
			logger.Warn("Reconciliation not open for close")
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.As(err, &mismatch):
			logger.Warn("Reconciliation balances do not match",
				slog.String("expected", mismatch.Expected.String()),
				slog.String("actual", mismatch.Actual.String()))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": mismatch.Error()})
		default:
			respondServerError(c, logger, "Failed to close reconciliation", err)
		}
		return
	}

	logger.Info("Reconciliation closed successfully")
	c.JSON(http.StatusOK, dto.ToReconciliationResponse(recon))
}

// abandonReconciliation godoc
// @Summary Abandon a reconciliation
// @Description Terminates an open reconciliation and releases its matched targets for re-matching
// @Tags reconciliations
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   reconciliation_id path string true "Reconciliation ID"
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Reconciliation not found"
// @Failure 409 {object} map[string]string "Reconciliation not open"
// @Failure 500 {object} map[string]string "Failed to abandon reconciliation"
// @Security BearerAuth
// @Router /organizations/{organization_id}/reconciliations/{reconciliation_id}/abandon [post]
func (h *reconciliationHandler) abandonReconciliation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organization_id")
	reconciliationID := c.Param("reconciliation_id")

	callerID, ok := middleware.GetCallerIDFromContext(c)
	if !ok {
		logger.Error("Caller ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("reconciliation_id", reconciliationID))

	err := h.reconciliationService.AbandonReconciliation(c.Request.Context(), organizationID, reconciliationID, callerID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReconciliationNotFound):
			logger.Warn("Reconciliation not found for abandon")
			c.JSON(http.StatusNotFound, gin.H{"error": "Reconciliation not found"})
		case errors.Is(err, services.ErrReconciliationNotOpen):
			logger.Warn("Reconciliation not open for abandon")
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			respondServerError(c, logger, "Failed to abandon reconciliation", err)
		}
		return
	}

	logger.Info("Reconciliation abandoned")
	c.Status(http.StatusNoContent)
}

// getReconciliation godoc
// @Summary Get a reconciliation by ID
// @Description Retrieves a reconciliation with its matched targets
// @Tags reconciliations
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   reconciliation_id path string true "Reconciliation ID"
// @Success 200 {object} dto.ReconciliationResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Reconciliation not found"
// @Failure 500 {object} map[string]string "Failed to retrieve reconciliation"
// @Security BearerAuth
// @Router /organizations/{organization_id}/reconciliations/{reconciliation_id} [get]
func (h *reconciliationHandler) getReconciliation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organization_id")
	reconciliationID := c.Param("reconciliation_id")

	recon, err := h.reconciliationService.GetReconciliation(c.Request.Context(), organizationID, reconciliationID)
	if err != nil {
		if errors.Is(err, services.ErrReconciliationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Reconciliation not found"})
		} else {
			respondServerError(c, logger, "Failed to retrieve reconciliation", err)
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToReconciliationResponse(recon))
}
