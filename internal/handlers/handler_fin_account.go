package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/ledgerforge/gl_ledger_app/internal/core/ports/services"
	"github.com/ledgerforge/gl_ledger_app/internal/core/services"
	"github.com/ledgerforge/gl_ledger_app/internal/dto"
	"github.com/ledgerforge/gl_ledger_app/internal/middleware"
)

// finAccountHandler handles HTTP requests for external financial-account
// movements, the statement side of reconciliation.
type finAccountHandler struct {
	finAccountService portssvc.FinAccountSvcFacade
}

// registerFinAccountRoutes registers fin-account routes within an organization.
func registerFinAccountRoutes(rg *gin.RouterGroup, finSvc portssvc.FinAccountSvcFacade) {
	h := &finAccountHandler{finAccountService: finSvc}

	finAccounts := rg.Group("/fin-accounts")
	{
		finAccounts.GET("/:fin_account_id/transactions", h.listFinAccountTrans)
	}

	finTrans := rg.Group("/fin-account-transactions")
	{
		finTrans.POST("", h.importFinAccountTran)
		finTrans.GET("/:fin_account_tran_id", h.getFinAccountTran)
		finTrans.POST("/:fin_account_tran_id/link", h.linkAcctgTran)
	}
}

// importFinAccountTran godoc
// @Summary Import a statement movement
// @Description Records one external financial-account movement (deposit, withdrawal or adjustment)
// @Tags fin-accounts
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   movement body dto.ImportFinAccountTranRequest true "Movement details"
// @Success 201 {object} dto.FinAccountTranResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to import movement"
// @Security BearerAuth
// @Router /organizations/{organization_id}/fin-account-transactions [post]
func (h *finAccountHandler) importFinAccountTran(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organization_id")

	var req dto.ImportFinAccountTranRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ImportFinAccountTran", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	callerID, ok := middleware.GetCallerIDFromContext(c)
	if !ok {
		logger.Error("Caller ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("organization_id", organizationID), slog.String("fin_account_id", req.FinAccountID))

	tran, err := h.finAccountService.ImportTran(c.Request.Context(), organizationID, req, callerID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrFinTranAmountSign), errors.Is(err, services.ErrCurrencyNotFound):
			logger.Warn("Validation error importing movement", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			respondServerError(c, logger, "Failed to import movement", err)
		}
		return
	}

	logger.Info("Movement imported", slog.String("fin_account_tran_id", tran.FinAccountTranID))
	c.JSON(http.StatusCreated, dto.ToFinAccountTranResponse(tran))
}

// getFinAccountTran godoc
// @Summary Get a statement movement by ID
// @Description Retrieves one external financial-account movement
// @Tags fin-accounts
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   fin_account_tran_id path string true "Movement ID"
// @Success 200 {object} dto.FinAccountTranResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Movement not found"
// @Failure 500 {object} map[string]string "Failed to retrieve movement"
// @Security BearerAuth
// @Router /organizations/{organization_id}/fin-account-transactions/{fin_account_tran_id} [get]
func (h *finAccountHandler) getFinAccountTran(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organization_id")
	finAccountTranID := c.Param("fin_account_tran_id")

	tran, err := h.finAccountService.GetTran(c.Request.Context(), organizationID, finAccountTranID)
	if err != nil {
		if errors.Is(err, services.ErrFinTranNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Movement not found"})
		} else {
			respondServerError(c, logger, "Failed to retrieve movement", err)
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToFinAccountTranResponse(tran))
}

// listFinAccountTrans godoc
// @Summary List movements of a financial account
// @Description Retrieves a token-paginated list of statement movements, newest first
// @Tags fin-accounts
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   fin_account_id path string true "Financial account ID"
// @Param   limit query int false "Limit number of results" default(20)
// @Param   nextToken query string false "Pagination token"
// @Success 200 {object} dto.ListFinAccountTransResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list movements"
// @Security BearerAuth
// @Router /organizations/{organization_id}/fin-accounts/{fin_account_id}/transactions [get]
func (h *finAccountHandler) listFinAccountTrans(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organization_id")
	finAccountID := c.Param("fin_account_id")

	var params dto.ListFinAccountTransParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListFinAccountTrans", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.finAccountService.ListTrans(c.Request.Context(), organizationID, finAccountID, params)
	if err != nil {
		respondServerError(c, logger, "Failed to list movements", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// linkAcctgTran godoc
// @Summary Link a posted ledger transaction to a movement
// @Description Records the posted ledger transaction that books this statement movement
// @Tags fin-accounts
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   fin_account_tran_id path string true "Movement ID"
// @Param   link body dto.LinkAcctgTranRequest true "Ledger transaction to link"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Movement or transaction not found"
// @Failure 422 {object} map[string]string "Transaction not posted"
// @Failure 500 {object} map[string]string "Failed to link transaction"
// @Security BearerAuth
// @Router /organizations/{organization_id}/fin-account-transactions/{fin_account_tran_id}/link [post]
func (h *finAccountHandler) linkAcctgTran(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organization_id")
	finAccountTranID := c.Param("fin_account_tran_id")

	var req dto.LinkAcctgTranRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for LinkAcctgTran", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	callerID, ok := middleware.GetCallerIDFromContext(c)
	if !ok {
		logger.Error("Caller ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("fin_account_tran_id", finAccountTranID), slog.String("acctg_tran_id", req.AcctgTranID))

	err := h.finAccountService.LinkAcctgTran(c.Request.Context(), organizationID, finAccountTranID, req.AcctgTranID, callerID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrFinTranNotFound), errors.Is(err, services.ErrTranNotFound):
			logger.Warn("Link target not found", slog.String("error", err.Error()))
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrLinkTranNotPosted):
			logger.Warn("Transaction not posted for link")
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			respondServerError(c, logger, "Failed to link transaction", err)
		}
		return
	}

	logger.Info("Movement linked to ledger transaction")
	c.Status(http.StatusNoContent)
}
