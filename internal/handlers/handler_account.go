package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledgerforge/gl_ledger_app/internal/apperrors"
	portssvc "github.com/ledgerforge/gl_ledger_app/internal/core/ports/services"
	"github.com/ledgerforge/gl_ledger_app/internal/core/services"
	"github.com/ledgerforge/gl_ledger_app/internal/dto"
	"github.com/ledgerforge/gl_ledger_app/internal/middleware"
)

// accountHandler handles HTTP requests related to the chart of accounts.
type accountHandler struct {
	chartService          portssvc.ChartSvcFacade
	ledgerService         portssvc.LedgerSvcFacade
	reconciliationService portssvc.ReconciliationSvcFacade
}

// registerAccountRoutes registers routes related to accounts within an organization.
func registerAccountRoutes(rg *gin.RouterGroup, chartSvc portssvc.ChartSvcFacade, ledgerSvc portssvc.LedgerSvcFacade, reconSvc portssvc.ReconciliationSvcFacade) {
	h := &accountHandler{
		chartService:          chartSvc,
		ledgerService:         ledgerSvc,
		reconciliationService: reconSvc,
	}

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.GET("/:account_id", h.getAccount)
		accounts.GET("", h.listAccounts)
		accounts.PUT("/:account_id", h.updateAccount)
		accounts.DELETE("/:account_id", h.deactivateAccount)
		accounts.GET("/:account_id/balance", h.getAccountBalance)
		accounts.GET("/:account_id/ancestors", h.getAccountAncestors)
		accounts.GET("/:account_id/entries", h.listAccountEntries)
		accounts.GET("/:account_id/reconciliations", h.listAccountReconciliations)
	}
}

// createAccount godoc
// @Summary Create a new ledger account
// @Description Creates a new account in the organization's chart of accounts
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   account body dto.CreateAccountRequest true "Account details"
// @Success 201 {object} dto.AccountResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to create account"
// @Security BearerAuth
// @Router /organizations/{organization_id}/accounts [post]
func (h *accountHandler) createAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organization_id")

	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	callerID, ok := middleware.GetCallerIDFromContext(c)
	if !ok {
		logger.Error("Caller ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("organization_id", organizationID))
	logger.Info("Received request to create account", slog.String("account_name", req.Name), slog.String("type_id", req.TypeID))

	newAccount, err := h.chartService.CreateAccount(c.Request.Context(), organizationID, req, callerID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAccountTypeUnknown),
			errors.Is(err, services.ErrParentOtherOrg),
			errors.Is(err, services.ErrParentCycle),
			errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Validation error creating account", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrDuplicate):
			logger.Warn("Duplicate account", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			respondServerError(c, logger, "Failed to create account", err)
		}
		return
	}

	logger.Info("Account created successfully", slog.String("account_id", newAccount.AccountID))
	c.JSON(http.StatusCreated, dto.ToAccountResponse(newAccount))
}

// getAccount godoc
// @Summary Get an account by ID
// @Description Retrieves details for a specific account
// @Tags accounts
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   account_id path string true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to retrieve account"
// @Security BearerAuth
// @Router /organizations/{organization_id}/accounts/{account_id} [get]
func (h *accountHandler) getAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organization_id")
	accountID := c.Param("account_id")

	logger = logger.With(slog.String("target_account_id", accountID))

	account, err := h.chartService.ResolveAccount(c.Request.Context(), organizationID, accountID)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			logger.Warn("Account not found")
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		} else {
			respondServerError(c, logger, "Failed to retrieve account", err)
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// listAccounts godoc
// @Summary List accounts of an organization
// @Description Retrieves the active accounts of the organization's chart of accounts
// @Tags accounts
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   limit query int false "Limit number of results" default(20)
// @Param   offset query int false "Offset for pagination" default(0)
// @Success 200 {object} dto.ListAccountsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list accounts"
// @Security BearerAuth
// @Router /organizations/{organization_id}/accounts [get]
func (h *accountHandler) listAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organization_id")

	var params dto.ListAccountsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListAccounts", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	accounts, err := h.chartService.ListAccounts(c.Request.Context(), organizationID, params.Limit, params.Offset)
	if err != nil {
		respondServerError(c, logger, "Failed to list accounts", err)
		return
	}

	c.JSON(http.StatusOK, dto.ListAccountsResponse{Accounts: dto.ToAccountResponses(accounts)})
}

// updateAccount godoc
// @Summary Update an account
// @Description Updates an account's mutable details (name, description)
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   account_id path string true "Account ID to update"
// @Param   account body dto.UpdateAccountRequest true "Account details to update"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to update account"
// @Security BearerAuth
// @Router /organizations/{organization_id}/accounts/{account_id} [put]
func (h *accountHandler) updateAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organization_id")
	accountID := c.Param("account_id")

	var req dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	callerID, ok := middleware.GetCallerIDFromContext(c)
	if !ok {
		logger.Error("Caller ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("target_account_id", accountID))

	updatedAccount, err := h.chartService.UpdateAccount(c.Request.Context(), organizationID, accountID, req, callerID)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			logger.Warn("Account not found for update")
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error updating account", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			respondServerError(c, logger, "Failed to update account", err)
		}
		return
	}

	logger.Info("Account updated successfully")
	c.JSON(http.StatusOK, dto.ToAccountResponse(updatedAccount))
}

// deactivateAccount godoc
// @Summary Deactivate an account
// @Description Marks an account as inactive; accounts referenced by posted entries are never deleted
// @Tags accounts
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   account_id path string true "Account ID to deactivate"
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to deactivate account"
// @Security BearerAuth
// @Router /organizations/{organization_id}/accounts/{account_id} [delete]
func (h *accountHandler) deactivateAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organization_id")
	accountID := c.Param("account_id")

	callerID, ok := middleware.GetCallerIDFromContext(c)
	if !ok {
		logger.Error("Caller ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("target_account_id", accountID))

	err := h.chartService.DeactivateAccount(c.Request.Context(), organizationID, accountID, callerID)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			logger.Warn("Account not found for deactivation")
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		} else {
			respondServerError(c, logger, "Failed to deactivate account", err)
		}
		return
	}

	logger.Info("Account deactivated successfully")
	c.Status(http.StatusNoContent)
}

// getAccountBalance godoc
// @Summary Get the derived balance of an account
// @Description Recomputes the balance from posted entries; balances are never stored
// @Tags accounts
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   account_id path string true "Account ID"
// @Success 200 {object} dto.AccountBalanceResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to compute balance"
// @Security BearerAuth
// @Router /organizations/{organization_id}/accounts/{account_id}/balance [get]
func (h *accountHandler) getAccountBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organization_id")
	accountID := c.Param("account_id")

	balance, err := h.chartService.DerivedBalance(c.Request.Context(), organizationID, accountID)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			logger.Warn("Account not found for balance", slog.String("target_account_id", accountID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		} else {
			respondServerError(c, logger, "Failed to compute balance", err)
		}
		return
	}

	c.JSON(http.StatusOK, dto.AccountBalanceResponse{AccountID: accountID, Balance: balance})
}

// getAccountAncestors godoc
// @Summary Get the parent chain of an account
// @Description Returns the account's ancestors up to the hierarchy root, root last
// @Tags accounts
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   account_id path string true "Account ID"
// @Success 200 {object} dto.ListAccountsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to resolve ancestors"
// @Security BearerAuth
// @Router /organizations/{organization_id}/accounts/{account_id}/ancestors [get]
func (h *accountHandler) getAccountAncestors(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organization_id")
	accountID := c.Param("account_id")

	// Resolve first so other organizations' accounts stay invisible.
	if _, err := h.chartService.ResolveAccount(c.Request.Context(), organizationID, accountID); err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		} else {
			respondServerError(c, logger, "Failed to resolve ancestors", err)
		}
		return
	}

	ancestors, err := h.chartService.AncestorsOf(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, services.ErrParentCycle) {
			logger.Error("Parent chain cycle detected", slog.String("target_account_id", accountID))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else {
			respondServerError(c, logger, "Failed to resolve ancestors", err)
		}
		return
	}

	c.JSON(http.StatusOK, dto.ListAccountsResponse{Accounts: dto.ToAccountResponses(ancestors)})
}

// listAccountEntries godoc
// @Summary List posted entries of an account
// @Description Retrieves a token-paginated list of posted ledger lines for the account, newest first
// @Tags accounts
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   account_id path string true "Account ID"
// @Param   limit query int false "Limit number of results" default(50)
// @Param   nextToken query string false "Pagination token"
// @Success 200 {object} dto.ListEntriesResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to list entries"
// @Security BearerAuth
// @Router /organizations/{organization_id}/accounts/{account_id}/entries [get]
func (h *accountHandler) listAccountEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organization_id")
	accountID := c.Param("account_id")

	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListAccountEntries", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.ledgerService.ListEntriesByAccount(c.Request.Context(), organizationID, accountID, params)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		} else {
			respondServerError(c, logger, "Failed to list entries", err)
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// listAccountReconciliations godoc
// @Summary List reconciliations of an account
// @Description Retrieves a token-paginated list of reconciliations for the account, newest first
// @Tags reconciliations
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   account_id path string true "Account ID"
// @Param   limit query int false "Limit number of results" default(20)
// @Param   nextToken query string false "Pagination token"
// @Success 200 {object} dto.ListReconciliationsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to list reconciliations"
// @Security BearerAuth
// @Router /organizations/{organization_id}/accounts/{account_id}/reconciliations [get]
func (h *accountHandler) listAccountReconciliations(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organization_id")
	accountID := c.Param("account_id")

	var params dto.ListReconciliationsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListAccountReconciliations", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.reconciliationService.ListReconciliationsByAccount(c.Request.Context(), organizationID, accountID, params)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		} else {
			respondServerError(c, logger, "Failed to list reconciliations", err)
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}
