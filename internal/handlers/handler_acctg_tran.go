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

// transactionHandler handles HTTP requests for building, posting and reading
// ledger transactions.
type transactionHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

// registerTransactionRoutes registers transaction routes within an organization.
func registerTransactionRoutes(rg *gin.RouterGroup, ledgerSvc portssvc.LedgerSvcFacade) {
	h := &transactionHandler{ledgerService: ledgerSvc}

	trans := rg.Group("/transactions")
	{
		trans.POST("", h.beginTransaction)
		trans.GET("", h.listTransactions)
		trans.GET("/:tran_id", h.getTransaction)
		trans.POST("/:tran_id/entries", h.addEntry)
		trans.POST("/:tran_id/post", h.postTransaction)
		trans.POST("/:tran_id/reverse", h.reverseTransaction)
	}
}

// beginTransaction godoc
// @Summary Begin a draft transaction
// @Description Creates an UNPOSTED draft, optionally with initial entries
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   transaction body dto.BeginTransactionRequest true "Transaction details"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to begin transaction"
// @Security BearerAuth
// @Router /organizations/{organization_id}/transactions [post]
func (h *transactionHandler) beginTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organization_id")

	var req dto.BeginTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for BeginTransaction", slog.String("error", err.Error()))
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
	logger.Info("Received request to begin transaction", slog.String("tran_type", string(req.TranType)))

	tran, err := h.ledgerService.BeginTransaction(c.Request.Context(), organizationID, req, callerID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReversalTypeManual),
			errors.Is(err, services.ErrAmountNotPositive),
			errors.Is(err, services.ErrAccountNotFound),
			errors.Is(err, services.ErrAccountInactive),
			errors.Is(err, services.ErrRateNotFound),
			errors.Is(err, services.ErrCurrencyNotFound):
			logger.Warn("Validation error beginning transaction", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			respondServerError(c, logger, "Failed to begin transaction", err)
		}
		return
	}

	logger.Info("Draft transaction created", slog.String("acctg_tran_id", tran.AcctgTranID))
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(tran))
}

// addEntry godoc
// @Summary Add an entry to a draft transaction
// @Description Appends a debit or credit line to an unposted draft; foreign-currency amounts are converted at the rate in effect on the transaction date
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   tran_id path string true "Transaction ID"
// @Param   entry body dto.AddEntryRequest true "Entry details"
// @Success 201 {object} dto.AddEntryResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 409 {object} map[string]string "Transaction already posted"
// @Failure 500 {object} map[string]string "Failed to add entry"
// @Security BearerAuth
// @Router /organizations/{organization_id}/transactions/{tran_id}/entries [post]
func (h *transactionHandler) addEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organization_id")
	tranID := c.Param("tran_id")

	var req dto.AddEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for AddEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	callerID, ok := middleware.GetCallerIDFromContext(c)
	if !ok {
		logger.Error("Caller ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("acctg_tran_id", tranID))

	entry, warnings, err := h.ledgerService.AddEntry(c.Request.Context(), organizationID, tranID, req, callerID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTranNotFound):
			logger.Warn("Transaction not found for entry")
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		case errors.Is(err, domain.ErrAlreadyPosted):
			logger.Warn("Attempt to modify a posted transaction")
			c.JSON(http.StatusConflict, gin.H{"error": "Transaction is already posted"})
		case errors.Is(err, services.ErrAmountNotPositive),
			errors.Is(err, services.ErrAccountNotFound),
			errors.Is(err, services.ErrAccountInactive),
			errors.Is(err, services.ErrRateNotFound),
			errors.Is(err, services.ErrCurrencyNotFound):
			logger.Warn("Validation error adding entry", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			respondServerError(c, logger, "Failed to add entry", err)
		}
		return
	}

	c.JSON(http.StatusCreated, dto.AddEntryResponse{Entry: dto.ToEntryResponse(entry), Warnings: warnings})
}

// postTransaction godoc
// @Summary Post a draft transaction
// @Description Validates per-currency balance and atomically commits the draft; posted transactions are immutable
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   tran_id path string true "Transaction ID"
// @Param   options body dto.PostTransactionRequest false "Posting options"
// @Success 200 {object} dto.TransactionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 409 {object} map[string]string "Transaction already posted"
// @Failure 422 {object} map[string]string "Transaction does not satisfy posting rules"
// @Failure 500 {object} map[string]string "Failed to post transaction"
// @Security BearerAuth
// @Router /organizations/{organization_id}/transactions/{tran_id}/post [post]
func (h *transactionHandler) postTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organization_id")
	tranID := c.Param("tran_id")

	var req dto.PostTransactionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for PostTransaction", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	callerID, ok := middleware.GetCallerIDFromContext(c)
	if !ok {
		logger.Error("Caller ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("acctg_tran_id", tranID))
	logger.Info("Received request to post transaction", slog.Bool("force", req.Force))

	tran, err := h.ledgerService.PostTransaction(c.Request.Context(), organizationID, tranID, req.Force, callerID)
	if err != nil {
		var unbalanced *services.UnbalancedError
		switch {
		case errors.Is(err, services.ErrTranNotFound):
			logger.Warn("Transaction not found for posting")
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		case errors.Is(err, domain.ErrAlreadyPosted):
			logger.Warn("Transaction already posted")
			c.JSON(http.StatusConflict, gin.H{"error": "Transaction is already posted"})
		case errors.As(err, &unbalanced):
			logger.Warn("Transaction is unbalanced", slog.String("currency", unbalanced.CurrencyCode), slog.String("delta", unbalanced.Delta.String()))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": unbalanced.Error()})
		case errors.Is(err, services.ErrTooFewEntries),
			errors.Is(err, services.ErrTooFewAccounts),
			errors.Is(err, services.ErrAmountNotPositive),
			errors.Is(err, services.ErrNotYetScheduled):
			logger.Warn("Transaction failed posting validation", slog.String("error", err.Error()))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			respondServerError(c, logger, "Failed to post transaction", err)
		}
		return
	}

	logger.Info("Transaction posted successfully")
	c.JSON(http.StatusOK, dto.ToTransactionResponse(tran))
}

// reverseTransaction godoc
// @Summary Reverse a posted transaction
// @Description Posts a new transaction with every entry's side flipped; posted transactions are never edited
// @Tags transactions
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   tran_id path string true "Transaction ID to reverse"
// @Success 201 {object} dto.TransactionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 422 {object} map[string]string "Transaction cannot be reversed"
// @Failure 500 {object} map[string]string "Failed to reverse transaction"
// @Security BearerAuth
// @Router /organizations/{organization_id}/transactions/{tran_id}/reverse [post]
func (h *transactionHandler) reverseTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organization_id")
	tranID := c.Param("tran_id")

	callerID, ok := middleware.GetCallerIDFromContext(c)
	if !ok {
		logger.Error("Caller ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("acctg_tran_id", tranID))
	logger.Info("Received request to reverse transaction")

	reversal, err := h.ledgerService.ReverseTransaction(c.Request.Context(), organizationID, tranID, callerID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTranNotFound):
			logger.Warn("Transaction not found for reversal")
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		case errors.Is(err, services.ErrReverseUnposted), errors.Is(err, services.ErrReverseReversal):
			logger.Warn("Transaction cannot be reversed", slog.String("error", err.Error()))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			respondServerError(c, logger, "Failed to reverse transaction", err)
		}
		return
	}

	logger.Info("Transaction reversed successfully", slog.String("reversal_tran_id", reversal.AcctgTranID))
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(reversal))
}

// getTransaction godoc
// @Summary Get a transaction by ID
// @Description Retrieves a transaction with its entries
// @Tags transactions
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   tran_id path string true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 500 {object} map[string]string "Failed to retrieve transaction"
// @Security BearerAuth
// @Router /organizations/{organization_id}/transactions/{tran_id} [get]
func (h *transactionHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organization_id")
	tranID := c.Param("tran_id")

	tran, err := h.ledgerService.GetTransaction(c.Request.Context(), organizationID, tranID)
	if err != nil {
		if errors.Is(err, services.ErrTranNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		} else {
			respondServerError(c, logger, "Failed to retrieve transaction", err)
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(tran))
}

// listTransactions godoc
// @Summary List transactions of an organization
// @Description Retrieves a token-paginated list of transactions, newest first
// @Tags transactions
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   limit query int false "Limit number of results" default(50)
// @Param   nextToken query string false "Pagination token"
// @Success 200 {object} dto.ListTransactionsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list transactions"
// @Security BearerAuth
// @Router /organizations/{organization_id}/transactions [get]
func (h *transactionHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organization_id")

	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListTransactions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.ledgerService.ListTransactions(c.Request.Context(), organizationID, params)
	if err != nil {
		respondServerError(c, logger, "Failed to list transactions", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
