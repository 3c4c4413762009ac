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

// currencyHandler handles HTTP requests related to currencies.
type currencyHandler struct {
	currencyService portssvc.CurrencySvcFacade
}

// registerCurrencyRoutes registers routes related to currencies.
func registerCurrencyRoutes(rg *gin.RouterGroup, currencySvc portssvc.CurrencySvcFacade) {
	h := &currencyHandler{currencyService: currencySvc}

	currencies := rg.Group("/currencies")
	{
		currencies.POST("", h.createCurrency)
		currencies.GET("/:code", h.getCurrency)
		currencies.GET("", h.listCurrencies)
	}
}

// createCurrency godoc
// @Summary Register a currency
// @Description Registers a supported currency with its minor-unit precision
// @Tags currencies
// @Accept  json
// @Produce  json
// @Param   currency body dto.CreateCurrencyRequest true "Currency details"
// @Success 201 {object} dto.CurrencyResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Currency already exists"
// @Failure 500 {object} map[string]string "Failed to create currency"
// @Security BearerAuth
// @Router /currencies [post]
func (h *currencyHandler) createCurrency(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateCurrency", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	callerID, ok := middleware.GetCallerIDFromContext(c)
	if !ok {
		logger.Error("Caller ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	currency, err := h.currencyService.CreateCurrency(c.Request.Context(), req, callerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			logger.Warn("Currency already exists", slog.String("currency_code", req.CurrencyCode))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else {
			respondServerError(c, logger, "Failed to create currency", err)
		}
		return
	}

	logger.Info("Currency created", slog.String("currency_code", currency.CurrencyCode))
	c.JSON(http.StatusCreated, dto.ToCurrencyResponse(currency))
}

// getCurrency godoc
// @Summary Get a currency by code
// @Description Retrieves a supported currency by its ISO code
// @Tags currencies
// @Produce  json
// @Param   code path string true "Currency code"
// @Success 200 {object} dto.CurrencyResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Currency not found"
// @Failure 500 {object} map[string]string "Failed to retrieve currency"
// @Security BearerAuth
// @Router /currencies/{code} [get]
func (h *currencyHandler) getCurrency(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	code := c.Param("code")

	currency, err := h.currencyService.GetCurrencyByCode(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, services.ErrCurrencyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Currency not found"})
		} else {
			respondServerError(c, logger, "Failed to retrieve currency", err)
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToCurrencyResponse(currency))
}

// listCurrencies godoc
// @Summary List supported currencies
// @Description Retrieves all registered currencies
// @Tags currencies
// @Produce  json
// @Success 200 {array} dto.CurrencyResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list currencies"
// @Security BearerAuth
// @Router /currencies [get]
func (h *currencyHandler) listCurrencies(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	currencies, err := h.currencyService.ListCurrencies(c.Request.Context())
	if err != nil {
		respondServerError(c, logger, "Failed to list currencies", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCurrencyResponses(currencies))
}
