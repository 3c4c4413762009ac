package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ledgerforge/gl_ledger_app/internal/apperrors"
	portssvc "github.com/ledgerforge/gl_ledger_app/internal/core/ports/services"
	"github.com/ledgerforge/gl_ledger_app/internal/core/services"
	"github.com/ledgerforge/gl_ledger_app/internal/dto"
	"github.com/ledgerforge/gl_ledger_app/internal/middleware"
)

// exchangeRateHandler handles HTTP requests related to exchange rates.
type exchangeRateHandler struct {
	rateService portssvc.ExchangeRateSvcFacade
}

// registerExchangeRateRoutes registers routes related to exchange rates.
func registerExchangeRateRoutes(rg *gin.RouterGroup, rateSvc portssvc.ExchangeRateSvcFacade) {
	h := &exchangeRateHandler{rateService: rateSvc}

	rates := rg.Group("/exchange-rates")
	{
		rates.POST("", h.createExchangeRate)
		rates.GET("", h.getRateAsOf)
	}
}

// createExchangeRate godoc
// @Summary Record an exchange rate
// @Description Records a new conversion rate effective from a date
// @Tags exchange-rates
// @Accept  json
// @Produce  json
// @Param   rate body dto.CreateExchangeRateRequest true "Exchange rate details"
// @Success 201 {object} dto.ExchangeRateResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to create exchange rate"
// @Security BearerAuth
// @Router /exchange-rates [post]
func (h *exchangeRateHandler) createExchangeRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateExchangeRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateExchangeRate", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	callerID, ok := middleware.GetCallerIDFromContext(c)
	if !ok {
		logger.Error("Caller ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	rate, err := h.rateService.CreateExchangeRate(c.Request.Context(), req, callerID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRateNotPositive),
			errors.Is(err, services.ErrSameCurrency),
			errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Validation error creating exchange rate", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			respondServerError(c, logger, "Failed to create exchange rate", err)
		}
		return
	}

	logger.Info("Exchange rate created", slog.String("exchange_rate_id", rate.ExchangeRateID))
	c.JSON(http.StatusCreated, dto.ToExchangeRateResponse(rate))
}

// getRateAsOf godoc
// @Summary Get the rate in effect for a currency pair
// @Description Returns the most recent rate whose effective date does not exceed asOf (defaults to now)
// @Tags exchange-rates
// @Produce  json
// @Param   from query string true "From currency code"
// @Param   to query string true "To currency code"
// @Param   asOf query string false "RFC3339 date, defaults to now"
// @Success 200 {object} dto.ExchangeRateResponse
// @Failure 400 {object} map[string]string "Invalid parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "No rate in effect"
// @Failure 500 {object} map[string]string "Failed to retrieve rate"
// @Security BearerAuth
// @Router /exchange-rates [get]
func (h *exchangeRateHandler) getRateAsOf(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	fromCode := c.Query("from")
	toCode := c.Query("to")
	if fromCode == "" || toCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to currency codes are required"})
		return
	}

	asOf := time.Now().UTC()
	if asOfParam := c.Query("asOf"); asOfParam != "" {
		parsed, err := time.Parse(time.RFC3339, asOfParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "asOf must be RFC3339: " + err.Error()})
			return
		}
		asOf = parsed
	}

	rate, err := h.rateService.RateAsOf(c.Request.Context(), fromCode, toCode, asOf)
	if err != nil {
		if errors.Is(err, services.ErrRateNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			respondServerError(c, logger, "Failed to retrieve rate", err)
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToExchangeRateResponse(rate))
}
