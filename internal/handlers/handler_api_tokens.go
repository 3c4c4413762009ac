package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ledgerforge/gl_ledger_app/internal/apperrors"
	portssvc "github.com/ledgerforge/gl_ledger_app/internal/core/ports/services"
	"github.com/ledgerforge/gl_ledger_app/internal/dto"
	"github.com/ledgerforge/gl_ledger_app/internal/middleware"
)

// apiTokenHandler handles HTTP requests for machine-caller API tokens.
type apiTokenHandler struct {
	tokenService portssvc.APITokenSvc
}

// registerAPITokenRoutes registers routes related to API tokens.
func registerAPITokenRoutes(rg *gin.RouterGroup, tokenSvc portssvc.APITokenSvc) {
	h := &apiTokenHandler{tokenService: tokenSvc}

	tokens := rg.Group("/api-tokens")
	{
		tokens.POST("", h.createToken)
		tokens.GET("", h.listTokens)
		tokens.DELETE("/:token_id", h.revokeToken)
	}
}

// createToken godoc
// @Summary Issue an API token
// @Description Issues a machine-caller token; the plaintext is returned exactly once
// @Tags api-tokens
// @Accept  json
// @Produce  json
// @Param   token body dto.CreateAPITokenRequest true "Token details"
// @Success 201 {object} dto.CreateAPITokenResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to create token"
// @Security BearerAuth
// @Router /api-tokens [post]
func (h *apiTokenHandler) createToken(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateAPITokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateToken", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	callerID, ok := middleware.GetCallerIDFromContext(c)
	if !ok {
		logger.Error("Caller ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var expiresIn *time.Duration
	if req.ExpiresInDays != nil {
		d := time.Duration(*req.ExpiresInDays) * 24 * time.Hour
		expiresIn = &d
	}

	plaintext, token, err := h.tokenService.CreateToken(c.Request.Context(), req.Name, expiresIn, callerID)
	if err != nil {
		respondServerError(c, logger, "Failed to create token", err)
		return
	}

	logger.Info("API token created", slog.String("token_id", token.TokenID), slog.String("token_name", token.Name))
	c.JSON(http.StatusCreated, dto.CreateAPITokenResponse{
		TokenID:   token.TokenID,
		Name:      token.Name,
		Token:     plaintext,
		ExpiresAt: token.ExpiresAt,
	})
}

// listTokens godoc
// @Summary List API tokens
// @Description Lists issued tokens; hashes and plaintexts are never returned
// @Tags api-tokens
// @Produce  json
// @Success 200 {array} dto.APITokenResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list tokens"
// @Security BearerAuth
// @Router /api-tokens [get]
func (h *apiTokenHandler) listTokens(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	tokens, err := h.tokenService.ListTokens(c.Request.Context())
	if err != nil {
		respondServerError(c, logger, "Failed to list tokens", err)
		return
	}

	responses := make([]dto.APITokenResponse, len(tokens))
	for i := range tokens {
		responses[i] = dto.ToAPITokenResponse(&tokens[i])
	}
	c.JSON(http.StatusOK, responses)
}

// revokeToken godoc
// @Summary Revoke an API token
// @Description Deletes a token so it can no longer authenticate
// @Tags api-tokens
// @Produce  json
// @Param   token_id path string true "Token ID"
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Token not found"
// @Failure 500 {object} map[string]string "Failed to revoke token"
// @Security BearerAuth
// @Router /api-tokens/{token_id} [delete]
func (h *apiTokenHandler) revokeToken(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tokenID := c.Param("token_id")

	err := h.tokenService.RevokeToken(c.Request.Context(), tokenID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Token not found"})
		} else {
			respondServerError(c, logger, "Failed to revoke token", err)
		}
		return
	}

	logger.Info("API token revoked", slog.String("token_id", tokenID))
	c.Status(http.StatusNoContent)
}
