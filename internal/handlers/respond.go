package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledgerforge/gl_ledger_app/internal/apperrors"
)

// respondServerError logs an unmapped service failure and writes the generic
// 500 body. Storage failures log at error; a business error that fell through
// a handler's switch has no mapping yet and logs at warn.
func respondServerError(c *gin.Context, logger *slog.Logger, message string, err error) {
	if apperrors.IsStorage(err) {
		logger.Error(message, slog.String("error", err.Error()))
	} else {
		logger.Warn(message, slog.String("error", err.Error()))
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}
