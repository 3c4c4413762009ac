package middleware

import (
	"github.com/gin-gonic/gin"

	portssvc "github.com/ledgerforge/gl_ledger_app/internal/core/ports/services"
)

// APITokenAuth is a middleware that authenticates machine callers using API
// tokens presented in the x-api-key header. On success it marks the request
// authenticated so the JWT middleware is skipped.
func APITokenAuth(tokenSvc portssvc.APITokenSvc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isPublicRoute(c.Request.URL.Path) {
			c.Next()
			return
		}

		apiKey := c.GetHeader("x-api-key")
		if apiKey == "" {
			c.Next() // No api key provided, fall through to bearer auth
			return
		}

		callerID, err := tokenSvc.ValidateToken(c.Request.Context(), apiKey)
		if err != nil {
			c.Next() // Token validation failed, fall through to bearer auth
			return
		}

		c.Set(string(callerIDKey), callerID)
		c.Set("authMethod", "api_token")
		c.Next()
	}
}

// isPublicRoute checks if the given path is a public route that doesn't require authentication
func isPublicRoute(path string) bool {
	publicRoutes := []string{
		"/health",
		"/api/v1/health",
	}

	for _, route := range publicRoutes {
		if path == route {
			return true
		}
	}

	return false
}
