package middleware

import "github.com/gin-gonic/gin"

// callerIDKey is the key used to store the authenticated caller's ID in the
// context. Callers are opaque identifiers: a JWT subject or an API token id.
const callerIDKey = contextKey("callerID")

// GetCallerIDFromContext retrieves the authenticated caller ID from the Gin context.
// It returns the caller ID and a boolean indicating if it was found.
func GetCallerIDFromContext(c *gin.Context) (string, bool) {
	callerIDVal, exists := c.Get(string(callerIDKey))
	if !exists {
		// check in the request context as well
		ctxVal := c.Request.Context().Value(callerIDKey)
		if ctxVal != nil {
			if callerID, ok := ctxVal.(string); ok {
				return callerID, true
			}
		}
		return "", false
	}

	callerID, ok := callerIDVal.(string)
	if !ok {
		return "", false
	}

	return callerID, true
}
