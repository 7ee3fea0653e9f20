package middleware

import (
	"github.com/Azhc/chat-backend/internal/auth"
	"github.com/Azhc/chat-backend/internal/errs"
	"github.com/Azhc/chat-backend/internal/response"
	"github.com/gin-gonic/gin"
)

// AuthGate validates the bearer token on every protected route and makes
// the resolved identity available to handlers. Any resolution failure
// short-circuits with the unauthorized envelope before the handler runs.
func AuthGate(resolver *auth.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.RenderError(c, errs.Auth(errs.TokenMissing))
			c.Abort()
			return
		}

		token := auth.StripBearer(authHeader)
		identity, err := resolver.Resolve(c.Request.Context(), token, c.GetHeader(auth.AuthTypeHeader))
		if err != nil {
			response.RenderError(c, err)
			c.Abort()
			return
		}

		c.Set("userID", identity)
		c.Next()
	}
}

// GetUserID extracts the resolved identity from the Gin context.
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("userID")
	if !exists {
		return "", false
	}
	return userID.(string), true
}
