package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/timmy/gemstore/internal/auth"
	"github.com/timmy/gemstore/internal/logger"
)

// SessionHeader carries the anonymous storefront session id.
const SessionHeader = "X-Session-ID"

// Authenticate parses an optional bearer token and attaches the principal to
// the request context. Requests without a token continue anonymously; a
// malformed or expired token is rejected with 401.
func Authenticate(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || tokens == nil {
			c.Next()
			return
		}

		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header must use the Bearer scheme"})
			return
		}
		principal, err := tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			logger.CtxWarn(c.Request.Context(), "Rejected bearer token: client_ip=%s, error=%v", c.ClientIP(), err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		ctx := auth.WithPrincipal(c.Request.Context(), principal)
		ctx = logger.WithField(ctx, logger.FieldUserID, principal.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAdmin rejects callers without the admin role with 403.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.PrincipalFrom(c.Request.Context()).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		c.Next()
	}
}

// OwnerID returns the cart/order owner for a request: the authenticated user
// when present, otherwise the X-Session-ID header.
func OwnerID(c *gin.Context) string {
	if p := auth.PrincipalFrom(c.Request.Context()); p != nil && p.UserID != "" {
		return p.UserID
	}
	return strings.TrimSpace(c.GetHeader(SessionHeader))
}
