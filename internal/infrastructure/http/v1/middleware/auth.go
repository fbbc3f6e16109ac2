package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"lotkeeper/internal/core/apperror"
	"lotkeeper/internal/core/security"
)

// TokenValidator validates an access token and extracts the caller identity.
type TokenValidator interface {
	ValidateToken(tokenString string) (security.Identity, error)
}

// Auth middleware validates bearer tokens and attaches the caller identity to
// the request context. The engine does not authenticate users itself; the
// token is issued upstream and only its subject matters here, for audit
// attribution.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		ident, err := validator.ValidateToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		ctx := security.WithIdentity(c.Request.Context(), ident)
		c.Request = c.Request.WithContext(ctx)
		c.Set("user_id", ident.UserID)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
