package server

import (
	"context"
	"fmt"
	"time"

	"property-bidding/internal/auth"
	"property-bidding/internal/biddingerrors"
	model "property-bidding/internal/models"
	"property-bidding/services/bidding/helpers"
	"property-bidding/utils"

	"github.com/gin-gonic/gin"
)

// Authenticator resolves an Authorization header into the caller's identity
type Authenticator interface {
	Resolve(ctx context.Context, header string) (auth.Identity, error)
}

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	fields := map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	}
	if identity, ok := helpers.IdentityFromContext(c); ok {
		fields["account_id"] = identity.AccountID
	}
	utils.Info("HTTP Request", fields)
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the caller's identity for the handlers
func AuthMiddleware(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := authn.Resolve(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			helpers.RespondError(c, "AuthMiddleware", err, map[string]any{"path": c.Request.URL.Path})
			c.Abort()
			return
		}

		helpers.SetIdentity(c, identity)
		c.Next()
	}
}

// RequireRole lets only callers with role through. It must run after AuthMiddleware.
func RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := helpers.IdentityFromContext(c)
		if !ok {
			helpers.RespondError(c, "RequireRole", biddingerrors.ErrUnauthorized, nil)
			c.Abort()
			return
		}
		if identity.Role != role {
			helpers.RespondError(c, "RequireRole", fmt.Errorf("%w - role %s required", biddingerrors.ErrForbidden, role), map[string]any{
				"account_id": identity.AccountID,
				"role":       identity.Role,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequestTimeout bounds the request context. Long-lived streams must not use it.
func RequestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
