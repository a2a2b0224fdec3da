// Package middleware provides the Gin middleware stack used by the beacon
// server: bearer-token auth, panic recovery, request IDs, and request logging.
package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/relatorlabs/beacon/errors"
)

// AuthConfig configures the bearer-token authentication middleware.
type AuthConfig struct {
	// Secret is the shared bearer credential protected routes require.
	Secret string
	// SkipPaths are exact URL paths that bypass authentication
	// (health and metrics probes must stay reachable without credentials).
	SkipPaths []string
}

// BearerAuth returns a Gin middleware that validates the Authorization header
// against the configured shared secret. The comparison is constant-time. The
// request is rejected before any handler runs, so an unauthorized call never
// touches the registry store.
func BearerAuth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(cfg.Secret)) != 1 {
			abortUnauthorized(c, "Invalid API key")
			return
		}

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, reason string) {
	appErr := errors.Unauthorized(reason)
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}
