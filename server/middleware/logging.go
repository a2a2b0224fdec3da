package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/relatorlabs/beacon/logger"
)

// RequestLogger returns middleware that logs every request with method, path,
// status code, and duration. Probe paths are silently skipped to keep the log
// readable under frequent health polling.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isProbeEndpoint(c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		path := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			path = path + "?" + q
		}

		fields := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        path,
			"status":      status,
			"duration_ms": latency.Milliseconds(),
			"client":      c.ClientIP(),
		}
		if id, ok := c.Get("request_id"); ok {
			fields[logger.FieldRequestID] = id
		}

		switch {
		case status >= 500:
			log.Error("Request completed", fields)
		case status >= 400:
			log.Warn("Request completed", fields)
		default:
			log.Debug("Request completed", fields)
		}
	}
}

func isProbeEndpoint(path string) bool {
	switch path {
	case "/", "/health", "/metrics":
		return true
	}
	return false
}
