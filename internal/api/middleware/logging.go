package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zahlentech/str8up_server/internal/pkg/logger"
)

// RequestLogger logs one line per request.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		keyvals := []interface{}{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if sessionID := c.Param("sessionId"); sessionID != "" {
			keyvals = append(keyvals, "session_id", sessionID)
		}

		switch {
		case status >= 500:
			log.Error("request", keyvals...)
		case status >= 400:
			log.Warn("request", keyvals...)
		default:
			log.Debug("request", keyvals...)
		}
	}
}
