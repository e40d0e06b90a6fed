package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"ecomsync/internal/logger"
)

// Logger logs one line per request. Server errors are logged at error
// level.
func Logger(logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}
		if c.Writer.Status() >= 500 {
			logger.Errorw("request failed", fields...)
			return
		}
		logger.With(fields...).Info("request")
	}
}
