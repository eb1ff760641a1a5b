package middleware

import (
	"time"

	"mybox/logger"

	"github.com/gin-gonic/gin"
)

// RequestLogger writes one debug line per request once the handler
// chain has finished.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !logger.IsDebugEnabled() {
			c.Next()
			return
		}

		start := time.Now()

		c.Next()

		url := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			url += "?" + q
		}

		logger.Debugf(
			"%s %s -> %d (%d bytes, %s, client %s)",
			c.Request.Method,
			url,
			c.Writer.Status(),
			c.Writer.Size(),
			time.Since(start),
			c.ClientIP(),
		)
	}
}
