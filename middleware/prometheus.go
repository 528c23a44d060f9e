package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/duynhne/peek-service/internal/metrics"
)

// PrometheusMiddleware records request count and latency per route template.
// Unmatched routes are grouped under "unmatched" to bound label cardinality.
func PrometheusMiddleware(rec metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		rec.IncRequestsTotal(method, path, c.Writer.Status())
		rec.ObserveRequestDuration(method, path, time.Since(start))
	}
}
