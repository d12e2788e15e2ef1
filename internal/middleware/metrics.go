package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/radpulse/radpulse-api/internal/service"
)

// Metrics records request latency and counts per route.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
