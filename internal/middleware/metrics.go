package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mealpoint/kiosk-api/internal/metrics"
)

// CollectHTTPMetrics records a request counter labeled by method, route
// template, and status. Uses FullPath so path params don't explode the
// label cardinality.
func CollectHTTPMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
	}
}
