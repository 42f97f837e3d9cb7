package middleware

import (
	"time"

	"example.com/backstage/services/commerce/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics records request latency by route template, so ids in paths do not
// explode label cardinality.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
