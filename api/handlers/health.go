package handlers

import (
	"net/http"
	"time"

	"example.com/backstage/services/commerce/internal/metrics"

	"github.com/gin-gonic/gin"
)

// HealthCheck handles health check requests
func HealthCheck(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Commerce Service",
			"uptime":  m.Uptime().Round(time.Second).String(),
		})
	}
}
