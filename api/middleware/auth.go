package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminAuth guards back-office routes with a static bearer key. An empty
// key leaves the routes open.
func AdminAuth(apiKey string, log *logrus.Logger) gin.HandlerFunc {
	if apiKey == "" {
		log.Warn("Admin API key not configured, back-office routes are unauthenticated")
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Authorization header required",
				"code":    "UNAUTHORIZED",
			})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid Authorization header format. Expected: 'Bearer {token}'",
				"code":    "UNAUTHORIZED",
			})
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(apiKey)) != 1 {
			log.WithField("client_ip", c.ClientIP()).Warn("Invalid admin API key")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid API key",
				"code":    "UNAUTHORIZED",
			})
			return
		}

		c.Next()
	}
}
