package middleware

import (
	"github.com/gin-gonic/gin"
)

// ===========================================================================
// CORS Middleware
// Cross-Origin Resource Sharing for browser clients
// The dashboard uses an origin allowlist; the embeddable widget endpoints
// must stay permissive because they are loaded from customer sites.
// ===========================================================================

// CORS middleware sets CORS headers.
// allowedOrigins: origins allowed to call the API ("*" allows all)
func CORS(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, o := range allowedOrigins {
			if o == "*" || o == origin {
				allowed = true
				break
			}
		}

		if allowed {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Request-ID")
			c.Header("Access-Control-Allow-Credentials", "true")

			// Cache preflight for 24 hours
			c.Header("Access-Control-Max-Age", "86400")
		}

		// Handle preflight request (OPTIONS)
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// WidgetCORS sets fully permissive CORS headers for the embed endpoints.
// The widget script runs on arbitrary customer domains, so an allowlist
// is not possible there.
func WidgetCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
