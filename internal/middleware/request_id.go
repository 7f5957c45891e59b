package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ===========================================================================
// Request ID Middleware
// Attach a unique ID to every request for tracking and debugging
// The ID is stored in the context and echoed in the response header
// ===========================================================================

const (
	// RequestIDKey key for the request ID in the gin context
	RequestIDKey = "request_id"

	// RequestIDHeader header name carrying the request ID
	RequestIDHeader = "X-Request-ID"
)

// RequestID middleware attaches a unique ID to every request.
// If the client sends an X-Request-ID header that value is reused,
// otherwise a fresh UUID is generated.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		// Store in context so handlers/services can use it
		c.Set(RequestIDKey, requestID)

		// Echo in response header
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

// GetRequestID returns the request ID from the gin context.
// Returns an empty string when missing.
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDKey); exists {
		return id.(string)
	}
	return ""
}
