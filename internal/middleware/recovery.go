package middleware

import (
	"net/http"
	"runtime/debug"

	"deplodash/internal/dto"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ===========================================================================
// Recovery Middleware
// Catch panics and return an error response instead of crashing the server
// Logs the stack trace for debugging
// ===========================================================================

// Recovery middleware catches panics in handlers.
// On panic it:
// 1. Logs the error and stack trace
// 2. Returns 500 Internal Server Error
// 3. Keeps the server alive
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.String("request_id", GetRequestID(c)),
					zap.Any("error", err),
					zap.String("stack", string(debug.Stack())),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, dto.Error(
					"INTERNAL_ERROR",
					"An internal error occurred",
				))
			}
		}()

		c.Next()
	}
}
