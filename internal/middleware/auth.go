package middleware

import (
	"net/http"
	"strings"

	"deplodash/internal/auth"
	"deplodash/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ===========================================================================
// Auth Middleware
// Protect routes with JWT authentication
// Dashboard routes require an access token; widget routes require an
// anonymous session token.
// ===========================================================================

// Context keys for auth data
const (
	ContextKeyUserID    = "user_id"
	ContextKeySessionID = "session_id"
	ContextKeyClaims    = "claims"
)

// bearerToken extracts a token from the cookie or Authorization header
func bearerToken(c *gin.Context) string {
	// 1. Try the httpOnly cookie first
	if cookie, err := c.Cookie("access_token"); err == nil && cookie != "" {
		return cookie
	}

	// 2. Fallback to Authorization header (API clients, widget)
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	return ""
}

// AuthMiddleware verifies a dashboard access token from cookie or header
func AuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, dto.Error("UNAUTHORIZED", "Authentication required"))
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateAccessToken(tokenString)
		if err != nil {
			if err == auth.ErrExpiredToken {
				c.JSON(http.StatusUnauthorized, dto.Error("TOKEN_EXPIRED", "Token has expired"))
			} else {
				c.JSON(http.StatusUnauthorized, dto.Error("INVALID_TOKEN", "Invalid token"))
			}
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyClaims, claims)

		c.Next()
	}
}

// AnonymousAuthMiddleware verifies a widget session token.
// The embed contract returns a bare JSON error object here, not the
// dashboard response envelope.
func AnonymousAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateAnonymousToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		c.Set(ContextKeySessionID, claims.SessionID)
		c.Set(ContextKeyClaims, claims)

		c.Next()
	}
}

// ===========================================================================
// Helper functions to read auth data from context
// ===========================================================================

// GetUserID returns the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	id, exists := c.Get(ContextKeyUserID)
	if !exists {
		return uuid.Nil, false
	}
	return id.(uuid.UUID), true
}

// GetSessionID returns the widget session ID from the context
func GetSessionID(c *gin.Context) (string, bool) {
	id, exists := c.Get(ContextKeySessionID)
	if !exists {
		return "", false
	}
	return id.(string), true
}

// GetClaims returns the full claims from the context
func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	claims, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil, false
	}
	return claims.(*auth.Claims), true
}
