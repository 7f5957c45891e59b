package handlers

import (
	"net/http"

	"deplodash/internal/dto"
	apperrors "deplodash/internal/errors"
	"deplodash/internal/middleware"
	"deplodash/internal/models"
	"deplodash/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ===========================================================================
// Auth Handler
// Handle authentication endpoints: signup, login, refresh, me, logout
// plus anonymous token minting for the widget
// ===========================================================================

// AuthHandler handles auth endpoints
type AuthHandler struct {
	authService services.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService services.AuthService,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// ===========================================================================
// Request/Response DTOs
// ===========================================================================

// SignupRequest body for registration
type SignupRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"omitempty,max=100"`
}

// LoginRequest body for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// ProfileResponse profile data (no password)
type ProfileResponse struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	FullName  string  `json:"full_name"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// AnonymousTokenRequest body for widget token minting
type AnonymousTokenRequest struct {
	SessionID string `json:"session_id" binding:"omitempty,max=100"`
}

func profileResponse(p *models.Profile) *ProfileResponse {
	return &ProfileResponse{
		ID:        p.ID.String(),
		Username:  p.Username,
		Email:     p.Email,
		FullName:  p.FullName,
		AvatarURL: p.AvatarURL,
	}
}

// setAuthCookies sets the httpOnly token cookies with SameSite=Lax
func setAuthCookies(c *gin.Context, tokens *services.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("access_token", tokens.AccessToken, tokens.ExpiresIn, "/", "", false, true)
	c.SetCookie("refresh_token", tokens.RefreshToken, 604800, "/", "", false, true)
}

// clearAuthCookies expires the token cookies
func clearAuthCookies(c *gin.Context) {
	c.SetCookie("access_token", "", -1, "/", "", false, true)
	c.SetCookie("refresh_token", "", -1, "/", "", false, true)
}

// ===========================================================================
// Handlers
// ===========================================================================

// Signup registers a new profile
// POST /api/v1/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", err.Error()))
		return
	}

	result, err := h.authService.Signup(c.Request.Context(), req.Username, req.Email, req.Password, req.FullName)
	if err != nil {
		if err == apperrors.ErrDuplicateEntry {
			c.JSON(http.StatusConflict, dto.Error("DUPLICATE_EMAIL", "An account with this email already exists"))
			return
		}
		h.logger.Error("signup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.Error("INTERNAL_ERROR", "Something went wrong"))
		return
	}

	setAuthCookies(c, result.Tokens)

	c.JSON(http.StatusCreated, dto.Success(profileResponse(result.Profile)))
}

// Login authenticates a profile
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", err.Error()))
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if err == apperrors.ErrInvalidCredentials {
			c.JSON(http.StatusUnauthorized, dto.Error("INVALID_CREDENTIALS", "Incorrect email or password"))
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.Error("INTERNAL_ERROR", "Something went wrong"))
		return
	}

	setAuthCookies(c, result.Tokens)

	c.JSON(http.StatusOK, dto.Success(profileResponse(result.Profile)))
}

// Refresh rotates the token pair
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	// Read refresh token from cookie
	refreshToken, err := c.Cookie("refresh_token")
	if err != nil || refreshToken == "" {
		c.JSON(http.StatusUnauthorized, dto.Error("NO_TOKEN", "Refresh token missing"))
		return
	}

	result, err := h.authService.RefreshTokens(c.Request.Context(), refreshToken)
	if err != nil {
		if err == apperrors.ErrTokenExpired {
			clearAuthCookies(c)
			c.JSON(http.StatusUnauthorized, dto.Error("TOKEN_EXPIRED", "Refresh token has expired"))
			return
		}
		if err == apperrors.ErrInvalidToken {
			c.JSON(http.StatusUnauthorized, dto.Error("INVALID_TOKEN", "Refresh token is invalid"))
			return
		}
		h.logger.Error("refresh failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.Error("INTERNAL_ERROR", "Something went wrong"))
		return
	}

	setAuthCookies(c, result.Tokens)

	c.JSON(http.StatusOK, dto.Success(profileResponse(result.Profile)))
}

// Me returns the current profile
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Error("UNAUTHORIZED", "Not logged in"))
		return
	}

	profile, err := h.authService.GetProfileByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, dto.Error("PROFILE_NOT_FOUND", "Profile does not exist"))
		return
	}

	c.JSON(http.StatusOK, dto.Success(profileResponse(profile)))
}

// Logout revokes the refresh token and clears cookies
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if ok {
		if err := h.authService.RevokeRefreshToken(c.Request.Context(), userID); err != nil {
			h.logger.Warn("revoke refresh token failed", zap.Error(err))
		}
	}

	clearAuthCookies(c)

	c.JSON(http.StatusOK, dto.Success(gin.H{"message": "Logged out"}))
}

// AnonymousToken mints a widget session token
// POST /api/v1/auth/anonymous
// No authentication required: the widget calls this before anything else.
func (h *AuthHandler) AnonymousToken(c *gin.Context) {
	var req AnonymousTokenRequest
	// Body is optional, an empty one mints a fresh session
	_ = c.ShouldBindJSON(&req)

	result, err := h.authService.IssueAnonymousToken(c.Request.Context(), req.SessionID)
	if err != nil {
		h.logger.Error("issue anonymous token failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.Error("INTERNAL_ERROR", "Something went wrong"))
		return
	}

	c.JSON(http.StatusOK, dto.Success(result))
}

// ===========================================================================
// Route Registration
// ===========================================================================

// RegisterRoutes registers auth routes
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	auth := rg.Group("/auth")
	{
		// Public routes
		auth.POST("/signup", h.Signup)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/anonymous", h.AnonymousToken)

		// Protected routes
		auth.GET("/me", authMiddleware, h.Me)
		auth.POST("/logout", authMiddleware, h.Logout)
	}
}
