package handlers

import (
	"errors"
	"net/http"

	apperrors "deplodash/internal/errors"
	"deplodash/internal/middleware"
	"deplodash/internal/models"
	"deplodash/internal/repositories"
	"deplodash/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ===========================================================================
// Widget Handler
// The embed API consumed by the chat widget script on customer sites.
// This surface has its own wire contract: raw row JSON on success and a
// bare {"error": ...} object on failure, with no response envelope.
// Changing these shapes breaks every deployed embed, so they stay frozen.
// ===========================================================================

// WidgetHandler handles the embed endpoints
type WidgetHandler struct {
	widgetService    services.WidgetService
	conversationRepo repositories.ConversationRepository
	messageRepo      repositories.MessageRepository
	settingsRepo     repositories.DomainSettingsRepository
	logger           *zap.Logger
}

// NewWidgetHandler creates a new widget handler
func NewWidgetHandler(
	widgetService services.WidgetService,
	conversationRepo repositories.ConversationRepository,
	messageRepo repositories.MessageRepository,
	settingsRepo repositories.DomainSettingsRepository,
	logger *zap.Logger,
) *WidgetHandler {
	return &WidgetHandler{
		widgetService:    widgetService,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		settingsRepo:     settingsRepo,
		logger:           logger,
	}
}

// ===========================================================================
// Request DTOs
// ===========================================================================

// CreateConversationBody body for POST /api/conversations.
// SessionID is the historical body field older embed scripts still send;
// the token claim is authoritative and the two must agree.
type CreateConversationBody struct {
	DomainID  uuid.UUID `json:"domain_id" binding:"required"`
	SessionID string    `json:"session_id" binding:"omitempty,max=64"`
	Title     string    `json:"title" binding:"omitempty,max=255"`
}

// CreateMessageBody body for POST /api/messages
type CreateMessageBody struct {
	ConversationID uuid.UUID `json:"conversation_id" binding:"required"`
	Content        string    `json:"content" binding:"required,min=1,max=5000"`
	SenderType     string    `json:"sender_type" binding:"required,oneof=user bot"`
}

// widgetError writes the bare error object the embed script expects
func widgetError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// ===========================================================================
// Handlers
// ===========================================================================

// CreateConversation starts a conversation for the authenticated session
// POST /api/conversations
// Returns the raw conversation row.
func (h *WidgetHandler) CreateConversation(c *gin.Context) {
	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		widgetError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body CreateConversationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		widgetError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if body.SessionID != "" && body.SessionID != sessionID {
		widgetError(c, http.StatusForbidden, "Session mismatch")
		return
	}

	conv, err := h.widgetService.CreateConversation(c.Request.Context(), body.DomainID, sessionID, body.Title)
	if err != nil {
		h.logger.Error("widget create conversation failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		widgetError(c, http.StatusInternalServerError, "Failed to create conversation")
		return
	}

	c.JSON(http.StatusOK, conv)
}

// CreateMessage appends a message to a session's conversation
// POST /api/messages
// Returns the raw message row; the bot reply arrives over realtime.
func (h *WidgetHandler) CreateMessage(c *gin.Context) {
	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		widgetError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body CreateMessageBody
	if err := c.ShouldBindJSON(&body); err != nil {
		widgetError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.widgetService.SendMessage(c.Request.Context(), services.SendMessageInput{
		ConversationID: body.ConversationID,
		SessionID:      sessionID,
		Content:        body.Content,
		SenderType:     models.SenderType(body.SenderType),
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidInput):
			widgetError(c, http.StatusBadRequest, "Invalid request body")
		case errors.Is(err, apperrors.ErrNotFound):
			widgetError(c, http.StatusNotFound, "Conversation not found")
		case errors.Is(err, apperrors.ErrForbidden):
			widgetError(c, http.StatusForbidden, "Conversation belongs to another session")
		case errors.Is(err, apperrors.ErrConflict):
			widgetError(c, http.StatusConflict, "Conversation is closed")
		default:
			h.logger.Error("widget create message failed",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
			widgetError(c, http.StatusInternalServerError, "Failed to create message")
		}
		return
	}

	c.JSON(http.StatusOK, result.Message)
}

// GetSettings returns the public chatbot settings for a domain
// GET /api/widget/settings?domain_id=xxx
// Public: the widget renders its header before any token exists.
func (h *WidgetHandler) GetSettings(c *gin.Context) {
	domainID, err := uuid.Parse(c.Query("domain_id"))
	if err != nil {
		widgetError(c, http.StatusBadRequest, "Invalid domain_id")
		return
	}

	settings, err := h.settingsRepo.FindByDomain(c.Request.Context(), domainID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Unconfigured domains still get a working widget
			settings = &models.DomainSettings{
				DomainID:        domainID,
				ChatbotName:     "Chatbot",
				PrimaryColor:    "#4f46e5",
				HeaderTextColor: "#ffffff",
			}
			c.JSON(http.StatusOK, settings)
			return
		}
		h.logger.Error("widget get settings failed",
			zap.String("domain_id", domainID.String()),
			zap.Error(err),
		)
		widgetError(c, http.StatusInternalServerError, "Failed to load settings")
		return
	}

	c.JSON(http.StatusOK, settings)
}

// ListConversations returns the session's conversations
// GET /api/widget/conversations
func (h *WidgetHandler) ListConversations(c *gin.Context) {
	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		widgetError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	// Widget init also sweeps stale threads into the archive
	if _, err := h.widgetService.ArchiveExpired(c.Request.Context(), sessionID, timeNow()); err != nil {
		h.logger.Warn("archive expired failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}

	conversations, err := h.conversationRepo.FindBySession(c.Request.Context(), sessionID)
	if err != nil {
		h.logger.Error("widget list conversations failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		widgetError(c, http.StatusInternalServerError, "Failed to load conversations")
		return
	}

	c.JSON(http.StatusOK, conversations)
}

// ListMessages returns a conversation's messages for the session
// GET /api/widget/conversations/:id/messages
func (h *WidgetHandler) ListMessages(c *gin.Context) {
	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		widgetError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		widgetError(c, http.StatusBadRequest, "Invalid conversation ID")
		return
	}

	conv, err := h.conversationRepo.FindByID(c.Request.Context(), conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			widgetError(c, http.StatusNotFound, "Conversation not found")
			return
		}
		widgetError(c, http.StatusInternalServerError, "Failed to load conversation")
		return
	}

	if conv.SessionID == nil || *conv.SessionID != sessionID {
		widgetError(c, http.StatusForbidden, "Conversation belongs to another session")
		return
	}

	messages, err := h.messageRepo.FindByConversation(c.Request.Context(), conversationID)
	if err != nil {
		h.logger.Error("widget list messages failed",
			zap.String("conversation_id", conversationID.String()),
			zap.Error(err),
		)
		widgetError(c, http.StatusInternalServerError, "Failed to load messages")
		return
	}

	c.JSON(http.StatusOK, messages)
}

// ===========================================================================
// Route Registration
// ===========================================================================

// RegisterRoutes registers the embed routes.
// POST /api/conversations and /api/messages keep their historical paths
// outside the versioned API group. The router's method-not-allowed
// handling covers the 405 part of the contract.
func (h *WidgetHandler) RegisterRoutes(api *gin.RouterGroup, anonymousAuth gin.HandlerFunc) {
	api.POST("/conversations", anonymousAuth, h.CreateConversation)
	api.POST("/messages", anonymousAuth, h.CreateMessage)

	widget := api.Group("/widget")
	{
		widget.GET("/settings", h.GetSettings)
		widget.GET("/conversations", anonymousAuth, h.ListConversations)
		widget.GET("/conversations/:id/messages", anonymousAuth, h.ListMessages)
	}
}
