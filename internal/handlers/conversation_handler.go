package handlers

import (
	"net/http"
	"time"

	"deplodash/internal/dto"
	"deplodash/internal/metrics"
	"deplodash/internal/middleware"
	"deplodash/internal/models"
	"deplodash/internal/realtime"
	"deplodash/internal/repositories"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ===========================================================================
// Conversation Handler
// Dashboard inbox API: list with filter/sort, status and flag updates,
// message history, operator replies and tag assignment
// ===========================================================================

// ConversationHandler handles inbox endpoints
type ConversationHandler struct {
	conversationRepo repositories.ConversationRepository
	messageRepo      repositories.MessageRepository
	tagRepo          repositories.TagRepository
	domainRepo       repositories.DomainRepository
	publisher        realtime.Publisher
	logger           *zap.Logger
}

// NewConversationHandler creates a new handler
func NewConversationHandler(
	conversationRepo repositories.ConversationRepository,
	messageRepo repositories.MessageRepository,
	tagRepo repositories.TagRepository,
	domainRepo repositories.DomainRepository,
	publisher realtime.Publisher,
	logger *zap.Logger,
) *ConversationHandler {
	return &ConversationHandler{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		tagRepo:          tagRepo,
		domainRepo:       domainRepo,
		publisher:        publisher,
		logger:           logger,
	}
}

// ===========================================================================
// Request DTOs
// ===========================================================================

// ListConversationsQuery query params for the inbox list
type ListConversationsQuery struct {
	DomainID string `form:"domain_id" binding:"required"`
	Filter   string `form:"filter" binding:"omitempty,oneof=active urgent closed all"`
	Sort     string `form:"sort" binding:"omitempty,oneof=newest oldest"`
}

// UpdateConversationBody body for conversation updates
type UpdateConversationBody struct {
	Status    *string `json:"status" binding:"omitempty,oneof=active archived deleted"`
	IsStarred *bool   `json:"is_starred"`
	IsRead    *bool   `json:"is_read"`
	Title     *string `json:"title" binding:"omitempty,max=255"`
}

// OperatorMessageBody body for an operator reply
type OperatorMessageBody struct {
	Content string `json:"content" binding:"required,min=1,max=5000"`
}

// TagAssignmentBody body for attaching/detaching a tag
type TagAssignmentBody struct {
	TagID uuid.UUID `json:"tag_id" binding:"required"`
}

// ===========================================================================
// Handlers
// ===========================================================================

// List lists a domain's conversations for the inbox
// GET /api/v1/conversations?domain_id=xxx&filter=active&sort=newest
func (h *ConversationHandler) List(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	ctx := c.Request.Context()

	profileID, _ := middleware.GetUserID(c)

	var query ListConversationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "domain_id is required"))
		return
	}

	domainID, err := uuid.Parse(query.DomainID)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "Invalid domain_id"))
		return
	}

	if _, err := authorizeDomain(ctx, h.domainRepo, profileID, domainID); err != nil {
		writeAuthzError(c, h.logger, requestID, err)
		return
	}

	opts := repositories.ListConversationsOptions{
		Filter: repositories.InboxFilter(query.Filter),
		Sort:   repositories.SortOrder(query.Sort),
	}
	if opts.Filter == "" {
		opts.Filter = repositories.FilterActive
	}
	if opts.Sort == "" {
		opts.Sort = repositories.SortNewest
	}

	conversations, err := h.conversationRepo.FindByDomain(ctx, domainID, opts)
	if err != nil {
		handleDBError(c, h.logger, requestID, err, "conversations")
		return
	}

	c.JSON(http.StatusOK, dto.Success(conversations))
}

// loadOwned loads a conversation and verifies the profile owns its domain
func (h *ConversationHandler) loadOwned(c *gin.Context, requestID string) (*models.Conversation, bool) {
	ctx := c.Request.Context()
	profileID, _ := middleware.GetUserID(c)

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "Invalid conversation ID"))
		return nil, false
	}

	conversation, err := h.conversationRepo.FindByID(ctx, conversationID)
	if err != nil {
		handleDBError(c, h.logger, requestID, err, "conversation")
		return nil, false
	}

	if _, err := authorizeDomain(ctx, h.domainRepo, profileID, conversation.DomainID); err != nil {
		writeAuthzError(c, h.logger, requestID, err)
		return nil, false
	}

	return conversation, true
}

// Get returns one conversation
// GET /api/v1/conversations/:id
func (h *ConversationHandler) Get(c *gin.Context) {
	requestID := middleware.GetRequestID(c)

	conversation, ok := h.loadOwned(c, requestID)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, dto.Success(conversation))
}

// Update patches status, star, read or title
// PATCH /api/v1/conversations/:id
func (h *ConversationHandler) Update(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	ctx := c.Request.Context()

	conversation, ok := h.loadOwned(c, requestID)
	if !ok {
		return
	}

	var body UpdateConversationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", err.Error()))
		return
	}

	if body.Status != nil {
		conversation.Status = models.ConversationStatus(*body.Status)
	}
	if body.IsStarred != nil {
		conversation.IsStarred = *body.IsStarred
	}
	if body.IsRead != nil {
		conversation.IsRead = *body.IsRead
	}
	if body.Title != nil {
		conversation.Title = *body.Title
	}

	if err := h.conversationRepo.Update(ctx, conversation); err != nil {
		handleDBError(c, h.logger, requestID, err, "conversation")
		return
	}

	h.publishUpdate(conversation)

	h.logger.Info("conversation updated",
		zap.String("request_id", requestID),
		zap.String("conversation_id", conversation.ID.String()),
	)

	c.JSON(http.StatusOK, dto.Success(conversation))
}

// ListMessages returns a conversation's messages, oldest first
// GET /api/v1/conversations/:id/messages
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	ctx := c.Request.Context()

	conversation, ok := h.loadOwned(c, requestID)
	if !ok {
		return
	}

	messages, err := h.messageRepo.FindByConversation(ctx, conversation.ID)
	if err != nil {
		handleDBError(c, h.logger, requestID, err, "messages")
		return
	}

	c.JSON(http.StatusOK, dto.Success(messages))
}

// SendMessage posts an operator reply into a conversation.
// Replies go out under the bot identity so the widget renders them the
// same as automatic answers.
// POST /api/v1/conversations/:id/messages
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	ctx := c.Request.Context()

	profileID, _ := middleware.GetUserID(c)

	conversation, ok := h.loadOwned(c, requestID)
	if !ok {
		return
	}

	if !conversation.IsActive() {
		c.JSON(http.StatusConflict, dto.Error("CONVERSATION_CLOSED", "Cannot reply to an archived conversation"))
		return
	}

	var body OperatorMessageBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", err.Error()))
		return
	}

	message := &models.Message{
		ConversationID: conversation.ID,
		Content:        body.Content,
		SenderType:     models.SenderBot,
		UserID:         &profileID,
	}

	if err := h.messageRepo.Create(ctx, message); err != nil {
		handleDBError(c, h.logger, requestID, err, "message")
		return
	}

	now := time.Now()
	if err := h.conversationRepo.TouchLastMessage(ctx, conversation.ID, now); err != nil {
		h.logger.Warn("touch last_message_at failed",
			zap.String("request_id", requestID),
			zap.String("conversation_id", conversation.ID.String()),
			zap.Error(err),
		)
	}
	conversation.LastMessageAt = &now

	metrics.Global().MessagesCreated.WithLabelValues(string(models.SenderBot)).Inc()

	if err := h.publisher.PublishNewMessage(&realtime.MessageEvent{
		MessageID:      message.ID,
		ConversationID: message.ConversationID,
		SenderType:     string(message.SenderType),
		Content:        message.Content,
		CreatedAt:      message.CreatedAt,
	}); err != nil {
		h.logger.Warn("publish message failed",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
	}
	h.publishUpdate(conversation)

	c.JSON(http.StatusCreated, dto.Success(message))
}

// AttachTag applies a tag to a conversation
// POST /api/v1/conversations/:id/tags
func (h *ConversationHandler) AttachTag(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	ctx := c.Request.Context()

	conversation, ok := h.loadOwned(c, requestID)
	if !ok {
		return
	}

	var body TagAssignmentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", err.Error()))
		return
	}

	// The tag must belong to the same domain as the conversation
	tag, err := h.tagRepo.FindByID(ctx, body.TagID)
	if err != nil || tag.DomainID != conversation.DomainID {
		c.JSON(http.StatusNotFound, dto.Error("NOT_FOUND", "The requested tag was not found"))
		return
	}

	if err := h.tagRepo.Attach(ctx, conversation.ID, tag.ID); err != nil {
		handleDBError(c, h.logger, requestID, err, "tag assignment")
		return
	}

	tags, err := h.tagRepo.FindByConversation(ctx, conversation.ID)
	if err != nil {
		handleDBError(c, h.logger, requestID, err, "tags")
		return
	}

	c.JSON(http.StatusOK, dto.Success(tags))
}

// DetachTag removes a tag from a conversation
// DELETE /api/v1/conversations/:id/tags/:tagId
func (h *ConversationHandler) DetachTag(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	ctx := c.Request.Context()

	conversation, ok := h.loadOwned(c, requestID)
	if !ok {
		return
	}

	tagID, err := uuid.Parse(c.Param("tagId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "Invalid tag ID"))
		return
	}

	if err := h.tagRepo.Detach(ctx, conversation.ID, tagID); err != nil {
		handleDBError(c, h.logger, requestID, err, "tag assignment")
		return
	}

	tags, err := h.tagRepo.FindByConversation(ctx, conversation.ID)
	if err != nil {
		handleDBError(c, h.logger, requestID, err, "tags")
		return
	}

	c.JSON(http.StatusOK, dto.Success(tags))
}

// publishUpdate pushes a conversation update to the widget session and
// the domain inbox
func (h *ConversationHandler) publishUpdate(conversation *models.Conversation) {
	sessionID := ""
	if conversation.SessionID != nil {
		sessionID = *conversation.SessionID
	}

	event := &realtime.ConversationEvent{
		ConversationID: conversation.ID,
		DomainID:       conversation.DomainID,
		SessionID:      sessionID,
		Title:          conversation.Title,
		Status:         string(conversation.Status),
		IsStarred:      conversation.IsStarred,
		IsRead:         conversation.IsRead,
		LastMessageAt:  conversation.LastMessageAt,
		CreatedAt:      conversation.CreatedAt,
	}

	if err := h.publisher.PublishConversationUpdate(event); err != nil {
		h.logger.Warn("publish conversation update failed",
			zap.String("conversation_id", conversation.ID.String()),
			zap.Error(err),
		)
	} else {
		metrics.Global().RealtimePublished.Inc()
	}
}

// ===========================================================================
// Route Registration
// ===========================================================================

// RegisterRoutes registers inbox routes (all behind auth)
func (h *ConversationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	conversations := rg.Group("/conversations")
	{
		conversations.GET("", h.List)
		conversations.GET("/:id", h.Get)
		conversations.PATCH("/:id", h.Update)
		conversations.GET("/:id/messages", h.ListMessages)
		conversations.POST("/:id/messages", h.SendMessage)
		conversations.POST("/:id/tags", h.AttachTag)
		conversations.DELETE("/:id/tags/:tagId", h.DetachTag)
	}
}
