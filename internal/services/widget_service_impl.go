package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"deplodash/internal/bot"
	apperrors "deplodash/internal/errors"
	"deplodash/internal/metrics"
	"deplodash/internal/models"
	"deplodash/internal/realtime"
	"deplodash/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ===========================================================================
// Widget Service Implementation
// Core flow of the embeddable widget: create conversation -> post message
// -> touch parent -> bot auto-reply -> publish realtime events.
// The create + post steps are deliberately separate requests on the wire,
// so a conversation can exist with no messages if the second step fails.
// ===========================================================================

// widgetServiceImpl implements WidgetService
type widgetServiceImpl struct {
	conversationRepo   repositories.ConversationRepository
	messageRepo        repositories.MessageRepository
	responder          bot.Responder
	publisher          realtime.Publisher
	conversationExpiry time.Duration
	logger             *zap.Logger
}

// NewWidgetService creates a new WidgetService
func NewWidgetService(
	conversationRepo repositories.ConversationRepository,
	messageRepo repositories.MessageRepository,
	responder bot.Responder,
	publisher realtime.Publisher,
	conversationExpiry time.Duration,
	logger *zap.Logger,
) WidgetService {
	return &widgetServiceImpl{
		conversationRepo:   conversationRepo,
		messageRepo:        messageRepo,
		responder:          responder,
		publisher:          publisher,
		conversationExpiry: conversationExpiry,
		logger:             logger,
	}
}

// conversationEvent builds the realtime payload for a conversation
func conversationEvent(conv *models.Conversation) *realtime.ConversationEvent {
	sessionID := ""
	if conv.SessionID != nil {
		sessionID = *conv.SessionID
	}
	return &realtime.ConversationEvent{
		ConversationID: conv.ID,
		DomainID:       conv.DomainID,
		SessionID:      sessionID,
		Title:          conv.Title,
		Status:         string(conv.Status),
		IsStarred:      conv.IsStarred,
		IsRead:         conv.IsRead,
		LastMessageAt:  conv.LastMessageAt,
		CreatedAt:      conv.CreatedAt,
	}
}

// CreateConversation starts a new conversation for a widget session
func (s *widgetServiceImpl) CreateConversation(ctx context.Context, domainID uuid.UUID, sessionID, title string) (*models.Conversation, error) {
	if sessionID == "" {
		return nil, apperrors.ErrInvalidInput
	}
	if title == "" {
		title = "New Conversation"
	}

	now := time.Now()
	conv := &models.Conversation{
		DomainID:      domainID,
		SessionID:     &sessionID,
		Title:         title,
		Status:        models.StatusActive,
		LastMessageAt: &now,
	}

	if err := s.conversationRepo.Create(ctx, conv); err != nil {
		s.logger.Error("create conversation failed",
			zap.String("domain_id", domainID.String()),
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	metrics.Global().ConversationsCreated.Inc()

	if err := s.publisher.PublishNewConversation(conversationEvent(conv)); err != nil {
		// Realtime is best effort, the row is already committed
		s.logger.Warn("publish new conversation failed",
			zap.String("conversation_id", conv.ID.String()),
			zap.Error(err),
		)
	} else {
		metrics.Global().RealtimePublished.Inc()
	}

	s.logger.Info("conversation created",
		zap.String("conversation_id", conv.ID.String()),
		zap.String("session_id", sessionID),
	)

	return conv, nil
}

// SendMessage appends a message and triggers the bot auto-reply
func (s *widgetServiceImpl) SendMessage(ctx context.Context, input SendMessageInput) (*SendMessageResult, error) {
	if input.Content == "" || !input.SenderType.Valid() {
		return nil, apperrors.ErrInvalidInput
	}

	conv, err := s.conversationRepo.FindByID(ctx, input.ConversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("find conversation: %w", err)
	}

	// A session can only write to its own conversations
	if conv.SessionID == nil || *conv.SessionID != input.SessionID {
		return nil, apperrors.ErrForbidden
	}

	// Archived conversations are read-only in the widget
	if !conv.IsActive() {
		return nil, apperrors.ErrConflict
	}

	msg, err := s.appendMessage(ctx, conv, input.Content, input.SenderType)
	if err != nil {
		return nil, err
	}

	result := &SendMessageResult{Message: msg}

	// The bot only answers visitor messages
	if input.SenderType == models.SenderUser {
		reply, err := s.botReply(ctx, conv, input.Content)
		if err != nil {
			// Visitor message is saved, losing the auto-reply is not fatal
			s.logger.Warn("bot reply failed",
				zap.String("conversation_id", conv.ID.String()),
				zap.Error(err),
			)
		} else {
			result.BotReply = reply
		}
	}

	return result, nil
}

// appendMessage writes the message, touches the parent and publishes
func (s *widgetServiceImpl) appendMessage(ctx context.Context, conv *models.Conversation, content string, senderType models.SenderType) (*models.Message, error) {
	msg := &models.Message{
		ConversationID: conv.ID,
		Content:        content,
		SenderType:     senderType,
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		s.logger.Error("create message failed",
			zap.String("conversation_id", conv.ID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("create message: %w", err)
	}

	now := time.Now()
	if err := s.conversationRepo.TouchLastMessage(ctx, conv.ID, now); err != nil {
		s.logger.Warn("touch last_message_at failed",
			zap.String("conversation_id", conv.ID.String()),
			zap.Error(err),
		)
	}
	conv.LastMessageAt = &now

	metrics.Global().MessagesCreated.WithLabelValues(string(senderType)).Inc()

	if err := s.publisher.PublishNewMessage(&realtime.MessageEvent{
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
		SenderType:     string(msg.SenderType),
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
	}); err != nil {
		s.logger.Warn("publish message failed",
			zap.String("message_id", msg.ID.String()),
			zap.Error(err),
		)
	} else {
		metrics.Global().RealtimePublished.Inc()
	}

	// The inbox sorts on last_message_at, so every insert is also a
	// conversation update
	if err := s.publisher.PublishConversationUpdate(conversationEvent(conv)); err != nil {
		s.logger.Warn("publish conversation update failed",
			zap.String("conversation_id", conv.ID.String()),
			zap.Error(err),
		)
	} else {
		metrics.Global().RealtimePublished.Inc()
	}

	return msg, nil
}

// botReply runs the responder and appends its answer
func (s *widgetServiceImpl) botReply(ctx context.Context, conv *models.Conversation, content string) (*models.Message, error) {
	response, err := s.responder.Process(ctx, conv.DomainID, content)
	if err != nil {
		return nil, err
	}

	reply, err := s.appendMessage(ctx, conv, response.Content, models.SenderBot)
	if err != nil {
		return nil, err
	}

	metrics.Global().BotReplies.Inc()
	if response.MatchedFAQ != nil {
		metrics.Global().FAQHits.Inc()
	}

	return reply, nil
}

// ArchiveExpired archives a session's stale active conversations.
// Runs at widget init so returning visitors don't resume long-dead
// threads.
func (s *widgetServiceImpl) ArchiveExpired(ctx context.Context, sessionID string, now time.Time) ([]uuid.UUID, error) {
	conversations, err := s.conversationRepo.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("find session conversations: %w", err)
	}

	var archived []uuid.UUID
	for i := range conversations {
		conv := &conversations[i]
		if !conv.IsActive() || !conv.ExpiredAt(now, s.conversationExpiry) {
			continue
		}

		conv.Archive()
		if err := s.conversationRepo.Update(ctx, conv); err != nil {
			s.logger.Error("archive expired conversation failed",
				zap.String("conversation_id", conv.ID.String()),
				zap.Error(err),
			)
			continue
		}

		archived = append(archived, conv.ID)

		if err := s.publisher.PublishConversationUpdate(conversationEvent(conv)); err != nil {
			s.logger.Warn("publish archive update failed",
				zap.String("conversation_id", conv.ID.String()),
				zap.Error(err),
			)
		}
	}

	if len(archived) > 0 {
		s.logger.Info("expired conversations archived",
			zap.String("session_id", sessionID),
			zap.Int("count", len(archived)),
		)
	}

	return archived, nil
}
