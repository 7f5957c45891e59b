package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ===========================================================================
// Realtime Events and Channel Naming
// Three subscription surfaces mirror what the widget listens on:
// - per-session new conversations
// - per-session conversation updates
// - per-conversation message inserts
// The dashboard inbox additionally listens on a per-domain channel.
// ===========================================================================

// Event types
const (
	EventNewConversation    = "new_conversation"
	EventConversationUpdate = "conversation_update"
	EventNewMessage         = "new_message"
)

// ConversationEvent event when a conversation is created or changes
type ConversationEvent struct {
	Type           string     `json:"type"`
	ConversationID uuid.UUID  `json:"conversation_id"`
	DomainID       uuid.UUID  `json:"domain_id"`
	SessionID      string     `json:"session_id,omitempty"`
	Title          string     `json:"title,omitempty"`
	Status         string     `json:"status,omitempty"`
	IsStarred      bool       `json:"is_starred"`
	IsRead         bool       `json:"is_read"`
	LastMessageAt  *time.Time `json:"last_message_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// MessageEvent event when a new message lands in a conversation
type MessageEvent struct {
	Type           string    `json:"type"`
	MessageID      uuid.UUID `json:"message_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderType     string    `json:"sender_type"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// SessionConversationsChannel carries new-conversation events for a
// widget session
func SessionConversationsChannel(sessionID string) string {
	return fmt.Sprintf("widget:session_%s:conversations", sessionID)
}

// SessionUpdatesChannel carries conversation-update events for a widget
// session
func SessionUpdatesChannel(sessionID string) string {
	return fmt.Sprintf("widget:session_%s:updates", sessionID)
}

// ConversationMessagesChannel carries message inserts for one conversation
func ConversationMessagesChannel(conversationID uuid.UUID) string {
	return fmt.Sprintf("chat:conversation_%s:messages", conversationID.String())
}

// DomainConversationsChannel carries conversation events for a domain's
// dashboard inbox
func DomainConversationsChannel(domainID uuid.UUID) string {
	return fmt.Sprintf("inbox:domain_%s:conversations", domainID.String())
}

// Publisher fan-outs events to everyone watching a conversation:
// the session's widget and the domain's dashboard inbox.
type Publisher interface {
	// PublishNewConversation announces a freshly created conversation
	PublishNewConversation(event *ConversationEvent) error

	// PublishConversationUpdate announces status/star/read changes
	PublishConversationUpdate(event *ConversationEvent) error

	// PublishNewMessage announces a message insert
	PublishNewMessage(event *MessageEvent) error
}

// Subscriber delivers raw event payloads from a named channel.
// The returned Go channel closes when ctx is cancelled.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
