package models

import (
	"github.com/google/uuid"
)

// ===========================================================================
// Message
// One message inside a conversation, sent either by the widget visitor
// ("user") or by the dashboard/auto-responder ("bot").
// ===========================================================================

// SenderType message author kind
type SenderType string

const (
	// SenderUser message typed by the widget visitor
	SenderUser SenderType = "user"

	// SenderBot message from the dashboard agent or the auto-responder
	SenderBot SenderType = "bot"
)

// Valid reports whether s is a known sender type
func (s SenderType) Valid() bool {
	return s == SenderUser || s == SenderBot
}

// Message represents one chat message
type Message struct {
	BaseModel

	// ConversationID parent conversation
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index" json:"conversation_id"`

	// Content message text
	Content string `gorm:"type:text;not null" json:"content"`

	// SenderType user or bot
	SenderType SenderType `gorm:"size:20;not null" json:"sender_type"`

	// UserID profile that sent the message, nil for widget visitors
	UserID *uuid.UUID `gorm:"type:uuid" json:"user_id,omitempty"`

	// Relations
	Conversation Conversation `gorm:"foreignKey:ConversationID" json:"conversation,omitempty"`
}

// TableName returns the table name
func (Message) TableName() string {
	return "messages"
}

// IsFromUser reports whether the message came from the widget visitor
func (m *Message) IsFromUser() bool { return m.SenderType == SenderUser }

// IsFromBot reports whether the message came from the bot side
func (m *Message) IsFromBot() bool { return m.SenderType == SenderBot }

// ContentPreview returns at most maxLen characters of the content
func (m *Message) ContentPreview(maxLen int) string {
	if len(m.Content) > maxLen {
		return m.Content[:maxLen-3] + "..."
	}
	return m.Content
}
