package models

import (
	"time"

	"github.com/google/uuid"
)

// ===========================================================================
// Conversation
// A chat session on a domain. Dashboard-created conversations carry the
// owning profile id; widget-created conversations carry the visitor's
// session id instead. Status "deleted" is a soft hide - the dashboard
// never physically removes a conversation.
// ===========================================================================

// ConversationStatus conversation lifecycle state
type ConversationStatus string

const (
	// StatusActive open conversation, visible in the inbox
	StatusActive ConversationStatus = "active"

	// StatusArchived closed conversation, widget input disabled
	StatusArchived ConversationStatus = "archived"

	// StatusDeleted hidden from every listing, kept in storage
	StatusDeleted ConversationStatus = "deleted"
)

// Conversation represents one chat session
type Conversation struct {
	BaseModel

	// DomainID domain the conversation belongs to
	DomainID uuid.UUID `gorm:"type:uuid;not null;index" json:"domain_id"`

	// UserID owning profile, nil for anonymous widget visitors
	UserID *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`

	// SessionID widget visitor correlation key, nil for dashboard-created
	// conversations. The only link between a browser and its history.
	SessionID *string `gorm:"size:64;index" json:"session_id,omitempty"`

	// Title optional display title
	Title string `gorm:"size:255" json:"title,omitempty"`

	// Status active, archived or deleted
	Status ConversationStatus `gorm:"size:20;not null;default:'active';index" json:"status"`

	// IsStarred starred conversations show under the "urgent" filter
	IsStarred bool `gorm:"default:false" json:"is_starred"`

	// IsRead whether the inbox has seen the latest message
	IsRead bool `gorm:"default:false" json:"is_read"`

	// LastMessageAt time of the most recent message, drives inbox sorting
	// and widget expiry
	LastMessageAt *time.Time `gorm:"index" json:"last_message_at,omitempty"`

	// Relations
	Domain   Domain    `gorm:"foreignKey:DomainID" json:"domain,omitempty"`
	Messages []Message `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
	Tags     []Tag     `gorm:"many2many:conversation_tags" json:"tags,omitempty"`
}

// TableName returns the table name
func (Conversation) TableName() string {
	return "conversations"
}

// IsActive reports whether the conversation is open
func (c *Conversation) IsActive() bool { return c.Status == StatusActive }

// IsArchived reports whether the conversation is archived
func (c *Conversation) IsArchived() bool { return c.Status == StatusArchived }

// IsAnonymous reports whether the conversation was created by a widget
// visitor rather than a dashboard user
func (c *Conversation) IsAnonymous() bool { return c.SessionID != nil }

// Archive closes the conversation
func (c *Conversation) Archive() {
	c.Status = StatusArchived
}

// TouchLastMessage stamps the last-message time
func (c *Conversation) TouchLastMessage(at time.Time) {
	c.LastMessageAt = &at
}

// ExpiredAt reports whether the conversation's last message is older
// than the given expiry window at time now. Conversations that never
// received a message do not expire.
func (c *Conversation) ExpiredAt(now time.Time, window time.Duration) bool {
	if c.LastMessageAt == nil {
		return false
	}
	return c.LastMessageAt.Before(now.Add(-window))
}
