package models

import (
	"time"

	"github.com/google/uuid"
)

// ===========================================================================
// Tag
// Labels for organizing conversations in the inbox. Filtering by several
// tags requires a conversation to carry every selected tag.
// ===========================================================================

// Tag represents an inbox label
type Tag struct {
	BaseModel

	// DomainID owning domain
	DomainID uuid.UUID `gorm:"type:uuid;not null;index" json:"domain_id"`

	// Name tag name (e.g. "VIP", "Billing")
	Name string `gorm:"size:100;not null" json:"name"`

	// Color display color (hex, e.g. "#f59e0b")
	Color string `gorm:"size:20;not null;default:'#6366f1'" json:"color"`

	// Relations
	Domain        Domain         `gorm:"foreignKey:DomainID" json:"domain,omitempty"`
	Conversations []Conversation `gorm:"many2many:conversation_tags" json:"conversations,omitempty"`
}

// TableName returns the table name
func (Tag) TableName() string {
	return "tags"
}

// ===========================================================================
// ConversationTag
// Junction row for the conversation-tag many-to-many relation.
// ===========================================================================

// ConversationTag links a conversation to a tag
type ConversationTag struct {
	// ID primary key
	ID uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`

	// ConversationID tagged conversation
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index:idx_conversation_tag,unique" json:"conversation_id"`

	// TagID applied tag
	TagID uuid.UUID `gorm:"type:uuid;not null;index:idx_conversation_tag,unique" json:"tag_id"`

	// CreatedAt when the tag was applied
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`

	// Relations
	Conversation Conversation `gorm:"foreignKey:ConversationID" json:"conversation,omitempty"`
	Tag          Tag          `gorm:"foreignKey:TagID" json:"tag,omitempty"`
}

// TableName returns the table name
func (ConversationTag) TableName() string {
	return "conversation_tags"
}
