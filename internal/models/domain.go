package models

import (
	"github.com/google/uuid"
)

// ===========================================================================
// Domain
// A website a profile has registered a chatbot for. Conversations, tags,
// FAQs and training data all hang off a domain.
// ===========================================================================

// Domain represents a registered website
type Domain struct {
	BaseModel

	// ProfileID owning profile
	ProfileID uuid.UUID `gorm:"type:uuid;not null;index" json:"profile_id"`

	// Name domain name (e.g. "shop.example.com")
	Name string `gorm:"size:255;not null" json:"name"`

	// Relations
	Profile       Profile        `gorm:"foreignKey:ProfileID" json:"profile,omitempty"`
	Settings      *DomainSettings `gorm:"foreignKey:DomainID" json:"settings,omitempty"`
	Conversations []Conversation `gorm:"foreignKey:DomainID" json:"conversations,omitempty"`
	Tags          []Tag          `gorm:"foreignKey:DomainID" json:"tags,omitempty"`
	FAQs          []FAQ          `gorm:"foreignKey:DomainID" json:"faqs,omitempty"`
	TrainingData  []TrainingData `gorm:"foreignKey:DomainID" json:"training_data,omitempty"`
}

// TableName returns the table name
func (Domain) TableName() string {
	return "domains"
}

// ===========================================================================
// DomainSettings
// Per-domain chatbot appearance and greeting. Exactly one row per domain,
// written with an upsert keyed on domain_id.
// ===========================================================================

// DomainSettings holds the widget configuration for one domain
type DomainSettings struct {
	BaseModel

	// DomainID 1:1 with Domain
	DomainID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"domain_id"`

	// ChatbotName name shown in the widget header
	ChatbotName string `gorm:"size:100;not null;default:'Chatbot'" json:"chatbot_name"`

	// GreetingMessage first message shown to a visitor
	GreetingMessage string `gorm:"type:text" json:"greeting_message"`

	// PrimaryColor widget accent color (hex, e.g. "#4f46e5")
	PrimaryColor string `gorm:"size:20;not null;default:'#4f46e5'" json:"primary_color"`

	// HeaderTextColor header text color (hex)
	HeaderTextColor string `gorm:"size:20;not null;default:'#ffffff'" json:"header_text_color"`

	// Relations
	Domain Domain `gorm:"foreignKey:DomainID" json:"domain,omitempty"`
}

// TableName returns the table name
func (DomainSettings) TableName() string {
	return "domain_settings"
}
