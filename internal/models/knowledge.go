package models

import (
	"github.com/google/uuid"
)

// ===========================================================================
// FAQ / TrainingData
// The per-domain knowledge base. FAQs are question/answer pairs the
// auto-responder matches against; training data is free-form context.
// ===========================================================================

// FAQ represents one question/answer pair
type FAQ struct {
	BaseModel

	// DomainID owning domain
	DomainID uuid.UUID `gorm:"type:uuid;not null;index" json:"domain_id"`

	// Question customer-facing question text
	Question string `gorm:"type:text;not null" json:"question"`

	// Answer reply the bot sends when the question matches
	Answer string `gorm:"type:text;not null" json:"answer"`

	// HitCount number of times the auto-responder used this FAQ
	HitCount int64 `gorm:"default:0" json:"hit_count"`

	// Relations
	Domain Domain `gorm:"foreignKey:DomainID" json:"domain,omitempty"`
}

// TableName returns the table name
func (FAQ) TableName() string {
	return "faqs"
}

// TrainingData represents one free-form knowledge snippet
type TrainingData struct {
	BaseModel

	// DomainID owning domain
	DomainID uuid.UUID `gorm:"type:uuid;not null;index" json:"domain_id"`

	// Content snippet text
	Content string `gorm:"type:text;not null" json:"content"`

	// Relations
	Domain Domain `gorm:"foreignKey:DomainID" json:"domain,omitempty"`
}

// TableName returns the table name
func (TrainingData) TableName() string {
	return "training_data"
}
