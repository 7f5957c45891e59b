package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ===========================================================================
// BaseModel
// Common fields shared by every model: UUID primary key, timestamps and
// soft delete.
// ===========================================================================

// BaseModel contains the common columns for all models
type BaseModel struct {
	// ID is a UUID primary key, generated if not set
	ID uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`

	// CreatedAt record creation time
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`

	// UpdatedAt last modification time
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`

	// DeletedAt soft delete marker, non-null means deleted
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate hook generates a UUID if none was provided
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// GetID returns the model ID
func (b *BaseModel) GetID() uuid.UUID {
	return b.ID
}

// IsDeleted reports whether the model has been soft deleted
func (b *BaseModel) IsDeleted() bool {
	return b.DeletedAt.Valid
}
