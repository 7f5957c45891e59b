package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ===========================================================================
// Profile
// A dashboard account: the owner of domains, conversations and tags.
// Widget visitors are NOT profiles, they are identified by a session id
// on their conversations.
// ===========================================================================

// Profile represents an authenticated dashboard user
type Profile struct {
	BaseModel

	// Username unique short handle
	Username string `gorm:"size:100;uniqueIndex;not null" json:"username"`

	// FullName display name
	FullName string `gorm:"size:255" json:"full_name"`

	// Email login email, unique
	Email string `gorm:"size:255;uniqueIndex;not null" json:"email"`

	// PasswordHash bcrypt hash, never serialized
	PasswordHash string `gorm:"size:255;not null" json:"-"`

	// RefreshTokenHash hash of the current refresh token, never serialized.
	// Used to validate and revoke refresh tokens.
	RefreshTokenHash *string `gorm:"size:255" json:"-"`

	// AvatarURL avatar image URL
	AvatarURL *string `gorm:"size:500" json:"avatar_url,omitempty"`

	// LastSeenAt last time the user was online
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`

	// Relations
	Domains []Domain `gorm:"foreignKey:ProfileID" json:"domains,omitempty"`
}

// TableName returns the table name
func (Profile) TableName() string {
	return "profiles"
}

// SetPassword hashes and sets the password with bcrypt default cost
func (p *Profile) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether the given password matches
func (p *Profile) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) == nil
}

// UpdateLastSeen stamps the last-online time
func (p *Profile) UpdateLastSeen() {
	now := time.Now()
	p.LastSeenAt = &now
}
