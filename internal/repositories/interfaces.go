package repositories

import (
	"context"
	"time"

	"deplodash/internal/models"

	"github.com/google/uuid"
)

// ===========================================================================
// Repository interfaces
// One interface per entity; GORM implementations live alongside.
// ===========================================================================

// ProfileRepository data access for dashboard accounts
type ProfileRepository interface {
	// FindByID finds a profile by ID
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)

	// FindByEmail finds a profile by login email
	FindByEmail(ctx context.Context, email string) (*models.Profile, error)

	// Create creates a new profile
	Create(ctx context.Context, profile *models.Profile) error

	// Update updates a profile
	Update(ctx context.Context, profile *models.Profile) error
}

// DomainRepository data access for registered domains
type DomainRepository interface {
	// FindByID finds a domain by ID
	FindByID(ctx context.Context, id uuid.UUID) (*models.Domain, error)

	// FindByProfile lists the domains owned by a profile, newest first
	FindByProfile(ctx context.Context, profileID uuid.UUID) ([]models.Domain, error)

	// Create creates a new domain
	Create(ctx context.Context, domain *models.Domain) error

	// Delete soft-deletes a domain
	Delete(ctx context.Context, id uuid.UUID) error
}

// DomainSettingsRepository data access for per-domain chatbot settings
type DomainSettingsRepository interface {
	// FindByDomain returns the settings row for a domain
	FindByDomain(ctx context.Context, domainID uuid.UUID) (*models.DomainSettings, error)

	// Upsert writes the single settings row for a domain, creating it on
	// first write and updating it afterwards
	Upsert(ctx context.Context, settings *models.DomainSettings) error
}

// ListConversationsOptions inbox query parameters
type ListConversationsOptions struct {
	// Filter inbox filter enum
	Filter InboxFilter

	// Sort order over last_message_at
	Sort SortOrder
}

// ConversationRepository data access for conversations
type ConversationRepository interface {
	// FindByID finds a conversation by ID
	FindByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error)

	// FindByDomain lists a domain's conversations for the inbox, applying
	// the filter predicate and sort order. Soft-hidden (status=deleted)
	// conversations are never returned. Tags are preloaded.
	FindByDomain(ctx context.Context, domainID uuid.UUID, opts ListConversationsOptions) ([]models.Conversation, error)

	// FindBySession lists a widget session's conversations, newest
	// last_message_at first, excluding deleted ones
	FindBySession(ctx context.Context, sessionID string) ([]models.Conversation, error)

	// FindActiveBySession returns the most recent active conversation for
	// a widget session, or gorm.ErrRecordNotFound
	FindActiveBySession(ctx context.Context, sessionID string) (*models.Conversation, error)

	// Create creates a new conversation
	Create(ctx context.Context, conv *models.Conversation) error

	// Update updates a conversation
	Update(ctx context.Context, conv *models.Conversation) error

	// TouchLastMessage sets last_message_at on a conversation
	TouchLastMessage(ctx context.Context, id uuid.UUID, at time.Time) error
}

// MessageRepository data access for messages
type MessageRepository interface {
	// FindByID finds a message by ID
	FindByID(ctx context.Context, id uuid.UUID) (*models.Message, error)

	// FindByConversation lists a conversation's messages chronologically
	FindByConversation(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error)

	// Create creates a new message
	Create(ctx context.Context, msg *models.Message) error
}

// TagRepository data access for tags
type TagRepository interface {
	// FindByID finds a tag by ID
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tag, error)

	// FindByDomain lists a domain's tags ordered by name
	FindByDomain(ctx context.Context, domainID uuid.UUID) ([]models.Tag, error)

	// FindByConversation lists the tags applied to a conversation
	FindByConversation(ctx context.Context, conversationID uuid.UUID) ([]models.Tag, error)

	// Create creates a new tag
	Create(ctx context.Context, tag *models.Tag) error

	// Delete removes a tag and its junction rows
	Delete(ctx context.Context, id uuid.UUID) error

	// Attach applies a tag to a conversation (idempotent)
	Attach(ctx context.Context, conversationID, tagID uuid.UUID) error

	// Detach removes a tag from a conversation
	Detach(ctx context.Context, conversationID, tagID uuid.UUID) error
}

// FAQRepository data access for the FAQ knowledge base
type FAQRepository interface {
	// FindByID finds an FAQ by ID
	FindByID(ctx context.Context, id uuid.UUID) (*models.FAQ, error)

	// FindByDomain lists a domain's FAQs, newest first
	FindByDomain(ctx context.Context, domainID uuid.UUID) ([]models.FAQ, error)

	// Create creates a new FAQ
	Create(ctx context.Context, faq *models.FAQ) error

	// Update updates an FAQ
	Update(ctx context.Context, faq *models.FAQ) error

	// Delete removes an FAQ
	Delete(ctx context.Context, id uuid.UUID) error

	// IncrementHitCount bumps the auto-responder hit counter
	IncrementHitCount(ctx context.Context, id uuid.UUID) error
}

// TrainingDataRepository data access for training snippets
type TrainingDataRepository interface {
	// FindByDomain lists a domain's training snippets, newest first
	FindByDomain(ctx context.Context, domainID uuid.UUID) ([]models.TrainingData, error)

	// Create creates a new snippet
	Create(ctx context.Context, data *models.TrainingData) error

	// Update updates a snippet
	Update(ctx context.Context, data *models.TrainingData) error

	// Delete removes a snippet
	Delete(ctx context.Context, id uuid.UUID) error
}
