package repositories

import (
	"context"
	"time"

	"deplodash/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ===========================================================================
// Conversation Repository GORM Implementation
// ===========================================================================

// conversationRepo implements ConversationRepository with GORM
type conversationRepo struct {
	db *gorm.DB
}

// NewConversationRepository creates a new ConversationRepository
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepo{db: db}
}

// FindByID finds a conversation by ID
func (r *conversationRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	if err := r.db.WithContext(ctx).
		Preload("Tags").
		First(&conv, id).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// FindByDomain lists a domain's conversations for the inbox. Deleted
// conversations are always excluded; the filter enum maps onto exact
// (status, is_starred) predicates.
func (r *conversationRepo) FindByDomain(ctx context.Context, domainID uuid.UUID, opts ListConversationsOptions) ([]models.Conversation, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("domain_id = ?", domainID).
		Where("status <> ?", models.StatusDeleted)

	if clause, args := opts.Filter.Predicate(); clause != "" {
		query = query.Where(clause, args...)
	}

	var conversations []models.Conversation
	err := query.
		Preload("Tags").
		Order(opts.Sort.OrderClause()).
		Find(&conversations).Error
	return conversations, err
}

// FindBySession lists a widget session's conversations, newest first
func (r *conversationRepo) FindBySession(ctx context.Context, sessionID string) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Where("status <> ?", models.StatusDeleted).
		Order("last_message_at DESC").
		Find(&conversations).Error
	return conversations, err
}

// FindActiveBySession returns the most recent active conversation for a
// widget session
func (r *conversationRepo) FindActiveBySession(ctx context.Context, sessionID string) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Where("status = ?", models.StatusActive).
		Order("last_message_at DESC").
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// Create creates a new conversation
func (r *conversationRepo) Create(ctx context.Context, conv *models.Conversation) error {
	return r.db.WithContext(ctx).Create(conv).Error
}

// Update updates a conversation
func (r *conversationRepo) Update(ctx context.Context, conv *models.Conversation) error {
	return r.db.WithContext(ctx).Save(conv).Error
}

// TouchLastMessage sets last_message_at without rewriting the whole row
func (r *conversationRepo) TouchLastMessage(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ?", id).
		Update("last_message_at", at).Error
}
