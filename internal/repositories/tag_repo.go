package repositories

import (
	"context"

	"deplodash/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ===========================================================================
// Tag Repository GORM Implementation
// ===========================================================================

// tagRepo implements TagRepository with GORM
type tagRepo struct {
	db *gorm.DB
}

// NewTagRepository creates a new TagRepository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepo{db: db}
}

// FindByID finds a tag by ID
func (r *tagRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// FindByDomain lists a domain's tags ordered by name
func (r *tagRepo) FindByDomain(ctx context.Context, domainID uuid.UUID) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.db.WithContext(ctx).
		Where("domain_id = ?", domainID).
		Order("name ASC").
		Find(&tags).Error
	return tags, err
}

// FindByConversation lists the tags applied to a conversation
func (r *tagRepo) FindByConversation(ctx context.Context, conversationID uuid.UUID) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.db.WithContext(ctx).
		Joins("JOIN conversation_tags ON conversation_tags.tag_id = tags.id").
		Where("conversation_tags.conversation_id = ?", conversationID).
		Order("tags.name ASC").
		Find(&tags).Error
	return tags, err
}

// Create creates a new tag
func (r *tagRepo) Create(ctx context.Context, tag *models.Tag) error {
	return r.db.WithContext(ctx).Create(tag).Error
}

// Delete removes a tag and its junction rows
func (r *tagRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", id).Delete(&models.ConversationTag{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.Tag{}, id).Error
	})
}

// Attach applies a tag to a conversation. The unique junction index
// makes repeated attaches a no-op.
func (r *tagRepo) Attach(ctx context.Context, conversationID, tagID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ConversationTag{
			ConversationID: conversationID,
			TagID:          tagID,
		}).Error
}

// Detach removes a tag from a conversation
func (r *tagRepo) Detach(ctx context.Context, conversationID, tagID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("conversation_id = ? AND tag_id = ?", conversationID, tagID).
		Delete(&models.ConversationTag{}).Error
}
