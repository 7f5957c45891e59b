package repositories

import (
	"context"

	"deplodash/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ===========================================================================
// FAQ / TrainingData Repository GORM Implementations
// ===========================================================================

// faqRepo implements FAQRepository with GORM
type faqRepo struct {
	db *gorm.DB
}

// NewFAQRepository creates a new FAQRepository
func NewFAQRepository(db *gorm.DB) FAQRepository {
	return &faqRepo{db: db}
}

// FindByID finds an FAQ by ID
func (r *faqRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.FAQ, error) {
	var faq models.FAQ
	if err := r.db.WithContext(ctx).First(&faq, id).Error; err != nil {
		return nil, err
	}
	return &faq, nil
}

// FindByDomain lists a domain's FAQs, newest first
func (r *faqRepo) FindByDomain(ctx context.Context, domainID uuid.UUID) ([]models.FAQ, error) {
	var faqs []models.FAQ
	err := r.db.WithContext(ctx).
		Where("domain_id = ?", domainID).
		Order("created_at DESC").
		Find(&faqs).Error
	return faqs, err
}

// Create creates a new FAQ
func (r *faqRepo) Create(ctx context.Context, faq *models.FAQ) error {
	return r.db.WithContext(ctx).Create(faq).Error
}

// Update updates an FAQ
func (r *faqRepo) Update(ctx context.Context, faq *models.FAQ) error {
	return r.db.WithContext(ctx).Save(faq).Error
}

// Delete removes an FAQ
func (r *faqRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&models.FAQ{}, id).Error
}

// IncrementHitCount bumps the auto-responder hit counter
func (r *faqRepo) IncrementHitCount(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.FAQ{}).
		Where("id = ?", id).
		Update("hit_count", gorm.Expr("hit_count + 1")).Error
}

// trainingDataRepo implements TrainingDataRepository with GORM
type trainingDataRepo struct {
	db *gorm.DB
}

// NewTrainingDataRepository creates a new TrainingDataRepository
func NewTrainingDataRepository(db *gorm.DB) TrainingDataRepository {
	return &trainingDataRepo{db: db}
}

// FindByDomain lists a domain's training snippets, newest first
func (r *trainingDataRepo) FindByDomain(ctx context.Context, domainID uuid.UUID) ([]models.TrainingData, error) {
	var data []models.TrainingData
	err := r.db.WithContext(ctx).
		Where("domain_id = ?", domainID).
		Order("created_at DESC").
		Find(&data).Error
	return data, err
}

// Create creates a new snippet
func (r *trainingDataRepo) Create(ctx context.Context, data *models.TrainingData) error {
	return r.db.WithContext(ctx).Create(data).Error
}

// Update updates a snippet
func (r *trainingDataRepo) Update(ctx context.Context, data *models.TrainingData) error {
	return r.db.WithContext(ctx).Save(data).Error
}

// Delete removes a snippet
func (r *trainingDataRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&models.TrainingData{}, id).Error
}
