package repositories

import (
	"context"

	"deplodash/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ===========================================================================
// Domain / DomainSettings Repository GORM Implementations
// ===========================================================================

// domainRepo implements DomainRepository with GORM
type domainRepo struct {
	db *gorm.DB
}

// NewDomainRepository creates a new DomainRepository
func NewDomainRepository(db *gorm.DB) DomainRepository {
	return &domainRepo{db: db}
}

// FindByID finds a domain by ID
func (r *domainRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Domain, error) {
	var domain models.Domain
	if err := r.db.WithContext(ctx).
		Preload("Settings").
		First(&domain, id).Error; err != nil {
		return nil, err
	}
	return &domain, nil
}

// FindByProfile lists the domains owned by a profile, newest first
func (r *domainRepo) FindByProfile(ctx context.Context, profileID uuid.UUID) ([]models.Domain, error) {
	var domains []models.Domain
	err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("created_at DESC").
		Find(&domains).Error
	return domains, err
}

// Create creates a new domain
func (r *domainRepo) Create(ctx context.Context, domain *models.Domain) error {
	return r.db.WithContext(ctx).Create(domain).Error
}

// Delete soft-deletes a domain
func (r *domainRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Domain{}, id).Error
}

// domainSettingsRepo implements DomainSettingsRepository with GORM
type domainSettingsRepo struct {
	db *gorm.DB
}

// NewDomainSettingsRepository creates a new DomainSettingsRepository
func NewDomainSettingsRepository(db *gorm.DB) DomainSettingsRepository {
	return &domainSettingsRepo{db: db}
}

// FindByDomain returns the settings row for a domain
func (r *domainSettingsRepo) FindByDomain(ctx context.Context, domainID uuid.UUID) (*models.DomainSettings, error) {
	var settings models.DomainSettings
	err := r.db.WithContext(ctx).
		Where("domain_id = ?", domainID).
		First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// Upsert writes the single settings row for a domain. The unique index
// on domain_id keeps it at exactly one row.
func (r *domainSettingsRepo) Upsert(ctx context.Context, settings *models.DomainSettings) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "domain_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"chatbot_name", "greeting_message", "primary_color", "header_text_color", "updated_at",
			}),
		}).
		Create(settings).Error
}
