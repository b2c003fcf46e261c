package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/verification"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/crm/backend/internal/infrastructure/persistence/tenant"
)

// GormWhitelistRecordRepository implements WhitelistRecordRepository using
// GORM.
type GormWhitelistRecordRepository struct {
	db *gorm.DB
}

// NewGormWhitelistRecordRepository creates a new GormWhitelistRecordRepository
func NewGormWhitelistRecordRepository(db *gorm.DB) *GormWhitelistRecordRepository {
	return &GormWhitelistRecordRepository{db: db}
}

// Save persists a verification record
func (r *GormWhitelistRecordRepository) Save(ctx context.Context, record *verification.WhitelistVerificationRecord) error {
	model := models.WhitelistVerificationRecordModelFromDomain(record)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a verification record by ID within a tenant
func (r *GormWhitelistRecordRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*verification.WhitelistVerificationRecord, error) {
	var model models.WhitelistVerificationRecordModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByClient lists a client's verification records, newest first
func (r *GormWhitelistRecordRepository) FindByClient(ctx context.Context, tenantID, clientID uuid.UUID, filter shared.Filter) ([]verification.WhitelistVerificationRecord, error) {
	query := r.db.WithContext(ctx).
		Model(&models.WhitelistVerificationRecordModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where("client_id = ?", clientID).
		Order("verified_at DESC")

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if filter.Page > 1 {
			query = query.Offset((filter.Page - 1) * filter.PageSize)
		}
	}

	var recordModels []models.WhitelistVerificationRecordModel
	if err := query.Find(&recordModels).Error; err != nil {
		return nil, err
	}

	records := make([]verification.WhitelistVerificationRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = *model.ToDomain()
	}
	return records, nil
}

var _ verification.WhitelistRecordRepository = (*GormWhitelistRecordRepository)(nil)
