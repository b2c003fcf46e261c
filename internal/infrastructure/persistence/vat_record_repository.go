package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/verification"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/crm/backend/internal/infrastructure/persistence/tenant"
)

// GormVATRecordRepository implements VATRecordRepository using GORM
type GormVATRecordRepository struct {
	db *gorm.DB
}

// NewGormVATRecordRepository creates a new GormVATRecordRepository
func NewGormVATRecordRepository(db *gorm.DB) *GormVATRecordRepository {
	return &GormVATRecordRepository{db: db}
}

// Save persists a validation record. Records are created once; a later save
// only carries the client linkage.
func (r *GormVATRecordRepository) Save(ctx context.Context, record *verification.VATValidationRecord) error {
	model := models.VATValidationRecordModelFromDomain(record)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a validation record by ID within a tenant
func (r *GormVATRecordRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*verification.VATValidationRecord, error) {
	var model models.VATValidationRecordModel
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

// FindLatestByNumberSince returns the most recent record for a VAT number
// validated at or after the given time. Drives the degraded-registry
// fallback.
func (r *GormVATRecordRepository) FindLatestByNumberSince(ctx context.Context, tenantID uuid.UUID, vatNumber string, since time.Time) (*verification.VATValidationRecord, error) {
	var model models.VATValidationRecordModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("vat_number = ? AND validated_at >= ?", vatNumber, since).
		Order("validated_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByClient lists a client's validation records, newest first
func (r *GormVATRecordRepository) FindByClient(ctx context.Context, tenantID, clientID uuid.UUID, filter shared.Filter) ([]verification.VATValidationRecord, error) {
	query := r.db.WithContext(ctx).
		Model(&models.VATValidationRecordModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where("client_id = ?", clientID).
		Order("validated_at DESC")

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if filter.Page > 1 {
			query = query.Offset((filter.Page - 1) * filter.PageSize)
		}
	}

	var recordModels []models.VATValidationRecordModel
	if err := query.Find(&recordModels).Error; err != nil {
		return nil, err
	}

	records := make([]verification.VATValidationRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = *model.ToDomain()
	}
	return records, nil
}

var _ verification.VATRecordRepository = (*GormVATRecordRepository)(nil)
