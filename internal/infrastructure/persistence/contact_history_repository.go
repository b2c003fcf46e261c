package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crm/backend/internal/domain/client"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/crm/backend/internal/infrastructure/persistence/tenant"
)

// GormContactHistoryRepository implements ContactHistoryRepository using
// GORM. Entries are append-only and survive soft-deletion of the contact.
type GormContactHistoryRepository struct {
	db *gorm.DB
}

// NewGormContactHistoryRepository creates a new GormContactHistoryRepository
func NewGormContactHistoryRepository(db *gorm.DB) *GormContactHistoryRepository {
	return &GormContactHistoryRepository{db: db}
}

// Save appends a history entry
func (r *GormContactHistoryRepository) Save(ctx context.Context, entry *client.ContactHistoryEntry) error {
	model := models.ContactHistoryModelFromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByContact lists a contact's history, newest first
func (r *GormContactHistoryRepository) FindByContact(ctx context.Context, tenantID, contactID uuid.UUID) ([]client.ContactHistoryEntry, error) {
	var historyModels []models.ContactHistoryModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("contact_id = ?", contactID).
		Order("performed_at DESC").
		Find(&historyModels).Error; err != nil {
		return nil, err
	}

	entries := make([]client.ContactHistoryEntry, len(historyModels))
	for i, model := range historyModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}

var _ client.ContactHistoryRepository = (*GormContactHistoryRepository)(nil)
