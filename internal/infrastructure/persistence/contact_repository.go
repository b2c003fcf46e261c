package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/crm/backend/internal/domain/client"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/crm/backend/internal/infrastructure/persistence/tenant"
)

// GormContactRepository implements ContactRepository using GORM
type GormContactRepository struct {
	db *gorm.DB
}

// NewGormContactRepository creates a new GormContactRepository
func NewGormContactRepository(db *gorm.DB) *GormContactRepository {
	return &GormContactRepository{db: db}
}

// FindByIDForTenant finds a contact by ID within a tenant. Soft-deleted
// contacts are returned so callers can inspect the tombstone.
func (r *GormContactRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*client.Contact, error) {
	var model models.ContactModel
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

// FindByClient lists a client's non-deleted contacts, primary first, then by
// name. The role filter matches contacts holding any of the requested roles.
func (r *GormContactRepository) FindByClient(ctx context.Context, tenantID, clientID uuid.UUID, filter client.ListFilter) ([]client.Contact, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ContactModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where("client_id = ? AND deleted_at IS NULL", clientID)

	if len(filter.Roles) > 0 {
		roles := make([]string, len(filter.Roles))
		for i, role := range filter.Roles {
			roles[i] = string(role)
		}
		query = query.Where("jsonb_exists_any(roles, ?)", pq.Array(roles))
	}
	if filter.HasPortalAccess != nil {
		query = query.Where("has_portal_access = ?", *filter.HasPortalAccess)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?", pattern, pattern, pattern)
	}

	var contactModels []models.ContactModel
	if err := query.Order("is_primary DESC, last_name ASC, first_name ASC").Find(&contactModels).Error; err != nil {
		return nil, err
	}

	contacts := make([]client.Contact, len(contactModels))
	for i, model := range contactModels {
		contacts[i] = *model.ToDomain()
	}
	return contacts, nil
}

// FindPrimaryByClient finds the client's primary contact
func (r *GormContactRepository) FindPrimaryByClient(ctx context.Context, tenantID, clientID uuid.UUID) (*client.Contact, error) {
	var model models.ContactModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("client_id = ? AND is_primary = ? AND deleted_at IS NULL", clientID, true).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// CountOtherActive counts the client's active, non-deleted contacts
// excluding the given contact.
func (r *GormContactRepository) CountOtherActive(ctx context.Context, tenantID, clientID, excludeID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ContactModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where("client_id = ? AND id <> ? AND is_active = ? AND deleted_at IS NULL", clientID, excludeID, true).
		Count(&count).Error
	return count, err
}

// Save persists a contact
func (r *GormContactRepository) Save(ctx context.Context, contact *client.Contact) error {
	model := models.ContactModelFromDomain(contact)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveAsPrimary clears the primary flag on every non-deleted contact of the
// client and saves the given contact with the flag set, in one transaction.
func (r *GormContactRepository) SaveAsPrimary(ctx context.Context, contact *client.Contact) error {
	contact.IsPrimary = true
	model := models.ContactModelFromDomain(contact)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ContactModel{}).
			Where("tenant_id = ? AND client_id = ? AND id <> ? AND deleted_at IS NULL",
				contact.TenantID, contact.ClientID, contact.ID).
			Update("is_primary", false).Error; err != nil {
			return err
		}
		return tx.Save(model).Error
	})
}

// TransferPrimary moves the primary flag to the target contact atomically.
// No reader observes zero or multiple primaries in between.
func (r *GormContactRepository) TransferPrimary(ctx context.Context, tenantID, clientID, newPrimaryID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ContactModel{}).
			Where("tenant_id = ? AND client_id = ? AND deleted_at IS NULL", tenantID, clientID).
			Update("is_primary", false).Error; err != nil {
			return err
		}

		result := tx.Model(&models.ContactModel{}).
			Where("tenant_id = ? AND client_id = ? AND id = ? AND deleted_at IS NULL",
				tenantID, clientID, newPrimaryID).
			Update("is_primary", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

var _ client.ContactRepository = (*GormContactRepository)(nil)
