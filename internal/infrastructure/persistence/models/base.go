package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/crm/backend/internal/domain/shared"
)

// BaseModel provides common persistence fields for all models. It maps to
// the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// TombstoneModel provides soft-delete fields. Rows are never hard-deleted;
// default queries exclude stamped rows.
type TombstoneModel struct {
	DeletedAt *time.Time `gorm:"index"`
	DeletedBy *uuid.UUID `gorm:"type:uuid"`
}

// ToDomain converts TombstoneModel to domain Tombstone
func (m *TombstoneModel) ToDomain() shared.Tombstone {
	return shared.Tombstone{
		DeletedAt: m.DeletedAt,
		DeletedBy: m.DeletedBy,
	}
}

// FromDomainTombstone populates TombstoneModel from domain Tombstone
func (m *TombstoneModel) FromDomainTombstone(t shared.Tombstone) {
	m.DeletedAt = t.DeletedAt
	m.DeletedBy = t.DeletedBy
}

// TenantAggregateModel provides common persistence fields for tenant-scoped
// aggregate roots, including the optimistic-lock version.
type TenantAggregateModel struct {
	BaseModel
	Version   int        `gorm:"not null;default:1"`
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy *uuid.UUID `gorm:"type:uuid;index"`
	UpdatedBy *uuid.UUID `gorm:"type:uuid"`
}

// FromDomainTenantAggregateRoot populates the model from a domain
// TenantAggregateRoot.
func (m *TenantAggregateModel) FromDomainTenantAggregateRoot(t shared.TenantAggregateRoot) {
	m.FromDomainBaseEntity(t.BaseEntity)
	m.Version = t.Version
	m.TenantID = t.TenantID
	m.CreatedBy = t.CreatedBy
	m.UpdatedBy = t.UpdatedBy
}

// PopulateTenantAggregateRoot populates a domain TenantAggregateRoot from
// the persistence model.
func (m *TenantAggregateModel) PopulateTenantAggregateRoot(t *shared.TenantAggregateRoot) {
	t.ID = m.ID
	t.CreatedAt = m.CreatedAt
	t.UpdatedAt = m.UpdatedAt
	t.Version = m.Version
	t.TenantID = m.TenantID
	t.CreatedBy = m.CreatedBy
	t.UpdatedBy = m.UpdatedBy
}
