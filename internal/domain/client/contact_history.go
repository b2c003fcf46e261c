package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ChangeType classifies a contact history entry
type ChangeType string

const (
	ChangeTypeCreate ChangeType = "CREATE"
	ChangeTypeUpdate ChangeType = "UPDATE"
	ChangeTypeDelete ChangeType = "DELETE"
)

// ContactHistoryEntry is an immutable snapshot of a contact at a point of
// change. Entries are never updated or deleted and outlive soft-deletion of
// the parent contact.
type ContactHistoryEntry struct {
	shared.BaseEntity
	TenantID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	ContactID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	ClientID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	ChangeType    ChangeType `gorm:"type:varchar(10);not null"`
	ChangedFields []string   `gorm:"-"`
	Snapshot      string     `gorm:"type:jsonb"`
	PerformedBy   uuid.UUID  `gorm:"type:uuid;not null"`
	PerformedAt   time.Time  `gorm:"not null"`
}

// contactSnapshot is the serialized form of a contact stored in history
type contactSnapshot struct {
	FirstName       string                   `json:"first_name"`
	LastName        string                   `json:"last_name"`
	Email           string                   `json:"email,omitempty"`
	Phone           string                   `json:"phone,omitempty"`
	Mobile          string                   `json:"mobile,omitempty"`
	Fax             string                   `json:"fax,omitempty"`
	Roles           []Role                   `json:"roles"`
	Position        string                   `json:"position,omitempty"`
	Department      string                   `json:"department,omitempty"`
	IsPrimary       bool                     `json:"is_primary"`
	IsActive        bool                     `json:"is_active"`
	HasPortalAccess bool                     `json:"has_portal_access"`
	PortalStatus    PortalStatus             `json:"portal_status"`
	Preferences     CommunicationPreferences `json:"preferences"`
	Notes           string                   `json:"notes,omitempty"`
}

// NewContactHistoryEntry snapshots the contact's current state
func NewContactHistoryEntry(c *Contact, changeType ChangeType, changedFields []string, actor uuid.UUID) *ContactHistoryEntry {
	snap, _ := json.Marshal(contactSnapshot{
		FirstName:       c.FirstName,
		LastName:        c.LastName,
		Email:           c.Email,
		Phone:           c.Phone,
		Mobile:          c.Mobile,
		Fax:             c.Fax,
		Roles:           c.Roles,
		Position:        c.Position,
		Department:      c.Department,
		IsPrimary:       c.IsPrimary,
		IsActive:        c.IsActive,
		HasPortalAccess: c.HasPortalAccess,
		PortalStatus:    c.PortalStatus,
		Preferences:     c.Preferences,
		Notes:           c.Notes,
	})

	return &ContactHistoryEntry{
		BaseEntity:    shared.NewBaseEntity(),
		TenantID:      c.TenantID,
		ContactID:     c.ID,
		ClientID:      c.ClientID,
		ChangeType:    changeType,
		ChangedFields: changedFields,
		Snapshot:      string(snap),
		PerformedBy:   actor,
		PerformedAt:   time.Now(),
	}
}

// ContactHistoryRepository persists immutable contact history entries
type ContactHistoryRepository interface {
	Save(ctx context.Context, entry *ContactHistoryEntry) error
	FindByContact(ctx context.Context, tenantID, contactID uuid.UUID) ([]ContactHistoryEntry, error)
}
