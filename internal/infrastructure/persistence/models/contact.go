package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crm/backend/internal/domain/client"
)

var modelLogger = zap.L().Named("persistence.models")

// ContactModel is the persistence mapping of a client contact
type ContactModel struct {
	TenantAggregateModel
	TombstoneModel
	ClientID        uuid.UUID `gorm:"type:uuid;not null;index"`
	FirstName       string    `gorm:"type:varchar(100);not null"`
	LastName        string    `gorm:"type:varchar(100);not null"`
	Email           string    `gorm:"type:varchar(200);index"`
	Phone           string    `gorm:"type:varchar(50)"`
	Mobile          string    `gorm:"type:varchar(50)"`
	Fax             string    `gorm:"type:varchar(50)"`
	RolesJSON       string    `gorm:"column:roles;type:jsonb;default:'[]'"`
	Position        string    `gorm:"type:varchar(100)"`
	Department      string    `gorm:"type:varchar(100)"`
	IsPrimary       bool      `gorm:"not null;default:false"`
	IsActive        bool      `gorm:"not null;default:true"`
	HasPortalAccess bool      `gorm:"not null;default:false"`
	PortalStatus    string    `gorm:"type:varchar(10);not null;default:'NONE'"`
	PortalAccountID *uuid.UUID
	PortalInvitedAt *time.Time
	PreferencesJSON string `gorm:"column:preferences;type:jsonb;default:'{}'"`
	ConsentJSON     string `gorm:"column:consent;type:jsonb;default:'{}'"`
	Notes           string `gorm:"type:text"`
}

// TableName specifies the table name
func (ContactModel) TableName() string {
	return "contacts"
}

// ToDomain converts the model to a domain Contact
func (m *ContactModel) ToDomain() *client.Contact {
	c := &client.Contact{
		ClientID:        m.ClientID,
		FirstName:       m.FirstName,
		LastName:        m.LastName,
		Email:           m.Email,
		Phone:           m.Phone,
		Mobile:          m.Mobile,
		Fax:             m.Fax,
		Position:        m.Position,
		Department:      m.Department,
		IsPrimary:       m.IsPrimary,
		IsActive:        m.IsActive,
		HasPortalAccess: m.HasPortalAccess,
		PortalStatus:    client.PortalStatus(m.PortalStatus),
		PortalAccountID: m.PortalAccountID,
		PortalInvitedAt: m.PortalInvitedAt,
		Notes:           m.Notes,
	}
	m.PopulateTenantAggregateRoot(&c.TenantAggregateRoot)
	c.Tombstone = m.TombstoneModel.ToDomain()

	if m.RolesJSON != "" && m.RolesJSON != "[]" {
		if err := json.Unmarshal([]byte(m.RolesJSON), &c.Roles); err != nil {
			modelLogger.Warn("failed to parse contact roles JSON",
				zap.String("contact_id", m.ID.String()),
				zap.Error(err))
		}
	}
	if m.PreferencesJSON != "" && m.PreferencesJSON != "{}" {
		if err := json.Unmarshal([]byte(m.PreferencesJSON), &c.Preferences); err != nil {
			modelLogger.Warn("failed to parse contact preferences JSON",
				zap.String("contact_id", m.ID.String()),
				zap.Error(err))
		}
	}
	if m.ConsentJSON != "" && m.ConsentJSON != "{}" {
		if err := json.Unmarshal([]byte(m.ConsentJSON), &c.Consent); err != nil {
			modelLogger.Warn("failed to parse contact consent JSON",
				zap.String("contact_id", m.ID.String()),
				zap.Error(err))
		}
	}
	return c
}

// ContactModelFromDomain converts a domain Contact to its persistence model
func ContactModelFromDomain(c *client.Contact) *ContactModel {
	m := &ContactModel{
		ClientID:        c.ClientID,
		FirstName:       c.FirstName,
		LastName:        c.LastName,
		Email:           c.Email,
		Phone:           c.Phone,
		Mobile:          c.Mobile,
		Fax:             c.Fax,
		Position:        c.Position,
		Department:      c.Department,
		IsPrimary:       c.IsPrimary,
		IsActive:        c.IsActive,
		HasPortalAccess: c.HasPortalAccess,
		PortalStatus:    string(c.PortalStatus),
		PortalAccountID: c.PortalAccountID,
		PortalInvitedAt: c.PortalInvitedAt,
		Notes:           c.Notes,
	}
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.FromDomainTombstone(c.Tombstone)

	m.RolesJSON = "[]"
	if c.Roles != nil {
		m.RolesJSON = marshalJSON(c.Roles, "[]")
	}
	m.PreferencesJSON = marshalJSON(c.Preferences, "{}")
	m.ConsentJSON = marshalJSON(c.Consent, "{}")
	return m
}

// ContactHistoryModel is the persistence mapping of a contact history entry
type ContactHistoryModel struct {
	BaseModel
	TenantID          uuid.UUID `gorm:"type:uuid;not null;index"`
	ContactID         uuid.UUID `gorm:"type:uuid;not null;index"`
	ClientID          uuid.UUID `gorm:"type:uuid;not null;index"`
	ChangeType        string    `gorm:"type:varchar(10);not null"`
	ChangedFieldsJSON string    `gorm:"column:changed_fields;type:jsonb;default:'[]'"`
	Snapshot          string    `gorm:"type:jsonb"`
	PerformedBy       uuid.UUID `gorm:"type:uuid;not null"`
	PerformedAt       time.Time `gorm:"not null"`
}

// TableName specifies the table name
func (ContactHistoryModel) TableName() string {
	return "contact_history"
}

// ToDomain converts the model to a domain ContactHistoryEntry
func (m *ContactHistoryModel) ToDomain() *client.ContactHistoryEntry {
	entry := &client.ContactHistoryEntry{
		BaseEntity:  m.BaseModel.ToDomain(),
		TenantID:    m.TenantID,
		ContactID:   m.ContactID,
		ClientID:    m.ClientID,
		ChangeType:  client.ChangeType(m.ChangeType),
		Snapshot:    m.Snapshot,
		PerformedBy: m.PerformedBy,
		PerformedAt: m.PerformedAt,
	}
	if m.ChangedFieldsJSON != "" && m.ChangedFieldsJSON != "[]" {
		if err := json.Unmarshal([]byte(m.ChangedFieldsJSON), &entry.ChangedFields); err != nil {
			modelLogger.Warn("failed to parse changed fields JSON",
				zap.String("entry_id", m.ID.String()),
				zap.Error(err))
		}
	}
	return entry
}

// ContactHistoryModelFromDomain converts a domain entry to its persistence
// model.
func ContactHistoryModelFromDomain(e *client.ContactHistoryEntry) *ContactHistoryModel {
	m := &ContactHistoryModel{
		TenantID:    e.TenantID,
		ContactID:   e.ContactID,
		ClientID:    e.ClientID,
		ChangeType:  string(e.ChangeType),
		Snapshot:    e.Snapshot,
		PerformedBy: e.PerformedBy,
		PerformedAt: e.PerformedAt,
	}
	m.FromDomainBaseEntity(e.BaseEntity)
	m.ChangedFieldsJSON = "[]"
	if e.ChangedFields != nil {
		m.ChangedFieldsJSON = marshalJSON(e.ChangedFields, "[]")
	}
	return m
}

// marshalJSON serializes v, falling back to the given empty literal
func marshalJSON(v any, empty string) string {
	data, err := json.Marshal(v)
	if err != nil {
		return empty
	}
	return string(data)
}
