package client

import (
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeContact = "Contact"

// Event type constants
const (
	EventTypeContactCreated      = "ContactCreated"
	EventTypeContactUpdated      = "ContactUpdated"
	EventTypeContactDeleted      = "ContactDeleted"
	EventTypePrimaryTransferred  = "PrimaryContactTransferred"
	EventTypePortalAccessGranted = "PortalAccessGranted"
	EventTypePortalAccessRevoked = "PortalAccessRevoked"
)

// ContactCreatedEvent is published when a new contact is created
type ContactCreatedEvent struct {
	shared.BaseDomainEvent
	ContactID uuid.UUID `json:"contact_id"`
	ClientID  uuid.UUID `json:"client_id"`
	FullName  string    `json:"full_name"`
	IsPrimary bool      `json:"is_primary"`
}

// NewContactCreatedEvent creates a new ContactCreatedEvent
func NewContactCreatedEvent(c *Contact) *ContactCreatedEvent {
	return &ContactCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContactCreated, AggregateTypeContact, c.ID, c.TenantID),
		ContactID:       c.ID,
		ClientID:        c.ClientID,
		FullName:        c.FullName(),
		IsPrimary:       c.IsPrimary,
	}
}

// ContactUpdatedEvent is published when a contact is updated
type ContactUpdatedEvent struct {
	shared.BaseDomainEvent
	ContactID     uuid.UUID `json:"contact_id"`
	ClientID      uuid.UUID `json:"client_id"`
	ChangedFields []string  `json:"changed_fields"`
}

// NewContactUpdatedEvent creates a new ContactUpdatedEvent
func NewContactUpdatedEvent(c *Contact, changedFields []string) *ContactUpdatedEvent {
	return &ContactUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContactUpdated, AggregateTypeContact, c.ID, c.TenantID),
		ContactID:       c.ID,
		ClientID:        c.ClientID,
		ChangedFields:   changedFields,
	}
}

// ContactDeletedEvent is published when a contact is soft-deleted
type ContactDeletedEvent struct {
	shared.BaseDomainEvent
	ContactID uuid.UUID `json:"contact_id"`
	ClientID  uuid.UUID `json:"client_id"`
	FullName  string    `json:"full_name"`
}

// NewContactDeletedEvent creates a new ContactDeletedEvent
func NewContactDeletedEvent(c *Contact) *ContactDeletedEvent {
	return &ContactDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContactDeleted, AggregateTypeContact, c.ID, c.TenantID),
		ContactID:       c.ID,
		ClientID:        c.ClientID,
		FullName:        c.FullName(),
	}
}

// PrimaryContactTransferredEvent is published when the primary flag moves
// between contacts of a client
type PrimaryContactTransferredEvent struct {
	shared.BaseDomainEvent
	ClientID     uuid.UUID  `json:"client_id"`
	NewPrimaryID uuid.UUID  `json:"new_primary_id"`
	OldPrimaryID *uuid.UUID `json:"old_primary_id,omitempty"`
}

// NewPrimaryContactTransferredEvent creates a new PrimaryContactTransferredEvent
func NewPrimaryContactTransferredEvent(c *Contact, oldPrimaryID *uuid.UUID) *PrimaryContactTransferredEvent {
	return &PrimaryContactTransferredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePrimaryTransferred, AggregateTypeContact, c.ID, c.TenantID),
		ClientID:        c.ClientID,
		NewPrimaryID:    c.ID,
		OldPrimaryID:    oldPrimaryID,
	}
}

// PortalAccessGrantedEvent is published when portal access is enabled
type PortalAccessGrantedEvent struct {
	shared.BaseDomainEvent
	ContactID uuid.UUID `json:"contact_id"`
	ClientID  uuid.UUID `json:"client_id"`
	Email     string    `json:"email"`
}

// NewPortalAccessGrantedEvent creates a new PortalAccessGrantedEvent
func NewPortalAccessGrantedEvent(c *Contact) *PortalAccessGrantedEvent {
	return &PortalAccessGrantedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePortalAccessGranted, AggregateTypeContact, c.ID, c.TenantID),
		ContactID:       c.ID,
		ClientID:        c.ClientID,
		Email:           c.Email,
	}
}

// PortalAccessRevokedEvent is published when portal access is withdrawn
type PortalAccessRevokedEvent struct {
	shared.BaseDomainEvent
	ContactID uuid.UUID `json:"contact_id"`
	ClientID  uuid.UUID `json:"client_id"`
}

// NewPortalAccessRevokedEvent creates a new PortalAccessRevokedEvent
func NewPortalAccessRevokedEvent(c *Contact) *PortalAccessRevokedEvent {
	return &PortalAccessRevokedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePortalAccessRevoked, AggregateTypeContact, c.ID, c.TenantID),
		ContactID:       c.ID,
		ClientID:        c.ClientID,
	}
}
