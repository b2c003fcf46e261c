package timeline

import (
	"github.com/google/uuid"
)

// Typed constructors for SYSTEM-category events. Producers use these instead
// of building events ad hoc so every stored event carries the same shape for
// its type.

func NewClientCreatedEvent(tenantID, clientID uuid.UUID, clientName string, actor *uuid.UUID) *TimelineEvent {
	return NewSystemEvent(tenantID, clientID, EventClientCreated, "Client created",
		Metadata{"client_name": clientName}, actor)
}

func NewStatusChangedEvent(tenantID, clientID uuid.UUID, from, to string, actor *uuid.UUID) *TimelineEvent {
	return NewSystemEvent(tenantID, clientID, EventStatusChanged, "Status changed",
		Metadata{"from": from, "to": to}, actor)
}

func NewDataEnrichedEvent(tenantID, clientID uuid.UUID, source string, fields []string, actor *uuid.UUID) *TimelineEvent {
	return NewSystemEvent(tenantID, clientID, EventDataEnriched, "Client data enriched",
		Metadata{"source": source, "fields": fields}, actor)
}

func NewVATValidatedEvent(tenantID, clientID uuid.UUID, vatNumber, status string, actor *uuid.UUID) *TimelineEvent {
	return NewSystemEvent(tenantID, clientID, EventVATValidated, "VAT number validated",
		Metadata{"vat_number": vatNumber, "status": status}, actor)
}

func NewWhitelistVerifiedEvent(tenantID, clientID uuid.UUID, nip, status string, actor *uuid.UUID) *TimelineEvent {
	return NewSystemEvent(tenantID, clientID, EventWhitelistVerified, "Taxpayer whitelist verified",
		Metadata{"nip": nip, "status": status}, actor)
}

func NewContactAddedEvent(tenantID, clientID, contactID uuid.UUID, contactName string, actor *uuid.UUID) *TimelineEvent {
	e := NewSystemEvent(tenantID, clientID, EventContactAdded, "Contact added: "+contactName,
		Metadata{"contact_name": contactName}, actor)
	e.LinkEntity("contact", contactID)
	return e
}

func NewContactUpdatedEvent(tenantID, clientID, contactID uuid.UUID, contactName string, changedFields []string, actor *uuid.UUID) *TimelineEvent {
	e := NewSystemEvent(tenantID, clientID, EventContactUpdated, "Contact updated: "+contactName,
		Metadata{"contact_name": contactName, "changed_fields": changedFields}, actor)
	e.LinkEntity("contact", contactID)
	return e
}

func NewContactRemovedEvent(tenantID, clientID, contactID uuid.UUID, contactName string, actor *uuid.UUID) *TimelineEvent {
	e := NewSystemEvent(tenantID, clientID, EventContactRemoved, "Contact removed: "+contactName,
		Metadata{"contact_name": contactName}, actor)
	e.LinkEntity("contact", contactID)
	return e
}

func NewPrimaryTransferredEvent(tenantID, clientID, newPrimaryID uuid.UUID, oldPrimaryID *uuid.UUID, actor *uuid.UUID) *TimelineEvent {
	e := NewSystemEvent(tenantID, clientID, EventPrimaryTransferred, "Primary contact changed", nil, actor)
	e.LinkEntity("contact", newPrimaryID)
	before := map[string]any{"primary_contact_id": nil}
	if oldPrimaryID != nil {
		before["primary_contact_id"] = oldPrimaryID.String()
	}
	e.SetChanges(before, map[string]any{"primary_contact_id": newPrimaryID.String()})
	return e
}

func NewPortalGrantedEvent(tenantID, clientID, contactID uuid.UUID, contactName string, actor *uuid.UUID) *TimelineEvent {
	e := NewSystemEvent(tenantID, clientID, EventPortalAccessGranted, "Portal access granted: "+contactName,
		Metadata{"contact_name": contactName}, actor)
	e.LinkEntity("contact", contactID)
	return e
}

func NewPortalRevokedEvent(tenantID, clientID, contactID uuid.UUID, contactName, reason string, actor *uuid.UUID) *TimelineEvent {
	meta := Metadata{"contact_name": contactName}
	if reason != "" {
		meta["reason"] = reason
	}
	e := NewSystemEvent(tenantID, clientID, EventPortalAccessRevoked, "Portal access revoked: "+contactName, meta, actor)
	e.LinkEntity("contact", contactID)
	return e
}

func NewDocumentUploadedEvent(tenantID, clientID uuid.UUID, documentName string, attachmentRefs []string, actor *uuid.UUID) *TimelineEvent {
	e := NewSystemEvent(tenantID, clientID, EventDocumentUploaded, "Document uploaded: "+documentName,
		Metadata{"document_name": documentName}, actor)
	e.Attachments = attachmentRefs
	return e
}

func NewTagAddedEvent(tenantID, clientID uuid.UUID, tag string, actor *uuid.UUID) *TimelineEvent {
	return NewSystemEvent(tenantID, clientID, EventTagAdded, "Tag added: "+tag,
		Metadata{"tag": tag}, actor)
}

func NewTagRemovedEvent(tenantID, clientID uuid.UUID, tag string, actor *uuid.UUID) *TimelineEvent {
	return NewSystemEvent(tenantID, clientID, EventTagRemoved, "Tag removed: "+tag,
		Metadata{"tag": tag}, actor)
}
