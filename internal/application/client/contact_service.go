package client

import (
	"context"
	"errors"

	"github.com/crm/backend/internal/domain/client"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/timeline"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContactService handles the contact lifecycle for clients. Every successful
// mutation writes exactly one contact history entry and appends exactly one
// timeline event; the external audit log receives the same tuple.
type ContactService struct {
	contactRepo client.ContactRepository
	historyRepo client.ContactHistoryRepository
	eventRepo   timeline.EventRepository
	portal      client.PortalProvisioner
	invitations client.InvitationSender
	audit       shared.AuditLogger
	logger      *zap.Logger
}

// NewContactService creates a new ContactService
func NewContactService(
	contactRepo client.ContactRepository,
	historyRepo client.ContactHistoryRepository,
	eventRepo timeline.EventRepository,
	portal client.PortalProvisioner,
	invitations client.InvitationSender,
	audit shared.AuditLogger,
	logger *zap.Logger,
) *ContactService {
	return &ContactService{
		contactRepo: contactRepo,
		historyRepo: historyRepo,
		eventRepo:   eventRepo,
		portal:      portal,
		invitations: invitations,
		audit:       audit,
		logger:      logger,
	}
}

// Create adds a contact to a client. A contact created with is_primary set
// displaces any existing primary atomically. Portal access requested in the
// same call is granted through the regular enablement flow once the contact
// row exists.
func (s *ContactService) Create(ctx context.Context, tenantID, clientID, actor uuid.UUID, req CreateContactRequest) (*ContactResponse, error) {
	if req.EnablePortalAccess && req.Email == "" {
		return nil, shared.NewValidationError("Email is required to request portal access")
	}

	contact, err := client.NewContact(tenantID, clientID, actor, client.NewContactParams{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		Mobile:      req.Mobile,
		Fax:         req.Fax,
		Roles:       toDomainRoles(req.Roles),
		Position:    req.Position,
		Department:  req.Department,
		IsPrimary:   req.IsPrimary,
		Preferences: req.Preferences,
		Notes:       req.Notes,
	})
	if err != nil {
		return nil, err
	}

	if req.IsPrimary {
		err = s.contactRepo.SaveAsPrimary(ctx, contact)
	} else {
		err = s.contactRepo.Save(ctx, contact)
	}
	if err != nil {
		return nil, err
	}

	if err := s.recordChange(ctx, contact, client.ChangeTypeCreate, nil,
		timeline.NewContactAddedEvent(tenantID, clientID, contact.ID, contact.FullName(), &actor),
		"contact.created", actor, nil); err != nil {
		return nil, err
	}

	if req.EnablePortalAccess {
		return s.EnablePortal(ctx, tenantID, contact.ID, actor, EnablePortalRequest{SendInvitation: true})
	}

	response := ToContactResponse(contact)
	return &response, nil
}

// Update applies a partial update and records the changed fields. An update
// that changes nothing writes no history and no timeline event. Promotion to
// primary runs the transfer flow before the field updates apply; demotion is
// only possible by transferring the flag to another contact.
func (s *ContactService) Update(ctx context.Context, tenantID, contactID, actor uuid.UUID, req UpdateContactRequest) (*ContactResponse, error) {
	contact, err := s.contactRepo.FindByIDForTenant(ctx, tenantID, contactID)
	if err != nil {
		return nil, err
	}

	if req.IsPrimary != nil && *req.IsPrimary != contact.IsPrimary {
		if !*req.IsPrimary {
			return nil, shared.NewPreconditionError("Primary status is removed by transferring it to another contact")
		}
		if err := s.TransferPrimary(ctx, tenantID, contact.ClientID, contactID, actor); err != nil {
			return nil, err
		}
		contact, err = s.contactRepo.FindByIDForTenant(ctx, tenantID, contactID)
		if err != nil {
			return nil, err
		}
	}

	before := contactSnapshot(contact)
	changed, err := contact.ApplyUpdate(client.UpdateContactParams{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		Mobile:      req.Mobile,
		Fax:         req.Fax,
		Roles:       toDomainRoles(req.Roles),
		Position:    req.Position,
		Department:  req.Department,
		IsActive:    req.IsActive,
		Preferences: req.Preferences,
		Notes:       req.Notes,
	}, actor)
	if err != nil {
		return nil, err
	}

	if len(changed) > 0 {
		if err := s.contactRepo.Save(ctx, contact); err != nil {
			return nil, err
		}
		event := timeline.NewContactUpdatedEvent(tenantID, contact.ClientID, contact.ID, contact.FullName(), changed, &actor)
		event.SetChanges(pickFields(before, changed), pickFields(contactSnapshot(contact), changed))
		if err := s.recordChange(ctx, contact, client.ChangeTypeUpdate, changed, event,
			"contact.updated", actor, map[string]interface{}{"changed_fields": changed}); err != nil {
			return nil, err
		}
	}

	response := ToContactResponse(contact)
	return &response, nil
}

// Delete soft-deletes a contact. The sole primary contact of a client cannot
// be removed while no other active contact exists.
func (s *ContactService) Delete(ctx context.Context, tenantID, contactID, actor uuid.UUID) error {
	contact, err := s.contactRepo.FindByIDForTenant(ctx, tenantID, contactID)
	if err != nil {
		return err
	}

	if contact.IsPrimary {
		others, err := s.contactRepo.CountOtherActive(ctx, tenantID, contact.ClientID, contact.ID)
		if err != nil {
			return err
		}
		if others == 0 {
			return shared.NewPreconditionError("Cannot remove the only primary contact")
		}
	}

	if err := contact.SoftDelete(actor); err != nil {
		return err
	}
	if err := s.contactRepo.Save(ctx, contact); err != nil {
		return err
	}

	return s.recordChange(ctx, contact, client.ChangeTypeDelete, nil,
		timeline.NewContactRemovedEvent(tenantID, contact.ClientID, contact.ID, contact.FullName(), &actor),
		"contact.deleted", actor, nil)
}

// GetByID retrieves a single contact
func (s *ContactService) GetByID(ctx context.Context, tenantID, contactID uuid.UUID) (*ContactResponse, error) {
	contact, err := s.contactRepo.FindByIDForTenant(ctx, tenantID, contactID)
	if err != nil {
		return nil, err
	}
	response := ToContactResponse(contact)
	return &response, nil
}

// List returns the client's non-deleted contacts matching the filter,
// primary first, then by last and first name.
func (s *ContactService) List(ctx context.Context, tenantID, clientID uuid.UUID, filter ContactListFilter) ([]ContactResponse, error) {
	contacts, err := s.contactRepo.FindByClient(ctx, tenantID, clientID, client.ListFilter{
		Roles:           toDomainRoles(filter.Roles),
		HasPortalAccess: filter.HasPortalAccess,
		IsActive:        filter.IsActive,
		Search:          filter.Search,
	})
	if err != nil {
		return nil, err
	}

	responses := make([]ContactResponse, len(contacts))
	for i := range contacts {
		responses[i] = ToContactResponse(&contacts[i])
	}
	return responses, nil
}

// TransferPrimary moves the primary flag to another contact of the same
// client as one atomic transition. No concurrent reader observes zero or
// multiple primaries.
func (s *ContactService) TransferPrimary(ctx context.Context, tenantID, clientID, newPrimaryID, actor uuid.UUID) error {
	target, err := s.contactRepo.FindByIDForTenant(ctx, tenantID, newPrimaryID)
	if err != nil {
		return err
	}
	if target.ClientID != clientID {
		return shared.NewValidationError("Contact does not belong to this client")
	}
	if target.IsDeleted() || !target.IsActive {
		return shared.NewPreconditionError("Cannot make an inactive contact primary")
	}
	if target.IsPrimary {
		return nil
	}

	var oldPrimaryID *uuid.UUID
	if old, err := s.contactRepo.FindPrimaryByClient(ctx, tenantID, clientID); err == nil {
		oldPrimaryID = &old.ID
	} else if !errors.Is(err, shared.ErrNotFound) {
		return err
	}

	if err := s.contactRepo.TransferPrimary(ctx, tenantID, clientID, newPrimaryID); err != nil {
		return err
	}

	if err := s.eventRepo.Append(ctx, timeline.NewPrimaryTransferredEvent(tenantID, clientID, newPrimaryID, oldPrimaryID, &actor)); err != nil {
		return err
	}
	s.audit.Record(ctx, shared.NewAuditEntry(tenantID, "contact.primary_transferred", "contact", newPrimaryID, actor, nil))
	return nil
}

// EnablePortal provisions a portal account for the contact and optionally
// sends the invitation. Invitation delivery failure does not fail the grant.
func (s *ContactService) EnablePortal(ctx context.Context, tenantID, contactID, actor uuid.UUID, req EnablePortalRequest) (*ContactResponse, error) {
	contact, err := s.contactRepo.FindByIDForTenant(ctx, tenantID, contactID)
	if err != nil {
		return nil, err
	}
	if contact.IsDeleted() {
		return nil, shared.NewPreconditionError("Cannot enable portal access for a deleted contact")
	}
	if contact.Email == "" {
		return nil, shared.NewPreconditionError("Contact must have an email address for portal access")
	}
	if contact.HasPortalAccess {
		return nil, shared.NewPreconditionError("Contact already has portal access")
	}

	accountID, err := s.portal.Provision(ctx, tenantID, contact.ID, contact.Email)
	if err != nil {
		return nil, err
	}
	if err := contact.EnablePortal(accountID, actor); err != nil {
		return nil, err
	}
	if err := s.contactRepo.Save(ctx, contact); err != nil {
		return nil, err
	}

	if err := s.recordChange(ctx, contact, client.ChangeTypeUpdate, []string{"portalAccess"},
		timeline.NewPortalGrantedEvent(tenantID, contact.ClientID, contact.ID, contact.FullName(), &actor),
		"contact.portal_enabled", actor, nil); err != nil {
		return nil, err
	}

	if req.SendInvitation {
		if err := s.invitations.SendPortalInvitation(ctx, contact); err != nil {
			s.logger.Warn("portal invitation delivery failed",
				zap.String("contact_id", contact.ID.String()),
				zap.Error(err))
		}
	}

	response := ToContactResponse(contact)
	return &response, nil
}

// RevokePortal withdraws portal access, deactivating the external account
// but retaining historical access data.
func (s *ContactService) RevokePortal(ctx context.Context, tenantID, contactID, actor uuid.UUID, req RevokePortalRequest) (*ContactResponse, error) {
	contact, err := s.contactRepo.FindByIDForTenant(ctx, tenantID, contactID)
	if err != nil {
		return nil, err
	}
	if !contact.HasPortalAccess {
		return nil, shared.NewPreconditionError("Contact does not have portal access")
	}

	if contact.PortalAccountID != nil {
		if err := s.portal.Deactivate(ctx, tenantID, *contact.PortalAccountID); err != nil {
			return nil, err
		}
	}
	if err := contact.RevokePortal(actor); err != nil {
		return nil, err
	}
	if err := s.contactRepo.Save(ctx, contact); err != nil {
		return nil, err
	}

	if err := s.recordChange(ctx, contact, client.ChangeTypeUpdate, []string{"portalAccess"},
		timeline.NewPortalRevokedEvent(tenantID, contact.ClientID, contact.ID, contact.FullName(), req.Reason, &actor),
		"contact.portal_revoked", actor, map[string]interface{}{"reason": req.Reason}); err != nil {
		return nil, err
	}

	if req.SendNotification {
		if err := s.invitations.SendPortalRevocation(ctx, contact, req.Reason); err != nil {
			s.logger.Warn("portal revocation notice delivery failed",
				zap.String("contact_id", contact.ID.String()),
				zap.Error(err))
		}
	}

	response := ToContactResponse(contact)
	return &response, nil
}

// MarkPortalActive records the contact's first successful portal login.
// Called from the portal callback, not from the CRM UI.
func (s *ContactService) MarkPortalActive(ctx context.Context, tenantID, contactID uuid.UUID) error {
	contact, err := s.contactRepo.FindByIDForTenant(ctx, tenantID, contactID)
	if err != nil {
		return err
	}
	if err := contact.MarkPortalActive(); err != nil {
		return err
	}
	return s.contactRepo.Save(ctx, contact)
}

// GetHistory returns the contact's change history, newest first
func (s *ContactService) GetHistory(ctx context.Context, tenantID, contactID uuid.UUID) ([]ContactHistoryResponse, error) {
	if _, err := s.contactRepo.FindByIDForTenant(ctx, tenantID, contactID); err != nil {
		return nil, err
	}
	entries, err := s.historyRepo.FindByContact(ctx, tenantID, contactID)
	if err != nil {
		return nil, err
	}

	responses := make([]ContactHistoryResponse, len(entries))
	for i := range entries {
		responses[i] = ToContactHistoryResponse(&entries[i])
	}
	return responses, nil
}

// contactSnapshot captures the updatable field values keyed by the names
// used in change history entries.
func contactSnapshot(c *client.Contact) map[string]any {
	roles := make([]string, len(c.Roles))
	for i, r := range c.Roles {
		roles[i] = string(r)
	}
	return map[string]any{
		"firstName":   c.FirstName,
		"lastName":    c.LastName,
		"email":       c.Email,
		"phone":       c.Phone,
		"mobile":      c.Mobile,
		"fax":         c.Fax,
		"roles":       roles,
		"position":    c.Position,
		"department":  c.Department,
		"isActive":    c.IsActive,
		"preferences": c.Preferences,
		"notes":       c.Notes,
	}
}

func pickFields(snapshot map[string]any, fields []string) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := snapshot[f]; ok {
			out[f] = v
		}
	}
	return out
}

// recordChange writes the history entry, the timeline event and the audit
// record for one successful contact mutation.
func (s *ContactService) recordChange(ctx context.Context, contact *client.Contact, changeType client.ChangeType, changedFields []string, event *timeline.TimelineEvent, action string, actor uuid.UUID, details map[string]interface{}) error {
	if err := s.historyRepo.Save(ctx, client.NewContactHistoryEntry(contact, changeType, changedFields, actor)); err != nil {
		return err
	}
	if err := s.eventRepo.Append(ctx, event); err != nil {
		return err
	}
	s.audit.Record(ctx, shared.NewAuditEntry(contact.TenantID, action, "contact", contact.ID, actor, details))
	contact.ClearDomainEvents()
	return nil
}
