package client

import (
	"time"

	"github.com/crm/backend/internal/domain/client"
	"github.com/google/uuid"
)

// =============================================================================
// Contact DTOs
// =============================================================================

// CreateContactRequest represents a request to add a contact to a client
type CreateContactRequest struct {
	FirstName   string                           `json:"first_name" binding:"required,min=1,max=100"`
	LastName    string                           `json:"last_name" binding:"required,min=1,max=100"`
	Email       string                           `json:"email" binding:"omitempty,email,max=200"`
	Phone       string                           `json:"phone" binding:"max=50"`
	Mobile      string                           `json:"mobile" binding:"max=50"`
	Fax         string                           `json:"fax" binding:"max=50"`
	Roles       []string                         `json:"roles" binding:"required,min=1,dive,oneof=OWNER ACCOUNTANT MANAGER EMPLOYEE AUTHORIZED OTHER"`
	Position    string                           `json:"position" binding:"max=100"`
	Department  string                           `json:"department" binding:"max=100"`
	IsPrimary   bool                             `json:"is_primary"`
	Preferences *client.CommunicationPreferences `json:"preferences"`
	Notes       string                           `json:"notes"`
	// Requests portal access in the same call; requires an email.
	EnablePortalAccess bool `json:"enable_portal_access"`
}

// UpdateContactRequest represents a partial contact update; nil means keep
type UpdateContactRequest struct {
	FirstName   *string                          `json:"first_name" binding:"omitempty,min=1,max=100"`
	LastName    *string                          `json:"last_name" binding:"omitempty,min=1,max=100"`
	Email       *string                          `json:"email" binding:"omitempty,max=200"`
	Phone       *string                          `json:"phone" binding:"omitempty,max=50"`
	Mobile      *string                          `json:"mobile" binding:"omitempty,max=50"`
	Fax         *string                          `json:"fax" binding:"omitempty,max=50"`
	Roles       []string                         `json:"roles" binding:"omitempty,min=1,dive,oneof=OWNER ACCOUNTANT MANAGER EMPLOYEE AUTHORIZED OTHER"`
	Position    *string                          `json:"position" binding:"omitempty,max=100"`
	Department  *string                          `json:"department" binding:"omitempty,max=100"`
	IsActive    *bool                            `json:"is_active"`
	// Setting IsPrimary to true promotes the contact through the
	// primary-transfer flow before the field updates apply.
	IsPrimary   *bool                            `json:"is_primary"`
	Preferences *client.CommunicationPreferences `json:"preferences"`
	Notes       *string                          `json:"notes"`
}

// ContactListFilter narrows the contact listing
type ContactListFilter struct {
	Roles           []string `form:"roles"`
	HasPortalAccess *bool    `form:"has_portal_access"`
	IsActive        *bool    `form:"is_active"`
	Search          string   `form:"search"`
}

// EnablePortalRequest represents a portal access grant
type EnablePortalRequest struct {
	SendInvitation bool     `json:"send_invitation"`
	Permissions    []string `json:"permissions"`
}

// RevokePortalRequest represents a portal access revocation
type RevokePortalRequest struct {
	Reason           string `json:"reason" binding:"max=500"`
	SendNotification bool   `json:"send_notification"`
}

// ContactResponse is the full contact view
type ContactResponse struct {
	ID              uuid.UUID                       `json:"id"`
	ClientID        uuid.UUID                       `json:"client_id"`
	FirstName       string                          `json:"first_name"`
	LastName        string                          `json:"last_name"`
	FullName        string                          `json:"full_name"`
	Email           string                          `json:"email,omitempty"`
	Phone           string                          `json:"phone,omitempty"`
	Mobile          string                          `json:"mobile,omitempty"`
	Fax             string                          `json:"fax,omitempty"`
	Roles           []string                        `json:"roles"`
	Position        string                          `json:"position,omitempty"`
	Department      string                          `json:"department,omitempty"`
	IsPrimary       bool                            `json:"is_primary"`
	IsActive        bool                            `json:"is_active"`
	HasPortalAccess bool                            `json:"has_portal_access"`
	PortalStatus    string                          `json:"portal_status"`
	PortalInvitedAt *time.Time                      `json:"portal_invited_at,omitempty"`
	Preferences     client.CommunicationPreferences `json:"preferences"`
	Notes           string                          `json:"notes,omitempty"`
	CreatedAt       time.Time                       `json:"created_at"`
	UpdatedAt       time.Time                       `json:"updated_at"`
}

// ContactHistoryResponse is one entry of a contact's change history
type ContactHistoryResponse struct {
	ID            uuid.UUID `json:"id"`
	ContactID     uuid.UUID `json:"contact_id"`
	ChangeType    string    `json:"change_type"`
	ChangedFields []string  `json:"changed_fields,omitempty"`
	Snapshot      string    `json:"snapshot"`
	PerformedBy   uuid.UUID `json:"performed_by"`
	PerformedAt   time.Time `json:"performed_at"`
}

// ToContactResponse maps a domain contact to its response shape
func ToContactResponse(c *client.Contact) ContactResponse {
	roles := make([]string, len(c.Roles))
	for i, r := range c.Roles {
		roles[i] = string(r)
	}
	return ContactResponse{
		ID:              c.ID,
		ClientID:        c.ClientID,
		FirstName:       c.FirstName,
		LastName:        c.LastName,
		FullName:        c.FullName(),
		Email:           c.Email,
		Phone:           c.Phone,
		Mobile:          c.Mobile,
		Fax:             c.Fax,
		Roles:           roles,
		Position:        c.Position,
		Department:      c.Department,
		IsPrimary:       c.IsPrimary,
		IsActive:        c.IsActive,
		HasPortalAccess: c.HasPortalAccess,
		PortalStatus:    string(c.PortalStatus),
		PortalInvitedAt: c.PortalInvitedAt,
		Preferences:     c.Preferences,
		Notes:           c.Notes,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// ToContactHistoryResponse maps a history entry to its response shape
func ToContactHistoryResponse(e *client.ContactHistoryEntry) ContactHistoryResponse {
	return ContactHistoryResponse{
		ID:            e.ID,
		ContactID:     e.ContactID,
		ChangeType:    string(e.ChangeType),
		ChangedFields: e.ChangedFields,
		Snapshot:      e.Snapshot,
		PerformedBy:   e.PerformedBy,
		PerformedAt:   e.PerformedAt,
	}
}

func toDomainRoles(roles []string) []client.Role {
	if roles == nil {
		return nil
	}
	out := make([]client.Role, len(roles))
	for i, r := range roles {
		out[i] = client.Role(r)
	}
	return out
}
