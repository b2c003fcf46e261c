package client

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows a contact listing. All supplied dimensions are ANDed;
// the role filter matches contacts holding at least one of the requested
// roles; search matches first name, last name or email case-insensitively.
type ListFilter struct {
	Roles           []Role
	HasPortalAccess *bool
	IsActive        *bool
	Search          string
}

// ContactRepository persists contacts. Soft-deleted rows are excluded from
// every query except FindByIDForTenant callers that ask for them explicitly.
type ContactRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Contact, error)
	FindByClient(ctx context.Context, tenantID, clientID uuid.UUID, filter ListFilter) ([]Contact, error)
	FindPrimaryByClient(ctx context.Context, tenantID, clientID uuid.UUID) (*Contact, error)
	// CountOtherActive counts the client's active, non-deleted contacts
	// excluding the given contact. Drives the lone-primary delete check.
	CountOtherActive(ctx context.Context, tenantID, clientID, excludeID uuid.UUID) (int64, error)
	Save(ctx context.Context, contact *Contact) error
	// SaveAsPrimary clears the primary flag on every non-deleted contact of
	// the client and saves the given contact with the flag set, atomically.
	SaveAsPrimary(ctx context.Context, contact *Contact) error
	// TransferPrimary clears the primary flag on all non-deleted contacts of
	// the client and sets it on the target, as one indivisible unit. No
	// reader may observe zero or multiple primaries in between.
	TransferPrimary(ctx context.Context, tenantID, clientID, newPrimaryID uuid.UUID) error
}

// PortalProvisioner is the external collaborator that manages portal accounts
// derived from contacts.
type PortalProvisioner interface {
	Provision(ctx context.Context, tenantID, contactID uuid.UUID, email string) (uuid.UUID, error)
	Deactivate(ctx context.Context, tenantID, portalAccountID uuid.UUID) error
}
