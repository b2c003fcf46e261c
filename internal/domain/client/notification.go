package client

import "context"

// InvitationSender delivers portal invitation and revocation messages.
// Dispatch is fire-and-forget; a delivery failure must never roll back the
// operation that triggered it.
type InvitationSender interface {
	SendPortalInvitation(ctx context.Context, contact *Contact) error
	SendPortalRevocation(ctx context.Context, contact *Contact, reason string) error
}
