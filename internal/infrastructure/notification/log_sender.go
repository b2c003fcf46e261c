package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/crm/backend/internal/domain/client"
)

// LogSender implements the invitation sender port by writing dispatch
// records to the log. It stands in for the mail pipeline in deployments
// without an outbound mail integration. Delivery is fire-and-forget at the
// call site, so this sender never returns an error.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a log-backed invitation sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger.Named("notification")}
}

// SendPortalInvitation records a portal invitation dispatch.
func (s *LogSender) SendPortalInvitation(ctx context.Context, contact *client.Contact) error {
	s.logger.Info("portal invitation dispatched",
		zap.String("contact_id", contact.ID.String()),
		zap.String("tenant_id", contact.TenantID.String()),
		zap.String("email", contact.Email),
	)
	return nil
}

// SendPortalRevocation records a portal revocation notice dispatch.
func (s *LogSender) SendPortalRevocation(ctx context.Context, contact *client.Contact, reason string) error {
	s.logger.Info("portal revocation notice dispatched",
		zap.String("contact_id", contact.ID.String()),
		zap.String("tenant_id", contact.TenantID.String()),
		zap.String("email", contact.Email),
		zap.String("reason", reason),
	)
	return nil
}

var _ client.InvitationSender = (*LogSender)(nil)
