package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/crm/backend/internal/domain/shared"
)

// ZapAuditLogger writes audit entries to a dedicated structured log stream.
// Recording never fails the owning operation; the log sink is expected to be
// shipped to the compliance store by the log pipeline.
type ZapAuditLogger struct {
	logger *zap.Logger
}

// NewZapAuditLogger creates an audit logger writing to the given zap logger.
func NewZapAuditLogger(logger *zap.Logger) *ZapAuditLogger {
	return &ZapAuditLogger{logger: logger.Named("audit")}
}

// Record appends one audit entry.
func (l *ZapAuditLogger) Record(ctx context.Context, entry shared.AuditEntry) {
	l.logger.Info("audit",
		zap.String("tenant_id", entry.TenantID.String()),
		zap.String("action", entry.Action),
		zap.String("entity_type", entry.EntityType),
		zap.String("entity_id", entry.EntityID.String()),
		zap.String("actor_id", entry.ActorID.String()),
		zap.Any("details", entry.Details),
		zap.Time("occurred_at", entry.OccurredAt),
	)
}

var _ shared.AuditLogger = (*ZapAuditLogger)(nil)
