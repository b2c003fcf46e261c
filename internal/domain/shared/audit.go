package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditEntry is one record in the external compliance log. It mirrors the
// action/entity/actor tuple of every mutating operation, independent of the
// client timeline.
type AuditEntry struct {
	TenantID   uuid.UUID
	Action     string
	EntityType string
	EntityID   uuid.UUID
	ActorID    uuid.UUID
	Details    map[string]interface{}
	OccurredAt time.Time
}

// AuditLogger is the append-only external audit log. Implementations must not
// fail the owning operation; recording errors are swallowed and logged.
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry)
}

// NewAuditEntry builds an entry stamped with the current time
func NewAuditEntry(tenantID uuid.UUID, action, entityType string, entityID, actorID uuid.UUID, details map[string]interface{}) AuditEntry {
	return AuditEntry{
		TenantID:   tenantID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		Details:    details,
		OccurredAt: time.Now(),
	}
}
