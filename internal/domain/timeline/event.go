package timeline

import (
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// EventCategory groups timeline events by origin
type EventCategory string

const (
	CategorySystem        EventCategory = "SYSTEM"
	CategoryManual        EventCategory = "MANUAL"
	CategoryCommunication EventCategory = "COMMUNICATION"
	CategoryDocument      EventCategory = "DOCUMENT"
	CategoryIntegration   EventCategory = "INTEGRATION"
)

// EventType identifies what happened
type EventType string

const (
	EventClientCreated       EventType = "CLIENT_CREATED"
	EventStatusChanged       EventType = "STATUS_CHANGED"
	EventDataEnriched        EventType = "DATA_ENRICHED"
	EventVATValidated        EventType = "VAT_VALIDATED"
	EventWhitelistVerified   EventType = "WHITELIST_VERIFIED"
	EventContactAdded        EventType = "CONTACT_ADDED"
	EventContactUpdated      EventType = "CONTACT_UPDATED"
	EventContactRemoved      EventType = "CONTACT_REMOVED"
	EventPrimaryTransferred  EventType = "PRIMARY_CONTACT_CHANGED"
	EventPortalAccessGranted EventType = "PORTAL_ACCESS_GRANTED"
	EventPortalAccessRevoked EventType = "PORTAL_ACCESS_REVOKED"
	EventDocumentUploaded    EventType = "DOCUMENT_UPLOADED"
	EventTagAdded            EventType = "TAG_ADDED"
	EventTagRemoved          EventType = "TAG_REMOVED"
	EventNote                EventType = "NOTE"
	EventTask                EventType = "TASK"
	EventCall                EventType = "CALL"
	EventMeeting             EventType = "MEETING"
	EventEmail               EventType = "EMAIL"
)

// TaskPriority orders manual tasks
type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
	PriorityUrgent TaskPriority = "URGENT"
)

// ValidPriority reports whether p is a known priority
func ValidPriority(p TaskPriority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// TimelineEvent is one entry in a client's append-only history. Events are
// never edited after insert; the only mutations are task completion and the
// soft-delete tombstone for manually authored entries.
type TimelineEvent struct {
	shared.BaseEntity
	shared.Tombstone
	TenantID    uuid.UUID     `gorm:"type:uuid;not null;index"`
	ClientID    uuid.UUID     `gorm:"type:uuid;not null;index"`
	Type        EventType     `gorm:"type:varchar(50);not null"`
	Category    EventCategory `gorm:"type:varchar(20);not null"`
	Title       string        `gorm:"type:varchar(300);not null"`
	Description string        `gorm:"type:text"`
	Metadata    Metadata      `gorm:"-"`
	Tags        []string      `gorm:"-"`
	CreatedBy   *uuid.UUID    `gorm:"type:uuid"`

	// linkage to the entity the event is about, when it is not the
	// client itself
	RelatedEntityType string     `gorm:"type:varchar(50)"`
	RelatedEntityID   *uuid.UUID `gorm:"type:uuid"`

	Changes     *ChangeSet `gorm:"-"`
	Attachments []string   `gorm:"-"`

	// task fields, set only for EventTask
	Priority    TaskPriority `gorm:"type:varchar(10)"`
	DueDate     *time.Time
	Completed   bool `gorm:"not null;default:false"`
	CompletedAt *time.Time
	CompletedBy *uuid.UUID `gorm:"type:uuid"`

	// communication fields
	DurationMinutes int        `gorm:"default:0"`
	OccurredAt      *time.Time `gorm:""`
}

// Metadata carries per-event structured detail. Known keys are written by
// the typed constructors; unknown keys pass through untouched so future
// producers can attach data the core never reads.
type Metadata map[string]any

// ChangeSet records the field values before and after a mutation, keyed by
// field name. Only fields that actually changed appear.
type ChangeSet struct {
	Before map[string]any `json:"before"`
	After  map[string]any `json:"after"`
}

// LinkEntity points the event at the entity it describes
func (e *TimelineEvent) LinkEntity(entityType string, id uuid.UUID) {
	e.RelatedEntityType = entityType
	e.RelatedEntityID = &id
}

// SetChanges attaches the before/after values of a mutation
func (e *TimelineEvent) SetChanges(before, after map[string]any) {
	if len(before) == 0 && len(after) == 0 {
		return
	}
	e.Changes = &ChangeSet{Before: before, After: after}
}

func newEvent(tenantID, clientID uuid.UUID, eventType EventType, category EventCategory, title string, actor *uuid.UUID) *TimelineEvent {
	return &TimelineEvent{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		ClientID:   clientID,
		Type:       eventType,
		Category:   category,
		Title:      title,
		Metadata:   Metadata{},
		CreatedBy:  actor,
	}
}

// NewSystemEvent builds a SYSTEM-category event. All system producers go
// through this so every stored event has the same shape.
func NewSystemEvent(tenantID, clientID uuid.UUID, eventType EventType, title string, metadata Metadata, actor *uuid.UUID) *TimelineEvent {
	e := newEvent(tenantID, clientID, eventType, CategorySystem, title, actor)
	if metadata != nil {
		e.Metadata = metadata
	}
	return e
}

// NewNote builds a manually authored note
func NewNote(tenantID, clientID uuid.UUID, title, body string, tags []string, actor uuid.UUID) (*TimelineEvent, error) {
	if title == "" {
		return nil, shared.NewValidationError("Note title is required")
	}
	e := newEvent(tenantID, clientID, EventNote, CategoryManual, title, &actor)
	e.Description = body
	e.Tags = tags
	return e, nil
}

// NewTask builds a manually authored task. Priority defaults to MEDIUM.
func NewTask(tenantID, clientID uuid.UUID, title, description string, priority TaskPriority, dueDate *time.Time, tags []string, actor uuid.UUID) (*TimelineEvent, error) {
	if title == "" {
		return nil, shared.NewValidationError("Task title is required")
	}
	if priority == "" {
		priority = PriorityMedium
	}
	if !ValidPriority(priority) {
		return nil, shared.NewValidationError("Unknown task priority: " + string(priority))
	}
	e := newEvent(tenantID, clientID, EventTask, CategoryManual, title, &actor)
	e.Description = description
	e.Priority = priority
	e.DueDate = dueDate
	e.Tags = tags
	return e, nil
}

// NewCall builds a logged phone call
func NewCall(tenantID, clientID uuid.UUID, title, notes string, durationMinutes int, occurredAt time.Time, tags []string, actor uuid.UUID) (*TimelineEvent, error) {
	if title == "" {
		return nil, shared.NewValidationError("Call title is required")
	}
	if durationMinutes < 0 {
		return nil, shared.NewValidationError("Call duration cannot be negative")
	}
	e := newEvent(tenantID, clientID, EventCall, CategoryCommunication, title, &actor)
	e.Description = notes
	e.DurationMinutes = durationMinutes
	e.OccurredAt = &occurredAt
	e.Tags = tags
	return e, nil
}

// NewMeeting builds a logged meeting
func NewMeeting(tenantID, clientID uuid.UUID, title, notes string, durationMinutes int, occurredAt time.Time, participants []string, tags []string, actor uuid.UUID) (*TimelineEvent, error) {
	if title == "" {
		return nil, shared.NewValidationError("Meeting title is required")
	}
	if durationMinutes < 0 {
		return nil, shared.NewValidationError("Meeting duration cannot be negative")
	}
	e := newEvent(tenantID, clientID, EventMeeting, CategoryCommunication, title, &actor)
	e.Description = notes
	e.DurationMinutes = durationMinutes
	e.OccurredAt = &occurredAt
	e.Tags = tags
	if len(participants) > 0 {
		e.Metadata["participants"] = participants
	}
	return e, nil
}

// Complete marks a task done. A non-task or deleted event reads as not
// found; completing twice is an invalid state, not a no-op.
func (e *TimelineEvent) Complete(actor uuid.UUID) error {
	if e.Type != EventTask || e.IsDeleted() {
		return shared.ErrNotFound
	}
	if e.Completed {
		return shared.NewInvalidStateError("Task is already completed")
	}
	now := time.Now()
	e.Completed = true
	e.CompletedAt = &now
	e.CompletedBy = &actor
	e.UpdatedAt = now
	return nil
}

// Delete tombstones a manually authored event. System, communication and
// integration events are part of the permanent record and cannot be removed.
func (e *TimelineEvent) Delete(actor uuid.UUID) error {
	if e.Category != CategoryManual {
		return shared.NewInvalidStateError("Cannot delete non-manual event")
	}
	if e.IsDeleted() {
		return shared.NewInvalidStateError("Event is already deleted")
	}
	e.MarkDeleted(actor)
	e.UpdatedAt = time.Now()
	return nil
}

// HasAllTags reports whether the event carries every requested tag
func (e *TimelineEvent) HasAllTags(tags []string) bool {
	for _, want := range tags {
		found := false
		for _, have := range e.Tags {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
