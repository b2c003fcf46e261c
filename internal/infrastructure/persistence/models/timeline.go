package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crm/backend/internal/domain/timeline"
)

// TimelineEventModel is the persistence mapping of a timeline event. Rows
// are append-only; permitted updates are task completion and the tombstone.
type TimelineEventModel struct {
	BaseModel
	TombstoneModel
	TenantID     uuid.UUID `gorm:"type:uuid;not null;index:idx_timeline_tenant_client_created"`
	ClientID     uuid.UUID `gorm:"type:uuid;not null;index:idx_timeline_tenant_client_created"`
	Type         string    `gorm:"type:varchar(50);not null"`
	Category     string    `gorm:"type:varchar(20);not null"`
	Title        string    `gorm:"type:varchar(300);not null"`
	Description  string    `gorm:"type:text"`
	MetadataJSON string    `gorm:"column:metadata;type:jsonb;default:'{}'"`
	TagsJSON     string    `gorm:"column:tags;type:jsonb;default:'[]'"`
	CreatedBy    *uuid.UUID `gorm:"type:uuid"`

	RelatedEntityType string     `gorm:"type:varchar(50)"`
	RelatedEntityID   *uuid.UUID `gorm:"type:uuid"`
	ChangesJSON       string     `gorm:"column:changes;type:jsonb"`
	AttachmentsJSON   string     `gorm:"column:attachments;type:jsonb;default:'[]'"`

	Priority    string `gorm:"type:varchar(10)"`
	DueDate     *time.Time
	Completed   bool `gorm:"not null;default:false"`
	CompletedAt *time.Time
	CompletedBy *uuid.UUID `gorm:"type:uuid"`

	DurationMinutes int        `gorm:"default:0"`
	OccurredAt      *time.Time `gorm:""`
}

// TableName specifies the table name
func (TimelineEventModel) TableName() string {
	return "timeline_events"
}

// ToDomain converts the model to a domain TimelineEvent
func (m *TimelineEventModel) ToDomain() *timeline.TimelineEvent {
	e := &timeline.TimelineEvent{
		BaseEntity:        m.BaseModel.ToDomain(),
		Tombstone:         m.TombstoneModel.ToDomain(),
		TenantID:          m.TenantID,
		ClientID:          m.ClientID,
		Type:              timeline.EventType(m.Type),
		Category:          timeline.EventCategory(m.Category),
		Title:             m.Title,
		Description:       m.Description,
		CreatedBy:         m.CreatedBy,
		RelatedEntityType: m.RelatedEntityType,
		RelatedEntityID:   m.RelatedEntityID,
		Priority:          timeline.TaskPriority(m.Priority),
		DueDate:           m.DueDate,
		Completed:         m.Completed,
		CompletedAt:       m.CompletedAt,
		CompletedBy:       m.CompletedBy,
		DurationMinutes:   m.DurationMinutes,
		OccurredAt:        m.OccurredAt,
	}
	if m.MetadataJSON != "" && m.MetadataJSON != "{}" {
		if err := json.Unmarshal([]byte(m.MetadataJSON), &e.Metadata); err != nil {
			modelLogger.Warn("failed to parse event metadata JSON",
				zap.String("event_id", m.ID.String()),
				zap.Error(err))
		}
	}
	if m.TagsJSON != "" && m.TagsJSON != "[]" {
		if err := json.Unmarshal([]byte(m.TagsJSON), &e.Tags); err != nil {
			modelLogger.Warn("failed to parse event tags JSON",
				zap.String("event_id", m.ID.String()),
				zap.Error(err))
		}
	}
	if m.ChangesJSON != "" && m.ChangesJSON != "{}" {
		if err := json.Unmarshal([]byte(m.ChangesJSON), &e.Changes); err != nil {
			modelLogger.Warn("failed to parse event changes JSON",
				zap.String("event_id", m.ID.String()),
				zap.Error(err))
		}
	}
	if m.AttachmentsJSON != "" && m.AttachmentsJSON != "[]" {
		if err := json.Unmarshal([]byte(m.AttachmentsJSON), &e.Attachments); err != nil {
			modelLogger.Warn("failed to parse event attachments JSON",
				zap.String("event_id", m.ID.String()),
				zap.Error(err))
		}
	}
	return e
}

// TimelineEventModelFromDomain converts a domain event to its persistence
// model.
func TimelineEventModelFromDomain(e *timeline.TimelineEvent) *TimelineEventModel {
	m := &TimelineEventModel{
		TenantID:          e.TenantID,
		ClientID:          e.ClientID,
		Type:              string(e.Type),
		Category:          string(e.Category),
		Title:             e.Title,
		Description:       e.Description,
		CreatedBy:         e.CreatedBy,
		RelatedEntityType: e.RelatedEntityType,
		RelatedEntityID:   e.RelatedEntityID,
		Priority:          string(e.Priority),
		DueDate:           e.DueDate,
		Completed:         e.Completed,
		CompletedAt:       e.CompletedAt,
		CompletedBy:       e.CompletedBy,
		DurationMinutes:   e.DurationMinutes,
		OccurredAt:        e.OccurredAt,
	}
	m.FromDomainBaseEntity(e.BaseEntity)
	m.FromDomainTombstone(e.Tombstone)
	m.MetadataJSON = "{}"
	if e.Metadata != nil {
		m.MetadataJSON = marshalJSON(e.Metadata, "{}")
	}
	m.TagsJSON = "[]"
	if e.Tags != nil {
		m.TagsJSON = marshalJSON(e.Tags, "[]")
	}
	if e.Changes != nil {
		m.ChangesJSON = marshalJSON(e.Changes, "{}")
	}
	m.AttachmentsJSON = "[]"
	if e.Attachments != nil {
		m.AttachmentsJSON = marshalJSON(e.Attachments, "[]")
	}
	return m
}
