package timeline

import (
	"time"

	"github.com/crm/backend/internal/domain/timeline"
	"github.com/google/uuid"
)

// AddNoteRequest represents a manually authored note
type AddNoteRequest struct {
	Title string   `json:"title" binding:"required,min=1,max=300"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags" binding:"max=20,dive,min=1,max=50"`
}

// AddTaskRequest represents a manually authored task
type AddTaskRequest struct {
	Title       string     `json:"title" binding:"required,min=1,max=300"`
	Description string     `json:"description"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	DueDate     *time.Time `json:"due_date"`
	Tags        []string   `json:"tags" binding:"max=20,dive,min=1,max=50"`
}

// LogCallRequest represents a logged phone call
type LogCallRequest struct {
	Title           string    `json:"title" binding:"required,min=1,max=300"`
	Notes           string    `json:"notes"`
	DurationMinutes int       `json:"duration_minutes" binding:"min=0,max=1440"`
	OccurredAt      time.Time `json:"occurred_at" binding:"required"`
	Tags            []string  `json:"tags" binding:"max=20,dive,min=1,max=50"`
}

// LogMeetingRequest represents a logged meeting
type LogMeetingRequest struct {
	Title           string    `json:"title" binding:"required,min=1,max=300"`
	Notes           string    `json:"notes"`
	DurationMinutes int       `json:"duration_minutes" binding:"min=0,max=1440"`
	OccurredAt      time.Time `json:"occurred_at" binding:"required"`
	Participants    []string  `json:"participants" binding:"max=50"`
	Tags            []string  `json:"tags" binding:"max=20,dive,min=1,max=50"`
}

// QueryRequest narrows and pages a timeline read
type QueryRequest struct {
	EventTypes     []string   `form:"event_types"`
	Categories     []string   `form:"categories"`
	DateFrom       *time.Time `form:"date_from"`
	DateTo         *time.Time `form:"date_to"`
	UserID         *uuid.UUID `form:"user_id"`
	Tags           []string   `form:"tags"`
	Search         string     `form:"search"`
	IncludeDeleted bool       `form:"include_deleted"`
	Cursor         string     `form:"cursor"`
	Limit          int        `form:"limit" binding:"omitempty,min=1,max=100"`
	SortOrder      string     `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

// ExportRequest asks for a rendered timeline document
type ExportRequest struct {
	Format string `json:"format" binding:"required,oneof=pdf csv html"`
}

// EventResponse is the full timeline event view
type EventResponse struct {
	ID              uuid.UUID         `json:"id"`
	ClientID        uuid.UUID         `json:"client_id"`
	Type            string            `json:"type"`
	Category        string            `json:"category"`
	Title           string            `json:"title"`
	Description     string            `json:"description,omitempty"`
	Metadata        timeline.Metadata `json:"metadata,omitempty"`
	Tags            []string          `json:"tags,omitempty"`
	CreatedBy       *uuid.UUID        `json:"created_by,omitempty"`

	RelatedEntityType string              `json:"related_entity_type,omitempty"`
	RelatedEntityID   *uuid.UUID          `json:"related_entity_id,omitempty"`
	Changes           *timeline.ChangeSet `json:"changes,omitempty"`
	Attachments       []string            `json:"attachments,omitempty"`

	Priority        string            `json:"priority,omitempty"`
	DueDate         *time.Time        `json:"due_date,omitempty"`
	Completed       bool              `json:"completed"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
	CompletedBy     *uuid.UUID        `json:"completed_by,omitempty"`
	DurationMinutes int               `json:"duration_minutes,omitempty"`
	OccurredAt      *time.Time        `json:"occurred_at,omitempty"`
	Deleted         bool              `json:"deleted,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// PageResponse is one window of timeline results
type PageResponse struct {
	Events     []EventResponse `json:"events"`
	NextCursor string          `json:"next_cursor,omitempty"`
	HasMore    bool            `json:"has_more"`
}

// ExportResponse is a time-limited download handle
type ExportResponse struct {
	URL       string    `json:"url"`
	Format    string    `json:"format"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ToEventResponse maps a domain event to its response shape
func ToEventResponse(e *timeline.TimelineEvent) EventResponse {
	return EventResponse{
		ID:              e.ID,
		ClientID:        e.ClientID,
		Type:            string(e.Type),
		Category:        string(e.Category),
		Title:           e.Title,
		Description:     e.Description,
		Metadata:        e.Metadata,
		Tags:            e.Tags,
		CreatedBy:       e.CreatedBy,

		RelatedEntityType: e.RelatedEntityType,
		RelatedEntityID:   e.RelatedEntityID,
		Changes:           e.Changes,
		Attachments:       e.Attachments,

		Priority:        string(e.Priority),
		DueDate:         e.DueDate,
		Completed:       e.Completed,
		CompletedAt:     e.CompletedAt,
		CompletedBy:     e.CompletedBy,
		DurationMinutes: e.DurationMinutes,
		OccurredAt:      e.OccurredAt,
		Deleted:         e.IsDeleted(),
		CreatedAt:       e.CreatedAt,
	}
}

func toDomainFilter(req QueryRequest) timeline.Filter {
	types := make([]timeline.EventType, len(req.EventTypes))
	for i, t := range req.EventTypes {
		types[i] = timeline.EventType(t)
	}
	categories := make([]timeline.EventCategory, len(req.Categories))
	for i, c := range req.Categories {
		categories[i] = timeline.EventCategory(c)
	}
	return timeline.Filter{
		Types:          types,
		Categories:     categories,
		DateFrom:       req.DateFrom,
		DateTo:         req.DateTo,
		UserID:         req.UserID,
		Tags:           req.Tags,
		Search:         req.Search,
		IncludeDeleted: req.IncludeDeleted,
	}
}
