package timeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SortOrder directs timeline pagination
type SortOrder string

const (
	SortDesc SortOrder = "desc"
	SortAsc  SortOrder = "asc"
)

// Filter narrows a timeline query. All supplied dimensions combine with
// AND; within Types and Categories a single match suffices, while Tags
// requires the event to carry every listed tag.
type Filter struct {
	Types          []EventType
	Categories     []EventCategory
	DateFrom       *time.Time
	DateTo         *time.Time
	UserID         *uuid.UUID
	Tags           []string
	Search         string
	IncludeDeleted bool
}

// Cursor is an opaque pagination token encoding the last seen event's
// creation time and id.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// Encode renders the cursor as an opaque URL-safe token
func (c Cursor) Encode() string {
	raw := fmt.Sprintf("%s|%s", c.CreatedAt.UTC().Format(time.RFC3339Nano), c.ID)
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by Encode. An empty token means
// start from the beginning.
func DecodeCursor(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, shared.NewValidationError("Malformed pagination cursor")
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return nil, shared.NewValidationError("Malformed pagination cursor")
	}
	createdAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, shared.NewValidationError("Malformed pagination cursor")
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, shared.NewValidationError("Malformed pagination cursor")
	}
	return &Cursor{CreatedAt: createdAt, ID: id}, nil
}

// Page is one window of timeline results
type Page struct {
	Events     []TimelineEvent
	NextCursor string
	HasMore    bool
}

// EventRepository persists timeline events
type EventRepository interface {
	Append(ctx context.Context, event *TimelineEvent) error
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*TimelineEvent, error)
	// Update persists task-completion and tombstone changes. Other fields
	// are write-once via Append.
	Update(ctx context.Context, event *TimelineEvent) error
	Query(ctx context.Context, tenantID, clientID uuid.UUID, filter Filter, cursor *Cursor, limit int, order SortOrder) (*Page, error)
	CountByClient(ctx context.Context, tenantID, clientID uuid.UUID) (int64, error)
}

// Exporter renders a slice of timeline events into a downloadable document
// and returns a time-limited handle to it.
type Exporter interface {
	Export(ctx context.Context, tenantID, clientID uuid.UUID, events []TimelineEvent, format string) (*ExportHandle, error)
}

// ExportHandle points at a rendered export
type ExportHandle struct {
	URL       string
	Format    string
	ExpiresAt time.Time
}
