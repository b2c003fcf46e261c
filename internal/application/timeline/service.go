package timeline

import (
	"context"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/timeline"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	exportBatchSize = 500
)

// Service is the single read and write surface for client timelines. System
// producers append through the typed event constructors; this service adds
// the manually authored entries, task completion, soft deletion, paging and
// export.
type Service struct {
	eventRepo timeline.EventRepository
	exporter  timeline.Exporter
	audit     shared.AuditLogger
	logger    *zap.Logger
}

// NewService creates a new timeline Service
func NewService(eventRepo timeline.EventRepository, exporter timeline.Exporter, audit shared.AuditLogger, logger *zap.Logger) *Service {
	return &Service{
		eventRepo: eventRepo,
		exporter:  exporter,
		audit:     audit,
		logger:    logger,
	}
}

// AddNote appends a manually authored note
func (s *Service) AddNote(ctx context.Context, tenantID, clientID, actor uuid.UUID, req AddNoteRequest) (*EventResponse, error) {
	event, err := timeline.NewNote(tenantID, clientID, req.Title, req.Body, req.Tags, actor)
	if err != nil {
		return nil, err
	}
	return s.append(ctx, event, "timeline.note_added", actor)
}

// AddTask appends a task; an unspecified priority defaults to MEDIUM
func (s *Service) AddTask(ctx context.Context, tenantID, clientID, actor uuid.UUID, req AddTaskRequest) (*EventResponse, error) {
	event, err := timeline.NewTask(tenantID, clientID, req.Title, req.Description, timeline.TaskPriority(req.Priority), req.DueDate, req.Tags, actor)
	if err != nil {
		return nil, err
	}
	return s.append(ctx, event, "timeline.task_added", actor)
}

// LogCall appends a phone call record
func (s *Service) LogCall(ctx context.Context, tenantID, clientID, actor uuid.UUID, req LogCallRequest) (*EventResponse, error) {
	event, err := timeline.NewCall(tenantID, clientID, req.Title, req.Notes, req.DurationMinutes, req.OccurredAt, req.Tags, actor)
	if err != nil {
		return nil, err
	}
	return s.append(ctx, event, "timeline.call_logged", actor)
}

// LogMeeting appends a meeting record
func (s *Service) LogMeeting(ctx context.Context, tenantID, clientID, actor uuid.UUID, req LogMeetingRequest) (*EventResponse, error) {
	event, err := timeline.NewMeeting(tenantID, clientID, req.Title, req.Notes, req.DurationMinutes, req.OccurredAt, req.Participants, req.Tags, actor)
	if err != nil {
		return nil, err
	}
	return s.append(ctx, event, "timeline.meeting_logged", actor)
}

// RecordSystemEvent appends a pre-built system event. Producers construct it
// with the typed constructors so stored events stay uniform per type.
func (s *Service) RecordSystemEvent(ctx context.Context, event *timeline.TimelineEvent) error {
	return s.eventRepo.Append(ctx, event)
}

// CompleteTask marks a task done exactly once
func (s *Service) CompleteTask(ctx context.Context, tenantID, eventID, actor uuid.UUID) (*EventResponse, error) {
	event, err := s.eventRepo.FindByIDForTenant(ctx, tenantID, eventID)
	if err != nil {
		return nil, err
	}
	if err := event.Complete(actor); err != nil {
		return nil, err
	}
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, shared.NewAuditEntry(tenantID, "timeline.task_completed", "timeline_event", event.ID, actor, nil))

	response := ToEventResponse(event)
	return &response, nil
}

// DeleteEvent tombstones a manually authored event. System events are part
// of the permanent record.
func (s *Service) DeleteEvent(ctx context.Context, tenantID, eventID, actor uuid.UUID) error {
	event, err := s.eventRepo.FindByIDForTenant(ctx, tenantID, eventID)
	if err != nil {
		return err
	}
	if err := event.Delete(actor); err != nil {
		return err
	}
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return err
	}
	s.audit.Record(ctx, shared.NewAuditEntry(tenantID, "timeline.event_deleted", "timeline_event", event.ID, actor, nil))
	return nil
}

// Query returns one cursor-paginated window of the client's timeline,
// newest first unless asked otherwise.
func (s *Service) Query(ctx context.Context, tenantID, clientID uuid.UUID, req QueryRequest) (*PageResponse, error) {
	cursor, err := timeline.DecodeCursor(req.Cursor)
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	order := timeline.SortDesc
	if req.SortOrder == string(timeline.SortAsc) {
		order = timeline.SortAsc
	}

	page, err := s.eventRepo.Query(ctx, tenantID, clientID, toDomainFilter(req), cursor, limit, order)
	if err != nil {
		return nil, err
	}

	events := make([]EventResponse, len(page.Events))
	for i := range page.Events {
		events[i] = ToEventResponse(&page.Events[i])
	}
	return &PageResponse{
		Events:     events,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}, nil
}

// Export renders the client's full timeline through the external formatter
// and returns a time-limited download handle.
func (s *Service) Export(ctx context.Context, tenantID, clientID, actor uuid.UUID, req ExportRequest) (*ExportResponse, error) {
	var all []timeline.TimelineEvent
	var cursor *timeline.Cursor
	for {
		page, err := s.eventRepo.Query(ctx, tenantID, clientID, timeline.Filter{}, cursor, exportBatchSize, timeline.SortDesc)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Events...)
		if !page.HasMore {
			break
		}
		next, err := timeline.DecodeCursor(page.NextCursor)
		if err != nil {
			return nil, err
		}
		cursor = next
	}

	handle, err := s.exporter.Export(ctx, tenantID, clientID, all, req.Format)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, shared.NewAuditEntry(tenantID, "timeline.exported", "client", clientID, actor,
		map[string]interface{}{"format": req.Format, "events": len(all)}))

	return &ExportResponse{
		URL:       handle.URL,
		Format:    handle.Format,
		ExpiresAt: handle.ExpiresAt,
	}, nil
}

func (s *Service) append(ctx context.Context, event *timeline.TimelineEvent, action string, actor uuid.UUID) (*EventResponse, error) {
	if err := s.eventRepo.Append(ctx, event); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, shared.NewAuditEntry(event.TenantID, action, "timeline_event", event.ID, actor, nil))

	response := ToEventResponse(event)
	return &response, nil
}
