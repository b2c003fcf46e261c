package persistence

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/timeline"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/crm/backend/internal/infrastructure/persistence/tenant"
)

// GormEventRepository implements the timeline EventRepository using GORM.
// The table is append-only; Update only carries task completion and the
// tombstone.
type GormEventRepository struct {
	db *gorm.DB
}

// NewGormEventRepository creates a new GormEventRepository
func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

// Append inserts a new event
func (r *GormEventRepository) Append(ctx context.Context, event *timeline.TimelineEvent) error {
	model := models.TimelineEventModelFromDomain(event)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByIDForTenant finds an event by ID within a tenant, including
// soft-deleted ones so callers can inspect the tombstone.
func (r *GormEventRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*timeline.TimelineEvent, error) {
	var model models.TimelineEventModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Update persists task-completion and tombstone changes
func (r *GormEventRepository) Update(ctx context.Context, event *timeline.TimelineEvent) error {
	model := models.TimelineEventModelFromDomain(event)
	return r.db.WithContext(ctx).Save(model).Error
}

// Query pages through a client's timeline with keyset pagination on
// (created_at, id). The tag filter requires every requested tag.
func (r *GormEventRepository) Query(ctx context.Context, tenantID, clientID uuid.UUID, filter timeline.Filter, cursor *timeline.Cursor, limit int, order timeline.SortOrder) (*timeline.Page, error) {
	query := r.db.WithContext(ctx).
		Model(&models.TimelineEventModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where("client_id = ?", clientID)

	query = applyEventFilter(query, filter)

	if cursor != nil {
		if order == timeline.SortAsc {
			query = query.Where("(created_at > ?) OR (created_at = ? AND id > ?)",
				cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
		} else {
			query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
				cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
		}
	}

	if order == timeline.SortAsc {
		query = query.Order("created_at ASC, id ASC")
	} else {
		query = query.Order("created_at DESC, id DESC")
	}

	// Fetch one extra row to decide whether another page exists.
	var eventModels []models.TimelineEventModel
	if err := query.Limit(limit + 1).Find(&eventModels).Error; err != nil {
		return nil, err
	}

	hasMore := len(eventModels) > limit
	if hasMore {
		eventModels = eventModels[:limit]
	}

	events := make([]timeline.TimelineEvent, len(eventModels))
	for i, model := range eventModels {
		events[i] = *model.ToDomain()
	}

	page := &timeline.Page{
		Events:  events,
		HasMore: hasMore,
	}
	if hasMore && len(events) > 0 {
		last := events[len(events)-1]
		page.NextCursor = timeline.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
	}
	return page, nil
}

// CountByClient counts a client's non-deleted events
func (r *GormEventRepository) CountByClient(ctx context.Context, tenantID, clientID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TimelineEventModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where("client_id = ? AND deleted_at IS NULL", clientID).
		Count(&count).Error
	return count, err
}

func applyEventFilter(query *gorm.DB, filter timeline.Filter) *gorm.DB {
	if !filter.IncludeDeleted {
		query = query.Where("deleted_at IS NULL")
	}
	if len(filter.Types) > 0 {
		query = query.Where("type IN ?", filter.Types)
	}
	if len(filter.Categories) > 0 {
		query = query.Where("category IN ?", filter.Categories)
	}
	if filter.DateFrom != nil {
		query = query.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("created_at <= ?", *filter.DateTo)
	}
	if filter.UserID != nil {
		query = query.Where("created_by = ?", *filter.UserID)
	}
	if len(filter.Tags) > 0 {
		// jsonb containment requires every listed tag to be present
		if tagsJSON, err := json.Marshal(filter.Tags); err == nil {
			query = query.Where("tags @> ?", string(tagsJSON))
		}
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	return query
}

var _ timeline.EventRepository = (*GormEventRepository)(nil)
