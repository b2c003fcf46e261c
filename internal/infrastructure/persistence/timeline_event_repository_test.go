package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/timeline"
)

func TestGormEventRepository_Append(t *testing.T) {
	t.Run("inserts a new event", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormEventRepository(gormDB)

		note, err := timeline.NewNote(uuid.New(), uuid.New(), "Kickoff", "Notes", []string{"onboarding"}, uuid.New())
		require.NoError(t, err)

		mock.ExpectExec(`INSERT INTO "timeline_events"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = repo.Append(context.Background(), note)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormEventRepository_FindByIDForTenant(t *testing.T) {
	t.Run("finds existing event with metadata", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormEventRepository(gormDB)

		tenantID := uuid.New()
		eventID := uuid.New()
		clientID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "client_id", "type", "category", "title", "metadata", "tags"}).
			AddRow(eventID, tenantID, clientID, "NOTE", "MANUAL", "Kickoff", `{"key":"value"}`, `["onboarding"]`)

		mock.ExpectQuery(`SELECT \* FROM "timeline_events" WHERE tenant_id = \$1 AND id = \$2`).
			WithArgs(tenantID, eventID, 1).
			WillReturnRows(rows)

		event, err := repo.FindByIDForTenant(context.Background(), tenantID, eventID)

		require.NoError(t, err)
		assert.Equal(t, timeline.EventNote, event.Type)
		assert.Equal(t, "value", event.Metadata["key"])
		assert.Equal(t, []string{"onboarding"}, event.Tags)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing event to not found", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormEventRepository(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "timeline_events"`).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByIDForTenant(context.Background(), uuid.New(), uuid.New())

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormEventRepository_Query(t *testing.T) {
	tenantID := uuid.New()
	clientID := uuid.New()

	eventRow := func(rows *sqlmock.Rows, createdAt time.Time) *sqlmock.Rows {
		return rows.AddRow(uuid.New(), createdAt, tenantID, clientID, "NOTE", "MANUAL", "Entry")
	}
	columns := []string{"id", "created_at", "tenant_id", "client_id", "type", "category", "title"}

	t.Run("returns a page without next cursor when results fit", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormEventRepository(gormDB)

		rows := sqlmock.NewRows(columns)
		eventRow(rows, time.Now())

		mock.ExpectQuery(`SELECT \* FROM "timeline_events" WHERE tenant_id = \$1 AND client_id = \$2 AND deleted_at IS NULL ORDER BY created_at DESC, id DESC LIMIT \$3`).
			WithArgs(tenantID, clientID, 21).
			WillReturnRows(rows)

		page, err := repo.Query(context.Background(), tenantID, clientID, timeline.Filter{}, nil, 20, timeline.SortDesc)

		require.NoError(t, err)
		assert.Len(t, page.Events, 1)
		assert.False(t, page.HasMore)
		assert.Empty(t, page.NextCursor)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("emits next cursor when an extra row comes back", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormEventRepository(gormDB)

		rows := sqlmock.NewRows(columns)
		eventRow(rows, time.Now())
		eventRow(rows, time.Now().Add(-time.Minute))
		eventRow(rows, time.Now().Add(-2*time.Minute))

		mock.ExpectQuery(`SELECT \* FROM "timeline_events"`).
			WithArgs(tenantID, clientID, 3).
			WillReturnRows(rows)

		page, err := repo.Query(context.Background(), tenantID, clientID, timeline.Filter{}, nil, 2, timeline.SortDesc)

		require.NoError(t, err)
		assert.Len(t, page.Events, 2)
		assert.True(t, page.HasMore)
		assert.NotEmpty(t, page.NextCursor)

		cursor, err := timeline.DecodeCursor(page.NextCursor)
		require.NoError(t, err)
		assert.Equal(t, page.Events[1].ID, cursor.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("applies cursor and ascending order", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormEventRepository(gormDB)

		cursor := &timeline.Cursor{CreatedAt: time.Now().Add(-time.Hour), ID: uuid.New()}

		mock.ExpectQuery(`SELECT \* FROM "timeline_events" WHERE .*\(created_at > \$3\) OR \(created_at = \$4 AND id > \$5\).* ORDER BY created_at ASC, id ASC`).
			WillReturnRows(sqlmock.NewRows(columns))

		page, err := repo.Query(context.Background(), tenantID, clientID, timeline.Filter{}, cursor, 20, timeline.SortAsc)

		require.NoError(t, err)
		assert.Empty(t, page.Events)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("requires every tag via jsonb containment", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormEventRepository(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "timeline_events" WHERE .*tags @> .*`).
			WillReturnRows(sqlmock.NewRows(columns))

		_, err := repo.Query(context.Background(), tenantID, clientID,
			timeline.Filter{Tags: []string{"vip", "urgent"}}, nil, 20, timeline.SortDesc)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("includes soft-deleted rows on request", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormEventRepository(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "timeline_events" WHERE tenant_id = \$1 AND client_id = \$2 ORDER BY`).
			WithArgs(tenantID, clientID, 21).
			WillReturnRows(sqlmock.NewRows(columns))

		_, err := repo.Query(context.Background(), tenantID, clientID,
			timeline.Filter{IncludeDeleted: true}, nil, 20, timeline.SortDesc)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormEventRepository_CountByClient(t *testing.T) {
	t.Run("counts non-deleted events", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormEventRepository(gormDB)

		tenantID := uuid.New()
		clientID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "timeline_events" WHERE tenant_id = \$1 AND \(client_id = \$2 AND deleted_at IS NULL\)`).
			WithArgs(tenantID, clientID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

		count, err := repo.CountByClient(context.Background(), tenantID, clientID)

		require.NoError(t, err)
		assert.Equal(t, int64(7), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
