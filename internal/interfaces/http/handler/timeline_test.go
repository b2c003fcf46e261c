package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	timelineapp "github.com/crm/backend/internal/application/timeline"
	"github.com/crm/backend/internal/domain/timeline"
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type timelineTestEnv struct {
	engine    *gin.Engine
	eventRepo *stubEventRepo
	exporter  *stubExporter
}

func newTimelineTestEnv(t *testing.T) *timelineTestEnv {
	t.Helper()

	env := &timelineTestEnv{
		eventRepo: newStubEventRepo(),
		exporter:  &stubExporter{},
	}

	service := timelineapp.NewService(env.eventRepo, env.exporter, &stubAudit{}, zap.NewNop())

	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.Tenant())
	api := engine.Group("/api/v1")
	NewTimelineHandler(service).RegisterRoutes(api)

	env.engine = engine
	return env
}

func (env *timelineTestEnv) do(t *testing.T, method, path string, tenantID, userID uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tenantID != uuid.Nil {
		req.Header.Set("X-Tenant-ID", tenantID.String())
	}
	if userID != uuid.Nil {
		req.Header.Set("X-User-ID", userID.String())
	}

	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	return w
}

func TestTimelineHandler_AddNote(t *testing.T) {
	env := newTimelineTestEnv(t)
	tenantID := uuid.New()
	clientID := uuid.New()

	body := map[string]any{
		"title": "Called about overdue invoice",
		"body":  "Client promised payment by Friday",
		"tags":  []string{"invoices"},
	}

	w := env.do(t, http.MethodPost, "/api/v1/clients/"+clientID.String()+"/timeline/notes", tenantID, uuid.New(), body)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "NOTE", data["type"])
	assert.Equal(t, "Called about overdue invoice", data["title"])
}

func TestTimelineHandler_AddNote_MissingTitle(t *testing.T) {
	env := newTimelineTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/clients/"+uuid.NewString()+"/timeline/notes", uuid.New(), uuid.New(), map[string]any{"body": "no title"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimelineHandler_AddTask(t *testing.T) {
	env := newTimelineTestEnv(t)
	tenantID := uuid.New()
	clientID := uuid.New()
	due := time.Now().Add(48 * time.Hour).UTC()

	body := map[string]any{
		"title":    "Prepare VAT declaration",
		"priority": "HIGH",
		"due_date": due.Format(time.RFC3339),
	}

	w := env.do(t, http.MethodPost, "/api/v1/clients/"+clientID.String()+"/timeline/tasks", tenantID, uuid.New(), body)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "TASK", data["type"])
	assert.Equal(t, "HIGH", data["priority"])
	assert.Equal(t, false, data["completed"])
}

func TestTimelineHandler_LogCall(t *testing.T) {
	env := newTimelineTestEnv(t)
	tenantID := uuid.New()
	clientID := uuid.New()

	body := map[string]any{
		"title":            "Quarterly review call",
		"duration_minutes": 30,
		"occurred_at":      time.Now().Add(-time.Hour).UTC().Format(time.RFC3339),
	}

	w := env.do(t, http.MethodPost, "/api/v1/clients/"+clientID.String()+"/timeline/calls", tenantID, uuid.New(), body)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestTimelineHandler_CompleteTask(t *testing.T) {
	env := newTimelineTestEnv(t)
	tenantID := uuid.New()
	clientID := uuid.New()
	actor := uuid.New()

	task, err := timeline.NewTask(tenantID, clientID, "Prepare declaration", "", timeline.PriorityMedium, nil, nil, actor)
	require.NoError(t, err)
	require.NoError(t, env.eventRepo.Append(t.Context(), task))

	w := env.do(t, http.MethodPost, "/api/v1/timeline/events/"+task.ID.String()+"/complete", tenantID, actor, nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["completed"])
}

func TestTimelineHandler_CompleteTask_NotATask(t *testing.T) {
	env := newTimelineTestEnv(t)
	tenantID := uuid.New()
	actor := uuid.New()

	note, err := timeline.NewNote(tenantID, uuid.New(), "A note", "", nil, actor)
	require.NoError(t, err)
	require.NoError(t, env.eventRepo.Append(t.Context(), note))

	w := env.do(t, http.MethodPost, "/api/v1/timeline/events/"+note.ID.String()+"/complete", tenantID, actor, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimelineHandler_DeleteEvent_SystemEvent(t *testing.T) {
	env := newTimelineTestEnv(t)
	tenantID := uuid.New()
	actor := uuid.New()

	event := timeline.NewSystemEvent(tenantID, uuid.New(), timeline.EventContactAdded, "Contact added", nil, &actor)
	require.NoError(t, env.eventRepo.Append(t.Context(), event))

	w := env.do(t, http.MethodDelete, "/api/v1/timeline/events/"+event.ID.String(), tenantID, actor, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_STATE", resp.Error.Code)
}

func TestTimelineHandler_DeleteEvent(t *testing.T) {
	env := newTimelineTestEnv(t)
	tenantID := uuid.New()
	actor := uuid.New()

	note, err := timeline.NewNote(tenantID, uuid.New(), "Disposable note", "", nil, actor)
	require.NoError(t, err)
	require.NoError(t, env.eventRepo.Append(t.Context(), note))

	w := env.do(t, http.MethodDelete, "/api/v1/timeline/events/"+note.ID.String(), tenantID, actor, nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestTimelineHandler_Query(t *testing.T) {
	env := newTimelineTestEnv(t)
	tenantID := uuid.New()
	clientID := uuid.New()
	actor := uuid.New()

	note, err := timeline.NewNote(tenantID, clientID, "First note", "", nil, actor)
	require.NoError(t, err)
	require.NoError(t, env.eventRepo.Append(t.Context(), note))

	w := env.do(t, http.MethodGet, "/api/v1/clients/"+clientID.String()+"/timeline?limit=10", tenantID, actor, nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	events := data["events"].([]interface{})
	require.Len(t, events, 1)
	assert.Equal(t, false, data["has_more"])
}

func TestTimelineHandler_Query_MalformedCursor(t *testing.T) {
	env := newTimelineTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/clients/"+uuid.NewString()+"/timeline?cursor=%25%25garbage", uuid.New(), uuid.New(), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestTimelineHandler_Export(t *testing.T) {
	env := newTimelineTestEnv(t)
	tenantID := uuid.New()
	clientID := uuid.New()
	actor := uuid.New()

	note, err := timeline.NewNote(tenantID, clientID, "Exported note", "", nil, actor)
	require.NoError(t, err)
	require.NoError(t, env.eventRepo.Append(t.Context(), note))

	w := env.do(t, http.MethodPost, "/api/v1/clients/"+clientID.String()+"/timeline/export", tenantID, actor, map[string]any{"format": "pdf"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "pdf", data["format"])
	assert.NotEmpty(t, data["url"])
}

func TestTimelineHandler_Export_BadFormat(t *testing.T) {
	env := newTimelineTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/clients/"+uuid.NewString()+"/timeline/export", uuid.New(), uuid.New(), map[string]any{"format": "docx"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
