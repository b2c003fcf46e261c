package handler

import (
	timelineapp "github.com/crm/backend/internal/application/timeline"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TimelineHandler handles client timeline API endpoints
type TimelineHandler struct {
	BaseHandler
	timelineService *timelineapp.Service
}

// NewTimelineHandler creates a new TimelineHandler
func NewTimelineHandler(timelineService *timelineapp.Service) *TimelineHandler {
	return &TimelineHandler{
		timelineService: timelineService,
	}
}

// RegisterRoutes wires timeline endpoints into the API group
func (h *TimelineHandler) RegisterRoutes(rg *gin.RouterGroup) {
	clients := rg.Group("/clients/:client_id/timeline")
	{
		clients.GET("", h.Query)
		clients.POST("/notes", h.AddNote)
		clients.POST("/tasks", h.AddTask)
		clients.POST("/calls", h.LogCall)
		clients.POST("/meetings", h.LogMeeting)
		clients.POST("/export", h.Export)
	}

	events := rg.Group("/timeline/events")
	{
		events.POST("/:id/complete", h.CompleteTask)
		events.DELETE("/:id", h.DeleteEvent)
	}
}

// Query returns one cursor-paged window of a client's timeline
func (h *TimelineHandler) Query(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	clientID, err := uuid.Parse(c.Param("client_id"))
	if err != nil {
		h.BadRequest(c, "Invalid client ID format")
		return
	}

	var req timelineapp.QueryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.timelineService.Query(c.Request.Context(), tenantID, clientID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, page)
}

// AddNote appends a note event
func (h *TimelineHandler) AddNote(c *gin.Context) {
	tenantID, clientID, actor, ok := h.bindEventContext(c)
	if !ok {
		return
	}

	var req timelineapp.AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	event, err := h.timelineService.AddNote(c.Request.Context(), tenantID, clientID, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, event)
}

// AddTask appends a task event
func (h *TimelineHandler) AddTask(c *gin.Context) {
	tenantID, clientID, actor, ok := h.bindEventContext(c)
	if !ok {
		return
	}

	var req timelineapp.AddTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	event, err := h.timelineService.AddTask(c.Request.Context(), tenantID, clientID, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, event)
}

// LogCall appends a phone call record
func (h *TimelineHandler) LogCall(c *gin.Context) {
	tenantID, clientID, actor, ok := h.bindEventContext(c)
	if !ok {
		return
	}

	var req timelineapp.LogCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	event, err := h.timelineService.LogCall(c.Request.Context(), tenantID, clientID, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, event)
}

// LogMeeting appends a meeting record
func (h *TimelineHandler) LogMeeting(c *gin.Context) {
	tenantID, clientID, actor, ok := h.bindEventContext(c)
	if !ok {
		return
	}

	var req timelineapp.LogMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	event, err := h.timelineService.LogMeeting(c.Request.Context(), tenantID, clientID, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, event)
}

// CompleteTask marks a task event as done
func (h *TimelineHandler) CompleteTask(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid event ID format")
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "User context required")
		return
	}

	event, err := h.timelineService.CompleteTask(c.Request.Context(), tenantID, eventID, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, event)
}

// DeleteEvent soft-deletes a manually authored event
func (h *TimelineHandler) DeleteEvent(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid event ID format")
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "User context required")
		return
	}

	if err := h.timelineService.DeleteEvent(c.Request.Context(), tenantID, eventID, actor); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Export renders the client's timeline into a downloadable document
func (h *TimelineHandler) Export(c *gin.Context) {
	tenantID, clientID, actor, ok := h.bindEventContext(c)
	if !ok {
		return
	}

	var req timelineapp.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	handle, err := h.timelineService.Export(c.Request.Context(), tenantID, clientID, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, handle)
}

func (h *TimelineHandler) bindEventContext(c *gin.Context) (uuid.UUID, uuid.UUID, uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}

	clientID, err := uuid.Parse(c.Param("client_id"))
	if err != nil {
		h.BadRequest(c, "Invalid client ID format")
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "User context required")
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}

	return tenantID, clientID, actor, true
}
