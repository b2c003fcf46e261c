package handler

import (
	clientapp "github.com/crm/backend/internal/application/client"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContactHandler handles client contact API endpoints
type ContactHandler struct {
	BaseHandler
	contactService *clientapp.ContactService
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(contactService *clientapp.ContactService) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
	}
}

// RegisterRoutes wires contact endpoints into the API group
func (h *ContactHandler) RegisterRoutes(rg *gin.RouterGroup) {
	clients := rg.Group("/clients/:client_id")
	{
		clients.POST("/contacts", h.Create)
		clients.GET("/contacts", h.List)
		clients.POST("/contacts/:id/primary", h.TransferPrimary)
	}

	contacts := rg.Group("/contacts")
	{
		contacts.GET("/:id", h.GetByID)
		contacts.PUT("/:id", h.Update)
		contacts.DELETE("/:id", h.Delete)
		contacts.GET("/:id/history", h.History)
		contacts.POST("/:id/portal/enable", h.EnablePortal)
		contacts.POST("/:id/portal/revoke", h.RevokePortal)
		contacts.POST("/:id/portal/activated", h.PortalActivated)
	}
}

// Create adds a contact to a client
func (h *ContactHandler) Create(c *gin.Context) {
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

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "User context required")
		return
	}

	var req clientapp.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	contact, err := h.contactService.Create(c.Request.Context(), tenantID, clientID, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, contact)
}

// GetByID retrieves a single contact
func (h *ContactHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contact ID format")
		return
	}

	contact, err := h.contactService.GetByID(c.Request.Context(), tenantID, contactID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, contact)
}

// List returns a client's contacts, primary first
func (h *ContactHandler) List(c *gin.Context) {
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

	var filter clientapp.ContactListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	contacts, err := h.contactService.List(c.Request.Context(), tenantID, clientID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, contacts)
}

// Update modifies a contact's profile fields
func (h *ContactHandler) Update(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contact ID format")
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "User context required")
		return
	}

	var req clientapp.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	contact, err := h.contactService.Update(c.Request.Context(), tenantID, contactID, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, contact)
}

// Delete soft-deletes a contact
func (h *ContactHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contact ID format")
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "User context required")
		return
	}

	if err := h.contactService.Delete(c.Request.Context(), tenantID, contactID, actor); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// TransferPrimary atomically moves the primary flag to another contact
func (h *ContactHandler) TransferPrimary(c *gin.Context) {
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

	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contact ID format")
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "User context required")
		return
	}

	if err := h.contactService.TransferPrimary(c.Request.Context(), tenantID, clientID, contactID, actor); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// EnablePortal provisions portal access for a contact
func (h *ContactHandler) EnablePortal(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contact ID format")
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "User context required")
		return
	}

	var req clientapp.EnablePortalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	contact, err := h.contactService.EnablePortal(c.Request.Context(), tenantID, contactID, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, contact)
}

// RevokePortal deactivates a contact's portal access
func (h *ContactHandler) RevokePortal(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contact ID format")
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "User context required")
		return
	}

	var req clientapp.RevokePortalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	contact, err := h.contactService.RevokePortal(c.Request.Context(), tenantID, contactID, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, contact)
}

// PortalActivated is the portal callback marking the contact's first login
func (h *ContactHandler) PortalActivated(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contact ID format")
		return
	}

	if err := h.contactService.MarkPortalActive(c.Request.Context(), tenantID, contactID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// History returns the change trail for a contact
func (h *ContactHandler) History(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contact ID format")
		return
	}

	entries, err := h.contactService.GetHistory(c.Request.Context(), tenantID, contactID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entries)
}
