package handler

import (
	verificationapp "github.com/crm/backend/internal/application/verification"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// VerificationHandler handles VAT and whitelist verification endpoints
type VerificationHandler struct {
	BaseHandler
	vatService       *verificationapp.VATService
	whitelistService *verificationapp.WhitelistService
}

// NewVerificationHandler creates a new VerificationHandler
func NewVerificationHandler(
	vatService *verificationapp.VATService,
	whitelistService *verificationapp.WhitelistService,
) *VerificationHandler {
	return &VerificationHandler{
		vatService:       vatService,
		whitelistService: whitelistService,
	}
}

// RegisterRoutes wires verification endpoints into the API group
func (h *VerificationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	vat := rg.Group("/verification/vat")
	{
		vat.POST("", h.ValidateVAT)
		vat.POST("/batch", h.BatchValidateVAT)
	}

	whitelist := rg.Group("/verification/whitelist")
	{
		whitelist.POST("", h.VerifyWhitelist)
		whitelist.POST("/batch", h.BatchVerifyWhitelist)
	}

	clients := rg.Group("/clients/:client_id/verifications")
	{
		clients.GET("/vat", h.VATHistory)
		clients.GET("/whitelist", h.WhitelistHistory)
	}
}

// ValidateVAT validates one VAT number against the registry
func (h *VerificationHandler) ValidateVAT(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "User context required")
		return
	}

	var req verificationapp.ValidateVATRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.vatService.Validate(c.Request.Context(), tenantID, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// BatchValidateVAT validates up to 100 VAT numbers, isolating per-item failures
func (h *VerificationHandler) BatchValidateVAT(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "User context required")
		return
	}

	var req verificationapp.BatchValidateVATRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	results, err := h.vatService.BatchValidate(c.Request.Context(), tenantID, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, results)
}

// VerifyWhitelist checks one NIP, optionally with a bank account, against the whitelist
func (h *VerificationHandler) VerifyWhitelist(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "User context required")
		return
	}

	var req verificationapp.VerifyWhitelistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.whitelistService.Verify(c.Request.Context(), tenantID, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// BatchVerifyWhitelist runs whitelist checks concurrently per entry
func (h *VerificationHandler) BatchVerifyWhitelist(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "User context required")
		return
	}

	var req verificationapp.BatchVerifyWhitelistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	results, err := h.whitelistService.BatchVerify(c.Request.Context(), tenantID, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, results)
}

// VATHistory lists stored VAT validation records for a client
func (h *VerificationHandler) VATHistory(c *gin.Context) {
	tenantID, clientID, filter, ok := h.bindHistoryRequest(c)
	if !ok {
		return
	}

	records, err := h.vatService.GetByClient(c.Request.Context(), tenantID, clientID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, records)
}

// WhitelistHistory lists stored whitelist verification records for a client
func (h *VerificationHandler) WhitelistHistory(c *gin.Context) {
	tenantID, clientID, filter, ok := h.bindHistoryRequest(c)
	if !ok {
		return
	}

	records, err := h.whitelistService.GetByClient(c.Request.Context(), tenantID, clientID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, records)
}

func (h *VerificationHandler) bindHistoryRequest(c *gin.Context) (uuid.UUID, uuid.UUID, shared.Filter, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return uuid.Nil, uuid.Nil, shared.Filter{}, false
	}

	clientID, err := uuid.Parse(c.Param("client_id"))
	if err != nil {
		h.BadRequest(c, "Invalid client ID format")
		return uuid.Nil, uuid.Nil, shared.Filter{}, false
	}

	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		h.BindError(c, err)
		return uuid.Nil, uuid.Nil, shared.Filter{}, false
	}

	filter := shared.DefaultFilter()
	filter.Page = list.Page
	filter.PageSize = list.Limit()
	return tenantID, clientID, filter, true
}
