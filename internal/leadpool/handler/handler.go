package handler

import (
	"net/http"

	"leadpool_backend/internal/leadpool/service"
	"leadpool_backend/internal/leadpool/transport"
	"leadpool_backend/platform/httpkit"
	"leadpool_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidCompanyID = "invalid company id"
	msgConfirmRequired  = "recall must be confirmed with confirm=true"
)

// Handler handles HTTP requests for the lead pool admin API.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new lead pool handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers lead pool admin routes. The bulk pool
// operations go on bulk, which carries the stricter rate limit.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, bulk *gin.RouterGroup) {
	bulk.POST("/distribute", h.Distribute)
	bulk.POST("/recall", h.Recall)
	bulk.POST("/unlock", h.Unlock)
	bulk.POST("/cleanup", h.Cleanup)
	bulk.POST("/leads", h.ImportLeads)

	rg.GET("/analytics", h.Analytics)
	rg.GET("/companies", h.Companies)
	rg.PATCH("/companies/:id/active", h.SetCompanyActive)
	rg.PUT("/companies/:id/quota", h.SetCompanyQuota)
	rg.GET("/maintenance", h.GetMaintenance)
	rg.PUT("/maintenance", h.SetMaintenance)
}

// bind decodes and validates a JSON body. An empty body is accepted when
// allowEmpty is set.
func (h *Handler) bind(c *gin.Context, req any, allowEmpty bool) bool {
	if !(allowEmpty && c.Request.ContentLength == 0) {
		if err := c.ShouldBindJSON(req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return false
		}
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return false
	}
	return true
}

func (h *Handler) Distribute(c *gin.Context) {
	var req transport.DistributeRequest
	if !h.bind(c, &req, true) {
		return
	}

	result, err := h.svc.DistributeDailyLeads(c.Request.Context(), req.Force, req.Mode)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Recall(c *gin.Context) {
	var req transport.RecallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgConfirmRequired, nil)
		return
	}

	result, err := h.svc.RecallAllPlatformLeads(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Unlock(c *gin.Context) {
	result, err := h.svc.ForceUnlockPool(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Cleanup(c *gin.Context) {
	result, err := h.svc.CleanupBadLeads(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Analytics(c *gin.Context) {
	result, err := h.svc.GetLeadSupplyAnalytics(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Companies(c *gin.Context) {
	result, err := h.svc.GetCompanyDistributionStatus(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) SetCompanyActive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCompanyID, nil)
		return
	}

	var req transport.SetTenantActiveRequest
	if !h.bind(c, &req, false) {
		return
	}

	result, err := h.svc.SetTenantActive(c.Request.Context(), id, *req.IsActive)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) SetCompanyQuota(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCompanyID, nil)
		return
	}

	var req transport.SetTenantQuotaRequest
	if !h.bind(c, &req, false) {
		return
	}

	result, err := h.svc.SetTenantQuota(c.Request.Context(), id, *req.DailyQuota, req.IntervalHours)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) GetMaintenance(c *gin.Context) {
	result, err := h.svc.GetMaintenanceMode(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) SetMaintenance(c *gin.Context) {
	var req transport.MaintenanceRequest
	if !h.bind(c, &req, false) {
		return
	}

	identity := httpkit.GetIdentity(c)
	result, err := h.svc.SetMaintenanceMode(c.Request.Context(), *req.Enabled, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) ImportLeads(c *gin.Context) {
	var req transport.ImportLeadsRequest
	if !h.bind(c, &req, false) {
		return
	}

	result, err := h.svc.ImportLeads(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, result)
}
