package handler

import (
	"net/http"
	"strconv"

	"leadflow_backend/internal/leads/management"
	"leadflow_backend/internal/leads/transport"
	"leadflow_backend/platform/httpkit"
	"leadflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *management.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidLeadID    = "invalid lead id"
)

func New(svc *management.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.PATCH("/:id", h.Update)
	rg.PATCH("/:id/status", h.ChangeStatus)
	rg.POST("/:id/interactions", h.RecordInteraction)
	rg.GET("/:id/score", h.PreviewScore)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if !h.bindJSON(c, &req) {
		return
	}

	identity := httpkit.GetIdentity(c)
	lead, err := h.svc.Create(c.Request.Context(), identity.TenantID(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, lead)
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.List(c.Request.Context(), httpkit.GetIdentity(c).TenantID(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	identity := httpkit.GetIdentity(c)
	lead, err := h.svc.GetByID(c.Request.Context(), identity.TenantID(), id, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}
	var req transport.UpdateLeadRequest
	if !h.bindJSON(c, &req) {
		return
	}

	identity := httpkit.GetIdentity(c)
	lead, err := h.svc.Update(c.Request.Context(), identity.TenantID(), id, identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) ChangeStatus(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}
	var req transport.ChangeStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	identity := httpkit.GetIdentity(c)
	lead, err := h.svc.ChangeStatus(c.Request.Context(), identity.TenantID(), id, identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) RecordInteraction(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}
	var req transport.RecordInteractionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	identity := httpkit.GetIdentity(c)
	interaction, err := h.svc.RecordInteraction(c.Request.Context(), identity.TenantID(), id, identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, interaction)
}

func (h *Handler) PreviewScore(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	preview, err := h.svc.PreviewScore(c.Request.Context(), httpkit.GetIdentity(c).TenantID(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, preview)
}

func (h *Handler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

func leadID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return 0, false
	}
	return id, true
}
