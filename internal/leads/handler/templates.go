package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/transport"
	"leadflow_backend/platform/httpkit"
)

func (h *Handler) RegisterTemplateRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListTemplates)
	rg.PUT("", h.SaveTemplate)
	rg.DELETE("/:templateId", h.DeleteTemplate)
}

// ListTemplates returns all follow-up templates ordered by sequence.
// GET /api/v1/admin/followup/templates
func (h *Handler) ListTemplates(c *gin.Context) {
	templates, err := h.repo.ListTemplates(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	result := make([]transport.TemplateResponse, len(templates))
	for i, t := range templates {
		result[i] = transport.ToTemplateResponse(t)
	}
	httpkit.OK(c, result)
}

// SaveTemplate creates or replaces the template for a follow-up step.
// PUT /api/v1/admin/followup/templates
func (h *Handler) SaveTemplate(c *gin.Context) {
	var req transport.SaveTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	saved, err := h.repo.SaveTemplate(c.Request.Context(), req.ToParams())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToTemplateResponse(saved))
}

// DeleteTemplate removes a follow-up template. Steps without an active
// template are skipped by the scheduler.
// DELETE /api/v1/admin/followup/templates/:templateId
func (h *Handler) DeleteTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("templateId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid template ID", nil)
		return
	}

	if err := h.repo.DeleteTemplate(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrTemplateNotFound) {
			httpkit.Error(c, http.StatusNotFound, err.Error(), nil)
			return
		}
		httpkit.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
