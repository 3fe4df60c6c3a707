package ai

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadflow_backend/platform/httpkit"
	"leadflow_backend/platform/validator"
)

// Handler exposes the model configuration admin API.
type Handler struct {
	repo *Repository
	val  *validator.Validator
}

func NewHandler(repo *Repository, val *validator.Validator) *Handler {
	return &Handler{repo: repo, val: val}
}

type ModelConfigResponse struct {
	ID         uuid.UUID `json:"id"`
	Provider   string    `json:"provider"`
	ModelID    string    `json:"modelId"`
	IsPrimary  bool      `json:"isPrimary"`
	IsFallback bool      `json:"isFallback"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  string    `json:"createdAt"`
}

type CreateModelRequest struct {
	Provider   string `json:"provider" validate:"required,oneof=openai gemini"`
	ModelID    string `json:"modelId" validate:"required,min=1,max=200"`
	IsPrimary  bool   `json:"isPrimary"`
	IsFallback bool   `json:"isFallback"`
}

type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// HandleList lists all model configs.
// GET /api/v1/admin/ai/models
func (h *Handler) HandleList(c *gin.Context) {
	models, err := h.repo.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	result := make([]ModelConfigResponse, len(models))
	for i, m := range models {
		result[i] = toModelResponse(m)
	}
	httpkit.OK(c, result)
}

// HandleCreate registers a model config.
// POST /api/v1/admin/ai/models
func (h *Handler) HandleCreate(c *gin.Context) {
	var req CreateModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	model, err := h.repo.Create(c.Request.Context(), CreateModelParams{
		Provider:   req.Provider,
		ModelID:    req.ModelID,
		IsPrimary:  req.IsPrimary,
		IsFallback: req.IsFallback,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	c.JSON(http.StatusCreated, toModelResponse(model))
}

// HandleSetActive toggles a model config.
// PATCH /api/v1/admin/ai/models/:modelId/active
func (h *Handler) HandleSetActive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("modelId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid model ID", nil)
		return
	}

	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	if err := h.repo.SetActive(c.Request.Context(), id, *req.Active); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleDelete removes a model config.
// DELETE /api/v1/admin/ai/models/:modelId
func (h *Handler) HandleDelete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("modelId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid model ID", nil)
		return
	}

	if err := h.repo.Delete(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func toModelResponse(m ModelConfig) ModelConfigResponse {
	return ModelConfigResponse{
		ID:         m.ID,
		Provider:   m.Provider,
		ModelID:    m.ModelID,
		IsPrimary:  m.IsPrimary,
		IsFallback: m.IsFallback,
		IsActive:   m.IsActive,
		CreatedAt:  m.CreatedAt.Format(time.RFC3339),
	}
}
