package ai

import (
	apphttp "leadflow_backend/internal/http"
	"leadflow_backend/platform/validator"
)

// Module exposes the model configuration admin API.
type Module struct {
	handler *Handler
}

func NewModule(repo *Repository, val *validator.Validator) *Module {
	return &Module{handler: NewHandler(repo, val)}
}

func (m *Module) Name() string {
	return "ai"
}

// RegisterRoutes mounts the model config admin routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Admin.Group("/ai/models")
	group.GET("", m.handler.HandleList)
	group.POST("", m.handler.HandleCreate)
	group.PATCH("/:modelId/active", m.handler.HandleSetActive)
	group.DELETE("/:modelId", m.handler.HandleDelete)
}

var _ apphttp.Module = (*Module)(nil)
