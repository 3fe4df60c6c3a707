package followup

import (
	apphttp "leadflow_backend/internal/http"
)

// Module exposes the manual follow-up trigger, implementing http.Module.
type Module struct {
	handler *Handler
}

func NewModule(runner BatchRunner) *Module {
	return &Module{handler: NewHandler(runner)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "followup"
}

// RegisterRoutes mounts the follow-up admin routes. The template CRUD lives
// with the leads module; this only adds the manual batch trigger.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.Group("/followup").POST("/run", m.handler.HandleRun)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
