// Package leads provides the lead lifecycle bounded context module.
package leads

import (
	apphttp "leadflow_backend/internal/http"
	"leadflow_backend/internal/leads/handler"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/service"
	"leadflow_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule wires the admin-facing leads API. The state machine and
// orchestrator are built in main and shared with the webhook module and
// the scheduler binary.
func NewModule(machine *service.StateMachine, orchestrator *service.Orchestrator, repo *repository.Repository, converter service.Converter, val *validator.Validator) *Module {
	return &Module{
		handler: handler.New(machine, orchestrator, repo, converter, val),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// RegisterRoutes mounts leads admin routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin.Group("/leads"))
	m.handler.RegisterTemplateRoutes(ctx.Admin.Group("/followup/templates"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
