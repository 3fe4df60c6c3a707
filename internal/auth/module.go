package auth

import (
	apphttp "leadflow_backend/internal/http"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/validator"
)

// Module is the authentication module implementing http.Module.
type Module struct {
	handler *Handler
}

func NewModule(cfg config.AuthConfig, val *validator.Validator, log *logger.Logger) *Module {
	service := NewService(cfg, log)
	return &Module{handler: NewHandler(service, val)}
}

func (m *Module) Name() string {
	return "auth"
}

// RegisterRoutes mounts the public login endpoint. Login is the only
// unauthenticated admin-facing route; it sits behind the stricter
// auth rate limiter.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/auth")
	if ctx.AuthRateLimiter != nil {
		group.Use(ctx.AuthRateLimiter.Middleware())
	}
	group.POST("/login", m.handler.HandleLogin)
}

var _ apphttp.Module = (*Module)(nil)
