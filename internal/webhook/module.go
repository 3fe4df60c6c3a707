// Package webhook provides the lead capture bounded context module.
package webhook

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "leadflow_backend/internal/http"
	"leadflow_backend/platform/validator"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	repo    *Repository
}

// NewModule creates and initializes the webhook module with all its dependencies.
func NewModule(pool *pgxpool.Pool, ingestor LeadIngestor, val *validator.Validator) *Module {
	repo := NewRepository(pool)
	handler := NewHandler(ingestor, repo, val)
	return &Module{handler: handler, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts webhook routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public intake endpoints (API key auth, no JWT)
	webhookGroup := ctx.V1.Group("/webhook")
	webhookGroup.Use(APIKeyAuth(m.repo))
	webhookGroup.POST("/leads", m.handler.HandleLeadSubmission)
	webhookGroup.POST("/replies", m.handler.HandleReplySubmission)

	// Admin API key management (JWT auth)
	adminGroup := ctx.Admin.Group("/webhook/keys")
	adminGroup.POST("", m.handler.HandleCreateAPIKey)
	adminGroup.GET("", m.handler.HandleListAPIKeys)
	adminGroup.DELETE("/:keyId", m.handler.HandleRevokeAPIKey)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
