// Package handler exposes the leads admin HTTP API.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/service"
	"leadflow_backend/internal/leads/transport"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/httpkit"
	"leadflow_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidLeadID    = "invalid lead ID"

	defaultPageSize = 50
	maxPageSize     = 200
)

type Handler struct {
	machine      *service.StateMachine
	orchestrator *service.Orchestrator
	repo         *repository.Repository
	converter    service.Converter
	val          *validator.Validator
}

func New(machine *service.StateMachine, orchestrator *service.Orchestrator, repo *repository.Repository, converter service.Converter, val *validator.Validator) *Handler {
	return &Handler{
		machine:      machine,
		orchestrator: orchestrator,
		repo:         repo,
		converter:    converter,
		val:          val,
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.GetByID)
	rg.GET("/:id/communications", h.ListCommunications)
	rg.POST("/:id/requote", h.Requote)
	rg.POST("/:id/convert", h.Convert)
	rg.POST("/:id/mark-converted", h.MarkConverted)
	rg.POST("/:id/mark-paid", h.MarkPaid)
}

// List returns leads, optionally filtered by status.
// GET /api/v1/admin/leads?status=Quote_Sent&limit=50&offset=0
func (h *Handler) List(c *gin.Context) {
	params := repository.ListParams{
		Limit:  queryInt(c, "limit", defaultPageSize),
		Offset: queryInt(c, "offset", 0),
	}
	if params.Limit < 1 || params.Limit > maxPageSize {
		params.Limit = defaultPageSize
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	if raw := c.Query("status"); raw != "" {
		status := domain.Status(raw)
		if !domain.IsKnownStatus(status) {
			httpkit.Error(c, http.StatusBadRequest, "unknown status filter", nil)
			return
		}
		params.Status = &status
	}

	leads, err := h.machine.List(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadResponses(leads))
}

// GetByID returns one lead.
// GET /api/v1/admin/leads/:id
func (h *Handler) GetByID(c *gin.Context) {
	lead, ok := h.leadFromPath(c)
	if !ok {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

// ListCommunications returns the outreach history for a lead.
// GET /api/v1/admin/leads/:id/communications
func (h *Handler) ListCommunications(c *gin.Context) {
	lead, ok := h.leadFromPath(c)
	if !ok {
		return
	}

	records, err := h.machine.Communications(c.Request.Context(), lead.ID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToCommunicationResponses(records))
}

// Requote reruns the quote cycle for a lead still in the initial status.
// Useful when the original AI generation or dispatch failed after ingestion.
// POST /api/v1/admin/leads/:id/requote
func (h *Handler) Requote(c *gin.Context) {
	lead, ok := h.leadFromPath(c)
	if !ok {
		return
	}

	if err := h.orchestrator.ProcessNewLead(c.Request.Context(), lead); httpkit.HandleError(c, err) {
		return
	}

	updated, err := h.machine.Get(c.Request.Context(), lead.ID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(updated))
}

// Convert pushes a lead through the billing conversion, creating the
// external customer and invoice. Used to retry conversions that failed
// when the purchase-intent reply arrived.
// POST /api/v1/admin/leads/:id/convert
func (h *Handler) Convert(c *gin.Context) {
	if h.converter == nil {
		httpkit.HandleError(c, apperr.Configuration("billing is not configured"))
		return
	}

	lead, ok := h.leadFromPath(c)
	if !ok {
		return
	}

	if err := h.converter.Convert(c.Request.Context(), lead); httpkit.HandleError(c, err) {
		return
	}

	updated, err := h.machine.Get(c.Request.Context(), lead.ID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(updated))
}

// MarkConverted records an out-of-band conversion without touching billing.
// POST /api/v1/admin/leads/:id/mark-converted
func (h *Handler) MarkConverted(c *gin.Context) {
	lead, ok := h.leadFromPath(c)
	if !ok {
		return
	}

	updated, err := h.machine.MarkManuallyConverted(c.Request.Context(), lead)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(updated))
}

// MarkPaid records payment receipt for an invoiced lead.
// POST /api/v1/admin/leads/:id/mark-paid
func (h *Handler) MarkPaid(c *gin.Context) {
	lead, ok := h.leadFromPath(c)
	if !ok {
		return
	}

	updated, err := h.machine.MarkPaid(c.Request.Context(), lead)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(updated))
}

func (h *Handler) leadFromPath(c *gin.Context) (repository.Lead, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return repository.Lead{}, false
	}

	lead, err := h.machine.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return repository.Lead{}, false
	}
	return lead, true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
