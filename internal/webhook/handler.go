package webhook

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/service"
	"leadflow_backend/platform/httpkit"
	"leadflow_backend/platform/phone"
	"leadflow_backend/platform/sanitize"
	"leadflow_backend/platform/validator"
)

const (
	errInvalidRequest = "invalid request body"
	errValidation     = "validation error"

	dateFormat = "2006-01-02"
)

// LeadIngestor is the slice of the leads orchestrator the webhook
// endpoints need.
type LeadIngestor interface {
	IngestLead(ctx context.Context, params repository.UpsertLeadParams) (repository.Lead, bool, error)
	ProcessReply(ctx context.Context, input service.ReplyInput) (service.ReplyOutcome, error)
}

// Handler handles webhook HTTP requests.
type Handler struct {
	ingestor LeadIngestor
	repo     *Repository
	val      *validator.Validator
}

func NewHandler(ingestor LeadIngestor, repo *Repository, val *validator.Validator) *Handler {
	return &Handler{ingestor: ingestor, repo: repo, val: val}
}

// ---- Lead capture (public, API-key authenticated) ----

// LeadSubmissionRequest is an inbound lead form submission. Form builders
// post snake_case keys; dates use the YYYY-MM-DD format.
type LeadSubmissionRequest struct {
	DirectorFirstName   string `json:"director_first_name" validate:"required,min=1,max=100"`
	DirectorLastName    string `json:"director_last_name" validate:"required,min=1,max=100"`
	DirectorEmail       string `json:"director_email" validate:"required,email,max=254"`
	Phone               string `json:"phone" validate:"max=30"`
	SchoolName          string `json:"school_name" validate:"max=200"`
	ProgramType         string `json:"program_type" validate:"max=100"`
	EstimatedPerformers *int   `json:"estimated_performers" validate:"omitempty,min=1,max=10000"`
	EarlyBirdDeadline   string `json:"early_bird_deadline" validate:"omitempty,datetime=2006-01-02"`
	EventDate           string `json:"event_date" validate:"omitempty,datetime=2006-01-02"`
}

// LeadSubmissionResponse reports the upsert outcome. Created is false when
// the email matched an existing lead and the submission refreshed it instead.
type LeadSubmissionResponse struct {
	LeadID  uuid.UUID `json:"leadId"`
	Created bool      `json:"created"`
	Status  string    `json:"status"`
}

// HandleLeadSubmission processes an inbound lead form submission.
// POST /api/v1/webhook/leads
func (h *Handler) HandleLeadSubmission(c *gin.Context) {
	var req LeadSubmissionRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	lead, created, err := h.ingestor.IngestLead(c.Request.Context(), req.toParams())
	if httpkit.HandleError(c, err) {
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, LeadSubmissionResponse{
		LeadID:  lead.ID,
		Created: created,
		Status:  string(lead.Status),
	})
}

func (r LeadSubmissionRequest) toParams() repository.UpsertLeadParams {
	return repository.UpsertLeadParams{
		FirstName:           sanitize.Text(r.DirectorFirstName),
		LastName:            sanitize.Text(r.DirectorLastName),
		Email:               strings.ToLower(strings.TrimSpace(r.DirectorEmail)),
		Phone:               optionalText(phone.NormalizeE164(r.Phone)),
		SchoolName:          optionalText(sanitize.Text(r.SchoolName)),
		ProgramType:         optionalText(sanitize.Text(r.ProgramType)),
		EstimatedPerformers: r.EstimatedPerformers,
		EarlyBirdDeadline:   optionalDate(r.EarlyBirdDeadline),
		EventDate:           optionalDate(r.EventDate),
	}
}

// ---- Reply forwarding (public, API-key authenticated) ----

// ReplySubmissionRequest is an inbound director reply forwarded by the
// mail integration.
type ReplySubmissionRequest struct {
	LeadEmail      string `json:"leadEmail" validate:"required,email,max=254"`
	ReplyContent   string `json:"replyContent" validate:"required,min=1"`
	ReplySubject   string `json:"replySubject" validate:"max=500"`
	ReplyTimestamp string `json:"replyTimestamp" validate:"omitempty"`
}

// ReplySubmissionResponse reports the classification outcome.
type ReplySubmissionResponse struct {
	LeadID     uuid.UUID `json:"leadId"`
	IntentType string    `json:"intentType"`
	Confidence float64   `json:"confidence"`
	Fallback   bool      `json:"fallback"`
	Converted  bool      `json:"converted"`
}

// HandleReplySubmission classifies a forwarded reply and advances the lead.
// POST /api/v1/webhook/replies
func (h *Handler) HandleReplySubmission(c *gin.Context) {
	var req ReplySubmissionRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	var receivedAt *time.Time
	if req.ReplyTimestamp != "" {
		ts, err := time.Parse(time.RFC3339, req.ReplyTimestamp)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "replyTimestamp must be RFC 3339", nil)
			return
		}
		receivedAt = &ts
	}

	outcome, err := h.ingestor.ProcessReply(c.Request.Context(), service.ReplyInput{
		LeadEmail:    strings.ToLower(strings.TrimSpace(req.LeadEmail)),
		ReplyContent: req.ReplyContent,
		ReplySubject: sanitize.Text(req.ReplySubject),
		ReceivedAt:   receivedAt,
		Source:       "webhook",
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, ReplySubmissionResponse{
		LeadID:     outcome.LeadID,
		IntentType: outcome.IntentType,
		Confidence: outcome.Confidence,
		Fallback:   outcome.Fallback,
		Converted:  outcome.Converted,
	})
}

// ---- Admin API key management (JWT authenticated) ----

// CreateAPIKeyRequest is the request body for creating a new API key.
type CreateAPIKeyRequest struct {
	Name           string   `json:"name" validate:"required,min=1,max=100"`
	AllowedDomains []string `json:"allowedDomains" validate:"max=20,dive,max=200"`
}

// APIKeyResponse is returned when listing or creating API keys.
type APIKeyResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	KeyPrefix      string    `json:"keyPrefix"`
	AllowedDomains []string  `json:"allowedDomains"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      string    `json:"createdAt"`
}

// CreateAPIKeyResponse includes the plaintext key (shown only once).
type CreateAPIKeyResponse struct {
	APIKeyResponse
	Key string `json:"key"` // plaintext, shown only once
}

// HandleCreateAPIKey creates a new webhook API key.
// POST /api/v1/admin/webhook/keys
func (h *Handler) HandleCreateAPIKey(c *gin.Context) {
	var req CreateAPIKeyRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	plaintext, hash, prefix, err := GenerateAPIKey()
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to generate API key", nil)
		return
	}

	domains := req.AllowedDomains
	if domains == nil {
		domains = []string{}
	}

	key, err := h.repo.Create(c.Request.Context(), req.Name, hash, prefix, domains)
	if httpkit.HandleError(c, err) {
		return
	}

	c.JSON(http.StatusCreated, CreateAPIKeyResponse{
		APIKeyResponse: toAPIKeyResponse(key),
		Key:            plaintext,
	})
}

// HandleListAPIKeys lists all webhook API keys.
// GET /api/v1/admin/webhook/keys
func (h *Handler) HandleListAPIKeys(c *gin.Context) {
	keys, err := h.repo.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	result := make([]APIKeyResponse, len(keys))
	for i, k := range keys {
		result[i] = toAPIKeyResponse(k)
	}
	httpkit.OK(c, result)
}

// HandleRevokeAPIKey deactivates a webhook API key.
// DELETE /api/v1/admin/webhook/keys/:keyId
func (h *Handler) HandleRevokeAPIKey(c *gin.Context) {
	keyID, err := uuid.Parse(c.Param("keyId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid key ID", nil)
		return
	}

	if err := h.repo.Revoke(c.Request.Context(), keyID); err != nil {
		if err == ErrAPIKeyNotFound {
			httpkit.Error(c, http.StatusNotFound, "API key not found", nil)
			return
		}
		httpkit.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ---- helpers ----

func (h *Handler) bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, err.Error())
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errValidation, err.Error())
		return false
	}
	return true
}

func toAPIKeyResponse(key APIKey) APIKeyResponse {
	return APIKeyResponse{
		ID:             key.ID,
		Name:           key.Name,
		KeyPrefix:      key.KeyPrefix,
		AllowedDomains: key.AllowedDomains,
		IsActive:       key.IsActive,
		CreatedAt:      key.CreatedAt.Format(time.RFC3339),
	}
}

func optionalText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return nil
	}
	return &t
}
