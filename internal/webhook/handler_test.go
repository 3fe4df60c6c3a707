package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/service"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/validator"
)

type fakeIngestor struct {
	lead       repository.Lead
	created    bool
	ingestErr  error
	gotParams  repository.UpsertLeadParams
	outcome    service.ReplyOutcome
	replyErr   error
	gotReply   service.ReplyInput
	replyCalls int
}

func (f *fakeIngestor) IngestLead(_ context.Context, params repository.UpsertLeadParams) (repository.Lead, bool, error) {
	f.gotParams = params
	return f.lead, f.created, f.ingestErr
}

func (f *fakeIngestor) ProcessReply(_ context.Context, input service.ReplyInput) (service.ReplyOutcome, error) {
	f.gotReply = input
	f.replyCalls++
	return f.outcome, f.replyErr
}

func setupHandler(t *testing.T, ingestor *fakeIngestor) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewHandler(ingestor, nil, validator.New())
	engine := gin.New()
	engine.POST("/webhook/leads", h.HandleLeadSubmission)
	engine.POST("/webhook/replies", h.HandleReplySubmission)
	return engine
}

func postJSON(t *testing.T, engine *gin.Engine, path string, payload map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestHandleLeadSubmissionCreated(t *testing.T) {
	leadID := uuid.New()
	ingestor := &fakeIngestor{
		lead:    repository.Lead{ID: leadID, Status: domain.StatusNewLead},
		created: true,
	}
	engine := setupHandler(t, ingestor)

	rec := postJSON(t, engine, "/webhook/leads", map[string]any{
		"director_first_name":  "Sarah",
		"director_last_name":   "Chen",
		"director_email":       "S.Chen@Westfield.EDU",
		"school_name":          "Westfield High",
		"estimated_performers": 75,
		"early_bird_deadline":  "2026-10-01",
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp LeadSubmissionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, leadID, resp.LeadID)
	require.True(t, resp.Created)
	require.Equal(t, "New_Lead", resp.Status)

	require.Equal(t, "s.chen@westfield.edu", ingestor.gotParams.Email)
	require.NotNil(t, ingestor.gotParams.EstimatedPerformers)
	require.Equal(t, 75, *ingestor.gotParams.EstimatedPerformers)
	require.NotNil(t, ingestor.gotParams.EarlyBirdDeadline)
	require.Nil(t, ingestor.gotParams.EventDate)
}

func TestHandleLeadSubmissionExistingLead(t *testing.T) {
	ingestor := &fakeIngestor{
		lead:    repository.Lead{ID: uuid.New(), Status: domain.StatusQuoteSent},
		created: false,
	}
	engine := setupHandler(t, ingestor)

	rec := postJSON(t, engine, "/webhook/leads", map[string]any{
		"director_first_name": "Sarah",
		"director_last_name":  "Chen",
		"director_email":      "s.chen@westfield.edu",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp LeadSubmissionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Created)
	require.Equal(t, "Quote_Sent", resp.Status)
}

func TestHandleLeadSubmissionValidation(t *testing.T) {
	ingestor := &fakeIngestor{}
	engine := setupHandler(t, ingestor)

	cases := []map[string]any{
		{"director_last_name": "Chen", "director_email": "a@b.com"},    // missing first name
		{"director_first_name": "Sarah", "director_email": "a@b.com"},  // missing last name
		{"director_first_name": "S", "director_last_name": "C"},        // missing email
		{"director_first_name": "S", "director_last_name": "C", "director_email": "not-an-email"},
		{"director_first_name": "S", "director_last_name": "C", "director_email": "a@b.com", "early_bird_deadline": "10/01/2026"},
	}
	for _, payload := range cases {
		rec := postJSON(t, engine, "/webhook/leads", payload)
		require.Equal(t, http.StatusBadRequest, rec.Code, "payload %v", payload)
	}
}

// A submission carrying only the three required snake_case keys must be
// accepted; form builders send exactly this shape.
func TestHandleLeadSubmissionMinimalBody(t *testing.T) {
	ingestor := &fakeIngestor{
		lead:    repository.Lead{ID: uuid.New(), Status: domain.StatusNewLead},
		created: true,
	}
	engine := setupHandler(t, ingestor)

	rec := postJSON(t, engine, "/webhook/leads", map[string]any{
		"director_first_name": "Sarah",
		"director_last_name":  "Chen",
		"director_email":      "s.chen@westfield.edu",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "Sarah", ingestor.gotParams.FirstName)
	require.Equal(t, "Chen", ingestor.gotParams.LastName)
	require.Equal(t, "s.chen@westfield.edu", ingestor.gotParams.Email)
}

func TestHandleReplySubmission(t *testing.T) {
	leadID := uuid.New()
	ingestor := &fakeIngestor{
		outcome: service.ReplyOutcome{
			LeadID:     leadID,
			IntentType: "ready_to_purchase",
			Confidence: 0.93,
			Converted:  true,
		},
	}
	engine := setupHandler(t, ingestor)

	rec := postJSON(t, engine, "/webhook/replies", map[string]any{
		"leadEmail":      "S.Chen@Westfield.edu",
		"replyContent":   "Yes, let's do it. Send the invoice.",
		"replySubject":   "Re: Your quote",
		"replyTimestamp": "2026-08-30T14:00:00Z",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ReplySubmissionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, leadID, resp.LeadID)
	require.Equal(t, "ready_to_purchase", resp.IntentType)
	require.True(t, resp.Converted)

	require.Equal(t, "s.chen@westfield.edu", ingestor.gotReply.LeadEmail)
	require.Equal(t, "webhook", ingestor.gotReply.Source)
	require.NotNil(t, ingestor.gotReply.ReceivedAt)
}

func TestHandleReplySubmissionUnknownLead(t *testing.T) {
	ingestor := &fakeIngestor{replyErr: apperr.NotFound("lead not found")}
	engine := setupHandler(t, ingestor)

	rec := postJSON(t, engine, "/webhook/replies", map[string]any{
		"leadEmail":    "nobody@example.com",
		"replyContent": "Who is this?",
	})

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleReplySubmissionBadTimestamp(t *testing.T) {
	ingestor := &fakeIngestor{}
	engine := setupHandler(t, ingestor)

	rec := postJSON(t, engine, "/webhook/replies", map[string]any{
		"leadEmail":      "s.chen@westfield.edu",
		"replyContent":   "Hello",
		"replyTimestamp": "yesterday",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, ingestor.replyCalls)
}

func TestGenerateAPIKey(t *testing.T) {
	plaintext, hash, prefix, err := GenerateAPIKey()
	require.NoError(t, err)
	require.Len(t, plaintext, 4+64)
	require.True(t, len(prefix) == 12)
	require.Equal(t, plaintext[:12], prefix)
	require.Equal(t, hash, HashKey(plaintext))

	_, hash2, _, err := GenerateAPIKey()
	require.NoError(t, err)
	require.NotEqual(t, hash, hash2)
}

func TestIsDomainAllowed(t *testing.T) {
	cases := []struct {
		origin  string
		domains []string
		want    bool
	}{
		{"https://www.westfield.edu/contact", []string{"www.westfield.edu"}, true},
		{"https://www.westfield.edu", []string{"*.westfield.edu"}, true},
		{"https://westfield.edu", []string{"*.westfield.edu"}, true},
		{"https://evil.com", []string{"www.westfield.edu"}, false},
		{"https://evil.com", []string{"*"}, true},
		{"", []string{"www.westfield.edu"}, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, isDomainAllowed(tc.origin, tc.domains), "origin %q domains %v", tc.origin, tc.domains)
	}
}
