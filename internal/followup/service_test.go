package followup

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"
)

// The cadence guard runs before any repository access, so an ineligible
// lead handed to ProcessLead (stale selection, reply landed mid-batch)
// is skipped as a conflict instead of sent a duplicate follow-up.
func TestProcessLeadSkipsIneligibleLead(t *testing.T) {
	svc := &Service{intervalDays: 4, maxSteps: 4, log: logger.New("test")}

	recent := time.Now().Add(-24 * time.Hour)
	stale := time.Now().Add(-5 * 24 * time.Hour)

	cases := []struct {
		name string
		lead repository.Lead
	}{
		{
			name: "reply already detected",
			lead: repository.Lead{ID: uuid.New(), Status: domain.StatusQuoteSent,
				ReplyDetected: true, LastCommunication: &stale},
		},
		{
			name: "interval not elapsed",
			lead: repository.Lead{ID: uuid.New(), Status: domain.StatusQuoteSent,
				LastCommunication: &recent},
		},
		{
			name: "step cap reached",
			lead: repository.Lead{ID: uuid.New(), Status: domain.StatusFollowUpSent4,
				FollowUpCount: 4, LastCommunication: &stale},
		},
		{
			name: "reply status",
			lead: repository.Lead{ID: uuid.New(), Status: domain.StatusReplyReceived,
				LastCommunication: &stale},
		},
		{
			name: "no prior communication",
			lead: repository.Lead{ID: uuid.New(), Status: domain.StatusQuoteSent},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := svc.ProcessLead(context.Background(), tc.lead)
			require.Error(t, res.Err)
			require.True(t, apperr.Is(res.Err, apperr.KindConflict), "want conflict, got %v", res.Err)
		})
	}
}
