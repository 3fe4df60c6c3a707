package followup

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadflow_backend/platform/httpkit"
)

// BatchRunner lets the admin trigger reuse the scheduler's batch path.
type BatchRunner interface {
	RunBatch(ctx context.Context) ([]LeadResult, error)
}

// Handler exposes the manual follow-up trigger.
type Handler struct {
	runner BatchRunner
}

func NewHandler(runner BatchRunner) *Handler {
	return &Handler{runner: runner}
}

type RunLeadResult struct {
	LeadID uuid.UUID `json:"leadId"`
	Step   int       `json:"step"`
	Error  string    `json:"error,omitempty"`
}

type RunResponse struct {
	Processed int             `json:"processed"`
	Failed    int             `json:"failed"`
	Results   []RunLeadResult `json:"results"`
}

// HandleRun selects every due lead and runs the batch immediately, without
// waiting for the scheduler tick. Per-lead failures are reported, not fatal.
// POST /api/v1/admin/followup/run
func (h *Handler) HandleRun(c *gin.Context) {
	results, err := h.runner.RunBatch(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	resp := RunResponse{
		Processed: len(results),
		Results:   make([]RunLeadResult, len(results)),
	}
	for i, res := range results {
		out := RunLeadResult{LeadID: res.LeadID, Step: res.Step}
		if res.Err != nil {
			out.Error = res.Err.Error()
			resp.Failed++
		}
		resp.Results[i] = out
	}
	httpkit.OK(c, resp)
}
