package followup

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"leadflow_backend/platform/apperr"
)

type fakeRunner struct {
	results []LeadResult
	err     error
	calls   int
}

func (f *fakeRunner) RunBatch(_ context.Context) ([]LeadResult, error) {
	f.calls++
	return f.results, f.err
}

func setupRunEngine(t *testing.T, runner *fakeRunner) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.POST("/followup/run", NewHandler(runner).HandleRun)
	return engine
}

func TestHandleRunReportsPerLeadResults(t *testing.T) {
	okID, failedID := uuid.New(), uuid.New()
	runner := &fakeRunner{results: []LeadResult{
		{LeadID: okID, Step: 2},
		{LeadID: failedID, Step: 1, Err: apperr.Conflict("lead is no longer due")},
	}}
	engine := setupRunEngine(t, runner)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/followup/run", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, runner.calls)

	var resp RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Processed)
	require.Equal(t, 1, resp.Failed)
	require.Equal(t, okID, resp.Results[0].LeadID)
	require.Empty(t, resp.Results[0].Error)
	require.Equal(t, failedID, resp.Results[1].LeadID)
	require.NotEmpty(t, resp.Results[1].Error)
}

func TestHandleRunEmptyBatch(t *testing.T) {
	engine := setupRunEngine(t, &fakeRunner{})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/followup/run", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Zero(t, resp.Processed)
	require.Zero(t, resp.Failed)
}

func TestHandleRunSelectionFailure(t *testing.T) {
	runner := &fakeRunner{err: apperr.Wrap(apperr.KindInternal, "due-lead selection failed", context.DeadlineExceeded)}
	engine := setupRunEngine(t, runner)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/followup/run", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
