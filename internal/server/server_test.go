package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/webpilot-ai/webpilot/api/schemas"
	"github.com/webpilot-ai/webpilot/internal/config"
	"github.com/webpilot-ai/webpilot/internal/provider"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// stubRunner scripts one RunTask outcome.
type stubRunner struct {
	res     *schemas.AgentResult
	err     error
	lastReq schemas.RunRequest
}

func (r *stubRunner) RunTask(ctx context.Context, req schemas.RunRequest) (*schemas.AgentResult, error) {
	r.lastReq = req
	return r.res, r.err
}

func newTestServer(t *testing.T, runner AgentRunner) *Server {
	t.Helper()
	return New(config.ServerConfig{Addr: ":0"}, runner, zap.NewNop())
}

func postRun(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/run", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &stubRunner{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRunCompleted(t *testing.T) {
	runner := &stubRunner{res: &schemas.AgentResult{
		Result:  "Logged in.",
		Steps:   []schemas.Step{{StepNumber: 1, ToolName: "navigate", ToolResult: "ok", Success: true}},
		Success: true,
	}}
	s := newTestServer(t, runner)

	w := postRun(t, s, `{"task":"log in","provider":"openai","model":"gpt-4o"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp schemas.RunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Logged in.", resp.Result)
	assert.Len(t, resp.Steps, 1)
	assert.Equal(t, "openai", runner.lastReq.Provider)
	assert.Equal(t, "gpt-4o", runner.lastReq.Model)
}

func TestRunBudgetExhaustedStillOK(t *testing.T) {
	runner := &stubRunner{res: &schemas.AgentResult{
		Result:  "Max steps reached without completing the task.",
		Success: false,
		Error:   schemas.BudgetError,
	}}
	s := newTestServer(t, runner)

	w := postRun(t, s, `{"task":"impossible"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp schemas.RunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, schemas.BudgetError, resp.Error)
}

func TestRunMissingTaskIsBadRequest(t *testing.T) {
	s := newTestServer(t, &stubRunner{})

	w := postRun(t, s, `{"provider":"openai"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postRun(t, s, `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunUnknownProviderIsBadRequest(t *testing.T) {
	runner := &stubRunner{err: fmt.Errorf("%w %q", provider.ErrUnknownProvider, "cohere")}
	s := newTestServer(t, runner)

	w := postRun(t, s, `{"task":"x","provider":"cohere"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown provider")
}

func TestRunProviderFailureIsBadGateway(t *testing.T) {
	runner := &stubRunner{
		res: &schemas.AgentResult{Success: false, Error: "upstream 500"},
		err: errors.New("provider call failed: upstream 500"),
	}
	s := newTestServer(t, runner)

	w := postRun(t, s, `{"task":"x"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "upstream 500")
}
