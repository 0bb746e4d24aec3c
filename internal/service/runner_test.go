package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/webpilot-ai/webpilot/api/schemas"
	"github.com/webpilot-ai/webpilot/internal/config"
	"github.com/webpilot-ai/webpilot/internal/provider"
	"github.com/webpilot-ai/webpilot/internal/store"
)

// fakeExecutor satisfies the executor interface without a browser.
type fakeExecutor struct {
	closed bool
}

func (f *fakeExecutor) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	return "ok", nil
}

func (f *fakeExecutor) Close() error {
	f.closed = true
	return nil
}

// captureSink records the last run handed to it.
type captureSink struct {
	last *store.RunRecord
	err  error
}

func (s *captureSink) SaveRun(ctx context.Context, rec store.RunRecord) error {
	s.last = &rec
	return s.err
}

func testConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.LLM.AnthropicAPIKey = "test-key"
	cfg.Agent.MaxSteps = 3
	return cfg
}

func TestRunTaskUnknownProviderPropagates(t *testing.T) {
	r := NewRunner(testConfig(), nil, zap.NewNop())

	_, err := r.RunTask(context.Background(), schemas.RunRequest{Task: "x", Provider: "cohere"})
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrUnknownProvider)
}

func TestRunTaskClosesExecutorOnExit(t *testing.T) {
	// A canceled context makes the provider call fail immediately; the
	// session must still be released.
	exec := &fakeExecutor{}
	r := NewRunner(testConfig(), nil, zap.NewNop())
	r.newExecutor = func(ctx context.Context) (executor, error) { return exec, nil }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.RunTask(ctx, schemas.RunRequest{Task: "x"})
	require.Error(t, err)
	assert.True(t, exec.closed, "browser session must be released on failure paths")
}

func TestRunTaskExecutorFailurePropagates(t *testing.T) {
	r := NewRunner(testConfig(), nil, zap.NewNop())
	r.newExecutor = func(ctx context.Context) (executor, error) {
		return nil, errors.New("chrome not found")
	}

	_, err := r.RunTask(context.Background(), schemas.RunRequest{Task: "x"})
	assert.ErrorContains(t, err, "chrome not found")
}

func TestRecordSendsRunToSink(t *testing.T) {
	sink := &captureSink{}
	r := NewRunner(testConfig(), sink, zap.NewNop())

	result := &schemas.AgentResult{
		Result:  "done",
		Success: true,
		Steps:   []schemas.Step{{StepNumber: 1, ToolName: "navigate", Success: true}},
	}
	r.record(schemas.RunRequest{Task: "buy socks"}, r.cfg.LLM, "anthropic", result, time.Now())

	require.NotNil(t, sink.last)
	assert.Equal(t, "buy socks", sink.last.Task)
	assert.Equal(t, "anthropic", sink.last.Provider)
	assert.True(t, sink.last.Success)
	assert.Len(t, sink.last.Steps, 1)
	assert.NotEmpty(t, sink.last.ID)
}

func TestRecordSinkFailureIsSwallowed(t *testing.T) {
	sink := &captureSink{err: errors.New("db down")}
	r := NewRunner(testConfig(), sink, zap.NewNop())

	// Must not panic or propagate.
	r.record(schemas.RunRequest{Task: "x"}, r.cfg.LLM, "anthropic",
		&schemas.AgentResult{Result: "done", Success: true}, time.Now())
	require.NotNil(t, sink.last)
}

func TestRecordNilSinkIsNoop(t *testing.T) {
	r := NewRunner(testConfig(), nil, zap.NewNop())
	r.record(schemas.RunRequest{Task: "x"}, r.cfg.LLM, "anthropic",
		&schemas.AgentResult{Result: "done", Success: true}, time.Now())
}
