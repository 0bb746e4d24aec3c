// File: internal/service/runner.go

// Package service assembles the collaborators for one agent run. The CLI
// and the HTTP server both execute tasks through the Runner so wiring lives
// in exactly one place.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/webpilot-ai/webpilot/api/schemas"
	"github.com/webpilot-ai/webpilot/internal/agent"
	"github.com/webpilot-ai/webpilot/internal/artifacts"
	"github.com/webpilot-ai/webpilot/internal/browser"
	"github.com/webpilot-ai/webpilot/internal/config"
	"github.com/webpilot-ai/webpilot/internal/provider"
	"github.com/webpilot-ai/webpilot/internal/sites"
	"github.com/webpilot-ai/webpilot/internal/skills"
	"github.com/webpilot-ai/webpilot/internal/store"
)

// RunSink records finished runs. Implemented by *store.Store.
type RunSink interface {
	SaveRun(ctx context.Context, rec store.RunRecord) error
}

// Runner builds a fresh provider and browser session per task and drives
// the agent loop over them.
type Runner struct {
	cfg    *config.Config
	sink   RunSink
	logger *zap.Logger

	// newExecutor is swapped out in tests to avoid launching Chrome.
	newExecutor func(ctx context.Context) (executor, error)
}

type executor interface {
	agent.ActionExecutor
	Close() error
}

// NewRunner assembles a runner. sink may be nil; recording is then skipped.
func NewRunner(cfg *config.Config, sink RunSink, logger *zap.Logger) *Runner {
	r := &Runner{cfg: cfg, sink: sink, logger: logger}
	r.newExecutor = func(ctx context.Context) (executor, error) {
		session := browser.NewSession(cfg.Browser, sites.DefaultRegistry(logger), logger)
		if err := session.Start(ctx); err != nil {
			return nil, err
		}
		return session, nil
	}
	return r
}

// RunTask executes one task end to end. Request-level provider/model
// overrides take precedence over the configured defaults.
func (r *Runner) RunTask(ctx context.Context, req schemas.RunRequest) (*schemas.AgentResult, error) {
	llmCfg := r.cfg.LLM
	if req.Provider != "" {
		llmCfg.Provider = req.Provider
	}
	if req.Model != "" {
		llmCfg.Model = req.Model
	}

	modelProvider, err := provider.New(llmCfg, r.logger)
	if err != nil {
		return nil, err
	}

	exec, err := r.newExecutor(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := exec.Close(); cerr != nil {
			r.logger.Warn("Failed to close browser session", zap.Error(cerr))
		}
	}()

	skillStore := skills.NewStore(r.cfg.Skills.Dir, r.logger)
	writer := artifacts.NewWriter(r.cfg.Artifacts.Dir, r.logger)
	dispatcher := agent.NewDispatcher(exec, skillStore, writer, r.logger)
	a := agent.New(modelProvider, dispatcher, skillStore, r.cfg.Agent.MaxSteps, r.logger)

	started := time.Now()
	result, runErr := a.Run(ctx, req.Task)
	if result != nil {
		r.record(req, llmCfg, modelProvider.Name(), result, started)
	}
	return result, runErr
}

// record sends the finished run to the sink. Best effort: storage problems
// never alter the result handed back to the caller.
func (r *Runner) record(req schemas.RunRequest, llmCfg config.LLMConfig, providerName string, result *schemas.AgentResult, started time.Time) {
	if r.sink == nil {
		return
	}

	rec := store.RunRecord{
		ID:         uuid.New().String(),
		Task:       req.Task,
		Provider:   providerName,
		Model:      llmCfg.Model,
		Result:     result.Result,
		Success:    result.Success,
		Error:      result.Error,
		Steps:      result.Steps,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}

	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.sink.SaveRun(saveCtx, rec); err != nil {
		r.logger.Warn("Failed to record run", zap.String("run_id", rec.ID), zap.Error(err))
	}
}
