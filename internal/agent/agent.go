// File: internal/agent/agent.go

// Package agent contains the control loop driving an LLM through browser
// actions until the task completes or the step budget runs out.
package agent

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/webpilot-ai/webpilot/api/schemas"
	"github.com/webpilot-ai/webpilot/internal/tools"
)

const stepResultCap = 500

// Agent runs one task per Run call. The loop is single-threaded: history
// and the step audit are mutated only between the provider call and the
// dispatches of one iteration.
type Agent struct {
	provider   Provider
	dispatcher *Dispatcher
	skills     SkillStore
	maxSteps   int
	logger     *zap.Logger
}

// New assembles an agent. skills may be nil; the prompt hint and the skill
// tools then act on an empty library via the dispatcher's collaborator.
func New(provider Provider, dispatcher *Dispatcher, skills SkillStore, maxSteps int, logger *zap.Logger) *Agent {
	return &Agent{
		provider:   provider,
		dispatcher: dispatcher,
		skills:     skills,
		maxSteps:   maxSteps,
		logger:     logger.Named("agent"),
	}
}

// Run drives the task to a terminal state. The returned result is always
// usable; the error is non-nil only when a provider call failed.
func (a *Agent) Run(ctx context.Context, task string) (*schemas.AgentResult, error) {
	runID := uuid.New().String()[:8]
	log := a.logger.With(zap.String("run_id", runID))
	log.Info("Starting run",
		zap.String("provider", a.provider.Name()),
		zap.Int("max_steps", a.maxSteps),
		zap.String("task", task))

	prompt := systemPrompt
	if a.skills != nil {
		if hint := a.skills.IndexHint(); hint != "" {
			prompt += skillsHint
		}
	}

	history := []schemas.Message{
		{Role: schemas.RoleSystem, Content: prompt},
		{Role: schemas.RoleUser, Content: task},
	}
	schemasList := tools.Schemas()
	var steps []schemas.Step

	for stepNum := 1; stepNum <= a.maxSteps; stepNum++ {
		reply, err := a.provider.Complete(ctx, history, schemasList)
		if err != nil {
			log.Error("Provider call failed", zap.Int("step", stepNum), zap.Error(err))
			return &schemas.AgentResult{
				Result:  fmt.Sprintf("Agent error: %s", err.Error()),
				Steps:   steps,
				Success: false,
				Error:   err.Error(),
			}, fmt.Errorf("provider call failed at step %d: %w", stepNum, err)
		}

		history = append(history, schemas.Message{
			Role:            schemas.RoleAssistant,
			Content:         reply.Text,
			ToolInvocations: reply.ToolInvocations,
		})

		if len(reply.ToolInvocations) == 0 {
			// Plain text is the final answer.
			result := reply.Text
			if result == "" {
				result = "(no response)"
			}
			log.Info("Run completed with text reply", zap.Int("steps", len(steps)))
			return &schemas.AgentResult{Result: result, Steps: steps, Success: true}, nil
		}

		for _, inv := range reply.ToolInvocations {
			if verr := tools.Validate(inv.Name, inv.Arguments); verr != nil {
				output := fmt.Sprintf("ERROR: %s", verr.Error())
				steps = appendStep(steps, stepNum, inv, output, false)
				history = append(history, schemas.NewToolResultMessage(inv, output))
				log.Debug("Invocation rejected",
					zap.String("tool", inv.Name), zap.String("reason", verr.Error()))
				continue
			}

			if inv.Name == tools.ToolDone {
				// First completion signal wins; anything the model queued
				// after it in the same batch never executes.
				result := tools.StringArg(inv.Arguments, "result", "")
				steps = appendStep(steps, stepNum, inv, result, true)
				history = append(history, schemas.NewToolResultMessage(inv, result))
				log.Info("Run completed", zap.Int("steps", len(steps)))
				return &schemas.AgentResult{Result: result, Steps: steps, Success: true}, nil
			}

			output, ok := a.dispatcher.Dispatch(ctx, inv)
			steps = appendStep(steps, stepNum, inv, output, ok)
			history = append(history, schemas.NewToolResultMessage(inv, output))
		}
	}

	log.Warn("Step budget exhausted", zap.Int("max_steps", a.maxSteps))
	return &schemas.AgentResult{
		Result:  "Max steps reached without completing the task.",
		Steps:   steps,
		Success: false,
		Error:   schemas.BudgetError,
	}, nil
}

// appendStep records one audit entry with the result capped for display.
func appendStep(steps []schemas.Step, stepNum int, inv schemas.ToolInvocation, result string, ok bool) []schemas.Step {
	return append(steps, schemas.Step{
		StepNumber: stepNum,
		ToolName:   inv.Name,
		ToolArgs:   inv.Arguments,
		ToolResult: capRunes(result, stepResultCap),
		Success:    ok,
	})
}

func capRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
