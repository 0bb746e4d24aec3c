// File: internal/agent/dispatcher.go
package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/webpilot-ai/webpilot/api/schemas"
	"github.com/webpilot-ai/webpilot/internal/tools"
)

// localHandler serves a tool without touching the browser.
type localHandler func(ctx context.Context, args map[string]any) (string, error)

// Dispatcher routes validated invocations: local tools from its table,
// everything else to the browser executor. It never returns a raw error —
// failures become "ERROR: <text>" observations so the model can try a
// different action within the same budget.
type Dispatcher struct {
	executor ActionExecutor
	local    map[string]localHandler
	logger   *zap.Logger
}

// NewDispatcher wires the local tool table over the collaborators. The
// completion signal is deliberately absent: the loop intercepts it before
// dispatch.
func NewDispatcher(executor ActionExecutor, skills SkillStore, writer ArtifactWriter, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		executor: executor,
		logger:   logger.Named("dispatcher"),
	}
	d.local = map[string]localHandler{
		"list_skills": func(ctx context.Context, args map[string]any) (string, error) {
			names, err := skills.List()
			if err != nil {
				return "", err
			}
			if len(names) == 0 {
				return "(no skills found)", nil
			}
			return strings.Join(names, ", "), nil
		},
		"read_skill": func(ctx context.Context, args map[string]any) (string, error) {
			return skills.Read(tools.StringArg(args, "name", ""))
		},
		"write_test": func(ctx context.Context, args map[string]any) (string, error) {
			return writer.WriteTest(
				tools.StringArg(args, "filename", ""),
				tools.StringArg(args, "content", ""),
			)
		},
	}
	return d
}

// Dispatch executes one invocation and reports the observation plus whether
// it succeeded.
func (d *Dispatcher) Dispatch(ctx context.Context, inv schemas.ToolInvocation) (string, bool) {
	var output string
	var err error

	if handler, ok := d.local[inv.Name]; ok {
		output, err = handler(ctx, inv.Arguments)
	} else if d.executor != nil {
		output, err = d.executor.Execute(ctx, inv.Name, inv.Arguments)
	} else {
		err = fmt.Errorf("no browser executor configured for tool %q", inv.Name)
	}

	if err != nil {
		d.logger.Warn("Tool execution failed",
			zap.String("tool", inv.Name), zap.Error(err))
		return fmt.Sprintf("ERROR: %s", err.Error()), false
	}
	return output, true
}
