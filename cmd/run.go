// File: cmd/run.go
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/webpilot-ai/webpilot/api/schemas"
	"github.com/webpilot-ai/webpilot/internal/config"
	"github.com/webpilot-ai/webpilot/internal/observability"
	"github.com/webpilot-ai/webpilot/internal/service"
	"github.com/webpilot-ai/webpilot/internal/store"
)

var (
	runProvider string
	runModel    string
	runMaxSteps int
	runHeadless bool
	runVerbose  bool
)

var runCmd = &cobra.Command{
	Use:   "run <task>",
	Short: "Run a browser automation task.",
	Long: `Run drives the agent through a real browser until the task completes,
the model gives up, or the step budget runs out.

Exit codes: 0 task completed, 1 step budget exhausted, 2 run failed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task := args[0]
		logger := observability.GetLogger()

		if cmd.Flags().Changed("max-steps") {
			appConfig.Agent.MaxSteps = runMaxSteps
		}
		if cmd.Flags().Changed("headless") {
			appConfig.Browser.Headless = runHeadless
		}

		sink, closeSink := openRunSink(cmd.Context(), appConfig, logger)
		defer closeSink()

		runner := service.NewRunner(appConfig, sink, logger)
		res, err := runner.RunTask(cmd.Context(), schemas.RunRequest{
			Task:     task,
			Provider: runProvider,
			Model:    runModel,
		})
		if err != nil {
			return &ExitCodeError{Code: 2, Err: err}
		}

		if runVerbose {
			printStepAudit(cmd, res.Steps)
		}
		cmd.Println(res.Result)

		if res.BudgetExhausted() {
			return &ExitCodeError{Code: 1}
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runProvider, "provider", "p", "", "model provider (anthropic, openai, gemini)")
	runCmd.Flags().StringVarP(&runModel, "model", "m", "", "model ID override")
	runCmd.Flags().IntVar(&runMaxSteps, "max-steps", 0, "reasoning-call budget for the run")
	runCmd.Flags().BoolVar(&runHeadless, "headless", true, "run the browser headless")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "print the step audit")
	rootCmd.AddCommand(runCmd)
}

// openRunSink connects the optional run-history database. A missing or
// unreachable database only costs the history, never the run.
func openRunSink(ctx context.Context, cfg *config.Config, logger *zap.Logger) (service.RunSink, func()) {
	if cfg.Database.URL == "" {
		return nil, func() {}
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		logger.Warn("Run history disabled: could not open database", zap.Error(err))
		return nil, func() {}
	}
	s, err := store.New(ctx, pool, logger)
	if err != nil {
		logger.Warn("Run history disabled: database unreachable", zap.Error(err))
		pool.Close()
		return nil, func() {}
	}
	if err := s.EnsureSchema(ctx); err != nil {
		logger.Warn("Run history disabled: schema setup failed", zap.Error(err))
		pool.Close()
		return nil, func() {}
	}
	return s, pool.Close
}

func printStepAudit(cmd *cobra.Command, steps []schemas.Step) {
	if len(steps) == 0 {
		cmd.Println("(no steps executed)")
		return
	}
	for i, step := range steps {
		status := "ok"
		if !step.Success {
			status = "failed"
		}
		result := strings.ReplaceAll(step.ToolResult, "\n", " ")
		cmd.Println(fmt.Sprintf("[%d] step %d %s (%s): %s",
			i+1, step.StepNumber, step.ToolName, status, result))
	}
}
