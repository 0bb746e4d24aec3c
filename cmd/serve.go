// File: cmd/serve.go
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/webpilot-ai/webpilot/internal/observability"
	"github.com/webpilot-ai/webpilot/internal/server"
	"github.com/webpilot-ai/webpilot/internal/service"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the agent over HTTP.",
	Long:  `Serve exposes POST /api/run and GET /api/health until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()

		if cmd.Flags().Changed("addr") {
			appConfig.Server.Addr = serveAddr
		}

		sink, closeSink := openRunSink(cmd.Context(), appConfig, logger)
		defer closeSink()

		runner := service.NewRunner(appConfig, sink, logger)
		srv := server.New(appConfig.Server, runner, logger)
		return srv.ListenAndServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8000", "listen address")
	rootCmd.AddCommand(serveCmd)
}
