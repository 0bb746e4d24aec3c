// File: cmd/webpilot/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/webpilot-ai/webpilot/cmd"
	"github.com/webpilot-ai/webpilot/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	code := cmd.Execute(ctx)

	stop()
	observability.Sync()
	os.Exit(code)
}
