package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/coursekit/campusctl/cmd/campusctl/commands"
	"github.com/coursekit/campusctl/internal/observability"
)

var version = "dev"

func main() {
	// Enable graceful shutdown via OS signals; context cancellation propagates to all commands.
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt,    // SIGINT: Ctrl+C (cross-platform)
		syscall.SIGTERM, // SIGTERM: Docker/k8s termination (Unix-only)
	)
	defer stop()

	// Join a trace started by a wrapping process (TRACEPARENT/TRACESTATE);
	// the span context flows into request headers and log records.
	ctx = observability.ContextFromEnvironment(ctx)

	if err := commands.Execute(ctx, os.Args, version); err != nil {
		slog.ErrorContext(ctx, "Command failed", "error", err)
		os.Exit(1)
	}
}
