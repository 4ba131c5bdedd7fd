// Package observability wires the process-wide slog logger and trace
// propagation for outgoing requests.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Instrument sets up the default logger and the W3C trace-context
// propagator the API client uses to decorate outgoing requests.
func Instrument(level slog.Level, logFormat string) error {
	handler, err := newStdoutHandler(level, logFormat)
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(newTraceContextHandler(handler)))

	otel.SetTextMapPropagator(newPropagator())

	return nil
}

func newPropagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}

// ContextFromEnvironment seeds ctx with the trace context a wrapping
// process hands down through the TRACEPARENT and TRACESTATE environment
// variables. This lets a campusctl invocation participate in an existing
// trace without creating spans: the extracted span context flows into
// outgoing request headers and into trace-correlated log records. Absent
// or malformed values leave ctx unchanged.
func ContextFromEnvironment(ctx context.Context) context.Context {
	carrier := propagation.MapCarrier{}
	if tp := os.Getenv("TRACEPARENT"); tp != "" {
		carrier["traceparent"] = tp
	}
	if ts := os.Getenv("TRACESTATE"); ts != "" {
		carrier["tracestate"] = ts
	}
	return newPropagator().Extract(ctx, carrier)
}

// newStdoutHandler creates a handler for human-readable logs.
func newStdoutHandler(level slog.Level, logFormat string) (slog.Handler, error) {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	switch strings.ToLower(logFormat) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		return nil, fmt.Errorf("unsupported log format %q (expected: json, text)", logFormat)
	}

	return handler, nil
}
