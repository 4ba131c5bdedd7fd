package api

import (
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// RequestIDContextKey is a context key for carrying a caller-chosen request ID.
type RequestIDContextKey struct{}

// decorateTransport attaches per-request correlation metadata to every
// outgoing request: an X-Request-ID header (from context when set,
// generated otherwise) and W3C trace context via the configured otel
// propagator. It sits at the bottom of the chain so retried requests get
// the same treatment as first attempts.
type decorateTransport struct {
	next http.RoundTripper
}

// Compile-time check to ensure decorateTransport implements http.RoundTripper
var _ http.RoundTripper = (*decorateTransport)(nil)

func (t *decorateTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	if clone.Header.Get("X-Request-ID") == "" {
		clone.Header.Set("X-Request-ID", requestID(req))
	}

	otel.GetTextMapPropagator().Inject(clone.Context(), propagation.HeaderCarrier(clone.Header))

	return t.next.RoundTrip(clone)
}

// requestID reads the request ID from context, generating one if missing.
func requestID(req *http.Request) string {
	if id, ok := req.Context().Value(RequestIDContextKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}
