package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrSessionExpired reports that the session could not be renewed. Callers
// receiving it should route the user to a re-authentication flow instead of
// showing the underlying HTTP failure.
var ErrSessionExpired = errors.New("session expired")

// maxErrorBodyBytes bounds how much of an error response body is read when
// extracting a message.
const maxErrorBodyBytes = 64 << 10

// APIError is a non-2xx response from the service, carrying a best-effort
// human-readable message extracted from the response body.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// errorBody covers the payload shapes the service uses for errors. The
// fields form an ordered fallback chain; message() documents the order.
// This is the single place error shapes are probed.
type errorBody struct {
	Detail         string   `json:"detail"`
	Message        string   `json:"message"`
	ErrorMsg       string   `json:"error"`
	NonFieldErrors []string `json:"non_field_errors"`
	Errors         []string `json:"errors"`
}

// message returns the first populated field in priority order:
// detail, message, error, non_field_errors[0], errors[0].
func (b errorBody) message() string {
	switch {
	case b.Detail != "":
		return b.Detail
	case b.Message != "":
		return b.Message
	case b.ErrorMsg != "":
		return b.ErrorMsg
	case len(b.NonFieldErrors) > 0:
		return b.NonFieldErrors[0]
	case len(b.Errors) > 0:
		return b.Errors[0]
	}
	return ""
}

// decodeAPIError builds an *APIError from a non-2xx response. The body is
// probed for a message; an unparseable or empty body falls back to the HTTP
// status text.
func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{
		Status:  resp.StatusCode,
		Message: http.StatusText(resp.StatusCode),
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return apiErr
	}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return apiErr
	}
	if msg := body.message(); msg != "" {
		apiErr.Message = msg
	}

	return apiErr
}
