// Package marketplaceerrors is the single translation point from transport
// failures to the typed errors the rest of the client branches on. Call sites
// decide behavior from the status code (400 validation vs 409 conflict vs 401
// unauthorized) and otherwise just display the message.
package marketplaceerrors

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// APIError carries the backend's numeric status, a human-readable message
// extracted from the response body when one was available, and the raw body
// for caller inspection.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.StatusCode)
}

// NewAPIError builds an APIError, falling back to a generic message when the
// body carried none.
func NewAPIError(statusCode int, message string, body []byte) *APIError {
	if message == "" {
		message = "request failed with status " + http.StatusText(statusCode)
	}
	return &APIError{
		StatusCode: statusCode,
		Message:    message,
		Body:       body,
	}
}

// UnauthorizedError marks a response that invalidated the session. The client
// has already cleared the stored token and broadcast the unauthorized signal
// by the time one of these is returned.
type UnauthorizedError struct {
	APIError
}

func NewUnauthorizedError(message string, body []byte) *UnauthorizedError {
	if message == "" {
		message = "Unauthorized"
	}
	return &UnauthorizedError{APIError: APIError{
		StatusCode: http.StatusUnauthorized,
		Message:    message,
		Body:       body,
	}}
}

func statusOf(err error) (int, bool) {
	var unauthorized *UnauthorizedError
	if errors.As(err, &unauthorized) {
		return unauthorized.StatusCode, true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, true
	}
	return 0, false
}

// StatusCode extracts the HTTP status from a typed error, or 0 when the error
// never reached the backend.
func StatusCode(err error) int {
	code, _ := statusOf(err)
	return code
}

// IsUnauthorized reports whether the error means the session is invalid or
// expired. These are never retried.
func IsUnauthorized(err error) bool {
	var unauthorized *UnauthorizedError
	return errors.As(err, &unauthorized)
}

// IsValidation reports a backend-rejected payload (insufficient balance,
// malformed fields). Surfaced inline, never retried.
func IsValidation(err error) bool {
	code, ok := statusOf(err)
	return ok && code == http.StatusBadRequest
}

// IsConflict reports a business-rule conflict such as a double-accept.
func IsConflict(err error) bool {
	code, ok := statusOf(err)
	return ok && code == http.StatusConflict
}

func IsNotFound(err error) bool {
	code, ok := statusOf(err)
	return ok && code == http.StatusNotFound
}

// IsContextCanceled reports a transport-level cancellation. Background
// readers treat these as silence, not as failures worth reporting.
func IsContextCanceled(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	// The http client wraps context cancellation in a url.Error whose chain
	// is sometimes severed by intermediate formatting.
	return strings.Contains(err.Error(), "context canceled")
}
