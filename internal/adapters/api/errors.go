package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Error is one structured API failure as surfaced to callers.
type Error struct {
	Status  int
	Code    string
	Message string
}

// Error renders the failure for logs and status lines.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (%d)", e.Message, e.Status)
	}
	return fmt.Sprintf("api: %s (%d)", strings.ToLower(http.StatusText(e.Status)), e.Status)
}

// NotFound reports whether the failure was a missing resource.
func (e *Error) NotFound() bool {
	return e.Status == http.StatusNotFound
}

// Unauthorized reports whether the failure was a rejected or expired token.
func (e *Error) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// errorEnvelope mirrors the backend's structured error body.
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// errorFromResponse decodes a non-2xx body into an *Error, tolerating
// non-JSON bodies.
func errorFromResponse(status int, body []byte) error {
	apiErr := &Error{Status: status}
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		return apiErr
	}
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" && len(trimmed) <= 200 {
		apiErr.Message = trimmed
	}
	return apiErr
}
