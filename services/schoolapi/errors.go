package schoolapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// APIError is a non-2xx answer of the backend.
type APIError struct {
	Status  int
	Message string // the server's message when it sent one
	Generic bool   // Message was not provided by the server
}

func newAPIError(status int, body string) *APIError {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err == nil {
		if payload.Error != "" {
			return &APIError{Status: status, Message: payload.Error}
		}
		if payload.Message != "" {
			return &APIError{Status: status, Message: payload.Message}
		}
	}
	return &APIError{
		Status:  status,
		Message: fmt.Sprintf("request failed with status %d", status),
		Generic: true,
	}
}

func (e *APIError) Error() string {
	return e.Message
}

// ServerMessage returns the message sent by the server, if any.
func (e *APIError) ServerMessage() (string, bool) {
	return e.Message, !e.Generic
}

// TransportError means no response was received.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsUnauthorized reports whether err is a 401 answer.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 answer.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Message returns the message to show for a failed call:
// the server's own message when it sent one, else fallback.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if msg, ok := apiErr.ServerMessage(); ok {
			return msg
		}
	}
	return fallback
}
