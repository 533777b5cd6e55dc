package common

import (
	"fmt"
	"net/http"
)

type APIError struct {
	Status  int            `json:"-"`
	Message string         `json:"error"`
	Fields  map[string]any `json:"fields,omitempty"`
}

func (e APIError) Error() string {
	return e.Message
}

func Errf(status int, format string, args ...any) APIError {
	return APIError{Status: status, Message: fmt.Sprintf(format, args...)}
}

// NewAPIError creates an APIError with status, message, and optional fields
func NewAPIError(status int, message string, fields map[string]any) APIError {
	return APIError{
		Status:  status,
		Message: message,
		Fields:  fields,
	}
}

// Validationf reports malformed input, rejected before any backend call.
func Validationf(format string, args ...any) APIError {
	return Errf(http.StatusBadRequest, format, args...)
}

// NotFoundf reports a missing job or item where existence is required.
func NotFoundf(format string, args ...any) APIError {
	return Errf(http.StatusNotFound, format, args...)
}

// Conflictf reports a transition that violates the state machine or lost an
// optimistic race. currentState names the state that blocked the transition
// and is surfaced in Fields so callers can branch without parsing the message.
func Conflictf(currentState string, format string, args ...any) APIError {
	err := Errf(http.StatusConflict, format, args...)
	if currentState != "" {
		err.Fields = map[string]any{"current_status": currentState}
	}
	return err
}

// Backendf reports a store failure outside the state machine. These are
// transient; deterministic validation and conflict errors never use it.
func Backendf(format string, args ...any) APIError {
	return Errf(http.StatusBadGateway, format, args...)
}

// IsConflict reports whether err is the conflict kind.
func IsConflict(err error) bool {
	apiErr, ok := err.(APIError)
	return ok && apiErr.Status == http.StatusConflict
}
