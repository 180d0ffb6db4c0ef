// Package apperr defines the discriminated error kinds surfaced by the
// progression engine. Handlers map them to HTTP statuses with Status;
// raw store errors are never returned to callers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError reports a malformed request (empty answer set, bad
// option, unknown stage id in the payload). No state was changed.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validation(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing user, stage or certificate.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func NotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ConflictError reports an operation that lost a write race or repeated a
// one-time transition (diagnostic re-submission, duplicate attempt
// number). The caller may retry the whole operation once; scoring must be
// recomputed, not replayed.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

func Conflict(format string, args ...any) *ConflictError {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

// IneligibleError reports a certificate request before all stages are
// passed.
type IneligibleError struct {
	Completed int
	Required  int
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("completed %d of %d required stages", e.Completed, e.Required)
}

// Status translates an error into its HTTP status. Unknown errors are
// internal.
func Status(err error) int {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		conflict   *ConflictError
		ineligible *IneligibleError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &ineligible):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
