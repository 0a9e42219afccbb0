package apperrors

import (
	"fmt"
	"strings"
)

// FieldError names a single invalid or missing input field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError is raised locally, before any network use. The caller
// can correct the input and try again.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Reason))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validation builds a ValidationError from field/reason pairs.
func Validation(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

// RemoteError wraps a transport or server failure. Mutating operations are
// never retried automatically on it; the user decides whether to resubmit.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: remote call failed", e.Op)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

func Remote(op string, err error) *RemoteError {
	return &RemoteError{Op: op, Err: err}
}

// ConflictError is a server-side business-rule rejection. Reason carries the
// server's explanation so the UI can say why, not just that it failed.
type ConflictError struct {
	Op     string
	Reason string
}

func (e *ConflictError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: rejected by server", e.Op)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func Conflict(op, reason string) *ConflictError {
	return &ConflictError{Op: op, Reason: reason}
}

// NotFoundError references an identifier the server does not know.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func NotFound(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}
