/*
Package shared - domain-layer building blocks used by every subdomain.

Error design:
1. Sentinel errors classify failures for errors.Is() checks.
2. DomainError captures the call stack at creation but formats it lazily.
3. Domain errors carry no transport concepts (no HTTP status codes).
*/
package shared

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

var (
	// ErrNotFound - the addressed resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict - concurrent modification or a uniqueness violation.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput - input validation failed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized - the caller is not authenticated.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden - the caller is authenticated but not allowed.
	ErrForbidden = errors.New("forbidden")
)

// DomainError is a structured error carrying business context and the
// stack of the point where it was created. It supports errors.Is() via
// its sentinel and errors.As() directly.
type DomainError struct {
	// Err is the underlying sentinel, used by errors.Is().
	Err error

	// Entity names the aggregate the error belongs to ("order", "payout").
	Entity string

	// Message is the human-readable description.
	Message string

	// Field optionally names the offending field for validation errors.
	Field string

	stack []uintptr
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Stack formats the captured stack on demand (only when logged).
func (e *DomainError) Stack() []string {
	return FormatStack(e.stack)
}

// CaptureStack captures the current call stack. skip is the number of
// frames to drop (typically 3: Callers, CaptureStack, NewXxxError).
func CaptureStack(skip int) []uintptr {
	var pcs [32]uintptr
	n := runtime.Callers(skip, pcs[:])
	return pcs[:n]
}

// FormatStack renders captured frames, filtering runtime internals and
// keeping at most 10 frames.
func FormatStack(stack []uintptr) []string {
	if len(stack) == 0 {
		return nil
	}

	frames := runtime.CallersFrames(stack)
	var result []string
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			result = append(result, fmt.Sprintf("%s:%d %s", frame.File, frame.Line, frame.Function))
		}
		if !more || len(result) > 10 {
			break
		}
	}
	return result
}

// NewNotFoundError creates a "not found" domain error with stack.
func NewNotFoundError(entity string) error {
	return &DomainError{
		Err:     ErrNotFound,
		Entity:  entity,
		Message: entity + " not found",
		stack:   CaptureStack(3),
	}
}

// NewConflictError creates a "conflict" domain error with stack.
func NewConflictError(entity, message string) error {
	return &DomainError{
		Err:     ErrConflict,
		Entity:  entity,
		Message: message,
		stack:   CaptureStack(3),
	}
}

// NewValidationError creates a validation domain error with stack.
func NewValidationError(entity, field, reason string) error {
	return &DomainError{
		Err:     ErrInvalidInput,
		Entity:  entity,
		Field:   field,
		Message: reason,
		stack:   CaptureStack(3),
	}
}

// NewForbiddenError creates a "forbidden" domain error with stack.
func NewForbiddenError(entity, reason string) error {
	return &DomainError{
		Err:     ErrForbidden,
		Entity:  entity,
		Message: reason,
		stack:   CaptureStack(3),
	}
}

// Stacker is implemented by errors that can provide the stack of their
// creation point. The API layer uses it for error logging.
type Stacker interface {
	Stack() []string
}
