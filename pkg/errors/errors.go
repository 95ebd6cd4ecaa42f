// Package errors maps domain failures to transport-facing application
// errors with stable codes and HTTP statuses.
package errors

import (
	"errors"
	"net/http"

	"marketplace/domain/finance"
	"marketplace/domain/order"
	"marketplace/domain/seller"
	"marketplace/domain/shared"
)

// ErrorCode is a stable, machine-readable error identifier.
type ErrorCode string

const (
	// Generic codes
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
	CodeBadRequest     ErrorCode = "BAD_REQUEST"
	CodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	CodeForbidden      ErrorCode = "FORBIDDEN"
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeConflict       ErrorCode = "CONFLICT"
	CodeTooManyRequest ErrorCode = "TOO_MANY_REQUESTS"
	CodeValidation     ErrorCode = "VALIDATION_ERROR"

	// Business codes
	CodeOrderNotFound       ErrorCode = "ORDER_NOT_FOUND"
	CodeLineItemNotFound    ErrorCode = "LINE_ITEM_NOT_FOUND"
	CodeUnauthorizedSeller  ErrorCode = "UNAUTHORIZED_SELLER"
	CodeInvalidTransition   ErrorCode = "INVALID_TRANSITION"
	CodeVersionConflict     ErrorCode = "VERSION_CONFLICT"
	CodeInvalidAmount       ErrorCode = "INVALID_AMOUNT"
	CodeInsufficientBalance ErrorCode = "INSUFFICIENT_BALANCE"
	CodePayoutNotFound      ErrorCode = "PAYOUT_NOT_FOUND"
	CodeProfileNotFound     ErrorCode = "PROFILE_NOT_FOUND"
)

// AppError is the application-level error surfaced over HTTP.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return string(e.Code) + ": " + e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the HTTP status for this error code.
func (e *AppError) HTTPStatusCode() int {
	switch e.Code {
	case CodeBadRequest, CodeValidation, CodeInvalidAmount:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodeUnauthorizedSeller:
		return http.StatusForbidden
	case CodeNotFound, CodeOrderNotFound, CodeLineItemNotFound, CodePayoutNotFound, CodeProfileNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeVersionConflict:
		return http.StatusConflict
	case CodeTooManyRequest:
		return http.StatusTooManyRequests
	case CodeInvalidTransition, CodeInsufficientBalance:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new application error.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an underlying error with an application code.
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func BadRequest(message string) *AppError {
	return New(CodeBadRequest, message)
}

func NotFound(message string) *AppError {
	return New(CodeNotFound, message)
}

func Internal(message string) *AppError {
	return New(CodeInternal, message)
}

func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return New(CodeForbidden, message)
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message)
}

func TooManyRequests(message string) *AppError {
	return New(CodeTooManyRequest, message)
}

func Validation(message string) *AppError {
	return New(CodeValidation, message)
}

// Is reports whether err carries the given application error code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// AsAppError converts any error into an AppError, wrapping unknown
// errors as internal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeInternal, "internal server error")
}

// MapDomainError translates domain sentinels into application errors.
// Classification goes through errors.Is so wrapped domain errors map the
// same as bare sentinels.
func MapDomainError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		return Wrap(err, CodeOrderNotFound, "order not found")
	case errors.Is(err, order.ErrLineItemNotFound):
		return Wrap(err, CodeLineItemNotFound, "line item not found")
	case errors.Is(err, order.ErrNotItemOwner):
		return Wrap(err, CodeUnauthorizedSeller, "line item belongs to another seller")
	case errors.Is(err, order.ErrInvalidTransition):
		return Wrap(err, CodeInvalidTransition, err.Error())
	case errors.Is(err, order.ErrVersionMismatch),
		errors.Is(err, order.ErrConcurrentModification):
		return Wrap(err, CodeVersionConflict, "order was modified concurrently, refetch and retry")
	case errors.Is(err, finance.ErrInvalidAmount):
		return Wrap(err, CodeInvalidAmount, "payout amount must be positive")
	case errors.Is(err, finance.ErrMissingIdempotencyKey):
		return Wrap(err, CodeValidation, "idempotency key is required")
	case errors.Is(err, finance.ErrInsufficientBalance):
		return Wrap(err, CodeInsufficientBalance, err.Error())
	case errors.Is(err, finance.ErrPayoutNotFound):
		return Wrap(err, CodePayoutNotFound, "payout request not found")
	case errors.Is(err, finance.ErrNotPayoutOwner):
		return Wrap(err, CodeUnauthorizedSeller, "payout request belongs to another seller")
	case errors.Is(err, finance.ErrInvalidPayoutTransition):
		return Wrap(err, CodeInvalidTransition, err.Error())
	case errors.Is(err, finance.ErrConcurrentModification):
		return Wrap(err, CodeVersionConflict, "payout request was modified concurrently, refetch and retry")
	case errors.Is(err, seller.ErrProfileNotFound):
		return Wrap(err, CodeProfileNotFound, "seller profile not found")
	case errors.Is(err, seller.ErrConcurrentModification):
		return Wrap(err, CodeVersionConflict, "seller profile was modified concurrently, refetch and retry")
	case errors.Is(err, shared.ErrInvalidInput):
		return Wrap(err, CodeValidation, err.Error())
	case errors.Is(err, shared.ErrUnauthorized):
		return Wrap(err, CodeUnauthorized, "authentication required")
	case errors.Is(err, shared.ErrForbidden):
		return Wrap(err, CodeForbidden, "operation not allowed")
	case errors.Is(err, shared.ErrNotFound):
		return Wrap(err, CodeNotFound, err.Error())
	case errors.Is(err, shared.ErrConflict):
		return Wrap(err, CodeConflict, err.Error())
	default:
		return Wrap(err, CodeInternal, "internal server error")
	}
}
