package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Kind returns the taxonomy bucket of the error.
func (e *Error) Kind() Kind {
	if e == nil {
		return ""
	}
	if kind, ok := kindsByCode[e.Code]; ok {
		return kind
	}
	return KindInternal
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Kind classifies errors independently of transport details.
type Kind string

const (
	KindNotFound     Kind = "NotFound"
	KindInvalidState Kind = "InvalidState"
	KindValidation   Kind = "ValidationFailure"
	KindConflict     Kind = "Conflict"
	KindUnauthorized Kind = "Unauthorized"
	KindForbidden    Kind = "Forbidden"
	KindInternal     Kind = "Internal"
)

const (
	CodeNotFound     = "NOT_FOUND"
	CodeInvalidState = "INVALID_STATE"
	CodeValidation   = "VALIDATION_ERROR"
	CodeConflict     = "CONFLICT"
)

var kindsByCode = map[string]Kind{
	CodeNotFound:          KindNotFound,
	CodeInvalidState:      KindInvalidState,
	CodeValidation:        KindValidation,
	CodeConflict:          KindConflict,
	"UNAUTHORIZED":        KindUnauthorized,
	"INVALID_CREDENTIALS": KindUnauthorized,
	"FORBIDDEN":           KindForbidden,
	"ACCOUNT_INACTIVE":    KindForbidden,
	"RATE_LIMITED":        KindForbidden,
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New(CodeNotFound, http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New(CodeConflict, http.StatusConflict, "conflict")
	ErrInvalidState       = New(CodeInvalidState, http.StatusConflict, "operation not allowed in current state")
	ErrValidation         = New(CodeValidation, http.StatusBadRequest, "validation failed")
	ErrRuleViolation      = New(CodeValidation, http.StatusUnprocessableEntity, "business rule violated")
	ErrTooManyRequests    = New("RATE_LIMITED", http.StatusTooManyRequests, "too many requests")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// ErrCacheMiss signals that a cache lookup found nothing.
var ErrCacheMiss = errors.New("cache miss")

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Clonef is Clone with a formatted message.
func Clonef(err *Error, format string, args ...interface{}) *Error {
	return Clone(err, fmt.Sprintf(format, args...))
}

// KindOf reports the kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind()
	}
	return KindInternal
}

// IsKind reports whether err belongs to the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
