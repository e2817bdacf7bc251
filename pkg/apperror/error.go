package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an AppError independently of its HTTP status.
type Kind string

const (
	KindValidation        Kind = "validation_error"
	KindInvalidQuantity   Kind = "invalid_quantity"
	KindNotFound          Kind = "not_found"
	KindForbidden         Kind = "forbidden"
	KindUnauthorized      Kind = "unauthorized"
	KindIllegalTransition Kind = "illegal_transition"
	KindUnavailable       Kind = "unavailable"
	KindChannelNotReady   Kind = "channel_not_ready"
	KindStore             Kind = "store_error"
	KindInternal          Kind = "internal"
)

type AppError struct {
	Code    int    `json:"code"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code int, kind Kind, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Is reports whether err carries an AppError of the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func BadRequest(message string) *AppError {
	return New(http.StatusBadRequest, KindValidation, message, nil)
}

func Validation(message string) *AppError {
	return New(http.StatusBadRequest, KindValidation, message, nil)
}

func InvalidQuantity(message string) *AppError {
	return New(http.StatusBadRequest, KindInvalidQuantity, message, nil)
}

func Unauthorized(message string) *AppError {
	return New(http.StatusUnauthorized, KindUnauthorized, message, nil)
}

func Forbidden(message string) *AppError {
	return New(http.StatusForbidden, KindForbidden, message, nil)
}

func NotFound(message string) *AppError {
	return New(http.StatusNotFound, KindNotFound, message, nil)
}

func IllegalTransition(message string) *AppError {
	return New(http.StatusConflict, KindIllegalTransition, message, nil)
}

func Unavailable(message string) *AppError {
	return New(http.StatusConflict, KindUnavailable, message, nil)
}

func ChannelNotReady(message string) *AppError {
	return New(http.StatusConflict, KindChannelNotReady, message, nil)
}

// Store wraps a transport or remote failure. The cause is kept for logging only.
func Store(err error) *AppError {
	return New(http.StatusServiceUnavailable, KindStore, "Store temporarily unavailable", err)
}

func Internal(err error) *AppError {
	return New(http.StatusInternalServerError, KindInternal, "Internal Server Error", err)
}
