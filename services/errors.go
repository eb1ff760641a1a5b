package services

import (
	"fmt"
	"net/http"
)

// ErrorKind classifies a service failure independently of transport.
// Handlers map the embedded HTTP code; tests assert on the kind.
type ErrorKind string

const (
	KindInternal      ErrorKind = "internal"
	KindValidation    ErrorKind = "validation"
	KindNotFound      ErrorKind = "not_found"
	KindConflict      ErrorKind = "conflict"
	KindLimitExceeded ErrorKind = "limit_exceeded"
	KindExpired       ErrorKind = "expired"
	KindUnauthorized  ErrorKind = "unauthorized"
	KindStorage       ErrorKind = "storage"
)

type AppError struct {
	HTTPCode int
	Kind     ErrorKind
	Message  string
	Data     interface{}
	Err      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newAppError(httpCode int, kind ErrorKind, message string, err error) *AppError {
	return &AppError{HTTPCode: httpCode, Kind: kind, Message: message, Err: err}
}

func newInternalError(message string, err error) *AppError {
	return newAppError(http.StatusInternalServerError, KindInternal, message, err)
}

func newValidationError(message string) *AppError {
	return newAppError(http.StatusBadRequest, KindValidation, message, nil)
}

func newNotFoundError(message string) *AppError {
	return newAppError(http.StatusNotFound, KindNotFound, message, nil)
}

func newConflictError(message string) *AppError {
	return newAppError(http.StatusConflict, KindConflict, message, nil)
}

func newLimitError(message string, data interface{}) *AppError {
	return &AppError{HTTPCode: http.StatusForbidden, Kind: KindLimitExceeded, Message: message, Data: data}
}

func newExpiredError(message string) *AppError {
	return newAppError(http.StatusGone, KindExpired, message, nil)
}

func newUnauthorizedError(message string) *AppError {
	return newAppError(http.StatusUnauthorized, KindUnauthorized, message, nil)
}

func newStorageError(message string, err error) *AppError {
	return newAppError(http.StatusInternalServerError, KindStorage, message, err)
}
