package utils

import (
	"errors"
	"net/http"
)

// ErrorKind classifies failures at the service boundary.
type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindInvalidState      ErrorKind = "invalid_state"
	KindMissingTranscript ErrorKind = "missing_transcript"
	KindUpstreamFailure   ErrorKind = "upstream_failure"
	KindTimeout           ErrorKind = "timeout"
	KindAuthFailure       ErrorKind = "auth_failure"
	KindPlanLimit         ErrorKind = "plan_limit"
	KindConflict          ErrorKind = "conflict"
	KindBadRequest        ErrorKind = "bad_request"
	KindInternal          ErrorKind = "internal"
)

var kindStatus = map[ErrorKind]int{
	KindNotFound:          http.StatusNotFound,
	KindInvalidState:      http.StatusConflict,
	KindMissingTranscript: http.StatusUnprocessableEntity,
	KindUpstreamFailure:   http.StatusBadGateway,
	KindTimeout:           http.StatusGatewayTimeout,
	KindAuthFailure:       http.StatusUnauthorized,
	KindPlanLimit:         http.StatusForbidden,
	KindConflict:          http.StatusConflict,
	KindBadRequest:        http.StatusBadRequest,
	KindInternal:          http.StatusInternalServerError,
}

type AppError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(kind ErrorKind, message string, err error) *AppError {
	return &AppError{
		Kind:       kind,
		StatusCode: kindStatus[kind],
		Message:    message,
		Err:        err,
	}
}

func NewNotFoundError(message string) *AppError {
	return newAppError(KindNotFound, message, nil)
}

func NewInvalidStateError(message string) *AppError {
	return newAppError(KindInvalidState, message, nil)
}

func NewMissingTranscriptError(message string) *AppError {
	return newAppError(KindMissingTranscript, message, nil)
}

func NewUpstreamError(message string, err error) *AppError {
	return newAppError(KindUpstreamFailure, message, err)
}

func NewTimeoutError(message string) *AppError {
	return newAppError(KindTimeout, message, nil)
}

func NewAuthError(message string) *AppError {
	return newAppError(KindAuthFailure, message, nil)
}

func NewPlanLimitError(message string) *AppError {
	return newAppError(KindPlanLimit, message, nil)
}

func NewConflictError(message string) *AppError {
	return newAppError(KindConflict, message, nil)
}

func NewBadRequestError(message string) *AppError {
	return newAppError(KindBadRequest, message, nil)
}

// WrapInternal keeps the cause for logging while exposing only message.
func WrapInternal(message string, err error) *AppError {
	return newAppError(KindInternal, message, err)
}

// KindOf reports the kind of the first AppError in err's chain, or
// KindInternal when there is none.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
