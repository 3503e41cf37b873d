package service

import (
	"errors"
	"fmt"

	"github.com/omsharma/finbuddy/backend/internal/store"
)

// ErrorCode classifies service failures for the HTTP boundary.
type ErrorCode string

const (
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeStoreFailure ErrorCode = "STORE_FAILURE"
)

// ServiceError is a structured error carrying a stable code alongside the
// human-readable message.
type ServiceError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// CodeOf extracts the error code, defaulting to STORE_FAILURE for anything
// unclassified so callers never map an error to a 2xx.
func CodeOf(err error) ErrorCode {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeStoreFailure
}

func invalidInputf(format string, args ...any) error {
	return &ServiceError{Code: CodeInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// wrapStoreErr classifies a store failure, promoting store.ErrNotFound to the
// NOT_FOUND code.
func wrapStoreErr(message string, err error) error {
	code := CodeStoreFailure
	if errors.Is(err, store.ErrNotFound) {
		code = CodeNotFound
	}
	return &ServiceError{Code: code, Message: message, Cause: err}
}
