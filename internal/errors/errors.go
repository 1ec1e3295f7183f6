// Package errors provides the application error taxonomy: machine-readable
// codes, HTTP status mapping, and a flag telling the middleware whether an
// occurrence is worth logging.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown       Code = "UNKNOWN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeValidation    Code = "VALIDATION"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeConflict      Code = "CONFLICT"
	CodeConfiguration Code = "CONFIGURATION"
	CodeFileStorage   Code = "FILE_STORAGE"
	CodeInternal      Code = "INTERNAL"
)

// Error carries a code, an HTTP status, and a flag controlling whether the
// global handler logs the occurrence. Expected client errors (not found,
// validation) are not logged; server-side failures are.
type Error struct {
	Code      Code
	Status    int
	Message   string
	ShouldLog bool
	cause     error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// NotFound reports a missing resource.
func NotFound(resource string) *Error {
	return &Error{Code: CodeNotFound, Status: http.StatusNotFound, Message: resource + " not found"}
}

// Validation reports invalid input.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Status: http.StatusBadRequest, Message: msg}
}

// Unauthorized reports a missing or failed authentication.
func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Status: http.StatusUnauthorized, Message: msg}
}

// Forbidden reports an authenticated but disallowed request.
func Forbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Status: http.StatusForbidden, Message: msg}
}

// Conflict reports a state conflict such as a duplicate slug.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Status: http.StatusConflict, Message: msg}
}

// Configuration reports a bad or missing configuration value.
func Configuration(msg string, cause error) *Error {
	return &Error{Code: CodeConfiguration, Status: http.StatusInternalServerError, Message: msg, ShouldLog: true, cause: cause}
}

// FileStorage reports a blob store failure.
func FileStorage(msg string, cause error) *Error {
	return &Error{Code: CodeFileStorage, Status: http.StatusInternalServerError, Message: msg, ShouldLog: true, cause: cause}
}

// Internal wraps an unexpected failure.
func Internal(msg string, cause error) *Error {
	return &Error{Code: CodeInternal, Status: http.StatusInternalServerError, Message: msg, ShouldLog: true, cause: cause}
}

// CodeOf extracts the code from err, or CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// HTTPStatus extracts the HTTP status from err, defaulting to 500.
func HTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}

// ShouldLog reports whether the global handler should log err. Errors
// outside the taxonomy are always logged.
func ShouldLog(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.ShouldLog
	}
	return true
}

// PublicMessage returns the message safe to show a client. Errors outside
// the taxonomy collapse to a generic message.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
