// Package domainerrors defines the typed error vocabulary shared by services
// and the HTTP layer. Services return these so handlers can translate them into
// stable machine-readable responses without parsing messages.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable machine-readable error code. Callers branch on the code,
// never on the message.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_failed"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal_error"
)

// DomainError carries a code plus a human-readable message and optionally wraps
// an underlying cause.
type DomainError struct {
	Code    Code
	Message string
	cause   error
}

func (e DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e DomainError) Unwrap() error { return e.cause }

// New creates a DomainError with the given code and message.
func New(code Code, message string) error {
	return DomainError{Code: code, Message: message}
}

// Wrap creates a DomainError that wraps an underlying error.
func Wrap(code Code, message string, cause error) error {
	return DomainError{Code: code, Message: message, cause: cause}
}

// HasCode reports whether err (or anything it wraps) is a DomainError with the
// given code.
func HasCode(err error, code Code) bool {
	var de DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is allows comparing DomainErrors by code via errors.Is.
func (e DomainError) Is(target error) bool {
	var de DomainError
	if errors.As(target, &de) {
		return e.Code == de.Code
	}
	return false
}

// Load extracts the DomainError from err, defaulting to CodeInternal so the
// HTTP layer always has something safe to render.
func Load(err error) DomainError {
	var de DomainError
	if errors.As(err, &de) {
		return de
	}
	return DomainError{Code: CodeInternal, Message: "internal error"}
}

// ToHTTPStatus maps an error code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput, CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvariantViolation:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
