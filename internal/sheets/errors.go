package sheets

import (
	"errors"
	"fmt"
)

// Code is a stable machine-readable failure class. The UI picks its
// remediation from the code, so callers must preserve it when wrapping.
type Code string

const (
	CodeAuthRequired          Code = "AUTH_REQUIRED"
	CodeAccessDenied          Code = "ACCESS_DENIED"
	CodeNotFound              Code = "NOT_FOUND"
	CodeInvalidLocator        Code = "INVALID_LOCATOR"
	CodeEmptySource           Code = "EMPTY_SOURCE"
	CodeMalformedResponse     Code = "MALFORMED_RESPONSE"
	CodeSuggestionUnavailable Code = "MAPPING_SUGGESTION_UNAVAILABLE"
	CodePersistence           Code = "PERSISTENCE_ERROR"
	CodeRefreshFailed         Code = "REFRESH_FAILED"
)

// Error is a classified sheet-access failure.
type Error struct {
	Code      Code
	Message   string
	Transient bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func WrapError(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf returns the classified code, or "" for unclassified errors.
func CodeOf(err error) Code {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsRetryable reports whether a bounded retry may help. Classified
// errors are only retried when marked transient; unclassified errors
// are assumed to be transport failures.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Transient
	}
	return true
}
