package errors

import (
	stderrors "errors"
	"fmt"
	"unicode/utf8"
)

// ErrorType classifies failures surfaced by the fetch, run and storage layers
type ErrorType string

const (
	ErrorTypeInvalidInput ErrorType = "invalid_input"
	ErrorTypeUpstream     ErrorType = "upstream"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeProtocol     ErrorType = "protocol"
	ErrorTypeStorage      ErrorType = "storage"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeNetwork      ErrorType = "network"
	ErrorTypeUnknown      ErrorType = "unknown"
)

// Error carries a failure type, a human readable message, the HTTP status
// of the failing call (0 when there was none) and the raw provider detail.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, msg)
	}
	return fmt.Sprintf("%s error: %s", e.Type, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidInput reports input rejected before any remote call
func InvalidInput(msg string) *Error {
	return &Error{Type: ErrorTypeInvalidInput, Message: msg}
}

// UpstreamFailure reports a non-success response from a remote call
func UpstreamFailure(status int, msg, detail string) *Error {
	return &Error{Type: ErrorTypeUpstream, Message: msg, Code: status, Detail: detail}
}

// NotFound reports a handle that resolves to no account
func NotFound(msg string) *Error {
	return &Error{Type: ErrorTypeNotFound, Message: msg, Code: 404}
}

// ProtocolViolation reports a success response missing an expected field
func ProtocolViolation(msg string) *Error {
	return &Error{Type: ErrorTypeProtocol, Message: msg}
}

// Storage wraps a persistence failure. These are warnings, never fatal.
func Storage(op string, err error) *Error {
	return &Error{Type: ErrorTypeStorage, Message: op, Err: err, Detail: errString(err)}
}

// Conflict reports an operation rejected because of the current state
func Conflict(msg string) *Error {
	return &Error{Type: ErrorTypeConflict, Message: msg, Code: 409}
}

// Network wraps a transport-level failure
func Network(err error) *Error {
	return &Error{Type: ErrorTypeNetwork, Message: "network error", Err: err, Detail: errString(err)}
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err is an *Error of the given type
func IsType(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// IsRetryableStatusCode reports whether a provider status is transient.
// The fetcher never retries; this only feeds log severity.
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0, 429:
		return true
	case 401, 403, 404:
		return false
	default:
		return statusCode >= 500
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Message returns the human readable part of err. Non-*Error values fall
// back to err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Detail returns the raw detail carried by err, if any
func Detail(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Detail
	}
	return ""
}

// Truncate cuts s to at most n bytes without splitting a UTF-8 sequence
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
