// Package errors is the project error type: a stable code, a message safe to
// show clients and an optional wrapped cause. Import it as perr
package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies an error for transports and retry decisions
type ErrorCode uint16

// Codes are part of the wire format; append only
const (
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodePanic is a recovered handler panic
	ErrorCodePanic

	// ErrorCodeUnavailable is a storage or sink failure worth retrying
	ErrorCodeUnavailable

	// ErrorCodeUnauthorized is a missing or unknown device token
	ErrorCodeUnauthorized

	// ErrorCodeInvalidArgument is well formed input that makes no sense, e.g. a bad seed
	ErrorCodeInvalidArgument

	// ErrorCodeValidation is a request body failing its struct tags
	ErrorCodeValidation

	// ErrorCodeJSON is a body that is not the expected JSON
	ErrorCodeJSON

	// ErrorCodeNotFound is an unknown seed, or a time before the epoch
	ErrorCodeNotFound

	// ErrorCodeConfig is a component used without the backend it needs
	ErrorCodeConfig

	// ErrorCodeAlreadyAnswered is a second answer to the same ping
	ErrorCodeAlreadyAnswered

	// ErrorCodeConsistency is stored data contradicting the ping chain
	ErrorCodeConsistency
)

var codeNames = [...]string{
	"unknown", "panic", "unavailable", "unauthorized", "invalid_argument",
	"validation", "json", "not_found", "config", "already_answered", "consistency",
}

// String names the code for logs
func (c ErrorCode) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("code(%d)", uint16(c))
}

// HTTPStatusCode maps a code to its http status
func HTTPStatusCode(c ErrorCode) int {
	switch c {
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeInvalidArgument:
		return http.StatusUnprocessableEntity
	case ErrorCodeValidation, ErrorCodeJSON:
		return http.StatusBadRequest
	case ErrorCodeAlreadyAnswered:
		return http.StatusConflict
	case ErrorCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrorCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrNotFound is the bare not found sentinel, matched with errors.Is
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// Error carries a code, a client safe message and an optional cause
type Error struct {
	orig  error
	msg   string
	code  ErrorCode
	field string
}

// Wire is the client view of an error; the cause is never sent
type Wire struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

func (e *Error) Error() string {
	if e.orig != nil {
		return e.msg + ": " + e.orig.Error()
	}
	return e.msg
}

// Unwrap returns the cause
func (e *Error) Unwrap() error { return e.orig }

// Is matches another *Error by code and message, so sentinels survive copies
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.code == e.code && t.msg == e.msg && t.orig == nil
}

// Code is the error's classification
func (e *Error) Code() ErrorCode { return e.code }

// Field is the offending input field, if any
func (e *Error) Field() string { return e.field }

// As finds the outermost *Error in err's chain
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf is err's code, Unknown for foreign errors
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err carries code
func IsCode(err error, code ErrorCode) bool { return err != nil && CodeOf(err) == code }

// HTTPStatus is the http status for any error
func HTTPStatus(err error) int { return HTTPStatusCode(CodeOf(err)) }

// WireFrom builds the client view; foreign errors are masked
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	if e, ok := As(err); ok {
		return Wire{Code: e.code, Message: e.msg, Field: e.field}
	}
	return Wire{Code: ErrorCodeUnknown, Message: "internal error"}
}

// WithField copies err with field set; foreign errors pass unchanged
func WithField(err error, field string) error {
	if e, ok := As(err); ok {
		c := *e
		c.field = field
		return &c
	}
	return err
}

// New returns an error with code and msg
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf is New with formatting
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrapf wraps orig under code; orig stays out of the wire message
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), orig: orig}
}

// NotFoundf is a not found error
func NotFoundf(format string, a ...any) error { return Newf(ErrorCodeNotFound, format, a...) }

// InvalidArgf is an invalid argument error
func InvalidArgf(format string, a ...any) error { return Newf(ErrorCodeInvalidArgument, format, a...) }

// JSONErrf is a malformed body error
func JSONErrf(format string, a ...any) error { return Newf(ErrorCodeJSON, format, a...) }

// PanicErrf is a recovered panic
func PanicErrf(format string, a ...any) error { return Newf(ErrorCodePanic, format, a...) }

// Unauthorizedf is a rejected token
func Unauthorizedf(format string, a ...any) error { return Newf(ErrorCodeUnauthorized, format, a...) }

// Unavailablef is a retryable backend failure
func Unavailablef(format string, a ...any) error { return Newf(ErrorCodeUnavailable, format, a...) }

// Configf is a missing backend or bad setting
func Configf(format string, a ...any) error { return Newf(ErrorCodeConfig, format, a...) }

// AlreadyAnsweredf is a second answer to a ping
func AlreadyAnsweredf(format string, a ...any) error {
	return Newf(ErrorCodeAlreadyAnswered, format, a...)
}

// Consistencyf is a stored log that contradicts the schedule
func Consistencyf(format string, a ...any) error { return Newf(ErrorCodeConsistency, format, a...) }
