// Package apperr defines the categorical errors surfaced to API callers.
//
// Every failure a client can observe carries a Kind that is stable and
// machine-checkable; handlers map kinds to HTTP status codes with HTTPStatus.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a machine-readable error category.
type Kind string

const (
	KindValidation             Kind = "VALIDATION"
	KindInvalidYear            Kind = "INVALID_YEAR"
	KindInvalidScore           Kind = "INVALID_SCORE"
	KindReservedUsername       Kind = "RESERVED_USERNAME"
	KindInvalidUsername        Kind = "INVALID_USERNAME"
	KindConflictingCredentials Kind = "CONFLICTING_CREDENTIALS"
	KindAlreadyExists          Kind = "ALREADY_EXISTS"
	KindDuplicateReview        Kind = "DUPLICATE_REVIEW"
	KindInvalidCode            Kind = "INVALID_CODE"
	KindNotFound               Kind = "NOT_FOUND"
	KindUnauthorized           Kind = "UNAUTHORIZED"
	KindForbidden              Kind = "FORBIDDEN"
	KindRateLimited            Kind = "RATE_LIMITED"
	KindInternal               Kind = "INTERNAL"
)

// HTTPStatus returns the status code a response carrying this kind uses.
// Uniqueness conflicts answer 400 like every other rejected payload.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindInvalidYear, KindInvalidScore, KindReservedUsername, KindInvalidUsername,
		KindConflictingCredentials, KindAlreadyExists, KindDuplicateReview, KindInvalidCode:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// IsValidation reports whether k is a field validation failure.
func (k Kind) IsValidation() bool {
	switch k {
	case KindValidation, KindInvalidYear, KindInvalidScore, KindReservedUsername, KindInvalidUsername:
		return true
	}
	return false
}

// Error is a categorical error with an optional per-field breakdown.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error with the same Kind, so sentinel values work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// HTTPStatus returns the status code for e.Kind.
func (e *Error) HTTPStatus() int {
	return e.Kind.HTTPStatus()
}

// WithField returns a copy of e with field set to msg.
func (e *Error) WithField(field, msg string) *Error {
	fields := make(map[string]string, len(e.Fields)+1)
	for k, v := range e.Fields {
		fields[k] = v
	}
	fields[field] = msg
	return &Error{Kind: e.Kind, Message: e.Message, Fields: fields, cause: e.cause}
}

// Sentinels for errors.Is checks.
var (
	ErrValidation             = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrInvalidYear            = &Error{Kind: KindInvalidYear, Message: "year is in the future"}
	ErrInvalidScore           = &Error{Kind: KindInvalidScore, Message: "score must be between 1 and 10"}
	ErrReservedUsername       = &Error{Kind: KindReservedUsername, Message: `username "me" is reserved`}
	ErrInvalidUsername        = &Error{Kind: KindInvalidUsername, Message: "username contains invalid characters"}
	ErrConflictingCredentials = &Error{Kind: KindConflictingCredentials, Message: "username or email already taken"}
	ErrAlreadyExists          = &Error{Kind: KindAlreadyExists, Message: "already exists"}
	ErrDuplicateReview        = &Error{Kind: KindDuplicateReview, Message: "you have already reviewed this title"}
	ErrInvalidCode            = &Error{Kind: KindInvalidCode, Message: "invalid confirmation code"}
	ErrNotFound               = &Error{Kind: KindNotFound, Message: "not found"}
	ErrUnauthorized           = &Error{Kind: KindUnauthorized, Message: "authentication credentials were not provided"}
	ErrForbidden              = &Error{Kind: KindForbidden, Message: "you do not have permission to perform this action"}
	ErrRateLimited            = &Error{Kind: KindRateLimited, Message: "too many requests"}
	ErrInternal               = &Error{Kind: KindInternal, Message: "internal server error"}
)

var defaultMessages = map[Kind]string{}

func init() {
	for _, e := range []*Error{
		ErrValidation, ErrInvalidYear, ErrInvalidScore, ErrReservedUsername, ErrInvalidUsername,
		ErrConflictingCredentials, ErrAlreadyExists, ErrDuplicateReview, ErrInvalidCode, ErrNotFound,
		ErrUnauthorized, ErrForbidden, ErrRateLimited, ErrInternal,
	} {
		defaultMessages[e.Kind] = e.Message
	}
}

// DefaultMessage returns the sentinel message for k.
func (k Kind) DefaultMessage() string {
	if msg, ok := defaultMessages[k]; ok {
		return msg
	}
	return string(k)
}

// New creates an error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind that wraps cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, cause: cause}
}

// Field creates a single-field validation error of the given kind.
func Field(kind Kind, field, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Fields: map[string]string{field: msg}}
}

// NotFound creates a NOT_FOUND error naming the missing resource.
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

// KindOf returns the Kind of err, or KindInternal for errors that are not *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
