// Package apperr holds the error kinds services report to the HTTP boundary.
package apperr

import (
	"context"
	"errors"
)

type Kind int

const (
	KindStoreFailure Kind = iota
	KindNotFound
	KindInvalidRequest
	KindConflict
	KindUnauthorized
	KindCancelled
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInvalidRequest:
		return "invalid request"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindCancelled:
		return "cancelled"
	case KindForbidden:
		return "forbidden"
	default:
		return "store failure"
	}
}

// Error is a service failure with a kind and a caller-facing message.
type Error struct {
	Op      string
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func NotFound(op, message string) *Error {
	return &Error{Op: op, Kind: KindNotFound, Message: message}
}

func Invalid(op, message string, err error) *Error {
	return &Error{Op: op, Kind: KindInvalidRequest, Message: message, Err: err}
}

func Conflict(op, message string, err error) *Error {
	return &Error{Op: op, Kind: KindConflict, Message: message, Err: err}
}

func Unauthorized(op, message string) *Error {
	return &Error{Op: op, Kind: KindUnauthorized, Message: message}
}

func Forbidden(op, message string) *Error {
	return &Error{Op: op, Kind: KindForbidden, Message: message}
}

// Store wraps an accessor failure. Context cancellation and deadlines are
// reported as KindCancelled rather than as a store failure.
func Store(op string, err error) *Error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Op: op, Kind: KindCancelled, Message: "request cancelled", Err: err}
	}
	return &Error{Op: op, Kind: KindStoreFailure, Message: "store failure", Err: err}
}

// KindOf returns the kind of the first *Error in err's chain. Errors that
// carry no kind count as store failures, except context errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCancelled
	}
	return KindStoreFailure
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the caller-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return KindOf(err).String()
}
