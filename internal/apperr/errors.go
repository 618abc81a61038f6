// Package apperr defines the error kinds every engine operation reports.
// Callers match kinds with errors.Is against the Err* sentinels or KindOf.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindInvalidState     Kind = "invalid_state"
	KindEmptyGroup       Kind = "empty_group"
	KindInvalidSchedule  Kind = "invalid_schedule"
	KindFutureAttempt    Kind = "future_attempt"
	KindAlreadyAttempted Kind = "already_attempted"
	KindValidation       Kind = "validation"
	KindInvalidRequest   Kind = "invalid_request"
	KindInternal         Kind = "internal"
)

// Sentinels for errors.Is matching.
var (
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrInvalidState     = &Error{Kind: KindInvalidState}
	ErrEmptyGroup       = &Error{Kind: KindEmptyGroup}
	ErrInvalidSchedule  = &Error{Kind: KindInvalidSchedule}
	ErrFutureAttempt    = &Error{Kind: KindFutureAttempt}
	ErrAlreadyAttempted = &Error{Kind: KindAlreadyAttempted}
	ErrValidation       = &Error{Kind: KindValidation}
	ErrInvalidRequest   = &Error{Kind: KindInvalidRequest}
)

// Error carries a kind, a reason and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so any *Error matches the sentinel of its kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

func NotFound(format string, args ...any) error     { return New(KindNotFound, format, args...) }
func InvalidState(format string, args ...any) error { return New(KindInvalidState, format, args...) }
func Validation(format string, args ...any) error   { return New(KindValidation, format, args...) }
func InvalidSchedule(format string, args ...any) error {
	return New(KindInvalidSchedule, format, args...)
}
func InvalidRequest(format string, args ...any) error {
	return New(KindInvalidRequest, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
