// Package service holds the booking core: slot administration, the
// reservation engine and the payment confirmation bridge.  Handlers talk
// to it; it talks to storage through the interfaces in store.go.
package service

import (
	"errors"
	"fmt"
)

// Error kinds.  Match them with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrUpstream   = errors.New("upstream failure")
)

// Error is a failure the caller can act on.  Msg is safe to show to
// clients.  Any error that is not an *Error is an internal failure.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func validation(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

func notFound(msg string) error { return &Error{Kind: ErrNotFound, Msg: msg} }

func conflict(msg string) error { return &Error{Kind: ErrConflict, Msg: msg} }

func upstream(msg string, err error) error { return &Error{Kind: ErrUpstream, Msg: msg, Err: err} }

// Message returns the client-facing message of err, or "" when err is
// not an *Error.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return ""
}
