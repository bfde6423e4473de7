package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the request boundary can pick a status
// code without inspecting message text.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindUnauthorized
	KindForbidden
	KindValidation
	KindUpstream
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func NotFound(msg string) error     { return &Error{Kind: KindNotFound, Msg: msg} }
func Unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &Error{Kind: KindForbidden, Msg: msg} }
func Validation(msg string) error   { return &Error{Kind: KindValidation, Msg: msg} }

// Upstream wraps a failure from an external collaborator (database,
// blob store).
func Upstream(msg string, err error) error {
	return &Error{Kind: KindUpstream, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
