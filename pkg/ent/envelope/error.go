package envelope

import (
	"errors"
	"fmt"
)

// Error is the error form of a failed envelope.
type Error struct {
	Status  int
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d (%s)", e.Status, e.Kind)
	}
	return fmt.Sprintf("status %d (%s): %s", e.Status, e.Kind, e.Message)
}

// KindOf returns the Kind of an envelope error, or KindInternal for any
// other non-nil error.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// NewError creates an Error of the given kind. NotFound errors get status
// 404, all other kinds get 500.
func NewError(kind Kind, format string, args ...any) *Error {
	status := StatusInternal
	if kind == KindNotFound {
		status = StatusNotFound
	}
	return &Error{
		Status:  status,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// FromError converts an error to a failed envelope. Errors that are not
// envelope errors become internal failures.
func FromError[T any](err error) Envelope[T] {
	var e *Error
	if errors.As(err, &e) {
		return Envelope[T]{Status: e.Status, Kind: e.Kind, Message: e.Message}
	}
	return Internal[T](err)
}
