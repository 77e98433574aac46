// Package envelope provides the uniform result wrapper returned by every
// store operation. Callers branch on the status code instead of handling
// errors or panics.
package envelope

import (
	"fmt"
	"log/slog"
)

// HTTP-like status codes used by stores.
const (
	StatusOK       = 200
	StatusCreated  = 201
	StatusNotFound = 404
	StatusInternal = 500
)

// Kind classifies a failed envelope. The status code alone does not tell
// malformed input from a broken invariant, Kind does.
type Kind int

const (
	// KindNone is used by successful envelopes.
	KindNone Kind = iota

	// KindNotFound means a referenced id is absent or soft-deleted.
	KindNotFound

	// KindValidation means required input is missing or malformed.
	KindValidation

	// KindInvariant means the input is well-formed but would break a
	// reference, consistency or state-machine rule.
	KindInvariant

	// KindInternal means an unexpected failure was caught at the boundary.
	KindInternal
)

var kindNames = map[Kind]string{
	KindNone:       "none",
	KindNotFound:   "not_found",
	KindValidation: "validation",
	KindInvariant:  "invariant",
	KindInternal:   "internal",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Envelope wraps the outcome of a store operation.
type Envelope[T any] struct {
	// Status is 200, 201, 404 or 500.
	Status int `json:"status"`

	// Message is a human-readable explanation, mostly set for failures.
	Message string `json:"message,omitempty"`

	// Kind classifies failures. It is KindNone for 2xx statuses.
	Kind Kind `json:"-"`

	// Data is the payload. It is the zero value for empty result sets and
	// for failures, except for a workflow step that failed after an
	// earlier step was committed: then Data describes the committed part.
	Data T `json:"data,omitempty"`
}

// Success returns true for 2xx statuses.
func (e Envelope[T]) Success() bool {
	return e.Status >= 200 && e.Status < 300
}

// Err converts a failed envelope to an error, returns nil on success.
func (e Envelope[T]) Err() error {
	if e.Success() {
		return nil
	}
	return &Error{Status: e.Status, Kind: e.Kind, Message: e.Message}
}

// OK creates a 200 envelope.
func OK[T any](data T) Envelope[T] {
	return Envelope[T]{Status: StatusOK, Data: data}
}

// Created creates a 201 envelope.
func Created[T any](data T) Envelope[T] {
	return Envelope[T]{Status: StatusCreated, Data: data}
}

// NotFound creates a 404 envelope.
func NotFound[T any](format string, args ...any) Envelope[T] {
	return Envelope[T]{
		Status:  StatusNotFound,
		Kind:    KindNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

// Invalid creates a 500 envelope for malformed or incomplete input.
func Invalid[T any](format string, args ...any) Envelope[T] {
	return Envelope[T]{
		Status:  StatusInternal,
		Kind:    KindValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// Violation creates a 500 envelope for a broken invariant.
func Violation[T any](format string, args ...any) Envelope[T] {
	return Envelope[T]{
		Status:  StatusInternal,
		Kind:    KindInvariant,
		Message: fmt.Sprintf(format, args...),
	}
}

// Internal creates a 500 envelope for unexpected failures.
func Internal[T any](err error) Envelope[T] {
	return Envelope[T]{
		Status:  StatusInternal,
		Kind:    KindInternal,
		Message: err.Error(),
	}
}

// Fail copies the failure of another envelope into an envelope of a
// different payload type.
func Fail[T, U any](e Envelope[U]) Envelope[T] {
	return Envelope[T]{Status: e.Status, Kind: e.Kind, Message: e.Message}
}

// Map changes the payload of an envelope keeping status, kind and message.
func Map[T, U any](e Envelope[U], fn func(U) T) Envelope[T] {
	res := Envelope[T]{Status: e.Status, Kind: e.Kind, Message: e.Message}
	if e.Success() {
		res.Data = fn(e.Data)
	}
	return res
}

// Recover must be deferred by every exported store method. It converts a
// panic into a 500 envelope so nothing escapes the store boundary.
func Recover[T any](op string, res *Envelope[T]) {
	r := recover()
	if r == nil {
		return
	}
	err, ok := r.(error)
	if !ok {
		err = fmt.Errorf("%v", r)
	}
	slog.Error("Recovered from panic", "operation", op, "error", err)
	*res = Internal[T](fmt.Errorf("%s: %w", op, err))
}
