package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error into one of the failure categories the API
// reports to callers.
type Kind int

const (
	// KindInternal is the fallback for anything unclassified.
	KindInternal Kind = iota
	// KindValidation marks malformed or missing caller input. Detected
	// before any store or gateway call.
	KindValidation
	// KindAuth marks a missing, invalid or expired token.
	KindAuth
	// KindNotFound marks an absent entity.
	KindNotFound
	// KindConflict marks a duplicate create.
	KindConflict
	// KindCorrupt marks a stored record that cannot be deserialized.
	KindCorrupt
	// KindPayment marks a declined or errored payment charge.
	KindPayment
	// KindStore marks an I/O failure on an entity operation.
	KindStore
)

// Error carries a kind, a short client-safe message and the internal cause.
// The cause is for logs and wrapping only; it must never reach a client.
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

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error with no underlying cause.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap attaches a kind and client-safe message to an underlying cause.
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind from err, walking the wrap chain.
// Unclassified errors report KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the client-safe message of err, or a generic one when the
// error is unclassified.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "internal server error"
}
