// Package apperr defines the failure taxonomy shared by every public
// lifecycle operation. Handlers map kinds to HTTP status codes;
// services never return a bare error to a caller without one.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an operation failure.
type Kind int

const (
	// NotFound means the game, ticket or user does not exist.
	NotFound Kind = iota + 1
	// Forbidden means the wrong actor: not the creator, not the owner,
	// or the creator playing their own game.
	Forbidden
	// Conflict means the wrong state for the requested transition:
	// terminal game, category already paid, max tickets reached, no
	// numbers left to draw.
	Conflict
	// InvalidInput means a malformed card or bad price quantization.
	InvalidInput
	// InsufficientFunds means the wallet balance is below the amount.
	InsufficientFunds
)

// Error carries a kind and a client-facing message.
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

// New builds an Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf builds an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind from an error chain, or zero if the error
// carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Is reports whether the error chain carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
