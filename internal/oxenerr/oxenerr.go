// Package oxenerr defines the closed error taxonomy shared by every storage
// component: object store, commit DB, ref store, entry index, staging area,
// commit orchestrator and checkout. Callers distinguish kinds with Is/As
// rather than string matching.
package oxenerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies which bucket of the taxonomy an Error belongs to.
type Kind int

const (
	// Unknown is the zero value and should never be returned deliberately.
	Unknown Kind = iota
	// IoError wraps an underlying filesystem or KV-engine I/O failure.
	IoError
	// Corruption indicates on-disk state failed an internal consistency check
	// (malformed record, broken commit-graph link, truncated object).
	Corruption
	// NotFound indicates a requested commit, branch, entry or object does
	// not exist.
	NotFound
	// AlreadyExists indicates a create operation collided with an existing
	// branch, repository or object.
	AlreadyExists
	// InvalidInput indicates a caller-supplied argument failed validation
	// (empty branch name, nil entry, malformed path).
	InvalidInput
	// ResourceBusy indicates a component could not acquire exclusive access
	// to an on-disk store because another writer already holds it.
	ResourceBusy
	// CheckoutConflict indicates checkout found a file/directory type
	// mismatch between the working tree and the target commit.
	CheckoutConflict
	// AuthMissing indicates an operation that requires author identity
	// (commit) was attempted without a configured user.
	AuthMissing
)

func (k Kind) String() string {
	switch k {
	case IoError:
		return "IoError"
	case Corruption:
		return "Corruption"
	case NotFound:
		return "NotFound"
	case AlreadyExists:
		return "AlreadyExists"
	case InvalidInput:
		return "InvalidInput"
	case ResourceBusy:
		return "ResourceBusy"
	case CheckoutConflict:
		return "CheckoutConflict"
	case AuthMissing:
		return "AuthMissing"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type produced by every store package.
// It carries a Kind for programmatic dispatch and wraps an optional
// underlying cause with a stack trace via github.com/pkg/errors.
type Error struct {
	kind Kind
	op   string
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.op, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.op, e.msg)
}

// Unwrap allows errors.Is/errors.As to reach the wrapped cause.
func (e *Error) Unwrap() error { return e.err }

// Kind reports which taxonomy bucket e belongs to.
func (e *Error) Kind() Kind { return e.kind }

// New constructs an Error of the given kind without an underlying cause.
func New(kind Kind, op, msg string) *Error {
	return &Error{kind: kind, op: op, msg: msg}
}

// Wrap constructs an Error of the given kind around an underlying cause,
// preserving a stack trace on err if it does not already carry one.
func Wrap(kind Kind, op, msg string, err error) *Error {
	if err == nil {
		return New(kind, op, msg)
	}
	return &Error{kind: kind, op: op, msg: msg, err: errors.WithStack(err)}
}

// Is reports whether err is an *Error of the given kind, unwrapping through
// any chain of wrapped errors.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.kind == kind
}

// KindOf returns the Kind of err if it is an *Error, or Unknown otherwise.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return Unknown
	}
	return e.kind
}
