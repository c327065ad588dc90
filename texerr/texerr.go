// Package texerr defines the typed error taxonomy used across gotex.
//
// Every operation that can fail returns a result carrying either success
// or an *Error with context, per spec.md §7. The main control loop is the
// only layer that prints a context trace; everywhere else errors merely
// propagate, usually wrapped with github.com/pkg/errors so that a fatal
// abort keeps the call chain that produced it.
package texerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an error without needing a distinct Go type per error.
type Kind int

const (
	// Fatal errors are unrecoverable: I/O failure, interruption, capacity
	// exhausted. The job aborts immediately.
	Fatal Kind = iota
	// Confusion marks a broken internal invariant — always a bug.
	Confusion
	// Syntax covers missing delimiters, bad numbers, improper mode.
	Syntax
	// Semantic covers undefined control sequences, bad code values,
	// out-of-range register indices.
	Semantic
	// Overflow marks a named table exceeding its configured bound.
	Overflow
)

func (k Kind) String() string {
	switch k {
	case Fatal:
		return "fatal error"
	case Confusion:
		return "internal confusion"
	case Syntax:
		return "syntax error"
	case Semantic:
		return "semantic error"
	case Overflow:
		return "overflow"
	default:
		return "error"
	}
}

// Context captures the position and surrounding text of a failure so the
// main control loop can pseudo-print the offending source line.
type Context struct {
	Line     int
	FileName string
	Token    string
	Help     string
}

// Error is the single error value gotex operations return.
type Error struct {
	Kind    Kind
	Message string
	Ctx     Context
	cause   error
}

func (e *Error) Error() string {
	if e.Ctx.FileName != "" {
		return fmt.Sprintf("%s: %s:%d: %s", e.Kind, e.Ctx.FileName, e.Ctx.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap lets errors.Is/As and errors.Cause see through to the cause.
func (e *Error) Unwrap() error { return e.cause }

// New builds a bare Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind and context to an existing error, preserving it as
// the cause so errors.Cause(err) still reaches the original failure.
func Wrap(cause error, kind Kind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		cause:   errors.WithStack(cause),
	}
}

// WithContext returns a copy of e carrying positional context.
func (e *Error) WithContext(ctx Context) *Error {
	ne := *e
	ne.Ctx = ctx
	return &ne
}

// Is reports whether err (or any error it wraps) has the given Kind.
func Is(err error, kind Kind) bool {
	var te *Error
	for err != nil {
		if as, ok := err.(*Error); ok {
			te = as
			if te.Kind == kind {
				return true
			}
			err = te.cause
			continue
		}
		cause := errors.Cause(err)
		if cause == err {
			return false
		}
		err = cause
	}
	return false
}
