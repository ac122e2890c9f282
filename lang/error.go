package lang

import (
	"errors"
	"log/slog"
	"strings"
)

// Predefined errors (sentinel values).
//
// The three line-level error kinds reported by drivers are [ErrValidation],
// [ErrLoopSyntax] and [ErrEvaluation]. Parse failures are reported as
// [ErrEvaluation] wrapping [ErrSyntax].
var (
	ErrValidation    = NewError("validation error")
	ErrLoopSyntax    = NewError("invalid loop syntax")
	ErrEvaluation    = NewError("evaluation error")
	ErrSyntax        = NewError("syntax error")
	ErrInterrupted   = NewError("interrupted")
	ErrUnknownModule = NewError("module not found")
	ErrUnknownPlugin = NewError("plugin not found")
	ErrNoInput       = NewError("no input provider")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
	kind  *Error      // Sentinel this error was derived from
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	e := &Error{msg: msg}
	e.kind = e

	return e
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether e was derived from the same sentinel as target.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.kind == nil {
		return false
	}

	return e.kind == t.kind
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Attrs returns a copy of the structured attributes attached to e.
func (e *Error) Attrs() []slog.Attr {
	return append([]slog.Attr(nil), e.attrs...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
		kind:  e.kind,
	}
}

// Wrapf wraps a plain message built from parts joined by spaces.
func (e *Error) Wrapf(parts ...string) *Error {
	return e.Wrap(errors.New(strings.Join(parts, " ")))
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
		kind:  e.kind,
	}
}

// WithPosition attaches a source position to the error.
func (e *Error) WithPosition(pos Position) *Error {
	return e.With(
		slog.Int("line", pos.Line),
		slog.Int("column", pos.Column),
		slog.Int("offset", pos.Offset),
	)
}

// IsLineError reports whether err is one of the per-line error kinds that
// drivers report and then continue past.
func IsLineError(err error) bool {
	if err == nil || IsInterrupt(err) {
		return false
	}

	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrLoopSyntax) ||
		errors.Is(err, ErrEvaluation)
}

// IsInterrupt reports whether err stems from a cancelled evaluation.
func IsInterrupt(err error) bool {
	return errors.Is(err, ErrInterrupted)
}

// evalErr builds an [ErrEvaluation] from message parts.
func evalErr(parts ...string) *Error {
	return ErrEvaluation.Wrapf(parts...)
}

// validationErr builds an [ErrValidation] from message parts.
func validationErr(parts ...string) *Error {
	return ErrValidation.Wrapf(parts...)
}
