package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error is a structured error carrying a code, an operator-facing message,
// optional key/value context, and an optional fix hint. It wraps an underlying
// cause and participates in errors.Is/errors.As chains.
type Error struct {
	// Code classifies the error condition.
	Code ErrorCode

	// Message is the operator-facing description of what failed.
	Message string

	// Hint is an optional concrete next action, typically a command to run.
	Hint string

	// Context holds structured detail about the failure site.
	Context map[string]interface{}

	// cause is the wrapped underlying error, if any.
	cause error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a new Error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with a code and message. Returns nil when err
// is nil so call sites can wrap unconditionally.
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// Wrapf wraps an existing error with a code and a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}

// WrapWithContext wraps an existing error and attaches structured context.
func WrapWithContext(err error, code ErrorCode, message string, context map[string]interface{}) *Error {
	e := Wrap(err, code, message)
	if e == nil {
		return nil
	}
	e.Context = context
	return e
}

// WithHint attaches a fix hint and returns the error for chaining.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// WithContext attaches a single context entry and returns the error for chaining.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Error returns the message followed by the wrapped cause and any context,
// with context keys in stable order.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Context[k])
		}
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether any error in err's chain matches target. Re-exported
// so callers never need a second errors import for sentinel checks.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain matching target's type.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// GetCode returns the code of the first *Error found in err's chain.
// Returns CodeUnknown when the chain contains no *Error.
func GetCode(err error) ErrorCode {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return CodeUnknown
}

// HasCode reports whether any *Error in err's chain carries the given code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var re *Error
		if !errors.As(err, &re) {
			return false
		}
		if re.Code == code {
			return true
		}
		err = re.Unwrap()
	}
	return false
}

// GetHint returns the first non-empty fix hint in err's chain, or "".
func GetHint(err error) string {
	for err != nil {
		var re *Error
		if !errors.As(err, &re) {
			return ""
		}
		if re.Hint != "" {
			return re.Hint
		}
		err = re.Unwrap()
	}
	return ""
}
