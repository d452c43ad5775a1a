package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures. Every error produced by the parsing,
// resolution, and mutation layers carries one of these kinds so callers can
// map failures to behavior without string matching.
type ErrorKind int

const (
	// KindUnknown is the zero value; errors from outside the engine map here.
	KindUnknown ErrorKind = iota

	// MalformedToken - the lexer hit an unterminated string, a bad escape,
	// or an unexpected byte.
	MalformedToken

	// TruncatedObject - an object ended before its closing delimiter or
	// endstream keyword.
	TruncatedObject

	// InvalidLength - a stream's declared /Length exceeds the remaining input.
	InvalidLength

	// MissingXref - no startxref/trailer could be located at the file tail.
	MissingXref

	// DanglingReference - an indirect reference has no cross-reference entry.
	DanglingReference

	// CyclicReference - resolving a reference re-entered an object already
	// mid-resolution.
	CyclicReference

	// CyclicPageTree - the page tree's Kids chain loops back on itself.
	CyclicPageTree

	// IndexError - a page index is out of range for the document.
	IndexError

	// InvalidAngle - a rotation is not a multiple of 90 degrees.
	InvalidAngle

	// IoUnavailable - the engine was asked to read a resource it was never
	// handed bytes for.
	IoUnavailable
)

// String returns the kind's name for diagnostics.
func (k ErrorKind) String() string {
	switch k {
	case MalformedToken:
		return "MalformedToken"
	case TruncatedObject:
		return "TruncatedObject"
	case InvalidLength:
		return "InvalidLength"
	case MissingXref:
		return "MissingXref"
	case DanglingReference:
		return "DanglingReference"
	case CyclicReference:
		return "CyclicReference"
	case CyclicPageTree:
		return "CyclicPageTree"
	case IndexError:
		return "IndexError"
	case InvalidAngle:
		return "InvalidAngle"
	case IoUnavailable:
		return "IoUnavailable"
	default:
		return "Unknown"
	}
}

// Error is a classified engine error. Offset is the byte position in the
// source file where the problem was detected, or -1 when no position applies
// (page-level failures carry the page index in the message instead).
type Error struct {
	Kind   ErrorKind
	Offset int64
	Msg    string
	Err    error // wrapped cause, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset %d: %s", e.Kind, e.Offset, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds a classified error with a formatted message.
// Pass offset -1 when no byte position applies.
func Errorf(kind ErrorKind, offset int64, format string, args ...interface{}) *Error {
	e := &Error{
		Kind:   kind,
		Offset: offset,
		Msg:    fmt.Sprintf(format, args...),
	}
	// Preserve a wrapped cause when the last argument is an error formatted
	// with %w-style intent.
	for _, a := range args {
		if err, ok := a.(error); ok {
			e.Err = err
		}
	}
	return e
}

// KindOf extracts the ErrorKind from err, unwrapping as needed.
// Returns KindUnknown for nil or foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
