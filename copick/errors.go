package copick

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure for translation into a response status.
type ErrorKind uint8

const (
	// BackendFailure is any failure not caused by the request's address or body.
	BackendFailure ErrorKind = iota

	// NotFound means the addressed run, spacing, tomogram, pick set, segmentation
	// or chunk does not exist.
	NotFound

	// InvalidPath means the path could not be parsed into an identity.
	InvalidPath

	// MalformedBody means the request body failed decoding or validation.
	MalformedBody

	// ReadOnlyViolation means a write was addressed to read-only data.
	ReadOnlyViolation
)

func (k ErrorKind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case InvalidPath:
		return "invalid path"
	case MalformedBody:
		return "malformed body"
	case ReadOnlyViolation:
		return "read-only violation"
	default:
		return "backend failure"
	}
}

// Error is an error carrying an ErrorKind and an optional cause.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg == "" && e.Err == nil:
		return e.Kind.String()
	case e.Err == nil:
		return e.Msg
	case e.Msg == "":
		return e.Err.Error()
	default:
		return e.Msg + ": " + e.Err.Error()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match against another *Error of the same kind with no message,
// so errors.Is(err, &Error{Kind: NotFound}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Msg == "" && t.Err == nil
}

func NotFoundf(format string, args ...interface{}) error {
	return &Error{Kind: NotFound, Msg: fmt.Sprintf(format, args...)}
}

func InvalidPathf(format string, args ...interface{}) error {
	return &Error{Kind: InvalidPath, Msg: fmt.Sprintf(format, args...)}
}

func MalformedBodyf(format string, args ...interface{}) error {
	return &Error{Kind: MalformedBody, Msg: fmt.Sprintf(format, args...)}
}

func ReadOnlyf(format string, args ...interface{}) error {
	return &Error{Kind: ReadOnlyViolation, Msg: fmt.Sprintf(format, args...)}
}

// MalformedBodyErr wraps a decode or validation error.
func MalformedBodyErr(err error, format string, args ...interface{}) error {
	return &Error{Kind: MalformedBody, Msg: fmt.Sprintf(format, args...), Err: err}
}

// BackendErr wraps a storage or persistence error.  A nil error returns nil.
func BackendErr(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: BackendFailure, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain.  Errors
// without a kind are backend failures.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return BackendFailure
}
