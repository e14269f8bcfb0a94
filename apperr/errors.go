// Package apperr
// Author: momentics <momentics@gmail.com>
//
// Structured error taxonomy shared by every transport engine in this
// module. All failures are reported to the immediate caller as a value
// of this type or nil; no failure ever propagates across the shared
// memory boundary itself.
package apperr

import "fmt"

// Code identifies the class of failure a transport operation hit.
type Code int

const (
	// CodeOK is the zero value; never attached to a returned error.
	CodeOK Code = iota
	// CodeSetupFailure covers region open/create, truncate, map, mlock,
	// or magic validation failures during Initialize.
	CodeSetupFailure
	// CodeBoundsViolation covers a caller-provided payload exceeding
	// the declared capacity.
	CodeBoundsViolation
	// CodeNotReady covers an operation invoked before a successful
	// Initialize or after Destroy.
	CodeNotReady
	// CodeDirectoryFull covers a ring fan-out reader failing to claim
	// any of the 16 control-channel directory entries.
	CodeDirectoryFull
	// CodeLeaseConflict covers a zero-copy lease requested while a
	// prior lease is still held by the same reader.
	CodeLeaseConflict
)

func (c Code) String() string {
	switch c {
	case CodeSetupFailure:
		return "setup failure"
	case CodeBoundsViolation:
		return "bounds violation"
	case CodeNotReady:
		return "not ready"
	case CodeDirectoryFull:
		return "directory full"
	case CodeLeaseConflict:
		return "lease conflict"
	default:
		return "ok"
	}
}

// Error is a structured, contextualized transport error.
type Error struct {
	Code    Code
	Message string
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (context: %+v)", e.Code, e.Message, e.Context)
}

// Is allows errors.Is(err, apperr.ErrSetupFailure) style comparisons
// against the sentinel values below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a structured error of the given code.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a structured error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithContext attaches a key/value pair for diagnostics and returns the
// same error for chaining.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Sentinel values usable with errors.Is for coarse-grained matching on
// error class alone (message and context are ignored by Is).
var (
	ErrSetupFailure    = &Error{Code: CodeSetupFailure}
	ErrBoundsViolation = &Error{Code: CodeBoundsViolation}
	ErrNotReady        = &Error{Code: CodeNotReady}
	ErrDirectoryFull   = &Error{Code: CodeDirectoryFull}
	ErrLeaseConflict   = &Error{Code: CodeLeaseConflict}
)
