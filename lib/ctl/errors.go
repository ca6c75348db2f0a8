package ctl

import (
	"fmt"
	"github.com/ValentinKolb/mctl/lib/engine"
)

// --------------------------------------------------------------------------
// Error Kinds
// --------------------------------------------------------------------------

// Kind classifies a failure of the control layer or the engine.
type Kind uint8

const (
	KindOther                Kind = iota // engine specific failure (EFAULT, unknown codes)
	KindInvalidKey                       // malformed key, never reaches the engine
	KindNotFound                         // no control with that name or MIB (ENOENT)
	KindPermissionDenied                 // access mode rejected by the engine (EPERM)
	KindUnsupportedOperation             // operation not declared for the control point
	KindInvalidArgument                  // value rejected, wrong size or MIB length (EINVAL)
	KindResourceExhausted                // engine out of memory or busy (ENOMEM, EAGAIN)
)

func (k Kind) String() string {
	switch k {
	case KindInvalidKey:
		return "InvalidKey"
	case KindNotFound:
		return "NotFound"
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindUnsupportedOperation:
		return "UnsupportedOperation"
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindResourceExhausted:
		return "ResourceExhausted"
	default:
		return "Other"
	}
}

// kindOf maps an engine status code to an error kind.
func kindOf(status int) Kind {
	switch status {
	case engine.ENOENT:
		return KindNotFound
	case engine.EPERM:
		return KindPermissionDenied
	case engine.EINVAL:
		return KindInvalidArgument
	case engine.EAGAIN, engine.ENOMEM:
		return KindResourceExhausted
	default:
		return KindOther
	}
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is returned by every failing operation of this package.
// Code holds the engine's errno value, or 0 for failures detected locally.
type Error struct {
	Kind Kind   // The error class
	Code int    // The engine status code (0 = local)
	Op   string // The operation that failed (read, write, update, resolve, ...)
	Name string // The control name or MIB the operation addressed
	Msg  string // Optional detail
}

// Error implements the error interface.
func (e *Error) Error() string {
	s := fmt.Sprintf("ctl: %s %s: %s", e.Op, e.Name, e.Kind)
	if e.Code != 0 {
		s += fmt.Sprintf(" (errno %d)", e.Code)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}

// Is reports whether target is an *Error of the same kind, so the sentinels
// below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidKey           = &Error{Kind: KindInvalidKey}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrPermissionDenied     = &Error{Kind: KindPermissionDenied}
	ErrUnsupportedOperation = &Error{Kind: KindUnsupportedOperation}
	ErrInvalidArgument      = &Error{Kind: KindInvalidArgument}
	ErrResourceExhausted    = &Error{Kind: KindResourceExhausted}
	ErrOther                = &Error{Kind: KindOther}
)

// statusError converts a non-zero engine status into an *Error.
func statusError(status int, op, name string) error {
	if status == engine.StatusOK {
		return nil
	}
	return &Error{Kind: kindOf(status), Code: status, Op: op, Name: name}
}

func invalidKey(name, msg string) error {
	return &Error{Kind: KindInvalidKey, Op: "key", Name: name, Msg: msg}
}
