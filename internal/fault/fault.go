// Package fault defines the error taxonomy shared by the upstream client,
// the session store, and the resource layer. Every failure that crosses a
// package boundary is one of these kinds so callers can branch without
// string matching.
package fault

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindUnauthorized
	KindNotFound
	KindConflict
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Error carries a machine kind, a short wire code and an optional cause.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Wrap(kind Kind, code string, err error) *Error {
	return &Error{Kind: kind, Code: code, Err: err}
}

func Validation(code, message string) *Error {
	return New(KindValidation, code, message)
}

func Validationf(code, format string, args ...any) *Error {
	return New(KindValidation, code, fmt.Sprintf(format, args...))
}

func Unauthorized(code, message string) *Error {
	return New(KindUnauthorized, code, message)
}

func NotFound(code, message string) *Error {
	return New(KindNotFound, code, message)
}

func Conflict(code, message string) *Error {
	return New(KindConflict, code, message)
}

func Network(code string, err error) *Error {
	return Wrap(KindNetwork, code, err)
}

func Unknown(code string, err error) *Error {
	return Wrap(KindUnknown, code, err)
}

// KindOf reports the fault kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// CodeOf returns err's wire code, or "unknown_error" for foreign errors.
func CodeOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) && fe.Code != "" {
		return fe.Code
	}
	return "unknown_error"
}

// Is enables errors.Is(err, fault.New(kind, code, "")) comparisons on kind
// and code; an empty code on the target matches any code of the same kind.
func (e *Error) Is(target error) bool {
	var fe *Error
	if !errors.As(target, &fe) {
		return false
	}
	if e.Kind != fe.Kind {
		return false
	}
	return fe.Code == "" || fe.Code == e.Code
}
