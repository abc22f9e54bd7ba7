// Package errs defines the failure kinds raised by the calendar, unit,
// frequency-conversion and reconciliation packages.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. Callers branch on the kind, never on the message.
type Kind int

const (
	KindUnknown Kind = iota
	InvalidFrequency
	NoFullPeriods
	DimensionalityMismatch
	UnsupportedDimension
	DuplicateAttribute
	NoOverlap
	UnderdeterminedInput
	InconsistentInput
	UnsupportedType
	InvalidIndex
)

// Code returns a stable identifier, used in API error responses.
func (k Kind) Code() string {
	switch k {
	case InvalidFrequency:
		return "INVALID_FREQUENCY"
	case NoFullPeriods:
		return "NO_FULL_PERIODS"
	case DimensionalityMismatch:
		return "DIMENSIONALITY_MISMATCH"
	case UnsupportedDimension:
		return "UNSUPPORTED_DIMENSION"
	case DuplicateAttribute:
		return "DUPLICATE_ATTRIBUTE"
	case NoOverlap:
		return "NO_OVERLAP"
	case UnderdeterminedInput:
		return "UNDERDETERMINED_INPUT"
	case InconsistentInput:
		return "INCONSISTENT_INPUT"
	case UnsupportedType:
		return "UNSUPPORTED_TYPE"
	case InvalidIndex:
		return "INVALID_INDEX"
	default:
		return "UNKNOWN"
	}
}

func (k Kind) String() string { return k.Code() }

// Error is the error type returned by the core packages.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is makes errors.Is match any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// New returns an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an *Error of the given kind that wraps cause.
// If cause already is an *Error, its kind is kept when kind is KindUnknown.
func Wrap(cause error, kind Kind, format string, args ...any) *Error {
	if cause == nil {
		return nil
	}
	if kind == KindUnknown {
		kind = KindOf(cause)
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether any error in err's chain is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}
