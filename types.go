package scoutx

import (
	"context"

	"github.com/cockroachdb/errors"
)

// ErrorCode represents specific error codes for adapter operations.
type ErrorCode int

const (
	// ErrCodeNoIndex is returned when a query resolves to no target index.
	ErrCodeNoIndex ErrorCode = iota + 1000

	// ErrCodeInvalidQuery is returned when a query cannot be translated.
	ErrCodeInvalidQuery

	// ErrCodeTimeout is returned when an engine call times out.
	ErrCodeTimeout

	// ErrCodeCanceled is returned when an engine call is canceled.
	ErrCodeCanceled

	// ErrCodeBackendUnavailable is returned when the engine rejects or
	// cannot serve a request.
	ErrCodeBackendUnavailable
)

// String returns the human-readable string representation of the error code.
// This implements the fmt.Stringer interface.
func (e ErrorCode) String() string {
	switch e {
	case ErrCodeNoIndex:
		return "no target index"
	case ErrCodeInvalidQuery:
		return "invalid query"
	case ErrCodeTimeout:
		return "operation timed out"
	case ErrCodeCanceled:
		return "operation canceled"
	case ErrCodeBackendUnavailable:
		return "backend unavailable"
	default:
		return "unknown error"
	}
}

// newErrorWithCode creates a new error with a code and message.
func newErrorWithCode(code ErrorCode, msg string) error {
	err := errors.New(msg)
	return errors.WithSecondaryError(err, errors.Newf("code: %d", int(code)))
}

// Common errors that can be returned by adapter operations.
var (
	// ErrNoIndex is returned when a query carries neither an index
	// override nor a model to derive one from.
	ErrNoIndex = newErrorWithCode(ErrCodeNoIndex, "scoutx: no target index")

	// ErrInvalidQuery is returned when a query cannot be translated.
	ErrInvalidQuery = newErrorWithCode(ErrCodeInvalidQuery, "scoutx: invalid query")

	// ErrTimeout is returned when an engine call times out.
	ErrTimeout = newErrorWithCode(ErrCodeTimeout, "scoutx: operation timed out")

	// ErrCanceled is returned when an engine call is canceled.
	ErrCanceled = newErrorWithCode(ErrCodeCanceled, "scoutx: operation canceled")

	// ErrBackendUnavailable is returned when the engine rejects or cannot
	// serve a request.
	ErrBackendUnavailable = newErrorWithCode(ErrCodeBackendUnavailable, "scoutx: backend unavailable")
)

// WrapEngineError maps a transport error onto the adapter's error taxonomy:
// context expiry becomes ErrTimeout/ErrCanceled, everything else is treated
// as backend unavailable with the cause attached.
func WrapEngineError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	if errors.Is(err, context.Canceled) {
		return ErrCanceled
	}
	return errors.WithSecondaryError(
		ErrBackendUnavailable,
		errors.Wrapf(err, "engine request failed"),
	)
}
