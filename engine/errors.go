package engine

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes every engine rejection. Codes are stable and are
// forwarded verbatim to the acting client; no other occupant observes them.
type ErrorCode string

const (
	// ErrCodePhase: operation invoked in the wrong game phase.
	ErrCodePhase ErrorCode = "phase_mismatch"
	// ErrCodeAuthority: wrong actor, i.e. not the current player or host.
	ErrCodeAuthority ErrorCode = "not_allowed"
	// ErrCodeNotFound: the named card, pile or player does not exist.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeRule: the move violates pile legality. Routine during play
	// and not exceptional in the systems sense.
	ErrCodeRule ErrorCode = "rule_violation"
	// ErrCodeMinimum: turn end requested before the required play count.
	ErrCodeMinimum ErrorCode = "minimum_not_met"
	// ErrCodeConfig: invalid settings or player/host arrangement.
	ErrCodeConfig ErrorCode = "bad_configuration"
)

// Error is a categorized engine failure. Every rejected operation returns
// one and leaves the input state unmodified.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string { return e.Message }

// NewError builds a categorized error. Exported for the room manager, which
// shares the taxonomy for room-level rejections.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return newError(code, format, args...)
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the category of an error, or empty if it is not an
// engine error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
