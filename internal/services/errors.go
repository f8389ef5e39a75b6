package services

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map these to responses with errors.Is.
var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrIllegalTransition   = errors.New("illegal transition")
	ErrAllocationExhausted = errors.New("room code allocation exhausted, try again")
	ErrConcurrentUpdate    = errors.New("session is being modified concurrently, try again")
)

var (
	ErrInvalidDuration  = fmt.Errorf("%w: duration must be a positive number of minutes", ErrValidation)
	ErrInvalidRoomCode  = fmt.Errorf("%w: room code must be 6 digits", ErrValidation)
	ErrInvalidViolation = fmt.Errorf("%w: violation duration must not be negative", ErrValidation)
	ErrInvalidInput     = fmt.Errorf("%w: missing required field", ErrValidation)

	ErrSessionNotFound = fmt.Errorf("session %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)

	ErrNotHost        = fmt.Errorf("%w: only the host can do this", ErrForbidden)
	ErrNotParticipant = fmt.Errorf("%w: user is not a participant of this session", ErrForbidden)

	ErrSessionNotJoinable = fmt.Errorf("%w: session is not accepting participants", ErrIllegalTransition)
	ErrSessionClosed      = fmt.Errorf("%w: session is closed", ErrIllegalTransition)
	ErrHostCannotLeave    = fmt.Errorf("%w: the host must cancel the session instead of leaving", ErrIllegalTransition)
	ErrTargetNotReached   = fmt.Errorf("%w: target duration not reached", ErrIllegalTransition)
)

func illegalFrom(status, op string) error {
	return fmt.Errorf("%w: cannot %s a %s session", ErrIllegalTransition, op, status)
}

// errJoinClosed is returned by Join on a terminal session. It matches both
// ErrSessionNotJoinable and ErrSessionClosed.
var errJoinClosed error = joinClosedError{}

type joinClosedError struct{}

func (joinClosedError) Error() string {
	return "illegal transition: session is closed and not accepting participants"
}

func (joinClosedError) Is(target error) bool {
	return target == ErrSessionNotJoinable || target == ErrSessionClosed || target == ErrIllegalTransition
}
