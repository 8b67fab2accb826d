// Package apperror defines the typed errors surfaced by the core: every
// failure a caller can act on carries a stable code and a kind that tells the
// caller whether retrying without re-checking state is safe (it never is for
// conflicts).
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation policy.
type Kind string

const (
	// KindValidation is malformed input; never retried.
	KindValidation Kind = "validation"
	// KindConflict means the caller must re-check state before retrying.
	KindConflict Kind = "conflict"
	// KindState indicates caller/state-machine misuse.
	KindState Kind = "state"
	// KindConsistency indicates a real data problem; surfaced, never patched.
	KindConsistency Kind = "consistency"
)

// Error is a typed domain error with a stable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on code so sentinel comparison with errors.Is works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Sentinels for errors.Is comparison. Call sites that need per-instance
// context wrap them with Wrap.
var (
	ErrInvalidAmount        = newError(KindValidation, "INVALID_AMOUNT", "ledger amount must be non-zero")
	ErrInvalidSchedule      = newError(KindValidation, "INVALID_SCHEDULE", "event has no usable time window")
	ErrInvalidInput         = newError(KindValidation, "INVALID_INPUT", "malformed input")
	ErrAlreadyRegistered    = newError(KindConflict, "ALREADY_REGISTERED", "an active registration already exists")
	ErrEventFull            = newError(KindConflict, "EVENT_FULL", "event has reached max participants")
	ErrDuplicateSettlement  = newError(KindConflict, "DUPLICATE_SETTLEMENT", "registration was already settled")
	ErrAlreadySignedIn      = newError(KindConflict, "ALREADY_SIGNED_IN", "participant already signed in")
	ErrEventNotOpen         = newError(KindState, "EVENT_NOT_OPEN", "event is not open for registration")
	ErrMatchNotLive         = newError(KindState, "MATCH_NOT_LIVE", "match is not live")
	ErrMatchAlreadyComplete = newError(KindState, "MATCH_ALREADY_COMPLETE", "match already has a winner")
	ErrInvalidTransition    = newError(KindState, "INVALID_TRANSITION", "status transition is not allowed")
	ErrNotRegistered        = newError(KindConsistency, "NOT_REGISTERED", "no active registration to cancel")
	ErrRegistrationNotFound = newError(KindConsistency, "REGISTRATION_NOT_FOUND", "registration not found for settlement")
	ErrInsufficientBalance  = newError(KindConsistency, "INSUFFICIENT_BALANCE", "debit exceeds current balance")
	ErrNotFound             = newError(KindConsistency, "NOT_FOUND", "entity not found")
)

// Wrap attaches call-site context to a sentinel while keeping errors.Is
// matching on the sentinel's code.
func Wrap(sentinel *Error, format string, args ...any) *Error {
	return &Error{
		Kind:    sentinel.Kind,
		Code:    sentinel.Code,
		Message: fmt.Sprintf(format, args...),
	}
}

// KindOf returns the Kind of err if it is an apperror, or "" otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// CodeOf returns the stable code of err if it is an apperror, or "" otherwise.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
