// Package scheduling holds the error taxonomy shared by every core
// component (slotengine, matcher, consistency, orchestrator). Keeping it
// separate from models avoids an import cycle between the store interfaces
// and the packages that return these errors.
package scheduling

import (
	"errors"
	"fmt"

	"telehealth-scheduling-core/models"
)

// Kind classifies a scheduling error for callers that branch on category
// rather than exact code (HTTP status mapping, retry policy).
type Kind string

const (
	KindNotFound         Kind = "NOT_FOUND"
	KindInvalidInput     Kind = "INVALID_INPUT"
	KindConflict         Kind = "CONFLICT"
	KindNoAvailability   Kind = "NO_AVAILABILITY"
	KindLockTimeout      Kind = "LOCK_TIMEOUT"
	KindTimeout          Kind = "TIMEOUT"
	KindStoreUnavailable Kind = "STORE_UNAVAILABLE"
	KindTransientRemote  Kind = "TRANSIENT_REMOTE"
	KindUpstream         Kind = "UPSTREAM"
	KindTooLate          Kind = "TOO_LATE"
	KindInternal         Kind = "INTERNAL"
)

// retryableKinds holds the failure kinds a job worker retries with backoff,
// per the propagation policy: LockTimeout, StoreUnavailable and
// TransientRemote are assumed to clear on their own; every other kind is
// treated as a permanent failure for that attempt.
var retryableKinds = map[Kind]bool{
	KindLockTimeout:      true,
	KindStoreUnavailable: true,
	KindTransientRemote:  true,
}

// Error is the scheduling core's uniform error type. Code is a stable
// machine-readable string (e.g. "slot_conflict"); Alternatives carries
// suggested replacement slots, which the consistency layer attaches to its
// KindConflict errors. The matcher's KindNoAvailability error carries none.
type Error struct {
	Kind         Kind
	Code         string
	Message      string
	Retryable    bool
	Alternatives []models.Slot
	cause        error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New builds a scheduling Error with no wrapped cause. Retryable is derived
// from kind so call sites never have to remember to set it themselves.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Retryable: retryableKinds[kind]}
}

// Wrap builds a scheduling Error that preserves cause for errors.Is/As.
func Wrap(kind Kind, code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Retryable: retryableKinds[kind], cause: cause}
}

// IsRetryable reports whether err is a scheduling Error whose kind a job
// worker should retry with backoff.
func IsRetryable(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// WithAlternatives returns a copy of e carrying the given alternative
// slots. The package's sentinel errors (ErrSlotConflict and friends) are
// shared singletons, so this never mutates them in place — callers must
// use the returned copy.
func (e *Error) WithAlternatives(slots []models.Slot) *Error {
	clone := *e
	clone.Alternatives = slots
	return &clone
}

// IsKind reports whether err is a scheduling Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}

var (
	ErrClinicianNotFound    = New(KindNotFound, "clinician_not_found", "clinician not found")
	ErrAppointmentNotFound  = New(KindNotFound, "appointment_not_found", "appointment not found")
	ErrJobNotFound          = New(KindNotFound, "job_not_found", "booking job not found")
	ErrNoTemplate           = New(KindNoAvailability, "no_template", "clinician has no active availability template")
	ErrNoClinicianAvailable = New(KindNoAvailability, "no_clinician_available", "no clinician available for the requested type and window")
	ErrSlotConflict         = New(KindConflict, "slot_conflict", "requested slot conflicts with an existing appointment")
	ErrInvalidTransition    = New(KindInvalidInput, "invalid_transition", "appointment status transition not permitted")
	ErrJobAlreadyTerminal   = New(KindTooLate, "job_already_terminal", "job has already reached a terminal state and cannot be cancelled")
)
