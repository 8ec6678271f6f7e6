package engine

import "errors"

// Validation failures surfaced to handlers. All deterministic, none transient.
var (
	ErrHabitNotFound         = errors.New("habit not found")
	ErrAlreadyCompletedToday = errors.New("habit already completed today")
	ErrHabitNotFreezable     = errors.New("habit cannot use freezes")
	ErrNoFreezeAvailable     = errors.New("no freezes available")
	ErrFreezeLimitExceeded   = errors.New("cannot use more than 2 freezes in a row")
	ErrSessionNotFound       = errors.New("habit log not found")
	ErrSessionAlreadyStopped = errors.New("this session is already stopped")
	ErrSessionAlreadyActive  = errors.New("a session is already running for this habit")
	ErrManualEntryNotAllowed = errors.New("manual entries are not allowed for this habit")
)
