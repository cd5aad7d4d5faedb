package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals malformed input; nothing was mutated.
	ErrValidation = errors.New("validation failed")

	// ErrCompletedLocked signals a transition out of completed without the
	// explicit reopen flag.
	ErrCompletedLocked = errors.New("assignment is completed; reopen required")

	// ErrNoSlotAvailable signals that no assignment slot could be found
	// within the relocation horizon.
	ErrNoSlotAvailable = errors.New("no assignment slot available")

	// ErrUndoExpired signals a cancel that arrived after the stuck mark
	// already committed.
	ErrUndoExpired = errors.New("undo window already elapsed")
)

// RecordFailure attributes a sync failure to one batch record.
type RecordFailure struct {
	Index int
	Title string
	Err   error
}

// BatchError reports partial failure of a sync batch. Sibling records were
// still processed; only the listed ones failed.
type BatchError struct {
	Failures []RecordFailure
}

func (e *BatchError) Error() string {
	msg := fmt.Sprintf("sync batch: %d record(s) failed:", len(e.Failures))
	for _, f := range e.Failures {
		msg += fmt.Sprintf("\n  - record %d (%q): %v", f.Index, f.Title, f.Err)
	}
	return msg
}
