package domain

import "time"

// StuckMark is the delayed-commit half of marking an assignment stuck.
// Phase one creates the mark and lets the UI advance; phase two (after the
// undo window) performs the durable status change and fires the parent
// notification. Cancelling before phase two leaves the assignment untouched.
type StuckMark struct {
	ID           string
	AssignmentID string
	StudentID    string
	Date         time.Time
	Reason       string
	NotifyParent bool
	State        StuckMarkState
	CreatedAt    time.Time
	CommitAt     time.Time
}

// Due reports whether the undo window has elapsed.
func (m *StuckMark) Due(now time.Time) bool {
	return !now.Before(m.CommitAt)
}
