package domain

import (
	"fmt"
	"strings"
	"time"
)

type Assignment struct {
	ID        string
	StudentID string
	Title     string
	Subject   string

	CourseName   string
	Instructions string
	Notes        string

	DueDate          *time.Time
	EstimatedMinutes int
	Priority         Priority
	Status           AssignmentStatus

	// Placement: either both set or both nil. An assignment is placed on the
	// calendar or it floats in the backlog, never half of each.
	ScheduledDate        *time.Time
	ScheduledBlockNumber *int

	Provenance       Provenance
	SourceID         string
	SourceCourseID   string
	TimeSpentMinutes int

	// Version is the optimistic concurrency token. Bumped on every update.
	Version int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizedTitle is the title component of the natural import key.
func (a *Assignment) NormalizedTitle() string {
	return NormalizeTitle(a.Title)
}

// NormalizeTitle lowercases and collapses interior whitespace so that
// upstream title variants ("Lesson  4 " vs "lesson 4") hit the same key.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

// IsPlaced reports whether the assignment occupies a calendar slot.
func (a *Assignment) IsPlaced() bool {
	return a.ScheduledDate != nil && a.ScheduledBlockNumber != nil
}

// IsTerminal reports whether the engine drives no further transition.
func (a *Assignment) IsTerminal() bool {
	return a.Status == AssignmentCompleted
}

// Place schedules the assignment into a concrete slot.
func (a *Assignment) Place(date time.Time, blockNumber int, now time.Time) {
	d := date
	n := blockNumber
	a.ScheduledDate = &d
	a.ScheduledBlockNumber = &n
	a.UpdatedAt = now
}

// ClearPlacement returns the assignment to the floating backlog.
func (a *Assignment) ClearPlacement(now time.Time) {
	a.ScheduledDate = nil
	a.ScheduledBlockNumber = nil
	a.UpdatedAt = now
}

// Start moves a pending assignment into in_progress.
func (a *Assignment) Start(now time.Time) error {
	switch a.Status {
	case AssignmentCompleted:
		return fmt.Errorf("assignment %q is completed; reopen it first", a.Title)
	case AssignmentInProgress:
		return nil
	}
	a.Status = AssignmentInProgress
	a.UpdatedAt = now
	return nil
}

// Complete marks the assignment done and accrues elapsed minutes.
// TimeSpentMinutes only ever grows; a negative elapsed is rejected.
func (a *Assignment) Complete(elapsedMinutes int, now time.Time) error {
	if a.Status == AssignmentCompleted {
		return fmt.Errorf("assignment %q is already completed", a.Title)
	}
	if elapsedMinutes < 0 {
		return fmt.Errorf("elapsed minutes must not be negative, got %d", elapsedMinutes)
	}
	a.Status = AssignmentCompleted
	a.TimeSpentMinutes += elapsedMinutes
	a.UpdatedAt = now
	return nil
}

// MarkStuck records that the student cannot proceed without help.
func (a *Assignment) MarkStuck(now time.Time) error {
	if a.Status == AssignmentCompleted {
		return fmt.Errorf("assignment %q is completed; cannot mark stuck", a.Title)
	}
	a.Status = AssignmentStuck
	a.UpdatedAt = now
	return nil
}

// MarkNeedsMoreTime records an overtime signal before relocation.
func (a *Assignment) MarkNeedsMoreTime(now time.Time) error {
	if a.Status == AssignmentCompleted {
		return fmt.Errorf("assignment %q is completed; cannot extend", a.Title)
	}
	a.Status = AssignmentNeedsMoreTime
	a.UpdatedAt = now
	return nil
}

// ReturnToPending re-enters the pending state after a reschedule.
func (a *Assignment) ReturnToPending(now time.Time) {
	a.Status = AssignmentPending
	a.UpdatedAt = now
}

// Reopen explicitly unlocks a completed assignment.
func (a *Assignment) Reopen(now time.Time) error {
	if a.Status != AssignmentCompleted {
		return fmt.Errorf("assignment %q is %s, not completed", a.Title, a.Status)
	}
	a.Status = AssignmentPending
	a.UpdatedAt = now
	return nil
}

// ApplyTime accrues working minutes without a status change.
func (a *Assignment) ApplyTime(minutes int, now time.Time) error {
	if minutes < 0 {
		return fmt.Errorf("time delta must not be negative, got %d", minutes)
	}
	a.TimeSpentMinutes += minutes
	a.UpdatedAt = now
	return nil
}

// ApplySourceFields overwrites the source-owned fields from an upstream
// record and reports whether anything actually changed. Locally-owned fields
// (status, notes, time spent, placement, priority) are never touched here.
func (a *Assignment) ApplySourceFields(subject, courseName, instructions, sourceID, sourceCourseID string, dueDate *time.Time, now time.Time) bool {
	changed := false
	if a.Subject != subject {
		a.Subject = subject
		changed = true
	}
	if a.CourseName != courseName {
		a.CourseName = courseName
		changed = true
	}
	if a.Instructions != instructions {
		a.Instructions = instructions
		changed = true
	}
	if a.SourceID != sourceID {
		a.SourceID = sourceID
		changed = true
	}
	if a.SourceCourseID != sourceCourseID {
		a.SourceCourseID = sourceCourseID
		changed = true
	}
	if !equalDatePtr(a.DueDate, dueDate) {
		a.DueDate = dueDate
		changed = true
	}
	if changed {
		a.UpdatedAt = now
	}
	return changed
}

func equalDatePtr(a, b *time.Time) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	return a.Equal(*b)
}
