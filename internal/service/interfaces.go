package service

import (
	"context"
	"time"

	"github.com/mkessler-dev/schoolday/internal/domain"
	"github.com/mkessler-dev/schoolday/internal/feed"
)

// TransitionMeta carries caller-supplied context for a status transition.
type TransitionMeta struct {
	// ElapsedMinutes is the time the caller observed for this sitting.
	ElapsedMinutes int
	// NeedsHelp queues a parent notification on transitions into stuck.
	NeedsHelp bool
	// Reason annotates stuck transitions.
	Reason string
	// Reopen explicitly permits leaving the completed state.
	Reopen bool
}

// TransitionResult reports what a transition did, including side effects
// that were dispatched after commit.
type TransitionResult struct {
	Assignment    *domain.Assignment
	PointsAwarded int
	ParentQueued  bool
	// OvershootMinutes is elapsed minus the estimate, negative on an early
	// finish. The engine reports the raw delta; whether an early finish earns
	// a break is the caller's policy.
	OvershootMinutes int
}

type AssignmentService interface {
	Create(ctx context.Context, a *domain.Assignment) error
	GetByID(ctx context.Context, id string) (*domain.Assignment, error)
	ListBacklog(ctx context.Context, studentID string) ([]*domain.Assignment, error)
	// Transition drives the status lifecycle. Concurrent losers are retried
	// against current state a bounded number of times before surfacing
	// repository.ErrConflict.
	Transition(ctx context.Context, assignmentID string, newStatus domain.AssignmentStatus, meta TransitionMeta) (*TransitionResult, error)
	// Complete is Transition(..., completed, ...) with the elapsed time.
	Complete(ctx context.Context, assignmentID string, elapsedMinutes int) (*TransitionResult, error)
	Start(ctx context.Context, assignmentID string) (*TransitionResult, error)
	Reopen(ctx context.Context, assignmentID string) (*TransitionResult, error)
	AddTime(ctx context.Context, assignmentID string, minutes int) (*domain.Assignment, error)
}

type ScheduleService interface {
	// ComposeDay derives the ordered block sequence for a student/date.
	// Reads are lock-free; a read racing a write may be stale once, and the
	// caller's mandatory re-read after any mutation sees the new state.
	ComposeDay(ctx context.Context, studentID string, date time.Time) ([]domain.ScheduleBlock, error)
}

// RelocationResult describes where a "need more time" move landed.
type RelocationResult struct {
	Assignment  *domain.Assignment
	NewDate     time.Time
	NewBlock    int
	RolledAhead bool
}

type RescheduleService interface {
	// NeedMoreTime relocates a placed assignment to the next open slot today,
	// or rolls it to a following school day. Atomic: on any failure the
	// original placement is untouched.
	NeedMoreTime(ctx context.Context, assignmentID string, now time.Time) (*RelocationResult, error)
	// NeedMoreTimeBible closes today's bible block and advances the
	// curriculum pointer instead of duplicating the reading into tomorrow.
	NeedMoreTimeBible(ctx context.Context, studentID string, date time.Time) (*domain.BibleReading, error)
	// MarkStuck opens the undo window: the mark exists, the durable status
	// does not change yet, and no notification is sent.
	MarkStuck(ctx context.Context, assignmentID, reason string, notifyParent bool, now time.Time) (*domain.StuckMark, error)
	// CancelStuck withdraws a pending mark, leaving the assignment exactly
	// as it was. Returns ErrUndoExpired when the mark already committed.
	CancelStuck(ctx context.Context, assignmentID string) error
	// CommitStuck performs phase two for one mark.
	CommitStuck(ctx context.Context, markID string) (*TransitionResult, error)
	// CommitDueStuckMarks commits every pending mark whose window elapsed.
	CommitDueStuckMarks(ctx context.Context, now time.Time) (int, error)
	// UndoWindow exposes the configured delay so callers can arm timers.
	UndoWindow() time.Duration
}

// SyncOutcome tallies one reconciliation run.
type SyncOutcome struct {
	Inserted  int
	Updated   int
	Unchanged int
	Failures  []RecordFailure
}

type SyncService interface {
	// Reconcile merges upstream records into the assignment store by natural
	// key, overwriting source-owned fields and preserving locally-owned ones.
	// Individual bad records are collected, never abort the batch.
	Reconcile(ctx context.Context, records []feed.ExternalAssignment) (*SyncOutcome, error)
	ReconcileFile(ctx context.Context, path string) (*SyncOutcome, error)
}

// FocusState is a resumed guided-mode session plus the day it runs over.
type FocusState struct {
	Session *domain.FocusSession
	Blocks  []domain.ScheduleBlock
	// DayComplete is set when every block is terminal.
	DayComplete bool
}

type FocusService interface {
	// Resume loads or starts the session for the student's current date and
	// re-derives the cursor position from canonical state.
	Resume(ctx context.Context, studentID string, now time.Time) (*FocusState, error)
	SaveTimer(ctx context.Context, studentID string, secondsRemaining int, now time.Time) error
	// CompleteBlock records completion for a bible or fixed block and in the
	// session's local set. Assignment blocks complete through
	// AssignmentService first; this then records the local observation.
	CompleteBlock(ctx context.Context, studentID, templateBlockID string, now time.Time) error
	Exit(ctx context.Context, studentID string) error
}

type TemplateService interface {
	LoadFromFile(ctx context.Context, path string) (map[string]int, error)
	ListByStudent(ctx context.Context, studentID string) ([]*domain.TemplateBlock, error)
}
