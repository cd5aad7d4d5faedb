package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkessler-dev/schoolday/internal/domain"
	"github.com/mkessler-dev/schoolday/internal/repository"
	"github.com/mkessler-dev/schoolday/internal/testutil"
)

const undoWindow = 10 * time.Second

func TestRescheduleService_NeedMoreTimeSameDay(t *testing.T) {
	f := newFixture(t)
	blocks := f.installWeek(t, "s-1")
	svc := f.rescheduleService(undoWindow)
	ctx := context.Background()

	a := testutil.NewTestAssignment("s-1", "Fractions", testutil.WithPlacement(monday, 2))
	a.TimeSpentMinutes = 17
	require.NoError(t, f.assignments.Create(ctx, a))

	// 09:00, partway into block 2. Block 3 has not started and is free.
	now := monday.Add(9 * time.Hour)
	res, err := svc.NeedMoreTime(ctx, a.ID, now)
	require.NoError(t, err)
	assert.False(t, res.RolledAhead)
	assert.True(t, res.NewDate.Equal(monday))
	assert.Equal(t, 3, res.NewBlock)
	assert.Equal(t, domain.AssignmentPending, res.Assignment.Status)
	assert.Equal(t, 17, res.Assignment.TimeSpentMinutes, "accrued time survives the move")

	// The abandoned slot is closed out as overtime.
	status, err := f.statuses.Get(ctx, "s-1", monday, f.blockID(blocks, time.Monday, 2))
	require.NoError(t, err)
	assert.Equal(t, domain.BlockOvertime, status.State)
}

func TestRescheduleService_NeedMoreTimeRollsToNextSchoolDay(t *testing.T) {
	f := newFixture(t)
	f.installWeek(t, "s-1")
	svc := f.rescheduleService(undoWindow)
	ctx := context.Background()

	a := testutil.NewTestAssignment("s-1", "Fractions", testutil.WithPlacement(monday, 2))
	require.NoError(t, f.assignments.Create(ctx, a))
	for _, n := range []int{3, 5} {
		filler := testutil.NewTestAssignment("s-1", "Filler", testutil.WithPlacement(monday, n))
		require.NoError(t, f.assignments.Create(ctx, filler))
	}

	now := monday.Add(9 * time.Hour)
	res, err := svc.NeedMoreTime(ctx, a.ID, now)
	require.NoError(t, err)
	assert.True(t, res.RolledAhead)
	assert.True(t, res.NewDate.Equal(monday.AddDate(0, 0, 1)), "earliest slot is Tuesday")
	assert.Equal(t, 2, res.NewBlock)

	// Monday no longer lists the moved assignment.
	onMonday, err := f.assignments.ListByStudentDate(ctx, "s-1", monday)
	require.NoError(t, err)
	for _, p := range onMonday {
		assert.NotEqual(t, a.ID, p.ID)
	}
}

func TestRescheduleService_NeedMoreTimeConservesAssignments(t *testing.T) {
	f := newFixture(t)
	f.installWeek(t, "s-1")
	svc := f.rescheduleService(undoWindow)
	ctx := context.Background()

	a := testutil.NewTestAssignment("s-1", "Fractions", testutil.WithPlacement(monday, 2))
	require.NoError(t, f.assignments.Create(ctx, a))
	for _, n := range []int{3, 5} {
		filler := testutil.NewTestAssignment("s-1", "Filler", testutil.WithPlacement(monday, n))
		require.NoError(t, f.assignments.Create(ctx, filler))
	}

	before, err := f.assignments.CountByStudent(ctx, "s-1")
	require.NoError(t, err)

	res, err := svc.NeedMoreTime(ctx, a.ID, monday.Add(9*time.Hour))
	require.NoError(t, err)
	require.True(t, res.RolledAhead)

	// A move relocates; it never duplicates or drops a row.
	after, err := f.assignments.CountByStudent(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// No two assignments ended up claiming the same slot on the same day.
	seen := make(map[string]string)
	for day := 0; day < 2; day++ {
		date := monday.AddDate(0, 0, day)
		placed, err := f.assignments.ListByStudentDate(ctx, "s-1", date)
		require.NoError(t, err)
		for _, p := range placed {
			require.NotNil(t, p.ScheduledBlockNumber)
			key := fmt.Sprintf("%s#%d", date.Format("2006-01-02"), *p.ScheduledBlockNumber)
			assert.Empty(t, seen[key], "slot %s claimed by both %s and %s", key, seen[key], p.ID)
			seen[key] = p.ID
		}
	}
}

func TestRescheduleService_NeedMoreTimeNoSlotRollsBack(t *testing.T) {
	f := newFixture(t)
	f.installWeek(t, "s-1")
	svc := f.rescheduleService(undoWindow)
	ctx := context.Background()

	a := testutil.NewTestAssignment("s-1", "Fractions", testutil.WithPlacement(monday, 2))
	require.NoError(t, f.assignments.Create(ctx, a))

	// Fill every assignment slot across the whole search horizon.
	for day := 0; day < 22; day++ {
		date := monday.AddDate(0, 0, day)
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			continue
		}
		for _, n := range []int{2, 3, 5} {
			if day == 0 && n == 2 {
				continue
			}
			filler := testutil.NewTestAssignment("s-1", "Filler", testutil.WithPlacement(date, n))
			require.NoError(t, f.assignments.Create(ctx, filler))
		}
	}

	_, err := svc.NeedMoreTime(ctx, a.ID, monday.Add(9*time.Hour))
	assert.ErrorIs(t, err, ErrNoSlotAvailable)

	// The failed move left nothing behind: placement intact, no overtime row.
	got, err := f.assignments.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ScheduledDate)
	assert.True(t, got.ScheduledDate.Equal(monday))
	assert.Equal(t, 2, *got.ScheduledBlockNumber)

	statuses, err := f.statuses.ListByStudentDate(ctx, "s-1", monday)
	require.NoError(t, err)
	assert.Empty(t, statuses)
}

func TestRescheduleService_NeedMoreTimeGuards(t *testing.T) {
	f := newFixture(t)
	f.installWeek(t, "s-1")
	svc := f.rescheduleService(undoWindow)
	ctx := context.Background()
	now := monday.Add(9 * time.Hour)

	done := testutil.NewTestAssignment("s-1", "Done",
		testutil.WithPlacement(monday, 2), testutil.WithStatus(domain.AssignmentCompleted))
	require.NoError(t, f.assignments.Create(ctx, done))
	_, err := svc.NeedMoreTime(ctx, done.ID, now)
	assert.ErrorIs(t, err, ErrCompletedLocked)

	backlog := testutil.NewTestAssignment("s-1", "Backlog only")
	require.NoError(t, f.assignments.Create(ctx, backlog))
	_, err = svc.NeedMoreTime(ctx, backlog.ID, now)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRescheduleService_NeedMoreTimeInjectedFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.installWeek(t, "s-1")
	ctx := context.Background()

	a := testutil.NewTestAssignment("s-1", "Fractions", testutil.WithPlacement(monday, 2))
	require.NoError(t, f.assignments.Create(ctx, a))

	// Exec 1 is the overtime upsert, exec 2 the placement update.
	uow := &testutil.FailOnNthExecUoW{DB: f.db, FailOn: 2, Err: errInjected}
	svc := NewRescheduleService(uow, f.calendar, f.curriculum(), f.notifier, undoWindow, nil)

	_, err := svc.NeedMoreTime(ctx, a.ID, monday.Add(9*time.Hour))
	assert.ErrorIs(t, err, errInjected)

	got, err := f.assignments.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, *got.ScheduledBlockNumber)

	statuses, err := f.statuses.ListByStudentDate(ctx, "s-1", monday)
	require.NoError(t, err)
	assert.Empty(t, statuses, "the overtime upsert rolled back with the move")
}

func TestRescheduleService_NeedMoreTimeBible(t *testing.T) {
	f := newFixture(t)
	blocks := f.installWeek(t, "s-1")
	svc := f.rescheduleService(undoWindow)
	ctx := context.Background()

	reading, err := svc.NeedMoreTimeBible(ctx, "s-1", monday.Add(8*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, reading.Position)
	assert.Equal(t, "Matthew 2", reading.Passage, "the pointer advances; the reading is not carried over")

	status, err := f.statuses.Get(ctx, "s-1", monday, f.blockID(blocks, time.Monday, 1))
	require.NoError(t, err)
	assert.Equal(t, domain.BlockOvertime, status.State)
}

func TestRescheduleService_MarkStuckOpensUndoWindow(t *testing.T) {
	f := newFixture(t)
	svc := f.rescheduleService(undoWindow)
	ctx := context.Background()
	now := time.Now().UTC()

	a := testutil.NewTestAssignment("s-1", "Fractions")
	require.NoError(t, f.assignments.Create(ctx, a))

	mark, err := svc.MarkStuck(ctx, a.ID, "lost at step 3", true, now)
	require.NoError(t, err)
	assert.Equal(t, domain.StuckMarkPending, mark.State)
	assert.Equal(t, now.Add(undoWindow), mark.CommitAt)

	// Phase one changes nothing durable and sends nothing.
	got, err := f.assignments.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentPending, got.Status)
	assert.Zero(t, f.notifier.count())

	// Marking again inside the window returns the existing mark.
	again, err := svc.MarkStuck(ctx, a.ID, "other reason", false, now)
	require.NoError(t, err)
	assert.Equal(t, mark.ID, again.ID)
}

func TestRescheduleService_CancelStuckLeavesAssignmentUntouched(t *testing.T) {
	f := newFixture(t)
	svc := f.rescheduleService(undoWindow)
	ctx := context.Background()
	now := time.Now().UTC()

	a := testutil.NewTestAssignment("s-1", "Fractions")
	require.NoError(t, f.assignments.Create(ctx, a))

	mark, err := svc.MarkStuck(ctx, a.ID, "lost at step 3", true, now)
	require.NoError(t, err)
	require.NoError(t, svc.CancelStuck(ctx, a.ID))

	// Nothing left to sweep.
	committed, err := svc.CommitDueStuckMarks(ctx, mark.CommitAt.Add(time.Minute))
	require.NoError(t, err)
	assert.Zero(t, committed)

	got, err := f.assignments.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentPending, got.Status)
	assert.Empty(t, got.Notes)
	assert.Zero(t, f.notifier.count())

	assert.ErrorIs(t, svc.CancelStuck(ctx, a.ID), ErrUndoExpired)
}

func TestRescheduleService_CommitStuckAppliesAndNotifies(t *testing.T) {
	f := newFixture(t)
	blocks := f.installWeek(t, "s-1")
	svc := f.rescheduleService(undoWindow)
	ctx := context.Background()
	now := time.Now().UTC()

	a := testutil.NewTestAssignment("s-1", "Fractions", testutil.WithPlacement(monday, 2))
	require.NoError(t, f.assignments.Create(ctx, a))

	mark, err := svc.MarkStuck(ctx, a.ID, "lost at step 3", true, now)
	require.NoError(t, err)

	res, err := svc.CommitStuck(ctx, mark.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentStuck, res.Assignment.Status)
	assert.Contains(t, res.Assignment.Notes, "lost at step 3")
	assert.True(t, res.ParentQueued)
	require.Equal(t, 1, f.notifier.count())
	assert.Equal(t, a.ID, f.notifier.notes[0].assignmentID)

	status, err := f.statuses.Get(ctx, "s-1", monday, f.blockID(blocks, time.Monday, 2))
	require.NoError(t, err)
	assert.Equal(t, domain.BlockStuck, status.State)

	// The mark is consumed; a second commit reports the window gone.
	_, err = svc.CommitStuck(ctx, mark.ID)
	assert.ErrorIs(t, err, ErrUndoExpired)
}

func TestRescheduleService_CompletionDuringUndoWindowWins(t *testing.T) {
	f := newFixture(t)
	reschedule := f.rescheduleService(undoWindow)
	assignments := f.assignmentService()
	ctx := context.Background()
	now := time.Now().UTC()

	a := testutil.NewTestAssignment("s-1", "Fractions")
	require.NoError(t, f.assignments.Create(ctx, a))

	mark, err := reschedule.MarkStuck(ctx, a.ID, "lost at step 3", true, now)
	require.NoError(t, err)
	_, err = assignments.Complete(ctx, a.ID, 25)
	require.NoError(t, err)

	res, err := reschedule.CommitStuck(ctx, mark.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentCompleted, res.Assignment.Status)
	assert.False(t, res.ParentQueued)
	assert.Zero(t, f.notifier.count(), "the discarded mark sends nothing")

	marks := repository.NewSQLiteStuckMarkRepo(f.db)
	_, err = marks.GetPendingByAssignment(ctx, a.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRescheduleService_CommitDueStuckMarksSweepsOnlyDue(t *testing.T) {
	f := newFixture(t)
	svc := f.rescheduleService(undoWindow)
	ctx := context.Background()
	base := time.Now().UTC()

	early := testutil.NewTestAssignment("s-1", "Early")
	late := testutil.NewTestAssignment("s-1", "Late")
	require.NoError(t, f.assignments.Create(ctx, early))
	require.NoError(t, f.assignments.Create(ctx, late))

	_, err := svc.MarkStuck(ctx, early.ID, "", false, base.Add(-time.Minute))
	require.NoError(t, err)
	_, err = svc.MarkStuck(ctx, late.ID, "", false, base)
	require.NoError(t, err)

	committed, err := svc.CommitDueStuckMarks(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, 1, committed)

	got, err := f.assignments.GetByID(ctx, early.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentStuck, got.Status)

	got, err = f.assignments.GetByID(ctx, late.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentPending, got.Status)
}
