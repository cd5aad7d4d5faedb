package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkessler-dev/schoolday/internal/domain"
	"github.com/mkessler-dev/schoolday/internal/testutil"
)

func (f *fixture) focusService() FocusService {
	return NewFocusService(f.sessions, f.scheduleService(), f.curriculum(), f.calendar, f.uow)
}

func TestFocusService_ResumeStartsAtFirstOpenBlock(t *testing.T) {
	f := newFixture(t)
	f.installWeek(t, "s-1")
	svc := f.focusService()
	ctx := context.Background()
	now := monday.Add(8 * time.Hour)

	state, err := svc.Resume(ctx, "s-1", now)
	require.NoError(t, err)
	require.Len(t, state.Blocks, 5)
	assert.Equal(t, 0, state.Session.CurrentBlockIndex)
	assert.False(t, state.DayComplete)
	assert.Equal(t, domain.BlockBible, state.Blocks[0].Type)
}

func TestFocusService_CompleteBibleBlockAdvancesCurriculum(t *testing.T) {
	f := newFixture(t)
	blocks := f.installWeek(t, "s-1")
	svc := f.focusService()
	ctx := context.Background()
	now := monday.Add(8 * time.Hour)
	bibleID := f.blockID(blocks, time.Monday, 1)

	_, err := svc.Resume(ctx, "s-1", now)
	require.NoError(t, err)
	require.NoError(t, svc.CompleteBlock(ctx, "s-1", bibleID, now.Add(20*time.Minute)))

	status, err := f.statuses.Get(ctx, "s-1", monday, bibleID)
	require.NoError(t, err)
	assert.Equal(t, domain.BlockComplete, status.State)

	reading, err := f.curriculum().CurrentReading(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "Matthew 2", reading.Passage)

	// The cursor re-derives past the finished block.
	state, err := svc.Resume(ctx, "s-1", now.Add(25*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, state.Session.CurrentBlockIndex)
	assert.True(t, state.Session.CompletedBlockIDs[bibleID])
}

func TestFocusService_CompleteBlockGuards(t *testing.T) {
	f := newFixture(t)
	blocks := f.installWeek(t, "s-1")
	svc := f.focusService()
	ctx := context.Background()
	now := monday.Add(9 * time.Hour)

	mathID := f.blockID(blocks, time.Monday, 2)
	err := svc.CompleteBlock(ctx, "s-1", mathID, now)
	assert.ErrorIs(t, err, ErrValidation, "assignment blocks close through their assignment")

	lunchID := f.blockID(blocks, time.Monday, 4)
	err = svc.CompleteBlock(ctx, "s-2", lunchID, now)
	assert.ErrorIs(t, err, ErrValidation, "ownership mismatch")

	require.NoError(t, svc.CompleteBlock(ctx, "s-1", lunchID, now))
}

func TestFocusService_SaveTimerAndDateBoundary(t *testing.T) {
	f := newFixture(t)
	f.installWeek(t, "s-1")
	svc := f.focusService()
	ctx := context.Background()
	now := monday.Add(8 * time.Hour)

	_, err := svc.Resume(ctx, "s-1", now)
	require.NoError(t, err)
	require.NoError(t, svc.SaveTimer(ctx, "s-1", 600, now))

	session, err := f.sessions.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, 600, session.TimeRemainingSeconds)

	assert.ErrorIs(t, svc.SaveTimer(ctx, "s-1", -1, now), ErrValidation)

	// Next morning the stale session is discarded, timer included.
	tuesday := now.AddDate(0, 0, 1)
	state, err := svc.Resume(ctx, "s-1", tuesday)
	require.NoError(t, err)
	assert.Zero(t, state.Session.TimeRemainingSeconds)
	assert.True(t, state.Session.SameDate(monday.AddDate(0, 0, 1)))

	// And the old session may no longer accept timer saves.
	require.NoError(t, svc.SaveTimer(ctx, "s-1", 300, tuesday))
	assert.ErrorIs(t, svc.SaveTimer(ctx, "s-1", 300, now), ErrValidation)
}

func TestFocusService_DayCompleteAndExit(t *testing.T) {
	f := newFixture(t)
	blocks := f.installWeek(t, "s-1")
	svc := f.focusService()
	assignments := f.assignmentService()
	ctx := context.Background()
	now := monday.Add(8 * time.Hour)

	a := testutil.NewTestAssignment("s-1", "Fractions", testutil.WithPlacement(monday, 2))
	require.NoError(t, assignments.Create(ctx, a))

	require.NoError(t, svc.CompleteBlock(ctx, "s-1", f.blockID(blocks, time.Monday, 1), now))
	_, err := assignments.Complete(ctx, a.ID, 30)
	require.NoError(t, err)
	require.NoError(t, svc.CompleteBlock(ctx, "s-1", f.blockID(blocks, time.Monday, 4), now))

	// Blocks 3 and 5 are empty assignment slots; with no backlog they stay
	// open, so the day is not complete yet.
	state, err := svc.Resume(ctx, "s-1", now)
	require.NoError(t, err)
	assert.False(t, state.DayComplete)
	assert.Equal(t, 2, state.Session.CurrentBlockIndex)

	require.NoError(t, svc.Exit(ctx, "s-1"))
	_, err = f.sessions.Get(ctx, "s-1")
	assert.Error(t, err)
}
