package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "lesson 4", NormalizeTitle("Lesson  4 "))
	assert.Equal(t, "lesson 4", NormalizeTitle("lesson 4"))
	assert.Equal(t, "math quiz ch 3", NormalizeTitle("  MATH\tQuiz  Ch 3"))
	assert.Equal(t, "", NormalizeTitle("   "))
}

func TestAssignment_CompleteAccruesTime(t *testing.T) {
	now := time.Now().UTC()
	a := &Assignment{Title: "Lesson 4", Status: AssignmentInProgress, TimeSpentMinutes: 10}

	require.NoError(t, a.Complete(25, now))
	assert.Equal(t, AssignmentCompleted, a.Status)
	assert.Equal(t, 35, a.TimeSpentMinutes)
}

func TestAssignment_CompleteRejectsNegativeElapsed(t *testing.T) {
	a := &Assignment{Title: "Lesson 4", Status: AssignmentPending}
	assert.Error(t, a.Complete(-5, time.Now().UTC()))
	assert.Equal(t, AssignmentPending, a.Status)
}

func TestAssignment_CompletedIsLocked(t *testing.T) {
	now := time.Now().UTC()
	a := &Assignment{Title: "Lesson 4", Status: AssignmentCompleted}

	assert.Error(t, a.Start(now))
	assert.Error(t, a.MarkStuck(now))
	assert.Error(t, a.MarkNeedsMoreTime(now))
	assert.Error(t, a.Complete(5, now))
	assert.Equal(t, AssignmentCompleted, a.Status)
}

func TestAssignment_ReopenOnlyFromCompleted(t *testing.T) {
	now := time.Now().UTC()

	a := &Assignment{Title: "Lesson 4", Status: AssignmentCompleted}
	require.NoError(t, a.Reopen(now))
	assert.Equal(t, AssignmentPending, a.Status)

	b := &Assignment{Title: "Lesson 5", Status: AssignmentInProgress}
	assert.Error(t, b.Reopen(now))
}

func TestAssignment_Placement(t *testing.T) {
	now := time.Now().UTC()
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	a := &Assignment{Title: "Lesson 4"}

	assert.False(t, a.IsPlaced())
	a.Place(date, 3, now)
	require.True(t, a.IsPlaced())
	assert.Equal(t, 3, *a.ScheduledBlockNumber)

	a.ClearPlacement(now)
	assert.False(t, a.IsPlaced())
	assert.Nil(t, a.ScheduledDate)
	assert.Nil(t, a.ScheduledBlockNumber)
}

func TestAssignment_ApplySourceFieldsDetectsChange(t *testing.T) {
	now := time.Now().UTC()
	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	a := &Assignment{
		Title:   "Lesson 4",
		Subject: "Math",
		Status:  AssignmentInProgress,
		Notes:   "halfway done",
		DueDate: &due,
	}

	// Identical source fields: no change reported.
	changed := a.ApplySourceFields("Math", "", "", "", "", &due, now)
	assert.False(t, changed)

	// New due date overwrites; locally-owned fields survive.
	newDue := due.AddDate(0, 0, 2)
	changed = a.ApplySourceFields("Math", "Algebra I", "read pp 40-45", "ext-1", "crs-1", &newDue, now)
	assert.True(t, changed)
	assert.Equal(t, AssignmentInProgress, a.Status)
	assert.Equal(t, "halfway done", a.Notes)
	assert.True(t, a.DueDate.Equal(newDue))
	assert.Equal(t, "Algebra I", a.CourseName)
}

func TestMirrorBlockState(t *testing.T) {
	assert.Equal(t, BlockComplete, MirrorBlockState(AssignmentCompleted))
	assert.Equal(t, BlockStuck, MirrorBlockState(AssignmentStuck))
	assert.Equal(t, BlockOvertime, MirrorBlockState(AssignmentNeedsMoreTime))
	assert.Equal(t, BlockInProgress, MirrorBlockState(AssignmentInProgress))
}
