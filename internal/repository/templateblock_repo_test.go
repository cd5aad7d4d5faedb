package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkessler-dev/schoolday/internal/domain"
	"github.com/mkessler-dev/schoolday/internal/testutil"
)

func TestTemplateBlockRepo_UniqueSlotPerStudent(t *testing.T) {
	repo := NewSQLiteTemplateBlockRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	b := testutil.NewTestTemplateBlock("s-1", time.Monday, 2, 510, 570)
	require.NoError(t, repo.Create(ctx, b))

	clash := testutil.NewTestTemplateBlock("s-1", time.Monday, 2, 600, 660)
	assert.ErrorIs(t, repo.Create(ctx, clash), ErrDuplicate)

	// Same slot for another student is fine.
	other := testutil.NewTestTemplateBlock("s-2", time.Monday, 2, 510, 570)
	require.NoError(t, repo.Create(ctx, other))
}

func TestTemplateBlockRepo_ListOrdering(t *testing.T) {
	repo := NewSQLiteTemplateBlockRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	tueLate := testutil.NewTestTemplateBlock("s-1", time.Tuesday, 2, 600, 660)
	tueEarly := testutil.NewTestTemplateBlock("s-1", time.Tuesday, 1, 480, 500)
	mon := testutil.NewTestTemplateBlock("s-1", time.Monday, 1, 480, 500)
	for _, b := range []*domain.TemplateBlock{tueLate, mon, tueEarly} {
		require.NoError(t, repo.Create(ctx, b))
	}

	all, err := repo.ListByStudent(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, mon.ID, all[0].ID)
	assert.Equal(t, tueEarly.ID, all[1].ID)
	assert.Equal(t, tueLate.ID, all[2].ID)

	tue, err := repo.ListByStudentWeekday(ctx, "s-1", time.Tuesday)
	require.NoError(t, err)
	require.Len(t, tue, 2)
	assert.Equal(t, tueEarly.ID, tue[0].ID)
}

func TestTemplateBlockRepo_ReplaceForStudent(t *testing.T) {
	repo := NewSQLiteTemplateBlockRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	old := testutil.NewTestTemplateBlock("s-1", time.Monday, 1, 480, 500)
	keep := testutil.NewTestTemplateBlock("s-2", time.Monday, 1, 480, 500)
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, keep))

	replacement := []*domain.TemplateBlock{
		testutil.NewTestTemplateBlock("s-1", time.Wednesday, 1, 540, 600, testutil.WithSubject("History")),
		testutil.NewTestTemplateBlock("s-1", time.Wednesday, 2, 610, 670),
	}
	require.NoError(t, repo.ReplaceForStudent(ctx, "s-1", replacement))

	mine, err := repo.ListByStudent(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, time.Wednesday, mine[0].Weekday)
	assert.Equal(t, "History", mine[0].Subject)

	_, err = repo.GetByID(ctx, old.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Other students' templates are untouched.
	theirs, err := repo.ListByStudent(ctx, "s-2")
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}
