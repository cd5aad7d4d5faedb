package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkessler-dev/schoolday/internal/domain"
	"github.com/mkessler-dev/schoolday/internal/feed"
)

func TestSyncService_ReconcileIsIdempotent(t *testing.T) {
	f := newFixture(t)
	svc := NewSyncService(f.uow, nil)
	ctx := context.Background()

	records := []feed.ExternalAssignment{
		{
			StudentID:        "s-1",
			Title:            "Lesson 4: Fractions",
			Subject:          "Math",
			CourseName:       "Math 6",
			DueAt:            "2026-03-10",
			EstimatedMinutes: 40,
			SourceID:         "ext-100",
		},
		{
			StudentID: "s-1",
			Title:     "Chapter 7 questions",
			Subject:   "Science",
		},
	}

	outcome, err := svc.Reconcile(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Inserted)
	assert.Zero(t, outcome.Updated)

	// Same batch again: matched by natural key, nothing rewritten.
	outcome, err = svc.Reconcile(ctx, records)
	require.NoError(t, err)
	assert.Zero(t, outcome.Inserted)
	assert.Zero(t, outcome.Updated)
	assert.Equal(t, 2, outcome.Unchanged)

	// A whitespace/case variant of the title still matches.
	records[0].Title = "lesson 4:  FRACTIONS"
	outcome, err = svc.Reconcile(ctx, records[:1])
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Unchanged)
}

func TestSyncService_ReconcilePreservesLocalFields(t *testing.T) {
	f := newFixture(t)
	svc := NewSyncService(f.uow, nil)
	assignments := f.assignmentService()
	ctx := context.Background()

	rec := feed.ExternalAssignment{
		StudentID: "s-1",
		Title:     "Lesson 4",
		Subject:   "Math",
		DueAt:     "2026-03-10",
	}
	_, err := svc.Reconcile(ctx, []feed.ExternalAssignment{rec})
	require.NoError(t, err)

	imported, err := f.assignments.FindByNaturalKey(ctx, "s-1", "lesson 4")
	require.NoError(t, err)
	_, err = assignments.Start(ctx, imported.ID)
	require.NoError(t, err)
	_, err = assignments.AddTime(ctx, imported.ID, 15)
	require.NoError(t, err)

	// Upstream moves the due date; local progress must survive.
	rec.DueAt = "2026-03-12"
	outcome, err := svc.Reconcile(ctx, []feed.ExternalAssignment{rec})
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Updated)

	got, err := f.assignments.GetByID(ctx, imported.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentInProgress, got.Status)
	assert.Equal(t, 15, got.TimeSpentMinutes)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, "2026-03-12", got.DueDate.Format("2006-01-02"))
}

func TestSyncService_BadRecordDoesNotAbortBatch(t *testing.T) {
	f := newFixture(t)
	svc := NewSyncService(f.uow, nil)
	ctx := context.Background()

	records := []feed.ExternalAssignment{
		{StudentID: "s-1", Title: "Good one"},
		{StudentID: "s-1", Title: ""},
		{StudentID: "s-1", Title: "Bad due date", DueAt: "next tuesday"},
		{StudentID: "s-1", Title: "Another good one"},
	}

	outcome, err := svc.Reconcile(ctx, records)
	require.Error(t, err)
	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	require.Len(t, batchErr.Failures, 2)
	assert.Equal(t, 1, batchErr.Failures[0].Index)
	assert.Equal(t, 2, batchErr.Failures[1].Index)
	assert.True(t, errors.Is(batchErr.Failures[0].Err, ErrValidation))

	assert.Equal(t, 2, outcome.Inserted, "siblings of a bad record still land")

	_, err = f.assignments.FindByNaturalKey(ctx, "s-1", "another good one")
	assert.NoError(t, err)
}

func TestSyncService_ReconcileFile(t *testing.T) {
	f := newFixture(t)
	svc := NewSyncService(f.uow, nil)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "batch.json")
	payload := `{
		"source": "coursework-portal",
		"records": [
			{"student_id": "s-1", "title": "Lesson 4", "subject": "Math", "due_at": "2026-03-10"}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	outcome, err := svc.ReconcileFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Inserted)

	_, err = svc.ReconcileFile(ctx, filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
