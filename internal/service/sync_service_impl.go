package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mkessler-dev/schoolday/internal/db"
	"github.com/mkessler-dev/schoolday/internal/domain"
	"github.com/mkessler-dev/schoolday/internal/feed"
	"github.com/mkessler-dev/schoolday/internal/repository"
)

type syncService struct {
	uow      db.UnitOfWork
	logger   *slog.Logger
	observer UseCaseObserver
}

func NewSyncService(uow db.UnitOfWork, logWriter io.Writer, observers ...UseCaseObserver) SyncService {
	logger := slog.New(slog.DiscardHandler)
	if logWriter != nil {
		logger = slog.New(slog.NewTextHandler(logWriter, nil))
	}
	return &syncService{
		uow:      uow,
		logger:   logger,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *syncService) ReconcileFile(ctx context.Context, path string) (*SyncOutcome, error) {
	batch, err := feed.LoadSyncBatch(path)
	if err != nil {
		return nil, err
	}
	return s.Reconcile(ctx, batch.Records)
}

// Reconcile merges each record in its own transaction. Running the same
// batch twice changes nothing the second time: matching is by the natural
// key (student, normalized title), and untouched rows are not rewritten.
func (s *syncService) Reconcile(ctx context.Context, records []feed.ExternalAssignment) (outcome *SyncOutcome, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"record_count": len(records)}
	defer func() {
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "sync-reconcile",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    fields,
		})
	}()

	outcome = &SyncOutcome{}
	for i := range records {
		rec := &records[i]
		action, recErr := s.reconcileRecord(ctx, rec)
		if recErr != nil {
			s.logger.Warn("sync record failed", "index", i, "title", rec.Title, "error", recErr)
			outcome.Failures = append(outcome.Failures, RecordFailure{Index: i, Title: rec.Title, Err: recErr})
			continue
		}
		switch action {
		case syncInserted:
			outcome.Inserted++
		case syncUpdated:
			outcome.Updated++
		case syncUnchanged:
			outcome.Unchanged++
		}
	}

	fields["inserted"] = outcome.Inserted
	fields["updated"] = outcome.Updated
	fields["unchanged"] = outcome.Unchanged
	fields["failed"] = len(outcome.Failures)

	if len(outcome.Failures) > 0 {
		return outcome, &BatchError{Failures: outcome.Failures}
	}
	return outcome, nil
}

type syncAction int

const (
	syncInserted syncAction = iota
	syncUpdated
	syncUnchanged
)

func (s *syncService) reconcileRecord(ctx context.Context, rec *feed.ExternalAssignment) (syncAction, error) {
	if err := feed.ValidateRecord(rec); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var action syncAction
	for attempt := 0; ; attempt++ {
		var err error
		action, err = s.reconcileOnce(ctx, rec)
		if err == nil {
			return action, nil
		}
		if !errors.Is(err, repository.ErrConflict) || attempt >= conflictRetries-1 {
			return 0, err
		}
	}
}

func (s *syncService) reconcileOnce(ctx context.Context, rec *feed.ExternalAssignment) (syncAction, error) {
	var action syncAction

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txAssignments := repository.NewSQLiteAssignmentRepo(tx)
		now := time.Now().UTC()

		existing, err := txAssignments.FindByNaturalKey(ctx, rec.StudentID, domain.NormalizeTitle(rec.Title))
		if errors.Is(err, repository.ErrNotFound) {
			createErr := txAssignments.Create(ctx, feed.ConvertRecord(rec, now))
			if errors.Is(createErr, repository.ErrDuplicate) {
				// A concurrent sync inserted the same natural key first;
				// degrade to an update of the winner's row.
				existing, err = txAssignments.FindByNaturalKey(ctx, rec.StudentID, domain.NormalizeTitle(rec.Title))
				if err != nil {
					return err
				}
				return s.applyUpdate(ctx, txAssignments, existing, rec, now, &action)
			}
			if createErr != nil {
				return createErr
			}
			action = syncInserted
			return nil
		}
		if err != nil {
			return err
		}
		return s.applyUpdate(ctx, txAssignments, existing, rec, now, &action)
	})
	if err != nil {
		return 0, err
	}
	return action, nil
}

func (s *syncService) applyUpdate(ctx context.Context, assignments repository.AssignmentRepo, existing *domain.Assignment, rec *feed.ExternalAssignment, now time.Time, action *syncAction) error {
	due, err := rec.DueDate()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	changed := existing.ApplySourceFields(rec.Subject, rec.CourseName, rec.Instructions, rec.SourceID, rec.SourceCourseID, due, now)
	if rec.EstimatedMinutes != existing.EstimatedMinutes {
		existing.EstimatedMinutes = rec.EstimatedMinutes
		existing.UpdatedAt = now
		changed = true
	}
	if !changed {
		*action = syncUnchanged
		return nil
	}
	if err := assignments.Update(ctx, existing); err != nil {
		return err
	}
	*action = syncUpdated
	return nil
}
