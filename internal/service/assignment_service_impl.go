package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mkessler-dev/schoolday/internal/db"
	"github.com/mkessler-dev/schoolday/internal/domain"
	"github.com/mkessler-dev/schoolday/internal/repository"
)

// conflictRetries bounds how often a lost optimistic write is replayed
// against fresh state before the conflict surfaces to the caller.
const conflictRetries = 3

type assignmentService struct {
	assignments repository.AssignmentRepo
	uow         db.UnitOfWork
	ledger      PointsLedger
	notifier    Notifier
	logger      *slog.Logger
	observer    UseCaseObserver
}

func NewAssignmentService(
	assignments repository.AssignmentRepo,
	uow db.UnitOfWork,
	ledger PointsLedger,
	notifier Notifier,
	logWriter io.Writer,
	observers ...UseCaseObserver,
) AssignmentService {
	logger := slog.New(slog.DiscardHandler)
	if logWriter != nil {
		logger = slog.New(slog.NewTextHandler(logWriter, nil))
	}
	if ledger == nil {
		ledger = NoopLedger{}
	}
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &assignmentService{
		assignments: assignments,
		uow:         uow,
		ledger:      ledger,
		notifier:    notifier,
		logger:      logger,
		observer:    useCaseObserverOrNoop(observers),
	}
}

func (s *assignmentService) Create(ctx context.Context, a *domain.Assignment) error {
	if a.StudentID == "" {
		return fmt.Errorf("%w: student id is required", ErrValidation)
	}
	if a.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if (a.ScheduledDate == nil) != (a.ScheduledBlockNumber == nil) {
		return fmt.Errorf("%w: scheduled date and block number must be set together", ErrValidation)
	}
	if a.EstimatedMinutes < 0 {
		return fmt.Errorf("%w: estimated minutes must not be negative", ErrValidation)
	}

	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = domain.AssignmentPending
	}
	if !domain.ValidAssignmentStatuses[a.Status] {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, a.Status)
	}
	if a.Priority == "" {
		a.Priority = domain.PriorityB
	}
	if a.Provenance == "" {
		a.Provenance = domain.ProvenanceLocal
	}
	a.Version = 1
	return s.assignments.Create(ctx, a)
}

func (s *assignmentService) GetByID(ctx context.Context, id string) (*domain.Assignment, error) {
	return s.assignments.GetByID(ctx, id)
}

func (s *assignmentService) ListBacklog(ctx context.Context, studentID string) ([]*domain.Assignment, error) {
	return s.assignments.ListUnscheduledByStudent(ctx, studentID)
}

func (s *assignmentService) Complete(ctx context.Context, assignmentID string, elapsedMinutes int) (*TransitionResult, error) {
	return s.Transition(ctx, assignmentID, domain.AssignmentCompleted, TransitionMeta{ElapsedMinutes: elapsedMinutes})
}

func (s *assignmentService) Start(ctx context.Context, assignmentID string) (*TransitionResult, error) {
	return s.Transition(ctx, assignmentID, domain.AssignmentInProgress, TransitionMeta{})
}

func (s *assignmentService) Reopen(ctx context.Context, assignmentID string) (*TransitionResult, error) {
	return s.Transition(ctx, assignmentID, domain.AssignmentPending, TransitionMeta{Reopen: true})
}

func (s *assignmentService) Transition(ctx context.Context, assignmentID string, newStatus domain.AssignmentStatus, meta TransitionMeta) (result *TransitionResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"assignment_id": assignmentID, "new_status": string(newStatus)}
	defer func() {
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "assignment-transition",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    fields,
		})
	}()

	if !domain.ValidAssignmentStatuses[newStatus] {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, newStatus)
	}
	if meta.ElapsedMinutes < 0 {
		return nil, fmt.Errorf("%w: elapsed minutes must not be negative", ErrValidation)
	}

	// Each attempt re-reads current state, so a losing writer replays its
	// transition against what the winner left behind.
	for attempt := 0; ; attempt++ {
		result, err = s.transitionOnce(ctx, assignmentID, newStatus, meta)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrConflict) || attempt >= conflictRetries-1 {
			return nil, err
		}
	}

	s.dispatchSideEffects(ctx, result)
	return result, nil
}

func (s *assignmentService) transitionOnce(ctx context.Context, assignmentID string, newStatus domain.AssignmentStatus, meta TransitionMeta) (*TransitionResult, error) {
	var result *TransitionResult

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txAssignments := repository.NewSQLiteAssignmentRepo(tx)

		a, err := txAssignments.GetByID(ctx, assignmentID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		r := &TransitionResult{}

		if a.IsTerminal() {
			if !meta.Reopen {
				return fmt.Errorf("%w: assignment %s", ErrCompletedLocked, a.ID)
			}
			if err := a.Reopen(now); err != nil {
				return fmt.Errorf("%w: %v", ErrValidation, err)
			}
		}

		switch newStatus {
		case domain.AssignmentPending:
			a.ReturnToPending(now)
		case domain.AssignmentInProgress:
			if err := a.Start(now); err != nil {
				return fmt.Errorf("%w: %v", ErrValidation, err)
			}
		case domain.AssignmentCompleted:
			if err := a.Complete(meta.ElapsedMinutes, now); err != nil {
				return fmt.Errorf("%w: %v", ErrValidation, err)
			}
			r.OvershootMinutes = meta.ElapsedMinutes - a.EstimatedMinutes
		case domain.AssignmentStuck:
			if err := a.MarkStuck(now); err != nil {
				return fmt.Errorf("%w: %v", ErrValidation, err)
			}
			r.ParentQueued = meta.NeedsHelp
		case domain.AssignmentNeedsMoreTime:
			if err := a.MarkNeedsMoreTime(now); err != nil {
				return fmt.Errorf("%w: %v", ErrValidation, err)
			}
		}

		if meta.Reason != "" {
			a.Notes = appendNote(a.Notes, meta.Reason)
		}

		if err := txAssignments.Update(ctx, a); err != nil {
			return err
		}

		if a.IsPlaced() {
			if err := mirrorBlockStatus(ctx, tx, a, now); err != nil {
				return err
			}
		}

		if newStatus == domain.AssignmentCompleted {
			txProfiles := repository.NewSQLiteStudentProfileRepo(tx)
			profile, err := txProfiles.Get(ctx, a.StudentID)
			if err != nil {
				return err
			}
			r.PointsAwarded = profile.PointsPerCompletion
		}

		r.Assignment = a
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// mirrorBlockStatus keeps the per-block completion signal in step with the
// assignment that occupies the slot, so block-level views agree with the
// assignment lifecycle without re-reading assignment rows.
func mirrorBlockStatus(ctx context.Context, tx db.DBTX, a *domain.Assignment, now time.Time) error {
	txTemplates := repository.NewSQLiteTemplateBlockRepo(tx)
	txStatuses := repository.NewSQLiteBlockStatusRepo(tx)

	blocks, err := txTemplates.ListByStudentWeekday(ctx, a.StudentID, a.ScheduledDate.Weekday())
	if err != nil {
		return err
	}
	for _, tb := range blocks {
		if tb.BlockNumber != *a.ScheduledBlockNumber {
			continue
		}
		state := domain.BlockPending
		if a.Status != domain.AssignmentPending {
			state = domain.MirrorBlockState(a.Status)
		}
		return txStatuses.Upsert(ctx, &domain.BlockStatus{
			StudentID:       a.StudentID,
			Date:            *a.ScheduledDate,
			TemplateBlockID: tb.ID,
			State:           state,
			UpdatedAt:       now,
		})
	}
	// Placement points at a slot the current template no longer has; the
	// composer already excludes it from day views.
	return nil
}

// dispatchSideEffects runs after the transaction committed. A ledger or
// notifier failure is logged and never unwinds the committed transition.
func (s *assignmentService) dispatchSideEffects(ctx context.Context, r *TransitionResult) {
	if r == nil || r.Assignment == nil {
		return
	}
	if r.PointsAwarded > 0 {
		if err := s.ledger.Award(ctx, r.Assignment.StudentID, r.PointsAwarded, "assignment completed"); err != nil {
			s.logger.Warn("points award failed",
				"student_id", r.Assignment.StudentID, "assignment_id", r.Assignment.ID, "error", err)
			r.PointsAwarded = 0
		}
	}
	if r.ParentQueued {
		if err := s.notifier.NotifyStuck(ctx, r.Assignment.StudentID, r.Assignment.ID, r.Assignment.Notes); err != nil {
			s.logger.Warn("stuck notification failed",
				"student_id", r.Assignment.StudentID, "assignment_id", r.Assignment.ID, "error", err)
		}
	}
}

func (s *assignmentService) AddTime(ctx context.Context, assignmentID string, minutes int) (*domain.Assignment, error) {
	if minutes < 0 {
		return nil, fmt.Errorf("%w: time delta must not be negative", ErrValidation)
	}

	for attempt := 0; ; attempt++ {
		a, err := s.assignments.GetByID(ctx, assignmentID)
		if err != nil {
			return nil, err
		}
		if err := a.ApplyTime(minutes, time.Now().UTC()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		err = s.assignments.Update(ctx, a)
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, repository.ErrConflict) || attempt >= conflictRetries-1 {
			return nil, err
		}
	}
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}
