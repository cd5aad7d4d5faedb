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
	"github.com/mkessler-dev/schoolday/internal/schedule"
)

// relocationHorizonDays bounds how many school days ahead a "need more time"
// move will search for an open slot.
const relocationHorizonDays = 14

type rescheduleService struct {
	uow        db.UnitOfWork
	calendar   *schedule.Calendar
	curriculum CurriculumPointer
	notifier   Notifier
	undoWindow time.Duration
	logger     *slog.Logger
	observer   UseCaseObserver
}

func NewRescheduleService(
	uow db.UnitOfWork,
	calendar *schedule.Calendar,
	curriculum CurriculumPointer,
	notifier Notifier,
	undoWindow time.Duration,
	logWriter io.Writer,
	observers ...UseCaseObserver,
) RescheduleService {
	logger := slog.New(slog.DiscardHandler)
	if logWriter != nil {
		logger = slog.New(slog.NewTextHandler(logWriter, nil))
	}
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &rescheduleService{
		uow:        uow,
		calendar:   calendar,
		curriculum: curriculum,
		notifier:   notifier,
		undoWindow: undoWindow,
		logger:     logger,
		observer:   useCaseObserverOrNoop(observers),
	}
}

func (s *rescheduleService) UndoWindow() time.Duration {
	return s.undoWindow
}

func (s *rescheduleService) NeedMoreTime(ctx context.Context, assignmentID string, now time.Time) (result *RelocationResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"assignment_id": assignmentID}
	defer func() {
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "need-more-time",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    fields,
		})
	}()

	for attempt := 0; ; attempt++ {
		result, err = s.relocateOnce(ctx, assignmentID, now)
		if err == nil {
			fields["new_date"] = result.NewDate.Format("2006-01-02")
			fields["rolled_ahead"] = result.RolledAhead
			return result, nil
		}
		if !errors.Is(err, repository.ErrConflict) || attempt >= conflictRetries-1 {
			return nil, err
		}
	}
}

// relocateOnce runs one atomic relocation attempt: close the original block
// as overtime, find the next open assignment slot, move the placement there
// and return the assignment to pending. Any failure rolls the whole move
// back, original placement included.
func (s *rescheduleService) relocateOnce(ctx context.Context, assignmentID string, now time.Time) (*RelocationResult, error) {
	var result *RelocationResult

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txAssignments := repository.NewSQLiteAssignmentRepo(tx)
		txTemplates := repository.NewSQLiteTemplateBlockRepo(tx)
		txStatuses := repository.NewSQLiteBlockStatusRepo(tx)
		txProfiles := repository.NewSQLiteStudentProfileRepo(tx)

		a, err := txAssignments.GetByID(ctx, assignmentID)
		if err != nil {
			return err
		}
		if a.IsTerminal() {
			return fmt.Errorf("%w: assignment %s", ErrCompletedLocked, a.ID)
		}
		if !a.IsPlaced() {
			return fmt.Errorf("%w: assignment %s is not placed on the calendar", ErrValidation, a.ID)
		}

		profile, err := txProfiles.Get(ctx, a.StudentID)
		if err != nil {
			return err
		}

		oldDate := *a.ScheduledDate
		oldBlock := *a.ScheduledBlockNumber

		oldBlocks, err := txTemplates.ListByStudentWeekday(ctx, a.StudentID, oldDate.Weekday())
		if err != nil {
			return err
		}
		for _, tb := range oldBlocks {
			if tb.BlockNumber != oldBlock {
				continue
			}
			err := txStatuses.Upsert(ctx, &domain.BlockStatus{
				StudentID:       a.StudentID,
				Date:            oldDate,
				TemplateBlockID: tb.ID,
				State:           domain.BlockOvertime,
				UpdatedAt:       now,
			})
			if err != nil {
				return err
			}
			break
		}

		newDate, slot, err := s.findOpenSlot(ctx, txTemplates, txAssignments, a, now, profile.SaturdaySchool)
		if err != nil {
			return err
		}

		a.Place(newDate, slot.BlockNumber, now)
		a.ReturnToPending(now)
		if err := txAssignments.Update(ctx, a); err != nil {
			return err
		}

		result = &RelocationResult{
			Assignment:  a,
			NewDate:     newDate,
			NewBlock:    slot.BlockNumber,
			RolledAhead: !schedule.SameDate(newDate, oldDate),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// findOpenSlot prefers a same-day slot that has not started yet, then walks
// forward through the school calendar for the earliest free assignment slot.
func (s *rescheduleService) findOpenSlot(
	ctx context.Context,
	templates repository.TemplateBlockRepo,
	assignments repository.AssignmentRepo,
	a *domain.Assignment,
	now time.Time,
	saturdaySchool bool,
) (time.Time, *domain.TemplateBlock, error) {
	today := s.calendar.DateOf(now)

	if schedule.SameDate(*a.ScheduledDate, today) {
		blocks, err := templates.ListByStudentWeekday(ctx, a.StudentID, today.Weekday())
		if err != nil {
			return time.Time{}, nil, err
		}
		scheduled, err := s.placedOnDate(ctx, assignments, a, today)
		if err != nil {
			return time.Time{}, nil, err
		}
		if slot := schedule.FirstOpenSlotAfter(blocks, scheduled, s.calendar.MinuteOfDay(now)); slot != nil {
			return today, slot, nil
		}
	}

	day := today
	for i := 0; i < relocationHorizonDays; i++ {
		day = s.calendar.NextSchoolDay(day, saturdaySchool)
		blocks, err := templates.ListByStudentWeekday(ctx, a.StudentID, day.Weekday())
		if err != nil {
			return time.Time{}, nil, err
		}
		scheduled, err := s.placedOnDate(ctx, assignments, a, day)
		if err != nil {
			return time.Time{}, nil, err
		}
		if slot := schedule.FirstOpenSlotAfter(blocks, scheduled, -1); slot != nil {
			return day, slot, nil
		}
	}
	return time.Time{}, nil, ErrNoSlotAvailable
}

// placedOnDate lists the assignments occupying slots on date, excluding the
// one being moved so its own row never blocks a candidate slot.
func (s *rescheduleService) placedOnDate(ctx context.Context, assignments repository.AssignmentRepo, moving *domain.Assignment, date time.Time) ([]*domain.Assignment, error) {
	placed, err := assignments.ListByStudentDate(ctx, moving.StudentID, date)
	if err != nil {
		return nil, err
	}
	out := placed[:0]
	for _, p := range placed {
		if p.ID != moving.ID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *rescheduleService) NeedMoreTimeBible(ctx context.Context, studentID string, date time.Time) (*domain.BibleReading, error) {
	date = s.calendar.DateOf(date)

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txTemplates := repository.NewSQLiteTemplateBlockRepo(tx)
		txStatuses := repository.NewSQLiteBlockStatusRepo(tx)

		blocks, err := txTemplates.ListByStudentWeekday(ctx, studentID, date.Weekday())
		if err != nil {
			return err
		}
		for _, tb := range blocks {
			if tb.BlockType != domain.BlockBible {
				continue
			}
			return txStatuses.Upsert(ctx, &domain.BlockStatus{
				StudentID:       studentID,
				Date:            date,
				TemplateBlockID: tb.ID,
				State:           domain.BlockOvertime,
				UpdatedAt:       time.Now().UTC(),
			})
		}
		return fmt.Errorf("%w: no bible block on %s", ErrValidation, date.Format("2006-01-02"))
	})
	if err != nil {
		return nil, err
	}

	// The reading is not carried into tomorrow as a second block; the pointer
	// advances and the remainder becomes personal reading.
	return s.curriculum.Advance(ctx, studentID)
}

func (s *rescheduleService) MarkStuck(ctx context.Context, assignmentID, reason string, notifyParent bool, now time.Time) (*domain.StuckMark, error) {
	var mark *domain.StuckMark

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txAssignments := repository.NewSQLiteAssignmentRepo(tx)
		txMarks := repository.NewSQLiteStuckMarkRepo(tx)

		a, err := txAssignments.GetByID(ctx, assignmentID)
		if err != nil {
			return err
		}
		if a.IsTerminal() {
			return fmt.Errorf("%w: assignment %s", ErrCompletedLocked, a.ID)
		}

		existing, err := txMarks.GetPendingByAssignment(ctx, assignmentID)
		if err == nil {
			mark = existing
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		mark = &domain.StuckMark{
			ID:           uuid.New().String(),
			AssignmentID: a.ID,
			StudentID:    a.StudentID,
			Date:         s.calendar.DateOf(now),
			Reason:       reason,
			NotifyParent: notifyParent,
			State:        domain.StuckMarkPending,
			CreatedAt:    now,
			CommitAt:     now.Add(s.undoWindow),
		}
		return txMarks.Create(ctx, mark)
	})
	if err != nil {
		return nil, err
	}
	return mark, nil
}

func (s *rescheduleService) CancelStuck(ctx context.Context, assignmentID string) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txMarks := repository.NewSQLiteStuckMarkRepo(tx)

		mark, err := txMarks.GetPendingByAssignment(ctx, assignmentID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUndoExpired
		}
		if err != nil {
			return err
		}
		if err := txMarks.Cancel(ctx, mark.ID); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrUndoExpired
			}
			return err
		}
		return nil
	})
}

func (s *rescheduleService) CommitStuck(ctx context.Context, markID string) (*TransitionResult, error) {
	var result *TransitionResult
	var err error

	for attempt := 0; ; attempt++ {
		result, err = s.commitStuckOnce(ctx, markID)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrConflict) || attempt >= conflictRetries-1 {
			return nil, err
		}
	}

	if result.ParentQueued {
		if err := s.notifier.NotifyStuck(ctx, result.Assignment.StudentID, result.Assignment.ID, result.Assignment.Notes); err != nil {
			s.logger.Warn("stuck notification failed",
				"student_id", result.Assignment.StudentID, "assignment_id", result.Assignment.ID, "error", err)
		}
	}
	return result, nil
}

func (s *rescheduleService) commitStuckOnce(ctx context.Context, markID string) (*TransitionResult, error) {
	var result *TransitionResult

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txAssignments := repository.NewSQLiteAssignmentRepo(tx)
		txMarks := repository.NewSQLiteStuckMarkRepo(tx)

		if err := txMarks.Commit(ctx, markID); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrUndoExpired
			}
			return err
		}
		mark, err := txMarks.GetByID(ctx, markID)
		if err != nil {
			return err
		}
		a, err := txAssignments.GetByID(ctx, mark.AssignmentID)
		if err != nil {
			return err
		}

		// A completion that landed during the undo window wins; the mark is
		// discarded without touching the assignment.
		if a.IsTerminal() {
			result = &TransitionResult{Assignment: a}
			return txMarks.Delete(ctx, markID)
		}

		now := time.Now().UTC()
		if err := a.MarkStuck(now); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if mark.Reason != "" {
			a.Notes = appendNote(a.Notes, mark.Reason)
		}
		if err := txAssignments.Update(ctx, a); err != nil {
			return err
		}
		if a.IsPlaced() {
			if err := mirrorBlockStatus(ctx, tx, a, now); err != nil {
				return err
			}
		}

		result = &TransitionResult{Assignment: a, ParentQueued: mark.NotifyParent}
		return txMarks.Delete(ctx, markID)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *rescheduleService) CommitDueStuckMarks(ctx context.Context, now time.Time) (int, error) {
	var due []*domain.StuckMark
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		due, err = repository.NewSQLiteStuckMarkRepo(tx).ListDue(ctx, now)
		return err
	})
	if err != nil {
		return 0, err
	}

	committed := 0
	for _, mark := range due {
		if _, err := s.CommitStuck(ctx, mark.ID); err != nil {
			if errors.Is(err, ErrUndoExpired) || errors.Is(err, repository.ErrNotFound) {
				continue
			}
			s.logger.Warn("stuck mark commit failed", "mark_id", mark.ID, "error", err)
			continue
		}
		committed++
	}
	return committed, nil
}
