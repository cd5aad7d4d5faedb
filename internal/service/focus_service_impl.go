package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mkessler-dev/schoolday/internal/db"
	"github.com/mkessler-dev/schoolday/internal/domain"
	"github.com/mkessler-dev/schoolday/internal/repository"
	"github.com/mkessler-dev/schoolday/internal/schedule"
)

type focusService struct {
	sessions   repository.FocusSessionRepo
	scheduler  ScheduleService
	curriculum CurriculumPointer
	calendar   *schedule.Calendar
	uow        db.UnitOfWork
}

func NewFocusService(
	sessions repository.FocusSessionRepo,
	scheduler ScheduleService,
	curriculum CurriculumPointer,
	calendar *schedule.Calendar,
	uow db.UnitOfWork,
) FocusService {
	return &focusService{
		sessions:   sessions,
		scheduler:  scheduler,
		curriculum: curriculum,
		calendar:   calendar,
		uow:        uow,
	}
}

// Resume loads the persisted session, discards it across a date boundary and
// re-derives the cursor from the composed day. Only the timer value and the
// locally-observed completion set survive a restart verbatim.
func (s *focusService) Resume(ctx context.Context, studentID string, now time.Time) (*FocusState, error) {
	date := s.calendar.DateOf(now)

	session, err := s.sessions.Get(ctx, studentID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		session = nil
	case err != nil:
		return nil, err
	case !session.SameDate(date):
		if err := s.sessions.Delete(ctx, studentID); err != nil {
			return nil, err
		}
		session = nil
	}

	if session == nil {
		session = &domain.FocusSession{
			StudentID:         studentID,
			Date:              date,
			CompletedBlockIDs: make(map[string]bool),
			LastSavedAt:       now,
		}
		if err := s.sessions.Save(ctx, session); err != nil {
			return nil, err
		}
	}

	blocks, err := s.scheduler.ComposeDay(ctx, studentID, date)
	if err != nil {
		return nil, err
	}

	state := &FocusState{Session: session, Blocks: blocks, DayComplete: true}
	session.CurrentBlockIndex = len(blocks)
	for i, b := range blocks {
		if b.Terminal() || session.CompletedBlockIDs[b.TemplateBlockID] {
			continue
		}
		session.CurrentBlockIndex = i
		state.DayComplete = false
		break
	}
	return state, nil
}

func (s *focusService) SaveTimer(ctx context.Context, studentID string, secondsRemaining int, now time.Time) error {
	if secondsRemaining < 0 {
		return fmt.Errorf("%w: seconds remaining must not be negative", ErrValidation)
	}
	session, err := s.sessions.Get(ctx, studentID)
	if err != nil {
		return err
	}
	if !session.SameDate(s.calendar.DateOf(now)) {
		return fmt.Errorf("%w: session belongs to %s", ErrValidation, session.Date.Format("2006-01-02"))
	}
	session.TimeRemainingSeconds = secondsRemaining
	session.LastSavedAt = now
	return s.sessions.Save(ctx, session)
}

// CompleteBlock closes a bible or fixed block for the day. Assignment blocks
// go through the assignment lifecycle instead; the session only observes the
// outcome on the next compose.
func (s *focusService) CompleteBlock(ctx context.Context, studentID, templateBlockID string, now time.Time) error {
	date := s.calendar.DateOf(now)
	var isBible bool

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txTemplates := repository.NewSQLiteTemplateBlockRepo(tx)
		txStatuses := repository.NewSQLiteBlockStatusRepo(tx)
		txSessions := repository.NewSQLiteFocusSessionRepo(tx)

		tb, err := txTemplates.GetByID(ctx, templateBlockID)
		if err != nil {
			return err
		}
		if tb.StudentID != studentID {
			return fmt.Errorf("%w: block %s does not belong to student %s", ErrValidation, templateBlockID, studentID)
		}
		if tb.BlockType == domain.BlockAssignment {
			return fmt.Errorf("%w: assignment blocks complete through their assignment", ErrValidation)
		}
		isBible = tb.BlockType == domain.BlockBible

		err = txStatuses.Upsert(ctx, &domain.BlockStatus{
			StudentID:       studentID,
			Date:            date,
			TemplateBlockID: templateBlockID,
			State:           domain.BlockComplete,
			UpdatedAt:       now,
		})
		if err != nil {
			return err
		}

		session, err := txSessions.Get(ctx, studentID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !session.SameDate(date) {
			return nil
		}
		session.MarkBlockDone(templateBlockID)
		session.LastSavedAt = now
		return txSessions.Save(ctx, session)
	})
	if err != nil {
		return err
	}

	if isBible {
		if _, err := s.curriculum.Advance(ctx, studentID); err != nil {
			return err
		}
	}
	return nil
}

func (s *focusService) Exit(ctx context.Context, studentID string) error {
	return s.sessions.Delete(ctx, studentID)
}
