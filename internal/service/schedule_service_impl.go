package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/mkessler-dev/schoolday/internal/domain"
	"github.com/mkessler-dev/schoolday/internal/repository"
	"github.com/mkessler-dev/schoolday/internal/schedule"
)

type scheduleService struct {
	templates   repository.TemplateBlockRepo
	assignments repository.AssignmentRepo
	statuses    repository.BlockStatusRepo
	profiles    repository.StudentProfileRepo
	calendar    *schedule.Calendar
	logger      *slog.Logger
}

func NewScheduleService(
	templates repository.TemplateBlockRepo,
	assignments repository.AssignmentRepo,
	statuses repository.BlockStatusRepo,
	profiles repository.StudentProfileRepo,
	calendar *schedule.Calendar,
	logger *slog.Logger,
) ScheduleService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &scheduleService{
		templates:   templates,
		assignments: assignments,
		statuses:    statuses,
		profiles:    profiles,
		calendar:    calendar,
		logger:      logger,
	}
}

// ComposeDay reads four snapshots without a transaction and derives the day
// from them. Derivation is pure, so two reads of the same stored state always
// render the same sequence.
func (s *scheduleService) ComposeDay(ctx context.Context, studentID string, date time.Time) ([]domain.ScheduleBlock, error) {
	date = s.calendar.DateOf(date)

	blocks, err := s.templates.ListByStudentWeekday(ctx, studentID, s.calendar.Weekday(date))
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, nil
	}

	scheduled, err := s.assignments.ListByStudentDate(ctx, studentID, date)
	if err != nil {
		return nil, err
	}
	backlog, err := s.assignments.ListUnscheduledByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	statuses, err := s.statuses.ListByStudentDate(ctx, studentID, date)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return schedule.Compose(schedule.ComposeInput{
		Date:           date,
		TemplateBlocks: blocks,
		Scheduled:      scheduled,
		Backlog:        backlog,
		Statuses:       statuses,
		Profile:        profile,
		Logger:         s.logger,
	}), nil
}
