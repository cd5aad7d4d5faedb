package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mkessler-dev/schoolday/internal/db"
	"github.com/mkessler-dev/schoolday/internal/domain"
	"github.com/mkessler-dev/schoolday/internal/repository"
	"github.com/mkessler-dev/schoolday/internal/schedule"
	"github.com/mkessler-dev/schoolday/internal/testutil"
)

type award struct {
	studentID string
	points    int
}

type captureLedger struct {
	mu     sync.Mutex
	awards []award
	err    error
}

func (l *captureLedger) Award(_ context.Context, studentID string, points int, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.awards = append(l.awards, award{studentID, points})
	return nil
}

type notification struct {
	studentID    string
	assignmentID string
	reason       string
}

type captureNotifier struct {
	mu    sync.Mutex
	notes []notification
}

func (n *captureNotifier) NotifyStuck(_ context.Context, studentID, assignmentID, reason string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, notification{studentID, assignmentID, reason})
	return nil
}

func (n *captureNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notes)
}

type fixture struct {
	db          *sql.DB
	uow         db.UnitOfWork
	calendar    *schedule.Calendar
	templates   *repository.SQLiteTemplateBlockRepo
	assignments *repository.SQLiteAssignmentRepo
	statuses    *repository.SQLiteBlockStatusRepo
	sessions    *repository.SQLiteFocusSessionRepo
	profiles    *repository.SQLiteStudentProfileRepo
	progress    *repository.SQLiteBibleProgressRepo
	ledger      *captureLedger
	notifier    *captureNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	return fixtureOn(database)
}

func fixtureOn(database *sql.DB) *fixture {
	return &fixture{
		db:          database,
		uow:         db.NewSQLiteUnitOfWork(database),
		calendar:    schedule.NewCalendar(time.UTC),
		templates:   repository.NewSQLiteTemplateBlockRepo(database),
		assignments: repository.NewSQLiteAssignmentRepo(database),
		statuses:    repository.NewSQLiteBlockStatusRepo(database),
		sessions:    repository.NewSQLiteFocusSessionRepo(database),
		profiles:    repository.NewSQLiteStudentProfileRepo(database),
		progress:    repository.NewSQLiteBibleProgressRepo(database),
		ledger:      &captureLedger{},
		notifier:    &captureNotifier{},
	}
}

func (f *fixture) assignmentService() AssignmentService {
	return NewAssignmentService(f.assignments, f.uow, f.ledger, f.notifier, nil)
}

func (f *fixture) rescheduleService(window time.Duration) RescheduleService {
	return NewRescheduleService(f.uow, f.calendar, f.curriculum(), f.notifier, window, nil)
}

func (f *fixture) scheduleService() ScheduleService {
	return NewScheduleService(f.templates, f.assignments, f.statuses, f.profiles, f.calendar, nil)
}

func (f *fixture) curriculum() CurriculumPointer {
	return NewCurriculumPointer(f.progress, nil)
}

// installWeek puts the standard school week template in place.
func (f *fixture) installWeek(t *testing.T, studentID string) []*domain.TemplateBlock {
	t.Helper()
	ctx := context.Background()
	blocks := testutil.SchoolWeek(studentID)
	for _, b := range blocks {
		require.NoError(t, f.templates.Create(ctx, b), "installing template block")
	}
	return blocks
}

func (f *fixture) blockID(blocks []*domain.TemplateBlock, weekday time.Weekday, number int) string {
	for _, b := range blocks {
		if b.Weekday == weekday && b.BlockNumber == number {
			return b.ID
		}
	}
	return ""
}

var errInjected = errors.New("injected failure")
