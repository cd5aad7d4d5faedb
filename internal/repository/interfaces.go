package repository

import (
	"context"
	"time"

	"github.com/mkessler-dev/schoolday/internal/domain"
)

// TemplateBlockRepo is the read-mostly weekly template store. The engine
// never mutates templates outside of admin template loads.
type TemplateBlockRepo interface {
	Create(ctx context.Context, b *domain.TemplateBlock) error
	GetByID(ctx context.Context, id string) (*domain.TemplateBlock, error)
	ListByStudentWeekday(ctx context.Context, studentID string, weekday time.Weekday) ([]*domain.TemplateBlock, error)
	ListByStudent(ctx context.Context, studentID string) ([]*domain.TemplateBlock, error)
	ReplaceForStudent(ctx context.Context, studentID string, blocks []*domain.TemplateBlock) error
}

type AssignmentRepo interface {
	Create(ctx context.Context, a *domain.Assignment) error
	GetByID(ctx context.Context, id string) (*domain.Assignment, error)
	// FindByNaturalKey looks up the imported row for (student, normalized title).
	FindByNaturalKey(ctx context.Context, studentID, normalizedTitle string) (*domain.Assignment, error)
	ListByStudentDate(ctx context.Context, studentID string, date time.Time) ([]*domain.Assignment, error)
	ListUnscheduledByStudent(ctx context.Context, studentID string) ([]*domain.Assignment, error)
	CountByStudent(ctx context.Context, studentID string) (int, error)
	// Update performs an optimistic write: it matches on the loaded Version,
	// bumps it by one, and returns ErrConflict when the row moved on.
	Update(ctx context.Context, a *domain.Assignment) error
	Delete(ctx context.Context, id string) error
}

type BlockStatusRepo interface {
	Get(ctx context.Context, studentID string, date time.Time, templateBlockID string) (*domain.BlockStatus, error)
	ListByStudentDate(ctx context.Context, studentID string, date time.Time) ([]*domain.BlockStatus, error)
	// Upsert creates the lazy row on first interaction or overwrites its state.
	Upsert(ctx context.Context, s *domain.BlockStatus) error
}

type StuckMarkRepo interface {
	Create(ctx context.Context, m *domain.StuckMark) error
	GetByID(ctx context.Context, id string) (*domain.StuckMark, error)
	GetPendingByAssignment(ctx context.Context, assignmentID string) (*domain.StuckMark, error)
	ListDue(ctx context.Context, now time.Time) ([]*domain.StuckMark, error)
	// Commit atomically flips pending -> committed; returns ErrConflict when
	// the mark was already committed or cancelled.
	Commit(ctx context.Context, id string) error
	// Cancel atomically flips pending -> cancelled; same conflict contract.
	Cancel(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type FocusSessionRepo interface {
	Get(ctx context.Context, studentID string) (*domain.FocusSession, error)
	Save(ctx context.Context, s *domain.FocusSession) error
	Delete(ctx context.Context, studentID string) error
}

type StudentProfileRepo interface {
	// Get returns the stored profile or the lazy default when none exists.
	Get(ctx context.Context, studentID string) (*domain.StudentProfile, error)
	Upsert(ctx context.Context, p *domain.StudentProfile) error
}

type BibleProgressRepo interface {
	Get(ctx context.Context, studentID string) (*domain.BibleProgress, error)
	Set(ctx context.Context, studentID string, position int) error
}
