package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/mkessler-dev/schoolday/internal/domain"
)

// Assignment options
type AssignmentOption func(*domain.Assignment)

func WithStatus(s domain.AssignmentStatus) AssignmentOption {
	return func(a *domain.Assignment) {
		a.Status = s
	}
}

func WithPriority(p domain.Priority) AssignmentOption {
	return func(a *domain.Assignment) {
		a.Priority = p
	}
}

func WithDueDate(d time.Time) AssignmentOption {
	return func(a *domain.Assignment) {
		a.DueDate = &d
	}
}

func WithPlacement(date time.Time, blockNumber int) AssignmentOption {
	return func(a *domain.Assignment) {
		a.ScheduledDate = &date
		a.ScheduledBlockNumber = &blockNumber
	}
}

func WithEstimate(minutes int) AssignmentOption {
	return func(a *domain.Assignment) {
		a.EstimatedMinutes = minutes
	}
}

func WithProvenance(p domain.Provenance) AssignmentOption {
	return func(a *domain.Assignment) {
		a.Provenance = p
	}
}

func WithCreatedAt(t time.Time) AssignmentOption {
	return func(a *domain.Assignment) {
		a.CreatedAt = t
	}
}

func NewTestAssignment(studentID, title string, opts ...AssignmentOption) *domain.Assignment {
	now := time.Now().UTC()
	a := &domain.Assignment{
		ID:               uuid.New().String(),
		StudentID:        studentID,
		Title:            title,
		Subject:          "Math",
		EstimatedMinutes: 30,
		Priority:         domain.PriorityB,
		Status:           domain.AssignmentPending,
		Provenance:       domain.ProvenanceLocal,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// TemplateBlock options
type TemplateBlockOption func(*domain.TemplateBlock)

func WithSubject(s string) TemplateBlockOption {
	return func(b *domain.TemplateBlock) {
		b.Subject = s
	}
}

func WithFixedKind(kind string) TemplateBlockOption {
	return func(b *domain.TemplateBlock) {
		b.BlockType = domain.BlockFixed
		b.FixedKind = kind
	}
}

func WithBlockType(t domain.BlockType) TemplateBlockOption {
	return func(b *domain.TemplateBlock) {
		b.BlockType = t
	}
}

func NewTestTemplateBlock(studentID string, weekday time.Weekday, blockNumber, startMinute, endMinute int, opts ...TemplateBlockOption) *domain.TemplateBlock {
	now := time.Now().UTC()
	b := &domain.TemplateBlock{
		ID:          uuid.New().String(),
		StudentID:   studentID,
		Weekday:     weekday,
		BlockNumber: blockNumber,
		StartMinute: startMinute,
		EndMinute:   endMinute,
		BlockType:   domain.BlockAssignment,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SchoolWeek builds a simple Monday-to-Friday template: a bible block, three
// assignment blocks and a lunch block per day.
func SchoolWeek(studentID string) []*domain.TemplateBlock {
	var blocks []*domain.TemplateBlock
	for wd := time.Monday; wd <= time.Friday; wd++ {
		blocks = append(blocks,
			NewTestTemplateBlock(studentID, wd, 1, 8*60, 8*60+20, WithBlockType(domain.BlockBible)),
			NewTestTemplateBlock(studentID, wd, 2, 8*60+30, 9*60+30, WithSubject("Math")),
			NewTestTemplateBlock(studentID, wd, 3, 9*60+40, 10*60+40, WithSubject("Science")),
			NewTestTemplateBlock(studentID, wd, 4, 11*60, 11*60+45, WithFixedKind("lunch")),
			NewTestTemplateBlock(studentID, wd, 5, 12*60, 13*60, WithSubject("English")),
		)
	}
	return blocks
}
