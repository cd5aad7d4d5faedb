package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkessler-dev/schoolday/internal/domain"
	"github.com/mkessler-dev/schoolday/internal/repository"
)

// defaultReadingPlan cycles through the gospels one chapter per school day.
// A position past the end wraps around.
var defaultReadingPlan = buildReadingPlan()

func buildReadingPlan() []string {
	books := []struct {
		name     string
		chapters int
	}{
		{"Matthew", 28},
		{"Mark", 16},
		{"Luke", 24},
		{"John", 21},
		{"Acts", 28},
	}
	var plan []string
	for _, b := range books {
		for ch := 1; ch <= b.chapters; ch++ {
			plan = append(plan, fmt.Sprintf("%s %d", b.name, ch))
		}
	}
	return plan
}

type storedCurriculumPointer struct {
	progress repository.BibleProgressRepo
	plan     []string
}

// NewCurriculumPointer tracks reading positions in the bible progress store.
// A nil plan uses the built-in sequence.
func NewCurriculumPointer(progress repository.BibleProgressRepo, plan []string) CurriculumPointer {
	if len(plan) == 0 {
		plan = defaultReadingPlan
	}
	return &storedCurriculumPointer{progress: progress, plan: plan}
}

func (c *storedCurriculumPointer) CurrentReading(ctx context.Context, studentID string) (*domain.BibleReading, error) {
	pos, err := c.position(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return c.readingAt(pos), nil
}

func (c *storedCurriculumPointer) Advance(ctx context.Context, studentID string) (*domain.BibleReading, error) {
	pos, err := c.position(ctx, studentID)
	if err != nil {
		return nil, err
	}
	pos++
	if err := c.progress.Set(ctx, studentID, pos); err != nil {
		return nil, err
	}
	return c.readingAt(pos), nil
}

func (c *storedCurriculumPointer) position(ctx context.Context, studentID string) (int, error) {
	p, err := c.progress.Get(ctx, studentID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return p.Position, nil
}

func (c *storedCurriculumPointer) readingAt(pos int) *domain.BibleReading {
	return &domain.BibleReading{
		Position: pos,
		Passage:  c.plan[pos%len(c.plan)],
	}
}
