package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mkessler-dev/schoolday/internal/db"
	"github.com/mkessler-dev/schoolday/internal/domain"
	"github.com/mkessler-dev/schoolday/internal/feed"
	"github.com/mkessler-dev/schoolday/internal/repository"
)

type templateService struct {
	templates repository.TemplateBlockRepo
	uow       db.UnitOfWork
	observer  UseCaseObserver
}

func NewTemplateService(templates repository.TemplateBlockRepo, uow db.UnitOfWork, observers ...UseCaseObserver) TemplateService {
	return &templateService{
		templates: templates,
		uow:       uow,
		observer:  useCaseObserverOrNoop(observers),
	}
}

// LoadFromFile validates and installs the weekly templates in the file,
// replacing each listed student's template wholesale. Students not in the
// file are untouched. Returns blocks installed per student.
func (s *templateService) LoadFromFile(ctx context.Context, path string) (counts map[string]int, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"path": path}
	defer func() {
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "template-load",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    fields,
		})
	}()

	tf, err := feed.LoadTemplateFile(path)
	if err != nil {
		return nil, err
	}
	if errs := feed.ValidateTemplateFile(tf); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrValidation, errors.Join(errs...))
	}

	now := time.Now().UTC()
	perStudent := feed.ConvertTemplates(tf, now)

	counts = make(map[string]int, len(perStudent))
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txTemplates := repository.NewSQLiteTemplateBlockRepo(tx)
		for studentID, blocks := range perStudent {
			if err := txTemplates.ReplaceForStudent(ctx, studentID, blocks); err != nil {
				return fmt.Errorf("replacing template for %s: %w", studentID, err)
			}
			counts[studentID] = len(blocks)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["student_count"] = len(counts)
	return counts, nil
}

func (s *templateService) ListByStudent(ctx context.Context, studentID string) ([]*domain.TemplateBlock, error) {
	return s.templates.ListByStudent(ctx, studentID)
}
