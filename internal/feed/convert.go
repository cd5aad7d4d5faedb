package feed

import (
	"time"

	"github.com/google/uuid"

	"github.com/mkessler-dev/schoolday/internal/domain"
)

// ConvertRecord builds a fresh imported assignment from a validated upstream
// record. Call ValidateRecord first; ConvertRecord assumes the record is valid.
func ConvertRecord(r *ExternalAssignment, now time.Time) *domain.Assignment {
	due, _ := r.DueDate()
	return &domain.Assignment{
		ID:               uuid.New().String(),
		StudentID:        r.StudentID,
		Title:            r.Title,
		Subject:          r.Subject,
		CourseName:       r.CourseName,
		Instructions:     r.Instructions,
		DueDate:          due,
		EstimatedMinutes: r.EstimatedMinutes,
		Priority:         domain.PriorityB,
		Status:           domain.AssignmentPending,
		Provenance:       domain.ProvenanceImported,
		SourceID:         r.SourceID,
		SourceCourseID:   r.SourceCourseID,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// ConvertTemplates builds template blocks per student from a validated file.
// Call ValidateTemplateFile first; ConvertTemplates assumes the file is valid.
func ConvertTemplates(tf *TemplateFile, now time.Time) map[string][]*domain.TemplateBlock {
	out := make(map[string][]*domain.TemplateBlock, len(tf.Students))
	for _, st := range tf.Students {
		blocks := make([]*domain.TemplateBlock, 0, len(st.Blocks))
		for _, spec := range st.Blocks {
			start, _ := domain.ParseClock(spec.Start)
			end, _ := domain.ParseClock(spec.End)
			blocks = append(blocks, &domain.TemplateBlock{
				ID:          uuid.New().String(),
				StudentID:   st.StudentID,
				Weekday:     time.Weekday(spec.Weekday),
				BlockNumber: spec.BlockNumber,
				StartMinute: start,
				EndMinute:   end,
				Subject:     spec.Subject,
				BlockType:   domain.BlockType(spec.Type),
				FixedKind:   spec.FixedKind,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		}
		out[st.StudentID] = blocks
	}
	return out
}
