package feed

import (
	"fmt"
	"time"

	"github.com/mkessler-dev/schoolday/internal/domain"
)

// ValidateRecord checks one upstream record before reconciliation. Records
// are validated independently so one bad record never blocks its siblings.
func ValidateRecord(r *ExternalAssignment) error {
	if r.StudentID == "" {
		return fmt.Errorf("student_id is required")
	}
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	if r.EstimatedMinutes < 0 {
		return fmt.Errorf("estimated_minutes must not be negative")
	}
	if r.DueAt != "" {
		if _, err := time.Parse("2006-01-02", r.DueAt); err != nil {
			return fmt.Errorf("due_at: invalid date format %q (expected YYYY-MM-DD)", r.DueAt)
		}
	}
	return nil
}

// ValidateTemplateFile checks a template upload for errors before conversion.
// Returns a slice of all validation errors found.
func ValidateTemplateFile(tf *TemplateFile) []error {
	var errs []error

	if len(tf.Students) == 0 {
		errs = append(errs, fmt.Errorf("students is required"))
	}

	seenStudents := make(map[string]bool)
	for i, st := range tf.Students {
		prefix := fmt.Sprintf("students[%d]", i)

		if st.StudentID == "" {
			errs = append(errs, fmt.Errorf("%s.student_id is required", prefix))
		} else if seenStudents[st.StudentID] {
			errs = append(errs, fmt.Errorf("%s.student_id: duplicate student %q", prefix, st.StudentID))
		} else {
			seenStudents[st.StudentID] = true
		}

		errs = append(errs, validateBlocks(prefix, st.Blocks)...)
	}

	return errs
}

func validateBlocks(prefix string, blocks []TemplateBlockSpec) []error {
	var errs []error

	type daySlot struct {
		weekday, number int
	}
	seenSlots := make(map[daySlot]bool)

	for i, b := range blocks {
		bp := fmt.Sprintf("%s.blocks[%d]", prefix, i)

		if b.Weekday < 0 || b.Weekday > 6 {
			errs = append(errs, fmt.Errorf("%s.weekday: invalid value %d (expected 0-6)", bp, b.Weekday))
		}
		if b.BlockNumber <= 0 {
			errs = append(errs, fmt.Errorf("%s.block_number must be positive", bp))
		}

		slot := daySlot{b.Weekday, b.BlockNumber}
		if seenSlots[slot] {
			errs = append(errs, fmt.Errorf("%s: duplicate block_number %d for weekday %d", bp, b.BlockNumber, b.Weekday))
		} else {
			seenSlots[slot] = true
		}

		start, startErr := domain.ParseClock(b.Start)
		if startErr != nil {
			errs = append(errs, fmt.Errorf("%s.start: %v", bp, startErr))
		}
		end, endErr := domain.ParseClock(b.End)
		if endErr != nil {
			errs = append(errs, fmt.Errorf("%s.end: %v", bp, endErr))
		}
		if startErr == nil && endErr == nil && end <= start {
			errs = append(errs, fmt.Errorf("%s: end %q must be after start %q", bp, b.End, b.Start))
		}

		switch domain.BlockType(b.Type) {
		case domain.BlockBible, domain.BlockAssignment:
			if b.FixedKind != "" {
				errs = append(errs, fmt.Errorf("%s.fixed_kind: only valid for fixed blocks", bp))
			}
		case domain.BlockFixed:
			if !domain.ValidFixedKinds[b.FixedKind] {
				errs = append(errs, fmt.Errorf("%s.fixed_kind: invalid value %q", bp, b.FixedKind))
			}
		default:
			errs = append(errs, fmt.Errorf("%s.type: invalid value %q", bp, b.Type))
		}
	}

	// Overlap check per weekday, pairwise against earlier valid blocks.
	for i, b := range blocks {
		bs, errS := domain.ParseClock(b.Start)
		be, errE := domain.ParseClock(b.End)
		if errS != nil || errE != nil {
			continue
		}
		for j := 0; j < i; j++ {
			o := blocks[j]
			if o.Weekday != b.Weekday {
				continue
			}
			os, errS := domain.ParseClock(o.Start)
			oe, errE := domain.ParseClock(o.End)
			if errS != nil || errE != nil {
				continue
			}
			if bs < oe && os < be {
				errs = append(errs, fmt.Errorf("%s.blocks[%d]: overlaps blocks[%d] on weekday %d", prefix, i, j, b.Weekday))
			}
		}
	}

	return errs
}
