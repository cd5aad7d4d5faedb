package domain

import (
	"fmt"
	"time"
)

// TemplateBlock is one recurring slot in a student's weekly schedule.
// Times are minutes from midnight in the school timezone.
type TemplateBlock struct {
	ID          string
	StudentID   string
	Weekday     time.Weekday
	BlockNumber int
	StartMinute int
	EndMinute   int
	Subject     string
	BlockType   BlockType
	// FixedKind labels fixed blocks (travel, lunch, movement, ...).
	// Empty for bible and assignment blocks.
	FixedKind string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DurationMinutes is the slot length implied by the start and end times.
func (b *TemplateBlock) DurationMinutes() int {
	return b.EndMinute - b.StartMinute
}

// Overlaps reports whether two blocks share any time on the same weekday.
func (b *TemplateBlock) Overlaps(other *TemplateBlock) bool {
	if b.StudentID != other.StudentID || b.Weekday != other.Weekday {
		return false
	}
	return b.StartMinute < other.EndMinute && other.StartMinute < b.EndMinute
}

// Validate checks the structural invariants of a single block.
func (b *TemplateBlock) Validate() error {
	if b.StudentID == "" {
		return fmt.Errorf("template block: student id is required")
	}
	if b.Weekday < time.Sunday || b.Weekday > time.Saturday {
		return fmt.Errorf("template block: invalid weekday %d", b.Weekday)
	}
	if b.BlockNumber < 1 {
		return fmt.Errorf("template block: block number must be >= 1, got %d", b.BlockNumber)
	}
	if b.StartMinute < 0 || b.EndMinute > 24*60 || b.StartMinute >= b.EndMinute {
		return fmt.Errorf("template block: invalid time range %s-%s",
			FormatClock(b.StartMinute), FormatClock(b.EndMinute))
	}
	switch b.BlockType {
	case BlockBible, BlockAssignment:
		if b.FixedKind != "" {
			return fmt.Errorf("template block: %s blocks must not carry a fixed kind", b.BlockType)
		}
	case BlockFixed:
		if !ValidFixedKinds[b.FixedKind] {
			return fmt.Errorf("template block: unknown fixed kind %q", b.FixedKind)
		}
	default:
		return fmt.Errorf("template block: unknown block type %q", b.BlockType)
	}
	return nil
}

// FormatClock renders minutes-from-midnight as HH:MM.
func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// ParseClock parses HH:MM into minutes from midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parsing clock time %q: %w", s, err)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || h*60+m > 24*60 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return h*60 + m, nil
}
