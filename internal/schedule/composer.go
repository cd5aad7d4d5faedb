package schedule

import (
	"log/slog"
	"sort"
	"time"

	"github.com/mkessler-dev/schoolday/internal/domain"
)

// ComposeInput carries everything the composer needs for one student/date.
// All slices are snapshots; Compose never writes anything back.
type ComposeInput struct {
	Date           time.Time
	TemplateBlocks []*domain.TemplateBlock
	// Scheduled holds assignments explicitly placed on Date.
	Scheduled []*domain.Assignment
	// Backlog holds unscheduled, non-completed assignments in canonical
	// fallback order (priority, due date, creation, id). Only pending entries
	// are eligible to fall into an open slot; stuck and overtime work stays
	// out of the day until someone acts on it.
	Backlog  []*domain.Assignment
	Statuses []*domain.BlockStatus
	Profile  *domain.StudentProfile
	Logger   *slog.Logger
}

// Compose instantiates the ordered block sequence for one student/date.
// The output is deterministic: composing twice over the same snapshot yields
// identical sequences, so guided mode and the overview can never disagree on
// ordering. Backlog assignments are pulled into empty assignment slots as a
// view-only fallback; nothing is persisted.
func Compose(in ComposeInput) []domain.ScheduleBlock {
	if len(in.TemplateBlocks) == 0 {
		return nil
	}

	logger := in.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	statusByBlock := make(map[string]*domain.BlockStatus, len(in.Statuses))
	for _, s := range in.Statuses {
		statusByBlock[s.TemplateBlockID] = s
	}

	slotNumbers := make(map[int]bool, len(in.TemplateBlocks))
	for _, tb := range in.TemplateBlocks {
		slotNumbers[tb.BlockNumber] = true
	}

	// An assignment pointing at a block number the template does not have is
	// reported and excluded, never fatal.
	scheduledBySlot := make(map[int]*domain.Assignment, len(in.Scheduled))
	for _, a := range in.Scheduled {
		if a.ScheduledBlockNumber == nil {
			continue
		}
		n := *a.ScheduledBlockNumber
		if !slotNumbers[n] {
			logger.Warn("assignment placed in unknown block; excluding from day",
				"assignment_id", a.ID, "block_number", n, "date", in.Date.Format("2006-01-02"))
			continue
		}
		scheduledBySlot[n] = a
	}

	sorted := make([]*domain.TemplateBlock, len(in.TemplateBlocks))
	copy(sorted, in.TemplateBlocks)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].StartMinute != sorted[j].StartMinute {
			return sorted[i].StartMinute < sorted[j].StartMinute
		}
		return sorted[i].BlockNumber < sorted[j].BlockNumber
	})

	bibleMinutes := domain.DefaultStudentProfile("").BibleMinutes
	if in.Profile != nil {
		bibleMinutes = in.Profile.BibleMinutes
	}

	backlog := make([]*domain.Assignment, 0, len(in.Backlog))
	for _, a := range in.Backlog {
		if a.Status == domain.AssignmentPending {
			backlog = append(backlog, a)
		}
	}
	blocks := make([]domain.ScheduleBlock, 0, len(sorted))
	for _, tb := range sorted {
		block := domain.ScheduleBlock{
			TemplateBlockID: tb.ID,
			BlockNumber:     tb.BlockNumber,
			Type:            tb.BlockType,
			StartMinute:     tb.StartMinute,
			EndMinute:       tb.EndMinute,
			State:           domain.BlockPending,
		}

		switch tb.BlockType {
		case domain.BlockBible:
			block.Label = "Bible reading"
			block.EstimatedMinutes = bibleMinutes
		case domain.BlockFixed:
			block.Label = tb.FixedKind
			block.EstimatedMinutes = tb.DurationMinutes()
		case domain.BlockAssignment:
			block.Label = tb.Subject
			if a := scheduledBySlot[tb.BlockNumber]; a != nil {
				fillFromAssignment(&block, a, false)
			} else if len(backlog) > 0 {
				// A day is never emptier than its template promises: pull the
				// next backlog assignment into the open slot.
				fillFromAssignment(&block, backlog[0], true)
				backlog = backlog[1:]
			} else {
				block.EstimatedMinutes = tb.DurationMinutes()
			}
		}

		if s := statusByBlock[tb.ID]; s != nil {
			block.State = s.State
		}
		blocks = append(blocks, block)
	}
	return blocks
}

func fillFromAssignment(block *domain.ScheduleBlock, a *domain.Assignment, fallback bool) {
	block.AssignmentID = a.ID
	block.Fallback = fallback
	block.EstimatedMinutes = a.EstimatedMinutes
	if a.Title != "" {
		block.Label = a.Title
	}
	if a.Status != domain.AssignmentPending {
		block.State = domain.MirrorBlockState(a.Status)
	}
}

// FirstOpenSlotAfter returns the earliest assignment-type template block that
// starts strictly after the given minute and has no assignment explicitly
// placed in it. Returns nil when the rest of the day is spoken for.
func FirstOpenSlotAfter(templateBlocks []*domain.TemplateBlock, scheduled []*domain.Assignment, afterMinute int) *domain.TemplateBlock {
	occupied := make(map[int]bool, len(scheduled))
	for _, a := range scheduled {
		if a.ScheduledBlockNumber != nil {
			occupied[*a.ScheduledBlockNumber] = true
		}
	}

	var best *domain.TemplateBlock
	for _, tb := range templateBlocks {
		if tb.BlockType != domain.BlockAssignment || tb.StartMinute <= afterMinute || occupied[tb.BlockNumber] {
			continue
		}
		if best == nil || tb.StartMinute < best.StartMinute ||
			(tb.StartMinute == best.StartMinute && tb.BlockNumber < best.BlockNumber) {
			best = tb
		}
	}
	return best
}
