package domain

// ScheduleBlock is the derived per-day view of one slot. It is recomputed on
// every read from the template and assignment rows and never mutated in
// place; all writes go to the underlying Assignment or BlockStatus.
type ScheduleBlock struct {
	TemplateBlockID  string
	BlockNumber      int
	Type             BlockType
	Label            string
	StartMinute      int
	EndMinute        int
	EstimatedMinutes int

	// AssignmentID is set only for assignment-type blocks that resolved to a
	// concrete assignment (explicitly placed or pulled from the backlog).
	AssignmentID string
	// Fallback marks a backlog assignment shown in an otherwise empty slot.
	// Fallback placements are view-only and never persisted.
	Fallback bool

	State BlockState
}

// HasAssignment reports whether the slot resolved to an assignment.
func (b *ScheduleBlock) HasAssignment() bool {
	return b.AssignmentID != ""
}

// Terminal reports whether the block counts as finished for positioning.
func (b *ScheduleBlock) Terminal() bool {
	return b.State == BlockComplete || b.State == BlockOvertime
}
