package domain

import "time"

// BlockStatus is the per-date completion signal for one template block.
// Created lazily on first interaction; exactly one row exists per
// (student, date, template block). It is what lets bible and fixed blocks
// report completion without an assignment row.
type BlockStatus struct {
	StudentID       string
	Date            time.Time
	TemplateBlockID string
	State           BlockState
	UpdatedAt       time.Time
}

// Terminal reports whether the block no longer needs attention today.
// Overtime counts as terminal for positioning: the work moved elsewhere.
func (s *BlockStatus) Terminal() bool {
	return s.State == BlockComplete || s.State == BlockOvertime
}
