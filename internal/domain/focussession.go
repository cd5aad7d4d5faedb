package domain

import "time"

// FocusSession is the resumable cursor for guided mode. Only the timer value
// and the locally-observed completed-block set persist verbatim; the current
// block index is re-derived from canonical state on every resume, so the
// session can never disagree with what the overview surface already did.
type FocusSession struct {
	StudentID            string
	Date                 time.Time
	TimeRemainingSeconds int
	CompletedBlockIDs    map[string]bool
	LastSavedAt          time.Time

	// CurrentBlockIndex is derived, never loaded from storage.
	CurrentBlockIndex int
}

// MarkBlockDone records a locally-observed completion.
func (s *FocusSession) MarkBlockDone(templateBlockID string) {
	if s.CompletedBlockIDs == nil {
		s.CompletedBlockIDs = make(map[string]bool)
	}
	s.CompletedBlockIDs[templateBlockID] = true
}

// SameDate reports whether the session belongs to the given calendar date.
// Sessions never cross a date boundary.
func (s *FocusSession) SameDate(date time.Time) bool {
	return s.Date.Year() == date.Year() &&
		s.Date.Month() == date.Month() &&
		s.Date.Day() == date.Day()
}
