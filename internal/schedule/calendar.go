package schedule

import "time"

// Calendar resolves wall-clock questions against the single school timezone.
// Weekday derivation must not depend on where the process runs, so every
// now-to-date conversion goes through this type (the location is injected,
// never read from the host).
type Calendar struct {
	loc *time.Location
}

// NewCalendar creates a Calendar for the given school location.
func NewCalendar(loc *time.Location) *Calendar {
	return &Calendar{loc: loc}
}

// DateOf reduces an instant to the civil date it falls on in school time.
// The result is a bare date (midnight UTC) used as a calendar key.
func (c *Calendar) DateOf(now time.Time) time.Time {
	local := now.In(c.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// MinuteOfDay returns how many minutes into the school-local day now is.
func (c *Calendar) MinuteOfDay(now time.Time) int {
	local := now.In(c.loc)
	return local.Hour()*60 + local.Minute()
}

// Weekday returns the weekday of a civil date. Civil dates carry their own
// weekday; no location is involved once the date is fixed.
func (c *Calendar) Weekday(date time.Time) time.Weekday {
	return date.Weekday()
}

// IsSchoolDay reports whether the date is a school day. Sunday never is;
// Saturday only when the student's Saturday-scheduling policy allows it.
func (c *Calendar) IsSchoolDay(date time.Time, saturdaySchool bool) bool {
	switch date.Weekday() {
	case time.Sunday:
		return false
	case time.Saturday:
		return saturdaySchool
	default:
		return true
	}
}

// NextSchoolDay walks forward from date to the next school day.
func (c *Calendar) NextSchoolDay(date time.Time, saturdaySchool bool) time.Time {
	next := date.AddDate(0, 0, 1)
	for !c.IsSchoolDay(next, saturdaySchool) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// SameDate reports whether two instants name the same civil date.
func SameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
