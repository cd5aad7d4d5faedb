package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chicago(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	return loc
}

func TestCalendar_DateOfUsesSchoolZone(t *testing.T) {
	cal := NewCalendar(chicago(t))

	// 03:00 UTC on March 3 is still the evening of March 2 in Chicago.
	now := time.Date(2026, 3, 3, 3, 0, 0, 0, time.UTC)
	date := cal.DateOf(now)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), date)
	assert.Equal(t, time.Monday, cal.Weekday(date))
}

func TestCalendar_MinuteOfDay(t *testing.T) {
	cal := NewCalendar(time.UTC)
	now := time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)
	assert.Equal(t, 9*60+15, cal.MinuteOfDay(now))
}

func TestCalendar_SchoolDays(t *testing.T) {
	cal := NewCalendar(time.UTC)
	saturday := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)

	assert.False(t, cal.IsSchoolDay(sunday, true), "Sunday is never a school day")
	assert.False(t, cal.IsSchoolDay(saturday, false))
	assert.True(t, cal.IsSchoolDay(saturday, true))
}

func TestCalendar_NextSchoolDaySkipsWeekend(t *testing.T) {
	cal := NewCalendar(time.UTC)
	friday := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)

	next := cal.NextSchoolDay(friday, false)
	assert.Equal(t, time.Monday, next.Weekday())

	next = cal.NextSchoolDay(friday, true)
	assert.Equal(t, time.Saturday, next.Weekday())
}
