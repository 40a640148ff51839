package tasks

import (
	"errors"
	"strings"
	"time"
)

const (
	// DueInputLayout is how due instants are typed in forms and flags.
	DueInputLayout = "2006-01-02 15:04"

	clockLayout     = "3:04 PM"
	longRangeLayout = "January 2"
)

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// IsDueToday reports whether due falls on the same calendar day as ref,
// judged in ref's location.
func IsDueToday(due, ref time.Time) bool {
	loc := ref.Location()
	return StartOfDay(due, loc).Equal(StartOfDay(ref, loc))
}

// FormatDueDate renders the label shown next to a task, e.g.
// "Today at 9:00 AM", "Tomorrow at 6:30 PM" or "March 4 at 8:15 AM".
func FormatDueDate(due, ref time.Time) string {
	loc := ref.Location()
	due = due.In(loc)
	day := StartOfDay(due, loc)
	today := StartOfDay(ref, loc)

	var prefix string
	switch {
	case day.Equal(today):
		prefix = "Today"
	case day.Equal(today.AddDate(0, 0, 1)):
		prefix = "Tomorrow"
	default:
		prefix = due.Format(longRangeLayout)
	}
	return prefix + " at " + due.Format(clockLayout)
}

// ParseDue reads a due instant in loc, as DueInputLayout or a bare
// YYYY-MM-DD meaning midnight.
func ParseDue(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("a due date is required")
	}
	if t, err := time.ParseInLocation(DueInputLayout, v, loc); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", v, loc)
}
