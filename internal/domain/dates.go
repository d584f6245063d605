package domain

import "time"

// DateLayout is the storage and display layout for calendar dates.
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC. Schedule arithmetic works in whole days.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays shifts a calendar day by n days (n may be negative).
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// DaysBetween returns the signed number of whole days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// ParseDate parses a YYYY-MM-DD string into a UTC day.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// DatePtr returns a pointer to the day of t.
func DatePtr(t time.Time) *time.Time {
	d := Day(t)
	return &d
}
