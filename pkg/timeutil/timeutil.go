// Package timeutil provides UTC calendar-day utilities for the scoring engine.
// Streaks and daily-login bonuses are defined over UTC calendar dates, so all
// day arithmetic in the engine goes through this package.
// No external dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// DateLayout is the canonical date format used for reference IDs and logs.
const DateLayout = "2006-01-02"

// Now returns the current time in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// StartOfDay returns the start of the UTC day (00:00:00) containing t.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the end of the UTC day (23:59:59.999999999) containing t.
func EndOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, 999999999, time.UTC)
}

// DateString formats t as a UTC calendar date (YYYY-MM-DD).
func DateString(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	au, bu := a.UTC(), b.UTC()
	return au.Year() == bu.Year() && au.Month() == bu.Month() && au.Day() == bu.Day()
}

// DaysBetween returns the number of whole UTC calendar days from a to b.
// Returns 0 for the same day, 1 if b is the day after a, negative if b
// precedes a.
func DaysBetween(a, b time.Time) int {
	start := StartOfDay(a)
	end := StartOfDay(b)
	return int(end.Sub(start).Hours() / 24)
}

// IsYesterdayOf reports whether a falls on the UTC calendar day immediately
// before b.
func IsYesterdayOf(a, b time.Time) bool {
	return DaysBetween(a, b) == 1
}

// StartOfWeek returns the start of the ISO week (Monday 00:00:00 UTC)
// containing t.
func StartOfWeek(t time.Time) time.Time {
	u := t.UTC()
	weekday := int(u.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return StartOfDay(u.AddDate(0, 0, -(weekday - 1)))
}

// StartOfMonth returns the start of the month (UTC) containing t.
func StartOfMonth(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DaysSince returns the number of whole UTC days elapsed since t.
func DaysSince(t time.Time) int {
	return DaysBetween(t, Now())
}
