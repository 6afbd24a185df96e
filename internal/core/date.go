package core

import (
	"strconv"
	"strings"
	"time"
)

// ParseDate builds a calendar date at midnight in loc from a YYYY-MM-DD string.
//
// Components are not validated against the calendar: out-of-range days or
// months roll over through time.Date normalization, so "2024-02-31" becomes
// 2024-03-02. ok is false when a component is missing or not numeric; the
// returned time is then zero.
func ParseDate(s string, loc *time.Location) (t time.Time, ok bool) {
	if loc == nil {
		loc = time.Local
	}
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) < 3 {
		return time.Time{}, false
	}
	nums := make([]int, 3)
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return time.Time{}, false
		}
		nums[i] = n
	}
	return time.Date(nums[0], time.Month(nums[1]), nums[2], 0, 0, 0, 0, loc), true
}

// StartOfMonth returns midnight of the first day of t's month in t's location.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// EndOfMonth returns the last representable instant of t's month.
func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// MonthsBetween returns the first of every month from start's month through
// end's month inclusive. It is empty when end precedes start's month.
func MonthsBetween(start, end time.Time) []time.Time {
	var months []time.Time
	last := StartOfMonth(end.In(start.Location()))
	for cur := StartOfMonth(start); !cur.After(last); cur = cur.AddDate(0, 1, 0) {
		months = append(months, cur)
	}
	return months
}
