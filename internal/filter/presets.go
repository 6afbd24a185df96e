package filter

import (
	"fmt"
	"time"

	"homeexpenses/internal/core"
)

// Preset keys.
const (
	ThisMonth    = "this-month"
	LastMonth    = "last-month"
	Last3Months  = "last-3-months"
	Last6Months  = "last-6-months"
	Last12Months = "last-12-months"
	ThisYear     = "this-year"
	AllTime      = "all"
)

// Preset is a named date range relative to a reference time.
type Preset struct {
	Key   string         `json:"key"`
	Label string         `json:"label"`
	Range core.DateRange `json:"range"`
}

// Presets returns the quick-select ranges for now, in display order. Ranges
// spanning several months start at the first of the oldest month and end
// with the current month.
func Presets(now time.Time) []Preset {
	monthStart := core.StartOfMonth(now)
	monthEnd := core.EndOfMonth(now)
	prev := monthStart.AddDate(0, -1, 0)
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	yearEnd := yearStart.AddDate(1, 0, 0).Add(-time.Nanosecond)

	lastN := func(n int) core.DateRange {
		return bounded(monthStart.AddDate(0, -(n-1), 0), monthEnd)
	}
	return []Preset{
		{ThisMonth, "Denna månad", bounded(monthStart, monthEnd)},
		{LastMonth, "Förra månaden", bounded(prev, core.EndOfMonth(prev))},
		{Last3Months, "Senaste 3 mån", lastN(3)},
		{Last6Months, "Senaste 6 mån", lastN(6)},
		{Last12Months, "Senaste 12 mån", lastN(12)},
		{ThisYear, "I år", bounded(yearStart, yearEnd)},
		{AllTime, "All tid", core.DateRange{}},
	}
}

// PresetRange looks up a preset by key.
func PresetRange(now time.Time, key string) (core.DateRange, error) {
	for _, p := range Presets(now) {
		if p.Key == key {
			return p.Range, nil
		}
	}
	return core.DateRange{}, fmt.Errorf("unknown preset %q", key)
}

// EndOfDay widens a date to the last instant of its day, for inclusive
// whole-day end bounds.
func EndOfDay(t time.Time) time.Time {
	return core.EndOfDay(t)
}

func bounded(start, end time.Time) core.DateRange {
	return core.DateRange{Start: &start, End: &end}
}
