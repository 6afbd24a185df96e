package google

import (
	"fmt"
	"strings"
	"time"

	"homeexpenses/internal/summary"
)

// Report tab suffixes.
const (
	TabCategories = "Categories"
	TabGroups     = "Groups"
	TabMonthly    = "Monthly"
)

type tab struct {
	name string
	rows [][]any
}

// tabName returns "<prefix> <kind>", or kind alone without a prefix.
func tabName(prefix, kind string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return kind
	}
	return prefix + " " + kind
}

func buildTabs(prefix string, d summary.Dashboard, generated time.Time) []tab {
	return []tab{
		{tabName(prefix, TabCategories), categoryRows(d, generated)},
		{tabName(prefix, TabGroups), groupRows(d)},
		{tabName(prefix, TabMonthly), monthlyRows(d)},
	}
}

func categoryRows(d summary.Dashboard, generated time.Time) [][]any {
	rows := [][]any{
		{"Category", "Total", "Count", "Percentage", "Monthly average"},
	}
	for _, c := range d.Categories {
		rows = append(rows, []any{c.Category, round2(c.Total), c.Count, round2(c.Percentage), round2(c.MonthlyAverage)})
	}
	rows = append(rows,
		[]any{},
		[]any{"Total", round2(d.Total), d.Count},
		[]any{"Monthly average", round2(d.MonthlyAverage)},
		[]any{"Generated", generated.Format(time.RFC3339)},
	)
	return rows
}

func groupRows(d summary.Dashboard) [][]any {
	rows := [][]any{
		{"Group", "Total", "Count", "Percentage", "Categories"},
	}
	for _, g := range d.Groups {
		rows = append(rows, []any{g.Group, round2(g.Total), g.Count, round2(g.Percentage), strings.Join(g.Categories, ", ")})
	}
	return rows
}

func monthlyRows(d summary.Dashboard) [][]any {
	rows := [][]any{
		{"Month", "Start", "Total"},
	}
	for _, m := range d.Monthly {
		rows = append(rows, []any{m.Month, m.Date.Format("2006-01-02"), round2(m.Total)})
	}
	return rows
}

// round2 formats for USER_ENTERED input so the sheet parses a plain number.
func round2(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
