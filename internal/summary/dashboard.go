package summary

import (
	"github.com/shopspring/decimal"

	"homeexpenses/internal/core"
	"homeexpenses/internal/filter"
)

// PreviewSize is the number of records shown in an import preview.
const PreviewSize = 5

// ImportPreview describes a parsed batch before it is merged.
type ImportPreview struct {
	Count      int            `json:"count"`
	Total      float64        `json:"total"`
	DateRange  core.DateRange `json:"dateRange"`
	Categories []string       `json:"categories"`
	Sample     []core.Expense `json:"-"`
}

// Preview summarizes a parsed batch.
func Preview(batch []core.Expense) ImportPreview {
	n := min(len(batch), PreviewSize)
	sample := make([]core.Expense, n)
	copy(sample, batch[:n])
	return ImportPreview{
		Count:      len(batch),
		Total:      TotalSpending(batch),
		DateRange:  DateRange(batch),
		Categories: UniqueCategories(batch),
		Sample:     sample,
	}
}

// CategoryRow is a category summary with its average per month of the
// filtered span.
type CategoryRow struct {
	core.CategorySummary
	MonthlyAverage float64 `json:"monthlyAverage"`
}

// Dashboard bundles every view derived from one filter state.
type Dashboard struct {
	Filter         core.FilterState              `json:"filter"`
	Expenses       []core.Expense                `json:"-"`
	Count          int                           `json:"count"`
	Total          float64                       `json:"total"`
	MonthlyAverage float64                       `json:"monthlyAverage"`
	TopCategory    *core.CategorySummary         `json:"topCategory"`
	Categories     []CategoryRow                 `json:"categories"`
	Groups         []core.GroupedCategorySummary `json:"groups"`
	Monthly        []core.MonthlyTotal           `json:"monthly"`
	DateRange      core.DateRange                `json:"dateRange"`
	// AllCategories lists the categories of the unfiltered collection, the
	// choices offered for the category filter.
	AllCategories []string `json:"allCategories"`
}

// BuildDashboard filters all by state and aggregates the result.
func BuildDashboard(all []core.Expense, state core.FilterState) Dashboard {
	filtered := filter.Apply(all, state)
	monthly := MonthlyTotals(filtered)
	summaries := CategorySummaries(filtered)

	rows := make([]CategoryRow, 0, len(summaries))
	for _, s := range summaries {
		row := CategoryRow{CategorySummary: s}
		if len(monthly) > 0 {
			row.MonthlyAverage = decimal.NewFromFloat(s.Total).
				Div(decimal.NewFromInt(int64(len(monthly)))).
				InexactFloat64()
		}
		rows = append(rows, row)
	}

	d := Dashboard{
		Filter:         state,
		Expenses:       filtered,
		Count:          len(filtered),
		Total:          TotalSpending(filtered),
		MonthlyAverage: MonthlyAverage(filtered),
		Categories:     rows,
		Groups:         GroupedCategorySummaries(filtered),
		Monthly:        monthly,
		DateRange:      DateRange(filtered),
		AllCategories:  UniqueCategories(all),
	}
	if len(summaries) > 0 {
		top := summaries[0]
		d.TopCategory = &top
	}
	return d
}
