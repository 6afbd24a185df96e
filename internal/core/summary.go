package core

import "time"

// CategorySummary aggregates the records of one category.
type CategorySummary struct {
	Category   string  `json:"category"`
	Total      float64 `json:"total"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// MonthlyTotal is one entry of a gap-filled monthly series.
type MonthlyTotal struct {
	Month string    `json:"month"` // display label, e.g. "Jan 2024"
	Total float64   `json:"total"`
	Date  time.Time `json:"date"` // first of month
}

// GroupedCategorySummary rolls category totals up to a taxonomy group.
type GroupedCategorySummary struct {
	Group      string   `json:"group"`
	Total      float64  `json:"total"`
	Count      int      `json:"count"`
	Percentage float64  `json:"percentage"`
	Color      string   `json:"color"`
	Categories []string `json:"categories"`
}
