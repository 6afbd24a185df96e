// Package summary derives the aggregate views of an expense collection.
//
// Every function is pure and defined for empty input. Money is accumulated in
// decimal space and converted to float64 once per result value.
package summary

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"homeexpenses/internal/core"
	"homeexpenses/internal/taxonomy"
)

// MonthLabel is the display layout of MonthlyTotal.Month.
const MonthLabel = "Jan 2006"

var hundred = decimal.NewFromInt(100)

type bucket struct {
	total      decimal.Decimal
	count      int
	categories map[string]struct{}
}

func (b *bucket) add(e core.Expense) {
	b.total = b.total.Add(decimal.NewFromFloat(e.Cost))
	b.count++
}

func sum(expenses []core.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(decimal.NewFromFloat(e.Cost))
	}
	return total
}

func percentage(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return part.Mul(hundred).Div(whole).InexactFloat64()
}

// TotalSpending is the sum of every cost.
func TotalSpending(expenses []core.Expense) float64 {
	return sum(expenses).InexactFloat64()
}

// CategorySummaries totals expenses per category, largest total first.
// Equal totals are ordered by category name.
func CategorySummaries(expenses []core.Expense) []core.CategorySummary {
	buckets := map[string]*bucket{}
	for _, e := range expenses {
		b, ok := buckets[e.Category]
		if !ok {
			b = &bucket{total: decimal.Zero}
			buckets[e.Category] = b
		}
		b.add(e)
	}

	grand := sum(expenses)
	out := make([]core.CategorySummary, 0, len(buckets))
	for cat, b := range buckets {
		out = append(out, core.CategorySummary{
			Category:   cat,
			Total:      b.total.InexactFloat64(),
			Count:      b.count,
			Percentage: percentage(b.total, grand),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// MonthlyTotals returns one entry per calendar month from the earliest to the
// latest dated expense, months without expenses included with a zero total.
// Expenses with a zero date are not placed in any month.
func MonthlyTotals(expenses []core.Expense) []core.MonthlyTotal {
	r := DateRange(expenses)
	if r.Start == nil {
		return []core.MonthlyTotal{}
	}
	loc := r.Start.Location()

	months := core.MonthsBetween(*r.Start, *r.End)
	totals := make(map[string]decimal.Decimal, len(months))
	for _, e := range expenses {
		if e.Date.IsZero() {
			continue
		}
		key := monthKey(e.Date.In(loc))
		totals[key] = totals[key].Add(decimal.NewFromFloat(e.Cost))
	}

	out := make([]core.MonthlyTotal, 0, len(months))
	for _, m := range months {
		out = append(out, core.MonthlyTotal{
			Month: m.Format(MonthLabel),
			Total: totals[monthKey(m)].InexactFloat64(),
			Date:  m,
		})
	}
	return out
}

func monthKey(t time.Time) string {
	return t.Format("2006-01")
}

// MonthlyAverage is the mean of MonthlyTotals, 0 when there are no months.
func MonthlyAverage(expenses []core.Expense) float64 {
	months := MonthlyTotals(expenses)
	if len(months) == 0 {
		return 0
	}
	total := decimal.Zero
	for _, m := range months {
		total = total.Add(decimal.NewFromFloat(m.Total))
	}
	return total.Div(decimal.NewFromInt(int64(len(months)))).InexactFloat64()
}

// GroupedCategorySummaries rolls categories up to their taxonomy group after
// dropping settlement categories. Percentages are relative to the remaining
// total. Equal totals are ordered by group name.
func GroupedCategorySummaries(expenses []core.Expense) []core.GroupedCategorySummary {
	buckets := map[string]*bucket{}
	grand := decimal.Zero
	for _, e := range expenses {
		if taxonomy.IsExcluded(e.Category) {
			continue
		}
		group := taxonomy.GroupOf(e.Category)
		b, ok := buckets[group]
		if !ok {
			b = &bucket{total: decimal.Zero, categories: map[string]struct{}{}}
			buckets[group] = b
		}
		b.add(e)
		b.categories[e.Category] = struct{}{}
		grand = grand.Add(decimal.NewFromFloat(e.Cost))
	}

	out := make([]core.GroupedCategorySummary, 0, len(buckets))
	for group, b := range buckets {
		cats := make([]string, 0, len(b.categories))
		for c := range b.categories {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		out = append(out, core.GroupedCategorySummary{
			Group:      group,
			Total:      b.total.InexactFloat64(),
			Count:      b.count,
			Percentage: percentage(b.total, grand),
			Color:      taxonomy.GroupColor(group),
			Categories: cats,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Group < out[j].Group
	})
	return out
}

// DateRange returns the earliest and latest expense dates, ignoring zero
// dates. Both bounds are nil when nothing is dated.
func DateRange(expenses []core.Expense) core.DateRange {
	var first, last time.Time
	for _, e := range expenses {
		if e.Date.IsZero() {
			continue
		}
		if first.IsZero() || e.Date.Before(first) {
			first = e.Date
		}
		if last.IsZero() || e.Date.After(last) {
			last = e.Date
		}
	}
	if first.IsZero() {
		return core.DateRange{}
	}
	return core.DateRange{Start: &first, End: &last}
}

// UniqueCategories returns the distinct non-blank categories, sorted.
func UniqueCategories(expenses []core.Expense) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, e := range expenses {
		if strings.TrimSpace(e.Category) == "" {
			continue
		}
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		out = append(out, e.Category)
	}
	sort.Strings(out)
	return out
}

// TopCategory returns the category with the largest total.
func TopCategory(expenses []core.Expense) (core.CategorySummary, bool) {
	summaries := CategorySummaries(expenses)
	if len(summaries) == 0 {
		return core.CategorySummary{}, false
	}
	return summaries[0], true
}
