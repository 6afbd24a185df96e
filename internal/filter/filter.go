// Package filter selects the expenses a view should aggregate.
package filter

import (
	"strings"

	"homeexpenses/internal/core"
)

// Matches reports whether e passes every criterion of state. Date bounds are
// inclusive and compared on the raw instant; callers wanting whole-day
// semantics pass core.EndOfDay as the end bound.
func Matches(e core.Expense, state core.FilterState) bool {
	if start := state.DateRange.Start; start != nil && e.Date.Before(*start) {
		return false
	}
	if end := state.DateRange.End; end != nil && e.Date.After(*end) {
		return false
	}
	if len(state.Categories) > 0 && !contains(state.Categories, e.Category) {
		return false
	}
	if state.SearchTerm != "" {
		term := strings.ToLower(state.SearchTerm)
		if !strings.Contains(strings.ToLower(e.Description), term) &&
			!strings.Contains(strings.ToLower(e.Category), term) &&
			!strings.Contains(strings.ToLower(e.SubcategoryName()), term) {
			return false
		}
	}
	return true
}

// Apply returns the expenses matching state in their original order. The
// result never shares a backing array with the input.
func Apply(expenses []core.Expense, state core.FilterState) []core.Expense {
	if state.IsEmpty() {
		out := make([]core.Expense, len(expenses))
		copy(out, expenses)
		return out
	}
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if Matches(e, state) {
			out = append(out, e)
		}
	}
	return out
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
