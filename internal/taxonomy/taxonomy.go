// Package taxonomy holds the static category tables consulted while parsing
// and aggregating: subcategory keywords, category groups, group colors and
// the categories that mark settlements rather than spending.
//
// The tables are plain data. Extending the taxonomy means editing a table,
// never adding behavior.
package taxonomy

import "strings"

const (
	// OtherGroup receives every category missing from the group table.
	OtherGroup = "Övrigt"
	// DefaultGroupColor is used for groups without an assigned color.
	DefaultGroupColor = "#64748b"
	// PaybackCategory marks inter-person settlements in the export.
	PaybackCategory = "Betalning"
	// SummaryMarker is the description of export-generated subtotal rows.
	SummaryMarker = "totalsumma"
)

// SubcategoryKeywords maps a subcategory to lower-case description keywords.
// Order matters: the first subcategory with a matching keyword wins.
var SubcategoryKeywords = []struct {
	Name     string
	Keywords []string
}{
	{"Groceries", []string{"ica", "coop", "willys", "lidl", "hemköp", "mathem", "grocery", "food"}},
	{"Restaurant", []string{"restaurant", "cafe", "coffee", "lunch", "dinner", "pizza", "sushi"}},
	{"Streaming", []string{"netflix", "spotify", "disney", "hbo", "youtube", "apple tv"}},
	{"Internet", []string{"bredband", "internet", "fiber", "telia", "comhem"}},
	{"Electricity", []string{"el", "electricity", "power", "vattenfall", "fortum"}},
	{"Phone", []string{"telefon", "phone", "mobile", "tele2", "tre", "telenor"}},
	{"Insurance", []string{"insurance", "försäkring", "trygg", "if", "folksam"}},
	{"Rent", []string{"hyra", "rent", "boende"}},
	{"Gas", []string{"bensin", "gas", "fuel", "tank"}},
	{"Public Transport", []string{"sl", "metro", "bus", "train", "tåg", "buss", "pendel"}},
}

// CategoryColors assigns display colors to the English top-level categories.
var CategoryColors = map[string]string{
	"Uncategorized":  "#94a3b8",
	"Entertainment":  "#a855f7",
	"Food and drink": "#22c55e",
	"Home":           "#3b82f6",
	"Life":           "#ec4899",
	"Transportation": "#f97316",
	"Utilities":      "#06b6d4",
}

// ExcludedCategories are not spending and never enter spending aggregates.
var ExcludedCategories = []string{PaybackCategory}

// CategoryGroups lists the Swedish export categories of each group.
var CategoryGroups = []struct {
	Group      string
	Categories []string
}{
	{"Boende", []string{"Elektricitet", "Vatten", "Försäkringar", "Avfall", "Skötsel/underhåll", "Hem - Övrigt", "Möbler", "Verktyg - Övrigt"}},
	{"Mat & Dryck", []string{"Livsmedel", "Restaurangbesök", "Alkohol"}},
	{"Transport", []string{"Bensin/bränsle", "Bil", "Buss/tåg", "Parkering"}},
	{"Semester", []string{"Flyg", "Hotell"}},
	{"Underhållning", []string{"Filmer", "TV/telefon/internet", "Underhållning - Övrigt", "Sport"}},
	{"Barn & Familj", []string{"Barnomsorg", "Presenter"}},
	{"Hälsa", []string{"Sjukvård/medicin"}},
	{"Husdjur", []string{"Husdjur"}},
	{"Ekonomi", []string{"Avbetalning/Amortering"}},
	{OtherGroup, []string{"Allmänt", "Elektronik", "Förbrukningsvaror", "Livet - Övrigt", "Tjänster"}},
}

// GroupColors assigns a display color to each group.
var GroupColors = map[string]string{
	"Boende":        "#3b82f6",
	"Mat & Dryck":   "#22c55e",
	"Transport":     "#f97316",
	"Semester":      "#0ea5e9",
	"Underhållning": "#a855f7",
	"Barn & Familj": "#ec4899",
	"Hälsa":         "#ef4444",
	"Husdjur":       "#84cc16",
	"Ekonomi":       "#6366f1",
	OtherGroup:      "#64748b",
}

// categoryToGroup is the reverse lookup of CategoryGroups.
var categoryToGroup = func() map[string]string {
	m := make(map[string]string)
	for _, g := range CategoryGroups {
		for _, c := range g.Categories {
			m[c] = g.Group
		}
	}
	return m
}()

// InferSubcategory returns the first subcategory whose keyword occurs in the
// lower-cased description, or nil.
func InferSubcategory(description string) *string {
	lower := strings.ToLower(description)
	for _, sc := range SubcategoryKeywords {
		for _, kw := range sc.Keywords {
			if strings.Contains(lower, kw) {
				name := sc.Name
				return &name
			}
		}
	}
	return nil
}

// GroupOf returns the group of a category, OtherGroup when unmapped.
func GroupOf(category string) string {
	if g, ok := categoryToGroup[category]; ok {
		return g
	}
	return OtherGroup
}

// GroupColor returns the display color of a group.
func GroupColor(group string) string {
	if c, ok := GroupColors[group]; ok {
		return c
	}
	return DefaultGroupColor
}

// CategoryColor returns the color of an English top-level category, falling
// back to the color of the category's group.
func CategoryColor(category string) string {
	if c, ok := CategoryColors[category]; ok {
		return c
	}
	return GroupColor(GroupOf(category))
}

// IsExcluded reports whether a category marks a settlement. The match is exact.
func IsExcluded(category string) bool {
	for _, c := range ExcludedCategories {
		if c == category {
			return true
		}
	}
	return false
}

// IsPayback reports whether a raw category value marks a settlement row,
// ignoring case. Used on raw export values before records exist.
func IsPayback(category string) bool {
	return strings.EqualFold(category, PaybackCategory)
}

// IsSummaryRow reports whether a raw description marks an export subtotal.
func IsSummaryRow(description string) bool {
	return strings.EqualFold(strings.TrimSpace(description), SummaryMarker)
}
