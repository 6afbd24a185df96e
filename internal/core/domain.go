package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// DefaultCategory is assigned to rows exported without a category.
	DefaultCategory = "Uncategorized"
	// DefaultCurrency is assigned to rows exported without a currency.
	DefaultCurrency = "SEK"
)

type (
	// PersonShare is one participant's net position on a single expense line.
	PersonShare struct {
		Name string  `json:"name"`
		Paid float64 `json:"paid"`
		Owes float64 `json:"owes"`
	}

	// Expense is the canonical, immutable record built from one CSV row.
	Expense struct {
		ID          string
		Date        time.Time
		Description string
		Category    string
		Subcategory *string // nil when no keyword matched
		Cost        float64 // signed total cost of the line, not a share
		Currency    string
		Shares      []PersonShare
	}

	// StoredExpense is the persisted form of Expense. Date is an ISO-8601 string.
	StoredExpense struct {
		ID          string        `json:"id"`
		Date        string        `json:"date"`
		Description string        `json:"description"`
		Category    string        `json:"category"`
		Subcategory *string       `json:"subcategory"`
		Cost        float64       `json:"cost"`
		Currency    string        `json:"currency"`
		Shares      []PersonShare `json:"shares"`
	}

	// DateRange bounds a filter. A nil bound is open.
	DateRange struct {
		Start *time.Time `json:"start"`
		End   *time.Time `json:"end"`
	}

	// FilterState is the transient user selection applied before aggregation.
	// An empty Categories slice means no category restriction.
	FilterState struct {
		DateRange  DateRange `json:"dateRange"`
		Categories []string  `json:"categories"`
		SearchTerm string    `json:"searchTerm"`
	}
)

// ISOLayout matches the millisecond UTC form used for persisted dates.
const ISOLayout = "2006-01-02T15:04:05.000Z07:00"

var (
	ErrEmptyID          = errors.New("empty expense id")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyDescription = errors.New("empty description")
)

// NewShare builds a share from a signed residual column value.
// Positive values are paid, negative values are owed. Zero yields ok=false.
func NewShare(name string, amount float64) (PersonShare, bool) {
	switch {
	case amount > 0:
		return PersonShare{Name: name, Paid: amount}, true
	case amount < 0:
		return PersonShare{Name: name, Owes: -amount}, true
	default:
		return PersonShare{}, false
	}
}

// Validate checks the invariants every parsed record must hold.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if e.Category == "" {
		return ErrEmptyCategory
	}
	return nil
}

// SubcategoryName returns the subcategory or "" when unset.
func (e Expense) SubcategoryName() string {
	if e.Subcategory == nil {
		return ""
	}
	return *e.Subcategory
}

// ToStored converts an expense to its persisted form.
func ToStored(e Expense) StoredExpense {
	return StoredExpense{
		ID:          e.ID,
		Date:        e.Date.UTC().Format(ISOLayout),
		Description: e.Description,
		Category:    e.Category,
		Subcategory: cloneString(e.Subcategory),
		Cost:        e.Cost,
		Currency:    e.Currency,
		Shares:      cloneShares(e.Shares),
	}
}

// FromStored converts a persisted expense back with its date in local time.
// An unparsable date becomes the zero time.
func FromStored(s StoredExpense) Expense {
	return FromStoredIn(s, time.Local)
}

// FromStoredIn is FromStored with the date expressed in loc.
func FromStoredIn(s StoredExpense, loc *time.Location) Expense {
	var date time.Time
	if t, err := time.Parse(time.RFC3339Nano, s.Date); err == nil {
		date = t.In(loc)
	}
	return Expense{
		ID:          s.ID,
		Date:        date,
		Description: s.Description,
		Category:    s.Category,
		Subcategory: cloneString(s.Subcategory),
		Cost:        s.Cost,
		Currency:    s.Currency,
		Shares:      cloneShares(s.Shares),
	}
}

// IsEmpty reports whether no filter criterion is set.
func (f FilterState) IsEmpty() bool {
	return f.DateRange.Start == nil && f.DateRange.End == nil &&
		len(f.Categories) == 0 && f.SearchTerm == ""
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneShares(in []PersonShare) []PersonShare {
	if in == nil {
		return nil
	}
	out := make([]PersonShare, len(in))
	copy(out, in)
	return out
}
