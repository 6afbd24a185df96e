package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"homeexpenses/internal/core"
	"homeexpenses/internal/services"
	"homeexpenses/internal/summary"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		v        float64
		currency string
		want     string
	}{
		{0, "SEK", "0.00 SEK"},
		{250, "SEK", "250.00 SEK"},
		{1050.3, "SEK", "1 050.30 SEK"},
		{1234567.891, "", "1 234 567.89"},
		{-99.5, "EUR", "-99.50 EUR"},
	}
	for _, tt := range tests {
		if got := FormatAmount(tt.v, tt.currency); got != tt.want {
			t.Errorf("FormatAmount(%v, %q) = %q, want %q", tt.v, tt.currency, got, tt.want)
		}
	}
}

func sampleExpenses() []core.Expense {
	jan := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)
	return []core.Expense{
		{ID: "1-0", Date: jan, Description: "ICA Maxi", Category: "Livsmedel", Cost: 250, Currency: "SEK"},
		{ID: "1-1", Date: feb, Description: "Vattenfall", Category: "Elektricitet", Cost: 800, Currency: "SEK"},
		{ID: "1-2", Description: "Mystery", Category: "Allmänt", Cost: -20, Currency: "SEK"},
	}
}

func TestPrinter_Expenses(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).Expenses(sampleExpenses())
	out := buf.String()

	for _, want := range []string{"2024-01-05", "ICA Maxi", "250.00 SEK", "Elektricitet", "1-1", "-20.00 SEK", "no date", "3 expenses"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("non-terminal output contains escape codes: %q", out)
	}

	buf.Reset()
	NewPrinter(&buf).Expenses(nil)
	if !strings.Contains(buf.String(), "No expenses.") {
		t.Errorf("empty output = %q", buf.String())
	}
}

func TestPrinter_Dashboard(t *testing.T) {
	var buf bytes.Buffer
	d := summary.BuildDashboard(sampleExpenses(), core.FilterState{})
	NewPrinter(&buf).Dashboard(d)
	out := buf.String()

	for _, want := range []string{"Summary", "1 030.00 SEK", "Expenses         3", "2024-01-05 to 2024-02-03",
		"Top category     Elektricitet", "Groups", "Boende", "Mat & Dryck", "Categories", "Monthly", "Jan 2024", "Feb 2024", "█"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrinter_PreviewAndImported(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.Preview(summary.Preview(sampleExpenses()[:2]))
	p.Imported(services.ImportResult{BatchID: "b-1", Files: []string{"a.csv", "b.csv"}, Parsed: 5, Added: 3})
	out := buf.String()

	for _, want := range []string{"Import preview", "Expenses    2", "1 050.00 SEK", "Elektricitet, Livsmedel",
		"Imported 3 of 5 expenses from a.csv, b.csv (2 already present)", "batch b-1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
