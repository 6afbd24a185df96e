package summary

import (
	"math"
	"testing"

	"homeexpenses/internal/core"
)

func TestPreview(t *testing.T) {
	batch := fixture()
	p := Preview(batch)
	if p.Count != len(batch) {
		t.Errorf("Count = %d", p.Count)
	}
	if len(p.Sample) != PreviewSize {
		t.Errorf("Sample has %d records, want %d", len(p.Sample), PreviewSize)
	}
	if p.Sample[0].ID != "1" {
		t.Errorf("Sample starts with %s", p.Sample[0].ID)
	}
	if math.Abs(p.Total-1770.6) > eps {
		t.Errorf("Total = %v", p.Total)
	}
	if len(p.Categories) != 5 {
		t.Errorf("Categories = %v", p.Categories)
	}
}

func TestPreviewSmallBatch(t *testing.T) {
	p := Preview(fixture()[:2])
	if len(p.Sample) != 2 {
		t.Fatalf("Sample has %d records, want 2", len(p.Sample))
	}
}

func TestBuildDashboard(t *testing.T) {
	all := fixture()
	d := BuildDashboard(all, core.FilterState{Categories: []string{"Livsmedel", "Filmer"}})

	if d.Count != 3 {
		t.Fatalf("Count = %d, want 3", d.Count)
	}
	if math.Abs(d.Total-470.3) > eps {
		t.Errorf("Total = %v, want 470.3", d.Total)
	}
	if len(d.Monthly) != 4 {
		t.Errorf("Monthly has %d entries, want 4", len(d.Monthly))
	}
	if d.TopCategory == nil || d.TopCategory.Category != "Livsmedel" {
		t.Errorf("TopCategory = %+v", d.TopCategory)
	}
	if got := d.Categories[0].MonthlyAverage; math.Abs(got-370.4/4) > eps {
		t.Errorf("Livsmedel monthly average = %v", got)
	}
	if len(d.AllCategories) != 5 {
		t.Errorf("AllCategories = %v, want the unfiltered set", d.AllCategories)
	}
}

func TestBuildDashboardEmpty(t *testing.T) {
	d := BuildDashboard(nil, core.FilterState{})
	if d.Count != 0 || d.TopCategory != nil || len(d.Monthly) != 0 || d.MonthlyAverage != 0 {
		t.Fatalf("BuildDashboard(nil) = %+v", d)
	}
}
