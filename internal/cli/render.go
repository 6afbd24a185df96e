package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"homeexpenses/internal/core"
	"homeexpenses/internal/services"
	"homeexpenses/internal/summary"
	"homeexpenses/internal/taxonomy"
)

const (
	colorTitle  = lipgloss.Color("#89b4fa")
	colorMuted  = lipgloss.Color("#7f849c")
	colorText   = lipgloss.Color("#cdd6f4")
	colorAmount = lipgloss.Color("#a6e3a1")
	colorRefund = lipgloss.Color("#f38ba8")
)

// Printer renders reports to a writer. Colors are used only when the writer
// is a terminal.
type Printer struct {
	w io.Writer
	r *lipgloss.Renderer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, r: lipgloss.NewRenderer(w)}
}

func (p *Printer) style(c lipgloss.Color) lipgloss.Style {
	return p.r.NewStyle().Foreground(c)
}

func (p *Printer) title(s string) {
	fmt.Fprintln(p.w, p.style(colorTitle).Bold(true).Render(s))
}

func (p *Printer) line(s string) {
	fmt.Fprintln(p.w, s)
}

// FormatAmount renders a value with two decimals, a space thousands
// separator and the currency code, e.g. "1 050.30 SEK".
func FormatAmount(v float64, currency string) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	out := b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	if currency != "" {
		out += " " + currency
	}
	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "no date   "
	}
	return t.Format("2006-01-02")
}

func formatRange(r core.DateRange) string {
	if r.Start == nil || r.End == nil {
		return "no dated expenses"
	}
	return formatDate(*r.Start) + " to " + formatDate(*r.End)
}

func (p *Printer) amount(v float64, currency string) string {
	c := colorAmount
	if v < 0 {
		c = colorRefund
	}
	return p.style(c).Render(FormatAmount(v, currency))
}

// pad right-aligns or left-aligns s to width using its display width.
func pad(s string, width int, right bool) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}

// Expenses prints one line per expense.
func (p *Printer) Expenses(expenses []core.Expense) {
	if len(expenses) == 0 {
		p.line(p.style(colorMuted).Render("No expenses."))
		return
	}
	desc := 0
	for _, e := range expenses {
		desc = max(desc, lipgloss.Width(e.Description))
	}
	desc = min(desc, 40)

	for _, e := range expenses {
		d := e.Description
		if lipgloss.Width(d) > desc {
			d = string([]rune(d)[:desc-1]) + "…"
		}
		p.line(strings.Join([]string{
			p.style(colorMuted).Render(formatDate(e.Date)),
			pad(p.style(colorText).Render(d), desc, false),
			pad(p.amount(e.Cost, e.Currency), 16, true),
			p.style(lipgloss.Color(taxonomy.CategoryColor(e.Category))).Render(e.Category),
			p.style(colorMuted).Render(e.ID),
		}, "  "))
	}
	p.line(p.style(colorMuted).Render(fmt.Sprintf("%d expenses", len(expenses))))
}

// Dashboard prints the summary cards, group and category breakdowns and the
// monthly series.
func (p *Printer) Dashboard(d summary.Dashboard) {
	p.title("Summary")
	p.line(fmt.Sprintf("  Total spending   %s", p.amount(d.Total, core.DefaultCurrency)))
	p.line(fmt.Sprintf("  Monthly average  %s", p.amount(d.MonthlyAverage, core.DefaultCurrency)))
	p.line(fmt.Sprintf("  Expenses         %d", d.Count))
	p.line(fmt.Sprintf("  Period           %s", formatRange(d.DateRange)))
	if d.TopCategory != nil {
		p.line(fmt.Sprintf("  Top category     %s (%.1f%%)", d.TopCategory.Category, d.TopCategory.Percentage))
	}

	if len(d.Groups) > 0 {
		p.line("")
		p.title("Groups")
		for _, g := range d.Groups {
			swatch := p.style(lipgloss.Color(g.Color)).Render("■")
			p.line(fmt.Sprintf("  %s %s %s %6.1f%%  %s",
				swatch,
				pad(g.Group, 16, false),
				pad(p.amount(g.Total, ""), 14, true),
				g.Percentage,
				p.style(colorMuted).Render(strings.Join(g.Categories, ", "))))
		}
	}

	if len(d.Categories) > 0 {
		p.line("")
		p.title("Categories")
		for _, c := range d.Categories {
			color := lipgloss.Color(taxonomy.CategoryColor(c.Category))
			p.line(fmt.Sprintf("  %s %s %4d %6.1f%%  %s/mo",
				pad(p.style(color).Render(c.Category), 24, false),
				pad(p.amount(c.Total, ""), 14, true),
				c.Count,
				c.Percentage,
				FormatAmount(c.MonthlyAverage, "")))
		}
	}

	if len(d.Monthly) > 0 {
		p.line("")
		p.title("Monthly")
		peak := 0.0
		for _, m := range d.Monthly {
			peak = max(peak, m.Total)
		}
		for _, m := range d.Monthly {
			bar := ""
			if peak > 0 && m.Total > 0 {
				bar = strings.Repeat("█", max(1, int(m.Total/peak*30)))
			}
			p.line(fmt.Sprintf("  %s %s  %s",
				pad(m.Month, 8, false),
				pad(p.amount(m.Total, ""), 14, true),
				p.style(colorTitle).Render(bar)))
		}
	}
}

// Preview prints an import preview.
func (p *Printer) Preview(pv summary.ImportPreview) {
	p.title("Import preview")
	p.line(fmt.Sprintf("  Expenses    %d", pv.Count))
	p.line(fmt.Sprintf("  Total       %s", p.amount(pv.Total, core.DefaultCurrency)))
	p.line(fmt.Sprintf("  Period      %s", formatRange(pv.DateRange)))
	p.line(fmt.Sprintf("  Categories  %s", strings.Join(pv.Categories, ", ")))
	if len(pv.Sample) > 0 {
		p.line("")
		p.Expenses(pv.Sample)
	}
}

// Imported prints the outcome of a merged import.
func (p *Printer) Imported(r services.ImportResult) {
	skipped := r.Parsed - r.Added
	p.line(fmt.Sprintf("Imported %d of %d expenses from %s (%d already present)",
		r.Added, r.Parsed, strings.Join(r.Files, ", "), skipped))
	p.line(p.style(colorMuted).Render("batch " + r.BatchID))
}
