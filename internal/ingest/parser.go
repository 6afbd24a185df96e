package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"homeexpenses/internal/core"
	"homeexpenses/internal/taxonomy"
)

// Parser builds canonical expenses from normalized rows.
type Parser struct {
	// Location is used for parsed dates. Defaults to time.Local.
	Location *time.Location
	// Now stamps record ids. Defaults to time.Now.
	Now func() time.Time
	// Logger receives field-level diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	stamp int64
	next  int
}

// NewParser returns a parser using local time and the default logger.
func NewParser() *Parser {
	return &Parser{}
}

// Reset starts a new id sequence. Ids combine the timestamp taken at the
// first row of a batch with a positional index that runs across the batch.
func (p *Parser) Reset() {
	p.stamp = 0
	p.next = 0
}

// ParseRows applies the exclusion rules and converts the surviving rows.
// Rows must already be normalized.
func (p *Parser) ParseRows(ctx context.Context, rows []Row) []core.Expense {
	out := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		if !keepRow(row) {
			continue
		}
		e := p.buildExpense(ctx, row)
		if err := e.Validate(); err != nil {
			p.logger().WarnContext(ctx, "Dropping invalid expense",
				"description", row.Get(ColDescription),
				"error", err)
			continue
		}
		out = append(out, e)
	}
	return out
}

// keepRow drops rows missing required fields, export subtotal rows and
// settlement rows, in that order.
func keepRow(row Row) bool {
	for _, key := range []string{ColDate, ColDescription, ColCost} {
		if strings.TrimSpace(row.Get(key)) == "" {
			return false
		}
	}
	if taxonomy.IsSummaryRow(row.Get(ColDescription)) {
		return false
	}
	if taxonomy.IsPayback(row.Get(ColCategory)) {
		return false
	}
	return true
}

func (p *Parser) buildExpense(ctx context.Context, row Row) core.Expense {
	date, ok := core.ParseDate(row.Get(ColDate), p.Location)
	if !ok {
		p.logger().WarnContext(ctx, "Unparsable date, keeping zero date",
			"date", row.Get(ColDate),
			"description", row.Get(ColDescription))
	}

	category := row.Get(ColCategory)
	if category == "" {
		category = core.DefaultCategory
	}
	currency := row.Get(ColCurrency)
	if currency == "" {
		currency = core.DefaultCurrency
	}
	description := row.Get(ColDescription)

	return core.Expense{
		ID:          p.nextID(),
		Date:        date,
		Description: description,
		Category:    category,
		Subcategory: taxonomy.InferSubcategory(description),
		Cost:        core.ParseNumber(row.Get(ColCost)),
		Currency:    currency,
		Shares:      extractShares(row),
	}
}

func (p *Parser) nextID() string {
	if p.stamp == 0 {
		now := time.Now
		if p.Now != nil {
			now = p.Now
		}
		p.stamp = now().UnixMilli()
	}
	id := fmt.Sprintf("%d-%d", p.stamp, p.next)
	p.next++
	return id
}

func (p *Parser) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// extractShares reads every non-canonical column with a nonzero value.
func extractShares(row Row) []core.PersonShare {
	shares := make([]core.PersonShare, 0)
	for _, f := range row {
		if strings.TrimSpace(f.Key) == "" || IsCanonicalAlias(f.Key) {
			continue
		}
		if share, ok := core.NewShare(f.Key, core.ParseNumber(f.Value)); ok {
			shares = append(shares, share)
		}
	}
	return shares
}
