// Package ingest turns Splitwise-style CSV exports into canonical expenses.
//
// Rows pass through three stages: header normalization across the Swedish
// and English export dialects, exclusion of subtotal and settlement rows, and
// record construction with per-person shares taken from the residual columns.
package ingest

import (
	"context"
	"log/slog"
	"strings"

	"github.com/agnivade/levenshtein"

	"homeexpenses/internal/log"
)

// Canonical column names.
const (
	ColDate        = "Date"
	ColDescription = "Description"
	ColCategory    = "Category"
	ColCost        = "Cost"
	ColCurrency    = "Currency"
)

// columnAliases maps every accepted header (case-sensitive) to its canonical name.
var columnAliases = map[string]string{
	// Swedish
	"Datum":       ColDate,
	"Beskrivning": ColDescription,
	"Kategori":    ColCategory,
	"Kostnad":     ColCost,
	"Valuta":      ColCurrency,
	// English
	ColDate:        ColDate,
	ColDescription: ColDescription,
	ColCategory:    ColCategory,
	ColCost:        ColCost,
	ColCurrency:    ColCurrency,
}

// Field is one header/value pair of a CSV row.
type Field struct {
	Key   string
	Value string
}

// Row is a CSV record keyed by header, in header order.
type Row []Field

// Get returns the value of key, or "" when the column is absent.
func (r Row) Get(key string) string {
	for _, f := range r {
		if f.Key == key {
			return f.Value
		}
	}
	return ""
}

// set overwrites an existing key in place or appends a new one.
func (r Row) set(key, value string) Row {
	for i := range r {
		if r[i].Key == key {
			r[i].Value = value
			return r
		}
	}
	return append(r, Field{Key: key, Value: value})
}

// IsCanonicalAlias reports whether header is one of the recognized column names.
func IsCanonicalAlias(header string) bool {
	_, ok := columnAliases[header]
	return ok
}

// NormalizeRow renames recognized headers to their canonical names. Unknown
// headers are participant share columns and pass through untouched.
func NormalizeRow(row Row) Row {
	out := make(Row, 0, len(row))
	for _, f := range row {
		key := f.Key
		if canonical, ok := columnAliases[key]; ok {
			key = canonical
		}
		out = out.set(key, f.Value)
	}
	return out
}

// SuspiciousHeaders returns unknown headers that look like misspelled column
// names, mapped to the alias they resemble. They are still treated as share
// columns; the result only feeds diagnostics.
func SuspiciousHeaders(headers []string) map[string]string {
	out := map[string]string{}
	for _, h := range headers {
		trimmed := strings.TrimSpace(h)
		if trimmed == "" || IsCanonicalAlias(h) {
			continue
		}
		for alias := range columnAliases {
			if strings.EqualFold(trimmed, alias) || levenshtein.ComputeDistance(strings.ToLower(trimmed), strings.ToLower(alias)) <= 1 {
				out[h] = alias
				break
			}
		}
	}
	return out
}

func warnSuspiciousHeaders(ctx context.Context, logger *slog.Logger, file string, headers []string) {
	for header, alias := range SuspiciousHeaders(headers) {
		logger.WarnContext(ctx, "Header resembles a known column, treating it as a participant share",
			log.FieldFile, file,
			"header", header,
			"resembles", alias)
	}
}
