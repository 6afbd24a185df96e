package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"homeexpenses/internal/core"
	"homeexpenses/internal/log"
)

var (
	ErrUnsupportedFile = errors.New("not a CSV file")
	ErrNoExpenses      = errors.New("no valid expenses found in the CSV file(s)")
)

const csvMediaType = "text/csv"

// File is one uploaded or opened export.
type File struct {
	Name        string
	ContentType string // optional media type reported by the caller
	Body        io.Reader
}

// IsCSV accepts a file when its name ends in .csv or its media type is text/csv.
func IsCSV(name, contentType string) bool {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return true
	}
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == csvMediaType
}

// ReadRows tokenizes a CSV stream with a header row into header-keyed rows.
// Blank records are skipped. Cells beyond the header width are ignored and
// missing trailing cells are absent from the row.
func ReadRows(r io.Reader) (headers []string, rows []Row, err error) {
	br := bufio.NewReader(r)
	if bom, _ := br.Peek(3); bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.Comma = sniffDelimiter(br)

	headers, err = cr.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row: %w", err)
		}
		if isBlankRecord(rec) {
			continue
		}
		row := make(Row, 0, len(headers))
		for i, h := range headers {
			if i >= len(rec) {
				break
			}
			row = row.set(h, rec[i])
		}
		rows = append(rows, row)
	}
	return headers, rows, nil
}

// sniffDelimiter picks ';' when the header line has more semicolons than
// commas, ',' otherwise.
func sniffDelimiter(br *bufio.Reader) rune {
	peek, _ := br.Peek(4096)
	line := peek
	if i := bytes.IndexByte(peek, '\n'); i >= 0 {
		line = peek[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ParseFile reads, normalizes and converts one export. Tokenizer errors fail
// the whole file; no partial result is returned.
func (p *Parser) ParseFile(ctx context.Context, f File) ([]core.Expense, error) {
	if !IsCSV(f.Name, f.ContentType) {
		return nil, fmt.Errorf("%s: %w", f.Name, ErrUnsupportedFile)
	}
	headers, rows, err := ReadRows(f.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.Name, err)
	}
	warnSuspiciousHeaders(ctx, p.logger(), f.Name, headers)

	normalized := make([]Row, len(rows))
	for i, row := range rows {
		normalized[i] = NormalizeRow(row)
	}
	expenses := p.ParseRows(ctx, normalized)

	p.logger().InfoContext(ctx, "Parsed CSV file",
		log.FieldFile, f.Name,
		log.FieldRows, len(rows),
		"expenses", len(expenses))
	return expenses, nil
}

// ParseFiles parses files sequentially as one import batch. Any failure
// aborts the batch, and a batch yielding no expenses fails with ErrNoExpenses.
func (p *Parser) ParseFiles(ctx context.Context, files []File) ([]core.Expense, error) {
	p.Reset()
	var all []core.Expense
	for _, f := range files {
		expenses, err := p.ParseFile(ctx, f)
		if err != nil {
			p.logger().ErrorContext(ctx, "Import batch aborted", log.FieldFile, f.Name, log.FieldError, err)
			return nil, err
		}
		all = append(all, expenses...)
	}
	if len(all) == 0 {
		return nil, ErrNoExpenses
	}
	return all, nil
}

// ParseFiles parses a batch with a fresh default parser.
func ParseFiles(ctx context.Context, files []File) ([]core.Expense, error) {
	return NewParser().ParseFiles(ctx, files)
}
