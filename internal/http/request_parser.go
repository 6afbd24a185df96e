package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"homeexpenses/internal/core"
	"homeexpenses/internal/filter"
	"homeexpenses/internal/ingest"
)

// DateParam is the layout of the start and end query parameters.
const DateParam = "2006-01-02"

// uploadField is the multipart field carrying the CSV files.
const uploadField = "files"

var (
	errBadUpload = errors.New("invalid upload")
	errNoFiles   = errors.New("no files uploaded")
)

// ParseFilter reads a filter state from query parameters:
//
//	preset    preset key, overridden by explicit start/end
//	start     first day, inclusive
//	end       last day, inclusive through the end of that day
//	category  repeated or comma separated
//	q         free-text search
func ParseFilter(query url.Values, loc *time.Location, now time.Time) (core.FilterState, error) {
	var state core.FilterState

	if key := strings.TrimSpace(query.Get("preset")); key != "" {
		r, err := filter.PresetRange(now.In(loc), key)
		if err != nil {
			return core.FilterState{}, err
		}
		state.DateRange = r
	}

	if v := strings.TrimSpace(query.Get("start")); v != "" {
		t, err := time.ParseInLocation(DateParam, v, loc)
		if err != nil {
			return core.FilterState{}, fmt.Errorf("invalid start %q: want YYYY-MM-DD", v)
		}
		state.DateRange.Start = &t
	}
	if v := strings.TrimSpace(query.Get("end")); v != "" {
		t, err := time.ParseInLocation(DateParam, v, loc)
		if err != nil {
			return core.FilterState{}, fmt.Errorf("invalid end %q: want YYYY-MM-DD", v)
		}
		t = filter.EndOfDay(t)
		state.DateRange.End = &t
	}
	if s, e := state.DateRange.Start, state.DateRange.End; s != nil && e != nil && e.Before(*s) {
		return core.FilterState{}, fmt.Errorf("end is before start")
	}

	for _, v := range query["category"] {
		for _, c := range strings.Split(v, ",") {
			if c = sanitizeInput(c); c != "" && !slices.Contains(state.Categories, c) {
				state.Categories = append(state.Categories, c)
			}
		}
	}
	state.SearchTerm = sanitizeInput(query.Get("q"))
	return state, nil
}

// filterKey is the cache key of a filter state. Category order does not
// change the result, so categories are sorted.
func filterKey(state core.FilterState) string {
	var b strings.Builder
	writeBound := func(t *time.Time) {
		if t != nil {
			b.WriteString(t.UTC().Format(time.RFC3339Nano))
		}
		b.WriteByte('|')
	}
	writeBound(state.DateRange.Start)
	writeBound(state.DateRange.End)
	cats := slices.Clone(state.Categories)
	slices.Sort(cats)
	b.WriteString(strings.Join(cats, "\x1f"))
	b.WriteByte('|')
	b.WriteString(strings.ToLower(state.SearchTerm))
	return b.String()
}

// uploads is an opened multipart batch. Close releases every part.
type uploads struct {
	files []ingest.File
	open  []multipart.File
	form  *multipart.Form
}

func (u *uploads) Close() error {
	var errs []error
	for _, f := range u.open {
		errs = append(errs, f.Close())
	}
	if u.form != nil {
		errs = append(errs, u.form.RemoveAll())
	}
	return errors.Join(errs...)
}

// readUploads opens the files of a multipart import request in form order.
func readUploads(w http.ResponseWriter, r *http.Request, maxBytes int64) (*uploads, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, fmt.Errorf("%w: %w", errBadUpload, err)
	}

	u := &uploads{form: r.MultipartForm}
	headers := r.MultipartForm.File[uploadField]
	if len(headers) == 0 {
		_ = u.Close()
		return nil, errNoFiles
	}
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			_ = u.Close()
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		u.open = append(u.open, f)
		u.files = append(u.files, ingest.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        io.Reader(f),
		})
	}
	return u, nil
}

// sanitizeInput trims whitespace and removes control characters except tab,
// newline and carriage return.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
