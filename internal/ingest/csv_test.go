package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestIsCSV(t *testing.T) {
	tests := []struct {
		name, contentType string
		want              bool
	}{
		{"export.csv", "", true},
		{"EXPORT.CSV", "application/octet-stream", true},
		{"export", "text/csv", true},
		{"export", "text/csv; charset=utf-8", true},
		{"export.xlsx", "", false},
		{"export.txt", "text/plain", false},
	}
	for _, tt := range tests {
		if got := IsCSV(tt.name, tt.contentType); got != tt.want {
			t.Errorf("IsCSV(%q, %q) = %v, want %v", tt.name, tt.contentType, got, tt.want)
		}
	}
}

func TestReadRows(t *testing.T) {
	in := "\ufeffDatum,Beskrivning,Kostnad,Anna\n2024-01-05,ICA,\"1.234,50\",10\n\n,,,\n2024-01-06,Coop\n"
	headers, rows, err := ReadRows(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadRows() error = %v", err)
	}
	if headers[0] != "Datum" {
		t.Fatalf("BOM not stripped: %q", headers[0])
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if got := rows[0].Get("Kostnad"); got != "1.234,50" {
		t.Errorf("Kostnad = %q", got)
	}
	if got := rows[1].Get("Kostnad"); got != "" {
		t.Errorf("short row Kostnad = %q, want empty", got)
	}
}

func TestReadRowsSemicolon(t *testing.T) {
	in := "Datum;Beskrivning;Kostnad\n2024-01-05;ICA;12,50\n"
	_, rows, err := ReadRows(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadRows() error = %v", err)
	}
	if len(rows) != 1 || rows[0].Get("Kostnad") != "12,50" {
		t.Fatalf("rows = %v", rows)
	}
}

func TestReadRowsEmpty(t *testing.T) {
	headers, rows, err := ReadRows(strings.NewReader(""))
	if err != nil || headers != nil || rows != nil {
		t.Fatalf("ReadRows(\"\") = %v, %v, %v", headers, rows, err)
	}
}

func TestParseFiles(t *testing.T) {
	good := "Datum,Beskrivning,Kategori,Kostnad,Valuta\n" +
		"2024-01-05,ICA,Livsmedel,\"250,00\",SEK\n" +
		"2024-01-31,Totalsumma,,\"250,00\",\n" +
		"2024-01-20,Swish,Betalning,100,SEK\n"

	tests := []struct {
		name    string
		files   []File
		want    int
		wantErr error
	}{
		{
			name:  "single file",
			files: []File{{Name: "jan.csv", Body: strings.NewReader(good)}},
			want:  1,
		},
		{
			name:    "unsupported file aborts batch",
			files:   []File{{Name: "jan.csv", Body: strings.NewReader(good)}, {Name: "notes.txt", Body: strings.NewReader("x")}},
			wantErr: ErrUnsupportedFile,
		},
		{
			name:    "only excluded rows",
			files:   []File{{Name: "pay.csv", Body: strings.NewReader("Date,Description,Category,Cost\n2024-01-01,Swish,Betalning,5\n")}},
			wantErr: ErrNoExpenses,
		},
		{
			name:    "no files",
			wantErr: ErrNoExpenses,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fixedParser().ParseFiles(context.Background(), tt.files)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseFiles() error = %v, want %v", err, tt.wantErr)
				}
				if got != nil {
					t.Fatalf("partial result returned: %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFiles() error = %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("got %d records, want %d", len(got), tt.want)
			}
		})
	}
}

func TestParseFilesTokenizerError(t *testing.T) {
	bad := "Date,Description,Cost\n2024-01-01,\"unterminated,10\n"
	_, err := fixedParser().ParseFiles(context.Background(), []File{{Name: "bad.csv", Body: strings.NewReader(bad)}})
	if err == nil || !strings.Contains(err.Error(), "parse bad.csv") {
		t.Fatalf("ParseFiles() error = %v, want wrapped parse error", err)
	}
}
