package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const exportCSV = "Datum,Beskrivning,Kategori,Kostnad,Valuta,Anna,Erik\n" +
	"2024-01-05,ICA Maxi,Livsmedel,\"1 050,30\",SEK,525.15,-525.15\n" +
	"2024-01-20,Hyra,Hyra,9000,SEK,4500,-4500\n" +
	"2024-02-02,Swish,Betalning,500,SEK,500,-500\n" +
	"Total balance,,,,,,\n"

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(dir, "data", "expenses.db"))
	t.Setenv("AMQP_URL", "")
	t.Setenv("LOG_LEVEL", "error")

	path := filepath.Join(dir, "export.csv")
	if err := os.WriteFile(path, []byte(exportCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	if code, _, stderr := runCLI(t); code != 2 || !strings.Contains(stderr, "Usage:") {
		t.Errorf("no args: code %d, stderr %q", code, stderr)
	}
	if code, _, _ := runCLI(t, "help"); code != 0 {
		t.Errorf("help: code %d", code)
	}
	if code, _, stderr := runCLI(t, "frobnicate"); code != 2 || !strings.Contains(stderr, `unknown command "frobnicate"`) {
		t.Errorf("unknown: code %d, stderr %q", code, stderr)
	}
}

func TestRun_ImportListSummaryDeleteClear(t *testing.T) {
	path := setup(t)

	code, out, stderr := runCLI(t, "import", "--dry-run", path)
	if code != 0 {
		t.Fatalf("dry run: code %d, stderr %q", code, stderr)
	}
	if !strings.Contains(out, "2") {
		t.Errorf("dry run output %q", out)
	}
	if _, out, _ := runCLI(t, "list"); !strings.Contains(out, "No expenses.") {
		t.Fatalf("dry run stored expenses: %q", out)
	}

	code, out, stderr = runCLI(t, "import", path)
	if code != 0 {
		t.Fatalf("import: code %d, stderr %q", code, stderr)
	}
	if !strings.Contains(out, "Imported 2 of 2 expenses from export.csv") {
		t.Errorf("import output %q", out)
	}

	code, out, _ = runCLI(t, "list")
	if code != 0 || !strings.Contains(out, "ICA Maxi") || !strings.Contains(out, "2 expenses") {
		t.Fatalf("list: code %d, out %q", code, out)
	}
	if strings.Contains(out, "Swish") {
		t.Errorf("settlement row listed: %q", out)
	}

	_, out, _ = runCLI(t, "list", "--category", "Hyra")
	if !strings.Contains(out, "1 expenses") || strings.Contains(out, "ICA Maxi") {
		t.Errorf("category filter: %q", out)
	}

	code, out, _ = runCLI(t, "summary", "--from", "2024-01-01", "--to", "2024-01-31")
	if code != 0 || !strings.Contains(out, "10 050.30 SEK") {
		t.Errorf("summary: code %d, out %q", code, out)
	}

	if code, _, stderr := runCLI(t, "summary", "--from", "yesterday"); code != 1 || !strings.Contains(stderr, "error:") {
		t.Errorf("bad date: code %d, stderr %q", code, stderr)
	}

	_, out, _ = runCLI(t, "list", "--q", "hyra")
	fields := strings.Fields(strings.SplitN(out, "\n", 2)[0])
	id := fields[len(fields)-1]
	if code, out, stderr := runCLI(t, "delete", id); code != 0 || !strings.Contains(out, "Deleted "+id) {
		t.Fatalf("delete %s: code %d, out %q, stderr %q", id, code, out, stderr)
	}
	if code, _, stderr := runCLI(t, "delete", id); code != 1 || !strings.Contains(stderr, "expense not found") {
		t.Errorf("second delete: code %d, stderr %q", code, stderr)
	}

	if code, _, stderr := runCLI(t, "clear"); code != 1 || !strings.Contains(stderr, "--yes") {
		t.Errorf("clear without --yes: code %d, stderr %q", code, stderr)
	}
	if code, out, _ := runCLI(t, "clear", "--yes"); code != 0 || !strings.Contains(out, "Removed 1 expenses") {
		t.Errorf("clear: code %d, out %q", code, out)
	}
}

func TestRun_ImportErrors(t *testing.T) {
	path := setup(t)

	if code, _, _ := runCLI(t, "import"); code != 2 {
		t.Errorf("no files: code %d, want 2", code)
	}
	if code, _, stderr := runCLI(t, "import", path+".missing"); code != 1 || !strings.Contains(stderr, "open ") {
		t.Errorf("missing file: code %d, stderr %q", code, stderr)
	}

	txt := filepath.Join(filepath.Dir(path), "notes.txt")
	if err := os.WriteFile(txt, []byte(exportCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	if code, _, stderr := runCLI(t, "import", txt); code != 1 || !strings.Contains(stderr, "not a CSV file") {
		t.Errorf("txt file: code %d, stderr %q", code, stderr)
	}
}

func TestRun_Presets(t *testing.T) {
	setup(t)
	code, out, _ := runCLI(t, "presets")
	if code != 0 || !strings.Contains(out, "open") {
		t.Errorf("presets: code %d, out %q", code, out)
	}
}

func TestRun_ExportNeedsSpreadsheet(t *testing.T) {
	setup(t)
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	if code, _, stderr := runCLI(t, "export"); code != 1 || !strings.Contains(stderr, "GOOGLE_SPREADSHEET_ID") {
		t.Errorf("export: code %d, stderr %q", code, stderr)
	}
}
