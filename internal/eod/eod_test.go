package eod

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"options-advisor/internal/journal"
	"options-advisor/internal/types"
)

func writeJournal(t *testing.T, day time.Time, lines []string) {
	t.Helper()
	p := journal.DailyFilepath(day)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSummarizeDay(t *testing.T) {
	t.Setenv("ADVISOR_LOG_DIR", t.TempDir())
	day := time.Date(2026, 8, 26, 12, 0, 0, 0, types.IST)

	writeJournal(t, day, []string{
		`{"time":"2026-08-26 10:00:00","kind":"created","suggestion_id":"SUG-A","status":"ACTIVE","price":100,"pnl_percent":0}`,
		`{"time":"2026-08-26 11:00:00","kind":"target-hit","suggestion_id":"SUG-A","status":"T1_HIT","price":122,"pnl_percent":22}`,
		`{"time":"2026-08-26 10:30:00","kind":"created","suggestion_id":"SUG-B","status":"ACTIVE","price":80,"pnl_percent":0}`,
		`{"time":"2026-08-26 13:00:00","kind":"stop-loss-hit","suggestion_id":"SUG-B","status":"SL_HIT","price":64,"pnl_percent":-20}`,
		`not json, skipped`,
	})

	path, err := SummarizeDay(day)
	if err != nil {
		t.Fatalf("SummarizeDay: %v", err)
	}
	if path == "" {
		t.Fatal("expected a CSV path")
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	// header + 2 suggestions + totals
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4: %v", len(rows), rows)
	}
	if rows[1][0] != "SUG-A" || rows[1][2] != "T1_HIT" || rows[1][4] != "22.00" {
		t.Errorf("SUG-A row = %v", rows[1])
	}
	if rows[2][0] != "SUG-B" || rows[2][2] != "SL_HIT" || rows[2][4] != "-20.00" {
		t.Errorf("SUG-B row = %v", rows[2])
	}
	if rows[3][0] != "TOTAL" || rows[3][2] != "wins=1 losses=1" {
		t.Errorf("totals row = %v", rows[3])
	}
	if rows[3][4] != "1.00" {
		t.Errorf("average pnl = %v, want 1.00", rows[3][4])
	}
}

func TestSummarizeDayNoJournal(t *testing.T) {
	t.Setenv("ADVISOR_LOG_DIR", t.TempDir())
	path, err := SummarizeDay(time.Date(2026, 1, 5, 12, 0, 0, 0, types.IST))
	if err != nil {
		t.Fatalf("SummarizeDay: %v", err)
	}
	if path != "" {
		t.Errorf("no journal should yield no CSV, got %q", path)
	}
}

func TestShouldRunNow(t *testing.T) {
	t.Setenv("ADVISOR_LOG_DIR", t.TempDir())

	run, path := ShouldRunNow()
	if path == "" {
		t.Fatal("ShouldRunNow must always return the CSV path")
	}
	now := istNow()
	afterClose := now.After(marketCloseTime(now))
	if run != afterClose {
		t.Errorf("run = %v, but afterClose = %v", run, afterClose)
	}
}
