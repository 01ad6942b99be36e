package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"options-advisor/internal/types"
)

func TestAppendAndSinkWriteJSONLines(t *testing.T) {
	t.Setenv("ADVISOR_LOG_DIR", t.TempDir())

	if err := Append(Entry{Kind: "created", SuggestionID: "SUG-1", Status: "ACTIVE", Price: 100}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	sink := NewSink()
	ev := types.Event{
		Kind:         types.EventTargetHit,
		SuggestionID: "SUG-1",
		Status:       types.StatusT1Hit,
		Price:        121.5,
		PnlPercent:   21.5,
		Message:      "Target 1 hit",
		At:           time.Date(2026, 8, 26, 11, 30, 0, 0, types.IST),
	}
	if err := sink.Notify(context.Background(), ev); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	f, err := os.Open(DailyFilepath(time.Now()))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("bad journal line %q: %v", sc.Text(), err)
		}
		entries = append(entries, e)
	}
	if len(entries) != 2 {
		t.Fatalf("journal lines = %d, want 2", len(entries))
	}
	if entries[0].Kind != "created" || entries[0].Time == "" {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[1].Status != "T1_HIT" || entries[1].Time != "2026-08-26 11:30:00" {
		t.Errorf("sink entry = %+v", entries[1])
	}
}

func TestCompressOlderGzipsStaleFiles(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ADVISOR_LOG_DIR", dir)

	stale := dir + "/2026-07-01.jsonl"
	if err := os.WriteFile(stale, []byte(`{"kind":"created"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().AddDate(0, 0, -45)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	fresh := dir + "/fresh.jsonl"
	if err := os.WriteFile(fresh, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CompressOlder(30); err != nil {
		t.Fatalf("CompressOlder: %v", err)
	}

	if _, err := os.Stat(stale + ".gz"); err != nil {
		t.Error("stale journal should be gzipped")
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale original should be removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh journal must be left alone")
	}
}

func TestCompressOlderDisabled(t *testing.T) {
	if err := CompressOlder(0); err != nil {
		t.Fatalf("disabled compression should be a no-op, got %v", err)
	}
}
