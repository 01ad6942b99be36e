// Package journal keeps an append-only JSONL record of suggestion lifecycle
// events, one file per IST trading day. The end-of-day summarizer reads it
// back; old files are gzipped after the retention window.
package journal

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"options-advisor/internal/interfaces"
	"options-advisor/internal/types"
)

var mu sync.Mutex

// Entry is one journaled lifecycle event.
type Entry struct {
	Time         string  `json:"time"`
	Kind         string  `json:"kind"`
	SuggestionID string  `json:"suggestion_id"`
	Status       string  `json:"status"`
	Price        float64 `json:"price"`
	PnlPercent   float64 `json:"pnl_percent"`
	Message      string  `json:"message,omitempty"`
}

// Dir returns the journal directory, overridable for tests and deployments.
func Dir() string {
	if v := os.Getenv("ADVISOR_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

// DailyFilepath returns the journal file for the given instant's IST day.
func DailyFilepath(t time.Time) string {
	d := t.In(types.IST).Format("2006-01-02")
	return filepath.Join(Dir(), d+".jsonl")
}

// Append writes one entry to today's journal file.
func Append(e Entry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().In(types.IST)
	if e.Time == "" {
		e.Time = now.Format("2006-01-02 15:04:05")
	}
	p := DailyFilepath(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, _ := json.Marshal(e)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// Sink adapts the journal into a notifier so every emitted event is
// recorded alongside the chat and log deliveries.
type Sink struct{}

var _ interfaces.Notifier = (*Sink)(nil)

func NewSink() *Sink { return &Sink{} }

func (s *Sink) Notify(ctx context.Context, ev types.Event) error {
	e := Entry{
		Kind:         string(ev.Kind),
		SuggestionID: ev.SuggestionID,
		Status:       string(ev.Status),
		Price:        ev.Price,
		PnlPercent:   ev.PnlPercent,
		Message:      ev.Message,
	}
	if !ev.At.IsZero() {
		e.Time = ev.At.In(types.IST).Format("2006-01-02 15:04:05")
	}
	return Append(e)
}

// CompressOlder gzips journal files older than retentionDays and removes
// the originals. A non-positive retention disables compression.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	root := Dir()
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(p) != ".jsonl" {
			return nil
		}
		info, er := os.Stat(p)
		if er != nil {
			return nil
		}
		cutoff := time.Now().AddDate(0, 0, -retentionDays)
		if info.ModTime().Before(cutoff) {
			gz := p + ".gz"
			// if already gz exists, remove original
			if _, e2 := os.Stat(gz); e2 == nil {
				_ = os.Remove(p)
				return nil
			}

			in, e3 := os.Open(p)
			if e3 != nil {
				return nil
			}
			defer in.Close()

			out, e4 := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if e4 != nil {
				return nil
			}
			gw := gzip.NewWriter(out)
			if _, e5 := io.Copy(gw, in); e5 == nil {
				_ = gw.Close()
				_ = out.Close()
				_ = os.Remove(p)
			} else {
				_ = gw.Close()
				_ = out.Close()
			}
		}
		return nil
	})
}
