package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"options-advisor/internal/logger"
	"options-advisor/internal/types"
)

func TestMain(m *testing.M) {
	logger.InitWithConfig(logger.LogConfig{Level: "ERROR", Format: "text"})
	os.Exit(m.Run())
}

func sampleEvent(kind types.EventKind) types.Event {
	return types.Event{
		Kind:         kind,
		SuggestionID: "SUG-20260826-110000-a1b2",
		Status:       types.StatusT1Hit,
		Price:        121.50,
		PnlPercent:   21.5,
		Message:      "Target 1 hit at 121.50",
		At:           time.Now(),
	}
}

func TestEscapeMarkdown(t *testing.T) {
	got := escapeMarkdown("P&L -2.5% (T1_HIT)")
	want := `P&L \-2\.5% \(T1\_HIT\)`
	if got != want {
		t.Errorf("escapeMarkdown = %q, want %q", got, want)
	}
}

func TestFormatEvent(t *testing.T) {
	text := formatEvent(sampleEvent(types.EventTargetHit))
	if !strings.Contains(text, "🎯") {
		t.Error("target-hit event should carry the target emoji")
	}
	if !strings.Contains(text, `SUG\-20260826\-110000\-a1b2`) {
		t.Errorf("suggestion ID missing or unescaped:\n%s", text)
	}
	if !strings.Contains(text, "21") {
		t.Errorf("pnl missing from message:\n%s", text)
	}

	created := formatEvent(sampleEvent(types.EventCreated))
	if strings.Contains(created, "P\\&L") {
		t.Error("creation events should not report pnl")
	}
}

func TestTelegramNotifySendsPayload(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/botTOKEN/sendMessage") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg := NewTelegram("TOKEN", "chat-1")
	tg.baseURL = srv.URL

	if err := tg.Notify(context.Background(), sampleEvent(types.EventStopLoss)); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if got["chat_id"] != "chat-1" {
		t.Errorf("chat_id = %v, want chat-1", got["chat_id"])
	}
	if got["parse_mode"] != "MarkdownV2" {
		t.Errorf("parse_mode = %v", got["parse_mode"])
	}
	if !strings.Contains(got["text"].(string), "🛑") {
		t.Errorf("stop-loss emoji missing from text %q", got["text"])
	}
}

func TestTelegramNotifyRetriesThenFails(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tg := NewTelegram("TOKEN", "chat-1")
	tg.baseURL = srv.URL
	tg.retries = 1

	err := tg.Notify(context.Background(), sampleEvent(types.EventCreated))
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (initial + 1 retry)", calls)
	}
}

type failSink struct{ err error }

func (f *failSink) Notify(ctx context.Context, ev types.Event) error { return f.err }

type countSink struct{ n int }

func (c *countSink) Notify(ctx context.Context, ev types.Event) error {
	c.n++
	return nil
}

func TestMultiDeliversToAllSinks(t *testing.T) {
	boom := errors.New("boom")
	counter := &countSink{}
	multi := NewMulti(&failSink{err: boom}, counter)

	err := multi.Notify(context.Background(), sampleEvent(types.EventCreated))
	if !errors.Is(err, boom) {
		t.Errorf("joined error should include sink failure, got %v", err)
	}
	if counter.n != 1 {
		t.Errorf("second sink should still be attempted, n = %d", counter.n)
	}
}

func TestLogNotifierNeverFails(t *testing.T) {
	if err := NewLogNotifier().Notify(context.Background(), sampleEvent(types.EventExpired)); err != nil {
		t.Fatalf("Notify: %v", err)
	}
}
