package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"options-advisor/internal/interfaces"
	"options-advisor/internal/logger"
	"options-advisor/internal/types"
)

const telegramAPIBase = "https://api.telegram.org"

// Telegram sends events to a chat via the Bot API.
type Telegram struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	retries  int
}

var _ interfaces.Notifier = (*Telegram)(nil)

// NewTelegram creates a Telegram notifier.
// botToken: Bot API token from @BotFather
// chatID: target chat/group/channel ID
func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  telegramAPIBase,
		client:   &http.Client{Timeout: 10 * time.Second},
		retries:  2,
	}
}

func (t *Telegram) Notify(ctx context.Context, ev types.Event) error {
	text := formatEvent(ev)

	var lastErr error
	for attempt := 0; attempt <= t.retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			logger.Warn(ctx, "Telegram send failed, retrying",
				"attempt", attempt, "backoff", backoff, "error", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
		if lastErr = t.send(ctx, text); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("telegram: all retries exhausted: %w", lastErr)
}

func (t *Telegram) send(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]interface{}{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "MarkdownV2",
	})
	if err != nil {
		return fmt.Errorf("telegram: marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram: status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// eventEmoji marks each event kind in chat.
var eventEmoji = map[types.EventKind]string{
	types.EventCreated:   "📊",
	types.EventTargetHit: "🎯",
	types.EventStopLoss:  "🛑",
	types.EventNearStop:  "⚠️",
	types.EventExpired:   "⏰",
	types.EventClosed:    "✅",
}

// formatEvent renders an event as a MarkdownV2 message.
func formatEvent(ev types.Event) string {
	emoji, ok := eventEmoji[ev.Kind]
	if !ok {
		emoji = "ℹ️"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s *%s*\n", emoji, escapeMarkdown(string(ev.Kind)))
	fmt.Fprintf(&buf, "%s\n", escapeMarkdown(ev.Message))
	fmt.Fprintf(&buf, "ID: %s\n", escapeMarkdown(ev.SuggestionID))
	fmt.Fprintf(&buf, "Status: %s\n", escapeMarkdown(string(ev.Status)))
	if ev.Price > 0 {
		fmt.Fprintf(&buf, "Price: %s", escapeMarkdown(fmt.Sprintf("₹%.2f", ev.Price)))
		if ev.Kind != types.EventCreated {
			fmt.Fprintf(&buf, " \\(P\\&L %s%%\\)", escapeMarkdown(fmt.Sprintf("%.2f", ev.PnlPercent)))
		}
		buf.WriteString("\n")
	}
	return buf.String()
}

// escapeMarkdown escapes special characters for Telegram MarkdownV2.
func escapeMarkdown(s string) string {
	specials := []byte{'_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!'}
	var buf bytes.Buffer
	for i := 0; i < len(s); i++ {
		for _, sp := range specials {
			if s[i] == sp {
				buf.WriteByte('\\')
				break
			}
		}
		buf.WriteByte(s[i])
	}
	return buf.String()
}
