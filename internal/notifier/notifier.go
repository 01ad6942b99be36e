// Package notifier delivers lifecycle events to their sinks. The log sink
// is always on; Telegram is added when configured.
package notifier

import (
	"context"
	"errors"

	"options-advisor/internal/interfaces"
	"options-advisor/internal/logger"
	"options-advisor/internal/types"
)

// LogNotifier writes events to the structured log. It is the default sink
// and the only one in dry runs.
type LogNotifier struct{}

var _ interfaces.Notifier = (*LogNotifier)(nil)

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (l *LogNotifier) Notify(ctx context.Context, ev types.Event) error {
	logger.Info(ctx, "Suggestion event",
		"kind", string(ev.Kind),
		"suggestion_id", ev.SuggestionID,
		"status", string(ev.Status),
		"price", ev.Price,
		"pnl_percent", ev.PnlPercent,
		"message", ev.Message,
	)
	return nil
}

// Multi fans an event out to every sink. All sinks are attempted; errors
// are joined so one failing sink does not silence the rest.
type Multi struct {
	sinks []interfaces.Notifier
}

var _ interfaces.Notifier = (*Multi)(nil)

func NewMulti(sinks ...interfaces.Notifier) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) Notify(ctx context.Context, ev types.Event) error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
