package interfaces

import (
	"context"

	"options-advisor/internal/types"
)

// Notifier receives lifecycle events. Implementations must be safe for
// concurrent use. The engine discards the returned error; delivery
// failures are the sink's problem to log or retry.
type Notifier interface {
	Notify(ctx context.Context, ev types.Event) error
}
