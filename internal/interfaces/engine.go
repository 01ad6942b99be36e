package interfaces

import (
	"context"

	"options-advisor/internal/types"
)

// Engine is the pure decision core. The scheduler owns every timer; these
// entry points never sleep or self-schedule.
type Engine interface {
	GenerateForIndex(ctx context.Context, index string) (*types.Suggestion, error)
	TickOpenSuggestions(ctx context.Context) error
	ExpireOverdue(ctx context.Context) error
	CloseManual(ctx context.Context, id, reason string) (*types.Suggestion, error)
}

// NewsSource supplies the trailing headline sentiment window.
type NewsSource interface {
	Pulse(ctx context.Context) types.NewsPulse
}
