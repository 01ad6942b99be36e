package interfaces

import (
	"context"
	"time"

	"options-advisor/internal/types"
)

// SuggestionStore persists suggestion records and answers the aggregate
// queries the safety gate needs.
type SuggestionStore interface {
	Insert(ctx context.Context, s *types.Suggestion) error
	Update(ctx context.Context, s *types.Suggestion) error
	Get(ctx context.Context, id string) (*types.Suggestion, error)
	Open(ctx context.Context) ([]*types.Suggestion, error)
	Recent(ctx context.Context, n int) ([]*types.Suggestion, error)
	CountOpen(ctx context.Context) (int, error)
	RealizedLossSince(ctx context.Context, since time.Time) (float64, error)
	Close() error
}
