package interfaces

import (
	"context"

	"options-advisor/internal/types"
)

// MarketData is everything the engine reads from the outside world. LIVE
// and STATIC sources both satisfy it.
type MarketData interface {
	OptionChain(ctx context.Context, index string) (*types.OptionChainSnapshot, error)
	SpotPrice(ctx context.Context, index string) (float64, error)
	RecentCandles(ctx context.Context, index string, n int) ([]types.Candle, error)
	VIX(ctx context.Context) (float64, error)
	Flows(ctx context.Context) (types.FlowSnapshot, error)
	PeerStocks(ctx context.Context, index string) ([]types.PeerStock, error)
	CalendarEvents(ctx context.Context) ([]types.CalendarEvent, error)
}
