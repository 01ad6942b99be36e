package marketdata

import (
	"context"

	"options-advisor/internal/interfaces"
	"options-advisor/internal/logger"
	"options-advisor/internal/types"
)

// LiveSource composes the real data feeds into one MarketData. Option
// chains, flows and peers always come from NSE. Spot, candles and VIX
// prefer the broker session when one is configured and fall back to the
// public endpoints otherwise.
type LiveSource struct {
	nse      *NSEClient
	yahoo    *YahooClient
	kite     *KiteClient
	calendar []types.CalendarEvent
}

var _ interfaces.MarketData = (*LiveSource)(nil)

// NewLiveSource wires the live feeds. kite may be nil.
func NewLiveSource(kite *KiteClient, calendar []types.CalendarEvent) *LiveSource {
	return &LiveSource{
		nse:      NewNSEClient(),
		yahoo:    NewYahooClient(),
		kite:     kite,
		calendar: calendar,
	}
}

func (l *LiveSource) OptionChain(ctx context.Context, index string) (*types.OptionChainSnapshot, error) {
	return l.nse.OptionChain(ctx, index)
}

func (l *LiveSource) SpotPrice(ctx context.Context, index string) (float64, error) {
	if l.kite != nil {
		spot, err := l.kite.SpotPrice(ctx, index)
		if err == nil {
			return spot, nil
		}
		logger.Warn(ctx, "Broker spot quote failed, falling back to NSE", "index", index, "error", err)
	}
	return l.nse.IndexSpot(ctx, index)
}

func (l *LiveSource) RecentCandles(ctx context.Context, index string, n int) ([]types.Candle, error) {
	if l.kite != nil {
		candles, err := l.kite.RecentCandles(ctx, index, n)
		if err == nil {
			return candles, nil
		}
		logger.Warn(ctx, "Broker candles failed, falling back to chart API", "index", index, "error", err)
	}
	return l.yahoo.RecentCandles(ctx, index, n)
}

func (l *LiveSource) VIX(ctx context.Context) (float64, error) {
	if l.kite != nil {
		vix, err := l.kite.VIX(ctx)
		if err == nil {
			return vix, nil
		}
		logger.Warn(ctx, "Broker VIX quote failed, falling back to NSE", "error", err)
	}
	return l.nse.VIX(ctx)
}

func (l *LiveSource) Flows(ctx context.Context) (types.FlowSnapshot, error) {
	return l.nse.Flows(ctx)
}

func (l *LiveSource) PeerStocks(ctx context.Context, index string) ([]types.PeerStock, error) {
	return l.nse.PeerStocks(ctx, index)
}

func (l *LiveSource) CalendarEvents(ctx context.Context) ([]types.CalendarEvent, error) {
	return l.calendar, nil
}
