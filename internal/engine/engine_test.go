package engine

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"options-advisor/internal/gate"
	"options-advisor/internal/logger"
	"options-advisor/internal/types"
)

func TestMain(m *testing.M) {
	logger.InitWithConfig(logger.LogConfig{Level: "ERROR", Format: "text"})
	os.Exit(m.Run())
}

// memStore is an in-memory SuggestionStore for engine tests.
type memStore struct {
	mu   sync.Mutex
	byID map[string]*types.Suggestion
}

func newMemStore() *memStore {
	return &memStore{byID: make(map[string]*types.Suggestion)}
}

func clone(sg *types.Suggestion) *types.Suggestion {
	c := *sg
	return &c
}

func (m *memStore) Insert(ctx context.Context, sg *types.Suggestion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[sg.ID]; ok {
		return fmt.Errorf("duplicate id %s", sg.ID)
	}
	m.byID[sg.ID] = clone(sg)
	return nil
}

func (m *memStore) Update(ctx context.Context, sg *types.Suggestion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[sg.ID]; !ok {
		return fmt.Errorf("unknown id %s", sg.ID)
	}
	m.byID[sg.ID] = clone(sg)
	return nil
}

func (m *memStore) Get(ctx context.Context, id string) (*types.Suggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sg, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("unknown id %s", id)
	}
	return clone(sg), nil
}

func (m *memStore) all() []*types.Suggestion {
	out := make([]*types.Suggestion, 0, len(m.byID))
	for _, sg := range m.byID {
		out = append(out, clone(sg))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *memStore) Open(ctx context.Context) ([]*types.Suggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.Suggestion
	for _, sg := range m.all() {
		if sg.Status.Open() {
			out = append(out, sg)
		}
	}
	return out, nil
}

func (m *memStore) Recent(ctx context.Context, n int) ([]*types.Suggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.all()
	var out []*types.Suggestion
	for i := len(all) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (m *memStore) CountOpen(ctx context.Context) (int, error) {
	open, _ := m.Open(ctx)
	return len(open), nil
}

func (m *memStore) RealizedLossSince(ctx context.Context, since time.Time) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var loss float64
	for _, sg := range m.byID {
		if sg.Status == types.StatusSLHit && sg.StopLossAt != nil && !sg.StopLossAt.Before(since) {
			if sg.PnlAmount < 0 {
				loss -= sg.PnlAmount
			} else {
				loss += sg.PnlAmount
			}
		}
	}
	return loss, nil
}

func (m *memStore) Close() error { return nil }

// recNotifier records every event it receives.
type recNotifier struct {
	mu     sync.Mutex
	events []types.Event
}

func (n *recNotifier) Notify(ctx context.Context, ev types.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func (n *recNotifier) kinds() []types.EventKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]types.EventKind, len(n.events))
	for i, ev := range n.events {
		out[i] = ev.Kind
	}
	return out
}

// stubMarket returns canned reads.
type stubMarket struct {
	chain   *types.OptionChainSnapshot
	candles []types.Candle
	vix     float64
	flows   types.FlowSnapshot
	peers   []types.PeerStock
	events  []types.CalendarEvent
}

func (s *stubMarket) OptionChain(ctx context.Context, index string) (*types.OptionChainSnapshot, error) {
	if s.chain == nil {
		return nil, fmt.Errorf("no chain for %s", index)
	}
	return s.chain, nil
}
func (s *stubMarket) SpotPrice(ctx context.Context, index string) (float64, error) {
	return s.chain.SpotPrice, nil
}
func (s *stubMarket) RecentCandles(ctx context.Context, index string, n int) ([]types.Candle, error) {
	return s.candles, nil
}
func (s *stubMarket) VIX(ctx context.Context) (float64, error) { return s.vix, nil }
func (s *stubMarket) Flows(ctx context.Context) (types.FlowSnapshot, error) {
	return s.flows, nil
}
func (s *stubMarket) PeerStocks(ctx context.Context, index string) ([]types.PeerStock, error) {
	return s.peers, nil
}
func (s *stubMarket) CalendarEvents(ctx context.Context) ([]types.CalendarEvent, error) {
	return s.events, nil
}

type stubNews struct{ pulse types.NewsPulse }

func (s *stubNews) Pulse(ctx context.Context) types.NewsPulse { return s.pulse }

// wednesday is a mid-session weekday clock reading.
var wednesday = time.Date(2026, 8, 26, 11, 0, 0, 0, types.IST)

func gateSettings() gate.Settings {
	return gate.Settings{
		OpenMinute:        9*60 + 15,
		CloseMinute:       15*60 + 30,
		AvoidLunch:        true,
		TotalCapital:      100000,
		DailyLossLimitPct: 3,
		MaxOpenPositions:  3,
	}
}

// bullishChain builds a chain whose PCR, OI build-up and ATM pricing all
// favor calls, with the given spot and a 20000 strike priced at 100.
func bullishTestChain(spot float64) *types.OptionChainSnapshot {
	return &types.OptionChainSnapshot{
		Index:     "NIFTY",
		SpotPrice: spot,
		Strikes: []types.StrikeRow{
			{StrikePrice: 19900,
				CE: types.OptionQuote{OI: 1000, OIChange: 50, LTP: 160},
				PE: types.OptionQuote{OI: 1300, OIChange: 300, LTP: 60}},
			{StrikePrice: 19950,
				CE: types.OptionQuote{OI: 1000, OIChange: 50, LTP: 130},
				PE: types.OptionQuote{OI: 1300, OIChange: 300, LTP: 80}},
			{StrikePrice: 20000,
				CE: types.OptionQuote{OI: 1000, OIChange: 50, IV: 12, LTP: 100},
				PE: types.OptionQuote{OI: 1300, OIChange: 300, IV: 13, LTP: 110}},
		},
		FetchedAt: wednesday,
	}
}

func risingCandles(n int) []types.Candle {
	out := make([]types.Candle, n)
	for i := range out {
		c := 19000 + float64(i)*10
		out[i] = types.Candle{Open: c - 4, High: c + 8, Low: c - 8, Close: c}
	}
	return out
}

func fallingCandles(n int) []types.Candle {
	out := make([]types.Candle, n)
	for i := range out {
		c := 21000 - float64(i)*10
		out[i] = types.Candle{Open: c + 4, High: c + 8, Low: c - 8, Close: c}
	}
	return out
}

func newTestEngine(market *stubMarket, store *memStore, notifier *recNotifier, now time.Time) *Engine {
	g := gate.New(gateSettings(), store)
	return New(Settings{
		StrikeGaps:    map[string]float64{"NIFTY": 50, "BANKNIFTY": 100},
		ExpiryWeekday: time.Thursday,
		Now:           func() time.Time { return now },
	}, market, store, notifier, &stubNews{pulse: types.NewsPulse{Bullish: 3, Bearish: 1}}, g)
}
