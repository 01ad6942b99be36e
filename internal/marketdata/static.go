package marketdata

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"options-advisor/internal/interfaces"
	"options-advisor/internal/types"
)

// staticBaseSpot anchors the synthetic walk per index.
var staticBaseSpot = map[string]float64{
	"NIFTY":     22500,
	"BANKNIFTY": 48000,
}

// StaticSource produces synthetic but internally consistent market data for
// dry runs: a gently bullish tape so the whole pipeline exercises end to
// end without any network access. Seeded per day, so repeated runs within a
// session see the same tape.
type StaticSource struct {
	gaps     map[string]float64
	calendar []types.CalendarEvent

	mu  sync.Mutex
	rng *rand.Rand
}

var _ interfaces.MarketData = (*StaticSource)(nil)

// NewStaticSource creates a synthetic source. gaps maps index name to
// strike gap, matching the configured indices.
func NewStaticSource(gaps map[string]float64, calendar []types.CalendarEvent) *StaticSource {
	day := time.Now().In(types.IST)
	seed := int64(day.Year())*10000 + int64(day.YearDay())
	return &StaticSource{
		gaps:     gaps,
		calendar: calendar,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

func (s *StaticSource) float(scale float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (s.rng.Float64() - 0.5) * 2 * scale
}

func (s *StaticSource) baseSpot(index string) float64 {
	if spot, ok := staticBaseSpot[index]; ok {
		return spot
	}
	return 20000
}

func (s *StaticSource) gap(index string) float64 {
	if g, ok := s.gaps[index]; ok && g > 0 {
		return g
	}
	return 50
}

func (s *StaticSource) SpotPrice(ctx context.Context, index string) (float64, error) {
	return s.baseSpot(index) + s.float(s.gap(index)*0.4), nil
}

// OptionChain builds a chain of 21 strikes around the money. Put OI runs
// ahead of call OI so the synthetic tape reads mildly bullish.
func (s *StaticSource) OptionChain(ctx context.Context, index string) (*types.OptionChainSnapshot, error) {
	spot, _ := s.SpotPrice(ctx, index)
	gap := s.gap(index)
	atm := math.Round(spot/gap) * gap

	snapshot := &types.OptionChainSnapshot{
		Index:     index,
		SpotPrice: spot,
		FetchedAt: time.Now(),
	}

	for i := -10; i <= 10; i++ {
		strike := atm + float64(i)*gap
		dist := math.Abs(float64(i))

		// OI peaks at the money and decays outward.
		baseOI := 500000 * math.Exp(-dist/4)
		ce := types.OptionQuote{
			OI:       baseOI * (1 + s.float(0.1)),
			OIChange: 10000 * (1 + s.float(0.5)),
			Volume:   baseOI / 3,
			IV:       12 + dist*0.4 + s.float(0.5),
			LTP:      optionPremium(spot, strike, gap, types.Call),
		}
		pe := types.OptionQuote{
			OI:       baseOI * 1.3 * (1 + s.float(0.1)),
			OIChange: 25000 * (1 + s.float(0.5)),
			Volume:   baseOI / 2,
			IV:       13 + dist*0.4 + s.float(0.5),
			LTP:      optionPremium(spot, strike, gap, types.Put),
		}
		snapshot.Strikes = append(snapshot.Strikes, types.StrikeRow{
			StrikePrice: strike,
			CE:          ce,
			PE:          pe,
		})
	}
	snapshot.MaxPain = maxPain(snapshot.Strikes)
	return snapshot, nil
}

// optionPremium is intrinsic value plus a distance-decayed time value. Crude
// but keeps premiums positive and ordered across the chain.
func optionPremium(spot, strike, gap float64, ot types.OptionType) float64 {
	var intrinsic float64
	if ot == types.Call {
		intrinsic = math.Max(0, spot-strike)
	} else {
		intrinsic = math.Max(0, strike-spot)
	}
	dist := math.Abs(spot-strike) / gap
	timeValue := gap * 1.2 * math.Exp(-dist/3)
	return math.Round((intrinsic+timeValue)*100) / 100
}

// RecentCandles walks a mild uptrend so technicals read bullish in dry runs.
func (s *StaticSource) RecentCandles(ctx context.Context, index string, n int) ([]types.Candle, error) {
	base := s.baseSpot(index) * 0.995
	step := s.baseSpot(index) * 0.0001
	now := time.Now().Unix()

	candles := make([]types.Candle, 0, n)
	for i := 0; i < n; i++ {
		c := base + float64(i)*step + s.float(step*2)
		h := c + math.Abs(s.float(step*3))
		l := c - math.Abs(s.float(step*3))
		candles = append(candles, types.Candle{
			Ts:    now - int64((n-i)*300),
			Open:  c - step/2,
			High:  h,
			Low:   l,
			Close: c,
			Vol:   100000 + math.Abs(s.float(20000)),
		})
	}
	return candles, nil
}

func (s *StaticSource) VIX(ctx context.Context) (float64, error) {
	return 13.5 + s.float(1.0), nil
}

func (s *StaticSource) Flows(ctx context.Context) (types.FlowSnapshot, error) {
	return types.FlowSnapshot{
		Date:            time.Now().In(types.IST),
		CashNet:         1200 + s.float(300),
		IndexFuturesNet: 350 + s.float(100),
		LongShortRatio:  1.4,
	}, nil
}

func (s *StaticSource) PeerStocks(ctx context.Context, index string) ([]types.PeerStock, error) {
	peers, ok := indexPeers[index]
	if !ok {
		return nil, nil
	}
	out := make([]types.PeerStock, len(peers))
	for i, p := range peers {
		trend := types.Bullish
		if i%3 == 2 {
			trend = types.Neutral
		}
		out[i] = types.PeerStock{Symbol: p.Symbol, Weight: p.Weight, Trend: trend}
	}
	return out, nil
}

func (s *StaticSource) CalendarEvents(ctx context.Context) ([]types.CalendarEvent, error) {
	return s.calendar, nil
}
