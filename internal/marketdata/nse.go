// Package marketdata provides the market data sources the engine reads:
// a live source backed by NSE, Yahoo Finance and optionally Kite Connect,
// and a deterministic synthetic source for dry runs.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"options-advisor/internal/api"
	"options-advisor/internal/logger"
	"options-advisor/internal/types"
)

// nseSessionTTL bounds how long the warm-up cookies are trusted before the
// homepage is visited again.
const nseSessionTTL = 5 * time.Minute

// nseIndexName maps config index names to NSE's display names.
var nseIndexName = map[string]string{
	"NIFTY":     "NIFTY 50",
	"BANKNIFTY": "NIFTY BANK",
	"FINNIFTY":  "NIFTY FINANCIAL SERVICES",
}

// indexPeers lists the heavyweight constituents sampled for peer
// confirmation, with their approximate index weights.
var indexPeers = map[string][]types.PeerStock{
	"NIFTY": {
		{Symbol: "HDFCBANK", Weight: 11.2},
		{Symbol: "RELIANCE", Weight: 9.8},
		{Symbol: "ICICIBANK", Weight: 7.9},
		{Symbol: "INFY", Weight: 5.2},
		{Symbol: "TCS", Weight: 3.9},
	},
	"BANKNIFTY": {
		{Symbol: "HDFCBANK", Weight: 27.5},
		{Symbol: "ICICIBANK", Weight: 23.1},
		{Symbol: "SBIN", Weight: 10.4},
		{Symbol: "KOTAKBANK", Weight: 9.6},
		{Symbol: "AXISBANK", Weight: 9.2},
	},
}

// NSEClient talks to the public NSE India JSON endpoints. NSE gates them
// behind session cookies, so the client keeps a cookie jar and re-visits the
// homepage whenever the session goes stale.
type NSEClient struct {
	client  *api.Client
	baseURL string
	limiter *rateLimiter

	mu       sync.Mutex
	warmedAt time.Time
}

// NewNSEClient creates a new NSE API client.
func NewNSEClient() *NSEClient {
	return &NSEClient{
		client: api.NewClient(
			api.WithTimeout(30*time.Second),
			api.WithCookieJar(),
		),
		baseURL: "https://www.nseindia.com",
		limiter: newRateLimiter(3, 2*time.Second),
	}
}

// warm fetches the NSE homepage so the jar holds a fresh session cookie.
func (n *NSEClient) warm(ctx context.Context) {
	n.mu.Lock()
	stale := time.Since(n.warmedAt) > nseSessionTTL
	if stale {
		n.warmedAt = time.Now()
	}
	n.mu.Unlock()
	if !stale {
		return
	}

	if _, err := n.client.GET(ctx, n.baseURL, api.BrowserHeaders()); err != nil {
		logger.Warn(ctx, "NSE session warm-up failed", "error", err)
	}
}

func (n *NSEClient) get(ctx context.Context, path string) ([]byte, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	n.warm(ctx)

	resp, err := n.client.GET(ctx, n.baseURL+path, api.NSEHeaders())
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// OptionChain fetches the option chain for the nearest expiry of an index.
func (n *NSEClient) OptionChain(ctx context.Context, index string) (*types.OptionChainSnapshot, error) {
	data, err := n.get(ctx, "/api/option-chain-indices?symbol="+url.QueryEscape(index))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch option chain for %s: %w", index, err)
	}
	return parseOptionChain(data, index)
}

// IndexSpot returns the last traded value of an index.
func (n *NSEClient) IndexSpot(ctx context.Context, index string) (float64, error) {
	name, ok := nseIndexName[index]
	if !ok {
		return 0, fmt.Errorf("unknown index %q", index)
	}
	data, err := n.get(ctx, "/api/allIndices")
	if err != nil {
		return 0, fmt.Errorf("failed to fetch index quotes: %w", err)
	}
	return parseIndexLast(data, name)
}

// VIX returns the current India VIX level.
func (n *NSEClient) VIX(ctx context.Context) (float64, error) {
	data, err := n.get(ctx, "/api/allIndices")
	if err != nil {
		return 0, fmt.Errorf("failed to fetch index quotes: %w", err)
	}
	return parseIndexLast(data, "INDIA VIX")
}

// Flows returns the latest FII trade activity.
func (n *NSEClient) Flows(ctx context.Context) (types.FlowSnapshot, error) {
	data, err := n.get(ctx, "/api/fiidiiTradeReact")
	if err != nil {
		return types.FlowSnapshot{}, fmt.Errorf("failed to fetch FII/DII flows: %w", err)
	}
	return parseFlows(data)
}

// PeerStocks samples the heavyweight constituents of an index and classifies
// each one's day move into a trend.
func (n *NSEClient) PeerStocks(ctx context.Context, index string) ([]types.PeerStock, error) {
	peers, ok := indexPeers[index]
	if !ok {
		return nil, nil
	}
	name, ok := nseIndexName[index]
	if !ok {
		return nil, fmt.Errorf("unknown index %q", index)
	}

	data, err := n.get(ctx, "/api/equity-stockIndices?index="+url.QueryEscape(name))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch index constituents: %w", err)
	}
	return parseConstituents(data, peers)
}

// Raw NSE payload shapes. Only the fields we read are declared.

type nseChainPayload struct {
	Records struct {
		ExpiryDates     []string `json:"expiryDates"`
		UnderlyingValue float64  `json:"underlyingValue"`
		Data            []struct {
			StrikePrice float64       `json:"strikePrice"`
			ExpiryDate  string        `json:"expiryDate"`
			CE          *nseLegFields `json:"CE"`
			PE          *nseLegFields `json:"PE"`
		} `json:"data"`
	} `json:"records"`
}

type nseLegFields struct {
	OpenInterest         float64 `json:"openInterest"`
	ChangeInOpenInterest float64 `json:"changeinOpenInterest"`
	TotalTradedVolume    float64 `json:"totalTradedVolume"`
	ImpliedVolatility    float64 `json:"impliedVolatility"`
	LastPrice            float64 `json:"lastPrice"`
}

func parseOptionChain(data []byte, index string) (*types.OptionChainSnapshot, error) {
	var payload nseChainPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse option chain: %w", err)
	}
	if len(payload.Records.ExpiryDates) == 0 {
		return nil, fmt.Errorf("option chain for %s has no expiries", index)
	}

	nearest := payload.Records.ExpiryDates[0]
	snapshot := &types.OptionChainSnapshot{
		Index:     index,
		SpotPrice: payload.Records.UnderlyingValue,
		FetchedAt: time.Now(),
	}

	for _, row := range payload.Records.Data {
		if row.ExpiryDate != nearest {
			continue
		}
		strike := types.StrikeRow{StrikePrice: row.StrikePrice}
		if row.CE != nil {
			strike.CE = quoteFromLeg(row.CE)
		}
		if row.PE != nil {
			strike.PE = quoteFromLeg(row.PE)
		}
		snapshot.Strikes = append(snapshot.Strikes, strike)
	}

	if len(snapshot.Strikes) == 0 {
		return nil, fmt.Errorf("option chain for %s expiry %s is empty", index, nearest)
	}
	snapshot.MaxPain = maxPain(snapshot.Strikes)
	return snapshot, nil
}

func quoteFromLeg(leg *nseLegFields) types.OptionQuote {
	return types.OptionQuote{
		OI:       leg.OpenInterest,
		OIChange: leg.ChangeInOpenInterest,
		Volume:   leg.TotalTradedVolume,
		IV:       leg.ImpliedVolatility,
		LTP:      leg.LastPrice,
	}
}

// maxPain returns the strike at which option writers' total payout across
// the chain is smallest.
func maxPain(strikes []types.StrikeRow) float64 {
	best, bestPain := 0.0, math.Inf(1)
	for _, candidate := range strikes {
		pain := 0.0
		for _, row := range strikes {
			pain += row.CE.OI * math.Max(0, candidate.StrikePrice-row.StrikePrice)
			pain += row.PE.OI * math.Max(0, row.StrikePrice-candidate.StrikePrice)
		}
		if pain < bestPain {
			best, bestPain = candidate.StrikePrice, pain
		}
	}
	return best
}

type nseIndicesPayload struct {
	Data []struct {
		Index string  `json:"index"`
		Last  float64 `json:"last"`
	} `json:"data"`
}

func parseIndexLast(data []byte, name string) (float64, error) {
	var payload nseIndicesPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return 0, fmt.Errorf("failed to parse index quotes: %w", err)
	}
	for _, row := range payload.Data {
		if row.Index == name {
			return row.Last, nil
		}
	}
	return 0, fmt.Errorf("index %q not present in quotes response", name)
}

type nseFlowRow struct {
	Category  string `json:"category"`
	Date      string `json:"date"`
	BuyValue  string `json:"buyValue"`
	SellValue string `json:"sellValue"`
	NetValue  string `json:"netValue"`
}

func parseFlows(data []byte) (types.FlowSnapshot, error) {
	var rows []nseFlowRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return types.FlowSnapshot{}, fmt.Errorf("failed to parse flow data: %w", err)
	}

	for _, row := range rows {
		if !strings.HasPrefix(strings.ToUpper(row.Category), "FII") {
			continue
		}
		snap := types.FlowSnapshot{CashNet: parseIndianNumber(row.NetValue)}
		if d, err := time.Parse("02-Jan-2006", row.Date); err == nil {
			snap.Date = d
		}
		buy := parseIndianNumber(row.BuyValue)
		sell := parseIndianNumber(row.SellValue)
		if sell > 0 {
			snap.LongShortRatio = buy / sell
		}
		return snap, nil
	}
	return types.FlowSnapshot{}, fmt.Errorf("no FII row in flow data")
}

// parseIndianNumber strips the comma grouping NSE uses in numeric strings.
func parseIndianNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

type nseConstituentsPayload struct {
	Data []struct {
		Symbol  string  `json:"symbol"`
		PChange float64 `json:"pChange"`
	} `json:"data"`
}

func parseConstituents(data []byte, peers []types.PeerStock) ([]types.PeerStock, error) {
	var payload nseConstituentsPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse index constituents: %w", err)
	}

	changes := make(map[string]float64, len(payload.Data))
	for _, row := range payload.Data {
		changes[row.Symbol] = row.PChange
	}

	out := make([]types.PeerStock, 0, len(peers))
	for _, p := range peers {
		change, ok := changes[p.Symbol]
		if !ok {
			continue
		}
		out = append(out, types.PeerStock{
			Symbol: p.Symbol,
			Weight: p.Weight,
			Trend:  trendFromChange(change),
		})
	}
	return out, nil
}

// trendFromChange classifies a day percentage move.
func trendFromChange(pct float64) types.Trend {
	switch {
	case pct >= 1.0:
		return types.StrongBullish
	case pct >= 0.15:
		return types.Bullish
	case pct <= -1.0:
		return types.StrongBearish
	case pct <= -0.15:
		return types.Bearish
	default:
		return types.Neutral
	}
}
