package marketdata

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"options-advisor/internal/types"
)

const chainFixture = `{
  "records": {
    "expiryDates": ["28-Aug-2026", "04-Sep-2026"],
    "underlyingValue": 22518.3,
    "data": [
      {"strikePrice": 22450, "expiryDate": "28-Aug-2026",
       "CE": {"openInterest": 1000, "changeinOpenInterest": 50, "totalTradedVolume": 400, "impliedVolatility": 12.1, "lastPrice": 110.5},
       "PE": {"openInterest": 2400, "changeinOpenInterest": 300, "totalTradedVolume": 900, "impliedVolatility": 13.0, "lastPrice": 42.2}},
      {"strikePrice": 22500, "expiryDate": "28-Aug-2026",
       "CE": {"openInterest": 3000, "changeinOpenInterest": 120, "totalTradedVolume": 1500, "impliedVolatility": 11.8, "lastPrice": 82.0},
       "PE": {"openInterest": 3500, "changeinOpenInterest": 500, "totalTradedVolume": 1700, "impliedVolatility": 12.4, "lastPrice": 63.5}},
      {"strikePrice": 22500, "expiryDate": "04-Sep-2026",
       "CE": {"openInterest": 99999, "changeinOpenInterest": 1, "totalTradedVolume": 1, "impliedVolatility": 1, "lastPrice": 1},
       "PE": {"openInterest": 99999, "changeinOpenInterest": 1, "totalTradedVolume": 1, "impliedVolatility": 1, "lastPrice": 1}},
      {"strikePrice": 22550, "expiryDate": "28-Aug-2026",
       "CE": {"openInterest": 2600, "changeinOpenInterest": 80, "totalTradedVolume": 1100, "impliedVolatility": 12.0, "lastPrice": 58.3}}
    ]
  }
}`

func TestParseOptionChainNearestExpiryOnly(t *testing.T) {
	snap, err := parseOptionChain([]byte(chainFixture), "NIFTY")
	require.NoError(t, err)

	require.Equal(t, "NIFTY", snap.Index)
	require.InDelta(t, 22518.3, snap.SpotPrice, 1e-9)
	require.Len(t, snap.Strikes, 3, "far expiry rows must be filtered out")

	atm := snap.Strike(22500)
	require.NotNil(t, atm)
	require.InDelta(t, 82.0, atm.CE.LTP, 1e-9)
	require.InDelta(t, 3500.0, atm.PE.OI, 1e-9)

	// Row missing its PE leg still parses with a zero quote.
	upper := snap.Strike(22550)
	require.NotNil(t, upper)
	require.Zero(t, upper.PE.OI)

	require.Greater(t, snap.MaxPain, 0.0)
}

func TestParseOptionChainNoExpiries(t *testing.T) {
	_, err := parseOptionChain([]byte(`{"records":{"expiryDates":[],"data":[]}}`), "NIFTY")
	require.Error(t, err)
}

func TestParseIndexLast(t *testing.T) {
	fixture := `{"data":[{"index":"NIFTY 50","last":22510.4},{"index":"INDIA VIX","last":13.72}]}`

	spot, err := parseIndexLast([]byte(fixture), "NIFTY 50")
	require.NoError(t, err)
	require.InDelta(t, 22510.4, spot, 1e-9)

	vix, err := parseIndexLast([]byte(fixture), "INDIA VIX")
	require.NoError(t, err)
	require.InDelta(t, 13.72, vix, 1e-9)

	_, err = parseIndexLast([]byte(fixture), "NIFTY BANK")
	require.Error(t, err)
}

func TestParseFlows(t *testing.T) {
	fixture := `[
      {"category":"DII **","date":"27-Aug-2026","buyValue":"9,100.50","sellValue":"8,000.25","netValue":"1,100.25"},
      {"category":"FII/FPI *","date":"27-Aug-2026","buyValue":"12,345.60","sellValue":"11,000.10","netValue":"1,345.50"}
    ]`

	snap, err := parseFlows([]byte(fixture))
	require.NoError(t, err)
	require.InDelta(t, 1345.50, snap.CashNet, 1e-9)
	require.InDelta(t, 12345.60/11000.10, snap.LongShortRatio, 1e-9)
	require.Equal(t, 2026, snap.Date.Year())
}

func TestParseFlowsNoFIIRow(t *testing.T) {
	_, err := parseFlows([]byte(`[{"category":"DII **","netValue":"5"}]`))
	require.Error(t, err)
}

func TestParseConstituents(t *testing.T) {
	fixture := `{"data":[
      {"symbol":"NIFTY 50","pChange":0.4},
      {"symbol":"HDFCBANK","pChange":1.4},
      {"symbol":"RELIANCE","pChange":0.3},
      {"symbol":"ICICIBANK","pChange":-1.2},
      {"symbol":"INFY","pChange":0.05}
    ]}`

	peers, err := parseConstituents([]byte(fixture), indexPeers["NIFTY"])
	require.NoError(t, err)
	require.Len(t, peers, 4, "TCS missing from payload should be skipped")

	bySymbol := map[string]types.Trend{}
	for _, p := range peers {
		bySymbol[p.Symbol] = p.Trend
	}
	require.Equal(t, types.StrongBullish, bySymbol["HDFCBANK"])
	require.Equal(t, types.Bullish, bySymbol["RELIANCE"])
	require.Equal(t, types.StrongBearish, bySymbol["ICICIBANK"])
	require.Equal(t, types.Neutral, bySymbol["INFY"])
}

func TestTrendFromChange(t *testing.T) {
	cases := []struct {
		pct  float64
		want types.Trend
	}{
		{2.5, types.StrongBullish},
		{1.0, types.StrongBullish},
		{0.5, types.Bullish},
		{0.0, types.Neutral},
		{-0.1, types.Neutral},
		{-0.5, types.Bearish},
		{-1.8, types.StrongBearish},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, trendFromChange(tc.pct), "pct=%v", tc.pct)
	}
}

func TestParseYahooChart(t *testing.T) {
	fixture := `{"chart":{"result":[{
      "timestamp":[1756350000,1756350300,1756350600],
      "indicators":{"quote":[{
        "open":[22500.0,null,22510.0],
        "high":[22512.0,null,22520.0],
        "low":[22495.0,null,22505.0],
        "close":[22508.0,null,22515.0],
        "volume":[120000,null,90000]
      }]}}],"error":null}}`

	candles, err := parseYahooChart([]byte(fixture))
	require.NoError(t, err)
	require.Len(t, candles, 2, "null interval must be skipped")
	require.Equal(t, int64(1756350000), candles[0].Ts)
	require.InDelta(t, 22508.0, candles[0].Close, 1e-9)
	require.InDelta(t, 90000.0, candles[1].Vol, 1e-9)
}

func TestParseYahooChartError(t *testing.T) {
	_, err := parseYahooChart([]byte(`{"chart":{"result":null,"error":{"description":"No data found"}}}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "No data found")
}

func TestMaxPainPrefersHeavyOIStrike(t *testing.T) {
	strikes := []types.StrikeRow{
		{StrikePrice: 100, CE: types.OptionQuote{OI: 100}, PE: types.OptionQuote{OI: 100}},
		{StrikePrice: 110, CE: types.OptionQuote{OI: 5000}, PE: types.OptionQuote{OI: 5000}},
		{StrikePrice: 120, CE: types.OptionQuote{OI: 100}, PE: types.OptionQuote{OI: 100}},
	}
	require.InDelta(t, 110.0, maxPain(strikes), 1e-9)
}

func TestStaticSourceChainShape(t *testing.T) {
	src := NewStaticSource(map[string]float64{"NIFTY": 50}, nil)
	ctx := context.Background()

	snap, err := src.OptionChain(ctx, "NIFTY")
	require.NoError(t, err)
	require.Len(t, snap.Strikes, 21)
	require.Greater(t, snap.SpotPrice, 0.0)

	var totalCE, totalPE float64
	for i, row := range snap.Strikes {
		require.Greater(t, row.CE.LTP, 0.0)
		require.Greater(t, row.PE.LTP, 0.0)
		if i > 0 {
			require.InDelta(t, 50.0, row.StrikePrice-snap.Strikes[i-1].StrikePrice, 1e-9)
		}
		totalCE += row.CE.OI
		totalPE += row.PE.OI
	}
	require.Greater(t, totalPE, totalCE, "synthetic tape should lean bullish (PCR above 1)")

	// Every strike the generator could round to must be present.
	atm := math.Round(snap.SpotPrice/50) * 50
	require.NotNil(t, snap.Strike(atm))
	require.NotNil(t, snap.Strike(atm+50))
	require.NotNil(t, snap.Strike(atm-50))
}

func TestStaticSourceCandlesTrendUp(t *testing.T) {
	src := NewStaticSource(map[string]float64{"NIFTY": 50}, nil)
	candles, err := src.RecentCandles(context.Background(), "NIFTY", 60)
	require.NoError(t, err)
	require.Len(t, candles, 60)
	require.Greater(t, candles[59].Close, candles[0].Close)
	for _, c := range candles {
		require.GreaterOrEqual(t, c.High, c.Close)
		require.LessOrEqual(t, c.Low, c.Close)
	}
}

func TestStaticSourceScalars(t *testing.T) {
	src := NewStaticSource(map[string]float64{"NIFTY": 50}, nil)
	ctx := context.Background()

	vix, err := src.VIX(ctx)
	require.NoError(t, err)
	require.Greater(t, vix, 10.0)
	require.Less(t, vix, 20.0)

	flows, err := src.Flows(ctx)
	require.NoError(t, err)
	require.Greater(t, flows.CashNet, 0.0)
	require.Greater(t, flows.IndexFuturesNet, 0.0)

	peers, err := src.PeerStocks(ctx, "NIFTY")
	require.NoError(t, err)
	require.NotEmpty(t, peers)

	unknown, err := src.PeerStocks(ctx, "MIDCPNIFTY")
	require.NoError(t, err)
	require.Nil(t, unknown)
}

func TestOptionPremiumOrdering(t *testing.T) {
	spot, gap := 22500.0, 50.0
	itm := optionPremium(spot, 22400, gap, types.Call)
	atm := optionPremium(spot, 22500, gap, types.Call)
	otm := optionPremium(spot, 22600, gap, types.Call)
	require.Greater(t, itm, atm)
	require.Greater(t, atm, otm)
	require.Greater(t, otm, 0.0)
}
