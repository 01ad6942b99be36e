package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"options-advisor/internal/api"
	"options-advisor/internal/types"
)

// yahooSymbol maps config index names to Yahoo Finance tickers.
var yahooSymbol = map[string]string{
	"NIFTY":     "%5ENSEI",
	"BANKNIFTY": "%5ENSEBANK",
}

// YahooClient fetches intraday index candles from the Yahoo Finance chart
// API. It backs RecentCandles when no broker session is configured.
type YahooClient struct {
	client  *api.Client
	limiter *rateLimiter
}

func NewYahooClient() *YahooClient {
	return &YahooClient{
		client:  api.NewClient(api.WithTimeout(20 * time.Second)),
		limiter: newRateLimiter(5, time.Second),
	}
}

// RecentCandles returns the last n 5-minute candles for an index.
func (y *YahooClient) RecentCandles(ctx context.Context, index string, n int) ([]types.Candle, error) {
	symbol, ok := yahooSymbol[index]
	if !ok {
		return nil, fmt.Errorf("no chart symbol for index %q", index)
	}
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("https://query1.finance.yahoo.com/v8/finance/chart/%s?interval=5m&range=5d", symbol)
	resp, err := y.client.GET(ctx, url, api.YahooFinanceHeaders())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candles for %s: %w", index, err)
	}

	candles, err := parseYahooChart(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("candles for %s: %w", index, err)
	}
	if len(candles) > n {
		candles = candles[len(candles)-n:]
	}
	return candles, nil
}

type yahooChartPayload struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// parseYahooChart flattens the chart payload into candles. Yahoo emits null
// OHLC entries for halted intervals; those are skipped.
func parseYahooChart(data []byte) ([]types.Candle, error) {
	var payload yahooChartPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse chart response: %w", err)
	}
	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error: %s", payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart response has no quote data")
	}

	result := payload.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	candles := make([]types.Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Open[i] == nil || quote.High[i] == nil ||
			quote.Low[i] == nil || quote.Close[i] == nil {
			continue
		}
		c := types.Candle{
			Ts:    ts,
			Open:  *quote.Open[i],
			High:  *quote.High[i],
			Low:   *quote.Low[i],
			Close: *quote.Close[i],
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			c.Vol = *quote.Volume[i]
		}
		candles = append(candles, c)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("chart response has no usable candles")
	}
	return candles, nil
}
