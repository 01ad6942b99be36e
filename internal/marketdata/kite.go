package marketdata

import (
	"context"
	"fmt"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"options-advisor/internal/types"
)

// Kite instrument identities for the indices we track. Tokens are stable
// exchange identifiers, not per-session values.
var kiteInstrument = map[string]struct {
	Quote string
	Token int
}{
	"NIFTY":     {Quote: "NSE:NIFTY 50", Token: 256265},
	"BANKNIFTY": {Quote: "NSE:NIFTY BANK", Token: 260105},
}

const kiteVIXQuote = "NSE:INDIA VIX"

// KiteClient reads spot quotes and intraday candles over a Kite Connect
// session. It needs a valid daily access token; when one is not configured
// the live source falls back to the public endpoints.
type KiteClient struct {
	kc      *kiteconnect.Client
	limiter *rateLimiter
}

// NewKiteClient creates a Kite Connect backed quote client.
func NewKiteClient(apiKey, accessToken string) (*KiteClient, error) {
	if apiKey == "" || accessToken == "" {
		return nil, fmt.Errorf("kite api key and access token are required")
	}
	kc := kiteconnect.New(apiKey)
	kc.SetAccessToken(accessToken)
	return &KiteClient{
		kc:      kc,
		limiter: newRateLimiter(3, 350*time.Millisecond),
	}, nil
}

// SpotPrice returns the last traded index value.
func (k *KiteClient) SpotPrice(ctx context.Context, index string) (float64, error) {
	inst, ok := kiteInstrument[index]
	if !ok {
		return 0, fmt.Errorf("no kite instrument for index %q", index)
	}
	return k.ltp(ctx, inst.Quote)
}

// VIX returns the current India VIX level.
func (k *KiteClient) VIX(ctx context.Context) (float64, error) {
	return k.ltp(ctx, kiteVIXQuote)
}

func (k *KiteClient) ltp(ctx context.Context, quote string) (float64, error) {
	if err := k.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	quotes, err := k.kc.GetLTP(quote)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch LTP for %s: %w", quote, err)
	}
	q, ok := quotes[quote]
	if !ok {
		return 0, fmt.Errorf("no LTP returned for %s", quote)
	}
	return q.LastPrice, nil
}

// RecentCandles returns the last n 5-minute candles for an index.
func (k *KiteClient) RecentCandles(ctx context.Context, index string, n int) ([]types.Candle, error) {
	inst, ok := kiteInstrument[index]
	if !ok {
		return nil, fmt.Errorf("no kite instrument for index %q", index)
	}
	if err := k.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	// Five trading days covers the lookback even across a long weekend.
	to := time.Now().In(types.IST)
	from := to.AddDate(0, 0, -7)

	bars, err := k.kc.GetHistoricalData(inst.Token, "5minute", from, to, false, false)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candles for %s: %w", index, err)
	}

	candles := make([]types.Candle, 0, len(bars))
	for _, bar := range bars {
		candles = append(candles, types.Candle{
			Ts:    bar.Date.Unix(),
			Open:  bar.Open,
			High:  bar.High,
			Low:   bar.Low,
			Close: bar.Close,
			Vol:   float64(bar.Volume),
		})
	}
	if len(candles) > n {
		candles = candles[len(candles)-n:]
	}
	return candles, nil
}
