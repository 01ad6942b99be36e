package ta

import (
	"math"
	"testing"

	"options-advisor/internal/types"
)

func linear(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestRSIBoundary(t *testing.T) {
	closes := linear(15, 100, 1)
	if got := RSI(closes, 14); math.IsNaN(got) {
		t.Fatalf("RSI with period+1 values should be defined, got NaN")
	}
	if got := RSI(closes[:14], 14); !math.IsNaN(got) {
		t.Errorf("RSI with period values should be NaN, got %v", got)
	}
}

func TestRSIRange(t *testing.T) {
	closes := []float64{100, 102, 101, 103, 99, 104, 102, 105, 103, 106, 101, 107, 104, 108, 105, 109, 103, 110}
	got := RSI(closes, 14)
	if got < 0 || got > 100 {
		t.Errorf("RSI out of range: %v", got)
	}
}

func TestRSIAllGains(t *testing.T) {
	if got := RSI(linear(20, 100, 1), 14); got != 100 {
		t.Errorf("RSI on monotonic gains = %v, want 100", got)
	}
}

func TestEMABoundary(t *testing.T) {
	if got := EMA(linear(20, 100, 1), 20); math.IsNaN(got) {
		t.Errorf("EMA at exactly period values should be defined")
	}
	if got := EMA(linear(19, 100, 1), 20); !math.IsNaN(got) {
		t.Errorf("EMA below period should be NaN, got %v", got)
	}
}

func TestEMASeedIsSMA(t *testing.T) {
	prices := []float64{2, 4, 6, 8}
	if got := EMA(prices, 4); got != 5 {
		t.Errorf("EMA with len==period = %v, want the simple average 5", got)
	}
}

func TestMACDUndefined(t *testing.T) {
	if got := MACD(linear(25, 100, 1)); got != nil {
		t.Errorf("MACD with 25 values should be nil, got %+v", got)
	}
	got := MACD(linear(26, 100, 1))
	if got == nil {
		t.Fatal("MACD with 26 values should be defined")
	}
	if got.Signal != types.Bullish {
		t.Errorf("MACD on a rising series = %v, want BULLISH", got.Signal)
	}
}

func TestBollingerOrdering(t *testing.T) {
	prices := []float64{100, 101, 99, 102, 98, 103, 97, 104, 96, 105, 100, 101, 99, 102, 98, 103, 97, 104, 96, 105}
	b := Bollinger(prices, 20, 2)
	if b == nil {
		t.Fatal("Bollinger with 20 values should be defined")
	}
	if !(b.Lower < b.Middle && b.Middle < b.Upper) {
		t.Errorf("band ordering violated: %+v", b)
	}
	if b.Bandwidth <= 0 {
		t.Errorf("bandwidth should be positive, got %v", b.Bandwidth)
	}
	if Bollinger(prices[:19], 20, 2) != nil {
		t.Error("Bollinger with 19 values should be nil")
	}
}

func TestSupertrendBoundary(t *testing.T) {
	highs := linear(10, 105, 1)
	lows := linear(10, 95, 1)
	closes := linear(10, 100, 1)
	st := Supertrend(highs, lows, closes, 10, 3)
	if st == nil {
		t.Fatal("Supertrend with exactly period bars should be defined")
	}
	if st.Signal != SignalBuy {
		t.Errorf("rising series above lower band should be BUY, got %v", st.Signal)
	}
	if st.UpperBand <= st.LowerBand {
		t.Errorf("band ordering violated: %+v", st)
	}
	if Supertrend(highs[:9], lows[:9], closes[:9], 10, 3) != nil {
		t.Error("Supertrend with period-1 bars should be nil")
	}
}

func TestADXBoundary(t *testing.T) {
	highs := linear(28, 105, 2)
	lows := linear(28, 95, 2)
	closes := linear(28, 100, 2)
	adx := ADX(highs, lows, closes, 14)
	if adx == nil {
		t.Fatal("ADX with 2*period bars should be defined")
	}
	if !adx.Trend.IsBullish() {
		t.Errorf("strongly rising series should classify bullish, got %v", adx.Trend)
	}
	if ADX(highs[:27], lows[:27], closes[:27], 14) != nil {
		t.Error("ADX with 2*period-1 bars should be nil")
	}
}

func TestADXFlatSeries(t *testing.T) {
	flat := make([]float64, 30)
	for i := range flat {
		flat[i] = 100
	}
	adx := ADX(flat, flat, flat, 14)
	if adx == nil {
		t.Fatal("flat series should still produce a result")
	}
	if adx.Trend != types.Neutral {
		t.Errorf("flat series = %v, want NEUTRAL", adx.Trend)
	}
}

func candlesFrom(closes []float64) []types.Candle {
	out := make([]types.Candle, len(closes))
	for i, c := range closes {
		out[i] = types.Candle{Open: c - 0.5, High: c + 1, Low: c - 1, Close: c}
	}
	return out
}

func TestAnalyzeRisingSeries(t *testing.T) {
	a := Analyze(candlesFrom(linear(60, 100, 0.5)))
	if !a.Overall.IsBullish() {
		t.Errorf("steadily rising series classified %v, want bullish", a.Overall)
	}
	if a.BullishVotes <= a.BearishVotes {
		t.Errorf("votes %d/%d, want bullish majority", a.BullishVotes, a.BearishVotes)
	}
}

func TestAnalyzeShortSeries(t *testing.T) {
	a := Analyze(candlesFrom(linear(5, 100, 1)))
	if a.MACD != nil || a.ADX != nil || a.Bollinger != nil {
		t.Error("composite indicators should be nil on a 5-bar series")
	}
	if !math.IsNaN(a.RSI) {
		t.Errorf("RSI should be NaN on a 5-bar series, got %v", a.RSI)
	}
}

func TestLevels(t *testing.T) {
	ls := Levels(candlesFrom(linear(30, 100, 1)))
	if ls == nil {
		t.Fatal("Levels on a populated series should be defined")
	}
	f := ls.Fibonacci
	if !(f.L236 > f.L382 && f.L382 > f.L500 && f.L500 > f.L618 && f.L618 > f.L786) {
		t.Errorf("fibonacci ordering violated: %+v", f)
	}
	p := ls.Pivots
	if !(p.R3 > p.R2 && p.R2 > p.R1 && p.R1 > p.Pivot && p.Pivot > p.S1 && p.S1 > p.S2 && p.S2 > p.S3) {
		t.Errorf("pivot ordering violated: %+v", p)
	}
	if Levels(nil) != nil {
		t.Error("Levels on empty series should be nil")
	}
}
