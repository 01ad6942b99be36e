package ta

import (
	"math"

	"options-advisor/internal/pattern"
	"options-advisor/internal/types"
)

// Analysis is the full indicator read over one candle series plus the
// vote-based overall classification the aggregator consumes.
type Analysis struct {
	RSI        float64
	EMA20      float64
	EMA50      float64
	MACD       *MACDResult
	Supertrend *SupertrendResult
	Bollinger  *BollingerResult
	ADX        *ADXResult
	Patterns   []pattern.Pattern

	BullishVotes int
	BearishVotes int
	Overall      types.Trend
}

// Analyze runs every indicator over the candles and tallies directional
// votes: RSI below 30 / above 70, last close against EMA20 and EMA50, the
// MACD signal, the Supertrend signal, a trending ADX, and each detected
// pattern. Overall is STRONG when one side leads by more than two votes.
func Analyze(candles []types.Candle) Analysis {
	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
	}

	a := Analysis{
		RSI:        RSI(closes, 14),
		EMA20:      EMA(closes, 20),
		EMA50:      EMA(closes, 50),
		MACD:       MACD(closes),
		Supertrend: Supertrend(highs, lows, closes, 10, 3),
		Bollinger:  Bollinger(closes, 20, 2),
		ADX:        ADX(highs, lows, closes, 14),
		Patterns:   pattern.Detect(candles),
	}

	bull, bear := 0, 0
	if !math.IsNaN(a.RSI) {
		if a.RSI < 30 {
			bull++
		} else if a.RSI > 70 {
			bear++
		}
	}
	if len(closes) > 0 {
		last := closes[len(closes)-1]
		if !math.IsNaN(a.EMA20) {
			if last > a.EMA20 {
				bull++
			} else {
				bear++
			}
		}
		if !math.IsNaN(a.EMA50) {
			if last > a.EMA50 {
				bull++
			} else {
				bear++
			}
		}
	}
	if a.MACD != nil {
		if a.MACD.Signal == types.Bullish {
			bull++
		} else if a.MACD.Signal == types.Bearish {
			bear++
		}
	}
	if a.Supertrend != nil {
		if a.Supertrend.Signal == SignalBuy {
			bull++
		} else {
			bear++
		}
	}
	if a.ADX != nil {
		if a.ADX.Trend.IsBullish() {
			bull++
		} else if a.ADX.Trend.IsBearish() {
			bear++
		}
	}
	for _, p := range a.Patterns {
		if p.Direction.IsBullish() {
			bull++
		} else if p.Direction.IsBearish() {
			bear++
		}
	}

	a.BullishVotes = bull
	a.BearishVotes = bear
	switch {
	case bull > bear+2:
		a.Overall = types.StrongBullish
	case bull > bear:
		a.Overall = types.Bullish
	case bear > bull+2:
		a.Overall = types.StrongBearish
	case bear > bull:
		a.Overall = types.Bearish
	default:
		a.Overall = types.Neutral
	}
	return a
}
