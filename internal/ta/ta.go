// Package ta holds pure, stateless indicator functions over price series.
// Series are chronological, oldest first. Functions given fewer bars than
// their minimum window return math.NaN (scalar results) or nil (composite
// results) instead of a misleading number.
package ta

import (
	"math"

	"options-advisor/internal/types"
)

// Signal values produced by Supertrend.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
)

func SMA(vals []float64, n int) float64 {
	if len(vals) < n || n <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(vals) - n; i < len(vals); i++ {
		sum += vals[i]
	}
	return sum / float64(n)
}

func StdDev(vals []float64, n int) float64 {
	if len(vals) < n || n <= 0 {
		return math.NaN()
	}
	m := SMA(vals, n)
	s := 0.0
	for i := len(vals) - n; i < len(vals); i++ {
		d := vals[i] - m
		s += d * d
	}
	return math.Sqrt(s / float64(n))
}

// RSI computes the relative strength index with Wilder smoothing: the first
// `period` deltas seed the gain/loss averages, every later delta is folded
// in at weight 1/period. Returns NaN when len(closes) < period+1. When the
// average loss is zero the result is 100.
func RSI(closes []float64, period int) float64 {
	if len(closes) < period+1 || period <= 0 {
		return math.NaN()
	}
	gains, losses := 0.0, 0.0
	for i := 1; i <= period; i++ {
		d := closes[i] - closes[i-1]
		if d >= 0 {
			gains += d
		} else {
			losses -= d
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	for i := period + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d >= 0 {
			avgGain = (avgGain*float64(period-1) + d) / float64(period)
			avgLoss = (avgLoss * float64(period-1)) / float64(period)
		} else {
			avgGain = (avgGain * float64(period-1)) / float64(period)
			avgLoss = (avgLoss*float64(period-1) - d) / float64(period)
		}
	}

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// EMA seeds with the simple average of the first `period` values, then
// applies exponential smoothing with multiplier 2/(period+1). Returns NaN
// when len(prices) < period.
func EMA(prices []float64, period int) float64 {
	if len(prices) < period || period <= 0 {
		return math.NaN()
	}
	mult := 2.0 / float64(period+1)
	ema := 0.0
	for _, p := range prices[:period] {
		ema += p
	}
	ema /= float64(period)
	for i := period; i < len(prices); i++ {
		ema = (prices[i]-ema)*mult + ema
	}
	return ema
}

// MACDResult is the MACD line (EMA12 − EMA26) and its classification.
type MACDResult struct {
	Line   float64
	Signal types.Trend
}

// MACD returns nil when either EMA is undefined. The signal is BULLISH for
// a positive line, BEARISH for a negative one, NEUTRAL at exactly zero.
func MACD(prices []float64) *MACDResult {
	ema12 := EMA(prices, 12)
	ema26 := EMA(prices, 26)
	if math.IsNaN(ema12) || math.IsNaN(ema26) {
		return nil
	}
	line := ema12 - ema26
	sig := types.Neutral
	if line > 0 {
		sig = types.Bullish
	} else if line < 0 {
		sig = types.Bearish
	}
	return &MACDResult{Line: line, Signal: sig}
}

// trueRange of bar i; when no previous close exists it falls back to high−low.
func trueRange(highs, lows, closes []float64, i int) float64 {
	tr := highs[i] - lows[i]
	if i > 0 {
		tr = math.Max(tr, math.Abs(highs[i]-closes[i-1]))
		tr = math.Max(tr, math.Abs(lows[i]-closes[i-1]))
	}
	return tr
}

// SupertrendResult carries the bands around (high+low)/2 of the latest bar.
type SupertrendResult struct {
	UpperBand float64
	LowerBand float64
	ATR       float64
	Signal    Signal
}

// Supertrend averages the true range of the last `period` bars and places
// bands multiplier·ATR around the latest bar's midpoint. The signal is BUY
// when the last close sits above the lower band, otherwise SELL. Returns
// nil when fewer than `period` bars are supplied.
func Supertrend(highs, lows, closes []float64, period int, multiplier float64) *SupertrendResult {
	n := len(closes)
	if n < period || len(highs) != n || len(lows) != n || period <= 0 {
		return nil
	}
	atr := 0.0
	for i := n - period; i < n; i++ {
		atr += trueRange(highs, lows, closes, i)
	}
	atr /= float64(period)

	hl2 := (highs[n-1] + lows[n-1]) / 2
	upper := hl2 + multiplier*atr
	lower := hl2 - multiplier*atr

	sig := SignalSell
	if closes[n-1] > lower {
		sig = SignalBuy
	}
	return &SupertrendResult{UpperBand: upper, LowerBand: lower, ATR: atr, Signal: sig}
}

// BollingerResult is SMA ± k·stddev over the trailing window, plus the band
// width as a percentage of the middle band.
type BollingerResult struct {
	Upper     float64
	Middle    float64
	Lower     float64
	Bandwidth float64
}

// Bollinger returns nil when fewer than `period` values are supplied.
func Bollinger(prices []float64, period int, k float64) *BollingerResult {
	mid := SMA(prices, period)
	sd := StdDev(prices, period)
	if math.IsNaN(mid) || math.IsNaN(sd) {
		return nil
	}
	upper := mid + k*sd
	lower := mid - k*sd
	return &BollingerResult{
		Upper:     upper,
		Middle:    mid,
		Lower:     lower,
		Bandwidth: (upper - lower) / mid * 100,
	}
}

// ADXResult carries the directional index and its trend classification.
type ADXResult struct {
	DX      float64
	PlusDI  float64
	MinusDI float64
	Trend   types.Trend
}

// ADX sums directional movement over the last `period` bars. DX > 25 with a
// dominant DI classifies STRONG_BULLISH/STRONG_BEARISH, DX > 20 plain
// BULLISH/BEARISH, anything else SIDEWAYS (reported as NEUTRAL). Requires
// at least 2·period bars.
func ADX(highs, lows, closes []float64, period int) *ADXResult {
	n := len(closes)
	if n < 2*period || len(highs) != n || len(lows) != n || period <= 0 {
		return nil
	}

	sumDMPlus, sumDMMinus, sumTR := 0.0, 0.0, 0.0
	for i := n - period; i < n; i++ {
		dmPlus := math.Max(highs[i]-highs[i-1], 0)
		dmMinus := math.Max(lows[i-1]-lows[i], 0)
		if dmPlus > dmMinus {
			sumDMPlus += dmPlus
		} else {
			sumDMMinus += dmMinus
		}
		sumTR += trueRange(highs, lows, closes, i)
	}
	if sumTR == 0 {
		return &ADXResult{Trend: types.Neutral}
	}

	diPlus := sumDMPlus / sumTR * 100
	diMinus := sumDMMinus / sumTR * 100
	dx := 0.0
	if diPlus+diMinus > 0 {
		dx = math.Abs(diPlus-diMinus) / (diPlus + diMinus) * 100
	}

	trend := types.Neutral
	switch {
	case dx > 25 && diPlus > diMinus:
		trend = types.StrongBullish
	case dx > 25 && diMinus > diPlus:
		trend = types.StrongBearish
	case dx > 20 && diPlus > diMinus:
		trend = types.Bullish
	case dx > 20:
		trend = types.Bearish
	}
	return &ADXResult{DX: dx, PlusDI: diPlus, MinusDI: diMinus, Trend: trend}
}
