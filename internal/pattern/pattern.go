// Package pattern detects candlestick formations over the last three bars
// of a series. Thresholds are fixed fractions of the candle range or body:
// a doji body is under 10% of its range, a marubozu body over 90%, a star
// body under 30% of the candle before it, hammer shadows compare at 2x the
// body, and tweezer highs/lows match within 5% of the range.
package pattern

import (
	"math"

	"options-advisor/internal/types"
)

// Reliability grades how much weight a formation carries downstream.
type Reliability string

const (
	ReliabilityHigh   Reliability = "HIGH"
	ReliabilityMedium Reliability = "MEDIUM"
	ReliabilityLow    Reliability = "LOW"
)

// Pattern is one detected formation on the latest bars.
type Pattern struct {
	Name        string
	Direction   types.Trend
	Reliability Reliability
}

type candleShape struct {
	open, high, low, close float64
	body                   float64
	rng                    float64
	upperShadow            float64
	lowerShadow            float64
	bullish                bool
}

func shape(c types.Candle) candleShape {
	s := candleShape{open: c.Open, high: c.High, low: c.Low, close: c.Close}
	s.body = math.Abs(c.Close - c.Open)
	s.rng = c.High - c.Low
	s.upperShadow = c.High - math.Max(c.Open, c.Close)
	s.lowerShadow = math.Min(c.Open, c.Close) - c.Low
	s.bullish = c.Close > c.Open
	return s
}

// Detect inspects the last three candles and returns every formation that
// matches. Fewer than three candles yields no patterns.
func Detect(candles []types.Candle) []Pattern {
	if len(candles) < 3 {
		return nil
	}
	last := shape(candles[len(candles)-1])
	prev := shape(candles[len(candles)-2])
	prevPrev := shape(candles[len(candles)-3])

	var out []Pattern
	add := func(name string, dir types.Trend, rel Reliability) {
		out = append(out, Pattern{Name: name, Direction: dir, Reliability: rel})
	}

	if last.rng > 0 && last.body < 0.1*last.rng {
		add("DOJI", types.Neutral, ReliabilityMedium)
	}

	if last.body > 0 && last.lowerShadow > 2*last.body && last.upperShadow < 0.5*last.body && last.bullish {
		add("HAMMER", types.Bullish, ReliabilityHigh)
	}
	if last.body > 0 && last.upperShadow > 2*last.body && last.lowerShadow < 0.5*last.body && !last.bullish {
		add("SHOOTING_STAR", types.Bearish, ReliabilityHigh)
	}
	if last.body > 0 && last.upperShadow > 2*last.body && last.lowerShadow < 0.5*last.body && last.bullish {
		add("INVERTED_HAMMER", types.Bullish, ReliabilityMedium)
	}

	if last.rng > 0 && last.body > 0.9*last.rng {
		if last.bullish {
			add("BULLISH_MARUBOZU", types.Bullish, ReliabilityHigh)
		} else {
			add("BEARISH_MARUBOZU", types.Bearish, ReliabilityHigh)
		}
	}

	if last.bullish && !prev.bullish && last.open < prev.close && last.close > prev.open {
		add("BULLISH_ENGULFING", types.Bullish, ReliabilityHigh)
	}
	if !last.bullish && prev.bullish && last.open > prev.close && last.close < prev.open {
		add("BEARISH_ENGULFING", types.Bearish, ReliabilityHigh)
	}

	// Star patterns: a small middle candle after a large one, then a close
	// past the midpoint of the first.
	if !prevPrev.bullish && prev.body < 0.3*prevPrev.body && last.bullish &&
		last.close > (prevPrev.open+prevPrev.close)/2 {
		add("MORNING_STAR", types.Bullish, ReliabilityHigh)
	}
	if prevPrev.bullish && prev.body < 0.3*prevPrev.body && !last.bullish &&
		last.close < (prevPrev.open+prevPrev.close)/2 {
		add("EVENING_STAR", types.Bearish, ReliabilityHigh)
	}

	if prevPrev.bullish && prev.bullish && last.bullish &&
		prev.close > prevPrev.close && last.close > prev.close {
		add("THREE_WHITE_SOLDIERS", types.Bullish, ReliabilityHigh)
	}
	if !prevPrev.bullish && !prev.bullish && !last.bullish &&
		prev.close < prevPrev.close && last.close < prev.close {
		add("THREE_BLACK_CROWS", types.Bearish, ReliabilityHigh)
	}

	if last.rng > 0 && last.body < 0.3*last.rng &&
		last.upperShadow > last.body && last.lowerShadow > last.body {
		add("SPINNING_TOP", types.Neutral, ReliabilityLow)
	}

	if last.rng > 0 {
		if math.Abs(prev.high-last.high) < 0.05*last.rng && prev.bullish && !last.bullish {
			add("TWEEZER_TOP", types.Bearish, ReliabilityMedium)
		}
		if math.Abs(prev.low-last.low) < 0.05*last.rng && !prev.bullish && last.bullish {
			add("TWEEZER_BOTTOM", types.Bullish, ReliabilityMedium)
		}
	}

	return out
}
