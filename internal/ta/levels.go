package ta

import "options-advisor/internal/types"

// Fibonacci retracement levels over the high/low range of a window.
type Fibonacci struct {
	High  float64
	Low   float64
	L236  float64
	L382  float64
	L500  float64
	L618  float64
	L786  float64
}

// Pivots are the classic floor-trader levels from the last bar.
type Pivots struct {
	Pivot float64
	R1    float64
	R2    float64
	R3    float64
	S1    float64
	S2    float64
	S3    float64
}

// CPR is the central pivot range of the last bar.
type CPR struct {
	TC    float64
	Pivot float64
	BC    float64
	Width float64
}

// LevelSet bundles the support/resistance reads for one series.
type LevelSet struct {
	Fibonacci Fibonacci
	Pivots    Pivots
	CPR       CPR
}

// Levels computes fibonacci retracements over the trailing 20 bars and
// pivots/CPR from the latest bar. Returns nil when no candles are supplied.
func Levels(candles []types.Candle) *LevelSet {
	if len(candles) == 0 {
		return nil
	}
	window := candles
	if len(window) > 20 {
		window = window[len(window)-20:]
	}
	hi, lo := window[0].High, window[0].Low
	for _, c := range window[1:] {
		if c.High > hi {
			hi = c.High
		}
		if c.Low < lo {
			lo = c.Low
		}
	}
	rng := hi - lo

	last := candles[len(candles)-1]
	p := (last.High + last.Low + last.Close) / 3
	bc := (last.High + last.Low) / 2
	tc := p + (p - bc)

	return &LevelSet{
		Fibonacci: Fibonacci{
			High: hi, Low: lo,
			L236: hi - rng*0.236,
			L382: hi - rng*0.382,
			L500: hi - rng*0.5,
			L618: hi - rng*0.618,
			L786: hi - rng*0.786,
		},
		Pivots: Pivots{
			Pivot: p,
			R1:    2*p - last.Low,
			R2:    p + (last.High - last.Low),
			R3:    last.High + 2*(p-last.Low),
			S1:    2*p - last.High,
			S2:    p - (last.High - last.Low),
			S3:    last.Low - 2*(last.High-p),
		},
		CPR: CPR{
			TC:    tc,
			Pivot: p,
			BC:    bc,
			Width: tc - bc,
		},
	}
}
