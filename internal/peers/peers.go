// Package peers derives an index-level signal from the technicals of its
// heavyweight constituents.
package peers

import (
	"fmt"

	"options-advisor/internal/types"
)

// Result is the weight-summed constituent read for one index.
type Result struct {
	Signal        types.Trend
	BullishWeight float64
	BearishWeight float64
	Details       []string
}

// Analyze sums the index weights of bullish and bearish constituents. One
// side must outweigh the other by 1.3x to call a direction; anything closer
// is NEUTRAL.
func Analyze(stocks []types.PeerStock) Result {
	r := Result{Signal: types.Neutral}
	for _, s := range stocks {
		switch {
		case s.Trend.IsBullish():
			r.BullishWeight += s.Weight
			r.Details = append(r.Details, fmt.Sprintf("%s (%.2f%%) %s", s.Symbol, s.Weight, s.Trend))
		case s.Trend.IsBearish():
			r.BearishWeight += s.Weight
			r.Details = append(r.Details, fmt.Sprintf("%s (%.2f%%) %s", s.Symbol, s.Weight, s.Trend))
		}
	}
	if r.BullishWeight > r.BearishWeight*1.3 {
		r.Signal = types.Bullish
	} else if r.BearishWeight > r.BullishWeight*1.3 {
		r.Signal = types.Bearish
	}
	return r
}
