package peers

import (
	"testing"

	"options-advisor/internal/types"
)

func TestAnalyzeDominance(t *testing.T) {
	tests := []struct {
		name   string
		stocks []types.PeerStock
		want   types.Trend
	}{
		{
			name: "bullish heavyweights dominate",
			stocks: []types.PeerStock{
				{Symbol: "HDFCBANK", Weight: 11.2, Trend: types.Bullish},
				{Symbol: "RELIANCE", Weight: 9.8, Trend: types.StrongBullish},
				{Symbol: "INFY", Weight: 5.1, Trend: types.Bearish},
			},
			want: types.Bullish,
		},
		{
			name: "bearish weight wins",
			stocks: []types.PeerStock{
				{Symbol: "ICICIBANK", Weight: 8.0, Trend: types.Bearish},
				{Symbol: "SBIN", Weight: 6.0, Trend: types.StrongBearish},
				{Symbol: "TCS", Weight: 4.0, Trend: types.Bullish},
			},
			want: types.Bearish,
		},
		{
			name: "close split stays neutral",
			stocks: []types.PeerStock{
				{Symbol: "HDFCBANK", Weight: 10.0, Trend: types.Bullish},
				{Symbol: "RELIANCE", Weight: 9.0, Trend: types.Bearish},
			},
			want: types.Neutral,
		},
		{
			name:   "no constituents",
			stocks: nil,
			want:   types.Neutral,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Analyze(tc.stocks)
			if got.Signal != tc.want {
				t.Errorf("signal = %v, want %v (bull %.1f bear %.1f)",
					got.Signal, tc.want, got.BullishWeight, got.BearishWeight)
			}
		})
	}
}

func TestAnalyzeNeutralConstituentsIgnored(t *testing.T) {
	got := Analyze([]types.PeerStock{
		{Symbol: "WIPRO", Weight: 3.0, Trend: types.Neutral},
		{Symbol: "ITC", Weight: 4.0, Trend: types.Neutral},
	})
	if got.BullishWeight != 0 || got.BearishWeight != 0 {
		t.Errorf("neutral stocks should carry no weight: %+v", got)
	}
	if len(got.Details) != 0 {
		t.Errorf("neutral stocks should not appear in details: %v", got.Details)
	}
}
