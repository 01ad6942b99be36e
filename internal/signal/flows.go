package signal

import "options-advisor/internal/types"

// FlowStance classifies institutional positioning from one day of cash and
// index-futures nets. Both positive reads STRONG_BULLISH, one positive
// BULLISH, and the bearish mirror likewise.
func FlowStance(f types.FlowSnapshot) types.Trend {
	switch {
	case f.CashNet > 0 && f.IndexFuturesNet > 0:
		return types.StrongBullish
	case f.CashNet > 0 || f.IndexFuturesNet > 0:
		return types.Bullish
	case f.CashNet < 0 && f.IndexFuturesNet < 0:
		return types.StrongBearish
	case f.CashNet < 0 || f.IndexFuturesNet < 0:
		return types.Bearish
	}
	return types.Neutral
}
