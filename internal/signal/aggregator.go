package signal

import (
	"fmt"
	"strings"

	"options-advisor/internal/pattern"
	"options-advisor/internal/peers"
	"options-advisor/internal/types"
)

// Inputs are the five source reads the aggregator scores. Any pointer may
// be nil when the source had nothing usable; a nil source simply scores
// nothing.
type Inputs struct {
	Technical types.Trend
	Patterns  []pattern.Pattern
	Chain     *ChainAnalysis
	Flows     types.Trend
	News      types.NewsPulse
	Peers     peers.Result
	VIX       float64
}

// Verdict is the aggregation outcome. OK is false for the two soft
// no-result cases (no clear direction, too few conditions); Reason then
// explains which.
type Verdict struct {
	OK     bool
	Reason string

	Direction    types.Trend
	OptionType   types.OptionType
	BullishScore float64
	BearishScore float64
	Confidence   types.Confidence
	Conditions   types.Checklist
	Reasoning    types.Reasoning
}

const (
	minDirectionScore = 5.0
	directionLead     = 2.0
	minConditions     = 7
	highConditions    = 9
)

// Aggregate scores both directions across all sources, picks a side only
// when one score reaches 5 and leads the other by more than 2, and then
// requires at least 7 of the 12 checklist conditions. Confidence is HIGH at
// 9+ conditions, MEDIUM otherwise; anything below 7 is dropped.
func Aggregate(in Inputs) Verdict {
	var (
		bull, bear float64
		cond       types.Checklist
		rsn        types.Reasoning
	)

	if in.Technical.IsBullish() {
		bull += 2
		cond.TechnicalConfirm = true
		cond.TrendAlignment = true
		rsn.Technical = fmt.Sprintf("Technical composite %s", in.Technical)
		rsn.Trend = "Trend aligned with technicals"
	} else if in.Technical.IsBearish() {
		bear += 2
		cond.TechnicalConfirm = true
		cond.TrendAlignment = true
		rsn.Technical = fmt.Sprintf("Technical composite %s", in.Technical)
		rsn.Trend = "Trend aligned with technicals"
	} else {
		rsn.Technical = "Technical composite NEUTRAL"
	}

	if in.Chain != nil {
		var parts []string
		if in.Chain.Signal.IsBullish() {
			bull += 2
			cond.OptionChainAligns = true
			parts = append(parts, fmt.Sprintf("PCR %.2f signals BULLISH", in.Chain.PCR))
		} else if in.Chain.Signal.IsBearish() {
			bear += 2
			cond.OptionChainAligns = true
			parts = append(parts, fmt.Sprintf("PCR %.2f signals BEARISH", in.Chain.PCR))
		}
		if in.Chain.OIBuildup.IsBullish() {
			bull++
			cond.OIBuildupSupport = true
			parts = append(parts, "put OI build-up")
		} else if in.Chain.OIBuildup.IsBearish() {
			bear++
			cond.OIBuildupSupport = true
			parts = append(parts, "call OI build-up")
		}
		if in.Chain.PCR > 1.0 {
			bull++
			cond.PCRFavorable = true
		} else if in.Chain.PCR > 0 && in.Chain.PCR < 0.8 {
			bear++
			cond.PCRFavorable = true
		}
		parts = append(parts, fmt.Sprintf("support %v resistance %v", in.Chain.HighestPEOI, in.Chain.HighestCEOI))
		rsn.OptionChain = strings.Join(parts, "; ")
	}

	if in.Flows.IsBullish() {
		bull++
		cond.FlowSupport = true
		rsn.Flows = fmt.Sprintf("Institutional flows %s", in.Flows)
	} else if in.Flows.IsBearish() {
		bear++
		cond.FlowSupport = true
		rsn.Flows = fmt.Sprintf("Institutional flows %s", in.Flows)
	} else {
		rsn.Flows = "Institutional flows NEUTRAL"
	}

	if in.Peers.Signal.IsBullish() {
		bull++
		cond.PeerStocksConfirm = true
	} else if in.Peers.Signal.IsBearish() {
		bear++
		cond.PeerStocksConfirm = true
	}
	rsn.PeerStocks = fmt.Sprintf("Constituent weight bullish %.1f vs bearish %.1f",
		in.Peers.BullishWeight, in.Peers.BearishWeight)

	// Calm news tape helps either direction a little.
	if !in.News.HasImportantNews {
		cond.NoNegativeNews = true
		bull += 0.5
		bear += 0.5
	}
	if in.News.Bullish > in.News.Bearish {
		bull++
	} else if in.News.Bearish > in.News.Bullish {
		bear++
	}
	rsn.News = fmt.Sprintf("Headlines %d bullish / %d bearish / %d neutral",
		in.News.Bullish, in.News.Bearish, in.News.Neutral)

	var patNames []string
	for _, p := range in.Patterns {
		if p.Reliability != pattern.ReliabilityHigh {
			continue
		}
		if p.Direction.IsBullish() {
			bull++
			cond.CandlestickConfirm = true
			patNames = append(patNames, p.Name)
		} else if p.Direction.IsBearish() {
			bear++
			cond.CandlestickConfirm = true
			patNames = append(patNames, p.Name)
		}
	}
	if len(patNames) > 0 {
		rsn.Candlestick = strings.Join(patNames, ", ")
	} else {
		rsn.Candlestick = "No high-reliability patterns"
	}

	// Zero means the reading was unavailable; that counts as normal, as
	// does a reading at exactly 20. Only an elevated VIX drops the flag.
	if in.VIX <= 20 {
		cond.VolatilityNormal = true
	}
	cond.GoodLiquidity = true
	cond.RiskRewardGood = true

	v := Verdict{
		BullishScore: bull,
		BearishScore: bear,
		Conditions:   cond,
		Reasoning:    rsn,
	}

	switch {
	case bull >= minDirectionScore && bull > bear+directionLead:
		v.Direction = types.Bullish
		v.OptionType = types.Call
	case bear >= minDirectionScore && bear > bull+directionLead:
		v.Direction = types.Bearish
		v.OptionType = types.Put
	default:
		v.Reason = "No clear direction - Conflicting signals"
		return v
	}

	met := cond.Met()
	if met < minConditions {
		v.Reason = fmt.Sprintf("Only %d of 12 conditions met, need %d", met, minConditions)
		return v
	}

	v.OK = true
	if met >= highConditions {
		v.Confidence = types.ConfidenceHigh
	} else {
		v.Confidence = types.ConfidenceMedium
	}
	v.Reasoning.Overall = fmt.Sprintf("%s with score %.1f vs %.1f, %d/12 conditions",
		v.Direction, bull, bear, met)
	return v
}
