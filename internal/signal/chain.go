// Package signal turns the raw market reads (option chain, institutional
// flows, technicals, news, peers) into a single buy verdict.
package signal

import (
	"math"

	"options-advisor/internal/types"
)

// ChainAnalysis is the derived view of one option-chain snapshot.
type ChainAnalysis struct {
	PCR           float64
	Signal        types.Trend
	HighestCEOI   float64 // strike carrying the largest call OI (resistance)
	HighestPEOI   float64 // strike carrying the largest put OI (support)
	OIBuildup     types.Trend
	ATMStrike     float64
	ATMIV         float64
	StraddlePrice float64
	SpotPrice     float64
	MaxPain       float64
}

// AnalyzeChain derives PCR, the OI walls, the OI build-up signal and ATM
// metrics from a snapshot. PCR above 1.2 reads BULLISH (put writers are
// confident), below 0.8 BEARISH. OI build-up compares total put vs call OI
// increase and calls a side when it leads by more than 1.5x.
func AnalyzeChain(snap *types.OptionChainSnapshot) *ChainAnalysis {
	if snap == nil || len(snap.Strikes) == 0 {
		return nil
	}

	var totalCEOI, totalPEOI float64
	var ceOIIncrease, peOIIncrease float64
	var maxCEOI, maxPEOI float64
	a := &ChainAnalysis{
		Signal:    types.Neutral,
		OIBuildup: types.Neutral,
		SpotPrice: snap.SpotPrice,
		MaxPain:   snap.MaxPain,
	}

	atmDist := math.MaxFloat64
	for _, row := range snap.Strikes {
		totalCEOI += row.CE.OI
		totalPEOI += row.PE.OI
		if row.CE.OIChange > 0 {
			ceOIIncrease += row.CE.OIChange
		}
		if row.PE.OIChange > 0 {
			peOIIncrease += row.PE.OIChange
		}
		if row.CE.OI > maxCEOI {
			maxCEOI = row.CE.OI
			a.HighestCEOI = row.StrikePrice
		}
		if row.PE.OI > maxPEOI {
			maxPEOI = row.PE.OI
			a.HighestPEOI = row.StrikePrice
		}
		if d := math.Abs(row.StrikePrice - snap.SpotPrice); d < atmDist {
			atmDist = d
			a.ATMStrike = row.StrikePrice
			a.ATMIV = (row.CE.IV + row.PE.IV) / 2
			a.StraddlePrice = row.CE.LTP + row.PE.LTP
		}
	}

	if totalCEOI > 0 {
		a.PCR = totalPEOI / totalCEOI
	}
	if a.PCR > 1.2 {
		a.Signal = types.Bullish
	} else if a.PCR > 0 && a.PCR < 0.8 {
		a.Signal = types.Bearish
	}

	if peOIIncrease > ceOIIncrease*1.5 {
		a.OIBuildup = types.Bullish
	} else if ceOIIncrease > peOIIncrease*1.5 {
		a.OIBuildup = types.Bearish
	}
	return a
}
