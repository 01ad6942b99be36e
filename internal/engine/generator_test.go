package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"options-advisor/internal/gate"
	"options-advisor/internal/types"
)

func TestGenerateCreatesCallSuggestion(t *testing.T) {
	store := newMemStore()
	notifier := &recNotifier{}
	market := &stubMarket{
		chain:   bullishTestChain(19950),
		candles: risingCandles(60),
		vix:     14,
		flows:   types.FlowSnapshot{CashNet: 1200, IndexFuturesNet: 600},
		peers: []types.PeerStock{
			{Symbol: "HDFCBANK", Weight: 11, Trend: types.Bullish},
			{Symbol: "RELIANCE", Weight: 10, Trend: types.StrongBullish},
		},
	}
	e := newTestEngine(market, store, notifier, wednesday)

	sg, err := e.GenerateForIndex(context.Background(), "NIFTY")
	require.NoError(t, err)
	require.NotNil(t, sg, "all-bullish inputs should produce a suggestion")

	require.Equal(t, types.Call, sg.OptionType)
	require.Equal(t, 20000.0, sg.StrikePrice, "spot 19950 with gap 50 rounds up for a call")
	require.Equal(t, 100.0, sg.EntryPrice)
	require.Equal(t, 120.0, sg.Target1)
	require.Equal(t, 140.0, sg.Target2)
	require.Equal(t, 165.0, sg.Target3)
	require.Equal(t, 80.0, sg.StopLoss)
	require.Equal(t, "1:2.0", sg.RiskReward)
	require.Equal(t, types.StatusActive, sg.Status)
	require.Equal(t, sg.EntryPrice, sg.HighSince)
	require.Equal(t, sg.EntryPrice, sg.LowSince)

	// 2026-08-26 is a Wednesday; the next Thursday expiry is the 27th.
	require.Equal(t, time.Date(2026, 8, 27, 15, 30, 0, 0, types.IST), sg.ExpiryDate)

	persisted, err := store.Get(context.Background(), sg.ID)
	require.NoError(t, err)
	require.Equal(t, sg.StrikePrice, persisted.StrikePrice)
	require.Contains(t, persisted.Reasoning.Levels, "Pivot",
		"support/resistance levels are recorded on the created record")
	require.Equal(t, []types.EventKind{types.EventCreated}, notifier.kinds())
	require.Contains(t, sg.ID, "SUG-20260826-")
}

func TestGenerateExpiryRollsAWeekOnExpiryDay(t *testing.T) {
	thursday := time.Date(2026, 8, 27, 11, 0, 0, 0, types.IST)
	market := &stubMarket{
		chain:   bullishTestChain(19950),
		candles: risingCandles(60),
		vix:     14,
		flows:   types.FlowSnapshot{CashNet: 1200, IndexFuturesNet: 600},
	}
	e := newTestEngine(market, newMemStore(), &recNotifier{}, thursday)

	sg, err := e.GenerateForIndex(context.Background(), "NIFTY")
	require.NoError(t, err)
	require.NotNil(t, sg)
	require.Equal(t, time.Date(2026, 9, 3, 15, 30, 0, 0, types.IST), sg.ExpiryDate)
}

func TestGenerateVetoedOutsideWindow(t *testing.T) {
	saturday := time.Date(2026, 8, 29, 11, 0, 0, 0, types.IST)
	store := newMemStore()
	notifier := &recNotifier{}
	e := newTestEngine(&stubMarket{chain: bullishTestChain(19950), vix: 14}, store, notifier, saturday)

	sg, err := e.GenerateForIndex(context.Background(), "NIFTY")
	require.NoError(t, err)
	require.Nil(t, sg, "weekend veto is a soft outcome")
	require.Empty(t, notifier.kinds())
	open, _ := store.Open(context.Background())
	require.Empty(t, open)
}

func TestGenerateNoVerdictOnConflict(t *testing.T) {
	// Bearish technicals against a bullish chain, flows and peers: neither
	// side clears the score-lead requirement.
	market := &stubMarket{
		chain:   bullishTestChain(19950),
		candles: fallingCandles(60),
		vix:     14,
		flows:   types.FlowSnapshot{CashNet: 900, IndexFuturesNet: 400},
		peers: []types.PeerStock{
			{Symbol: "HDFCBANK", Weight: 12, Trend: types.Bullish},
			{Symbol: "ICICIBANK", Weight: 8, Trend: types.StrongBullish},
		},
	}
	store := newMemStore()
	e := New(Settings{
		StrikeGaps: map[string]float64{"NIFTY": 50},
		Now:        func() time.Time { return wednesday },
	}, market, store, &recNotifier{},
		&stubNews{pulse: types.NewsPulse{Bullish: 0, Bearish: 4, HasImportantNews: true}},
		gate.New(gateSettings(), store))

	sg, err := e.GenerateForIndex(context.Background(), "NIFTY")
	require.NoError(t, err)
	require.Nil(t, sg)
	open, _ := store.Open(context.Background())
	require.Empty(t, open)
}

func TestGeneratePricingFailureMissingStrike(t *testing.T) {
	chain := bullishTestChain(19950)
	chain.Strikes = chain.Strikes[:2] // 20000 gone
	market := &stubMarket{
		chain:   chain,
		candles: risingCandles(60),
		vix:     14,
		flows:   types.FlowSnapshot{CashNet: 1200, IndexFuturesNet: 600},
	}
	store := newMemStore()
	notifier := &recNotifier{}
	e := newTestEngine(market, store, notifier, wednesday)

	sg, err := e.GenerateForIndex(context.Background(), "NIFTY")
	require.ErrorIs(t, err, ErrNoTradablePrice)
	require.Nil(t, sg)
	open, _ := store.Open(context.Background())
	require.Empty(t, open, "pricing failure must persist nothing")
	require.Empty(t, notifier.kinds())
}

func TestGeneratePricingFailureZeroPremium(t *testing.T) {
	chain := bullishTestChain(19950)
	chain.Strikes[2].CE.LTP = 0
	market := &stubMarket{
		chain:   chain,
		candles: risingCandles(60),
		vix:     14,
		flows:   types.FlowSnapshot{CashNet: 1200, IndexFuturesNet: 600},
	}
	e := newTestEngine(market, newMemStore(), &recNotifier{}, wednesday)

	_, err := e.GenerateForIndex(context.Background(), "NIFTY")
	require.ErrorIs(t, err, ErrNoTradablePrice)
}

func TestRoundStrike(t *testing.T) {
	tests := []struct {
		spot, gap float64
		opt       types.OptionType
		want      float64
	}{
		{19950, 50, types.Call, 20000},
		{19950, 50, types.Put, 19900},
		{19951, 50, types.Put, 19950},
		{19949, 50, types.Call, 19950},
		{44980, 100, types.Call, 45000},
		{44980, 100, types.Put, 44900},
	}
	for _, tc := range tests {
		if got := roundStrike(tc.spot, tc.gap, tc.opt); got != tc.want {
			t.Errorf("roundStrike(%v, %v, %s) = %v, want %v", tc.spot, tc.gap, tc.opt, got, tc.want)
		}
	}
}

func TestRRString(t *testing.T) {
	if got := rrString(100, 140, 80); got != "1:2.0" {
		t.Errorf("rrString = %q, want 1:2.0", got)
	}
	if got := rrString(100, 140, 100); got != "1:0.0" {
		t.Errorf("degenerate risk = %q, want 1:0.0", got)
	}
}

func TestGenerateHardErrorOnChainFailure(t *testing.T) {
	market := &stubMarket{vix: 14} // no chain
	e := newTestEngine(market, newMemStore(), &recNotifier{}, wednesday)
	_, err := e.GenerateForIndex(context.Background(), "NIFTY")
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrNoTradablePrice))
}
