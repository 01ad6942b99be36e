package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"options-advisor/internal/logger"
	"options-advisor/internal/metrics"
	"options-advisor/internal/peers"
	"options-advisor/internal/signal"
	"options-advisor/internal/ta"
	"options-advisor/internal/types"
)

// ErrNoTradablePrice means the chain had no usable premium at the computed
// strike. This is a hard failure: nothing is persisted.
var ErrNoTradablePrice = errors.New("no tradable premium at computed strike")

// GenerateForIndex runs the full decision pipeline for one index. The two
// soft outcomes (safety veto, no verdict) return (nil, nil); data and
// pricing failures return an error.
func (e *Engine) GenerateForIndex(ctx context.Context, index string) (*types.Suggestion, error) {
	op := logger.StartOperation(ctx, "generate_suggestion", "index", index)
	ctx = op.GetContext()
	now := e.now()

	events, err := e.market.CalendarEvents(ctx)
	if err != nil {
		op.EndWithError(err)
		return nil, fmt.Errorf("calendar events: %w", err)
	}
	vix, err := e.market.VIX(ctx)
	if err != nil {
		op.EndWithError(err)
		return nil, fmt.Errorf("vix: %w", err)
	}

	decision, err := e.gate.Check(ctx, now, events, vix)
	if err != nil {
		op.EndWithError(err)
		return nil, fmt.Errorf("safety gate: %w", err)
	}
	if !decision.Allowed {
		logger.Veto(ctx, index, "safety", decision.Reason)
		metrics.GenerationVetoes.WithLabelValues("safety").Inc()
		op.End("outcome", "vetoed")
		return nil, nil
	}

	in, chain, levels, err := e.collectInputs(ctx, index, vix)
	if err != nil {
		op.EndWithError(err)
		return nil, err
	}

	verdict := signal.Aggregate(*in)
	if !verdict.OK {
		logger.Veto(ctx, index, "aggregation", verdict.Reason,
			"bullish_score", verdict.BullishScore, "bearish_score", verdict.BearishScore)
		metrics.GenerationVetoes.WithLabelValues("aggregation").Inc()
		op.End("outcome", "no_verdict")
		return nil, nil
	}

	sg, err := e.buildSuggestion(index, verdict, chain, now)
	if err != nil {
		op.EndWithError(err)
		return nil, err
	}
	if levels != nil {
		sg.Reasoning.Levels = fmt.Sprintf(
			"Pivot %.2f (S1 %.2f / R1 %.2f), CPR %.2f-%.2f, Fib 38.2 %.2f / 61.8 %.2f",
			levels.Pivots.Pivot, levels.Pivots.S1, levels.Pivots.R1,
			levels.CPR.BC, levels.CPR.TC,
			levels.Fibonacci.L382, levels.Fibonacci.L618)
	}
	if err := e.store.Insert(ctx, sg); err != nil {
		op.EndWithError(err)
		return nil, fmt.Errorf("persist suggestion: %w", err)
	}

	metrics.SuggestionsCreated.WithLabelValues(index, string(sg.OptionType)).Inc()
	logger.Suggestion(ctx, sg.ID, index, string(sg.OptionType), sg.StrikePrice, string(sg.Confidence),
		"entry", sg.EntryPrice, "conditions_met", sg.ConditionsMet)
	e.notifier.Notify(ctx, types.Event{
		Kind:         types.EventCreated,
		SuggestionID: sg.ID,
		Status:       sg.Status,
		Price:        sg.EntryPrice,
		Message: fmt.Sprintf("%s %v %s @ %.2f, T1 %.2f T2 %.2f T3 %.2f SL %.2f (%s, %d/12)",
			index, sg.StrikePrice, sg.OptionType, sg.EntryPrice,
			sg.Target1, sg.Target2, sg.Target3, sg.StopLoss, sg.Confidence, sg.ConditionsMet),
		At: now,
	})
	op.End("outcome", "created", "id", sg.ID)
	return sg, nil
}

// collectInputs gathers the five source reads plus the support/resistance
// levels recorded on the created suggestion. The option chain is required;
// the soft sources degrade to their zero values on error.
func (e *Engine) collectInputs(ctx context.Context, index string, vix float64) (*signal.Inputs, *types.OptionChainSnapshot, *ta.LevelSet, error) {
	chain, err := e.market.OptionChain(ctx, index)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("option chain for %s: %w", index, err)
	}
	candles, err := e.market.RecentCandles(ctx, index, e.settings.CandleLookback)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("candles for %s: %w", index, err)
	}
	analysis := ta.Analyze(candles)
	levels := ta.Levels(candles)

	in := &signal.Inputs{
		Technical: analysis.Overall,
		Patterns:  analysis.Patterns,
		Chain:     signal.AnalyzeChain(chain),
		VIX:       vix,
	}
	if flows, err := e.market.Flows(ctx); err == nil {
		in.Flows = signal.FlowStance(flows)
	} else {
		logger.Warn(ctx, "Flows unavailable, scoring without them", "error", err)
		in.Flows = types.Neutral
	}
	if stocks, err := e.market.PeerStocks(ctx, index); err == nil {
		in.Peers = peers.Analyze(stocks)
	} else {
		logger.Warn(ctx, "Peer stocks unavailable, scoring without them", "error", err)
	}
	if e.news != nil {
		in.News = e.news.Pulse(ctx)
	}
	return in, chain, levels, nil
}

// buildSuggestion prices the contract off the chain and assembles the
// ACTIVE record. Targets are +20/+40/+65 percent of entry, the stop 20
// percent below, all rounded once here.
func (e *Engine) buildSuggestion(index string, v signal.Verdict, chain *types.OptionChainSnapshot, now time.Time) (*types.Suggestion, error) {
	gap := e.strikeGap(index)
	strike := roundStrike(chain.SpotPrice, gap, v.OptionType)

	row := chain.Strike(strike)
	if row == nil {
		return nil, fmt.Errorf("%w: strike %v absent from chain", ErrNoTradablePrice, strike)
	}
	entry := row.CE.LTP
	if v.OptionType == types.Put {
		entry = row.PE.LTP
	}
	if entry <= 0 {
		return nil, fmt.Errorf("%w: strike %v quoted at %v", ErrNoTradablePrice, strike, entry)
	}

	t1 := round2(entry * 1.20)
	t2 := round2(entry * 1.40)
	t3 := round2(entry * 1.65)
	sl := round2(entry * 0.80)

	sg := &types.Suggestion{
		ID:          newID(now),
		CreatedAt:   now,
		Index:       index,
		OptionType:  v.OptionType,
		StrikePrice: strike,
		ExpiryDate:  nextExpiry(now, e.settings.ExpiryWeekday),

		EntryPrice: entry,
		Target1:    t1,
		Target2:    t2,
		Target3:    t3,
		StopLoss:   sl,
		RiskReward: rrString(entry, t2, sl),

		CurrentPrice: entry,
		HighSince:    entry,
		LowSince:     entry,

		Status:          types.StatusActive,
		Confidence:      v.Confidence,
		ConfidenceScore: round2(float64(v.Conditions.Met()) / 12 * 100),
		Conditions:      v.Conditions,
		ConditionsMet:   v.Conditions.Met(),
		Reasoning:       v.Reasoning,
	}
	return sg, nil
}
