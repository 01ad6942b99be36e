package engine

import (
	"context"
	"fmt"
	"time"

	"options-advisor/internal/logger"
	"options-advisor/internal/metrics"
	"options-advisor/internal/types"
)

const nearStopPercent = 5.0

// TickOpenSuggestions prices every open suggestion off the latest option
// chain of its index and advances its latch state. Items without a usable
// price this tick are skipped, not failed.
func (e *Engine) TickOpenSuggestions(ctx context.Context) error {
	op := logger.StartOperation(ctx, "tick_open_suggestions")
	ctx = op.GetContext()

	open, err := e.store.Open(ctx)
	if err != nil {
		op.EndWithError(err)
		return fmt.Errorf("load open suggestions: %w", err)
	}
	metrics.OpenSuggestions.Set(float64(len(open)))
	if len(open) == 0 {
		op.End("ticked", 0)
		return nil
	}

	chains := make(map[string]*types.OptionChainSnapshot)
	ticked := 0
	for _, sg := range open {
		chain, ok := chains[sg.Index]
		if !ok {
			chain, err = e.market.OptionChain(ctx, sg.Index)
			if err != nil {
				logger.Warn(ctx, "Chain fetch failed, skipping index this tick",
					"index", sg.Index, "error", err)
				chains[sg.Index] = nil
				continue
			}
			chains[sg.Index] = chain
		}
		if chain == nil {
			metrics.TickSkips.Inc()
			continue
		}

		price, ok := premiumAt(chain, sg)
		if !ok {
			metrics.TickSkips.Inc()
			logger.Debug(ctx, "No tradable price this tick",
				"id", sg.ID, "strike", sg.StrikePrice)
			continue
		}
		if err := e.Tick(ctx, sg.ID, price); err != nil {
			logger.ErrorWithErr(ctx, "Tick failed", err, "id", sg.ID)
			continue
		}
		ticked++
	}
	op.End("ticked", ticked)
	return nil
}

func premiumAt(chain *types.OptionChainSnapshot, sg *types.Suggestion) (float64, bool) {
	row := chain.Strike(sg.StrikePrice)
	if row == nil {
		return 0, false
	}
	price := row.CE.LTP
	if sg.OptionType == types.Put {
		price = row.PE.LTP
	}
	if price <= 0 {
		return 0, false
	}
	return price, true
}

// Tick applies one price observation to one suggestion. Safe for concurrent
// callers: updates to the same id are serialized, and a tick that changes
// nothing persists the refreshed price but emits no events.
func (e *Engine) Tick(ctx context.Context, id string, price float64) error {
	l := e.lockFor(id)
	l.Lock()
	defer l.Unlock()

	sg, err := e.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load %s: %w", id, err)
	}
	if sg.Status.Terminal() {
		return nil
	}

	now := e.now()
	events := applyTick(sg, price, now)
	if err := checkInvariants(sg); err != nil {
		return fmt.Errorf("invariant violated after tick on %s: %w", id, err)
	}
	if err := e.store.Update(ctx, sg); err != nil {
		return fmt.Errorf("persist %s: %w", id, err)
	}
	for _, ev := range events {
		switch ev.Kind {
		case types.EventTargetHit:
			metrics.TargetHits.WithLabelValues(string(ev.Status)).Inc()
		case types.EventStopLoss:
			metrics.StopLossHits.Inc()
		}
		logger.Lifecycle(ctx, id, string(ev.Kind), ev.Price, ev.PnlPercent)
		e.notifier.Notify(ctx, ev)
	}
	if sg.Status.Terminal() {
		e.releaseLock(id)
	}
	return nil
}

// applyTick is the pure latch state machine. It mutates sg in place and
// returns the events this observation produced. Latches are one-way: a
// price falling back below a hit target never unsets it.
func applyTick(sg *types.Suggestion, price float64, now time.Time) []types.Event {
	var events []types.Event
	event := func(kind types.EventKind, msg string) {
		events = append(events, types.Event{
			Kind:         kind,
			SuggestionID: sg.ID,
			Status:       sg.Status,
			Price:        price,
			PnlPercent:   sg.PnlPercent,
			Message:      msg,
			At:           now,
		})
	}

	sg.CurrentPrice = price
	if price > sg.HighSince {
		sg.HighSince = price
	}
	if price < sg.LowSince || sg.LowSince == 0 {
		sg.LowSince = price
	}
	sg.PnlPercent = round2((price - sg.EntryPrice) / sg.EntryPrice * 100)
	sg.PnlAmount = round2(price - sg.EntryPrice)

	if now.After(sg.ExpiryDate) {
		sg.Status = types.StatusExpired
		event(types.EventExpired, fmt.Sprintf("Expired %s", sg.ExpiryDate.In(types.IST).Format("02 Jan")))
		return events
	}

	if price <= sg.StopLoss && !sg.StopLossHit {
		sg.StopLossHit = true
		at := now
		sg.StopLossAt = &at
		sg.Status = types.StatusSLHit
		sg.FailureReason = "Stop Loss Hit"
		event(types.EventStopLoss, fmt.Sprintf("Stop loss %.2f hit at %.2f", sg.StopLoss, price))
		return events
	}

	if price >= sg.Target1 && !sg.Target1Hit {
		sg.Target1Hit = true
		at := now
		sg.Target1HitAt = &at
		sg.Status = types.StatusT1Hit
		event(types.EventTargetHit, fmt.Sprintf("Target 1 (%.2f) hit at %.2f", sg.Target1, price))
	}
	if price >= sg.Target2 && !sg.Target2Hit {
		sg.Target2Hit = true
		at := now
		sg.Target2HitAt = &at
		sg.Status = types.StatusT2Hit
		event(types.EventTargetHit, fmt.Sprintf("Target 2 (%.2f) hit at %.2f", sg.Target2, price))
	}
	if price >= sg.Target3 && !sg.Target3Hit {
		sg.Target3Hit = true
		at := now
		sg.Target3HitAt = &at
		sg.Status = types.StatusT3Hit
		event(types.EventTargetHit, fmt.Sprintf("Target 3 (%.2f) hit at %.2f", sg.Target3, price))
	}

	// Near-stop warning is advisory and repeats on every qualifying tick.
	if !sg.StopLossHit && price > sg.StopLoss {
		if margin := (price - sg.StopLoss) / price * 100; margin < nearStopPercent {
			event(types.EventNearStop, fmt.Sprintf("Price %.2f within %.1f%% of stop %.2f", price, margin, sg.StopLoss))
		}
	}
	return events
}

// checkInvariants verifies latch monotonicity and status consistency after
// every mutation. A violation is a programming error, surfaced loudly.
func checkInvariants(sg *types.Suggestion) error {
	if sg.Target3Hit && !sg.Target2Hit {
		return fmt.Errorf("target3 latched without target2")
	}
	if sg.Target2Hit && !sg.Target1Hit {
		return fmt.Errorf("target2 latched without target1")
	}
	if sg.Target1Hit && sg.Target1HitAt == nil {
		return fmt.Errorf("target1 latched without timestamp")
	}
	if sg.Target2Hit && sg.Target2HitAt == nil {
		return fmt.Errorf("target2 latched without timestamp")
	}
	if sg.Target3Hit && sg.Target3HitAt == nil {
		return fmt.Errorf("target3 latched without timestamp")
	}
	if sg.StopLossHit && sg.StopLossAt == nil {
		return fmt.Errorf("stop latched without timestamp")
	}
	if sg.StopLossHit && sg.Status != types.StatusSLHit {
		return fmt.Errorf("stop latched but status %s", sg.Status)
	}
	switch sg.Status {
	case types.StatusT1Hit:
		if !sg.Target1Hit {
			return fmt.Errorf("status T1_HIT without latch")
		}
	case types.StatusT2Hit:
		if !sg.Target2Hit {
			return fmt.Errorf("status T2_HIT without latch")
		}
	case types.StatusT3Hit:
		if !sg.Target3Hit {
			return fmt.Errorf("status T3_HIT without latch")
		}
	case types.StatusSLHit:
		if !sg.StopLossHit {
			return fmt.Errorf("status SL_HIT without latch")
		}
	}
	return nil
}

// ExpireOverdue marks every open suggestion whose expiry has passed. Run
// by the pre- and post-market sweeps.
func (e *Engine) ExpireOverdue(ctx context.Context) error {
	open, err := e.store.Open(ctx)
	if err != nil {
		return fmt.Errorf("load open suggestions: %w", err)
	}
	now := e.now()
	for _, sg := range open {
		if !now.After(sg.ExpiryDate) {
			continue
		}
		l := e.lockFor(sg.ID)
		l.Lock()
		sg.Status = types.StatusExpired
		err := e.store.Update(ctx, sg)
		l.Unlock()
		if err != nil {
			return fmt.Errorf("expire %s: %w", sg.ID, err)
		}
		e.releaseLock(sg.ID)
		ev := types.Event{
			Kind:         types.EventExpired,
			SuggestionID: sg.ID,
			Status:       types.StatusExpired,
			Price:        sg.CurrentPrice,
			PnlPercent:   sg.PnlPercent,
			Message:      fmt.Sprintf("Expired %s", sg.ExpiryDate.In(types.IST).Format("02 Jan")),
			At:           now,
		}
		logger.Lifecycle(ctx, sg.ID, string(ev.Kind), ev.Price, ev.PnlPercent)
		e.notifier.Notify(ctx, ev)
	}
	return nil
}

// CloseManual moves a suggestion to CLOSED from any non-terminal state.
func (e *Engine) CloseManual(ctx context.Context, id, reason string) (*types.Suggestion, error) {
	l := e.lockFor(id)
	l.Lock()
	defer l.Unlock()

	sg, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	if sg.Status.Terminal() {
		return nil, fmt.Errorf("suggestion %s already terminal (%s)", id, sg.Status)
	}
	sg.Status = types.StatusClosed
	sg.FailureReason = reason
	if err := e.store.Update(ctx, sg); err != nil {
		return nil, fmt.Errorf("persist %s: %w", id, err)
	}
	e.releaseLock(id)
	now := e.now()
	ev := types.Event{
		Kind:         types.EventClosed,
		SuggestionID: id,
		Status:       types.StatusClosed,
		Price:        sg.CurrentPrice,
		PnlPercent:   sg.PnlPercent,
		Message:      fmt.Sprintf("Closed manually: %s", reason),
		At:           now,
	}
	logger.Lifecycle(ctx, id, string(ev.Kind), ev.Price, ev.PnlPercent)
	e.notifier.Notify(ctx, ev)
	return sg, nil
}
