// Package gate is the pre-trade safety layer. Checks run in a fixed order
// (session window, capital, event calendar, volatility) and the first
// failure vetoes generation with its own reason; later checks never run.
package gate

import (
	"context"
	"fmt"
	"time"

	"options-advisor/internal/interfaces"
	"options-advisor/internal/types"
)

// Settings are passed in explicitly by the caller; the gate holds no
// global state.
type Settings struct {
	OpenMinute  int // minutes since midnight IST, e.g. 9*60+15
	CloseMinute int
	AvoidLunch  bool

	TotalCapital      float64
	DailyLossLimitPct float64
	MaxOpenPositions  int
	LossStreakLimit   int
}

const (
	sessionBufferMin = 15
	lunchStartMin    = 12*60 + 30
	lunchEndMin      = 13*60 + 30
	vixVetoLevel     = 20.0
	vixCalmLevel     = 10.0
)

// Decision is the gate outcome. Allowed=false carries the veto reason of
// the first failing check. VIXFavorable is advisory only.
type Decision struct {
	Allowed      bool
	Reason       string
	VIXFavorable bool
}

type Gate struct {
	settings Settings
	store    interfaces.SuggestionStore
}

func New(settings Settings, store interfaces.SuggestionStore) *Gate {
	return &Gate{settings: settings, store: store}
}

// Check runs the four checks in order against the supplied clock reading,
// calendar and VIX level. It short-circuits on the first veto.
func (g *Gate) Check(ctx context.Context, now time.Time, events []types.CalendarEvent, vix float64) (Decision, error) {
	if reason := g.checkWindow(now); reason != "" {
		return Decision{Reason: reason}, nil
	}
	reason, err := g.checkCapital(ctx, now)
	if err != nil {
		return Decision{}, fmt.Errorf("capital check: %w", err)
	}
	if reason != "" {
		return Decision{Reason: reason}, nil
	}
	if reason := checkCalendar(now, events); reason != "" {
		return Decision{Reason: reason}, nil
	}
	if vix > vixVetoLevel {
		return Decision{Reason: fmt.Sprintf("VIX %.1f above %.0f, market too volatile", vix, vixVetoLevel)}, nil
	}
	return Decision{Allowed: true, VIXFavorable: vix > 0 && vix < vixCalmLevel}, nil
}

func (g *Gate) checkWindow(now time.Time) string {
	ist := now.In(types.IST)
	if wd := ist.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return "Market closed (weekend)"
	}
	minute := ist.Hour()*60 + ist.Minute()
	if minute < g.settings.OpenMinute+sessionBufferMin {
		return "Too close to market open"
	}
	if minute > g.settings.CloseMinute-sessionBufferMin {
		return "Too close to market close"
	}
	if g.settings.AvoidLunch && minute >= lunchStartMin && minute <= lunchEndMin {
		return "Lunch-hour low liquidity window"
	}
	return ""
}

func (g *Gate) checkCapital(ctx context.Context, now time.Time) (string, error) {
	ist := now.In(types.IST)
	dayStart := time.Date(ist.Year(), ist.Month(), ist.Day(), 0, 0, 0, 0, types.IST)

	loss, err := g.store.RealizedLossSince(ctx, dayStart)
	if err != nil {
		return "", err
	}
	limit := g.settings.TotalCapital * g.settings.DailyLossLimitPct / 100
	if limit > 0 && loss >= limit {
		return fmt.Sprintf("Daily loss limit reached (%.0f of %.0f)", loss, limit), nil
	}

	open, err := g.store.CountOpen(ctx)
	if err != nil {
		return "", err
	}
	if open >= g.settings.MaxOpenPositions {
		return fmt.Sprintf("Max open positions reached (%d)", open), nil
	}

	streak := g.settings.LossStreakLimit
	if streak <= 0 {
		streak = 3
	}
	recent, err := g.store.Recent(ctx, streak)
	if err != nil {
		return "", err
	}
	if len(recent) == streak {
		allStopped := true
		for _, s := range recent {
			if s.Status != types.StatusSLHit {
				allStopped = false
				break
			}
		}
		if allStopped {
			return fmt.Sprintf("Last %d suggestions hit stop loss, pausing", streak), nil
		}
	}
	return "", nil
}

func checkCalendar(now time.Time, events []types.CalendarEvent) string {
	ist := now.In(types.IST)
	today := time.Date(ist.Year(), ist.Month(), ist.Day(), 0, 0, 0, 0, types.IST)
	cutoff := today.AddDate(0, 0, 2)
	for _, ev := range events {
		if ev.Impact != types.ImpactHigh {
			continue
		}
		d := ev.Date.In(types.IST)
		if !d.Before(today) && d.Before(cutoff) {
			return fmt.Sprintf("High-impact event ahead: %s", ev.Name)
		}
	}
	return ""
}
