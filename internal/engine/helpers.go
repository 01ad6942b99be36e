package engine

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"options-advisor/internal/types"
)

// round2 is the single rounding point for every price derived in this
// package. Two decimals, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// rrString formats reward/risk as the conventional "1:X.X".
func rrString(entry, target, stop float64) string {
	risk := entry - stop
	if risk <= 0 {
		return "1:0.0"
	}
	return fmt.Sprintf("1:%.1f", (target-entry)/risk)
}

// newID builds a suggestion ID from the creation instant plus a short
// random suffix so concurrent generation cannot collide.
func newID(now time.Time) string {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("SUG-%s-%s", now.In(types.IST).Format("20060102-150405"), suffix)
}

// nextExpiry returns the coming expiry weekday at the session close, in
// IST. A generation on the expiry weekday itself rolls to the next week.
func nextExpiry(now time.Time, weekday time.Weekday) time.Time {
	ist := now.In(types.IST)
	days := (int(weekday) - int(ist.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	d := ist.AddDate(0, 0, days)
	return time.Date(d.Year(), d.Month(), d.Day(), 15, 30, 0, 0, types.IST)
}

// roundStrike snaps the spot to the contract grid, away from the money:
// calls take the next strike above, puts the next below. A spot sitting
// exactly on a strike still moves one gap out.
func roundStrike(spot, gap float64, opt types.OptionType) float64 {
	if opt == types.Call {
		return math.Floor(spot/gap)*gap + gap
	}
	return math.Ceil(spot/gap)*gap - gap
}
