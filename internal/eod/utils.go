package eod

import (
	"path/filepath"
	"time"

	"options-advisor/internal/journal"
	"options-advisor/internal/types"
)

func istNow() time.Time {
	return time.Now().In(types.IST)
}

func eodCSVPath(t time.Time) string {
	dateStr := t.In(types.IST).Format("2006-01-02")
	return filepath.Join(journal.Dir(), "eod", dateStr+".csv")
}

// marketCloseTime is when the post-close summary becomes due, a few
// minutes after the 15:30 close.
func marketCloseTime(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 15, 40, 0, 0, t.Location())
}
