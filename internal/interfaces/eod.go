package interfaces

import "time"

// EodSummarizer condenses one trading day's journal into a CSV report.
type EodSummarizer interface {
	// SummarizeDay writes the summary for the given date's journal and
	// returns the CSV path. A day with no journal yields "", nil.
	SummarizeDay(t time.Time) (csvPath string, err error)

	// SummarizeToday summarizes the current IST date.
	SummarizeToday() (csvPath string, err error)

	// ShouldRunNow reports whether the post-close summary is due: the
	// market has closed and today's CSV does not exist yet.
	ShouldRunNow() (shouldRun bool, csvPath string)
}
