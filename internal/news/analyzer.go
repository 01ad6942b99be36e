package news

import (
	"strings"

	"options-advisor/internal/types"
)

// Keyword lists drive the headline classifier. A headline counts for the
// side whose keywords it matches; matching both sides counts as neutral.
var (
	bullishWords = []string{
		"rally", "surge", "soar", "jump", "gain", "bull", "record high",
		"all-time high", "upgrade", "outperform", "buying", "recovery",
	}
	bearishWords = []string{
		"crash", "fall", "plunge", "slump", "drop", "bear", "sell-off",
		"selloff", "downgrade", "decline", "losses", "correction",
	}
	importantWords = []string{
		"rbi", "fed", "budget", "election", "war", "rate hike", "rate cut",
		"inflation", "gdp", "circuit", "sebi",
	}
)

// Analyze classifies headlines into a NewsPulse. HasImportantNews flips on
// any headline naming a market-moving macro subject.
func Analyze(headlines []Headline) types.NewsPulse {
	var pulse types.NewsPulse
	for _, h := range headlines {
		title := strings.ToLower(h.Title)

		bull := containsAny(title, bullishWords)
		bear := containsAny(title, bearishWords)
		switch {
		case bull && !bear:
			pulse.Bullish++
		case bear && !bull:
			pulse.Bearish++
		default:
			pulse.Neutral++
		}
		if containsAny(title, importantWords) {
			pulse.HasImportantNews = true
		}
	}
	return pulse
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
