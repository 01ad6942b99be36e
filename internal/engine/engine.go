// Package engine holds the decision core: suggestion generation and
// lifecycle tracking. Both entry points are pure with respect to time and
// scheduling; the caller owns every timer and passes a clock in through
// Settings.
package engine

import (
	"sync"
	"time"

	"options-advisor/internal/gate"
	"options-advisor/internal/interfaces"
)

// Settings is everything the engine needs beyond its collaborators. Passed
// explicitly at construction; the engine reads no globals.
type Settings struct {
	StrikeGaps       map[string]float64 // per index; 50 when absent
	DefaultStrikeGap float64
	ExpiryWeekday    time.Weekday
	CandleLookback   int
	Now              func() time.Time
}

type Engine struct {
	settings Settings
	market   interfaces.MarketData
	store    interfaces.SuggestionStore
	notifier interfaces.Notifier
	news     interfaces.NewsSource
	gate     *gate.Gate

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(settings Settings, market interfaces.MarketData, store interfaces.SuggestionStore,
	notifier interfaces.Notifier, news interfaces.NewsSource, g *gate.Gate) *Engine {
	if settings.DefaultStrikeGap == 0 {
		settings.DefaultStrikeGap = 50
	}
	if settings.ExpiryWeekday == 0 {
		settings.ExpiryWeekday = time.Thursday
	}
	if settings.CandleLookback == 0 {
		settings.CandleLookback = 60
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}
	return &Engine{
		settings: settings,
		market:   market,
		store:    store,
		notifier: notifier,
		news:     news,
		gate:     g,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (e *Engine) now() time.Time { return e.settings.Now() }

func (e *Engine) strikeGap(index string) float64 {
	if gap, ok := e.settings.StrikeGaps[index]; ok && gap > 0 {
		return gap
	}
	return e.settings.DefaultStrikeGap
}

// lockFor serializes all mutation of one suggestion id.
func (e *Engine) lockFor(id string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[id]
	if !ok {
		l = &sync.Mutex{}
		e.locks[id] = l
	}
	return l
}

// releaseLock drops the per-id mutex once a suggestion reaches a terminal
// status, so the map does not grow without bound.
func (e *Engine) releaseLock(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.locks, id)
}
