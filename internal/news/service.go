// Package news supplies the trailing headline-sentiment window the signal
// aggregator consumes.
package news

import (
	"context"
	"sync"
	"time"

	"options-advisor/internal/logger"
	"options-advisor/internal/types"
)

// Service scrapes market headlines on demand and caches the derived pulse.
type Service struct {
	scraper *Scraper
	cfg     *ServiceConfig

	mu        sync.RWMutex
	pulse     types.NewsPulse
	fetchedAt time.Time
}

// ServiceConfig configures the headline service.
type ServiceConfig struct {
	MaxHeadlines   int
	CacheDuration  time.Duration
	ScraperTimeout time.Duration
	Enabled        bool
}

// DefaultServiceConfig returns default configuration
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		MaxHeadlines:   30,
		CacheDuration:  30 * time.Minute,
		ScraperTimeout: 30 * time.Second,
		Enabled:        true,
	}
}

func NewService(cfg *ServiceConfig) *Service {
	if cfg == nil {
		cfg = DefaultServiceConfig()
	}
	return &Service{
		scraper: NewScraper(cfg.ScraperTimeout),
		cfg:     cfg,
	}
}

// Pulse returns the cached sentiment window, refreshing it when stale. A
// failed refresh degrades to an empty pulse rather than blocking scoring.
func (s *Service) Pulse(ctx context.Context) types.NewsPulse {
	if !s.cfg.Enabled {
		return types.NewsPulse{}
	}

	s.mu.RLock()
	fresh := time.Since(s.fetchedAt) < s.cfg.CacheDuration
	pulse := s.pulse
	s.mu.RUnlock()
	if fresh {
		return pulse
	}
	return s.Refresh(ctx)
}

// Refresh re-scrapes unconditionally and replaces the cached pulse.
func (s *Service) Refresh(ctx context.Context) types.NewsPulse {
	headlines, err := s.scraper.Headlines(ctx, s.cfg.MaxHeadlines)
	if err != nil {
		logger.ErrorWithErr(ctx, "Headline refresh failed", err)
	}
	if len(headlines) == 0 {
		rss, rssErr := FetchRSS(ctx, nil, s.cfg.MaxHeadlines)
		if rssErr != nil {
			logger.ErrorWithErr(ctx, "RSS fallback failed", rssErr)
		}
		headlines = rss
	}

	pulse := Analyze(headlines)
	logger.Info(ctx, "News pulse refreshed",
		"bullish", pulse.Bullish, "bearish", pulse.Bearish,
		"neutral", pulse.Neutral, "important", pulse.HasImportantNews)

	s.mu.Lock()
	s.pulse = pulse
	s.fetchedAt = time.Now()
	s.mu.Unlock()
	return pulse
}
