// Package scheduler owns every timer in the system. The engine exposes pure
// entry points; this package decides when they run.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"options-advisor/internal/interfaces"
	"options-advisor/internal/logger"
	"options-advisor/internal/types"
)

// Cadence holds the run frequencies, in the units the config carries.
type Cadence struct {
	GenerateMinutes int
	TrackSeconds    int
	NewsMinutes     int
}

// Scheduler drives the engine on exchange time. All cron expressions are
// evaluated in IST regardless of host timezone.
type Scheduler struct {
	cron    *cron.Cron
	engine  interfaces.Engine
	news    interfaces.NewsSource
	indices []string
}

// Refresher is the optional refresh hook of the news source. The cached
// pulse is re-fetched on its own cadence, not on the generation path.
type Refresher interface {
	Refresh(ctx context.Context) types.NewsPulse
}

// New creates a scheduler around the engine.
func New(engine interfaces.Engine, news interfaces.NewsSource, indices []string) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(types.IST)),
		engine:  engine,
		news:    news,
		indices: indices,
	}
}

// RegisterAll wires the standing jobs:
//   - suggestion generation per index during market hours
//   - open-suggestion tracking during market hours
//   - news refresh through the trading day
//   - pre-market and post-market expiry sweeps
func (s *Scheduler) RegisterAll(ctx context.Context, cadence Cadence) error {
	genSpec := fmt.Sprintf("*/%d 9-15 * * 1-5", clampMinutes(cadence.GenerateMinutes))
	if _, err := s.cron.AddFunc(genSpec, func() { s.generateAll(ctx) }); err != nil {
		return fmt.Errorf("register generation job: %w", err)
	}

	trackSpec := fmt.Sprintf("*/%d 9-15 * * 1-5", clampMinutes(cadence.TrackSeconds/60))
	if _, err := s.cron.AddFunc(trackSpec, func() { s.track(ctx) }); err != nil {
		return fmt.Errorf("register tracking job: %w", err)
	}

	if refresher, ok := s.news.(Refresher); ok {
		newsSpec := fmt.Sprintf("*/%d 8-16 * * 1-5", clampMinutes(cadence.NewsMinutes))
		if _, err := s.cron.AddFunc(newsSpec, func() { refresher.Refresh(ctx) }); err != nil {
			return fmt.Errorf("register news job: %w", err)
		}
	}

	// Pre-market sweep clears anything that expired overnight; the
	// post-market sweep runs just after the 15:30 close.
	for _, spec := range []string{"0 7 * * 1-5", "35 15 * * 1-5"} {
		if _, err := s.cron.AddFunc(spec, func() { s.sweep(ctx) }); err != nil {
			return fmt.Errorf("register expiry sweep: %w", err)
		}
	}
	return nil
}

// AddJob registers an extra cron job, for work the caller owns (end-of-day
// reports, journal retention). The expression is evaluated in IST like the rest.
func (s *Scheduler) AddJob(spec string, fn func()) error {
	_, err := s.cron.AddFunc(spec, fn)
	return err
}

// Start starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	logger.Info(ctx, "Scheduler started", "indices", s.indices)
}

// Stop stops the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop(ctx context.Context) {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	logger.Info(ctx, "Scheduler stopped")
}

// RunGenerationNow triggers one generation pass outside the cron cadence.
func (s *Scheduler) RunGenerationNow(ctx context.Context) {
	s.generateAll(ctx)
}

func (s *Scheduler) generateAll(ctx context.Context) {
	for _, index := range s.indices {
		suggestion, err := s.engine.GenerateForIndex(ctx, index)
		if err != nil {
			logger.ErrorWithErr(ctx, "Generation pass failed", err, "index", index)
			continue
		}
		if suggestion == nil {
			continue
		}
		logger.Info(ctx, "Generation pass produced a suggestion",
			"index", index, "id", suggestion.ID)
	}
}

func (s *Scheduler) track(ctx context.Context) {
	if err := s.engine.TickOpenSuggestions(ctx); err != nil {
		logger.ErrorWithErr(ctx, "Tracking pass failed", err)
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	if err := s.engine.ExpireOverdue(ctx); err != nil {
		logger.ErrorWithErr(ctx, "Expiry sweep failed", err)
	}
}

// clampMinutes keeps cron step fields valid.
func clampMinutes(m int) int {
	if m < 1 {
		return 1
	}
	if m > 59 {
		return 59
	}
	return m
}
