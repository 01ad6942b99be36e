package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"options-advisor/internal/eod"
	"options-advisor/internal/logger"
	"options-advisor/internal/scheduler"
	"options-advisor/internal/store"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	must(initializeSystem())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := loadConfig(ctx)
	must(err)

	compressOldJournals(ctx)

	if cfg.Mode == "DRY_RUN" {
		logger.Warn(ctx, "Running in DRY_RUN mode - suggestions are advisory only")
	}

	st, err := store.OpenSQLite(cfg.DBPath)
	must(err)
	defer st.Close()

	market, err := initializeMarketData(ctx, cfg)
	must(err)

	sink := initializeNotifier(ctx, cfg)
	pulse := initializeNews(cfg)

	eng, err := initializeEngine(cfg, market, st, sink, pulse)
	must(err)

	sched := scheduler.New(eng, pulse, configuredIndices(cfg))
	must(sched.RegisterAll(ctx, scheduler.Cadence{
		GenerateMinutes: cfg.Cadence.GenerateMinutes,
		TrackSeconds:    cfg.Cadence.TrackSeconds,
		NewsMinutes:     cfg.Cadence.NewsMinutes,
	}))

	// Post-close report, a few minutes after the expiry sweep.
	must(sched.AddJob("40 15 * * 1-5", func() {
		if ok, _ := eod.ShouldRunNow(); ok {
			if p, err := eod.SummarizeToday(); err == nil && p != "" {
				logger.Info(ctx, "EOD CSV written", "path", p)
			}
		}
	}))

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr)

	sched.Start(ctx)
	logger.Info(ctx, "Advisor started",
		"mode", cfg.Mode, "data_source", cfg.DataSource, "indices", configuredIndices(cfg))

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	logger.Info(ctx, "Shutting down...")
	sched.Stop(ctx)
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(ctx)
	}
	if p, err := eod.SummarizeToday(); err == nil && p != "" {
		logger.Info(ctx, "EOD CSV written", "path", p)
	}
}
