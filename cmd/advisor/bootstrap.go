package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"

	"options-advisor/internal/engine"
	"options-advisor/internal/gate"
	"options-advisor/internal/interfaces"
	"options-advisor/internal/journal"
	"options-advisor/internal/logger"
	"options-advisor/internal/marketdata"
	"options-advisor/internal/metrics"
	"options-advisor/internal/news"
	"options-advisor/internal/notifier"
	"options-advisor/internal/store"
	"options-advisor/internal/trace"
)

// initializeSystem initializes environment, logger and tracer.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context) (*store.Config, error) {
	path := os.Getenv("ADVISOR_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

// compressOldJournals gzips old journal files if retention is configured
func compressOldJournals(ctx context.Context) {
	if v := os.Getenv("ADVISOR_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if err := journal.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old journals", "error", err)
		}
	}
}

// initializeMarketData picks the data source per config. STATIC serves a
// synthetic tape; LIVE composes NSE, the chart API and optionally Kite.
func initializeMarketData(ctx context.Context, cfg *store.Config) (interfaces.MarketData, error) {
	calendar, err := cfg.Events()
	if err != nil {
		return nil, err
	}

	gaps := make(map[string]float64, len(cfg.Indices))
	for name, idx := range cfg.Indices {
		gaps[name] = idx.StrikeGap
	}

	if cfg.DataSource == "STATIC" {
		logger.Info(ctx, "Using STATIC synthetic market data")
		return marketdata.NewStaticSource(gaps, calendar), nil
	}

	var kite *marketdata.KiteClient
	if cfg.Kite.Enabled {
		apiKey := os.Getenv(cfg.Kite.APIKeyEnv)
		accessToken := os.Getenv(cfg.Kite.AccessTokenEnv)
		kite, err = marketdata.NewKiteClient(apiKey, accessToken)
		if err != nil {
			logger.Warn(ctx, "Kite session unavailable, falling back to public feeds", "error", err)
			kite = nil
		} else {
			logger.Info(ctx, "Kite Connect session configured")
		}
	}

	logger.Info(ctx, "Using LIVE market data")
	return marketdata.NewLiveSource(kite, calendar), nil
}

// initializeNotifier builds the sink fan-out: structured log and journal
// always, Telegram when configured.
func initializeNotifier(ctx context.Context, cfg *store.Config) interfaces.Notifier {
	sinks := []interfaces.Notifier{
		notifier.NewLogNotifier(),
		journal.NewSink(),
	}

	if cfg.Telegram.Enabled {
		token := os.Getenv(cfg.Telegram.TokenEnv)
		if token == "" {
			logger.Warn(ctx, "Telegram enabled but token env is empty", "env", cfg.Telegram.TokenEnv)
		} else {
			sinks = append(sinks, notifier.NewTelegram(token, cfg.Telegram.ChatID))
			logger.Info(ctx, "Telegram notifications enabled", "chat_id", cfg.Telegram.ChatID)
		}
	}

	return notifier.NewMulti(sinks...)
}

// initializeNews builds the headline sentiment service on the configured
// cadence.
func initializeNews(cfg *store.Config) *news.Service {
	nc := news.DefaultServiceConfig()
	nc.CacheDuration = time.Duration(cfg.Cadence.NewsMinutes) * time.Minute
	return news.NewService(nc)
}

// initializeEngine wires the decision core.
func initializeEngine(cfg *store.Config, market interfaces.MarketData, st interfaces.SuggestionStore,
	sink interfaces.Notifier, pulse interfaces.NewsSource) (*engine.Engine, error) {

	openMin, err := store.MinuteOfDay(cfg.Market.Open)
	if err != nil {
		return nil, err
	}
	closeMin, err := store.MinuteOfDay(cfg.Market.Close)
	if err != nil {
		return nil, err
	}

	g := gate.New(gate.Settings{
		OpenMinute:        openMin,
		CloseMinute:       closeMin,
		AvoidLunch:        cfg.Market.AvoidLunch,
		TotalCapital:      cfg.Risk.TotalCapital,
		DailyLossLimitPct: cfg.Risk.DailyLossLimitPct,
		MaxOpenPositions:  cfg.Risk.MaxOpenPositions,
		LossStreakLimit:   cfg.Risk.LossStreakLimit,
	}, st)

	gaps := make(map[string]float64, len(cfg.Indices))
	for name, idx := range cfg.Indices {
		gaps[name] = idx.StrikeGap
	}

	return engine.New(engine.Settings{
		StrikeGaps: gaps,
	}, market, st, sink, pulse, g), nil
}

// startMetricsServer exposes Prometheus metrics when an address is set.
func startMetricsServer(ctx context.Context, addr string) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Info(ctx, "Metrics server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.ErrorWithErr(ctx, "Metrics server failed", err)
		}
	}()
	return srv
}

// configuredIndices returns the index names in a stable order so generation
// passes and logs are deterministic.
func configuredIndices(cfg *store.Config) []string {
	names := make([]string, 0, len(cfg.Indices))
	for name := range cfg.Indices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
