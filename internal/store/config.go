package store

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"options-advisor/internal/types"
)

type Config struct {
	Mode       string `yaml:"mode"`        // DRY_RUN or LIVE
	DataSource string `yaml:"data_source"` // STATIC or LIVE
	DBPath     string `yaml:"db_path"`

	Indices map[string]IndexConfig `yaml:"indices"`

	Market struct {
		Open       string `yaml:"open"`  // "09:15"
		Close      string `yaml:"close"` // "15:30"
		AvoidLunch bool   `yaml:"avoid_lunch"`
	} `yaml:"market"`

	Risk struct {
		TotalCapital      float64 `yaml:"total_capital"`
		DailyLossLimitPct float64 `yaml:"daily_loss_limit_pct"`
		MaxOpenPositions  int     `yaml:"max_open_positions"`
		LossStreakLimit   int     `yaml:"loss_streak_limit"`
	} `yaml:"risk"`

	Cadence struct {
		GenerateMinutes int `yaml:"generate_minutes"`
		TrackSeconds    int `yaml:"track_seconds"`
		NewsMinutes     int `yaml:"news_minutes"`
	} `yaml:"cadence"`

	Telegram struct {
		Enabled  bool   `yaml:"enabled"`
		TokenEnv string `yaml:"token_env"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`

	Kite struct {
		Enabled        bool   `yaml:"enabled"`
		APIKeyEnv      string `yaml:"api_key_env"`
		AccessTokenEnv string `yaml:"access_token_env"`
	} `yaml:"kite"`

	// Calendar is the operator-maintained list of scheduled macro events.
	Calendar []CalendarEntry `yaml:"calendar"`

	MetricsAddr string `yaml:"metrics_addr"`
}

// CalendarEntry is one configured macro event.
type CalendarEntry struct {
	Date   string `yaml:"date"` // "2006-01-02"
	Name   string `yaml:"name"`
	Impact string `yaml:"impact"` // LOW, MEDIUM or HIGH
}

// Events parses the configured calendar entries into typed events in IST.
func (c *Config) Events() ([]types.CalendarEvent, error) {
	events := make([]types.CalendarEvent, 0, len(c.Calendar))
	for _, e := range c.Calendar {
		d, err := time.ParseInLocation("2006-01-02", e.Date, types.IST)
		if err != nil {
			return nil, fmt.Errorf("calendar entry %q: %w", e.Name, err)
		}
		events = append(events, types.CalendarEvent{
			Date:   d,
			Name:   e.Name,
			Impact: types.EventImpact(strings.ToUpper(e.Impact)),
		})
	}
	return events, nil
}

// IndexConfig holds per-index contract parameters.
type IndexConfig struct {
	StrikeGap  float64 `yaml:"strike_gap"`
	LotSize    int     `yaml:"lot_size"`
	KiteSymbol string  `yaml:"kite_symbol"`
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if c.DataSource != "STATIC" && c.DataSource != "LIVE" {
		return fmt.Errorf("invalid data_source '%s': must be 'STATIC' or 'LIVE'", c.DataSource)
	}
	if len(c.Indices) == 0 {
		return fmt.Errorf("indices cannot be empty")
	}
	for name, idx := range c.Indices {
		if idx.StrikeGap <= 0 {
			return fmt.Errorf("indices.%s.strike_gap must be positive, got %v", name, idx.StrikeGap)
		}
	}
	if c.Risk.DailyLossLimitPct <= 0 || c.Risk.DailyLossLimitPct > 100 {
		return fmt.Errorf("risk.daily_loss_limit_pct must be between 0-100, got %.2f", c.Risk.DailyLossLimitPct)
	}
	if _, err := MinuteOfDay(c.Market.Open); err != nil {
		return fmt.Errorf("market.open: %w", err)
	}
	if _, err := MinuteOfDay(c.Market.Close); err != nil {
		return fmt.Errorf("market.close: %w", err)
	}
	if _, err := c.Events(); err != nil {
		return err
	}
	return nil
}

// MinuteOfDay parses "HH:MM" into minutes since midnight.
func MinuteOfDay(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.DataSource == "" {
		c.DataSource = "STATIC"
	}
	if c.DBPath == "" {
		c.DBPath = "suggestions.db"
	}
	if c.Market.Open == "" {
		c.Market.Open = "09:15"
	}
	if c.Market.Close == "" {
		c.Market.Close = "15:30"
	}
	if c.Risk.MaxOpenPositions == 0 {
		c.Risk.MaxOpenPositions = 3
	}
	if c.Risk.LossStreakLimit == 0 {
		c.Risk.LossStreakLimit = 3
	}
	if c.Cadence.GenerateMinutes == 0 {
		c.Cadence.GenerateMinutes = 3
	}
	if c.Cadence.TrackSeconds == 0 {
		c.Cadence.TrackSeconds = 60
	}
	if c.Cadence.NewsMinutes == 0 {
		c.Cadence.NewsMinutes = 30
	}
	if c.Kite.APIKeyEnv == "" {
		c.Kite.APIKeyEnv = "KITE_API_KEY"
	}
	if c.Kite.AccessTokenEnv == "" {
		c.Kite.AccessTokenEnv = "KITE_ACCESS_TOKEN"
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}
