package types

import "time"

// IST is the exchange timezone. All session math happens in it.
var IST = time.FixedZone("IST", 19800)

type Candle struct {
	Ts                          int64
	Open, High, Low, Close, Vol float64
}

// Trend is a directional classification shared by every signal source.
type Trend string

const (
	StrongBullish Trend = "STRONG_BULLISH"
	Bullish       Trend = "BULLISH"
	Neutral       Trend = "NEUTRAL"
	Bearish       Trend = "BEARISH"
	StrongBearish Trend = "STRONG_BEARISH"
)

// IsBullish reports whether t is BULLISH or STRONG_BULLISH.
func (t Trend) IsBullish() bool { return t == Bullish || t == StrongBullish }

// IsBearish reports whether t is BEARISH or STRONG_BEARISH.
func (t Trend) IsBearish() bool { return t == Bearish || t == StrongBearish }

type OptionType string

const (
	Call OptionType = "CE"
	Put  OptionType = "PE"
)

// OptionQuote is one side (call or put) of an option-chain row.
type OptionQuote struct {
	OI       float64 `json:"oi"`
	OIChange float64 `json:"oi_change"`
	Volume   float64 `json:"volume"`
	IV       float64 `json:"iv"`
	LTP      float64 `json:"ltp"`
}

// StrikeRow holds both sides of a single strike.
type StrikeRow struct {
	StrikePrice float64     `json:"strike_price"`
	CE          OptionQuote `json:"ce"`
	PE          OptionQuote `json:"pe"`
}

// OptionChainSnapshot is a point-in-time option chain for one index.
// Strikes are unique within a snapshot; OI and volume are non-negative.
type OptionChainSnapshot struct {
	Index     string      `json:"index"`
	SpotPrice float64     `json:"spot_price"`
	MaxPain   float64     `json:"max_pain"`
	Strikes   []StrikeRow `json:"strikes"`
	FetchedAt time.Time   `json:"fetched_at"`
}

// Strike returns the row at the given strike price, or nil when absent.
func (s *OptionChainSnapshot) Strike(price float64) *StrikeRow {
	for i := range s.Strikes {
		if s.Strikes[i].StrikePrice == price {
			return &s.Strikes[i]
		}
	}
	return nil
}

// FlowSnapshot is one day of institutional net flows.
type FlowSnapshot struct {
	Date            time.Time `json:"date"`
	CashNet         float64   `json:"cash_net"`
	IndexFuturesNet float64   `json:"index_futures_net"`
	LongShortRatio  float64   `json:"long_short_ratio"`
}

// NewsPulse summarizes headline sentiment over a trailing window.
type NewsPulse struct {
	Bullish          int  `json:"bullish"`
	Bearish          int  `json:"bearish"`
	Neutral          int  `json:"neutral"`
	HasImportantNews bool `json:"has_important_news"`
}

// PeerStock is one index constituent with its membership weight and the
// trend classification of its own technicals.
type PeerStock struct {
	Symbol string  `json:"symbol"`
	Weight float64 `json:"weight"`
	Trend  Trend   `json:"trend"`
}

type EventImpact string

const (
	ImpactLow    EventImpact = "LOW"
	ImpactMedium EventImpact = "MEDIUM"
	ImpactHigh   EventImpact = "HIGH"
)

// CalendarEvent is a scheduled macro/market event.
type CalendarEvent struct {
	Date   time.Time   `json:"date"`
	Name   string      `json:"name"`
	Impact EventImpact `json:"impact"`
}

type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusT1Hit   Status = "T1_HIT"
	StatusT2Hit   Status = "T2_HIT"
	StatusT3Hit   Status = "T3_HIT"
	StatusSLHit   Status = "SL_HIT"
	StatusExpired Status = "EXPIRED"
	StatusClosed  Status = "CLOSED"
)

// Terminal reports whether tracking stops in this status. Target hits are
// not terminal: tracking continues for higher targets or a late stop-loss.
func (s Status) Terminal() bool {
	return s == StatusSLHit || s == StatusExpired || s == StatusClosed
}

// Open reports whether a suggestion in this status should still be ticked.
func (s Status) Open() bool { return !s.Terminal() }

type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
)

// Checklist is the fixed set of 12 suggestion conditions. The count of set
// flags is always derived via Met(), never stored independently.
type Checklist struct {
	TrendAlignment     bool `json:"trend_alignment"`
	OptionChainAligns  bool `json:"option_chain_aligns"`
	OIBuildupSupport   bool `json:"oi_buildup_support"`
	PCRFavorable       bool `json:"pcr_favorable"`
	TechnicalConfirm   bool `json:"technical_confirm"`
	CandlestickConfirm bool `json:"candlestick_confirm"`
	PeerStocksConfirm  bool `json:"peer_stocks_confirm"`
	FlowSupport        bool `json:"flow_support"`
	NoNegativeNews     bool `json:"no_negative_news"`
	VolatilityNormal   bool `json:"volatility_normal"`
	GoodLiquidity      bool `json:"good_liquidity"`
	RiskRewardGood     bool `json:"risk_reward_good"`
}

// Met counts the set flags.
func (c Checklist) Met() int {
	n := 0
	for _, b := range []bool{
		c.TrendAlignment, c.OptionChainAligns, c.OIBuildupSupport,
		c.PCRFavorable, c.TechnicalConfirm, c.CandlestickConfirm,
		c.PeerStocksConfirm, c.FlowSupport, c.NoNegativeNews,
		c.VolatilityNormal, c.GoodLiquidity, c.RiskRewardGood,
	} {
		if b {
			n++
		}
	}
	return n
}

// Reasoning is the per-source free-text provenance of a suggestion.
type Reasoning struct {
	Trend       string `json:"trend"`
	OptionChain string `json:"option_chain"`
	Technical   string `json:"technical"`
	Candlestick string `json:"candlestick"`
	Flows       string `json:"flows"`
	News        string `json:"news"`
	PeerStocks  string `json:"peer_stocks"`
	Levels      string `json:"levels,omitempty"`
	Overall     string `json:"overall"`
}

// Suggestion is the central mutable record. It is created once by the
// generator and mutated only by the lifecycle tracker (or a manual close);
// terminal records are retained for analytics.
type Suggestion struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Index       string     `json:"index"`
	OptionType  OptionType `json:"option_type"`
	StrikePrice float64    `json:"strike_price"`
	ExpiryDate  time.Time  `json:"expiry_date"`

	EntryPrice float64 `json:"entry_price"`
	Target1    float64 `json:"target1"`
	Target2    float64 `json:"target2"`
	Target3    float64 `json:"target3"`
	StopLoss   float64 `json:"stop_loss"`
	RiskReward string  `json:"risk_reward"`

	CurrentPrice float64 `json:"current_price"`
	HighSince    float64 `json:"high_since"`
	LowSince     float64 `json:"low_since"`

	Target1Hit   bool       `json:"target1_hit"`
	Target1HitAt *time.Time `json:"target1_hit_at,omitempty"`
	Target2Hit   bool       `json:"target2_hit"`
	Target2HitAt *time.Time `json:"target2_hit_at,omitempty"`
	Target3Hit   bool       `json:"target3_hit"`
	Target3HitAt *time.Time `json:"target3_hit_at,omitempty"`
	StopLossHit  bool       `json:"stop_loss_hit"`
	StopLossAt   *time.Time `json:"stop_loss_at,omitempty"`

	PnlPercent float64 `json:"pnl_percent"`
	PnlAmount  float64 `json:"pnl_amount"`

	Status          Status     `json:"status"`
	Confidence      Confidence `json:"confidence"`
	ConfidenceScore float64    `json:"confidence_score"`

	Conditions    Checklist `json:"conditions"`
	ConditionsMet int       `json:"conditions_met"`
	Reasoning     Reasoning `json:"reasoning"`

	FailureReason  string `json:"failure_reason,omitempty"`
	LessonsLearned string `json:"lessons_learned,omitempty"`
}

type EventKind string

const (
	EventCreated   EventKind = "created"
	EventTargetHit EventKind = "target-hit"
	EventStopLoss  EventKind = "stop-loss-hit"
	EventNearStop  EventKind = "near-stop-loss-warning"
	EventExpired   EventKind = "expired"
	EventClosed    EventKind = "closed"
)

// Event is the structured payload handed to the notification sink.
type Event struct {
	Kind         EventKind `json:"kind"`
	SuggestionID string    `json:"suggestion_id"`
	Status       Status    `json:"status"`
	Price        float64   `json:"price"`
	PnlPercent   float64   `json:"pnl_percent"`
	Message      string    `json:"message"`
	At           time.Time `json:"at"`
}
