// Package models defines the shared data structures exchanged between the
// market data provider, the analysis engines, and the validation pipeline.
// All snapshot types are value objects: built once per call, never mutated
// afterward, never persisted.
package models

import "time"

// Quote is a normalized real-time (or near-real-time) quote.
type Quote struct {
	Symbol       string  `json:"symbol"`
	Price        float64 `json:"price"`
	Change       float64 `json:"change"`
	ChangePct    float64 `json:"change_pct"`
	Volume       int64   `json:"volume"`
	MarketStatus string  `json:"market_status"`
}

// Bar is a single OHLCV bar, intraday or daily.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// VIXLevel buckets the VIX value into a qualitative regime.
type VIXLevel string

const (
	VIXLow      VIXLevel = "LOW"      // VIX < 15
	VIXNormal   VIXLevel = "NORMAL"   // 15 ≤ VIX < 20
	VIXElevated VIXLevel = "ELEVATED" // 20 ≤ VIX < 30
	VIXHigh     VIXLevel = "HIGH"     // VIX ≥ 30
)

// ClassifyVIX maps a VIX value to its level bucket.
func ClassifyVIX(vix float64) VIXLevel {
	switch {
	case vix < 15:
		return VIXLow
	case vix < 20:
		return VIXNormal
	case vix < 30:
		return VIXElevated
	default:
		return VIXHigh
	}
}

// MarketStrength classifies the broad market's directional conviction.
type MarketStrength string

const (
	StrongBullish   MarketStrength = "STRONG_BULLISH"
	ModerateBullish MarketStrength = "MODERATE_BULLISH"
	WeakBullish     MarketStrength = "WEAK_BULLISH"
	Neutral         MarketStrength = "NEUTRAL"
	WeakBearish     MarketStrength = "WEAK_BEARISH"
	ModerateBearish MarketStrength = "MODERATE_BEARISH"
	StrongBearish   MarketStrength = "STRONG_BEARISH"
)

// IsStrong reports whether the strength is in either STRONG_* bucket.
func (s MarketStrength) IsStrong() bool {
	return s == StrongBullish || s == StrongBearish
}

// IsBullish reports whether the strength leans bullish.
func (s MarketStrength) IsBullish() bool {
	return s == StrongBullish || s == ModerateBullish || s == WeakBullish
}

// IsBearish reports whether the strength leans bearish.
func (s MarketStrength) IsBearish() bool {
	return s == StrongBearish || s == ModerateBearish || s == WeakBearish
}

// RiskEnvironment classifies the overall risk regime from VIX and market strength.
type RiskEnvironment string

const (
	RiskNormal   RiskEnvironment = "NORMAL"
	RiskModerate RiskEnvironment = "MODERATE"
	RiskHigh     RiskEnvironment = "HIGH"
	RiskVeryHigh RiskEnvironment = "VERY_HIGH"
)

// IntradayStats holds session-level derived statistics for the underlying.
type IntradayStats struct {
	High                float64 `json:"high"`
	Low                 float64 `json:"low"`
	Range               float64 `json:"range"`
	RangePct            float64 `json:"range_pct"`
	VWAP                float64 `json:"vwap"`
	DistanceFromVWAP    float64 `json:"distance_from_vwap"`
	DistanceFromVWAPPct float64 `json:"distance_from_vwap_pct"`
	VWAPLabel           string  `json:"vwap_label"`
}

// TechnicalContext holds indicator values for the underlying.
// A zero value means the indicator fetch failed and was defaulted.
type TechnicalContext struct {
	RSI        float64 `json:"rsi"`
	SMA20      float64 `json:"sma20"`
	SMA50      float64 `json:"sma50"`
	PriceVsSMA string  `json:"price_vs_sma"`
}

// UnderlyingContext describes the underlying symbol's current state.
type UnderlyingContext struct {
	Price      float64          `json:"price"`
	Change     float64          `json:"change"`
	ChangePct  float64          `json:"change_pct"`
	Volume     int64            `json:"volume"`
	Intraday   IntradayStats    `json:"intraday"`
	Technicals TechnicalContext `json:"technicals"`
}

// BroadMarketContext describes the overall market environment.
type BroadMarketContext struct {
	VIX             float64         `json:"vix"`
	VIXLevel        VIXLevel        `json:"vix_level"`
	SPYPrice        float64         `json:"spy_price"`
	SPYChangePct    float64         `json:"spy_change_pct"`
	MarketStrength  MarketStrength  `json:"market_strength"`
	RiskEnvironment RiskEnvironment `json:"risk_environment"`
}

// Headline is a single recent news item attached to a market snapshot.
type Headline struct {
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}

// MarketSnapshot is the complete market picture assembled for one
// validation call. Immutable after construction.
type MarketSnapshot struct {
	Timestamp  time.Time          `json:"timestamp"`
	Symbol     string             `json:"symbol"`
	Underlying UnderlyingContext  `json:"underlying"`
	Market     BroadMarketContext `json:"market"`
	Option     *OptionContract    `json:"option,omitempty"`
	Headlines  []Headline         `json:"headlines,omitempty"`
}
