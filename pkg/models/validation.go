package models

import "time"

// CheckStatus is the outcome of a single validation check.
type CheckStatus string

const (
	CheckPass    CheckStatus = "PASS"
	CheckWarning CheckStatus = "WARNING"
	CheckFail    CheckStatus = "FAIL"
)

// Severity grades how much a non-passing check matters.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// OverallStatus is the final verdict of the full validation battery.
type OverallStatus string

const (
	StatusApproved     OverallStatus = "APPROVED"
	StatusLowRisk      OverallStatus = "LOW_RISK"
	StatusModerateRisk OverallStatus = "MODERATE_RISK"
	StatusHighRisk     OverallStatus = "HIGH_RISK"
	StatusRejected     OverallStatus = "REJECTED"
)

// EntryStatus is the verdict of the lighter pre-entry gate.
type EntryStatus string

const (
	EntryApproved EntryStatus = "APPROVED"
	EntryCaution  EntryStatus = "PROCEED_WITH_CAUTION"
	EntryRejected EntryStatus = "REJECTED"
)

// StrategyType identifies the option strategy being validated.
type StrategyType string

const (
	PutCreditSpread  StrategyType = "put_credit_spread"
	CallCreditSpread StrategyType = "call_credit_spread"
	IronCondor       StrategyType = "iron_condor"
)

// IsBullish reports whether the strategy profits from the underlying rising
// or holding. Iron condors are direction-neutral.
func (s StrategyType) IsBullish() bool { return s == PutCreditSpread }

// IsBearish reports whether the strategy profits from the underlying falling
// or holding.
func (s StrategyType) IsBearish() bool { return s == CallCreditSpread }

// Strikes holds the legs of a proposed position. A zero strike means the
// leg is not part of the strategy.
type Strikes struct {
	ShortPut  float64 `json:"short_put,omitempty"`
	LongPut   float64 `json:"long_put,omitempty"`
	ShortCall float64 `json:"short_call,omitempty"`
	LongCall  float64 `json:"long_call,omitempty"`
}

// ValidationCheck records one check's measured value against its threshold.
type ValidationCheck struct {
	Name      string         `json:"name"`
	Status    CheckStatus    `json:"status"`
	Severity  Severity       `json:"severity"`
	Value     float64        `json:"value"`
	Threshold float64        `json:"threshold"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}

// ProbabilityResult holds the probability metrics for one strike.
type ProbabilityResult struct {
	Strike             float64    `json:"strike"`
	OptionType         OptionType `json:"option_type"`
	ProbTouch          float64    `json:"prob_touch"`
	ProbITM            float64    `json:"prob_itm"`
	DistanceInATR      float64    `json:"distance_in_atr"`
	ATR14D             float64    `json:"atr_14d"`
	ExpectedMove       float64    `json:"expected_move"`
	ImpliedVolatility  float64    `json:"implied_volatility"`
	HistoricalVol      float64    `json:"historical_volatility"`
	DaysToExpiration   int        `json:"days_to_expiration"`
	UnderlyingPrice    float64    `json:"underlying_price"`
	Bid                float64    `json:"bid"`
	Ask                float64    `json:"ask"`
	Mid                float64    `json:"mid"`
	BidAskSpread       float64    `json:"bid_ask_spread"`
	Volume             int64      `json:"volume"`
	OpenInterest       int64      `json:"open_interest"`
}

// LiquidityQuality is the tier assigned to an option's market quality.
type LiquidityQuality string

const (
	LiquidityExcellent LiquidityQuality = "EXCELLENT"
	LiquidityGood      LiquidityQuality = "GOOD"
	LiquidityFair      LiquidityQuality = "FAIR"
	LiquidityPoor      LiquidityQuality = "POOR"
)

// Rank orders quality tiers for threshold comparisons (EXCELLENT=3 … POOR=0).
func (q LiquidityQuality) Rank() int {
	switch q {
	case LiquidityExcellent:
		return 3
	case LiquidityGood:
		return 2
	case LiquidityFair:
		return 1
	default:
		return 0
	}
}

// LiquidityAssessment is the scored tradeability verdict for one option.
// Score and quality are computed from independent rules and may disagree;
// callers must not assume one determines the other.
type LiquidityAssessment struct {
	Tradeable      bool             `json:"tradeable"`
	LiquidityScore int              `json:"liquidity_score"`
	Quality        LiquidityQuality `json:"quality"`
	SpreadPct      float64          `json:"spread_pct"`
	VolumeOIRatio  float64          `json:"volume_oi_ratio"`
	Warnings       []string         `json:"warnings"`
}

// StrikeMetrics are the condensed per-strike numbers attached to a
// recommendation for non-rejected verdicts.
type StrikeMetrics struct {
	Strike        float64    `json:"strike"`
	OptionType    OptionType `json:"option_type"`
	ProbTouch     float64    `json:"prob_touch"`
	DistanceInATR float64    `json:"distance_in_atr"`
	ExpectedMove  float64    `json:"expected_move"`
}

// Recommendation is the actionable synthesis of the overall status.
type Recommendation struct {
	Action     string          `json:"action"`
	Reasoning  string          `json:"reasoning"`
	NextSteps  []string        `json:"next_steps"`
	KeyMetrics []StrikeMetrics `json:"key_metrics,omitempty"`
}

// ValidationReport aggregates the full check battery for one trade candidate.
// Built once per validation call and returned to the caller; never mutated
// afterward.
type ValidationReport struct {
	Symbol        string                        `json:"symbol"`
	StrategyType  StrategyType                  `json:"strategy_type"`
	Strikes       Strikes                       `json:"strikes"`
	Expiration    string                        `json:"expiration"`
	Timestamp     time.Time                     `json:"timestamp"`
	Checks        []ValidationCheck             `json:"checks"`
	Probabilities map[string]*ProbabilityResult `json:"probabilities"`
	MarketData    *MarketSnapshot               `json:"market_data"`
	OverallStatus OverallStatus                 `json:"overall_status"`
	Recommendation Recommendation               `json:"recommendation"`
}

// EntryDecision is the verdict of the pre-entry gate.
type EntryDecision struct {
	SafeToEnter bool        `json:"safe_to_enter"`
	Status      EntryStatus `json:"status"`
	Reasons     []string    `json:"reasons"`
	Cautions    []string    `json:"cautions,omitempty"`
}
