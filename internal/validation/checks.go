package validation

import (
	"fmt"

	"github.com/prathamj/optionsgate/pkg/models"
)

// ladderStep is one row of a check's threshold ladder: the first predicate
// that matches decides the status and severity. Keeping the ladder as an
// ordered table keeps the tie-break order auditable and testable on its own.
type ladderStep struct {
	applies  func(value float64) bool
	status   models.CheckStatus
	severity models.Severity
	message  string // fmt string receiving the measured value
}

// checkLadder evaluates a measured value top-to-bottom against its steps.
type checkLadder struct {
	name      string
	threshold float64 // the headline threshold surfaced to the caller
	steps     []ladderStep
}

func (l checkLadder) evaluate(name string, value float64) models.ValidationCheck {
	if name == "" {
		name = l.name
	}
	for _, step := range l.steps {
		if step.applies(value) {
			return models.ValidationCheck{
				Name:      name,
				Status:    step.status,
				Severity:  step.severity,
				Value:     value,
				Threshold: l.threshold,
				Message:   fmt.Sprintf(step.message, value),
			}
		}
	}
	// Ladders end with a catch-all; reaching here is a table bug.
	return models.ValidationCheck{
		Name:     name,
		Status:   models.CheckFail,
		Severity: models.SeverityHigh,
		Value:    value,
		Message:  "no ladder step matched",
	}
}

func ge(threshold float64) func(float64) bool {
	return func(v float64) bool { return v >= threshold }
}

func lt(threshold float64) func(float64) bool {
	return func(v float64) bool { return v < threshold }
}

func always(float64) bool { return true }

// strikeBufferLadder grades the percent distance between spot and a short
// strike. Inside 2% the position is effectively at the money.
var strikeBufferLadder = checkLadder{
	name:      "strike_buffer",
	threshold: 3.0,
	steps: []ladderStep{
		{ge(3.0), models.CheckPass, models.SeverityInfo, "strike %.1f%% from spot, comfortable buffer"},
		{ge(2.0), models.CheckWarning, models.SeverityHigh, "strike only %.1f%% from spot, thin buffer"},
		{always, models.CheckFail, models.SeverityCritical, "strike %.1f%% from spot, effectively at the money"},
	},
}

// probTouchLadder grades the probability (0–1) of the underlying touching
// the short strike before expiration.
var probTouchLadder = checkLadder{
	name:      "probability_of_touch",
	threshold: 0.30,
	steps: []ladderStep{
		{lt(0.30), models.CheckPass, models.SeverityInfo, "touch probability %.2f, acceptable"},
		{lt(0.45), models.CheckWarning, models.SeverityHigh, "touch probability %.2f, elevated"},
		{always, models.CheckFail, models.SeverityHigh, "touch probability %.2f, strike likely to be tested"},
	},
}

// atrDistanceLadder grades the strike's distance in 14-day ATR units.
var atrDistanceLadder = checkLadder{
	name:      "atr_distance",
	threshold: 1.5,
	steps: []ladderStep{
		{ge(1.5), models.CheckPass, models.SeverityInfo, "strike %.1f ATRs away, outside normal range"},
		{ge(1.0), models.CheckWarning, models.SeverityMedium, "strike %.1f ATRs away, within reach on a volatile day"},
		{always, models.CheckFail, models.SeverityHigh, "strike only %.1f ATRs away, inside a single day's range"},
	},
}

// ivLevelLadder sanity-checks the implied volatility magnitude (decimal).
var ivLevelLadder = checkLadder{
	name:      "implied_volatility",
	threshold: 0.80,
	steps: []ladderStep{
		{lt(0.10), models.CheckWarning, models.SeverityMedium, "IV %.2f, premium too thin to pay for the risk"},
		{lt(0.80), models.CheckPass, models.SeverityInfo, "IV %.2f, within normal bounds"},
		{always, models.CheckWarning, models.SeverityMedium, "IV %.2f, extreme; expect violent moves"},
	},
}

// ivHVRatioLadder compares implied to historical volatility. Selling premium
// below realized volatility is structurally unprofitable.
var ivHVRatioLadder = checkLadder{
	name:      "iv_hv_ratio",
	threshold: 1.0,
	steps: []ladderStep{
		{ge(1.0), models.CheckPass, models.SeverityInfo, "IV/HV %.2f, premium rich relative to realized moves"},
		{ge(0.8), models.CheckWarning, models.SeverityMedium, "IV/HV %.2f, premium near realized volatility"},
		{always, models.CheckFail, models.SeverityHigh, "IV/HV %.2f, selling premium below realized volatility"},
	},
}

// vixLadder grades the volatility regime.
var vixLadder = checkLadder{
	name:      "vix_level",
	threshold: 20,
	steps: []ladderStep{
		{lt(20), models.CheckPass, models.SeverityInfo, "VIX %.1f, calm regime"},
		{lt(30), models.CheckWarning, models.SeverityMedium, "VIX %.1f, elevated regime"},
		{always, models.CheckFail, models.SeverityHigh, "VIX %.1f, high-volatility regime"},
	},
}

// spreadLadder grades the short option's bid/ask spread percent.
var spreadLadder = checkLadder{
	name:      "liquidity_spread",
	threshold: 5,
	steps: []ladderStep{
		{lt(5), models.CheckPass, models.SeverityInfo, "spread %.1f%%, tight market"},
		{lt(10), models.CheckWarning, models.SeverityMedium, "spread %.1f%%, wide market, expect slippage"},
		{always, models.CheckFail, models.SeverityHigh, "spread %.1f%%, illiquid market"},
	},
}

// dteLadder grades the days remaining to expiration.
var dteLadder = checkLadder{
	name:      "days_to_expiration",
	threshold: 7,
	steps: []ladderStep{
		{lt(7), models.CheckWarning, models.SeverityHigh, "%.0f days to expiration, gamma risk dominates"},
		{lt(46), models.CheckPass, models.SeverityInfo, "%.0f days to expiration, standard window"},
		{always, models.CheckWarning, models.SeverityMedium, "%.0f days to expiration, long-dated, slow theta"},
	},
}

// marketDirectionCheck compares the strategy's directional exposure with the
// broad market's strength. Not a numeric ladder: the measured value is the
// proxy's change percent, the verdict comes from the strength label.
func marketDirectionCheck(strategy models.StrategyType, market models.BroadMarketContext) models.ValidationCheck {
	check := models.ValidationCheck{
		Name:  "market_direction",
		Value: market.SPYChangePct,
	}

	strength := market.MarketStrength
	against := (strategy.IsBullish() && strength.IsBearish()) ||
		(strategy.IsBearish() && strength.IsBullish())

	switch {
	case against && strength.IsStrong():
		check.Status = models.CheckFail
		check.Severity = models.SeverityHigh
		check.Message = fmt.Sprintf("market %s, strongly against the position", strength)
	case against && (strength == models.ModerateBullish || strength == models.ModerateBearish):
		check.Status = models.CheckWarning
		check.Severity = models.SeverityMedium
		check.Message = fmt.Sprintf("market %s, leaning against the position", strength)
	default:
		check.Status = models.CheckPass
		check.Severity = models.SeverityInfo
		check.Message = fmt.Sprintf("market %s, no directional conflict", strength)
	}

	return check
}
