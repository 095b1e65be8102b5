package validation

import (
	"fmt"
	"math"

	"github.com/prathamj/optionsgate/pkg/models"
	"github.com/prathamj/optionsgate/pkg/utils"
)

// Entry gate thresholds. The gate is a lighter battery than the full
// validation: it asks only whether NOW is a sane moment to place the
// order, assuming the position itself already validated.
const (
	entryRejectProximityPct  = 1.0 // strike this close to spot blocks entry
	entryCautionProximityPct = 2.0
	entryRejectVIX           = 35.0
	entryCautionVIX          = 25.0
	entryCautionRangePct     = 3.0 // intraday range this wide means a fast tape
	entryCautionVWAPDevPct   = 2.0
)

// ShouldEnterTrade runs the pre-entry gate against an already-gathered
// snapshot. Blocking conditions reject; softer ones accumulate as
// cautions. Pure in the snapshot: re-running with the same snapshot
// yields the same decision.
func ShouldEnterTrade(snapshot *models.MarketSnapshot, strategy models.StrategyType, strikes models.Strikes) models.EntryDecision {
	var reasons, cautions []string

	if !utils.IsMarketOpenAt(snapshot.Timestamp) {
		reasons = append(reasons, "market is closed")
	}

	spot := snapshot.Underlying.Price
	for _, leg := range shortLegs(strikes) {
		distPct := math.Abs(spot-leg.strike) / spot * 100
		switch {
		case distPct < entryRejectProximityPct:
			reasons = append(reasons, fmt.Sprintf("%s strike %.2f within %.1f%% of spot", leg.key, leg.strike, distPct))
		case distPct < entryCautionProximityPct:
			cautions = append(cautions, fmt.Sprintf("%s strike %.2f only %.1f%% from spot", leg.key, leg.strike, distPct))
		}
	}

	if vix := snapshot.Market.VIX; vix > 0 {
		switch {
		case vix >= entryRejectVIX:
			reasons = append(reasons, fmt.Sprintf("VIX %.1f, panic regime", vix))
		case vix >= entryCautionVIX:
			cautions = append(cautions, fmt.Sprintf("VIX %.1f, elevated volatility", vix))
		}
	}

	strength := snapshot.Market.MarketStrength
	if strength.IsStrong() {
		if (strategy.IsBullish() && strength.IsBearish()) ||
			(strategy.IsBearish() && strength.IsBullish()) {
			cautions = append(cautions, fmt.Sprintf("market %s, trending against the position", strength))
		} else if strategy == models.IronCondor {
			cautions = append(cautions, fmt.Sprintf("market %s, strong trend threatens one side of the condor", strength))
		}
	}

	intraday := snapshot.Underlying.Intraday
	if intraday.RangePct > entryCautionRangePct {
		cautions = append(cautions, fmt.Sprintf("intraday range %.1f%%, fast tape", intraday.RangePct))
	}
	if math.Abs(intraday.DistanceFromVWAPPct) > entryCautionVWAPDevPct {
		cautions = append(cautions, fmt.Sprintf("price %.1f%% from VWAP, stretched intraday", intraday.DistanceFromVWAPPct))
	}

	decision := models.EntryDecision{
		Reasons:  reasons,
		Cautions: cautions,
	}
	switch {
	case len(reasons) > 0:
		decision.Status = models.EntryRejected
	case len(cautions) > 2:
		decision.Status = models.EntryCaution
	case len(cautions) > 0:
		decision.Status = models.EntryCaution
		decision.SafeToEnter = true
	default:
		decision.Status = models.EntryApproved
		decision.SafeToEnter = true
	}
	return decision
}
