package validation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/prathamj/optionsgate/internal/market"
	"github.com/prathamj/optionsgate/internal/probability"
	"github.com/prathamj/optionsgate/pkg/models"
)

// Engine runs the full pre-trade check battery: it gathers the market
// snapshot and per-strike probabilities concurrently, evaluates every
// check, and reduces the results to one overall verdict.
type Engine struct {
	agg    *market.Aggregator
	prob   *probability.Engine
	logger zerolog.Logger
}

func NewEngine(agg *market.Aggregator, prob *probability.Engine) *Engine {
	return &Engine{
		agg:    agg,
		prob:   prob,
		logger: log.With().Str("component", "validation").Logger(),
	}
}

// shortLeg is one short strike of the proposed position. Long legs are
// protection and are not validated on their own.
type shortLeg struct {
	key    string
	strike float64
	otype  models.OptionType
}

func shortLegs(strikes models.Strikes) []shortLeg {
	var legs []shortLeg
	if strikes.ShortPut > 0 {
		legs = append(legs, shortLeg{"short_put", strikes.ShortPut, models.OptionPut})
	}
	if strikes.ShortCall > 0 {
		legs = append(legs, shortLeg{"short_call", strikes.ShortCall, models.OptionCall})
	}
	return legs
}

// ValidateTrade runs every applicable check against the proposed position
// and returns the aggregated report. Unlike the snapshot aggregation, a
// failure to gather the inputs here is fatal: a verdict built on missing
// probabilities would be worse than no verdict.
func (e *Engine) ValidateTrade(ctx context.Context, symbol string, strategy models.StrategyType, strikes models.Strikes, expiration string) (*models.ValidationReport, error) {
	legs := shortLegs(strikes)
	if len(legs) == 0 {
		return nil, fmt.Errorf("validate %s: no short strikes provided", symbol)
	}

	var (
		mu       sync.Mutex
		snapshot *models.MarketSnapshot
		probs    = make(map[string]*models.ProbabilityResult, len(legs))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap, err := e.agg.GetCompleteMarketPicture(gctx, symbol, "")
		if err != nil {
			return err
		}
		mu.Lock()
		snapshot = snap
		mu.Unlock()
		return nil
	})
	for _, leg := range legs {
		leg := leg
		g.Go(func() error {
			pr, err := e.prob.CalculateProbabilities(gctx, symbol, leg.strike, expiration, leg.otype)
			if err != nil {
				return err
			}
			mu.Lock()
			probs[leg.key] = pr
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", symbol, err)
	}

	checks := e.runChecks(strategy, legs, snapshot, probs)
	overall := reduceChecks(checks)

	report := &models.ValidationReport{
		Symbol:         symbol,
		StrategyType:   strategy,
		Strikes:        strikes,
		Expiration:     expiration,
		Timestamp:      time.Now().UTC(),
		Checks:         checks,
		Probabilities:  probs,
		MarketData:     snapshot,
		OverallStatus:  overall,
		Recommendation: recommend(overall, checks, legs, probs),
	}

	e.logger.Info().
		Str("symbol", symbol).
		Str("strategy", string(strategy)).
		Str("status", string(overall)).
		Int("checks", len(checks)).
		Msg("trade validated")

	return report, nil
}

// runChecks evaluates the battery in a fixed order. Checks whose inputs
// are unavailable (no IV on the contract, no quoted market, VIX fetch
// failed) are omitted rather than guessed at.
func (e *Engine) runChecks(strategy models.StrategyType, legs []shortLeg, snapshot *models.MarketSnapshot, probs map[string]*models.ProbabilityResult) []models.ValidationCheck {
	spot := snapshot.Underlying.Price
	checks := make([]models.ValidationCheck, 0, 4*len(legs)+5)

	for _, leg := range legs {
		buffer := (spot - leg.strike) / spot * 100
		if leg.otype == models.OptionCall {
			buffer = -buffer
		}
		checks = append(checks, strikeBufferLadder.evaluate("strike_buffer_"+leg.key, buffer))

		pr := probs[leg.key]
		checks = append(checks, probTouchLadder.evaluate("probability_of_touch_"+leg.key, pr.ProbTouch))
		checks = append(checks, atrDistanceLadder.evaluate("atr_distance_"+leg.key, pr.DistanceInATR))
	}

	if pr := firstWithIV(legs, probs); pr != nil {
		checks = append(checks, ivLevelLadder.evaluate("", pr.ImpliedVolatility))
		if pr.HistoricalVol > 0 {
			checks = append(checks, ivHVRatioLadder.evaluate("", pr.ImpliedVolatility/pr.HistoricalVol))
		}
	}

	if vix := snapshot.Market.VIX; vix > 0 {
		checks = append(checks, vixLadder.evaluate("", vix))
	}

	checks = append(checks, marketDirectionCheck(strategy, snapshot.Market))

	for _, leg := range legs {
		pr := probs[leg.key]
		if pr.Bid > 0 && pr.Ask > 0 {
			checks = append(checks, spreadLadder.evaluate("liquidity_spread_"+leg.key, pr.BidAskSpread))
		}
	}

	checks = append(checks, dteLadder.evaluate("", float64(probs[legs[0].key].DaysToExpiration)))

	return checks
}

func firstWithIV(legs []shortLeg, probs map[string]*models.ProbabilityResult) *models.ProbabilityResult {
	for _, leg := range legs {
		if pr := probs[leg.key]; pr != nil && pr.ImpliedVolatility > 0 {
			return pr
		}
	}
	return nil
}

// reduceChecks collapses the battery into one verdict. A single critical
// failure rejects the trade outright regardless of everything else.
func reduceChecks(checks []models.ValidationCheck) models.OverallStatus {
	var criticalFails, fails, warnings int
	for _, c := range checks {
		switch c.Status {
		case models.CheckFail:
			if c.Severity == models.SeverityCritical {
				criticalFails++
			}
			fails++
		case models.CheckWarning:
			warnings++
		}
	}

	switch {
	case criticalFails > 0:
		return models.StatusRejected
	case fails > 0:
		return models.StatusHighRisk
	case warnings > 2:
		return models.StatusModerateRisk
	case warnings > 0:
		return models.StatusLowRisk
	default:
		return models.StatusApproved
	}
}

func recommend(overall models.OverallStatus, checks []models.ValidationCheck, legs []shortLeg, probs map[string]*models.ProbabilityResult) models.Recommendation {
	failed := checksWithStatus(checks, models.CheckFail)
	warned := checksWithStatus(checks, models.CheckWarning)

	var rec models.Recommendation
	switch overall {
	case models.StatusRejected:
		rec = models.Recommendation{
			Action:    "DO_NOT_TRADE",
			Reasoning: "Critical failure: " + strings.Join(failed, ", "),
			NextSteps: []string{
				"Choose strikes further from the current price",
				"Re-validate once the position has a real buffer",
			},
		}
	case models.StatusHighRisk:
		rec = models.Recommendation{
			Action:    "AVOID_OR_RESTRUCTURE",
			Reasoning: "Failed checks: " + strings.Join(failed, ", "),
			NextSteps: []string{
				"Restructure the position to clear the failing checks",
				"Consider a later expiration or wider strikes",
			},
		}
	case models.StatusModerateRisk:
		rec = models.Recommendation{
			Action:    "REDUCE_SIZE_OR_WAIT",
			Reasoning: fmt.Sprintf("%d warnings raised: %s", len(warned), strings.Join(warned, ", ")),
			NextSteps: []string{
				"Cut position size to compensate for the elevated risk",
				"Or wait for conditions to improve and re-validate",
			},
		}
	case models.StatusLowRisk:
		rec = models.Recommendation{
			Action:    "ENTER_WITH_MONITORING",
			Reasoning: "Minor warnings: " + strings.Join(warned, ", "),
			NextSteps: []string{
				"Enter at planned size",
				"Set alerts on the warned conditions",
			},
		}
	default:
		rec = models.Recommendation{
			Action:    "ENTER_TRADE",
			Reasoning: "All checks passed",
			NextSteps: []string{
				"Work the order near the mid price",
				"Set alerts at the short strikes",
			},
		}
	}

	switch overall {
	case models.StatusModerateRisk, models.StatusLowRisk, models.StatusApproved:
		for _, leg := range legs {
			pr := probs[leg.key]
			if pr == nil {
				continue
			}
			rec.KeyMetrics = append(rec.KeyMetrics, models.StrikeMetrics{
				Strike:        pr.Strike,
				OptionType:    pr.OptionType,
				ProbTouch:     pr.ProbTouch,
				DistanceInATR: pr.DistanceInATR,
				ExpectedMove:  pr.ExpectedMove,
			})
		}
	}

	return rec
}

func checksWithStatus(checks []models.ValidationCheck, status models.CheckStatus) []string {
	var names []string
	for _, c := range checks {
		if c.Status == status {
			names = append(names, c.Name)
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		names = append(names, "none")
	}
	return names
}
