// Package liquidity scores option market quality. All functions are pure:
// they depend only on the contract data passed in, so identical inputs
// always produce identical output.
package liquidity

import (
	"fmt"
	"sort"

	"github.com/prathamj/optionsgate/pkg/models"
)

// Config enumerates every recognized liquidity option with its default.
type Config struct {
	MinScore      int                     // minimum score for tradeable, default 50
	MaxSpreadPct  float64                 // widest acceptable spread for tradeable
	MinQuality    models.LiquidityQuality // floor tier for batch filtering
	RequireVolume bool                    // tradeable requires nonzero volume
	RequireOI     bool                    // tradeable requires nonzero open interest
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		MinScore:      50,
		MaxSpreadPct:  10,
		MinQuality:    models.LiquidityFair,
		RequireVolume: true,
		RequireOI:     true,
	}
}

// AnalyzeOptionLiquidity scores a single option's market into a 0–100
// liquidity score, a quality tier, and a tradeability verdict. Score and
// tier come from independent rules; neither determines the other.
func AnalyzeOptionLiquidity(opt models.OptionContract, cfg Config) models.LiquidityAssessment {
	if opt.Bid <= 0 || opt.Ask <= 0 {
		return models.LiquidityAssessment{
			Tradeable:      false,
			LiquidityScore: 0,
			Quality:        models.LiquidityPoor,
			Warnings:       []string{"no market"},
		}
	}

	spreadPct := opt.SpreadPct()

	score := spreadComponent(spreadPct) + volumeComponent(opt.Volume) + oiComponent(opt.OpenInterest)

	var volOIRatio float64
	if opt.OpenInterest > 0 {
		volOIRatio = float64(opt.Volume) / float64(opt.OpenInterest)
	}

	assessment := models.LiquidityAssessment{
		LiquidityScore: score,
		Quality:        classifyQuality(spreadPct, opt.Volume, opt.OpenInterest),
		SpreadPct:      spreadPct,
		VolumeOIRatio:  volOIRatio,
	}

	var warnings []string
	if spreadPct > cfg.MaxSpreadPct {
		warnings = append(warnings, fmt.Sprintf("spread %.1f%% exceeds %.1f%% limit", spreadPct, cfg.MaxSpreadPct))
	}
	if cfg.RequireVolume && opt.Volume == 0 {
		warnings = append(warnings, "no volume today")
	}
	if cfg.RequireOI && opt.OpenInterest == 0 {
		warnings = append(warnings, "no open interest")
	}
	if score < cfg.MinScore {
		warnings = append(warnings, fmt.Sprintf("score %d below minimum %d", score, cfg.MinScore))
	}
	assessment.Warnings = warnings
	assessment.Tradeable = len(warnings) == 0

	return assessment
}

// spreadComponent contributes up to 40 points; tighter spreads score higher.
func spreadComponent(spreadPct float64) int {
	switch {
	case spreadPct < 3:
		return 40
	case spreadPct < 7:
		return 30
	case spreadPct < 15:
		return 20
	default:
		return 10
	}
}

// volumeComponent contributes up to 30 points.
func volumeComponent(volume int64) int {
	switch {
	case volume >= 500:
		return 30
	case volume >= 100:
		return 20
	case volume >= 50:
		return 10
	case volume >= 10:
		return 5
	default:
		return 0
	}
}

// oiComponent contributes up to 30 points.
func oiComponent(oi int64) int {
	switch {
	case oi >= 1000:
		return 30
	case oi >= 500:
		return 20
	case oi >= 200:
		return 10
	case oi >= 50:
		return 5
	default:
		return 0
	}
}

// qualityTier is one row of the ordered tier table. A tier matches only when
// spread, volume, and open interest all clear its thresholds.
type qualityTier struct {
	quality   models.LiquidityQuality
	maxSpread float64
	minVolume int64
	minOI     int64
}

// Evaluated top to bottom; first match wins.
var qualityTiers = []qualityTier{
	{models.LiquidityExcellent, 3, 500, 1000},
	{models.LiquidityGood, 7, 100, 500},
	{models.LiquidityFair, 15, 50, 200},
}

func classifyQuality(spreadPct float64, volume, oi int64) models.LiquidityQuality {
	for _, tier := range qualityTiers {
		if spreadPct < tier.maxSpread && volume >= tier.minVolume && oi >= tier.minOI {
			return tier.quality
		}
	}
	return models.LiquidityPoor
}

// AssessedOption pairs a contract with its liquidity assessment and, when
// rejected by the batch filter, the reason.
type AssessedOption struct {
	Option          models.OptionContract      `json:"option"`
	Assessment      models.LiquidityAssessment `json:"assessment"`
	RejectionReason string                     `json:"rejection_reason,omitempty"`
}

// FilterStatistics summarizes a batch filter run.
type FilterStatistics struct {
	Passed           int            `json:"passed"`
	RejectedCount    int            `json:"rejected_count"`
	PassRate         float64        `json:"pass_rate"` // percent
	AvgPassedScore   float64        `json:"avg_passed_score"`
	RejectionReasons map[string]int `json:"rejection_reasons"`
}

// FilterResult is the outcome of filtering an option list by liquidity.
type FilterResult struct {
	Passed     []AssessedOption `json:"passed"`
	Rejected   []AssessedOption `json:"rejected"`
	Statistics FilterStatistics `json:"statistics"`
}

// FilterOptionsByLiquidity assesses every option and partitions the list by
// quality rank and score. Passed options are sorted by score descending.
func FilterOptionsByLiquidity(options []models.OptionContract, cfg Config) FilterResult {
	result := FilterResult{
		Statistics: FilterStatistics{RejectionReasons: map[string]int{}},
	}

	minRank := cfg.MinQuality.Rank()
	for _, opt := range options {
		assessed := AssessedOption{
			Option:     opt,
			Assessment: AnalyzeOptionLiquidity(opt, cfg),
		}

		switch {
		case assessed.Assessment.Quality.Rank() < minRank:
			assessed.RejectionReason = fmt.Sprintf("quality %s below %s", assessed.Assessment.Quality, cfg.MinQuality)
			result.Rejected = append(result.Rejected, assessed)
		case assessed.Assessment.LiquidityScore < cfg.MinScore:
			assessed.RejectionReason = fmt.Sprintf("score below %d", cfg.MinScore)
			result.Rejected = append(result.Rejected, assessed)
		default:
			result.Passed = append(result.Passed, assessed)
		}
	}

	sort.SliceStable(result.Passed, func(i, j int) bool {
		return result.Passed[i].Assessment.LiquidityScore > result.Passed[j].Assessment.LiquidityScore
	})

	result.Statistics.Passed = len(result.Passed)
	result.Statistics.RejectedCount = len(result.Rejected)
	if len(options) > 0 {
		result.Statistics.PassRate = float64(len(result.Passed)) / float64(len(options)) * 100
	}

	var totalScore int
	for _, a := range result.Passed {
		totalScore += a.Assessment.LiquidityScore
	}
	if len(result.Passed) > 0 {
		result.Statistics.AvgPassedScore = float64(totalScore) / float64(len(result.Passed))
	}

	for _, a := range result.Rejected {
		result.Statistics.RejectionReasons[a.RejectionReason]++
	}

	return result
}

// MarketDepth folds a whole-chain filter result into a single verdict.
type MarketDepth struct {
	Depth          models.LiquidityQuality `json:"depth"`
	TradeablePct   float64                 `json:"tradeable_pct"`
	AvgVolume      float64                 `json:"avg_volume"`
	AvgSpreadPct   float64                 `json:"avg_spread_pct"`
	Recommendation string                  `json:"recommendation"`
}

// AssessMarketDepth grades the whole chain's tradeability.
func AssessMarketDepth(chain *models.OptionChain, cfg Config) MarketDepth {
	contracts := chain.Contracts()
	if len(contracts) == 0 {
		return MarketDepth{
			Depth:          models.LiquidityPoor,
			Recommendation: "No contracts in chain, do not trade this expiration",
		}
	}

	var tradeable int
	var totalVolume, totalSpread float64
	var quoted int
	for _, opt := range contracts {
		a := AnalyzeOptionLiquidity(opt, cfg)
		if a.Tradeable {
			tradeable++
		}
		totalVolume += float64(opt.Volume)
		if spread := opt.SpreadPct(); spread > 0 {
			totalSpread += spread
			quoted++
		}
	}

	depth := MarketDepth{
		TradeablePct: float64(tradeable) / float64(len(contracts)) * 100,
		AvgVolume:    totalVolume / float64(len(contracts)),
	}
	if quoted > 0 {
		depth.AvgSpreadPct = totalSpread / float64(quoted)
	}

	switch {
	case depth.TradeablePct >= 60 && depth.AvgVolume >= 200 && depth.AvgSpreadPct < 5:
		depth.Depth = models.LiquidityExcellent
		depth.Recommendation = "Deep market, standard size orders fill near mid"
	case depth.TradeablePct >= 40 && depth.AvgVolume >= 100:
		depth.Depth = models.LiquidityGood
		depth.Recommendation = "Healthy market, use limit orders at or near mid"
	case depth.TradeablePct >= 20 && depth.AvgVolume >= 25:
		depth.Depth = models.LiquidityFair
		depth.Recommendation = "Thin market, work limit orders patiently, reduce size"
	default:
		depth.Depth = models.LiquidityPoor
		depth.Recommendation = "Illiquid chain, avoid or trade minimal size with strict limits"
	}

	return depth
}
