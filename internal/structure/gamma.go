package structure

import (
	"math"
	"sort"

	"github.com/prathamj/optionsgate/pkg/models"
)

// Gamma regime labels. The naming follows the dealer's hedging behavior:
// positive total GEX means dealers amplify moves (sell into drops, buy into
// rallies), which is the "Negative Gamma" regime. The sign convention is
// load-bearing for the volatility warning downstream; do not flip it.
const (
	RegimeNegativeGamma = "Negative Gamma"
	RegimePositiveGamma = "Positive Gamma"
	RegimeFlatGamma     = "Flat Gamma"
)

// GammaPoint is one strike's contribution to the gamma profile.
type GammaPoint struct {
	Strike  float64 `json:"strike"`
	GEX     float64 `json:"gex"`
	GammaOI float64 `json:"gamma_oi"` // |gamma × OI| concentration at this strike
}

// GammaExposure summarizes dealer gamma positioning across the chain.
type GammaExposure struct {
	TotalGEX       float64      `json:"total_gex"`
	Regime         string       `json:"regime"`
	MaxGammaStrike float64      `json:"max_gamma_strike"`
	Profile        []GammaPoint `json:"profile"`
	Interpretation string       `json:"interpretation"`
}

// ComputeGammaExposure aggregates per-contract gamma exposure. Each
// contribution is gamma × OI × spot² × 0.01; calls add, puts subtract.
func ComputeGammaExposure(chain *models.OptionChain, spot float64) GammaExposure {
	byStrike := map[float64]*GammaPoint{}

	accumulate := func(contracts []models.OptionContract, sign float64) {
		for _, c := range contracts {
			if c.Greeks.Gamma == 0 || c.OpenInterest == 0 {
				continue
			}
			gex := sign * c.Greeks.Gamma * float64(c.OpenInterest) * spot * spot * 0.01
			point, ok := byStrike[c.Strike]
			if !ok {
				point = &GammaPoint{Strike: c.Strike}
				byStrike[c.Strike] = point
			}
			point.GEX += gex
			point.GammaOI += math.Abs(c.Greeks.Gamma * float64(c.OpenInterest))
		}
	}
	accumulate(chain.Calls, 1)
	accumulate(chain.Puts, -1)

	result := GammaExposure{}

	profile := make([]GammaPoint, 0, len(byStrike))
	for _, point := range byStrike {
		profile = append(profile, *point)
		result.TotalGEX += point.GEX
	}
	sort.Slice(profile, func(i, j int) bool { return profile[i].Strike < profile[j].Strike })
	result.Profile = profile

	var maxConcentration float64
	for _, point := range profile {
		if point.GammaOI > maxConcentration {
			maxConcentration = point.GammaOI
			result.MaxGammaStrike = point.Strike
		}
	}

	switch {
	case result.TotalGEX > 0:
		result.Regime = RegimeNegativeGamma
		result.Interpretation = "Dealers hedge with the move, expect amplified swings and higher realized volatility"
	case result.TotalGEX < 0:
		result.Regime = RegimePositiveGamma
		result.Interpretation = "Dealers hedge against the move, expect dampened swings and pinning near high-gamma strikes"
	default:
		result.Regime = RegimeFlatGamma
		result.Interpretation = "No meaningful gamma concentration in this chain"
	}

	return result
}
