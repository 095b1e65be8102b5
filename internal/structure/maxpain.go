package structure

import (
	"math"
	"sort"

	"github.com/prathamj/optionsgate/pkg/models"
)

// PainPoint is the total writer payout if the underlying settles at Strike.
type PainPoint struct {
	Strike    float64 `json:"strike"`
	TotalPain float64 `json:"total_pain"`
}

// MaxPain holds the strike minimizing aggregate option-writer payout.
type MaxPain struct {
	Strike       float64     `json:"strike"`
	DistancePct  float64     `json:"distance_pct"` // signed, strike vs spot
	Distribution []PainPoint `json:"pain_distribution"`
}

// ComputeMaxPain evaluates the writer payout at every strike in the chain
// and returns the minimizing strike. Ties break to the lowest strike, which
// falls out of iterating candidates in ascending order with a strict
// less-than comparison.
func ComputeMaxPain(chain *models.OptionChain, spot float64) MaxPain {
	callOI := map[float64]int64{}
	putOI := map[float64]int64{}
	strikeSet := map[float64]bool{}

	for _, c := range chain.Calls {
		callOI[c.Strike] += c.OpenInterest
		strikeSet[c.Strike] = true
	}
	for _, p := range chain.Puts {
		putOI[p.Strike] += p.OpenInterest
		strikeSet[p.Strike] = true
	}

	if len(strikeSet) == 0 {
		return MaxPain{}
	}

	strikes := make([]float64, 0, len(strikeSet))
	for s := range strikeSet {
		strikes = append(strikes, s)
	}
	sort.Float64s(strikes)

	result := MaxPain{Distribution: make([]PainPoint, 0, len(strikes))}
	minPain := math.MaxFloat64

	for _, settle := range strikes {
		var totalPain float64

		// Calls ITM below the settlement pay (settle − strike) per contract.
		for _, s := range strikes {
			if s < settle && callOI[s] > 0 {
				totalPain += (settle - s) * float64(callOI[s])
			}
		}
		// Puts ITM above the settlement pay (strike − settle).
		for _, s := range strikes {
			if s > settle && putOI[s] > 0 {
				totalPain += (s - settle) * float64(putOI[s])
			}
		}

		result.Distribution = append(result.Distribution, PainPoint{Strike: settle, TotalPain: totalPain})

		if totalPain < minPain {
			minPain = totalPain
			result.Strike = settle
		}
	}

	if spot > 0 {
		result.DistancePct = (result.Strike - spot) / spot * 100
	}

	return result
}
