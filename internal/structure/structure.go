package structure

import "github.com/prathamj/optionsgate/pkg/models"

// Snapshot is the complete market-structure picture for one chain.
// Computed fresh per chain snapshot; no history is kept.
type Snapshot struct {
	Symbol   string        `json:"symbol"`
	Spot     float64       `json:"spot"`
	Ratios   PutCallRatios `json:"put_call_ratio"`
	Gamma    GammaExposure `json:"gamma_exposure"`
	MaxPain  MaxPain       `json:"max_pain"`
	Walls    OIWalls       `json:"oi_walls"`
}

// AnalyzeMarketStructure runs every structure computation over one chain.
func AnalyzeMarketStructure(chain *models.OptionChain) Snapshot {
	spot := chain.SpotPrice
	return Snapshot{
		Symbol:  chain.Symbol,
		Spot:    spot,
		Ratios:  ComputePutCallRatios(chain),
		Gamma:   ComputeGammaExposure(chain, spot),
		MaxPain: ComputeMaxPain(chain, spot),
		Walls:   ComputeOIWalls(chain, spot),
	}
}
