// Package structure derives market-structure metrics from an option chain
// snapshot: put/call ratios, dealer gamma exposure, max pain, open-interest
// walls, and recent order-flow bias. All computations are pure functions of
// the chain data passed in.
package structure

import "github.com/prathamj/optionsgate/pkg/models"

// PutCallRatios holds put/call ratios across three bases.
type PutCallRatios struct {
	Volume         float64 `json:"volume"`
	OpenInterest   float64 `json:"open_interest"`
	Premium        float64 `json:"premium"`
	Interpretation string  `json:"interpretation"`
}

// ComputePutCallRatios sums call vs put volume, open interest, and premium
// (price × volume) across the chain and interprets the OI-based ratio.
func ComputePutCallRatios(chain *models.OptionChain) PutCallRatios {
	var callVol, putVol, callOI, putOI int64
	var callPremium, putPremium float64

	for _, c := range chain.Calls {
		callVol += c.Volume
		callOI += c.OpenInterest
		callPremium += c.Last * float64(c.Volume)
	}
	for _, p := range chain.Puts {
		putVol += p.Volume
		putOI += p.OpenInterest
		putPremium += p.Last * float64(p.Volume)
	}

	r := PutCallRatios{}
	if callVol > 0 {
		r.Volume = float64(putVol) / float64(callVol)
	}
	if callOI > 0 {
		r.OpenInterest = float64(putOI) / float64(callOI)
	}
	if callPremium > 0 {
		r.Premium = putPremium / callPremium
	}

	r.Interpretation = interpretPCR(r.OpenInterest)
	return r
}

// interpretPCR maps the OI-based ratio to a sentiment label. A ratio near
// 1.0 reads as neutral; the bullish/bearish cutoffs are 0.7 and 1.3.
func interpretPCR(ratio float64) string {
	switch {
	case ratio == 0:
		return "No call open interest, ratio undefined"
	case ratio < 0.7:
		return "Low put/call ratio, call-heavy positioning, bullish-leaning sentiment"
	case ratio > 1.3:
		return "High put/call ratio, put-heavy positioning, bearish-leaning sentiment"
	default:
		return "Put/call ratio in normal range, no clear directional bias"
	}
}
