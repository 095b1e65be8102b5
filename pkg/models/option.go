package models

import "time"

// OptionType identifies the side of an option contract.
type OptionType string

const (
	OptionCall OptionType = "call"
	OptionPut  OptionType = "put"
)

// Greeks holds the option price sensitivities as reported by the provider.
type Greeks struct {
	Delta float64 `json:"delta,omitempty"`
	Gamma float64 `json:"gamma,omitempty"`
	Theta float64 `json:"theta,omitempty"`
	Vega  float64 `json:"vega,omitempty"`
}

// OptionContract is the canonical normalized record for a single contract.
// The provider layer resolves field aliases (bid vs bid_price, etc.) into
// this shape before any analysis touches it; a zero bid/ask here means the
// contract genuinely has no market, not missing data.
type OptionContract struct {
	ContractID   string     `json:"contract_id,omitempty"`
	Underlying   string     `json:"underlying"`
	Strike       float64    `json:"strike"`
	Type         OptionType `json:"type"`
	Expiration   string     `json:"expiration"` // YYYY-MM-DD
	Last         float64    `json:"last"`
	Bid          float64    `json:"bid"`
	Ask          float64    `json:"ask"`
	Volume       int64      `json:"volume"`
	OpenInterest int64      `json:"open_interest"`
	IV           float64    `json:"iv,omitempty"` // implied volatility, decimal (0.25 = 25%)
	Greeks       Greeks     `json:"greeks,omitempty"`
}

// Mid returns the bid/ask midpoint, or 0 when either side is absent.
func (c OptionContract) Mid() float64 {
	if c.Bid <= 0 || c.Ask <= 0 {
		return 0
	}
	return (c.Bid + c.Ask) / 2
}

// SpreadPct returns the bid/ask spread as a percentage of the midpoint,
// or 0 when no two-sided market exists.
func (c OptionContract) SpreadPct() float64 {
	mid := c.Mid()
	if mid <= 0 {
		return 0
	}
	return (c.Ask - c.Bid) / mid * 100
}

// OptionChain is a full chain snapshot for one underlying and expiration.
type OptionChain struct {
	Symbol     string           `json:"symbol"`
	SpotPrice  float64          `json:"spot_price"`
	Expiration string           `json:"expiration"`
	Calls      []OptionContract `json:"calls"`
	Puts       []OptionContract `json:"puts"`
	FetchedAt  time.Time        `json:"fetched_at"`
}

// Contracts returns calls and puts as a single slice.
func (oc *OptionChain) Contracts() []OptionContract {
	out := make([]OptionContract, 0, len(oc.Calls)+len(oc.Puts))
	out = append(out, oc.Calls...)
	out = append(out, oc.Puts...)
	return out
}

// OptionTrade is a single recent option trade used by order-flow analysis.
type OptionTrade struct {
	Type      OptionType `json:"type"`
	Strike    float64    `json:"strike"`
	Price     float64    `json:"price"`
	Size      int64      `json:"size"`
	Bid       float64    `json:"bid"`
	Ask       float64    `json:"ask"`
	Timestamp time.Time  `json:"timestamp"`
}

// Notional returns the trade's dollar notional (price × size × 100).
func (t OptionTrade) Notional() float64 {
	return t.Price * float64(t.Size) * 100
}
