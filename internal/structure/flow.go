package structure

import (
	"fmt"

	"github.com/prathamj/optionsgate/pkg/models"
)

// largeBlockNotional flags trades at or above this dollar notional.
const largeBlockNotional = 250_000

// BlockTrade is a single large option trade.
type BlockTrade struct {
	Type     models.OptionType `json:"type"`
	Strike   float64           `json:"strike"`
	Size     int64             `json:"size"`
	Notional float64           `json:"notional"`
	Bullish  bool              `json:"bullish"`
}

// FlowAnalysis summarizes recent order-flow bias. NetFlow is a formatted
// string so the no-data case can carry an explicit "N/A" sentinel instead
// of a misleading zero.
type FlowAnalysis struct {
	TradeCount      int          `json:"trade_count"`
	BullishNotional float64      `json:"bullish_notional"`
	BearishNotional float64      `json:"bearish_notional"`
	NetFlow         string       `json:"net_flow"`
	LargeBlocks     []BlockTrade `json:"large_blocks,omitempty"`
	Interpretation  string       `json:"interpretation"`
}

// AnalyzeFlow classifies each trade as bullish (call bought at an
// ask-leaning price, or put sold at a bid-leaning price) or bearish
// (the inverse), weights by notional, and reports the net.
func AnalyzeFlow(trades []models.OptionTrade) FlowAnalysis {
	if len(trades) == 0 {
		return FlowAnalysis{
			NetFlow:        "N/A",
			Interpretation: "Insufficient trade data for flow analysis",
		}
	}

	result := FlowAnalysis{TradeCount: len(trades)}

	for _, t := range trades {
		bullish := isBullish(t)
		notional := t.Notional()

		if bullish {
			result.BullishNotional += notional
		} else {
			result.BearishNotional += notional
		}

		if notional >= largeBlockNotional {
			result.LargeBlocks = append(result.LargeBlocks, BlockTrade{
				Type:     t.Type,
				Strike:   t.Strike,
				Size:     t.Size,
				Notional: notional,
				Bullish:  bullish,
			})
		}
	}

	net := result.BullishNotional - result.BearishNotional
	result.NetFlow = fmt.Sprintf("%+.0f", net)

	switch {
	case net > 0:
		result.Interpretation = "Net bullish flow, buyers leaning into calls or selling puts"
	case net < 0:
		result.Interpretation = "Net bearish flow, buyers leaning into puts or selling calls"
	default:
		result.Interpretation = "Balanced flow, no directional pressure from recent trades"
	}

	return result
}

// isBullish classifies one trade from its fill price relative to the quote.
// Fills at or above the midpoint are buyer-initiated; below, seller-initiated.
func isBullish(t models.OptionTrade) bool {
	mid := (t.Bid + t.Ask) / 2
	buyerInitiated := t.Price >= mid && mid > 0

	if t.Type == models.OptionCall {
		return buyerInitiated
	}
	// Put bought = bearish; put sold = bullish.
	return !buyerInitiated
}
