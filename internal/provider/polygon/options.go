package polygon

import (
	"context"
	"fmt"
	"net/url"

	"github.com/prathamj/optionsgate/internal/provider"
	"github.com/prathamj/optionsgate/pkg/models"
	"github.com/prathamj/optionsgate/pkg/utils"
)

// GetOptionSnapshot returns the normalized snapshot for one contract.
func (c *Client) GetOptionSnapshot(ctx context.Context, underlying, contractID string) (*models.OptionContract, error) {
	underlying = utils.NormalizeSymbol(underlying)

	cacheKey := "optsnap:" + contractID
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.(*models.OptionContract), nil
	}

	path := fmt.Sprintf("/v3/snapshot/options/%s/%s", underlying, contractID)

	var resp optionSnapshotResponse
	if err := c.getJSON(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("option snapshot %s: %w", contractID, err)
	}

	contract := normalizeContract(underlying, resp.Results)
	c.cache.Set(cacheKey, contract)
	return contract, nil
}

// GetOptionChain returns the chain snapshot for one expiration, optionally
// bounded by strike range. Pagination is followed until exhausted.
func (c *Client) GetOptionChain(ctx context.Context, symbol, expiration string, strikeMin, strikeMax float64) (*models.OptionChain, error) {
	symbol = utils.NormalizeSymbol(symbol)

	cacheKey := fmt.Sprintf("chain:%s:%s:%.2f:%.2f", symbol, expiration, strikeMin, strikeMax)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.(*models.OptionChain), nil
	}

	query := url.Values{}
	query.Set("limit", "250")
	if expiration != "" {
		query.Set("expiration_date", expiration)
	}
	if strikeMin > 0 {
		query.Set("strike_price.gte", fmt.Sprintf("%g", strikeMin))
	}
	if strikeMax > 0 {
		query.Set("strike_price.lte", fmt.Sprintf("%g", strikeMax))
	}

	chain := &models.OptionChain{
		Symbol:     symbol,
		Expiration: expiration,
		FetchedAt:  utils.NowET(),
	}

	path := fmt.Sprintf("/v3/snapshot/options/%s", symbol)
	for {
		var resp optionChainResponse
		if err := c.getJSON(ctx, path, query, &resp); err != nil {
			return nil, fmt.Errorf("option chain %s: %w", symbol, err)
		}

		for _, snap := range resp.Results {
			contract := normalizeContract(symbol, snap)
			if contract.Type == models.OptionCall {
				chain.Calls = append(chain.Calls, *contract)
			} else {
				chain.Puts = append(chain.Puts, *contract)
			}
		}

		if resp.NextURL == "" {
			break
		}
		next, err := url.Parse(resp.NextURL)
		if err != nil {
			break
		}
		path = next.Path
		query = next.Query()
	}

	if len(chain.Calls) == 0 && len(chain.Puts) == 0 {
		return nil, fmt.Errorf("option chain %s: %w", symbol, provider.ErrSymbolNotFound)
	}

	// Spot from the underlying quote; non-fatal if unavailable.
	if quote, err := c.GetQuote(ctx, symbol); err == nil {
		chain.SpotPrice = quote.Price
	}

	c.cache.Set(cacheKey, chain)
	return chain, nil
}

// normalizeContract folds the wire snapshot, including its field aliases,
// into the canonical contract record. An absent quote normalizes to zero
// bid/ask, which downstream analysis treats as "no market".
func normalizeContract(underlying string, snap optionSnapshot) *models.OptionContract {
	bid := snap.LastQuote.Bid
	if bid == 0 {
		bid = snap.LastQuote.BidPrice
	}
	ask := snap.LastQuote.Ask
	if ask == 0 {
		ask = snap.LastQuote.AskPrice
	}

	last := snap.LastTrade.Price
	if last == 0 {
		last = snap.Day.Close
	}

	optType := models.OptionCall
	if snap.Details.ContractType == "put" {
		optType = models.OptionPut
	}

	return &models.OptionContract{
		ContractID:   snap.Details.Ticker,
		Underlying:   underlying,
		Strike:       snap.Details.StrikePrice,
		Type:         optType,
		Expiration:   snap.Details.ExpirationDate,
		Last:         last,
		Bid:          bid,
		Ask:          ask,
		Volume:       int64(snap.Day.Volume),
		OpenInterest: int64(snap.OpenInterest),
		IV:           snap.ImpliedVolatility,
		Greeks: models.Greeks{
			Delta: snap.Greeks.Delta,
			Gamma: snap.Greeks.Gamma,
			Theta: snap.Greeks.Theta,
			Vega:  snap.Greeks.Vega,
		},
	}
}
