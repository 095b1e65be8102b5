// Package probability estimates touch and in-the-money probabilities for a
// strike from the underlying's price, volatility, and average true range.
package probability

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/prathamj/optionsgate/internal/provider"
	"github.com/prathamj/optionsgate/pkg/models"
	"github.com/prathamj/optionsgate/pkg/utils"
)

// historyDays is how many daily bars back the engine fetches for ATR and
// historical volatility. Needs at least atrPeriod+1 and hvWindow+1 bars.
const (
	historyDays = 45
	atrPeriod   = 14
	hvWindow    = 30
)

// Engine computes probability metrics for option strikes.
type Engine struct {
	provider provider.MarketDataProvider
}

// NewEngine creates a probability engine backed by the given provider.
func NewEngine(p provider.MarketDataProvider) *Engine {
	return &Engine{provider: p}
}

// CalculateProbabilities computes touch/ITM probabilities, ATR-normalized
// distance, and expected move for one strike. Deterministic given identical
// provider responses; calls for different strikes are fully independent.
func (e *Engine) CalculateProbabilities(ctx context.Context, symbol string, strike float64, expiration string, optionType models.OptionType) (*models.ProbabilityResult, error) {
	quote, err := e.provider.GetQuote(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("probabilities for %s %.2f: %w", symbol, strike, err)
	}

	bars, err := e.provider.GetDailyBars(ctx, symbol, historyDays)
	if err != nil {
		return nil, fmt.Errorf("probabilities for %s %.2f: %w", symbol, strike, err)
	}

	atr := ATR(bars, atrPeriod)
	hv := HistoricalVolatility(bars, hvWindow)

	dte := daysToExpiration(expiration)

	result := &models.ProbabilityResult{
		Strike:           strike,
		OptionType:       optionType,
		ATR14D:           atr,
		HistoricalVol:    hv,
		DaysToExpiration: dte,
		UnderlyingPrice:  quote.Price,
	}

	// Contract market data is a refinement, not a requirement: the chain
	// lookup failing degrades to the historical-volatility estimate.
	if contract := e.lookupContract(ctx, symbol, strike, expiration, optionType); contract != nil {
		result.ImpliedVolatility = contract.IV
		result.Bid = contract.Bid
		result.Ask = contract.Ask
		result.Mid = contract.Mid()
		result.BidAskSpread = contract.SpreadPct()
		result.Volume = contract.Volume
		result.OpenInterest = contract.OpenInterest
	}

	sigma := result.ImpliedVolatility
	if sigma <= 0 {
		sigma = hv
	}

	spot := quote.Price
	years := float64(dte) / 365.0

	result.ProbITM = probITM(spot, strike, sigma, years, optionType)
	result.ProbTouch = probTouch(spot, strike, result.ProbITM, optionType)
	result.ExpectedMove = spot * sigma * math.Sqrt(years)
	if atr > 0 {
		result.DistanceInATR = math.Abs(strike-spot) / atr
	}

	return result, nil
}

// lookupContract finds the matching contract via a narrow chain request.
func (e *Engine) lookupContract(ctx context.Context, symbol string, strike float64, expiration string, optionType models.OptionType) *models.OptionContract {
	chain, err := e.provider.GetOptionChain(ctx, symbol, expiration, strike, strike)
	if err != nil {
		return nil
	}

	contracts := chain.Calls
	if optionType == models.OptionPut {
		contracts = chain.Puts
	}
	for i := range contracts {
		if contracts[i].Strike == strike {
			return &contracts[i]
		}
	}
	return nil
}

// probITM is the risk-neutral probability of finishing beyond the strike,
// N(d2) with zero drift.
func probITM(spot, strike, sigma, years float64, optionType models.OptionType) float64 {
	if spot <= 0 || strike <= 0 {
		return 0
	}
	if sigma <= 0 || years <= 0 {
		// Expired or zero-vol degenerate: ITM iff already beyond the strike.
		if (optionType == models.OptionCall && spot > strike) ||
			(optionType == models.OptionPut && spot < strike) {
			return 1
		}
		return 0
	}

	d2 := (math.Log(spot/strike) - 0.5*sigma*sigma*years) / (sigma * math.Sqrt(years))

	if optionType == models.OptionCall {
		return normCDF(d2)
	}
	return normCDF(-d2)
}

// probTouch approximates the probability the underlying trades at the strike
// at any point before expiration. For strikes already breached it is 1; for
// out-of-the-money strikes the standard reflection estimate of twice the
// terminal probability applies. Always ≥ ProbITM.
func probTouch(spot, strike, itm float64, optionType models.OptionType) float64 {
	if (optionType == models.OptionCall && spot >= strike) ||
		(optionType == models.OptionPut && spot <= strike) {
		return 1
	}
	return math.Min(1, 2*itm)
}

// normCDF is the standard normal cumulative distribution function.
func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// ATR computes the Wilder average true range over the last period bars.
func ATR(bars []models.Bar, period int) float64 {
	if len(bars) < period+1 {
		return 0
	}

	var atr float64
	start := len(bars) - period
	for i := start; i < len(bars); i++ {
		atr += trueRange(bars[i], bars[i-1])
	}
	return atr / float64(period)
}

func trueRange(curr, prev models.Bar) float64 {
	hl := curr.High - curr.Low
	hc := math.Abs(curr.High - prev.Close)
	lc := math.Abs(curr.Low - prev.Close)
	return math.Max(hl, math.Max(hc, lc))
}

// HistoricalVolatility computes the annualized standard deviation of daily
// log returns over the last window bars.
func HistoricalVolatility(bars []models.Bar, window int) float64 {
	if len(bars) < window+1 {
		window = len(bars) - 1
	}
	if window < 2 {
		return 0
	}

	returns := make([]float64, 0, window)
	start := len(bars) - window
	for i := start; i < len(bars); i++ {
		if bars[i-1].Close > 0 && bars[i].Close > 0 {
			returns = append(returns, math.Log(bars[i].Close/bars[i-1].Close))
		}
	}
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance) * math.Sqrt(252)
}

// daysToExpiration counts calendar days from today (ET) to the expiration
// date, minimum 0. Unparseable dates count as 0.
func daysToExpiration(expiration string) int {
	exp, err := utils.ParseDateET(expiration)
	if err != nil {
		return 0
	}
	now := utils.NowET()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, utils.ET)
	days := calendarDays(today, exp)
	if days < 0 {
		return 0
	}
	return days
}

// calendarDays counts midnight-to-midnight days between two ET instants.
// Spans crossing a DST change are off 24h by one hour; rounding recovers
// the calendar-day count.
func calendarDays(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Hours() / 24))
}
