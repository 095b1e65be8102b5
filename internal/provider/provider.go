// Package provider defines the market data capability the validation
// pipeline consumes. The core only ever talks to this interface; concrete
// transports (Polygon REST, test stubs) live in subpackages.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/prathamj/optionsgate/pkg/models"
)

// MarketDataProvider is the abstract market data capability required by the
// pipeline. Implementations must be safe for concurrent use: the aggregator
// and the per-strike probability calculations call into it in parallel.
type MarketDataProvider interface {
	// GetQuote returns a normalized quote for a stock or index ticker.
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)

	// GetIntradayBars returns one trading day of intraday bars at the given
	// interval (e.g. 5, "minute").
	GetIntradayBars(ctx context.Context, symbol string, interval int, unit string, date time.Time) ([]models.Bar, error)

	// GetDailyBars returns up to days of the most recent daily bars,
	// oldest first.
	GetDailyBars(ctx context.Context, symbol string, days int) ([]models.Bar, error)

	// GetRSI returns the latest RSI value for the given period.
	GetRSI(ctx context.Context, symbol string, period int) (float64, error)

	// GetSMA returns the latest simple moving average for the given period.
	GetSMA(ctx context.Context, symbol string, period int) (float64, error)

	// GetOptionSnapshot returns the normalized snapshot of one contract.
	GetOptionSnapshot(ctx context.Context, underlying, contractID string) (*models.OptionContract, error)

	// GetOptionChain returns the chain snapshot for an expiration, optionally
	// bounded by strike range (0 means unbounded).
	GetOptionChain(ctx context.Context, symbol, expiration string, strikeMin, strikeMax float64) (*models.OptionChain, error)
}

// --- Sentinel errors ---

// ErrNotSupported is returned when a provider does not support a method.
var ErrNotSupported = fmt.Errorf("operation not supported by this provider")

// ErrSymbolNotFound is returned when a ticker cannot be resolved.
var ErrSymbolNotFound = fmt.Errorf("symbol not found")

// ErrRateLimited is returned when the provider rate-limits the request.
var ErrRateLimited = fmt.Errorf("rate limited by provider")

// HTTPError wraps a transport error with its status code.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}
