// Package polygon implements provider.MarketDataProvider against the
// Polygon.io REST API.
package polygon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/prathamj/optionsgate/internal/infra"
	"github.com/prathamj/optionsgate/internal/provider"
	"github.com/prathamj/optionsgate/pkg/models"
	"github.com/prathamj/optionsgate/pkg/utils"
)

const defaultBaseURL = "https://api.polygon.io"

// Client is a Polygon.io REST client with rate limiting, retries, and a
// short-lived snapshot cache.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *infra.Cache
	maxRetry   time.Duration
	logger     zerolog.Logger
}

// ClientOptions configures a new Client.
type ClientOptions struct {
	APIKey          string
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetryTimeout time.Duration
	CacheTTL        time.Duration
}

// NewClient creates a Polygon client. Zero option fields get conservative
// defaults suitable for the free API tier.
func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}
	if opts.MaxRetryTimeout == 0 {
		opts.MaxRetryTimeout = 30 * time.Second
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = 30 * time.Second
	}

	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    opts.BaseURL,
		httpClient: &http.Client{Timeout: opts.RequestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSec), opts.RequestsPerSec),
		cache:      infra.NewCache(opts.CacheTTL),
		maxRetry:   opts.MaxRetryTimeout,
		logger:     log.With().Str("component", "polygon_client").Logger(),
	}
}

// getJSON performs a rate-limited GET with exponential-backoff retries and
// decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("apiKey", c.apiKey)
	fullURL := c.baseURL + path + "?" + query.Encode()

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			return provider.ErrRateLimited
		}
		if resp.StatusCode == http.StatusNotFound {
			return backoff.Permanent(provider.ErrSymbolNotFound)
		}
		if resp.StatusCode >= 400 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			httpErr := &provider.HTTPError{
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
				Body:       string(raw),
			}
			if resp.StatusCode < 500 {
				return backoff.Permanent(httpErr)
			}
			return httpErr
		}

		body, err = io.ReadAll(resp.Body)
		return err
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.MaxElapsedTime = c.maxRetry

	if err := backoff.Retry(operation, backoff.WithContext(strategy, ctx)); err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("request failed")
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response for %s: %w", path, err)
	}
	return nil
}

// GetQuote returns a point-in-time quote. Index symbols (the "I:" prefix,
// e.g. I:VIX) go to the indices snapshot endpoint; everything else goes to
// the stock ticker snapshot.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = utils.NormalizeSymbol(symbol)

	cacheKey := "quote:" + symbol
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.(*models.Quote), nil
	}

	var quote *models.Quote
	var err error
	if strings.HasPrefix(symbol, "I:") {
		quote, err = c.indexQuote(ctx, symbol)
	} else {
		quote, err = c.stockQuote(ctx, symbol)
	}
	if err != nil {
		return nil, err
	}

	c.cache.Set(cacheKey, quote)
	return quote, nil
}

func (c *Client) stockQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	path := fmt.Sprintf("/v2/snapshot/locale/us/markets/stocks/tickers/%s", symbol)

	var resp snapshotTickerResponse
	if err := c.getJSON(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("quote %s: %w", symbol, err)
	}

	t := resp.Ticker
	price := t.LastTrade.Price
	if price == 0 {
		price = t.Day.Close
	}
	if price == 0 {
		return nil, fmt.Errorf("quote %s: %w", symbol, provider.ErrSymbolNotFound)
	}

	return &models.Quote{
		Symbol:       symbol,
		Price:        price,
		Change:       t.TodaysChange,
		ChangePct:    t.TodaysChangePerc,
		Volume:       int64(t.Day.Volume),
		MarketStatus: utils.MarketStatus(),
	}, nil
}

// indexQuote reads the indices snapshot. Indices have no trades or volume;
// the session block carries the change figures.
func (c *Client) indexQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	query := url.Values{}
	query.Set("ticker.any_of", symbol)

	var resp indexSnapshotResponse
	if err := c.getJSON(ctx, "/v3/snapshot/indices", query, &resp); err != nil {
		return nil, fmt.Errorf("quote %s: %w", symbol, err)
	}
	if len(resp.Results) == 0 || resp.Results[0].Value == 0 {
		return nil, fmt.Errorf("quote %s: %w", symbol, provider.ErrSymbolNotFound)
	}

	r := resp.Results[0]
	return &models.Quote{
		Symbol:       symbol,
		Price:        r.Value,
		Change:       r.Session.Change,
		ChangePct:    r.Session.ChangePercent,
		MarketStatus: utils.MarketStatus(),
	}, nil
}

// GetIntradayBars returns one trading day of intraday bars.
func (c *Client) GetIntradayBars(ctx context.Context, symbol string, interval int, unit string, date time.Time) ([]models.Bar, error) {
	symbol = utils.NormalizeSymbol(symbol)
	day := utils.FormatDateET(date)

	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/%d/%s/%s/%s", symbol, interval, unit, day, day)

	query := url.Values{}
	query.Set("adjusted", "true")
	query.Set("sort", "asc")
	query.Set("limit", "50000")

	var resp aggsResponse
	if err := c.getJSON(ctx, path, query, &resp); err != nil {
		return nil, fmt.Errorf("intraday bars %s: %w", symbol, err)
	}

	return toBars(resp.Results), nil
}

// GetDailyBars returns up to days of recent daily bars, oldest first.
func (c *Client) GetDailyBars(ctx context.Context, symbol string, days int) ([]models.Bar, error) {
	symbol = utils.NormalizeSymbol(symbol)
	to := utils.NowET()
	// Calendar span padded so the requested number of trading days fits.
	from := to.AddDate(0, 0, -(days*3/2 + 5))

	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/1/day/%s/%s",
		symbol, utils.FormatDateET(from), utils.FormatDateET(to))

	query := url.Values{}
	query.Set("adjusted", "true")
	query.Set("sort", "asc")

	var resp aggsResponse
	if err := c.getJSON(ctx, path, query, &resp); err != nil {
		return nil, fmt.Errorf("daily bars %s: %w", symbol, err)
	}

	bars := toBars(resp.Results)
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

// GetRSI returns the latest RSI value from the technical indicator endpoint.
func (c *Client) GetRSI(ctx context.Context, symbol string, period int) (float64, error) {
	return c.latestIndicator(ctx, "rsi", symbol, period)
}

// GetSMA returns the latest SMA value from the technical indicator endpoint.
func (c *Client) GetSMA(ctx context.Context, symbol string, period int) (float64, error) {
	return c.latestIndicator(ctx, "sma", symbol, period)
}

func (c *Client) latestIndicator(ctx context.Context, name, symbol string, period int) (float64, error) {
	symbol = utils.NormalizeSymbol(symbol)

	path := fmt.Sprintf("/v1/indicators/%s/%s", name, symbol)
	query := url.Values{}
	query.Set("timespan", "day")
	query.Set("window", fmt.Sprintf("%d", period))
	query.Set("series_type", "close")
	query.Set("order", "desc")
	query.Set("limit", "1")

	var resp indicatorResponse
	if err := c.getJSON(ctx, path, query, &resp); err != nil {
		return 0, fmt.Errorf("%s(%d) %s: %w", name, period, symbol, err)
	}
	if len(resp.Results.Values) == 0 {
		return 0, fmt.Errorf("%s(%d) %s: no values returned", name, period, symbol)
	}
	return resp.Results.Values[0].Value, nil
}

func toBars(results []aggResult) []models.Bar {
	bars := make([]models.Bar, 0, len(results))
	for _, r := range results {
		bars = append(bars, models.Bar{
			Timestamp: time.UnixMilli(r.Timestamp).In(utils.ET),
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		})
	}
	return bars
}
