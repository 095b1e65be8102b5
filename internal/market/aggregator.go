// Package market assembles the complete market picture for a validation
// call: underlying quote and intraday statistics, volatility regime, broad
// market strength, technicals, and optional per-contract data.
package market

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/prathamj/optionsgate/internal/indicators"
	"github.com/prathamj/optionsgate/internal/provider"
	"github.com/prathamj/optionsgate/pkg/models"
	"github.com/prathamj/optionsgate/pkg/utils"
)

const (
	// vixSymbol is the volatility index ticker at the provider.
	vixSymbol = "I:VIX"
	// proxySymbol is the broad-market proxy.
	proxySymbol = "SPY"
	// barInterval is the fixed intraday bar size in minutes.
	barInterval = 5
	// highVolumeThreshold gates the STRONG_* strength buckets (proxy shares).
	highVolumeThreshold = 50_000_000
	// vwapSignificantPct is the cutoff for the "significantly away" label.
	vwapSignificantPct = 2.0
	// elevatedVIX marks the risk-environment escalation point.
	elevatedVIX = 25.0
	// technicalsLookbackDays covers the longest locally computed indicator.
	technicalsLookbackDays = 60
)

// HeadlineFetcher supplies recent news headlines for a symbol. Optional;
// a nil fetcher simply leaves the snapshot's headlines empty.
type HeadlineFetcher interface {
	RecentHeadlines(ctx context.Context, symbol string, limit int) ([]models.Headline, error)
}

// Aggregator builds MarketSnapshots from independent provider fetches.
type Aggregator struct {
	provider provider.MarketDataProvider
	news     HeadlineFetcher
}

// NewAggregator creates an aggregator. news may be nil.
func NewAggregator(p provider.MarketDataProvider, news HeadlineFetcher) *Aggregator {
	return &Aggregator{provider: p, news: news}
}

// GetCompleteMarketPicture fans out independent fetches for the underlying
// quote, intraday bars, VIX, the broad-market proxy, technical indicators,
// and (when given) one option contract, then derives the snapshot.
//
// The primary quote failing fails the whole call. Every other branch
// catches its own error and degrades to a neutral default, so partial
// provider outages never abort the aggregation. Branches have no timeout of
// their own; callers bound the whole call through ctx.
func (a *Aggregator) GetCompleteMarketPicture(ctx context.Context, symbol string, contractID string) (*models.MarketSnapshot, error) {
	symbol = utils.NormalizeSymbol(symbol)

	quote, err := a.provider.GetQuote(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("market picture for %s: %w", symbol, err)
	}

	snapshot := &models.MarketSnapshot{
		Timestamp: time.Now().UTC(),
		Symbol:    symbol,
		Underlying: models.UnderlyingContext{
			Price:     quote.Price,
			Change:    quote.Change,
			ChangePct: quote.ChangePct,
			Volume:    quote.Volume,
		},
	}

	var (
		mu       sync.Mutex
		bars     []models.Bar
		vixQuote *models.Quote
		spyQuote *models.Quote
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b, err := a.provider.GetIntradayBars(gctx, symbol, barInterval, "minute", utils.NowET())
		if err != nil {
			return nil // non-fatal: empty bar list
		}
		mu.Lock()
		bars = b
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		q, err := a.provider.GetQuote(gctx, vixSymbol)
		if err != nil {
			return nil
		}
		mu.Lock()
		vixQuote = q
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		q, err := a.provider.GetQuote(gctx, proxySymbol)
		if err != nil {
			return nil
		}
		mu.Lock()
		spyQuote = q
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		rsi, err := a.provider.GetRSI(gctx, symbol, 14)
		if err != nil {
			return nil
		}
		mu.Lock()
		snapshot.Underlying.Technicals.RSI = rsi
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		sma, err := a.provider.GetSMA(gctx, symbol, 20)
		if err != nil {
			return nil
		}
		mu.Lock()
		snapshot.Underlying.Technicals.SMA20 = sma
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		sma, err := a.provider.GetSMA(gctx, symbol, 50)
		if err != nil {
			return nil
		}
		mu.Lock()
		snapshot.Underlying.Technicals.SMA50 = sma
		mu.Unlock()
		return nil
	})

	if contractID != "" {
		g.Go(func() error {
			opt, err := a.provider.GetOptionSnapshot(gctx, symbol, contractID)
			if err != nil {
				return nil
			}
			mu.Lock()
			snapshot.Option = opt
			mu.Unlock()
			return nil
		})
	}

	if a.news != nil {
		g.Go(func() error {
			headlines, err := a.news.RecentHeadlines(gctx, symbol, 5)
			if err != nil {
				return nil
			}
			mu.Lock()
			snapshot.Headlines = headlines
			mu.Unlock()
			return nil
		})
	}

	// Branches never return errors, so the only join failure is a bug.
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("market picture for %s: %w", symbol, err)
	}

	a.fillMissingTechnicals(ctx, symbol, &snapshot.Underlying.Technicals)

	snapshot.Underlying.Intraday = deriveIntraday(bars, quote.Price)
	snapshot.Underlying.Technicals.PriceVsSMA = classifyPriceVsSMA(quote.Price, snapshot.Underlying.Technicals)
	snapshot.Market = deriveBroadMarket(vixQuote, spyQuote)

	return snapshot, nil
}

// fillMissingTechnicals computes any indicator the provider's endpoints did
// not supply from daily bars. One bar fetch covers all missing indicators;
// if that also fails the indicators stay zero.
func (a *Aggregator) fillMissingTechnicals(ctx context.Context, symbol string, t *models.TechnicalContext) {
	if t.RSI != 0 && t.SMA20 != 0 && t.SMA50 != 0 {
		return
	}
	bars, err := a.provider.GetDailyBars(ctx, symbol, technicalsLookbackDays)
	if err != nil || len(bars) == 0 {
		return
	}
	closes := indicators.Closes(bars)
	if t.RSI == 0 {
		t.RSI = indicators.RSILatest(bars, 14)
	}
	if t.SMA20 == 0 {
		t.SMA20 = indicators.SMALatest(closes, 20)
	}
	if t.SMA50 == 0 {
		t.SMA50 = indicators.SMALatest(closes, 50)
	}
}

// deriveIntraday computes VWAP, range, and VWAP distance from the session's
// bars. All zero when no bars are available.
func deriveIntraday(bars []models.Bar, price float64) models.IntradayStats {
	stats := models.IntradayStats{}
	if len(bars) == 0 {
		return stats
	}

	stats.High = bars[0].High
	stats.Low = bars[0].Low

	var pvSum, volSum float64
	for _, b := range bars {
		if b.High > stats.High {
			stats.High = b.High
		}
		if b.Low < stats.Low {
			stats.Low = b.Low
		}
		typical := (b.High + b.Low + b.Close) / 3
		pvSum += typical * b.Volume
		volSum += b.Volume
	}

	stats.Range = stats.High - stats.Low
	if open := bars[0].Open; open > 0 {
		stats.RangePct = stats.Range / open * 100
	}

	if volSum > 0 {
		stats.VWAP = pvSum / volSum
	}
	if stats.VWAP > 0 {
		stats.DistanceFromVWAP = price - stats.VWAP
		stats.DistanceFromVWAPPct = stats.DistanceFromVWAP / stats.VWAP * 100
	}
	stats.VWAPLabel = vwapLabel(stats.DistanceFromVWAPPct)

	return stats
}

func vwapLabel(distancePct float64) string {
	switch {
	case distancePct > vwapSignificantPct:
		return "Significantly above VWAP"
	case distancePct < -vwapSignificantPct:
		return "Significantly below VWAP"
	default:
		return "Near VWAP"
	}
}

// classifyPriceVsSMA labels the price's position relative to both SMAs.
func classifyPriceVsSMA(price float64, t models.TechnicalContext) string {
	if t.SMA20 == 0 || t.SMA50 == 0 {
		return ""
	}
	switch {
	case price > t.SMA20 && price > t.SMA50:
		return "Above both SMAs"
	case price < t.SMA20 && price < t.SMA50:
		return "Below both SMAs"
	default:
		return "Between SMAs"
	}
}

// deriveBroadMarket classifies market strength and the risk environment.
// Missing VIX or proxy data defaults to zero values and NEUTRAL strength.
func deriveBroadMarket(vix, spy *models.Quote) models.BroadMarketContext {
	ctx := models.BroadMarketContext{MarketStrength: models.Neutral}

	if spy != nil {
		ctx.SPYPrice = spy.Price
		ctx.SPYChangePct = spy.ChangePct
		ctx.MarketStrength = classifyStrength(spy.ChangePct, spy.Volume)
	}

	if vix != nil {
		ctx.VIX = vix.Price
		ctx.VIXLevel = models.ClassifyVIX(vix.Price)
	} else {
		ctx.VIXLevel = models.ClassifyVIX(0)
	}

	ctx.RiskEnvironment = classifyRiskEnvironment(ctx.VIX, ctx.MarketStrength)
	return ctx
}

// classifyStrength buckets the proxy's change percent with a volume gate:
// the STRONG_* buckets additionally require above-threshold volume.
func classifyStrength(changePct float64, volume int64) models.MarketStrength {
	abs := changePct
	if abs < 0 {
		abs = -abs
	}

	bullish := changePct > 0
	switch {
	case abs > 1.0 && volume > highVolumeThreshold:
		if bullish {
			return models.StrongBullish
		}
		return models.StrongBearish
	case abs > 0.5:
		if bullish {
			return models.ModerateBullish
		}
		return models.ModerateBearish
	case abs > 0:
		if bullish {
			return models.WeakBullish
		}
		return models.WeakBearish
	default:
		return models.Neutral
	}
}

func classifyRiskEnvironment(vix float64, strength models.MarketStrength) models.RiskEnvironment {
	highVIX := vix > elevatedVIX
	strong := strength.IsStrong()

	switch {
	case highVIX && strong:
		return models.RiskVeryHigh
	case highVIX:
		return models.RiskHigh
	case strong:
		return models.RiskModerate
	default:
		return models.RiskNormal
	}
}
