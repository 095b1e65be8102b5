package news

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/prathamj/optionsgate/internal/infra"
	"github.com/prathamj/optionsgate/pkg/models"
	"github.com/prathamj/optionsgate/pkg/utils"
)

// Source is one financial news RSS feed.
type Source struct {
	Name   string
	RSSURL string
}

// DefaultSources lists the US market news feeds polled by default.
var DefaultSources = []Source{
	{Name: "MarketWatch", RSSURL: "https://feeds.content.dowjones.io/public/rss/mw_topstories"},
	{Name: "CNBC Markets", RSSURL: "https://www.cnbc.com/id/100003114/device/rss/rss.html"},
	{Name: "Yahoo Finance", RSSURL: "https://finance.yahoo.com/news/rssindex"},
	{Name: "Seeking Alpha", RSSURL: "https://seekingalpha.com/market_currents.xml"},
}

// Fetcher pulls recent headlines from the configured RSS feeds, filters
// them by symbol mention, and caches results. Feed failures degrade to
// fewer headlines, never to an error for the whole batch.
type Fetcher struct {
	sources []Source
	cache   *infra.Cache
	limiter *rate.Limiter
	parser  *gofeed.Parser
	logger  zerolog.Logger
}

func NewFetcher(sources []Source) *Fetcher {
	if len(sources) == 0 {
		sources = DefaultSources
	}
	return &Fetcher{
		sources: sources,
		cache:   infra.NewCache(10 * time.Minute),
		limiter: rate.NewLimiter(rate.Limit(2), 2), // polite to feed hosts
		parser:  gofeed.NewParser(),
		logger:  log.With().Str("component", "news").Logger(),
	}
}

// RecentHeadlines returns up to limit headlines mentioning the symbol,
// newest first. An empty symbol returns general market headlines.
func (f *Fetcher) RecentHeadlines(ctx context.Context, symbol string, limit int) ([]models.Headline, error) {
	symbol = utils.NormalizeSymbol(symbol)

	cacheKey := fmt.Sprintf("news:%s:%d", symbol, limit)
	if cached, ok := f.cache.Get(cacheKey); ok {
		return cached.([]models.Headline), nil
	}

	all := f.fetchAll(ctx)
	if symbol != "" {
		all = filterBySymbol(all, symbol)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].PublishedAt.After(all[j].PublishedAt)
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	f.cache.Set(cacheKey, all)
	return all, nil
}

func (f *Fetcher) fetchAll(ctx context.Context) []models.Headline {
	var headlines []models.Headline
	for _, src := range f.sources {
		items, err := f.fetchFeed(ctx, src)
		if err != nil {
			// Non-critical: skip failed sources.
			f.logger.Warn().Err(err).Str("source", src.Name).Msg("feed fetch failed")
			continue
		}
		headlines = append(headlines, items...)
	}
	return headlines
}

func (f *Fetcher) fetchFeed(ctx context.Context, src Source) ([]models.Headline, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feed, err := f.parser.ParseURLWithContext(src.RSSURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w", src.Name, err)
	}

	headlines := make([]models.Headline, 0, len(feed.Items))
	for _, item := range feed.Items {
		h := models.Headline{
			Source: src.Name,
			Title:  cleanHTML(item.Title),
			URL:    item.Link,
		}
		if item.PublishedParsed != nil {
			h.PublishedAt = *item.PublishedParsed
		}
		headlines = append(headlines, h)
	}
	return headlines, nil
}

// filterBySymbol keeps headlines mentioning the ticker or its company
// name. Single-letter tickers match only the ticker form ("$F", "(F)") to
// avoid matching every headline containing the letter.
func filterBySymbol(headlines []models.Headline, symbol string) []models.Headline {
	keywords := symbolKeywords(symbol)
	var filtered []models.Headline
	for _, h := range headlines {
		title := strings.ToLower(h.Title)
		for _, kw := range keywords {
			if strings.Contains(title, kw) {
				filtered = append(filtered, h)
				break
			}
		}
	}
	return filtered
}

func symbolKeywords(symbol string) []string {
	t := strings.ToLower(symbol)
	keywords := []string{"$" + t, "(" + t + ")"}
	if len(t) > 1 {
		keywords = append(keywords, t)
	}

	nameMap := map[string][]string{
		"spy":  {"s&p 500", "s&p500", "sp500"},
		"qqq":  {"nasdaq 100", "nasdaq-100"},
		"iwm":  {"russell 2000"},
		"dia":  {"dow jones", "dow industrials"},
		"aapl": {"apple"},
		"msft": {"microsoft"},
		"amzn": {"amazon"},
		"googl": {"google", "alphabet"},
		"meta": {"meta platforms", "facebook"},
		"nvda": {"nvidia"},
		"tsla": {"tesla"},
		"amd":  {"advanced micro devices"},
	}
	if names, ok := nameMap[t]; ok {
		keywords = append(keywords, names...)
	}
	return keywords
}

// cleanHTML strips markup that some feeds embed in titles.
func cleanHTML(s string) string {
	if s == "" || !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}
