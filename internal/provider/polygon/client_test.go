package polygon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prathamj/optionsgate/internal/provider"
)

func testClient(baseURL string) *Client {
	return NewClient(ClientOptions{
		APIKey:          "test-key",
		BaseURL:         baseURL,
		RequestsPerSec:  100,
		MaxRetryTimeout: 100 * time.Millisecond,
	})
}

func TestGetQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/tickers/SPY") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("apiKey") != "test-key" {
			t.Error("apiKey query parameter missing")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"ticker": map[string]any{
				"ticker":           "SPY",
				"todaysChange":     2.15,
				"todaysChangePerc": 0.5,
				"day":              map[string]any{"c": 430.0, "v": 55000000.0},
				"lastTrade":        map[string]any{"p": 430.25},
			},
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	quote, err := c.GetQuote(context.Background(), "spy")
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}

	if quote.Symbol != "SPY" {
		t.Errorf("Symbol = %q, want SPY", quote.Symbol)
	}
	if quote.Price != 430.25 {
		t.Errorf("Price = %v, want the last trade 430.25", quote.Price)
	}
	if quote.ChangePct != 0.5 || quote.Volume != 55000000 {
		t.Errorf("quote fields: %+v", quote)
	}
}

func TestGetQuoteFallsBackToDayClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"ticker": map[string]any{
				"ticker": "SPY",
				"day":    map[string]any{"c": 429.5, "v": 1000.0},
			},
		})
	}))
	defer srv.Close()

	quote, err := testClient(srv.URL).GetQuote(context.Background(), "SPY")
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}
	if quote.Price != 429.5 {
		t.Errorf("Price = %v, want the day close 429.5", quote.Price)
	}
}

func TestGetQuoteCaches(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"ticker": map[string]any{"ticker": "SPY", "lastTrade": map[string]any{"p": 430.0}},
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	for i := 0; i < 3; i++ {
		if _, err := c.GetQuote(context.Background(), "SPY"); err != nil {
			t.Fatalf("GetQuote #%d: %v", i, err)
		}
	}
	if calls != 1 {
		t.Errorf("server hit %d times, want 1 with caching", calls)
	}
}

func TestGetQuoteIndexRoutesToIndicesSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/snapshot/indices" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("ticker.any_of"); got != "I:VIX" {
			t.Errorf("ticker.any_of = %q, want I:VIX", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"results": []map[string]any{{
				"ticker": "I:VIX",
				"value":  28.4,
				"session": map[string]any{
					"change":         3.1,
					"change_percent": 12.25,
				},
			}},
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	quote, err := c.GetQuote(context.Background(), "i:vix")
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}

	if quote.Symbol != "I:VIX" {
		t.Errorf("Symbol = %q, want I:VIX", quote.Symbol)
	}
	if quote.Price != 28.4 {
		t.Errorf("Price = %v, want 28.4", quote.Price)
	}
	if quote.Change != 3.1 || quote.ChangePct != 12.25 {
		t.Errorf("Change = %v / %v, want 3.1 / 12.25", quote.Change, quote.ChangePct)
	}
	if quote.Volume != 0 {
		t.Errorf("Volume = %d, want 0 for an index", quote.Volume)
	}
}

func TestGetQuoteIndexEmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "OK", "results": []any{}})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	if _, err := c.GetQuote(context.Background(), "I:NDX"); !errors.Is(err, provider.ErrSymbolNotFound) {
		t.Errorf("err = %v, want ErrSymbolNotFound", err)
	}
}

func TestGetQuoteNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).GetQuote(context.Background(), "NOPE")
	if !errors.Is(err, provider.ErrSymbolNotFound) {
		t.Errorf("err = %v, want ErrSymbolNotFound", err)
	}
}

func TestGetDailyBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("sort") != "asc" {
			t.Error("bars not requested ascending")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"results": []map[string]any{
				{"o": 428.0, "h": 430.0, "l": 427.0, "c": 429.0, "v": 1000.0, "t": 1750000000000},
				{"o": 429.0, "h": 432.0, "l": 428.5, "c": 431.0, "v": 1200.0, "t": 1750086400000},
			},
		})
	}))
	defer srv.Close()

	bars, err := testClient(srv.URL).GetDailyBars(context.Background(), "SPY", 45)
	if err != nil {
		t.Fatalf("GetDailyBars: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(bars))
	}
	if bars[0].Close != 429 || bars[1].High != 432 {
		t.Errorf("bars not decoded: %+v", bars)
	}
	if bars[0].Timestamp.IsZero() {
		t.Error("bar timestamp not set")
	}
}

func TestGetDailyBarsTruncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		results := make([]map[string]any, 10)
		for i := range results {
			results[i] = map[string]any{"o": 1.0, "h": 1.0, "l": 1.0, "c": float64(i), "v": 1.0, "t": int64(1750000000000 + i*86400000)}
		}
		json.NewEncoder(w).Encode(map[string]any{"status": "OK", "results": results})
	}))
	defer srv.Close()

	bars, err := testClient(srv.URL).GetDailyBars(context.Background(), "SPY", 3)
	if err != nil {
		t.Fatalf("GetDailyBars: %v", err)
	}
	if len(bars) != 3 {
		t.Fatalf("got %d bars, want the most recent 3", len(bars))
	}
	if bars[2].Close != 9 {
		t.Errorf("last bar close = %v, want the newest (9)", bars[2].Close)
	}
}

func TestLatestIndicator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/v1/indicators/rsi/SPY") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"results": map[string]any{
				"values": []map[string]any{{"timestamp": 1750000000000, "value": 57.3}},
			},
		})
	}))
	defer srv.Close()

	rsi, err := testClient(srv.URL).GetRSI(context.Background(), "SPY", 14)
	if err != nil {
		t.Fatalf("GetRSI: %v", err)
	}
	if rsi != 57.3 {
		t.Errorf("RSI = %v, want 57.3", rsi)
	}
}

func TestLatestIndicatorEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "OK", "results": map[string]any{"values": []any{}}})
	}))
	defer srv.Close()

	if _, err := testClient(srv.URL).GetSMA(context.Background(), "SPY", 20); err == nil {
		t.Fatal("expected an error when no indicator values come back")
	}
}

func chainSnapshot(ticker string, strike float64, ctype string) map[string]any {
	return map[string]any{
		"details": map[string]any{
			"ticker":          ticker,
			"strike_price":    strike,
			"contract_type":   ctype,
			"expiration_date": "2026-12-18",
		},
		"last_quote":         map[string]any{"bid": 1.20, "ask": 1.30},
		"last_trade":         map[string]any{"price": 1.25},
		"day":                map[string]any{"close": 1.24, "volume": 800.0},
		"implied_volatility": 0.22,
		"open_interest":      4000.0,
		"greeks":             map[string]any{"delta": -0.2, "gamma": 0.01},
	}
}

func TestGetOptionChain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/tickers/") {
			// Underlying quote for the spot price.
			json.NewEncoder(w).Encode(map[string]any{
				"status": "OK",
				"ticker": map[string]any{"ticker": "SPY", "lastTrade": map[string]any{"p": 430.0}},
			})
			return
		}
		if r.URL.Query().Get("expiration_date") != "2026-12-18" {
			t.Error("expiration_date filter missing")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"results": []map[string]any{
				chainSnapshot("O:SPY261218P00400000", 400, "put"),
				chainSnapshot("O:SPY261218C00450000", 450, "call"),
			},
		})
	}))
	defer srv.Close()

	chain, err := testClient(srv.URL).GetOptionChain(context.Background(), "SPY", "2026-12-18", 0, 0)
	if err != nil {
		t.Fatalf("GetOptionChain: %v", err)
	}

	if len(chain.Puts) != 1 || len(chain.Calls) != 1 {
		t.Fatalf("got %d puts / %d calls, want 1/1", len(chain.Puts), len(chain.Calls))
	}
	put := chain.Puts[0]
	if put.Strike != 400 || put.Bid != 1.20 || put.Ask != 1.30 || put.IV != 0.22 {
		t.Errorf("put not normalized: %+v", put)
	}
	if put.OpenInterest != 4000 || put.Volume != 800 {
		t.Errorf("put size fields: %+v", put)
	}
	if chain.SpotPrice != 430 {
		t.Errorf("SpotPrice = %v, want 430 from the underlying quote", chain.SpotPrice)
	}
}

func TestGetOptionChainPagination(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/tickers/") {
			json.NewEncoder(w).Encode(map[string]any{
				"status": "OK",
				"ticker": map[string]any{"ticker": "SPY", "lastTrade": map[string]any{"p": 430.0}},
			})
			return
		}
		if r.URL.Query().Get("cursor") == "page2" {
			json.NewEncoder(w).Encode(map[string]any{
				"status":  "OK",
				"results": []map[string]any{chainSnapshot("O:SPY261218C00450000", 450, "call")},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status":   "OK",
			"results":  []map[string]any{chainSnapshot("O:SPY261218P00400000", 400, "put")},
			"next_url": srv.URL + "/v3/snapshot/options/SPY?cursor=page2",
		})
	}))
	defer srv.Close()

	chain, err := testClient(srv.URL).GetOptionChain(context.Background(), "SPY", "2026-12-18", 0, 0)
	if err != nil {
		t.Fatalf("GetOptionChain: %v", err)
	}
	if len(chain.Puts) != 1 || len(chain.Calls) != 1 {
		t.Errorf("pagination lost contracts: %d puts / %d calls", len(chain.Puts), len(chain.Calls))
	}
}

func TestGetOptionChainEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "OK", "results": []any{}})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).GetOptionChain(context.Background(), "SPY", "2026-12-18", 0, 0)
	if !errors.Is(err, provider.ErrSymbolNotFound) {
		t.Errorf("err = %v, want ErrSymbolNotFound", err)
	}
}

func TestNormalizeContractAliases(t *testing.T) {
	// Older payloads quote bid_price/ask_price instead of bid/ask.
	snap := optionSnapshot{}
	snap.Details.Ticker = "O:SPY261218P00400000"
	snap.Details.StrikePrice = 400
	snap.Details.ContractType = "put"
	snap.LastQuote.BidPrice = 1.10
	snap.LastQuote.AskPrice = 1.18
	snap.Day.Close = 1.15

	c := normalizeContract("SPY", snap)
	if c.Bid != 1.10 || c.Ask != 1.18 {
		t.Errorf("aliases not folded: bid %v ask %v", c.Bid, c.Ask)
	}
	if c.Last != 1.15 {
		t.Errorf("Last = %v, want the day close fallback", c.Last)
	}
}

func TestServerErrorsRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"ticker": map[string]any{"ticker": "SPY", "lastTrade": map[string]any{"p": 430.0}},
		})
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{
		APIKey:          "test-key",
		BaseURL:         srv.URL,
		RequestsPerSec:  100,
		MaxRetryTimeout: 5 * time.Second,
	})
	quote, err := c.GetQuote(context.Background(), "SPY")
	if err != nil {
		t.Fatalf("GetQuote after retry: %v", err)
	}
	if quote.Price != 430 || calls < 2 {
		t.Errorf("price %v after %d calls, want a successful retry", quote.Price, calls)
	}
}

func TestClientErrorsDoNotRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).GetQuote(context.Background(), "SPY")
	if err == nil {
		t.Fatal("expected an error")
	}
	var httpErr *provider.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadRequest {
		t.Errorf("err = %v, want a 400 HTTPError", err)
	}
	if calls != 1 {
		t.Errorf("server hit %d times, want 1 for a permanent error", calls)
	}
}
