package polygon

// Wire DTOs for the Polygon.io REST API. Numeric fields that appear under
// different names across endpoint versions carry every known alias; the
// normalize* functions in options.go fold them into the canonical models.

type aggsResponse struct {
	Ticker       string      `json:"ticker"`
	ResultsCount int         `json:"resultsCount"`
	Results      []aggResult `json:"results"`
	Status       string      `json:"status"`
}

type aggResult struct {
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
	Timestamp int64   `json:"t"` // unix millis
}

type snapshotTickerResponse struct {
	Status string `json:"status"`
	Ticker struct {
		Ticker           string  `json:"ticker"`
		TodaysChange     float64 `json:"todaysChange"`
		TodaysChangePerc float64 `json:"todaysChangePerc"`
		Day              struct {
			Close  float64 `json:"c"`
			Volume float64 `json:"v"`
		} `json:"day"`
		LastTrade struct {
			Price float64 `json:"p"`
		} `json:"lastTrade"`
		PrevDay struct {
			Close float64 `json:"c"`
		} `json:"prevDay"`
	} `json:"ticker"`
}

type indexSnapshotResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Ticker  string  `json:"ticker"`
		Value   float64 `json:"value"`
		Session struct {
			Change        float64 `json:"change"`
			ChangePercent float64 `json:"change_percent"`
			Close         float64 `json:"close"`
		} `json:"session"`
	} `json:"results"`
}

type indicatorResponse struct {
	Status  string `json:"status"`
	Results struct {
		Values []struct {
			Timestamp int64   `json:"timestamp"`
			Value     float64 `json:"value"`
		} `json:"values"`
	} `json:"results"`
}

type optionSnapshotResponse struct {
	Status  string         `json:"status"`
	Results optionSnapshot `json:"results"`
}

type optionChainResponse struct {
	Status  string           `json:"status"`
	Results []optionSnapshot `json:"results"`
	NextURL string           `json:"next_url"`
}

type optionSnapshot struct {
	Details struct {
		Ticker         string  `json:"ticker"`
		StrikePrice    float64 `json:"strike_price"`
		ContractType   string  `json:"contract_type"` // "call" / "put"
		ExpirationDate string  `json:"expiration_date"`
	} `json:"details"`
	LastQuote struct {
		Bid      float64 `json:"bid"`
		BidPrice float64 `json:"bid_price"` // older payloads
		Ask      float64 `json:"ask"`
		AskPrice float64 `json:"ask_price"`
	} `json:"last_quote"`
	LastTrade struct {
		Price float64 `json:"price"`
	} `json:"last_trade"`
	Day struct {
		Close  float64 `json:"close"`
		Volume float64 `json:"volume"`
	} `json:"day"`
	ImpliedVolatility float64 `json:"implied_volatility"`
	OpenInterest      float64 `json:"open_interest"`
	Greeks            struct {
		Delta float64 `json:"delta"`
		Gamma float64 `json:"gamma"`
		Theta float64 `json:"theta"`
		Vega  float64 `json:"vega"`
	} `json:"greeks"`
}
