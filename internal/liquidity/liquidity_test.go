package liquidity

import (
	"reflect"
	"testing"

	"github.com/prathamj/optionsgate/pkg/models"
)

func sampleOption() models.OptionContract {
	return models.OptionContract{
		Underlying:   "SPY",
		Strike:       430,
		Type:         models.OptionPut,
		Expiration:   "2026-10-16",
		Bid:          2.45,
		Ask:          2.50,
		Last:         2.47,
		Volume:       1200,
		OpenInterest: 5400,
	}
}

// ── AnalyzeOptionLiquidity ──

func TestAnalyzeOptionLiquidityHealthy(t *testing.T) {
	a := AnalyzeOptionLiquidity(sampleOption(), DefaultConfig())

	// Spread ~2.02% → 40, volume 1200 → 30, OI 5400 → 30.
	if a.LiquidityScore != 100 {
		t.Errorf("score: got %d, want 100", a.LiquidityScore)
	}
	if a.Quality != models.LiquidityExcellent {
		t.Errorf("quality: got %s, want EXCELLENT", a.Quality)
	}
	if !a.Tradeable {
		t.Errorf("expected tradeable, warnings: %v", a.Warnings)
	}
}

func TestAnalyzeOptionLiquidityNoMarket(t *testing.T) {
	for _, opt := range []models.OptionContract{
		{Bid: 0, Ask: 2.50, Volume: 1000, OpenInterest: 1000},
		{Bid: 2.45, Ask: 0, Volume: 1000, OpenInterest: 1000},
		{},
	} {
		a := AnalyzeOptionLiquidity(opt, DefaultConfig())
		if a.LiquidityScore != 0 {
			t.Errorf("score: got %d, want 0 for no-market option", a.LiquidityScore)
		}
		if a.Quality != models.LiquidityPoor {
			t.Errorf("quality: got %s, want POOR", a.Quality)
		}
		if a.Tradeable {
			t.Error("no-market option must not be tradeable")
		}
		if len(a.Warnings) != 1 {
			t.Errorf("expected single warning, got %v", a.Warnings)
		}
	}
}

func TestLiquidityScoreBounds(t *testing.T) {
	cases := []models.OptionContract{
		{Bid: 0.05, Ask: 0.50, Volume: 0, OpenInterest: 0},    // terrible everything
		{Bid: 2.45, Ask: 2.50, Volume: 1e6, OpenInterest: 1e6}, // perfect everything
		{Bid: 1.00, Ask: 1.10, Volume: 75, OpenInterest: 300},
	}
	for _, opt := range cases {
		a := AnalyzeOptionLiquidity(opt, DefaultConfig())
		if a.LiquidityScore < 0 || a.LiquidityScore > 100 {
			t.Errorf("score %d out of [0,100] for %+v", a.LiquidityScore, opt)
		}
	}
}

func TestLiquidityScoreMonotonicity(t *testing.T) {
	base := sampleOption()
	baseScore := AnalyzeOptionLiquidity(base, DefaultConfig()).LiquidityScore

	// More volume never lowers the score.
	lowVol := base
	lowVol.Volume = 5
	if got := AnalyzeOptionLiquidity(lowVol, DefaultConfig()).LiquidityScore; got > baseScore {
		t.Errorf("lower volume scored higher: %d > %d", got, baseScore)
	}

	// Less open interest never raises the score.
	lowOI := base
	lowOI.OpenInterest = 10
	if got := AnalyzeOptionLiquidity(lowOI, DefaultConfig()).LiquidityScore; got > baseScore {
		t.Errorf("lower OI scored higher: %d > %d", got, baseScore)
	}

	// Wider spread never raises the score.
	wide := base
	wide.Ask = base.Bid * 1.20
	if got := AnalyzeOptionLiquidity(wide, DefaultConfig()).LiquidityScore; got > baseScore {
		t.Errorf("wider spread scored higher: %d > %d", got, baseScore)
	}
}

func TestQualityTiers(t *testing.T) {
	cases := []struct {
		name string
		opt  models.OptionContract
		want models.LiquidityQuality
	}{
		{"excellent", models.OptionContract{Bid: 2.45, Ask: 2.50, Volume: 600, OpenInterest: 1500}, models.LiquidityExcellent},
		{"good", models.OptionContract{Bid: 1.00, Ask: 1.05, Volume: 150, OpenInterest: 600}, models.LiquidityGood},
		{"fair", models.OptionContract{Bid: 1.00, Ask: 1.10, Volume: 60, OpenInterest: 250}, models.LiquidityFair},
		{"poor volume", models.OptionContract{Bid: 1.00, Ask: 1.02, Volume: 5, OpenInterest: 5000}, models.LiquidityPoor},
		{"poor spread", models.OptionContract{Bid: 1.00, Ask: 1.30, Volume: 5000, OpenInterest: 5000}, models.LiquidityPoor},
	}
	for _, tc := range cases {
		a := AnalyzeOptionLiquidity(tc.opt, DefaultConfig())
		if a.Quality != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, a.Quality, tc.want)
		}
	}
}

func TestTradeableWarnings(t *testing.T) {
	opt := sampleOption()
	opt.Volume = 0
	a := AnalyzeOptionLiquidity(opt, DefaultConfig())
	if a.Tradeable {
		t.Error("zero volume with RequireVolume must not be tradeable")
	}

	cfg := DefaultConfig()
	cfg.RequireVolume = false
	a = AnalyzeOptionLiquidity(opt, cfg)
	if !a.Tradeable {
		t.Errorf("expected tradeable with RequireVolume off, warnings: %v", a.Warnings)
	}
}

func TestAnalyzeOptionLiquidityIdempotent(t *testing.T) {
	opt := sampleOption()
	if !reflect.DeepEqual(AnalyzeOptionLiquidity(opt, DefaultConfig()), AnalyzeOptionLiquidity(opt, DefaultConfig())) {
		t.Error("expected identical assessments for identical input")
	}
}

// ── FilterOptionsByLiquidity ──

func sampleBatch() []models.OptionContract {
	return []models.OptionContract{
		{Strike: 430, Bid: 2.45, Ask: 2.50, Volume: 1200, OpenInterest: 5400}, // excellent
		{Strike: 425, Bid: 1.00, Ask: 1.05, Volume: 150, OpenInterest: 600},   // good
		{Strike: 420, Bid: 1.00, Ask: 1.06, Volume: 60, OpenInterest: 250},    // fair, score 50
		{Strike: 415, Bid: 0.10, Ask: 0.50, Volume: 2, OpenInterest: 10},      // poor
		{Strike: 410},                                                         // no market
	}
}

func TestFilterPartition(t *testing.T) {
	result := FilterOptionsByLiquidity(sampleBatch(), DefaultConfig())

	if result.Statistics.Passed+result.Statistics.RejectedCount != len(sampleBatch()) {
		t.Errorf("passed %d + rejected %d != %d input",
			result.Statistics.Passed, result.Statistics.RejectedCount, len(sampleBatch()))
	}
	if result.Statistics.Passed != 3 {
		t.Errorf("expected 3 passing, got %d", result.Statistics.Passed)
	}

	// Sorted by score descending.
	for i := 1; i < len(result.Passed); i++ {
		if result.Passed[i].Assessment.LiquidityScore > result.Passed[i-1].Assessment.LiquidityScore {
			t.Errorf("passed list not sorted at index %d", i)
		}
	}

	for _, rej := range result.Rejected {
		if rej.RejectionReason == "" {
			t.Errorf("rejected option %.0f missing reason", rej.Option.Strike)
		}
	}
}

func TestFilterStatistics(t *testing.T) {
	result := FilterOptionsByLiquidity(sampleBatch(), DefaultConfig())
	st := result.Statistics

	if st.PassRate != 60 {
		t.Errorf("pass rate: got %.1f, want 60", st.PassRate)
	}
	if st.AvgPassedScore <= 0 {
		t.Errorf("expected positive average passed score, got %.1f", st.AvgPassedScore)
	}
	var reasons int
	for _, n := range st.RejectionReasons {
		reasons += n
	}
	if reasons != st.RejectedCount {
		t.Errorf("rejection reason tally %d != rejected count %d", reasons, st.RejectedCount)
	}
}

func TestFilterEmptyInput(t *testing.T) {
	result := FilterOptionsByLiquidity(nil, DefaultConfig())
	if result.Statistics.Passed != 0 || result.Statistics.RejectedCount != 0 || result.Statistics.PassRate != 0 {
		t.Errorf("expected zero statistics for empty input, got %+v", result.Statistics)
	}
}

// ── AssessMarketDepth ──

func TestAssessMarketDepthEmpty(t *testing.T) {
	d := AssessMarketDepth(&models.OptionChain{}, DefaultConfig())
	if d.Depth != models.LiquidityPoor {
		t.Errorf("expected POOR for empty chain, got %s", d.Depth)
	}
	if d.Recommendation == "" {
		t.Error("expected recommendation to be set")
	}
}

func TestAssessMarketDepthHealthy(t *testing.T) {
	chain := &models.OptionChain{
		Calls: []models.OptionContract{
			{Strike: 430, Bid: 2.45, Ask: 2.50, Volume: 1200, OpenInterest: 5400},
			{Strike: 435, Bid: 1.80, Ask: 1.84, Volume: 900, OpenInterest: 4000},
		},
		Puts: []models.OptionContract{
			{Strike: 425, Bid: 2.00, Ask: 2.04, Volume: 1100, OpenInterest: 5000},
		},
	}
	d := AssessMarketDepth(chain, DefaultConfig())
	if d.Depth != models.LiquidityExcellent {
		t.Errorf("expected EXCELLENT depth, got %s (tradeable %.0f%%, vol %.0f, spread %.2f%%)",
			d.Depth, d.TradeablePct, d.AvgVolume, d.AvgSpreadPct)
	}
}
