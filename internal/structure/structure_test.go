package structure

import (
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/prathamj/optionsgate/pkg/models"
)

func sampleChain() *models.OptionChain {
	return &models.OptionChain{
		Symbol:     "SPY",
		SpotPrice:  100,
		Expiration: "2026-10-16",
		Calls: []models.OptionContract{
			{Strike: 100, Type: models.OptionCall, Last: 3.2, Volume: 5000, OpenInterest: 5000, Greeks: models.Greeks{Gamma: 0.02}},
			{Strike: 105, Type: models.OptionCall, Last: 1.1, Volume: 8000, OpenInterest: 20000, Greeks: models.Greeks{Gamma: 0.015}},
			{Strike: 110, Type: models.OptionCall, Last: 0.4, Volume: 2000, OpenInterest: 3000},
		},
		Puts: []models.OptionContract{
			{Strike: 90, Type: models.OptionPut, Last: 0.3, Volume: 1500, OpenInterest: 3000},
			{Strike: 95, Type: models.OptionPut, Last: 0.9, Volume: 6000, OpenInterest: 15000, Greeks: models.Greeks{Gamma: 0.01}},
			{Strike: 100, Type: models.OptionPut, Last: 2.8, Volume: 4000, OpenInterest: 5000},
		},
	}
}

// ── Put/Call Ratios ──

func TestComputePutCallRatios(t *testing.T) {
	r := ComputePutCallRatios(sampleChain())

	// put vol 11500 / call vol 15000
	if math.Abs(r.Volume-11500.0/15000.0) > 1e-9 {
		t.Errorf("volume ratio: got %.4f", r.Volume)
	}
	// put OI 23000 / call OI 28000
	if math.Abs(r.OpenInterest-23000.0/28000.0) > 1e-9 {
		t.Errorf("OI ratio: got %.4f", r.OpenInterest)
	}
	if r.Premium <= 0 {
		t.Errorf("expected positive premium ratio, got %.4f", r.Premium)
	}
	if r.Interpretation == "" {
		t.Error("expected interpretation to be set")
	}
}

func TestInterpretPCRBuckets(t *testing.T) {
	cases := []struct {
		ratio float64
		want  string
	}{
		{0.5, "bullish"},
		{1.0, "normal range"},
		{1.5, "bearish"},
	}
	for _, tc := range cases {
		got := interpretPCR(tc.ratio)
		if !containsFold(got, tc.want) {
			t.Errorf("interpretPCR(%.1f) = %q, want substring %q", tc.ratio, got, tc.want)
		}
	}
}

func TestComputePutCallRatiosEmptyChain(t *testing.T) {
	r := ComputePutCallRatios(&models.OptionChain{})
	if r.Volume != 0 || r.OpenInterest != 0 || r.Premium != 0 {
		t.Errorf("expected zero ratios for empty chain, got %+v", r)
	}
}

// ── Gamma Exposure ──

func TestComputeGammaExposure(t *testing.T) {
	chain := &models.OptionChain{
		Calls: []models.OptionContract{
			{Strike: 100, OpenInterest: 5000, Greeks: models.Greeks{Gamma: 0.02}},
			{Strike: 105, OpenInterest: 3000, Greeks: models.Greeks{Gamma: 0.015}},
		},
		Puts: []models.OptionContract{
			{Strike: 95, OpenInterest: 2000, Greeks: models.Greeks{Gamma: 0.01}},
		},
	}

	gex := ComputeGammaExposure(chain, 100)

	if gex.TotalGEX <= 0 {
		t.Errorf("expected positive total GEX, got %.0f", gex.TotalGEX)
	}
	if gex.Regime != RegimeNegativeGamma {
		t.Errorf("expected %q regime, got %q", RegimeNegativeGamma, gex.Regime)
	}
	if gex.MaxGammaStrike != 100 {
		t.Errorf("expected max gamma strike 100, got %.2f", gex.MaxGammaStrike)
	}
	if len(gex.Profile) != 3 {
		t.Fatalf("expected 3 profile points, got %d", len(gex.Profile))
	}
	// Profile sorted ascending by strike.
	for i := 1; i < len(gex.Profile); i++ {
		if gex.Profile[i].Strike <= gex.Profile[i-1].Strike {
			t.Errorf("profile not sorted at index %d", i)
		}
	}
}

func TestComputeGammaExposureEmpty(t *testing.T) {
	gex := ComputeGammaExposure(&models.OptionChain{}, 100)
	if gex.Regime != RegimeFlatGamma {
		t.Errorf("expected flat gamma for empty chain, got %q", gex.Regime)
	}
	if gex.TotalGEX != 0 {
		t.Errorf("expected zero GEX, got %.2f", gex.TotalGEX)
	}
}

// ── Max Pain ──

func TestComputeMaxPainBruteForce(t *testing.T) {
	chain := &models.OptionChain{
		Calls: []models.OptionContract{
			{Strike: 95, OpenInterest: 1000},
			{Strike: 100, OpenInterest: 2000},
			{Strike: 105, OpenInterest: 1500},
		},
		Puts: []models.OptionContract{
			{Strike: 95, OpenInterest: 1500},
			{Strike: 100, OpenInterest: 2000},
			{Strike: 105, OpenInterest: 1000},
		},
	}

	mp := ComputeMaxPain(chain, 102)

	if mp.Strike == 0 {
		t.Fatal("expected max pain strike to be defined")
	}

	// Brute-force recomputation of the payout at every candidate.
	strikes := []float64{95, 100, 105}
	callOI := map[float64]float64{95: 1000, 100: 2000, 105: 1500}
	putOI := map[float64]float64{95: 1500, 100: 2000, 105: 1000}

	best, bestPain := 0.0, math.MaxFloat64
	for _, settle := range strikes {
		pain := 0.0
		for _, s := range strikes {
			if s < settle {
				pain += (settle - s) * callOI[s]
			}
			if s > settle {
				pain += (s - settle) * putOI[s]
			}
		}
		if pain < bestPain {
			bestPain = pain
			best = settle
		}
	}

	if mp.Strike != best {
		t.Errorf("max pain strike: got %.2f, brute force says %.2f", mp.Strike, best)
	}
	if len(mp.Distribution) != 3 {
		t.Errorf("expected 3 pain points, got %d", len(mp.Distribution))
	}
}

func TestComputeMaxPainTieBreaksLow(t *testing.T) {
	// Symmetric OI makes 100 and 105 equally painful at the ends; strikes
	// between always dominate, so force an exact tie with two strikes only.
	chain := &models.OptionChain{
		Calls: []models.OptionContract{{Strike: 100, OpenInterest: 1000}},
		Puts:  []models.OptionContract{{Strike: 105, OpenInterest: 1000}},
	}
	mp := ComputeMaxPain(chain, 102)
	// Pain at 100 = put side (105-100)*1000 = 5000; at 105 = call side
	// (105-100)*1000 = 5000. Tie resolves to the lower strike.
	if mp.Strike != 100 {
		t.Errorf("expected tie to break low (100), got %.2f", mp.Strike)
	}
}

func TestComputeMaxPainEmpty(t *testing.T) {
	mp := ComputeMaxPain(&models.OptionChain{}, 100)
	if mp.Strike != 0 || len(mp.Distribution) != 0 {
		t.Errorf("expected zero value for empty chain, got %+v", mp)
	}
}

// ── OI Walls ──

func TestComputeOIWalls(t *testing.T) {
	chain := &models.OptionChain{
		Calls: []models.OptionContract{
			{Strike: 100, OpenInterest: 5000},
			{Strike: 105, OpenInterest: 20000},
			{Strike: 110, OpenInterest: 3000},
		},
		Puts: []models.OptionContract{
			{Strike: 90, OpenInterest: 3000},
			{Strike: 95, OpenInterest: 15000},
			{Strike: 100, OpenInterest: 5000},
		},
	}

	walls := ComputeOIWalls(chain, 100)

	if walls.NearestResistance != 105 {
		t.Errorf("nearest resistance: got %.2f, want 105", walls.NearestResistance)
	}
	if walls.NearestSupport != 95 {
		t.Errorf("nearest support: got %.2f, want 95", walls.NearestSupport)
	}
	want := ExpectedRange{Low: 95, High: 105, Width: 10}
	if walls.ExpectedRange != want {
		t.Errorf("expected range: got %+v, want %+v", walls.ExpectedRange, want)
	}
	if len(walls.CallWalls) == 0 || walls.CallWalls[0].Strike != 105 {
		t.Errorf("expected top call wall at 105, got %+v", walls.CallWalls)
	}
	if len(walls.PutWalls) == 0 || walls.PutWalls[0].Strike != 95 {
		t.Errorf("expected top put wall at 95, got %+v", walls.PutWalls)
	}
}

func TestComputeOIWallsNoWallOnOneSide(t *testing.T) {
	chain := &models.OptionChain{
		Calls: []models.OptionContract{{Strike: 105, OpenInterest: 1000}},
	}
	walls := ComputeOIWalls(chain, 100)
	if walls.NearestSupport != 0 {
		t.Errorf("expected no support, got %.2f", walls.NearestSupport)
	}
	if walls.ExpectedRange.Width != 0 {
		t.Errorf("expected empty range without both walls, got %+v", walls.ExpectedRange)
	}
}

// ── Flow ──

func TestAnalyzeFlowEmpty(t *testing.T) {
	f := AnalyzeFlow(nil)
	if f.NetFlow != "N/A" {
		t.Errorf("expected N/A net flow, got %q", f.NetFlow)
	}
	if f.Interpretation != "Insufficient trade data for flow analysis" {
		t.Errorf("unexpected interpretation: %q", f.Interpretation)
	}
}

func TestAnalyzeFlowClassification(t *testing.T) {
	trades := []models.OptionTrade{
		// Call bought at the ask: bullish, 2.0 * 500 * 100 = 100k notional.
		{Type: models.OptionCall, Strike: 105, Price: 2.0, Size: 500, Bid: 1.9, Ask: 2.0},
		// Put bought at the ask: bearish, 1.5 * 200 * 100 = 30k.
		{Type: models.OptionPut, Strike: 95, Price: 1.5, Size: 200, Bid: 1.4, Ask: 1.5},
	}

	f := AnalyzeFlow(trades)

	if f.TradeCount != 2 {
		t.Errorf("trade count: got %d", f.TradeCount)
	}
	if f.BullishNotional != 100000 {
		t.Errorf("bullish notional: got %.0f, want 100000", f.BullishNotional)
	}
	if f.BearishNotional != 30000 {
		t.Errorf("bearish notional: got %.0f, want 30000", f.BearishNotional)
	}
	if f.NetFlow != "+70000" {
		t.Errorf("net flow: got %q, want +70000", f.NetFlow)
	}
}

func TestAnalyzeFlowLargeBlocks(t *testing.T) {
	trades := []models.OptionTrade{
		// 5.0 * 600 * 100 = 300k, above the block threshold.
		{Type: models.OptionCall, Strike: 110, Price: 5.0, Size: 600, Bid: 4.9, Ask: 5.1, Timestamp: time.Now()},
		// 1.0 * 100 * 100 = 10k, below.
		{Type: models.OptionCall, Strike: 110, Price: 1.0, Size: 100, Bid: 0.9, Ask: 1.1},
	}
	f := AnalyzeFlow(trades)
	if len(f.LargeBlocks) != 1 {
		t.Fatalf("expected 1 large block, got %d", len(f.LargeBlocks))
	}
	if f.LargeBlocks[0].Notional != 300000 {
		t.Errorf("block notional: got %.0f", f.LargeBlocks[0].Notional)
	}
}

func TestPutSoldIsBullish(t *testing.T) {
	// Put sold at the bid reads as bullish flow.
	trade := models.OptionTrade{Type: models.OptionPut, Strike: 95, Price: 1.0, Size: 10, Bid: 1.0, Ask: 1.2}
	f := AnalyzeFlow([]models.OptionTrade{trade})
	if f.BullishNotional == 0 {
		t.Error("expected put sold at bid to count as bullish")
	}
}

// ── Snapshot ──

func TestAnalyzeMarketStructureIdempotent(t *testing.T) {
	chain := sampleChain()
	first := AnalyzeMarketStructure(chain)
	second := AnalyzeMarketStructure(chain)
	if !reflect.DeepEqual(first, second) {
		t.Error("expected identical snapshots for identical input")
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
