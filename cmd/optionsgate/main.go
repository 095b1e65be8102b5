// optionsgate: pre-trade risk validation for options positions
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/prathamj/optionsgate/api"
	"github.com/prathamj/optionsgate/internal/config"
	"github.com/prathamj/optionsgate/internal/liquidity"
	"github.com/prathamj/optionsgate/internal/market"
	"github.com/prathamj/optionsgate/internal/news"
	"github.com/prathamj/optionsgate/internal/probability"
	"github.com/prathamj/optionsgate/internal/provider/polygon"
	"github.com/prathamj/optionsgate/internal/structure"
	"github.com/prathamj/optionsgate/internal/validation"
	"github.com/prathamj/optionsgate/pkg/models"
	"github.com/prathamj/optionsgate/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	// A local .env is convenient in development; absence is not an error.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "optionsgate",
	Short: "optionsgate: pre-trade risk validation for options positions",
	Long: `optionsgate validates proposed options positions before entry:
strike probabilities, liquidity, market structure (gamma exposure,
max pain, open-interest walls), and the broad market environment,
reduced to a single actionable verdict.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level, _ := cmd.Flags().GetString("log-level")
		setupLogging(cfg, level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("json", false, "print raw JSON output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(entryCmd)
	rootCmd.AddCommand(marketCmd)
	rootCmd.AddCommand(structureCmd)
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(liquidityCmd)
	rootCmd.AddCommand(probabilityCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// setupLogging configures the global zerolog logger from config, with an
// optional level override from the command line.
func setupLogging(cfg *config.Config, override string) {
	level := cfg.Logging.Level
	if override != "" {
		level = override
	}
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)

	if cfg.Logging.Format != "json" {
		zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("optionsgate %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Shared flags / wiring ---

type strikeFlags struct {
	strategy   string
	shortPut   float64
	longPut    float64
	shortCall  float64
	longCall   float64
	expiration string
}

func addStrikeFlags(cmd *cobra.Command, f *strikeFlags) {
	cmd.Flags().StringVar(&f.strategy, "strategy", "put_credit_spread", "strategy: put_credit_spread, call_credit_spread, iron_condor")
	cmd.Flags().Float64Var(&f.shortPut, "short-put", 0, "short put strike")
	cmd.Flags().Float64Var(&f.longPut, "long-put", 0, "long put strike")
	cmd.Flags().Float64Var(&f.shortCall, "short-call", 0, "short call strike")
	cmd.Flags().Float64Var(&f.longCall, "long-call", 0, "long call strike")
	cmd.Flags().StringVar(&f.expiration, "expiration", "", "expiration date (YYYY-MM-DD)")
}

func (f *strikeFlags) strikes() models.Strikes {
	return models.Strikes{
		ShortPut:  f.shortPut,
		LongPut:   f.longPut,
		ShortCall: f.shortCall,
		LongCall:  f.longCall,
	}
}

func newProvider() *polygon.Client {
	return polygon.NewClient(polygon.ClientOptions{
		APIKey:         cfg.Provider.APIKey,
		BaseURL:        cfg.Provider.BaseURL,
		RequestTimeout: time.Duration(cfg.Provider.TimeoutSec) * time.Second,
		RequestsPerSec: cfg.Provider.RateLimit / 60,
		CacheTTL:       time.Duration(cfg.Provider.CacheTTLSec) * time.Second,
	})
}

func newAggregator(client *polygon.Client) *market.Aggregator {
	var fetcher market.HeadlineFetcher
	if cfg.News.Enabled {
		fetcher = news.NewFetcher(nil)
	}
	return market.NewAggregator(client, fetcher)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// --- Validate Command ---

var validateFlags strikeFlags

var validateCmd = &cobra.Command{
	Use:   "validate [symbol]",
	Short: "Run the full pre-trade validation battery",
	Long: `Run every validation check against a proposed position and print the
aggregated report.

Examples:
  optionsgate validate SPY --strategy put_credit_spread --short-put 430 --long-put 425 --expiration 2026-10-16
  optionsgate validate QQQ --strategy iron_condor --short-put 350 --long-put 345 --short-call 390 --long-call 395 --expiration 2026-10-16`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		symbol := utils.NormalizeSymbol(args[0])

		client := newProvider()
		engine := validation.NewEngine(newAggregator(client), probability.NewEngine(client))

		report, err := engine.ValidateTrade(cmd.Context(), symbol, models.StrategyType(validateFlags.strategy), validateFlags.strikes(), validateFlags.expiration)
		if err != nil {
			return err
		}

		if raw, _ := cmd.Flags().GetBool("json"); raw {
			return printJSON(report)
		}

		fmt.Printf("🛂 Validation: %s %s exp %s\n", report.Symbol, report.StrategyType, report.Expiration)
		fmt.Printf("   Overall: %s\n\n", report.OverallStatus)
		for _, c := range report.Checks {
			icon := "✅"
			switch c.Status {
			case models.CheckWarning:
				icon = "⚠️ "
			case models.CheckFail:
				icon = "❌"
			}
			fmt.Printf("   %s %-32s %s\n", icon, c.Name, c.Message)
		}
		fmt.Printf("\n   ➤ %s: %s\n", report.Recommendation.Action, report.Recommendation.Reasoning)
		for _, step := range report.Recommendation.NextSteps {
			fmt.Printf("     - %s\n", step)
		}
		return nil
	},
}

func init() {
	addStrikeFlags(validateCmd, &validateFlags)
}

// --- Entry Command ---

var entryFlags strikeFlags

var entryCmd = &cobra.Command{
	Use:   "entry [symbol]",
	Short: "Run the lighter pre-entry timing gate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		symbol := utils.NormalizeSymbol(args[0])

		client := newProvider()
		snapshot, err := newAggregator(client).GetCompleteMarketPicture(cmd.Context(), symbol, "")
		if err != nil {
			return err
		}

		decision := validation.ShouldEnterTrade(snapshot, models.StrategyType(entryFlags.strategy), entryFlags.strikes())
		if raw, _ := cmd.Flags().GetBool("json"); raw {
			return printJSON(decision)
		}

		fmt.Printf("🚦 Entry gate: %s, %s\n", symbol, decision.Status)
		for _, r := range decision.Reasons {
			fmt.Printf("   ❌ %s\n", r)
		}
		for _, c := range decision.Cautions {
			fmt.Printf("   ⚠️  %s\n", c)
		}
		if decision.SafeToEnter {
			fmt.Println("   ✅ safe to enter")
		}
		return nil
	},
}

func init() {
	addStrikeFlags(entryCmd, &entryFlags)
}

// --- Market Command ---

var marketCmd = &cobra.Command{
	Use:   "market [symbol]",
	Short: "Print the complete market picture for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		symbol := utils.NormalizeSymbol(args[0])

		snapshot, err := newAggregator(newProvider()).GetCompleteMarketPicture(cmd.Context(), symbol, "")
		if err != nil {
			return err
		}

		if raw, _ := cmd.Flags().GetBool("json"); raw {
			return printJSON(snapshot)
		}

		u := snapshot.Underlying
		m := snapshot.Market
		fmt.Printf("📊 %s  %.2f (%+.2f%%)  vol %d\n", snapshot.Symbol, u.Price, u.ChangePct, u.Volume)
		fmt.Printf("   VWAP %.2f (%s)  range %.2f%%\n", u.Intraday.VWAP, u.Intraday.VWAPLabel, u.Intraday.RangePct)
		fmt.Printf("   RSI %.1f  SMA20 %.2f  SMA50 %.2f  (%s)\n", u.Technicals.RSI, u.Technicals.SMA20, u.Technicals.SMA50, u.Technicals.PriceVsSMA)
		fmt.Printf("   VIX %.1f (%s)  SPY %+.2f%%  %s  risk %s\n", m.VIX, m.VIXLevel, m.SPYChangePct, m.MarketStrength, m.RiskEnvironment)
		for _, h := range snapshot.Headlines {
			fmt.Printf("   📰 [%s] %s\n", h.Source, h.Title)
		}
		return nil
	},
}

// --- Structure Command ---

var structureCmd = &cobra.Command{
	Use:   "structure [symbol]",
	Short: "Analyze option market structure for an expiration",
	Long: `Compute put/call ratios, gamma exposure, max pain, and open-interest
walls from the option chain.

Example:
  optionsgate structure SPY --expiration 2026-10-16 --strike-min 400 --strike-max 480`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		symbol := utils.NormalizeSymbol(args[0])
		expiration, _ := cmd.Flags().GetString("expiration")
		strikeMin, _ := cmd.Flags().GetFloat64("strike-min")
		strikeMax, _ := cmd.Flags().GetFloat64("strike-max")
		if expiration == "" {
			return fmt.Errorf("--expiration is required")
		}

		chain, err := newProvider().GetOptionChain(cmd.Context(), symbol, expiration, strikeMin, strikeMax)
		if err != nil {
			return err
		}

		snap := structure.AnalyzeMarketStructure(chain)
		if raw, _ := cmd.Flags().GetBool("json"); raw {
			return printJSON(snap)
		}

		fmt.Printf("🧱 Structure: %s exp %s (spot %.2f)\n", snap.Symbol, expiration, snap.Spot)
		fmt.Printf("   PCR  volume %.2f  OI %.2f  premium %.2f, %s\n",
			snap.Ratios.Volume, snap.Ratios.OpenInterest, snap.Ratios.Premium, snap.Ratios.Interpretation)
		fmt.Printf("   GEX  total %.0f, %s (max gamma strike %.2f)\n",
			snap.Gamma.TotalGEX, snap.Gamma.Regime, snap.Gamma.MaxGammaStrike)
		fmt.Printf("   Max pain %.2f (%.1f%% from spot)\n", snap.MaxPain.Strike, snap.MaxPain.DistancePct)
		fmt.Printf("   Walls: resistance %.2f, support %.2f (range %.2f)\n",
			snap.Walls.NearestResistance, snap.Walls.NearestSupport, snap.Walls.ExpectedRange.Width)
		return nil
	},
}

func init() {
	structureCmd.Flags().String("expiration", "", "expiration date (YYYY-MM-DD)")
	structureCmd.Flags().Float64("strike-min", 0, "minimum strike filter")
	structureCmd.Flags().Float64("strike-max", 0, "maximum strike filter")
}

// --- Chain Command ---

var chainCmd = &cobra.Command{
	Use:   "chain [symbol]",
	Short: "Print the option chain for an expiration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		symbol := utils.NormalizeSymbol(args[0])
		expiration, _ := cmd.Flags().GetString("expiration")
		strikeMin, _ := cmd.Flags().GetFloat64("strike-min")
		strikeMax, _ := cmd.Flags().GetFloat64("strike-max")
		if expiration == "" {
			return fmt.Errorf("--expiration is required")
		}

		chain, err := newProvider().GetOptionChain(cmd.Context(), symbol, expiration, strikeMin, strikeMax)
		if err != nil {
			return err
		}

		if raw, _ := cmd.Flags().GetBool("json"); raw {
			return printJSON(chain)
		}

		fmt.Printf("⛓  Chain: %s exp %s (spot %.2f)  %d calls / %d puts\n",
			chain.Symbol, expiration, chain.SpotPrice, len(chain.Calls), len(chain.Puts))
		printContracts := func(label string, contracts []models.OptionContract) {
			if len(contracts) == 0 {
				return
			}
			fmt.Printf("   %s\n", label)
			fmt.Printf("   %8s %8s %8s %8s %10s %8s %8s\n", "strike", "bid", "ask", "last", "vol", "OI", "IV")
			for _, c := range contracts {
				fmt.Printf("   %8.2f %8.2f %8.2f %8.2f %10d %8d %7.1f%%\n",
					c.Strike, c.Bid, c.Ask, c.Last, c.Volume, c.OpenInterest, c.IV*100)
			}
		}
		printContracts("CALLS", chain.Calls)
		printContracts("PUTS", chain.Puts)
		return nil
	},
}

func init() {
	chainCmd.Flags().String("expiration", "", "expiration date (YYYY-MM-DD)")
	chainCmd.Flags().Float64("strike-min", 0, "minimum strike filter")
	chainCmd.Flags().Float64("strike-max", 0, "maximum strike filter")
}

// --- Liquidity Command ---

var liquidityCmd = &cobra.Command{
	Use:   "liquidity [symbol]",
	Short: "Score option chain liquidity for an expiration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		symbol := utils.NormalizeSymbol(args[0])
		expiration, _ := cmd.Flags().GetString("expiration")
		strikeMin, _ := cmd.Flags().GetFloat64("strike-min")
		strikeMax, _ := cmd.Flags().GetFloat64("strike-max")
		if expiration == "" {
			return fmt.Errorf("--expiration is required")
		}

		chain, err := newProvider().GetOptionChain(cmd.Context(), symbol, expiration, strikeMin, strikeMax)
		if err != nil {
			return err
		}

		lc := liquidity.DefaultConfig()
		if cfg.Liquidity.MinScore > 0 {
			lc.MinScore = cfg.Liquidity.MinScore
		}
		if cfg.Liquidity.MaxSpreadPct > 0 {
			lc.MaxSpreadPct = cfg.Liquidity.MaxSpreadPct
		}
		if cfg.Liquidity.MinQuality != "" {
			lc.MinQuality = models.LiquidityQuality(cfg.Liquidity.MinQuality)
		}
		lc.RequireVolume = cfg.Liquidity.RequireVolume
		lc.RequireOI = cfg.Liquidity.RequireOI
		result := liquidity.FilterOptionsByLiquidity(chain.Contracts(), lc)
		depth := liquidity.AssessMarketDepth(chain, lc)

		if raw, _ := cmd.Flags().GetBool("json"); raw {
			return printJSON(map[string]any{"filter": result, "depth": depth})
		}

		st := result.Statistics
		fmt.Printf("💧 Liquidity: %s exp %s\n", symbol, expiration)
		fmt.Printf("   %d/%d tradeable (%.0f%%), avg passing score %.1f\n",
			st.Passed, st.Passed+st.RejectedCount, st.PassRate, st.AvgPassedScore)
		fmt.Printf("   Depth: %s, %s\n", depth.Depth, depth.Recommendation)
		return nil
	},
}

func init() {
	liquidityCmd.Flags().String("expiration", "", "expiration date (YYYY-MM-DD)")
	liquidityCmd.Flags().Float64("strike-min", 0, "minimum strike filter")
	liquidityCmd.Flags().Float64("strike-max", 0, "maximum strike filter")
}

// --- Probability Command ---

var probabilityCmd = &cobra.Command{
	Use:   "probability [symbol]",
	Short: "Compute touch/ITM probabilities for a strike",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		symbol := utils.NormalizeSymbol(args[0])
		strike, _ := cmd.Flags().GetFloat64("strike")
		expiration, _ := cmd.Flags().GetString("expiration")
		otype, _ := cmd.Flags().GetString("type")
		if strike <= 0 || expiration == "" {
			return fmt.Errorf("--strike and --expiration are required")
		}

		engine := probability.NewEngine(newProvider())
		result, err := engine.CalculateProbabilities(cmd.Context(), symbol, strike, expiration, models.OptionType(otype))
		if err != nil {
			return err
		}

		if raw, _ := cmd.Flags().GetBool("json"); raw {
			return printJSON(result)
		}

		fmt.Printf("🎲 %s %.2f %s exp %s (%d DTE)\n", symbol, result.Strike, result.OptionType, expiration, result.DaysToExpiration)
		fmt.Printf("   P(touch) %.2f  P(ITM) %.2f\n", result.ProbTouch, result.ProbITM)
		fmt.Printf("   Distance %.2f ATRs (ATR14 %.2f), expected move ±%.2f\n", result.DistanceInATR, result.ATR14D, result.ExpectedMove)
		fmt.Printf("   IV %.2f  HV %.2f\n", result.ImpliedVolatility, result.HistoricalVol)
		return nil
	},
}

func init() {
	probabilityCmd.Flags().Float64("strike", 0, "strike price")
	probabilityCmd.Flags().String("expiration", "", "expiration date (YYYY-MM-DD)")
	probabilityCmd.Flags().String("type", "put", "option type: call or put")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		srv, err := api.NewServer(cfg)
		if err != nil {
			return err
		}
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("🌐 optionsgate API server listening on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  optionsgate System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Market Status: %s\n", utils.MarketStatus())
		fmt.Printf("  Time (ET):     %s\n", utils.NowET().Format("2006-01-02 15:04:05 MST"))
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Provider:      %s (%s)\n", cfg.Provider.Name, cfg.Provider.BaseURL)
		apiKey := "❌ not set"
		if cfg.Provider.APIKey != "" {
			apiKey = "✅ set (" + maskKey(cfg.Provider.APIKey) + ")"
		}
		fmt.Printf("    API Key:       %s\n", apiKey)
		fmt.Printf("    Liquidity:     min score %d, max spread %.1f%%, min quality %s\n",
			cfg.Liquidity.MinScore, cfg.Liquidity.MaxSpreadPct, cfg.Liquidity.MinQuality)
		fmt.Printf("    News:          enabled=%v\n", cfg.News.Enabled)
		fmt.Printf("    API Server:    %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

// maskKey masks an API key for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
