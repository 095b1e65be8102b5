// Package api provides the HTTP REST API server for optionsgate.
//
// It exposes endpoints for trade validation, entry checks, market context,
// market structure, option-chain liquidity, and WebSocket streaming.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/prathamj/optionsgate/internal/config"
	"github.com/prathamj/optionsgate/internal/liquidity"
	"github.com/prathamj/optionsgate/internal/market"
	"github.com/prathamj/optionsgate/internal/news"
	"github.com/prathamj/optionsgate/internal/probability"
	"github.com/prathamj/optionsgate/internal/provider"
	"github.com/prathamj/optionsgate/internal/provider/polygon"
	"github.com/prathamj/optionsgate/internal/structure"
	"github.com/prathamj/optionsgate/internal/validation"
	"github.com/prathamj/optionsgate/pkg/models"
	"github.com/prathamj/optionsgate/pkg/utils"
)

// Server is the HTTP API server.
type Server struct {
	router    chi.Router
	cfg       *config.Config
	provider  provider.MarketDataProvider
	agg       *market.Aggregator
	prob      *probability.Engine
	validator *validation.Engine
	liqCfg    liquidity.Config
	wsHub     *WSHub
	logger    zerolog.Logger
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config) (*Server, error) {
	client := polygon.NewClient(polygon.ClientOptions{
		APIKey:         cfg.Provider.APIKey,
		BaseURL:        cfg.Provider.BaseURL,
		RequestTimeout: time.Duration(cfg.Provider.TimeoutSec) * time.Second,
		RequestsPerSec: cfg.Provider.RateLimit / 60,
		CacheTTL:       time.Duration(cfg.Provider.CacheTTLSec) * time.Second,
	})

	var fetcher market.HeadlineFetcher
	if cfg.News.Enabled {
		fetcher = news.NewFetcher(nil)
	}

	agg := market.NewAggregator(client, fetcher)
	prob := probability.NewEngine(client)

	srv := &Server{
		cfg:       cfg,
		provider:  client,
		agg:       agg,
		prob:      prob,
		validator: validation.NewEngine(agg, prob),
		liqCfg:    liquidityConfig(cfg),
		wsHub:     NewWSHub(),
		logger:    log.With().Str("component", "api").Logger(),
	}

	srv.router = srv.buildRouter()
	return srv, nil
}

func liquidityConfig(cfg *config.Config) liquidity.Config {
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
	return lc
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	<-done
	s.logger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/validate", s.handleValidate)
		r.Post("/entry", s.handleEntry)

		r.Get("/market/{symbol}", s.handleMarket)
		r.Get("/structure/{symbol}", s.handleStructure)
		r.Get("/liquidity/{symbol}", s.handleLiquidity)
		r.Get("/probability/{symbol}", s.handleProbability)

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ValidateRequest is the body for POST /api/v1/validate and /api/v1/entry.
type ValidateRequest struct {
	Symbol     string              `json:"symbol"`
	Strategy   models.StrategyType `json:"strategy"`
	Strikes    models.Strikes      `json:"strikes"`
	Expiration string              `json:"expiration"` // YYYY-MM-DD
}

func (r *ValidateRequest) validate() string {
	if r.Symbol == "" {
		return "symbol is required"
	}
	switch r.Strategy {
	case models.PutCreditSpread, models.CallCreditSpread, models.IronCondor:
	default:
		return "unknown strategy"
	}
	if r.Strikes.ShortPut == 0 && r.Strikes.ShortCall == 0 {
		return "at least one short strike is required"
	}
	if r.Expiration == "" {
		return "expiration is required"
	}
	if _, err := utils.ParseDateET(r.Expiration); err != nil {
		return "expiration must be YYYY-MM-DD"
	}
	return ""
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status":        "ok",
			"version":       "dev",
			"market_status": utils.MarketStatus(),
			"time_et":       utils.NowET().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	symbol := utils.NormalizeSymbol(req.Symbol)
	report, err := s.validator.ValidateTrade(r.Context(), symbol, req.Strategy, req.Strikes, req.Expiration)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.wsHub.Broadcast(WSMessage{
		Type: "validation_complete",
		Data: map[string]any{
			"symbol": symbol,
			"status": report.OverallStatus,
		},
	})

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: report})
}

func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	symbol := utils.NormalizeSymbol(req.Symbol)
	snapshot, err := s.agg.GetCompleteMarketPicture(r.Context(), symbol, "")
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	decision := validation.ShouldEnterTrade(snapshot, req.Strategy, req.Strikes)
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: decision})
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	symbol := utils.NormalizeSymbol(chi.URLParam(r, "symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	snapshot, err := s.agg.GetCompleteMarketPicture(r.Context(), symbol, r.URL.Query().Get("contract"))
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: snapshot})
}

func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	chain, ok := s.fetchChain(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: structure.AnalyzeMarketStructure(chain)})
}

func (s *Server) handleLiquidity(w http.ResponseWriter, r *http.Request) {
	chain, ok := s.fetchChain(w, r)
	if !ok {
		return
	}

	result := liquidity.FilterOptionsByLiquidity(chain.Contracts(), s.liqCfg)
	depth := liquidity.AssessMarketDepth(chain, s.liqCfg)
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"filter": result,
			"depth":  depth,
		},
	})
}

func (s *Server) handleProbability(w http.ResponseWriter, r *http.Request) {
	symbol := utils.NormalizeSymbol(chi.URLParam(r, "symbol"))
	q := r.URL.Query()

	strike, err := strconv.ParseFloat(q.Get("strike"), 64)
	if err != nil || strike <= 0 {
		writeError(w, http.StatusBadRequest, "strike query parameter is required")
		return
	}
	expiration := q.Get("expiration")
	if expiration == "" {
		writeError(w, http.StatusBadRequest, "expiration query parameter is required")
		return
	}
	otype := models.OptionType(q.Get("type"))
	if otype != models.OptionCall && otype != models.OptionPut {
		writeError(w, http.StatusBadRequest, "type must be call or put")
		return
	}

	result, err := s.prob.CalculateProbabilities(r.Context(), symbol, strike, expiration, otype)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: result})
}

// fetchChain reads the symbol and chain filters from the request and loads
// the option chain. Writes the error response itself on failure.
func (s *Server) fetchChain(w http.ResponseWriter, r *http.Request) (*models.OptionChain, bool) {
	symbol := utils.NormalizeSymbol(chi.URLParam(r, "symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return nil, false
	}

	q := r.URL.Query()
	expiration := q.Get("expiration")
	if expiration == "" {
		writeError(w, http.StatusBadRequest, "expiration query parameter is required")
		return nil, false
	}

	strikeMin, _ := strconv.ParseFloat(q.Get("strike_min"), 64)
	strikeMax, _ := strconv.ParseFloat(q.Get("strike_max"), 64)

	chain, err := s.provider.GetOptionChain(r.Context(), symbol, expiration, strikeMin, strikeMax)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return nil, false
	}
	return chain, true
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
