package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stakeboard/stakeboard/internal/auth"
	"github.com/stakeboard/stakeboard/internal/config"
	"github.com/stakeboard/stakeboard/internal/engine"
	"github.com/stakeboard/stakeboard/internal/treasury"
	"github.com/stakeboard/stakeboard/internal/web"
)

func main() {
	// Parse command line flags
	var showHelp bool
	flag.BoolVar(&showHelp, "help", false, "Show help information")
	flag.BoolVar(&showHelp, "h", false, "Show help information")
	flag.Parse()

	if showHelp {
		showHelpMessage()
		return
	}

	// Setup logging
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	if level, err := zerolog.ParseLevel(cfg.Development.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	if cfg.Development.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Create the settlement engine with the websocket hub as its
	// event emitter.
	vault := treasury.NewVault()
	hub := web.NewHub()
	go hub.Run()

	eng := engine.New(engine.Params{
		FeeRateBps:      cfg.Engine.FeeRateBps,
		Timeout:         cfg.Engine.Timeout(),
		KFactor:         cfg.Engine.KFactor,
		BaseRating:      cfg.Engine.BaseRating,
		LeaderboardSize: cfg.Engine.LeaderboardSize,
		RecentWinsSize:  cfg.Engine.RecentWinsSize,
		FeeRecipient:    cfg.Engine.FeeRecipient,
		SupportedAssets: cfg.Engine.SupportedAssets,
	}, vault, hub, log.Logger)

	tokens := auth.NewManager(cfg.Auth.Secret, time.Duration(cfg.Auth.TTLMinutes)*time.Minute)

	// Create service
	service := web.NewService(eng, vault, tokens, cfg)

	// Setup routes
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	service.RegisterRoutes(api)
	api.HandleFunc("/ws", service.WebSocketHandler(hub)).Methods("GET")

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(router)

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func showHelpMessage() {
	fmt.Println(`Stakeboard Settlement Server

DESCRIPTION:
    Settlement server for wager-backed board games. Escrows both
    players' stakes, validates moves, settles decided games with a
    platform fee, and keeps ratings and a leaderboard. Rewards are
    pull-based: winners claim their payout explicitly.

USAGE:
    stakeboard-server [OPTIONS]

OPTIONS:
    -h, --help    Show this help message

CONFIGURATION:
    The server is configured via config.yaml in the current directory,
    overridable through STAKEBOARD_* environment variables.

    Example config.yaml:
        server:
          host: localhost
          port: 8080

        engine:
          fee_rate_bps: 250
          timeout_seconds: 86400
          k_factor: 32
          supported_assets: ["native"]

        auth:
          secret: "change-me"

        development:
          debug: true
          faucet_amount: 100000

API ENDPOINTS:
    GET  /api/health                        - Service health check
    POST /api/register                      - Register a player, returns a session token
    POST /api/games                         - Create an open game (escrows stake)
    POST /api/games/{id}/join               - Join an open game (escrows stake)
    POST /api/games/{id}/moves              - Play a move
    POST /api/games/{id}/resign             - Resign an active game
    POST /api/games/{id}/forfeit            - Claim a timeout forfeit win
    POST /api/games/{id}/claim              - Claim a settled reward
    GET  /api/games/{id}                    - Fetch a game
    GET  /api/games/{id}/time               - Time remaining before forfeit
    GET  /api/games/{id}/claimable/{addr}   - Claimable amount for a principal
    POST /api/challenges                    - Challenge a specific player
    POST /api/challenges/{id}/accept        - Accept with an opening move
    POST /api/challenges/{id}/cancel        - Cancel and refund escrow
    GET  /api/challenges/{id}               - Fetch a challenge
    GET  /api/players/{address}             - Fetch a player record
    GET  /api/leaderboard                   - Top-rated players
    GET  /api/recent-wins                   - Recent settled wins
    GET  /api/ws                            - WebSocket event feed

BEHAVIOR:
    - Stakes are escrowed on create/join and never mutate afterwards
    - Winner receives both stakes minus the configured fee
    - Draws refund each player their own stake, no fee
    - Inactive players can be forfeited after the move timeout
    - Graceful shutdown on SIGINT/SIGTERM

EXAMPLES:
    # Start with default configuration
    stakeboard-server

    # Register a player
    curl -X POST http://localhost:8080/api/register \
      -H "Content-Type: application/json" \
      -d '{"address": "alice", "username": "alice-the-bold"}'`)
}
