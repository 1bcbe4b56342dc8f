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

	"github.com/justinabrahms/chessboard/internal/config"
	"github.com/justinabrahms/chessboard/internal/web"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
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

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	level, _ := cfg.Level()
	zerolog.SetGlobalLevel(level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := web.NewHub()
	go hub.Run(ctx)

	service := web.NewService(cfg, hub)
	go service.RunJanitor(ctx, cfg.Session.IdleTimeout)
	router := web.NewRouter(service)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("mode", cfg.StartMode().String()).
			Bool("strictMoves", cfg.Session.StrictMoves).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	cancel()

	log.Info().Msg("Server exited")
}

func showHelpMessage() {
	fmt.Println(`Chessboard Service

DESCRIPTION:
    HTTP service hosting independent chessboard sessions. Each session
    holds a board, its move history and a websocket channel that pushes
    board changes to connected viewers. Positions are exchanged as FEN.

USAGE:
    chessboard [OPTIONS]

OPTIONS:
    -h, --help    Show this help message

CONFIGURATION:
    Configured via config.yaml in the current directory or ./config, and
    CHESSBOARD_* environment variables (e.g. CHESSBOARD_SERVER_PORT).

    Example config.yaml:
        server:
          host: localhost
          port: 8080

        session:
          start_fen: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
          analysis_mode: false   # allow moves from earlier positions
          strict_moves: false    # reject moves that are not legal chess
          idle_timeout: 2h       # close sessions unused this long, 0 keeps them

        development:
          debug: false
          log_level: info

API ENDPOINTS:
    GET  /api/health                      - Service health check
    POST /api/sessions                    - Open a session
    GET  /api/sessions/{id}               - Current view of a session
    DELETE /api/sessions/{id}             - Close a session
    POST /api/sessions/{id}/select        - Click a display square
    POST /api/sessions/{id}/moves         - Move from one square to another
    POST /api/sessions/{id}/castle        - Castle kingside or queenside
    POST /api/sessions/{id}/navigate      - Move through the history
    POST /api/sessions/{id}/mode          - Switch game/analysis mode
    POST /api/sessions/{id}/flip          - Flip the board
    POST /api/sessions/{id}/resign        - Resign for the side to move
    POST /api/sessions/{id}/draw          - Claim an available draw
    POST /api/sessions/{id}/position      - Load a FEN position
    GET  /api/sessions/{id}/position      - Save the live position as FEN
    GET  /api/sessions/{id}/transcript    - Numbered move list
    GET  /api/ws?sessionId={id}           - Websocket board updates

EXAMPLES:
    # Start with default configuration
    chessboard

    # Open a session and play a move
    curl -X POST http://localhost:8080/api/sessions
    curl -X POST http://localhost:8080/api/sessions/{id}/moves \
      -H "Content-Type: application/json" \
      -d '{"from": "e2", "to": "e4"}'`)
}
