package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/justinabrahms/chessboard/internal/chess"
	"github.com/justinabrahms/chessboard/internal/config"
	"github.com/justinabrahms/chessboard/internal/rules"
	"github.com/justinabrahms/chessboard/internal/session"
	"github.com/justinabrahms/chessboard/internal/textview"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var showHelp bool
	flag.BoolVar(&showHelp, "help", false, "Show help information")
	flag.BoolVar(&showHelp, "h", false, "Show help information")
	flag.Parse()

	if showHelp {
		fmt.Println(helpText)
		return
	}

	// Logs go to stderr so they do not interleave with the board
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	level, _ := cfg.Level()
	zerolog.SetGlobalLevel(level)

	start, err := chess.Decode(cfg.Session.StartFEN)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid start position")
	}

	opts := []session.Option{
		session.WithStartPosition(start),
		session.WithMode(cfg.StartMode()),
		session.WithRenderer(textview.New(os.Stdout)),
		session.WithLogger(log.Logger),
	}
	if cfg.Session.StrictMoves {
		opts = append(opts, session.WithReferee(rules.NewStandard()))
	}

	if err := newREPL(session.New(opts...), os.Stdin, os.Stdout).Run(); err != nil {
		log.Fatal().Err(err).Msg("Input failed")
	}
}
