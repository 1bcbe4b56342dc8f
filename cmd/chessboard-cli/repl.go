package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/justinabrahms/chessboard/internal/chess"
	"github.com/justinabrahms/chessboard/internal/session"
)

const helpText = `Chessboard

USAGE:
    chessboard-cli [OPTIONS]

OPTIONS:
    -h, --help    Show this help message

COMMANDS:
    e2e4            Move the piece on e2 to e4
    select e2       Click a square as shown on screen (two clicks make a move)
    O-O, O-O-O      Castle kingside or queenside
    start, back, forward, latest, goto N
                    Move through the history
    mode game|analysis
    flip            Turn the board around
    resign, draw    Resign, or claim an available draw
    new             Start a new game
    load FEN        Load a position
    save            Print the current position as FEN
    moves           Print the move list
    quit

Configuration is read from config.yaml and CHESSBOARD_* variables, as for
the chessboard server.`

var errQuit = errors.New("quit")

type repl struct {
	session *session.Session
	in      io.Reader
	out     io.Writer
}

func newREPL(s *session.Session, in io.Reader, out io.Writer) *repl {
	return &repl{session: s, in: in, out: out}
}

// Run draws the board and executes one command per input line until quit
// or end of input.
func (r *repl) Run() error {
	r.session.Redraw()

	scanner := bufio.NewScanner(r.in)
	fmt.Fprint(r.out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			err := r.exec(line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintf(r.out, "error: %v\n", err)
			}
		}
		fmt.Fprint(r.out, "> ")
	}
	return scanner.Err()
}

func (r *repl) exec(line string) error {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "quit", "exit":
		return errQuit
	case "help":
		fmt.Fprintln(r.out, helpText)
		return nil
	case chess.KingsideCastleNotation:
		return r.report(r.session.Castle(chess.Kingside))
	case chess.QueensideCastleNotation:
		return r.report(r.session.Castle(chess.Queenside))
	case "select":
		if len(args) != 1 {
			return errors.New("usage: select SQUARE")
		}
		sq, err := chess.ParseSquare(args[0])
		if err != nil {
			return err
		}
		return r.report(r.session.Select(sq))
	case "start":
		return r.session.Start()
	case "back":
		return r.session.Back()
	case "forward":
		return r.session.Forward()
	case "latest":
		return r.session.Latest()
	case "goto":
		if len(args) != 1 {
			return errors.New("usage: goto INDEX")
		}
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid index %q", args[0])
		}
		return r.session.Navigate(index)
	case "mode":
		if len(args) != 1 {
			return errors.New("usage: mode game|analysis")
		}
		switch args[0] {
		case chess.ModeGame.String():
			r.session.SetMode(chess.ModeGame)
		case chess.ModeAnalysis.String():
			r.session.SetMode(chess.ModeAnalysis)
		default:
			return fmt.Errorf("unknown mode %q", args[0])
		}
		return nil
	case "flip":
		r.session.Flip()
		return nil
	case "resign":
		_, err := r.session.Resign()
		return err
	case "draw":
		_, err := r.session.ClaimDraw()
		return err
	case "new":
		r.session.NewGame()
		return nil
	case "load":
		if len(args) == 0 {
			return errors.New("usage: load FEN")
		}
		return r.session.LoadPosition(strings.Join(args, " "))
	case "save":
		fmt.Fprintln(r.out, r.session.SavePosition())
		return nil
	case "moves":
		fmt.Fprintln(r.out, r.session.Transcript())
		return nil
	}

	if len(cmd) == 4 {
		from, errFrom := chess.ParseSquare(cmd[:2])
		to, errTo := chess.ParseSquare(cmd[2:])
		if errFrom == nil && errTo == nil {
			return r.report(r.session.Move(from, to))
		}
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func (r *repl) report(outcome *session.MoveOutcome, err error) error {
	if err != nil {
		return err
	}
	if outcome != nil && outcome.OfferDraw {
		fmt.Fprintf(r.out, "Draw available by %s. Type 'draw' to claim it.\n", outcome.Draw.Reason)
	}
	return nil
}
