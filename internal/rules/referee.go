// Package rules provides optional move-legality referees for a session. The
// board model itself never enforces chess movement rules; a referee is
// consulted before a move is applied when strict moves are enabled.
package rules

import (
	"fmt"

	"github.com/justinabrahms/chessboard/internal/chess"
	notnil "github.com/notnil/chess"
)

// Referee decides whether a move is acceptable in position p. Allows covers
// plain relocations from -> to; AllowsCastle covers castling.
type Referee interface {
	Allows(p chess.Position, from, to chess.Square) (bool, error)
	AllowsCastle(p chess.Position, color chess.Color, side chess.Side) (bool, error)
}

// Adjudicator is implemented by referees that can tell when a position has
// ended the game. Adjudicate returns an empty string while play continues.
type Adjudicator interface {
	Adjudicate(p chess.Position) (string, error)
}

// Permissive accepts every move.
type Permissive struct{}

func (Permissive) Allows(chess.Position, chess.Square, chess.Square) (bool, error) {
	return true, nil
}

func (Permissive) AllowsCastle(chess.Position, chess.Color, chess.Side) (bool, error) {
	return true, nil
}

// Standard checks moves against the full rules of chess using notnil/chess.
//
// The board only knows how to relocate a piece, so Allows rejects moves that
// need more than that: castling by king move, en passant and promotion.
// Castling goes through AllowsCastle instead.
type Standard struct{}

func NewStandard() *Standard {
	return &Standard{}
}

func (r *Standard) Allows(p chess.Position, from, to chess.Square) (bool, error) {
	s1, s2 := toNotnil(from), toNotnil(to)
	if s1 == notnil.NoSquare || s2 == notnil.NoSquare {
		return false, fmt.Errorf("%w: %v -> %v", chess.ErrInvalidSquare, from, to)
	}

	game, err := r.load(p)
	if err != nil {
		return false, err
	}

	for _, vm := range game.ValidMoves() {
		if vm.S1() == s1 && vm.S2() == s2 && isRelocation(vm) {
			return true, nil
		}
	}
	return false, nil
}

func (r *Standard) AllowsCastle(p chess.Position, color chess.Color, side chess.Side) (bool, error) {
	game, err := r.load(p)
	if err != nil {
		return false, err
	}
	if p.SideToMove != color {
		return false, nil
	}

	tag := notnil.KingSideCastle
	if side == chess.Queenside {
		tag = notnil.QueenSideCastle
	}
	for _, vm := range game.ValidMoves() {
		if vm.HasTag(tag) {
			return true, nil
		}
	}
	return false, nil
}

// Adjudicate describes a finished game, for example "Black wins by
// checkmate" or "Draw by stalemate".
func (r *Standard) Adjudicate(p chess.Position) (string, error) {
	game, err := r.load(p)
	if err != nil {
		return "", err
	}

	switch game.Outcome() {
	case notnil.WhiteWon:
		return "White wins by " + methodText(game.Method()), nil
	case notnil.BlackWon:
		return "Black wins by " + methodText(game.Method()), nil
	case notnil.Draw:
		return "Draw by " + methodText(game.Method()), nil
	}
	return "", nil
}

func (r *Standard) load(p chess.Position) (*notnil.Game, error) {
	fenFunc, err := notnil.FEN(chess.Encode(p))
	if err != nil {
		return nil, fmt.Errorf("invalid FEN: %w", err)
	}
	return notnil.NewGame(fenFunc), nil
}

func isRelocation(m *notnil.Move) bool {
	switch {
	case m.HasTag(notnil.KingSideCastle), m.HasTag(notnil.QueenSideCastle):
		return false
	case m.HasTag(notnil.EnPassant):
		return false
	case m.Promo() != notnil.NoPieceType:
		return false
	}
	return true
}

func methodText(m notnil.Method) string {
	switch m {
	case notnil.Checkmate:
		return "checkmate"
	case notnil.Stalemate:
		return "stalemate"
	case notnil.InsufficientMaterial:
		return "insufficient material"
	case notnil.FivefoldRepetition:
		return "fivefold repetition"
	case notnil.SeventyFiveMoveRule:
		return "75 move rule"
	case notnil.ThreefoldRepetition:
		return "threefold repetition"
	case notnil.FiftyMoveRule:
		return "50 move rule"
	}
	return "adjudication"
}

func toNotnil(sq chess.Square) notnil.Square {
	if !sq.Valid() {
		return notnil.NoSquare
	}
	return notnil.Square(sq.Rank*8 + sq.File)
}
