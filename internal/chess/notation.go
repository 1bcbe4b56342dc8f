package chess

import (
	"fmt"
	"strings"
)

const (
	KingsideCastleNotation  = "O-O"
	QueensideCastleNotation = "O-O-O"
)

// MoveNotation renders a move as origin and destination square names in
// white-origin coordinates, e.g. "e2e4".
func MoveNotation(from, to Square) string {
	return from.String() + to.String()
}

func CastleNotation(side Side) string {
	if side == Queenside {
		return QueensideCastleNotation
	}
	return KingsideCastleNotation
}

// FormatMoveList renders moves as a numbered move list such as
// "1. e2e4 e7e5 2. g1f3". A game started with black to move begins "1...".
func FormatMoveList(first Color, moves []string) string {
	var sb strings.Builder
	if first == White {
		sb.WriteString("1.")
	} else {
		sb.WriteString("1...")
	}

	mover, number := first, 1
	for i, move := range moves {
		if mover == White && i > 0 {
			number++
			fmt.Fprintf(&sb, " %d.", number)
		}
		sb.WriteString(" ")
		sb.WriteString(move)
		mover = mover.Other()
	}
	return sb.String()
}
