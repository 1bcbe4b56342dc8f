package chess

// Board holds the live position of a game and the primitives that mutate it.
// Board performs no move legality checks beyond IsOccupationConflict; callers
// decide whether a move is acceptable before applying it.
//
// Mutating primitives return the squares whose occupant changed so a renderer
// can refresh exactly those.
type Board struct {
	pos Position
}

func NewBoard(p Position) *Board {
	return &Board{pos: p}
}

// Position returns a copy of the live position.
func (b *Board) Position() Position {
	return b.pos
}

// Load replaces the live position wholesale with a copy of p.
func (b *Board) Load(p Position) {
	b.pos = p
}

func (b *Board) PieceAt(sq Square) Piece {
	return b.pos.At(sq)
}

func (b *Board) SideToMove() Color {
	return b.pos.SideToMove
}

// ApplyMove relocates whatever is on from to to and clears from. It always
// succeeds for valid squares. Moving a square onto itself changes nothing.
func (b *Board) ApplyMove(from, to Square) []Square {
	if from == to {
		return nil
	}
	b.pos.Squares[to.File][to.Rank] = b.pos.At(from)
	b.pos.Squares[from.File][from.Rank] = NoPiece
	return []Square{from, to}
}

// IsOccupationConflict reports whether moving from -> to must be rejected:
// the squares are equal, or to holds a piece of the same color as from.
func (b *Board) IsOccupationConflict(from, to Square) bool {
	if from == to {
		return true
	}
	target := b.pos.At(to)
	if target.IsEmpty() {
		return false
	}
	return target.Color == b.pos.At(from).Color
}

// UpdateHalfmoveClock must run before ApplyMove: it resets the clock on a
// capture or pawn move and increments it otherwise.
func (b *Board) UpdateHalfmoveClock(from, to Square) {
	if !b.pos.At(to).IsEmpty() || b.pos.At(from).Kind == Pawn {
		b.pos.HalfmoveClock = 0
		return
	}
	b.pos.HalfmoveClock++
}

// UpdateEnPassant must run before ApplyMove. A pawn advancing two ranks on
// its file leaves the skipped square as the target; any other move clears it.
func (b *Board) UpdateEnPassant(from, to Square) {
	b.pos.EnPassant = NoSquare
	if b.pos.At(from).Kind != Pawn || from.File != to.File {
		return
	}
	if d := to.Rank - from.Rank; d == 2 || d == -2 {
		b.pos.EnPassant = Square{File: from.File, Rank: (from.Rank + to.Rank) / 2}
	}
}

// RevokeCastlingRights drops the rights a move touching a king or rook home
// square invalidates.
func (b *Board) RevokeCastlingRights(from, to Square) {
	for _, sq := range []Square{from, to} {
		for _, color := range []Color{White, Black} {
			if sq.Rank != color.HomeRank() {
				continue
			}
			switch sq.File {
			case 4:
				b.pos.Castling &^= CastlingRight(color, Kingside) | CastlingRight(color, Queenside)
			case 7:
				b.pos.Castling &^= CastlingRight(color, Kingside)
			case 0:
				b.pos.Castling &^= CastlingRight(color, Queenside)
			}
		}
	}
}

// AdvanceSideToMove passes the move to the other side. The fullmove number
// increments after black moves.
func (b *Board) AdvanceSideToMove() {
	if b.pos.SideToMove == Black {
		b.pos.SideToMove = White
		b.pos.FullmoveNumber++
		return
	}
	b.pos.SideToMove = Black
}

func (b *Board) CanCastle(color Color, side Side) bool {
	return b.pos.Castling.Has(CastlingRight(color, side))
}

// PerformCastling moves the king and rook of color to their castled squares
// on the home rank and removes both of the color's castling rights. The
// castle counts as exactly one non-capture ply on the halfmove clock; the
// generic clock update is not applied to castling.
func (b *Board) PerformCastling(color Color, side Side) []Square {
	rank := color.HomeRank()
	rookFile, rookTarget := 7, 5
	if side == Queenside {
		rookFile, rookTarget = 0, 3
	}

	changed := b.ApplyMove(CastlingSquares(color, side))
	changed = append(changed, b.ApplyMove(Square{File: rookFile, Rank: rank}, Square{File: rookTarget, Rank: rank})...)

	b.pos.Castling &^= CastlingRight(color, Kingside) | CastlingRight(color, Queenside)
	b.pos.EnPassant = NoSquare
	b.pos.HalfmoveClock++
	return changed
}

// CastlingSquares returns the king's origin and destination for a castle.
func CastlingSquares(color Color, side Side) (from, to Square) {
	rank := color.HomeRank()
	if side == Queenside {
		return Square{File: 4, Rank: rank}, Square{File: 2, Rank: rank}
	}
	return Square{File: 4, Rank: rank}, Square{File: 6, Rank: rank}
}
