package chess

import "fmt"

type Color int

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

// Other returns the opposing color.
func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

// HomeRank is the rank index the color's king and rooks start on.
func (c Color) HomeRank() int {
	if c == White {
		return 0
	}
	return 7
}

type Kind int

const (
	NoKind Kind = iota
	King
	Queen
	Rook
	Bishop
	Knight
	Pawn
)

var kindNames = map[Kind]string{
	NoKind: "none",
	King:   "king",
	Queen:  "queen",
	Rook:   "rook",
	Bishop: "bishop",
	Knight: "knight",
	Pawn:   "pawn",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Piece is a colored chess man. The zero value is NoPiece, the empty square.
type Piece struct {
	Color Color
	Kind  Kind
}

var NoPiece = Piece{}

func (p Piece) IsEmpty() bool {
	return p.Kind == NoKind
}

// Letter returns the descriptor letter for the piece, uppercase for white,
// or 0 for an empty square.
func (p Piece) Letter() byte {
	if p.IsEmpty() {
		return 0
	}
	c := kindLetters[p.Kind]
	if p.Color == Black {
		c += 'a' - 'A'
	}
	return c
}

func (p Piece) String() string {
	if p.IsEmpty() {
		return "empty"
	}
	return p.Color.String() + " " + p.Kind.String()
}

// Square addresses the board by file (0 = a) and rank (0 = 1).
type Square struct {
	File int
	Rank int
}

// NoSquare marks an absent square, such as no en-passant target.
var NoSquare = Square{File: -1, Rank: -1}

const (
	files = "abcdefgh"
	ranks = "12345678"
)

func (s Square) Valid() bool {
	return s.File >= 0 && s.File < 8 && s.Rank >= 0 && s.Rank < 8
}

func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return string([]byte{files[s.File], ranks[s.Rank]})
}

// Flip mirrors the square through the board centre, converting between
// white-origin and black-origin coordinates.
func (s Square) Flip() Square {
	if !s.Valid() {
		return s
	}
	return Square{File: 7 - s.File, Rank: 7 - s.Rank}
}

// AllSquares lists the 64 squares from a1 to h8, rank by rank.
func AllSquares() []Square {
	squares := make([]Square, 0, 64)
	for rank := 0; rank < 8; rank++ {
		for file := 0; file < 8; file++ {
			squares = append(squares, Square{File: file, Rank: rank})
		}
	}
	return squares
}

type Side int

const (
	Kingside Side = iota
	Queenside
)

func (s Side) String() string {
	if s == Queenside {
		return "queenside"
	}
	return "kingside"
}

// CastlingRights is a set of the four independent castling permissions.
type CastlingRights uint8

const (
	WhiteKingside CastlingRights = 1 << iota
	WhiteQueenside
	BlackKingside
	BlackQueenside

	NoCastling  CastlingRights = 0
	AllCastling                = WhiteKingside | WhiteQueenside | BlackKingside | BlackQueenside
)

// CastlingRight returns the single right for color castling on side.
func CastlingRight(color Color, side Side) CastlingRights {
	switch {
	case color == White && side == Kingside:
		return WhiteKingside
	case color == White:
		return WhiteQueenside
	case side == Kingside:
		return BlackKingside
	default:
		return BlackQueenside
	}
}

func (r CastlingRights) Has(right CastlingRights) bool {
	return r&right == right
}

// Position is one complete game state. It holds only arrays and scalars, so
// assigning a Position copies it fully.
type Position struct {
	Squares         [8][8]Piece // [file][rank]
	SideToMove      Color
	Castling        CastlingRights
	EnPassant       Square
	HalfmoveClock   int
	FullmoveNumber  int
	RepetitionCount int
}

// EmptyPosition returns a position with no pieces, white to move and no rights.
func EmptyPosition() Position {
	return Position{
		SideToMove:     White,
		EnPassant:      NoSquare,
		FullmoveNumber: 1,
	}
}

func (p Position) At(sq Square) Piece {
	return p.Squares[sq.File][sq.Rank]
}

// SamePlacement reports whether both positions have identical piece placement.
// Flags and counters are ignored.
func (p Position) SamePlacement(other Position) bool {
	return p.Squares == other.Squares
}
