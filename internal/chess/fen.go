package chess

import (
	"fmt"
	"strconv"
	"strings"
)

// StartingFEN is the descriptor of the standard initial position.
const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var kindLetters = map[Kind]byte{
	King:   'K',
	Queen:  'Q',
	Rook:   'R',
	Bishop: 'B',
	Knight: 'N',
	Pawn:   'P',
}

var letterPieces = map[byte]Piece{
	'K': {White, King}, 'Q': {White, Queen}, 'R': {White, Rook},
	'B': {White, Bishop}, 'N': {White, Knight}, 'P': {White, Pawn},
	'k': {Black, King}, 'q': {Black, Queen}, 'r': {Black, Rook},
	'b': {Black, Bishop}, 'n': {Black, Knight}, 'p': {Black, Pawn},
}

// castlingOrder is the fixed order rights appear in the castling field.
var castlingOrder = []struct {
	letter byte
	right  CastlingRights
}{
	{'K', WhiteKingside},
	{'Q', WhiteQueenside},
	{'k', BlackKingside},
	{'q', BlackQueenside},
}

// NewPosition returns the standard initial position.
func NewPosition() Position {
	p, err := Decode(StartingFEN)
	if err != nil {
		panic(fmt.Sprintf("starting FEN does not decode: %v", err))
	}
	return p
}

// ParseSquare converts a square name such as "e4" to a Square.
func ParseSquare(name string) (Square, error) {
	if len(name) != 2 {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, name)
	}
	file := strings.IndexByte(files, name[0])
	rank := strings.IndexByte(ranks, name[1])
	if file < 0 || rank < 0 {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, name)
	}
	return Square{File: file, Rank: rank}, nil
}

// Decode parses a FEN descriptor into a Position. RepetitionCount is always 0
// because the descriptor carries no history.
func Decode(descriptor string) (Position, error) {
	fields := strings.Split(strings.TrimSpace(descriptor), " ")
	if len(fields) != 6 {
		return Position{}, fmt.Errorf("%w: expected 6 fields, got %d", ErrMalformedDescriptor, len(fields))
	}

	p := EmptyPosition()
	if err := decodePlacement(&p, fields[0]); err != nil {
		return Position{}, err
	}

	switch fields[1] {
	case "w":
		p.SideToMove = White
	case "b":
		p.SideToMove = Black
	default:
		return Position{}, fmt.Errorf("%w: side to move %q", ErrMalformedDescriptor, fields[1])
	}

	rights, err := decodeCastling(fields[2])
	if err != nil {
		return Position{}, err
	}
	p.Castling = rights

	if fields[3] != "-" {
		sq, err := ParseSquare(fields[3])
		if err != nil {
			return Position{}, fmt.Errorf("%w: en-passant field %q", ErrMalformedDescriptor, fields[3])
		}
		p.EnPassant = sq
	}

	halfmove, err := parseCounter(fields[4])
	if err != nil {
		return Position{}, fmt.Errorf("%w: halfmove clock %q", ErrMalformedDescriptor, fields[4])
	}
	fullmove, err := parseCounter(fields[5])
	if err != nil || fullmove < 1 {
		return Position{}, fmt.Errorf("%w: fullmove number %q", ErrMalformedDescriptor, fields[5])
	}
	p.HalfmoveClock = halfmove
	p.FullmoveNumber = fullmove

	return p, nil
}

func decodePlacement(p *Position, placement string) error {
	rows := strings.Split(placement, "/")
	if len(rows) != 8 {
		return fmt.Errorf("%w: expected 8 ranks, got %d", ErrMalformedDescriptor, len(rows))
	}

	for i, row := range rows {
		rank := 7 - i
		file := 0
		lastDigit := false
		for j := 0; j < len(row); j++ {
			c := row[j]
			if c >= '1' && c <= '8' {
				if lastDigit {
					return fmt.Errorf("%w: adjacent empty-run digits in rank %d", ErrMalformedDescriptor, rank+1)
				}
				file += int(c - '0')
				lastDigit = true
				continue
			}
			lastDigit = false
			piece, ok := letterPieces[c]
			if !ok {
				return fmt.Errorf("%w: unexpected character %q in rank %d", ErrMalformedDescriptor, c, rank+1)
			}
			if file >= 8 {
				return fmt.Errorf("%w: rank %d describes more than 8 squares", ErrMalformedDescriptor, rank+1)
			}
			p.Squares[file][rank] = piece
			file++
		}
		if file != 8 {
			return fmt.Errorf("%w: rank %d describes %d squares", ErrMalformedDescriptor, rank+1, file)
		}
	}
	return nil
}

// parseCounter accepts only unsigned decimal digits so that encoding the
// value reproduces the field.
func parseCounter(field string) (int, error) {
	if field == "" || strings.TrimLeft(field, "0123456789") != "" {
		return 0, strconv.ErrSyntax
	}
	if len(field) > 1 && field[0] == '0' {
		return 0, strconv.ErrSyntax
	}
	return strconv.Atoi(field)
}

func decodeCastling(field string) (CastlingRights, error) {
	if field == "-" {
		return NoCastling, nil
	}

	rights := NoCastling
	next := 0
	for i := 0; i < len(field); i++ {
		for next < len(castlingOrder) && castlingOrder[next].letter != field[i] {
			next++
		}
		if next == len(castlingOrder) {
			return NoCastling, fmt.Errorf("%w: castling field %q", ErrMalformedDescriptor, field)
		}
		rights |= castlingOrder[next].right
		next++
	}
	if rights == NoCastling {
		return NoCastling, fmt.Errorf("%w: empty castling field", ErrMalformedDescriptor)
	}
	return rights, nil
}

// Encode renders the placement and the five state fields of p as a FEN
// descriptor. RepetitionCount is not part of the descriptor.
func Encode(p Position) string {
	var sb strings.Builder

	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			piece := p.Squares[file][rank]
			if piece.IsEmpty() {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(piece.Letter())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	if p.SideToMove == Black {
		sb.WriteByte('b')
	} else {
		sb.WriteByte('w')
	}

	sb.WriteByte(' ')
	if p.Castling == NoCastling {
		sb.WriteByte('-')
	} else {
		for _, c := range castlingOrder {
			if p.Castling.Has(c.right) {
				sb.WriteByte(c.letter)
			}
		}
	}

	sb.WriteByte(' ')
	sb.WriteString(p.EnPassant.String())

	fmt.Fprintf(&sb, " %d %d", p.HalfmoveClock, p.FullmoveNumber)
	return sb.String()
}
