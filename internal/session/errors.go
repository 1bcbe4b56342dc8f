package session

import "errors"

var (
	ErrGameOver            = errors.New("game is over")
	ErrReadOnlyHistory     = errors.New("moves can only be made from the latest position in game mode")
	ErrEmptySquare         = errors.New("no piece on origin square")
	ErrNotYourTurn         = errors.New("piece does not belong to the side to move")
	ErrOccupationConflict  = errors.New("destination is the origin or holds a piece of the same color")
	ErrIllegalMove         = errors.New("move rejected by referee")
	ErrCastlingUnavailable = errors.New("castling right not available")
	ErrNoDrawClaim         = errors.New("no draw claim available")
)
