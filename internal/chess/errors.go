package chess

import "errors"

var (
	// ErrMalformedDescriptor is returned when a position descriptor does not
	// follow the FEN grammar.
	ErrMalformedDescriptor = errors.New("malformed position descriptor")

	// ErrIndexOutOfRange is returned when history navigation leaves [0, length).
	ErrIndexOutOfRange = errors.New("history index out of range")

	ErrInvalidSquare = errors.New("invalid square")
)
