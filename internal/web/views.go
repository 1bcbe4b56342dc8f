package web

import (
	"github.com/justinabrahms/chessboard/internal/chess"
	"github.com/justinabrahms/chessboard/internal/session"
)

// ViewResponse is the JSON shape of a session snapshot. Board holds every
// square by name, mapped to its descriptor letter or "" when empty.
type ViewResponse struct {
	SessionID  string            `json:"sessionId"`
	FEN        string            `json:"fen"`
	Board      map[string]string `json:"board"`
	SideToMove string            `json:"sideToMove"`
	Flipped    bool              `json:"flipped"`
	Mode       string            `json:"mode"`
	Index      int               `json:"index"`
	Length     int               `json:"length"`
	CanMove    bool              `json:"canMove"`
	Selected   string            `json:"selected,omitempty"`
	Result     string            `json:"result,omitempty"`
	DrawClaim  bool              `json:"drawClaim"`
	DrawReason string            `json:"drawReason,omitempty"`
	Transcript string            `json:"transcript"`
}

type MoveResponse struct {
	Moved      bool         `json:"moved"`
	Notation   string       `json:"notation,omitempty"`
	FEN        string       `json:"fen,omitempty"`
	Index      int          `json:"index,omitempty"`
	DrawClaim  bool         `json:"drawClaim"`
	DrawReason string       `json:"drawReason,omitempty"`
	OfferDraw  bool         `json:"offerDraw"`
	View       ViewResponse `json:"view"`
}

func newViewResponse(id string, v session.View) ViewResponse {
	board := make(map[string]string, 64)
	for _, sq := range chess.AllSquares() {
		var letter string
		if c := v.Position.At(sq).Letter(); c != 0 {
			letter = string(c)
		}
		board[sq.String()] = letter
	}

	resp := ViewResponse{
		SessionID:  id,
		FEN:        v.FEN,
		Board:      board,
		SideToMove: v.Position.SideToMove.String(),
		Flipped:    v.Flipped,
		Mode:       v.Mode.String(),
		Index:      v.Index,
		Length:     v.Length,
		CanMove:    v.CanMove,
		Result:     v.Result,
		DrawClaim:  v.DrawClaim.Eligible,
		Transcript: v.Transcript,
	}
	if v.Selected.Valid() {
		resp.Selected = v.Selected.String()
	}
	if v.DrawClaim.Eligible {
		resp.DrawReason = v.DrawClaim.Reason.String()
	}
	return resp
}

// newMoveResponse wraps a recorded move. A nil outcome is a selection-only
// click and reports Moved false.
func newMoveResponse(id string, outcome *session.MoveOutcome, v session.View) MoveResponse {
	resp := MoveResponse{View: newViewResponse(id, v)}
	if outcome == nil {
		return resp
	}
	resp.Moved = true
	resp.Notation = outcome.Notation
	resp.FEN = outcome.FEN
	resp.Index = outcome.Index
	resp.DrawClaim = outcome.Draw.Eligible
	resp.OfferDraw = outcome.OfferDraw
	if outcome.Draw.Eligible {
		resp.DrawReason = outcome.Draw.Reason.String()
	}
	return resp
}

func squareNames(squares []chess.Square) []string {
	names := make([]string, 0, len(squares))
	for _, sq := range squares {
		names = append(names, sq.String())
	}
	return names
}
