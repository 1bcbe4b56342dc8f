// Package textview draws a session as text on a terminal.
package textview

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/justinabrahms/chessboard/internal/chess"
	"github.com/justinabrahms/chessboard/internal/session"
)

// Renderer implements session.Renderer by writing the whole board to out on
// every change. Squares passed to Refresh are highlighted until the next
// redraw.
type Renderer struct {
	out io.Writer

	light     *color.Color
	dark      *color.Color
	highlight *color.Color
	selected  *color.Color
	status    *color.Color

	highlights map[chess.Square]bool
}

func New(out io.Writer) *Renderer {
	return &Renderer{
		out:        out,
		light:      color.New(color.BgHiWhite, color.FgBlack),
		dark:       color.New(color.BgHiBlack, color.FgWhite),
		highlight:  color.New(color.BgYellow, color.FgBlack),
		selected:   color.New(color.BgGreen, color.FgBlack),
		status:     color.New(color.FgCyan),
		highlights: make(map[chess.Square]bool),
	}
}

func (r *Renderer) Redraw(v session.View) {
	r.highlights = make(map[chess.Square]bool)
	r.draw(v)
}

func (r *Renderer) Refresh(v session.View, squares []chess.Square) {
	r.highlights = make(map[chess.Square]bool, len(squares))
	for _, sq := range squares {
		r.highlights[sq] = true
	}
	r.draw(v)
}

func (r *Renderer) draw(v session.View) {
	var b strings.Builder

	// Step through the display rows starting with the top one
	for row := 0; row < 8; row++ {
		rank := 7 - row
		if v.Flipped {
			rank = row
		}
		fmt.Fprintf(&b, "%d ", rank+1)

		for col := 0; col < 8; col++ {
			file := col
			if v.Flipped {
				file = 7 - col
			}
			sq := chess.Square{File: file, Rank: rank}
			b.WriteString(r.cellColor(sq, v).Sprint(" " + pieceText(v.Position.At(sq)) + " "))
		}
		b.WriteByte('\n')
	}

	b.WriteString("  ")
	for col := 0; col < 8; col++ {
		file := col
		if v.Flipped {
			file = 7 - col
		}
		fmt.Fprintf(&b, " %c ", 'a'+file)
	}
	b.WriteByte('\n')

	r.writeStatus(&b, v)
	_, _ = io.WriteString(r.out, b.String())
}

func (r *Renderer) writeStatus(b *strings.Builder, v session.View) {
	fmt.Fprintf(b, "%s to move | %s mode | position %d of %d\n",
		v.Position.SideToMove, v.Mode, v.Index, v.Length-1)
	if v.Result != "" {
		b.WriteString(r.status.Sprint(v.Result))
		b.WriteByte('\n')
	} else if v.DrawClaim.Eligible {
		b.WriteString(r.status.Sprintf("Draw available: %s", v.DrawClaim.Reason))
		b.WriteByte('\n')
	}
	if v.Length > 1 {
		b.WriteString(v.Transcript)
		b.WriteByte('\n')
	}
}

func (r *Renderer) cellColor(sq chess.Square, v session.View) *color.Color {
	switch {
	case sq == v.Selected:
		return r.selected
	case r.highlights[sq]:
		return r.highlight
	case (sq.File+sq.Rank)%2 == 0:
		return r.dark
	default:
		return r.light
	}
}

func pieceText(p chess.Piece) string {
	if p.IsEmpty() {
		return "."
	}
	return string(p.Letter())
}
