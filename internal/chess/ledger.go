package chess

import "fmt"

// Mode controls how ledger entries are reconstructed and whether moves may be
// made from them.
type Mode int

const (
	// ModeGame treats every entry before the latest as a read-only snapshot.
	ModeGame Mode = iota
	// ModeAnalysis lets any entry become the base for a new move, rewriting
	// the history that follows it.
	ModeAnalysis
)

func (m Mode) String() string {
	if m == ModeAnalysis {
		return "analysis"
	}
	return "game"
}

const (
	repetitionClaimThreshold = 2
	fiftyMoveClaimPlies      = 100
)

type DrawReason int

const (
	NoDrawReason DrawReason = iota
	DrawByRepetition
	DrawByFiftyMoveRule
)

func (r DrawReason) String() string {
	switch r {
	case DrawByRepetition:
		return "repetition"
	case DrawByFiftyMoveRule:
		return "50 move rule"
	default:
		return "none"
	}
}

// DrawClaim reports whether a position entitles the player to claim a draw.
type DrawClaim struct {
	Eligible bool
	Reason   DrawReason
}

// DrawClaimFor evaluates draw-claim eligibility of a recorded position.
// Repetition takes precedence when both thresholds are met.
func DrawClaimFor(p Position) DrawClaim {
	switch {
	case p.RepetitionCount > repetitionClaimThreshold:
		return DrawClaim{Eligible: true, Reason: DrawByRepetition}
	case p.HalfmoveClock >= fiftyMoveClaimPlies:
		return DrawClaim{Eligible: true, Reason: DrawByFiftyMoveRule}
	default:
		return DrawClaim{}
	}
}

// HistoryEntry is a position reached during the game and the notation of the
// move that produced it. The initial entry has no notation.
type HistoryEntry struct {
	Position Position
	Notation string
}

// Ledger is the ordered history of a game with a navigation cursor. Entries
// are stored and returned by value, so later changes to a live position never
// reach the history.
type Ledger struct {
	entries []HistoryEntry
	current int

	startFEN        string
	startRepetition int
	startHalfmove   int
}

func NewLedger(start Position) *Ledger {
	l := &Ledger{}
	l.Reset(start)
	return l
}

// Reset discards the whole history and starts over from start.
func (l *Ledger) Reset(start Position) {
	l.entries = []HistoryEntry{{Position: start}}
	l.current = 0
	l.startFEN = Encode(start)
	l.startRepetition = start.RepetitionCount
	l.startHalfmove = start.HalfmoveClock
}

func (l *Ledger) Len() int {
	return len(l.entries)
}

func (l *Ledger) CurrentIndex() int {
	return l.current
}

func (l *Ledger) IsLatest() bool {
	return l.current == len(l.entries)-1
}

// StartFEN is the descriptor captured when the ledger was last reset.
func (l *Ledger) StartFEN() string {
	return l.startFEN
}

// RecordMove appends the position reached by a move. Entries after the cursor
// are discarded first. The stored position's RepetitionCount is set to the
// number of remaining entries with the same placement, and the returned
// claim is evaluated on that stored position.
func (l *Ledger) RecordMove(p Position, notation string) (HistoryEntry, DrawClaim) {
	l.entries = l.entries[:l.current+1]

	repeats := 0
	for _, e := range l.entries {
		if e.Position.SamePlacement(p) {
			repeats++
		}
	}
	p.RepetitionCount = repeats

	entry := HistoryEntry{Position: p, Notation: notation}
	l.entries = append(l.entries, entry)
	l.current = len(l.entries) - 1
	return entry, DrawClaimFor(p)
}

// NavigateTo moves the cursor to index and returns the entry stored there.
func (l *Ledger) NavigateTo(index int) (HistoryEntry, error) {
	if err := l.checkIndex(index); err != nil {
		return HistoryEntry{}, err
	}
	l.current = index
	return l.entries[index], nil
}

// Entry returns the entry at index without moving the cursor.
func (l *Ledger) Entry(index int) (HistoryEntry, error) {
	if err := l.checkIndex(index); err != nil {
		return HistoryEntry{}, err
	}
	return l.entries[index], nil
}

func (l *Ledger) Entries() []HistoryEntry {
	out := make([]HistoryEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Moves returns the notation of every recorded move in order.
func (l *Ledger) Moves() []string {
	moves := make([]string, 0, len(l.entries)-1)
	for _, e := range l.entries[1:] {
		moves = append(moves, e.Notation)
	}
	return moves
}

// Reconstruct returns the position a board should load to continue from
// index. In analysis mode the initial position is rebuilt from the captured
// start descriptor and counters rather than the stored snapshot.
func (l *Ledger) Reconstruct(index int, mode Mode) (Position, error) {
	if err := l.checkIndex(index); err != nil {
		return Position{}, err
	}
	if mode != ModeAnalysis || index != 0 {
		return l.entries[index].Position, nil
	}

	p, err := Decode(l.startFEN)
	if err != nil {
		return Position{}, fmt.Errorf("rebuilding start position: %w", err)
	}
	p.RepetitionCount = l.startRepetition
	p.HalfmoveClock = l.startHalfmove
	return p, nil
}

// CanMoveAt reports whether a new move may be recorded from index.
func (l *Ledger) CanMoveAt(index int, mode Mode) bool {
	if index < 0 || index >= len(l.entries) {
		return false
	}
	return mode == ModeAnalysis || index == len(l.entries)-1
}

func (l *Ledger) checkIndex(index int) error {
	if index < 0 || index >= len(l.entries) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(l.entries))
	}
	return nil
}
