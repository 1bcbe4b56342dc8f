// Package session ties one board, its history ledger and a renderer into a
// single game session. A Session is not safe for concurrent use; callers that
// share one across goroutines must serialise access.
package session

import (
	"fmt"

	"github.com/justinabrahms/chessboard/internal/chess"
	"github.com/justinabrahms/chessboard/internal/rules"
	"github.com/rs/zerolog"
)

// Renderer is notified after every change to the session. Refresh lists the
// squares whose occupant changed; Redraw asks for the whole board.
type Renderer interface {
	Redraw(v View)
	Refresh(v View, squares []chess.Square)
}

type nopRenderer struct{}

func (nopRenderer) Redraw(View)                 {}
func (nopRenderer) Refresh(View, []chess.Square) {}

// View is a copy of the session state handed to renderers and adapters.
type View struct {
	Position   chess.Position
	FEN        string
	Flipped    bool
	Mode       chess.Mode
	Index      int
	Length     int
	CanMove    bool
	Selected   chess.Square
	Result     string
	DrawClaim  chess.DrawClaim
	Transcript string
}

// MoveOutcome describes a move that was recorded.
type MoveOutcome struct {
	Notation string
	FEN      string
	Index    int
	Draw     chess.DrawClaim
	// OfferDraw is set when a claim became available on this ply and was not
	// already available on the previous one.
	OfferDraw bool
}

type Session struct {
	board    *chess.Board
	ledger   *chess.Ledger
	renderer Renderer
	referee  rules.Referee
	log      zerolog.Logger

	mode     chess.Mode
	flipped  bool
	selected chess.Square
	result   string
	claim    chess.DrawClaim
}

type Option func(*Session)

// WithStartPosition sets the position the session starts from.
func WithStartPosition(p chess.Position) Option {
	return func(s *Session) {
		s.board.Load(p)
		s.ledger.Reset(p)
	}
}

func WithRenderer(r Renderer) Option {
	return func(s *Session) {
		s.renderer = r
	}
}

func WithReferee(r rules.Referee) Option {
	return func(s *Session) {
		s.referee = r
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) {
		s.log = l
	}
}

func WithMode(m chess.Mode) Option {
	return func(s *Session) {
		s.mode = m
	}
}

func New(opts ...Option) *Session {
	start := chess.NewPosition()
	s := &Session{
		board:    chess.NewBoard(start),
		ledger:   chess.NewLedger(start),
		renderer: nopRenderer{},
		referee:  rules.Permissive{},
		log:      zerolog.Nop(),
		selected: chess.NoSquare,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// View returns a copy of the current session state.
func (s *Session) View() View {
	pos := s.board.Position()
	return View{
		Position:   pos,
		FEN:        chess.Encode(pos),
		Flipped:    s.flipped,
		Mode:       s.mode,
		Index:      s.ledger.CurrentIndex(),
		Length:     s.ledger.Len(),
		CanMove:    s.canMove(),
		Selected:   s.selected,
		Result:     s.result,
		DrawClaim:  s.claim,
		Transcript: s.Transcript(),
	}
}

func (s *Session) History() []chess.HistoryEntry {
	return s.ledger.Entries()
}

// Transcript renders every recorded move as a numbered move list.
func (s *Session) Transcript() string {
	first, err := s.ledger.Entry(0)
	if err != nil {
		return ""
	}
	return chess.FormatMoveList(first.Position.SideToMove, s.ledger.Moves())
}

func (s *Session) canMove() bool {
	return s.result == "" && s.ledger.CanMoveAt(s.ledger.CurrentIndex(), s.mode)
}

func (s *Session) checkCanMove() error {
	if s.result != "" {
		return ErrGameOver
	}
	if !s.ledger.CanMoveAt(s.ledger.CurrentIndex(), s.mode) {
		return ErrReadOnlyHistory
	}
	return nil
}

// absolute converts a display square to white-origin coordinates.
func (s *Session) absolute(display chess.Square) chess.Square {
	if s.flipped {
		return display.Flip()
	}
	return display
}

// Select handles one click on a display square. The first click picks up a
// piece of the side to move; the second click moves it. A second click that
// lands on the origin or on a piece of the same color drops the selection and
// returns ErrOccupationConflict. A nil outcome with a nil error means the
// click only changed the selection.
func (s *Session) Select(display chess.Square) (*MoveOutcome, error) {
	if !display.Valid() {
		return nil, fmt.Errorf("%w: %v", chess.ErrInvalidSquare, display)
	}
	if err := s.checkCanMove(); err != nil {
		return nil, err
	}

	sq := s.absolute(display)
	if s.selected == chess.NoSquare {
		piece := s.board.PieceAt(sq)
		if !piece.IsEmpty() && piece.Color == s.board.SideToMove() {
			s.selected = sq
			s.log.Debug().Str("square", sq.String()).Msg("Square selected")
			s.renderer.Redraw(s.View())
		}
		return nil, nil
	}

	from := s.selected
	s.selected = chess.NoSquare
	if s.board.IsOccupationConflict(from, sq) {
		s.renderer.Redraw(s.View())
		return nil, ErrOccupationConflict
	}
	return s.Move(from, sq)
}

// Move applies from -> to in white-origin coordinates for the side to move.
func (s *Session) Move(from, to chess.Square) (*MoveOutcome, error) {
	if !from.Valid() || !to.Valid() {
		return nil, fmt.Errorf("%w: %v -> %v", chess.ErrInvalidSquare, from, to)
	}
	if err := s.checkCanMove(); err != nil {
		return nil, err
	}

	piece := s.board.PieceAt(from)
	if piece.IsEmpty() {
		return nil, ErrEmptySquare
	}
	if piece.Color != s.board.SideToMove() {
		return nil, ErrNotYourTurn
	}
	if s.board.IsOccupationConflict(from, to) {
		return nil, ErrOccupationConflict
	}
	if err := s.consultReferee(from, to); err != nil {
		return nil, err
	}

	s.board.UpdateHalfmoveClock(from, to)
	s.board.UpdateEnPassant(from, to)
	s.board.RevokeCastlingRights(from, to)
	changed := s.board.ApplyMove(from, to)
	s.board.AdvanceSideToMove()

	return s.finishTurn(chess.MoveNotation(from, to), changed), nil
}

// Castle castles the side to move on the given side of the board.
func (s *Session) Castle(side chess.Side) (*MoveOutcome, error) {
	if err := s.checkCanMove(); err != nil {
		return nil, err
	}

	color := s.board.SideToMove()
	if !s.board.CanCastle(color, side) {
		return nil, fmt.Errorf("%w: %s %s", ErrCastlingUnavailable, color, side)
	}
	ok, err := s.referee.AllowsCastle(s.board.Position(), color, side)
	if err != nil {
		return nil, fmt.Errorf("consulting referee: %w", err)
	}
	if !ok {
		s.log.Debug().Str("side", side.String()).Msg("Referee rejected castling")
		return nil, fmt.Errorf("%w: %s", ErrIllegalMove, chess.CastleNotation(side))
	}

	changed := s.board.PerformCastling(color, side)
	s.board.AdvanceSideToMove()

	return s.finishTurn(chess.CastleNotation(side), changed), nil
}

func (s *Session) consultReferee(from, to chess.Square) error {
	ok, err := s.referee.Allows(s.board.Position(), from, to)
	if err != nil {
		return fmt.Errorf("consulting referee: %w", err)
	}
	if !ok {
		s.log.Debug().Str("from", from.String()).Str("to", to.String()).Msg("Referee rejected move")
		return fmt.Errorf("%w: %s", ErrIllegalMove, chess.MoveNotation(from, to))
	}
	return nil
}

func (s *Session) finishTurn(notation string, changed []chess.Square) *MoveOutcome {
	s.selected = chess.NoSquare

	entry, claim := s.ledger.RecordMove(s.board.Position(), notation)
	s.board.Load(entry.Position)

	offer := claim.Eligible && !s.claim.Eligible
	s.claim = claim
	s.adjudicate(entry.Position)

	outcome := &MoveOutcome{
		Notation:  notation,
		FEN:       chess.Encode(entry.Position),
		Index:     s.ledger.CurrentIndex(),
		Draw:      claim,
		OfferDraw: offer,
	}

	s.log.Info().
		Str("notation", notation).
		Str("fen", outcome.FEN).
		Int("index", outcome.Index).
		Int("repetition", entry.Position.RepetitionCount).
		Bool("drawClaim", claim.Eligible).
		Msg("Move recorded")

	s.renderer.Refresh(s.View(), changed)
	return outcome
}

// adjudicate ends the game when the referee reports that pos is decided.
func (s *Session) adjudicate(pos chess.Position) {
	adj, ok := s.referee.(rules.Adjudicator)
	if !ok {
		return
	}
	result, err := adj.Adjudicate(pos)
	if err != nil {
		s.log.Warn().Err(err).Msg("Adjudication failed")
		return
	}
	if result != "" {
		s.result = result
		s.log.Info().Str("result", result).Msg("Game adjudicated")
	}
}

// Navigate moves the history cursor to index and loads that position as the
// live board.
func (s *Session) Navigate(index int) error {
	if _, err := s.ledger.Entry(index); err != nil {
		return err
	}
	pos, err := s.ledger.Reconstruct(index, s.mode)
	if err != nil {
		return err
	}
	if _, err := s.ledger.NavigateTo(index); err != nil {
		return err
	}

	s.board.Load(pos)
	s.selected = chess.NoSquare
	s.claim = chess.DrawClaim{}
	if index > 0 {
		s.claim = chess.DrawClaimFor(pos)
	}

	s.log.Debug().Int("index", index).Str("mode", s.mode.String()).Msg("Navigated history")
	s.renderer.Redraw(s.View())
	return nil
}

func (s *Session) Start() error {
	return s.Navigate(0)
}

func (s *Session) Back() error {
	return s.Navigate(s.ledger.CurrentIndex() - 1)
}

func (s *Session) Forward() error {
	return s.Navigate(s.ledger.CurrentIndex() + 1)
}

func (s *Session) Latest() error {
	return s.Navigate(s.ledger.Len() - 1)
}

func (s *Session) Mode() chess.Mode {
	return s.mode
}

func (s *Session) SetMode(m chess.Mode) {
	if s.mode == m {
		return
	}
	s.mode = m
	s.selected = chess.NoSquare
	s.log.Info().Str("mode", m.String()).Msg("Mode changed")
	s.renderer.Redraw(s.View())
}

// Flip mirrors the display orientation. Moves and notation keep using
// white-origin coordinates.
func (s *Session) Flip() {
	s.flipped = !s.flipped
	s.selected = chess.NoSquare
	s.renderer.Redraw(s.View())
}

// Redraw hands the current view to the renderer.
func (s *Session) Redraw() {
	s.renderer.Redraw(s.View())
}

// Resign ends the game in favour of the side not to move.
func (s *Session) Resign() (string, error) {
	if s.result != "" {
		return "", ErrGameOver
	}
	winner := s.board.SideToMove().Other()
	s.result = fmt.Sprintf("%s wins by resignation", capitalize(winner.String()))
	s.log.Info().Str("result", s.result).Msg("Game resigned")
	s.renderer.Redraw(s.View())
	return s.result, nil
}

// ClaimDraw ends the game as a draw if the last recorded ply made a claim
// available. Claims are only taken from a position the player can move from.
func (s *Session) ClaimDraw() (string, error) {
	if err := s.checkCanMove(); err != nil {
		return "", err
	}
	if !s.claim.Eligible {
		return "", ErrNoDrawClaim
	}
	s.result = "Draw by " + s.claim.Reason.String()
	s.log.Info().Str("result", s.result).Msg("Draw claimed")
	s.renderer.Redraw(s.View())
	return s.result, nil
}

// NewGame starts over from the standard initial position.
func (s *Session) NewGame() {
	s.reset(chess.NewPosition())
}

// LoadPosition replaces the game with the position described by fen. On error
// the session is unchanged.
func (s *Session) LoadPosition(fen string) error {
	pos, err := chess.Decode(fen)
	if err != nil {
		return err
	}
	s.reset(pos)
	return nil
}

// SavePosition returns the descriptor of the live position.
func (s *Session) SavePosition() string {
	return chess.Encode(s.board.Position())
}

func (s *Session) reset(pos chess.Position) {
	s.board.Load(pos)
	s.ledger.Reset(pos)
	s.flipped = false
	s.selected = chess.NoSquare
	s.result = ""
	s.claim = chess.DrawClaim{}

	s.log.Info().Str("fen", chess.Encode(pos)).Msg("Position loaded")
	s.renderer.Redraw(s.View())
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-('a'-'A')) + s[1:]
}
