package session

import (
	"testing"

	"github.com/justinabrahms/chessboard/internal/chess"
	"github.com/justinabrahms/chessboard/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRenderer struct {
	redraws   int
	refreshes [][]chess.Square
	last      View
}

func (r *recordingRenderer) Redraw(v View) {
	r.redraws++
	r.last = v
}

func (r *recordingRenderer) Refresh(v View, squares []chess.Square) {
	r.refreshes = append(r.refreshes, squares)
	r.last = v
}

func sq(t *testing.T, name string) chess.Square {
	t.Helper()
	s, err := chess.ParseSquare(name)
	require.NoError(t, err)
	return s
}

func move(t *testing.T, s *Session, from, to string) *MoveOutcome {
	t.Helper()
	outcome, err := s.Move(sq(t, from), sq(t, to))
	require.NoError(t, err, "move %s%s", from, to)
	return outcome
}

func TestMoveRecordsAndNotifies(t *testing.T) {
	r := &recordingRenderer{}
	s := New(WithRenderer(r))

	outcome := move(t, s, "e2", "e4")

	assert.Equal(t, "e2e4", outcome.Notation)
	assert.Equal(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1", outcome.FEN)
	assert.Equal(t, 1, outcome.Index)
	assert.False(t, outcome.Draw.Eligible)

	require.Len(t, r.refreshes, 1)
	assert.Equal(t, []chess.Square{sq(t, "e2"), sq(t, "e4")}, r.refreshes[0])
	assert.Equal(t, outcome.FEN, r.last.FEN)
	assert.Equal(t, 2, r.last.Length)
}

func TestMoveRejections(t *testing.T) {
	s := New()

	_, err := s.Move(sq(t, "e4"), sq(t, "e5"))
	assert.ErrorIs(t, err, ErrEmptySquare)

	_, err = s.Move(sq(t, "e7"), sq(t, "e5"))
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, err = s.Move(sq(t, "d1"), sq(t, "e2"))
	assert.ErrorIs(t, err, ErrOccupationConflict)

	_, err = s.Move(chess.NoSquare, sq(t, "e4"))
	assert.ErrorIs(t, err, chess.ErrInvalidSquare)

	assert.Equal(t, chess.StartingFEN, s.SavePosition(), "rejected moves must not change the board")
	assert.Equal(t, 1, s.View().Length)
}

func TestMoveIsPermissiveByDefault(t *testing.T) {
	s := New()

	// Queen through her own pawn onto the enemy queen.
	outcome := move(t, s, "d1", "d8")
	assert.Equal(t, "d1d8", outcome.Notation)
	assert.Equal(t, chess.Piece{Color: chess.White, Kind: chess.Queen}, s.View().Position.At(sq(t, "d8")))
}

func TestStrictRefereeRejectsIllegalMoves(t *testing.T) {
	s := New(WithReferee(rules.NewStandard()))

	_, err := s.Move(sq(t, "d1"), sq(t, "d8"))
	assert.ErrorIs(t, err, ErrIllegalMove)

	move(t, s, "e2", "e4")
}

func TestStrictRefereeRejectsSpecialMoves(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		from string
		to   string
	}{
		{"Castling by king move", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1", "g1"},
		{"En passant", "4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 2", "e5", "d6"},
		{"Promotion", "4k3/P7/8/8/8/8/8/4K3 w - - 0 1", "a7", "a8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, err := chess.Decode(tt.fen)
			require.NoError(t, err)
			s := New(WithStartPosition(start), WithReferee(rules.NewStandard()))

			_, err = s.Move(sq(t, tt.from), sq(t, tt.to))
			assert.ErrorIs(t, err, ErrIllegalMove)
			assert.Equal(t, tt.fen, s.SavePosition(), "rejected moves must not change the board")
			assert.Equal(t, 1, s.View().Length)
		})
	}
}

func TestStrictRefereeCastles(t *testing.T) {
	start, err := chess.Decode("r3k2r/pppppppp/8/8/8/8/PPPPPPPP/R3K2R w KQkq - 6 10")
	require.NoError(t, err)
	s := New(WithStartPosition(start), WithReferee(rules.NewStandard()))

	outcome, err := s.Castle(chess.Kingside)
	require.NoError(t, err)
	assert.Equal(t, "r3k2r/pppppppp/8/8/8/8/PPPPPPPP/R4RK1 b kq - 7 10", outcome.FEN)

	const attacked = "r3k2r/8/8/8/8/8/5r2/R3K2R w KQkq - 0 1"
	require.NoError(t, s.LoadPosition(attacked))
	_, err = s.Castle(chess.Kingside)
	assert.ErrorIs(t, err, ErrIllegalMove)
	assert.Equal(t, attacked, s.SavePosition())
}

func TestStrictRefereeEndsGameOnCheckmate(t *testing.T) {
	r := &recordingRenderer{}
	s := New(WithReferee(rules.NewStandard()), WithRenderer(r))

	move(t, s, "f2", "f3")
	move(t, s, "e7", "e5")
	move(t, s, "g2", "g4")
	assert.Empty(t, s.View().Result)
	move(t, s, "d8", "h4")

	assert.Equal(t, "Black wins by checkmate", s.View().Result)
	assert.Equal(t, "Black wins by checkmate", r.last.Result)
	assert.False(t, s.View().CanMove)

	_, err := s.Move(sq(t, "e1"), sq(t, "f2"))
	assert.ErrorIs(t, err, ErrGameOver)
}

func TestPermissiveSessionNeverAdjudicates(t *testing.T) {
	s := New()

	move(t, s, "f2", "f3")
	move(t, s, "e7", "e5")
	move(t, s, "g2", "g4")
	move(t, s, "d8", "h4")

	assert.Empty(t, s.View().Result)
	assert.True(t, s.View().CanMove)
}

func TestSelectTwoClickProtocol(t *testing.T) {
	s := New()

	// Clicking an empty square or an enemy piece selects nothing.
	outcome, err := s.Select(sq(t, "e4"))
	require.NoError(t, err)
	assert.Nil(t, outcome)
	assert.Equal(t, chess.NoSquare, s.View().Selected)

	_, err = s.Select(sq(t, "e7"))
	require.NoError(t, err)
	assert.Equal(t, chess.NoSquare, s.View().Selected)

	_, err = s.Select(sq(t, "e2"))
	require.NoError(t, err)
	assert.Equal(t, sq(t, "e2"), s.View().Selected)

	outcome, err = s.Select(sq(t, "e4"))
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.Equal(t, "e2e4", outcome.Notation)
	assert.Equal(t, chess.NoSquare, s.View().Selected)
}

func TestSelectConflictDropsSelection(t *testing.T) {
	s := New()

	_, err := s.Select(sq(t, "g1"))
	require.NoError(t, err)
	_, err = s.Select(sq(t, "e2"))
	assert.ErrorIs(t, err, ErrOccupationConflict)
	assert.Equal(t, chess.NoSquare, s.View().Selected)

	_, err = s.Select(sq(t, "g1"))
	require.NoError(t, err)
	_, err = s.Select(sq(t, "g1"))
	assert.ErrorIs(t, err, ErrOccupationConflict)
}

func TestSelectRedrawsWhenSelectionChanges(t *testing.T) {
	r := &recordingRenderer{}
	s := New(WithRenderer(r))

	_, err := s.Select(sq(t, "e4"))
	require.NoError(t, err)
	assert.Equal(t, 0, r.redraws, "an empty square selects nothing")

	_, err = s.Select(sq(t, "e2"))
	require.NoError(t, err)
	assert.Equal(t, 1, r.redraws)
	assert.Equal(t, sq(t, "e2"), r.last.Selected)

	_, err = s.Select(sq(t, "e4"))
	require.NoError(t, err)
	assert.Equal(t, 1, r.redraws)
	require.Len(t, r.refreshes, 1)
	assert.Equal(t, chess.NoSquare, r.last.Selected)

	_, err = s.Select(sq(t, "g8"))
	require.NoError(t, err)
	assert.Equal(t, 2, r.redraws)
	assert.Equal(t, sq(t, "g8"), r.last.Selected)

	_, err = s.Select(sq(t, "e7"))
	assert.ErrorIs(t, err, ErrOccupationConflict)
	assert.Equal(t, 3, r.redraws)
	assert.Equal(t, chess.NoSquare, r.last.Selected)
}

func TestSelectOnFlippedBoardUsesAbsoluteNotation(t *testing.T) {
	s := New()
	s.Flip()

	// e2 in white-origin coordinates is shown where d7 would be.
	_, err := s.Select(sq(t, "d7"))
	require.NoError(t, err)
	outcome, err := s.Select(sq(t, "d5"))
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.Equal(t, "e2e4", outcome.Notation)
}

func TestCastle(t *testing.T) {
	start, err := chess.Decode("r3k2r/pppppppp/8/8/8/8/PPPPPPPP/R3K2R w KQkq - 6 10")
	require.NoError(t, err)
	r := &recordingRenderer{}
	s := New(WithStartPosition(start), WithRenderer(r))

	outcome, err := s.Castle(chess.Kingside)
	require.NoError(t, err)
	assert.Equal(t, "O-O", outcome.Notation)
	assert.Equal(t, "r3k2r/pppppppp/8/8/8/8/PPPPPPPP/R4RK1 b kq - 7 10", outcome.FEN)
	assert.Len(t, r.refreshes[0], 4)

	outcome, err = s.Castle(chess.Queenside)
	require.NoError(t, err)
	assert.Equal(t, "O-O-O", outcome.Notation)
	assert.Equal(t, "2kr3r/pppppppp/8/8/8/8/PPPPPPPP/R4RK1 w - - 8 11", outcome.FEN)

	_, err = s.Castle(chess.Queenside)
	assert.ErrorIs(t, err, ErrCastlingUnavailable)

	assert.Equal(t, "1. O-O O-O-O", s.Transcript())
}

func TestKingMoveRevokesCastling(t *testing.T) {
	start, err := chess.Decode("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	require.NoError(t, err)
	s := New(WithStartPosition(start))

	move(t, s, "e1", "e2")
	move(t, s, "a8", "a7")
	move(t, s, "e2", "e1")
	move(t, s, "a7", "a8")

	_, err = s.Castle(chess.Kingside)
	assert.ErrorIs(t, err, ErrCastlingUnavailable)
	assert.Equal(t, "r3k2r/8/8/8/8/8/8/R3K2R w k - 4 3", s.SavePosition())
}

func TestGameModeHistoryIsReadOnly(t *testing.T) {
	s := New()
	move(t, s, "e2", "e4")
	move(t, s, "e7", "e5")

	require.NoError(t, s.Back())
	assert.Equal(t, 1, s.View().Index)
	assert.False(t, s.View().CanMove)
	assert.Equal(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1", s.SavePosition())

	_, err := s.Move(sq(t, "d7"), sq(t, "d5"))
	assert.ErrorIs(t, err, ErrReadOnlyHistory)
	_, err = s.Select(sq(t, "d7"))
	assert.ErrorIs(t, err, ErrReadOnlyHistory)

	require.NoError(t, s.Latest())
	assert.True(t, s.View().CanMove)
	move(t, s, "g1", "f3")
	assert.Equal(t, 4, s.View().Length)
}

func TestNavigationBounds(t *testing.T) {
	s := New()
	move(t, s, "e2", "e4")

	assert.ErrorIs(t, s.Forward(), chess.ErrIndexOutOfRange)
	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Back(), chess.ErrIndexOutOfRange)
	assert.Equal(t, 0, s.View().Index)
	assert.ErrorIs(t, s.Navigate(7), chess.ErrIndexOutOfRange)
	assert.Equal(t, 0, s.View().Index)
	require.NoError(t, s.Forward())
	assert.Equal(t, 1, s.View().Index)
}

func TestAnalysisModeRewritesHistory(t *testing.T) {
	s := New(WithMode(chess.ModeAnalysis))
	move(t, s, "e2", "e4")
	move(t, s, "e7", "e5")
	move(t, s, "g1", "f3")

	require.NoError(t, s.Navigate(1))
	assert.True(t, s.View().CanMove)

	outcome := move(t, s, "c7", "c5")
	assert.Equal(t, 2, outcome.Index)
	assert.Equal(t, 3, s.View().Length)
	assert.Equal(t, "1. e2e4 c7c5", s.Transcript())
}

func TestAnalysisModeRewindToStartUsesCapturedStart(t *testing.T) {
	start, err := chess.Decode("4k3/8/8/8/8/8/4P3/4K3 w - - 33 50")
	require.NoError(t, err)
	s := New(WithStartPosition(start), WithMode(chess.ModeAnalysis))

	move(t, s, "e1", "d1")
	move(t, s, "e8", "d8")

	require.NoError(t, s.Start())
	assert.Equal(t, "4k3/8/8/8/8/8/4P3/4K3 w - - 33 50", s.SavePosition())

	outcome := move(t, s, "e2", "e4")
	assert.Equal(t, 1, outcome.Index)
	assert.Equal(t, "4k3/8/8/8/4P3/8/8/4K3 b - e3 0 50", outcome.FEN)
	assert.Equal(t, []string{"e2e4"}, s.ledger.Moves())
}

func TestDrawClaimOfferedOncePerStreak(t *testing.T) {
	start, err := chess.Decode("4k3/8/8/8/8/8/8/4K3 w - - 99 70")
	require.NoError(t, err)
	s := New(WithStartPosition(start))

	_, err = s.ClaimDraw()
	assert.ErrorIs(t, err, ErrNoDrawClaim)

	outcome := move(t, s, "e1", "d1")
	assert.True(t, outcome.Draw.Eligible)
	assert.True(t, outcome.OfferDraw)

	outcome = move(t, s, "e8", "d8")
	assert.True(t, outcome.Draw.Eligible)
	assert.False(t, outcome.OfferDraw, "claim was already available on the previous ply")

	result, err := s.ClaimDraw()
	require.NoError(t, err)
	assert.Equal(t, "Draw by 50 move rule", result)

	_, err = s.Move(sq(t, "d1"), sq(t, "c1"))
	assert.ErrorIs(t, err, ErrGameOver)
	_, err = s.ClaimDraw()
	assert.ErrorIs(t, err, ErrGameOver)
}

func TestClaimDrawFromHistoryIsReadOnly(t *testing.T) {
	start, err := chess.Decode("4k3/8/8/8/8/8/8/4K3 w - - 99 70")
	require.NoError(t, err)
	s := New(WithStartPosition(start))

	move(t, s, "e1", "d1")
	move(t, s, "e8", "d8")
	require.NoError(t, s.Back())
	require.True(t, s.View().DrawClaim.Eligible)

	_, err = s.ClaimDraw()
	assert.ErrorIs(t, err, ErrReadOnlyHistory)
	assert.Empty(t, s.View().Result)

	require.NoError(t, s.Latest())
	result, err := s.ClaimDraw()
	require.NoError(t, err)
	assert.Equal(t, "Draw by 50 move rule", result)
}

func TestDrawByRepetition(t *testing.T) {
	s := New()
	shuffle := [][2]string{{"g1", "f3"}, {"g8", "f6"}, {"f3", "g1"}, {"f6", "g8"}}

	var last *MoveOutcome
	for i := 0; i < 3; i++ {
		for _, m := range shuffle {
			last = move(t, s, m[0], m[1])
		}
	}
	assert.True(t, last.OfferDraw)
	assert.Equal(t, chess.DrawByRepetition, last.Draw.Reason)

	result, err := s.ClaimDraw()
	require.NoError(t, err)
	assert.Equal(t, "Draw by repetition", result)
}

func TestResign(t *testing.T) {
	s := New()
	move(t, s, "e2", "e4")

	result, err := s.Resign()
	require.NoError(t, err)
	assert.Equal(t, "White wins by resignation", result)
	assert.False(t, s.View().CanMove)

	_, err = s.Resign()
	assert.ErrorIs(t, err, ErrGameOver)

	s.NewGame()
	assert.Empty(t, s.View().Result)
	assert.Equal(t, chess.StartingFEN, s.SavePosition())
}

func TestLoadPosition(t *testing.T) {
	r := &recordingRenderer{}
	s := New(WithRenderer(r))
	move(t, s, "e2", "e4")
	s.Flip()

	const fen = "8/8/8/4k3/8/3K4/8/8 b - - 5 60"
	require.NoError(t, s.LoadPosition(fen))
	assert.Equal(t, fen, s.SavePosition())
	assert.Equal(t, 1, s.View().Length)
	assert.False(t, s.View().Flipped)
	assert.Equal(t, "1...", s.Transcript())
	assert.Equal(t, fen, r.last.FEN)

	err := s.LoadPosition("not a fen")
	assert.ErrorIs(t, err, chess.ErrMalformedDescriptor)
	assert.Equal(t, fen, s.SavePosition(), "failed load must leave the session unchanged")
}

func TestSetModeAndFlipRedraw(t *testing.T) {
	r := &recordingRenderer{}
	s := New(WithRenderer(r))

	s.SetMode(chess.ModeAnalysis)
	s.SetMode(chess.ModeAnalysis)
	s.Flip()

	assert.Equal(t, 2, r.redraws)
	assert.Equal(t, chess.ModeAnalysis, s.Mode())
	assert.True(t, r.last.Flipped)
}

func TestHistoryIsCopied(t *testing.T) {
	s := New()
	move(t, s, "e2", "e4")

	history := s.History()
	history[0].Position = chess.EmptyPosition()

	again := s.History()
	assert.Equal(t, chess.StartingFEN, chess.Encode(again[0].Position))
}
