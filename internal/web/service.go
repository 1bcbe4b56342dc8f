package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/justinabrahms/chessboard/internal/chess"
	"github.com/justinabrahms/chessboard/internal/config"
	"github.com/justinabrahms/chessboard/internal/rules"
	"github.com/justinabrahms/chessboard/internal/session"
	"github.com/rs/zerolog/log"
)

type Service struct {
	config *config.Config
	hub    *Hub

	mu       sync.RWMutex
	sessions map[string]*liveSession
}

// liveSession serialises HTTP access to one session.
type liveSession struct {
	mu       sync.Mutex
	session  *session.Session
	lastUsed time.Time
}

func NewService(cfg *config.Config, hub *Hub) *Service {
	return &Service{
		config:   cfg,
		hub:      hub,
		sessions: make(map[string]*liveSession),
	}
}

func (s *Service) newSession() (string, *liveSession, error) {
	start, err := chess.Decode(s.config.Session.StartFEN)
	if err != nil {
		return "", nil, err
	}

	id := uuid.NewString()
	opts := []session.Option{
		session.WithStartPosition(start),
		session.WithMode(s.config.StartMode()),
		session.WithRenderer(&hubRenderer{hub: s.hub, sessionID: id}),
		session.WithLogger(log.Logger.With().Str("sessionId", id).Logger()),
	}
	if s.config.Session.StrictMoves {
		opts = append(opts, session.WithReferee(rules.NewStandard()))
	}

	live := &liveSession{session: session.New(opts...), lastUsed: time.Now()}
	s.mu.Lock()
	s.sessions[id] = live
	s.mu.Unlock()
	return id, live, nil
}

func (s *Service) lookup(id string) (*liveSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	live, ok := s.sessions[id]
	return live, ok
}

// SessionCount reports how many sessions are open.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// removeSession forgets id and disconnects its websocket clients.
func (s *Service) removeSession(id string) bool {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		s.hub.DisconnectSession(id)
	}
	return ok
}

// PruneIdle removes every session last used before cutoff and reports how
// many were removed.
func (s *Service) PruneIdle(cutoff time.Time) int {
	s.mu.RLock()
	snapshot := make(map[string]*liveSession, len(s.sessions))
	for id, live := range s.sessions {
		snapshot[id] = live
	}
	s.mu.RUnlock()

	var idle []string
	for id, live := range snapshot {
		live.mu.Lock()
		if live.lastUsed.Before(cutoff) {
			idle = append(idle, id)
		}
		live.mu.Unlock()
	}

	removed := 0
	for _, id := range idle {
		if s.removeSession(id) {
			removed++
			log.Info().Str("sessionId", id).Msg("Idle session expired")
		}
	}
	return removed
}

// RunJanitor expires sessions idle for longer than maxIdle until ctx is
// done. A non-positive maxIdle disables expiry.
func (s *Service) RunJanitor(ctx context.Context, maxIdle time.Duration) {
	if maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(maxIdle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.PruneIdle(now.Add(-maxIdle))
		}
	}
}

// withSession resolves the {id} route variable, locks that session and
// writes fn's result as JSON.
func (s *Service) withSession(w http.ResponseWriter, r *http.Request, fn func(id string, sess *session.Session) (interface{}, error)) {
	id := mux.Vars(r)["id"]
	live, ok := s.lookup(id)
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	live.mu.Lock()
	live.lastUsed = time.Now()
	result, err := fn(id, live.session)
	live.mu.Unlock()

	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Str("sessionId", id).Str("path", r.URL.Path).Msg("Session request failed")
		} else {
			log.Debug().Err(err).Str("sessionId", id).Str("path", r.URL.Path).Msg("Session request rejected")
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, chess.ErrMalformedDescriptor),
		errors.Is(err, chess.ErrInvalidSquare):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrGameOver),
		errors.Is(err, session.ErrReadOnlyHistory),
		errors.Is(err, session.ErrNoDrawClaim):
		return http.StatusConflict
	case errors.Is(err, chess.ErrIndexOutOfRange),
		errors.Is(err, session.ErrEmptySquare),
		errors.Is(err, session.ErrNotYourTurn),
		errors.Is(err, session.ErrOccupationConflict),
		errors.Is(err, session.ErrIllegalMove),
		errors.Is(err, session.ErrCastlingUnavailable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("invalid request")

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Service) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": s.SessionCount(),
	})
}

type CreateSessionRequest struct {
	FEN  string `json:"fen,omitempty"`
	Mode string `json:"mode,omitempty"`
}

func (s *Service) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var mode chess.Mode
	if req.Mode != "" {
		m, err := parseMode(req.Mode)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mode = m
	}

	id, live, err := s.newSession()
	if err != nil {
		log.Error().Err(err).Msg("Failed to create session")
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	live.mu.Lock()
	defer live.mu.Unlock()
	if req.FEN != "" {
		if err := live.session.LoadPosition(req.FEN); err != nil {
			s.mu.Lock()
			delete(s.sessions, id)
			s.mu.Unlock()
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if req.Mode != "" {
		live.session.SetMode(mode)
	}

	log.Info().Str("sessionId", id).Str("fen", live.session.SavePosition()).Msg("Session created")
	writeJSON(w, http.StatusCreated, newViewResponse(id, live.session.View()))
}

// DeleteSessionHandler closes a session and its websocket clients.
func (s *Service) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !s.removeSession(id) {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	log.Info().Str("sessionId", id).Msg("Session deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(id string, sess *session.Session) (interface{}, error) {
		return newViewResponse(id, sess.View()), nil
	})
}

type SelectRequest struct {
	Square string `json:"square"`
}

// SelectHandler takes one click in display coordinates.
func (s *Service) SelectHandler(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(id string, sess *session.Session) (interface{}, error) {
		var req SelectRequest
		if err := decode(r, &req); err != nil {
			return nil, err
		}
		sq, err := chess.ParseSquare(req.Square)
		if err != nil {
			return nil, err
		}
		outcome, err := sess.Select(sq)
		if err != nil {
			return nil, err
		}
		return newMoveResponse(id, outcome, sess.View()), nil
	})
}

type MakeMoveRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (s *Service) MakeMoveHandler(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(id string, sess *session.Session) (interface{}, error) {
		var req MakeMoveRequest
		if err := decode(r, &req); err != nil {
			return nil, err
		}
		from, err := chess.ParseSquare(req.From)
		if err != nil {
			return nil, err
		}
		to, err := chess.ParseSquare(req.To)
		if err != nil {
			return nil, err
		}
		outcome, err := sess.Move(from, to)
		if err != nil {
			return nil, err
		}
		return newMoveResponse(id, outcome, sess.View()), nil
	})
}

type CastleRequest struct {
	Side string `json:"side"`
}

func (s *Service) CastleHandler(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(id string, sess *session.Session) (interface{}, error) {
		var req CastleRequest
		if err := decode(r, &req); err != nil {
			return nil, err
		}
		side, err := parseSide(req.Side)
		if err != nil {
			return nil, err
		}
		outcome, err := sess.Castle(side)
		if err != nil {
			return nil, err
		}
		return newMoveResponse(id, outcome, sess.View()), nil
	})
}

// NavigateRequest names either an absolute Index or a relative Target
// ("start", "back", "forward", "latest").
type NavigateRequest struct {
	Index  *int   `json:"index,omitempty"`
	Target string `json:"target,omitempty"`
}

func (s *Service) NavigateHandler(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(id string, sess *session.Session) (interface{}, error) {
		var req NavigateRequest
		if err := decode(r, &req); err != nil {
			return nil, err
		}

		var err error
		switch {
		case req.Index != nil:
			err = sess.Navigate(*req.Index)
		case req.Target == "start":
			err = sess.Start()
		case req.Target == "back":
			err = sess.Back()
		case req.Target == "forward":
			err = sess.Forward()
		case req.Target == "latest":
			err = sess.Latest()
		default:
			err = fmt.Errorf("%w: unknown navigation target %q", errBadRequest, req.Target)
		}
		if err != nil {
			return nil, err
		}
		return newViewResponse(id, sess.View()), nil
	})
}

type ModeRequest struct {
	Mode string `json:"mode"`
}

func (s *Service) ModeHandler(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(id string, sess *session.Session) (interface{}, error) {
		var req ModeRequest
		if err := decode(r, &req); err != nil {
			return nil, err
		}
		mode, err := parseMode(req.Mode)
		if err != nil {
			return nil, err
		}
		sess.SetMode(mode)
		return newViewResponse(id, sess.View()), nil
	})
}

func (s *Service) FlipHandler(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(id string, sess *session.Session) (interface{}, error) {
		sess.Flip()
		return newViewResponse(id, sess.View()), nil
	})
}

type ResultResponse struct {
	SessionID string `json:"sessionId"`
	Result    string `json:"result"`
}

func (s *Service) ResignHandler(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(id string, sess *session.Session) (interface{}, error) {
		result, err := sess.Resign()
		if err != nil {
			return nil, err
		}
		return ResultResponse{SessionID: id, Result: result}, nil
	})
}

func (s *Service) ClaimDrawHandler(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(id string, sess *session.Session) (interface{}, error) {
		result, err := sess.ClaimDraw()
		if err != nil {
			return nil, err
		}
		return ResultResponse{SessionID: id, Result: result}, nil
	})
}

type PositionRequest struct {
	FEN string `json:"fen"`
}

func (s *Service) LoadPositionHandler(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(id string, sess *session.Session) (interface{}, error) {
		var req PositionRequest
		if err := decode(r, &req); err != nil {
			return nil, err
		}
		if err := sess.LoadPosition(req.FEN); err != nil {
			return nil, err
		}
		return newViewResponse(id, sess.View()), nil
	})
}

func (s *Service) SavePositionHandler(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(id string, sess *session.Session) (interface{}, error) {
		return PositionRequest{FEN: sess.SavePosition()}, nil
	})
}

type TranscriptResponse struct {
	SessionID  string   `json:"sessionId"`
	Transcript string   `json:"transcript"`
	Moves      []string `json:"moves"`
}

func (s *Service) TranscriptHandler(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(id string, sess *session.Session) (interface{}, error) {
		history := sess.History()
		moves := make([]string, 0, len(history))
		for _, entry := range history[1:] {
			moves = append(moves, entry.Notation)
		}
		return TranscriptResponse{
			SessionID:  id,
			Transcript: sess.Transcript(),
			Moves:      moves,
		}, nil
	})
}

func parseMode(name string) (chess.Mode, error) {
	switch strings.ToLower(name) {
	case chess.ModeGame.String():
		return chess.ModeGame, nil
	case chess.ModeAnalysis.String():
		return chess.ModeAnalysis, nil
	}
	return chess.ModeGame, fmt.Errorf("%w: unknown mode %q", errBadRequest, name)
}

func parseSide(name string) (chess.Side, error) {
	switch name {
	case chess.Kingside.String(), chess.KingsideCastleNotation:
		return chess.Kingside, nil
	case chess.Queenside.String(), chess.QueensideCastleNotation:
		return chess.Queenside, nil
	}
	return chess.Kingside, fmt.Errorf("%w: unknown castling side %q", errBadRequest, name)
}
