package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/justinabrahms/chessboard/internal/chess"
	"github.com/justinabrahms/chessboard/internal/session"
	"github.com/rs/zerolog/log"
)

// WebSocket upgrader with reasonable settings
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub maintains active WebSocket connections
type Hub struct {
	// Registered clients by session ID
	sessionClients map[string]map[*Client]bool

	// Broadcast channel for session updates
	broadcast chan GameUpdate

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed once Run has returned
	done chan struct{}

	mu sync.RWMutex
}

// Client represents a WebSocket connection
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

// GameUpdate is a message pushed to every client watching a session.
type GameUpdate struct {
	SessionID string       `json:"sessionId"`
	Type      string       `json:"type"` // "redraw", "refresh"
	Squares   []string     `json:"squares,omitempty"`
	View      ViewResponse `json:"view"`
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		sessionClients: make(map[string]map[*Client]bool),
		broadcast:      make(chan GameUpdate, 256),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		done:           make(chan struct{}),
	}
}

// Run starts the hub's main event loop and returns when ctx is done. Run must
// be called at most once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.sessionClients[client.sessionID] == nil {
				h.sessionClients[client.sessionID] = make(map[*Client]bool)
			}
			h.sessionClients[client.sessionID][client] = true
			h.mu.Unlock()

			log.Info().Str("sessionId", client.sessionID).Msg("Client connected to session")

		case client := <-h.unregister:
			h.remove(client)
			log.Info().Str("sessionId", client.sessionID).Msg("Client disconnected from session")

		case update := <-h.broadcast:
			message, err := json.Marshal(update)
			if err != nil {
				log.Error().Err(err).Msg("Failed to marshal session update")
				continue
			}

			h.mu.Lock()
			for client := range h.sessionClients[update.SessionID] {
				select {
				case client.send <- message:
				default:
					// Client's send channel is full, drop it
					h.removeLocked(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Done is closed once the hub has stopped.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// registerClient hands client to the event loop. It reports false when the
// hub has already stopped.
func (h *Hub) registerClient(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// trySend queues data for client unless it is full or already removed.
func (h *Hub) trySend(client *Client, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.sessionClients[client.sessionID][client] {
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

// DisconnectSession closes every client watching sessionID.
func (h *Hub) DisconnectSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.sessionClients[sessionID] {
		h.removeLocked(client)
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.sessionClients[client.sessionID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.sessionClients, client.sessionID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.sessionClients {
		for client := range clients {
			h.removeLocked(client)
		}
	}
}

// ClientCount reports how many clients watch a session.
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessionClients[sessionID])
}

// BroadcastGameUpdate queues an update for every client watching its session.
func (h *Hub) BroadcastGameUpdate(update GameUpdate) {
	select {
	case h.broadcast <- update:
	default:
		log.Warn().Str("sessionId", update.SessionID).Msg("Broadcast channel full, dropping update")
	}
}

// hubRenderer renders a session by broadcasting its changes to websocket
// clients.
type hubRenderer struct {
	hub       *Hub
	sessionID string
}

func (r *hubRenderer) Redraw(v session.View) {
	r.hub.BroadcastGameUpdate(GameUpdate{
		SessionID: r.sessionID,
		Type:      "redraw",
		View:      newViewResponse(r.sessionID, v),
	})
}

func (r *hubRenderer) Refresh(v session.View, squares []chess.Square) {
	r.hub.BroadcastGameUpdate(GameUpdate{
		SessionID: r.sessionID,
		Type:      "refresh",
		Squares:   squareNames(squares),
		View:      newViewResponse(r.sessionID, v),
	})
}

// WebSocketHandler handles WebSocket upgrade requests. The client receives a
// redraw of the current view as its first message.
func (s *Service) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "Missing sessionId parameter", http.StatusBadRequest)
		return
	}
	live, ok := s.lookup(sessionID)
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	client := &Client{
		hub:       s.hub,
		conn:      conn,
		send:      make(chan []byte, 256),
		sessionID: sessionID,
	}

	live.mu.Lock()
	initial := GameUpdate{
		SessionID: sessionID,
		Type:      "redraw",
		View:      newViewResponse(sessionID, live.session.View()),
	}
	live.mu.Unlock()
	if data, err := json.Marshal(initial); err == nil {
		client.send <- data
	}

	if !client.hub.registerClient(client) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump handles incoming messages from the WebSocket
func (c *Client) readPump() {
	defer func() {
		c.hub.unregisterClient(c)
		c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Msg("WebSocket error")
			}
			break
		}

		var msg map[string]interface{}
		if err := json.Unmarshal(message, &msg); err == nil && msg["type"] == "ping" {
			if data, err := json.Marshal(map[string]string{"type": "pong"}); err == nil {
				c.hub.trySend(c, data)
			}
		}
	}
}

// writePump handles sending messages to the WebSocket. Each update goes out
// as its own text frame.
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
