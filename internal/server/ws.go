package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/depthkeys/internal/mode"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

const (
	clientBuffer = 32
	writeTimeout = 5 * time.Second
)

// Event is one message on /api/events.
type Event struct {
	Type      string `json:"type"`
	Key       string `json:"key,omitempty"`
	Mode      string `json:"mode,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// EventsHandler broadcasts key presses and mode changes to WebSocket
// clients. It is a keystroke.Sink; a slow client misses events instead of
// stalling the frame pipeline.
type EventsHandler struct {
	logger  *slog.Logger
	clients map[*client]struct{}
	mu      sync.RWMutex
	closed  bool
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(logger *slog.Logger) *EventsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventsHandler{
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade error", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(c)
}

func (h *EventsHandler) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *EventsHandler) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Clients returns the number of connected clients.
func (h *EventsHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Send broadcasts a key press.
func (h *EventsHandler) Send(key string) {
	h.broadcast(Event{Type: "key", Key: key, Timestamp: time.Now().UnixMilli()})
}

// BroadcastMode broadcasts a mode change.
func (h *EventsHandler) BroadcastMode(m mode.Mode) {
	h.broadcast(Event{Type: "mode", Mode: m.String(), Timestamp: time.Now().UnixMilli()})
}

func (h *EventsHandler) broadcast(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return
	}

	msg, err := json.Marshal(e)
	if err != nil {
		return
	}

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Debug("event dropped for slow client", "type", e.Type)
		}
	}
}

// Close disconnects every client.
func (h *EventsHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
