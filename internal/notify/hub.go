package notify

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser dashboards connect from other origins; the API is already
	// CORS-open.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Hub broadcasts pipeline events to connected websocket clients. A send
// failure disconnects that client and is never surfaced to the pipeline.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

var _ Notifier = (*Hub)(nil)

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]bool)}
}

// ServeWS upgrades an HTTP request to a websocket connection and registers
// the client for event broadcasts.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	count := len(h.clients)
	h.mu.Unlock()

	slog.Info("websocket client connected", "clients", count)

	// Drain reads so pings and close frames are processed; drop the client
	// when the connection errors out.
	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Notify broadcasts the event to every connected client. Clients whose send
// fails are dropped.
func (h *Hub) Notify(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	// Writes happen under the lock: gorilla connections do not support
	// concurrent writers, and the sweep and lifecycle loops may both emit.
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(event); err != nil {
			slog.Warn("websocket broadcast failed, dropping client", "error", err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if h.clients[conn] {
		delete(h.clients, conn)
		conn.Close()
	}
	h.mu.Unlock()
}
