// Package livereload tracks connected browser clients and tells them to
// reload after a successful build.
package livereload

import (
	"log/slog"
	"sync"

	"github.com/jorgenskogmo/webpub/internal/logfields"
)

// ReloadMessage is the only message the server ever sends.
const ReloadMessage = "reload"

// Client is one connected browser.
type Client interface {
	Send(msg string) error
	Close() error
}

// Hub owns the set of connected clients. Clients are added on connect and
// removed on disconnect or when a send fails.
type Hub struct {
	mu      sync.Mutex
	nextID  int
	clients map[int]Client
	closed  bool
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{clients: map[int]Client{}}
}

// Add registers c and returns its id. A closed hub closes c immediately and
// returns -1.
func (h *Hub) Add(c Client) int {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = c.Close()
		return -1
	}
	id := h.nextID
	h.nextID++
	h.clients[id] = c
	n := len(h.clients)
	h.mu.Unlock()
	slog.Debug("Live reload client connected", logfields.Clients(n))
	return id
}

// Remove unregisters and closes the client with id. Unknown ids are ignored.
func (h *Hub) Remove(id int) {
	h.mu.Lock()
	c, ok := h.clients[id]
	delete(h.clients, id)
	n := len(h.clients)
	h.mu.Unlock()
	if !ok {
		return
	}
	_ = c.Close()
	slog.Debug("Live reload client disconnected", logfields.Clients(n))
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends msg to every client. Clients whose send fails are dropped.
func (h *Hub) Broadcast(msg string) (sent, dropped int) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return 0, 0
	}
	snapshot := make(map[int]Client, len(h.clients))
	for id, c := range h.clients {
		snapshot[id] = c
	}
	h.mu.Unlock()

	for id, c := range snapshot {
		if err := c.Send(msg); err != nil {
			slog.Debug("Dropping live reload client", logfields.Error(err))
			h.Remove(id)
			dropped++
			continue
		}
		sent++
	}
	slog.Debug("Live reload broadcast", logfields.Clients(sent), slog.Int("dropped", dropped))
	return sent, dropped
}

// Shutdown closes every client and rejects new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]Client{}
	h.mu.Unlock()
	for _, c := range clients {
		_ = c.Close()
	}
}
