package livereload

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

var errClientBusy = errors.New("live reload client not keeping up")

const heartbeat = 30 * time.Second

type sseClient struct {
	ch   chan string
	done chan struct{}
	once sync.Once
}

func newSSEClient() *sseClient {
	return &sseClient{ch: make(chan string, 8), done: make(chan struct{})}
}

func (c *sseClient) Send(msg string) error {
	select {
	case <-c.done:
		return errors.New("client closed")
	default:
	}
	select {
	case c.ch <- msg:
		return nil
	default:
		return errClientBusy
	}
}

func (c *sseClient) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

// SSEHandler serves a text/event-stream for browsers without WebSocket support.
func SSEHandler(h *Hub) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "stream unsupported", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		client := newSSEClient()
		id := h.Add(client)
		if id < 0 {
			http.Error(w, "live reload shutting down", http.StatusServiceUnavailable)
			return
		}
		defer h.Remove(id)

		if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
			return
		}
		flusher.Flush()

		hb := time.NewTicker(heartbeat)
		defer hb.Stop()
		for {
			select {
			case <-r.Context().Done():
				return
			case <-client.done:
				return
			case <-hb.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				flusher.Flush()
			case msg := <-client.ch:
				if _, err := fmt.Fprintf(w, "data: %s\n\n", msg); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	})
}
