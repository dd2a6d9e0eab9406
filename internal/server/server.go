// Package server is the development HTTP server: it serves the output
// directory with the live-reload script injected, the live-reload endpoints
// and a small JSON API about builds.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jorgenskogmo/webpub/internal/build"
	"github.com/jorgenskogmo/webpub/internal/config"
	"github.com/jorgenskogmo/webpub/internal/history"
	"github.com/jorgenskogmo/webpub/internal/livereload"
	"github.com/jorgenskogmo/webpub/internal/logfields"
	"github.com/jorgenskogmo/webpub/internal/server/middleware"
)

// PortAttempts is how many consecutive ports ListenFree tries.
const PortAttempts = 10

// Route paths.
const (
	PathLiveReload       = "/livereload"
	PathLiveReloadEvents = "/livereload/events"
	PathStatus           = "/api/status"
	PathBuilds           = "/api/builds"
	PathMetrics          = "/metrics"
)

// StatusProvider reports coordinator state.
type StatusProvider interface {
	Status() build.Status
}

// Options carries the collaborators the server exposes. Nil fields disable
// the matching routes.
type Options struct {
	Hub     *livereload.Hub
	Status  StatusProvider
	History history.Store
	Metrics http.Handler
}

// Server serves the output directory during development.
type Server struct {
	cfg  *config.Config
	opts Options

	mu  sync.Mutex
	srv *http.Server
	ln  net.Listener
}

// New creates a server for cfg.
func New(cfg *config.Config, opts Options) *Server {
	return &Server{cfg: cfg, opts: opts}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", withLiveReload(http.FileServer(http.Dir(s.cfg.OutputDirectory))))
	mux.HandleFunc(livereload.ScriptPath, serveScript)
	if s.opts.Hub != nil {
		mux.Handle(PathLiveReload, livereload.WebSocketHandler(s.opts.Hub))
		mux.Handle(PathLiveReloadEvents, livereload.SSEHandler(s.opts.Hub))
	}
	if s.opts.Status != nil {
		mux.HandleFunc(PathStatus, s.handleStatus)
	}
	if s.opts.History != nil {
		mux.HandleFunc(PathBuilds, s.handleBuilds)
	}
	if s.opts.Metrics != nil {
		mux.Handle(PathMetrics, s.opts.Metrics)
	}
	return middleware.Chain(slog.Default())(mux)
}

// Start binds the first free port from the configured one and serves in the
// background.
func (s *Server) Start(ctx context.Context) error {
	ln, err := ListenFree(ctx, s.cfg.DevServerPort)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.srv, s.ln = srv, ln
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Dev server error", logfields.Error(err))
		}
	}()
	slog.Info("Dev server started", slog.String("url", s.URL()))
	return nil
}

// URL is the address the server is reachable on, or "" before Start.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return "http://localhost:" + strconv.Itoa(s.ln.Addr().(*net.TCPAddr).Port)
}

// Stop closes live-reload clients and shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.opts.Hub != nil {
		s.opts.Hub.Shutdown()
	}
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("dev server shutdown: %w", err)
	}
	slog.Info("Dev server stopped")
	return nil
}

// ListenFree listens on the first free TCP port in [port, port+PortAttempts).
func ListenFree(ctx context.Context, port int) (net.Listener, error) {
	lc := net.ListenConfig{}
	var errs []error
	for p := port; p < port+PortAttempts; p++ {
		ln, err := lc.Listen(ctx, "tcp", ":"+strconv.Itoa(p))
		if err == nil {
			if p != port {
				slog.Info("Port in use, using next free port", slog.Int("requested", port), slog.Int("port", p))
			}
			return ln, nil
		}
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("no free port in %d-%d: %w", port, port+PortAttempts-1, errors.Join(errs...))
}

func serveScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(livereload.Script))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	_ = writeJSON(w, http.StatusOK, s.opts.Status.Status())
}

func (s *Server) handleBuilds(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	records, err := s.opts.History.Recent(r.Context(), limit)
	if err != nil {
		slog.Error("Failed to read build history", logfields.Error(err))
		http.Error(w, "failed to read build history", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []history.Record{}
	}
	_ = writeJSON(w, http.StatusOK, records)
}

// writeJSON encodes v before touching the response so encoding errors never
// produce a partial body.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("Failed writing JSON response body", logfields.Error(err))
		return err
	}
	return nil
}
