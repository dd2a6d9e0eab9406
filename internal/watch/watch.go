// Package watch turns filesystem events under the content and theme roots
// into debounced rebuilds.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"

	"github.com/jorgenskogmo/webpub/internal/build"
	"github.com/jorgenskogmo/webpub/internal/config"
	"github.com/jorgenskogmo/webpub/internal/logfields"
)

// Builder is the part of the build coordinator the scheduler drives.
type Builder interface {
	RunBuild(ctx context.Context, trigger string) build.Result
	CompletedAt() time.Time
}

// Scheduler debounces change events into rebuilds. At most one rebuild is
// pending at any time; every qualifying event pushes it back by Quiet.
type Scheduler struct {
	Roots   []string
	Builder Builder
	Clock   clockwork.Clock
	Quiet   time.Duration
	Grace   time.Duration

	mu      sync.Mutex
	ctx     context.Context
	timer   clockwork.Timer
	gen     uint64
	pending bool
}

// New returns a scheduler for the roots and timings in cfg.
func New(cfg *config.Config, b Builder) *Scheduler {
	return &Scheduler{
		Roots:   cfg.WatchRoots(),
		Builder: b,
		Clock:   clockwork.NewRealClock(),
		Quiet:   cfg.Watch.Debounce,
		Grace:   cfg.Watch.Grace,
	}
}

// Run watches the roots until ctx is done. Directories created later are
// added as they appear. Watcher errors are logged and never end the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for _, root := range s.Roots {
		if err := addDirsRecursive(watcher, root); err != nil {
			return err
		}
	}
	s.bind(ctx)
	defer s.Stop()
	slog.Info("Watching for changes", slog.Any("roots", s.Roots), logfields.Duration(s.Quiet))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			s.handleEvent(watcher, ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (s *Scheduler) handleEvent(w *fsnotify.Watcher, ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(w, ev.Name)
		}
	}
	if s.Observe(ev.Name) {
		slog.Debug("File change detected", logfields.Path(ev.Name), logfields.Event(ev.Op.String()))
	}
}

// Observe applies the grace window and noise filter to a changed path and
// schedules a rebuild when the event qualifies. It reports whether it did.
func (s *Scheduler) Observe(path string) bool {
	if isNoise(path) {
		return false
	}
	if done := s.Builder.CompletedAt(); !done.IsZero() && s.Clock.Since(done) < s.Grace {
		return false
	}
	s.Schedule()
	return true
}

// Schedule cancels any pending rebuild and arms a new one Quiet from now.
func (s *Scheduler) Schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.pending = true
	s.timer = s.Clock.AfterFunc(s.Quiet, func() { s.fire(gen) })
}

// Pending reports whether a rebuild is scheduled and has not started.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Stop cancels a pending rebuild.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	s.pending = false
}

func (s *Scheduler) bind(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || !s.pending {
		// superseded by a later Schedule
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.pending = false
	ctx := s.ctx
	s.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return
	}
	slog.Info("Change detected; rebuilding site")
	if res := s.Builder.RunBuild(ctx, build.TriggerWatch); res.Outcome == build.OutcomeSkipped {
		// a build was already running; try again after another quiet period
		s.Schedule()
	}
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// isNoise reports paths that never trigger a rebuild: OS metadata, hidden
// files and editor swap or backup files.
func isNoise(path string) bool {
	base := filepath.Base(path)

	if base == ".DS_Store" || base == "Thumbs.db" || base == "desktop.ini" {
		return true
	}
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasSuffix(base, ".tmp") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return false
}
